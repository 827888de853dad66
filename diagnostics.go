package main

import "fmt"

type diagnosticKind string

const (
	diagArgument   diagnosticKind = "argument"
	diagUnresolved diagnosticKind = "unresolved"
	diagInput      diagnosticKind = "input"
	diagLimit      diagnosticKind = "limit"
)

// diagnostic is a problem that did not stop the run. origin is the source
// file or control-file line the command came from.
type diagnostic struct {
	kind    diagnosticKind
	origin  string
	command string
	message string
}

func (d diagnostic) String() string {
	switch {
	case d.origin != "" && d.command != "":
		return fmt.Sprintf("%s: %s: %s", d.origin, d.command, d.message)
	case d.command != "":
		return fmt.Sprintf("%s: %s", d.command, d.message)
	case d.origin != "":
		return fmt.Sprintf("%s: %s", d.origin, d.message)
	default:
		return d.message
	}
}
