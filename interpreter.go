package main

import (
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/charmbracelet/log"
	"golang.org/x/exp/slices"
)

const defaultMaxAliasDepth = 64

// engine is the state of one generation run: sections, aliases, the plugin
// bridge and every diagnostic reported so far. Source patterns resolve
// against root.
type engine struct {
	root          string
	sections      *sectionStore
	aliases       map[string]string
	plugins       *pluginBridge
	toolchain     toolchain
	logger        *log.Logger
	maxAliasDepth int
	diagnostics   []diagnostic
}

func newEngine(plugins *pluginBridge, tc toolchain, logger *log.Logger) *engine {
	if logger == nil {
		logger = log.New(io.Discard)
	}
	return &engine{
		sections:      newSectionStore(),
		aliases:       make(map[string]string),
		plugins:       plugins,
		toolchain:     tc,
		logger:        logger,
		maxAliasDepth: defaultMaxAliasDepth,
	}
}

func (e *engine) report(kind diagnosticKind, origin, command, format string, args ...any) {
	e.diagnostics = append(e.diagnostics, diagnostic{
		kind:    kind,
		origin:  origin,
		command: command,
		message: fmt.Sprintf(format, args...),
	})
}

// frame is one unit on the interpreter stack. Alias expansion pushes a
// frame for the synthesized unit instead of recursing.
type frame struct {
	unit  sourceUnit
	spans []commentSpan
	span  int
	pos   int
	inDoc bool
	// realSource units reset the current section after every comment.
	realSource bool
	// capture collects output for whitespace simplification; owned marks
	// the frame that started it.
	capture *capture
	owned   bool
}

// capture holds simplified output until its frame finishes. Text is kept
// per section so a SECTION inside the captured template still routes each
// piece to the buffer that was current when it was emitted.
type capture struct {
	segments []*captured
}

type captured struct {
	section string
	text    strings.Builder
}

func (c *capture) add(section, text string) {
	if text == "" {
		return
	}
	if n := len(c.segments); n > 0 && c.segments[n-1].section == section {
		c.segments[n-1].text.WriteString(text)
		return
	}
	seg := &captured{section: section}
	seg.text.WriteString(text)
	c.segments = append(c.segments, seg)
}

func (e *engine) emit(f *frame, text string) {
	if f.capture != nil {
		f.capture.add(e.sections.current, text)
		return
	}
	e.sections.write(text)
}

// flush hands the simplified segments of a finished frame to parent, or
// straight to the section store when parent is not capturing.
func (e *engine) flush(c *capture, parent *frame) {
	for _, seg := range c.segments {
		text := simplifyWhitespace(seg.text.String())
		if parent != nil && parent.capture != nil {
			parent.capture.add(seg.section, text)
			continue
		}
		e.sections.writeTo(seg.section, text)
	}
}

// processSource runs every documentation region of unit through the
// command interpreter.
func (e *engine) processSource(unit sourceUnit, realSource bool) {
	stack := []*frame{{unit: unit, spans: scanComments(unit.text), realSource: realSource}}
	for len(stack) > 0 {
		f := stack[len(stack)-1]
		if f.span >= len(f.spans) {
			stack = stack[:len(stack)-1]
			if f.owned {
				var parent *frame
				if len(stack) > 0 {
					parent = stack[len(stack)-1]
				}
				e.flush(f.capture, parent)
			}
			continue
		}
		span := f.spans[f.span]
		body := span.body
		if f.pos >= len(body) {
			f.span++
			f.pos = 0
			f.inDoc = false
			if f.realSource {
				e.sections.reset()
			}
			continue
		}
		if body[f.pos] != '@' {
			next := strings.IndexByte(body[f.pos:], '@')
			if next < 0 {
				next = len(body)
			} else {
				next += f.pos
			}
			if f.inDoc {
				e.emit(f, body[f.pos:next])
			}
			f.pos = next
			continue
		}
		if f.pos+1 >= len(body) || body[f.pos+1] < 'A' || body[f.pos+1] > 'Z' {
			if f.inDoc {
				e.emit(f, "@")
			}
			f.pos++
			continue
		}
		name, args, next := readCommand(body, f.pos)
		f.pos = next
		switch name {
		case "DOC":
			f.inDoc = true
		case "END":
			f.inDoc = false
		default:
			if !f.inDoc {
				continue
			}
			child := e.execute(f, span, name, args)
			if child == nil {
				continue
			}
			if len(stack) > e.maxAliasDepth {
				e.report(diagLimit, f.unit.name, name, "alias expansion deeper than %d levels", e.maxAliasDepth)
				continue
			}
			stack = append(stack, child)
		}
	}
}

// readCommand reads the @NAME or @NAME(args) starting at body[at] and
// returns the offset just past it. A "\(" directly after the name is an
// escaped paren: the backslash is dropped and the paren stays text.
func readCommand(body string, at int) (string, []string, int) {
	end := at + 1
	for end < len(body) && isIdentByte(body[end]) {
		end++
	}
	name := body[at+1 : end]
	var args []string
	if end < len(body) && body[end] == '(' {
		args, end = parseArgs(body, end)
	}
	if end+1 < len(body) && body[end] == '\\' && body[end+1] == '(' {
		end++
	}
	return name, args, end
}

// execute runs one command inside a documentation region. It returns a
// frame to push when the command is an alias.
func (e *engine) execute(f *frame, span commentSpan, name string, args []string) *frame {
	simplify := false
	command := name
	for {
		if strings.HasPrefix(command, "S_") {
			command = command[2:]
			simplify = true
			continue
		}
		if command == "SIMPLIFY" || command == "S" {
			if len(args) == 0 || strip(args[0]) == "" {
				e.report(diagArgument, f.unit.name, name, "SIMPLIFY requires a command argument")
				return nil
			}
			command = strip(args[0])
			args = slices.Clone(args[1:])
			simplify = true
			continue
		}
		break
	}

	if command == "SECTION" {
		if len(args) == 0 {
			e.sections.selectSection("")
		} else {
			e.sections.selectSection(unquote(args[0]))
		}
		return nil
	}

	site := callSite{unit: f.unit, end: span.end, args: args}
	output := func(text string) {
		if simplify {
			text = simplifyWhitespace(text)
		}
		e.emit(f, text)
	}

	if fn, ok := builtins[command]; ok {
		text, err := fn(site)
		if err != nil {
			e.report(diagArgument, f.unit.name, command, "%v", err)
			return nil
		}
		output(text)
		return nil
	}

	if tmpl, ok := e.aliases[command]; ok {
		return e.expandAlias(f, site, tmpl, simplify)
	}

	text, err := e.plugins.invoke(command, site.rest(), args)
	switch {
	case errors.Is(err, errPluginNotFound):
		e.report(diagUnresolved, f.unit.name, command, "unknown command")
	case err != nil:
		e.report(diagUnresolved, f.unit.name, command, "%v", err)
	default:
		output(text)
	}
	return nil
}

// expandAlias builds the frame for an alias: a synthetic documentation
// comment holding the template, followed by the source between the invoking
// comment and the next comment.
func (e *engine) expandAlias(f *frame, site callSite, tmpl string, simplify bool) *frame {
	src := site.src()
	start := min(site.end, len(src))
	next := src[start:nextCommentStart(src, start)]
	text := "/* @DOC\n" + tmpl + "\n@END\n*/\n" + next
	child := &frame{
		unit:    sourceUnit{name: f.unit.name, text: text},
		spans:   scanComments(text),
		capture: f.capture,
	}
	if simplify {
		child.capture = &capture{}
		child.owned = true
	}
	return child
}

// registerAlias stores or replaces an alias template.
func (e *engine) registerAlias(name, tmpl string) {
	e.aliases[name] = tmpl
}
