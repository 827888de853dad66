package main

import (
	"regexp"
	"strconv"
	"strings"
)

func strip(s string) string {
	return strings.TrimSpace(s)
}

// simplifyWhitespace collapses every whitespace run to a single space and
// trims both ends.
func simplifyWhitespace(s string) string {
	return strings.Join(strings.Fields(s), " ")
}

var blankLineRun = regexp.MustCompile(`\n(?:[ \t]*\n){2,}`)

// simplifyMarkdown keeps at most one empty line in a row.
func simplifyMarkdown(s string) string {
	return blankLineRun.ReplaceAllString(s, "\n\n")
}

// unwrap removes one enclosing (), {}, [] or "" pair.
func unwrap(s string) string {
	s = strip(s)
	if len(s) < 2 {
		return s
	}
	var closer byte
	switch s[0] {
	case '(':
		closer = ')'
	case '{':
		closer = '}'
	case '[':
		closer = ']'
	case '"':
		closer = '"'
	default:
		return s
	}
	if s[len(s)-1] != closer {
		return s
	}
	return s[1 : len(s)-1]
}

// unquote strips a Go-style double-quoted name; anything else is only
// trimmed.
func unquote(s string) string {
	s = strip(s)
	if len(s) >= 2 && s[0] == '"' && s[len(s)-1] == '"' {
		if v, err := strconv.Unquote(s); err == nil {
			return v
		}
		return s[1 : len(s)-1]
	}
	return s
}

func isIdentByte(c byte) bool {
	return c == '_' || c >= 'a' && c <= 'z' || c >= 'A' && c <= 'Z' || c >= '0' && c <= '9'
}

func isSpaceByte(c byte) bool {
	switch c {
	case ' ', '\t', '\n', '\r', '\v', '\f':
		return true
	}
	return false
}

// isCommandName reports whether name can be written as @NAME in a comment.
func isCommandName(name string) bool {
	if name == "" || name[0] < 'A' || name[0] > 'Z' {
		return false
	}
	for i := 1; i < len(name); i++ {
		if !isIdentByte(name[i]) {
			return false
		}
	}
	return true
}

// splitLines splits text into lines without their terminators. A trailing
// newline does not produce an extra empty line.
func splitLines(text string) []string {
	if text == "" {
		return nil
	}
	text = strings.TrimSuffix(text, "\n")
	lines := strings.Split(text, "\n")
	for i, line := range lines {
		lines[i] = strings.TrimSuffix(line, "\r")
	}
	return lines
}
