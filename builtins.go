package main

import (
	"fmt"
	"path"
	"path/filepath"
	"strconv"
	"strings"
)

// callSite is what a built-in sees: the unit being interpreted, the offset
// where the invoking comment ends and the command's arguments.
type callSite struct {
	unit sourceUnit
	end  int
	args []string
}

func (c callSite) src() string { return c.unit.text }

// rest returns the source text after the comment.
func (c callSite) rest() string {
	if c.end >= len(c.unit.text) {
		return ""
	}
	return c.unit.text[c.end:]
}

// indexFrom finds the first byte of set at or after from, or len(s).
func indexFrom(s string, from int, set string) int {
	if from >= len(s) {
		return len(s)
	}
	if idx := strings.IndexAny(s[from:], set); idx >= 0 {
		return from + idx
	}
	return len(s)
}

type builtinFunc func(c callSite) (string, error)

// builtins maps command names to text extraction rules. Each one reads raw
// text after the comment; a missing delimiter degrades to whatever substring
// is left rather than an error.
var builtins = map[string]builtinFunc{
	"NEXT_LINE":  nextLine,
	"FUNC_NAME":  funcName,
	"NEXT_DECL":  nextDecl,
	"FUNC_RET":   funcRet,
	"FUNC_ARGS":  funcArgs,
	"FUNC_ARG":   funcArg,
	"CLASS_NAME": className,
	"NEXT_MACRO": nextMacro,
	"FILE_NAME":  fileName,
}

// nextLine returns the rest of the line the comment ends on, or the
// following line when the comment ends at a line break.
func nextLine(c callSite) (string, error) {
	src := c.src()
	if c.end >= len(src) {
		return "", nil
	}
	stop := indexFrom(src, c.end+1, "\n")
	return strip(src[c.end:stop]), nil
}

func funcName(c callSite) (string, error) {
	src := c.src()
	paren := indexFrom(src, c.end, "(")
	end := paren
	for end > c.end && !isIdentByte(src[end-1]) {
		end--
	}
	start := end
	for start > c.end && isIdentByte(src[start-1]) {
		start--
	}
	name := strip(src[start:end])
	if name == "operator" {
		name = strip(src[start:paren])
	}
	return name, nil
}

// nextDecl returns everything up to the first ';', '=' or '{', normalized to
// end in ';'.
func nextDecl(c callSite) (string, error) {
	src := c.src()
	if c.end >= len(src) {
		return ";", nil
	}
	stop := indexFrom(src, c.end, ";={")
	return strip(src[c.end:stop]) + ";", nil
}

// funcRet returns the tokens in front of the function name.
func funcRet(c callSite) (string, error) {
	src := c.src()
	end := indexFrom(src, c.end, "(")
	for end > c.end && isSpaceByte(src[end-1]) {
		end--
	}
	for end > c.end && !isSpaceByte(src[end-1]) {
		end--
	}
	if end <= c.end {
		return "", nil
	}
	return strip(src[c.end:end]), nil
}

// paramList locates the first parenthesized list after the comment. open is
// the offset of '(' and closing the offset of its matching ')' (len(src) when
// unbalanced); ok is false when there is no '(' at all.
func paramList(c callSite) (open, closing int, ok bool) {
	src := c.src()
	open = indexFrom(src, c.end, "(")
	if open >= len(src) {
		return 0, 0, false
	}
	depth := 0
	for closing = open; closing < len(src); closing++ {
		switch src[closing] {
		case '(':
			depth++
		case ')':
			depth--
		}
		if depth == 0 {
			break
		}
	}
	return open, closing, true
}

func funcArgs(c callSite) (string, error) {
	open, closing, ok := paramList(c)
	if !ok {
		return "", nil
	}
	return strip(c.src()[open+1 : closing]), nil
}

// funcArg returns one parameter of the next function; negative indexes
// count from the end.
func funcArg(c callSite) (string, error) {
	if len(c.args) != 1 {
		return "", fmt.Errorf("requires 1 argument, got %d", len(c.args))
	}
	n, err := strconv.Atoi(strip(c.args[0]))
	if err != nil {
		return "", fmt.Errorf("invalid argument index %q", c.args[0])
	}
	params := []string{""}
	if open, closing, ok := paramList(c); ok {
		list := c.src()[open:min(closing+1, len(c.src()))]
		params, _ = parseArgs(list, 0)
	}
	idx := n
	if idx < 0 {
		idx += len(params)
	}
	if idx < 0 || idx >= len(params) {
		return "", fmt.Errorf("argument %d not found", n)
	}
	return params[idx], nil
}

// className returns the identifier right before the first '{', ':' or ';'.
func className(c callSite) (string, error) {
	src := c.src()
	end := indexFrom(src, c.end, "{:;")
	for end > c.end && isSpaceByte(src[end-1]) {
		end--
	}
	start := end
	for start > c.end && isIdentByte(src[start-1]) {
		start--
	}
	return strip(src[start:end]), nil
}

// nextMacro returns the next preprocessor directive up to and including the
// parameter list of a function-like macro, dropping the replacement text.
func nextMacro(c callSite) (string, error) {
	src := c.src()
	hash := indexFrom(src, c.end, "#")
	if hash >= len(src) {
		return "", nil
	}
	lineEnd := indexFrom(src, hash, "\n")
	i := hash + 1
	for i < lineEnd && isSpaceByte(src[i]) {
		i++
	}
	for i < lineEnd && isIdentByte(src[i]) {
		i++
	}
	for i < lineEnd && isSpaceByte(src[i]) {
		i++
	}
	name := i
	for i < lineEnd && isIdentByte(src[i]) {
		i++
	}
	if i == name || i >= lineEnd || src[i] != '(' {
		return strip(src[hash:i]), nil
	}
	closing := indexFrom(src, i, ")")
	if closing > lineEnd {
		closing = lineEnd
	}
	return strip(src[hash:closing]) + ")", nil
}

func fileName(c callSite) (string, error) {
	if c.unit.name == "" {
		return "", nil
	}
	return path.Base(filepath.ToSlash(c.unit.name)), nil
}
