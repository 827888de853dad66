package main

// parseArgs splits the parenthesized list opening at src[open] on top-level
// commas. Double quotes make everything inert until the next quote; (), []
// and {} nest independently. It returns the trimmed arguments and the offset
// just past the closing paren, or len(src) when the list never closes. An
// empty list "()" yields a single empty argument.
func parseArgs(src string, open int) ([]string, int) {
	var (
		args         []string
		parenDepth   int
		bracketDepth int
		braceDepth   int
		inQuote      bool
	)
	last := open
	for i := open + 1; i < len(src); i++ {
		c := src[i]
		if c == '"' {
			inQuote = !inQuote
		}
		if inQuote {
			continue
		}
		switch c {
		case '(':
			parenDepth++
		case ')':
			parenDepth--
		case '[':
			bracketDepth++
		case ']':
			bracketDepth--
		case '{':
			braceDepth++
		case '}':
			braceDepth--
		case ',':
			if parenDepth == 0 && bracketDepth == 0 && braceDepth == 0 {
				args = append(args, strip(src[last+1:i]))
				last = i
			}
		}
		if parenDepth < 0 {
			args = append(args, strip(src[last+1:i]))
			return args, i + 1
		}
	}
	rest := ""
	if last+1 < len(src) {
		rest = src[last+1:]
	}
	return append(args, strip(rest)), len(src)
}
