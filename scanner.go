package main

import "strings"

// sourceUnit is one text buffer run through the interpreter. name is only
// consulted by FILE_NAME.
type sourceUnit struct {
	name string
	text string
}

// commentSpan is a comment found in a sourceUnit. start and end are byte
// offsets delimiting the whole comment including its markers (end is
// exclusive); body is the trimmed interior text.
type commentSpan struct {
	start int
	end   int
	body  string
}

// scanComments returns every comment in src, earliest first. Whichever opener
// is met first claims the region, so a "//" inside a block comment is inert
// and the other way around. An unterminated block comment swallows the rest
// of the text.
func scanComments(src string) []commentSpan {
	var spans []commentSpan
	i := 0
	for i+1 < len(src) {
		if src[i] != '/' {
			i++
			continue
		}
		switch src[i+1] {
		case '/':
			end := strings.IndexByte(src[i:], '\n')
			if end < 0 {
				end = len(src)
			} else {
				end += i
			}
			spans = append(spans, commentSpan{
				start: i,
				end:   end,
				body:  strip(src[i+2 : end]),
			})
			i = end
		case '*':
			closer := strings.Index(src[i+2:], "*/")
			span := commentSpan{start: i}
			if closer < 0 {
				span.end = len(src)
				span.body = strip(src[i+2:])
			} else {
				closer += i + 2
				span.end = closer + 2
				span.body = strip(src[i+2 : closer])
			}
			spans = append(spans, span)
			i = span.end
		default:
			i++
		}
	}
	return spans
}

// nextCommentStart reports the offset of the first comment opener at or after
// from, or len(src) when there is none.
func nextCommentStart(src string, from int) int {
	if from >= len(src) {
		return len(src)
	}
	end := len(src)
	if idx := strings.Index(src[from:], "/*"); idx >= 0 && from+idx < end {
		end = from + idx
	}
	if idx := strings.Index(src[from:], "//"); idx >= 0 && from+idx < end {
		end = from + idx
	}
	return end
}
