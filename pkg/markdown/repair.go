// Package markdown makes partial markdown safe to render while more text
// is still arriving.
package markdown

import "strings"

const (
	fence  = "```"
	bold   = "**"
	italic = "*"
	code   = "`"
)

// Repair closes unbalanced markers in a partial markdown buffer. Each marker
// kind is counted on its own: triple-backtick fences, single backticks not
// next to another backtick, double asterisks, and single asterisks not next
// to another asterisk. Every kind with an odd count gets one closer appended,
// in the order fence, inline code, bold, italic. Nesting is not considered.
//
// Balanced input is returned unchanged.
func Repair(text string) string {
	var closers strings.Builder
	if strings.Count(text, fence)%2 == 1 {
		if !strings.HasSuffix(text, "\n") {
			closers.WriteByte('\n')
		}
		closers.WriteString(fence)
	}
	if countLone(text, '`')%2 == 1 {
		closers.WriteString(code)
	}
	if strings.Count(text, bold)%2 == 1 {
		closers.WriteString(bold)
	}
	if countLone(text, '*')%2 == 1 {
		closers.WriteString(italic)
	}
	if closers.Len() == 0 {
		return text
	}
	return text + closers.String()
}

// countLone counts occurrences of c whose neighbours are not c.
func countLone(text string, c byte) int {
	n := 0
	for i := 0; i < len(text); i++ {
		if text[i] != c {
			continue
		}
		if i > 0 && text[i-1] == c {
			continue
		}
		if i+1 < len(text) && text[i+1] == c {
			continue
		}
		n++
	}
	return n
}
