package markdown

import (
	"bytes"
	"fmt"
	"slices"
	"strings"
	"unicode"
	"unicode/utf8"

	"github.com/killallgit/streamir/pkg/logger"
	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/ast"
	"github.com/yuin/goldmark/text"
)

var log = logger.WithComponent("markdown")

// Healer turns a partial markdown buffer into one that renders cleanly.
type Healer interface {
	Heal(partial string) string
}

// Healer kinds accepted by NewHealer
const (
	KindHeuristic = "heuristic"
	KindParser    = "parser"
)

// NewHealer returns the healer for kind. An empty kind selects the parser.
func NewHealer(kind string) (Healer, error) {
	switch strings.ToLower(kind) {
	case KindHeuristic:
		return HeuristicHealer{}, nil
	case KindParser, "":
		return NewParserHealer(), nil
	default:
		return nil, fmt.Errorf("markdown: unknown healer %q", kind)
	}
}

// HeuristicHealer applies Repair.
type HeuristicHealer struct{}

func (HeuristicHealer) Heal(partial string) string {
	return Repair(partial)
}

// ParserHealer uses a goldmark parse to decide what is still open. An
// unterminated fenced code block is closed; otherwise unmatched code span and
// emphasis delimiters of the trailing paragraph or heading are closed in
// reverse opening order. Markers in earlier blocks are left alone.
//
// If parsing fails the heuristic Repair is used instead.
type ParserHealer struct {
	md goldmark.Markdown
}

func NewParserHealer() *ParserHealer {
	return &ParserHealer{md: goldmark.New()}
}

func (h *ParserHealer) Heal(partial string) (healed string) {
	if strings.TrimSpace(partial) == "" {
		return partial
	}
	defer func() {
		if r := recover(); r != nil {
			log.Warn("markdown parse failed, using heuristic repair: %v", r)
			healed = Repair(partial)
		}
	}()

	source := []byte(partial)
	doc := h.md.Parser().Parse(text.NewReader(source))
	if doc == nil {
		return Repair(partial)
	}

	last := lastBlock(doc)
	switch n := last.(type) {
	case *ast.FencedCodeBlock:
		marker, open := openFence(source)
		if !open {
			return partial
		}
		if !strings.HasSuffix(partial, "\n") {
			marker = "\n" + marker
		}
		return partial + marker
	case *ast.Paragraph, *ast.Heading, *ast.TextBlock:
		lines := n.Lines()
		if lines.Len() == 0 {
			return partial
		}
		// A blank line after the block means it is already finished.
		stop := lines.At(lines.Len() - 1).Stop
		if bytes.Count(source[stop:], []byte("\n")) >= 2 {
			return partial
		}
		var buf bytes.Buffer
		for i := 0; i < lines.Len(); i++ {
			seg := lines.At(i)
			buf.Write(seg.Value(source))
		}
		closers := inlineClosers(buf.Bytes())
		if closers == "" {
			return partial
		}
		return strings.TrimRight(partial, " \t\r\n") + closers
	default:
		return partial
	}
}

// lastBlock descends through container blocks to the block the document
// ends with.
func lastBlock(n ast.Node) ast.Node {
	for n != nil {
		switch n.(type) {
		case *ast.Document, *ast.List, *ast.ListItem, *ast.Blockquote:
			n = n.LastChild()
		default:
			return n
		}
	}
	return nil
}

// openFence reports the marker of a fenced code block left open at the end
// of source.
func openFence(source []byte) (string, bool) {
	var open []byte
	for _, line := range bytes.Split(source, []byte("\n")) {
		trimmed := bytes.TrimLeft(line, " ")
		if len(line)-len(trimmed) > 3 {
			continue
		}
		run := fenceRun(trimmed)
		if run == nil {
			continue
		}
		rest := trimmed[len(run):]
		if open == nil {
			if run[0] == '`' && bytes.IndexByte(rest, '`') >= 0 {
				continue
			}
			open = run
			continue
		}
		if run[0] == open[0] && len(run) >= len(open) && len(bytes.TrimSpace(rest)) == 0 {
			open = nil
		}
	}
	return string(open), open != nil
}

func fenceRun(line []byte) []byte {
	if len(line) < 3 || (line[0] != '`' && line[0] != '~') {
		return nil
	}
	n := runLength(line, 0)
	if n < 3 {
		return nil
	}
	return line[:n]
}

// inlineClosers scans the inline text of one block and returns the closers
// for every code span and emphasis run still open at the end.
func inlineClosers(src []byte) string {
	var stack []string
	for i := 0; i < len(src); {
		c := src[i]
		switch c {
		case '\\':
			i += 2
		case '`':
			n := runLength(src, i)
			end := closingCodeRun(src, i+n, n)
			if end < 0 {
				// Everything after an unclosed code span is literal.
				return strings.Repeat("`", n) + closeAll(stack)
			}
			i = end
		case '*', '_':
			n := runLength(src, i)
			if isDelimiter(src, i, n) {
				stack = applyDelimiter(stack, c, n)
			}
			i += n
		default:
			i++
		}
	}
	return closeAll(stack)
}

// closingCodeRun returns the index just past a backtick run of exactly n
// starting at or after from, or -1.
func closingCodeRun(src []byte, from, n int) int {
	for j := from; j < len(src); {
		if src[j] != '`' {
			j++
			continue
		}
		m := runLength(src, j)
		if m == n {
			return j + m
		}
		j += m
	}
	return -1
}

// applyDelimiter closes matching open runs from the top of the stack and
// opens the remainder, at most two characters per entry.
func applyDelimiter(stack []string, c byte, n int) []string {
	for n > 0 {
		if len(stack) > 0 {
			top := stack[len(stack)-1]
			if top[0] == c && len(top) <= n {
				stack = stack[:len(stack)-1]
				n -= len(top)
				continue
			}
		}
		k := min(n, 2)
		stack = append(stack, strings.Repeat(string(c), k))
		n -= k
	}
	return stack
}

// isDelimiter rejects runs that cannot open or close emphasis: runs with
// whitespace on both sides, and underscores inside a word.
func isDelimiter(src []byte, i, n int) bool {
	before, _ := utf8.DecodeLastRune(src[:i])
	after, _ := utf8.DecodeRune(src[i+n:])
	spaceBefore := i == 0 || unicode.IsSpace(before)
	spaceAfter := i+n >= len(src) || unicode.IsSpace(after)
	if spaceBefore && spaceAfter {
		return false
	}
	if src[i] == '_' && i > 0 && i+n < len(src) && isWordRune(before) && isWordRune(after) {
		return false
	}
	return true
}

func isWordRune(r rune) bool {
	return unicode.IsLetter(r) || unicode.IsDigit(r)
}

func closeAll(stack []string) string {
	var b strings.Builder
	for _, s := range slices.Backward(stack) {
		b.WriteString(s)
	}
	return b.String()
}

func runLength(src []byte, i int) int {
	n := 0
	for i+n < len(src) && src[i+n] == src[i] {
		n++
	}
	return n
}
