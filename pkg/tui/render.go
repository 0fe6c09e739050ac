// Package tui paints conversation blocks for a terminal.
package tui

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/alecthomas/chroma/v2"
	"github.com/alecthomas/chroma/v2/formatters"
	"github.com/alecthomas/chroma/v2/lexers"
	"github.com/alecthomas/chroma/v2/styles"
	"github.com/killallgit/streamir/pkg/ir"
	"github.com/killallgit/streamir/pkg/logger"
	"github.com/killallgit/streamir/pkg/markdown"
	"github.com/killallgit/streamir/pkg/tui/theme"
)

const (
	cursorGlyph = "▌"
	minWidth    = 30
)

// Renderer turns blocks into styled terminal text. Streaming text is healed
// before it is painted, and fenced code and tool payloads are highlighted.
type Renderer struct {
	styles    *theme.Styles
	formatter chroma.Formatter
	style     *chroma.Style
	healer    markdown.Healer
	width     int
}

// RendererOption configures a Renderer.
type RendererOption func(*Renderer)

// WithHealer sets the healer applied to streaming text.
func WithHealer(h markdown.Healer) RendererOption {
	return func(r *Renderer) {
		if h != nil {
			r.healer = h
		}
	}
}

// WithFormatter selects a chroma formatter by name, such as "terminal256"
// or "noop".
func WithFormatter(name string) RendererOption {
	return func(r *Renderer) {
		if f := formatters.Get(name); f != nil {
			r.formatter = f
		}
	}
}

// WithStyles replaces the default styles.
func WithStyles(s *theme.Styles) RendererOption {
	return func(r *Renderer) {
		if s != nil {
			r.styles = s
		}
	}
}

func NewRenderer(width int, opts ...RendererOption) *Renderer {
	formatter := formatters.Get("terminal16m")
	if formatter == nil {
		formatter = formatters.Fallback
	}
	r := &Renderer{
		styles:    theme.DefaultStyles(),
		formatter: formatter,
		style:     styles.Get("monokai"),
		healer:    markdown.HeuristicHealer{},
		width:     max(width, minWidth),
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// RenderConversation paints the role label followed by every block.
func (r *Renderer) RenderConversation(conv *ir.Conversation) string {
	var out []string
	out = append(out, r.roleLabel(conv.Role)+" "+r.statusLabel(conv.Status()))
	for _, b := range conv.Blocks() {
		out = append(out, r.RenderBlock(b))
	}
	return strings.Join(out, "\n\n")
}

// RenderBlock paints a single block.
func (r *Renderer) RenderBlock(b ir.Block) string {
	switch c := b.Content.(type) {
	case *ir.TextContent:
		return r.renderText(c.Text, b.Status)
	case *ir.ThinkingContent:
		text := c.Text
		if b.Status == ir.StatusStreaming {
			text += cursorGlyph
		}
		return r.styles.Thinking.Width(r.width - 4).Render(text)
	case *ir.ToolContent:
		return r.renderTool(c)
	case *ir.ImageContent:
		label := c.URL
		if c.Alt != "" {
			label = c.Alt + " " + c.URL
		}
		return r.styles.Media.Render("[image] " + label)
	case *ir.FileContent:
		name := c.Filename
		if name == "" {
			name = c.URL
		}
		return r.styles.Media.Render(fmt.Sprintf("[file %s] %s", c.MediaType, name))
	case *ir.SourceContent:
		title := c.Title
		if title == "" {
			title = c.SourceID
		}
		target := c.URL
		if c.SourceType == ir.SourceDocument {
			target = c.Filename
		}
		return r.styles.Source.Render(strings.TrimSpace(fmt.Sprintf("[%s] %s %s", c.SourceType, title, target)))
	case *ir.ErrorContent:
		return r.styles.Error.Width(r.width).Render("✗ " + c.Message)
	default:
		logger.WithComponent("tui").Warn("cannot render block %s of type %s", b.ID, b.Type)
		return ""
	}
}

func (r *Renderer) renderText(text string, status ir.ContentStatus) string {
	if status == ir.StatusStreaming {
		text = r.healer.Heal(text)
	}
	var parts []string
	for _, seg := range splitFences(text) {
		if seg.code {
			parts = append(parts, r.styles.Code.Width(r.width-4).Render(r.Highlight(seg.body, seg.lang)))
			continue
		}
		if body := strings.Trim(seg.body, "\n"); body != "" {
			parts = append(parts, r.styles.Text.Width(r.width).Render(body))
		}
	}
	out := strings.Join(parts, "\n")
	if status == ir.StatusStreaming {
		out += r.styles.Cursor.Render(" ")
	}
	return out
}

func (r *Renderer) renderTool(t *ir.ToolContent) string {
	header := fmt.Sprintf("⚙ %s %s", t.ToolName, r.toolStatusLabel(t.Status))
	lines := []string{header}
	if t.Input != nil {
		lines = append(lines, "input:", r.Highlight(prettyJSON(t.Input), "json"))
	}
	if t.Approval != nil {
		lines = append(lines, approvalLine(t.Approval))
	}
	if t.Output != nil {
		lines = append(lines, "output:", r.Highlight(prettyJSON(t.Output), "json"))
	}
	if t.ErrorText != "" {
		lines = append(lines, r.styles.Error.Render(t.ErrorText))
	}
	return r.styles.Tool.Width(r.width - 4).Render(strings.Join(lines, "\n"))
}

// Highlight applies chroma syntax highlighting. Unknown languages are
// guessed from the content, and any failure returns the code unchanged.
func (r *Renderer) Highlight(code, language string) string {
	if code == "" {
		return ""
	}
	var lexer chroma.Lexer
	if language != "" {
		lexer = lexers.Get(language)
	}
	if lexer == nil {
		lexer = lexers.Analyse(code)
	}
	if lexer == nil {
		lexer = lexers.Fallback
	}
	iterator, err := lexer.Tokenise(nil, code)
	if err != nil {
		return code
	}
	var buf strings.Builder
	if err := r.formatter.Format(&buf, r.style, iterator); err != nil {
		return code
	}
	return strings.TrimRight(buf.String(), "\n")
}

func (r *Renderer) roleLabel(role ir.Role) string {
	switch role {
	case ir.RoleUser:
		return r.styles.User.Render("user")
	case ir.RoleSystem:
		return r.styles.System.Render("system")
	default:
		return r.styles.Assistant.Render("assistant")
	}
}

func (r *Renderer) statusLabel(status ir.ContentStatus) string {
	switch status {
	case ir.StatusStreaming:
		return r.styles.Streaming.Render("● streaming")
	case ir.StatusError:
		return r.styles.Failed.Render("✗ error")
	default:
		return r.styles.Completed.Render("✓ completed")
	}
}

func (r *Renderer) toolStatusLabel(s ir.ToolStatus) string {
	label := "[" + s.String() + "]"
	switch {
	case ir.IsToolAwaitingApproval(s):
		return r.styles.Awaiting.Render(label)
	case s == ir.ToolError:
		return r.styles.Failed.Render(label)
	case ir.IsToolTerminal(s):
		return r.styles.Completed.Render(label)
	default:
		return r.styles.Streaming.Render(label)
	}
}

func approvalLine(a *ir.ToolApproval) string {
	if !a.Decided() {
		return "approval " + a.ID + ": pending"
	}
	verdict := "denied"
	if *a.Approved {
		verdict = "approved"
	}
	if a.Reason != "" {
		return fmt.Sprintf("approval %s: %s (%s)", a.ID, verdict, a.Reason)
	}
	return fmt.Sprintf("approval %s: %s", a.ID, verdict)
}

func prettyJSON(v any) string {
	if s, ok := v.(string); ok {
		return s
	}
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return fmt.Sprint(v)
	}
	return string(data)
}

type segment struct {
	code bool
	lang string
	body string
}

// splitFences cuts text into prose and fenced code segments.
func splitFences(text string) []segment {
	var segs []segment
	var cur strings.Builder
	inCode := false
	lang := ""
	flush := func() {
		segs = append(segs, segment{code: inCode, lang: lang, body: strings.TrimSuffix(cur.String(), "\n")})
		cur.Reset()
	}
	for _, line := range strings.SplitAfter(text, "\n") {
		trimmed := strings.TrimSpace(line)
		if strings.HasPrefix(trimmed, "```") {
			flush()
			if inCode {
				inCode, lang = false, ""
			} else {
				inCode, lang = true, strings.TrimSpace(strings.TrimPrefix(trimmed, "```"))
			}
			continue
		}
		cur.WriteString(line)
	}
	if cur.Len() > 0 || inCode {
		flush()
	}
	return segs
}
