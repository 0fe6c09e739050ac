package wire

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/killallgit/streamir/pkg/ir"
	"github.com/killallgit/streamir/pkg/logger"
)

// Option configures a Converter or Assembler.
type Option func(*settings)

type settings struct {
	ids ir.IDGenerator
	log *logger.Logger
}

func newSettings(opts []Option) settings {
	s := settings{}
	for _, opt := range opts {
		opt(&s)
	}
	if s.ids == nil {
		s.ids = ir.NewCounterIDs("blk")
	}
	if s.log == nil {
		s.log = logger.WithComponent("wire")
	}
	return s
}

// WithIDGenerator sets the generator for block ids that the wire format
// does not supply.
func WithIDGenerator(g ir.IDGenerator) Option {
	return func(s *settings) {
		if g != nil {
			s.ids = g
		}
	}
}

// WithLogger sets the logger for dropped parts and ignored events.
func WithLogger(l *logger.Logger) Option {
	return func(s *settings) {
		if l != nil {
			s.log = l
		}
	}
}

// Converter translates between wire messages and the IR. Unless another
// generator is injected, block ids come from a counter owned by the
// converter, so they are unique for its lifetime.
type Converter struct {
	settings
}

func NewConverter(opts ...Option) *Converter {
	return &Converter{settings: newSettings(opts)}
}

// ToConversation converts a wire message into a conversation.
func (c *Converter) ToConversation(m *Message) (*ir.Conversation, error) {
	if m == nil {
		return nil, fmt.Errorf("%w: nil message", ErrInvalidMessage)
	}
	role := ir.Role(m.Role)
	if !role.Valid() {
		return nil, fmt.Errorf("%w: role %q", ErrInvalidMessage, m.Role)
	}
	blocks, err := c.ToBlocks(m.Parts)
	if err != nil {
		return nil, err
	}
	conv := ir.NewConversation(m.ID, role)
	conv.Timestamp = time.Now()
	if err := conv.Append(blocks...); err != nil {
		return nil, err
	}
	return conv, nil
}

// ToBlocks converts parts in order, one block per supported part.
// Unsupported parts are dropped.
func (c *Converter) ToBlocks(parts []Part) ([]ir.Block, error) {
	blocks := make([]ir.Block, 0, len(parts))
	for i, p := range parts {
		b, ok, err := c.PartToBlock(p)
		if err != nil {
			return nil, fmt.Errorf("part %d: %w", i, err)
		}
		if ok {
			blocks = append(blocks, b)
		}
	}
	return blocks, nil
}

// PartToBlock converts one part. ok is false for part types with no IR
// counterpart.
func (c *Converter) PartToBlock(p Part) (block ir.Block, ok bool, err error) {
	switch {
	case p.Type == "":
		return ir.Block{}, false, fmt.Errorf("%w: part without type", ErrInvalidMessage)
	case p.Type == PartText:
		return ir.NewTextBlock(c.ids.NewID(), p.Text, contentStatusFromTextState(p.State)), true, nil
	case p.Type == PartReasoning:
		return ir.NewThinkingBlock(c.ids.NewID(), p.Text, contentStatusFromTextState(p.State)), true, nil
	case p.Type == PartFile:
		return ir.NewFileBlock(c.ids.NewID(), &ir.FileContent{
			URL:       p.URL,
			MediaType: p.MediaType,
			Filename:  p.Filename,
		}), true, nil
	case p.Type == PartSourceURL:
		return ir.NewSourceBlock(c.ids.NewID(), &ir.SourceContent{
			SourceType: ir.SourceURL,
			SourceID:   p.SourceID,
			URL:        p.URL,
			Title:      p.Title,
		}), true, nil
	case p.Type == PartSourceDocument:
		return ir.NewSourceBlock(c.ids.NewID(), &ir.SourceContent{
			SourceType: ir.SourceDocument,
			SourceID:   p.SourceID,
			Title:      p.Title,
			MediaType:  p.MediaType,
			Filename:   p.Filename,
		}), true, nil
	case p.IsToolPart():
		return c.toolBlock(p), true, nil
	default:
		c.log.Debug("dropping unsupported part type %q", p.Type)
		return ir.Block{}, false, nil
	}
}

func (c *Converter) toolBlock(p Part) ir.Block {
	status := ToolStatusFromState(p.State)
	tool := &ir.ToolContent{
		ToolCallID: p.ToolCallID,
		ToolName:   p.ToolDisplayName(),
		Dynamic:    p.Type == PartDynamicTool,
		Status:     status,
		Input:      decodeInput(p.Input, status == ir.ToolStreaming),
		Output:     decodeValue(p.Output),
		ErrorText:  p.ErrorText,
	}
	if p.Approval != nil && ir.HasPassedApproval(status) {
		tool.Approval = &ir.ToolApproval{
			ID:       p.Approval.ID,
			Approved: copyBool(p.Approval.Approved),
			Reason:   p.Approval.Reason,
		}
	}
	id := p.ToolCallID
	if id == "" {
		id = c.ids.NewID()
	}
	return ir.NewToolBlock(id, tool)
}

// FromConversation converts a conversation into a wire message.
func (c *Converter) FromConversation(conv *ir.Conversation) (*Message, error) {
	if conv == nil {
		return nil, fmt.Errorf("%w: nil conversation", ErrInvalidMessage)
	}
	parts, err := c.FromBlocks(conv.Blocks())
	if err != nil {
		return nil, err
	}
	return &Message{ID: conv.ID, Role: string(conv.Role), Parts: parts}, nil
}

// FromBlocks converts blocks in order. Blocks with no wire counterpart,
// currently error blocks, are dropped.
func (c *Converter) FromBlocks(blocks []ir.Block) ([]Part, error) {
	parts := make([]Part, 0, len(blocks))
	for _, b := range blocks {
		p, ok, err := c.BlockToPart(b)
		if err != nil {
			return nil, err
		}
		if ok {
			parts = append(parts, p)
		}
	}
	return parts, nil
}

// BlockToPart converts one block.
func (c *Converter) BlockToPart(b ir.Block) (part Part, ok bool, err error) {
	switch content := b.Content.(type) {
	case *ir.TextContent:
		return Part{Type: PartText, Text: content.Text, State: textStateFromStatus(b.Status)}, true, nil
	case *ir.ThinkingContent:
		return Part{Type: PartReasoning, Text: content.Text, State: textStateFromStatus(b.Status)}, true, nil
	case *ir.FileContent:
		return Part{Type: PartFile, URL: content.URL, MediaType: content.MediaType, Filename: content.Filename}, true, nil
	case *ir.ImageContent:
		return Part{Type: PartFile, URL: content.URL, MediaType: content.MediaType}, true, nil
	case *ir.SourceContent:
		if content.SourceType == ir.SourceDocument {
			return Part{
				Type:      PartSourceDocument,
				SourceID:  content.SourceID,
				Title:     content.Title,
				MediaType: content.MediaType,
				Filename:  content.Filename,
			}, true, nil
		}
		return Part{Type: PartSourceURL, SourceID: content.SourceID, URL: content.URL, Title: content.Title}, true, nil
	case *ir.ToolContent:
		p, err := toolPart(b.ID, content)
		return p, err == nil, err
	case *ir.ErrorContent:
		c.log.Debug("error block %s has no wire form, dropping", b.ID)
		return Part{}, false, nil
	case nil:
		return Part{}, false, ir.ErrNilContent
	default:
		return Part{}, false, fmt.Errorf("%w: %T", ir.ErrUnknownBlockType, content)
	}
}

func toolPart(blockID string, t *ir.ToolContent) (Part, error) {
	p := Part{
		Type:       toolPrefix + t.ToolName,
		ToolCallID: t.ToolCallID,
		State:      StateFromToolStatus(t.Status),
		ErrorText:  t.ErrorText,
	}
	switch {
	case t.Dynamic:
		p.Type = PartDynamicTool
		p.ToolName = t.ToolName
	case t.ToolName == "":
		// "tool-" alone is not a tool tag.
		p.Type = PartDynamicTool
		p.ToolName = unknownToolName
	}
	if p.ToolCallID == "" {
		p.ToolCallID = blockID
	}
	var err error
	if p.Input, err = encodeValue(t.Input); err != nil {
		return Part{}, fmt.Errorf("wire: encode input of %s: %w", p.ToolCallID, err)
	}
	if p.Output, err = encodeValue(t.Output); err != nil {
		return Part{}, fmt.Errorf("wire: encode output of %s: %w", p.ToolCallID, err)
	}
	if t.Approval != nil {
		p.Approval = &Approval{
			ID:       t.Approval.ID,
			Approved: copyBool(t.Approval.Approved),
			Reason:   t.Approval.Reason,
		}
	}
	return p, nil
}

// decodeInput decodes a tool input. While the input is still streaming a
// string value is treated as partial JSON text.
func decodeInput(raw json.RawMessage, streaming bool) any {
	v := decodeValue(raw)
	text, isText := v.(string)
	if !isText {
		return v
	}
	if streaming {
		if parsed, ok := ir.NewPartialInput().Append(text); ok {
			return parsed
		}
		return text
	}
	return v
}

// decodeValue decodes raw JSON, falling back to the raw text when it is not
// valid JSON.
func decodeValue(raw json.RawMessage) any {
	if len(raw) == 0 || string(raw) == "null" {
		return nil
	}
	var v any
	if err := json.Unmarshal(raw, &v); err != nil {
		return string(raw)
	}
	return v
}

func encodeValue(v any) (json.RawMessage, error) {
	if v == nil {
		return nil, nil
	}
	return json.Marshal(v)
}

func copyBool(b *bool) *bool {
	if b == nil {
		return nil
	}
	v := *b
	return &v
}
