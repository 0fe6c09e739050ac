package ir

import (
	"encoding/json"
	"fmt"
	"time"
)

type blockJSON struct {
	ID      string          `json:"id"`
	Type    BlockType       `json:"type"`
	Status  ContentStatus   `json:"status"`
	Content json.RawMessage `json:"content"`
}

// MarshalJSON encodes the block as {"id","type","status","content"}.
func (b Block) MarshalJSON() ([]byte, error) {
	if b.Content == nil {
		return nil, ErrNilContent
	}
	content, err := json.Marshal(b.Content)
	if err != nil {
		return nil, fmt.Errorf("ir: marshal %s content: %w", b.Type, err)
	}
	return json.Marshal(blockJSON{
		ID:      b.ID,
		Type:    b.Content.Type(),
		Status:  b.Status,
		Content: content,
	})
}

// UnmarshalJSON decodes a block, choosing the content variant from the
// type tag.
func (b *Block) UnmarshalJSON(data []byte) error {
	var raw blockJSON
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}
	content, err := newContent(raw.Type)
	if err != nil {
		return err
	}
	if len(raw.Content) > 0 && string(raw.Content) != "null" {
		if err := json.Unmarshal(raw.Content, content); err != nil {
			return fmt.Errorf("ir: decode %s content: %w", raw.Type, err)
		}
	}
	if !raw.Status.Valid() {
		return fmt.Errorf("ir: invalid block status %q", raw.Status)
	}
	*b = Block{ID: raw.ID, Type: raw.Type, Status: raw.Status, Content: content}
	return b.Validate()
}

func newContent(t BlockType) (Content, error) {
	switch t {
	case BlockText:
		return &TextContent{}, nil
	case BlockTool:
		return &ToolContent{Status: ToolPending}, nil
	case BlockThinking:
		return &ThinkingContent{}, nil
	case BlockImage:
		return &ImageContent{}, nil
	case BlockFile:
		return &FileContent{}, nil
	case BlockError:
		return &ErrorContent{}, nil
	case BlockSource:
		return &SourceContent{}, nil
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnknownBlockType, t)
	}
}

type conversationJSON struct {
	ID        string        `json:"id"`
	Role      Role          `json:"role"`
	Status    ContentStatus `json:"status"`
	Blocks    []Block       `json:"blocks"`
	Timestamp time.Time     `json:"timestamp"`
}

// MarshalJSON encodes a consistent snapshot of the conversation.
func (c *Conversation) MarshalJSON() ([]byte, error) {
	c.mu.RLock()
	out := conversationJSON{
		ID:        c.ID,
		Role:      c.Role,
		Status:    c.status,
		Blocks:    cloneBlocks(c.blocks),
		Timestamp: c.Timestamp,
	}
	c.mu.RUnlock()
	if out.Blocks == nil {
		out.Blocks = []Block{}
	}
	if out.Status == "" {
		out.Status = StatusCompleted
	}
	return json.Marshal(out)
}

// UnmarshalJSON decodes a conversation. The stored status is ignored and
// recomputed from the decoded blocks.
func (c *Conversation) UnmarshalJSON(data []byte) error {
	var raw conversationJSON
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}
	if raw.Role != "" && !raw.Role.Valid() {
		return fmt.Errorf("ir: invalid role %q", raw.Role)
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	c.ID = raw.ID
	c.Role = raw.Role
	c.Timestamp = raw.Timestamp
	c.blocks = raw.Blocks
	c.status = AggregateStatus(c.blocks)
	return nil
}
