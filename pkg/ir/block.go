package ir

import "fmt"

// Block is one typed unit of conversation content. Its Type always matches
// the Content it carries.
type Block struct {
	ID      string
	Type    BlockType
	Status  ContentStatus
	Content Content
}

// NewBlock builds a block whose type is taken from content.
func NewBlock(id string, status ContentStatus, content Content) (Block, error) {
	if content == nil {
		return Block{}, ErrNilContent
	}
	if !status.Valid() {
		return Block{}, fmt.Errorf("ir: invalid block status %q", status)
	}
	return Block{
		ID:      id,
		Type:    content.Type(),
		Status:  status,
		Content: content,
	}, nil
}

func newBlock(id string, status ContentStatus, content Content) Block {
	return Block{ID: id, Type: content.Type(), Status: status, Content: content}
}

func NewTextBlock(id, text string, status ContentStatus) Block {
	return newBlock(id, status, &TextContent{Text: text})
}

func NewThinkingBlock(id, text string, status ContentStatus) Block {
	return newBlock(id, status, &ThinkingContent{Text: text})
}

// NewToolBlock derives the block status from the tool state.
func NewToolBlock(id string, tool *ToolContent) Block {
	return newBlock(id, tool.Status.BlockStatus(), tool)
}

func NewImageBlock(id string, image *ImageContent) Block {
	return newBlock(id, StatusCompleted, image)
}

func NewFileBlock(id string, file *FileContent) Block {
	return newBlock(id, StatusCompleted, file)
}

func NewErrorBlock(id, message string) Block {
	return newBlock(id, StatusError, &ErrorContent{Message: message})
}

func NewSourceBlock(id string, source *SourceContent) Block {
	return newBlock(id, StatusCompleted, source)
}

// Clone returns a deep copy of the block.
func (b Block) Clone() Block {
	if b.Content != nil {
		b.Content = b.Content.clone()
	}
	return b
}

// SetStatus moves the block to status. Once a block has left streaming it
// cannot return to it, and a terminal status cannot be swapped for another.
func (b *Block) SetStatus(status ContentStatus) error {
	if !status.Valid() {
		return fmt.Errorf("ir: invalid block status %q", status)
	}
	if b.Status == status {
		return nil
	}
	if b.Status != StatusStreaming {
		return fmt.Errorf("%w: %s -> %s", ErrStatusRegression, b.Status, status)
	}
	b.Status = status
	return nil
}

// Tool returns the tool content of a tool block.
func (b Block) Tool() (*ToolContent, bool) {
	c, ok := b.Content.(*ToolContent)
	return c, ok
}

// Text returns the text of a text or thinking block.
func (b Block) Text() (string, bool) {
	switch c := b.Content.(type) {
	case *TextContent:
		return c.Text, true
	case *ThinkingContent:
		return c.Text, true
	default:
		return "", false
	}
}

// Validate checks that the block is internally consistent.
func (b Block) Validate() error {
	if b.Content == nil {
		return ErrNilContent
	}
	if b.Type != b.Content.Type() {
		return fmt.Errorf("ir: block %q has type %s but carries %s content", b.ID, b.Type, b.Content.Type())
	}
	if !b.Status.Valid() {
		return fmt.Errorf("ir: block %q has invalid status %q", b.ID, b.Status)
	}
	if tool, ok := b.Tool(); ok {
		return tool.Validate()
	}
	return nil
}

func IsTextBlock(b Block) bool     { return b.Type == BlockText }
func IsToolBlock(b Block) bool     { return b.Type == BlockTool }
func IsThinkingBlock(b Block) bool { return b.Type == BlockThinking }
func IsImageBlock(b Block) bool    { return b.Type == BlockImage }
func IsFileBlock(b Block) bool     { return b.Type == BlockFile }
func IsErrorBlock(b Block) bool    { return b.Type == BlockError }
func IsSourceBlock(b Block) bool   { return b.Type == BlockSource }
