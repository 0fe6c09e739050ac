package ir

import (
	"fmt"
	"sync"
	"time"
)

// Conversation is an ordered sequence of blocks produced by one role.
// All block mutations go through its methods, which recompute Status under
// the same lock so readers never see a status that disagrees with the
// blocks.
type Conversation struct {
	ID        string
	Role      Role
	Timestamp time.Time

	mu     sync.RWMutex
	status ContentStatus
	blocks []Block
}

// NewConversation creates an empty conversation. An empty conversation is
// completed.
func NewConversation(id string, role Role) *Conversation {
	return &Conversation{
		ID:        id,
		Role:      role,
		Timestamp: time.Now(),
		status:    StatusCompleted,
	}
}

// Status returns the aggregated conversation status.
func (c *Conversation) Status() ContentStatus {
	c.mu.RLock()
	defer c.mu.RUnlock()
	if c.status == "" {
		return StatusCompleted
	}
	return c.status
}

// Blocks returns a deep copy of the blocks in order.
func (c *Conversation) Blocks() []Block {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return cloneBlocks(c.blocks)
}

// Len returns the number of blocks.
func (c *Conversation) Len() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.blocks)
}

// Block returns a copy of the block with the given id.
func (c *Conversation) Block(id string) (Block, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	i := c.indexOf(id)
	if i < 0 {
		return Block{}, false
	}
	return c.blocks[i].Clone(), true
}

// Last returns a copy of the most recently appended block.
func (c *Conversation) Last() (Block, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	if len(c.blocks) == 0 {
		return Block{}, false
	}
	return c.blocks[len(c.blocks)-1].Clone(), true
}

// Append adds blocks to the end of the conversation. Either all blocks are
// appended or, if one is invalid, none are.
func (c *Conversation) Append(blocks ...Block) error {
	for _, b := range blocks {
		if err := b.Validate(); err != nil {
			return err
		}
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	for _, b := range blocks {
		c.blocks = append(c.blocks, b.Clone())
	}
	c.recompute()
	return nil
}

// Upsert replaces the block with the same id, or appends it when there is
// none. A stored block may only be replaced while it is streaming, by a block
// of the same type, and without its status going backwards.
func (c *Conversation) Upsert(b Block) error {
	if err := b.Validate(); err != nil {
		return err
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	i := c.indexOf(b.ID)
	if i < 0 {
		c.blocks = append(c.blocks, b.Clone())
		c.recompute()
		return nil
	}
	if err := checkReplace(c.blocks[i], b); err != nil {
		return err
	}
	c.blocks[i] = b.Clone()
	c.recompute()
	return nil
}

// Update applies fn to a copy of the block with the given id and stores the
// result. The block must still be streaming. If fn fails, or leaves the block
// in an invalid state, the conversation is unchanged.
func (c *Conversation) Update(id string, fn func(*Block) error) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	i := c.indexOf(id)
	if i < 0 {
		return fmt.Errorf("%w: %q", ErrBlockNotFound, id)
	}
	next := c.blocks[i].Clone()
	if err := fn(&next); err != nil {
		return err
	}
	if err := next.Validate(); err != nil {
		return err
	}
	if err := checkReplace(c.blocks[i], next); err != nil {
		return err
	}
	c.blocks[i] = next
	c.recompute()
	return nil
}

// UpdateTool applies fn to the tool content of a tool block and moves the
// block status along with the new tool state.
func (c *Conversation) UpdateTool(id string, fn func(*ToolContent) error) error {
	return c.Update(id, func(b *Block) error {
		tool, ok := b.Tool()
		if !ok {
			return fmt.Errorf("ir: block %q is %s, not tool", b.ID, b.Type)
		}
		if err := fn(tool); err != nil {
			return err
		}
		return b.SetStatus(tool.Status.BlockStatus())
	})
}

// AppendText appends delta to a streaming text or thinking block.
func (c *Conversation) AppendText(id, delta string) error {
	return c.Update(id, func(b *Block) error {
		switch t := b.Content.(type) {
		case *TextContent:
			t.Text += delta
		case *ThinkingContent:
			t.Text += delta
		default:
			return fmt.Errorf("ir: block %q is %s, not text", b.ID, b.Type)
		}
		return nil
	})
}

// Seal moves a streaming block to a terminal status.
func (c *Conversation) Seal(id string, status ContentStatus) error {
	return c.Update(id, func(b *Block) error {
		return b.SetStatus(status)
	})
}

// RecomputeStatus re-derives and returns the conversation status.
func (c *Conversation) RecomputeStatus() ContentStatus {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.recompute()
	return c.status
}

func (c *Conversation) recompute() {
	c.status = AggregateStatus(c.blocks)
}

func (c *Conversation) indexOf(id string) int {
	for i := len(c.blocks) - 1; i >= 0; i-- {
		if c.blocks[i].ID == id {
			return i
		}
	}
	return -1
}

func checkReplace(prev, next Block) error {
	if prev.Status != StatusStreaming {
		return fmt.Errorf("%w: %q is %s", ErrBlockSealed, prev.ID, prev.Status)
	}
	if prev.Type != next.Type {
		return fmt.Errorf("ir: block %q cannot change type from %s to %s", prev.ID, prev.Type, next.Type)
	}
	if next.ID != prev.ID {
		return fmt.Errorf("ir: block %q cannot change id to %q", prev.ID, next.ID)
	}
	check := prev
	return check.SetStatus(next.Status)
}

func cloneBlocks(blocks []Block) []Block {
	if blocks == nil {
		return nil
	}
	out := make([]Block, len(blocks))
	for i, b := range blocks {
		out[i] = b.Clone()
	}
	return out
}
