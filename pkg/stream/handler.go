package stream

import (
	"context"
	"fmt"
	"sync"

	"github.com/killallgit/streamir/pkg/ir"
)

// Handler receives the events of a single consumption: one OnChunk per
// applied fragment, then exactly one of OnComplete or OnError. A cancelled
// consumption ends without either.
type Handler interface {
	OnChunk(chunk []byte) error
	OnComplete(finalContent string) error
	OnError(err error)
}

// HandlerFunc builds a Handler from optional callbacks. Nil fields are
// no-ops.
type HandlerFunc struct {
	ChunkFunc    func(chunk []byte) error
	CompleteFunc func(finalContent string) error
	ErrorFunc    func(err error)
}

func (h HandlerFunc) OnChunk(chunk []byte) error {
	if h.ChunkFunc == nil {
		return nil
	}
	return h.ChunkFunc(chunk)
}

func (h HandlerFunc) OnComplete(finalContent string) error {
	if h.CompleteFunc == nil {
		return nil
	}
	return h.CompleteFunc(finalContent)
}

func (h HandlerFunc) OnError(err error) {
	if h.ErrorFunc != nil {
		h.ErrorFunc(err)
	}
}

// ToStreamingFunc adapts h to the callback shape of llms.WithStreamingFunc.
// A chunk arriving after ctx is done is reported to h as an error and
// refused.
func ToStreamingFunc(h Handler) func(context.Context, []byte) error {
	return func(ctx context.Context, chunk []byte) error {
		if err := ctx.Err(); err != nil {
			h.OnError(err)
			return err
		}
		return h.OnChunk(chunk)
	}
}

// BlockHandler mirrors a consumption into one text or thinking block of a
// conversation. The block is created streaming on the first chunk, sealed
// completed with the final text, or sealed as an error when the source
// fails.
type BlockHandler struct {
	conv *ir.Conversation
	id   string
	kind ir.BlockType

	mu     sync.Mutex
	opened bool
	err    error
}

// NewBlockHandler returns a handler filling block id of conv. kind must be
// ir.BlockText or ir.BlockThinking.
func NewBlockHandler(conv *ir.Conversation, id string, kind ir.BlockType) (*BlockHandler, error) {
	if conv == nil {
		return nil, fmt.Errorf("stream: nil conversation")
	}
	if kind != ir.BlockText && kind != ir.BlockThinking {
		return nil, fmt.Errorf("stream: block handler cannot fill %s blocks", kind)
	}
	return &BlockHandler{conv: conv, id: id, kind: kind}, nil
}

// ID returns the id of the block being filled.
func (b *BlockHandler) ID() string { return b.id }

func (b *BlockHandler) block(text string, status ir.ContentStatus) ir.Block {
	if b.kind == ir.BlockThinking {
		return ir.NewThinkingBlock(b.id, text, status)
	}
	return ir.NewTextBlock(b.id, text, status)
}

func (b *BlockHandler) OnChunk(chunk []byte) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	if !b.opened {
		b.opened = true
		return b.conv.Upsert(b.block(string(chunk), ir.StatusStreaming))
	}
	return b.conv.AppendText(b.id, string(chunk))
}

// OnComplete stores finalContent as the block text, so a block still matches
// the consumer's text when a chunk was refused along the way.
func (b *BlockHandler) OnComplete(finalContent string) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.opened = true
	return b.conv.Upsert(b.block(finalContent, ir.StatusCompleted))
}

// OnError seals the block as failed. A stream that failed before its first
// chunk leaves an error block carrying the message instead.
func (b *BlockHandler) OnError(err error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.opened {
		b.err = b.conv.Seal(b.id, ir.StatusError)
	} else {
		b.opened = true
		b.err = b.conv.Upsert(ir.NewErrorBlock(b.id, err.Error()))
	}
	if b.err != nil {
		log.Warn("block %s: recording stream failure: %v", b.id, b.err)
	}
}

// Err returns the error hit while recording a stream failure, if any.
func (b *BlockHandler) Err() error {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.err
}

var (
	_ Handler = HandlerFunc{}
	_ Handler = (*BlockHandler)(nil)
)
