// Package testutil holds test doubles shared by package tests.
package testutil

import (
	"context"
	"errors"
	"strings"
	"sync"
	"time"

	"github.com/tmc/langchaingo/llms"
)

// ErrFakeStream is returned when a configured mid-stream failure fires.
var ErrFakeStream = errors.New("fake stream interrupted")

// ErrNoReplies is returned when the model has nothing scripted.
var ErrNoReplies = errors.New("fake llm: no replies scripted")

// Reply is one scripted answer. A non-nil Err fails the call instead.
type Reply struct {
	Text string
	Err  error
}

// FakeLLM is an llms.Model that answers from a script, cycling when it runs
// out. With llms.WithStreamingFunc set, each answer is delivered in chunks of
// ChunkSize runes before GenerateContent returns.
type FakeLLM struct {
	mu      sync.Mutex
	replies []Reply
	next    int
	prompts []string

	chunkSize  int
	chunkDelay time.Duration
	failAfter  int
}

// NewFakeLLM scripts one successful reply per text.
func NewFakeLLM(texts ...string) *FakeLLM {
	f := &FakeLLM{chunkSize: 5}
	for _, t := range texts {
		f.replies = append(f.replies, Reply{Text: t})
	}
	return f
}

// Queue appends replies to the script.
func (f *FakeLLM) Queue(replies ...Reply) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.replies = append(f.replies, replies...)
}

func (f *FakeLLM) SetChunkSize(n int) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.chunkSize = n
}

// SetChunkDelay sets the pause before each streamed chunk.
func (f *FakeLLM) SetChunkDelay(d time.Duration) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.chunkDelay = d
}

// SetFailAfter makes streaming fail with ErrFakeStream once n chunks have
// been delivered. Zero disables it.
func (f *FakeLLM) SetFailAfter(n int) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.failAfter = n
}

// Prompts returns every prompt seen, oldest first.
func (f *FakeLLM) Prompts() []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]string(nil), f.prompts...)
}

// LastPrompt returns the most recent prompt, or "" before the first call.
func (f *FakeLLM) LastPrompt() string {
	f.mu.Lock()
	defer f.mu.Unlock()
	if len(f.prompts) == 0 {
		return ""
	}
	return f.prompts[len(f.prompts)-1]
}

func (f *FakeLLM) take(prompt string) (Reply, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.prompts = append(f.prompts, prompt)
	if len(f.replies) == 0 {
		return Reply{}, ErrNoReplies
	}
	r := f.replies[f.next%len(f.replies)]
	f.next++
	return r, nil
}

func (f *FakeLLM) Call(ctx context.Context, prompt string, options ...llms.CallOption) (string, error) {
	r, err := f.take(prompt)
	if err != nil {
		return "", err
	}
	return r.Text, r.Err
}

// GenerateContent joins the text parts of messages into the prompt.
func (f *FakeLLM) GenerateContent(ctx context.Context, messages []llms.MessageContent, options ...llms.CallOption) (*llms.ContentResponse, error) {
	var parts []string
	for _, msg := range messages {
		for _, part := range msg.Parts {
			if text, ok := part.(llms.TextContent); ok {
				parts = append(parts, text.Text)
			}
		}
	}
	text, err := f.Call(ctx, strings.Join(parts, "\n"))
	if err != nil {
		return nil, err
	}

	var opts llms.CallOptions
	for _, opt := range options {
		opt(&opts)
	}
	if opts.StreamingFunc != nil {
		if err := f.stream(ctx, text, opts.StreamingFunc); err != nil {
			return nil, err
		}
	}
	return &llms.ContentResponse{Choices: []*llms.ContentChoice{{Content: text}}}, nil
}

func (f *FakeLLM) stream(ctx context.Context, text string, fn func(context.Context, []byte) error) error {
	f.mu.Lock()
	size, delay, failAfter := f.chunkSize, f.chunkDelay, f.failAfter
	f.mu.Unlock()

	for i, chunk := range Chunk(text, size) {
		if failAfter > 0 && i == failAfter {
			return ErrFakeStream
		}
		if delay > 0 {
			select {
			case <-ctx.Done():
				return ctx.Err()
			case <-time.After(delay):
			}
		}
		if err := fn(ctx, []byte(chunk)); err != nil {
			return err
		}
	}
	return nil
}

// Chunk splits s into pieces of at most size runes.
func Chunk(s string, size int) []string {
	size = max(size, 1)
	runes := []rune(s)
	var out []string
	for len(runes) > 0 {
		n := min(size, len(runes))
		out = append(out, string(runes[:n]))
		runes = runes[n:]
	}
	return out
}

var _ llms.Model = (*FakeLLM)(nil)
