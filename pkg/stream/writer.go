package stream

import (
	"fmt"
	"io"
	"strings"
	"sync"
)

// WriterHandler copies a consumption to an io.Writer as it arrives.
type WriterHandler struct {
	out     io.Writer
	errOut  io.Writer
	newline bool

	mu      sync.Mutex
	written strings.Builder
	err     error
}

// WriterOption configures a WriterHandler.
type WriterOption func(*WriterHandler)

// WithErrorWriter makes OnError print the failure to w.
func WithErrorWriter(w io.Writer) WriterOption {
	return func(h *WriterHandler) { h.errOut = w }
}

// WithTrailingNewline ends a completed output with a newline when the text
// does not already end with one.
func WithTrailingNewline() WriterOption {
	return func(h *WriterHandler) { h.newline = true }
}

func NewWriterHandler(w io.Writer, opts ...WriterOption) *WriterHandler {
	h := &WriterHandler{out: w}
	for _, opt := range opts {
		opt(h)
	}
	return h
}

// NewConsoleHandler writes text to out, failures to errOut, and ends each
// completed stream on a fresh line.
func NewConsoleHandler(out, errOut io.Writer) *WriterHandler {
	return NewWriterHandler(out, WithErrorWriter(errOut), WithTrailingNewline())
}

func (h *WriterHandler) OnChunk(chunk []byte) error {
	h.mu.Lock()
	defer h.mu.Unlock()
	n, err := h.out.Write(chunk)
	h.written.Write(chunk[:n])
	return err
}

// OnComplete writes the part of finalContent not yet written. Content that
// does not extend what was written is left alone.
func (h *WriterHandler) OnComplete(finalContent string) error {
	h.mu.Lock()
	defer h.mu.Unlock()
	rest, ok := strings.CutPrefix(finalContent, h.written.String())
	if ok && rest != "" {
		if _, err := io.WriteString(h.out, rest); err != nil {
			return err
		}
		h.written.WriteString(rest)
	}
	if h.newline && finalContent != "" && !strings.HasSuffix(finalContent, "\n") {
		_, err := io.WriteString(h.out, "\n")
		return err
	}
	return nil
}

func (h *WriterHandler) OnError(err error) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.err = err
	if h.errOut != nil {
		fmt.Fprintf(h.errOut, "Error: %v\n", err)
	}
}

// Content returns everything written so far.
func (h *WriterHandler) Content() string {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.written.String()
}

// Err returns the failure reported by the source, if any.
func (h *WriterHandler) Err() error {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.err
}

type tee []Handler

// Tee returns a Handler forwarding every event to each of handlers in
// order. Chunk and completion forwarding stops at the first error.
func Tee(handlers ...Handler) Handler {
	return tee(handlers)
}

func (t tee) OnChunk(chunk []byte) error {
	for _, h := range t {
		if err := h.OnChunk(chunk); err != nil {
			return err
		}
	}
	return nil
}

func (t tee) OnComplete(finalContent string) error {
	for _, h := range t {
		if err := h.OnComplete(finalContent); err != nil {
			return err
		}
	}
	return nil
}

func (t tee) OnError(err error) {
	for _, h := range t {
		h.OnError(err)
	}
}

var _ Handler = (*WriterHandler)(nil)
