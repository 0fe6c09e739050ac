package stream

import (
	"context"
	"errors"
	"io"
	"strings"
	"sync"

	"github.com/killallgit/streamir/pkg/logger"
)

var log = logger.WithComponent("stream")

// Option configures a Consumer or Typewriter.
type Option func(*options)

type options struct {
	handler Handler
	cursor  bool
	name    string
}

func defaultOptions() options {
	return options{handler: HandlerFunc{}, cursor: true}
}

// WithHandler sets the callbacks for each run.
func WithHandler(h Handler) Option {
	return func(o *options) {
		if h != nil {
			o.handler = h
		}
	}
}

// WithCursor enables or disables the cursor flag. It is enabled by default.
func WithCursor(enabled bool) Option {
	return func(o *options) { o.cursor = enabled }
}

// WithName labels log lines, usually with the block id being filled.
func WithName(name string) Option {
	return func(o *options) { o.name = name }
}

// run is one consumption. Its cancelled flag is the token checked under the
// consumer lock before every append.
type run struct {
	cancel    context.CancelFunc
	done      chan struct{}
	push      bool
	cancelled bool
	finished  bool
}

func newRun(ctx context.Context) (*run, context.Context) {
	ctx, cancel := context.WithCancel(ctx)
	return &run{cancel: cancel, done: make(chan struct{})}, ctx
}

// active must be called with the owner's lock held.
func (r *run) active() bool {
	return r != nil && !r.cancelled && !r.finished
}

var closedDone = func() chan struct{} {
	ch := make(chan struct{})
	close(ch)
	return ch
}()

// Consumer drains a Source into a growing text value. Only one consumption
// is active at a time: starting a new one cancels the previous one.
type Consumer struct {
	opts options

	mu        sync.Mutex
	text      strings.Builder
	receiving bool
	err       error
	state     State
	cur       *run
}

// NewConsumer creates an idle consumer.
func NewConsumer(opts ...Option) *Consumer {
	o := defaultOptions()
	for _, opt := range opts {
		opt(&o)
	}
	return &Consumer{opts: o}
}

// Start cancels any running consumption, resets the text and begins
// draining src in a new goroutine.
func (c *Consumer) Start(ctx context.Context, src Source) {
	r, runCtx := newRun(ctx)
	r.push = src.exclusive()

	c.mu.Lock()
	prev := c.cur
	c.cancelLocked()
	c.text.Reset()
	c.err = nil
	c.receiving = true
	c.state = StateStreaming
	c.cur = r
	c.mu.Unlock()

	go c.consume(runCtx, r, prev, src)
}

// Cancel abandons the running consumption. No further text is appended and
// no completion or error callback fires. A fragment appended before Cancel
// took the lock may still have its OnChunk delivered after Cancel returns;
// wait on Done to be sure the handler has seen its last call. The handler
// always sees exactly the fragments that make up Text. Cancelling an idle or
// finished consumer does nothing.
func (c *Consumer) Cancel() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.cancelLocked()
}

func (c *Consumer) cancelLocked() {
	r := c.cur
	if !r.active() {
		return
	}
	r.cancelled = true
	r.cancel()
	c.receiving = false
	c.state = StateCancelled
	log.Debug("consumer %s cancelled", c.opts.name)
}

func (c *Consumer) consume(ctx context.Context, r, prev *run, src Source) {
	defer close(r.done)
	defer r.cancel()

	// A push reservation held by the previous run must be back before we
	// ask again. A pull run holds none, and may be stuck inside its sequence.
	if prev != nil && prev.push && r.push {
		<-prev.done
	}

	reader, err := src.open()
	if err != nil {
		c.finish(r, err)
		return
	}
	defer reader.Release()

	for {
		frag, err := reader.Read(ctx)
		if errors.Is(err, io.EOF) {
			c.finish(r, nil)
			return
		}
		if err != nil {
			c.finish(r, err)
			return
		}
		if err := c.apply(r, frag); err != nil {
			c.finish(r, err)
			return
		}
	}
}

// apply appends frag unless the run has been cancelled. A cancelled run
// returns errCancelled so the loop stops. OnChunk runs outside the lock so a
// handler may call back into the consumer; a fragment that made it into the
// text is always delivered.
func (c *Consumer) apply(r *run, frag string) error {
	c.mu.Lock()
	if r != c.cur || !r.active() {
		c.mu.Unlock()
		return errCancelled
	}
	c.text.WriteString(frag)
	c.mu.Unlock()

	return c.opts.handler.OnChunk([]byte(frag))
}

var errCancelled = errors.New("stream: consumption cancelled")

// finish settles the run. Cancelled runs, including runs whose parent
// context was cancelled, end silently.
func (c *Consumer) finish(r *run, err error) {
	c.mu.Lock()
	if r != c.cur || r.cancelled {
		c.mu.Unlock()
		return
	}
	r.finished = true
	c.receiving = false
	if errors.Is(err, errCancelled) || (err != nil && errors.Is(err, context.Canceled)) {
		r.cancelled = true
		c.state = StateCancelled
		c.mu.Unlock()
		return
	}
	if err != nil {
		c.err = err
		c.state = StateError
		c.mu.Unlock()
		log.Warn("consumer %s failed: %v", c.opts.name, err)
		c.opts.handler.OnError(err)
		return
	}
	c.state = StateComplete
	final := c.text.String()
	c.mu.Unlock()

	if err := c.opts.handler.OnComplete(final); err != nil {
		log.Warn("consumer %s completion handler: %v", c.opts.name, err)
	}
}

// Text returns the text accumulated so far.
func (c *Consumer) Text() string {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.text.String()
}

// Receiving reports whether a consumption is in progress.
func (c *Consumer) Receiving() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.receiving
}

// Err returns the source failure of the last consumption, if any.
func (c *Consumer) Err() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.err
}

// State returns the lifecycle state of the last consumption.
func (c *Consumer) State() State {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.state
}

// ShowCursor reports whether a cursor should be drawn after the text.
func (c *Consumer) ShowCursor() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.receiving && c.opts.cursor
}

// Done is closed once the current consumption's goroutine has exited and
// released its source.
func (c *Consumer) Done() <-chan struct{} {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.cur == nil {
		return closedDone
	}
	return c.cur.done
}

// Wait blocks until the current consumption has exited or ctx is done.
func (c *Consumer) Wait(ctx context.Context) error {
	select {
	case <-c.Done():
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}
