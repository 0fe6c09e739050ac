package stream

import (
	"context"
	"sync"
	"time"
)

// Typewriter reveals a fixed string one rune per interval. It is independent
// of Consumer and follows the same callback contract: OnChunk per revealed
// rune, then OnComplete once. Stopping or restarting fires no callback.
type Typewriter struct {
	opts     options
	interval time.Duration

	mu        sync.Mutex
	runes     []rune
	shown     int
	revealing bool
	state     State
	cur       *run
}

// NewTypewriter creates an idle typewriter. A non-positive interval reveals
// everything at once.
func NewTypewriter(interval time.Duration, opts ...Option) *Typewriter {
	o := defaultOptions()
	for _, opt := range opts {
		opt(&o)
	}
	return &Typewriter{opts: o, interval: interval}
}

// Start stops any run in progress and begins revealing text.
func (t *Typewriter) Start(ctx context.Context, text string) {
	r, runCtx := newRun(ctx)

	t.mu.Lock()
	t.stopLocked()
	t.runes = []rune(text)
	t.shown = 0
	t.revealing = true
	t.state = StateStreaming
	t.cur = r
	t.mu.Unlock()

	go t.reveal(runCtx, r)
}

// Stop abandons the current run without a callback. A rune revealed just
// before Stop may still reach OnChunk afterwards; Done is closed once the
// handler has seen its last call, and by then it has seen exactly Text.
func (t *Typewriter) Stop() {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.stopLocked()
}

func (t *Typewriter) stopLocked() {
	r := t.cur
	if !r.active() {
		return
	}
	r.cancelled = true
	r.cancel()
	t.revealing = false
	t.state = StateCancelled
}

func (t *Typewriter) reveal(ctx context.Context, r *run) {
	defer close(r.done)
	defer r.cancel()

	var tick <-chan time.Time
	if t.interval > 0 {
		ticker := time.NewTicker(t.interval)
		defer ticker.Stop()
		tick = ticker.C
	}

	for {
		if tick != nil {
			select {
			case <-ctx.Done():
				t.abandon(r)
				return
			case <-tick:
			}
		} else if ctx.Err() != nil {
			t.abandon(r)
			return
		}

		chunk, more, ok := t.step(r)
		if !ok {
			return
		}
		if chunk != "" {
			if err := t.opts.handler.OnChunk([]byte(chunk)); err != nil {
				log.Warn("typewriter %s chunk handler: %v", t.opts.name, err)
			}
		}
		if !more {
			t.complete(r)
			return
		}
	}
}

// step reveals the next rune, or everything when there is no interval.
func (t *Typewriter) step(r *run) (chunk string, more, ok bool) {
	t.mu.Lock()
	defer t.mu.Unlock()
	if r != t.cur || !r.active() {
		return "", false, false
	}
	if t.shown >= len(t.runes) {
		return "", false, true
	}
	next := t.shown + 1
	if t.interval <= 0 {
		next = len(t.runes)
	}
	chunk = string(t.runes[t.shown:next])
	t.shown = next
	return chunk, t.shown < len(t.runes), true
}

func (t *Typewriter) complete(r *run) {
	t.mu.Lock()
	if r != t.cur || !r.active() {
		t.mu.Unlock()
		return
	}
	r.finished = true
	t.revealing = false
	t.state = StateComplete
	final := string(t.runes)
	t.mu.Unlock()

	if err := t.opts.handler.OnComplete(final); err != nil {
		log.Warn("typewriter %s completion handler: %v", t.opts.name, err)
	}
}

// abandon handles a parent context being cancelled.
func (t *Typewriter) abandon(r *run) {
	t.mu.Lock()
	defer t.mu.Unlock()
	if r != t.cur || !r.active() {
		return
	}
	r.cancelled = true
	t.revealing = false
	t.state = StateCancelled
}

// Text returns the revealed prefix.
func (t *Typewriter) Text() string {
	t.mu.Lock()
	defer t.mu.Unlock()
	return string(t.runes[:t.shown])
}

// Revealing reports whether a run is in progress.
func (t *Typewriter) Revealing() bool {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.revealing
}

// State returns the lifecycle state of the last run.
func (t *Typewriter) State() State {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.state
}

// ShowCursor reports whether a cursor should be drawn after the text.
func (t *Typewriter) ShowCursor() bool {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.revealing && t.opts.cursor
}

// Done is closed when the current run's goroutine has exited.
func (t *Typewriter) Done() <-chan struct{} {
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.cur == nil {
		return closedDone
	}
	return t.cur.done
}
