package stream

import (
	"context"
	"io"
	"sync"
)

// Pipe is an in-process push source. Writers never block; fragments queue
// until the reader holding the reservation takes them.
//
// Pipe also implements Handler, so it can sit at the end of a callback-style
// producer such as an LLM streaming function.
type Pipe struct {
	mu     sync.Mutex
	queue  []string
	closed bool
	err    error
	held   bool
	notify chan struct{}
}

// NewPipe creates an open, empty pipe.
func NewPipe() *Pipe {
	return &Pipe{notify: make(chan struct{}, 1)}
}

// Write queues a fragment.
func (p *Pipe) Write(fragment string) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.closed {
		return ErrClosedPipe
	}
	p.queue = append(p.queue, fragment)
	p.signal()
	return nil
}

// Close ends the pipe. The reader sees io.EOF after the queued fragments.
func (p *Pipe) Close() error {
	return p.CloseWithError(nil)
}

// CloseWithError ends the pipe with a failure. The reader sees err after the
// queued fragments. Only the first close takes effect.
func (p *Pipe) CloseWithError(err error) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.closed {
		return nil
	}
	p.closed = true
	p.err = err
	p.signal()
	return nil
}

// Held reports whether a reader currently holds the reservation.
func (p *Pipe) Held() bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.held
}

// Acquire implements PushSource.
func (p *Pipe) Acquire() (Reader, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.held {
		return nil, ErrLocked
	}
	p.held = true
	return &pipeReader{p: p}, nil
}

// OnChunk implements Handler by writing the chunk.
func (p *Pipe) OnChunk(chunk []byte) error {
	return p.Write(string(chunk))
}

// OnComplete implements Handler by closing the pipe.
func (p *Pipe) OnComplete(string) error {
	return p.Close()
}

// OnError implements Handler by closing the pipe with err.
func (p *Pipe) OnError(err error) {
	_ = p.CloseWithError(err)
}

// signal must be called with p.mu held.
func (p *Pipe) signal() {
	select {
	case p.notify <- struct{}{}:
	default:
	}
}

type pipeReader struct {
	p        *Pipe
	released bool
}

func (r *pipeReader) Read(ctx context.Context) (string, error) {
	p := r.p
	for {
		if err := ctx.Err(); err != nil {
			return "", err
		}
		p.mu.Lock()
		if r.released {
			p.mu.Unlock()
			return "", ErrReleased
		}
		if len(p.queue) > 0 {
			frag := p.queue[0]
			p.queue = p.queue[1:]
			p.mu.Unlock()
			return frag, nil
		}
		if p.closed {
			err := p.err
			p.mu.Unlock()
			if err == nil {
				err = io.EOF
			}
			return "", err
		}
		p.mu.Unlock()

		select {
		case <-ctx.Done():
			return "", ctx.Err()
		case <-p.notify:
		}
	}
}

func (r *pipeReader) Release() {
	r.p.mu.Lock()
	defer r.p.mu.Unlock()
	if r.released {
		return
	}
	r.released = true
	r.p.held = false
	// a successor reader may be waiting on queued data
	r.p.signal()
}

var (
	_ PushSource = (*Pipe)(nil)
	_ Handler    = (*Pipe)(nil)
)
