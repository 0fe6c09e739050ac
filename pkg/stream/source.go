package stream

import (
	"context"
	"io"
	"iter"
	"slices"
	"sync"
)

// Source is a text source a Consumer can drain. It is either pull-based
// (FromSeq) or push-based (FromPush); there are no other kinds.
type Source interface {
	open() (Reader, error)
	exclusive() bool
}

// Reader reads fragments from a source it holds a reservation on.
type Reader interface {
	// Read blocks for the next fragment. It returns io.EOF once the source
	// is exhausted and ctx.Err() when ctx is done first.
	Read(ctx context.Context) (string, error)

	// Release gives the reservation back. It is safe to call more than once.
	Release()
}

// PushSource hands out an exclusive reader reservation. Acquire returns
// ErrLocked while a previous Reader has not been released.
type PushSource interface {
	Acquire() (Reader, error)
}

// FromSeq wraps a pull-based sequence. A non-nil error in the sequence ends
// consumption with that error.
func FromSeq(seq iter.Seq2[string, error]) Source {
	return pullSource{seq: seq}
}

// FromSlice yields each fragment in order.
func FromSlice(fragments ...string) Source {
	fragments = slices.Clone(fragments)
	return FromSeq(func(yield func(string, error) bool) {
		for _, f := range fragments {
			if !yield(f, nil) {
				return
			}
		}
	})
}

// FromPush wraps a push-based source.
func FromPush(src PushSource) Source {
	return pushSource{src: src}
}

type pullSource struct {
	seq iter.Seq2[string, error]
}

func (s pullSource) open() (Reader, error) {
	next, stop := iter.Pull2(s.seq)
	return &pullReader{next: next, stop: stop}, nil
}

func (pullSource) exclusive() bool { return false }

type pullReader struct {
	mu   sync.Mutex
	next func() (string, error, bool)
	stop func()
	done bool
}

func (r *pullReader) Read(ctx context.Context) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.done {
		return "", io.EOF
	}
	frag, err, ok := r.next()
	if !ok {
		r.done = true
		return "", io.EOF
	}
	if err != nil {
		r.done = true
		return "", err
	}
	return frag, nil
}

func (r *pullReader) Release() {
	r.stop()
}

type pushSource struct {
	src PushSource
}

func (s pushSource) open() (Reader, error) {
	return s.src.Acquire()
}

func (pushSource) exclusive() bool { return true }
