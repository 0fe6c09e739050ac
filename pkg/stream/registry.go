package stream

import (
	"context"
	"slices"
	"sync"
)

// Registry keeps one Consumer per logical slot, typically a block id.
// Consuming into a slot that is already busy cancels and discards the
// previous consumption first.
type Registry struct {
	mu       sync.Mutex
	slots    map[string]*Consumer
	opts     []Option
	handlers func(slot string) Handler
}

// RegistryOption configures a Registry.
type RegistryOption func(*Registry)

// WithConsumerOptions applies opts to every consumer the registry creates.
func WithConsumerOptions(opts ...Option) RegistryOption {
	return func(r *Registry) { r.opts = append(r.opts, opts...) }
}

// WithSlotHandler sets the handler factory used when a slot is created.
func WithSlotHandler(fn func(slot string) Handler) RegistryOption {
	return func(r *Registry) { r.handlers = fn }
}

func NewRegistry(opts ...RegistryOption) *Registry {
	r := &Registry{slots: make(map[string]*Consumer)}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Consume starts draining src into slot and returns the slot's consumer.
func (r *Registry) Consume(ctx context.Context, slot string, src Source) *Consumer {
	r.mu.Lock()
	c, ok := r.slots[slot]
	if !ok {
		opts := append(slices.Clone(r.opts), WithName(slot))
		if r.handlers != nil {
			opts = append(opts, WithHandler(r.handlers(slot)))
		}
		c = NewConsumer(opts...)
		r.slots[slot] = c
	}
	r.mu.Unlock()

	c.Start(ctx, src)
	return c
}

// Get returns the consumer for slot.
func (r *Registry) Get(slot string) (*Consumer, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	c, ok := r.slots[slot]
	return c, ok
}

// Cancel cancels the slot's consumption. It reports whether the slot exists.
func (r *Registry) Cancel(slot string) bool {
	c, ok := r.Get(slot)
	if ok {
		c.Cancel()
	}
	return ok
}

// Remove cancels and forgets the slot.
func (r *Registry) Remove(slot string) {
	r.mu.Lock()
	c, ok := r.slots[slot]
	delete(r.slots, slot)
	r.mu.Unlock()
	if ok {
		c.Cancel()
	}
}

// CancelAll cancels every slot.
func (r *Registry) CancelAll() {
	r.mu.Lock()
	consumers := make([]*Consumer, 0, len(r.slots))
	for _, c := range r.slots {
		consumers = append(consumers, c)
	}
	r.mu.Unlock()
	for _, c := range consumers {
		c.Cancel()
	}
}

// List returns the slot names in sorted order.
func (r *Registry) List() []string {
	r.mu.Lock()
	defer r.mu.Unlock()
	ids := make([]string, 0, len(r.slots))
	for id := range r.slots {
		ids = append(ids, id)
	}
	slices.Sort(ids)
	return ids
}
