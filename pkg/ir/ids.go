package ir

import (
	"strconv"
	"sync/atomic"

	"github.com/google/uuid"
)

// IDGenerator hands out block ids.
type IDGenerator interface {
	NewID() string
}

// IDFunc adapts a function to IDGenerator.
type IDFunc func() string

func (f IDFunc) NewID() string { return f() }

// CounterIDs produces prefix-1, prefix-2, ... Ids are unique for the
// lifetime of the generator, and it is safe for concurrent use.
type CounterIDs struct {
	prefix string
	n      atomic.Uint64
}

func NewCounterIDs(prefix string) *CounterIDs {
	return &CounterIDs{prefix: prefix}
}

func (g *CounterIDs) NewID() string {
	n := g.n.Add(1)
	if g.prefix == "" {
		return strconv.FormatUint(n, 10)
	}
	return g.prefix + "-" + strconv.FormatUint(n, 10)
}

// UUIDs produces random v4 UUIDs, optionally prefixed.
type UUIDs struct {
	Prefix string
}

func (g UUIDs) NewID() string {
	if g.Prefix == "" {
		return uuid.NewString()
	}
	return g.Prefix + "-" + uuid.NewString()
}

var (
	_ IDGenerator = (*CounterIDs)(nil)
	_ IDGenerator = UUIDs{}
	_ IDGenerator = IDFunc(nil)
)
