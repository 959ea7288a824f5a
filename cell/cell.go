// Package cell provides the interior-mutable storage used wherever a slot
// must be updated in place while being shared through multiple owners:
// static fields, instance fields, reference-array elements. It is the
// Go realization of spec.md's MutValue.
//
// The single-threaded interpreter never contends on these locks; they are
// kept anyway because every shared mutable map in the teacher codebase
// (statics.Statics, the method-area registry) is guarded the same way, and
// that idiom is carried here rather than dropped for a single-threaded
// shortcut.
package cell

import (
	"sync"

	"corevm/types"
)

// Cell is a shared, mutable holder for a single Value. Its tag may change
// across Put calls: the initial value from a ConstantValue attribute may
// be of a different concrete numeric kind than the field's declared slot,
// and readers must tolerate that.
type Cell struct {
	mu  sync.RWMutex
	val types.Value
}

// New creates a Cell holding the given initial value.
func New(v types.Value) *Cell {
	return &Cell{val: v}
}

// Get returns the current value.
func (c *Cell) Get() types.Value {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.val
}

// Put overwrites the current value.
func (c *Cell) Put(v types.Value) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.val = v
}
