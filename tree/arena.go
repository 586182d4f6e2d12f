package tree

import (
	"fmt"
	"sync/atomic"
)

// Arena is an append-only allocator over a fixed-capacity node slab. It is
// the only structure in the build pipeline that multiple workers mutate
// concurrently, and it carries no lock: Reserve hands out each slot index
// exactly once, and correctness rests on the convention that a Reservation
// is presented to exactly one writer and that no reader touches a slot
// before that writer's Write completes. The builder's work-queue handoff
// provides the required happens-before edge.
//
// An Arena is reset, not reallocated, between steps.
type Arena struct {
	nodes []Node
	used  uint32
}

// Reservation grants exclusive write access to a single arena slot. It is
// only meaningful to the Arena that issued it and must not be shared
// between workers.
type Reservation struct {
	ix uint32
}

// Index returns the slot index the reservation refers to.
func (r Reservation) Index() uint32 { return r.ix }

// NewArena returns an arena with room for capacity nodes. Callers sizing an
// arena for a tree over n bodies must provide at least 4n slots.
func NewArena(capacity int) *Arena {
	return &Arena{nodes: make([]Node, capacity)}
}

// Reserve claims the next free slot. Running out of slots is a sizing bug
// in the caller's configuration, not a data condition, so it panics rather
// than returning an error.
func (a *Arena) Reserve() Reservation {
	ix := atomic.AddUint32(&a.used, 1) - 1
	if ix >= uint32(len(a.nodes)) {
		panic(fmt.Sprintf(
			"tree: arena capacity exceeded. Reserved %d nodes, capacity %d.",
			ix+1, len(a.nodes),
		))
	}
	return Reservation{ix}
}

// Write stores n in the reserved slot.
func (a *Arena) Write(r Reservation, n Node) {
	a.nodes[r.ix] = n
}

// At returns a pointer to the node at the given index. It must only be
// called once the builder has quiesced.
func (a *Arena) At(ix uint32) *Node {
	return &a.nodes[ix]
}

// Len returns the number of reserved slots, which after a build is the
// total node count of the tree. Only this prefix of the slab is valid.
func (a *Arena) Len() int {
	return int(atomic.LoadUint32(&a.used))
}

// Cap returns the slab capacity.
func (a *Arena) Cap() int { return len(a.nodes) }

// Reset discards every reservation so the slab can be reused next step.
// No slot contents are cleared; they are dead until re-reserved.
func (a *Arena) Reset() {
	atomic.StoreUint32(&a.used, 0)
}
