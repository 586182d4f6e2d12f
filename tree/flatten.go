package tree

import (
	"fmt"
	"sync"
)

// Layout selects the order nodes are written to the flat array.
type Layout int

const (
	// PreOrder writes each node before any of its descendants, so every
	// child index is strictly greater than its parent's.
	PreOrder Layout = iota
	// LevelOrder is reserved and not implemented.
	LevelOrder
)

// Flatten serializes the tree into out in pre-order and returns the number
// of nodes written; only that prefix of out is valid. counts must be the
// subtree node counts returned by Sort over the same build. Each recursive
// call owns a disjoint region of out sized by its subtree count, so the
// parallel fan-out needs no synchronization beyond joining.
func Flatten(a *Arena, counts []uint32, out []FlatNode, workers int) int {
	if a.Len() == 0 {
		return 0
	}
	f := &flattener{a: a, counts: counts, out: out}
	f.walk(0, 0, spawnDepth(workers))
	return a.Len()
}

// FlattenLayout is Flatten with an explicit layout. Only PreOrder is
// implemented.
func FlattenLayout(
	a *Arena, counts []uint32, out []FlatNode, workers int, l Layout,
) (int, error) {
	if l != PreOrder {
		return 0, fmt.Errorf("tree: only the PreOrder layout is implemented.")
	}
	return Flatten(a, counts, out, workers), nil
}

type flattener struct {
	a      *Arena
	counts []uint32
	out    []FlatNode
}

func (f *flattener) walk(ix, at uint32, spawn int) {
	n := f.a.At(ix)
	fn := FlatNode{COG: n.COG, Mass: n.Mass, Bodies: n.Bodies}

	var wg sync.WaitGroup
	base := at + 1
	for oct := 0; oct < 8; oct++ {
		c := n.Children[oct]
		if c == 0 {
			continue
		}
		fn.Children[oct] = base

		if spawn > 0 {
			wg.Add(1)
			go func(c, base uint32) {
				f.walk(c, base, spawn-1)
				wg.Done()
			}(c, base)
		} else {
			f.walk(c, base, 0)
		}
		base += f.counts[c]
	}
	f.out[at] = fn
	wg.Wait()
}
