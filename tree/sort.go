package tree

import (
	"sync"

	"github.com/gravitree/gravitree/geom"
)

// Sort copies the bodies of src into dst in tree-traversal order: all bodies
// under any one subtree end up in a single contiguous range, with children
// visited in octant order. It also returns the subtree node counts (itself
// plus all descendants) for every arena index, which Flatten needs to carve
// its output regions. The builder must have quiesced first.
//
// dst must be a separate slice of the same length as src; the sort is never
// in place. The fan-out recursion hands each child a disjoint sub-slice of
// dst, so the parallel walk needs no synchronization beyond joining.
func Sort(a *Arena, src, dst []geom.Particle, workers int) []uint32 {
	counts := make([]uint32, a.Len())
	if a.Len() == 0 {
		return counts
	}

	s := &sorter{a: a, src: src, counts: counts}
	s.walk(0, dst, spawnDepth(workers))
	return counts
}

// spawnDepth returns how many levels of the fan-out should run their
// children on fresh goroutines. Below that the walk recurses serially;
// spawning per node all the way down costs more than it buys.
func spawnDepth(workers int) int {
	depth := 0
	for w := 1; w < workers && depth < 3; w *= 8 {
		depth++
	}
	return depth
}

type sorter struct {
	a      *Arena
	src    []geom.Particle
	counts []uint32
}

func (s *sorter) walk(ix uint32, dst []geom.Particle, spawn int) {
	n := s.a.At(ix)
	if n.Leaf() {
		dst[0] = s.src[n.Body]
		s.counts[ix] = 1
		return
	}

	var wg sync.WaitGroup
	off := 0
	for oct := 0; oct < 8; oct++ {
		c := n.Children[oct]
		if c == 0 {
			continue
		}
		cn := s.a.At(c)
		sub := dst[off : off+int(cn.Bodies)]
		off += int(cn.Bodies)

		if spawn > 0 {
			wg.Add(1)
			go func(c uint32, sub []geom.Particle) {
				s.walk(c, sub, spawn-1)
				wg.Done()
			}(c, sub)
		} else {
			s.walk(c, sub, 0)
		}
	}
	wg.Wait()

	total := uint32(1)
	for oct := 0; oct < 8; oct++ {
		if c := n.Children[oct]; c != 0 {
			total += s.counts[c]
		}
	}
	s.counts[ix] = total
}
