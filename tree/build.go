package tree

import (
	"sync/atomic"

	"github.com/gravitree/gravitree/geom"
)

// partition is one unit of builder work: the body indices falling inside a
// cell, the cell's geometry, and the reservation its finished node will be
// written to. A partition is owned exclusively by the worker processing it.
type partition struct {
	center geom.Vec
	width  float32
	slot   Reservation
	bodies []uint32
}

type builder struct {
	a  *Arena
	ps []geom.Particle

	queue chan partition
	// Partitions queued or being processed. The queue being momentarily
	// empty does not mean the build is done: a worker holding the last
	// partition may still be about to enqueue eight more. Quiescence is
	// pending hitting zero, at which point the decrementing worker closes
	// the queue and everyone drains out.
	pending int64
}

// Build constructs an octree over ps into a, rooted at reservation 0, with
// the root cell being the cube [-bound, bound]^3. The arena must be freshly
// reset and have capacity for at least 4*len(ps) nodes. Build returns only
// once the tree is complete and stable.
func Build(a *Arena, ps []geom.Particle, bound float32, workers int) {
	if len(ps) == 0 {
		return
	}
	if workers < 1 {
		workers = 1
	}

	bodies := make([]uint32, len(ps))
	for i := range bodies {
		bodies[i] = uint32(i)
	}

	b := &builder{
		a: a, ps: ps,
		// Every queued partition holds a distinct reservation, so the
		// queue can never contain more items than the arena has slots.
		queue:   make(chan partition, a.Cap()),
		pending: 1,
	}
	b.queue <- partition{
		width: bound * 2, slot: a.Reserve(), bodies: bodies,
	}

	for id := 0; id < workers-1; id++ {
		go b.work()
	}
	b.work()
}

func (b *builder) work() {
	for p := range b.queue {
		b.process(p)
		if atomic.AddInt64(&b.pending, -1) == 0 {
			close(b.queue)
		}
	}
}

func (b *builder) process(p partition) {
	if len(p.bodies) == 1 {
		b.writeLeaf(p.slot, p.bodies[0])
		return
	}

	var (
		n       Node
		sum     geom.Vec
		buckets [8][]uint32
	)
	for j, i := range p.bodies {
		pt := &b.ps[i]
		n.Mass += pt.Mass
		for k := 0; k < 3; k++ {
			sum[k] += pt.X[k] * pt.Mass
		}

		oct := 0
		if p.width > 0 {
			oct = geom.Octant(&p.center, &pt.X)
		} else {
			// The cell width has underflowed to zero, which only happens
			// when the remaining bodies are exactly coincident. Spatial
			// classification can make no further progress, so scatter them
			// across the octants to keep the subdivision finite. Their
			// centers of gravity are all the same point, so the tree's
			// mass distribution is unaffected.
			oct = j % 8
		}
		buckets[oct] = append(buckets[oct], i)
	}

	n.Bodies = uint32(len(p.bodies))
	if n.Mass > 0 {
		for k := 0; k < 3; k++ {
			n.COG[k] = sum[k] / n.Mass
		}
	} else {
		// Massless cells contribute nothing to the force pass; park the
		// center of gravity on the cell center to keep it finite.
		n.COG = p.center
	}

	for oct := 0; oct < 8; oct++ {
		bucket := buckets[oct]
		switch {
		case len(bucket) == 0:
			// Children[oct] stays 0: no child.
		case len(bucket) == 1:
			r := b.a.Reserve()
			b.writeLeaf(r, bucket[0])
			n.Children[oct] = r.Index()
		default:
			r := b.a.Reserve()
			n.Children[oct] = r.Index()
			center, width := geom.OctantShift(p.center, p.width, oct)

			atomic.AddInt64(&b.pending, 1)
			b.queue <- partition{center, width, r, bucket}
		}
	}

	b.a.Write(p.slot, n)
}

func (b *builder) writeLeaf(r Reservation, body uint32) {
	pt := &b.ps[body]
	b.a.Write(r, Node{
		COG: pt.X, Mass: pt.Mass, Bodies: 1, Body: body,
	})
}
