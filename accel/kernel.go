package accel

import (
	"math"

	"github.com/gravitree/gravitree/geom"
	"github.com/gravitree/gravitree/tree"
)

// Kernel advances one particle generation into the next. src holds the
// readable generation (in tree-traversal order for TreeKernel), dst the
// generation being written; the two must never alias. Run returns only once
// every particle of dst is final.
type Kernel interface {
	Run(p Params, nodes []tree.FlatNode, src, dst []geom.Particle) error
}

// TreeKernel is the host implementation of the accelerator's force pass:
// softened gravity against a flattened Barnes-Hut tree, with the standard
// width/distance < theta opening test.
type TreeKernel struct {
	Workers int
}

func (k *TreeKernel) Run(
	p Params, nodes []tree.FlatNode, src, dst []geom.Particle,
) error {
	workers := k.Workers
	if workers < 1 {
		workers = 1
	}
	if len(src) < workers {
		workers = 1
	}

	out := make(chan int, workers)
	chunkLen := len(src) / workers
	for id := 0; id < workers-1; id++ {
		lo, hi := id*chunkLen, (id+1)*chunkLen
		go k.chunk(p, nodes, src, dst[lo:hi], lo, out)
	}
	lo := (workers - 1) * chunkLen
	k.chunk(p, nodes, src, dst[lo:], lo, out)

	for i := 0; i < workers; i++ {
		<-out
	}
	return nil
}

// frame is one entry of the traversal stack. The flat node form does not
// store cell widths, so the walk carries them: every level down halves the
// width, starting from the root width the tree was built with.
type frame struct {
	ix    uint32
	width float32
}

func (k *TreeKernel) chunk(
	p Params, nodes []tree.FlatNode,
	src, dst []geom.Particle, off int, out chan<- int,
) {
	stack := make([]frame, 0, 64)

	for i := range dst {
		pt := src[off+i]
		var acc geom.Vec

		if len(nodes) > 0 {
			stack = append(stack[:0], frame{0, p.RootWidth})
			for len(stack) > 0 {
				f := stack[len(stack)-1]
				stack = stack[:len(stack)-1]
				n := &nodes[f.ix]

				var d geom.Vec
				var r2 float32
				for c := 0; c < 3; c++ {
					d[c] = n.COG[c] - pt.X[c]
					r2 += d[c] * d[c]
				}

				if n.Bodies == 1 || f.width*f.width < p.Theta*p.Theta*r2 {
					// Far enough (or a single body): treat the cell as a
					// point mass. A body's own leaf contributes nothing
					// since d is zero there.
					inv := 1 / float32(math.Sqrt(float64(r2+p.E)))
					s := p.G * n.Mass * inv * inv * inv
					for c := 0; c < 3; c++ {
						acc[c] += s * d[c]
					}
					continue
				}
				for oct := 0; oct < 8; oct++ {
					if c := n.Children[oct]; c != 0 {
						stack = append(stack, frame{c, f.width / 2})
					}
				}
			}
		}

		pt.A = acc
		for c := 0; c < 3; c++ {
			pt.V[c] += acc[c] * p.DT
			pt.X[c] += pt.V[c] * p.DT
		}
		dst[i] = pt
	}
	out <- 0
}

// NaiveKernel evaluates every pairwise interaction directly. It ignores the
// tree and exists as ground truth for the approximate kernel and as the
// force pass of NaiveSim.
type NaiveKernel struct {
	Workers int
}

func (k *NaiveKernel) Run(
	p Params, _ []tree.FlatNode, src, dst []geom.Particle,
) error {
	workers := k.Workers
	if workers < 1 {
		workers = 1
	}
	if len(src) < workers {
		workers = 1
	}

	out := make(chan int, workers)
	chunkLen := len(src) / workers
	for id := 0; id < workers-1; id++ {
		lo, hi := id*chunkLen, (id+1)*chunkLen
		go k.chunk(p, src, dst[lo:hi], lo, out)
	}
	lo := (workers - 1) * chunkLen
	k.chunk(p, src, dst[lo:], lo, out)

	for i := 0; i < workers; i++ {
		<-out
	}
	return nil
}

func (k *NaiveKernel) chunk(
	p Params, src, dst []geom.Particle, off int, out chan<- int,
) {
	for i := range dst {
		pt := src[off+i]
		var acc geom.Vec

		for j := range src {
			var d geom.Vec
			var r2 float32
			for c := 0; c < 3; c++ {
				d[c] = src[j].X[c] - pt.X[c]
				r2 += d[c] * d[c]
			}
			inv := 1 / float32(math.Sqrt(float64(r2+p.E)))
			s := p.G * src[j].Mass * inv * inv * inv
			for c := 0; c < 3; c++ {
				acc[c] += s * d[c]
			}
		}

		pt.A = acc
		for c := 0; c < 3; c++ {
			pt.V[c] += acc[c] * p.DT
			pt.X[c] += pt.V[c] * p.DT
		}
		dst[i] = pt
	}
	out <- 0
}
