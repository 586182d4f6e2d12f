/*package gravitree approximates gravitational N-body dynamics by rebuilding
a Barnes-Hut octree on the CPU every step and handing its flattened form,
together with a spatially reordered copy of the particles, to a force
kernel running on an accelerator.

The per-step pipeline is strictly ordered: snapshot the readable particle
generation, bound it, build the tree, sort the particles into traversal
order, flatten the tree, publish both to accelerator-visible buffers, then
dispatch the kernel into the opposite generation. Nothing built during a
step survives it except the two ping-ponged particle generations.
*/
package gravitree

import (
	"log"
	"runtime"
	"time"

	"github.com/gravitree/gravitree/accel"
	"github.com/gravitree/gravitree/geom"
	"github.com/gravitree/gravitree/tree"
)

// Simulator advances a particle system one step at a time.
type Simulator interface {
	// Step advances the simulation by one step. Consumers must not read
	// mid-step state; the destination buffer handle is only valid between
	// calls.
	Step() error
	// DestParticles returns the buffer holding the most recently written
	// particle generation, for read-only consumers such as renderers.
	DestParticles() *accel.Buffer
	// SimParams returns a snapshot of the run's parameters.
	SimParams() SimParams
}

// TreeSim is the Barnes-Hut simulator. It owns the scratch arena, the two
// particle generations, and the staging buffers that carry the sorted
// particles and the flattened tree to the accelerator.
type TreeSim struct {
	params  SimParams
	theta   float32
	workers int
	logStep bool

	mem  accel.StagingMemory
	kern accel.Kernel

	// Generation stepNum%2 is readable; the other is this step's
	// destination. Strict ping-pong: a generation is never written by two
	// writers.
	partBufs [2]*accel.Buffer
	readBuf  *accel.Buffer
	sortBuf  *accel.Buffer
	treeStag *accel.Buffer
	treeBuf  *accel.Buffer

	arena     *tree.Arena
	rootWidth float32
	stepNum   int

	ms runtime.MemStats
}

// NewTreeSim constructs a simulator over the given staging memory and force
// kernel. theta <= 0 selects DefaultTheta. initFn is called once to fill
// both particle generations.
func NewTreeSim(
	mem accel.StagingMemory, kern accel.Kernel,
	params SimParams, theta float32, initFn InitFunc,
) (*TreeSim, error) {
	if theta <= 0 {
		theta = DefaultTheta
	}

	s := &TreeSim{
		params:  params,
		theta:   theta,
		workers: runtime.NumCPU(),
		mem:     mem,
		kern:    kern,
	}

	n := params.ParticleNum
	pBytes := n * accel.ParticleSize
	// A Barnes-Hut tree over n bodies needs at most ~4n nodes under this
	// partitioning strategy; exceeding that is a sizing bug, not a runtime
	// condition.
	tBytes := 4 * n * accel.NodeSize

	s.readBuf = mem.NewBuffer(pBytes)
	s.sortBuf = mem.NewBuffer(pBytes)
	s.treeStag = mem.NewBuffer(tBytes)
	s.treeBuf = mem.NewBuffer(tBytes)
	s.arena = tree.NewArena(4 * n)

	initial := initFn(params)
	for i := 0; i < 2; i++ {
		s.partBufs[i] = mem.NewBuffer(pBytes)
		view, err := mem.MapForWrite(s.partBufs[i])
		if err != nil {
			return nil, err
		}
		copy(accel.ParticleView(view), initial)
		if err := mem.Unmap(s.partBufs[i]); err != nil {
			return nil, err
		}
	}

	return s, nil
}

// Workers overrides the worker count, which defaults to the number of
// logical cores.
func (s *TreeSim) Workers(workers int) {
	if workers < 1 {
		workers = 1
	}
	s.workers = workers
}

// Log enables per-step progress logging.
func (s *TreeSim) Log(flag bool) { s.logStep = flag }

// Theta returns the opening angle the force kernel is being run with.
func (s *TreeSim) Theta() float32 { return s.theta }

// RootWidth returns the width of the root cell of the most recently built
// tree.
func (s *TreeSim) RootWidth() float32 { return s.rootWidth }

// Step advances the simulation by one step. The only failures are at the
// staging-memory boundary; they abort the step and surface here.
func (s *TreeSim) Step() error {
	start := time.Now()
	n := s.params.ParticleNum
	pBytes := n * accel.ParticleSize

	src := s.partBufs[s.stepNum%2]
	dst := s.partBufs[(s.stepNum+1)%2]

	// Snapshot the readable generation so the build can proceed while the
	// generation's storage stays free for the upcoming sorted rewrite.
	if err := s.mem.Copy(s.readBuf, src, pBytes); err != nil {
		return err
	}

	readView, err := s.mem.MapForRead(s.readBuf)
	if err != nil {
		return err
	}
	sortView, err := s.mem.MapForWrite(s.sortBuf)
	if err != nil {
		// Unwind the earlier maps so a retried Step sees the original
		// fault instead of an already-mapped buffer.
		s.mem.Unmap(s.readBuf)
		return err
	}
	treeView, err := s.mem.MapForWrite(s.treeStag)
	if err != nil {
		s.mem.Unmap(s.readBuf)
		s.mem.Unmap(s.sortBuf)
		return err
	}

	bodies := accel.ParticleView(readView)
	sorted := accel.ParticleView(sortView)
	flat := accel.NodeView(treeView)

	// Bodies move every step, so the bound is recomputed from scratch, and
	// the kernel's opening test must see the same scale the tree was built
	// with.
	bound := geom.Bound(bodies, s.workers)
	s.rootWidth = 2 * bound

	s.arena.Reset()
	tree.Build(s.arena, bodies, bound, s.workers)
	counts := tree.Sort(s.arena, bodies, sorted, s.workers)
	nodes := tree.Flatten(s.arena, counts, flat, s.workers)

	if err := s.mem.Unmap(s.readBuf); err != nil {
		return err
	}
	if err := s.mem.Unmap(s.sortBuf); err != nil {
		return err
	}
	if err := s.mem.Unmap(s.treeStag); err != nil {
		return err
	}

	// Publish: the sorted particles rewrite the readable generation (same
	// conceptual generation, traversal order), and only the used prefix of
	// the tree staging buffer is flushed.
	if err := s.mem.Copy(src, s.sortBuf, pBytes); err != nil {
		return err
	}
	if err := s.mem.Copy(s.treeBuf, s.treeStag, nodes*accel.NodeSize); err != nil {
		return err
	}

	if err := s.dispatch(src, dst, nodes); err != nil {
		return err
	}
	s.stepNum++

	if s.logStep {
		runtime.ReadMemStats(&s.ms)
		log.Printf(
			"Step %d: %d nodes, root width %g, %v. Alloc: %5d MB",
			s.stepNum, nodes, s.rootWidth,
			time.Since(start), s.ms.Alloc>>20,
		)
	}
	return nil
}

// dispatch runs the force kernel over the published tree and the sorted
// source generation, writing the destination generation.
func (s *TreeSim) dispatch(src, dst *accel.Buffer, nodes int) error {
	srcView, err := s.mem.MapForRead(src)
	if err != nil {
		return err
	}
	dstView, err := s.mem.MapForWrite(dst)
	if err != nil {
		s.mem.Unmap(src)
		return err
	}
	nodeView, err := s.mem.MapForRead(s.treeBuf)
	if err != nil {
		s.mem.Unmap(src)
		s.mem.Unmap(dst)
		return err
	}

	p := accel.Params{
		G: s.params.G, E: s.params.E, DT: s.params.DT,
		Theta: s.theta, RootWidth: s.rootWidth,
	}
	flat := accel.NodeView(nodeView)[:nodes]
	err = s.kern.Run(p, flat, accel.ParticleView(srcView), accel.ParticleView(dstView))

	if uerr := s.mem.Unmap(src); err == nil {
		err = uerr
	}
	if uerr := s.mem.Unmap(dst); err == nil {
		err = uerr
	}
	if uerr := s.mem.Unmap(s.treeBuf); err == nil {
		err = uerr
	}
	return err
}

// DestParticles returns the generation written by the most recent Step.
func (s *TreeSim) DestParticles() *accel.Buffer {
	return s.partBufs[s.stepNum%2]
}

// SimParams returns a snapshot of the run's parameters.
func (s *TreeSim) SimParams() SimParams { return s.params }

// ReadParticles maps the most recently written generation and copies it
// into ps, which must have length ParticleNum.
func ReadParticles(
	mem accel.StagingMemory, sim Simulator, ps []geom.Particle,
) error {
	buf := sim.DestParticles()
	view, err := mem.MapForRead(buf)
	if err != nil {
		return err
	}
	copy(ps, accel.ParticleView(view))
	return mem.Unmap(buf)
}
