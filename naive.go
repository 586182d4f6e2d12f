package gravitree

import (
	"runtime"

	"github.com/gravitree/gravitree/accel"
)

// NaiveSim advances the system by direct summation over every pair of
// bodies. It is quadratic in the particle count and exists as ground truth
// for TreeSim and as a benchmark baseline.
type NaiveSim struct {
	params  SimParams
	workers int

	mem  accel.StagingMemory
	kern accel.Kernel

	partBufs [2]*accel.Buffer
	stepNum  int
}

// NewNaiveSim constructs a direct-summation simulator.
func NewNaiveSim(
	mem accel.StagingMemory, params SimParams, initFn InitFunc,
) (*NaiveSim, error) {
	s := &NaiveSim{
		params:  params,
		workers: runtime.NumCPU(),
		mem:     mem,
	}
	s.kern = &accel.NaiveKernel{Workers: s.workers}

	initial := initFn(params)
	for i := 0; i < 2; i++ {
		s.partBufs[i] = mem.NewBuffer(params.ParticleNum * accel.ParticleSize)
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

// Step advances the simulation by one step.
func (s *NaiveSim) Step() error {
	src := s.partBufs[s.stepNum%2]
	dst := s.partBufs[(s.stepNum+1)%2]

	srcView, err := s.mem.MapForRead(src)
	if err != nil {
		return err
	}
	dstView, err := s.mem.MapForWrite(dst)
	if err != nil {
		s.mem.Unmap(src)
		return err
	}

	p := accel.Params{G: s.params.G, E: s.params.E, DT: s.params.DT}
	err = s.kern.Run(
		p, nil, accel.ParticleView(srcView), accel.ParticleView(dstView),
	)

	if uerr := s.mem.Unmap(src); err == nil {
		err = uerr
	}
	if uerr := s.mem.Unmap(dst); err == nil {
		err = uerr
	}
	if err != nil {
		return err
	}

	s.stepNum++
	return nil
}

// DestParticles returns the generation written by the most recent Step.
func (s *NaiveSim) DestParticles() *accel.Buffer {
	return s.partBufs[s.stepNum%2]
}

// SimParams returns a snapshot of the run's parameters.
func (s *NaiveSim) SimParams() SimParams { return s.params }
