package gravitree_test

import (
	"errors"
	"math"
	"testing"

	"github.com/gravitree/gravitree"
	"github.com/gravitree/gravitree/accel"
	"github.com/gravitree/gravitree/geom"
	"github.com/gravitree/gravitree/inits"
)

var testParams = gravitree.SimParams{
	ParticleNum: 256, G: 1e-4, E: 1e-4, DT: 0.016,
}

func newTestTreeSim(t *testing.T, params gravitree.SimParams) (
	*accel.Host, *gravitree.TreeSim,
) {
	mem := accel.NewHost()
	kern := &accel.TreeKernel{Workers: 4}
	sim, err := gravitree.NewTreeSim(mem, kern, params, 0.75, inits.Uniform)
	if err != nil {
		t.Fatalf("NewTreeSim failed: %s", err.Error())
	}
	sim.Workers(4)
	return mem, sim
}

func TestTreeSimStep(t *testing.T) {
	mem, sim := newTestTreeSim(t, testParams)

	ps := make([]geom.Particle, testParams.ParticleNum)
	for step := 0; step < 4; step++ {
		if err := sim.Step(); err != nil {
			t.Fatalf("Step %d failed: %s", step, err.Error())
		}

		err := gravitree.ReadParticles(mem, sim, ps)
		if err != nil {
			t.Fatalf("ReadParticles failed: %s", err.Error())
		}
		for i := range ps {
			for k := 0; k < 3; k++ {
				if math.IsNaN(float64(ps[i].X[k])) ||
					math.IsInf(float64(ps[i].X[k]), 0) {
					t.Fatalf(
						"Step %d: body %d has position %v.", step, i, ps[i].X,
					)
				}
			}
		}
	}

	if sim.RootWidth() < 2 {
		t.Errorf("Root width is %g, expected at least 2.", sim.RootWidth())
	}
	if sim.SimParams() != testParams {
		t.Errorf("SimParams returned %+v.", sim.SimParams())
	}
}

func TestTreeSimPingPong(t *testing.T) {
	_, sim := newTestTreeSim(t, testParams)

	first := sim.DestParticles()
	if err := sim.Step(); err != nil {
		t.Fatalf("Step failed: %s", err.Error())
	}
	second := sim.DestParticles()
	if first == second {
		t.Errorf("Destination buffer did not flip after a step.")
	}

	if err := sim.Step(); err != nil {
		t.Fatalf("Step failed: %s", err.Error())
	}
	if sim.DestParticles() != first {
		t.Errorf("Destination buffer did not flip back.")
	}
}

func TestTreeSimZeroBodies(t *testing.T) {
	params := gravitree.SimParams{ParticleNum: 0, G: 1, E: 1e-4, DT: 0.016}
	_, sim := newTestTreeSim(t, params)

	for step := 0; step < 2; step++ {
		if err := sim.Step(); err != nil {
			t.Fatalf("Step over zero bodies failed: %s", err.Error())
		}
	}
}

// failingMemory refuses the failAt-th map call and otherwise behaves like
// host memory. failAt = 0 never fails.
type failingMemory struct {
	*accel.Host
	failAt int
	calls  int
}

var errMapRefused = errors.New("device refused the mapping")

func (m *failingMemory) MapForRead(b *accel.Buffer) ([]byte, error) {
	m.calls++
	if m.calls == m.failAt {
		return nil, errMapRefused
	}
	return m.Host.MapForRead(b)
}

func (m *failingMemory) MapForWrite(b *accel.Buffer) ([]byte, error) {
	m.calls++
	if m.calls == m.failAt {
		return nil, errMapRefused
	}
	return m.Host.MapForWrite(b)
}

func TestTreeSimStepMapFailureRecovery(t *testing.T) {
	// A step maps six buffers. Whichever map fails, the buffers mapped
	// before it must be released so a retried step sees the fault gone,
	// not a leftover mapping.
	for failOff := 1; failOff <= 6; failOff++ {
		mem := &failingMemory{Host: accel.NewHost()}
		kern := &accel.TreeKernel{Workers: 4}
		sim, err := gravitree.NewTreeSim(
			mem, kern, testParams, 0.75, inits.Uniform,
		)
		if err != nil {
			t.Fatalf("%d) NewTreeSim failed: %s", failOff, err.Error())
		}
		sim.Workers(4)

		mem.failAt = mem.calls + failOff
		if err := sim.Step(); !errors.Is(err, errMapRefused) {
			t.Fatalf("%d) Expected the injected map error, got %v.",
				failOff, err)
		}

		mem.failAt = 0
		if err := sim.Step(); err != nil {
			t.Errorf("%d) Retry after a failed map returned %s.",
				failOff, err.Error())
		}
	}
}

func TestNaiveSimStepMapFailureRecovery(t *testing.T) {
	params := gravitree.SimParams{ParticleNum: 32, G: 1e-4, E: 1e-4, DT: 0.016}
	for failOff := 1; failOff <= 2; failOff++ {
		mem := &failingMemory{Host: accel.NewHost()}
		sim, err := gravitree.NewNaiveSim(mem, params, inits.Uniform)
		if err != nil {
			t.Fatalf("%d) NewNaiveSim failed: %s", failOff, err.Error())
		}

		mem.failAt = mem.calls + failOff
		if err := sim.Step(); !errors.Is(err, errMapRefused) {
			t.Fatalf("%d) Expected the injected map error, got %v.",
				failOff, err)
		}

		mem.failAt = 0
		if err := sim.Step(); err != nil {
			t.Errorf("%d) Retry after a failed map returned %s.",
				failOff, err.Error())
		}
	}
}

func TestTreeSimMassConservation(t *testing.T) {
	mem, sim := newTestTreeSim(t, testParams)
	if err := sim.Step(); err != nil {
		t.Fatalf("Step failed: %s", err.Error())
	}

	ps := make([]geom.Particle, testParams.ParticleNum)
	if err := gravitree.ReadParticles(mem, sim, ps); err != nil {
		t.Fatalf("ReadParticles failed: %s", err.Error())
	}

	mass := float32(0)
	for i := range ps {
		mass += ps[i].Mass
	}
	if mass != float32(testParams.ParticleNum) {
		t.Errorf("Total mass is %g after a step, expected %d.",
			mass, testParams.ParticleNum)
	}
}

func TestNaiveSimStep(t *testing.T) {
	mem := accel.NewHost()
	params := gravitree.SimParams{ParticleNum: 64, G: 1e-4, E: 1e-4, DT: 0.016}
	sim, err := gravitree.NewNaiveSim(mem, params, inits.Disc)
	if err != nil {
		t.Fatalf("NewNaiveSim failed: %s", err.Error())
	}

	for step := 0; step < 3; step++ {
		if err := sim.Step(); err != nil {
			t.Fatalf("Step %d failed: %s", step, err.Error())
		}
	}

	ps := make([]geom.Particle, params.ParticleNum)
	if err := gravitree.ReadParticles(mem, sim, ps); err != nil {
		t.Fatalf("ReadParticles failed: %s", err.Error())
	}
	if gravitree.KineticEnergy(ps) <= 0 {
		t.Errorf("Disc run has no kinetic energy after 3 steps.")
	}
}

func benchmarkTreeSim(b *testing.B, n int) {
	mem := accel.NewHost()
	kern := &accel.TreeKernel{Workers: 8}
	params := gravitree.SimParams{ParticleNum: n, G: 1e-6, E: 1e-4, DT: 0.016}
	sim, err := gravitree.NewTreeSim(mem, kern, params, 0.75, inits.Uniform)
	if err != nil {
		b.Fatalf("NewTreeSim failed: %s", err.Error())
	}
	sim.Workers(8)

	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		if err := sim.Step(); err != nil {
			b.Fatalf("Step failed: %s", err.Error())
		}
	}
}

func BenchmarkTreeSim8k(b *testing.B)  { benchmarkTreeSim(b, 1<<13) }
func BenchmarkTreeSim32k(b *testing.B) { benchmarkTreeSim(b, 1<<15) }

func BenchmarkNaiveSim2k(b *testing.B) {
	mem := accel.NewHost()
	params := gravitree.SimParams{
		ParticleNum: 1 << 11, G: 1e-6, E: 1e-4, DT: 0.016,
	}
	sim, err := gravitree.NewNaiveSim(mem, params, inits.Uniform)
	if err != nil {
		b.Fatalf("NewNaiveSim failed: %s", err.Error())
	}

	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		if err := sim.Step(); err != nil {
			b.Fatalf("Step failed: %s", err.Error())
		}
	}
}
