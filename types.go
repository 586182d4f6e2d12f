package gravitree

import (
	"github.com/gravitree/gravitree/geom"
)

// SimParams is the read-only parameter block of a simulation run.
type SimParams struct {
	ParticleNum int
	G, E, DT    float32
}

// InitFunc produces the initial particle distribution for a run. Any
// distribution is acceptable as long as it returns exactly ParticleNum
// particles.
type InitFunc func(SimParams) []geom.Particle

// DefaultTheta is the Barnes-Hut opening angle used when a run does not
// set its own.
const DefaultTheta = 0.75

// KineticEnergy returns the total kinetic energy of a particle set. The sum
// is carried in float64 since it is a diagnostic accumulated over every
// body.
func KineticEnergy(ps []geom.Particle) float64 {
	e := 0.0
	for i := range ps {
		v2 := 0.0
		for k := 0; k < 3; k++ {
			v2 += float64(ps[i].V[k]) * float64(ps[i].V[k])
		}
		e += 0.5 * float64(ps[i].Mass) * v2
	}
	return e
}
