// package inits provides initial particle distributions.
package inits

import (
	"math"
	"math/rand"

	"github.com/gravitree/gravitree"
	"github.com/gravitree/gravitree/geom"
)

// Uniform scatters bodies uniformly through the cube [-1, 1]^3 with small
// random velocities.
func Uniform(p gravitree.SimParams) []geom.Particle {
	ps := make([]geom.Particle, p.ParticleNum)
	for i := range ps {
		for k := 0; k < 3; k++ {
			ps[i].X[k] = unit()
			ps[i].V[k] = unit() * 0.001
		}
		ps[i].Mass = 1
	}
	return ps
}

// Disc scatters bodies through the unit disc in the z = 0 plane, each with
// a tangential velocity around +z falling off with radius, which settles
// into a rotating disc under gravity.
func Disc(p gravitree.SimParams) []geom.Particle {
	const coeff = 0.05
	ps := make([]geom.Particle, p.ParticleNum)
	for i := range ps {
		x, y := unit(), unit()
		for x*x+y*y > 1 {
			x, y = unit(), unit()
		}
		r := float32(math.Sqrt(float64(x*x + y*y)))

		// v = coeff / (sqrt(r) + eps) * (pos x z-hat), normalized.
		s := coeff / (float32(math.Sqrt(float64(r))) + 0.001)
		ps[i].X = geom.Vec{x, y, 0}
		if r > 0 {
			ps[i].V = geom.Vec{y / r * s, -x / r * s, 0}
		}
		ps[i].Mass = 1
	}
	return ps
}

func unit() float32 {
	return rand.Float32()*2 - 1
}
