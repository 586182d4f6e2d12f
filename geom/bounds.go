package geom

// Bound returns the smallest b such that every particle position lies within
// [-b, b]^3, or 1 if the slice is empty or contains only the origin. The
// reduction is split into one chunk per worker since bodies move every step
// and the bound has to be recomputed from scratch.
func Bound(ps []Particle, workers int) float32 {
	if workers < 1 {
		workers = 1
	}
	if len(ps) < workers*workers {
		// Not worth the goroutines.
		return boundChunk(ps)
	}

	out := make(chan float32, workers)
	chunkLen := len(ps) / workers

	for id := 0; id < workers-1; id++ {
		chunk := ps[id*chunkLen : (id+1)*chunkLen]
		go func() { out <- boundChunk(chunk) }()
	}
	b := boundChunk(ps[(workers-1)*chunkLen:])

	for i := 0; i < workers-1; i++ {
		cb := <-out
		if cb > b {
			b = cb
		}
	}
	return b
}

func boundChunk(ps []Particle) float32 {
	b := float32(1.0)
	for i := range ps {
		for k := 0; k < 3; k++ {
			x := ps[i].X[k]
			if x < 0 {
				x = -x
			}
			if x > b {
				b = x
			}
		}
	}
	return b
}
