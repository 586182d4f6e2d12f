package geom

import (
	"testing"
)

func TestOctant(t *testing.T) {
	center := Vec{0, 0, 0}
	table := []struct {
		point Vec
		oct   int
	}{
		{Vec{-1, -1, -1}, 0},
		{Vec{1, -1, -1}, 1},
		{Vec{-1, 1, -1}, 2},
		{Vec{1, 1, -1}, 3},
		{Vec{-1, -1, 1}, 4},
		{Vec{1, -1, 1}, 5},
		{Vec{-1, 1, 1}, 6},
		{Vec{1, 1, 1}, 7},
		// Ties go to the lower half on every axis.
		{Vec{0, 0, 0}, 0},
		{Vec{0, 1, 0}, 2},
		{Vec{1, 0, 0}, 1},
	}

	for i, test := range table {
		oct := Octant(&center, &test.point)
		if oct != test.oct {
			t.Errorf(
				"%d) Expected octant of %v to be %d, got %d.",
				i, test.point, test.oct, oct,
			)
		}
	}
}

func TestOctantOffCenter(t *testing.T) {
	center := Vec{2, -2, 2}
	table := []struct {
		point Vec
		oct   int
	}{
		{Vec{3, -1, 3}, 7},
		{Vec{1, -3, 1}, 0},
		{Vec{2, -2, 2}, 0},
		{Vec{3, -2, 2}, 1},
	}

	for i, test := range table {
		oct := Octant(&center, &test.point)
		if oct != test.oct {
			t.Errorf(
				"%d) Expected octant of %v to be %d, got %d.",
				i, test.point, test.oct, oct,
			)
		}
	}
}

func TestOctantShift(t *testing.T) {
	center := Vec{0, 0, 0}
	table := []struct {
		oct    int
		center Vec
	}{
		{0, Vec{-1, -1, -1}},
		{1, Vec{1, -1, -1}},
		{7, Vec{1, 1, 1}},
		{5, Vec{1, -1, 1}},
	}

	for i, test := range table {
		c, w := OctantShift(center, 4, test.oct)
		if w != 2 {
			t.Errorf("%d) Expected child width 2, got %g.", i, w)
		}
		if c != test.center {
			t.Errorf(
				"%d) Expected child center %v, got %v.", i, test.center, c,
			)
		}
	}
}

func TestOctantShiftRoundTrip(t *testing.T) {
	// A child cell's center must stay inside its parent's octant.
	center, width := Vec{0.5, -0.25, 0}, float32(8)
	for oct := 0; oct < 8; oct++ {
		c, _ := OctantShift(center, width, oct)
		if got := Octant(&center, &c); got != oct {
			t.Errorf(
				"Center of octant %d classifies as octant %d.", oct, got,
			)
		}
	}
}

func TestBound(t *testing.T) {
	table := []struct {
		xs    []Vec
		bound float32
	}{
		{[]Vec{}, 1},
		{[]Vec{{0, 0, 0}}, 1},
		{[]Vec{{0.5, 0.5, 0.5}}, 1},
		{[]Vec{{2, 0, 0}}, 2},
		{[]Vec{{0, -3, 0}, {1, 0, 0}}, 3},
		{[]Vec{{0, 0, 1.5}, {-2.5, 0, 0}, {0, 2, 0}}, 2.5},
	}

	for i, test := range table {
		ps := make([]Particle, len(test.xs))
		for j := range ps {
			ps[j].X = test.xs[j]
		}
		for _, workers := range []int{1, 2, 8} {
			b := Bound(ps, workers)
			if b != test.bound {
				t.Errorf(
					"%d) Expected bound %g with %d workers, got %g.",
					i, test.bound, workers, b,
				)
			}
		}
	}
}

func TestBoundLarge(t *testing.T) {
	ps := make([]Particle, 1<<12)
	for i := range ps {
		ps[i].X = Vec{float32(i) / 4096, 0, 0}
	}
	ps[1<<11].X = Vec{0, 0, -7}

	if b := Bound(ps, 8); b != 7 {
		t.Errorf("Expected bound 7, got %g.", b)
	}
}
