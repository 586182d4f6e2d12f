/*package geom contains the vector and octant routines shared by the tree
builder and the force kernels.

Octant codes follow the usual 3-bit convention: bit 0 is set for +x, bit 1
for +y, bit 2 for +z relative to a cell center.

    Front: -z   Back: +z
    |---|---|   |---|---|
    | 2 | 3 |   | 6 | 7 |
    |---|---|   |---|---|
    | 0 | 1 |   | 4 | 5 |
    |---|---|   |---|---|
*/
package geom

// Vec is a three dimensional vector. (Duh!)
type Vec [3]float32

// Particle is the phase-space record of a single body. Positions and
// velocities are simulation units; Mass is arbitrary but must be positive
// for the body to contribute to a cell's center of gravity.
type Particle struct {
	X, V, A Vec
	Mass    float32
}

// Octant returns the octant code of point relative to center. The test is
// strictly-greater on every axis, so a point lying exactly on a center
// plane is assigned to the lower half of that axis.
func Octant(center, point *Vec) int {
	oct := 0
	if point[0] > center[0] {
		oct |= 1
	}
	if point[1] > center[1] {
		oct |= 2
	}
	if point[2] > center[2] {
		oct |= 4
	}
	return oct
}

// OctantShift returns the center and width of the child cell with the given
// octant code inside a cell described by center and width. The child is half
// as wide and its center is offset by a quarter width along each axis.
func OctantShift(center Vec, width float32, oct int) (Vec, float32) {
	width /= 2
	for k := 0; k < 3; k++ {
		if oct&(1<<uint(k)) != 0 {
			center[k] += width / 2
		} else {
			center[k] -= width / 2
		}
	}
	return center, width
}
