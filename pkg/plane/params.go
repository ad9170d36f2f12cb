package plane

import "gonum.org/v1/gonum/spatial/r3"

// Params is the optimizer's decision variable: an unconstrained normal
// direction (components 0..2, magnitude ignored) and the plane offset
// (component 3). Representing the normal as a free 3-vector that is
// normalized on materialization avoids the gimbal singularities of an
// angle encoding; the cost is that the all-zero direction is
// degenerate, which FromParams reports.
type Params [4]float64

// FromParams materializes the mirror plane described by p. It fails
// with ErrDegenerateNormal when the direction part is (numerically)
// zero.
func FromParams(p Params) (Plane, error) {
	return New(r3.Vec{X: p[0], Y: p[1], Z: p[2]}, p[3])
}

// Params inverts FromParams up to normal magnitude: materializing the
// result yields the same plane.
func (p Plane) Params() Params {
	return Params{p.normal.X, p.normal.Y, p.normal.Z, p.offset}
}
