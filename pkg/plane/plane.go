// Package plane defines the mirror transform: a reflection across a
// plane given by a unit normal n and signed offset d, the locus
// n·x = d. It also provides the low-dimensional parameterization the
// optimizer searches over.
package plane

import (
	"errors"
	"fmt"
	"math"

	"gonum.org/v1/gonum/spatial/r3"
)

// ErrDegenerateNormal is returned when a normal vector collapses to
// zero length (or a non-finite value) and no plane can be formed.
var ErrDegenerateNormal = errors.New("degenerate plane normal")

// minNormalLength is the squared length below which a normal is
// considered degenerate rather than normalizable.
const minNormalLength2 = 1e-24

// Plane is a mirror plane in Hesse normal form. The normal is always
// unit length; construct with New or FromParams. The zero Plane is not
// valid.
type Plane struct {
	normal r3.Vec
	offset float64
}

// New returns the plane with the given normal direction and signed
// offset from the origin. The normal's magnitude is ignored; it is
// normalized internally. Zero or non-finite normals are rejected.
func New(normal r3.Vec, offset float64) (Plane, error) {
	n2 := r3.Norm2(normal)
	if !isFinite(n2) || n2 < minNormalLength2 {
		return Plane{}, fmt.Errorf("normal %v: %w", normal, ErrDegenerateNormal)
	}
	if !isFinite(offset) {
		return Plane{}, fmt.Errorf("offset %v is not finite", offset)
	}
	return Plane{normal: r3.Scale(1/math.Sqrt(n2), normal), offset: offset}, nil
}

// Normal returns the unit plane normal.
func (p Plane) Normal() r3.Vec { return p.normal }

// Offset returns the signed distance of the plane from the origin
// along the normal.
func (p Plane) Offset() float64 { return p.offset }

// SignedDistance returns the signed distance from point v to the
// plane, positive on the side the normal points to.
func (p Plane) SignedDistance(v r3.Vec) float64 {
	return r3.Dot(p.normal, v) - p.offset
}

// Reflect maps v to its mirror image across the plane. Points on the
// plane are fixed.
func (p Plane) Reflect(v r3.Vec) r3.Vec {
	return r3.Sub(v, r3.Scale(2*p.SignedDistance(v), p.normal))
}

// Canonical returns the plane with its normal sign fixed so that the
// first nonzero normal component is positive. A plane and its flipped
// twin describe the same reflection; canonical form makes them compare
// equal and gives the lexicographic order used to break ties between
// equally good planes.
func (p Plane) Canonical() Plane {
	n := p.normal
	flip := false
	switch {
	case n.X != 0:
		flip = n.X < 0
	case n.Y != 0:
		flip = n.Y < 0
	default:
		flip = n.Z < 0
	}
	if !flip {
		return p
	}
	return Plane{normal: r3.Scale(-1, n), offset: -p.offset}
}

// Less reports whether p orders before q under the tie-break rule:
// lexicographic comparison of the canonical normal components, then of
// the canonical offsets.
func (p Plane) Less(q Plane) bool {
	a, b := p.Canonical(), q.Canonical()
	if a.normal.X != b.normal.X {
		return a.normal.X < b.normal.X
	}
	if a.normal.Y != b.normal.Y {
		return a.normal.Y < b.normal.Y
	}
	if a.normal.Z != b.normal.Z {
		return a.normal.Z < b.normal.Z
	}
	return a.offset < b.offset
}

func isFinite(f float64) bool {
	return !math.IsNaN(f) && !math.IsInf(f, 0)
}
