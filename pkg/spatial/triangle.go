package spatial

import (
	"math"

	"gonum.org/v1/gonum/spatial/r3"
)

// ClosestOnTriangle returns the point of triangle (a, b, c) closest to
// p. The query point is classified against the triangle's Voronoi
// regions via barycentric coordinates: the result is the interior
// projection when that projection falls inside the triangle, and the
// clamp onto the nearest edge or vertex otherwise. Zero-area triangles
// fall back to the nearest point on the three edges.
//
// The computation is exact up to floating-point rounding; the error
// evaluator's accuracy depends on it taking no shortcuts.
func ClosestOnTriangle(p, a, b, c r3.Vec) r3.Vec {
	ab := r3.Sub(b, a)
	ac := r3.Sub(c, a)
	ap := r3.Sub(p, a)

	// Vertex region A.
	d1 := r3.Dot(ab, ap)
	d2 := r3.Dot(ac, ap)
	if d1 <= 0 && d2 <= 0 {
		return a
	}

	// Vertex region B.
	bp := r3.Sub(p, b)
	d3 := r3.Dot(ab, bp)
	d4 := r3.Dot(ac, bp)
	if d3 >= 0 && d4 <= d3 {
		return b
	}

	// Edge region AB.
	vc := d1*d4 - d3*d2
	if vc <= 0 && d1 >= 0 && d3 <= 0 && d1 != d3 {
		v := d1 / (d1 - d3)
		return r3.Add(a, r3.Scale(v, ab))
	}

	// Vertex region C.
	cp := r3.Sub(p, c)
	d5 := r3.Dot(ab, cp)
	d6 := r3.Dot(ac, cp)
	if d6 >= 0 && d5 <= d6 {
		return c
	}

	// Edge region AC.
	vb := d5*d2 - d1*d6
	if vb <= 0 && d2 >= 0 && d6 <= 0 && d2 != d6 {
		w := d2 / (d2 - d6)
		return r3.Add(a, r3.Scale(w, ac))
	}

	// Edge region BC.
	va := d3*d6 - d5*d4
	if va <= 0 && d4-d3 >= 0 && d5-d6 >= 0 && (d4-d3)+(d5-d6) != 0 {
		w := (d4 - d3) / ((d4 - d3) + (d5 - d6))
		return r3.Add(b, r3.Scale(w, r3.Sub(c, b)))
	}

	// Interior region.
	denom := va + vb + vc
	if denom <= 0 || math.IsNaN(denom) {
		// Degenerate (collinear or repeated) corners: the face has no
		// interior, so the nearest feature is on an edge.
		return closestOnEdges(p, a, b, c)
	}
	v := vb / denom
	w := vc / denom
	return r3.Add(a, r3.Add(r3.Scale(v, ab), r3.Scale(w, ac)))
}

// closestOnEdges returns the closest point to p among the three edges
// of (a, b, c).
func closestOnEdges(p, a, b, c r3.Vec) r3.Vec {
	best := closestOnSegment(p, a, b)
	bestD := r3.Norm2(r3.Sub(p, best))
	if q := closestOnSegment(p, b, c); r3.Norm2(r3.Sub(p, q)) < bestD {
		best = q
		bestD = r3.Norm2(r3.Sub(p, q))
	}
	if q := closestOnSegment(p, c, a); r3.Norm2(r3.Sub(p, q)) < bestD {
		best = q
	}
	return best
}

// closestOnSegment returns the closest point to p on segment [a, b].
// A zero-length segment yields a.
func closestOnSegment(p, a, b r3.Vec) r3.Vec {
	ab := r3.Sub(b, a)
	len2 := r3.Norm2(ab)
	if len2 == 0 {
		return a
	}
	t := r3.Dot(r3.Sub(p, a), ab) / len2
	if t <= 0 {
		return a
	}
	if t >= 1 {
		return b
	}
	return r3.Add(a, r3.Scale(t, ab))
}
