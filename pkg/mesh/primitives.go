package mesh

import "gonum.org/v1/gonum/spatial/r3"

// Box returns an axis-aligned box mesh centered at the origin with the
// given edge lengths, as 8 vertices and 12 triangles. It is exact (no
// tessellation error), which makes it the reference fixture for
// symmetry tests: a box is perfectly mirror symmetric about each
// coordinate plane.
func Box(x, y, z float64) *Mesh {
	hx, hy, hz := x/2, y/2, z/2
	verts := []r3.Vec{
		{X: -hx, Y: -hy, Z: -hz},
		{X: hx, Y: -hy, Z: -hz},
		{X: hx, Y: hy, Z: -hz},
		{X: -hx, Y: hy, Z: -hz},
		{X: -hx, Y: -hy, Z: hz},
		{X: hx, Y: -hy, Z: hz},
		{X: hx, Y: hy, Z: hz},
		{X: -hx, Y: hy, Z: hz},
	}
	faces := [][3]int{
		{0, 2, 1}, {0, 3, 2}, // bottom
		{4, 5, 6}, {4, 6, 7}, // top
		{0, 1, 5}, {0, 5, 4}, // front
		{2, 3, 7}, {2, 7, 6}, // back
		{1, 2, 6}, {1, 6, 5}, // right
		{3, 0, 4}, {3, 4, 7}, // left
	}
	m, err := New(verts, faces)
	if err != nil {
		// Unreachable for fixed valid inputs.
		panic(err)
	}
	return m
}

// Tetrahedron returns the mesh spanned by four corner points.
func Tetrahedron(a, b, c, d r3.Vec) *Mesh {
	verts := []r3.Vec{a, b, c, d}
	faces := [][3]int{
		{0, 1, 2},
		{0, 3, 1},
		{1, 3, 2},
		{2, 3, 0},
	}
	m, err := New(verts, faces)
	if err != nil {
		panic(err)
	}
	return m
}
