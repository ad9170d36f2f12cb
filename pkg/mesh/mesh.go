// Package mesh defines the immutable triangle-mesh snapshot that the
// symmetry-fitting pipeline operates on. A Mesh is constructed once from
// host-supplied vertex and face data, validated up front, and never
// mutated afterwards, so it can be shared freely between concurrent
// optimization runs.
package mesh

import (
	"errors"
	"fmt"

	"gonum.org/v1/gonum/spatial/r3"
)

var (
	// ErrNoVertices is returned for meshes with an empty vertex set.
	ErrNoVertices = errors.New("mesh has no vertices")
	// ErrNoFaces is returned for meshes with an empty face set.
	ErrNoFaces = errors.New("mesh has no faces")
)

// Mesh is an immutable triangle mesh: an ordered vertex sequence plus a
// set of triangular faces indexing into it. Construct with New or
// FromFlat; the constructors copy their inputs.
type Mesh struct {
	verts []r3.Vec
	faces [][3]int
}

// New builds a Mesh from vertex positions and triangular faces.
// It fails if the mesh has no vertices, no faces, or a face index
// outside the vertex sequence.
func New(vertices []r3.Vec, faces [][3]int) (*Mesh, error) {
	if len(vertices) == 0 {
		return nil, ErrNoVertices
	}
	if len(faces) == 0 {
		return nil, ErrNoFaces
	}
	for i, f := range faces {
		for _, idx := range f {
			if idx < 0 || idx >= len(vertices) {
				return nil, fmt.Errorf("face %d references vertex %d, mesh has %d vertices", i, idx, len(vertices))
			}
		}
	}
	m := &Mesh{
		verts: make([]r3.Vec, len(vertices)),
		faces: make([][3]int, len(faces)),
	}
	copy(m.verts, vertices)
	copy(m.faces, faces)
	return m, nil
}

// FromFlat builds a Mesh from the flat-array form hosts typically hold:
// three floats per vertex and three indices per triangle.
func FromFlat(vertices []float32, indices []uint32) (*Mesh, error) {
	if len(vertices)%3 != 0 {
		return nil, fmt.Errorf("vertex array length %d is not a multiple of 3", len(vertices))
	}
	if len(indices)%3 != 0 {
		return nil, fmt.Errorf("index array length %d is not a multiple of 3", len(indices))
	}
	verts := make([]r3.Vec, len(vertices)/3)
	for i := range verts {
		verts[i] = r3.Vec{
			X: float64(vertices[i*3]),
			Y: float64(vertices[i*3+1]),
			Z: float64(vertices[i*3+2]),
		}
	}
	faces := make([][3]int, len(indices)/3)
	for i := range faces {
		faces[i] = [3]int{
			int(indices[i*3]),
			int(indices[i*3+1]),
			int(indices[i*3+2]),
		}
	}
	return New(verts, faces)
}

// VertexCount returns the number of vertices.
func (m *Mesh) VertexCount() int { return len(m.verts) }

// FaceCount returns the number of triangular faces.
func (m *Mesh) FaceCount() int { return len(m.faces) }

// Vertex returns the position of vertex i.
func (m *Mesh) Vertex(i int) r3.Vec { return m.verts[i] }

// Face returns the vertex indices of face i.
func (m *Mesh) Face(i int) [3]int { return m.faces[i] }

// Triangle returns the three corner positions of face i.
func (m *Mesh) Triangle(i int) [3]r3.Vec {
	f := m.faces[i]
	return [3]r3.Vec{m.verts[f[0]], m.verts[f[1]], m.verts[f[2]]}
}

// Vertices returns a copy of the vertex sequence.
func (m *Mesh) Vertices() []r3.Vec {
	out := make([]r3.Vec, len(m.verts))
	copy(out, m.verts)
	return out
}

// Centroid returns the mean of the vertex positions.
func (m *Mesh) Centroid() r3.Vec {
	var sum r3.Vec
	for _, v := range m.verts {
		sum = r3.Add(sum, v)
	}
	return r3.Scale(1/float64(len(m.verts)), sum)
}

// Bounds returns the axis-aligned bounding box of the vertex set as
// its minimum and maximum corners.
func (m *Mesh) Bounds() (r3.Vec, r3.Vec) {
	lo := m.verts[0]
	hi := m.verts[0]
	for _, v := range m.verts[1:] {
		lo = r3.Vec{X: min(lo.X, v.X), Y: min(lo.Y, v.Y), Z: min(lo.Z, v.Z)}
		hi = r3.Vec{X: max(hi.X, v.X), Y: max(hi.Y, v.Y), Z: max(hi.Z, v.Z)}
	}
	return lo, hi
}

// MaxDimension returns the largest extent of the bounding box. It is
// used to relate translational and rotational step sizes during the
// plane search.
func (m *Mesh) MaxDimension() float64 {
	lo, hi := m.Bounds()
	d := r3.Sub(hi, lo)
	return max(d.X, d.Y, d.Z)
}
