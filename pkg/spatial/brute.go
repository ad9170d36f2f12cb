package spatial

import (
	"fmt"

	"github.com/AJMansfield/mirrorfit/pkg/mesh"
	"gonum.org/v1/gonum/spatial/r3"
)

// Brute is the linear-scan Index backend: every query visits every
// triangle. It exists as the semantic reference for Tree and is the
// cheaper choice for meshes of a handful of faces.
type Brute struct {
	tris [][3]r3.Vec
}

// NewBrute builds a linear-scan index over the mesh's triangles.
func NewBrute(m *mesh.Mesh) (*Brute, error) {
	if m == nil || m.FaceCount() == 0 {
		return nil, fmt.Errorf("building index: %w", mesh.ErrNoFaces)
	}
	tris := make([][3]r3.Vec, m.FaceCount())
	for i := range tris {
		tris[i] = m.Triangle(i)
	}
	return &Brute{tris: tris}, nil
}

// Nearest returns the closest point on the mesh surface to q and the
// squared distance to it.
func (b *Brute) Nearest(q r3.Vec) (r3.Vec, float64) {
	best := ClosestOnTriangle(q, b.tris[0][0], b.tris[0][1], b.tris[0][2])
	bestD := r3.Norm2(r3.Sub(q, best))
	for _, t := range b.tris[1:] {
		p := ClosestOnTriangle(q, t[0], t[1], t[2])
		if d := r3.Norm2(r3.Sub(q, p)); d < bestD {
			best = p
			bestD = d
		}
	}
	return best, bestD
}
