package fit

import (
	"math"
	"math/rand"

	"github.com/AJMansfield/mirrorfit/pkg/mesh"
	"github.com/AJMansfield/mirrorfit/pkg/plane"
	"github.com/AJMansfield/mirrorfit/pkg/spatial"
	"gonum.org/v1/gonum/spatial/r3"
)

// Evaluator computes the symmetry error of a candidate mirror plane:
// the sum over the vertex set of the squared distance between each
// vertex's reflection and the nearest point on the mesh surface. It
// snapshots the vertex set at construction and holds only read-only
// state, so a single Evaluator may be shared by concurrent
// optimization runs.
type Evaluator struct {
	verts []r3.Vec
	index spatial.Index

	// MaxDistance, when positive, caps each vertex's contribution at
	// MaxDistance², keeping the objective bounded (and monotone in
	// distance) when parts of the mesh have no mirror counterpart.
	MaxDistance float64
}

// NewEvaluator returns an Evaluator over all vertices of m.
func NewEvaluator(m *mesh.Mesh, idx spatial.Index) *Evaluator {
	return &Evaluator{verts: m.Vertices(), index: idx}
}

// NewSampledEvaluator returns an Evaluator over a reproducible random
// subset of count vertices. A count of zero or one exceeding the
// vertex count degrades to the full vertex set.
func NewSampledEvaluator(m *mesh.Mesh, idx spatial.Index, count int, seed int64) *Evaluator {
	if count <= 0 || count >= m.VertexCount() {
		return NewEvaluator(m, idx)
	}
	rng := rand.New(rand.NewSource(seed))
	perm := rng.Perm(m.VertexCount())
	verts := make([]r3.Vec, count)
	for i := range verts {
		verts[i] = m.Vertex(perm[i])
	}
	return &Evaluator{verts: verts, index: idx}
}

// Evaluate returns the symmetry error of pl. The result is
// deterministic for identical inputs, independent of vertex order, and
// never NaN or Inf: non-finite per-vertex distances (which only
// degenerate geometry could produce) are discarded before they reach
// the accumulator.
func (e *Evaluator) Evaluate(pl plane.Plane) float64 {
	cap2 := math.Inf(1)
	if e.MaxDistance > 0 {
		cap2 = e.MaxDistance * e.MaxDistance
	}
	var sum float64
	for _, v := range e.verts {
		_, d2 := e.index.Nearest(pl.Reflect(v))
		if math.IsNaN(d2) || math.IsInf(d2, 0) {
			continue
		}
		if d2 > cap2 {
			d2 = cap2
		}
		sum += d2
	}
	return sum
}
