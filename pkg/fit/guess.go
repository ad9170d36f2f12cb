package fit

import (
	"github.com/AJMansfield/mirrorfit/pkg/mesh"
	"github.com/AJMansfield/mirrorfit/pkg/plane"
	"gonum.org/v1/gonum/mat"
	"gonum.org/v1/gonum/spatial/r3"
)

// InitialGuesses returns up to n starting parameter vectors for the
// plane search, one per principal axis of the mesh's vertex set,
// ordered by ascending variance. Each guessed plane passes through the
// centroid with its normal along a principal axis; the least-variance
// axis comes first because flat-ish meshes are most often symmetric
// across their thin direction. n is clamped to 1..3.
//
// If the eigendecomposition fails (it cannot for a finite covariance
// matrix, but the guess must never be degenerate), the coordinate axes
// are used instead.
func InitialGuesses(m *mesh.Mesh, n int) []plane.Params {
	if n <= 0 {
		n = DefaultInitialGuesses
	}
	if n > 3 {
		n = 3
	}

	centroid := m.Centroid()
	axes := principalAxes(m, centroid)

	out := make([]plane.Params, n)
	for i := range out {
		a := axes[i]
		out[i] = plane.Params{a.X, a.Y, a.Z, r3.Dot(a, centroid)}
	}
	return out
}

// principalAxes returns the eigenvectors of the vertex covariance
// matrix in ascending eigenvalue order, falling back to the coordinate
// axes when the decomposition is unusable.
func principalAxes(m *mesh.Mesh, centroid r3.Vec) [3]r3.Vec {
	fallback := [3]r3.Vec{{X: 1}, {Y: 1}, {Z: 1}}

	var cov [9]float64 // 3x3 row-major
	for i := 0; i < m.VertexCount(); i++ {
		d := r3.Sub(m.Vertex(i), centroid)
		cov[0] += d.X * d.X
		cov[1] += d.X * d.Y
		cov[2] += d.X * d.Z
		cov[4] += d.Y * d.Y
		cov[5] += d.Y * d.Z
		cov[8] += d.Z * d.Z
	}
	cov[3] = cov[1]
	cov[6] = cov[2]
	cov[7] = cov[5]
	inv := 1 / float64(m.VertexCount())
	for i := range cov {
		cov[i] *= inv
	}

	var eigen mat.EigenSym
	if ok := eigen.Factorize(mat.NewSymDense(3, cov[:]), true); !ok {
		return fallback
	}
	var vecs mat.Dense
	eigen.VectorsTo(&vecs)

	var axes [3]r3.Vec
	for i := range axes {
		// Eigenvalues are ascending, so column i of the eigenvector
		// matrix is the i-th least-variance direction.
		a := r3.Vec{X: vecs.At(0, i), Y: vecs.At(1, i), Z: vecs.At(2, i)}
		if r3.Norm2(a) < 0.5 {
			// Eigenvectors are unit length; anything shorter means the
			// decomposition produced garbage for this column.
			a = fallback[i]
		}
		axes[i] = a
	}
	return axes
}
