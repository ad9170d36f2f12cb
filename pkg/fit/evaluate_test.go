package fit

import (
	"math"
	"testing"

	"github.com/AJMansfield/mirrorfit/pkg/mesh"
	"github.com/AJMansfield/mirrorfit/pkg/plane"
	"github.com/AJMansfield/mirrorfit/pkg/spatial"
	"gonum.org/v1/gonum/spatial/r3"
)

func mustPlane(t *testing.T, n r3.Vec, off float64) plane.Plane {
	t.Helper()
	p, err := plane.New(n, off)
	if err != nil {
		t.Fatalf("plane.New(%v, %v) error = %v", n, off, err)
	}
	return p
}

func mustTree(t *testing.T, m *mesh.Mesh) *spatial.Tree {
	t.Helper()
	idx, err := spatial.NewTree(m)
	if err != nil {
		t.Fatalf("spatial.NewTree() error = %v", err)
	}
	return idx
}

func TestEvaluateSymmetricPlaneIsZero(t *testing.T) {
	m := mesh.Box(2, 3, 4)
	ev := NewEvaluator(m, mustTree(t, m))

	// A box is exactly symmetric about each coordinate plane; every
	// reflected vertex lands back on the surface, including the
	// self-matches of vertices on the plane itself.
	for _, n := range []r3.Vec{{X: 1}, {Y: 1}, {Z: 1}} {
		if got := ev.Evaluate(mustPlane(t, n, 0)); got > 1e-12 {
			t.Errorf("Evaluate(normal %v) = %v, want ~0", n, got)
		}
	}
}

func TestEvaluateAsymmetricPlaneIsPositive(t *testing.T) {
	m := mesh.Box(2, 2, 2)
	ev := NewEvaluator(m, mustTree(t, m))

	// Offset plane x = 0.5 is not a symmetry plane of the box.
	got := ev.Evaluate(mustPlane(t, r3.Vec{X: 1}, 0.5))
	if got <= 0 || math.IsNaN(got) || math.IsInf(got, 0) {
		t.Errorf("Evaluate(x=0.5) = %v, want positive finite", got)
	}
}

func TestEvaluateVertexOrderInvariance(t *testing.T) {
	m := mesh.Box(1, 2, 3)

	// Same geometry with the vertex sequence reversed.
	n := m.VertexCount()
	verts := make([]r3.Vec, n)
	for i := range verts {
		verts[i] = m.Vertex(n - 1 - i)
	}
	faces := make([][3]int, m.FaceCount())
	for i := range faces {
		f := m.Face(i)
		faces[i] = [3]int{n - 1 - f[0], n - 1 - f[1], n - 1 - f[2]}
	}
	rev, err := mesh.New(verts, faces)
	if err != nil {
		t.Fatalf("mesh.New() error = %v", err)
	}

	pl := mustPlane(t, r3.Vec{X: 2, Y: -1, Z: 0.5}, 0.3)
	a := NewEvaluator(m, mustTree(t, m)).Evaluate(pl)
	b := NewEvaluator(rev, mustTree(t, rev)).Evaluate(pl)
	if math.Abs(a-b) > 1e-9*(1+a) {
		t.Errorf("Evaluate() = %v on original, %v on reordered mesh", a, b)
	}
}

func TestEvaluateMaxDistanceCap(t *testing.T) {
	m := mesh.Box(2, 2, 2)
	ev := NewEvaluator(m, mustTree(t, m))
	pl := mustPlane(t, r3.Vec{X: 1}, 10) // reflections land far away

	uncapped := ev.Evaluate(pl)
	ev.MaxDistance = 1
	capped := ev.Evaluate(pl)

	if capped >= uncapped {
		t.Errorf("capped error %v not below uncapped %v", capped, uncapped)
	}
	// Each of the 8 vertices contributes at most MaxDistance².
	if capped > 8+1e-12 {
		t.Errorf("capped error %v exceeds vertex count times cap", capped)
	}
}

func TestSampledEvaluator(t *testing.T) {
	m := mesh.Box(2, 2, 2)
	idx := mustTree(t, m)
	pl := mustPlane(t, r3.Vec{X: 1, Y: 1}, 0.2)

	t.Run("deterministic for same seed", func(t *testing.T) {
		a := NewSampledEvaluator(m, idx, 4, 7).Evaluate(pl)
		b := NewSampledEvaluator(m, idx, 4, 7).Evaluate(pl)
		if a != b {
			t.Errorf("same seed gave %v and %v", a, b)
		}
	})

	t.Run("count beyond vertex set means all vertices", func(t *testing.T) {
		a := NewSampledEvaluator(m, idx, 100, 7).Evaluate(pl)
		b := NewEvaluator(m, idx).Evaluate(pl)
		if math.Abs(a-b) > 1e-12 {
			t.Errorf("oversized sample %v differs from full evaluation %v", a, b)
		}
	})
}
