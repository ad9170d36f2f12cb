package spatial

import (
	"fmt"
	"sort"

	"github.com/AJMansfield/mirrorfit/pkg/mesh"
	"gonum.org/v1/gonum/spatial/kdtree"
	"gonum.org/v1/gonum/spatial/r3"
)

// leafSize is the number of triangles below which a subtree is stored
// as a leaf and scanned directly.
const leafSize = 4

// Tree is the hierarchical Index backend: an axis-aligned bounding-box
// tree over the mesh's triangles, built by median split on triangle
// centroids along the longest box axis. Queries run branch-and-bound:
// a subtree is pruned when its box cannot beat the best squared
// distance found so far.
//
// The search bound is seeded with the nearest mesh vertex, found in a
// kd-tree over the vertex set. A vertex lies on the surface, so its
// distance is always a valid upper bound for the surface distance;
// starting from it prunes most of the tree on typical queries.
type Tree struct {
	tris  [][3]r3.Vec
	nodes []treeNode
	verts *kdtree.Tree
}

// treeNode is one node of the bounding-box tree. Leaves hold a range
// of t.tris and have left == -1.
type treeNode struct {
	lo, hi      r3.Vec
	left, right int
	start, end  int
}

// NewTree builds the bounding-box tree for the mesh's triangles in
// O(F log F) time for F faces.
func NewTree(m *mesh.Mesh) (*Tree, error) {
	if m == nil || m.FaceCount() == 0 {
		return nil, fmt.Errorf("building index: %w", mesh.ErrNoFaces)
	}

	t := &Tree{tris: make([][3]r3.Vec, m.FaceCount())}
	for i := range t.tris {
		t.tris[i] = m.Triangle(i)
	}

	points := make(vertexPoints, m.VertexCount())
	for i := range points {
		points[i] = vertexPoint(m.Vertex(i))
	}
	t.verts = kdtree.New(points, false)

	t.build(0, len(t.tris))
	return t, nil
}

// build constructs the subtree over t.tris[start:end], reordering that
// range in place, and returns its node index.
func (t *Tree) build(start, end int) int {
	n := treeNode{left: -1, right: -1, start: start, end: end}
	n.lo, n.hi = t.bounds(start, end)

	idx := len(t.nodes)
	t.nodes = append(t.nodes, n)
	if end-start <= leafSize {
		return idx
	}

	axis := longestAxis(n.lo, n.hi)
	sub := t.tris[start:end]
	sort.Slice(sub, func(i, j int) bool {
		return centroidAxis(sub[i], axis) < centroidAxis(sub[j], axis)
	})

	mid := start + (end-start)/2
	left := t.build(start, mid)
	right := t.build(mid, end)
	t.nodes[idx].left = left
	t.nodes[idx].right = right
	return idx
}

// bounds returns the AABB of triangles in t.tris[start:end].
func (t *Tree) bounds(start, end int) (r3.Vec, r3.Vec) {
	lo := t.tris[start][0]
	hi := t.tris[start][0]
	for _, tri := range t.tris[start:end] {
		for _, v := range tri {
			lo = r3.Vec{X: min(lo.X, v.X), Y: min(lo.Y, v.Y), Z: min(lo.Z, v.Z)}
			hi = r3.Vec{X: max(hi.X, v.X), Y: max(hi.Y, v.Y), Z: max(hi.Z, v.Z)}
		}
	}
	return lo, hi
}

// Nearest returns the closest point on the mesh surface to q and the
// squared distance to it. Safe for concurrent use.
func (t *Tree) Nearest(q r3.Vec) (r3.Vec, float64) {
	nearVert, bestD := t.verts.Nearest(vertexPoint(q))
	best := r3.Vec(nearVert.(vertexPoint))

	t.search(0, q, &best, &bestD)
	return best, bestD
}

// search descends the subtree at node i, updating best/bestD with any
// closer surface point. Children are visited nearer-first so the
// far side is usually pruned.
func (t *Tree) search(i int, q r3.Vec, best *r3.Vec, bestD *float64) {
	n := &t.nodes[i]
	if boxDist2(q, n.lo, n.hi) >= *bestD {
		return
	}
	if n.left < 0 {
		for _, tri := range t.tris[n.start:n.end] {
			p := ClosestOnTriangle(q, tri[0], tri[1], tri[2])
			if d := r3.Norm2(r3.Sub(q, p)); d < *bestD {
				*best = p
				*bestD = d
			}
		}
		return
	}

	first, second := n.left, n.right
	if boxDist2(q, t.nodes[second].lo, t.nodes[second].hi) < boxDist2(q, t.nodes[first].lo, t.nodes[first].hi) {
		first, second = second, first
	}
	t.search(first, q, best, bestD)
	t.search(second, q, best, bestD)
}

// boxDist2 returns the squared distance from q to the AABB [lo, hi];
// zero when q is inside.
func boxDist2(q, lo, hi r3.Vec) float64 {
	dx := axisDist(q.X, lo.X, hi.X)
	dy := axisDist(q.Y, lo.Y, hi.Y)
	dz := axisDist(q.Z, lo.Z, hi.Z)
	return dx*dx + dy*dy + dz*dz
}

func axisDist(v, lo, hi float64) float64 {
	switch {
	case v < lo:
		return lo - v
	case v > hi:
		return v - hi
	default:
		return 0
	}
}

func longestAxis(lo, hi r3.Vec) int {
	d := r3.Sub(hi, lo)
	if d.X >= d.Y && d.X >= d.Z {
		return 0
	}
	if d.Y >= d.Z {
		return 1
	}
	return 2
}

func centroidAxis(tri [3]r3.Vec, axis int) float64 {
	c := r3.Scale(1.0/3.0, r3.Add(tri[0], r3.Add(tri[1], tri[2])))
	switch axis {
	case 0:
		return c.X
	case 1:
		return c.Y
	default:
		return c.Z
	}
}
