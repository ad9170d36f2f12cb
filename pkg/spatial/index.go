// Package spatial provides nearest-point-on-surface queries against a
// triangle mesh. An Index is built once per mesh and is read-only
// afterwards, so it may be queried from multiple goroutines without
// synchronization.
//
// Two backends implement the interface: Tree, an axis-aligned
// bounding-box hierarchy with exact branch-and-bound search, and
// Brute, a linear scan with identical semantics that serves as the
// reference implementation for tests and tiny meshes.
package spatial

import "gonum.org/v1/gonum/spatial/r3"

// Index answers nearest-point queries against a fixed triangle set.
type Index interface {
	// Nearest returns the closest point on any triangle of the mesh
	// to q, and the squared Euclidean distance to it.
	Nearest(q r3.Vec) (r3.Vec, float64)
}
