// Package sdfxmesh tessellates signed-distance-field solids from
// github.com/deadsy/sdfx into mesh.Mesh values, for generating test
// and example geometry without an external mesh file.
package sdfxmesh

import (
	"fmt"

	"github.com/AJMansfield/mirrorfit/pkg/mesh"
	"github.com/deadsy/sdfx/render"
	"github.com/deadsy/sdfx/sdf"
	v3 "github.com/deadsy/sdfx/vec/v3"
	"gonum.org/v1/gonum/spatial/r3"
)

// DefaultCells is the marching cubes resolution used when the caller
// passes a non-positive cell count.
const DefaultCells = 100

// FromSDF tessellates a solid with uniform marching cubes at the given
// resolution. The tessellation emits three vertices per triangle with
// no welding; that is fine for symmetry fitting, which treats vertices
// as a point sample of the surface.
func FromSDF(s sdf.SDF3, cells int) (*mesh.Mesh, error) {
	if s == nil {
		return nil, fmt.Errorf("tessellating solid: nil SDF")
	}
	if cells <= 0 {
		cells = DefaultCells
	}

	renderer := render.NewMarchingCubesUniform(cells)
	triangles := render.ToTriangles(s, renderer)
	if len(triangles) == 0 {
		return nil, fmt.Errorf("tessellating solid: %w", mesh.ErrNoFaces)
	}

	verts := make([]r3.Vec, 0, len(triangles)*3)
	faces := make([][3]int, 0, len(triangles))
	for i, tri := range triangles {
		for j := 0; j < 3; j++ {
			v := tri[j]
			verts = append(verts, r3.Vec{X: v.X, Y: v.Y, Z: v.Z})
		}
		faces = append(faces, [3]int{i * 3, i*3 + 1, i*3 + 2})
	}
	m, err := mesh.New(verts, faces)
	if err != nil {
		return nil, fmt.Errorf("tessellating solid: %w", err)
	}
	return m, nil
}

// Box tessellates an origin-centered box with the given edge lengths.
// Unlike mesh.Box the result is a marching cubes approximation; use it
// when the test subject should look like real scanned or tessellated
// input rather than an exact primitive.
func Box(x, y, z float64, cells int) (*mesh.Mesh, error) {
	s, err := sdf.Box3D(v3.Vec{X: x, Y: y, Z: z}, 0)
	if err != nil {
		return nil, fmt.Errorf("building box solid: %w", err)
	}
	return FromSDF(s, cells)
}

// Sphere tessellates an origin-centered sphere of the given radius.
func Sphere(radius float64, cells int) (*mesh.Mesh, error) {
	s, err := sdf.Sphere3D(radius)
	if err != nil {
		return nil, fmt.Errorf("building sphere solid: %w", err)
	}
	return FromSDF(s, cells)
}

// Cylinder tessellates an origin-centered cylinder along z.
func Cylinder(height, radius float64, cells int) (*mesh.Mesh, error) {
	s, err := sdf.Cylinder3D(height, radius, 0)
	if err != nil {
		return nil, fmt.Errorf("building cylinder solid: %w", err)
	}
	return FromSDF(s, cells)
}
