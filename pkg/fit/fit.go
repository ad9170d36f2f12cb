// Package fit estimates the best-fit mirror-symmetry plane of a
// triangle mesh: the reflection minimizing the summed squared distance
// between each reflected vertex and the nearest point on the mesh
// surface. The host application extracts the mesh, calls
// FindBestMirrorPlane, and applies the resulting transform however it
// sees fit; no host state is read here.
package fit

import (
	"context"
	"fmt"
	"sync"

	"github.com/AJMansfield/mirrorfit/pkg/mesh"
	"github.com/AJMansfield/mirrorfit/pkg/plane"
	"github.com/AJMansfield/mirrorfit/pkg/spatial"
)

// Result is the outcome of a full mirror-plane search.
type Result struct {
	// Plane is the best mirror plane found, in canonical form.
	Plane plane.Plane
	// Error is the symmetry error at Plane; zero for a perfectly
	// symmetric mesh.
	Error float64
	// Iterations is the iteration count of the winning run.
	Iterations int
	// Converged is false when the winning run stopped at its
	// iteration budget instead of meeting the tolerance. A
	// non-converged result is still the best point visited.
	Converged bool
	// Cancelled is true when a stop request (context cancellation or
	// an exhausted TimeBudget) cut the search short; the result is
	// partial but valid.
	Cancelled bool
}

// FindBestMirrorPlane searches for the mesh's best mirror-symmetry
// plane. It builds a spatial index over the mesh, starts one local
// minimization per principal-axis initial guess, and returns the best
// outcome; exact ties go to the lexicographically smallest canonical
// normal. The runs evaluate concurrently against the shared read-only
// index, each owning its own parameter state.
//
// The mesh must have at least one vertex and one face
// (mesh.ErrNoVertices / mesh.ErrNoFaces otherwise). Non-convergence
// and cancellation are reported as Result flags, not errors.
func FindBestMirrorPlane(ctx context.Context, m *mesh.Mesh, cfg Config) (Result, error) {
	if m == nil || m.VertexCount() == 0 {
		return Result{}, mesh.ErrNoVertices
	}
	if m.FaceCount() == 0 {
		return Result{}, mesh.ErrNoFaces
	}
	cfg = cfg.withDefaults()

	if cfg.TimeBudget > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, cfg.TimeBudget)
		defer cancel()
	}

	index, err := spatial.NewTree(m)
	if err != nil {
		return Result{}, fmt.Errorf("building spatial index: %w", err)
	}

	ev := NewSampledEvaluator(m, index, cfg.SampleCount, cfg.SampleSeed)
	ev.MaxDistance = cfg.MaxDistance

	objective := func(p plane.Params) (float64, error) {
		pl, err := plane.FromParams(p)
		if err != nil {
			return 0, err
		}
		return ev.Evaluate(pl), nil
	}

	opt := cfg.Optimizer
	if opt == nil {
		opt = &PatternSearch{
			Tolerance:     cfg.Tolerance,
			MaxIterations: cfg.MaxIterations,
			Scale:         m.MaxDimension(),
		}
	}

	guesses := InitialGuesses(m, cfg.InitialGuesses)
	outcomes := make([]Outcome, len(guesses))
	var wg sync.WaitGroup
	for i, g := range guesses {
		wg.Add(1)
		go func(i int, g plane.Params) {
			defer wg.Done()
			outcomes[i] = opt.Minimize(ctx, objective, g)
		}(i, g)
	}
	wg.Wait()

	best := -1
	var bestPlane plane.Plane
	cancelled := false
	for i, out := range outcomes {
		if out.Status == StatusCancelled {
			cancelled = true
		}
		if out.Err != nil {
			continue
		}
		pl, err := plane.FromParams(out.Params)
		if err != nil {
			continue
		}
		switch {
		case best < 0,
			out.Error < outcomes[best].Error,
			out.Error == outcomes[best].Error && pl.Less(bestPlane):
			best = i
			bestPlane = pl
		}
	}
	if best < 0 {
		return Result{}, fmt.Errorf("no initial guess produced a valid plane: %w", plane.ErrDegenerateNormal)
	}

	win := outcomes[best]
	return Result{
		Plane:      bestPlane.Canonical(),
		Error:      win.Error,
		Iterations: win.Iterations,
		Converged:  win.Status == StatusConverged,
		Cancelled:  cancelled,
	}, nil
}
