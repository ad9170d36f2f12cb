package fit

import "time"

// Defaults applied by Config.withDefaults.
const (
	DefaultTolerance      = 1e-9
	DefaultMaxIterations  = 300
	DefaultInitialGuesses = 3
)

// Config is the host-supplied tuning surface for FindBestMirrorPlane.
// The zero value is valid; every field has a default.
type Config struct {
	// Tolerance is the relative error improvement below which an
	// optimization run is considered converged.
	Tolerance float64

	// MaxIterations bounds each optimization run.
	MaxIterations int

	// InitialGuesses is the number of principal-axis starting planes
	// to minimize from, clamped to 1..3. Each run is independent; the
	// best result wins.
	InitialGuesses int

	// TimeBudget, when positive, cancels the search after the given
	// duration; the best result found so far is returned with the
	// Cancelled flag set.
	TimeBudget time.Duration

	// SampleCount, when positive, evaluates the error on a random
	// subset of the vertices instead of all of them, bounding the cost
	// on dense meshes. Sampling is seeded by SampleSeed, so results
	// stay reproducible. Zero means all vertices.
	SampleCount int
	SampleSeed  int64

	// MaxDistance, when positive, caps each vertex's contribution at
	// the squared cutoff, so distant non-matches cannot dominate the
	// objective on partially overlapping geometry. Zero means no cap.
	MaxDistance float64

	// Optimizer overrides the search backend. Nil selects a
	// PatternSearch configured from Tolerance and MaxIterations.
	Optimizer Optimizer
}

func (c Config) withDefaults() Config {
	if c.Tolerance <= 0 {
		c.Tolerance = DefaultTolerance
	}
	if c.MaxIterations <= 0 {
		c.MaxIterations = DefaultMaxIterations
	}
	if c.InitialGuesses <= 0 {
		c.InitialGuesses = DefaultInitialGuesses
	}
	if c.InitialGuesses > 3 {
		c.InitialGuesses = 3
	}
	return c
}
