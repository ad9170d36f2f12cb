package fit

import (
	"context"

	"github.com/AJMansfield/mirrorfit/pkg/plane"
)

// Status is the terminal state of an optimization run.
type Status int

const (
	// StatusConverged means the relative error improvement fell below
	// the run's tolerance.
	StatusConverged Status = iota
	// StatusMaxIterations means the iteration budget ran out first.
	// The result is still the best point visited; the caller decides
	// whether to accept it.
	StatusMaxIterations
	// StatusCancelled means an external stop request was observed at
	// an iteration boundary. The result is the best point found so
	// far.
	StatusCancelled
)

func (s Status) String() string {
	switch s {
	case StatusConverged:
		return "converged"
	case StatusMaxIterations:
		return "max iterations reached"
	case StatusCancelled:
		return "cancelled"
	}
	return "unknown"
}

// Objective maps plane parameters to the symmetry error. It reports
// plane.ErrDegenerateNormal when the parameters cannot form a plane.
type Objective func(plane.Params) (float64, error)

// Outcome is the result of a single optimization run. Error is never
// worse than the objective value at the initial parameters.
type Outcome struct {
	Params     plane.Params
	Error      float64
	Iterations int
	Status     Status

	// Err is set only when the run could not evaluate any point at
	// all (degenerate-normal retries exhausted); such outcomes carry
	// no usable result.
	Err error
}

// Optimizer is a local minimizer over plane parameters. Runs are
// independent: no state persists between Minimize calls, so one
// Optimizer value may drive several concurrent runs.
type Optimizer interface {
	Minimize(ctx context.Context, objective Objective, initial plane.Params) Outcome
}
