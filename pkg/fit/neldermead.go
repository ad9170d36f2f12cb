package fit

import (
	"context"
	"math"

	"github.com/AJMansfield/mirrorfit/pkg/plane"
	"gonum.org/v1/gonum/optimize"
)

// NelderMead is the alternative Optimizer backend, driving the
// downhill-simplex implementation in gonum.org/v1/gonum/optimize. It
// satisfies the same contract as PatternSearch; degenerate-normal
// parameter points are given an infinite objective value, which the
// simplex contracts away from on its own.
type NelderMead struct {
	// Tolerance is the absolute function convergence threshold.
	// Defaults to DefaultTolerance.
	Tolerance float64
	// MaxIterations bounds the run. Defaults to DefaultMaxIterations.
	MaxIterations int
}

// Minimize runs Nelder-Mead from initial. Cancellation is observed via
// the problem's status hook at iteration boundaries and returns the
// best point found so far.
func (s *NelderMead) Minimize(ctx context.Context, objective Objective, initial plane.Params) Outcome {
	tolerance := s.Tolerance
	if tolerance <= 0 {
		tolerance = DefaultTolerance
	}
	maxIter := s.MaxIterations
	if maxIter <= 0 {
		maxIter = DefaultMaxIterations
	}

	_, initErr, err := evalWithRetry(objective, initial)
	if err != nil {
		return Outcome{
			Params: initial,
			Error:  math.Inf(1),
			Status: StatusMaxIterations,
			Err:    err,
		}
	}

	problem := optimize.Problem{
		Func: func(x []float64) float64 {
			var p plane.Params
			copy(p[:], x)
			v, err := objective(p)
			if err != nil {
				return math.Inf(1)
			}
			return v
		},
		Status: func() (optimize.Status, error) {
			select {
			case <-ctx.Done():
				return optimize.Failure, ctx.Err()
			default:
				return optimize.NotTerminated, nil
			}
		},
	}
	settings := &optimize.Settings{
		MajorIterations: maxIter,
		Converger: &optimize.FunctionConverge{
			Absolute:   tolerance,
			Iterations: 20,
		},
	}

	res, resErr := optimize.Minimize(problem, initial[:], settings, &optimize.NelderMead{})
	if res == nil {
		return Outcome{Params: initial, Error: initErr, Status: StatusCancelled}
	}

	out := Outcome{Iterations: res.Stats.MajorIterations}
	copy(out.Params[:], res.X)
	out.Error = res.F

	// The simplex may wander; the contract guarantees a result no
	// worse than the starting point.
	if !(out.Error <= initErr) {
		out.Params = initial
		out.Error = initErr
	}

	switch {
	case ctx.Err() != nil:
		out.Status = StatusCancelled
	case resErr == nil && res.Status == optimize.IterationLimit:
		out.Status = StatusMaxIterations
	default:
		out.Status = StatusConverged
	}
	return out
}
