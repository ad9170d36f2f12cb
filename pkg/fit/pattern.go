package fit

import (
	"context"
	"fmt"
	"math"

	"github.com/AJMansfield/mirrorfit/pkg/plane"
)

// degenerateRetries bounds how often a degenerate-normal probe is
// perturbed and retried before the probe is skipped.
const degenerateRetries = 8

// minSpeed is the step multiplier below which the search is considered
// fully contracted.
const minSpeed = 1e-12

// PatternSearch is the default Optimizer: a derivative-free compass
// search over the four plane parameters. Each iteration probes ± one
// step along every parameter, moves to the best improving probe, and
// halves the step when nothing improves. The step is proportional to
// the square root of the current error — the RMS mismatch distance —
// so the search takes large moves while badly aligned and small ones
// near the minimum. Only improving moves are accepted, which gives the
// monotonic non-increase guarantee and tolerates the objective being
// non-smooth near mesh feature edges.
type PatternSearch struct {
	// Tolerance is the relative improvement below which the run
	// converges. Defaults to DefaultTolerance.
	Tolerance float64
	// MaxIterations bounds the run. Defaults to DefaultMaxIterations.
	MaxIterations int
	// Scale is the mesh's characteristic length, relating offset
	// steps (lengths) to normal-component steps (angles). Defaults
	// to 1.
	Scale float64
}

// Minimize runs the compass search from initial. The context is
// checked at every iteration boundary; cancellation returns the best
// point found so far.
func (s *PatternSearch) Minimize(ctx context.Context, objective Objective, initial plane.Params) Outcome {
	tolerance := s.Tolerance
	if tolerance <= 0 {
		tolerance = DefaultTolerance
	}
	maxIter := s.MaxIterations
	if maxIter <= 0 {
		maxIter = DefaultMaxIterations
	}
	scale := s.Scale
	if scale <= 0 {
		scale = 1
	}

	cur, curErr, err := evalWithRetry(objective, initial)
	if err != nil {
		return Outcome{
			Params: initial,
			Error:  math.Inf(1),
			Status: StatusMaxIterations,
			Err:    fmt.Errorf("initial parameters unusable: %w", err),
		}
	}

	speed := 1.0
	for iter := 1; iter <= maxIter; iter++ {
		select {
		case <-ctx.Done():
			return Outcome{Params: cur, Error: curErr, Iterations: iter - 1, Status: StatusCancelled}
		default:
		}

		if curErr == 0 {
			return Outcome{Params: cur, Error: curErr, Iterations: iter - 1, Status: StatusConverged}
		}

		// RMS mismatch sets the translation step; dividing by the mesh
		// scale turns it into a comparable tilt step for the normal.
		dist := math.Sqrt(curErr) * speed
		steps := [4]float64{dist / scale, dist / scale, dist / scale, dist}

		bestErr := curErr
		bestParams := cur
		for dim := 0; dim < 4; dim++ {
			for _, sign := range [2]float64{1, -1} {
				cand := cur
				cand[dim] += sign * steps[dim]
				cand, v, err := evalWithRetry(objective, cand)
				if err != nil {
					continue
				}
				if v < bestErr {
					bestErr = v
					bestParams = cand
				}
			}
		}

		if bestErr < curErr {
			rel := (curErr - bestErr) / curErr
			cur = bestParams
			curErr = bestErr
			if rel < tolerance {
				return Outcome{Params: cur, Error: curErr, Iterations: iter, Status: StatusConverged}
			}
			continue
		}

		// No probe improved: contract.
		speed /= 2
		if speed < minSpeed {
			return Outcome{Params: cur, Error: curErr, Iterations: iter, Status: StatusConverged}
		}
	}

	return Outcome{Params: cur, Error: curErr, Iterations: maxIter, Status: StatusMaxIterations}
}

// evalWithRetry evaluates the objective, recovering from degenerate
// normals by nudging the direction part and retrying. It returns the
// parameters actually evaluated. The perturbation is deterministic so
// runs stay reproducible.
func evalWithRetry(objective Objective, p plane.Params) (plane.Params, float64, error) {
	v, err := objective(p)
	for retry := 0; err != nil && retry < degenerateRetries; retry++ {
		eps := 1e-9 * math.Pow(10, float64(retry))
		p[0] += eps
		p[1] += 2 * eps
		p[2] += 3 * eps
		v, err = objective(p)
	}
	if err != nil {
		return p, 0, err
	}
	return p, v, nil
}
