package engine

import (
	"github.com/AJMansfield/mirrorfit/pkg/fit"
	"github.com/AJMansfield/mirrorfit/pkg/plane"
	zygo "github.com/glycerine/zygomys/zygo"
)

// FitRecord is one completed mirror-plane search initiated by a script.
type FitRecord struct {
	// Name is the optional :name keyword passed to mirror-fit, for
	// telling runs apart in multi-fit scripts.
	Name string
	// Plane is the best plane found, in canonical form.
	Plane plane.Plane
	// Error is the symmetry error at Plane.
	Error float64
	// Iterations is the iteration count of the winning run.
	Iterations int
	// Converged and Cancelled mirror the fit result flags.
	Converged bool
	Cancelled bool
}

// Report bundles the full output of an evaluation for the host.
type Report struct {
	// Fits lists every mirror-fit run the script performed, in order.
	Fits []FitRecord
	// Value is the value of the script's final expression, for scripts
	// that compute something from the fit accessors.
	Value zygo.Sexp
}

func recordOf(name string, res fit.Result) FitRecord {
	return FitRecord{
		Name:       name,
		Plane:      res.Plane,
		Error:      res.Error,
		Iterations: res.Iterations,
		Converged:  res.Converged,
		Cancelled:  res.Cancelled,
	}
}
