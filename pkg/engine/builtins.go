package engine

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/AJMansfield/mirrorfit/pkg/fit"
	"github.com/AJMansfield/mirrorfit/pkg/mesh"
	"github.com/AJMansfield/mirrorfit/pkg/mesh/sdfxmesh"
	zygo "github.com/glycerine/zygomys/zygo"
	"gonum.org/v1/gonum/spatial/r3"
)

// ---------------------------------------------------------------------------
// Source preprocessing
// ---------------------------------------------------------------------------

// preprocessSource transforms script source code before passing it to
// zygomys. It performs two transformations:
//
//  1. Keyword conversion: :keyword -> "__kw_keyword" (string literal)
//     This avoids the need to register keyword symbols as globals, which
//     would conflict with user-defined variables of the same name.
//
//  2. Kebab-case to underscore: mirror-fit -> mirror_fit
//     zygomys does not allow hyphens in identifiers (it interprets them
//     as the subtraction operator). This converts kebab-case identifiers
//     to underscore form outside of strings and comments.
//
// Both transformations respect string literal boundaries and line comments.
func preprocessSource(source string) string {
	result := make([]byte, 0, len(source)+len(source)/4)
	b := []byte(source)
	i := 0
	for i < len(b) {
		// Skip double-quoted string literals.
		if b[i] == '"' {
			result = append(result, b[i])
			i++
			for i < len(b) && b[i] != '"' {
				if b[i] == '\\' && i+1 < len(b) {
					result = append(result, b[i], b[i+1])
					i += 2
					continue
				}
				result = append(result, b[i])
				i++
			}
			if i < len(b) {
				result = append(result, b[i])
				i++
			}
			continue
		}
		// Skip backtick-quoted string literals.
		if b[i] == '`' {
			result = append(result, b[i])
			i++
			for i < len(b) && b[i] != '`' {
				result = append(result, b[i])
				i++
			}
			if i < len(b) {
				result = append(result, b[i])
				i++
			}
			continue
		}
		// Convert ; line comments to // comments for zygomys.
		// zygomys uses // for line comments, not the traditional Lisp ;.
		if b[i] == ';' {
			result = append(result, '/', '/')
			i++
			// Skip additional ; characters (;; style).
			for i < len(b) && b[i] == ';' {
				i++
			}
			for i < len(b) && b[i] != '\n' {
				result = append(result, b[i])
				i++
			}
			continue
		}
		// Transform :keyword to "__kw_keyword".
		if b[i] == ':' && i+1 < len(b) {
			// Preserve := (assignment operator).
			if b[i+1] == '=' {
				result = append(result, b[i], b[i+1])
				i += 2
				continue
			}
			// Check for keyword: colon followed by a letter.
			if isLetter(b[i+1]) {
				j := i + 1
				for j < len(b) && isKWChar(b[j]) {
					j++
				}
				kwName := string(b[i+1 : j])
				result = append(result, '"')
				result = append(result, []byte(kwPrefix)...)
				result = append(result, []byte(kwName)...)
				result = append(result, '"')
				i = j
				continue
			}
		}
		// Transform kebab-case identifiers: alpha-alpha -> alpha_alpha.
		// Only when hyphen sits between identifier characters (not a minus operator).
		if b[i] == '-' && i > 0 && i+1 < len(b) &&
			isIdentChar(b[i-1]) && isIdentStartChar(b[i+1]) {
			result = append(result, '_')
			i++
			continue
		}
		result = append(result, b[i])
		i++
	}
	return string(result)
}

func isLetter(c byte) bool {
	return (c >= 'a' && c <= 'z') || (c >= 'A' && c <= 'Z')
}

func isKWChar(c byte) bool {
	return isLetter(c) || (c >= '0' && c <= '9') || c == '-' || c == '_'
}

func isIdentChar(c byte) bool {
	return isLetter(c) || (c >= '0' && c <= '9') || c == '_'
}

func isIdentStartChar(c byte) bool {
	return isLetter(c)
}

// ---------------------------------------------------------------------------
// Custom Sexp types for passing Go values through the zygomys environment
// ---------------------------------------------------------------------------

// sexpVec3 wraps an r3.Vec.
type sexpVec3 struct {
	vec r3.Vec
}

func (v *sexpVec3) SexpString(ps *zygo.PrintState) string {
	return fmt.Sprintf("(vec3 %.4f %.4f %.4f)", v.vec.X, v.vec.Y, v.vec.Z)
}
func (v *sexpVec3) Type() *zygo.RegisteredType { return nil }

// sexpMesh wraps a mesh.Mesh so it can be passed between builtins.
type sexpMesh struct {
	mesh *mesh.Mesh
}

func (m *sexpMesh) SexpString(ps *zygo.PrintState) string {
	return fmt.Sprintf("(mesh :verts %d :faces %d)", m.mesh.VertexCount(), m.mesh.FaceCount())
}
func (m *sexpMesh) Type() *zygo.RegisteredType { return nil }

// sexpFitResult wraps a fit.Result so the plane and its quality can be
// inspected by accessor builtins.
type sexpFitResult struct {
	result fit.Result
}

func (r *sexpFitResult) SexpString(ps *zygo.PrintState) string {
	n := r.result.Plane.Normal()
	return fmt.Sprintf("(fit :normal (vec3 %.4f %.4f %.4f) :offset %.4f :error %g)",
		n.X, n.Y, n.Z, r.result.Plane.Offset(), r.result.Error)
}
func (r *sexpFitResult) Type() *zygo.RegisteredType { return nil }

// ---------------------------------------------------------------------------
// Keyword argument parsing
// ---------------------------------------------------------------------------

// kwPrefix is the marker prepended to keyword names by preprocessSource.
const kwPrefix = "__kw_"

// isKW checks if a Sexp is a preprocessed keyword string.
// Returns the keyword name (without prefix) and true if it is.
func isKW(s zygo.Sexp) (string, bool) {
	str, ok := s.(*zygo.SexpStr)
	if !ok {
		return "", false
	}
	if strings.HasPrefix(str.S, kwPrefix) {
		return str.S[len(kwPrefix):], true
	}
	return "", false
}

// kwArgs holds the result of parsing a mixed positional+keyword argument list.
type kwArgs struct {
	kw         map[string]zygo.Sexp
	positional []zygo.Sexp
}

// parseArgs separates args into keyword and positional arguments.
// Keywords are identified by the __kw_ prefix added during preprocessing.
func parseArgs(args []zygo.Sexp) kwArgs {
	result := kwArgs{kw: make(map[string]zygo.Sexp)}
	i := 0
	for i < len(args) {
		name, ok := isKW(args[i])
		if ok {
			if i+1 < len(args) {
				result.kw[name] = args[i+1]
				i += 2
			} else {
				// Keyword at end with no value — treat as flag with nil.
				result.kw[name] = zygo.SexpNull
				i++
			}
		} else {
			result.positional = append(result.positional, args[i])
			i++
		}
	}
	return result
}

// ---------------------------------------------------------------------------
// Value extraction helpers
// ---------------------------------------------------------------------------

// toFloat64 extracts a float64 from a Sexp (SexpInt or SexpFloat).
func toFloat64(s zygo.Sexp) (float64, error) {
	switch v := s.(type) {
	case *zygo.SexpInt:
		return float64(v.Val), nil
	case *zygo.SexpFloat:
		return v.Val, nil
	}
	return 0, fmt.Errorf("expected number, got %T (%s)", s, s.SexpString(nil))
}

// toInt extracts an int from a Sexp.
func toInt(s zygo.Sexp) (int, error) {
	if v, ok := s.(*zygo.SexpInt); ok {
		return int(v.Val), nil
	}
	return 0, fmt.Errorf("expected integer, got %T (%s)", s, s.SexpString(nil))
}

// toString extracts a string from a Sexp.
func toString(s zygo.Sexp) (string, error) {
	if str, ok := s.(*zygo.SexpStr); ok {
		return str.S, nil
	}
	return "", fmt.Errorf("expected string, got %T (%s)", s, s.SexpString(nil))
}

// toKeywordString extracts a keyword name or plain string from a Sexp.
// Handles both preprocessed keywords (__kw_pattern) and plain strings.
func toKeywordString(s zygo.Sexp) (string, error) {
	str, ok := s.(*zygo.SexpStr)
	if !ok {
		return "", fmt.Errorf("expected keyword or string, got %T (%s)", s, s.SexpString(nil))
	}
	if strings.HasPrefix(str.S, kwPrefix) {
		return str.S[len(kwPrefix):], nil
	}
	return str.S, nil
}

// toVec3 extracts an r3.Vec from a sexpVec3.
func toVec3(s zygo.Sexp) (r3.Vec, error) {
	if v, ok := s.(*sexpVec3); ok {
		return v.vec, nil
	}
	return r3.Vec{}, fmt.Errorf("expected vec3, got %T (%s)", s, s.SexpString(nil))
}

// toMesh extracts the mesh from a sexpMesh.
func toMesh(s zygo.Sexp) (*mesh.Mesh, error) {
	if m, ok := s.(*sexpMesh); ok {
		return m.mesh, nil
	}
	return nil, fmt.Errorf("expected mesh, got %T (%s)", s, s.SexpString(nil))
}

// toFitResult extracts the fit result from a sexpFitResult.
func toFitResult(s zygo.Sexp) (fit.Result, error) {
	if r, ok := s.(*sexpFitResult); ok {
		return r.result, nil
	}
	return fit.Result{}, fmt.Errorf("expected fit result, got %T (%s)", s, s.SexpString(nil))
}

// ---------------------------------------------------------------------------
// Builtin registration
// ---------------------------------------------------------------------------

// registerBuiltins installs the fitting DSL builtins into a zygomys
// environment. Fit runs append records to the provided report.
//
// Source code must be preprocessed with preprocessSource() before
// evaluation so that :keyword tokens are converted to recognizable
// string literals.
func registerBuiltins(env *zygo.Zlisp, report *Report) {

	// -----------------------------------------------------------------------
	// (vec3 1 2 3)
	// -----------------------------------------------------------------------
	env.AddFunction("vec3", func(env *zygo.Zlisp, name string, args []zygo.Sexp) (zygo.Sexp, error) {
		if len(args) != 3 {
			return zygo.SexpNull, fmt.Errorf("vec3 requires exactly 3 arguments, got %d", len(args))
		}

		x, err := toFloat64(args[0])
		if err != nil {
			return zygo.SexpNull, fmt.Errorf("vec3: x: %w", err)
		}
		y, err := toFloat64(args[1])
		if err != nil {
			return zygo.SexpNull, fmt.Errorf("vec3: y: %w", err)
		}
		z, err := toFloat64(args[2])
		if err != nil {
			return zygo.SexpNull, fmt.Errorf("vec3: z: %w", err)
		}

		return &sexpVec3{vec: r3.Vec{X: x, Y: y, Z: z}}, nil
	})

	// (vec-x v), (vec-y v), (vec-z v) component accessors.
	for _, comp := range []struct {
		name string
		get  func(r3.Vec) float64
	}{
		{"vec_x", func(v r3.Vec) float64 { return v.X }},
		{"vec_y", func(v r3.Vec) float64 { return v.Y }},
		{"vec_z", func(v r3.Vec) float64 { return v.Z }},
	} {
		get := comp.get
		env.AddFunction(comp.name, func(env *zygo.Zlisp, name string, args []zygo.Sexp) (zygo.Sexp, error) {
			if len(args) != 1 {
				return zygo.SexpNull, fmt.Errorf("%s requires a vec3 argument", name)
			}
			v, err := toVec3(args[0])
			if err != nil {
				return zygo.SexpNull, fmt.Errorf("%s: %w", name, err)
			}
			return &zygo.SexpFloat{Val: get(v)}, nil
		})
	}

	// -----------------------------------------------------------------------
	// (box-mesh 40 20 10) — exact axis-aligned box, centered at the origin.
	// -----------------------------------------------------------------------
	env.AddFunction("box_mesh", func(env *zygo.Zlisp, name string, args []zygo.Sexp) (zygo.Sexp, error) {
		if len(args) != 3 {
			return zygo.SexpNull, fmt.Errorf("box-mesh requires 3 edge lengths, got %d args", len(args))
		}
		var dims [3]float64
		for i, a := range args {
			f, err := toFloat64(a)
			if err != nil {
				return zygo.SexpNull, fmt.Errorf("box-mesh: dimension %d: %w", i, err)
			}
			if f <= 0 {
				return zygo.SexpNull, fmt.Errorf("box-mesh: dimension %d must be positive, got %v", i, f)
			}
			dims[i] = f
		}
		return &sexpMesh{mesh: mesh.Box(dims[0], dims[1], dims[2])}, nil
	})

	// -----------------------------------------------------------------------
	// (tetra-mesh (vec3 ...) (vec3 ...) (vec3 ...) (vec3 ...))
	// -----------------------------------------------------------------------
	env.AddFunction("tetra_mesh", func(env *zygo.Zlisp, name string, args []zygo.Sexp) (zygo.Sexp, error) {
		if len(args) != 4 {
			return zygo.SexpNull, fmt.Errorf("tetra-mesh requires 4 corner points, got %d args", len(args))
		}
		var corners [4]r3.Vec
		for i, a := range args {
			v, err := toVec3(a)
			if err != nil {
				return zygo.SexpNull, fmt.Errorf("tetra-mesh: corner %d: %w", i, err)
			}
			corners[i] = v
		}
		return &sexpMesh{mesh: mesh.Tetrahedron(corners[0], corners[1], corners[2], corners[3])}, nil
	})

	// -----------------------------------------------------------------------
	// (sphere-mesh 10 :cells 48) — marching cubes tessellation.
	// -----------------------------------------------------------------------
	env.AddFunction("sphere_mesh", func(env *zygo.Zlisp, name string, args []zygo.Sexp) (zygo.Sexp, error) {
		pa := parseArgs(args)
		if len(pa.positional) != 1 {
			return zygo.SexpNull, fmt.Errorf("sphere-mesh requires a radius argument")
		}
		radius, err := toFloat64(pa.positional[0])
		if err != nil {
			return zygo.SexpNull, fmt.Errorf("sphere-mesh: radius: %w", err)
		}
		cells, err := cellsArg(pa)
		if err != nil {
			return zygo.SexpNull, fmt.Errorf("sphere-mesh: %w", err)
		}
		m, err := sdfxmesh.Sphere(radius, cells)
		if err != nil {
			return zygo.SexpNull, fmt.Errorf("sphere-mesh: %w", err)
		}
		return &sexpMesh{mesh: m}, nil
	})

	// -----------------------------------------------------------------------
	// (cylinder-mesh 20 5 :cells 48)
	// -----------------------------------------------------------------------
	env.AddFunction("cylinder_mesh", func(env *zygo.Zlisp, name string, args []zygo.Sexp) (zygo.Sexp, error) {
		pa := parseArgs(args)
		if len(pa.positional) != 2 {
			return zygo.SexpNull, fmt.Errorf("cylinder-mesh requires height and radius arguments")
		}
		height, err := toFloat64(pa.positional[0])
		if err != nil {
			return zygo.SexpNull, fmt.Errorf("cylinder-mesh: height: %w", err)
		}
		radius, err := toFloat64(pa.positional[1])
		if err != nil {
			return zygo.SexpNull, fmt.Errorf("cylinder-mesh: radius: %w", err)
		}
		cells, err := cellsArg(pa)
		if err != nil {
			return zygo.SexpNull, fmt.Errorf("cylinder-mesh: %w", err)
		}
		m, err := sdfxmesh.Cylinder(height, radius, cells)
		if err != nil {
			return zygo.SexpNull, fmt.Errorf("cylinder-mesh: %w", err)
		}
		return &sexpMesh{mesh: m}, nil
	})

	// -----------------------------------------------------------------------
	// (vertex-count m), (face-count m)
	// -----------------------------------------------------------------------
	env.AddFunction("vertex_count", func(env *zygo.Zlisp, name string, args []zygo.Sexp) (zygo.Sexp, error) {
		if len(args) != 1 {
			return zygo.SexpNull, fmt.Errorf("vertex-count requires a mesh argument")
		}
		m, err := toMesh(args[0])
		if err != nil {
			return zygo.SexpNull, fmt.Errorf("vertex-count: %w", err)
		}
		return &zygo.SexpInt{Val: int64(m.VertexCount())}, nil
	})
	env.AddFunction("face_count", func(env *zygo.Zlisp, name string, args []zygo.Sexp) (zygo.Sexp, error) {
		if len(args) != 1 {
			return zygo.SexpNull, fmt.Errorf("face-count requires a mesh argument")
		}
		m, err := toMesh(args[0])
		if err != nil {
			return zygo.SexpNull, fmt.Errorf("face-count: %w", err)
		}
		return &zygo.SexpInt{Val: int64(m.FaceCount())}, nil
	})

	// -----------------------------------------------------------------------
	// (mirror-fit m :name "hull" :tolerance 1e-9 :max-iterations 300
	//             :guesses 3 :time-budget 2000 :samples 500 :seed 42
	//             :max-distance 5 :optimizer :nelder-mead)
	//
	// Runs the full search and returns a fit result. :time-budget is in
	// milliseconds. The run is also appended to the evaluation report.
	// -----------------------------------------------------------------------
	env.AddFunction("mirror_fit", func(env *zygo.Zlisp, name string, args []zygo.Sexp) (zygo.Sexp, error) {
		pa := parseArgs(args)
		if len(pa.positional) != 1 {
			return zygo.SexpNull, fmt.Errorf("mirror-fit requires a mesh as its first argument")
		}
		m, err := toMesh(pa.positional[0])
		if err != nil {
			return zygo.SexpNull, fmt.Errorf("mirror-fit: %w", err)
		}

		var cfg fit.Config
		runName := ""

		if v, ok := pa.kw["name"]; ok {
			s, err := toString(v)
			if err != nil {
				return zygo.SexpNull, fmt.Errorf("mirror-fit: name: %w", err)
			}
			runName = s
		}
		if v, ok := pa.kw["tolerance"]; ok {
			f, err := toFloat64(v)
			if err != nil {
				return zygo.SexpNull, fmt.Errorf("mirror-fit: tolerance: %w", err)
			}
			cfg.Tolerance = f
		}
		if v, ok := pa.kw["max-iterations"]; ok {
			n, err := toInt(v)
			if err != nil {
				return zygo.SexpNull, fmt.Errorf("mirror-fit: max-iterations: %w", err)
			}
			cfg.MaxIterations = n
		}
		if v, ok := pa.kw["guesses"]; ok {
			n, err := toInt(v)
			if err != nil {
				return zygo.SexpNull, fmt.Errorf("mirror-fit: guesses: %w", err)
			}
			cfg.InitialGuesses = n
		}
		if v, ok := pa.kw["time-budget"]; ok {
			f, err := toFloat64(v)
			if err != nil {
				return zygo.SexpNull, fmt.Errorf("mirror-fit: time-budget: %w", err)
			}
			cfg.TimeBudget = time.Duration(f * float64(time.Millisecond))
		}
		if v, ok := pa.kw["samples"]; ok {
			n, err := toInt(v)
			if err != nil {
				return zygo.SexpNull, fmt.Errorf("mirror-fit: samples: %w", err)
			}
			cfg.SampleCount = n
		}
		if v, ok := pa.kw["seed"]; ok {
			n, err := toInt(v)
			if err != nil {
				return zygo.SexpNull, fmt.Errorf("mirror-fit: seed: %w", err)
			}
			cfg.SampleSeed = int64(n)
		}
		if v, ok := pa.kw["max-distance"]; ok {
			f, err := toFloat64(v)
			if err != nil {
				return zygo.SexpNull, fmt.Errorf("mirror-fit: max-distance: %w", err)
			}
			cfg.MaxDistance = f
		}
		if v, ok := pa.kw["optimizer"]; ok {
			kind, err := toKeywordString(v)
			if err != nil {
				return zygo.SexpNull, fmt.Errorf("mirror-fit: optimizer: %w", err)
			}
			switch kind {
			case "pattern":
				// Default; constructed inside the search with the mesh scale.
			case "nelder-mead":
				cfg.Optimizer = &fit.NelderMead{}
			default:
				return zygo.SexpNull, fmt.Errorf("mirror-fit: unknown optimizer %q, expected pattern or nelder-mead", kind)
			}
		}

		res, err := fit.FindBestMirrorPlane(context.Background(), m, cfg)
		if err != nil {
			return zygo.SexpNull, fmt.Errorf("mirror-fit: %w", err)
		}

		report.Fits = append(report.Fits, recordOf(runName, res))
		return &sexpFitResult{result: res}, nil
	})

	// -----------------------------------------------------------------------
	// Fit result accessors.
	// -----------------------------------------------------------------------
	env.AddFunction("plane_normal", func(env *zygo.Zlisp, name string, args []zygo.Sexp) (zygo.Sexp, error) {
		if len(args) != 1 {
			return zygo.SexpNull, fmt.Errorf("plane-normal requires a fit result argument")
		}
		r, err := toFitResult(args[0])
		if err != nil {
			return zygo.SexpNull, fmt.Errorf("plane-normal: %w", err)
		}
		return &sexpVec3{vec: r.Plane.Normal()}, nil
	})
	env.AddFunction("plane_offset", func(env *zygo.Zlisp, name string, args []zygo.Sexp) (zygo.Sexp, error) {
		if len(args) != 1 {
			return zygo.SexpNull, fmt.Errorf("plane-offset requires a fit result argument")
		}
		r, err := toFitResult(args[0])
		if err != nil {
			return zygo.SexpNull, fmt.Errorf("plane-offset: %w", err)
		}
		return &zygo.SexpFloat{Val: r.Plane.Offset()}, nil
	})
	env.AddFunction("fit_error", func(env *zygo.Zlisp, name string, args []zygo.Sexp) (zygo.Sexp, error) {
		if len(args) != 1 {
			return zygo.SexpNull, fmt.Errorf("fit-error requires a fit result argument")
		}
		r, err := toFitResult(args[0])
		if err != nil {
			return zygo.SexpNull, fmt.Errorf("fit-error: %w", err)
		}
		return &zygo.SexpFloat{Val: r.Error}, nil
	})
	env.AddFunction("fit_iterations", func(env *zygo.Zlisp, name string, args []zygo.Sexp) (zygo.Sexp, error) {
		if len(args) != 1 {
			return zygo.SexpNull, fmt.Errorf("fit-iterations requires a fit result argument")
		}
		r, err := toFitResult(args[0])
		if err != nil {
			return zygo.SexpNull, fmt.Errorf("fit-iterations: %w", err)
		}
		return &zygo.SexpInt{Val: int64(r.Iterations)}, nil
	})
	env.AddFunction("fit_converged", func(env *zygo.Zlisp, name string, args []zygo.Sexp) (zygo.Sexp, error) {
		if len(args) != 1 {
			return zygo.SexpNull, fmt.Errorf("fit-converged requires a fit result argument")
		}
		r, err := toFitResult(args[0])
		if err != nil {
			return zygo.SexpNull, fmt.Errorf("fit-converged: %w", err)
		}
		return &zygo.SexpBool{Val: r.Converged}, nil
	})
	env.AddFunction("fit_cancelled", func(env *zygo.Zlisp, name string, args []zygo.Sexp) (zygo.Sexp, error) {
		if len(args) != 1 {
			return zygo.SexpNull, fmt.Errorf("fit-cancelled requires a fit result argument")
		}
		r, err := toFitResult(args[0])
		if err != nil {
			return zygo.SexpNull, fmt.Errorf("fit-cancelled: %w", err)
		}
		return &zygo.SexpBool{Val: r.Cancelled}, nil
	})
}

// cellsArg reads the optional :cells keyword for tessellated primitives.
func cellsArg(pa kwArgs) (int, error) {
	v, ok := pa.kw["cells"]
	if !ok {
		return 0, nil // FromSDF applies its default
	}
	n, err := toInt(v)
	if err != nil {
		return 0, fmt.Errorf("cells: %w", err)
	}
	return n, nil
}
