package engine

import (
	"math"
	"strings"
	"testing"

	zygo "github.com/glycerine/zygomys/zygo"
)

// ---------------------------------------------------------------------------
// Preprocessing tests
// ---------------------------------------------------------------------------

func TestPreprocessKeywords(t *testing.T) {
	tests := []struct {
		name   string
		input  string
		expect string
	}{
		{
			name:   "simple keyword",
			input:  `(mirror-fit m :tolerance 0.001)`,
			expect: `(mirror_fit m "__kw_tolerance" 0.001)`,
		},
		{
			name:   "multiple keywords",
			input:  `(mirror-fit m :guesses 3 :seed 42)`,
			expect: `(mirror_fit m "__kw_guesses" 3 "__kw_seed" 42)`,
		},
		{
			name:   "keyword in string preserved",
			input:  `"thing with :keyword inside"`,
			expect: `"thing with :keyword inside"`,
		},
		{
			name:   "assignment operator preserved",
			input:  `(def x := 10)`,
			expect: `(def x := 10)`,
		},
		{
			name:   "kebab-case identifier",
			input:  `(box-mesh 2 2 2)`,
			expect: `(box_mesh 2 2 2)`,
		},
		{
			name:   "minus operator preserved",
			input:  `(- 10 5)`,
			expect: `(- 10 5)`,
		},
		{
			name:   "comment converted to // style",
			input:  `;; comment with :keyword`,
			expect: `// comment with :keyword`,
		},
		{
			name:   "single semicolon comment",
			input:  `; simple comment`,
			expect: `// simple comment`,
		},
		{
			name:   "hyphen in keyword preserved",
			input:  `:max-iterations`,
			expect: `"__kw_max-iterations"`,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := preprocessSource(tt.input)
			if got != tt.expect {
				t.Errorf("preprocessSource(%q) = %q, want %q", tt.input, got, tt.expect)
			}
		})
	}
}

// ---------------------------------------------------------------------------
// Evaluation helpers
// ---------------------------------------------------------------------------

// evalOK evaluates source and fails the test on any error.
func evalOK(t *testing.T, source string) *Report {
	t.Helper()
	rep, evalErrs, err := NewEngine().Evaluate(source)
	if err != nil {
		t.Fatalf("fatal error: %v", err)
	}
	if len(evalErrs) > 0 {
		t.Fatalf("eval errors: %v", evalErrs)
	}
	if rep == nil {
		t.Fatal("expected non-nil report")
	}
	return rep
}

// evalFail evaluates source and expects at least one eval error.
func evalFail(t *testing.T, source string) []EvalError {
	t.Helper()
	rep, evalErrs, err := NewEngine().Evaluate(source)
	if err != nil {
		t.Fatalf("fatal error: %v", err)
	}
	if rep != nil {
		t.Fatal("expected nil report on eval error")
	}
	if len(evalErrs) == 0 {
		t.Fatal("expected eval errors")
	}
	return evalErrs
}

// ---------------------------------------------------------------------------
// Mesh builtins
// ---------------------------------------------------------------------------

func TestBoxMeshBuiltin(t *testing.T) {
	rep := evalOK(t, `(vertex-count (box-mesh 2 3 4))`)

	v, ok := rep.Value.(*zygo.SexpInt)
	if !ok {
		t.Fatalf("expected SexpInt result, got %T", rep.Value)
	}
	if v.Val != 8 {
		t.Errorf("vertex-count = %d, want 8", v.Val)
	}
}

func TestBoxMeshFaceCount(t *testing.T) {
	rep := evalOK(t, `(face-count (box-mesh 2 3 4))`)

	v, ok := rep.Value.(*zygo.SexpInt)
	if !ok {
		t.Fatalf("expected SexpInt result, got %T", rep.Value)
	}
	if v.Val != 12 {
		t.Errorf("face-count = %d, want 12", v.Val)
	}
}

func TestBoxMeshRejectsBadDimensions(t *testing.T) {
	errs := evalFail(t, `(box-mesh 2 -3 4)`)
	if !strings.Contains(errs[0].Message, "positive") {
		t.Errorf("error = %q, want mention of positive dimensions", errs[0].Message)
	}
}

func TestTetraMeshBuiltin(t *testing.T) {
	rep := evalOK(t, `
(face-count (tetra-mesh (vec3 0 0 0) (vec3 1 0 0) (vec3 0 1 0) (vec3 0 0 1)))
`)
	v, ok := rep.Value.(*zygo.SexpInt)
	if !ok {
		t.Fatalf("expected SexpInt result, got %T", rep.Value)
	}
	if v.Val != 4 {
		t.Errorf("face-count = %d, want 4", v.Val)
	}
}

func TestTetraMeshRequiresVec3(t *testing.T) {
	errs := evalFail(t, `(tetra-mesh 1 2 3 4)`)
	if !strings.Contains(errs[0].Message, "vec3") {
		t.Errorf("error = %q, want mention of vec3", errs[0].Message)
	}
}

func TestSphereMeshBuiltin(t *testing.T) {
	rep := evalOK(t, `(face-count (sphere-mesh 1 :cells 16))`)
	v, ok := rep.Value.(*zygo.SexpInt)
	if !ok {
		t.Fatalf("expected SexpInt result, got %T", rep.Value)
	}
	if v.Val == 0 {
		t.Error("sphere tessellation produced no faces")
	}
}

func TestVecAccessors(t *testing.T) {
	rep := evalOK(t, `(vec-y (vec3 1 2 3))`)
	v, ok := rep.Value.(*zygo.SexpFloat)
	if !ok {
		t.Fatalf("expected SexpFloat result, got %T", rep.Value)
	}
	if v.Val != 2 {
		t.Errorf("vec-y = %v, want 2", v.Val)
	}
}

// ---------------------------------------------------------------------------
// mirror-fit
// ---------------------------------------------------------------------------

func TestMirrorFitCube(t *testing.T) {
	rep := evalOK(t, `(mirror-fit (box-mesh 2 2 2) :name "cube")`)

	if len(rep.Fits) != 1 {
		t.Fatalf("expected 1 fit record, got %d", len(rep.Fits))
	}
	rec := rep.Fits[0]
	if rec.Name != "cube" {
		t.Errorf("record name = %q, want %q", rec.Name, "cube")
	}
	if rec.Error > 1e-9 {
		t.Errorf("fit error = %v, want ~0 for a cube", rec.Error)
	}
	if !rec.Converged {
		t.Error("expected converged fit")
	}
	if rec.Cancelled {
		t.Error("unexpected cancelled flag")
	}

	n := rec.Plane.Normal()
	major := max(math.Abs(n.X), math.Abs(n.Y), math.Abs(n.Z))
	if major < 1-1e-6 {
		t.Errorf("plane normal = %v, want a coordinate axis", n)
	}
}

func TestMirrorFitAccessors(t *testing.T) {
	rep := evalOK(t, `
(def r (mirror-fit (box-mesh 2 2 2)))
(vec-x (plane-normal r))
`)
	v, ok := rep.Value.(*zygo.SexpFloat)
	if !ok {
		t.Fatalf("expected SexpFloat result, got %T", rep.Value)
	}
	if math.IsNaN(v.Val) || math.Abs(v.Val) > 1 {
		t.Errorf("normal x component = %v, want a unit vector component", v.Val)
	}
}

func TestMirrorFitErrorAccessor(t *testing.T) {
	rep := evalOK(t, `(fit-error (mirror-fit (box-mesh 2 2 2)))`)
	v, ok := rep.Value.(*zygo.SexpFloat)
	if !ok {
		t.Fatalf("expected SexpFloat result, got %T", rep.Value)
	}
	if v.Val > 1e-9 {
		t.Errorf("fit-error = %v, want ~0", v.Val)
	}
}

func TestMirrorFitConvergedAccessor(t *testing.T) {
	rep := evalOK(t, `(fit-converged (mirror-fit (box-mesh 2 2 2)))`)
	v, ok := rep.Value.(*zygo.SexpBool)
	if !ok {
		t.Fatalf("expected SexpBool result, got %T", rep.Value)
	}
	if !v.Val {
		t.Error("fit-converged = false, want true")
	}
}

func TestMirrorFitOffsetAccessor(t *testing.T) {
	rep := evalOK(t, `(plane-offset (mirror-fit (box-mesh 2 2 2)))`)
	v, ok := rep.Value.(*zygo.SexpFloat)
	if !ok {
		t.Fatalf("expected SexpFloat result, got %T", rep.Value)
	}
	if math.Abs(v.Val) > 1e-6 {
		t.Errorf("plane-offset = %v, want ~0 for an origin-centered cube", v.Val)
	}
}

func TestMirrorFitWithOptions(t *testing.T) {
	rep := evalOK(t, `
(mirror-fit (box-mesh 2 3 4)
            :tolerance 0.000001
            :max-iterations 50
            :guesses 2
            :seed 7)
`)
	if len(rep.Fits) != 1 {
		t.Fatalf("expected 1 fit record, got %d", len(rep.Fits))
	}
	if rep.Fits[0].Error > 1e-6 {
		t.Errorf("fit error = %v, want ~0 for a box", rep.Fits[0].Error)
	}
}

func TestMirrorFitNelderMeadOptimizer(t *testing.T) {
	rep := evalOK(t, `(mirror-fit (box-mesh 2 2 2) :optimizer :nelder-mead)`)
	if len(rep.Fits) != 1 {
		t.Fatalf("expected 1 fit record, got %d", len(rep.Fits))
	}
	if rep.Fits[0].Error > 1e-9 {
		t.Errorf("fit error = %v, want ~0", rep.Fits[0].Error)
	}
}

func TestMirrorFitUnknownOptimizer(t *testing.T) {
	errs := evalFail(t, `(mirror-fit (box-mesh 2 2 2) :optimizer :gradient)`)
	if !strings.Contains(errs[0].Message, "optimizer") {
		t.Errorf("error = %q, want mention of optimizer", errs[0].Message)
	}
}

func TestMirrorFitRequiresMesh(t *testing.T) {
	errs := evalFail(t, `(mirror-fit 42)`)
	if !strings.Contains(errs[0].Message, "mesh") {
		t.Errorf("error = %q, want mention of mesh", errs[0].Message)
	}
}

func TestMirrorFitMultipleRuns(t *testing.T) {
	rep := evalOK(t, `
(mirror-fit (box-mesh 2 2 2) :name "first")
(mirror-fit (box-mesh 1 2 3) :name "second")
`)
	if len(rep.Fits) != 2 {
		t.Fatalf("expected 2 fit records, got %d", len(rep.Fits))
	}
	if rep.Fits[0].Name != "first" || rep.Fits[1].Name != "second" {
		t.Errorf("record names = %q, %q; want order preserved", rep.Fits[0].Name, rep.Fits[1].Name)
	}
}

// ---------------------------------------------------------------------------
// Argument parsing
// ---------------------------------------------------------------------------

func TestParseArgsMixed(t *testing.T) {
	args := []zygo.Sexp{
		&zygo.SexpInt{Val: 1},
		&zygo.SexpStr{S: kwPrefix + "tolerance"},
		&zygo.SexpFloat{Val: 0.5},
		&zygo.SexpInt{Val: 2},
	}
	pa := parseArgs(args)
	if len(pa.positional) != 2 {
		t.Errorf("positional count = %d, want 2", len(pa.positional))
	}
	v, ok := pa.kw["tolerance"]
	if !ok {
		t.Fatal("missing tolerance keyword")
	}
	f, err := toFloat64(v)
	if err != nil || f != 0.5 {
		t.Errorf("tolerance = %v (err %v), want 0.5", f, err)
	}
}

func TestParseArgsTrailingKeyword(t *testing.T) {
	args := []zygo.Sexp{&zygo.SexpStr{S: kwPrefix + "flag"}}
	pa := parseArgs(args)
	if v, ok := pa.kw["flag"]; !ok || v != zygo.SexpNull {
		t.Errorf("trailing keyword should parse as flag with nil value, got %v", v)
	}
}

func TestToKeywordString(t *testing.T) {
	if s, err := toKeywordString(&zygo.SexpStr{S: kwPrefix + "pattern"}); err != nil || s != "pattern" {
		t.Errorf("keyword form: got %q, %v", s, err)
	}
	if s, err := toKeywordString(&zygo.SexpStr{S: "pattern"}); err != nil || s != "pattern" {
		t.Errorf("plain string form: got %q, %v", s, err)
	}
	if _, err := toKeywordString(&zygo.SexpInt{Val: 3}); err == nil {
		t.Error("expected error for non-string")
	}
}
