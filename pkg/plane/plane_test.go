package plane

import (
	"errors"
	"math"
	"testing"

	"gonum.org/v1/gonum/spatial/r3"
)

const tol = 1e-12

func vecNear(a, b r3.Vec) bool {
	return r3.Norm(r3.Sub(a, b)) < tol
}

func TestNewNormalizes(t *testing.T) {
	p, err := New(r3.Vec{X: 3}, 2)
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}
	if !vecNear(p.Normal(), r3.Vec{X: 1}) {
		t.Errorf("Normal() = %v, want unit x", p.Normal())
	}
	if p.Offset() != 2 {
		t.Errorf("Offset() = %v, want 2", p.Offset())
	}
}

func TestNewRejectsDegenerate(t *testing.T) {
	tests := []struct {
		name   string
		normal r3.Vec
		offset float64
	}{
		{"zero normal", r3.Vec{}, 0},
		{"tiny normal", r3.Vec{X: 1e-300}, 0},
		{"nan normal", r3.Vec{X: math.NaN()}, 0},
		{"inf normal", r3.Vec{Y: math.Inf(1)}, 0},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := New(tt.normal, tt.offset); !errors.Is(err, ErrDegenerateNormal) {
				t.Errorf("New(%v) error = %v, want ErrDegenerateNormal", tt.normal, err)
			}
		})
	}

	t.Run("non-finite offset", func(t *testing.T) {
		if _, err := New(r3.Vec{X: 1}, math.NaN()); err == nil {
			t.Error("New() accepted NaN offset")
		}
	})
}

func TestReflect(t *testing.T) {
	// Plane x = 1.
	p, err := New(r3.Vec{X: 1}, 1)
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}

	tests := []struct {
		name string
		in   r3.Vec
		want r3.Vec
	}{
		{"point on plane is fixed", r3.Vec{X: 1, Y: 5, Z: -2}, r3.Vec{X: 1, Y: 5, Z: -2}},
		{"origin maps across", r3.Vec{}, r3.Vec{X: 2}},
		{"general point", r3.Vec{X: 3, Y: 1, Z: 1}, r3.Vec{X: -1, Y: 1, Z: 1}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := p.Reflect(tt.in); !vecNear(got, tt.want) {
				t.Errorf("Reflect(%v) = %v, want %v", tt.in, got, tt.want)
			}
		})
	}
}

func TestReflectIsInvolution(t *testing.T) {
	p, err := New(r3.Vec{X: 1, Y: 2, Z: -1}, 0.7)
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}
	pts := []r3.Vec{{}, {X: 1}, {X: -2, Y: 3, Z: 0.5}, {X: 0.1, Y: -0.1, Z: 9}}
	for _, v := range pts {
		if got := p.Reflect(p.Reflect(v)); !vecNear(got, v) {
			t.Errorf("Reflect(Reflect(%v)) = %v, want identity", v, got)
		}
	}
}

func TestSignedDistance(t *testing.T) {
	p, err := New(r3.Vec{Z: 2}, 3)
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}
	if got := p.SignedDistance(r3.Vec{Z: 5}); math.Abs(got-2) > tol {
		t.Errorf("SignedDistance() = %v, want 2", got)
	}
	if got := p.SignedDistance(r3.Vec{Z: 1}); math.Abs(got+2) > tol {
		t.Errorf("SignedDistance() = %v, want -2", got)
	}
}

func TestParamsRoundTrip(t *testing.T) {
	tests := []struct {
		name   string
		params Params
	}{
		{"axis plane", Params{1, 0, 0, 0}},
		{"unnormalized direction", Params{2, -3, 6, 1.5}},
		{"negative offset", Params{0, 0, -1, -4}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p, err := FromParams(tt.params)
			if err != nil {
				t.Fatalf("FromParams() error = %v", err)
			}
			q, err := FromParams(p.Params())
			if err != nil {
				t.Fatalf("FromParams(round trip) error = %v", err)
			}
			if !vecNear(p.Normal(), q.Normal()) || math.Abs(p.Offset()-q.Offset()) > tol {
				t.Errorf("round trip changed plane: %v/%v -> %v/%v",
					p.Normal(), p.Offset(), q.Normal(), q.Offset())
			}
		})
	}

	t.Run("degenerate params rejected", func(t *testing.T) {
		if _, err := FromParams(Params{0, 0, 0, 1}); !errors.Is(err, ErrDegenerateNormal) {
			t.Errorf("FromParams() error = %v, want ErrDegenerateNormal", err)
		}
	})
}

func TestCanonical(t *testing.T) {
	a, err := New(r3.Vec{X: -1, Y: 2}, 3)
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}
	b, err := New(r3.Vec{X: 1, Y: -2}, -3)
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}

	ca, cb := a.Canonical(), b.Canonical()
	if !vecNear(ca.Normal(), cb.Normal()) || math.Abs(ca.Offset()-cb.Offset()) > tol {
		t.Errorf("flipped twins canonicalize differently: %v/%v vs %v/%v",
			ca.Normal(), ca.Offset(), cb.Normal(), cb.Offset())
	}
	if ca.Normal().X <= 0 {
		t.Errorf("canonical normal = %v, want positive leading component", ca.Normal())
	}

	t.Run("leading zero components", func(t *testing.T) {
		p, err := New(r3.Vec{Z: -1}, 2)
		if err != nil {
			t.Fatalf("New() error = %v", err)
		}
		c := p.Canonical()
		if !vecNear(c.Normal(), r3.Vec{Z: 1}) || math.Abs(c.Offset()+2) > tol {
			t.Errorf("Canonical() = %v/%v, want {0 0 1}/-2", c.Normal(), c.Offset())
		}
	})
}

func TestLess(t *testing.T) {
	mk := func(n r3.Vec, off float64) Plane {
		p, err := New(n, off)
		if err != nil {
			t.Fatalf("New(%v) error = %v", n, err)
		}
		return p
	}
	z := mk(r3.Vec{Z: 1}, 0)
	y := mk(r3.Vec{Y: 1}, 0)
	x := mk(r3.Vec{X: 1}, 0)

	if !z.Less(y) || !y.Less(x) {
		t.Error("expected z-normal < y-normal < x-normal in canonical order")
	}
	if x.Less(z) {
		t.Error("order is not antisymmetric")
	}

	// Sign of the normal must not affect ordering.
	negX := mk(r3.Vec{X: -1}, 0)
	if negX.Less(x) || x.Less(negX) {
		t.Error("plane and its flipped twin should compare equal")
	}
}
