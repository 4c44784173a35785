package blit

import "testing"

func TestPointArithmetic(t *testing.T) {
	a := Pt(3, 4)
	b := Pt(1, -2)

	if got := a.Add(b); got != Pt(4, 2) {
		t.Errorf("Add = %v, want (4, 2)", got)
	}
	if got := a.Sub(b); got != Pt(2, 6) {
		t.Errorf("Sub = %v, want (2, 6)", got)
	}
	if got := a.Mul(2); got != Pt(6, 8) {
		t.Errorf("Mul = %v, want (6, 8)", got)
	}
}

func TestPointProducts(t *testing.T) {
	a := Pt(3, 4)
	b := Pt(1, -2)

	if got := a.Dot(b); got != -5 {
		t.Errorf("Dot = %v, want -5", got)
	}
	if got := a.Cross(b); got != -10 {
		t.Errorf("Cross = %v, want -10", got)
	}
	// Cross of parallel vectors vanishes.
	if got := a.Cross(a.Mul(3)); got != 0 {
		t.Errorf("Cross parallel = %v, want 0", got)
	}
}

func TestPointLengthDistance(t *testing.T) {
	if got := Pt(3, 4).Length(); got != 5 {
		t.Errorf("Length = %v, want 5", got)
	}
	if got := Pt(1, 1).Distance(Pt(4, 5)); got != 5 {
		t.Errorf("Distance = %v, want 5", got)
	}
}

func TestPointNormalize(t *testing.T) {
	n := Pt(0, -7).Normalize()
	if !nearPt(n, Pt(0, -1)) {
		t.Errorf("Normalize = %v, want (0, -1)", n)
	}
	if !near(Pt(12, -5).Normalize().Length(), 1) {
		t.Error("normalized length != 1")
	}
	// Zero vector normalizes to zero instead of NaN.
	if got := Pt(0, 0).Normalize(); got != Pt(0, 0) {
		t.Errorf("Normalize zero = %v, want (0, 0)", got)
	}
}

func TestPointLerp(t *testing.T) {
	a := Pt(0, 0)
	b := Pt(10, 20)

	if got := a.Lerp(b, 0); got != a {
		t.Errorf("Lerp(0) = %v, want %v", got, a)
	}
	if got := a.Lerp(b, 1); got != b {
		t.Errorf("Lerp(1) = %v, want %v", got, b)
	}
	if got := a.Lerp(b, 0.5); got != Pt(5, 10) {
		t.Errorf("Lerp(0.5) = %v, want (5, 10)", got)
	}
}
