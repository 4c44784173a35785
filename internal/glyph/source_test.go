package glyph

import (
	"errors"
	"math"
	"testing"

	"golang.org/x/image/font/gofont/goregular"
)

func parseTestFont(t *testing.T) *Source {
	t.Helper()
	src, err := Parse(goregular.TTF)
	if err != nil {
		t.Fatalf("Parse(goregular.TTF) failed: %v", err)
	}
	return src
}

func TestParseEmpty(t *testing.T) {
	if _, err := Parse(nil); !errors.Is(err, ErrEmptyFont) {
		t.Errorf("expected ErrEmptyFont, got %v", err)
	}
	if _, err := Parse([]byte{}); !errors.Is(err, ErrEmptyFont) {
		t.Errorf("expected ErrEmptyFont, got %v", err)
	}
}

func TestParseInvalid(t *testing.T) {
	if _, err := Parse([]byte("this is not a font")); err == nil {
		t.Error("expected error for invalid font data")
	}
}

func TestParseGoRegular(t *testing.T) {
	src := parseTestFont(t)

	if src.IsBuiltin() {
		t.Error("expected parsed source, got builtin")
	}
	if !src.HasGlyph('A') {
		t.Error("expected goregular to map 'A'")
	}
	if src.HasGlyph('') {
		t.Error("expected private-use rune to be unmapped")
	}
}

func TestSourceMetrics(t *testing.T) {
	src := parseTestFont(t)

	m := src.Metrics(100)
	if m.Ascent <= 0 {
		t.Errorf("expected positive ascent, got %v", m.Ascent)
	}
	if m.Descent <= 0 {
		t.Errorf("expected positive descent, got %v", m.Descent)
	}
	if m.Ascent <= m.Descent {
		t.Errorf("expected ascent %v > descent %v", m.Ascent, m.Descent)
	}
	lineHeight := m.Ascent + m.Descent
	if lineHeight < 80 || lineHeight > 150 {
		t.Errorf("expected line height near the em size, got %v", lineHeight)
	}
}

func TestAdvanceScalesLinearly(t *testing.T) {
	src := parseTestFont(t)

	adv32 := src.Advance('M', 32)
	adv64 := src.Advance('M', 64)
	if adv32 <= 0 {
		t.Fatalf("expected positive advance, got %v", adv32)
	}
	if math.Abs(adv64-2*adv32) > 1e-9 {
		t.Errorf("expected advance to scale with size: 32px=%v 64px=%v", adv32, adv64)
	}
}

func TestRasterizeGlyph(t *testing.T) {
	src := parseTestFont(t)

	bm, ok := src.Rasterize('A', 32)
	if !ok {
		t.Fatal("expected 'A' to rasterize")
	}
	if bm.Mask == nil {
		t.Fatal("expected non-nil mask")
	}
	b := bm.Mask.Bounds()
	if b.Dx() <= 0 || b.Dy() <= 0 {
		t.Fatalf("expected positive mask size, got %v", b)
	}
	if b.Dx() > 64 || b.Dy() > 64 {
		t.Errorf("expected a 32px glyph mask well under 64px, got %v", b)
	}
	covered := false
	for _, a := range bm.Mask.Pix {
		if a != 0 {
			covered = true
			break
		}
	}
	if !covered {
		t.Error("expected at least one covered pixel")
	}
	if bm.Top >= 0 {
		t.Errorf("expected cap-height glyph to rise above the baseline, got top %v", bm.Top)
	}
	if bm.Advance <= 0 {
		t.Errorf("expected positive advance, got %v", bm.Advance)
	}
}

func TestRasterizeMatchesAdvance(t *testing.T) {
	src := parseTestFont(t)

	bm, ok := src.Rasterize('W', 24)
	if !ok {
		t.Fatal("expected 'W' to rasterize")
	}
	if want := src.Advance('W', 24); bm.Advance != want {
		t.Errorf("expected bitmap advance %v, got %v", want, bm.Advance)
	}
}

func TestRasterizeWhitespace(t *testing.T) {
	src := parseTestFont(t)

	for _, r := range []rune{' ', '\t', '\n'} {
		if _, ok := src.Rasterize(r, 32); ok {
			t.Errorf("expected whitespace %q to produce no mask", r)
		}
	}
	if src.Advance(' ', 32) <= 0 {
		t.Error("expected space to still have a positive advance")
	}
}

func TestRasterizeZeroSize(t *testing.T) {
	src := parseTestFont(t)

	if _, ok := src.Rasterize('A', 0); ok {
		t.Error("expected zero size to produce no mask")
	}
	if _, ok := src.Rasterize('A', -4); ok {
		t.Error("expected negative size to produce no mask")
	}
}

func TestBuiltinRasterize(t *testing.T) {
	src := Builtin()
	if !src.IsBuiltin() {
		t.Fatal("expected builtin source")
	}

	// At the native 13px line height the 7x13 face comes through 1:1.
	bm, ok := src.Rasterize('A', 13)
	if !ok {
		t.Fatal("expected 'A' to rasterize")
	}
	b := bm.Mask.Bounds()
	if b.Dx() != 6 || b.Dy() != 13 {
		t.Errorf("expected native 6x13 mask, got %dx%d", b.Dx(), b.Dy())
	}
	if bm.Left != 0 {
		t.Errorf("expected left bearing 0, got %v", bm.Left)
	}
	if bm.Top != -11 {
		t.Errorf("expected top -11 (ascent), got %v", bm.Top)
	}
	if bm.Advance != 7 {
		t.Errorf("expected advance 7, got %v", bm.Advance)
	}
	covered := false
	for _, a := range bm.Mask.Pix {
		if a != 0 {
			covered = true
			break
		}
	}
	if !covered {
		t.Error("expected at least one covered pixel")
	}
}

func TestBuiltinScales(t *testing.T) {
	src := Builtin()

	bm, ok := src.Rasterize('A', 26)
	if !ok {
		t.Fatal("expected 'A' to rasterize")
	}
	b := bm.Mask.Bounds()
	if b.Dx() != 12 || b.Dy() != 26 {
		t.Errorf("expected doubled 12x26 mask, got %dx%d", b.Dx(), b.Dy())
	}
	if bm.Top != -22 {
		t.Errorf("expected top -22, got %v", bm.Top)
	}
	if bm.Advance != 14 {
		t.Errorf("expected advance 14, got %v", bm.Advance)
	}
}

func TestBuiltinUnmappedRune(t *testing.T) {
	src := Builtin()

	// Unmapped runes render the replacement glyph at the same advance.
	bm, ok := src.Rasterize('日', 13)
	if !ok {
		t.Fatal("expected replacement glyph for unmapped rune")
	}
	if b := bm.Mask.Bounds(); b.Dx() != 6 || b.Dy() != 13 {
		t.Errorf("expected 6x13 replacement mask, got %dx%d", b.Dx(), b.Dy())
	}
	if adv := src.Advance('日', 13); adv != 7 {
		t.Errorf("expected advance 7 for unmapped rune, got %v", adv)
	}
}

func TestBuiltinMetrics(t *testing.T) {
	src := Builtin()

	m := src.Metrics(13)
	if m.Ascent != 11 {
		t.Errorf("expected ascent 11, got %v", m.Ascent)
	}
	if m.Descent != 2 {
		t.Errorf("expected descent 2, got %v", m.Descent)
	}
}

func TestBuiltinHasGlyph(t *testing.T) {
	src := Builtin()

	if !src.HasGlyph('A') {
		t.Error("expected builtin face to cover 'A'")
	}
	if src.HasGlyph('日') {
		t.Error("expected builtin face to lack CJK coverage")
	}
}
