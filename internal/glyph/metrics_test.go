package glyph

import (
	"math"
	"strings"
	"testing"
)

func TestVisualRunsEmpty(t *testing.T) {
	if runs := VisualRuns(""); runs != nil {
		t.Errorf("expected nil runs, got %v", runs)
	}
}

func TestVisualRunsLTR(t *testing.T) {
	runs := VisualRuns("hello")
	if len(runs) != 1 {
		t.Fatalf("expected 1 run, got %d", len(runs))
	}
	if runs[0].Text != "hello" || runs[0].Start != 0 || runs[0].RTL {
		t.Errorf("expected single LTR run over the whole string, got %+v", runs[0])
	}
}

func TestVisualRunsMixed(t *testing.T) {
	text := "abc שלום xyz"
	runs := VisualRuns(text)

	// One embedded RTL run inside an LTR paragraph keeps its logical slot.
	var rtl []Run
	var rebuilt strings.Builder
	for _, run := range runs {
		rebuilt.WriteString(run.Text)
		if run.RTL {
			rtl = append(rtl, run)
		}
	}
	if rebuilt.String() != text {
		t.Errorf("expected runs to cover the string, got %q", rebuilt.String())
	}
	if len(rtl) != 1 {
		t.Fatalf("expected 1 RTL run, got %d", len(rtl))
	}
	if rtl[0].Text != "שלום" {
		t.Errorf("expected RTL run over the Hebrew word, got %q", rtl[0].Text)
	}
	if text[rtl[0].Start:rtl[0].Start+len(rtl[0].Text)] != rtl[0].Text {
		t.Errorf("expected Start %d to index the run text", rtl[0].Start)
	}
}

func TestLayoutEmpty(t *testing.T) {
	src := Builtin()
	placed, width := src.Layout("", 13)
	if placed != nil || width != 0 {
		t.Errorf("expected empty layout, got %d glyphs width %v", len(placed), width)
	}
}

func TestLayoutLTR(t *testing.T) {
	src := Builtin()
	placed, width := src.Layout("AB", 13)
	if len(placed) != 2 {
		t.Fatalf("expected 2 placements, got %d", len(placed))
	}
	if placed[0].Rune != 'A' || placed[0].Cluster != 0 || placed[0].X != 0 {
		t.Errorf("expected A at pen 0, got %+v", placed[0])
	}
	if placed[0].Advance != 7 {
		t.Errorf("expected advance 7, got %v", placed[0].Advance)
	}
	if placed[1].Rune != 'B' || placed[1].Cluster != 1 || placed[1].X != 7 {
		t.Errorf("expected B at pen 7, got %+v", placed[1])
	}
	if width != 14 {
		t.Errorf("expected total advance 14, got %v", width)
	}
}

func TestLayoutClusterByteOffsets(t *testing.T) {
	src := Builtin()

	// Multi-byte runes keep byte-accurate cluster offsets.
	placed, _ := src.Layout("a€b", 13)
	if len(placed) != 3 {
		t.Fatalf("expected 3 placements, got %d", len(placed))
	}
	wantClusters := []int{0, 1, 4}
	for i, want := range wantClusters {
		if placed[i].Cluster != want {
			t.Errorf("placement %d: expected cluster %d, got %d", i, want, placed[i].Cluster)
		}
	}
}

func TestLayoutRTLReversed(t *testing.T) {
	src := Builtin()

	// All-Hebrew text lays out right to left: the last logical rune
	// takes the leftmost pen position.
	placed, width := src.Layout("אב", 13)
	if len(placed) != 2 {
		t.Fatalf("expected 2 placements, got %d", len(placed))
	}
	if placed[0].Rune != 'ב' || placed[0].X != 0 {
		t.Errorf("expected bet first at pen 0, got %+v", placed[0])
	}
	if placed[0].Cluster != 2 {
		t.Errorf("expected bet cluster at byte 2, got %d", placed[0].Cluster)
	}
	if placed[1].Rune != 'א' || placed[1].X != 7 {
		t.Errorf("expected alef second at pen 7, got %+v", placed[1])
	}
	if placed[1].Cluster != 0 {
		t.Errorf("expected alef cluster at byte 0, got %d", placed[1].Cluster)
	}
	if width != 14 {
		t.Errorf("expected total advance 14, got %v", width)
	}
}

func TestLayoutMatchesMeasure(t *testing.T) {
	src := Builtin()

	text := "damage 123"
	_, width := src.Layout(text, 13)
	if measured := src.Measure(text, 13); measured != width {
		t.Errorf("expected Measure %v to equal layout width %v", measured, width)
	}
}

func TestLayoutGoRegular(t *testing.T) {
	src := parseTestFont(t)

	placed, width := src.Layout("Go", 32)
	if len(placed) != 2 {
		t.Fatalf("expected 2 placements, got %d", len(placed))
	}
	if placed[0].X != 0 || placed[0].Advance <= 0 {
		t.Errorf("expected G at pen 0 with positive advance, got %+v", placed[0])
	}
	if placed[1].X != placed[0].Advance {
		t.Errorf("expected o at pen %v, got %v", placed[0].Advance, placed[1].X)
	}
	if sum := placed[0].Advance + placed[1].Advance; math.Abs(width-sum) > 1e-9 {
		t.Errorf("expected width %v to equal advance sum %v", width, sum)
	}
}
