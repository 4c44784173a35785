package glyph

import (
	"golang.org/x/text/unicode/bidi"
)

// Run is a maximal substring with one resolved text direction. Runs come
// back in visual order, left to right as they appear on screen.
type Run struct {
	Text  string
	Start int // byte offset of Text within the source string
	RTL   bool
}

// Placed is one positioned glyph on a laid-out line. X is the left pen
// offset from the layout origin; Cluster is the byte offset of the rune
// in the source string.
type Placed struct {
	Rune    rune
	Cluster int
	X       float64
	Advance float64
}

// VisualRuns splits text into directional runs using the Unicode bidi
// algorithm and returns them in visual order. Errors from the algorithm
// degrade to a single left-to-right run; layout never fails.
func VisualRuns(text string) []Run {
	if text == "" {
		return nil
	}

	// Neutral lets the paragraph direction follow the first strong
	// character, so all-RTL strings lay out right to left.
	p := bidi.Paragraph{}
	if _, err := p.SetString(text, bidi.DefaultDirection(bidi.Neutral)); err != nil {
		return []Run{{Text: text}}
	}
	ordering, err := p.Order()
	if err != nil {
		return []Run{{Text: text}}
	}

	// run.Pos() returns rune indices (start, end inclusive); map them back
	// to byte offsets to slice the original string.
	runes := []rune(text)
	offsets := make([]int, len(runes)+1)
	off := 0
	for i, r := range runes {
		offsets[i] = off
		off += len(string(r))
	}
	offsets[len(runes)] = len(text)

	runs := make([]Run, 0, ordering.NumRuns())
	for i := 0; i < ordering.NumRuns(); i++ {
		run := ordering.Run(i)
		start, end := run.Pos()
		if start < 0 || end >= len(runes) || start > end {
			continue
		}
		runs = append(runs, Run{
			Text:  text[offsets[start]:offsets[end+1]],
			Start: offsets[start],
			RTL:   run.Direction() == bidi.RightToLeft,
		})
	}
	if len(runs) == 0 {
		return []Run{{Text: text}}
	}
	return runs
}

// Layout positions the runes of a single line at the given pixel size and
// returns the placements plus the total advance. Placement is advance-based
// in visual order: runs are reordered by the bidi algorithm and the runes
// of a right-to-left run are emitted in reverse. No kerning or ligature
// substitution is applied.
func (s *Source) Layout(text string, size float64) ([]Placed, float64) {
	if text == "" || size <= 0 {
		return nil, 0
	}

	placed := make([]Placed, 0, len(text))
	var pen float64
	for _, run := range VisualRuns(text) {
		if run.RTL {
			type pos struct {
				r   rune
				off int
			}
			rs := make([]pos, 0, len(run.Text))
			for off, r := range run.Text {
				rs = append(rs, pos{r: r, off: run.Start + off})
			}
			for i := len(rs) - 1; i >= 0; i-- {
				adv := s.Advance(rs[i].r, size)
				placed = append(placed, Placed{Rune: rs[i].r, Cluster: rs[i].off, X: pen, Advance: adv})
				pen += adv
			}
			continue
		}
		for off, r := range run.Text {
			adv := s.Advance(r, size)
			placed = append(placed, Placed{Rune: r, Cluster: run.Start + off, X: pen, Advance: adv})
			pen += adv
		}
	}
	return placed, pen
}

// Measure returns the total advance of text at the given pixel size.
func (s *Source) Measure(text string, size float64) float64 {
	var w float64
	for _, r := range text {
		w += s.Advance(r, size)
	}
	return w
}
