package render

import (
	"sort"

	"github.com/ledongthuc/pdf"

	"github.com/prasadg/examsift/layout"
)

// lineTolerance is the max vertical distance (points) between glyphs
// considered to be on the same text line.
const lineTolerance = 2.0

// lineBlocks groups raw glyphs into text lines and returns one block per
// line, positioned at the line's leftmost x. Column detection only needs
// the x-origin of each piece of text, so a line is a good enough stand-in
// for a full text block.
func lineBlocks(texts []pdf.Text) []layout.Block {
	if len(texts) == 0 {
		return nil
	}

	sorted := make([]pdf.Text, len(texts))
	copy(sorted, texts)
	sort.Slice(sorted, func(i, j int) bool {
		if sorted[i].Y != sorted[j].Y {
			return sorted[i].Y > sorted[j].Y // top of page first
		}
		return sorted[i].X < sorted[j].X
	})

	var blocks []layout.Block
	lineY := sorted[0].Y
	lineX := sorted[0].X

	for _, t := range sorted[1:] {
		if lineY-t.Y > lineTolerance {
			blocks = append(blocks, layout.Block{X: lineX})
			lineY = t.Y
			lineX = t.X
			continue
		}
		if t.X < lineX {
			lineX = t.X
		}
	}
	blocks = append(blocks, layout.Block{X: lineX})

	return blocks
}
