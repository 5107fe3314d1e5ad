// Package layout reconstructs the printed line structure of a receipt from
// the unordered word bag produced by OCR
package layout

import (
	"sort"
	"strings"

	"bonscan/internal/core/ocr"
)

const (
	// fallbackThreshold is used when word heights are unusable
	fallbackThreshold = 15.0

	// heightFactor scales the median glyph height into a clustering band.
	// Clamped so extreme OCR boxes cannot collapse or shred the layout
	heightFactor = 0.6
	minThreshold = 8.0
	maxThreshold = 24.0
)

// Line is one printed receipt line: words sharing a vertical band, ordered
// left to right. Lines are immutable once built
type Line struct {
	Text       string
	Words      []ocr.Word
	Y          float64 // vertical centroid
	XMin       float64
	XMax       float64
	Confidence float64 // mean word confidence
	Index      int     // top-to-bottom position
}

// Reconstruct clusters words into ordered lines. Words whose vertical
// centers fall within the clustering threshold share a line; within a line
// words are sorted by ascending x and joined by single spaces; lines are
// sorted by ascending y. Never panics on skewed or empty input
func Reconstruct(words []ocr.Word) []Line {
	if len(words) == 0 {
		return nil
	}

	threshold := clusterThreshold(words)

	sorted := make([]ocr.Word, len(words))
	copy(sorted, words)
	sort.SliceStable(sorted, func(i, j int) bool {
		return sorted[i].CenterY() < sorted[j].CenterY()
	})

	var groups [][]ocr.Word
	current := []ocr.Word{sorted[0]}
	currentY := sorted[0].CenterY()

	for _, w := range sorted[1:] {
		if w.CenterY()-currentY <= threshold {
			current = append(current, w)
			continue
		}
		groups = append(groups, current)
		current = []ocr.Word{w}
		currentY = w.CenterY()
	}
	groups = append(groups, current)

	lines := make([]Line, 0, len(groups))
	for i, g := range groups {
		lines = append(lines, buildLine(g, i))
	}
	return lines
}

// Texts returns the rendered text of each line in order
func Texts(lines []Line) []string {
	out := make([]string, len(lines))
	for i, l := range lines {
		out[i] = l.Text
	}
	return out
}

// clusterThreshold adapts the vertical band to the receipt's glyph size.
// Fixed pixel thresholds misbehave across font sizes and image resolutions,
// so the band follows the median word height
func clusterThreshold(words []ocr.Word) float64 {
	heights := make([]float64, 0, len(words))
	for _, w := range words {
		if w.Box.Height > 0 {
			heights = append(heights, w.Box.Height)
		}
	}
	if len(heights) == 0 {
		return fallbackThreshold
	}
	sort.Float64s(heights)
	median := heights[len(heights)/2]
	if len(heights)%2 == 0 {
		median = (heights[len(heights)/2-1] + heights[len(heights)/2]) / 2
	}
	t := median * heightFactor
	if t < minThreshold {
		return minThreshold
	}
	if t > maxThreshold {
		return maxThreshold
	}
	return t
}

func buildLine(words []ocr.Word, index int) Line {
	sort.SliceStable(words, func(i, j int) bool {
		return words[i].Box.X < words[j].Box.X
	})

	parts := make([]string, len(words))
	var ySum, conf, xMin, xMax float64
	xMin = words[0].Box.X
	for i, w := range words {
		parts[i] = w.Text
		ySum += w.CenterY()
		conf += w.Confidence
		if w.Box.X < xMin {
			xMin = w.Box.X
		}
		if right := w.Box.X + w.Box.Width; right > xMax {
			xMax = right
		}
	}

	return Line{
		Text:       strings.Join(parts, " "),
		Words:      words,
		Y:          ySum / float64(len(words)),
		XMin:       xMin,
		XMax:       xMax,
		Confidence: conf / float64(len(words)),
		Index:      index,
	}
}
