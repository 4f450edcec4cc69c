/**
 * Line grouping - clusters unordered OCR fragments into reading-order lines
 *
 * Two groupings live here:
 *  - GroupLines: seed-based greedy clustering used for line statistics.
 *    Membership is decided against the seed fragment, not a running
 *    centroid, so lines with large fragment-height variance can mis-group.
 *    That heuristic is kept deliberately; see the package tests.
 *  - readingOrderLines: centroid-based clustering used only to assemble
 *    reading-order plaintext for diagnostics.
 */

package extract

import (
	"sort"
	"strings"

	"github.com/docfields/fieldextract-worker/internal/ocr"
)

// Line is a derived grouping of fragments sharing a vertical band.
// Membership is decided once at construction; lines are never merged or
// split afterward.
type Line struct {
	Index      int            // ordinal in top-to-bottom reading order
	Text       string         // member texts joined by single space, left to right
	Fragments  []ocr.Fragment // members sorted by left edge
	Left       float64
	Top        float64
	Right      float64
	Bottom     float64
	Confidence float64 // arithmetic mean of member confidences
}

// CenterY returns the vertical center of the line envelope.
func (l Line) CenterY() float64 {
	return (l.Top + l.Bottom) / 2
}

// GroupLines clusters fragments into lines by vertical-center proximity.
// Fragments are expected to be pre-filtered of empty text. The pass is
// greedy and single: each unclustered fragment opens a new line and absorbs
// every later unclustered fragment on the same line as that seed.
func GroupLines(fragments []ocr.Fragment, threshold float64) []Line {
	if len(fragments) == 0 {
		return nil
	}

	lines := make([]Line, 0)
	used := make([]bool, len(fragments))

	for i := range fragments {
		if used[i] {
			continue
		}

		seed := fragments[i]
		members := []ocr.Fragment{seed}
		used[i] = true

		for j := range fragments {
			if used[j] {
				continue
			}
			if IsSameLine(seed, fragments[j], threshold) {
				members = append(members, fragments[j])
				used[j] = true
			}
		}

		lines = append(lines, buildLine(members))
	}

	sort.SliceStable(lines, func(a, b int) bool {
		return lines[a].CenterY() < lines[b].CenterY()
	})

	for i := range lines {
		lines[i].Index = i
	}

	return lines
}

// buildLine sorts members left to right and aggregates text, envelope and
// mean confidence. Confidence is unweighted by text length.
func buildLine(members []ocr.Fragment) Line {
	sort.SliceStable(members, func(a, b int) bool {
		return members[a].Left < members[b].Left
	})

	texts := make([]string, 0, len(members))
	line := Line{
		Fragments: members,
		Left:      members[0].Left,
		Top:       members[0].Top,
		Right:     members[0].Right(),
		Bottom:    members[0].Bottom(),
	}

	confSum := 0.0
	for _, m := range members {
		texts = append(texts, m.Text)
		confSum += m.Conf
		if m.Left < line.Left {
			line.Left = m.Left
		}
		if m.Top < line.Top {
			line.Top = m.Top
		}
		if m.Right() > line.Right {
			line.Right = m.Right()
		}
		if m.Bottom() > line.Bottom {
			line.Bottom = m.Bottom()
		}
	}

	line.Text = strings.Join(texts, " ")
	line.Confidence = confSum / float64(len(members))
	return line
}

// readingOrderLines groups fragments into lines by comparing each fragment
// against the running vertical centroid of a candidate line. Unlike
// GroupLines this tolerates gradual drift, which reads better as plaintext.
func readingOrderLines(fragments []ocr.Fragment, threshold float64) [][]ocr.Fragment {
	var groups [][]ocr.Fragment

	for _, f := range fragments {
		placed := false
		for gi, group := range groups {
			centroid := 0.0
			for _, m := range group {
				centroid += m.CenterY()
			}
			centroid /= float64(len(group))

			if abs(f.CenterY()-centroid) < threshold {
				groups[gi] = append(groups[gi], f)
				placed = true
				break
			}
		}
		if !placed {
			groups = append(groups, []ocr.Fragment{f})
		}
	}

	sort.SliceStable(groups, func(a, b int) bool {
		return groupCentroid(groups[a]) < groupCentroid(groups[b])
	})

	for _, group := range groups {
		sort.SliceStable(group, func(a, b int) bool {
			return group[a].CenterX() < group[b].CenterX()
		})
	}

	return groups
}

func groupCentroid(group []ocr.Fragment) float64 {
	sum := 0.0
	for _, m := range group {
		sum += m.CenterY()
	}
	return sum / float64(len(group))
}

// SortByReadingOrder returns fragments sorted top-to-bottom, left-to-right.
func SortByReadingOrder(fragments []ocr.Fragment, threshold float64) []ocr.Fragment {
	if len(fragments) == 0 {
		return nil
	}

	sorted := make([]ocr.Fragment, 0, len(fragments))
	for _, group := range readingOrderLines(fragments, threshold) {
		sorted = append(sorted, group...)
	}
	return sorted
}

// Plaintext assembles recognized text in reading order, joining words with
// spaces and lines with sep. Used for the stored diagnostics text, not by
// the label matcher.
func Plaintext(fragments []ocr.Fragment, sep string) string {
	if len(fragments) == 0 {
		return ""
	}

	var lines []string
	for _, group := range readingOrderLines(fragments, SameLineThreshold) {
		words := make([]string, 0, len(group))
		for _, f := range group {
			if f.Text != "" {
				words = append(words, f.Text)
			}
		}
		if len(words) > 0 {
			lines = append(lines, strings.Join(words, " "))
		}
	}

	return strings.Join(lines, sep)
}

func abs(x float64) float64 {
	if x < 0 {
		return -x
	}
	return x
}
