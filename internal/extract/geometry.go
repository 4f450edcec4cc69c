/**
 * Bounding-box geometry for the field extraction engine
 *
 * Pure predicates over fragment boxes in OCR pixel coordinates. Thresholds
 * are absolute pixel values, not derived from font size - a known limitation
 * on documents scanned at unusual resolutions.
 */

package extract

import (
	"math"

	"github.com/docfields/fieldextract-worker/internal/ocr"
)

// Default tunables for geometry and label matching. Values mirror the
// behavior the lexicons were tuned against; changing them shifts which
// value fragment wins for a given label.
const (
	// SameLineThreshold is the max vertical-center delta for two fragments
	// to count as the same text line.
	SameLineThreshold = 10.0

	// LabelMaxDistance is how far from a label fragment a value fragment
	// may sit and still be considered.
	LabelMaxDistance = 300.0

	// Positional preference multipliers. Lower priority scores win, so a
	// multiplier < 1 favors the candidate. They compound: a candidate that
	// is both right-of and same-line scores distance * 0.5 * 0.3.
	rightOfMultiplier  = 0.5
	belowOfMultiplier  = 0.5
	sameLineMultiplier = 0.3
)

// Distance returns the Euclidean distance between two fragment centers.
// Zero-sized boxes degrade gracefully: their center is their origin.
func Distance(a, b ocr.Fragment) float64 {
	dx := b.CenterX() - a.CenterX()
	dy := b.CenterY() - a.CenterY()
	return math.Sqrt(dx*dx + dy*dy)
}

// IsRightOf reports whether b sits to the right of a. The threshold relaxes
// the test, letting boxes that slightly overlap still count.
func IsRightOf(a, b ocr.Fragment, threshold float64) bool {
	return b.Left > a.Right()-threshold
}

// IsBelowOf reports whether b sits below a.
func IsBelowOf(a, b ocr.Fragment, threshold float64) bool {
	return b.Top > a.Bottom()-threshold
}

// IsSameLine reports whether two fragments share a vertical band.
func IsSameLine(a, b ocr.Fragment, threshold float64) bool {
	return math.Abs(a.CenterY()-b.CenterY()) < threshold
}
