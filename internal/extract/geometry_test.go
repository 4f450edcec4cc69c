package extract

import (
	"math"
	"testing"

	"github.com/docfields/fieldextract-worker/internal/ocr"
)

func frag(text string, left, top, width, height float64) ocr.Fragment {
	return ocr.Fragment{Text: text, Left: left, Top: top, Width: width, Height: height}
}

func TestDistance(t *testing.T) {
	testCases := []struct {
		name string
		a, b ocr.Fragment
		want float64
	}{
		{
			name: "horizontal only",
			a:    frag("a", 0, 0, 10, 10),
			b:    frag("b", 30, 0, 10, 10),
			want: 30,
		},
		{
			name: "diagonal 3-4-5",
			a:    frag("a", 0, 0, 0, 0),
			b:    frag("b", 3, 4, 0, 0),
			want: 5,
		},
		{
			name: "identical centers",
			a:    frag("a", 10, 10, 20, 20),
			b:    frag("b", 10, 10, 20, 20),
			want: 0,
		},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			got := Distance(tc.a, tc.b)
			if math.Abs(got-tc.want) > 1e-9 {
				t.Errorf("Distance = %v, want %v", got, tc.want)
			}
			// Distance is symmetric
			if rev := Distance(tc.b, tc.a); math.Abs(rev-got) > 1e-9 {
				t.Errorf("Distance not symmetric: %v vs %v", got, rev)
			}
		})
	}
}

func TestIsRightOf(t *testing.T) {
	label := frag("Дата:", 0, 0, 60, 20)

	if !IsRightOf(label, frag("15.03.2024", 100, 0, 80, 20), 0) {
		t.Error("fragment starting past the label right edge should be right-of")
	}
	if IsRightOf(label, frag("x", 5, 0, 10, 20), 0) {
		t.Error("fragment overlapping the label should not be right-of with zero threshold")
	}
	// Threshold relaxes the edge test for slight overlaps
	if !IsRightOf(label, frag("x", 55, 0, 40, 20), 10) {
		t.Error("slightly overlapping fragment should be right-of with threshold 10")
	}
}

func TestIsBelowOf(t *testing.T) {
	label := frag("Счет", 0, 0, 60, 20)

	if !IsBelowOf(label, frag("40702810123456789012", 0, 30, 200, 20), 0) {
		t.Error("fragment below the label bottom should be below-of")
	}
	if IsBelowOf(label, frag("x", 0, 5, 60, 20), 0) {
		t.Error("fragment overlapping the label vertically should not be below-of")
	}
}

func TestIsSameLine(t *testing.T) {
	a := frag("a", 0, 0, 50, 20) // center y = 10

	testCases := []struct {
		name string
		b    ocr.Fragment
		want bool
	}{
		{"identical band", frag("b", 100, 0, 50, 20), true},
		{"within threshold", frag("b", 100, 8, 50, 20), true}, // center y = 18
		{"at threshold boundary", frag("b", 100, 10, 50, 20), false},
		{"clearly below", frag("b", 100, 40, 50, 20), false},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			if got := IsSameLine(a, tc.b, SameLineThreshold); got != tc.want {
				t.Errorf("IsSameLine = %v, want %v", got, tc.want)
			}
		})
	}
}
