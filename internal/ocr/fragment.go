/**
 * OCR Fragment - Canonical text unit shared by all OCR engine adapters
 *
 * Every engine adapter (Tesseract, PaddleOCR service) converts its native
 * output into []Fragment. Downstream code never sees engine-specific shapes.
 */

package ocr

import (
	"encoding/json"
	"fmt"
	"strings"
)

// Fragment is one recognized text span with a bounding box and confidence.
// Confidence is normalized to [0,1] regardless of the engine-native range.
// The box is carried in left/top/width/height form; when an engine reports
// four corner points instead, the envelope of those points is used.
type Fragment struct {
	Text   string
	Left   float64
	Top    float64
	Width  float64
	Height float64
	Conf   float64
	Box    [][2]float64 // optional corner points as reported by the engine
}

// CenterX returns the horizontal center of the bounding box.
// Centers are derived, never stored: they stay consistent with the box.
func (f Fragment) CenterX() float64 {
	return f.Left + f.Width/2
}

// CenterY returns the vertical center of the bounding box.
func (f Fragment) CenterY() float64 {
	return f.Top + f.Height/2
}

// Right returns the right edge of the bounding box.
func (f Fragment) Right() float64 {
	return f.Left + f.Width
}

// Bottom returns the bottom edge of the bounding box.
func (f Fragment) Bottom() float64 {
	return f.Top + f.Height
}

// fragmentJSON mirrors the two wire shapes produced by OCR collaborators:
// {left,top,width,height} or {box:[[x,y]x4]}. Pointer fields distinguish
// "absent" from zero.
type fragmentJSON struct {
	Text   string       `json:"text"`
	Conf   float64      `json:"conf"`
	Left   *float64     `json:"left,omitempty"`
	Top    *float64     `json:"top,omitempty"`
	Width  *float64     `json:"width,omitempty"`
	Height *float64     `json:"height,omitempty"`
	Box    [][2]float64 `json:"box,omitempty"`
}

// UnmarshalJSON accepts both bounding-box shapes transparently.
// Explicit left/top/width/height wins when both shapes are present.
func (f *Fragment) UnmarshalJSON(data []byte) error {
	var raw fragmentJSON
	if err := json.Unmarshal(data, &raw); err != nil {
		return fmt.Errorf("failed to unmarshal fragment: %w", err)
	}

	f.Text = raw.Text
	f.Conf = raw.Conf
	f.Box = raw.Box

	if raw.Left != nil || raw.Top != nil || raw.Width != nil || raw.Height != nil {
		if raw.Left != nil {
			f.Left = *raw.Left
		}
		if raw.Top != nil {
			f.Top = *raw.Top
		}
		if raw.Width != nil {
			f.Width = *raw.Width
		}
		if raw.Height != nil {
			f.Height = *raw.Height
		}
		return nil
	}

	if len(raw.Box) > 0 {
		f.Left, f.Top, f.Width, f.Height = envelope(raw.Box)
		return nil
	}

	return fmt.Errorf("fragment %q has no bounding box (need left/top/width/height or box)", raw.Text)
}

// MarshalJSON emits the left/top/width/height shape, keeping corner points
// when the source engine provided them.
func (f Fragment) MarshalJSON() ([]byte, error) {
	raw := fragmentJSON{
		Text:   f.Text,
		Conf:   f.Conf,
		Left:   &f.Left,
		Top:    &f.Top,
		Width:  &f.Width,
		Height: &f.Height,
		Box:    f.Box,
	}
	return json.Marshal(raw)
}

// envelope computes the min/max bounding rectangle over corner points.
func envelope(points [][2]float64) (left, top, width, height float64) {
	if len(points) == 0 {
		return 0, 0, 0, 0
	}

	minX, minY := points[0][0], points[0][1]
	maxX, maxY := minX, minY
	for _, p := range points[1:] {
		if p[0] < minX {
			minX = p[0]
		}
		if p[0] > maxX {
			maxX = p[0]
		}
		if p[1] < minY {
			minY = p[1]
		}
		if p[1] > maxY {
			maxY = p[1]
		}
	}

	return minX, minY, maxX - minX, maxY - minY
}

// FilterEmpty drops fragments whose text is empty after trimming.
// Empty fragments carry no content but would skew line bounding boxes.
func FilterEmpty(fragments []Fragment) []Fragment {
	filtered := make([]Fragment, 0, len(fragments))
	for _, f := range fragments {
		if strings.TrimSpace(f.Text) == "" {
			continue
		}
		filtered = append(filtered, f)
	}
	return filtered
}

// ClampConf clamps a confidence value into [0,1].
func ClampConf(conf float64) float64 {
	if conf < 0 {
		return 0
	}
	if conf > 1 {
		return 1
	}
	return conf
}
