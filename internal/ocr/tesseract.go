/**
 * Tesseract adapter - offline OCR producing canonical fragments
 *
 * Wraps gosseract word-level recognition. Tesseract reports confidence in
 * the 0-100 range; fragments carry it normalized to [0,1].
 */

package ocr

import (
	"context"
	"fmt"
	"strings"

	"github.com/otiai10/gosseract/v2"
)

// TesseractEngine recognizes word fragments from image bytes.
type TesseractEngine struct {
	languages []string
}

// TesseractConfig holds Tesseract configuration.
type TesseractConfig struct {
	Languages []string // e.g. ["rus", "eng"]; empty uses the tesseract default
}

// NewTesseractEngine creates a new Tesseract adapter.
func NewTesseractEngine(cfg *TesseractConfig) *TesseractEngine {
	if cfg == nil {
		cfg = &TesseractConfig{}
	}
	return &TesseractEngine{languages: cfg.Languages}
}

// Recognize runs word-level OCR on image bytes and converts every word box
// into a Fragment. Words that are empty after trimming are dropped here, the
// same filtering the extraction engine applies to collaborator input.
func (t *TesseractEngine) Recognize(ctx context.Context, image []byte) ([]Fragment, error) {
	if len(image) == 0 {
		return nil, fmt.Errorf("image data is required")
	}

	client := gosseract.NewClient()
	defer client.Close()

	if len(t.languages) > 0 {
		if err := client.SetLanguage(t.languages...); err != nil {
			return nil, fmt.Errorf("failed to set tesseract languages: %w", err)
		}
	}

	if err := client.SetImageFromBytes(image); err != nil {
		return nil, fmt.Errorf("failed to set image: %w", err)
	}

	boxes, err := client.GetBoundingBoxes(gosseract.RIL_WORD)
	if err != nil {
		return nil, fmt.Errorf("tesseract OCR failed: %w", err)
	}

	fragments := make([]Fragment, 0, len(boxes))
	for _, b := range boxes {
		text := strings.TrimSpace(b.Word)
		if text == "" {
			continue
		}

		fragments = append(fragments, Fragment{
			Text:   text,
			Left:   float64(b.Box.Min.X),
			Top:    float64(b.Box.Min.Y),
			Width:  float64(b.Box.Dx()),
			Height: float64(b.Box.Dy()),
			Conf:   ClampConf(b.Confidence / 100.0),
		})
	}

	return fragments, nil
}
