/**
 * Extraction orchestrator - composes the full field extraction pass
 *
 * Runs label matching first (authoritative), fills gaps from the regex
 * fallback, then classifies the document type. Stateless and free of I/O,
 * so one Extract call per document is safe to run concurrently from any
 * number of goroutines.
 */

package extract

import (
	"encoding/json"
	"errors"
	"strings"

	"github.com/docfields/fieldextract-worker/internal/ocr"
)

// ErrEmptyInput is returned when the fragment list is empty or contains
// only whitespace text. Callers running batches should record the failure
// and continue with the next document.
var ErrEmptyInput = errors.New("extract: no non-empty fragments in input")

// ConfidenceSummary aggregates per-fragment OCR confidence over fragments
// that reported one (conf > 0).
type ConfidenceSummary struct {
	Avg float64 `json:"avg"`
	Min float64 `json:"min"`
	Max float64 `json:"max"`
}

// Result is the flat extraction record. Fields holds only values that
// passed their normalizer; absence of a key means the field was not found.
type Result struct {
	Status     string
	RawText    string
	TotalItems int
	TotalLines int
	Confidence *ConfidenceSummary
	Fields     map[string]any
}

// MarshalJSON flattens Fields into the top-level object so consumers see
// one flat record. The confidence_summary and status keys are omitted
// when unset.
func (r *Result) MarshalJSON() ([]byte, error) {
	out := make(map[string]any, len(r.Fields)+5)
	for k, v := range r.Fields {
		out[k] = v
	}
	out["raw_text"] = r.RawText
	out["total_items"] = r.TotalItems
	out["total_lines"] = r.TotalLines
	if r.Confidence != nil {
		out["confidence_summary"] = r.Confidence
	}
	if r.Status != "" {
		out["status"] = r.Status
	}
	return json.Marshal(out)
}

// labelFieldSpec binds a label-driven field to its positional preference
// and normalizer. Account values sit right of or below their label on bank
// requisites blocks, the rest sit to the right.
type labelFieldSpec struct {
	field       string
	preferRight bool
	preferBelow bool
	normalize   func(string) (any, bool)
}

var labelFields = []labelFieldSpec{
	{FieldFIO, true, false, func(s string) (any, bool) { v, ok := NormalizeFIO(s); return v, ok }},
	{FieldDate, true, false, func(s string) (any, bool) { v, ok := NormalizeDate(s); return v, ok }},
	{FieldSum, true, false, func(s string) (any, bool) { v, ok := NormalizeSum(s); return v, ok }},
	{FieldContractNumber, true, false, func(s string) (any, bool) { v, ok := NormalizeContractNumber(s); return v, ok }},
	{FieldAccount, true, true, func(s string) (any, bool) { v, ok := NormalizeAccount(s); return v, ok }},
}

// fallbackFields are the field types the regex fallback may fill when the
// label pass left them absent.
var fallbackFields = []string{
	FieldFIO, FieldDate, FieldSum, FieldContractNumber,
	FieldAccount, FieldPhone, FieldEmail, FieldINN,
}

// Extract runs the full extraction sequence over one document's fragments.
// raw_text joins every fragment text in input order; spatial passes work
// on the whitespace-filtered list.
func Extract(fragments []ocr.Fragment) (*Result, error) {
	filtered := ocr.FilterEmpty(fragments)
	if len(filtered) == 0 {
		return nil, ErrEmptyInput
	}

	texts := make([]string, len(fragments))
	for i, f := range fragments {
		texts[i] = f.Text
	}
	rawText := strings.Join(texts, " ")

	lines := GroupLines(filtered, SameLineThreshold)

	result := &Result{
		RawText:    rawText,
		TotalItems: len(fragments),
		TotalLines: len(lines),
		Fields:     make(map[string]any),
	}
	result.Confidence = confidenceSummary(filtered)

	for _, spec := range labelFields {
		match, ok := FindByLabel(filtered, FieldLabels[spec.field], LabelMaxDistance, spec.preferRight, spec.preferBelow)
		if !ok {
			continue
		}
		if value, valid := spec.normalize(match.Value); valid {
			result.Fields[spec.field] = value
		}
	}

	fallback := RegexFallback(rawText)
	for _, field := range fallbackFields {
		if _, present := result.Fields[field]; present {
			continue
		}
		if value, found := fallback[field]; found {
			result.Fields[field] = value
		}
	}

	result.Fields[FieldDocType] = DetectDocType(rawText, result.Fields)

	return result, nil
}

// confidenceSummary averages over fragments that reported a confidence.
// Returns nil when none did, so the summary key is omitted from output.
func confidenceSummary(fragments []ocr.Fragment) *ConfidenceSummary {
	var sum, minC, maxC float64
	count := 0
	for _, f := range fragments {
		if f.Conf <= 0 {
			continue
		}
		if count == 0 || f.Conf < minC {
			minC = f.Conf
		}
		if count == 0 || f.Conf > maxC {
			maxC = f.Conf
		}
		sum += f.Conf
		count++
	}
	if count == 0 {
		return nil
	}
	return &ConfidenceSummary{
		Avg: sum / float64(count),
		Min: minC,
		Max: maxC,
	}
}
