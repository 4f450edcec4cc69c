/**
 * PaddleOCR adapter - normalizes PaddleOCR service output
 *
 * PaddleOCR reports each span as four corner points with confidence already
 * in [0,1]. The service wire format is a JSON array of fragment records;
 * Fragment.UnmarshalJSON handles the corner-point shape.
 */

package ocr

import (
	"encoding/json"
	"fmt"
)

// ParsePaddleOutput converts a PaddleOCR JSON result list into fragments.
// Empty-text spans are dropped and confidence is clamped into [0,1].
func ParsePaddleOutput(data []byte) ([]Fragment, error) {
	var fragments []Fragment
	if err := json.Unmarshal(data, &fragments); err != nil {
		return nil, fmt.Errorf("failed to parse paddle output: %w", err)
	}

	for i := range fragments {
		fragments[i].Conf = ClampConf(fragments[i].Conf)
	}

	return FilterEmpty(fragments), nil
}
