package errors

import (
	"errors"
	"fmt"
	"strings"
	"testing"
	"time"
)

func TestExtractionErrorMessage(t *testing.T) {
	plain := NewEmptyInputError("job-1")
	if got := plain.Error(); !strings.HasPrefix(got, "EMPTY_INPUT: ") {
		t.Errorf("Error() = %q, want EMPTY_INPUT prefix", got)
	}

	cause := fmt.Errorf("connection refused")
	wrapped := NewStorageFailedError("job-2", cause)
	if got := wrapped.Error(); !strings.Contains(got, "connection refused") {
		t.Errorf("Error() = %q, want cause included", got)
	}
}

func TestExtractionErrorUnwrap(t *testing.T) {
	cause := fmt.Errorf("tesseract crashed")
	err := NewOCRFailedError("job-3", "tesseract", cause)

	if !errors.Is(err, cause) {
		t.Error("errors.Is should see through the wrapper")
	}

	var extractionErr *ExtractionError
	if !errors.As(error(err), &extractionErr) {
		t.Fatal("errors.As failed")
	}
	if extractionErr.Code != ErrorOCRFailed {
		t.Errorf("code = %v, want %v", extractionErr.Code, ErrorOCRFailed)
	}
	if extractionErr.Details["engine"] != "tesseract" {
		t.Errorf("details = %v", extractionErr.Details)
	}
}

func TestExtractionErrorToMap(t *testing.T) {
	cause := fmt.Errorf("deadline exceeded")
	err := NewProcessingTimeoutError("job-4", 5*time.Minute, cause)

	m := err.ToMap()
	if m["error_code"] != "PROCESSING_TIMEOUT" {
		t.Errorf("error_code = %v", m["error_code"])
	}
	if m["timeout_duration"] != "5m0s" {
		t.Errorf("timeout_duration = %v", m["timeout_duration"])
	}
	if m["cause"] != "deadline exceeded" {
		t.Errorf("cause = %v", m["cause"])
	}
}

func TestUnsupportedEngineError(t *testing.T) {
	err := NewUnsupportedEngineError("job-5", "carrier-pigeon")
	if err.Code != ErrorUnsupportedEngine {
		t.Errorf("code = %v", err.Code)
	}
	if !strings.Contains(err.Error(), "carrier-pigeon") {
		t.Errorf("Error() = %q, want engine name", err.Error())
	}
}
