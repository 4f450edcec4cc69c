package errors

import (
	"fmt"
	"time"
)

/**
 * Custom error types for the field extraction worker
 *
 * Design Pattern: Factory Pattern for error creation
 * SOLID Principle: Single Responsibility (each error type has one purpose)
 */

// ErrorCode enum for structured error handling
type ErrorCode string

const (
	// Extraction errors
	ErrorEmptyInput        ErrorCode = "EMPTY_INPUT"
	ErrorOCRFailed         ErrorCode = "OCR_FAILED"
	ErrorUnsupportedEngine ErrorCode = "UNSUPPORTED_ENGINE"

	// Infrastructure errors
	ErrorStorageFailed     ErrorCode = "STORAGE_FAILED"
	ErrorProcessingTimeout ErrorCode = "PROCESSING_TIMEOUT"
)

// ExtractionError represents a structured extraction pipeline error
type ExtractionError struct {
	Code      ErrorCode
	Message   string
	JobID     string
	Timestamp time.Time
	Details   map[string]interface{}
	Cause     error
}

func (e *ExtractionError) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("%s: %s (caused by: %v)", e.Code, e.Message, e.Cause)
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

func (e *ExtractionError) Unwrap() error {
	return e.Cause
}

// Factory functions for common errors

func NewEmptyInputError(jobID string) *ExtractionError {
	return &ExtractionError{
		Code:      ErrorEmptyInput,
		Message:   "No non-empty OCR fragments in input",
		JobID:     jobID,
		Timestamp: time.Now(),
	}
}

func NewOCRFailedError(jobID string, engine string, cause error) *ExtractionError {
	return &ExtractionError{
		Code:      ErrorOCRFailed,
		Message:   fmt.Sprintf("OCR failed with engine: %s", engine),
		JobID:     jobID,
		Timestamp: time.Now(),
		Details: map[string]interface{}{
			"engine": engine,
		},
		Cause: cause,
	}
}

func NewUnsupportedEngineError(jobID string, engine string) *ExtractionError {
	return &ExtractionError{
		Code:      ErrorUnsupportedEngine,
		Message:   fmt.Sprintf("Unsupported OCR engine: %s", engine),
		JobID:     jobID,
		Timestamp: time.Now(),
		Details: map[string]interface{}{
			"engine": engine,
		},
	}
}

func NewStorageFailedError(jobID string, cause error) *ExtractionError {
	return &ExtractionError{
		Code:      ErrorStorageFailed,
		Message:   "Failed to store extraction results",
		JobID:     jobID,
		Timestamp: time.Now(),
		Cause:     cause,
	}
}

func NewProcessingTimeoutError(jobID string, duration time.Duration, cause error) *ExtractionError {
	return &ExtractionError{
		Code:      ErrorProcessingTimeout,
		Message:   fmt.Sprintf("Processing timed out after %v", duration),
		JobID:     jobID,
		Timestamp: time.Now(),
		Details: map[string]interface{}{
			"timeout_duration": duration.String(),
		},
		Cause: cause,
	}
}

// ToMap converts error to map for database storage
func (e *ExtractionError) ToMap() map[string]interface{} {
	result := map[string]interface{}{
		"error_code": string(e.Code),
		"message":    e.Message,
		"timestamp":  e.Timestamp,
	}

	for k, v := range e.Details {
		result[k] = v
	}

	if e.Cause != nil {
		result["cause"] = e.Cause.Error()
	}

	return result
}
