/**
 * Document Extractor for the field extraction worker
 *
 * Orchestrates the per-document pipeline:
 * - Obtain OCR fragments (inline, PaddleOCR service, or local Tesseract)
 * - Run spatial field extraction over the fragments
 * - Apply rules-based postprocessing
 * - Vectorize the document text and store record + vector atomically
 */

package processor

import (
	"context"
	"errors"
	"fmt"
	"log"
	"time"

	"github.com/docfields/fieldextract-worker/internal/clients"
	apperrors "github.com/docfields/fieldextract-worker/internal/errors"
	"github.com/docfields/fieldextract-worker/internal/extract"
	"github.com/docfields/fieldextract-worker/internal/ocr"
	"github.com/docfields/fieldextract-worker/internal/postprocess"
	"github.com/docfields/fieldextract-worker/internal/storage"
)

// Supported OCR engines. Fragments may also arrive inline, in which case
// no engine runs.
const (
	EngineInline    = "inline"
	EngineTesseract = "tesseract"
	EnginePaddle    = "paddle"
)

// DocumentExtractorInterface defines the interface for document extraction
type DocumentExtractorInterface interface {
	ProcessDocument(ctx context.Context, req *ExtractRequest) (*ExtractResult, error)
	UpdateJobStatus(ctx context.Context, jobID string, status string, metadata map[string]interface{}) error
}

// ExtractorConfig holds extractor configuration
type ExtractorConfig struct {
	PaddleURL      string
	TesseractLangs []string
	MaxFragments   int
	StorageManager *storage.StorageManager
}

// ExtractRequest represents a document extraction request
type ExtractRequest struct {
	JobID       string
	UserID      string
	Filename    string
	Engine      string // "inline", "tesseract", or "paddle"
	Language    string
	Fragments   []ocr.Fragment // used when Engine is "inline"
	ImageBuffer []byte         // used when an OCR engine must run
	Metadata    map[string]interface{}
}

// ExtractResult represents the extraction outcome
type ExtractResult struct {
	RecordID         string
	Status           string
	DocType          string
	Fields           map[string]interface{}
	FieldsExtracted  int
	Confidence       float64
	EngineUsed       string
	ProcessingTimeMs int64
}

// DocumentExtractor handles document field extraction
type DocumentExtractor struct {
	config       *ExtractorConfig
	storage      *storage.StorageManager
	paddleClient *clients.PaddleClient
	tesseract    *ocr.TesseractEngine
}

// NewDocumentExtractor creates a new document extractor
func NewDocumentExtractor(cfg *ExtractorConfig) (*DocumentExtractor, error) {
	if cfg == nil {
		return nil, fmt.Errorf("config is required")
	}

	if cfg.StorageManager == nil {
		return nil, fmt.Errorf("storage manager is required")
	}

	var paddleClient *clients.PaddleClient
	if cfg.PaddleURL != "" {
		paddleClient = clients.NewPaddleClient(cfg.PaddleURL)
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := paddleClient.HealthCheck(ctx); err != nil {
			log.Printf("WARNING: PaddleOCR health check failed: %v. Paddle jobs will fail until it recovers.", err)
		} else {
			log.Printf("PaddleOCR connection verified: %s", cfg.PaddleURL)
		}
	} else {
		log.Printf("WARNING: PaddleOCR URL not configured. Only inline and tesseract engines available.")
	}

	tesseract := ocr.NewTesseractEngine(&ocr.TesseractConfig{
		Languages: cfg.TesseractLangs,
	})

	return &DocumentExtractor{
		config:       cfg,
		storage:      cfg.StorageManager,
		paddleClient: paddleClient,
		tesseract:    tesseract,
	}, nil
}

// ProcessDocument runs the complete extraction pipeline for one document
func (e *DocumentExtractor) ProcessDocument(ctx context.Context, req *ExtractRequest) (*ExtractResult, error) {
	startTime := time.Now()
	log.Printf("[Job %s] Starting extraction pipeline (engine: %s)", req.JobID, req.Engine)

	// Step 1: Obtain OCR fragments
	fragments, engineUsed, err := e.obtainFragments(ctx, req)
	if err != nil {
		return nil, err
	}
	log.Printf("[Job %s] Step 1 complete: %d fragments (engine: %s)", req.JobID, len(fragments), engineUsed)

	// Step 2: Bound fragment count. The extraction pass is quadratic in
	// fragments, so runaway OCR output is truncated rather than processed.
	if e.config.MaxFragments > 0 && len(fragments) > e.config.MaxFragments {
		log.Printf("[Job %s] Truncating fragments: %d > %d", req.JobID, len(fragments), e.config.MaxFragments)
		fragments = fragments[:e.config.MaxFragments]
	}

	// Step 3: Run field extraction
	log.Printf("[Job %s] Step 3: Extracting fields", req.JobID)
	extraction, err := extract.Extract(fragments)
	if errors.Is(err, extract.ErrEmptyInput) {
		// Batch callers continue past empty documents; record the failure
		// as an error-status job instead of retrying.
		return e.handleEmptyInput(ctx, req, engineUsed, startTime)
	}
	if err != nil {
		return nil, fmt.Errorf("extraction failed: %w", err)
	}
	log.Printf("[Job %s] Extraction complete: %d fields, %d lines, doc_type=%v",
		req.JobID, len(extraction.Fields), extraction.TotalLines, extraction.Fields[extract.FieldDocType])

	// Step 4: Rules-based postprocessing
	log.Printf("[Job %s] Step 4: Applying postprocessing rules", req.JobID)
	fields := postprocess.Process(extraction.Fields, extraction.RawText)

	docType := extract.DocTypeUnknown
	if dt, ok := fields[extract.FieldDocType].(string); ok {
		docType = dt
	}

	confidence := 0.0
	if c, ok := fields["extraction_confidence"].(float64); ok {
		confidence = c
	}

	// Step 5: Vectorize document text for similarity search
	log.Printf("[Job %s] Step 5: Vectorizing document text", req.JobID)
	plaintext := extract.Plaintext(ocr.FilterEmpty(fragments), " ")
	vector := storage.Vectorize(plaintext)

	// Step 6: Store record + vector atomically
	log.Printf("[Job %s] Step 6: Storing extraction record", req.JobID)
	stored, err := e.storage.StoreRecord(ctx, &storage.RecordInput{
		JobID:   req.JobID,
		DocType: docType,
		Fields:  fields,
		RawText: extraction.RawText,
		Vector:  vector,
	})
	if err != nil {
		return nil, apperrors.NewStorageFailedError(req.JobID, err)
	}
	log.Printf("[Job %s] Record stored: recordId=%s, qdrantPointId=%s",
		req.JobID, stored.ID, stored.QdrantPointID)

	fieldsExtracted := 0
	if n, ok := fields["fields_extracted"].(int); ok {
		fieldsExtracted = n
	}

	result := &ExtractResult{
		RecordID:         stored.ID,
		Status:           "completed",
		DocType:          docType,
		Fields:           fields,
		FieldsExtracted:  fieldsExtracted,
		Confidence:       confidence,
		EngineUsed:       engineUsed,
		ProcessingTimeMs: time.Since(startTime).Milliseconds(),
	}

	log.Printf("[Job %s] Pipeline complete: recordId=%s, doc_type=%s, confidence=%.2f, duration=%dms",
		req.JobID, stored.ID, docType, confidence, result.ProcessingTimeMs)

	return result, nil
}

// obtainFragments resolves the fragment source for a request. Each engine
// has one explicit conversion path producing canonical fragments.
func (e *DocumentExtractor) obtainFragments(ctx context.Context, req *ExtractRequest) ([]ocr.Fragment, string, error) {
	engine := req.Engine
	if engine == "" {
		if len(req.Fragments) > 0 {
			engine = EngineInline
		} else {
			engine = EngineTesseract
		}
	}

	switch engine {
	case EngineInline:
		return req.Fragments, EngineInline, nil

	case EngineTesseract:
		if len(req.ImageBuffer) == 0 {
			return nil, "", apperrors.NewOCRFailedError(req.JobID, EngineTesseract,
				fmt.Errorf("no image buffer provided"))
		}
		fragments, err := e.tesseract.Recognize(ctx, req.ImageBuffer)
		if err != nil {
			return nil, "", apperrors.NewOCRFailedError(req.JobID, EngineTesseract, err)
		}
		return fragments, EngineTesseract, nil

	case EnginePaddle:
		if e.paddleClient == nil {
			return nil, "", apperrors.NewOCRFailedError(req.JobID, EnginePaddle,
				fmt.Errorf("paddle client not configured"))
		}
		if len(req.ImageBuffer) == 0 {
			return nil, "", apperrors.NewOCRFailedError(req.JobID, EnginePaddle,
				fmt.Errorf("no image buffer provided"))
		}
		fragments, err := e.paddleClient.Recognize(ctx, req.ImageBuffer, req.Language, req.JobID)
		if err != nil {
			return nil, "", apperrors.NewOCRFailedError(req.JobID, EnginePaddle, err)
		}
		return fragments, EnginePaddle, nil

	default:
		return nil, "", apperrors.NewUnsupportedEngineError(req.JobID, engine)
	}
}

// handleEmptyInput records an empty-input failure so the batch continues.
// The job is marked error-status but the task itself is consumed, not
// retried: empty input is deterministic.
func (e *DocumentExtractor) handleEmptyInput(ctx context.Context, req *ExtractRequest, engineUsed string, startTime time.Time) (*ExtractResult, error) {
	emptyErr := apperrors.NewEmptyInputError(req.JobID)
	log.Printf("[Job %s] Empty input: %v", req.JobID, emptyErr)

	update := &storage.JobUpdate{
		JobID:            req.JobID,
		Status:           "error",
		ErrorCode:        string(emptyErr.Code),
		ErrorMessage:     emptyErr.Message,
		EngineUsed:       engineUsed,
		ProcessingTimeMs: time.Since(startTime).Milliseconds(),
		Metadata:         req.Metadata,
	}
	if err := e.storage.UpdateJobStatus(ctx, update); err != nil {
		log.Printf("[Job %s] WARNING: failed to record empty-input error: %v", req.JobID, err)
	}

	return &ExtractResult{
		Status:           "error",
		DocType:          extract.DocTypeUnknown,
		Fields:           map[string]interface{}{},
		EngineUsed:       engineUsed,
		ProcessingTimeMs: time.Since(startTime).Milliseconds(),
	}, nil
}

// UpdateJobStatus updates job status in the database
func (e *DocumentExtractor) UpdateJobStatus(ctx context.Context, jobID string, status string, metadata map[string]interface{}) error {
	update := &storage.JobUpdate{
		JobID:    jobID,
		Status:   status,
		Metadata: metadata,
	}

	if metadata != nil {
		if confidence, ok := metadata["confidence"].(float64); ok {
			update.Confidence = confidence
		}
		if processingTime, ok := metadata["processingTime"].(int64); ok {
			update.ProcessingTimeMs = processingTime
		}
		if recordID, ok := metadata["recordId"].(string); ok {
			update.RecordID = recordID
		}
		if engineUsed, ok := metadata["engineUsed"].(string); ok {
			update.EngineUsed = engineUsed
		}
		if errorMsg, ok := metadata["error"].(string); ok {
			update.ErrorCode = "PROCESSING_ERROR"
			update.ErrorMessage = errorMsg
		}
	}

	return e.storage.UpdateJobStatus(ctx, update)
}
