/**
 * PostgreSQL Client for the field extraction worker
 *
 * Handles job persistence and extraction record storage.
 */

package storage

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"time"

	_ "github.com/lib/pq"
)

// PostgresClient handles database operations
type PostgresClient struct {
	db *sql.DB
}

// JobUpdate represents a job status update
type JobUpdate struct {
	JobID            string
	Status           string
	Confidence       float64
	ProcessingTimeMs int64
	RecordID         string
	ErrorCode        string
	ErrorMessage     string
	EngineUsed       string
	Metadata         map[string]interface{}
}

// ExtractionRecord holds one document's extraction output. The similarity
// vector itself lives in Qdrant, referenced by QdrantPointID.
type ExtractionRecord struct {
	ID            string
	JobID         string
	QdrantPointID string
	DocType       string
	Fields        map[string]interface{}
	RawText       string
}

// sanitizeConfidence rounds confidence to 4 decimal places to prevent PostgreSQL float precision errors.
// Float64 values like 0.9632000000000001 fail NUMERIC(5,4) casting, so precision is bounded here
// and the value clamped to [0.0, 1.0].
func sanitizeConfidence(confidence float64) float64 {
	if confidence < 0.0 {
		return 0.0
	}
	if confidence > 1.0 {
		return 1.0
	}
	return float64(int(confidence*10000+0.5)) / 10000
}

// NewPostgresClient creates a new PostgreSQL client
func NewPostgresClient(databaseURL string) (*PostgresClient, error) {
	if databaseURL == "" {
		return nil, fmt.Errorf("database URL is required")
	}

	db, err := sql.Open("postgres", databaseURL)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	// Configure connection pool
	db.SetMaxOpenConns(25)
	db.SetMaxIdleConns(5)
	db.SetConnMaxLifetime(5 * time.Minute)
	db.SetConnMaxIdleTime(2 * time.Minute)

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := db.PingContext(ctx); err != nil {
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	return &PostgresClient{db: db}, nil
}

// UpdateJobStatus upserts a job status row. The UPSERT lets the worker
// create the job record when the API has not created it yet.
func (p *PostgresClient) UpdateJobStatus(ctx context.Context, update *JobUpdate) error {
	if update.JobID == "" {
		return fmt.Errorf("job ID is required")
	}

	if update.Status == "" {
		return fmt.Errorf("status is required")
	}

	sanitizedConfidence := sanitizeConfidence(update.Confidence)

	metadataJSON, err := json.Marshal(update.Metadata)
	if err != nil {
		return fmt.Errorf("failed to marshal metadata: %w", err)
	}

	// NUMERIC(5,4) casting bounds confidence precision; see sanitizeConfidence.
	query := `
		INSERT INTO fieldextract.extraction_jobs (
			id, user_id, filename,
			status, confidence, processing_time_ms, record_id,
			error_code, error_message, engine_used, metadata,
			created_at, updated_at
		) VALUES (
			$1::uuid, COALESCE($10, 'anonymous'), COALESCE($11, 'unknown'),
			$2, NULLIF($3::NUMERIC(5,4), 0), NULLIF($4, 0),
			CASE WHEN $5 = '' THEN NULL ELSE $5::uuid END,
			NULLIF($6, ''), NULLIF($7, ''), NULLIF($8, ''),
			COALESCE($9::jsonb, '{}'::jsonb),
			NOW(), NOW()
		)
		ON CONFLICT (id) DO UPDATE SET
			status = EXCLUDED.status,
			confidence = COALESCE(NULLIF(EXCLUDED.confidence::NUMERIC(5,4), 0), fieldextract.extraction_jobs.confidence),
			processing_time_ms = COALESCE(NULLIF(EXCLUDED.processing_time_ms, 0), fieldextract.extraction_jobs.processing_time_ms),
			record_id = CASE
				WHEN EXCLUDED.record_id IS NOT NULL THEN EXCLUDED.record_id
				ELSE fieldextract.extraction_jobs.record_id
			END,
			error_code = NULLIF(EXCLUDED.error_code, ''),
			error_message = NULLIF(EXCLUDED.error_message, ''),
			engine_used = NULLIF(EXCLUDED.engine_used, ''),
			metadata = COALESCE(EXCLUDED.metadata, fieldextract.extraction_jobs.metadata),
			filename = COALESCE(EXCLUDED.filename, fieldextract.extraction_jobs.filename),
			user_id = COALESCE(EXCLUDED.user_id, fieldextract.extraction_jobs.user_id),
			updated_at = NOW()
		RETURNING id
	`

	var filename, userID string
	if update.Metadata != nil {
		if fn, ok := update.Metadata["filename"].(string); ok {
			filename = fn
		}
		if uid, ok := update.Metadata["userId"].(string); ok {
			userID = uid
		}
	}

	var returnedID string
	err = p.db.QueryRowContext(
		ctx,
		query,
		update.JobID,            // $1 - job_id
		update.Status,           // $2 - status
		sanitizedConfidence,     // $3 - confidence (sanitized to 4 decimals)
		update.ProcessingTimeMs, // $4 - processing_time_ms
		update.RecordID,         // $5 - record_id
		update.ErrorCode,        // $6 - error_code
		update.ErrorMessage,     // $7 - error_message
		update.EngineUsed,       // $8 - engine_used
		metadataJSON,            // $9 - metadata
		userID,                  // $10 - user_id
		filename,                // $11 - filename
	).Scan(&returnedID)

	if err == sql.ErrNoRows {
		return fmt.Errorf("job not found: %s", update.JobID)
	}

	if err != nil {
		return fmt.Errorf("failed to update job status (job=%s, status=%s, confidence=%.4f): %w",
			update.JobID, update.Status, sanitizedConfidence, err)
	}

	return nil
}

// StoreExtractionRecord stores one extraction result row
func (p *PostgresClient) StoreExtractionRecord(ctx context.Context, record *ExtractionRecord) (string, error) {
	if record.JobID == "" {
		return "", fmt.Errorf("job ID is required")
	}

	fieldsJSON, err := json.Marshal(record.Fields)
	if err != nil {
		return "", fmt.Errorf("failed to marshal fields: %w", err)
	}

	query := `
		INSERT INTO fieldextract.extraction_records (
			job_id,
			qdrant_point_id,
			doc_type,
			fields,
			raw_text,
			created_at
		) VALUES ($1, NULLIF($2, '')::uuid, $3, $4, $5, NOW())
		RETURNING id
	`

	var recordID string
	err = p.db.QueryRowContext(
		ctx,
		query,
		record.JobID,
		record.QdrantPointID,
		record.DocType,
		fieldsJSON,
		record.RawText,
	).Scan(&recordID)

	if err != nil {
		return "", fmt.Errorf("failed to store extraction record: %w", err)
	}

	return recordID, nil
}

// GetExtractionRecord retrieves an extraction record by ID
func (p *PostgresClient) GetExtractionRecord(ctx context.Context, recordID string) (*ExtractionRecord, error) {
	if recordID == "" {
		return nil, fmt.Errorf("record ID is required")
	}

	query := `
		SELECT
			id,
			job_id,
			COALESCE(qdrant_point_id::text, ''),
			doc_type,
			fields,
			raw_text
		FROM fieldextract.extraction_records
		WHERE id = $1
	`

	var record ExtractionRecord
	var fieldsJSON []byte

	err := p.db.QueryRowContext(ctx, query, recordID).Scan(
		&record.ID,
		&record.JobID,
		&record.QdrantPointID,
		&record.DocType,
		&fieldsJSON,
		&record.RawText,
	)

	if err == sql.ErrNoRows {
		return nil, fmt.Errorf("extraction record not found: %s", recordID)
	}

	if err != nil {
		return nil, fmt.Errorf("failed to get extraction record: %w", err)
	}

	if err := json.Unmarshal(fieldsJSON, &record.Fields); err != nil {
		return nil, fmt.Errorf("failed to unmarshal fields: %w", err)
	}

	return &record, nil
}

// GetJobByID retrieves a job by ID
func (p *PostgresClient) GetJobByID(ctx context.Context, jobID string) (map[string]interface{}, error) {
	if jobID == "" {
		return nil, fmt.Errorf("job ID is required")
	}

	query := `
		SELECT
			id,
			user_id,
			filename,
			status,
			confidence,
			processing_time_ms,
			record_id,
			error_code,
			error_message,
			engine_used,
			metadata,
			created_at,
			updated_at
		FROM fieldextract.extraction_jobs
		WHERE id = $1::uuid
	`

	var (
		id, userID, filename               string
		status                             sql.NullString
		confidence                         sql.NullFloat64
		processingTimeMs                   sql.NullInt64
		recordID, errorCode, errorMessage  sql.NullString
		engineUsed                         sql.NullString
		metadataJSON                       []byte
		createdAt, updatedAt               time.Time
	)

	err := p.db.QueryRowContext(ctx, query, jobID).Scan(
		&id, &userID, &filename, &status,
		&confidence, &processingTimeMs, &recordID,
		&errorCode, &errorMessage, &engineUsed,
		&metadataJSON, &createdAt, &updatedAt,
	)

	if err == sql.ErrNoRows {
		return nil, fmt.Errorf("job not found: %s", jobID)
	}

	if err != nil {
		return nil, fmt.Errorf("failed to get job: %w", err)
	}

	var metadata map[string]interface{}
	if len(metadataJSON) > 0 {
		if err := json.Unmarshal(metadataJSON, &metadata); err != nil {
			return nil, fmt.Errorf("failed to unmarshal metadata: %w", err)
		}
	}

	result := map[string]interface{}{
		"id":        id,
		"userId":    userID,
		"filename":  filename,
		"status":    status.String,
		"createdAt": createdAt,
		"updatedAt": updatedAt,
		"metadata":  metadata,
	}

	if confidence.Valid {
		result["confidence"] = confidence.Float64
	}
	if processingTimeMs.Valid {
		result["processingTimeMs"] = processingTimeMs.Int64
	}
	if recordID.Valid {
		result["recordId"] = recordID.String
	}
	if errorCode.Valid {
		result["errorCode"] = errorCode.String
	}
	if errorMessage.Valid {
		result["errorMessage"] = errorMessage.String
	}
	if engineUsed.Valid {
		result["engineUsed"] = engineUsed.String
	}

	return result, nil
}

// DeleteExtractionRecord removes a record, used to roll back partial stores
func (p *PostgresClient) DeleteExtractionRecord(ctx context.Context, recordID string) error {
	if recordID == "" {
		return fmt.Errorf("record ID is required")
	}

	_, err := p.db.ExecContext(ctx,
		`DELETE FROM fieldextract.extraction_records WHERE id = $1`, recordID)
	if err != nil {
		return fmt.Errorf("failed to delete extraction record: %w", err)
	}
	return nil
}

// Ping checks database connectivity
func (p *PostgresClient) Ping(ctx context.Context) error {
	return p.db.PingContext(ctx)
}

// Close closes the database connection
func (p *PostgresClient) Close() error {
	if p.db != nil {
		return p.db.Close()
	}
	return nil
}

// GetStats returns connection pool statistics
func (p *PostgresClient) GetStats() sql.DBStats {
	return p.db.Stats()
}
