/**
 * Storage Manager for the field extraction worker
 *
 * Coordinates storage across PostgreSQL (extraction records, job status)
 * and Qdrant (document vectors). Stores are atomic: a PostgreSQL failure
 * rolls back the already-written Qdrant point.
 */

package storage

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"regexp"
	"time"

	"github.com/google/uuid"
)

// StorageManager coordinates PostgreSQL and Qdrant operations
type StorageManager struct {
	postgres *PostgresClient
	qdrant   *QdrantClient
}

// RecordInput represents input for storing one extraction result
type RecordInput struct {
	JobID   string
	DocType string
	Fields  map[string]interface{}
	RawText string
	Vector  []float32
}

// RecordOutput represents a stored record with all IDs
type RecordOutput struct {
	ID            string
	JobID         string
	QdrantPointID string
	Fields        map[string]interface{}
	CreatedAt     time.Time
}

// SimilarDocument represents a similarity search hit
type SimilarDocument struct {
	RecordID        string
	JobID           string
	QdrantPointID   string
	DocType         string
	Fields          map[string]interface{}
	SimilarityScore float64
	CreatedAt       time.Time
}

// NewStorageManager creates a new storage manager
func NewStorageManager(postgresURL string, qdrantAddress string, qdrantCollection string) (*StorageManager, error) {
	postgres, err := NewPostgresClient(postgresURL)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize PostgreSQL client: %w", err)
	}

	qdrant, err := NewQdrantClient(qdrantAddress, qdrantCollection)
	if err != nil {
		postgres.Close()
		return nil, fmt.Errorf("failed to initialize Qdrant client: %w", err)
	}

	return &StorageManager{
		postgres: postgres,
		qdrant:   qdrant,
	}, nil
}

// StoreRecord atomically stores an extraction record across PostgreSQL and
// Qdrant. The vector goes to Qdrant first since dimension validation fails
// fast; the Qdrant point is deleted if the PostgreSQL insert fails.
func (sm *StorageManager) StoreRecord(ctx context.Context, input *RecordInput) (*RecordOutput, error) {
	if input == nil {
		return nil, fmt.Errorf("input is required")
	}

	if input.JobID == "" {
		return nil, fmt.Errorf("job ID is required")
	}

	if len(input.Vector) != VectorDim {
		return nil, fmt.Errorf("invalid vector dimensions: expected %d, got %d", VectorDim, len(input.Vector))
	}

	recordID := uuid.New().String()
	qdrantPointID := uuid.New().String()

	qdrantPoint := &VectorPoint{
		ID:     qdrantPointID,
		Vector: input.Vector,
		Metadata: map[string]interface{}{
			"job_id":     input.JobID,
			"record_id":  recordID,
			"doc_type":   input.DocType,
			"created_at": time.Now().Unix(),
		},
		Timestamp: time.Now().Unix(),
	}

	if err := sm.qdrant.UpsertVector(ctx, qdrantPoint); err != nil {
		return nil, fmt.Errorf("failed to store vector in Qdrant: %w", err)
	}

	fieldsJSON, err := json.Marshal(input.Fields)
	if err != nil {
		sm.qdrant.DeleteVector(ctx, qdrantPointID)
		return nil, fmt.Errorf("failed to marshal fields: %w", err)
	}

	// PostgreSQL JSONB rejects \u0000 and friends; OCR text can carry them.
	fieldsJSON = sanitizeJSONForPostgres(fieldsJSON)

	query := `
		INSERT INTO fieldextract.extraction_records (
			id,
			job_id,
			qdrant_point_id,
			doc_type,
			fields,
			raw_text,
			created_at
		) VALUES ($1, $2, $3, $4, $5, $6, NOW())
		RETURNING created_at
	`

	var createdAt time.Time
	err = sm.postgres.db.QueryRowContext(
		ctx,
		query,
		recordID,
		input.JobID,
		qdrantPointID,
		input.DocType,
		fieldsJSON,
		input.RawText,
	).Scan(&createdAt)

	if err != nil {
		sm.qdrant.DeleteVector(ctx, qdrantPointID)
		return nil, fmt.Errorf("failed to store record in PostgreSQL: %w", err)
	}

	return &RecordOutput{
		ID:            recordID,
		JobID:         input.JobID,
		QdrantPointID: qdrantPointID,
		Fields:        input.Fields,
		CreatedAt:     createdAt,
	}, nil
}

// GetRecord retrieves a record with its vector from both systems
func (sm *StorageManager) GetRecord(ctx context.Context, recordID string) (*RecordFull, error) {
	if recordID == "" {
		return nil, fmt.Errorf("record ID is required")
	}

	query := `
		SELECT
			id,
			job_id,
			qdrant_point_id,
			doc_type,
			fields,
			raw_text,
			created_at
		FROM fieldextract.extraction_records
		WHERE id = $1
	`

	var (
		id, jobID, qdrantPointID, docType string
		fieldsJSON                        []byte
		rawText                           string
		createdAt                         time.Time
	)

	err := sm.postgres.db.QueryRowContext(ctx, query, recordID).Scan(
		&id, &jobID, &qdrantPointID, &docType, &fieldsJSON, &rawText, &createdAt,
	)

	if err == sql.ErrNoRows {
		return nil, fmt.Errorf("extraction record not found: %s", recordID)
	}

	if err != nil {
		return nil, fmt.Errorf("failed to get extraction record: %w", err)
	}

	var fields map[string]interface{}
	if err := json.Unmarshal(fieldsJSON, &fields); err != nil {
		return nil, fmt.Errorf("failed to unmarshal fields: %w", err)
	}

	qdrantPoint, err := sm.qdrant.GetVector(ctx, qdrantPointID)
	if err != nil {
		return nil, fmt.Errorf("failed to get vector from Qdrant: %w", err)
	}

	return &RecordFull{
		ID:            id,
		JobID:         jobID,
		QdrantPointID: qdrantPointID,
		DocType:       docType,
		Fields:        fields,
		RawText:       rawText,
		Vector:        qdrantPoint.Vector,
		CreatedAt:     createdAt,
	}, nil
}

// SearchSimilar finds documents similar to the given vector
func (sm *StorageManager) SearchSimilar(ctx context.Context, queryVector []float32, limit int) ([]*SimilarDocument, error) {
	if len(queryVector) != VectorDim {
		return nil, fmt.Errorf("invalid query vector dimensions: expected %d, got %d", VectorDim, len(queryVector))
	}

	points, err := sm.qdrant.SearchVectors(ctx, queryVector, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to search vectors: %w", err)
	}

	results := make([]*SimilarDocument, 0, len(points))
	for _, point := range points {
		recordIDRaw, ok := point.Metadata["record_id"]
		if !ok {
			continue
		}

		recordID, ok := recordIDRaw.(string)
		if !ok {
			continue
		}

		query := `
			SELECT job_id, doc_type, fields, created_at
			FROM fieldextract.extraction_records
			WHERE id = $1
		`

		var (
			jobID, docType string
			fieldsJSON     []byte
			createdAt      time.Time
		)

		err := sm.postgres.db.QueryRowContext(ctx, query, recordID).Scan(&jobID, &docType, &fieldsJSON, &createdAt)
		if err != nil {
			continue // stale vector without a record row
		}

		var fields map[string]interface{}
		json.Unmarshal(fieldsJSON, &fields)

		score := 0.0
		if scoreRaw, ok := point.Metadata["score"]; ok {
			switch s := scoreRaw.(type) {
			case float64:
				score = s
			case float32:
				score = float64(s)
			}
		}

		results = append(results, &SimilarDocument{
			RecordID:        recordID,
			JobID:           jobID,
			QdrantPointID:   point.ID,
			DocType:         docType,
			Fields:          fields,
			SimilarityScore: score,
			CreatedAt:       createdAt,
		})
	}

	return results, nil
}

// UpdateJobStatus updates job status in PostgreSQL
func (sm *StorageManager) UpdateJobStatus(ctx context.Context, update *JobUpdate) error {
	return sm.postgres.UpdateJobStatus(ctx, update)
}

// GetJobByID retrieves job by ID
func (sm *StorageManager) GetJobByID(ctx context.Context, jobID string) (map[string]interface{}, error) {
	return sm.postgres.GetJobByID(ctx, jobID)
}

// GetStats returns statistics from both systems
func (sm *StorageManager) GetStats(ctx context.Context) (map[string]interface{}, error) {
	pgStats := sm.postgres.GetStats()

	qdrantStats, err := sm.qdrant.GetCollectionInfo(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to get Qdrant stats: %w", err)
	}

	return map[string]interface{}{
		"postgres": map[string]interface{}{
			"max_open_connections": pgStats.MaxOpenConnections,
			"open_connections":     pgStats.OpenConnections,
			"in_use":               pgStats.InUse,
			"idle":                 pgStats.Idle,
			"wait_count":           pgStats.WaitCount,
			"wait_duration":        pgStats.WaitDuration.String(),
		},
		"qdrant": qdrantStats,
	}, nil
}

// Close closes all connections
func (sm *StorageManager) Close() error {
	var pgErr, qdErr error

	if sm.postgres != nil {
		pgErr = sm.postgres.Close()
	}

	if sm.qdrant != nil {
		qdErr = sm.qdrant.Close()
	}

	if pgErr != nil {
		return fmt.Errorf("failed to close PostgreSQL: %w", pgErr)
	}

	if qdErr != nil {
		return fmt.Errorf("failed to close Qdrant: %w", qdErr)
	}

	return nil
}

// RecordFull represents a complete record with vector
type RecordFull struct {
	ID            string
	JobID         string
	QdrantPointID string
	DocType       string
	Fields        map[string]interface{}
	RawText       string
	Vector        []float32
	CreatedAt     time.Time
}

// sanitizeJSONForPostgres removes Unicode escape sequences PostgreSQL
// JSONB rejects: \u0000 outright, and \u0001 through \u001F control
// characters, which are replaced with a space.
func sanitizeJSONForPostgres(jsonBytes []byte) []byte {
	nullPattern := regexp.MustCompile(`\\u0000`)
	result := nullPattern.ReplaceAll(jsonBytes, []byte{})

	controlPattern := regexp.MustCompile(`\\u00[01][0-9a-fA-F]`)
	result = controlPattern.ReplaceAll(result, []byte(" "))

	return result
}
