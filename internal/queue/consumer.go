/**
 * Queue Consumer for the field extraction worker
 *
 * Consumes extraction jobs from Redis and runs them through the document
 * extractor. Uses Asynq for queue management, retries, and concurrency.
 */

package queue

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"log"
	"time"

	"github.com/hibiken/asynq"

	"github.com/docfields/fieldextract-worker/internal/errors"
	"github.com/docfields/fieldextract-worker/internal/ocr"
	"github.com/docfields/fieldextract-worker/internal/processor"
)

// TaskExtractDocument is the asynq task type for extraction jobs.
const TaskExtractDocument = "extract-document"

// JobData represents the structure of job payloads on the queue
type JobData struct {
	JobID       string                 `json:"jobId"`
	UserID      string                 `json:"userId"`
	Filename    string                 `json:"filename"`
	Engine      string                 `json:"engine,omitempty"`
	Language    string                 `json:"language,omitempty"`
	Fragments   []ocr.Fragment         `json:"fragments,omitempty"`
	ImageBuffer ImageBuffer            `json:"imageBuffer,omitempty"`
	Metadata    map[string]interface{} `json:"metadata,omitempty"`
}

// ImageBuffer accepts image bytes either as a base64 string or as a
// Node-style Buffer object ({"type":"Buffer","data":[...]}), which is what
// JavaScript producers put on the queue.
type ImageBuffer []byte

func (b *ImageBuffer) UnmarshalJSON(data []byte) error {
	var s string
	if err := json.Unmarshal(data, &s); err == nil {
		decoded, err := base64.StdEncoding.DecodeString(s)
		if err != nil {
			return fmt.Errorf("invalid base64 image buffer: %w", err)
		}
		*b = decoded
		return nil
	}

	var nodeBuffer struct {
		Type string `json:"type"`
		Data []int  `json:"data"`
	}
	if err := json.Unmarshal(data, &nodeBuffer); err == nil && nodeBuffer.Type == "Buffer" {
		bytes := make([]byte, len(nodeBuffer.Data))
		for i, v := range nodeBuffer.Data {
			bytes[i] = byte(v)
		}
		*b = bytes
		return nil
	}

	return fmt.Errorf("unrecognized image buffer encoding")
}

func (b ImageBuffer) MarshalJSON() ([]byte, error) {
	return json.Marshal([]byte(b))
}

// Consumer handles job consumption from the Redis queue
type Consumer struct {
	client    *asynq.Client
	server    *asynq.Server
	mux       *asynq.ServeMux
	extractor processor.DocumentExtractorInterface
	config    *ConsumerConfig
}

// ConsumerConfig holds consumer configuration
type ConsumerConfig struct {
	RedisURL          string
	QueueName         string
	Concurrency       int
	Extractor         processor.DocumentExtractorInterface
	ProcessingTimeout int64 // milliseconds, default 300000 (5 minutes)
}

// NewConsumer creates a new queue consumer
func NewConsumer(cfg *ConsumerConfig) (*Consumer, error) {
	if cfg.RedisURL == "" {
		return nil, fmt.Errorf("RedisURL is required")
	}

	if cfg.QueueName == "" {
		return nil, fmt.Errorf("QueueName is required")
	}

	if cfg.Extractor == nil {
		return nil, fmt.Errorf("Extractor is required")
	}

	redisOpt, err := asynq.ParseRedisURI(cfg.RedisURL)
	if err != nil {
		return nil, fmt.Errorf("failed to parse Redis URL: %w", err)
	}

	client := asynq.NewClient(redisOpt)

	server := asynq.NewServer(
		redisOpt,
		asynq.Config{
			Concurrency: cfg.Concurrency,
			Queues: map[string]int{
				cfg.QueueName: 10, // Priority 10 for main queue
				"default":     1,  // Priority 1 for fallback
			},
			RetryDelayFunc: func(n int, err error, task *asynq.Task) time.Duration {
				// Exponential backoff: 5s, 10s, 20s, capped at 60s
				delay := time.Duration(5*(1<<uint(n))) * time.Second
				if delay > 60*time.Second {
					delay = 60 * time.Second
				}
				return delay
			},
			ErrorHandler: asynq.ErrorHandlerFunc(func(ctx context.Context, task *asynq.Task, err error) {
				log.Printf("Task processing error: type=%s, payload=%s, error=%v",
					task.Type(), string(task.Payload()), err)
			}),
		},
	)

	mux := asynq.NewServeMux()

	consumer := &Consumer{
		client:    client,
		server:    server,
		mux:       mux,
		extractor: cfg.Extractor,
		config:    cfg,
	}

	mux.HandleFunc(TaskExtractDocument, consumer.handleExtractDocument)

	return consumer, nil
}

// Start starts the queue consumer
func (c *Consumer) Start() error {
	log.Printf("Starting queue consumer (concurrency=%d, queue=%s)...",
		c.config.Concurrency, c.config.QueueName)

	go func() {
		if err := c.server.Run(c.mux); err != nil {
			log.Printf("Queue consumer error: %v", err)
		}
	}()

	return nil
}

// Stop stops the queue consumer gracefully
func (c *Consumer) Stop() error {
	log.Printf("Stopping queue consumer...")

	c.server.Shutdown()

	if err := c.client.Close(); err != nil {
		return fmt.Errorf("failed to close client: %w", err)
	}

	log.Printf("Queue consumer stopped")
	return nil
}

// handleExtractDocument processes one extraction job
func (c *Consumer) handleExtractDocument(ctx context.Context, task *asynq.Task) error {
	startTime := time.Now()

	var jobData JobData
	if err := json.Unmarshal(task.Payload(), &jobData); err != nil {
		return fmt.Errorf("failed to unmarshal job data: %w", err)
	}

	log.Printf("[Job %s] Extracting document: filename=%s, engine=%s, fragments=%d, user=%s",
		jobData.JobID, jobData.Filename, jobData.Engine, len(jobData.Fragments), jobData.UserID)

	if err := c.extractor.UpdateJobStatus(ctx, jobData.JobID, "processing", nil); err != nil {
		log.Printf("[Job %s] Warning: Failed to update status to processing: %v", jobData.JobID, err)
	}

	timeout := time.Duration(300000) * time.Millisecond
	if c.config.ProcessingTimeout > 0 {
		timeout = time.Duration(c.config.ProcessingTimeout) * time.Millisecond
	}

	processCtx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	result, err := c.extractor.ProcessDocument(processCtx, &processor.ExtractRequest{
		JobID:       jobData.JobID,
		UserID:      jobData.UserID,
		Filename:    jobData.Filename,
		Engine:      jobData.Engine,
		Language:    jobData.Language,
		Fragments:   jobData.Fragments,
		ImageBuffer: jobData.ImageBuffer,
		Metadata:    jobData.Metadata,
	})

	duration := time.Since(startTime)

	if err != nil {
		if processCtx.Err() == context.DeadlineExceeded {
			log.Printf("[Job %s] Extraction timed out after %v (timeout: %v)", jobData.JobID, duration, timeout)

			timeoutErr := errors.NewProcessingTimeoutError(jobData.JobID, timeout, err)
			errorMap := timeoutErr.ToMap()

			if updateErr := c.extractor.UpdateJobStatus(ctx, jobData.JobID, "failed", errorMap); updateErr != nil {
				log.Printf("[Job %s] Warning: Failed to update status to failed: %v", jobData.JobID, updateErr)
			}

			return fmt.Errorf("processing timeout: %w", timeoutErr)
		}

		log.Printf("[Job %s] Extraction failed after %v: %v", jobData.JobID, duration, err)

		if updateErr := c.extractor.UpdateJobStatus(ctx, jobData.JobID, "failed", map[string]interface{}{
			"error":          err.Error(),
			"processingTime": duration.Milliseconds(),
		}); updateErr != nil {
			log.Printf("[Job %s] Warning: Failed to update status to failed: %v", jobData.JobID, updateErr)
		}

		return fmt.Errorf("document extraction failed: %w", err)
	}

	// Empty-input results return status "error" but consume the task:
	// retrying deterministic failures wastes queue capacity.
	if result.Status == "error" {
		log.Printf("[Job %s] Extraction recorded error result in %v (empty input)", jobData.JobID, duration)
		return nil
	}

	log.Printf("[Job %s] Extraction completed in %v: doc_type=%s, confidence=%.2f, recordId=%s",
		jobData.JobID, duration, result.DocType, result.Confidence, result.RecordID)

	if err := c.extractor.UpdateJobStatus(ctx, jobData.JobID, "completed", map[string]interface{}{
		"confidence":      result.Confidence,
		"processingTime":  duration.Milliseconds(),
		"recordId":        result.RecordID,
		"engineUsed":      result.EngineUsed,
		"docType":         result.DocType,
		"fieldsExtracted": result.FieldsExtracted,
	}); err != nil {
		log.Printf("[Job %s] Warning: Failed to update status to completed: %v", jobData.JobID, err)
	}

	return nil
}

// GetStatistics returns consumer statistics
func (c *Consumer) GetStatistics() map[string]interface{} {
	return map[string]interface{}{
		"concurrency": c.config.Concurrency,
		"queue":       c.config.QueueName,
		"redisURL":    c.config.RedisURL,
	}
}
