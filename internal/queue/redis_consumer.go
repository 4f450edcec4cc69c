/**
 * Direct Redis Queue Consumer for the field extraction worker
 *
 * Compatible with JavaScript producers that use plain Redis LIST
 * operations instead of asynq. Job payloads live in a hash keyed by job
 * ID; workers BRPOP the list and look the payload up.
 */

package queue

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"sync"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/docfields/fieldextract-worker/internal/errors"
	"github.com/docfields/fieldextract-worker/internal/processor"
)

// RedisJobData represents a job envelope from the Redis queue
type RedisJobData struct {
	ID         string    `json:"id"`
	Type       string    `json:"type"`
	Payload    JobData   `json:"payload"`
	CreatedAt  time.Time `json:"createdAt"`
	Attempts   int       `json:"attempts"`
	MaxRetries int       `json:"maxRetries"`
}

// RedisConsumer handles job consumption from a plain Redis list queue
type RedisConsumer struct {
	client    *redis.Client
	extractor processor.DocumentExtractorInterface
	config    *RedisConsumerConfig
	ctx       context.Context
	cancel    context.CancelFunc
	wg        sync.WaitGroup
}

// RedisConsumerConfig holds consumer configuration
type RedisConsumerConfig struct {
	RedisURL          string
	QueueName         string
	Concurrency       int
	Extractor         processor.DocumentExtractorInterface
	ProcessingTimeout int64 // milliseconds, default 300000 (5 minutes)
}

// NewRedisConsumer creates a new Redis-based queue consumer
func NewRedisConsumer(cfg *RedisConsumerConfig) (*RedisConsumer, error) {
	if cfg.RedisURL == "" {
		return nil, fmt.Errorf("RedisURL is required")
	}

	if cfg.QueueName == "" {
		cfg.QueueName = "fieldextract:jobs"
	}

	if cfg.Extractor == nil {
		return nil, fmt.Errorf("Extractor is required")
	}

	if cfg.Concurrency <= 0 {
		cfg.Concurrency = 10
	}

	opt, err := redis.ParseURL(cfg.RedisURL)
	if err != nil {
		return nil, fmt.Errorf("failed to parse Redis URL: %w", err)
	}

	client := redis.NewClient(opt)

	ctx := context.Background()
	if err := client.Ping(ctx).Err(); err != nil {
		return nil, fmt.Errorf("failed to connect to Redis: %w", err)
	}

	consumerCtx, cancel := context.WithCancel(context.Background())

	return &RedisConsumer{
		client:    client,
		extractor: cfg.Extractor,
		config:    cfg,
		ctx:       consumerCtx,
		cancel:    cancel,
	}, nil
}

// Start begins processing jobs from the queue
func (c *RedisConsumer) Start() error {
	log.Printf("Starting Redis queue consumer (concurrency=%d, queue=%s)...",
		c.config.Concurrency, c.config.QueueName)

	for i := 0; i < c.config.Concurrency; i++ {
		c.wg.Add(1)
		go c.worker(i)
	}

	log.Println("Queue consumer started successfully")
	return nil
}

// Stop gracefully stops the consumer
func (c *RedisConsumer) Stop() error {
	log.Println("Stopping queue consumer...")
	c.cancel()
	c.wg.Wait()
	return c.client.Close()
}

// worker is a goroutine that processes jobs
func (c *RedisConsumer) worker(id int) {
	defer c.wg.Done()
	log.Printf("Worker %d started", id)

	for {
		select {
		case <-c.ctx.Done():
			log.Printf("Worker %d stopping", id)
			return
		default:
			if err := c.processNextJob(); err != nil {
				if err.Error() != "no jobs available" {
					log.Printf("Worker %d error: %v", id, err)
				}
				time.Sleep(1 * time.Second)
			}
		}
	}
}

// processNextJob fetches and processes the next job from the queue
func (c *RedisConsumer) processNextJob() error {
	result, err := c.client.BRPop(c.ctx, 5*time.Second, c.config.QueueName).Result()
	if err != nil {
		if err == redis.Nil {
			return fmt.Errorf("no jobs available")
		}
		return fmt.Errorf("failed to fetch job: %w", err)
	}

	if len(result) < 2 {
		return fmt.Errorf("invalid job result")
	}

	jobID := result[1]

	jobData, err := c.client.HGet(c.ctx, fmt.Sprintf("%s:data", c.config.QueueName), jobID).Result()
	if err != nil {
		return fmt.Errorf("failed to get job data: %w", err)
	}

	var job RedisJobData
	if err := json.Unmarshal([]byte(jobData), &job); err != nil {
		return fmt.Errorf("failed to unmarshal job: %w", err)
	}

	// Idempotent upsert: creates the PostgreSQL job row if the API has
	// not created it yet.
	if err := c.extractor.UpdateJobStatus(c.ctx, job.Payload.JobID, "processing", map[string]interface{}{
		"filename": job.Payload.Filename,
		"engine":   job.Payload.Engine,
		"userId":   job.Payload.UserID,
	}); err != nil {
		log.Printf("Note: Could not update job status to processing (job may not exist in DB yet): %v", err)
	}

	c.updateJobStatus(job.Payload.JobID, "processing", nil)

	log.Printf("Processing job %s: %s", job.Payload.JobID, job.Payload.Filename)

	processResult, err := c.processJob(&job)
	if err != nil {
		log.Printf("Job %s failed: %v", job.Payload.JobID, err)

		job.Attempts++
		if job.Attempts < job.MaxRetries {
			updatedData, _ := json.Marshal(job)
			c.client.HSet(c.ctx, fmt.Sprintf("%s:data", c.config.QueueName), job.ID, updatedData)
			c.client.LPush(c.ctx, c.config.QueueName, job.ID)
			log.Printf("Job %s re-queued for retry (attempt %d/%d)", job.Payload.JobID, job.Attempts, job.MaxRetries)
		} else {
			c.updateJobStatus(job.Payload.JobID, "failed", map[string]interface{}{
				"error":    err.Error(),
				"attempts": job.Attempts,
			})
		}
	} else if processResult != nil && processResult.Status == "error" {
		// Deterministic failure (e.g. empty input). The extractor already
		// stored the error status; do not re-queue.
		c.client.SRem(c.ctx, fmt.Sprintf("%s:processing", c.config.QueueName), job.Payload.JobID)
		c.client.SAdd(c.ctx, fmt.Sprintf("%s:failed", c.config.QueueName), job.Payload.JobID)
		log.Printf("Job %s rejected: document contains no extractable text", job.Payload.JobID)
	} else {
		c.updateJobStatus(job.Payload.JobID, "completed", processResult)
		log.Printf("Job %s completed successfully", job.Payload.JobID)
	}

	return nil
}

// processJob handles the actual document extraction
func (c *RedisConsumer) processJob(job *RedisJobData) (*processor.ExtractResult, error) {
	startTime := time.Now()

	request := &processor.ExtractRequest{
		JobID:       job.Payload.JobID,
		UserID:      job.Payload.UserID,
		Filename:    job.Payload.Filename,
		Engine:      job.Payload.Engine,
		Language:    job.Payload.Language,
		Fragments:   job.Payload.Fragments,
		ImageBuffer: job.Payload.ImageBuffer,
		Metadata:    job.Payload.Metadata,
	}

	timeout := time.Duration(300000) * time.Millisecond
	if c.config.ProcessingTimeout > 0 {
		timeout = time.Duration(c.config.ProcessingTimeout) * time.Millisecond
	}

	ctx, cancel := context.WithTimeout(context.Background(), timeout)
	defer cancel()

	result, err := c.extractor.ProcessDocument(ctx, request)

	duration := time.Since(startTime)

	if err != nil {
		if ctx.Err() == context.DeadlineExceeded {
			log.Printf("[Job %s] Extraction timed out after %v (timeout: %v)", job.Payload.JobID, duration, timeout)

			timeoutErr := errors.NewProcessingTimeoutError(job.Payload.JobID, timeout, err)
			errorMap := timeoutErr.ToMap()

			if updateErr := c.extractor.UpdateJobStatus(c.ctx, job.Payload.JobID, "failed", errorMap); updateErr != nil {
				log.Printf("[Job %s] Warning: Failed to update status to failed: %v", job.Payload.JobID, updateErr)
			}

			return nil, fmt.Errorf("processing timeout: %w", timeoutErr)
		}

		return nil, err
	}

	log.Printf("[Job %s] Extraction completed in %v", job.Payload.JobID, duration)
	return result, nil
}

// updateJobStatus updates the status of a job in both Redis and PostgreSQL
func (c *RedisConsumer) updateJobStatus(jobID string, status string, result interface{}) {
	// Redis bookkeeping for queue management
	switch status {
	case "processing":
		c.client.SAdd(c.ctx, fmt.Sprintf("%s:processing", c.config.QueueName), jobID)
	case "completed":
		c.client.SRem(c.ctx, fmt.Sprintf("%s:processing", c.config.QueueName), jobID)
		c.client.SAdd(c.ctx, fmt.Sprintf("%s:completed", c.config.QueueName), jobID)
		if result != nil {
			resultData, _ := json.Marshal(result)
			c.client.HSet(c.ctx, fmt.Sprintf("%s:results", c.config.QueueName), jobID, resultData)
		}
	case "failed":
		c.client.SRem(c.ctx, fmt.Sprintf("%s:processing", c.config.QueueName), jobID)
		c.client.SAdd(c.ctx, fmt.Sprintf("%s:failed", c.config.QueueName), jobID)
		if result != nil {
			errorData, _ := json.Marshal(result)
			c.client.HSet(c.ctx, fmt.Sprintf("%s:errors", c.config.QueueName), jobID, errorData)
		}
	}

	// PostgreSQL for persistent job tracking
	switch status {
	case "completed":
		if extractResult, ok := result.(*processor.ExtractResult); ok && extractResult != nil {
			if err := c.extractor.UpdateJobStatus(c.ctx, jobID, status, map[string]interface{}{
				"confidence":      extractResult.Confidence,
				"processingTime":  extractResult.ProcessingTimeMs,
				"recordId":        extractResult.RecordID,
				"engineUsed":      extractResult.EngineUsed,
				"docType":         extractResult.DocType,
				"fieldsExtracted": extractResult.FieldsExtracted,
			}); err != nil {
				log.Printf("[PostgreSQL] ERROR: Failed to update job status: %v", err)
			}
		} else {
			if err := c.extractor.UpdateJobStatus(c.ctx, jobID, status, nil); err != nil {
				log.Printf("[PostgreSQL] ERROR: Failed to update job status (fallback): %v", err)
			}
		}
	case "failed":
		errorMsg := "Unknown error"
		if resultMap, ok := result.(map[string]interface{}); ok {
			if errStr, ok := resultMap["error"].(string); ok {
				errorMsg = errStr
			}
		}

		if err := c.extractor.UpdateJobStatus(c.ctx, jobID, status, map[string]interface{}{
			"error": errorMsg,
		}); err != nil {
			log.Printf("WARNING: Failed to update PostgreSQL job status for failed job: %v", err)
		}
	}

	// Publish event for WebSocket streaming
	event := map[string]interface{}{
		"event":     fmt.Sprintf("job:%s", status),
		"jobId":     jobID,
		"timestamp": time.Now().Format(time.RFC3339),
	}
	eventData, _ := json.Marshal(event)
	c.client.Publish(c.ctx, fmt.Sprintf("%s:events", c.config.QueueName), eventData)
}

// GetStats returns queue statistics
func (c *RedisConsumer) GetStats() (map[string]int64, error) {
	ctx := context.Background()

	waiting, _ := c.client.LLen(ctx, c.config.QueueName).Result()
	processing, _ := c.client.SCard(ctx, fmt.Sprintf("%s:processing", c.config.QueueName)).Result()
	completed, _ := c.client.SCard(ctx, fmt.Sprintf("%s:completed", c.config.QueueName)).Result()
	failed, _ := c.client.SCard(ctx, fmt.Sprintf("%s:failed", c.config.QueueName)).Result()

	return map[string]int64{
		"waiting":    waiting,
		"processing": processing,
		"completed":  completed,
		"failed":     failed,
	}, nil
}
