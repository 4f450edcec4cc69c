/**
 * Field Extraction Worker - Main Entry Point
 *
 * Go worker that extracts structured fields from Russian business
 * documents (contracts, invoices, statements, passports).
 *
 * Architecture:
 * - Asynq or plain-Redis consumer for the job queue
 * - OCR via Tesseract (in-process) or a PaddleOCR HTTP service,
 *   or pre-recognized fragments supplied inline by the producer
 * - Geometry-aware label matching plus regex fallback extraction
 * - Post-processing rules for normalization and business logic
 * - PostgreSQL persistence and Qdrant similarity search
 */

package main

import (
	"context"
	"fmt"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"

	"github.com/docfields/fieldextract-worker/internal/config"
	"github.com/docfields/fieldextract-worker/internal/processor"
	"github.com/docfields/fieldextract-worker/internal/queue"
	"github.com/docfields/fieldextract-worker/internal/storage"
)

// consumer is satisfied by both queue implementations.
type consumer interface {
	Start() error
	Stop() error
}

func main() {
	// Load environment variables
	if err := godotenv.Load(".env"); err != nil {
		log.Printf("Warning: .env not found, using system environment variables")
	}

	// Load configuration
	cfg, err := config.LoadConfig()
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}

	log.Printf("Field extraction worker starting...")
	log.Printf("Configuration loaded: Redis=%s, PostgreSQL=%s, Qdrant=%s, Workers=%d",
		cfg.RedisURL, cfg.DatabaseURL, cfg.QdrantURL, cfg.WorkerConcurrency)

	// Initialize unified storage manager (PostgreSQL + Qdrant)
	log.Printf("Connecting to storage (PostgreSQL + Qdrant)...")
	storageManager, err := storage.NewStorageManager(
		cfg.DatabaseURL,
		cfg.QdrantURL,
		cfg.QdrantCollection,
	)
	if err != nil {
		log.Fatalf("Failed to initialize storage manager: %v", err)
	}
	defer storageManager.Close()
	log.Printf("Storage manager initialized (PostgreSQL + Qdrant)")

	// Initialize document extractor
	log.Printf("Initializing document extractor...")
	extractor, err := processor.NewDocumentExtractor(&processor.ExtractorConfig{
		PaddleURL:      cfg.PaddleURL,
		TesseractLangs: cfg.TesseractLangs,
		MaxFragments:   cfg.MaxFragments,
		StorageManager: storageManager,
	})
	if err != nil {
		log.Fatalf("Failed to initialize document extractor: %v", err)
	}
	log.Printf("Document extractor initialized (languages=%v)", cfg.TesseractLangs)

	// Initialize queue consumer
	log.Printf("Connecting to Redis queue (driver=%s)...", cfg.QueueDriver)
	var queueConsumer consumer
	switch cfg.QueueDriver {
	case "redis":
		queueConsumer, err = queue.NewRedisConsumer(&queue.RedisConsumerConfig{
			RedisURL:          cfg.RedisURL,
			QueueName:         "fieldextract:jobs",
			Concurrency:       cfg.WorkerConcurrency,
			Extractor:         extractor,
			ProcessingTimeout: int64(cfg.ProcessingTimeout),
		})
	default:
		queueConsumer, err = queue.NewConsumer(&queue.ConsumerConfig{
			RedisURL:          cfg.RedisURL,
			QueueName:         "fieldextract",
			Concurrency:       cfg.WorkerConcurrency,
			Extractor:         extractor,
			ProcessingTimeout: int64(cfg.ProcessingTimeout),
		})
	}
	if err != nil {
		log.Fatalf("Failed to initialize queue consumer: %v", err)
	}
	log.Printf("Queue consumer initialized with concurrency=%d", cfg.WorkerConcurrency)

	// Start queue consumer
	log.Printf("Starting queue consumer...")
	if err := queueConsumer.Start(); err != nil {
		log.Fatalf("Failed to start queue consumer: %v", err)
	}

	// Print startup summary
	log.Printf("===========================================")
	log.Printf("Field Extraction Worker is READY")
	log.Printf("===========================================")
	log.Printf("Queue driver: %s", cfg.QueueDriver)
	log.Printf("Workers: %d", cfg.WorkerConcurrency)
	log.Printf("OCR engines: inline fragments, tesseract, paddle")
	log.Printf("Languages: %v", cfg.TesseractLangs)
	log.Printf("===========================================")
	log.Printf("Waiting for jobs...")

	// Setup graceful shutdown
	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM, syscall.SIGINT)

	// Wait for shutdown signal
	sig := <-sigChan
	log.Printf("Received signal %v, initiating graceful shutdown...", sig)

	// Stop queue consumer
	log.Printf("Stopping queue consumer...")
	if err := queueConsumer.Stop(); err != nil {
		log.Printf("Error stopping queue consumer: %v", err)
	} else {
		log.Printf("Queue consumer stopped successfully")
	}

	// Close storage manager
	log.Printf("Closing storage manager...")
	if err := storageManager.Close(); err != nil {
		log.Printf("Error closing storage manager: %v", err)
	} else {
		log.Printf("Storage manager closed")
	}

	log.Printf("Shutdown complete")
}

// Health check endpoint (optional - can be added via HTTP server)
func healthCheck(db *storage.PostgresClient) error {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	// Check database
	if err := db.Ping(ctx); err != nil {
		return fmt.Errorf("database health check failed: %w", err)
	}

	return nil
}
