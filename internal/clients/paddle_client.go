/**
 * PaddleOCR Client - word-level OCR over HTTP
 *
 * Talks to a PaddleOCR serving instance. The service returns recognized
 * text spans with four-corner boxes; conversion to the canonical fragment
 * shape happens in the ocr package, so the rest of the pipeline never sees
 * engine-specific output.
 */

package clients

import (
	"bytes"
	"context"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/docfields/fieldextract-worker/internal/logging"
	"github.com/docfields/fieldextract-worker/internal/ocr"
)

// PaddleClient handles communication with the PaddleOCR service
type PaddleClient struct {
	baseURL    string
	httpClient *http.Client
	logger     *logging.Logger
}

// PaddleOCRRequest represents a recognition request
type PaddleOCRRequest struct {
	Image    string `json:"image"`              // Base64 encoded image
	Language string `json:"language,omitempty"` // e.g. "ru", "en"
	JobID    string `json:"jobId,omitempty"`
}

// PaddleOCRResponse is the service envelope around recognized fragments
type PaddleOCRResponse struct {
	Success bool            `json:"success"`
	Data    json.RawMessage `json:"data"`
	Message string          `json:"message"`
}

// NewPaddleClient creates a new PaddleOCR client
func NewPaddleClient(baseURL string) *PaddleClient {
	return &PaddleClient{
		baseURL: baseURL,
		httpClient: &http.Client{
			Timeout: 120 * time.Second, // recognition on large scans takes time
		},
		logger: logging.NewLogger("PaddleClient"),
	}
}

// Recognize sends an image for OCR and returns canonical fragments
func (c *PaddleClient) Recognize(ctx context.Context, imageData []byte, language string, jobID string) ([]ocr.Fragment, error) {
	c.logger.Info("Requesting OCR from PaddleOCR",
		"language", language,
		"jobId", jobID,
		"imageSize", len(imageData))

	req := &PaddleOCRRequest{
		Image:    base64.StdEncoding.EncodeToString(imageData),
		Language: language,
		JobID:    jobID,
	}

	reqBody, err := json.Marshal(req)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal request: %w", err)
	}

	endpoint := fmt.Sprintf("%s/ocr", c.baseURL)
	httpReq, err := http.NewRequestWithContext(ctx, "POST", endpoint, bytes.NewReader(reqBody))
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}

	httpReq.Header.Set("Content-Type", "application/json")
	httpReq.Header.Set("X-Source", "fieldextract-worker")
	httpReq.Header.Set("X-Request-ID", fmt.Sprintf("ocr-%d", time.Now().UnixNano()))

	resp, err := c.httpClient.Do(httpReq)
	if err != nil {
		return nil, fmt.Errorf("request to PaddleOCR failed: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read response body: %w", err)
	}

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("PaddleOCR returned error status %d: %s", resp.StatusCode, string(body))
	}

	var ocrResp PaddleOCRResponse
	if err := json.Unmarshal(body, &ocrResp); err != nil {
		return nil, fmt.Errorf("failed to parse response: %w", err)
	}

	if !ocrResp.Success {
		return nil, fmt.Errorf("PaddleOCR operation failed: %s", ocrResp.Message)
	}

	fragments, err := ocr.ParsePaddleOutput(ocrResp.Data)
	if err != nil {
		return nil, fmt.Errorf("failed to parse PaddleOCR fragments: %w", err)
	}

	c.logger.Info("OCR complete",
		"jobId", jobID,
		"fragments", len(fragments))

	return fragments, nil
}

// HealthCheck verifies the PaddleOCR service is available
func (c *PaddleClient) HealthCheck(ctx context.Context) error {
	endpoint := fmt.Sprintf("%s/health", c.baseURL)

	req, err := http.NewRequestWithContext(ctx, "GET", endpoint, nil)
	if err != nil {
		return fmt.Errorf("failed to create health check request: %w", err)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("health check request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(resp.Body)
		return fmt.Errorf("health check failed with status %d: %s", resp.StatusCode, string(body))
	}

	return nil
}
