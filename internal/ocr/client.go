// Package ocr is a client for the OCR and title-extraction backend: a health
// probe and a cover-photo upload that returns recognised text and a short title.
package ocr

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strings"
	"time"

	bserrors "github.com/lepinkainen/bookscout/internal/errors"
)

const (
	defaultBaseURL       = "http://localhost:8000"
	defaultUploadTimeout = 60 * time.Second
	defaultHealthTimeout = 5 * time.Second

	// DefaultMode is the backend processing mode.
	DefaultMode = "prod"
	// DefaultPrompt asks the backend to extract the book title.
	DefaultPrompt = "책 제목 추출"
)

// HTTPDoer is an interface for making HTTP requests.
type HTTPDoer interface {
	Do(*http.Request) (*http.Response, error)
}

// Client talks to the OCR backend.
type Client struct {
	baseURL       string
	httpClient    HTTPDoer
	uploadTimeout time.Duration
	healthTimeout time.Duration
}

// Option is a functional option for configuring the Client.
type Option func(*Client)

// WithHTTPClient sets a custom HTTP client.
func WithHTTPClient(c HTTPDoer) Option {
	return func(client *Client) {
		if c != nil {
			client.httpClient = c
		}
	}
}

// WithUploadTimeout bounds a single upload request.
func WithUploadTimeout(d time.Duration) Option {
	return func(client *Client) {
		if d > 0 {
			client.uploadTimeout = d
		}
	}
}

// WithHealthTimeout bounds a health probe.
func WithHealthTimeout(d time.Duration) Option {
	return func(client *Client) {
		if d > 0 {
			client.healthTimeout = d
		}
	}
}

// NewClient creates an OCR backend client.
func NewClient(baseURL string, opts ...Option) *Client {
	if baseURL == "" {
		baseURL = defaultBaseURL
	}
	client := &Client{
		baseURL:       strings.TrimSuffix(baseURL, "/"),
		httpClient:    &http.Client{},
		uploadTimeout: defaultUploadTimeout,
		healthTimeout: defaultHealthTimeout,
	}
	for _, opt := range opts {
		opt(client)
	}
	return client
}

// HealthStatus is the outcome of a health probe.
type HealthStatus struct {
	Healthy      bool          `json:"healthy"`
	Status       string        `json:"status"`
	Message      string        `json:"message,omitempty"`
	ResponseTime time.Duration `json:"response_time"`
	StatusCode   int           `json:"status_code,omitempty"`
	Error        string        `json:"error,omitempty"`
	CheckedAt    time.Time     `json:"checked_at"`
}

// Health probes the backend. It never fails; problems are reported in the status.
func (c *Client) Health(ctx context.Context) HealthStatus {
	ctx, cancel := context.WithTimeout(ctx, c.healthTimeout)
	defer cancel()

	start := time.Now()
	status := HealthStatus{Status: "unhealthy", CheckedAt: start}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+"/api/health", nil)
	if err != nil {
		status.Error = err.Error()
		return status
	}

	resp, err := c.httpClient.Do(req)
	status.ResponseTime = time.Since(start)
	if err != nil {
		slog.Warn("OCR backend health check failed", "error", err)
		status.Error = err.Error()
		return status
	}
	defer func() { _ = resp.Body.Close() }()

	status.StatusCode = resp.StatusCode
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		status.Error = fmt.Sprintf("unexpected status %d", resp.StatusCode)
		return status
	}

	var body struct {
		Status  string `json:"status"`
		Message string `json:"message"`
	}
	if err := json.NewDecoder(io.LimitReader(resp.Body, 64<<10)).Decode(&body); err != nil {
		status.Error = fmt.Sprintf("invalid health response: %v", err)
		return status
	}

	status.Healthy = true
	status.Status = "healthy"
	status.Message = body.Message
	slog.Debug("OCR backend healthy", "response_time", status.ResponseTime, "reported", body.Status)
	return status
}

// OCRResult is the text recognition half of an analysis.
type OCRResult struct {
	OriginalFilename string    `json:"original_filename"`
	ExtractedText    string    `json:"extracted_text"`
	ConfidenceScores []float64 `json:"confidence_scores"`
	ResultImageURL   string    `json:"result_image_url"`
	TotalTextCount   int       `json:"total_text_count"`
	ProcessingTimeMS float64   `json:"processing_time_ms"`
	ErrorMessage     string    `json:"error_message,omitempty"`
}

// GPTResult is the title extraction half of an analysis.
type GPTResult struct {
	Prompt         string  `json:"prompt"`
	GPTResponse    string  `json:"gpt_response"`
	GPTModel       string  `json:"gpt_model"`
	TokensUsed     int     `json:"tokens_used"`
	ResponseTimeMS float64 `json:"response_time_ms"`
	ErrorMessage   string  `json:"error_message,omitempty"`
}

// AnalysisResult is the combined response of an upload.
type AnalysisResult struct {
	OCR                   OCRResult `json:"ocr_result"`
	GPT                   GPTResult `json:"gpt_result"`
	TotalProcessingTimeMS float64   `json:"total_processing_time_ms"`
}

// Title returns the extracted title with surrounding quotes and whitespace removed.
func (r *AnalysisResult) Title() string {
	return strings.Trim(strings.TrimSpace(r.GPT.GPTResponse), `"'「」『』`)
}

// MeanConfidence averages the OCR confidence scores, or returns 0 when there are none.
func (r *AnalysisResult) MeanConfidence() float64 {
	if len(r.OCR.ConfidenceScores) == 0 {
		return 0
	}
	var sum float64
	for _, s := range r.OCR.ConfidenceScores {
		sum += s
	}
	return sum / float64(len(r.OCR.ConfidenceScores))
}

func upstreamError(endpoint string, resp *http.Response) error {
	body, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
	return fmt.Errorf("%w: %s", bserrors.NewUpstreamError(endpoint, resp.StatusCode), strings.TrimSpace(string(body)))
}
