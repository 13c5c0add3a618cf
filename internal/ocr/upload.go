package ocr

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"mime/multipart"
	"net/http"
	"net/url"
	"os"
	"path"
	"path/filepath"
	"strings"

	"github.com/disintegration/imaging"

	bserrors "github.com/lepinkainen/bookscout/internal/errors"
)

const (
	// MaxFileSize is the largest image the backend accepts.
	MaxFileSize = 10 << 20

	maxWidth    = 1200
	maxHeight   = 1600
	jpegQuality = 85

	analyzeEndpoint    = "/api/ocr/extract-and-analyze"
	analyzeURLEndpoint = "/api/ocr/extract-and-analyze-test"
)

// AllowedExtensions lists the image types the backend accepts.
var AllowedExtensions = []string{".jpg", ".jpeg", ".png", ".bmp", ".tiff"}

func allowedExtension(name string) bool {
	ext := strings.ToLower(filepath.Ext(name))
	for _, allowed := range AllowedExtensions {
		if ext == allowed {
			return true
		}
	}
	return false
}

// ValidateImageFile checks type and size before anything is read or sent.
func ValidateImageFile(imagePath string) error {
	if !allowedExtension(imagePath) {
		return bserrors.NewValidationError("file", fmt.Sprintf("unsupported image type %q (allowed: %s)",
			filepath.Ext(imagePath), strings.Join(AllowedExtensions, " ")))
	}

	info, err := os.Stat(imagePath)
	if err != nil {
		return bserrors.NewValidationError("file", err.Error())
	}
	if info.IsDir() {
		return bserrors.NewValidationError("file", "is a directory")
	}
	if info.Size() > MaxFileSize {
		return bserrors.NewValidationError("file", fmt.Sprintf("%d bytes exceeds the %d MiB limit", info.Size(), MaxFileSize>>20))
	}
	return nil
}

// ValidateImageURL rejects anything that is not an http(s) link to an image file.
func ValidateImageURL(raw string) error {
	u, err := url.Parse(strings.TrimSpace(raw))
	if err != nil || u.Host == "" || (u.Scheme != "http" && u.Scheme != "https") {
		return bserrors.NewValidationError("url", "must be an absolute http or https URL")
	}
	if !allowedExtension(path.Base(u.Path)) {
		return bserrors.NewValidationError("url", "does not point to a supported image")
	}
	return nil
}

// PrepareImage decodes the image, shrinks it to fit 1200x1600 and re-encodes
// it as JPEG.
func PrepareImage(imagePath string) ([]byte, error) {
	img, err := imaging.Open(imagePath, imaging.AutoOrientation(true))
	if err != nil {
		return nil, fmt.Errorf("failed to decode image: %w", err)
	}

	bounds := img.Bounds()
	if bounds.Dx() > maxWidth || bounds.Dy() > maxHeight {
		img = imaging.Fit(img, maxWidth, maxHeight, imaging.Lanczos)
		slog.Debug("Resized image for upload",
			"from", fmt.Sprintf("%dx%d", bounds.Dx(), bounds.Dy()),
			"to", fmt.Sprintf("%dx%d", img.Bounds().Dx(), img.Bounds().Dy()),
		)
	}

	var buf bytes.Buffer
	if err := imaging.Encode(&buf, img, imaging.JPEG, imaging.JPEGQuality(jpegQuality)); err != nil {
		return nil, fmt.Errorf("failed to encode image: %w", err)
	}
	return buf.Bytes(), nil
}

// UploadOptions are the backend processing parameters.
type UploadOptions struct {
	Mode   string
	Prompt string
}

// Upload validates, resizes and uploads an image, returning the analysis.
func (c *Client) Upload(ctx context.Context, imagePath string, opts UploadOptions) (*AnalysisResult, error) {
	if err := ValidateImageFile(imagePath); err != nil {
		return nil, err
	}
	if opts.Mode == "" {
		opts.Mode = DefaultMode
	}
	if opts.Prompt == "" {
		opts.Prompt = DefaultPrompt
	}

	data, err := PrepareImage(imagePath)
	if err != nil {
		return nil, err
	}

	body, contentType, err := multipartBody(imagePath, data, opts)
	if err != nil {
		return nil, err
	}

	ctx, cancel := context.WithTimeout(ctx, c.uploadTimeout)
	defer cancel()

	// The backend reads mode and prompt from the query; they are also sent as form fields.
	params := url.Values{}
	params.Set("mode", opts.Mode)
	params.Set("gpt_prompt", opts.Prompt)
	endpoint := c.baseURL + analyzeEndpoint + "?" + params.Encode()

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, body)
	if err != nil {
		return nil, err
	}
	req.Header.Set("Content-Type", contentType)

	slog.Info("Uploading image for OCR", "file", filepath.Base(imagePath), "bytes", len(data), "mode", opts.Mode)
	return c.analyze(req, analyzeEndpoint)
}

// urlRequest is the JSON body of the URL analysis endpoint.
type urlRequest struct {
	ImageURL  string `json:"image_url"`
	GPTPrompt string `json:"gpt_prompt"`
	Mode      string `json:"mode"`
}

// AnalyzeURL asks the backend to fetch and analyze an image by URL. The URL
// is validated before any request is made.
func (c *Client) AnalyzeURL(ctx context.Context, imageURL string, opts UploadOptions) (*AnalysisResult, error) {
	imageURL = strings.TrimSpace(imageURL)
	if err := ValidateImageURL(imageURL); err != nil {
		return nil, err
	}
	if opts.Mode == "" {
		opts.Mode = DefaultMode
	}
	if opts.Prompt == "" {
		opts.Prompt = DefaultPrompt
	}

	payload, err := json.Marshal(urlRequest{ImageURL: imageURL, GPTPrompt: opts.Prompt, Mode: opts.Mode})
	if err != nil {
		return nil, fmt.Errorf("failed to encode request: %w", err)
	}

	ctx, cancel := context.WithTimeout(ctx, c.uploadTimeout)
	defer cancel()

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+analyzeURLEndpoint, bytes.NewReader(payload))
	if err != nil {
		return nil, err
	}
	req.Header.Set("Content-Type", "application/json")

	slog.Info("Sending image URL for OCR", "url", imageURL, "mode", opts.Mode)
	return c.analyze(req, analyzeURLEndpoint)
}

func (c *Client) analyze(req *http.Request, endpoint string) (*AnalysisResult, error) {
	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("analysis request failed: %w", err)
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, upstreamError(endpoint, resp)
	}

	var result AnalysisResult
	if err := json.NewDecoder(resp.Body).Decode(&result); err != nil {
		return nil, fmt.Errorf("failed to decode analysis: %w", err)
	}
	return &result, nil
}

func multipartBody(imagePath string, data []byte, opts UploadOptions) (io.Reader, string, error) {
	var buf bytes.Buffer
	w := multipart.NewWriter(&buf)

	name := strings.TrimSuffix(filepath.Base(imagePath), filepath.Ext(imagePath)) + ".jpg"
	part, err := w.CreateFormFile("file", name)
	if err != nil {
		return nil, "", err
	}
	if _, err := part.Write(data); err != nil {
		return nil, "", err
	}
	if err := w.WriteField("mode", opts.Mode); err != nil {
		return nil, "", err
	}
	if err := w.WriteField("gpt_prompt", opts.Prompt); err != nil {
		return nil, "", err
	}
	if err := w.Close(); err != nil {
		return nil, "", err
	}
	return &buf, w.FormDataContentType(), nil
}
