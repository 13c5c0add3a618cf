package fileutil

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"os"
	"path/filepath"
	"time"
)

const coverTimeout = 30 * time.Second

// HTTPDoer is an interface for making HTTP requests.
type HTTPDoer interface {
	Do(*http.Request) (*http.Response, error)
}

// CoverDownloadOptions holds options for downloading cover images.
type CoverDownloadOptions struct {
	// URL is the source URL of the cover image
	URL string
	// OutputDir is the directory where the cover will be saved
	OutputDir string
	// Filename is the name of the cover file
	Filename string
	// Overwrite forces re-downloading even if the cover exists
	Overwrite bool
	// Client defaults to an http.Client with a 30s timeout
	Client HTTPDoer
}

// CoverDownloadResult holds the result of a cover download operation.
type CoverDownloadResult struct {
	// Downloaded indicates if a new file was downloaded
	Downloaded bool
	// LocalPath is the full path to the cover
	LocalPath string
}

// DownloadCover saves a book cover image to OutputDir. It skips downloading if
// the file already exists and Overwrite is false. An empty URL is a no-op.
func DownloadCover(ctx context.Context, opts CoverDownloadOptions) (*CoverDownloadResult, error) {
	if opts.URL == "" {
		return nil, nil
	}
	u, err := url.Parse(opts.URL)
	if err != nil || (u.Scheme != "http" && u.Scheme != "https") {
		return nil, fmt.Errorf("invalid cover URL %q", opts.URL)
	}

	if err := os.MkdirAll(opts.OutputDir, 0o755); err != nil {
		return nil, fmt.Errorf("failed to create cover directory: %w", err)
	}

	result := &CoverDownloadResult{LocalPath: filepath.Join(opts.OutputDir, opts.Filename)}
	if FileExists(result.LocalPath) && !opts.Overwrite {
		slog.Debug("Cover already exists, skipping download", "path", result.LocalPath)
		return result, nil
	}

	client := opts.Client
	if client == nil {
		client = &http.Client{Timeout: coverTimeout}
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, opts.URL, nil)
	if err != nil {
		return nil, err
	}
	resp, err := client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("failed to download cover: %w", err)
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, fmt.Errorf("unexpected status %d downloading cover from %s", resp.StatusCode, opts.URL)
	}

	// Write to a temp file first so a failed download never leaves a partial cover.
	tmp, err := os.CreateTemp(opts.OutputDir, ".cover-*")
	if err != nil {
		return nil, fmt.Errorf("failed to create cover file: %w", err)
	}
	defer func() { _ = os.Remove(tmp.Name()) }()

	if _, err := io.Copy(tmp, resp.Body); err != nil {
		_ = tmp.Close()
		return nil, fmt.Errorf("failed to write cover file: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return nil, fmt.Errorf("failed to write cover file: %w", err)
	}
	if err := os.Rename(tmp.Name(), result.LocalPath); err != nil {
		return nil, fmt.Errorf("failed to save cover file: %w", err)
	}

	slog.Info("Downloaded cover", "path", result.LocalPath)
	result.Downloaded = true
	return result, nil
}

// BuildCoverFilename names a cover after the book title and ISBN.
// Returns: "Title (ISBN).jpg"
func BuildCoverFilename(title, isbn string) string {
	name := SanitizeFilename(title)
	if isbn != "" {
		name += " (" + isbn + ")"
	}
	return name + ".jpg"
}
