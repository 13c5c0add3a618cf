package fileutil

import (
	"context"
	"net/http"
	"os"
	"path/filepath"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/lepinkainen/bookscout/internal/testutil"
)

func TestBuildCoverFilename(t *testing.T) {
	assert.Equal(t, "위버멘쉬 (9788960861234).jpg", BuildCoverFilename("위버멘쉬", "9788960861234"))
	assert.Equal(t, "위버멘쉬 - 니체.jpg", BuildCoverFilename("위버멘쉬: 니체", ""))
}

func TestDownloadCover_EmptyURL(t *testing.T) {
	result, err := DownloadCover(context.Background(), CoverDownloadOptions{OutputDir: t.TempDir(), Filename: "x.jpg"})
	assert.NoError(t, err)
	assert.Nil(t, result)
}

func TestDownloadCover_InvalidURL(t *testing.T) {
	_, err := DownloadCover(context.Background(), CoverDownloadOptions{URL: "file:///etc/passwd", OutputDir: t.TempDir(), Filename: "x.jpg"})
	assert.Error(t, err)
}

func TestDownloadCover(t *testing.T) {
	var hits atomic.Int32
	server := testutil.NewIPv4TestServer(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		hits.Add(1)
		if r.URL.Path == "/missing.jpg" {
			http.NotFound(w, r)
			return
		}
		w.Header().Set("Content-Type", "image/jpeg")
		_, _ = w.Write([]byte("fake image data"))
	}))
	dir := filepath.Join(t.TempDir(), "covers")

	opts := CoverDownloadOptions{URL: server.URL + "/cover.jpg", OutputDir: dir, Filename: "데미안 (9788937460449).jpg"}
	result, err := DownloadCover(context.Background(), opts)
	require.NoError(t, err)
	assert.True(t, result.Downloaded)
	data, err := os.ReadFile(result.LocalPath)
	require.NoError(t, err)
	assert.Equal(t, "fake image data", string(data))

	t.Run("existing file is skipped", func(t *testing.T) {
		result, err := DownloadCover(context.Background(), opts)
		require.NoError(t, err)
		assert.False(t, result.Downloaded)
		assert.Equal(t, int32(1), hits.Load())
	})

	t.Run("overwrite downloads again", func(t *testing.T) {
		o := opts
		o.Overwrite = true
		result, err := DownloadCover(context.Background(), o)
		require.NoError(t, err)
		assert.True(t, result.Downloaded)
	})

	t.Run("http error leaves no file", func(t *testing.T) {
		o := opts
		o.URL = server.URL + "/missing.jpg"
		o.Filename = "missing.jpg"
		_, err := DownloadCover(context.Background(), o)
		require.Error(t, err)
		assert.Contains(t, err.Error(), "404")
		assert.False(t, FileExists(filepath.Join(dir, "missing.jpg")))
	})
}
