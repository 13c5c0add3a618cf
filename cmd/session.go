package cmd

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"

	"github.com/lepinkainen/bookscout/internal/aggregate"
	"github.com/lepinkainen/bookscout/internal/cache"
	"github.com/lepinkainen/bookscout/internal/config"
	"github.com/lepinkainen/bookscout/internal/fileutil"
	"github.com/lepinkainen/bookscout/internal/history"
	"github.com/lepinkainen/bookscout/internal/library"
	"github.com/lepinkainen/bookscout/internal/ocr"
	"github.com/lepinkainen/bookscout/internal/parallel"
	"github.com/lepinkainen/bookscout/internal/ratelimit"
	"github.com/lepinkainen/bookscout/internal/render"
)

// Set from global flags by updateGlobalConfig.
var (
	jsonOutput bool
	refresh    bool
	outputFile string
	overwrite  bool
)

// Overridable in tests.
var (
	newHTTPClient = func(cfg config.Config) library.HTTPDoer {
		return &http.Client{Timeout: cfg.Library.Timeout}
	}
	newOCRHTTPClient = func(config.Config) ocr.HTTPDoer {
		return &http.Client{}
	}
)

// session holds what a command needs for one run.
type session struct {
	cfg     config.Config
	store   *cache.Store
	client  *library.Client
	history *history.Store
	stop    context.CancelFunc
	noKey   bool
}

// openSession builds the cache, library client and history store from config.
// Cache and history failures degrade to memory-only and no history. The
// expiry sweeper runs until ctx is done.
func openSession(ctx context.Context) *session {
	cfg := config.Load()
	ctx, stop := context.WithCancel(ctx)
	s := &session{cfg: cfg, stop: stop}

	var persistent cache.Persistent
	if sqlite, err := cache.NewSQLiteStore(cfg.Cache.DBFile); err != nil {
		slog.Warn("Persistent cache unavailable, using memory only", "path", cfg.Cache.DBFile, "error", err)
	} else {
		persistent = sqlite
	}
	s.store = cache.New(persistent, cache.WithTTL(cfg.Cache.TTL))
	if cfg.Cache.Sweep {
		s.store.Sweep()
		s.store.StartSweeper(ctx, 0)
	}

	s.client = library.NewClient(cfg.Library.APIKey, s.store,
		library.WithHTTPClient(newHTTPClient(cfg)),
		library.WithBaseURL(cfg.Library.BaseURL),
		library.WithRelayURL(cfg.Library.RelayURL),
		library.WithRateLimiter(ratelimit.New("data4library", cfg.Library.RatePerSecond)),
		library.WithKeywordTokenLimit(cfg.Library.KeywordTokens),
		library.WithCacheBypass(refresh),
	)

	if cfg.History.Enabled {
		h, err := history.Open(cfg.History.DBFile)
		if err != nil {
			slog.Warn("Search history unavailable", "path", cfg.History.DBFile, "error", err)
		} else {
			s.history = h
		}
	}
	return s
}

func (s *session) Close() {
	s.stop()
	if err := s.store.Close(); err != nil {
		slog.Warn("Failed to close cache", "error", err)
	}
	if s.history != nil {
		if err := s.history.Close(); err != nil {
			slog.Warn("Failed to close history", "error", err)
		}
	}
}

// record logs a search to history. Failures never fail the command.
func (s *session) record(query string, kind history.Kind, count int) {
	if s.history == nil {
		return
	}
	if err := s.history.Record(query, kind, count); err != nil {
		slog.Warn("Failed to record search", "query", query, "error", err)
	}
}

func (s *session) retryPolicy() *parallel.RetryPolicy {
	if s.cfg.Parallel.MaxRetries <= 0 {
		return nil
	}
	return &parallel.RetryPolicy{
		MaxRetries:   s.cfg.Parallel.MaxRetries,
		InitialDelay: s.cfg.Parallel.RetryDelay,
		Multiplier:   parallel.DefaultMultiplier,
	}
}

func (s *session) aggregateOptions() aggregate.Options {
	return aggregate.Options{Retry: s.retryPolicy()}
}

// haveKey reports whether parallel fetches can run; without a key the caller
// falls back to the single-page path and the built-in dataset. The warning is
// shown once per session.
func (s *session) haveKey() bool {
	if s.client.HasAuthKey() {
		return true
	}
	if !s.noKey {
		s.noKey = true
		warn("No API key configured (set LIBRARY_API_KEY); showing sample data.")
	}
	return false
}

// warn tells the user about a degraded result. With --json the message goes
// to the log on stderr so stdout stays a single JSON document.
func warn(format string, args ...any) {
	if jsonOutput {
		slog.Warn(fmt.Sprintf(format, args...))
		return
	}
	render.Warning(out, format, args...)
}

func newOCRClient(cfg config.Config) *ocr.Client {
	return ocr.NewClient(cfg.OCR.BaseURL,
		ocr.WithHTTPClient(newOCRHTTPClient(cfg)),
		ocr.WithUploadTimeout(cfg.OCR.UploadTimeout),
		ocr.WithHealthTimeout(cfg.OCR.HealthTimeout),
	)
}

func printJSON(v any) error {
	return render.JSON(out, v)
}

// export writes v to the --output file when one was given.
func export(v any) error {
	if outputFile == "" {
		return nil
	}
	written, err := fileutil.WriteJSONFile(v, outputFile, overwrite)
	if err != nil {
		return err
	}
	if !written {
		warn("%s exists; use --overwrite to replace it", outputFile)
	}
	return nil
}
