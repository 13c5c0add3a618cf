package aggregate

import (
	"context"
	"log/slog"

	"github.com/lepinkainen/bookscout/internal/library"
	"github.com/lepinkainen/bookscout/internal/parallel"
)

// HoldingsSource lists libraries holding a book within one region.
type HoldingsSource interface {
	HoldingsPage(ctx context.Context, isbn, regionCode string) (*library.Page[library.Library], error)
}

// RegionOptions tunes FetchRegionsParallel.
type RegionOptions struct {
	// PerRegionLimit caps libraries kept per region; <= 0 uses DefaultPerRegionLimit.
	PerRegionLimit int
	// Retry re-runs failed regions with backoff. Nil runs each region once.
	Retry *parallel.RetryPolicy
}

// FetchRegionsParallel searches each region for libraries holding isbn and
// returns the first few libraries per region, tagged with the region's name
// and code, in region order. Empty regionCodes means all regions. Failed
// regions are logged and left out; this never fails as a whole.
func FetchRegionsParallel(ctx context.Context, src HoldingsSource, isbn string, regionCodes []string, maxConcurrency int, opts RegionOptions) []library.Library {
	if len(regionCodes) == 0 {
		regionCodes = library.RegionCodes()
	}
	if maxConcurrency <= 0 {
		maxConcurrency = DefaultRegionConcurrency
	}
	limit := opts.PerRegionLimit
	if limit <= 0 {
		limit = DefaultPerRegionLimit
	}

	defer measure("FetchRegionsParallel")()

	tasks := make([]parallel.Task[[]library.Library], len(regionCodes))
	for i, code := range regionCodes {
		tasks[i] = parallel.Task[[]library.Library]{
			ID: code,
			Run: func(ctx context.Context) ([]library.Library, error) {
				page, err := src.HoldingsPage(ctx, isbn, code)
				if err != nil {
					return nil, err
				}
				return tagRegion(page.Items, code, limit), nil
			},
		}
	}

	var outcomes []parallel.Outcome[[]library.Library]
	if opts.Retry != nil {
		policy := *opts.Retry
		policy.MaxConcurrency = maxConcurrency
		outcomes = parallel.Retry(ctx, tasks, policy)
	} else {
		// maxConcurrency is positive, so Run cannot reject it
		outcomes, _ = parallel.Run(ctx, tasks, maxConcurrency)
	}

	libraries := []library.Library{}
	var failed []string
	for _, o := range outcomes {
		if !o.OK() {
			slog.Warn("Region search failed", "region", library.RegionNameForCode(o.ID), "error", o.Err)
			failed = append(failed, library.RegionNameForCode(o.ID))
			continue
		}
		libraries = append(libraries, o.Value...)
	}

	slog.Info("Region search complete",
		"isbn", isbn,
		"regions", len(regionCodes),
		"failed", failed,
		"libraries", len(libraries),
	)
	return libraries
}

func tagRegion(libs []library.Library, code string, limit int) []library.Library {
	if len(libs) > limit {
		libs = libs[:limit]
	}
	name := library.RegionNameForCode(code)
	tagged := make([]library.Library, len(libs))
	for i, lib := range libs {
		lib.Region = name
		lib.RegionCode = code
		tagged[i] = lib
	}
	return tagged
}
