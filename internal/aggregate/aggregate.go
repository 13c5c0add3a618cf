// Package aggregate fans a search out over many pages or regions of the
// library API, runs the requests with bounded concurrency and merges what
// came back. Partial failure is reported, never fatal.
package aggregate

import (
	"context"
	"log/slog"
	"strconv"

	"github.com/lepinkainen/bookscout/internal/errors"
	"github.com/lepinkainen/bookscout/internal/library"
	"github.com/lepinkainen/bookscout/internal/parallel"
)

// Defaults taken by the CLI when flags are not given.
const (
	DefaultStartPage         = 1
	DefaultEndPage           = 10
	DefaultPageSize          = 100
	DefaultPageConcurrency   = 5
	DefaultRegionConcurrency = 8
	DefaultSearchPages       = 3
	DefaultSearchPageSize    = 20
	DefaultSearchConcurrency = 3
	DefaultPerRegionLimit    = 3
)

// Result is the merged outcome of a paged fan-out.
// Items are in page order, then upstream order within a page.
type Result[T any] struct {
	Items      []T   `json:"items"`
	Succeeded  []int `json:"succeeded"`
	Failed     []int `json:"failed"`
	TotalCount int   `json:"total_count"`
}

// Options tunes a paged fan-out.
type Options struct {
	// Retry re-runs failed pages with backoff. Nil runs each page once.
	Retry *parallel.RetryPolicy
}

type pageFetcher[T any] func(ctx context.Context, pageNo int) (*library.Page[T], error)

// fetchPages runs fetch for every page in [startPage, endPage] and merges
// successful pages in page order.
func fetchPages[T any](ctx context.Context, name string, startPage, endPage, maxConcurrency int, opts Options, fetch pageFetcher[T]) (*Result[T], error) {
	if startPage > endPage {
		return nil, errors.InvalidArgument("startPage %d is after endPage %d", startPage, endPage)
	}
	if maxConcurrency <= 0 {
		return nil, errors.InvalidArgument("maxConcurrency must be positive, got %d", maxConcurrency)
	}

	defer measure(name)()

	tasks := make([]parallel.Task[*library.Page[T]], 0, endPage-startPage+1)
	for pageNo := startPage; pageNo <= endPage; pageNo++ {
		tasks = append(tasks, parallel.Task[*library.Page[T]]{
			ID: parallel.IntID(pageNo),
			Run: func(ctx context.Context) (*library.Page[T], error) {
				return fetch(ctx, pageNo)
			},
		})
	}

	var outcomes []parallel.Outcome[*library.Page[T]]
	if opts.Retry != nil {
		policy := *opts.Retry
		policy.MaxConcurrency = maxConcurrency
		outcomes = parallel.Retry(ctx, tasks, policy)
	} else {
		var err error
		if outcomes, err = parallel.Run(ctx, tasks, maxConcurrency); err != nil {
			return nil, err
		}
	}

	result := &Result[T]{Items: []T{}, Succeeded: []int{}, Failed: []int{}}
	for _, o := range outcomes {
		pageNo, _ := strconv.Atoi(o.ID)
		if !o.OK() {
			slog.Warn("Page fetch failed", "operation", name, "page", pageNo, "error", o.Err)
			result.Failed = append(result.Failed, pageNo)
			continue
		}
		result.Succeeded = append(result.Succeeded, pageNo)
		if o.Value != nil {
			result.Items = append(result.Items, o.Value.Items...)
		}
	}
	result.TotalCount = len(result.Items)

	slog.Info("Parallel fetch complete",
		"operation", name,
		"pages", len(tasks),
		"failed", result.Failed,
		"items", result.TotalCount,
	)
	return result, nil
}
