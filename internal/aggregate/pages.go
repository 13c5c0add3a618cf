package aggregate

import (
	"context"

	"github.com/lepinkainen/bookscout/internal/errors"
	"github.com/lepinkainen/bookscout/internal/library"
)

// PageSource fetches one page of the library directory.
type PageSource interface {
	LibraryPage(ctx context.Context, pageNo, pageSize int) (*library.Page[library.Library], error)
}

// FetchPagesParallel fetches directory pages startPage..endPage (inclusive)
// with at most maxConcurrency requests in flight.
func FetchPagesParallel(ctx context.Context, src PageSource, startPage, endPage, pageSize, maxConcurrency int, opts Options) (*Result[library.Library], error) {
	if pageSize <= 0 {
		return nil, errors.InvalidArgument("pageSize must be positive, got %d", pageSize)
	}
	return fetchPages(ctx, "FetchPagesParallel", startPage, endPage, maxConcurrency, opts,
		func(ctx context.Context, pageNo int) (*library.Page[library.Library], error) {
			return src.LibraryPage(ctx, pageNo, pageSize)
		})
}
