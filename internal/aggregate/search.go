package aggregate

import (
	"context"
	"strings"

	"github.com/lepinkainen/bookscout/internal/errors"
	"github.com/lepinkainen/bookscout/internal/library"
)

// KeywordSource runs one page of a keyword search.
type KeywordSource interface {
	KeywordPage(ctx context.Context, keyword string, pageNo, pageSize int) (*library.Page[library.Book], error)
	PreprocessKeyword(keyword string) string
}

// TitleSource runs one page of a title search.
type TitleSource interface {
	TitlePage(ctx context.Context, title string, pageNo, pageSize int) (*library.Page[library.Book], error)
}

// KeywordResult is a merged keyword search plus the keyword actually sent.
type KeywordResult struct {
	Result[library.Book]
	ProcessedKeyword string `json:"processed_keyword"`
	OriginalKeyword  string `json:"original_keyword"`
}

func checkSearchArgs(field, query string, maxPages, pageSize int) error {
	if strings.TrimSpace(query) == "" {
		return errors.NewValidationError(field, "must not be empty")
	}
	if maxPages <= 0 {
		return errors.InvalidArgument("maxPages must be positive, got %d", maxPages)
	}
	if pageSize <= 0 {
		return errors.InvalidArgument("pageSize must be positive, got %d", pageSize)
	}
	return nil
}

// SearchKeywordParallel fetches keyword search pages 1..maxPages concurrently.
func SearchKeywordParallel(ctx context.Context, src KeywordSource, keyword string, maxPages, pageSize, maxConcurrency int, opts Options) (*KeywordResult, error) {
	processed := src.PreprocessKeyword(keyword)
	if err := checkSearchArgs("keyword", processed, maxPages, pageSize); err != nil {
		return nil, err
	}

	res, err := fetchPages(ctx, "SearchKeywordParallel", 1, maxPages, maxConcurrency, opts,
		func(ctx context.Context, pageNo int) (*library.Page[library.Book], error) {
			return src.KeywordPage(ctx, processed, pageNo, pageSize)
		})
	if err != nil {
		return nil, err
	}

	return &KeywordResult{
		Result:           *res,
		ProcessedKeyword: processed,
		OriginalKeyword:  keyword,
	}, nil
}

// SearchTitleParallel fetches title search pages 1..maxPages concurrently.
func SearchTitleParallel(ctx context.Context, src TitleSource, title string, maxPages, pageSize, maxConcurrency int, opts Options) (*Result[library.Book], error) {
	if err := checkSearchArgs("title", title, maxPages, pageSize); err != nil {
		return nil, err
	}

	return fetchPages(ctx, "SearchTitleParallel", 1, maxPages, maxConcurrency, opts,
		func(ctx context.Context, pageNo int) (*library.Page[library.Book], error) {
			return src.TitlePage(ctx, title, pageNo, pageSize)
		})
}
