package library

import (
	"context"
	"errors"
	"log/slog"
	"net/url"
	"strconv"
	"strings"

	"github.com/lepinkainen/bookscout/internal/cache"
	bserrors "github.com/lepinkainen/bookscout/internal/errors"
)

// fetchPage runs the shared cache → request → normalize → store path.
// A malformed body yields an empty, uncached page.
func fetchPage[T any](ctx context.Context, c *Client, key, target string, shapes []shape[T]) (*Page[T], error) {
	if !c.bypassCache {
		if page, ok := cache.GetJSON[Page[T]](c.store, key); ok {
			return &page, nil
		}
	}

	if !c.HasAuthKey() {
		return nil, ErrNoAuthKey
	}

	slog.Debug("Library API request", "key", key)
	raw, err := c.getXML(ctx, target)
	if errors.Is(err, ErrMalformedPayload) {
		slog.Warn("Unparseable library API response, returning empty page", "key", key, "error", err)
		return &Page[T]{Items: []T{}}, nil
	}
	if err != nil {
		return nil, err
	}

	page := matchShape(raw, shapes)
	cache.SetJSON(c.store, key, page)
	return &page, nil
}

// withFallback replaces any failure with the placeholder page.
func withFallback[T any](op string, page *Page[T], err error, fallback func() *Page[T]) *Page[T] {
	if err == nil {
		return page
	}
	if errors.Is(err, ErrNoAuthKey) {
		slog.Warn("No library API key configured, using placeholder data", "operation", op)
	} else {
		slog.Warn("Library API unavailable, using placeholder data", "operation", op, "error", err)
	}
	return fallback()
}

func validatePaging(pageNo, pageSize int) error {
	if pageNo < 1 {
		return bserrors.NewValidationError("pageNo", "must be at least 1")
	}
	if pageSize < 1 {
		return bserrors.NewValidationError("pageSize", "must be at least 1")
	}
	return nil
}

func pagingParams(pageNo, pageSize int) url.Values {
	params := url.Values{}
	params.Set("pageNo", strconv.Itoa(pageNo))
	params.Set("pageSize", strconv.Itoa(pageSize))
	return params
}

// LibraryPage fetches one page of the library directory without falling back.
func (c *Client) LibraryPage(ctx context.Context, pageNo, pageSize int) (*Page[Library], error) {
	if err := validatePaging(pageNo, pageSize); err != nil {
		return nil, err
	}
	key := cache.Key(NamespaceLibrary, pageNo, pageSize)
	return fetchPage(ctx, c, key, c.endpoint("/api/libSrch", pagingParams(pageNo, pageSize)), libraryShapes)
}

// FetchPage fetches one page of the library directory, serving placeholder data on failure.
func (c *Client) FetchPage(ctx context.Context, pageNo, pageSize int) (*Page[Library], error) {
	if err := validatePaging(pageNo, pageSize); err != nil {
		return nil, err
	}
	page, err := c.LibraryPage(ctx, pageNo, pageSize)
	return withFallback("libraries", page, err, FallbackLibraries), nil
}

// FetchByISBN looks up one book with its loan statistics.
func (c *Client) FetchByISBN(ctx context.Context, isbn string) (*Page[Book], error) {
	if !ValidISBN(isbn) {
		return nil, bserrors.NewValidationError("isbn", "must be 10 digits or 13 digits starting with 978/979")
	}
	clean := CleanISBN(isbn)

	params := url.Values{}
	params.Set("isbn13", clean)
	params.Set("loaninfoYN", "Y")
	params.Set("displayInfo", "age")

	key := cache.Key(NamespaceISBN, clean)
	page, err := fetchPage(ctx, c, key, c.endpoint("/api/srchDtlList", params), bookShapes)
	return withFallback("isbn", page, err, func() *Page[Book] { return FallbackBook(clean) }), nil
}

// TitlePage searches by title without falling back. Results whose title
// neither contains nor is contained by the query are dropped.
func (c *Client) TitlePage(ctx context.Context, title string, pageNo, pageSize int) (*Page[Book], error) {
	title = strings.TrimSpace(title)
	if title == "" {
		return nil, bserrors.NewValidationError("title", "must not be empty")
	}
	if err := validatePaging(pageNo, pageSize); err != nil {
		return nil, err
	}

	params := pagingParams(pageNo, pageSize)
	params.Set("title", title)
	params.Set("searchTarget", "bookname")

	key := cache.Key(NamespaceTitle, title, pageNo, pageSize)
	page, err := fetchPage(ctx, c, key, c.endpoint("/api/srchBooks", params), bookShapes)
	if err != nil {
		return nil, err
	}

	filtered := filterByTitle(page.Items, title)
	return &Page[Book]{Items: filtered, NumFound: len(filtered), ResultNum: len(filtered)}, nil
}

// FetchByTitle searches by title, serving placeholder data on failure.
func (c *Client) FetchByTitle(ctx context.Context, title string, pageNo, pageSize int) (*Page[Book], error) {
	page, err := c.TitlePage(ctx, title, pageNo, pageSize)
	if bserrors.IsValidationError(err) {
		return nil, err
	}
	return withFallback("title", page, err, FallbackTitleSearch), nil
}

// KeywordPage searches by keyword without falling back. Only the first few
// words of the keyword are sent; see WithKeywordTokenLimit.
func (c *Client) KeywordPage(ctx context.Context, keyword string, pageNo, pageSize int) (*Page[Book], error) {
	processed := c.PreprocessKeyword(keyword)
	if processed == "" {
		return nil, bserrors.NewValidationError("keyword", "must not be empty")
	}
	if err := validatePaging(pageNo, pageSize); err != nil {
		return nil, err
	}
	if processed != strings.TrimSpace(keyword) {
		slog.Debug("Keyword shortened", "original", keyword, "processed", processed)
	}

	params := pagingParams(pageNo, pageSize)
	params.Set("keyword", processed)

	key := cache.Key(NamespaceKeyword, processed, pageNo, pageSize)
	return fetchPage(ctx, c, key, c.endpoint("/api/srchBooks", params), bookShapes)
}

// FetchByKeyword searches by keyword, serving placeholder data on failure.
func (c *Client) FetchByKeyword(ctx context.Context, keyword string, pageNo, pageSize int) (*Page[Book], error) {
	page, err := c.KeywordPage(ctx, keyword, pageNo, pageSize)
	if bserrors.IsValidationError(err) {
		return nil, err
	}
	return withFallback("keyword", page, err, FallbackKeywordSearch), nil
}

// HoldingsPage lists libraries holding isbn, optionally limited to one
// region code, without falling back.
func (c *Client) HoldingsPage(ctx context.Context, isbn, regionCode string) (*Page[Library], error) {
	if !ValidISBN(isbn) {
		return nil, bserrors.NewValidationError("isbn", "must be 10 digits or 13 digits starting with 978/979")
	}
	clean := CleanISBN(isbn)

	params := url.Values{}
	params.Set("isbn", clean)
	if regionCode != "" {
		params.Set("region", regionCode)
	}

	key := cache.Key(NamespaceHoldings, clean, regionCode)
	return fetchPage(ctx, c, key, c.endpoint("/api/libSrchByBook", params), libraryShapes)
}

// SearchLibrariesByISBN lists libraries holding isbn, serving placeholder data on failure.
func (c *Client) SearchLibrariesByISBN(ctx context.Context, isbn, regionCode string) (*Page[Library], error) {
	page, err := c.HoldingsPage(ctx, isbn, regionCode)
	if bserrors.IsValidationError(err) {
		return nil, err
	}
	return withFallback("holdings", page, err, FallbackHoldings), nil
}
