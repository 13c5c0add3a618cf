package library

import (
	_ "embed"
	"fmt"
	"sync"

	"gopkg.in/yaml.v3"
)

//go:embed fallback.yaml
var fallbackYAML []byte

type fallbackData struct {
	Libraries     []Library `yaml:"libraries"`
	ISBNDetail    Book      `yaml:"isbn_detail"`
	TitleSearch   []Book    `yaml:"title_search"`
	KeywordSearch []Book    `yaml:"keyword_search"`
	Holdings      []Library `yaml:"holdings"`
}

var loadFallback = sync.OnceValue(func() *fallbackData {
	data, err := parseFallback(fallbackYAML)
	if err != nil {
		// The file is embedded at build time, so this is a programming error.
		panic(err)
	}
	return data
})

func parseFallback(raw []byte) (*fallbackData, error) {
	var data fallbackData
	if err := yaml.Unmarshal(raw, &data); err != nil {
		return nil, fmt.Errorf("failed to parse fallback dataset: %w", err)
	}
	for i := range data.Holdings {
		data.Holdings[i].Region = RegionName(data.Holdings[i].Address)
	}
	return &data, nil
}

func fallbackPage[T any](items []T) *Page[T] {
	copied := append([]T{}, items...)
	return &Page[T]{
		Items:     copied,
		NumFound:  len(copied),
		ResultNum: len(copied),
		Fallback:  true,
	}
}

// FallbackLibraries returns the placeholder library list.
func FallbackLibraries() *Page[Library] {
	return fallbackPage(loadFallback().Libraries)
}

// FallbackBook returns the placeholder detail record, carrying the requested ISBN.
func FallbackBook(isbn string) *Page[Book] {
	book := loadFallback().ISBNDetail
	book.ISBN = CleanISBN(isbn)
	return fallbackPage([]Book{book})
}

// FallbackTitleSearch returns the placeholder title search results.
func FallbackTitleSearch() *Page[Book] {
	return fallbackPage(loadFallback().TitleSearch)
}

// FallbackKeywordSearch returns the placeholder keyword search results (empty).
func FallbackKeywordSearch() *Page[Book] {
	return fallbackPage(loadFallback().KeywordSearch)
}

// FallbackHoldings returns placeholder holding libraries for any ISBN.
func FallbackHoldings() *Page[Library] {
	return fallbackPage(loadFallback().Holdings)
}
