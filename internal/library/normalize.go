package library

import "strings"

// A shape recognises one upstream response layout and normalizes it.
// Shapes are tried in order and the first match wins.
type shape[T any] func(*rawResponse) (Page[T], bool)

var (
	libraryShapes = []shape[Library]{libsShape}
	bookShapes    = []shape[Book]{detailShape, docsShape}
)

// matchShape returns the first matching shape's page, or an empty page when
// the response has none of the known layouts.
func matchShape[T any](raw *rawResponse, shapes []shape[T]) Page[T] {
	if raw != nil {
		for _, s := range shapes {
			if page, ok := s(raw); ok {
				return page
			}
		}
	}
	return Page[T]{Items: []T{}}
}

func libsShape(raw *rawResponse) (Page[Library], bool) {
	if raw.Libs == nil {
		return Page[Library]{}, false
	}
	items := make([]Library, 0, len(raw.Libs.Lib))
	for _, l := range raw.Libs.Lib {
		if lib, ok := normalizeLibrary(l); ok {
			items = append(items, lib)
		}
	}
	return newPage(items, raw), true
}

func docsShape(raw *rawResponse) (Page[Book], bool) {
	if raw.Docs == nil {
		return Page[Book]{}, false
	}
	items := make([]Book, 0, len(raw.Docs.Doc))
	for _, b := range raw.Docs.Doc {
		if book, ok := normalizeBook(b, 0); ok {
			items = append(items, book)
		}
	}
	return newPage(items, raw), true
}

// detailShape handles the ISBN detail layout, where loan statistics sit
// beside the book rather than inside it.
func detailShape(raw *rawResponse) (Page[Book], bool) {
	if raw.Detail == nil {
		return Page[Book]{}, false
	}
	loans := 0
	if raw.LoanInfo != nil {
		loans = atoi(raw.LoanInfo.Total.LoanCnt)
	}
	items := make([]Book, 0, len(raw.Detail.Book))
	for _, b := range raw.Detail.Book {
		if book, ok := normalizeBook(b, loans); ok {
			items = append(items, book)
		}
	}
	return newPage(items, raw), true
}

func newPage[T any](items []T, raw *rawResponse) Page[T] {
	page := Page[T]{
		Items:     items,
		NumFound:  atoi(raw.NumFound),
		ResultNum: atoi(raw.ResultNum),
	}
	// Detail responses carry no counters
	if page.NumFound == 0 {
		page.NumFound = len(items)
	}
	if page.ResultNum == 0 {
		page.ResultNum = len(items)
	}
	return page
}

// normalizeBook maps an upstream book element. Records without a title or
// an ISBN are dropped.
func normalizeBook(b rawBook, loans int) (Book, bool) {
	isbn := CleanISBN(firstNonEmpty(b.ISBN13, b.ISBN))
	book := Book{
		Title:           strings.TrimSpace(b.BookName),
		Author:          strings.TrimSpace(b.Authors),
		Publisher:       strings.TrimSpace(b.Publisher),
		Description:     strings.TrimSpace(b.Description),
		CoverURL:        strings.TrimSpace(b.BookImageURL),
		ISBN:            isbn,
		PublicationYear: strings.TrimSpace(b.PublicationYear),
		LoanCount:       loans,
	}
	if book.LoanCount == 0 {
		book.LoanCount = atoi(b.LoanCount)
	}
	if book.Title == "" || book.ISBN == "" {
		return Book{}, false
	}
	return book, true
}

// normalizeLibrary maps an upstream library element. Records without a code
// or a name are dropped. The region is derived from the address.
func normalizeLibrary(l rawLib) (Library, bool) {
	lib := Library{
		Code:      strings.TrimSpace(l.LibCode),
		Name:      strings.TrimSpace(l.LibName),
		Address:   strings.TrimSpace(l.Address),
		Phone:     strings.TrimSpace(l.Tel),
		Homepage:  strings.TrimSpace(l.Homepage),
		Hours:     strings.TrimSpace(l.OperatingTime),
		Closed:    strings.TrimSpace(l.Closed),
		BookCount: atoi(firstNonEmpty(l.BookCount, l.BookCountLower)),
	}
	if lib.Code == "" || lib.Name == "" {
		return Library{}, false
	}
	if lib.Address != "" {
		lib.Region = RegionName(lib.Address)
	}
	return lib, true
}

// filterByTitle keeps books whose title contains the query or is contained
// by it, ignoring case.
func filterByTitle(books []Book, title string) []Book {
	query := strings.ToLower(strings.TrimSpace(title))
	filtered := make([]Book, 0, len(books))
	for _, b := range books {
		t := strings.ToLower(b.Title)
		if strings.Contains(t, query) || strings.Contains(query, t) {
			filtered = append(filtered, b)
		}
	}
	return filtered
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if s := strings.TrimSpace(v); s != "" {
			return s
		}
	}
	return ""
}
