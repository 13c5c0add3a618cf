package cmd

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/lepinkainen/bookscout/internal/aggregate"
	"github.com/lepinkainen/bookscout/internal/errors"
	"github.com/lepinkainen/bookscout/internal/fileutil"
	"github.com/lepinkainen/bookscout/internal/history"
	"github.com/lepinkainen/bookscout/internal/library"
	"github.com/lepinkainen/bookscout/internal/render"
	"github.com/lepinkainen/bookscout/internal/tui"
)

var selectBook = tui.Select

// SearchCmd groups the book search subcommands
type SearchCmd struct {
	ISBN    SearchISBNCmd    `cmd:"" name:"isbn" help:"Look up a book by ISBN"`
	Title   SearchTitleCmd   `cmd:"" help:"Search books by title"`
	Keyword SearchKeywordCmd `cmd:"" help:"Search books by keyword"`
}

// SearchISBNCmd looks up one book with its loan count
type SearchISBNCmd struct {
	ISBN     string `arg:"" help:"10 or 13 digit ISBN"`
	Holdings bool   `help:"Also list libraries holding the book"`
	CoverDir string `help:"Download the cover image into this directory"`
}

// SearchFlags holds the flags shared by title and keyword search
type SearchFlags struct {
	Pages       int  `help:"Result pages to fetch" default:"3"`
	PageSize    int  `help:"Books per page" default:"20"`
	Concurrency int  `short:"c" help:"Pages fetched at once" default:"3"`
	Pick        bool `help:"Pick a result interactively and list libraries holding it"`
}

// SearchTitleCmd searches by title across several pages
type SearchTitleCmd struct {
	Title       string `arg:"" help:"Book title"`
	SearchFlags `embed:""`
}

// SearchKeywordCmd searches by keyword across several pages
type SearchKeywordCmd struct {
	Keyword     string `arg:"" help:"Search keyword; only the first words are sent"`
	SearchFlags `embed:""`
}

func (c *SearchISBNCmd) Run(ctx context.Context) error {
	if !library.ValidISBN(c.ISBN) {
		return errors.NewValidationError("isbn", fmt.Sprintf("%q is not a valid ISBN", c.ISBN))
	}

	s := openSession(ctx)
	defer s.Close()

	s.haveKey()
	page, err := s.client.FetchByISBN(ctx, c.ISBN)
	if err != nil {
		return err
	}
	s.record(library.CleanISBN(c.ISBN), history.KindISBN, page.Len())

	if c.CoverDir != "" {
		saveCovers(ctx, c.CoverDir, page.Items)
	}
	if c.Holdings {
		return printBooksWithHoldings(ctx, s, page.Items, library.CleanISBN(c.ISBN))
	}
	return printBooks(page.Items)
}

func (c *SearchTitleCmd) Run(ctx context.Context) error {
	s := openSession(ctx)
	defer s.Close()

	var books []library.Book
	if s.haveKey() {
		res, err := aggregate.SearchTitleParallel(ctx, s.client, c.Title, c.Pages, c.PageSize, c.Concurrency, s.aggregateOptions())
		if err != nil {
			return err
		}
		if len(res.Failed) > 0 {
			warn("Failed pages: %v", res.Failed)
		}
		books = res.Items
	} else {
		page, err := s.client.FetchByTitle(ctx, c.Title, 1, c.PageSize)
		if err != nil {
			return err
		}
		books = page.Items
	}
	s.record(c.Title, history.KindTitle, len(books))

	return c.finish(ctx, s, c.Title, books)
}

func (c *SearchKeywordCmd) Run(ctx context.Context) error {
	s := openSession(ctx)
	defer s.Close()

	var books []library.Book
	if s.haveKey() {
		res, err := aggregate.SearchKeywordParallel(ctx, s.client, c.Keyword, c.Pages, c.PageSize, c.Concurrency, s.aggregateOptions())
		if err != nil {
			return err
		}
		if res.ProcessedKeyword != res.OriginalKeyword {
			slog.Info("Shortened keyword", "original", res.OriginalKeyword, "sent", res.ProcessedKeyword)
		}
		if len(res.Failed) > 0 {
			warn("Failed pages: %v", res.Failed)
		}
		books = res.Items
	} else {
		page, err := s.client.FetchByKeyword(ctx, c.Keyword, 1, c.PageSize)
		if err != nil {
			return err
		}
		books = page.Items
	}
	s.record(c.Keyword, history.KindKeyword, len(books))

	return c.finish(ctx, s, c.Keyword, books)
}

// finish prints results, or with --pick hands them to the picker and looks up
// holdings for the chosen book.
func (p *SearchFlags) finish(ctx context.Context, s *session, query string, books []library.Book) error {
	if !p.Pick {
		return printBooks(books)
	}

	choice, err := selectBook(query, books)
	if err != nil {
		return err
	}
	switch choice.Action {
	case tui.ActionStopped:
		return errors.NewStopProcessingError(query, "user stopped")
	case tui.ActionSelected:
		return printBooksWithHoldings(ctx, s, []library.Book{*choice.Selection}, choice.Selection.ISBN)
	default:
		warn("No book selected.")
		return nil
	}
}

func printBooks(books []library.Book) error {
	if err := export(books); err != nil {
		return err
	}
	if jsonOutput {
		return printJSON(books)
	}
	render.Books(out, books)
	return nil
}

// saveCovers downloads cover images. Failures are logged, not returned.
func saveCovers(ctx context.Context, dir string, books []library.Book) {
	for _, b := range books {
		if b.CoverURL == "" {
			continue
		}
		_, err := fileutil.DownloadCover(ctx, fileutil.CoverDownloadOptions{
			URL:       b.CoverURL,
			OutputDir: dir,
			Filename:  fileutil.BuildCoverFilename(b.Title, b.ISBN),
			Overwrite: overwrite,
		})
		if err != nil {
			slog.Warn("Failed to download cover", "isbn", b.ISBN, "error", err)
		}
	}
}
