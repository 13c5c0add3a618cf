package cmd

import (
	"context"
	"fmt"

	"github.com/lepinkainen/bookscout/internal/aggregate"
	"github.com/lepinkainen/bookscout/internal/errors"
	"github.com/lepinkainen/bookscout/internal/history"
	"github.com/lepinkainen/bookscout/internal/library"
	"github.com/lepinkainen/bookscout/internal/render"
)

// HoldingsCmd finds libraries holding a book, searching regions in parallel
type HoldingsCmd struct {
	ISBN        string   `arg:"" help:"10 or 13 digit ISBN"`
	Regions     []string `help:"Region codes to search (default: all 17)" sep:","`
	Concurrency int      `short:"c" help:"Regions searched at once (defaults to parallel.regionconcurrency)"`
	PerRegion   int      `help:"Libraries kept per region (defaults to parallel.perregionlimit)"`
}

func (h *HoldingsCmd) Run(ctx context.Context) error {
	if !library.ValidISBN(h.ISBN) {
		return errors.NewValidationError("isbn", fmt.Sprintf("%q is not a valid ISBN", h.ISBN))
	}
	for _, code := range h.Regions {
		if library.RegionNameForCode(code) == code {
			return errors.NewValidationError("regions", fmt.Sprintf("unknown region code %q", code))
		}
	}

	s := openSession(ctx)
	defer s.Close()

	libs, err := fetchHoldings(ctx, s, library.CleanISBN(h.ISBN), h.Regions, h.Concurrency, h.PerRegion)
	if err != nil {
		return err
	}
	if err := export(libs); err != nil {
		return err
	}
	if jsonOutput {
		return printJSON(libs)
	}
	renderHoldings(libs)
	return nil
}

// bookHoldings is a book lookup together with the libraries holding it.
type bookHoldings struct {
	Books     []library.Book    `json:"books"`
	Libraries []library.Library `json:"libraries"`
}

// printBooksWithHoldings looks up holdings for isbn and prints them with
// books, as one JSON document when --json is set.
func printBooksWithHoldings(ctx context.Context, s *session, books []library.Book, isbn string) error {
	libs, err := fetchHoldings(ctx, s, isbn, nil, 0, 0)
	if err != nil {
		return err
	}
	result := bookHoldings{Books: books, Libraries: libs}
	if err := export(result); err != nil {
		return err
	}
	if jsonOutput {
		return printJSON(result)
	}
	render.Books(out, books)
	renderHoldings(libs)
	return nil
}

func fetchHoldings(ctx context.Context, s *session, isbn string, regions []string, concurrency, perRegion int) ([]library.Library, error) {
	var libs []library.Library
	if s.haveKey() {
		if concurrency <= 0 {
			concurrency = s.cfg.Parallel.RegionConcurrency
		}
		if perRegion <= 0 {
			perRegion = s.cfg.Parallel.PerRegionLimit
		}
		libs = aggregate.FetchRegionsParallel(ctx, s.client, isbn, regions, concurrency, aggregate.RegionOptions{
			PerRegionLimit: perRegion,
			Retry:          s.retryPolicy(),
		})
	} else {
		page, err := s.client.SearchLibrariesByISBN(ctx, isbn, "")
		if err != nil {
			return nil, err
		}
		libs = page.Items
	}
	s.record(isbn, history.KindHoldings, len(libs))
	return libs, nil
}

func renderHoldings(libs []library.Library) {
	_, _ = fmt.Fprintln(out)
	render.RegionSummary(out, libs)
	render.Libraries(out, libs)
}
