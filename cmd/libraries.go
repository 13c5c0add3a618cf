package cmd

import (
	"context"
	"fmt"

	"github.com/lepinkainen/bookscout/internal/aggregate"
	"github.com/lepinkainen/bookscout/internal/library"
	"github.com/lepinkainen/bookscout/internal/render"
)

// LibrariesCmd lists libraries, fetching a range of pages in parallel
type LibrariesCmd struct {
	Start       int `help:"First page to fetch" default:"1"`
	End         int `help:"Last page to fetch" default:"10"`
	PageSize    int `help:"Libraries per page" default:"100"`
	Concurrency int `short:"c" help:"Pages fetched at once (defaults to parallel.pageconcurrency)"`
}

func (l *LibrariesCmd) Run(ctx context.Context) error {
	s := openSession(ctx)
	defer s.Close()

	if !s.haveKey() {
		page, err := s.client.FetchPage(ctx, l.Start, l.PageSize)
		if err != nil {
			return err
		}
		return printLibraries(page.Items)
	}

	concurrency := l.Concurrency
	if concurrency <= 0 {
		concurrency = s.cfg.Parallel.PageConcurrency
	}

	res, err := aggregate.FetchPagesParallel(ctx, s.client, l.Start, l.End, l.PageSize, concurrency, s.aggregateOptions())
	if err != nil {
		return err
	}
	if err := export(res); err != nil {
		return err
	}
	if jsonOutput {
		return printJSON(res)
	}
	render.Libraries(out, res.Items)
	printPageSummary(res.TotalCount, res.Succeeded, res.Failed)
	return nil
}

func printLibraries(libs []library.Library) error {
	if err := export(libs); err != nil {
		return err
	}
	if jsonOutput {
		return printJSON(libs)
	}
	render.Libraries(out, libs)
	return nil
}

func printPageSummary(total int, succeeded, failed []int) {
	_, _ = fmt.Fprintf(out, "\n%d results from %d pages", total, len(succeeded))
	if len(failed) > 0 {
		_, _ = fmt.Fprintln(out)
		warn("Failed pages: %v", failed)
		return
	}
	_, _ = fmt.Fprintln(out)
}
