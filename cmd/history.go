package cmd

import (
	"fmt"

	"github.com/lepinkainen/bookscout/internal/config"
	"github.com/lepinkainen/bookscout/internal/history"
)

// HistoryCmd groups the search history subcommands
type HistoryCmd struct {
	List  HistoryListCmd  `cmd:"" help:"Show recent searches"`
	Clear HistoryClearCmd `cmd:"" help:"Delete all search history"`
}

// HistoryListCmd shows recent searches
type HistoryListCmd struct {
	Limit int `short:"n" help:"Number of entries to show" default:"20"`
}

// HistoryClearCmd deletes all history
type HistoryClearCmd struct{}

func openHistory() (*history.Store, error) {
	cfg := config.Load()
	store, err := history.Open(cfg.History.DBFile)
	if err != nil {
		return nil, fmt.Errorf("failed to open history database: %w", err)
	}
	return store, nil
}

func (c *HistoryListCmd) Run() error {
	store, err := openHistory()
	if err != nil {
		return err
	}
	defer func() { _ = store.Close() }()

	entries, err := store.Recent(c.Limit)
	if err != nil {
		return err
	}
	if jsonOutput {
		return printJSON(entries)
	}
	if len(entries) == 0 {
		_, _ = fmt.Fprintln(out, "No searches recorded.")
		return nil
	}
	for _, e := range entries {
		_, _ = fmt.Fprintf(out, "%s  %-8s  %4d  %s\n",
			e.SearchedAt.Local().Format("2006-01-02 15:04"), e.Kind, e.ResultCount, e.Query)
	}
	return nil
}

func (c *HistoryClearCmd) Run() error {
	store, err := openHistory()
	if err != nil {
		return err
	}
	defer func() { _ = store.Close() }()

	n, err := store.Clear()
	if err != nil {
		return err
	}
	if jsonOutput {
		return printJSON(map[string]int64{"deleted": n})
	}
	_, _ = fmt.Fprintf(out, "Deleted %d entries.\n", n)
	return nil
}
