package cmd

import (
	"context"
	"fmt"
	"strings"

	"github.com/lepinkainen/bookscout/internal/cache"
	"github.com/lepinkainen/bookscout/internal/library"
)

var cacheNamespaces = []string{
	library.NamespaceLibrary,
	library.NamespaceISBN,
	library.NamespaceTitle,
	library.NamespaceKeyword,
	library.NamespaceHoldings,
}

// CacheCmd groups the cache maintenance subcommands
type CacheCmd struct {
	Status CacheStatusCmd `cmd:"" help:"Show cache entry counts"`
	Clear  CacheClearCmd  `cmd:"" help:"Clear cached responses"`
	Sweep  CacheSweepCmd  `cmd:"" help:"Remove expired entries"`
}

// CacheStatusCmd prints entry counts per tier
type CacheStatusCmd struct{}

// CacheClearCmd clears one namespace or everything
type CacheClearCmd struct {
	Namespace string `arg:"" optional:"" help:"Namespace to clear: library, isbn, title, keyword, holdings (default: all)"`
}

// CacheSweepCmd removes expired entries
type CacheSweepCmd struct{}

func (c *CacheStatusCmd) Run(ctx context.Context) error {
	s := openSession(ctx)
	defer s.Close()

	st := s.store.Status()
	if jsonOutput {
		return printJSON(st)
	}
	_, _ = fmt.Fprintf(out, "Memory entries:     %d\n", st.MemoryEntries)
	_, _ = fmt.Fprintf(out, "Persistent entries: %d\n", st.PersistentEntries)
	_, _ = fmt.Fprintf(out, "TTL:                %s\n", st.TTL)
	return nil
}

func (c *CacheClearCmd) Run(ctx context.Context) error {
	prefix := ""
	if c.Namespace != "" {
		valid := false
		for _, ns := range cacheNamespaces {
			if c.Namespace == ns {
				valid = true
				break
			}
		}
		if !valid {
			return fmt.Errorf("invalid cache namespace '%s'; valid namespaces are: %s", c.Namespace, strings.Join(cacheNamespaces, ", "))
		}
		prefix = cache.Prefix(c.Namespace)
	}

	s := openSession(ctx)
	defer s.Close()

	s.store.Clear(prefix)
	return nil
}

func (c *CacheSweepCmd) Run(ctx context.Context) error {
	s := openSession(ctx)
	defer s.Close()

	s.store.Sweep()
	return nil
}
