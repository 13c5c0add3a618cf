// Package library provides a client for the Korean public library data API
// (data4library.kr). Responses are XML; the client normalizes them into Book and
// Library records, caches them, retries blocked requests through a relay, and
// serves a built-in placeholder dataset when the API cannot be reached.
package library

import (
	"net/http"
	"strings"
	"time"

	"github.com/lepinkainen/bookscout/internal/cache"
	"github.com/lepinkainen/bookscout/internal/ratelimit"
)

const (
	defaultBaseURL       = "http://data4library.kr"
	defaultRelayURL      = "https://cors-anywhere.herokuapp.com/"
	defaultTimeout       = 15 * time.Second
	defaultRatePerSecond = 5

	// DefaultKeywordTokenLimit is how many leading words of a keyword query are sent upstream.
	DefaultKeywordTokenLimit = 2

	// PlaceholderAuthKey is the stand-in key used when none is configured.
	PlaceholderAuthKey = "test_api_key_123"
)

// Cache namespaces, usable as cache.Prefix arguments.
const (
	NamespaceLibrary  = "library"
	NamespaceISBN     = "isbn"
	NamespaceTitle    = "title"
	NamespaceKeyword  = "keyword"
	NamespaceHoldings = "holdings"
)

// HTTPDoer is an interface for making HTTP requests.
type HTTPDoer interface {
	Do(*http.Request) (*http.Response, error)
}

// Client is a data4library API client.
type Client struct {
	authKey       string
	baseURL       string
	relayURL      string
	httpClient    HTTPDoer
	rateLimiter   *ratelimit.Limiter
	store         *cache.Store
	keywordTokens int
	bypassCache   bool
}

// NewClient creates a client. store may be nil to disable caching.
func NewClient(authKey string, store *cache.Store, opts ...Option) *Client {
	client := &Client{
		authKey:       strings.TrimSpace(authKey),
		baseURL:       defaultBaseURL,
		relayURL:      defaultRelayURL,
		httpClient:    &http.Client{Timeout: defaultTimeout},
		rateLimiter:   ratelimit.New("data4library", defaultRatePerSecond),
		store:         store,
		keywordTokens: DefaultKeywordTokenLimit,
	}

	for _, opt := range opts {
		opt(client)
	}

	return client
}

// Option is a functional option for configuring the Client.
type Option func(*Client)

// WithHTTPClient sets a custom HTTP client.
func WithHTTPClient(c HTTPDoer) Option {
	return func(client *Client) {
		if c != nil {
			client.httpClient = c
		}
	}
}

// WithBaseURL sets a custom base URL for the library API.
func WithBaseURL(base string) Option {
	return func(client *Client) {
		if base != "" {
			client.baseURL = strings.TrimSuffix(base, "/")
		}
	}
}

// WithRelayURL sets the relay prefix used when a direct request is blocked.
// An empty value disables the relay.
func WithRelayURL(relay string) Option {
	return func(client *Client) {
		client.relayURL = relay
	}
}

// WithRateLimiter sets a custom rate limiter for the client.
func WithRateLimiter(limiter *ratelimit.Limiter) Option {
	return func(client *Client) {
		if limiter != nil {
			client.rateLimiter = limiter
		}
	}
}

// WithKeywordTokenLimit sets how many leading words of a keyword query are kept.
func WithKeywordTokenLimit(n int) Option {
	return func(client *Client) {
		if n > 0 {
			client.keywordTokens = n
		}
	}
}

// WithCacheBypass skips cache reads. Fresh responses are still written back.
func WithCacheBypass(bypass bool) Option {
	return func(client *Client) {
		client.bypassCache = bypass
	}
}

// HasAuthKey reports whether a real auth key is configured.
func (c *Client) HasAuthKey() bool {
	return c.authKey != "" && c.authKey != PlaceholderAuthKey
}

// PreprocessKeyword applies the client's keyword token limit.
func (c *Client) PreprocessKeyword(keyword string) string {
	return PreprocessKeyword(keyword, c.keywordTokens)
}
