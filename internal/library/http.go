package library

import (
	"context"
	"encoding/xml"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net"
	"net/http"
	"net/url"
	"strings"
	"syscall"

	bserrors "github.com/lepinkainen/bookscout/internal/errors"
)

const maxResponseBytes = 8 << 20

var (
	// ErrCrossOrigin marks a request the upstream or an intermediary refused
	// because of where it came from. Such requests are retried through the relay.
	ErrCrossOrigin = errors.New("cross-origin request rejected")
	// ErrNoAuthKey is returned by the strict page methods when no real key is configured.
	ErrNoAuthKey = errors.New("library API auth key not configured")
	// ErrMalformedPayload means the body was not parseable XML.
	ErrMalformedPayload = errors.New("malformed library API response")
)

// APIError is an error message the upstream reported inside a 200 response.
type APIError struct {
	Message string
}

func (e *APIError) Error() string {
	return "library API error: " + e.Message
}

func (c *Client) endpoint(path string, params url.Values) string {
	params.Set("authKey", c.authKey)
	return fmt.Sprintf("%s%s?%s", c.baseURL, path, params.Encode())
}

// getXML fetches target, retrying once through the relay when the direct
// request failed in a way the relay can get around.
func (c *Client) getXML(ctx context.Context, target string) (*rawResponse, error) {
	raw, err := c.doXMLRequest(ctx, target)
	if err == nil {
		return raw, nil
	}
	if c.relayURL == "" || !relayEligible(err) {
		return nil, err
	}

	slog.Info("Direct request failed, retrying through relay", "relay", c.relayURL, "error", err)
	raw, relayErr := c.doXMLRequest(ctx, c.relayURL+target)
	if relayErr != nil {
		return nil, errors.Join(err, fmt.Errorf("relay: %w", relayErr))
	}
	return raw, nil
}

func (c *Client) doXMLRequest(ctx context.Context, target string) (*rawResponse, error) {
	if c.rateLimiter.Exhausted() {
		return nil, bserrors.NewRateLimitError(fmt.Sprintf("%s quota exhausted for this run", c.rateLimiter.Name()))
	}
	if err := c.rateLimiter.Wait(ctx); err != nil {
		return nil, err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, target, nil)
	if err != nil {
		return nil, err
	}
	req.Header.Set("Accept", "application/xml, text/xml, */*")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		var urlErr *url.Error
		if errors.As(err, &urlErr) {
			urlErr.URL = redact(urlErr.URL)
		}
		return nil, err
	}
	defer func() { _ = resp.Body.Close() }()

	switch {
	case resp.StatusCode == http.StatusTooManyRequests:
		c.rateLimiter.MarkExhausted()
		return nil, bserrors.NewRateLimitError(fmt.Sprintf("%s returned 429", c.rateLimiter.Name()))
	case resp.StatusCode == http.StatusForbidden:
		return nil, fmt.Errorf("%w: %w", ErrCrossOrigin, bserrors.NewUpstreamError(redact(target), resp.StatusCode))
	case resp.StatusCode < 200 || resp.StatusCode >= 300:
		return nil, bserrors.NewUpstreamError(redact(target), resp.StatusCode)
	}

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseBytes))
	if err != nil {
		return nil, fmt.Errorf("failed to read response: %w", err)
	}

	var raw rawResponse
	if err := xml.Unmarshal(body, &raw); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrMalformedPayload, err)
	}
	if msg := strings.TrimSpace(raw.Error); msg != "" {
		return nil, &APIError{Message: msg}
	}
	return &raw, nil
}

// relayEligible reports whether a failure looks like the request was blocked
// on the way out rather than rejected by the API itself.
func relayEligible(err error) bool {
	if errors.Is(err, ErrCrossOrigin) {
		return true
	}
	if errors.Is(err, syscall.ECONNREFUSED) || errors.Is(err, syscall.ECONNRESET) {
		return true
	}
	var dnsErr *net.DNSError
	return errors.As(err, &dnsErr)
}

// redact drops the query string so auth keys never reach logs or errors.
func redact(target string) string {
	if i := strings.IndexByte(target, '?'); i >= 0 {
		return target[:i]
	}
	return target
}
