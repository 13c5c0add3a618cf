package library

import (
	"context"
	"net/http"
	"net/url"
	"strings"
	"sync/atomic"
	"testing"

	"github.com/lepinkainen/bookscout/internal/cache"
	bserrors "github.com/lepinkainen/bookscout/internal/errors"
	"github.com/lepinkainen/bookscout/internal/ratelimit"
	"github.com/lepinkainen/bookscout/internal/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const testAuthKey = "real-key"

type upstream struct {
	hits    atomic.Int32
	lastURL atomic.Value
}

// newUpstream serves handler and counts requests. Handlers are plain funcs
// (no ServeMux) so relay paths like "/http://host/api" are not rewritten.
func newUpstream(t *testing.T, handler http.HandlerFunc) (*upstream, string) {
	t.Helper()
	u := &upstream{}
	server := testutil.NewIPv4TestServer(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		u.hits.Add(1)
		u.lastURL.Store(r.URL.String())
		handler(w, r)
	}))
	return u, server.URL
}

func (u *upstream) query(t *testing.T) url.Values {
	t.Helper()
	raw, _ := u.lastURL.Load().(string)
	parsed, err := url.Parse(raw)
	require.NoError(t, err)
	return parsed.Query()
}

func xmlHandler(body string) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/xml;charset=UTF-8")
		_, _ = w.Write([]byte(body))
	}
}

func newTestClient(t *testing.T, baseURL string, opts ...Option) (*Client, *cache.Store) {
	t.Helper()
	store := cache.New(nil)
	opts = append([]Option{
		WithBaseURL(baseURL),
		WithRelayURL(""),
		WithRateLimiter(ratelimit.New("test", 0)),
	}, opts...)
	return NewClient(testAuthKey, store, opts...), store
}

func TestFetchPageSendsParamsAndCaches(t *testing.T) {
	up, base := newUpstream(t, xmlHandler(manyLibsXML))
	client, store := newTestClient(t, base)
	ctx := context.Background()

	page, err := client.FetchPage(ctx, 2, 50)
	require.NoError(t, err)
	assert.False(t, page.Fallback)
	assert.Len(t, page.Items, 2)

	q := up.query(t)
	assert.Equal(t, testAuthKey, q.Get("authKey"))
	assert.Equal(t, "2", q.Get("pageNo"))
	assert.Equal(t, "50", q.Get("pageSize"))

	again, err := client.FetchPage(ctx, 2, 50)
	require.NoError(t, err)
	assert.Equal(t, page, again)
	assert.Equal(t, int32(1), up.hits.Load(), "second call is served from cache")

	_, ok := store.Get(cache.Key(NamespaceLibrary, 2, 50))
	assert.True(t, ok)
}

func TestCacheBypassRefetches(t *testing.T) {
	up, base := newUpstream(t, xmlHandler(singleLibXML))
	client, store := newTestClient(t, base)
	ctx := context.Background()

	_, err := client.FetchPage(ctx, 1, 10)
	require.NoError(t, err)

	refresh := NewClient(testAuthKey, store, WithBaseURL(base), WithRelayURL(""), WithCacheBypass(true))
	_, err = refresh.FetchPage(ctx, 1, 10)
	require.NoError(t, err)
	assert.Equal(t, int32(2), up.hits.Load())
}

func TestFetchByKeywordSendsFirstTwoWords(t *testing.T) {
	up, base := newUpstream(t, xmlHandler(docsXML))
	client, _ := newTestClient(t, base)

	page, err := client.FetchByKeyword(context.Background(), "세 가지 질문에 대하여", 1, 10)
	require.NoError(t, err)
	assert.Len(t, page.Items, 1)

	assert.Equal(t, "세 가지", up.query(t).Get("keyword"))
	assert.True(t, strings.HasPrefix(up.lastURL.Load().(string), "/api/srchBooks"))
}

func TestFetchByTitleFiltersResults(t *testing.T) {
	body := `<response><numFound>3</numFound><docs>
	  <doc><bookname>데미안</bookname><isbn13>9788937473456</isbn13></doc>
	  <doc><bookname>데미안 읽기</bookname><isbn13>9788937400001</isbn13></doc>
	  <doc><bookname>싯다르타</bookname><isbn13>9788937400002</isbn13></doc>
	</docs></response>`
	up, base := newUpstream(t, xmlHandler(body))
	client, _ := newTestClient(t, base)

	page, err := client.FetchByTitle(context.Background(), "데미안", 1, 10)
	require.NoError(t, err)
	require.Len(t, page.Items, 2)
	assert.Equal(t, 2, page.NumFound)
	assert.Equal(t, 2, page.ResultNum)

	q := up.query(t)
	assert.Equal(t, "데미안", q.Get("title"))
	assert.Equal(t, "bookname", q.Get("searchTarget"))
}

func TestFetchByISBN(t *testing.T) {
	up, base := newUpstream(t, xmlHandler(isbnDetailXML))
	client, _ := newTestClient(t, base)

	page, err := client.FetchByISBN(context.Background(), "978-89-6086-1234")
	require.NoError(t, err)
	require.Len(t, page.Items, 1)
	assert.Equal(t, 100, page.Items[0].LoanCount)

	q := up.query(t)
	assert.Equal(t, "9788960861234", q.Get("isbn13"))
	assert.Equal(t, "Y", q.Get("loaninfoYN"))
	assert.Equal(t, "age", q.Get("displayInfo"))
}

func TestValidationHappensBeforeNetwork(t *testing.T) {
	up, base := newUpstream(t, xmlHandler(docsXML))
	client, _ := newTestClient(t, base)
	ctx := context.Background()

	_, err := client.FetchByISBN(ctx, "12345")
	assert.True(t, bserrors.IsValidationError(err))

	_, err = client.FetchByKeyword(ctx, "   ", 1, 10)
	assert.True(t, bserrors.IsValidationError(err))

	_, err = client.FetchByTitle(ctx, "", 1, 10)
	assert.True(t, bserrors.IsValidationError(err))

	_, err = client.SearchLibrariesByISBN(ctx, "abc", "11")
	assert.True(t, bserrors.IsValidationError(err))

	_, err = client.FetchPage(ctx, 0, 10)
	assert.True(t, bserrors.IsValidationError(err))

	assert.Equal(t, int32(0), up.hits.Load())
}

func TestHoldingsPageSendsRegion(t *testing.T) {
	up, base := newUpstream(t, xmlHandler(manyLibsXML))
	client, _ := newTestClient(t, base)

	page, err := client.HoldingsPage(context.Background(), "9788960861234", "21")
	require.NoError(t, err)
	assert.Len(t, page.Items, 2)

	q := up.query(t)
	assert.Equal(t, "9788960861234", q.Get("isbn"))
	assert.Equal(t, "21", q.Get("region"))
}

func TestFailureServesUncachedFallback(t *testing.T) {
	up, base := newUpstream(t, func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "boom", http.StatusInternalServerError)
	})
	client, store := newTestClient(t, base)
	ctx := context.Background()

	_, err := client.LibraryPage(ctx, 1, 10)
	require.Error(t, err)
	assert.Equal(t, http.StatusInternalServerError, bserrors.UpstreamStatus(err))
	assert.NotContains(t, err.Error(), testAuthKey)

	page, err := client.FetchPage(ctx, 1, 10)
	require.NoError(t, err)
	assert.True(t, page.Fallback)
	assert.Equal(t, "서울도서관", page.Items[0].Name)

	assert.Equal(t, 0, store.Status().MemoryEntries, "fallback is never cached")
	assert.Equal(t, int32(2), up.hits.Load())
}

func TestUpstreamErrorElementIsFailure(t *testing.T) {
	_, base := newUpstream(t, xmlHandler(`<response><error>유효하지 않은 인증키 입니다.</error></response>`))
	client, _ := newTestClient(t, base)

	_, err := client.KeywordPage(context.Background(), "데미안", 1, 10)
	var apiErr *APIError
	require.ErrorAs(t, err, &apiErr)
	assert.Contains(t, apiErr.Message, "인증키")
}

func TestMalformedBodyYieldsEmptyPage(t *testing.T) {
	_, base := newUpstream(t, xmlHandler(`<response><libs><lib>`))
	client, store := newTestClient(t, base)

	page, err := client.LibraryPage(context.Background(), 1, 10)
	require.NoError(t, err)
	assert.Empty(t, page.Items)
	assert.False(t, page.Fallback)
	assert.Equal(t, 0, store.Status().MemoryEntries)
}

func TestPlaceholderKeySkipsNetwork(t *testing.T) {
	for _, key := range []string{"", PlaceholderAuthKey} {
		up, base := newUpstream(t, xmlHandler(docsXML))
		client := NewClient(key, cache.New(nil), WithBaseURL(base))
		assert.False(t, client.HasAuthKey())

		_, err := client.HoldingsPage(context.Background(), "9788960861234", "")
		assert.ErrorIs(t, err, ErrNoAuthKey)

		page, err := client.SearchLibrariesByISBN(context.Background(), "9788960861234", "")
		require.NoError(t, err)
		assert.True(t, page.Fallback)
		assert.Len(t, page.Items, 2)

		assert.Equal(t, int32(0), up.hits.Load())
	}
}

func TestCrossOriginRejectionUsesRelay(t *testing.T) {
	direct, directURL := newUpstream(t, func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "cross-origin", http.StatusForbidden)
	})
	relay, relayURL := newUpstream(t, xmlHandler(singleLibXML))

	client, _ := newTestClient(t, directURL, WithRelayURL(relayURL+"/"))

	page, err := client.LibraryPage(context.Background(), 1, 10)
	require.NoError(t, err)
	require.Len(t, page.Items, 1)

	assert.Equal(t, int32(1), direct.hits.Load())
	assert.Equal(t, int32(1), relay.hits.Load())
	relayed, _ := relay.lastURL.Load().(string)
	assert.Contains(t, relayed, directURL+"/api/libSrch")
}

func TestRelayNotUsedForOrdinaryErrors(t *testing.T) {
	_, directURL := newUpstream(t, func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "nope", http.StatusBadGateway)
	})
	relay, relayURL := newUpstream(t, xmlHandler(singleLibXML))

	client, _ := newTestClient(t, directURL, WithRelayURL(relayURL+"/"))

	_, err := client.LibraryPage(context.Background(), 1, 10)
	require.Error(t, err)
	assert.Equal(t, int32(0), relay.hits.Load())
}

func TestTooManyRequestsLatchesQuota(t *testing.T) {
	up, base := newUpstream(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusTooManyRequests)
	})
	client, _ := newTestClient(t, base)
	ctx := context.Background()

	_, err := client.LibraryPage(ctx, 1, 10)
	assert.True(t, bserrors.IsRateLimitError(err))

	_, err = client.LibraryPage(ctx, 2, 10)
	assert.True(t, bserrors.IsRateLimitError(err))
	assert.Contains(t, err.Error(), "test quota exhausted")
	assert.Equal(t, int32(1), up.hits.Load(), "no requests once the quota is spent")
}

func TestRelayEligible(t *testing.T) {
	assert.True(t, relayEligible(ErrCrossOrigin))
	assert.False(t, relayEligible(ErrMalformedPayload))
	assert.False(t, relayEligible(bserrors.NewUpstreamError("/api", 500)))
}

func TestClientOptionsApply(t *testing.T) {
	customHTTP := &http.Client{}
	limiter := ratelimit.New("library", 2)

	client := NewClient(
		"key",
		nil,
		WithBaseURL("https://example.test/"),
		WithRelayURL("https://relay.test/"),
		WithHTTPClient(customHTTP),
		WithRateLimiter(limiter),
		WithKeywordTokenLimit(3),
		WithCacheBypass(true),
	)

	require.Equal(t, "https://example.test", client.baseURL)
	require.Equal(t, "https://relay.test/", client.relayURL)
	require.Equal(t, customHTTP, client.httpClient)
	require.Equal(t, limiter, client.rateLimiter)
	require.Equal(t, 3, client.keywordTokens)
	require.True(t, client.bypassCache)
	require.Equal(t, "세 가지 질문에", client.PreprocessKeyword("세 가지 질문에 대하여"))
}
