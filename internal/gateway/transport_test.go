package gateway

import (
	"bytes"
	"context"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/thaistayandfly/travel-itinerary/internal/store"
)

// stubRoundTripper answers every request with a fixed response or error.
type stubRoundTripper struct {
	mu     sync.Mutex
	status int
	body   string
	err    error
	calls  int
}

func (s *stubRoundTripper) RoundTrip(req *http.Request) (*http.Response, error) {
	s.mu.Lock()
	s.calls++
	s.mu.Unlock()
	if err := req.Context().Err(); err != nil {
		return nil, err
	}
	if s.err != nil {
		return nil, s.err
	}
	return &http.Response{
		StatusCode: s.status,
		Header:     http.Header{"Content-Type": []string{"text/css"}},
		Body:       io.NopCloser(bytes.NewReader([]byte(s.body))),
		Request:    req,
	}, nil
}

func (s *stubRoundTripper) callCount() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.calls
}

func newTransport(t *testing.T, base http.RoundTripper) *Transport {
	t.Helper()
	return &Transport{
		Base:        base,
		Cache:       store.OpenResponseCache(t.TempDir()),
		ShellBucket: "shell-v2",
		Rules:       DefaultRules("https://api.example/exec"),
	}
}

func TestNetworkOnlySynthesizes503OnFailure(t *testing.T) {
	tr := newTransport(t, &stubRoundTripper{err: errors.New("no route to host")})

	req := httptest.NewRequest("GET", "https://api.example/exec?client=abc", nil)
	resp, err := tr.RoundTrip(req)
	require.NoError(t, err)
	defer resp.Body.Close()

	assert.Equal(t, http.StatusServiceUnavailable, resp.StatusCode)
	body, _ := io.ReadAll(resp.Body)
	assert.JSONEq(t, `{"error":"Network error"}`, string(body))
	assert.Equal(t, "application/json", resp.Header.Get("Content-Type"))
}

func TestNetworkOnlyNeverCaches(t *testing.T) {
	tr := newTransport(t, &stubRoundTripper{status: 200, body: "fresh"})

	req := httptest.NewRequest("GET", "https://api.example/exec?client=abc", nil)
	resp, err := tr.RoundTrip(req)
	require.NoError(t, err)
	resp.Body.Close()

	_, ok := tr.Cache.Get(tr.ShellBucket, req.URL.String())
	assert.False(t, ok, "api responses must not land in the shell cache")
}

func TestCacheFirstServesCachedCopy(t *testing.T) {
	base := &stubRoundTripper{err: errors.New("offline")}
	tr := newTransport(t, base)

	url := "https://cdn.jsdelivr.net/app.css"
	require.NoError(t, tr.Cache.Put(tr.ShellBucket, url, store.Entry{
		Status: 200, Body: []byte("cached css"), ContentType: "text/css",
	}))

	req := httptest.NewRequest("GET", url, nil)
	resp, err := tr.RoundTrip(req)
	require.NoError(t, err)
	defer resp.Body.Close()

	assert.Equal(t, http.StatusOK, resp.StatusCode)
	body, _ := io.ReadAll(resp.Body)
	assert.Equal(t, "cached css", string(body))
}

func TestCacheFirstMissFetchesAndStores(t *testing.T) {
	base := &stubRoundTripper{status: 200, body: "fresh css"}
	tr := newTransport(t, base)

	url := "https://cdn.jsdelivr.net/app.css"
	req := httptest.NewRequest("GET", url, nil)
	resp, err := tr.RoundTrip(req)
	require.NoError(t, err)
	defer resp.Body.Close()

	body, _ := io.ReadAll(resp.Body)
	assert.Equal(t, "fresh css", string(body))

	entry, ok := tr.Cache.Get(tr.ShellBucket, url)
	require.True(t, ok, "fetched asset must be cached")
	assert.Equal(t, []byte("fresh css"), entry.Body)
}

func TestCacheFirstRevalidatesAfterHandlerContextEnds(t *testing.T) {
	base := &stubRoundTripper{status: 200, body: "fresh css"}
	tr := newTransport(t, base)

	url := "https://cdn.jsdelivr.net/app.css"
	require.NoError(t, tr.Cache.Put(tr.ShellBucket, url, store.Entry{
		Status: 200, Body: []byte("stale css"), ContentType: "text/css",
	}))

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	req := httptest.NewRequest("GET", url, nil).WithContext(ctx)

	resp, err := tr.RoundTrip(req)
	require.NoError(t, err)
	defer resp.Body.Close()

	body, _ := io.ReadAll(resp.Body)
	assert.Equal(t, "stale css", string(body), "hit must serve the cached copy")

	assert.Eventually(t, func() bool {
		entry, ok := tr.Cache.Get(tr.ShellBucket, url)
		return ok && string(entry.Body) == "fresh css"
	}, 2*time.Second, 10*time.Millisecond, "background refresh must outlive the request context")
}

func TestCacheFirstOfflineMissSynthesizes(t *testing.T) {
	tr := newTransport(t, &stubRoundTripper{err: errors.New("offline")})

	req := httptest.NewRequest("GET", "https://cdn.jsdelivr.net/app.css", nil)
	resp, err := tr.RoundTrip(req)
	require.NoError(t, err)
	defer resp.Body.Close()

	assert.Equal(t, http.StatusServiceUnavailable, resp.StatusCode)
}

func TestNetworkFirstFallsBackToCache(t *testing.T) {
	tr := newTransport(t, &stubRoundTripper{err: errors.New("offline")})

	url := "https://fonts.googleapis.com/css2?family=Heebo"
	require.NoError(t, tr.Cache.Put(tr.ShellBucket, url, store.Entry{
		Status: 200, Body: []byte("@font-face{}"), ContentType: "text/css",
	}))

	req := httptest.NewRequest("GET", url, nil)
	resp, err := tr.RoundTrip(req)
	require.NoError(t, err)
	defer resp.Body.Close()

	assert.Equal(t, http.StatusOK, resp.StatusCode)
	body, _ := io.ReadAll(resp.Body)
	assert.Equal(t, "@font-face{}", string(body))
}

func TestNetworkFirstNavigationFallsBackToStartPage(t *testing.T) {
	tr := newTransport(t, &stubRoundTripper{err: errors.New("offline")})
	tr.StartPageURL = "https://fonts.googleapis.com/start"

	require.NoError(t, tr.Cache.Put(tr.ShellBucket, tr.StartPageURL, store.Entry{
		Status: 200, Body: []byte("<html>start</html>"), ContentType: "text/html",
	}))

	req := httptest.NewRequest("GET", "https://fonts.googleapis.com/somewhere-else", nil)
	req.Header.Set("Sec-Fetch-Mode", "navigate")
	resp, err := tr.RoundTrip(req)
	require.NoError(t, err)
	defer resp.Body.Close()

	body, _ := io.ReadAll(resp.Body)
	assert.Equal(t, "<html>start</html>", string(body))
}

func TestPassThroughUsesBaseDirectly(t *testing.T) {
	base := &stubRoundTripper{status: 201, body: "created"}
	tr := newTransport(t, base)

	req := httptest.NewRequest("POST", "https://api.example/exec", nil)
	resp, err := tr.RoundTrip(req)
	require.NoError(t, err)
	defer resp.Body.Close()

	assert.Equal(t, 201, resp.StatusCode)
	assert.Equal(t, 1, base.callCount())
}

func TestActivateSweepsViaCache(t *testing.T) {
	tr := newTransport(t, &stubRoundTripper{status: 200})

	require.NoError(t, tr.Cache.Put("shell-v1", "/a", store.Entry{Status: 200, Body: []byte("x")}))
	require.NoError(t, tr.Cache.Put(store.ParamsBucket, "/p", store.Entry{Status: 200, Body: []byte("x")}))

	tr.Activate()

	_, oldOK := tr.Cache.Get("shell-v1", "/a")
	_, paramsOK := tr.Cache.Get(store.ParamsBucket, "/p")
	assert.False(t, oldOK)
	assert.True(t, paramsOK)
}
