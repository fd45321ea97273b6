package gateway

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/thaistayandfly/travel-itinerary/internal/store"
	"github.com/thaistayandfly/travel-itinerary/internal/utils"
)

// Transport applies the policy table to every outbound request. It wraps a
// base RoundTripper so the fetcher and the document gate share one offline
// behavior.
type Transport struct {
	Base         http.RoundTripper
	Cache        *store.ResponseCache
	ShellBucket  string
	StartPageURL string
	Rules        []Rule
}

func (t *Transport) base() http.RoundTripper {
	if t.Base != nil {
		return t.Base
	}
	return http.DefaultTransport
}

func (t *Transport) RoundTrip(req *http.Request) (*http.Response, error) {
	switch Route(t.Rules, req) {
	case PolicyNetworkOnly:
		return t.networkOnly(req)
	case PolicyCacheFirst:
		return t.cacheFirst(req)
	case PolicyNetworkFirst:
		return t.networkFirst(req)
	default:
		return t.base().RoundTrip(req)
	}
}

func (t *Transport) networkOnly(req *http.Request) (*http.Response, error) {
	req.Header.Set("Cache-Control", "no-store")
	resp, err := t.base().RoundTrip(req)
	if err != nil {
		utils.LogEvent("", "gateway", "network_only", "upstream failed: "+err.Error())
		return synthesize(req, http.StatusServiceUnavailable, "application/json",
			[]byte(`{"error":"Network error"}`)), nil
	}
	return resp, nil
}

func (t *Transport) cacheFirst(req *http.Request) (*http.Response, error) {
	key := cacheKey(req)
	if entry, ok := t.Cache.Get(t.ShellBucket, key); ok {
		// the request context dies with the handler; the refresh must not
		go t.revalidate(req.Clone(context.WithoutCancel(req.Context())), key)
		return entryResponse(req, entry), nil
	}

	resp, err := t.base().RoundTrip(req)
	if err != nil {
		return synthesize(req, http.StatusServiceUnavailable, "text/plain",
			[]byte("Offline - resource not available")), nil
	}
	return t.storeResponse(req, key, resp), nil
}

func (t *Transport) networkFirst(req *http.Request) (*http.Response, error) {
	key := cacheKey(req)
	resp, err := t.base().RoundTrip(req)
	if err == nil {
		return t.storeResponse(req, key, resp), nil
	}

	if entry, ok := t.Cache.Get(t.ShellBucket, key); ok {
		return entryResponse(req, entry), nil
	}
	if IsNavigation(req) && t.StartPageURL != "" {
		if entry, ok := t.Cache.Get(t.ShellBucket, t.StartPageURL); ok {
			return entryResponse(req, entry), nil
		}
	}
	return synthesize(req, http.StatusServiceUnavailable, "text/plain",
		[]byte("Offline - resource not available")), nil
}

// revalidate refreshes one cached asset in the background; failures leave
// the stale copy in place.
func (t *Transport) revalidate(req *http.Request, key string) {
	resp, err := t.base().RoundTrip(req)
	if err != nil {
		return
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return
	}
	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return
	}
	_ = t.Cache.Put(t.ShellBucket, key, store.Entry{
		Status:      resp.StatusCode,
		Body:        body,
		ContentType: resp.Header.Get("Content-Type"),
		SourceURL:   req.URL.String(),
	})
}

// storeResponse caches a successful response body and hands back a
// replayable copy.
func (t *Transport) storeResponse(req *http.Request, key string, resp *http.Response) *http.Response {
	if resp.StatusCode != http.StatusOK {
		return resp
	}
	body, err := io.ReadAll(resp.Body)
	resp.Body.Close()
	if err != nil {
		resp.Body = io.NopCloser(bytes.NewReader(nil))
		return resp
	}
	if err := t.Cache.Put(t.ShellBucket, key, store.Entry{
		Status:      resp.StatusCode,
		Body:        body,
		ContentType: resp.Header.Get("Content-Type"),
		SourceURL:   req.URL.String(),
	}); err != nil {
		utils.LogEvent("", "gateway", "cache_put", "store failed: "+err.Error())
	}
	resp.Body = io.NopCloser(bytes.NewReader(body))
	return resp
}

// Warm seeds the shell bucket from the asset list on startup. Per-resource
// failures are logged and skipped, never fatal.
func (t *Transport) Warm(client *http.Client, assets []string) {
	if client == nil {
		client = &http.Client{Timeout: 20 * time.Second, Transport: t.base()}
	}
	for _, asset := range assets {
		resp, err := client.Get(asset)
		if err != nil {
			utils.LogEvent("", "gateway", "warm", "fetch failed: "+asset)
			continue
		}
		body, readErr := io.ReadAll(resp.Body)
		resp.Body.Close()
		if readErr != nil || resp.StatusCode != http.StatusOK {
			utils.LogEvent("", "gateway", "warm", fmt.Sprintf("skipped %s status=%d", asset, resp.StatusCode))
			continue
		}
		_ = t.Cache.Put(t.ShellBucket, asset, store.Entry{
			Status:      resp.StatusCode,
			Body:        body,
			ContentType: resp.Header.Get("Content-Type"),
			SourceURL:   asset,
		})
	}
}

// Activate sweeps previous shell buckets, keeping the parameter backup.
func (t *Transport) Activate() {
	t.Cache.Activate(t.ShellBucket)
}

func cacheKey(req *http.Request) string {
	return req.URL.String()
}

func entryResponse(req *http.Request, entry store.Entry) *http.Response {
	resp := synthesize(req, entry.Status, entry.ContentType, entry.Body)
	for k, v := range entry.Header {
		resp.Header.Set(k, v)
	}
	return resp
}

func synthesize(req *http.Request, status int, contentType string, body []byte) *http.Response {
	header := http.Header{}
	if contentType != "" {
		header.Set("Content-Type", contentType)
	}
	return &http.Response{
		StatusCode:    status,
		Status:        fmt.Sprintf("%d %s", status, http.StatusText(status)),
		Proto:         "HTTP/1.1",
		ProtoMajor:    1,
		ProtoMinor:    1,
		Header:        header,
		Body:          io.NopCloser(bytes.NewReader(body)),
		ContentLength: int64(len(body)),
		Request:       req,
	}
}
