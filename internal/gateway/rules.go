// Package gateway routes outbound requests through an ordered table of
// {predicate, policy} rules backed by the response cache: the offline
// behavior of the original app, applied at the HTTP transport layer.
package gateway

import (
	"net/http"
	"net/url"
	"path"
	"strings"
)

type Policy int

const (
	// PolicyNetworkOnly never touches the cache; a failed request yields a
	// synthesized service-unavailable JSON body.
	PolicyNetworkOnly Policy = iota
	// PolicyCacheFirst serves a cached copy when present and revalidates
	// in the background.
	PolicyCacheFirst
	// PolicyNetworkFirst prefers the network and falls back to the cache,
	// or to the cached start page for navigations.
	PolicyNetworkFirst
	// PolicyPassThrough leaves the request alone (not intercepted).
	PolicyPassThrough
)

type Rule struct {
	Name   string
	Match  func(*http.Request) bool
	Policy Policy
}

var staticExtensions = map[string]bool{
	".css":   true,
	".js":    true,
	".html":  true,
	".ico":   true,
	".png":   true,
	".svg":   true,
	".webp":  true,
	".woff":  true,
	".woff2": true,
	".ttf":   true,
}

var allowedHosts = map[string]bool{
	"fonts.googleapis.com": true,
	"fonts.gstatic.com":    true,
	"cdn.jsdelivr.net":     true,
}

// DefaultRules builds the routing table. API traffic is identified by the
// configured API host or a format=json query and is never cached.
func DefaultRules(apiURL string) []Rule {
	apiHost := ""
	if u, err := url.Parse(apiURL); err == nil {
		apiHost = u.Host
	}

	return []Rule{
		{
			Name: "api",
			Match: func(req *http.Request) bool {
				if apiHost != "" && req.URL.Host == apiHost {
					return true
				}
				return req.URL.Query().Get("format") == "json"
			},
			Policy: PolicyNetworkOnly,
		},
		{
			Name: "static-asset",
			Match: func(req *http.Request) bool {
				return staticExtensions[strings.ToLower(path.Ext(req.URL.Path))]
			},
			Policy: PolicyCacheFirst,
		},
		{
			Name: "allow-listed",
			Match: func(req *http.Request) bool {
				return allowedHosts[req.URL.Host]
			},
			Policy: PolicyNetworkFirst,
		},
	}
}

// Route returns the policy for a request. Non-GET traffic and hosts outside
// the table pass through untouched.
func Route(rules []Rule, req *http.Request) Policy {
	if req.Method != http.MethodGet {
		return PolicyPassThrough
	}
	for _, rule := range rules {
		if rule.Match(req) {
			return rule.Policy
		}
	}
	return PolicyPassThrough
}

// HostAllowed reports whether a host is on the static-asset allow list.
func HostAllowed(host string) bool {
	return allowedHosts[host]
}

// IsNavigation reports whether a request asks for a page rather than a
// subresource.
func IsNavigation(req *http.Request) bool {
	if req.Header.Get("Sec-Fetch-Mode") == "navigate" {
		return true
	}
	return strings.Contains(req.Header.Get("Accept"), "text/html")
}
