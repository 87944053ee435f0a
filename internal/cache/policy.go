// Package cache implements the background caching proxy's tier rules.
//
// The proxy intercepts outbound requests at the http.RoundTripper
// boundary and serves or stores responses per a declarative rule table:
// a network-first tier for volatile API data, a cache-first tier for
// near-static content documents, and one pinned offline fallback
// document for navigations that exhaust both network and cache.
//
// Tiers are independent address spaces - a miss in one never falls
// through to another, except for the explicit cached-retry inside the
// network-first strategy.
package cache

import (
	"net/http"
	"regexp"
	"strings"
	"time"
)

// Strategy names how a tier answers requests.
type Strategy string

const (
	// StrategyNetworkFirst tries the network under a bounded timeout
	// and falls back to the most recent cached response for the exact
	// request on failure.
	StrategyNetworkFirst Strategy = "network-first"
	// StrategyCacheFirst serves a cached response immediately when
	// present, otherwise fetches and caches before returning.
	StrategyCacheFirst Strategy = "cache-first"
)

// Rule binds one URL pattern to one tier. Rules are data: adding or
// tuning a tier means editing the policy source, not dispatch code.
type Rule struct {
	Tier     string
	Strategy Strategy
	Pattern  *regexp.Regexp // matched against the request path
	Capacity int
	MaxAge   time.Duration
}

// Policy is the full rule table plus the fallback document route.
type Policy struct {
	Rules        []Rule
	FallbackPath string
}

// Match returns the first rule whose pattern matches the request path.
func (p Policy) Match(req *http.Request) (*Rule, bool) {
	for i := range p.Rules {
		if p.Rules[i].Pattern.MatchString(req.URL.Path) {
			return &p.Rules[i], true
		}
	}
	return nil, false
}

// Key is the cache key for a request: method plus target URI, the
// minimum composition RFC 9111 requires for choosing a stored response.
func Key(req *http.Request) string {
	return req.Method + " " + req.URL.String()
}

// IsNavigation reports whether a request is a full document navigation,
// the only request type eligible for the offline fallback document.
func IsNavigation(req *http.Request) bool {
	if req.Method != http.MethodGet {
		return false
	}
	if req.Header.Get("Sec-Fetch-Mode") == "navigate" {
		return true
	}
	return strings.Contains(req.Header.Get("Accept"), "text/html")
}
