package cache

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"time"
)

// Error taxonomy for the request path. Both network errors trigger tier
// fallback and are never surfaced to the user when a cache hit exists.
var (
	ErrNetworkTimeout     = errors.New("network timeout")
	ErrNetworkUnreachable = errors.New("network unreachable")
)

// FallbackHeader marks responses served from the pinned offline
// document, so callers can tell a real page from the placeholder.
const FallbackHeader = "X-Offline-Fallback"

// DefaultNetworkTimeout bounds the network attempt of the
// network-first strategy so a degraded connection never stalls the
// reader before the cached answer is tried.
const DefaultNetworkTimeout = 5 * time.Second

// DocumentSource supplies locally persisted page bodies. It is
// consulted when a document navigation exhausts both network and cache,
// before the pinned fallback document: a page stored on disk beats the
// generic offline placeholder.
type DocumentSource func(ctx context.Context, path string) ([]byte, bool)

// Engine is the cache policy engine: an http.RoundTripper that applies
// the tier rule table to every outbound request.
//
// The engine runs isolated from page logic and shares no mutable state
// with it - the only communication is the requests themselves.
type Engine struct {
	policy   Policy
	tiers    map[string]*tier
	inner    http.RoundTripper
	timeout  time.Duration
	now      func() time.Time
	source   DocumentSource
	fallback cachedResponse // pinned, never evicted
}

// Option configures an Engine.
type Option func(*Engine)

// WithTransport sets the inner transport used for network attempts.
func WithTransport(rt http.RoundTripper) Option {
	return func(e *Engine) { e.inner = rt }
}

// WithTimeout bounds the network attempt of network-first rules.
func WithTimeout(d time.Duration) Option {
	return func(e *Engine) { e.timeout = d }
}

// WithClock overrides the time source (for age-eviction tests).
func WithClock(now func() time.Time) Option {
	return func(e *Engine) { e.now = now }
}

// WithDocumentSource installs a local document source for offline
// navigations.
func WithDocumentSource(src DocumentSource) Option {
	return func(e *Engine) { e.source = src }
}

// New builds an engine from a policy. The offline fallback document is
// installed here, before any other caching can occur, and is pinned
// outside the LRU tiers so no eviction can touch it.
func New(policy Policy, fallbackDoc []byte, opts ...Option) (*Engine, error) {
	e := &Engine{
		policy:  policy,
		tiers:   make(map[string]*tier),
		inner:   http.DefaultTransport,
		timeout: DefaultNetworkTimeout,
		now:     time.Now,
		fallback: cachedResponse{
			Status: http.StatusOK,
			Header: http.Header{
				"Content-Type": []string{"text/html; charset=utf-8"},
				FallbackHeader: []string{"1"},
			},
			Body: fallbackDoc,
		},
	}
	for _, opt := range opts {
		opt(e)
	}
	for _, rule := range policy.Rules {
		t, err := newTier(rule, e.now)
		if err != nil {
			return nil, err
		}
		e.tiers[rule.Tier] = t
	}
	return e, nil
}

// RoundTrip applies the rule table to one request.
func (e *Engine) RoundTrip(req *http.Request) (*http.Response, error) {
	rule, ok := e.policy.Match(req)
	if !ok {
		// Unmatched requests pass through; a failed navigation still
		// gets the fallback document rather than an error page.
		resp, err := e.inner.RoundTrip(req)
		if err != nil && IsNavigation(req) {
			return e.offlineDocument(req), nil
		}
		return resp, err
	}

	switch rule.Strategy {
	case StrategyNetworkFirst:
		return e.networkFirst(req, rule)
	case StrategyCacheFirst:
		return e.cacheFirst(req, rule)
	default:
		return nil, fmt.Errorf("tier %q: unknown strategy %q", rule.Tier, rule.Strategy)
	}
}

// networkFirst tries the network under the bounded timeout and falls
// back to the most recent cached response for the exact request.
func (e *Engine) networkFirst(req *http.Request, rule *Rule) (*http.Response, error) {
	t := e.tiers[rule.Tier]
	key := Key(req)

	ctx, cancel := context.WithTimeout(req.Context(), e.timeout)
	defer cancel()

	resp, err := e.inner.RoundTrip(req.Clone(ctx))
	if err == nil {
		// The live body is tied to the timeout context, which dies when
		// this function returns. Detach every response, not just the
		// cacheable ones, so the caller can still read it.
		stored, captureErr := capture(resp)
		if captureErr != nil {
			return nil, captureErr
		}
		if cacheable(req, resp) {
			t.Put(key, stored)
		}
		return resp, nil
	}

	netErr := classify(err)
	if cached, ok := t.Get(key); ok {
		slog.Debug("network-first fallback to cache", "tier", rule.Tier, "url", req.URL.String(), "cause", netErr)
		return cached.Response(req), nil
	}
	if IsNavigation(req) {
		return e.offlineDocument(req), nil
	}
	return nil, fmt.Errorf("tier %q: %w", rule.Tier, netErr)
}

// cacheFirst serves from cache when present and never touches the
// network for a hit; a miss fetches and caches before returning.
func (e *Engine) cacheFirst(req *http.Request, rule *Rule) (*http.Response, error) {
	t := e.tiers[rule.Tier]
	key := Key(req)

	if cached, ok := t.Get(key); ok {
		return cached.Response(req), nil
	}

	resp, err := e.inner.RoundTrip(req)
	if err != nil {
		if IsNavigation(req) {
			return e.offlineDocument(req), nil
		}
		return nil, fmt.Errorf("tier %q: %w", rule.Tier, classify(err))
	}
	if cacheable(req, resp) {
		stored, captureErr := capture(resp)
		if captureErr != nil {
			return nil, captureErr
		}
		t.Put(key, stored)
	}
	return resp, nil
}

// offlineDocument resolves a failed navigation: a locally persisted
// page when the document source has one, the pinned placeholder
// otherwise.
func (e *Engine) offlineDocument(req *http.Request) *http.Response {
	if e.source != nil {
		if body, ok := e.source(req.Context(), req.URL.Path); ok {
			slog.Debug("serving stored document", "url", req.URL.String())
			stored := cachedResponse{
				Status: http.StatusOK,
				Header: http.Header{"Content-Type": []string{"text/html; charset=utf-8"}},
				Body:   body,
			}
			return stored.Response(req)
		}
	}
	slog.Debug("serving offline fallback", "url", req.URL.String())
	return e.fallback.Response(req)
}

// precacheWorkers bounds concurrent document fetches during a warmup.
const precacheWorkers = 4

// Precache warms the pages tier by issuing document navigations for
// each target path, so sections read later while offline are already
// cached.
func (e *Engine) Precache(ctx context.Context, baseURL string, paths []string) error {
	pf := NewPrefetcher(ctx, e, baseURL, precacheWorkers)
	for _, p := range paths {
		pf.Enqueue(p)
	}
	return pf.Close()
}

// TierLen reports the live entry count of one tier (status output).
func (e *Engine) TierLen(name string) int {
	t, ok := e.tiers[name]
	if !ok {
		return 0
	}
	return t.Len()
}

// cacheable limits storage to successful GET responses.
func cacheable(req *http.Request, resp *http.Response) bool {
	return req.Method == http.MethodGet &&
		resp.StatusCode >= 200 && resp.StatusCode < 300
}

// classify maps transport errors onto the engine's taxonomy.
func classify(err error) error {
	if errors.Is(err, context.DeadlineExceeded) {
		return ErrNetworkTimeout
	}
	return ErrNetworkUnreachable
}
