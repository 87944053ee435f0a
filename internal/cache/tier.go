package cache

import (
	"bytes"
	"fmt"
	"io"
	"net/http"
	"time"

	lru "github.com/hashicorp/golang-lru/v2"
)

// cachedResponse is the stored form of one HTTP response.
type cachedResponse struct {
	Status int
	Header http.Header
	Body   []byte
}

// Response rebuilds a servable http.Response backed by the stored bytes.
func (r cachedResponse) Response(req *http.Request) *http.Response {
	return &http.Response{
		Status:        fmt.Sprintf("%d %s", r.Status, http.StatusText(r.Status)),
		StatusCode:    r.Status,
		Proto:         "HTTP/1.1",
		ProtoMajor:    1,
		ProtoMinor:    1,
		Header:        r.Header.Clone(),
		Body:          io.NopCloser(bytes.NewReader(r.Body)),
		ContentLength: int64(len(r.Body)),
		Request:       req,
	}
}

// capture drains a live response into its stored form and replaces the
// consumed body so the caller can still read it.
func capture(resp *http.Response) (cachedResponse, error) {
	body, err := io.ReadAll(resp.Body)
	resp.Body.Close()
	if err != nil {
		return cachedResponse{}, fmt.Errorf("read response body: %w", err)
	}
	resp.Body = io.NopCloser(bytes.NewReader(body))
	return cachedResponse{
		Status: resp.StatusCode,
		Header: resp.Header.Clone(),
		Body:   body,
	}, nil
}

type tierEntry struct {
	res      cachedResponse
	storedAt time.Time
}

// tier is one LRU-bounded, age-bounded cache address space.
//
// Capacity eviction is strict LRU via the backing cache; age eviction
// is lazy - an over-age entry is dropped on the access that finds it,
// even when the tier is under capacity.
type tier struct {
	name   string
	cache  *lru.Cache[string, tierEntry]
	maxAge time.Duration
	now    func() time.Time
}

func newTier(rule Rule, now func() time.Time) (*tier, error) {
	backing, err := lru.New[string, tierEntry](rule.Capacity)
	if err != nil {
		return nil, fmt.Errorf("tier %q: %w", rule.Tier, err)
	}
	return &tier{
		name:   rule.Tier,
		cache:  backing,
		maxAge: rule.MaxAge,
		now:    now,
	}, nil
}

// Get returns the stored response for a key, dropping it instead when
// it has outlived the tier's max age.
func (t *tier) Get(key string) (cachedResponse, bool) {
	entry, ok := t.cache.Get(key)
	if !ok {
		return cachedResponse{}, false
	}
	if t.now().Sub(entry.storedAt) >= t.maxAge {
		t.cache.Remove(key)
		return cachedResponse{}, false
	}
	return entry.res, true
}

// Put stores a response, evicting the least-recently-used entry when
// the tier is at capacity.
func (t *tier) Put(key string, res cachedResponse) {
	t.cache.Add(key, tierEntry{res: res, storedAt: t.now()})
}

// Len returns the number of live entries.
func (t *tier) Len() int {
	return t.cache.Len()
}
