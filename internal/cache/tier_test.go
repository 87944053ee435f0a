package cache

import (
	"fmt"
	"net/http"
	"regexp"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func apiRule(capacity int, maxAge time.Duration) Rule {
	return Rule{
		Tier:     "api",
		Strategy: StrategyNetworkFirst,
		Pattern:  regexp.MustCompile(`^/api/`),
		Capacity: capacity,
		MaxAge:   maxAge,
	}
}

func stored(body string) cachedResponse {
	return cachedResponse{
		Status: http.StatusOK,
		Header: http.Header{},
		Body:   []byte(body),
	}
}

func TestTier_CapacityEvictsExactlyLRU(t *testing.T) {
	tr, err := newTier(apiRule(150, 30*24*time.Hour), time.Now)
	require.NoError(t, err)

	for i := 1; i <= 150; i++ {
		tr.Put(fmt.Sprintf("GET /api/%d", i), stored("x"))
	}
	require.Equal(t, 150, tr.Len())

	// Touch entry 1 so entry 2 becomes the least recently used.
	_, ok := tr.Get("GET /api/1")
	require.True(t, ok)

	tr.Put("GET /api/151", stored("x"))

	assert.Equal(t, 150, tr.Len(), "exactly one entry evicted")
	_, ok = tr.Get("GET /api/2")
	assert.False(t, ok, "least-recently-used entry evicted")
	_, ok = tr.Get("GET /api/1")
	assert.True(t, ok, "recently touched entry survives")
	_, ok = tr.Get("GET /api/151")
	assert.True(t, ok, "new entry present")
}

func TestTier_MaxAgeEvictsLazilyOnAccess(t *testing.T) {
	now := time.Date(2026, 8, 30, 12, 0, 0, 0, time.UTC)
	clock := func() time.Time { return now }

	tr, err := newTier(apiRule(10, 30*24*time.Hour), clock)
	require.NoError(t, err)

	tr.Put("GET /api/old", stored("x"))
	require.Equal(t, 1, tr.Len())

	// Under capacity, over age: the entry stays resident until the
	// access that finds it expired.
	now = now.Add(31 * 24 * time.Hour)
	require.Equal(t, 1, tr.Len())

	_, ok := tr.Get("GET /api/old")
	assert.False(t, ok, "expired entry is a miss")
	assert.Equal(t, 0, tr.Len(), "expired entry dropped on access")
}

func TestTier_FreshEntrySurvivesAccess(t *testing.T) {
	now := time.Date(2026, 8, 30, 12, 0, 0, 0, time.UTC)
	tr, err := newTier(apiRule(10, 30*24*time.Hour), func() time.Time { return now })
	require.NoError(t, err)

	tr.Put("GET /api/fresh", stored("payload"))
	now = now.Add(29 * 24 * time.Hour)

	res, ok := tr.Get("GET /api/fresh")
	require.True(t, ok)
	assert.Equal(t, "payload", string(res.Body))
}
