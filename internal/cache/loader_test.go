package cache

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefaultPolicy(t *testing.T) {
	policy, err := DefaultPolicy()
	require.NoError(t, err)

	require.Len(t, policy.Rules, 2)
	assert.Equal(t, "/offline", policy.FallbackPath)

	api := policy.Rules[0]
	assert.Equal(t, "api", api.Tier)
	assert.Equal(t, StrategyNetworkFirst, api.Strategy)
	assert.Equal(t, 150, api.Capacity)
	assert.Equal(t, 30*24*time.Hour, api.MaxAge)

	pages := policy.Rules[1]
	assert.Equal(t, "pages", pages.Tier)
	assert.Equal(t, StrategyCacheFirst, pages.Strategy)
	assert.Equal(t, 200, pages.Capacity)
	assert.Equal(t, 365*24*time.Hour, pages.MaxAge)
}

func writePolicy(t *testing.T, src string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "policy.cue")
	require.NoError(t, os.WriteFile(path, []byte(src), 0o644))
	return path
}

func TestLoadPolicyFile_Valid(t *testing.T) {
	path := writePolicy(t, `
package policy

rules: [{
	tier:       "pages"
	strategy:   "cache-first"
	pattern:    "^/section/[0-9]+$"
	capacity:   10
	maxAgeDays: 7
}]
fallback: path: "/offline"
`)

	policy, err := LoadPolicyFile(path)
	require.NoError(t, err)
	require.Len(t, policy.Rules, 1)
	assert.Equal(t, 10, policy.Rules[0].Capacity)
}

func TestLoadPolicyFile_Rejections(t *testing.T) {
	tests := []struct {
		name string
		src  string
	}{
		{"unknown strategy", `
package policy
rules: [{tier: "x", strategy: "write-through", pattern: "^/x", capacity: 1, maxAgeDays: 1}]
fallback: path: "/offline"
`},
		{"non-positive capacity", `
package policy
rules: [{tier: "x", strategy: "cache-first", pattern: "^/x", capacity: 0, maxAgeDays: 1}]
fallback: path: "/offline"
`},
		{"bad pattern", `
package policy
rules: [{tier: "x", strategy: "cache-first", pattern: "^/(x", capacity: 1, maxAgeDays: 1}]
fallback: path: "/offline"
`},
		{"duplicate tier", `
package policy
rules: [
	{tier: "x", strategy: "cache-first", pattern: "^/x", capacity: 1, maxAgeDays: 1},
	{tier: "x", strategy: "cache-first", pattern: "^/y", capacity: 1, maxAgeDays: 1},
]
fallback: path: "/offline"
`},
		{"missing fallback", `
package policy
rules: [{tier: "x", strategy: "cache-first", pattern: "^/x", capacity: 1, maxAgeDays: 1}]
`},
		{"no rules", `
package policy
rules: []
fallback: path: "/offline"
`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := LoadPolicyFile(writePolicy(t, tt.src))
			assert.Error(t, err)
		})
	}
}

func TestLoadPolicyFile_MissingFile(t *testing.T) {
	_, err := LoadPolicyFile("/nonexistent/policy.cue")
	assert.Error(t, err)
}
