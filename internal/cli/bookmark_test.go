package cli

import (
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBookmarkToggle(t *testing.T) {
	db := filepath.Join(t.TempDir(), "kitab.db")

	out, err := execute(t, db, "bookmark", "2", "5")
	require.NoError(t, err)
	assert.Contains(t, out, "bookmark 2/5 added (1 total)")

	out, err = execute(t, db, "bookmark", "2", "5")
	require.NoError(t, err)
	assert.Contains(t, out, "bookmark 2/5 removed (0 total)")
}

func TestBookmarkCategory(t *testing.T) {
	db := filepath.Join(t.TempDir(), "kitab.db")

	_, err := execute(t, db, "bookmark", "2", "5", "--category", "favorites")
	require.NoError(t, err)

	out, err := execute(t, db, "status")
	require.NoError(t, err)
	assert.Contains(t, out, "2/5 [favorites]")
}

func TestBookmarkPreservedByRead(t *testing.T) {
	db := filepath.Join(t.TempDir(), "kitab.db")

	_, err := execute(t, db, "bookmark", "2", "5")
	require.NoError(t, err)
	_, err = execute(t, db, "read", "9", "1")
	require.NoError(t, err)

	out, err := execute(t, db, "status")
	require.NoError(t, err)
	assert.Contains(t, out, "guest: at 9/1, 1 bookmarks")
	assert.Contains(t, out, "2/5 [default]")
}

func TestBookmarkIdentityIsolation(t *testing.T) {
	db := filepath.Join(t.TempDir(), "kitab.db")

	_, err := execute(t, db, "bookmark", "2", "5", "--user", "user-42")
	require.NoError(t, err)

	out, err := execute(t, db, "status")
	require.NoError(t, err)
	assert.Contains(t, out, "guest: no progress yet")

	out, err = execute(t, db, "status", "--user", "user-42")
	require.NoError(t, err)
	assert.Contains(t, out, "user-42")
	assert.Contains(t, out, "2/5 [default]")
}
