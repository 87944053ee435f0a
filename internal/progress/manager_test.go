package progress

import (
	"context"
	"errors"
	"path/filepath"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kitab-io/kitab/internal/event"
	"github.com/kitab-io/kitab/internal/reading"
	"github.com/kitab-io/kitab/internal/store"
)

func TestLoadProgress_UnknownIdentityIsNil(t *testing.T) {
	m := NewManager(NewMemStorage(), nil)

	rec, err := m.LoadProgress(context.Background(), reading.Guest)
	require.NoError(t, err)
	assert.Nil(t, rec, "never-read identity must load as nil, not error")
}

func TestSaveProgress_CreatesLazilyAndStampsTime(t *testing.T) {
	m := NewManager(NewMemStorage(), nil)

	rec, err := m.SaveProgress(context.Background(), reading.Guest, 2, 5)
	require.NoError(t, err)
	assert.Equal(t, 2, rec.LastSection)
	assert.Equal(t, 5, rec.LastSubsection)
	assert.NotZero(t, rec.LastReadAt)
	assert.Empty(t, rec.Bookmarks)
}

func TestSaveProgress_RejectsNonPositivePositions(t *testing.T) {
	m := NewManager(NewMemStorage(), nil)

	_, err := m.SaveProgress(context.Background(), reading.Guest, 0, 5)
	assert.Error(t, err)
	_, err = m.SaveProgress(context.Background(), reading.Guest, 2, -1)
	assert.Error(t, err)
}

func TestSaveProgress_PreservesBookmarks(t *testing.T) {
	m := NewManager(NewMemStorage(), nil)
	ctx := context.Background()

	_, err := m.ToggleBookmark(ctx, reading.Guest, 1, 1, "")
	require.NoError(t, err)
	_, err = m.ToggleBookmark(ctx, reading.Guest, 3, 7, "favorites")
	require.NoError(t, err)

	// A sequence of position updates must never shrink or reorder the list.
	for _, pos := range [][2]int{{2, 5}, {4, 1}, {9, 9}} {
		rec, err := m.SaveProgress(ctx, reading.Guest, pos[0], pos[1])
		require.NoError(t, err)
		require.Len(t, rec.Bookmarks, 2)
		assert.Equal(t, 1, rec.Bookmarks[0].Section)
		assert.Equal(t, 3, rec.Bookmarks[1].Section)
	}
}

func TestToggleBookmark_Parity(t *testing.T) {
	m := NewManager(NewMemStorage(), nil)
	ctx := context.Background()

	// Odd number of toggles => bookmarked; even => not.
	for i := 1; i <= 5; i++ {
		rec, err := m.ToggleBookmark(ctx, reading.Guest, 2, 5, "")
		require.NoError(t, err)
		want := i%2 == 1
		assert.Equal(t, want, m.IsBookmarked(rec.Bookmarks, 2, 5), "after %d toggles", i)
	}
}

func TestToggleBookmark_DefaultsCategory(t *testing.T) {
	m := NewManager(NewMemStorage(), nil)

	rec, err := m.ToggleBookmark(context.Background(), reading.Guest, 2, 5, "")
	require.NoError(t, err)
	require.Len(t, rec.Bookmarks, 1)
	assert.Equal(t, reading.DefaultCategory, rec.Bookmarks[0].Category)
}

func TestToggleBookmark_RemovePreservesOrder(t *testing.T) {
	m := NewManager(NewMemStorage(), nil)
	ctx := context.Background()

	for _, pos := range [][2]int{{1, 1}, {2, 2}, {3, 3}} {
		_, err := m.ToggleBookmark(ctx, reading.Guest, pos[0], pos[1], "")
		require.NoError(t, err)
	}
	rec, err := m.ToggleBookmark(ctx, reading.Guest, 2, 2, "")
	require.NoError(t, err)

	require.Len(t, rec.Bookmarks, 2)
	assert.Equal(t, 1, rec.Bookmarks[0].Section)
	assert.Equal(t, 3, rec.Bookmarks[1].Section)
}

func TestIdentitySwitch_RecordsStayIndependent(t *testing.T) {
	m := NewManager(NewMemStorage(), nil)
	ctx := context.Background()

	_, err := m.SaveProgress(ctx, reading.Guest, 2, 5)
	require.NoError(t, err)

	// Login: writes go to the user key, the guest record is untouched.
	_, err = m.SaveProgress(ctx, "user-42", 9, 1)
	require.NoError(t, err)

	// Logout: guest record still addressable with its old position.
	guest, err := m.LoadProgress(ctx, reading.Guest)
	require.NoError(t, err)
	require.NotNil(t, guest)
	assert.Equal(t, 2, guest.LastSection)

	user, err := m.LoadProgress(ctx, "user-42")
	require.NoError(t, err)
	require.NotNil(t, user)
	assert.Equal(t, 9, user.LastSection)
}

func TestMutations_PublishAfterAcknowledgedWrite(t *testing.T) {
	bus := event.NewBusWithIDs(event.NewFixedGenerator("ev-1", "ev-2"))
	m := NewManager(NewMemStorage(), bus)

	var events []event.Event
	bus.Subscribe(func(e event.Event) { events = append(events, e) })

	_, err := m.SaveProgress(context.Background(), reading.Guest, 2, 5)
	require.NoError(t, err)
	_, err = m.ToggleBookmark(context.Background(), reading.Guest, 2, 5, "favorites")
	require.NoError(t, err)

	require.Len(t, events, 2)
	assert.Equal(t, event.OpProgress, events[0].Op)
	assert.Equal(t, event.OpBookmark, events[1].Op)
	assert.Equal(t, reading.Guest, events[0].Identity)
	require.NotNil(t, events[1].Record)
	assert.Len(t, events[1].Record.Bookmarks, 1)
}

// failingStorage rejects all writes.
type failingStorage struct{ *MemStorage }

func (f failingStorage) PutProgress(context.Context, *reading.ProgressRecord) error {
	return errors.New("disk full")
}

func TestMutations_NoEventOnFailedWrite(t *testing.T) {
	bus := event.NewBus()
	m := NewManager(failingStorage{NewMemStorage()}, bus)

	count := 0
	bus.Subscribe(func(event.Event) { count++ })

	_, err := m.SaveProgress(context.Background(), reading.Guest, 2, 5)
	assert.Error(t, err)
	assert.Zero(t, count, "no notification before a durable write")
}

func TestToggleBookmark_ConcurrentTogglesDoNotDrop(t *testing.T) {
	m := NewManager(NewMemStorage(), nil)
	ctx := context.Background()

	// Two goroutines each toggle a distinct pair once; both bookmarks
	// must survive the interleaving.
	var wg sync.WaitGroup
	for i := 0; i < 2; i++ {
		wg.Add(1)
		go func(section int) {
			defer wg.Done()
			_, err := m.ToggleBookmark(ctx, reading.Guest, section, 1, "")
			assert.NoError(t, err)
		}(i + 1)
	}
	wg.Wait()

	rec, err := m.LoadProgress(ctx, reading.Guest)
	require.NoError(t, err)
	require.NotNil(t, rec)
	assert.Len(t, rec.Bookmarks, 2, "concurrent toggles must not drop a bookmark")
}

// A bookmark toggle as the very first mutation for an identity must
// create the record lazily, against the real store, not just the
// in-memory fallback.
func TestToggleBookmark_FirstMutation_SQLite(t *testing.T) {
	s, err := store.Open(filepath.Join(t.TempDir(), "test.db"))
	require.NoError(t, err)
	defer s.Close()

	m := NewManager(s, nil)
	ctx := context.Background()

	rec, err := m.ToggleBookmark(ctx, reading.Guest, 2, 5, "favorites")
	require.NoError(t, err)
	require.Len(t, rec.Bookmarks, 1)
	assert.Zero(t, rec.LastSection, "no position recorded before any read")
	assert.Zero(t, rec.LastSubsection)

	// The record round-trips and a later read fills in the position
	// without touching the bookmark.
	rec, err = m.LoadProgress(ctx, reading.Guest)
	require.NoError(t, err)
	require.NotNil(t, rec)
	require.Len(t, rec.Bookmarks, 1)

	rec, err = m.SaveProgress(ctx, reading.Guest, 2, 5)
	require.NoError(t, err)
	assert.Equal(t, 2, rec.LastSection)
	require.Len(t, rec.Bookmarks, 1)
}

// The end-to-end guest flow against the real SQLite store.
func TestManager_EndToEnd_SQLite(t *testing.T) {
	s, err := store.Open(filepath.Join(t.TempDir(), "test.db"))
	require.NoError(t, err)
	defer s.Close()

	m := NewManager(s, nil)
	ctx := context.Background()

	_, err = m.SaveProgress(ctx, reading.Guest, 2, 5)
	require.NoError(t, err)

	rec, err := m.LoadProgress(ctx, reading.Guest)
	require.NoError(t, err)
	require.NotNil(t, rec)
	assert.Equal(t, 2, rec.LastSection)
	assert.Equal(t, 5, rec.LastSubsection)
	assert.Empty(t, rec.Bookmarks)

	rec, err = m.ToggleBookmark(ctx, reading.Guest, 2, 5, "favorites")
	require.NoError(t, err)
	require.Len(t, rec.Bookmarks, 1)
	assert.Equal(t, 2, rec.Bookmarks[0].Section)
	assert.Equal(t, 5, rec.Bookmarks[0].Subsection)
	assert.Equal(t, "favorites", rec.Bookmarks[0].Category)

	rec, err = m.ToggleBookmark(ctx, reading.Guest, 2, 5, "favorites")
	require.NoError(t, err)
	assert.Empty(t, rec.Bookmarks)
}
