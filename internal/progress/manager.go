// Package progress implements read and mutate operations over the
// per-identity reading state: last position, bookmarks, and daily
// history.
//
// All mutations are read-modify-write against the storage layer and are
// serialized per identity, so two concurrent toggles against the same
// identity can never interleave and silently drop a bookmark.
// Operations against different identities run independently.
package progress

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/kitab-io/kitab/internal/event"
	"github.com/kitab-io/kitab/internal/reading"
)

// Manager exposes the progress and bookmark operations for the active
// storage identity. Every successful mutation publishes the full
// updated record on the bus, strictly after the write is acknowledged
// by storage.
type Manager struct {
	storage Storage
	bus     *event.Bus
	now     func() time.Time

	mu    sync.Mutex
	locks map[string]*sync.Mutex // one lock per identity key
}

// NewManager creates a manager over the given storage. The bus may be
// nil when no consumer (sync engine) is attached.
func NewManager(storage Storage, bus *event.Bus) *Manager {
	return &Manager{
		storage: storage,
		bus:     bus,
		now:     time.Now,
		locks:   make(map[string]*sync.Mutex),
	}
}

// NewManagerWithClock creates a manager with an injected time source,
// for deterministic scenario traces.
func NewManagerWithClock(storage Storage, bus *event.Bus, now func() time.Time) *Manager {
	m := NewManager(storage, bus)
	m.now = now
	return m
}

// Storage exposes the underlying storage, for wiring consumers that
// share the manager's backing store (the history recorder).
func (m *Manager) Storage() Storage {
	return m.storage
}

// identityLock returns the mutex serializing mutations for one identity.
func (m *Manager) identityLock(identity string) *sync.Mutex {
	m.mu.Lock()
	defer m.mu.Unlock()
	lock, ok := m.locks[identity]
	if !ok {
		lock = &sync.Mutex{}
		m.locks[identity] = lock
	}
	return lock
}

// LoadProgress returns the record for an identity, or nil if the
// identity has never read anything. Nil is a valid answer, not an error.
func (m *Manager) LoadProgress(ctx context.Context, identity string) (*reading.ProgressRecord, error) {
	rec, err := m.storage.GetProgress(ctx, identity)
	if err != nil {
		return nil, fmt.Errorf("load progress: %w", err)
	}
	return rec, nil
}

// SaveProgress records the last read position for an identity. The
// existing bookmark list is preserved untouched - a position update
// must never shrink or reorder it as a side effect. Returns the
// persisted record.
func (m *Manager) SaveProgress(ctx context.Context, identity string, section, subsection int) (*reading.ProgressRecord, error) {
	if section < 1 || subsection < 1 {
		return nil, fmt.Errorf("save progress: position %d/%d out of range", section, subsection)
	}

	lock := m.identityLock(identity)
	lock.Lock()
	defer lock.Unlock()

	rec, err := m.storage.GetProgress(ctx, identity)
	if err != nil {
		return nil, fmt.Errorf("save progress: %w", err)
	}
	if rec == nil {
		// Lazily create on first mutation; no pre-provisioning.
		rec = &reading.ProgressRecord{Identity: identity, Bookmarks: []reading.Bookmark{}}
	}

	rec.LastSection = section
	rec.LastSubsection = subsection
	rec.LastReadAt = m.now().UnixMilli()

	if err := m.storage.PutProgress(ctx, rec); err != nil {
		return nil, fmt.Errorf("save progress: %w", err)
	}
	m.publish(event.OpProgress, identity, rec)
	return rec, nil
}

// ToggleBookmark adds the (section, subsection) bookmark if absent and
// removes it if present. An empty category defaults to "default".
// The read-modify-write is atomic per identity. Returns the persisted
// record.
func (m *Manager) ToggleBookmark(ctx context.Context, identity string, section, subsection int, category string) (*reading.ProgressRecord, error) {
	if category == "" {
		category = reading.DefaultCategory
	}

	lock := m.identityLock(identity)
	lock.Lock()
	defer lock.Unlock()

	rec, err := m.storage.GetProgress(ctx, identity)
	if err != nil {
		return nil, fmt.Errorf("toggle bookmark: %w", err)
	}
	if rec == nil {
		rec = &reading.ProgressRecord{Identity: identity, Bookmarks: []reading.Bookmark{}}
	}

	if reading.IsBookmarked(rec.Bookmarks, section, subsection) {
		kept := rec.Bookmarks[:0]
		for _, b := range rec.Bookmarks {
			if b.Section != section || b.Subsection != subsection {
				kept = append(kept, b)
			}
		}
		rec.Bookmarks = kept
	} else {
		rec.Bookmarks = append(rec.Bookmarks, reading.Bookmark{
			Section:    section,
			Subsection: subsection,
			Timestamp:  m.now().UnixMilli(),
			Category:   category,
		})
	}

	if err := m.storage.PutProgress(ctx, rec); err != nil {
		return nil, fmt.Errorf("toggle bookmark: %w", err)
	}
	m.publish(event.OpBookmark, identity, rec)
	return rec, nil
}

// IsBookmarked reports whether the pair is bookmarked in the list.
// Pure, no storage access.
func (m *Manager) IsBookmarked(bookmarks []reading.Bookmark, section, subsection int) bool {
	return reading.IsBookmarked(bookmarks, section, subsection)
}

// publish emits the change notification. Called only after the storage
// write returned, so consumers never observe an unacknowledged state.
func (m *Manager) publish(op, identity string, rec *reading.ProgressRecord) {
	if m.bus == nil {
		return
	}
	m.bus.Publish(event.Event{Op: op, Identity: identity, Record: rec.Clone()})
}
