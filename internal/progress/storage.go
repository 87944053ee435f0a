package progress

import (
	"context"
	"sync"

	"github.com/kitab-io/kitab/internal/reading"
)

// Storage is the persistence surface the manager needs. *store.Store
// satisfies it; MemStorage is the degraded fallback used when the
// on-device database reports ErrStorageUnavailable.
type Storage interface {
	GetProgress(ctx context.Context, identity string) (*reading.ProgressRecord, error)
	PutProgress(ctx context.Context, rec *reading.ProgressRecord) error
	GetHistory(ctx context.Context, identity, date string) (*reading.HistoryEntry, error)
	PutHistory(ctx context.Context, entry *reading.HistoryEntry) error
}

// MemStorage keeps records in process memory only. It exists so a
// session with no working persistent store still reads and writes
// normally instead of crashing; the data is simply lost on exit.
type MemStorage struct {
	mu       sync.Mutex
	progress map[string]*reading.ProgressRecord
	history  map[string]*reading.HistoryEntry
}

// NewMemStorage creates an empty in-memory storage.
func NewMemStorage() *MemStorage {
	return &MemStorage{
		progress: make(map[string]*reading.ProgressRecord),
		history:  make(map[string]*reading.HistoryEntry),
	}
}

// GetProgress returns a copy of the stored record, or nil if absent.
func (m *MemStorage) GetProgress(_ context.Context, identity string) (*reading.ProgressRecord, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.progress[identity].Clone(), nil
}

// PutProgress stores a copy of the record under its identity.
func (m *MemStorage) PutProgress(_ context.Context, rec *reading.ProgressRecord) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.progress[rec.Identity] = rec.Clone()
	return nil
}

// GetHistory returns the stored entry for (identity, date), or nil.
func (m *MemStorage) GetHistory(_ context.Context, identity, date string) (*reading.HistoryEntry, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	entry, ok := m.history[identity+"\x00"+date]
	if !ok {
		return nil, nil
	}
	out := *entry
	out.Sections = append([]int(nil), entry.Sections...)
	return &out, nil
}

// PutHistory stores the entry under (identity, date).
func (m *MemStorage) PutHistory(_ context.Context, entry *reading.HistoryEntry) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	stored := *entry
	stored.Sections = append([]int(nil), entry.Sections...)
	m.history[entry.Identity+"\x00"+entry.Date] = &stored
	return nil
}
