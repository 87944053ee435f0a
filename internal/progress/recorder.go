package progress

import (
	"context"
	"log/slog"
	"time"

	"github.com/kitab-io/kitab/internal/event"
	"github.com/kitab-io/kitab/internal/reading"
)

// HistoryRecorder consumes change notifications and maintains the
// per-day reading history rows used by streak and goal features.
//
// It is a sink for the same events the sync engine consumes - the
// manager itself knows nothing about daily aggregation.
type HistoryRecorder struct {
	storage Storage
	now     func() time.Time
	cancel  func()
}

// NewHistoryRecorder creates a recorder writing to the given storage.
func NewHistoryRecorder(storage Storage) *HistoryRecorder {
	return &HistoryRecorder{storage: storage, now: time.Now}
}

// NewHistoryRecorderWithClock creates a recorder with an injected time
// source, for deterministic scenario traces.
func NewHistoryRecorderWithClock(storage Storage, now func() time.Time) *HistoryRecorder {
	return &HistoryRecorder{storage: storage, now: now}
}

// Attach subscribes the recorder to a bus. Call Detach to stop.
func (r *HistoryRecorder) Attach(bus *event.Bus) {
	r.cancel = bus.Subscribe(func(e event.Event) {
		if err := r.record(context.Background(), e); err != nil {
			// History is best-effort aggregation; a failed row must
			// not surface on the mutation path.
			slog.Warn("history record failed", "identity", e.Identity, "err", err)
		}
	})
}

// Detach removes the bus subscription.
func (r *HistoryRecorder) Detach() {
	if r.cancel != nil {
		r.cancel()
	}
}

func (r *HistoryRecorder) record(ctx context.Context, e event.Event) error {
	// Only position updates count as reading; bookmark toggles don't.
	if e.Op != event.OpProgress || e.Record == nil || e.Record.LastSection == 0 {
		return nil
	}
	date := r.now().Format("2006-01-02")

	entry, err := r.storage.GetHistory(ctx, e.Identity, date)
	if err != nil {
		return err
	}
	if entry == nil {
		entry = &reading.HistoryEntry{Identity: e.Identity, Date: date}
	}
	entry.SubsectionCount++
	entry.TouchSection(e.Record.LastSection)
	return r.storage.PutHistory(ctx, entry)
}
