package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/kitab-io/kitab/internal/reading"
)

// GetHistory returns the history entry for (identity, date), or nil if
// nothing was read that day.
func (s *Store) GetHistory(ctx context.Context, identity, date string) (*reading.HistoryEntry, error) {
	var entry reading.HistoryEntry
	var sectionsJSON string

	err := s.db.QueryRowContext(ctx, `
		SELECT identity, date, subsection_count, sections
		FROM reading_history
		WHERE identity = ? AND date = ?
	`, identity, date).Scan(
		&entry.Identity,
		&entry.Date,
		&entry.SubsectionCount,
		&sectionsJSON,
	)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, unavailable("get history", err)
	}

	if err := json.Unmarshal([]byte(sectionsJSON), &entry.Sections); err != nil {
		return nil, fmt.Errorf("get history: unmarshal sections: %w", err)
	}
	return &entry, nil
}

// PutHistory upserts the daily history row for (identity, date).
func (s *Store) PutHistory(ctx context.Context, entry *reading.HistoryEntry) error {
	sections := entry.Sections
	if sections == nil {
		sections = []int{}
	}
	sectionsJSON, err := json.Marshal(sections)
	if err != nil {
		return fmt.Errorf("put history: marshal sections: %w", err)
	}

	_, err = s.db.ExecContext(ctx, `
		INSERT INTO reading_history
		(identity, date, subsection_count, sections)
		VALUES (?, ?, ?, ?)
		ON CONFLICT(identity, date) DO UPDATE SET
			subsection_count = excluded.subsection_count,
			sections         = excluded.sections
	`,
		entry.Identity,
		entry.Date,
		entry.SubsectionCount,
		string(sectionsJSON),
	)
	if err != nil {
		return unavailable("put history", err)
	}
	return nil
}

// HistoryDays returns how many distinct days an identity has history
// rows for. Used by streak reporting in the CLI.
func (s *Store) HistoryDays(ctx context.Context, identity string) (int, error) {
	var count int
	err := s.db.QueryRowContext(ctx, `
		SELECT COUNT(*) FROM reading_history WHERE identity = ?
	`, identity).Scan(&count)
	if err != nil {
		return 0, unavailable("history days", err)
	}
	return count, nil
}
