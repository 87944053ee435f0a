package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/kitab-io/kitab/internal/reading"
)

// GetProgress returns the progress record for an identity, or nil if no
// record exists yet. Absence is not an error - it means "never read
// anything" and callers must handle it as such.
func (s *Store) GetProgress(ctx context.Context, identity string) (*reading.ProgressRecord, error) {
	var rec reading.ProgressRecord
	var bookmarksJSON string

	err := s.db.QueryRowContext(ctx, `
		SELECT identity, last_section, last_subsection, last_read_at, bookmarks
		FROM progress
		WHERE identity = ?
	`, identity).Scan(
		&rec.Identity,
		&rec.LastSection,
		&rec.LastSubsection,
		&rec.LastReadAt,
		&bookmarksJSON,
	)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, unavailable("get progress", err)
	}

	rec.Bookmarks, err = unmarshalBookmarks(bookmarksJSON)
	if err != nil {
		return nil, fmt.Errorf("get progress: %w", err)
	}
	return &rec, nil
}

// PutProgress upserts the full progress record for its identity.
// The stored row is replaced wholesale - this is not a patch, so callers
// must read-modify-write to preserve fields they are not changing.
func (s *Store) PutProgress(ctx context.Context, rec *reading.ProgressRecord) error {
	bookmarksJSON, err := marshalBookmarks(rec.Bookmarks)
	if err != nil {
		return fmt.Errorf("put progress: %w", err)
	}

	_, err = s.db.ExecContext(ctx, `
		INSERT INTO progress
		(identity, last_section, last_subsection, last_read_at, bookmarks)
		VALUES (?, ?, ?, ?, ?)
		ON CONFLICT(identity) DO UPDATE SET
			last_section    = excluded.last_section,
			last_subsection = excluded.last_subsection,
			last_read_at    = excluded.last_read_at,
			bookmarks       = excluded.bookmarks
	`,
		rec.Identity,
		rec.LastSection,
		rec.LastSubsection,
		rec.LastReadAt,
		bookmarksJSON,
	)
	if err != nil {
		return unavailable("put progress", err)
	}
	return nil
}

// marshalBookmarks converts a bookmark list to canonical JSON TEXT for
// storage, so two clients holding the same list store identical bytes.
func marshalBookmarks(bookmarks []reading.Bookmark) (string, error) {
	list := make([]any, len(bookmarks))
	for i, b := range bookmarks {
		list[i] = map[string]any{
			"section":    b.Section,
			"subsection": b.Subsection,
			"timestamp":  b.Timestamp,
			"category":   b.Category,
		}
	}
	data, err := reading.MarshalCanonical(list)
	if err != nil {
		return "", fmt.Errorf("marshal bookmarks: %w", err)
	}
	return string(data), nil
}

// unmarshalBookmarks parses stored JSON TEXT back into a bookmark list.
// Empty or missing text decodes to an empty list, never nil-panics.
func unmarshalBookmarks(data string) ([]reading.Bookmark, error) {
	if data == "" || data == "[]" {
		return []reading.Bookmark{}, nil
	}
	var bookmarks []reading.Bookmark
	if err := json.Unmarshal([]byte(data), &bookmarks); err != nil {
		return nil, fmt.Errorf("unmarshal bookmarks: %w", err)
	}
	return bookmarks, nil
}
