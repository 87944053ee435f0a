package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/kitab-io/kitab/internal/reading"
)

// PutContent writes a content page's index row and body atomically.
// The index and the detail table stay consistent even if the caller is
// abandoned mid-flight - the transaction commits or nothing does.
func (s *Store) PutContent(ctx context.Context, page *reading.ContentPage) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return unavailable("put content: begin tx", err)
	}
	defer tx.Rollback() // No-op if committed

	_, err = tx.ExecContext(ctx, `
		INSERT INTO content_index (id, kind, title)
		VALUES (?, ?, ?)
		ON CONFLICT(id, kind) DO UPDATE SET title = excluded.title
	`, page.ID, page.Kind, page.Title)
	if err != nil {
		return unavailable("put content: index", err)
	}

	_, err = tx.ExecContext(ctx, `
		INSERT INTO content_detail (id, kind, body)
		VALUES (?, ?, ?)
		ON CONFLICT(id, kind) DO UPDATE SET body = excluded.body
	`, page.ID, page.Kind, page.Body)
	if err != nil {
		return unavailable("put content: detail", err)
	}

	if err := tx.Commit(); err != nil {
		return unavailable("put content: commit", err)
	}
	return nil
}

// GetContent returns one content page with its body, or nil if the
// (id, kind) pair has never been stored.
func (s *Store) GetContent(ctx context.Context, id int, kind string) (*reading.ContentPage, error) {
	var page reading.ContentPage
	err := s.db.QueryRowContext(ctx, `
		SELECT i.id, i.kind, i.title, d.body
		FROM content_index i
		JOIN content_detail d ON d.id = i.id AND d.kind = i.kind
		WHERE i.id = ? AND i.kind = ?
	`, id, kind).Scan(&page.ID, &page.Kind, &page.Title, &page.Body)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, unavailable("get content", err)
	}
	return &page, nil
}

// ListContentIndex returns the catalog (no bodies) ordered by kind then id.
func (s *Store) ListContentIndex(ctx context.Context) ([]reading.ContentPage, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, kind, title FROM content_index ORDER BY kind, id
	`)
	if err != nil {
		return nil, unavailable("list content index", err)
	}
	defer rows.Close()

	var pages []reading.ContentPage
	for rows.Next() {
		var page reading.ContentPage
		if err := rows.Scan(&page.ID, &page.Kind, &page.Title); err != nil {
			return nil, fmt.Errorf("list content index: scan: %w", err)
		}
		pages = append(pages, page)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("list content index: %w", err)
	}
	return pages, nil
}
