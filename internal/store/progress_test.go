package store

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/kitab-io/kitab/internal/reading"
)

func openTestStore(t *testing.T) *Store {
	t.Helper()
	s, err := Open(filepath.Join(t.TempDir(), "test.db"))
	if err != nil {
		t.Fatalf("Open() failed: %v", err)
	}
	t.Cleanup(func() { s.Close() })
	return s
}

func TestGetProgress_AbsentIsNil(t *testing.T) {
	s := openTestStore(t)

	rec, err := s.GetProgress(context.Background(), reading.Guest)
	if err != nil {
		t.Fatalf("GetProgress failed: %v", err)
	}
	if rec != nil {
		t.Errorf("expected nil record for unknown identity, got %+v", rec)
	}
}

func TestPutProgress_Roundtrip(t *testing.T) {
	s := openTestStore(t)
	ctx := context.Background()

	in := &reading.ProgressRecord{
		Identity:       reading.Guest,
		LastSection:    2,
		LastSubsection: 5,
		LastReadAt:     1700000000000,
		Bookmarks: []reading.Bookmark{
			{Section: 2, Subsection: 5, Timestamp: 1700000000000, Category: "favorites"},
			{Section: 1, Subsection: 1, Timestamp: 1700000000001, Category: reading.DefaultCategory},
		},
	}
	if err := s.PutProgress(ctx, in); err != nil {
		t.Fatalf("PutProgress failed: %v", err)
	}

	out, err := s.GetProgress(ctx, reading.Guest)
	if err != nil {
		t.Fatalf("GetProgress failed: %v", err)
	}
	if out == nil {
		t.Fatal("record missing after put")
	}
	if out.LastSection != 2 || out.LastSubsection != 5 || out.LastReadAt != 1700000000000 {
		t.Errorf("position mismatch: %+v", out)
	}
	if len(out.Bookmarks) != 2 {
		t.Fatalf("bookmarks = %d, want 2", len(out.Bookmarks))
	}
	// Order must survive the JSON roundtrip
	if out.Bookmarks[0].Section != 2 || out.Bookmarks[1].Section != 1 {
		t.Errorf("bookmark order changed: %+v", out.Bookmarks)
	}
	if out.Bookmarks[0].Category != "favorites" {
		t.Errorf("category = %q, want favorites", out.Bookmarks[0].Category)
	}
}

func TestPutProgress_UpsertReplacesWholesale(t *testing.T) {
	s := openTestStore(t)
	ctx := context.Background()

	first := &reading.ProgressRecord{
		Identity: "user-1", LastSection: 1, LastSubsection: 1, LastReadAt: 100,
		Bookmarks: []reading.Bookmark{{Section: 1, Subsection: 1, Timestamp: 100, Category: reading.DefaultCategory}},
	}
	if err := s.PutProgress(ctx, first); err != nil {
		t.Fatalf("first PutProgress failed: %v", err)
	}

	// Second put carries no bookmarks; the row is replaced, not patched.
	second := &reading.ProgressRecord{
		Identity: "user-1", LastSection: 3, LastSubsection: 7, LastReadAt: 200,
	}
	if err := s.PutProgress(ctx, second); err != nil {
		t.Fatalf("second PutProgress failed: %v", err)
	}

	out, err := s.GetProgress(ctx, "user-1")
	if err != nil {
		t.Fatalf("GetProgress failed: %v", err)
	}
	if out.LastSection != 3 || out.LastSubsection != 7 {
		t.Errorf("position not replaced: %+v", out)
	}
	if len(out.Bookmarks) != 0 {
		t.Errorf("bookmarks should be replaced wholesale, got %+v", out.Bookmarks)
	}
}

func TestPutProgress_IdentitiesIndependent(t *testing.T) {
	s := openTestStore(t)
	ctx := context.Background()

	guest := &reading.ProgressRecord{Identity: reading.Guest, LastSection: 2, LastSubsection: 5, LastReadAt: 100}
	user := &reading.ProgressRecord{Identity: "user-42", LastSection: 9, LastSubsection: 3, LastReadAt: 200}
	if err := s.PutProgress(ctx, guest); err != nil {
		t.Fatalf("put guest: %v", err)
	}
	if err := s.PutProgress(ctx, user); err != nil {
		t.Fatalf("put user: %v", err)
	}

	gotGuest, err := s.GetProgress(ctx, reading.Guest)
	if err != nil {
		t.Fatalf("get guest: %v", err)
	}
	gotUser, err := s.GetProgress(ctx, "user-42")
	if err != nil {
		t.Fatalf("get user: %v", err)
	}
	if gotGuest.LastSection != 2 || gotUser.LastSection != 9 {
		t.Errorf("identities bled into each other: guest=%+v user=%+v", gotGuest, gotUser)
	}
}
