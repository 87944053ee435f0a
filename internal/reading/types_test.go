package reading

import "testing"

func TestIsBookmarked(t *testing.T) {
	bookmarks := []Bookmark{
		{Section: 2, Subsection: 5, Timestamp: 100, Category: DefaultCategory},
		{Section: 3, Subsection: 1, Timestamp: 200, Category: "favorites"},
	}

	if !IsBookmarked(bookmarks, 2, 5) {
		t.Error("expected (2,5) to be bookmarked")
	}
	if !IsBookmarked(bookmarks, 3, 1) {
		t.Error("expected (3,1) to be bookmarked")
	}
	if IsBookmarked(bookmarks, 2, 6) {
		t.Error("(2,6) should not be bookmarked")
	}
	if IsBookmarked(nil, 1, 1) {
		t.Error("nil slice should report nothing bookmarked")
	}
}

func TestProgressRecord_Clone_Independent(t *testing.T) {
	orig := &ProgressRecord{
		Identity:       Guest,
		LastSection:    2,
		LastSubsection: 5,
		LastReadAt:     1000,
		Bookmarks:      []Bookmark{{Section: 1, Subsection: 1, Timestamp: 10, Category: DefaultCategory}},
	}

	clone := orig.Clone()
	clone.Bookmarks[0].Section = 99
	clone.Bookmarks = append(clone.Bookmarks, Bookmark{Section: 7, Subsection: 7})

	if orig.Bookmarks[0].Section != 1 {
		t.Errorf("clone mutation leaked into original: section = %d", orig.Bookmarks[0].Section)
	}
	if len(orig.Bookmarks) != 1 {
		t.Errorf("clone append leaked into original: len = %d", len(orig.Bookmarks))
	}
}

func TestProgressRecord_Clone_Nil(t *testing.T) {
	var r *ProgressRecord
	if r.Clone() != nil {
		t.Error("Clone of nil record should be nil")
	}
}

func TestHistoryEntry_TouchSection_Distinct(t *testing.T) {
	entry := &HistoryEntry{Identity: Guest, Date: "2026-08-30"}

	entry.TouchSection(2)
	entry.TouchSection(5)
	entry.TouchSection(2)
	entry.TouchSection(5)
	entry.TouchSection(3)

	want := []int{2, 5, 3}
	if len(entry.Sections) != len(want) {
		t.Fatalf("sections = %v, want %v", entry.Sections, want)
	}
	for i, s := range want {
		if entry.Sections[i] != s {
			t.Errorf("sections[%d] = %d, want %d", i, entry.Sections[i], s)
		}
	}
}
