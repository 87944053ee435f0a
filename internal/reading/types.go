package reading

// Guest is the anonymous storage identity used before login.
// All progress written while unauthenticated is keyed under it.
const Guest = "guest"

// DefaultCategory is the bookmark category applied when none is given.
const DefaultCategory = "default"

// Bookmark marks one (section, subsection) position.
//
// Bookmarks are unique by (Section, Subsection) within a record;
// re-adding an existing pair removes it (toggle semantics).
type Bookmark struct {
	Section    int    `json:"section"`
	Subsection int    `json:"subsection"`
	Timestamp  int64  `json:"timestamp"` // ms since epoch
	Category   string `json:"category"`
}

// ProgressRecord is the per-identity reading state: the last position
// read plus the ordered bookmark list. At most one record exists per
// identity; the store replaces the whole record on every write, so
// callers must read-modify-write.
type ProgressRecord struct {
	Identity       string     `json:"identity"`
	LastSection    int        `json:"last_section"`
	LastSubsection int        `json:"last_subsection"`
	LastReadAt     int64      `json:"last_read_at"` // ms since epoch
	Bookmarks      []Bookmark `json:"bookmarks"`
}

// IsBookmarked reports whether the (section, subsection) pair is present.
// Pure membership test; safe on a nil slice.
func IsBookmarked(bookmarks []Bookmark, section, subsection int) bool {
	for _, b := range bookmarks {
		if b.Section == section && b.Subsection == subsection {
			return true
		}
	}
	return false
}

// Clone returns a deep copy of the record. The manager hands clones to
// listeners so no consumer can mutate stored state.
func (r *ProgressRecord) Clone() *ProgressRecord {
	if r == nil {
		return nil
	}
	out := *r
	out.Bookmarks = make([]Bookmark, len(r.Bookmarks))
	copy(out.Bookmarks, r.Bookmarks)
	return &out
}

// HistoryEntry is one append-only row per (identity, date): how many
// subsections were read that day and which distinct sections were touched.
// Date is formatted "2006-01-02" in the reader's local time.
type HistoryEntry struct {
	Identity        string `json:"identity"`
	Date            string `json:"date"`
	SubsectionCount int    `json:"subsection_count"`
	Sections        []int  `json:"sections"`
}

// TouchSection adds a section index to the distinct set, keeping order
// of first touch.
func (h *HistoryEntry) TouchSection(section int) {
	for _, s := range h.Sections {
		if s == section {
			return
		}
	}
	h.Sections = append(h.Sections, section)
}

// ContentPage is one cached static content unit: a section or a bundle
// (1/30th of the corpus), addressed by a stable numeric id.
type ContentPage struct {
	ID    int    `json:"id"`
	Kind  string `json:"kind"` // "section" or "bundle"
	Title string `json:"title"`
	Body  string `json:"body"`
}
