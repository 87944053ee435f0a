package harness

// TraceEvent is one row of the scenario trace: a change notification
// observed on the bus, or a navigation decision.
type TraceEvent struct {
	Type string `json:"type"` // "event" or "navigation"

	// Event fields (Type == "event").
	ID         string `json:"id,omitempty"`
	Seq        int64  `json:"seq,omitempty"`
	Op         string `json:"op,omitempty"`
	Identity   string `json:"identity,omitempty"`
	Section    int    `json:"section,omitempty"`
	Subsection int    `json:"subsection,omitempty"`
	Bookmarks  int    `json:"bookmarks"`

	// Navigation fields (Type == "navigation").
	Target string `json:"target,omitempty"`
	Kind   string `json:"kind,omitempty"` // "soft" or "hard"
}

// Result is the outcome of one scenario execution.
type Result struct {
	// Pass is true when every step and assertion succeeded.
	Pass bool `json:"pass"`

	// Trace holds all events and navigation decisions in order.
	Trace []TraceEvent `json:"trace"`

	// Errors holds step and assertion failure messages.
	Errors []string `json:"errors,omitempty"`
}

// NewResult creates a passing result to accumulate into.
func NewResult() *Result {
	return &Result{
		Pass:   true,
		Trace:  []TraceEvent{},
		Errors: []string{},
	}
}

// AddError records a failure and marks the result failed.
func (r *Result) AddError(msg string) {
	r.Errors = append(r.Errors, msg)
	r.Pass = false
}
