package harness

import (
	"context"
	"fmt"
	"strings"

	"github.com/kitab-io/kitab/internal/progress"
	"github.com/kitab-io/kitab/internal/reading"
)

// AssertionError is returned when an assertion fails. It carries enough
// context to debug the failure without re-running the scenario.
type AssertionError struct {
	Type     string
	Expected string
	Actual   string
	Trace    []TraceEvent
}

func (e *AssertionError) Error() string {
	var buf strings.Builder
	fmt.Fprintf(&buf, "Assertion failed: %s\n", e.Type)
	fmt.Fprintf(&buf, "  Expected: %s\n", e.Expected)
	fmt.Fprintf(&buf, "  Actual: %s\n", e.Actual)

	fmt.Fprintf(&buf, "\nFull trace:\n")
	for i, event := range e.Trace {
		switch event.Type {
		case "event":
			fmt.Fprintf(&buf, "  [%d] %s %s at %d/%d (%d bookmarks)\n",
				i+1, event.Op, event.Identity, event.Section, event.Subsection, event.Bookmarks)
		case "navigation":
			fmt.Fprintf(&buf, "  [%d] navigate %s (%s)\n", i+1, event.Target, event.Kind)
		}
	}
	return buf.String()
}

// AssertionContext provides storage access for state assertions.
type AssertionContext struct {
	Storage progress.Storage
	Ctx     context.Context
}

// EvaluateAssertions checks every assertion against the result and
// returns the failure messages.
func EvaluateAssertions(result *Result, assertions []Assertion, actx *AssertionContext) []string {
	var errors []string
	for i, assertion := range assertions {
		var err error
		switch assertion.Type {
		case AssertTraceContains:
			err = assertTraceContains(result.Trace, assertion)
		case AssertTraceOrder:
			err = assertTraceOrder(result.Trace, assertion)
		case AssertTraceCount:
			err = assertTraceCount(result.Trace, assertion)
		case AssertFinalState:
			err = assertFinalState(actx, assertion)
		case AssertHistory:
			err = assertHistory(actx, assertion)
		case AssertNavigation:
			err = assertNavigation(result.Trace, assertion)
		default:
			err = fmt.Errorf("assertion[%d]: unknown assertion type %q", i, assertion.Type)
		}
		if err != nil {
			errors = append(errors, err.Error())
		}
	}
	return errors
}

// assertTraceContains checks that an event with the op (and identity,
// when given) occurred.
func assertTraceContains(trace []TraceEvent, assertion Assertion) error {
	for _, event := range trace {
		if event.Type != "event" || event.Op != assertion.Op {
			continue
		}
		if assertion.Identity == "" || event.Identity == assertion.Identity {
			return nil
		}
	}
	return &AssertionError{
		Type:     AssertTraceContains,
		Expected: fmt.Sprintf("event op=%s identity=%s", assertion.Op, assertion.Identity),
		Actual:   "not found in trace",
		Trace:    trace,
	}
}

// assertTraceOrder checks that ops appear in the given order. They need
// not be consecutive.
func assertTraceOrder(trace []TraceEvent, assertion Assertion) error {
	next := 0
	for _, event := range trace {
		if next >= len(assertion.Ops) {
			break
		}
		if event.Type != "event" {
			continue
		}
		if assertion.Identity != "" && event.Identity != assertion.Identity {
			continue
		}
		if event.Op == assertion.Ops[next] {
			next++
		}
	}
	if next < len(assertion.Ops) {
		return &AssertionError{
			Type:     AssertTraceOrder,
			Expected: fmt.Sprintf("ops in order: %v", assertion.Ops),
			Actual:   fmt.Sprintf("matched only the first %d", next),
			Trace:    trace,
		}
	}
	return nil
}

// assertTraceCount checks that the op occurred exactly Count times.
func assertTraceCount(trace []TraceEvent, assertion Assertion) error {
	count := 0
	for _, event := range trace {
		if event.Type != "event" || event.Op != assertion.Op {
			continue
		}
		if assertion.Identity != "" && event.Identity != assertion.Identity {
			continue
		}
		count++
	}
	if count != assertion.Count {
		return &AssertionError{
			Type:     AssertTraceCount,
			Expected: fmt.Sprintf("%d occurrences of %s", assertion.Count, assertion.Op),
			Actual:   fmt.Sprintf("%d occurrences", count),
			Trace:    trace,
		}
	}
	return nil
}

// assertFinalState loads the stored record for an identity and checks
// the expected fields. Supported keys: last_section, last_subsection,
// bookmarks (list length). Subset match.
func assertFinalState(actx *AssertionContext, assertion Assertion) error {
	rec, err := actx.Storage.GetProgress(actx.Ctx, assertion.Identity)
	if err != nil {
		return fmt.Errorf("final_state: load %s: %w", assertion.Identity, err)
	}
	if rec == nil {
		return &AssertionError{
			Type:     AssertFinalState,
			Expected: fmt.Sprintf("record for identity %s", assertion.Identity),
			Actual:   "no record stored",
		}
	}
	for key, want := range assertion.Expect {
		got, err := recordField(rec, key)
		if err != nil {
			return err
		}
		if got != want {
			return &AssertionError{
				Type:     AssertFinalState,
				Expected: fmt.Sprintf("%s %s = %d", assertion.Identity, key, want),
				Actual:   fmt.Sprintf("%s = %d", key, got),
			}
		}
	}
	return nil
}

func recordField(rec *reading.ProgressRecord, key string) (int, error) {
	switch key {
	case "last_section":
		return rec.LastSection, nil
	case "last_subsection":
		return rec.LastSubsection, nil
	case "bookmarks":
		return len(rec.Bookmarks), nil
	default:
		return 0, fmt.Errorf("final_state: unknown field %q", key)
	}
}

// assertHistory checks the daily history row for (identity, date).
func assertHistory(actx *AssertionContext, assertion Assertion) error {
	entry, err := actx.Storage.GetHistory(actx.Ctx, assertion.Identity, assertion.Date)
	if err != nil {
		return fmt.Errorf("history: load %s/%s: %w", assertion.Identity, assertion.Date, err)
	}
	if entry == nil {
		if assertion.Subsections == 0 {
			return nil
		}
		return &AssertionError{
			Type:     AssertHistory,
			Expected: fmt.Sprintf("%d subsections on %s for %s", assertion.Subsections, assertion.Date, assertion.Identity),
			Actual:   "no history row",
		}
	}
	if entry.SubsectionCount != assertion.Subsections {
		return &AssertionError{
			Type:     AssertHistory,
			Expected: fmt.Sprintf("%d subsections on %s", assertion.Subsections, assertion.Date),
			Actual:   fmt.Sprintf("%d subsections", entry.SubsectionCount),
		}
	}
	return nil
}

// assertNavigation checks that a navigation to the target was decided
// with the expected kind.
func assertNavigation(trace []TraceEvent, assertion Assertion) error {
	var seen []string
	for _, event := range trace {
		if event.Type != "navigation" || event.Target != assertion.Target {
			continue
		}
		if event.Kind == assertion.Kind {
			return nil
		}
		seen = append(seen, event.Kind)
	}
	actual := "no navigation to target in trace"
	if len(seen) > 0 {
		actual = fmt.Sprintf("navigated as %s", strings.Join(seen, ", "))
	}
	return &AssertionError{
		Type:     AssertNavigation,
		Expected: fmt.Sprintf("navigate %s as %s", assertion.Target, assertion.Kind),
		Actual:   actual,
		Trace:    trace,
	}
}
