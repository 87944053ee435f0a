package harness

import (
	"context"
	"fmt"
	"time"

	"github.com/kitab-io/kitab/internal/connectivity"
	"github.com/kitab-io/kitab/internal/event"
	"github.com/kitab-io/kitab/internal/identity"
	"github.com/kitab-io/kitab/internal/navigator"
	"github.com/kitab-io/kitab/internal/progress"
	"github.com/kitab-io/kitab/internal/store"
	"github.com/kitab-io/kitab/internal/testutil"
)

// scenarioStart is the fixed wall clock origin for every run. All
// timestamps in golden traces derive from it.
var scenarioStart = time.Date(2024, 1, 2, 3, 4, 5, 0, time.UTC)

// session is one fully wired client under test.
type session struct {
	storage  progress.Storage
	bus      *event.Bus
	manager  *progress.Manager
	recorder *progress.HistoryRecorder
	monitor  *connectivity.Monitor
	nav      *navigator.Navigator
	watcher  *identity.Watcher
}

// Run executes a scenario against a fresh in-memory database and
// returns the result. Deterministic clock and event IDs make repeated
// runs byte-identical.
func Run(scenario *Scenario) (*Result, error) {
	st, err := store.Open(":memory:")
	if err != nil {
		return nil, fmt.Errorf("failed to create in-memory store: %w", err)
	}
	defer st.Close()

	clock := testutil.NewWallClock(scenarioStart, time.Second)
	bus := event.NewBusWithIDs(testutil.NewSeqIDGenerator("evt"))
	defer bus.Close()

	recorder := progress.NewHistoryRecorderWithClock(st, clock.Now)
	recorder.Attach(bus)
	defer recorder.Detach()

	monitor := connectivity.New(func() bool { return true })
	nav := navigator.New(monitor)
	defer nav.Close()

	sess := &session{
		storage:  st,
		bus:      bus,
		manager:  progress.NewManagerWithClock(st, bus, clock.Now),
		recorder: recorder,
		monitor:  monitor,
		nav:      nav,
		watcher:  identity.NewWatcher(identity.Session{}),
	}

	result := NewResult()

	// The trace subscription is registered after the recorder so history
	// rows are written before the event lands in the trace.
	cancel := bus.Subscribe(func(e event.Event) {
		te := TraceEvent{
			Type:     "event",
			ID:       e.ID,
			Seq:      e.Seq,
			Op:       e.Op,
			Identity: e.Identity,
		}
		if e.Record != nil {
			te.Section = e.Record.LastSection
			te.Subsection = e.Record.LastSubsection
			te.Bookmarks = len(e.Record.Bookmarks)
		}
		result.Trace = append(result.Trace, te)
	})
	defer cancel()

	ctx := context.Background()
	for i, step := range scenario.Steps {
		if err := sess.execute(ctx, step, result); err != nil {
			if step.ExpectError {
				continue
			}
			result.AddError(fmt.Sprintf("steps[%d] %s: %v", i, step.Do, err))
			continue
		}
		if step.ExpectError {
			result.AddError(fmt.Sprintf("steps[%d] %s: expected an error, got none", i, step.Do))
		}
	}

	actx := &AssertionContext{Storage: st, Ctx: ctx}
	for _, msg := range EvaluateAssertions(result, scenario.Assertions, actx) {
		result.AddError(msg)
	}
	return result, nil
}

// execute runs one step against the session.
func (s *session) execute(ctx context.Context, step Step, result *Result) error {
	switch step.Do {
	case StepRead:
		_, err := s.manager.SaveProgress(ctx, s.watcher.Identity(), step.Section, step.Subsection)
		return err
	case StepBookmark:
		_, err := s.manager.ToggleBookmark(ctx, s.watcher.Identity(), step.Section, step.Subsection, step.Category)
		return err
	case StepLogin:
		s.watcher.Set(identity.Session{UserID: step.User})
		return nil
	case StepLogout:
		s.watcher.Set(identity.Session{})
		return nil
	case StepGoOffline:
		s.monitor.SetOnline(false)
		return nil
	case StepComeOnline:
		s.monitor.SetOnline(true)
		return nil
	case StepNavigate:
		n := s.nav.Navigate(step.Target)
		result.Trace = append(result.Trace, TraceEvent{
			Type:   "navigation",
			Target: n.Target,
			Kind:   n.Kind.String(),
		})
		return nil
	default:
		return fmt.Errorf("unknown step %q", step.Do)
	}
}
