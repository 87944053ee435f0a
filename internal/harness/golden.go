package harness

import (
	"testing"

	"github.com/sebdah/goldie/v2"

	"github.com/kitab-io/kitab/internal/reading"
)

// TraceSnapshot is the canonical form of one scenario execution pinned
// by a golden file.
type TraceSnapshot struct {
	ScenarioName string       `json:"scenario_name"`
	Trace        []TraceEvent `json:"trace"`
}

// toCanonicalMap converts the snapshot to the map form accepted by
// reading.MarshalCanonical. Zero-valued optional fields are omitted so
// golden traces stay compact.
func (s *TraceSnapshot) toCanonicalMap() map[string]any {
	traceList := make([]any, len(s.Trace))
	for i, event := range s.Trace {
		eventMap := map[string]any{"type": event.Type}
		switch event.Type {
		case "event":
			eventMap["id"] = event.ID
			eventMap["seq"] = event.Seq
			eventMap["op"] = event.Op
			eventMap["identity"] = event.Identity
			eventMap["section"] = event.Section
			eventMap["subsection"] = event.Subsection
			eventMap["bookmarks"] = event.Bookmarks
		case "navigation":
			eventMap["target"] = event.Target
			eventMap["kind"] = event.Kind
		}
		traceList[i] = eventMap
	}
	return map[string]any{
		"scenario_name": s.ScenarioName,
		"trace":         traceList,
	}
}

// RunWithGolden executes a scenario and compares its trace against
// testdata/golden/{scenario.Name}.golden.
//
// Regenerate golden files with:
//
//	go test ./internal/harness -update
func RunWithGolden(t *testing.T, scenario *Scenario) (*Result, error) {
	t.Helper()

	result, err := Run(scenario)
	if err != nil {
		return nil, err
	}

	snapshot := TraceSnapshot{ScenarioName: scenario.Name, Trace: result.Trace}
	traceJSON, err := reading.MarshalCanonical(snapshot.toCanonicalMap())
	if err != nil {
		return nil, err
	}

	g := goldie.New(t,
		goldie.WithFixtureDir("testdata/golden"),
		goldie.WithNameSuffix(".golden"),
	)
	g.Assert(t, scenario.Name, traceJSON)
	return result, nil
}
