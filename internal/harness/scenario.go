package harness

import (
	"bytes"
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// Step names accepted in scenario files.
const (
	StepRead       = "read"
	StepBookmark   = "bookmark"
	StepLogin      = "login"
	StepLogout     = "logout"
	StepGoOffline  = "go-offline"
	StepComeOnline = "come-online"
	StepNavigate   = "navigate"
)

// Assertion type constants.
const (
	AssertTraceContains = "trace_contains"
	AssertTraceOrder    = "trace_order"
	AssertTraceCount    = "trace_count"
	AssertFinalState    = "final_state"
	AssertHistory       = "history"
	AssertNavigation    = "navigation"
)

// Scenario defines one declarative reading-session test.
type Scenario struct {
	// Name uniquely identifies this scenario and names its golden file.
	Name string `yaml:"name"`

	// Description explains what this scenario validates.
	Description string `yaml:"description"`

	// Steps drive the session in order.
	Steps []Step `yaml:"steps"`

	// Assertions validate the trace and final state after all steps.
	Assertions []Assertion `yaml:"assertions"`
}

// Step is one session action.
type Step struct {
	// Do selects the action: read, bookmark, login, logout,
	// go-offline, come-online, navigate.
	Do string `yaml:"do"`

	// Section and Subsection position reads and bookmark toggles.
	Section    int `yaml:"section,omitempty"`
	Subsection int `yaml:"subsection,omitempty"`

	// Category tags a bookmark; empty means "default".
	Category string `yaml:"category,omitempty"`

	// User is the id presented at login; ignored elsewhere.
	User string `yaml:"user,omitempty"`

	// Target is the link for navigate steps.
	Target string `yaml:"target,omitempty"`

	// ExpectError inverts the step outcome: the step must fail.
	ExpectError bool `yaml:"expect_error,omitempty"`
}

// Assertion validates the trace or the final stored state.
type Assertion struct {
	// Type selects the assertion kind.
	Type string `yaml:"type"`

	// Op is the event operation (trace_contains, trace_count).
	Op string `yaml:"op,omitempty"`

	// Ops is the expected event order (trace_order).
	Ops []string `yaml:"ops,omitempty"`

	// Identity scopes the assertion to one storage identity.
	Identity string `yaml:"identity,omitempty"`

	// Count is the expected occurrence count (trace_count).
	Count int `yaml:"count,omitempty"`

	// Expect holds expected record fields (final_state): last_section,
	// last_subsection, bookmarks. Subset match.
	Expect map[string]int `yaml:"expect,omitempty"`

	// Date and Subsections validate daily history rows (history).
	Date        string `yaml:"date,omitempty"`
	Subsections int    `yaml:"subsections,omitempty"`

	// Target and Kind validate navigation decisions (navigation).
	Target string `yaml:"target,omitempty"`
	Kind   string `yaml:"kind,omitempty"`
}

// LoadScenario reads and parses a scenario YAML file. Unknown fields
// are rejected so typos fail loudly instead of silently skipping.
func LoadScenario(path string) (*Scenario, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read scenario file: %w", err)
	}

	var scenario Scenario
	decoder := yaml.NewDecoder(bytes.NewReader(data))
	decoder.KnownFields(true)
	if err := decoder.Decode(&scenario); err != nil {
		return nil, fmt.Errorf("failed to parse YAML: %w", err)
	}

	if err := validateScenario(&scenario); err != nil {
		return nil, fmt.Errorf("invalid scenario: %w", err)
	}
	return &scenario, nil
}

// validateScenario checks required fields and per-step constraints.
func validateScenario(s *Scenario) error {
	if s.Name == "" {
		return fmt.Errorf("name is required")
	}
	if s.Description == "" {
		return fmt.Errorf("description is required")
	}
	if len(s.Steps) == 0 {
		return fmt.Errorf("steps list is required and must be non-empty")
	}
	if len(s.Assertions) == 0 {
		return fmt.Errorf("assertions list is required and must be non-empty")
	}

	for i, step := range s.Steps {
		if err := validateStep(i, &step); err != nil {
			return err
		}
	}
	for i, assertion := range s.Assertions {
		if err := validateAssertion(i, &assertion); err != nil {
			return err
		}
	}
	return nil
}

func validateStep(index int, step *Step) error {
	switch step.Do {
	case StepRead, StepBookmark:
		// Positions are validated at execution time so expect_error
		// scenarios can exercise out-of-range rejections.
	case StepLogin:
		if step.User == "" {
			return fmt.Errorf("steps[%d]: user is required for login", index)
		}
	case StepLogout, StepGoOffline, StepComeOnline:
	case StepNavigate:
		if step.Target == "" {
			return fmt.Errorf("steps[%d]: target is required for navigate", index)
		}
	case "":
		return fmt.Errorf("steps[%d]: do is required", index)
	default:
		return fmt.Errorf("steps[%d]: unknown step %q", index, step.Do)
	}
	return nil
}

func validateAssertion(index int, a *Assertion) error {
	switch a.Type {
	case AssertTraceContains:
		if a.Op == "" {
			return fmt.Errorf("assertions[%d]: op is required for trace_contains", index)
		}
	case AssertTraceOrder:
		if len(a.Ops) == 0 {
			return fmt.Errorf("assertions[%d]: ops list is required for trace_order", index)
		}
	case AssertTraceCount:
		if a.Op == "" {
			return fmt.Errorf("assertions[%d]: op is required for trace_count", index)
		}
		if a.Count < 0 {
			return fmt.Errorf("assertions[%d]: count must be non-negative for trace_count", index)
		}
	case AssertFinalState:
		if a.Identity == "" {
			return fmt.Errorf("assertions[%d]: identity is required for final_state", index)
		}
		if len(a.Expect) == 0 {
			return fmt.Errorf("assertions[%d]: expect is required for final_state", index)
		}
	case AssertHistory:
		if a.Identity == "" || a.Date == "" {
			return fmt.Errorf("assertions[%d]: identity and date are required for history", index)
		}
	case AssertNavigation:
		if a.Target == "" || a.Kind == "" {
			return fmt.Errorf("assertions[%d]: target and kind are required for navigation", index)
		}
	case "":
		return fmt.Errorf("assertions[%d]: type is required", index)
	default:
		return fmt.Errorf("assertions[%d]: unknown assertion type %q", index, a.Type)
	}
	return nil
}
