package cache

import (
	_ "embed"
	"fmt"
	"os"
	"regexp"
	"time"

	"cuelang.org/go/cue"
	"cuelang.org/go/cue/cuecontext"
)

//go:embed policy.cue
var defaultPolicyCUE string

// ruleSpec mirrors the CUE #Rule shape.
type ruleSpec struct {
	Tier       string `json:"tier"`
	Strategy   string `json:"strategy"`
	Pattern    string `json:"pattern"`
	Capacity   int    `json:"capacity"`
	MaxAgeDays int    `json:"maxAgeDays"`
}

// policySpec mirrors the CUE policy package.
type policySpec struct {
	Rules    []ruleSpec `json:"rules"`
	Fallback struct {
		Path string `json:"path"`
	} `json:"fallback"`
}

// DefaultPolicy compiles the embedded tier policy.
func DefaultPolicy() (Policy, error) {
	return compilePolicy(defaultPolicyCUE, "policy.cue")
}

// LoadPolicyFile compiles a tier policy from a CUE file on disk,
// validated against the same schema as the embedded default.
func LoadPolicyFile(path string) (Policy, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return Policy{}, fmt.Errorf("read policy: %w", err)
	}
	return compilePolicy(string(data), path)
}

func compilePolicy(src, filename string) (Policy, error) {
	ctx := cuecontext.New()
	value := ctx.CompileString(src, cue.Filename(filename))
	if err := value.Err(); err != nil {
		return Policy{}, fmt.Errorf("compile policy: %w", err)
	}
	if err := value.Validate(cue.Concrete(true)); err != nil {
		return Policy{}, fmt.Errorf("validate policy: %w", err)
	}

	var spec policySpec
	if err := value.Decode(&spec); err != nil {
		return Policy{}, fmt.Errorf("decode policy: %w", err)
	}
	return spec.compile()
}

// compile turns the declarative spec into a Policy with compiled
// patterns and concrete durations.
func (s policySpec) compile() (Policy, error) {
	if len(s.Rules) == 0 {
		return Policy{}, fmt.Errorf("policy declares no rules")
	}
	if s.Fallback.Path == "" {
		return Policy{}, fmt.Errorf("policy declares no fallback path")
	}

	policy := Policy{FallbackPath: s.Fallback.Path}
	seen := make(map[string]bool)
	for _, r := range s.Rules {
		if seen[r.Tier] {
			return Policy{}, fmt.Errorf("duplicate tier %q", r.Tier)
		}
		seen[r.Tier] = true

		switch Strategy(r.Strategy) {
		case StrategyNetworkFirst, StrategyCacheFirst:
		default:
			return Policy{}, fmt.Errorf("tier %q: unknown strategy %q", r.Tier, r.Strategy)
		}
		if r.Capacity <= 0 || r.MaxAgeDays <= 0 {
			return Policy{}, fmt.Errorf("tier %q: capacity and maxAgeDays must be positive", r.Tier)
		}

		pattern, err := regexp.Compile(r.Pattern)
		if err != nil {
			return Policy{}, fmt.Errorf("tier %q: bad pattern: %w", r.Tier, err)
		}
		policy.Rules = append(policy.Rules, Rule{
			Tier:     r.Tier,
			Strategy: Strategy(r.Strategy),
			Pattern:  pattern,
			Capacity: r.Capacity,
			MaxAge:   time.Duration(r.MaxAgeDays) * 24 * time.Hour,
		})
	}
	return policy, nil
}
