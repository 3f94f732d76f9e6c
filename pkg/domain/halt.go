package domain

import "fmt"

// HaltRule names a (kind, state) pair whose visit stops a walk.
type HaltRule struct {
	Kind  Kind  `json:"kind" yaml:"kind" mapstructure:"kind"`
	State State `json:"state" yaml:"state" mapstructure:"state"`
}

func (r HaltRule) String() string {
	return fmt.Sprintf("%s/%s", r.Kind, r.State)
}

// HaltRules is the halting predicate expressed as data.
// The zero value never halts.
type HaltRules struct {
	rules map[HaltRule]struct{}
}

// DefaultHaltRules halts when a kind A component in state_2 is visited.
func DefaultHaltRules() HaltRules {
	return HaltRules{}.With(KindA, State2)
}

// NewHaltRules builds a rule set, rejecting states the kind cannot hold.
func NewHaltRules(rules ...HaltRule) (HaltRules, error) {
	var hr HaltRules
	for _, r := range rules {
		if !r.Kind.Known() {
			return HaltRules{}, fmt.Errorf("halt rule %s: %w", r, ErrInvalidPayload)
		}
		if !r.Kind.Valid(r.State) {
			return HaltRules{}, fmt.Errorf("halt rule %s: %w", r, ErrInvalidState)
		}
		hr = hr.With(r.Kind, r.State)
	}
	return hr, nil
}

// With returns a copy of the rules extended with (kind, state).
func (h HaltRules) With(kind Kind, state State) HaltRules {
	next := make(map[HaltRule]struct{}, len(h.rules)+1)
	for r := range h.rules {
		next[r] = struct{}{}
	}
	next[HaltRule{Kind: kind, State: state}] = struct{}{}
	return HaltRules{rules: next}
}

// Merge returns the union of both rule sets.
func (h HaltRules) Merge(other HaltRules) HaltRules {
	out := h
	for r := range other.rules {
		out = out.With(r.Kind, r.State)
	}
	return out
}

// ShouldHalt reports whether visiting c ends the walk.
func (h HaltRules) ShouldHalt(c Component) bool {
	if c == nil || c.Kind() == KindRoot {
		return false
	}
	_, ok := h.rules[HaltRule{Kind: c.Kind(), State: c.State()}]
	return ok
}

// Rules lists the configured pairs ordered by kind then state.
func (h HaltRules) Rules() []HaltRule {
	var out []HaltRule
	for _, k := range Kinds() {
		for _, s := range k.States() {
			if _, ok := h.rules[HaltRule{Kind: k, State: s}]; ok {
				out = append(out, HaltRule{Kind: k, State: s})
			}
		}
	}
	return out
}

func (h HaltRules) Len() int { return len(h.rules) }
