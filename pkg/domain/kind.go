package domain

// Kind is the tag of a component variant.
type Kind string

const (
	// KindRoot is the payload-less entry point of a plan.
	KindRoot Kind = "root"
	// KindA components carry an integer value and three states.
	KindA Kind = "component_a"
	// KindB components carry a text value and two states.
	KindB Kind = "component_b"
	// KindC components carry an integer value and a single state.
	KindC Kind = "component_c"
)

// State is a value drawn from a kind-specific enumeration.
type State string

const (
	State1 State = "state_1"
	State2 State = "state_2"
	State3 State = "state_3"
)

// kindStates is the closed enumeration of states per kind.
// Root has no state at all.
var kindStates = map[Kind][]State{
	KindRoot: nil,
	KindA:    {State1, State2, State3},
	KindB:    {State1, State2},
	KindC:    {State1},
}

// Kinds returns every known kind in declaration order.
func Kinds() []Kind {
	return []Kind{KindRoot, KindA, KindB, KindC}
}

// Known reports whether k is one of the closed set of kinds.
func (k Kind) Known() bool {
	_, ok := kindStates[k]
	return ok
}

// States returns the enumeration of states accepted by the kind.
func (k Kind) States() []State {
	states := kindStates[k]
	out := make([]State, len(states))
	copy(out, states)
	return out
}

// Valid reports whether s belongs to the kind's enumeration.
func (k Kind) Valid(s State) bool {
	for _, candidate := range kindStates[k] {
		if candidate == s {
			return true
		}
	}
	return false
}
