package domain

import (
	"encoding/json"
	"fmt"
	"math"
	"reflect"

	"github.com/mitchellh/mapstructure"
)

// Component is one case of the closed set of node payloads.
// The unexported method seals the interface: only this package defines variants.
type Component interface {
	Kind() Kind
	ID() int
	Name() string
	State() State
	Value() any
	Visited() bool

	markVisited() Component
}

// base holds the fields shared by every non-root variant.
type base struct {
	id      int
	name    string
	state   State
	visited bool
}

func (b base) ID() int { return b.id }
func (b base) Name() string { return b.name }
func (b base) State() State { return b.state }
func (b base) Visited() bool { return b.visited }

// Root is the payload-less entry point of a plan. It has no state and is never marked visited.
type Root struct{}

func (Root) Kind() Kind { return KindRoot }
func (Root) ID() int { return 0 }
func (Root) Name() string { return string(KindRoot) }
func (Root) State() State { return "" }
func (Root) Value() any { return nil }
func (Root) Visited() bool { return false }
func (r Root) markVisited() Component { return r }

// ComponentA carries an integer value and moves through State1..State3.
type ComponentA struct {
	base
	value int
}

func (ComponentA) Kind() Kind { return KindA }
func (c ComponentA) Value() any { return c.value }

// IntValue returns the typed payload.
func (c ComponentA) IntValue() int { return c.value }

func (c ComponentA) markVisited() Component {
	c.visited = true
	return c
}

// ComponentB carries a text value and moves through State1..State2.
type ComponentB struct {
	base
	value string
}

func (ComponentB) Kind() Kind { return KindB }
func (c ComponentB) Value() any { return c.value }

// TextValue returns the typed payload.
func (c ComponentB) TextValue() string { return c.value }

func (c ComponentB) markVisited() Component {
	c.visited = true
	return c
}

// ComponentC carries an integer value and has a single state.
type ComponentC struct {
	base
	value int
}

func (ComponentC) Kind() Kind { return KindC }
func (c ComponentC) Value() any { return c.value }

// IntValue returns the typed payload.
func (c ComponentC) IntValue() int { return c.value }

func (c ComponentC) markVisited() Component {
	c.visited = true
	return c
}

// NewComponentA builds a kind A component.
func NewComponentA(id int, name string, state State, value int) (ComponentA, error) {
	if !KindA.Valid(state) {
		return ComponentA{}, invalidState(KindA, state)
	}
	return ComponentA{base: base{id: id, name: name, state: state}, value: value}, nil
}

// NewComponentB builds a kind B component.
func NewComponentB(id int, name string, state State, value string) (ComponentB, error) {
	if !KindB.Valid(state) {
		return ComponentB{}, invalidState(KindB, state)
	}
	return ComponentB{base: base{id: id, name: name, state: state}, value: value}, nil
}

// NewComponentC builds a kind C component.
func NewComponentC(id int, name string, state State, value int) (ComponentC, error) {
	if !KindC.Valid(state) {
		return ComponentC{}, invalidState(KindC, state)
	}
	return ComponentC{base: base{id: id, name: name, state: state}, value: value}, nil
}

func invalidState(kind Kind, state State) error {
	return &ComponentError{Kind: kind, Field: "state", Value: string(state), Err: ErrInvalidState}
}

// intFields and textFields are the raw shapes accepted by NewComponent.
type intFields struct {
	ID    int    `mapstructure:"id"`
	Name  string `mapstructure:"name"`
	State string `mapstructure:"state"`
	Value int    `mapstructure:"value"`
}

type textFields struct {
	ID    int    `mapstructure:"id"`
	Name  string `mapstructure:"name"`
	State string `mapstructure:"state"`
	Value string `mapstructure:"value"`
}

// NewComponent builds a component of the given kind from raw field values
// (as produced by JSON/YAML decoders). Unknown keys and payloads of the wrong
// type fail with ErrInvalidPayload; states outside the kind's enumeration fail
// with ErrInvalidState.
func NewComponent(kind Kind, fields map[string]any) (Component, error) {
	switch kind {
	case KindRoot:
		if len(fields) > 0 {
			return nil, &ComponentError{Kind: kind, Err: fmt.Errorf("%w: root carries no payload", ErrInvalidPayload)}
		}
		return Root{}, nil

	case KindA, KindC:
		var raw intFields
		if err := decodeFields(kind, fields, &raw); err != nil {
			return nil, err
		}
		if kind == KindA {
			return NewComponentA(raw.ID, raw.Name, State(raw.State), raw.Value)
		}
		return NewComponentC(raw.ID, raw.Name, State(raw.State), raw.Value)

	case KindB:
		var raw textFields
		if err := decodeFields(kind, fields, &raw); err != nil {
			return nil, err
		}
		return NewComponentB(raw.ID, raw.Name, State(raw.State), raw.Value)
	}

	return nil, &ComponentError{Kind: kind, Err: fmt.Errorf("%w: unknown kind", ErrInvalidPayload)}
}

func decodeFields(kind Kind, fields map[string]any, out any) error {
	// A present but null key never reaches the decode hook.
	for _, key := range []string{"state", "value"} {
		if v, ok := fields[key]; ok && v == nil {
			if key == "state" {
				return &ComponentError{Kind: kind, Field: key, Err: ErrInvalidState}
			}
			return &ComponentError{Kind: kind, Field: key, Err: fmt.Errorf("%w: null", ErrInvalidPayload)}
		}
	}

	var md mapstructure.Metadata
	dec, err := mapstructure.NewDecoder(&mapstructure.DecoderConfig{
		Result:      out,
		Metadata:    &md,
		ErrorUnused: true,
		DecodeHook:  strictNumberHook,
	})
	if err != nil {
		return fmt.Errorf("failed to build decoder: %w", err)
	}

	if err := dec.Decode(fields); err != nil {
		return &ComponentError{Kind: kind, Err: fmt.Errorf("%w: %v", ErrInvalidPayload, err)}
	}

	for _, unset := range md.Unset {
		switch unset {
		case "state":
			return &ComponentError{Kind: kind, Field: "state", Err: ErrInvalidState}
		case "value":
			return &ComponentError{Kind: kind, Field: "value", Err: fmt.Errorf("%w: missing", ErrInvalidPayload)}
		}
	}
	return nil
}

// strictNumberHook accepts integral numbers that fit an int for int fields and
// refuses numbers where text is expected.
func strictNumberHook(from reflect.Type, to reflect.Type, data any) (any, error) {
	switch to.Kind() {
	case reflect.Int:
		switch data.(type) {
		case string, bool:
			return data, nil
		}
		return IntFrom(data)
	case reflect.String:
		if n, ok := data.(json.Number); ok {
			return nil, fmt.Errorf("expected text, got number %s", n)
		}
	}
	return data, nil
}

// IntFrom converts the numeric forms produced by the JSON and YAML decoders to
// an int. Fractions and values outside the int range are errors.
func IntFrom(v any) (int, error) {
	switch x := v.(type) {
	case int:
		return x, nil
	case int8:
		return int(x), nil
	case int16:
		return int(x), nil
	case int32:
		return int(x), nil
	case int64:
		if x < math.MinInt || x > math.MaxInt {
			return 0, fmt.Errorf("%d is out of range", x)
		}
		return int(x), nil
	case uint:
		if uint64(x) > math.MaxInt {
			return 0, fmt.Errorf("%d is out of range", x)
		}
		return int(x), nil
	case uint8:
		return int(x), nil
	case uint16:
		return int(x), nil
	case uint32:
		return IntFrom(int64(x))
	case uint64:
		if x > math.MaxInt {
			return 0, fmt.Errorf("%d is out of range", x)
		}
		return int(x), nil
	case float32:
		return IntFrom(float64(x))
	case float64:
		if x != math.Trunc(x) {
			return 0, fmt.Errorf("expected integer, got %v", x)
		}
		// float64(math.MaxInt) rounds up to 2^63, which does not fit.
		if x < float64(math.MinInt) || x >= -float64(math.MinInt) {
			return 0, fmt.Errorf("%v is out of range", x)
		}
		return int(x), nil
	case json.Number:
		i, err := x.Int64()
		if err != nil {
			return 0, fmt.Errorf("expected integer, got %s", x)
		}
		return IntFrom(i)
	case nil:
		return 0, fmt.Errorf("expected integer, got null")
	}
	return 0, fmt.Errorf("expected integer, got %T", v)
}

// Describe renders a short human label for logs and diagrams.
func Describe(c Component) string {
	if c == nil {
		return "<nil>"
	}
	if c.Kind() == KindRoot {
		return string(KindRoot)
	}
	return fmt.Sprintf("%s#%d (%s)", c.Kind(), c.ID(), c.State())
}
