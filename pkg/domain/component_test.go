package domain

import (
	"encoding/json"
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gopkg.in/yaml.v3"
)

func TestKindStates(t *testing.T) {
	assert.Equal(t, []State{State1, State2, State3}, KindA.States())
	assert.Equal(t, []State{State1, State2}, KindB.States())
	assert.Equal(t, []State{State1}, KindC.States())
	assert.Empty(t, KindRoot.States())

	assert.True(t, KindB.Valid(State2))
	assert.False(t, KindB.Valid(State3))
	assert.False(t, KindC.Valid(State2))
	assert.False(t, KindRoot.Valid(State1))

	assert.True(t, KindA.Known())
	assert.False(t, Kind("component_z").Known())

	// States returns a copy
	states := KindA.States()
	states[0] = "mutated"
	assert.Equal(t, State1, KindA.States()[0])
}

func TestTypedConstructors(t *testing.T) {
	a, err := NewComponentA(1, "a1", State3, 42)
	require.NoError(t, err)
	assert.Equal(t, KindA, a.Kind())
	assert.Equal(t, 1, a.ID())
	assert.Equal(t, "a1", a.Name())
	assert.Equal(t, State3, a.State())
	assert.Equal(t, 42, a.IntValue())
	assert.False(t, a.Visited())

	_, err = NewComponentB(1, "b", State3, "x")
	assert.ErrorIs(t, err, ErrInvalidState)

	_, err = NewComponentC(1, "c", State2, 1)
	assert.ErrorIs(t, err, ErrInvalidState)

	var ce *ComponentError
	require.ErrorAs(t, err, &ce)
	assert.Equal(t, KindC, ce.Kind)
	assert.Equal(t, "state", ce.Field)
}

func TestNewComponent(t *testing.T) {
	tests := []struct {
		name    string
		kind    Kind
		fields  map[string]any
		wantErr error
		check   func(t *testing.T, c Component)
	}{
		{
			name:   "Root Without Payload",
			kind:   KindRoot,
			fields: nil,
			check: func(t *testing.T, c Component) {
				assert.Equal(t, Root{}, c)
			},
		},
		{
			name:    "Root With Payload",
			kind:    KindRoot,
			fields:  map[string]any{"value": 1},
			wantErr: ErrInvalidPayload,
		},
		{
			name:   "A From Integral Float",
			kind:   KindA,
			fields: map[string]any{"id": 2.0, "name": "a2", "state": "state_2", "value": 7.0},
			check: func(t *testing.T, c Component) {
				assert.Equal(t, 2, c.ID())
				assert.Equal(t, 7, c.Value())
				assert.Equal(t, State2, c.State())
			},
		},
		{
			name:   "C From JSON Number",
			kind:   KindC,
			fields: map[string]any{"id": json.Number("1"), "state": "state_1", "value": json.Number("-3")},
			check: func(t *testing.T, c Component) {
				assert.Equal(t, -3, c.Value())
			},
		},
		{
			name:   "B With Text",
			kind:   KindB,
			fields: map[string]any{"id": 1, "name": "b1", "state": "state_1", "value": "hello"},
			check: func(t *testing.T, c Component) {
				b, ok := c.(ComponentB)
				require.True(t, ok)
				assert.Equal(t, "hello", b.TextValue())
			},
		},
		{
			name:    "A Fractional Value",
			kind:    KindA,
			fields:  map[string]any{"state": "state_1", "value": 1.5},
			wantErr: ErrInvalidPayload,
		},
		{
			name:    "A Text Value",
			kind:    KindA,
			fields:  map[string]any{"state": "state_1", "value": "one"},
			wantErr: ErrInvalidPayload,
		},
		{
			name:    "B Numeric Value",
			kind:    KindB,
			fields:  map[string]any{"state": "state_1", "value": json.Number("12")},
			wantErr: ErrInvalidPayload,
		},
		{
			name:    "Missing Value",
			kind:    KindA,
			fields:  map[string]any{"state": "state_1"},
			wantErr: ErrInvalidPayload,
		},
		{
			name:    "A Null Value",
			kind:    KindA,
			fields:  map[string]any{"state": "state_1", "value": nil},
			wantErr: ErrInvalidPayload,
		},
		{
			name:    "B Null Value",
			kind:    KindB,
			fields:  map[string]any{"state": "state_1", "value": nil},
			wantErr: ErrInvalidPayload,
		},
		{
			name:    "Null State",
			kind:    KindC,
			fields:  map[string]any{"state": nil, "value": 1},
			wantErr: ErrInvalidState,
		},
		{
			name:    "A Value Beyond Int Range As Float",
			kind:    KindA,
			fields:  map[string]any{"state": "state_1", "value": 1e20},
			wantErr: ErrInvalidPayload,
		},
		{
			name:    "A Value At 2^63 As Float",
			kind:    KindA,
			fields:  map[string]any{"state": "state_1", "value": float64(math.MaxInt64)},
			wantErr: ErrInvalidPayload,
		},
		{
			name:    "C Value Beyond Int Range As Uint64",
			kind:    KindC,
			fields:  map[string]any{"state": "state_1", "value": uint64(math.MaxUint64)},
			wantErr: ErrInvalidPayload,
		},
		{
			name:    "ID Beyond Int Range As Uint64",
			kind:    KindC,
			fields:  map[string]any{"id": uint64(math.MaxUint64), "state": "state_1", "value": 1},
			wantErr: ErrInvalidPayload,
		},
		{
			name:    "JSON Number Beyond Int64",
			kind:    KindA,
			fields:  map[string]any{"state": "state_1", "value": json.Number("99999999999999999999")},
			wantErr: ErrInvalidPayload,
		},
		{
			name:   "C Value From Uint64 In Range",
			kind:   KindC,
			fields: map[string]any{"state": "state_1", "value": uint64(42)},
			check: func(t *testing.T, c Component) {
				assert.Equal(t, 42, c.Value())
			},
		},
		{
			name:    "Unknown Field",
			kind:    KindC,
			fields:  map[string]any{"state": "state_1", "value": 1, "color": "red"},
			wantErr: ErrInvalidPayload,
		},
		{
			name:    "Missing State",
			kind:    KindB,
			fields:  map[string]any{"value": "x"},
			wantErr: ErrInvalidState,
		},
		{
			name:    "State Outside Enumeration",
			kind:    KindA,
			fields:  map[string]any{"state": "State 2", "value": 1},
			wantErr: ErrInvalidState,
		},
		{
			name:    "Unknown Kind",
			kind:    Kind("component_z"),
			fields:  map[string]any{},
			wantErr: ErrInvalidPayload,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c, err := NewComponent(tt.kind, tt.fields)
			if tt.wantErr != nil {
				assert.ErrorIs(t, err, tt.wantErr)
				assert.Nil(t, c)
				return
			}
			require.NoError(t, err)
			assert.False(t, c.Visited())
			if tt.check != nil {
				tt.check(t, c)
			}
		})
	}
}

func TestNewComponent_FromYAML(t *testing.T) {
	tests := []struct {
		name    string
		doc     string
		wantErr error
		want    int
	}{
		{name: "In Range", doc: "{state: state_1, value: 9007199254740993}", want: 9007199254740993},
		{name: "Beyond Uint64 Decodes As Float", doc: "{state: state_1, value: 99999999999999999999}", wantErr: ErrInvalidPayload},
		{name: "Max Uint64 Decodes As Uint64", doc: "{state: state_1, value: 18446744073709551615}", wantErr: ErrInvalidPayload},
		{name: "Null", doc: "{state: state_1, value: null}", wantErr: ErrInvalidPayload},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var fields map[string]any
			require.NoError(t, yaml.Unmarshal([]byte(tt.doc), &fields))

			c, err := NewComponent(KindA, fields)
			if tt.wantErr != nil {
				assert.ErrorIs(t, err, tt.wantErr)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, c.Value())
		})
	}
}

func TestDescribe(t *testing.T) {
	a, err := NewComponentA(3, "a3", State3, 0)
	require.NoError(t, err)
	assert.Equal(t, "component_a#3 (state_3)", Describe(a))
	assert.Equal(t, "root", Describe(Root{}))
	assert.Equal(t, "<nil>", Describe(nil))
}
