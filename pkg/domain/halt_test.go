package domain

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestHaltRules_Default(t *testing.T) {
	rules := DefaultHaltRules()
	assert.True(t, rules.ShouldHalt(mustA(t, 2, State2)))
	assert.False(t, rules.ShouldHalt(mustA(t, 1, State1)))
	assert.False(t, rules.ShouldHalt(mustA(t, 3, State3)))

	b, err := NewComponentB(1, "", State2, "")
	require.NoError(t, err)
	assert.False(t, rules.ShouldHalt(b), "state_2 halts only kind A")
	assert.False(t, rules.ShouldHalt(Root{}))
	assert.False(t, rules.ShouldHalt(nil))

	assert.False(t, HaltRules{}.ShouldHalt(mustA(t, 2, State2)), "zero value never halts")
}

func TestHaltRules_WithDoesNotMutate(t *testing.T) {
	base := DefaultHaltRules()
	extended := base.With(KindC, State1)

	c, err := NewComponentC(1, "", State1, 0)
	require.NoError(t, err)

	assert.False(t, base.ShouldHalt(c))
	assert.True(t, extended.ShouldHalt(c))
	assert.Equal(t, 1, base.Len())
	assert.Equal(t, []HaltRule{{KindA, State2}, {KindC, State1}}, extended.Rules())

	merged := HaltRules{}.Merge(extended)
	assert.Equal(t, extended.Rules(), merged.Rules())
}

func TestNewHaltRules(t *testing.T) {
	rules, err := NewHaltRules(HaltRule{Kind: KindB, State: State2})
	require.NoError(t, err)
	assert.Equal(t, "component_b/state_2", rules.Rules()[0].String())

	_, err = NewHaltRules(HaltRule{Kind: KindC, State: State3})
	assert.ErrorIs(t, err, ErrInvalidState)

	_, err = NewHaltRules(HaltRule{Kind: "component_q", State: State1})
	assert.ErrorIs(t, err, ErrInvalidPayload)
}
