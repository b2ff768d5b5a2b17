package game

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/mathpop/mathpop/internal/equation"
)

func TestResolveValuesFollowsSelectionOrder(t *testing.T) {
	equations := []equation.Equation{
		{ID: "a", Expression: "1 + 1", Value: 2},
		{ID: "b", Expression: "2 + 3", Value: 5},
		{ID: "c", Expression: "4 + 5", Value: 9},
	}

	values := resolveValues([]string{"b", "a", "c"}, equations)
	assert.Equal(t, []int{5, 2, 9}, values, "values must line up with tap order, not display order")
}

func TestResolveValuesMissingIDDefaultsToZero(t *testing.T) {
	equations := []equation.Equation{
		{ID: "a", Value: 7},
	}

	values := resolveValues([]string{"ghost", "a"}, equations)
	assert.Equal(t, []int{0, 7}, values)
}

func TestOrderedNonDecreasing(t *testing.T) {
	assert.True(t, orderedNonDecreasing([]int{2, 5, 9}))
	assert.True(t, orderedNonDecreasing([]int{3, 3, 7}), "ties count as ordered")
	assert.True(t, orderedNonDecreasing([]int{4, 4, 4}))
	assert.True(t, orderedNonDecreasing(nil))
	assert.False(t, orderedNonDecreasing([]int{5, 2, 9}))
	assert.False(t, orderedNonDecreasing([]int{2, 9, 5}))
}

func TestRoundDeselectTogglesAtAnyCount(t *testing.T) {
	r := newRound(1, []equation.Equation{
		{ID: "a", Value: 1},
		{ID: "b", Value: 2},
		{ID: "c", Value: 3},
	}, defaultRoundTime)

	r.Selected = []string{"a", "b"}

	assert.True(t, r.deselect("a"))
	assert.Equal(t, []string{"b"}, r.Selected)

	assert.False(t, r.deselect("a"), "already removed")
	assert.True(t, r.deselect("b"))
	assert.Empty(t, r.Selected)
}

func TestNewRoundStartsNeutral(t *testing.T) {
	r := newRound(4, []equation.Equation{{ID: "a"}}, defaultRoundTime)

	assert.Equal(t, 4, r.Level)
	assert.Equal(t, defaultRoundTime, r.TimeLeft)
	assert.Equal(t, FeedbackNeutral, r.Feedback)
	assert.Empty(t, r.Selected)
	assert.False(t, r.resolved)
}
