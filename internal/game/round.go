package game

import (
	"time"

	"github.com/mathpop/mathpop/internal/equation"
)

// Round is one board: three equations, the player's ordered selection, and
// the countdown. A round is resolved once its outcome is decided (cleared
// correctly or expired); a resolved round ignores the clock and any input
// while it waits to be replaced.
type Round struct {
	Level     int
	Equations []equation.Equation
	Selected  []string
	TimeLeft  time.Duration
	Feedback  string
	resolved  bool
}

func newRound(level int, equations []equation.Equation, timeLeft time.Duration) *Round {
	return &Round{
		Level:     level,
		Equations: equations,
		Selected:  make([]string, 0, len(equations)),
		TimeLeft:  timeLeft,
		Feedback:  FeedbackNeutral,
	}
}

func (r *Round) has(id string) bool {
	for _, eq := range r.Equations {
		if eq.ID == id {
			return true
		}
	}
	return false
}

// deselect removes id from the selection if present and reports whether it
// did. Tapping a selected bubble toggles it off at any count and never
// triggers validation.
func (r *Round) deselect(id string) bool {
	for i, sel := range r.Selected {
		if sel == id {
			r.Selected = append(r.Selected[:i], r.Selected[i+1:]...)
			return true
		}
	}
	return false
}

// resolveValues maps the selection order to numeric results. An id with no
// matching equation contributes 0 rather than failing.
func resolveValues(selected []string, equations []equation.Equation) []int {
	values := make([]int, len(selected))
	for i, id := range selected {
		for _, eq := range equations {
			if eq.ID == id {
				values[i] = eq.Value
				break
			}
		}
	}
	return values
}

// orderedNonDecreasing reports whether each value is >= its predecessor.
// Ties count as ordered.
func orderedNonDecreasing(values []int) bool {
	for i := 1; i < len(values); i++ {
		if values[i] < values[i-1] {
			return false
		}
	}
	return true
}
