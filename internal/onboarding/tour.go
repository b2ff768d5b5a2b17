package onboarding

// Step is one stop of the first-run tour.
type Step struct {
	Key   string
	Title string
	Body  string
}

// The fixed sequence every first-time player walks through. Order matters;
// the client highlights the matching UI element by Key.
var steps = []Step{
	{
		Key:   "welcome",
		Title: "Welcome to Mathpop",
		Body:  "Pop equation bubbles in the right order to climb the levels.",
	},
	{
		Key:   "bubbles",
		Title: "Three bubbles",
		Body:  "Every round shows three small equations. Work out each result in your head.",
	},
	{
		Key:   "ordering",
		Title: "Smallest first",
		Body:  "Tap the bubbles from the smallest result to the largest. Equal results can go in either order, and tapping a bubble again deselects it.",
	},
	{
		Key:   "timer",
		Title: "Beat the clock",
		Body:  "You have 15 seconds per round. If time runs out the level restarts with fresh equations.",
	},
	{
		Key:   "score",
		Title: "Score points",
		Body:  "Clearing a round earns 10 points per level plus one for every full second left on the clock.",
	},
}

// Steps returns the tour sequence.
func Steps() []Step {
	return append([]Step(nil), steps...)
}

// Tour is one connection's cursor through the step sequence. It holds no
// game state; the gateway only consults Active to suppress bubble taps.
type Tour struct {
	steps []Step
	index int
	done  bool
}

// NewTour starts a cursor at the first step.
func NewTour() *Tour {
	return &Tour{steps: Steps()}
}

// Active reports whether the tour is still on screen.
func (t *Tour) Active() bool { return !t.done }

// Completed reports whether the player walked past the last step.
func (t *Tour) Completed() bool { return t.done }

// Current returns the step under the cursor, if the tour is still active.
func (t *Tour) Current() (Step, bool) {
	if t.done || t.index >= len(t.steps) {
		return Step{}, false
	}
	return t.steps[t.index], true
}

// Advance moves to the next step. Advancing past the last step completes
// the tour and reports true exactly once.
func (t *Tour) Advance() bool {
	if t.done {
		return false
	}
	t.index++
	if t.index >= len(t.steps) {
		t.done = true
		return true
	}
	return false
}

// Restart rewinds the cursor to the first step.
func (t *Tour) Restart() {
	t.index = 0
	t.done = false
}

// Index is the zero-based cursor position.
func (t *Tour) Index() int { return t.index }

// Total is the number of steps in the sequence.
func (t *Tour) Total() int { return len(t.steps) }
