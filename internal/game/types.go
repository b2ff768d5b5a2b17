package game

import (
	"time"

	"github.com/mathpop/mathpop/internal/equation"
)

// Feedback states for the active round.
const (
	FeedbackNeutral = "neutral"
	FeedbackCorrect = "correct"
	FeedbackWrong   = "wrong"
)

// Reasons attached to failed-validation events.
const (
	ReasonOutOfOrder = "out_of_order"
	ReasonTimeout    = "timeout"
)

// BatchSource supplies fresh equation batches per round.
type BatchSource interface {
	Batch(level int) []equation.Equation
}

// Snapshot is a read-only copy of session state handed to the presentation
// layer. Equation values are present here; the gateway strips them before
// anything reaches a client.
type Snapshot struct {
	Playing       bool
	GameOver      bool
	Score         int
	Level         int
	WrongAttempts int
	TimeLeft      time.Duration
	Equations     []equation.Equation
	Selected      []string
	Feedback      string
}

// Event types emitted by a session.
const (
	EventRoundStarted = "round_started"
	EventStateChanged = "state_changed"
	EventTick         = "tick"
	EventFeedback     = "feedback"
	EventGameOver     = "game_over"
)

// Event carries one state transition to the gateway. Every event includes a
// full snapshot taken at emission time, so a consumer that misses one can
// resynchronize from the next.
type Event struct {
	Type        string
	Snapshot    Snapshot
	SecondsLeft int
	Correct     bool
	ScoreDelta  int
	Reason      string
}
