package ws

import "encoding/json"

// MessageType constants for the WebSocket protocol.
const (
	// Client -> Server
	TypeStartGame    = "start_game"
	TypeStopGame     = "stop_game"
	TypeTapBubble    = "tap_bubble"
	TypeStateRequest = "state_request"
	TypeTourNext     = "tour_next"
	TypeTourReset    = "tour_reset"

	// Server -> Client
	TypeWelcome        = "welcome"
	TypeGameState      = "game_state"
	TypeRoundStarted   = "round_started"
	TypeRoundTick      = "round_tick"
	TypeFeedback       = "feedback"
	TypeGameOver       = "game_over"
	TypeTourState      = "tour_state"
	TypeServerShutdown = "server_shutdown"
	TypeError          = "error"
	TypePing           = "ping"
	TypePong           = "pong"
)

// Message wraps all WebSocket payloads with type and optional request ID.
type Message struct {
	Type      string          `json:"type"`
	Payload   json.RawMessage `json:"payload,omitempty"`
	RequestID string          `json:"request_id,omitempty"`
}

// Client Messages (incoming)

type TapBubblePayload struct {
	EquationID string `json:"equation_id"`
}

// Server Messages (outgoing)

// Bubble is the client-facing view of an equation. The numeric result never
// leaves the server, so a client cannot sort by sniffing the payload.
type Bubble struct {
	ID         string `json:"id"`
	Expression string `json:"expression"`
}

type PlayerPayload struct {
	PlayerID    string `json:"player_id"`
	DisplayName string `json:"display_name"`
}

// GameStatePayload is the full board snapshot. Sent on welcome, on request,
// on round start and after any selection or feedback change.
type GameStatePayload struct {
	Playing       bool     `json:"playing"`
	GameOver      bool     `json:"game_over"`
	Score         int      `json:"score"`
	Level         int      `json:"level"`
	WrongAttempts int      `json:"wrong_attempts"`
	SecondsLeft   int      `json:"seconds_left"`
	TimeLeftMs    int64    `json:"time_left_ms"`
	Bubbles       []Bubble `json:"bubbles"`
	Selected      []string `json:"selected"`
	Feedback      string   `json:"feedback"`
}

type WelcomePayload struct {
	Player PlayerPayload     `json:"player"`
	Tour   *TourStatePayload `json:"tour,omitempty"`
	State  GameStatePayload  `json:"state"`
}

// RoundTickPayload is sent when the countdown crosses a whole-second
// boundary; clients animating sub-second precision interpolate between
// ticks.
type RoundTickPayload struct {
	SecondsLeft int   `json:"seconds_left"`
	TimeLeftMs  int64 `json:"time_left_ms"`
}

type FeedbackPayload struct {
	Correct       bool   `json:"correct"`
	ScoreDelta    int    `json:"score_delta,omitempty"`
	Reason        string `json:"reason,omitempty"`
	Score         int    `json:"score"`
	WrongAttempts int    `json:"wrong_attempts"`
}

type GameOverPayload struct {
	Score         int `json:"score"`
	Level         int `json:"level"`
	WrongAttempts int `json:"wrong_attempts"`
}

type TourStatePayload struct {
	Active     bool   `json:"active"`
	Completed  bool   `json:"completed"`
	StepKey    string `json:"step_key,omitempty"`
	StepTitle  string `json:"step_title,omitempty"`
	StepBody   string `json:"step_body,omitempty"`
	StepIndex  int    `json:"step_index"`
	TotalSteps int    `json:"total_steps"`
}

type ServerShutdownPayload struct {
	Message string `json:"message"`
}

type ErrorPayload struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}
