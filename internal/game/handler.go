package game

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	"github.com/rs/zerolog"

	"github.com/mathpop/mathpop/internal/identity"
	"github.com/mathpop/mathpop/internal/onboarding"
	httperrors "github.com/mathpop/mathpop/pkg/http/errors"
	"github.com/mathpop/mathpop/pkg/http/ws"
)

// Handler manages WebSocket connections and routes game messages into the
// player's session.
type Handler struct {
	sessions    *SessionManager
	hub         *ws.Hub
	identitySvc *identity.Service
	tourSvc     *onboarding.Service
	logger      zerolog.Logger
}

// NewHandler creates the game WebSocket handler.
func NewHandler(sessions *SessionManager, hub *ws.Hub, identitySvc *identity.Service, tourSvc *onboarding.Service, logger zerolog.Logger) *Handler {
	return &Handler{
		sessions:    sessions,
		hub:         hub,
		identitySvc: identitySvc,
		tourSvc:     tourSvc,
		logger:      logger,
	}
}

// playerConn is the per-connection state: the player's session plus the
// onboarding tour cursor. The cursor is only touched from the read loop.
type playerConn struct {
	playerID    uuid.UUID
	displayName string
	session     *Session
	tour        *onboarding.Tour // nil once the tour has been seen
}

// HandleConnection runs one player's connection to completion: register,
// welcome, relay session events, route input, tear down on disconnect.
// Token validation happens before this is called.
func (h *Handler) HandleConnection(conn *websocket.Conn, playerID uuid.UUID, displayName string) {
	wsConn := ws.NewConnection(conn, h.logger)
	h.hub.RegisterConnection(playerID, wsConn)
	go wsConn.WritePump()

	session := h.sessions.Acquire(playerID)
	pc := &playerConn{
		playerID:    playerID,
		displayName: displayName,
		session:     session,
	}

	ctx := context.Background()
	seen, err := h.tourSvc.Seen(ctx, playerID)
	if err != nil {
		// Degrade to no tour rather than blocking play on a storage hiccup.
		h.logger.Warn().Err(err).Str("player_id", playerID.String()).Msg("tour flag lookup failed")
		seen = true
	}
	if !seen {
		pc.tour = onboarding.NewTour()
	}

	go h.relayEvents(pc)
	h.sendWelcome(pc)

	wsConn.ReadPump(func(msg ws.Message) error {
		return h.handleMessage(ctx, pc, msg)
	})

	h.sessions.Release(playerID, session)
	h.hub.UnregisterConnection(playerID, wsConn)
}

// relayEvents streams session transitions to the client until the session
// closes.
func (h *Handler) relayEvents(pc *playerConn) {
	for ev := range pc.session.Events() {
		switch ev.Type {
		case EventRoundStarted:
			h.send(pc.playerID, ws.TypeRoundStarted, statePayload(ev.Snapshot))
		case EventStateChanged:
			h.send(pc.playerID, ws.TypeGameState, statePayload(ev.Snapshot))
		case EventTick:
			h.send(pc.playerID, ws.TypeRoundTick, ws.RoundTickPayload{
				SecondsLeft: ev.SecondsLeft,
				TimeLeftMs:  ev.Snapshot.TimeLeft.Milliseconds(),
			})
		case EventFeedback:
			h.send(pc.playerID, ws.TypeFeedback, ws.FeedbackPayload{
				Correct:       ev.Correct,
				ScoreDelta:    ev.ScoreDelta,
				Reason:        ev.Reason,
				Score:         ev.Snapshot.Score,
				WrongAttempts: ev.Snapshot.WrongAttempts,
			})
		case EventGameOver:
			h.send(pc.playerID, ws.TypeGameOver, ws.GameOverPayload{
				Score:         ev.Snapshot.Score,
				Level:         ev.Snapshot.Level,
				WrongAttempts: ev.Snapshot.WrongAttempts,
			})
		}
	}
}

func (h *Handler) sendWelcome(pc *playerConn) {
	payload := ws.WelcomePayload{
		Player: ws.PlayerPayload{
			PlayerID:    pc.playerID.String(),
			DisplayName: pc.displayName,
		},
		State: statePayload(pc.session.Snapshot()),
	}
	if pc.tour != nil {
		payload.Tour = tourStatePayload(pc.tour)
	}
	h.send(pc.playerID, ws.TypeWelcome, payload)
}

// handleMessage routes one incoming message.
func (h *Handler) handleMessage(ctx context.Context, pc *playerConn, msg ws.Message) error {
	switch msg.Type {
	case ws.TypeStartGame:
		pc.session.Start()
		return nil
	case ws.TypeStopGame:
		pc.session.Stop()
		return nil
	case ws.TypeTapBubble:
		return h.handleTapBubble(pc, msg.Payload)
	case ws.TypeStateRequest:
		h.send(pc.playerID, ws.TypeGameState, statePayload(pc.session.Snapshot()))
		return nil
	case ws.TypeTourNext:
		return h.handleTourNext(ctx, pc)
	case ws.TypeTourReset:
		return h.handleTourReset(ctx, pc)
	case ws.TypePing:
		return h.hub.SendToPlayer(pc.playerID, ws.Message{Type: ws.TypePong, RequestID: msg.RequestID})
	default:
		return h.sendError(pc.playerID, httperrors.ErrCodeUnknownMessageType, fmt.Sprintf("Unknown message type: %s", msg.Type))
	}
}

func (h *Handler) handleTapBubble(pc *playerConn, payload json.RawMessage) error {
	var req ws.TapBubblePayload
	if err := json.Unmarshal(payload, &req); err != nil || req.EquationID == "" {
		return h.sendError(pc.playerID, httperrors.ErrCodeInvalidPayload, "Invalid tap_bubble payload")
	}

	if pc.tour != nil && pc.tour.Active() {
		return h.sendError(pc.playerID, httperrors.ErrCodeTourActive, "Finish the tour before popping bubbles")
	}

	// Taps in an unacceptable round state are dropped by the session itself.
	pc.session.TapBubble(req.EquationID)
	return nil
}

func (h *Handler) handleTourNext(ctx context.Context, pc *playerConn) error {
	if pc.tour != nil && pc.tour.Active() && pc.tour.Advance() {
		if err := h.tourSvc.MarkSeen(ctx, pc.playerID); err != nil {
			// The tour still completes for this connection; only persistence
			// failed, so the player may see it again next time.
			h.logger.Warn().Err(err).Str("player_id", pc.playerID.String()).Msg("tour completion not persisted")
		}
	}
	return h.send(pc.playerID, ws.TypeTourState, *tourStatePayload(pc.tour))
}

func (h *Handler) handleTourReset(ctx context.Context, pc *playerConn) error {
	if err := h.tourSvc.Reset(ctx, pc.playerID); err != nil {
		h.logger.Error().Err(err).Str("player_id", pc.playerID.String()).Msg("tour reset failed")
		return h.sendError(pc.playerID, httperrors.ErrCodeInternalError, "Could not reset the tour")
	}
	pc.tour = onboarding.NewTour()
	return h.send(pc.playerID, ws.TypeTourState, *tourStatePayload(pc.tour))
}

func (h *Handler) send(playerID uuid.UUID, msgType string, payload interface{}) error {
	msg := ws.Message{Type: msgType}
	data, err := json.Marshal(payload)
	if err != nil {
		return err
	}
	msg.Payload = data
	if err := h.hub.SendToPlayer(playerID, msg); err != nil {
		h.logger.Debug().Err(err).Str("player_id", playerID.String()).Str("type", msgType).Msg("send skipped")
		return err
	}
	return nil
}

func (h *Handler) sendError(playerID uuid.UUID, code, message string) error {
	return h.send(playerID, ws.TypeError, ws.ErrorPayload{Code: code, Message: message})
}

// statePayload converts a session snapshot into its client view. Equation
// values are stripped here: bubbles carry id and display text only, so the
// ordering cannot be sniffed from the wire.
func statePayload(snap Snapshot) ws.GameStatePayload {
	bubbles := make([]ws.Bubble, len(snap.Equations))
	for i, eq := range snap.Equations {
		bubbles[i] = ws.Bubble{ID: eq.ID, Expression: eq.Expression}
	}
	selected := snap.Selected
	if selected == nil {
		selected = []string{}
	}
	return ws.GameStatePayload{
		Playing:       snap.Playing,
		GameOver:      snap.GameOver,
		Score:         snap.Score,
		Level:         snap.Level,
		WrongAttempts: snap.WrongAttempts,
		SecondsLeft:   int(snap.TimeLeft / time.Second),
		TimeLeftMs:    snap.TimeLeft.Milliseconds(),
		Bubbles:       bubbles,
		Selected:      selected,
		Feedback:      snap.Feedback,
	}
}

func tourStatePayload(t *onboarding.Tour) *ws.TourStatePayload {
	if t == nil {
		return &ws.TourStatePayload{Active: false, Completed: true}
	}
	payload := &ws.TourStatePayload{
		Active:     t.Active(),
		Completed:  t.Completed(),
		StepIndex:  t.Index(),
		TotalSteps: t.Total(),
	}
	if step, ok := t.Current(); ok {
		payload.StepKey = step.Key
		payload.StepTitle = step.Title
		payload.StepBody = step.Body
	}
	return payload
}
