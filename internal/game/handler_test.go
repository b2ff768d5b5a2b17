package game

import (
	"context"
	"encoding/json"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"

	"github.com/mathpop/mathpop/internal/db/repository"
	"github.com/mathpop/mathpop/internal/onboarding"
	"github.com/mathpop/mathpop/pkg/http/ws"
)

// fakeTourStore is a map-backed onboarding.ProfileStore.
type fakeTourStore struct {
	mu   sync.Mutex
	seen map[uuid.UUID]bool
}

func (f *fakeTourStore) GetByID(_ context.Context, playerID uuid.UUID) (repository.PlayerProfile, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	seen, ok := f.seen[playerID]
	if !ok {
		return repository.PlayerProfile{}, repository.ErrProfileNotFound
	}
	return repository.PlayerProfile{PlayerID: playerID, TourSeen: seen}, nil
}

func (f *fakeTourStore) SetTourSeen(_ context.Context, playerID uuid.UUID, seen bool) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.seen[playerID] = seen
	return nil
}

func (f *fakeTourStore) flag(playerID uuid.UUID) bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.seen[playerID]
}

func newTestHandler(t *testing.T) (*Handler, *fakeTourStore) {
	t.Helper()

	store := &fakeTourStore{seen: make(map[uuid.UUID]bool)}
	tours := onboarding.NewService(store, nil, zerolog.Nop())
	sessions := NewSessionManager(frozenClockConfig([3]int{1, 2, 3}), zerolog.Nop())
	t.Cleanup(sessions.CloseAll)

	h := NewHandler(sessions, ws.NewHub(zerolog.Nop()), nil, tours, zerolog.Nop())
	return h, store
}

// newTestConn builds per-connection state without a live socket. Sends go
// through the hub and fail silently, which the message paths tolerate.
func newTestConn(t *testing.T, h *Handler) *playerConn {
	t.Helper()

	playerID := uuid.New()
	session := h.sessions.Acquire(playerID)
	t.Cleanup(func() { h.sessions.Release(playerID, session) })

	return &playerConn{playerID: playerID, displayName: "tester", session: session}
}

func tapMessage(t *testing.T, id string) ws.Message {
	t.Helper()
	payload, err := json.Marshal(ws.TapBubblePayload{EquationID: id})
	assert.NoError(t, err)
	return ws.Message{Type: ws.TypeTapBubble, Payload: payload}
}

func TestHandleMessageStartAndStop(t *testing.T) {
	h, _ := newTestHandler(t)
	pc := newTestConn(t, h)
	ctx := context.Background()

	assert.NoError(t, h.handleMessage(ctx, pc, ws.Message{Type: ws.TypeStartGame}))
	assert.True(t, pc.session.Snapshot().Playing)

	assert.NoError(t, h.handleMessage(ctx, pc, ws.Message{Type: ws.TypeStopGame}))
	assert.False(t, pc.session.Snapshot().Playing)
}

func TestHandleMessageTapSelectsBubble(t *testing.T) {
	h, _ := newTestHandler(t)
	pc := newTestConn(t, h)
	ctx := context.Background()

	pc.session.Start()
	ids := idsAscending(pc.session.Snapshot())

	h.handleMessage(ctx, pc, tapMessage(t, ids[0]))

	assert.Equal(t, []string{ids[0]}, pc.session.Snapshot().Selected)
}

func TestHandleMessageTapRejectsMalformedPayload(t *testing.T) {
	h, _ := newTestHandler(t)
	pc := newTestConn(t, h)
	ctx := context.Background()

	pc.session.Start()

	h.handleMessage(ctx, pc, ws.Message{Type: ws.TypeTapBubble, Payload: json.RawMessage(`{"equation_id":""}`)})
	h.handleMessage(ctx, pc, ws.Message{Type: ws.TypeTapBubble, Payload: json.RawMessage(`not json`)})

	assert.Empty(t, pc.session.Snapshot().Selected)
}

func TestHandleMessageTapBlockedWhileTourActive(t *testing.T) {
	h, _ := newTestHandler(t)
	pc := newTestConn(t, h)
	pc.tour = onboarding.NewTour()
	ctx := context.Background()

	pc.session.Start()
	ids := idsAscending(pc.session.Snapshot())

	h.handleMessage(ctx, pc, tapMessage(t, ids[0]))

	assert.Empty(t, pc.session.Snapshot().Selected, "taps must not reach the session mid-tour")
}

func TestHandleMessageTourNextPersistsCompletion(t *testing.T) {
	h, store := newTestHandler(t)
	pc := newTestConn(t, h)
	pc.tour = onboarding.NewTour()
	ctx := context.Background()

	for i := 0; i < pc.tour.Total(); i++ {
		h.handleMessage(ctx, pc, ws.Message{Type: ws.TypeTourNext})
	}

	assert.True(t, pc.tour.Completed())
	assert.True(t, store.flag(pc.playerID))

	// Further tour_next messages are harmless and do not rewrite the flag.
	h.handleMessage(ctx, pc, ws.Message{Type: ws.TypeTourNext})
	assert.True(t, pc.tour.Completed())
}

func TestHandleMessageTourResetReactivates(t *testing.T) {
	h, store := newTestHandler(t)
	pc := newTestConn(t, h)
	ctx := context.Background()

	store.SetTourSeen(ctx, pc.playerID, true)
	pc.tour = nil

	h.handleMessage(ctx, pc, ws.Message{Type: ws.TypeTourReset})

	assert.NotNil(t, pc.tour)
	assert.True(t, pc.tour.Active())
	assert.False(t, store.flag(pc.playerID))
}

func TestStatePayloadHidesEquationValues(t *testing.T) {
	h, _ := newTestHandler(t)
	pc := newTestConn(t, h)

	pc.session.Start()
	snap := pc.session.Snapshot()
	payload := statePayload(snap)

	assert.Len(t, payload.Bubbles, 3)
	assert.Equal(t, int(snap.TimeLeft/time.Second), payload.SecondsLeft)
	assert.Equal(t, snap.TimeLeft.Milliseconds(), payload.TimeLeftMs)

	raw, err := json.Marshal(payload)
	assert.NoError(t, err)
	assert.NotContains(t, string(raw), `"value"`)
}

func TestStatePayloadAlwaysEncodesSelection(t *testing.T) {
	payload := statePayload(Snapshot{})

	raw, err := json.Marshal(payload)
	assert.NoError(t, err)
	assert.Contains(t, string(raw), `"selected":[]`)
}

func TestTourStatePayloadForSeenPlayer(t *testing.T) {
	payload := tourStatePayload(nil)

	assert.False(t, payload.Active)
	assert.True(t, payload.Completed)
	assert.Empty(t, payload.StepKey)
}
