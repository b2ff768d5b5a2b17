package game

import (
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
)

// SessionManager tracks live sessions keyed by player. A player holds at
// most one session; connecting again replaces and closes the previous one.
type SessionManager struct {
	cfg    SessionConfig
	logger zerolog.Logger

	mu       sync.RWMutex
	sessions map[uuid.UUID]*Session
}

// NewSessionManager creates a session registry. The config is used as the
// prototype for every session it hands out.
func NewSessionManager(cfg SessionConfig, logger zerolog.Logger) *SessionManager {
	return &SessionManager{
		cfg:      cfg,
		logger:   logger,
		sessions: make(map[uuid.UUID]*Session),
	}
}

// Acquire returns a fresh session for the player, closing any session the
// player already had.
func (m *SessionManager) Acquire(playerID uuid.UUID) *Session {
	m.mu.Lock()
	defer m.mu.Unlock()

	if old, exists := m.sessions[playerID]; exists {
		old.Close()
	}

	s := NewSession(playerID, m.cfg, m.logger)
	m.sessions[playerID] = s
	m.logger.Info().
		Str("player_id", playerID.String()).
		Int("live_sessions", len(m.sessions)).
		Msg("session acquired")
	return s
}

// Get retrieves the player's live session.
func (m *SessionManager) Get(playerID uuid.UUID) (*Session, bool) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	s, exists := m.sessions[playerID]
	return s, exists
}

// Release closes the given session and removes it from the registry if it
// is still the one registered for the player. A session that was already
// replaced by a newer connection is closed without touching the registry.
func (m *SessionManager) Release(playerID uuid.UUID, s *Session) {
	m.mu.Lock()
	defer m.mu.Unlock()

	s.Close()
	if current, exists := m.sessions[playerID]; exists && current == s {
		delete(m.sessions, playerID)
		m.logger.Info().
			Str("player_id", playerID.String()).
			Int("live_sessions", len(m.sessions)).
			Msg("session released")
	}
}

// Sweep closes sessions idle for at least maxIdle and returns how many
// were reaped.
func (m *SessionManager) Sweep(maxIdle time.Duration) int {
	m.mu.Lock()
	defer m.mu.Unlock()

	reaped := 0
	for id, s := range m.sessions {
		if s.IdleFor() >= maxIdle {
			s.Close()
			delete(m.sessions, id)
			reaped++
		}
	}
	return reaped
}

// Count returns the number of live sessions.
func (m *SessionManager) Count() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.sessions)
}

// CloseAll shuts every live session down. Used on server shutdown.
func (m *SessionManager) CloseAll() {
	m.mu.Lock()
	defer m.mu.Unlock()

	for id, s := range m.sessions {
		s.Close()
		delete(m.sessions, id)
	}
}
