package game

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/mathpop/mathpop/internal/equation"
	"github.com/mathpop/mathpop/internal/game/scoring"
)

// SessionConfig carries the collaborators and timing rules for a session.
// Zero values fall back to the shipped defaults.
type SessionConfig struct {
	Generator BatchSource
	Engine    *scoring.Engine

	RoundTime         time.Duration // countdown allotted per round
	TickInterval      time.Duration // clock resolution
	LevelAdvanceDelay time.Duration // correct round -> next level
	WrongFeedbackHold time.Duration // wrong flash -> back to neutral
	RoundRestartDelay time.Duration // timeout -> same-level retry
}

const (
	defaultRoundTime         = 15 * time.Second
	defaultTickInterval      = 100 * time.Millisecond
	defaultLevelAdvanceDelay = time.Second
	defaultWrongFeedbackHold = 500 * time.Millisecond
	defaultRoundRestartDelay = time.Second
)

func (c SessionConfig) withDefaults() SessionConfig {
	if c.Generator == nil {
		c.Generator = equation.NewGenerator(0)
	}
	if c.Engine == nil {
		c.Engine = scoring.NewEngine(scoring.DefaultScoringConfig())
	}
	if c.RoundTime <= 0 {
		c.RoundTime = defaultRoundTime
	}
	if c.TickInterval <= 0 {
		c.TickInterval = defaultTickInterval
	}
	if c.LevelAdvanceDelay <= 0 {
		c.LevelAdvanceDelay = defaultLevelAdvanceDelay
	}
	if c.WrongFeedbackHold <= 0 {
		c.WrongFeedbackHold = defaultWrongFeedbackHold
	}
	if c.RoundRestartDelay <= 0 {
		c.RoundRestartDelay = defaultRoundRestartDelay
	}
	return c
}

// Session is one player's game. Player input, clock ticks and delayed
// transitions are all serialized through one mutex, so exactly one mutation
// runs at a time. Delayed transitions carry the round generation they were
// armed under and are dropped if the round was torn down first.
type Session struct {
	playerID uuid.UUID
	cfg      SessionConfig
	logger   zerolog.Logger

	ctx    context.Context
	cancel context.CancelFunc

	mu            sync.Mutex
	playing       bool
	gameOver      bool
	score         int
	level         int
	wrongAttempts int
	round         *Round
	roundGen      uint64
	lastActive    time.Time
	closed        bool
	dropped       int

	events chan Event
}

// NewSession builds a session and starts its clock goroutine. Callers must
// Close the session when the player disconnects.
func NewSession(playerID uuid.UUID, cfg SessionConfig, logger zerolog.Logger) *Session {
	ctx, cancel := context.WithCancel(context.Background())
	s := &Session{
		playerID:   playerID,
		cfg:        cfg.withDefaults(),
		logger:     logger.With().Str("player_id", playerID.String()).Logger(),
		ctx:        ctx,
		cancel:     cancel,
		lastActive: time.Now(),
		events:     make(chan Event, 64),
	}
	go s.run()
	return s
}

// PlayerID returns the owning player.
func (s *Session) PlayerID() uuid.UUID { return s.playerID }

// Events streams state transitions to the gateway. The channel closes when
// the session is closed.
func (s *Session) Events() <-chan Event { return s.events }

// Done is closed once the session has been shut down.
func (s *Session) Done() <-chan struct{} { return s.ctx.Done() }

// Start begins a new game from any state: score and miss counters reset and
// a fresh level-1 round is dealt. Pending transitions from a previous game
// die on the generation bump.
func (s *Session) Start() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return
	}
	s.touchLocked()
	s.playing = true
	s.gameOver = false
	s.score = 0
	s.wrongAttempts = 0
	s.startRoundLocked(1)
	s.logger.Info().Msg("game started")
}

// Stop ends the game where it stands. The banked score is final; armed
// delayed transitions are suppressed.
func (s *Session) Stop() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed || !s.playing || s.gameOver {
		return
	}
	s.touchLocked()
	s.playing = false
	s.gameOver = true
	s.publishLocked(Event{Type: EventGameOver, Snapshot: s.snapshotLocked()})
	s.logger.Info().Int("score", s.score).Int("level", s.level).Msg("game stopped")
}

// TapBubble toggles the equation in or out of the selection. Input is
// dropped while no round is live, the round is resolved, or wrong-answer
// feedback is still on screen. Filling the third slot validates
// immediately.
func (s *Session) TapBubble(id string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return
	}
	s.touchLocked()
	if !s.playing || s.gameOver || s.round == nil || s.round.resolved || s.round.Feedback != FeedbackNeutral {
		return
	}

	if s.round.deselect(id) {
		s.publishLocked(Event{Type: EventStateChanged, Snapshot: s.snapshotLocked()})
		return
	}
	if !s.round.has(id) {
		s.logger.Debug().Str("equation_id", id).Msg("tap for unknown equation ignored")
		return
	}

	s.round.Selected = append(s.round.Selected, id)
	if len(s.round.Selected) == equation.BatchSize {
		s.validateLocked()
		return
	}
	s.publishLocked(Event{Type: EventStateChanged, Snapshot: s.snapshotLocked()})
}

// Snapshot returns a copy of the current state.
func (s *Session) Snapshot() Snapshot {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.snapshotLocked()
}

// IdleFor reports how long the session has gone without player input.
func (s *Session) IdleFor() time.Duration {
	s.mu.Lock()
	defer s.mu.Unlock()
	return time.Since(s.lastActive)
}

// Close tears the session down: the clock goroutine stops, armed timers are
// abandoned and the event channel closes. Safe to call more than once.
func (s *Session) Close() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return
	}
	s.closed = true
	s.cancel()
	close(s.events)
}

func (s *Session) run() {
	ticker := time.NewTicker(s.cfg.TickInterval)
	defer ticker.Stop()

	for {
		select {
		case <-s.ctx.Done():
			return
		case <-ticker.C:
			s.tick(s.cfg.TickInterval)
		}
	}
}

// tick drains the countdown by one step. The clock only moves while a game
// is live and the round outcome is still open.
func (s *Session) tick(step time.Duration) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed || !s.playing || s.gameOver || s.round == nil || s.round.resolved {
		return
	}

	prev := s.round.TimeLeft
	s.round.TimeLeft -= step
	if s.round.TimeLeft <= 0 {
		s.round.TimeLeft = 0
		s.expireLocked()
		return
	}

	if wholeSeconds(prev) != wholeSeconds(s.round.TimeLeft) {
		s.publishLocked(Event{
			Type:        EventTick,
			SecondsLeft: wholeSeconds(s.round.TimeLeft),
			Snapshot:    s.snapshotLocked(),
		})
	}
}

func (s *Session) startRoundLocked(level int) {
	s.roundGen++
	s.level = level
	s.round = newRound(level, s.cfg.Generator.Batch(level), s.cfg.RoundTime)
	s.publishLocked(Event{Type: EventRoundStarted, Snapshot: s.snapshotLocked()})
}

func (s *Session) validateLocked() {
	values := resolveValues(s.round.Selected, s.round.Equations)

	if orderedNonDecreasing(values) {
		s.round.resolved = true
		s.round.Feedback = FeedbackCorrect
		delta := s.cfg.Engine.CalculateScore(s.round.Level, s.round.TimeLeft)
		s.score += delta
		next := s.round.Level + 1
		s.publishLocked(Event{
			Type:       EventFeedback,
			Correct:    true,
			ScoreDelta: delta,
			Snapshot:   s.snapshotLocked(),
		})
		s.scheduleLocked(s.cfg.LevelAdvanceDelay, func() {
			s.startRoundLocked(next)
		})
		return
	}

	// Wrong order: the round stays live, the clock keeps draining, and the
	// selection is kept so the player can toggle off just the misplaced
	// bubbles.
	s.round.Feedback = FeedbackWrong
	s.wrongAttempts++
	s.publishLocked(Event{
		Type:     EventFeedback,
		Correct:  false,
		Reason:   ReasonOutOfOrder,
		Snapshot: s.snapshotLocked(),
	})
	s.scheduleLocked(s.cfg.WrongFeedbackHold, func() {
		if s.round == nil || s.round.resolved {
			return
		}
		s.round.Feedback = FeedbackNeutral
		s.publishLocked(Event{Type: EventStateChanged, Snapshot: s.snapshotLocked()})
	})
}

// expireLocked handles the countdown running out: the round is marked
// resolved so it cannot expire twice, the miss is counted, and a fresh
// board at the same level is dealt after the restart delay.
func (s *Session) expireLocked() {
	s.round.resolved = true
	s.round.Feedback = FeedbackWrong
	s.wrongAttempts++
	level := s.round.Level
	s.publishLocked(Event{
		Type:     EventFeedback,
		Correct:  false,
		Reason:   ReasonTimeout,
		Snapshot: s.snapshotLocked(),
	})
	s.scheduleLocked(s.cfg.RoundRestartDelay, func() {
		s.startRoundLocked(level)
	})
}

// scheduleLocked arms a one-shot transition tied to the current round
// generation. The callback runs under the session lock and is skipped if
// the game ended or the round it was armed for is gone.
func (s *Session) scheduleLocked(delay time.Duration, fn func()) {
	gen := s.roundGen
	timer := time.NewTimer(delay)
	go func() {
		defer timer.Stop()
		select {
		case <-s.ctx.Done():
			return
		case <-timer.C:
		}

		s.mu.Lock()
		defer s.mu.Unlock()
		if s.closed || s.gameOver || !s.playing || s.roundGen != gen {
			return
		}
		fn()
	}()
}

// publishLocked hands an event to the gateway without ever blocking a
// transition. A full buffer drops the event; the next snapshot-bearing
// event resynchronizes the consumer.
func (s *Session) publishLocked(ev Event) {
	if s.closed {
		return
	}
	select {
	case s.events <- ev:
	default:
		s.dropped++
		if s.dropped%100 == 1 {
			s.logger.Warn().Int("dropped", s.dropped).Msg("session event buffer full")
		}
	}
}

func (s *Session) snapshotLocked() Snapshot {
	snap := Snapshot{
		Playing:       s.playing,
		GameOver:      s.gameOver,
		Score:         s.score,
		Level:         s.level,
		WrongAttempts: s.wrongAttempts,
		Feedback:      FeedbackNeutral,
	}
	if s.round != nil {
		snap.TimeLeft = s.round.TimeLeft
		snap.Feedback = s.round.Feedback
		snap.Equations = append([]equation.Equation(nil), s.round.Equations...)
		snap.Selected = append([]string(nil), s.round.Selected...)
	}
	return snap
}

func (s *Session) touchLocked() {
	s.lastActive = time.Now()
}

func wholeSeconds(d time.Duration) int {
	return int(d / time.Second)
}
