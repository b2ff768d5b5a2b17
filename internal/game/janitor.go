package game

import (
	"context"
	"time"

	"github.com/rs/zerolog"
)

const (
	defaultSweepInterval = 5 * time.Minute
	defaultMaxIdle       = 30 * time.Minute
)

// Janitor reaps sessions whose connection died without a clean disconnect,
// so abandoned clocks do not tick forever.
type Janitor struct {
	sessions *SessionManager
	interval time.Duration
	maxIdle  time.Duration
	logger   zerolog.Logger
}

// NewJanitor creates a sweeper over the session registry. Non-positive
// durations fall back to defaults.
func NewJanitor(sessions *SessionManager, interval, maxIdle time.Duration, logger zerolog.Logger) *Janitor {
	if interval <= 0 {
		interval = defaultSweepInterval
	}
	if maxIdle <= 0 {
		maxIdle = defaultMaxIdle
	}
	return &Janitor{
		sessions: sessions,
		interval: interval,
		maxIdle:  maxIdle,
		logger:   logger,
	}
}

// Run sweeps on a fixed interval until the context is canceled.
func (j *Janitor) Run(ctx context.Context) error {
	ticker := time.NewTicker(j.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
			if reaped := j.sessions.Sweep(j.maxIdle); reaped > 0 {
				j.logger.Info().Int("reaped", reaped).Msg("idle sessions closed")
			}
		}
	}
}
