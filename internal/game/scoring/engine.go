package scoring

import (
	"time"
)

// ScoringConfig holds configurable scoring constants (defaults match requirements).
type ScoringConfig struct {
	LevelMultiplier int // default: 10 points per level
}

// DefaultScoringConfig returns production defaults.
func DefaultScoringConfig() ScoringConfig {
	return ScoringConfig{
		LevelMultiplier: 10,
	}
}

// Engine computes server-side round scores with configurable constants.
type Engine struct {
	config ScoringConfig
}

// NewEngine creates a scoring engine with the provided config.
func NewEngine(config ScoringConfig) *Engine {
	return &Engine{config: config}
}

// CalculateScore computes points for a correctly solved round.
// Formula: level*multiplier + time_bonus
//   - level component rewards progression
//   - time_bonus is the whole seconds left on the clock when the third
//     bubble was tapped, so faster rounds earn more
func (e *Engine) CalculateScore(level int, timeLeft time.Duration) int {
	if level < 1 {
		level = 1
	}
	if timeLeft < 0 {
		timeLeft = 0
	}

	timeBonus := int(timeLeft / time.Second)
	return level*e.config.LevelMultiplier + timeBonus
}
