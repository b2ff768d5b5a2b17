package onboarding

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/mathpop/mathpop/internal/db/repository"
)

// ProfileStore is the persistent source of truth for the tour flag.
type ProfileStore interface {
	GetByID(ctx context.Context, playerID uuid.UUID) (repository.PlayerProfile, error)
	SetTourSeen(ctx context.Context, playerID uuid.UUID, seen bool) error
}

// FlagCache sits in front of the store; misses fall through.
type FlagCache interface {
	Get(ctx context.Context, playerID uuid.UUID) (seen bool, ok bool, err error)
	Set(ctx context.Context, playerID uuid.UUID, seen bool) error
}

// Service owns the persisted "tour seen" flag. It is deliberately separate
// from the game state machine: the gateway asks it whether to run a tour and
// reports completion, nothing more.
type Service struct {
	profiles ProfileStore
	cache    FlagCache
	logger   zerolog.Logger
}

// NewService creates the tour-flag service. cache may be nil, in which case
// every read goes to the store.
func NewService(profiles ProfileStore, cache FlagCache, logger zerolog.Logger) *Service {
	return &Service{
		profiles: profiles,
		cache:    cache,
		logger:   logger,
	}
}

// Seen reports whether the player has completed the tour. A player with no
// profile row yet counts as unseen. Cache errors fall through to the store.
func (s *Service) Seen(ctx context.Context, playerID uuid.UUID) (bool, error) {
	if s.cache != nil {
		seen, ok, err := s.cache.Get(ctx, playerID)
		if err != nil {
			s.logger.Warn().Err(err).Str("player_id", playerID.String()).Msg("tour flag cache read failed")
		} else if ok {
			return seen, nil
		}
	}

	profile, err := s.profiles.GetByID(ctx, playerID)
	if errors.Is(err, repository.ErrProfileNotFound) {
		return false, nil
	}
	if err != nil {
		return false, err
	}

	s.fillCache(ctx, playerID, profile.TourSeen)
	return profile.TourSeen, nil
}

// MarkSeen records tour completion.
func (s *Service) MarkSeen(ctx context.Context, playerID uuid.UUID) error {
	return s.write(ctx, playerID, true)
}

// Reset clears the flag so the next connect runs the tour again.
func (s *Service) Reset(ctx context.Context, playerID uuid.UUID) error {
	return s.write(ctx, playerID, false)
}

func (s *Service) write(ctx context.Context, playerID uuid.UUID, seen bool) error {
	if err := s.profiles.SetTourSeen(ctx, playerID, seen); err != nil {
		return err
	}
	s.fillCache(ctx, playerID, seen)
	s.logger.Info().Str("player_id", playerID.String()).Bool("seen", seen).Msg("tour flag updated")
	return nil
}

func (s *Service) fillCache(ctx context.Context, playerID uuid.UUID, seen bool) {
	if s.cache == nil {
		return
	}
	if err := s.cache.Set(ctx, playerID, seen); err != nil {
		s.logger.Warn().Err(err).Str("player_id", playerID.String()).Msg("tour flag cache write failed")
	}
}
