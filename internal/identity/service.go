package identity

import (
	"context"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/mathpop/mathpop/internal/db/repository"
	"github.com/mathpop/mathpop/internal/identity/jwt"
)

// ProfileStore persists the one profile row each guest owns.
type ProfileStore interface {
	Upsert(ctx context.Context, playerID uuid.UUID, displayName string) (repository.PlayerProfile, error)
}

// Service mints and validates guest identities.
type Service struct {
	profiles ProfileStore
	tokenMgr *jwt.Manager
	logger   zerolog.Logger
}

// ServiceOptions configures the identity service.
type ServiceOptions struct {
	TokenConfig jwt.TokenConfig
}

// NewService creates an identity service.
func NewService(profiles ProfileStore, opts ServiceOptions, logger zerolog.Logger) *Service {
	return &Service{
		profiles: profiles,
		tokenMgr: jwt.NewManager(opts.TokenConfig),
		logger:   logger,
	}
}

// CreateGuest creates a guest player with a fresh id, stores its profile and
// issues a signed access token.
func (s *Service) CreateGuest(ctx context.Context, req CreateGuestRequest) (*Player, *GuestToken, error) {
	name := strings.TrimSpace(req.DisplayName)
	if name == "" {
		return nil, nil, ErrDisplayNameRequired
	}
	if len(name) > maxDisplayNameLength {
		return nil, nil, ErrDisplayNameTooLong
	}

	playerID := uuid.New()
	profile, err := s.profiles.Upsert(ctx, playerID, name)
	if err != nil {
		return nil, nil, fmt.Errorf("create guest profile: %w", err)
	}

	accessToken, err := s.tokenMgr.Generate(jwt.Player{ID: playerID, DisplayName: name})
	if err != nil {
		return nil, nil, fmt.Errorf("generate token: %w", err)
	}

	s.logger.Info().Str("player_id", playerID.String()).Msg("guest created")

	return &Player{
			ID:          playerID,
			DisplayName: profile.DisplayName,
			TourSeen:    profile.TourSeen,
		}, &GuestToken{
			AccessToken: accessToken,
			ExpiresIn:   int64(s.tokenMgr.TTL().Seconds()),
		}, nil
}

// ValidateToken validates an access token and returns its claims.
func (s *Service) ValidateToken(tokenString string) (*jwt.Claims, error) {
	return s.tokenMgr.Validate(tokenString)
}
