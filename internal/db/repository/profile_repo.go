package repository

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
)

// PlayerProfile is the single persisted row per player: identity plus the
// onboarding tour flag. No gameplay history is stored.
type PlayerProfile struct {
	PlayerID    uuid.UUID
	DisplayName string
	TourSeen    bool
	CreatedAt   time.Time
	UpdatedAt   time.Time
}

// ErrProfileNotFound indicates no profile row exists for the player.
var ErrProfileNotFound = errors.New("player profile not found")

type profileStore interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}

// ProfileRepository exposes typed DB operations for player profiles.
// Satisfied by *pgxpool.Pool or a transaction.
type ProfileRepository struct {
	store profileStore
}

// NewProfileRepository wraps a pgx-compatible store.
func NewProfileRepository(store profileStore) *ProfileRepository {
	return &ProfileRepository{store: store}
}

// Upsert creates the profile on first contact and refreshes the display name
// on later ones. Idempotent per player id; the tour flag is never touched by
// an upsert.
func (r *ProfileRepository) Upsert(ctx context.Context, playerID uuid.UUID, displayName string) (PlayerProfile, error) {
	const q = `
		INSERT INTO player_profiles (player_id, display_name)
		VALUES ($1, $2)
		ON CONFLICT (player_id) DO UPDATE
			SET display_name = EXCLUDED.display_name, updated_at = now()
		RETURNING player_id, display_name, tour_seen, created_at, updated_at`

	var p PlayerProfile
	err := r.store.QueryRow(ctx, q, playerID, displayName).
		Scan(&p.PlayerID, &p.DisplayName, &p.TourSeen, &p.CreatedAt, &p.UpdatedAt)
	if err != nil {
		return PlayerProfile{}, fmt.Errorf("upsert profile: %w", err)
	}
	return p, nil
}

// GetByID fetches a profile by player id.
func (r *ProfileRepository) GetByID(ctx context.Context, playerID uuid.UUID) (PlayerProfile, error) {
	const q = `
		SELECT player_id, display_name, tour_seen, created_at, updated_at
		FROM player_profiles
		WHERE player_id = $1`

	var p PlayerProfile
	err := r.store.QueryRow(ctx, q, playerID).
		Scan(&p.PlayerID, &p.DisplayName, &p.TourSeen, &p.CreatedAt, &p.UpdatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return PlayerProfile{}, ErrProfileNotFound
	}
	if err != nil {
		return PlayerProfile{}, fmt.Errorf("get profile: %w", err)
	}
	return p, nil
}

// SetTourSeen records whether the player has completed the onboarding tour.
func (r *ProfileRepository) SetTourSeen(ctx context.Context, playerID uuid.UUID, seen bool) error {
	const q = `
		UPDATE player_profiles
		SET tour_seen = $2, updated_at = now()
		WHERE player_id = $1`

	tag, err := r.store.Exec(ctx, q, playerID, seen)
	if err != nil {
		return fmt.Errorf("set tour seen: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return ErrProfileNotFound
	}
	return nil
}
