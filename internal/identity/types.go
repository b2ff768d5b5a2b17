package identity

import (
	"errors"

	"github.com/google/uuid"
)

// Player is a guest identity. Every player is a guest: there are no
// registered accounts, passwords or refresh tokens in this game.
type Player struct {
	ID          uuid.UUID
	DisplayName string
	TourSeen    bool
}

// GuestToken carries the signed access token for a freshly minted guest.
type GuestToken struct {
	AccessToken string
	ExpiresIn   int64 // seconds
}

// CreateGuestRequest creates an ephemeral guest identity.
type CreateGuestRequest struct {
	DisplayName string
}

const maxDisplayNameLength = 32

var (
	ErrDisplayNameRequired = errors.New("display name required")
	ErrDisplayNameTooLong  = errors.New("display name too long")
)
