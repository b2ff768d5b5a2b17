package identity

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/rs/zerolog"

	httperrors "github.com/mathpop/mathpop/pkg/http/errors"
)

// HTTPHandlers provides the REST surface for player identity.
type HTTPHandlers struct {
	svc    *Service
	logger zerolog.Logger
}

// NewHTTPHandlers creates HTTP handlers for identity endpoints.
func NewHTTPHandlers(svc *Service, logger zerolog.Logger) *HTTPHandlers {
	return &HTTPHandlers{
		svc:    svc,
		logger: logger,
	}
}

// CreateGuest handles POST /v1/players/guest
func (h *HTTPHandlers) CreateGuest(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		httperrors.RespondError(w, http.StatusMethodNotAllowed, httperrors.ErrCodeInvalidRequest, "Method not allowed")
		return
	}

	var req struct {
		DisplayName string `json:"display_name"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		httperrors.RespondBadRequest(w, httperrors.ErrCodeInvalidRequest, "Invalid JSON payload")
		return
	}

	player, token, err := h.svc.CreateGuest(r.Context(), CreateGuestRequest{DisplayName: req.DisplayName})
	if err != nil {
		if errors.Is(err, ErrDisplayNameRequired) {
			httperrors.RespondValidationError(w, httperrors.ErrCodeMissingField, "Display name required", "display_name")
			return
		}
		if errors.Is(err, ErrDisplayNameTooLong) {
			httperrors.RespondValidationError(w, httperrors.ErrCodeInvalidRequest, "Display name too long", "display_name")
			return
		}
		h.logger.Error().Err(err).Msg("guest creation failed")
		httperrors.RespondError(w, http.StatusInternalServerError, httperrors.ErrCodeGuestCreationFailed, "Could not create guest")
		return
	}

	h.respondJSON(w, http.StatusCreated, map[string]interface{}{
		"player_id":    player.ID.String(),
		"display_name": player.DisplayName,
		"access_token": token.AccessToken,
		"expires_in":   token.ExpiresIn,
	})
}

func (h *HTTPHandlers) respondJSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(data)
}
