package handlers

import (
	"context"
	"net/http"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/R-Vicente/watchnext/internal/middleware"
	"github.com/R-Vicente/watchnext/internal/models"
	"github.com/R-Vicente/watchnext/internal/onboarding"
)

// AccountService is the slice of the user service the account endpoints need
type AccountService interface {
	SetLanguage(ctx context.Context, id uuid.UUID, language string) (*models.User, error)
	Delete(ctx context.Context, id uuid.UUID) error
}

// SessionRevoker deletes login sessions
type SessionRevoker interface {
	Delete(ctx context.Context, sessionID string) error
}

// UserHandler handles the signed-in user's account
type UserHandler struct {
	users    AccountService
	sessions SessionRevoker
	auth     *middleware.AuthMiddleware
	prefs    PreferenceStores
	flows    *Flows
	logger   zerolog.Logger
}

// NewUserHandler creates a new user handler
//
//nolint:gocritic // zerolog.Logger is passed by value
func NewUserHandler(
	users AccountService,
	sessions SessionRevoker,
	auth *middleware.AuthMiddleware,
	prefs PreferenceStores,
	flows *Flows,
	logger zerolog.Logger,
) *UserHandler {
	return &UserHandler{
		users:    users,
		sessions: sessions,
		auth:     auth,
		prefs:    prefs,
		flows:    flows,
		logger:   logger.With().Str("handler", "user").Logger(),
	}
}

// Me handles GET /api/me
func (h *UserHandler) Me(w http.ResponseWriter, r *http.Request) {
	user, ok := middleware.GetUserFromContext(r.Context())
	if !ok {
		http.Error(w, `{"error":"Unauthorized"}`, http.StatusUnauthorized)
		return
	}

	resp := map[string]any{"user": user}
	if store, err := h.prefs.Get(r.Context(), user.ID); err == nil {
		resp["needsOnboarding"] = onboarding.NeedsOnboarding(store.RatedCount(), store.Liked())
		resp["ratedCount"] = store.RatedCount()
	} else {
		requestLogger(r, h.logger).Warn().Err(err).Msg("failed to load preferences")
	}

	writeJSON(w, http.StatusOK, resp)
}

// SetLanguage handles PUT /api/me/language
func (h *UserHandler) SetLanguage(w http.ResponseWriter, r *http.Request) {
	userID, ok := requireUserID(w, r)
	if !ok {
		return
	}

	var input models.LanguageInput
	if err := decodeAndValidate(w, r, &input); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	user, err := h.users.SetLanguage(r.Context(), userID, input.Language)
	if err != nil {
		requestLogger(r, h.logger).Error().Err(err).Msg("failed to set language")
		writeError(w, http.StatusInternalServerError, "Failed to update language")
		return
	}

	writeJSON(w, http.StatusOK, user)
}

// Delete handles DELETE /api/me
// It wipes the user's preferences, the account and the current session.
func (h *UserHandler) Delete(w http.ResponseWriter, r *http.Request) {
	userID, ok := requireUserID(w, r)
	if !ok {
		return
	}
	logger := requestLogger(r, h.logger)

	store, err := h.prefs.Get(r.Context(), userID)
	if err == nil {
		err = store.Reset(r.Context())
	}
	if err != nil {
		logger.Error().Err(err).Msg("failed to clear preferences")
		writeError(w, http.StatusInternalServerError, "Failed to delete account")
		return
	}

	if err := h.users.Delete(r.Context(), userID); err != nil {
		logger.Error().Err(err).Msg("failed to delete user")
		writeError(w, http.StatusInternalServerError, "Failed to delete account")
		return
	}
	h.flows.Forget(userID)

	if sessionID, ok := h.auth.SessionID(r); ok {
		if err := h.sessions.Delete(r.Context(), sessionID); err != nil {
			logger.Warn().Err(err).Msg("failed to delete session")
		}
	}
	h.auth.ClearSessionCookie(w)

	w.WriteHeader(http.StatusNoContent)
}
