package handlers

import (
	"errors"
	"net/http"

	"github.com/rs/zerolog"

	"github.com/R-Vicente/watchnext/internal/models"
	"github.com/R-Vicente/watchnext/internal/onboarding"
	"github.com/R-Vicente/watchnext/internal/preferences"
)

var _ onboarding.Store = (*preferences.Store)(nil)

// OnboardingHandler handles the first-run rating flow
type OnboardingHandler struct {
	controller *onboarding.Controller
	prefs      PreferenceStores
	flows      *Flows
	logger     zerolog.Logger
}

// NewOnboardingHandler creates a new onboarding handler
//
//nolint:gocritic // zerolog.Logger is passed by value
func NewOnboardingHandler(controller *onboarding.Controller, prefs PreferenceStores, flows *Flows, logger zerolog.Logger) *OnboardingHandler {
	return &OnboardingHandler{
		controller: controller,
		prefs:      prefs,
		flows:      flows,
		logger:     logger.With().Str("handler", "onboarding").Logger(),
	}
}

type startOnboardingInput struct {
	MediaType models.MediaType `json:"mediaType" validate:"required,oneof=movie tv"`
}

type rateInput struct {
	Rating onboarding.Rating `json:"rating" validate:"required,oneof=like dislike skip"`
}

// Start handles POST /api/onboarding/start
func (h *OnboardingHandler) Start(w http.ResponseWriter, r *http.Request) {
	userID, ok := requireUserID(w, r)
	if !ok {
		return
	}

	var input startOnboardingInput
	if err := decodeAndValidate(w, r, &input); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	store, err := h.prefs.Get(r.Context(), userID)
	if err != nil {
		requestLogger(r, h.logger).Error().Err(err).Msg("failed to load preferences")
		writeError(w, http.StatusInternalServerError, "Failed to load preferences")
		return
	}

	session, err := h.controller.Start(r.Context(), store, input.MediaType)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	h.flows.get(userID).setOnboardingSession(session)

	writeJSON(w, http.StatusOK, session.Status())
}

// Status handles GET /api/onboarding
func (h *OnboardingHandler) Status(w http.ResponseWriter, r *http.Request) {
	userID, ok := requireUserID(w, r)
	if !ok {
		return
	}

	session := h.flows.get(userID).onboardingSession()
	if session == nil {
		store, err := h.prefs.Get(r.Context(), userID)
		if err != nil {
			requestLogger(r, h.logger).Error().Err(err).Msg("failed to load preferences")
			writeError(w, http.StatusInternalServerError, "Failed to load preferences")
			return
		}
		writeJSON(w, http.StatusOK, map[string]any{
			"state":           onboarding.StateInactive,
			"needsOnboarding": onboarding.NeedsOnboarding(store.RatedCount(), store.Liked()),
		})
		return
	}

	writeJSON(w, http.StatusOK, session.Status())
}

// Rate handles POST /api/onboarding/rate
func (h *OnboardingHandler) Rate(w http.ResponseWriter, r *http.Request) {
	userID, ok := requireUserID(w, r)
	if !ok {
		return
	}

	var input rateInput
	if err := decodeAndValidate(w, r, &input); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	session := h.flows.get(userID).onboardingSession()
	if session == nil {
		writeError(w, http.StatusConflict, "Onboarding has not started")
		return
	}

	status, err := session.Rate(r.Context(), input.Rating)
	if err != nil {
		switch {
		case errors.Is(err, onboarding.ErrNotPresenting):
			writeError(w, http.StatusConflict, "Onboarding is not in progress")
		case errors.Is(err, onboarding.ErrInvalidRating):
			writeError(w, http.StatusBadRequest, "Invalid rating")
		default:
			requestLogger(r, h.logger).Error().Err(err).Msg("failed to record rating")
			writeError(w, http.StatusInternalServerError, "Failed to record rating")
		}
		return
	}

	writeJSON(w, http.StatusOK, status)
}

// Skip handles POST /api/onboarding/skip
func (h *OnboardingHandler) Skip(w http.ResponseWriter, r *http.Request) {
	userID, ok := requireUserID(w, r)
	if !ok {
		return
	}

	session := h.flows.get(userID).onboardingSession()
	if session == nil {
		writeError(w, http.StatusConflict, "Onboarding has not started")
		return
	}

	writeJSON(w, http.StatusOK, session.Skip())
}
