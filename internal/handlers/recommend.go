package handlers

import (
	"context"
	"errors"
	"net/http"

	"github.com/rs/zerolog"

	"github.com/R-Vicente/watchnext/internal/middleware"
	"github.com/R-Vicente/watchnext/internal/models"
	"github.com/R-Vicente/watchnext/internal/recommend"
)

// Recommender produces one recommendation per request
type Recommender interface {
	Recommend(ctx context.Context, req recommend.Request) (*recommend.Recommendation, error)
}

var _ Recommender = (*recommend.Engine)(nil)

// RecommendHandler handles the mood questionnaire
type RecommendHandler struct {
	engine Recommender
	prefs  PreferenceStores
	flows  *Flows
	logger zerolog.Logger
}

// NewRecommendHandler creates a new recommend handler
//
//nolint:gocritic // zerolog.Logger is passed by value
func NewRecommendHandler(engine Recommender, prefs PreferenceStores, flows *Flows, logger zerolog.Logger) *RecommendHandler {
	return &RecommendHandler{
		engine: engine,
		prefs:  prefs,
		flows:  flows,
		logger: logger.With().Str("handler", "recommend").Logger(),
	}
}

// Recommend handles POST /api/recommendations
func (h *RecommendHandler) Recommend(w http.ResponseWriter, r *http.Request) {
	userID, ok := requireUserID(w, r)
	if !ok {
		return
	}

	var sel models.MoodSelection
	if err := decodeAndValidate(w, r, &sel); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	if !sel.IsSurprise() && sel.SubMood != "" {
		mood, _ := models.FindMood(sel.Mood)
		if _, found := mood.SubMood(sel.SubMood); !found {
			writeError(w, http.StatusBadRequest, "Unknown sub-mood for "+sel.Mood)
			return
		}
	}

	flow := h.flows.get(userID)
	flow.recommend.Select(sel)
	h.run(w, r, flow, sel)
}

// Another handles POST /api/recommendations/another
func (h *RecommendHandler) Another(w http.ResponseWriter, r *http.Request) {
	userID, ok := requireUserID(w, r)
	if !ok {
		return
	}

	flow := h.flows.get(userID)
	sel, ok := flow.recommend.Selection()
	if !ok {
		writeError(w, http.StatusConflict, "Pick a mood first")
		return
	}
	h.run(w, r, flow, sel)
}

// Reset handles DELETE /api/recommendations/session
func (h *RecommendHandler) Reset(w http.ResponseWriter, r *http.Request) {
	userID, ok := requireUserID(w, r)
	if !ok {
		return
	}

	h.flows.get(userID).recommend.Reset()
	w.WriteHeader(http.StatusNoContent)
}

func (h *RecommendHandler) run(w http.ResponseWriter, r *http.Request, flow *userFlow, sel models.MoodSelection) {
	logger := requestLogger(r, h.logger)
	userID, _ := middleware.GetUserIDFromContext(r.Context())

	store, err := h.prefs.Get(r.Context(), userID)
	if err != nil {
		logger.Error().Err(err).Msg("failed to load preferences")
		writeError(w, http.StatusInternalServerError, "Something went wrong. Try again.")
		return
	}
	snap := store.Snapshot()

	language := ""
	if user, ok := middleware.GetUserFromContext(r.Context()); ok {
		language = user.Language
	}

	rec, err := h.engine.Recommend(r.Context(), recommend.Request{
		Selection:    sel,
		Watchlist:    snap.Watchlist,
		Liked:        snap.Liked,
		Skipped:      snap.Skipped,
		UserLanguage: language,
		Session:      flow.recommend,
	})
	if err != nil {
		status, msg := recommendError(err)
		if status >= http.StatusInternalServerError {
			logger.Error().Err(err).Str("mood", sel.Mood).Msg("recommendation failed")
		}
		writeError(w, status, msg)
		return
	}

	writeJSON(w, http.StatusOK, rec)
}

func recommendError(err error) (int, string) {
	switch {
	case errors.Is(err, recommend.ErrNoCandidates):
		return http.StatusNotFound, "No matches found. Try different options."
	case errors.Is(err, recommend.ErrDetailsUnavailable):
		return http.StatusBadGateway, "Something went wrong. Try again."
	case errors.Is(err, recommend.ErrStaleRequest):
		return http.StatusConflict, "Request superseded"
	default:
		return http.StatusInternalServerError, "Something went wrong. Try again."
	}
}
