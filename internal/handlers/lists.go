package handlers

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/rs/zerolog"

	"github.com/R-Vicente/watchnext/internal/middleware"
	"github.com/R-Vicente/watchnext/internal/models"
	"github.com/R-Vicente/watchnext/internal/preferences"
)

// ListHandler handles the watchlist, liked and skipped lists
type ListHandler struct {
	prefs  PreferenceStores
	flows  *Flows
	logger zerolog.Logger
}

// NewListHandler creates a new list handler
//
//nolint:gocritic // zerolog.Logger is passed by value
func NewListHandler(prefs PreferenceStores, flows *Flows, logger zerolog.Logger) *ListHandler {
	return &ListHandler{
		prefs:  prefs,
		flows:  flows,
		logger: logger.With().Str("handler", "lists").Logger(),
	}
}

// store resolves the caller's preference store or writes an error
func (h *ListHandler) store(w http.ResponseWriter, r *http.Request) (*preferences.Store, bool) {
	userID, ok := requireUserID(w, r)
	if !ok {
		return nil, false
	}
	store, err := h.prefs.Get(r.Context(), userID)
	if err != nil {
		requestLogger(r, h.logger).Error().Err(err).Msg("failed to load preferences")
		writeError(w, http.StatusInternalServerError, "Failed to load preferences")
		return nil, false
	}
	return store, true
}

func pathKind(r *http.Request) (models.ListKind, bool) {
	kind := models.ListKind(r.PathValue("kind"))
	return kind, kind.IsValid()
}

// Get handles GET /api/lists/{kind}
func (h *ListHandler) Get(w http.ResponseWriter, r *http.Request) {
	kind, ok := pathKind(r)
	if !ok {
		writeError(w, http.StatusBadRequest, "Invalid list")
		return
	}
	store, ok := h.store(w, r)
	if !ok {
		return
	}

	entries, err := store.List(kind)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	writeJSON(w, http.StatusOK, map[string]any{
		"list":  kind,
		"items": entries,
		"total": len(entries),
	})
}

// Swipe handles POST /api/swipes
func (h *ListHandler) Swipe(w http.ResponseWriter, r *http.Request) {
	var input models.SwipeInput
	if err := decodeAndValidate(w, r, &input); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	if input.Item.ID <= 0 || !input.Item.MediaType.IsValid() {
		writeError(w, http.StatusBadRequest, "Item requires an id and a media type")
		return
	}
	if input.Item.GenreIDs == nil {
		input.Item.GenreIDs = []int{}
	}

	store, ok := h.store(w, r)
	if !ok {
		return
	}

	kind, entry, err := store.Swipe(r.Context(), input.Direction, input.Item)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	writeJSON(w, http.StatusCreated, map[string]any{
		"list":  kind,
		"entry": entry,
	})
}

// Remove handles DELETE /api/lists/{kind}/{mediaType}/{id}
// The response carries the removed entry so the client can offer undo.
func (h *ListHandler) Remove(w http.ResponseWriter, r *http.Request) {
	kind, ok := pathKind(r)
	if !ok {
		writeError(w, http.StatusBadRequest, "Invalid list")
		return
	}
	key, ok := pathContentKey(r)
	if !ok {
		writeError(w, http.StatusBadRequest, "Invalid title")
		return
	}
	store, ok := h.store(w, r)
	if !ok {
		return
	}

	removed, err := store.Remove(r.Context(), kind, key)
	if err != nil {
		if errors.Is(err, preferences.ErrNotFound) {
			writeError(w, http.StatusNotFound, "Title not in list")
			return
		}
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	writeJSON(w, http.StatusOK, removed)
}

// Move handles POST /api/lists/move
func (h *ListHandler) Move(w http.ResponseWriter, r *http.Request) {
	var input models.MoveInput
	if err := decodeAndValidate(w, r, &input); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	store, ok := h.store(w, r)
	if !ok {
		return
	}

	key := models.ContentKey{ID: input.ID, MediaType: input.MediaType}
	entry, err := store.Move(r.Context(), key, input.From, input.To)
	switch {
	case errors.Is(err, preferences.ErrNotFound):
		writeError(w, http.StatusNotFound, "Title not in list")
		return
	case errors.Is(err, preferences.ErrInvalidMove):
		writeError(w, http.StatusBadRequest, "Titles can only move between watchlist and liked")
		return
	case err != nil:
		writeError(w, http.StatusInternalServerError, "Failed to move title")
		return
	}

	writeJSON(w, http.StatusOK, map[string]any{
		"list":  input.To,
		"entry": entry,
	})
}

// Clear handles DELETE /api/lists/{kind}
func (h *ListHandler) Clear(w http.ResponseWriter, r *http.Request) {
	kind, ok := pathKind(r)
	if !ok {
		writeError(w, http.StatusBadRequest, "Invalid list")
		return
	}
	store, ok := h.store(w, r)
	if !ok {
		return
	}

	if err := store.Clear(r.Context(), kind); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

// Reset handles DELETE /api/preferences
func (h *ListHandler) Reset(w http.ResponseWriter, r *http.Request) {
	store, ok := h.store(w, r)
	if !ok {
		return
	}

	if err := store.Reset(r.Context()); err != nil {
		requestLogger(r, h.logger).Error().Err(err).Msg("failed to reset preferences")
		writeError(w, http.StatusInternalServerError, "Failed to reset your data")
		return
	}
	userID, _ := middleware.GetUserIDFromContext(r.Context())
	h.flows.Forget(userID)

	writeJSON(w, http.StatusOK, map[string]string{"message": "Full reset done!"})
}

// Stats handles GET /api/stats
func (h *ListHandler) Stats(w http.ResponseWriter, r *http.Request) {
	store, ok := h.store(w, r)
	if !ok {
		return
	}

	writeJSON(w, http.StatusOK, store.Stats())
}

// pathContentKey parses {mediaType} and {id} path values
func pathContentKey(r *http.Request) (models.ContentKey, bool) {
	mediaType := models.MediaType(r.PathValue("mediaType"))
	if !mediaType.IsValid() {
		return models.ContentKey{}, false
	}
	id, err := strconv.Atoi(r.PathValue("id"))
	if err != nil || id <= 0 {
		return models.ContentKey{}, false
	}
	return models.ContentKey{ID: id, MediaType: mediaType}, true
}
