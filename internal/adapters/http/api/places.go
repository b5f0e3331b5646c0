package api

import (
	"errors"
	"net/http"
	"strings"

	"github.com/okian/wayfarer/internal/adapters/repository"
	"github.com/okian/wayfarer/pkg/logger"
)

// PlaceHandler serves catalog records.
type PlaceHandler struct {
	deps   Dependencies
	logger logger.Logger
}

// NewPlaceHandler creates a new place handler.
func NewPlaceHandler(deps Dependencies, log logger.Logger) *PlaceHandler {
	return &PlaceHandler{deps: deps, logger: log}
}

// HandleGetPlace handles GET /api/places/{place_id}.
func (h *PlaceHandler) HandleGetPlace(w http.ResponseWriter, r *http.Request) {
	if !allowMethod(w, r, http.MethodGet) {
		return
	}
	id := strings.TrimPrefix(r.URL.Path, "/api/places/")
	if id == "" || strings.Contains(id, "/") {
		writeError(w, http.StatusBadRequest, codeBadRequest, ErrBadRequest)
		return
	}
	rec, err := h.deps.Place(r.Context(), id)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			writeError(w, http.StatusNotFound, codeNotFound, err)
			return
		}
		writeInternal(r.Context(), w, h.logger, "place lookup failed", err)
		return
	}
	writeJSON(w, http.StatusOK, rec)
}
