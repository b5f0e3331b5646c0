package api

import (
	"errors"
	"fmt"
	"net/http"

	"github.com/okian/wayfarer/internal/adapters/mq/queue"
	"github.com/okian/wayfarer/pkg/logger"
)

const maxEnrichIDs = 500

type enrichRequest struct {
	PlaceIDs []string `json:"place_ids"`
}

type enrichResponse struct {
	Accepted  []string `json:"accepted"`
	Duplicate []string `json:"duplicate"`
	Rejected  []string `json:"rejected"`
}

// EnrichHandler queues places for enrichment.
type EnrichHandler struct {
	deps   Dependencies
	logger logger.Logger
}

// NewEnrichHandler creates a new enrich handler.
func NewEnrichHandler(deps Dependencies, log logger.Logger) *EnrichHandler {
	return &EnrichHandler{deps: deps, logger: log}
}

// HandleEnrich handles POST /api/enrich. It answers 202 when at least one id
// was accepted or already pending, and 429 when the queue refused them all.
func (h *EnrichHandler) HandleEnrich(w http.ResponseWriter, r *http.Request) {
	if !allowMethod(w, r, http.MethodPost) {
		return
	}
	ctx := r.Context()

	var req enrichRequest
	if err := decodeObject(w, r, &req); err != nil {
		writeError(w, http.StatusBadRequest, codeBadRequest, err)
		return
	}
	switch {
	case len(req.PlaceIDs) == 0:
		writeError(w, http.StatusBadRequest, codeBadRequest, fmt.Errorf("%w: place_ids is empty", ErrBadRequest))
		return
	case len(req.PlaceIDs) > maxEnrichIDs:
		writeError(w, http.StatusBadRequest, codeBadRequest,
			fmt.Errorf("%w: at most %d place_ids per request", ErrBadRequest, maxEnrichIDs))
		return
	}

	resp := enrichResponse{Accepted: []string{}, Duplicate: []string{}, Rejected: []string{}}
	full := 0
	for _, id := range req.PlaceIDs {
		outcome, err := h.deps.Enqueue(ctx, id, queue.SourceAPI)
		switch {
		case err == nil && outcome == "duplicate":
			resp.Duplicate = append(resp.Duplicate, id)
		case err == nil:
			resp.Accepted = append(resp.Accepted, id)
		case errors.Is(err, queue.ErrFull):
			full++
			resp.Rejected = append(resp.Rejected, id)
		default:
			h.logger.Warn(ctx, "enrichment request rejected", logger.String("place_id", id), logger.Error(err))
			resp.Rejected = append(resp.Rejected, id)
		}
	}

	if full > 0 && full == len(req.PlaceIDs) {
		writeError(w, http.StatusTooManyRequests, codeBackpressure, ErrBackpressure)
		return
	}
	writeJSON(w, http.StatusAccepted, resp)
}
