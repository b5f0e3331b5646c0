package api

import (
	"errors"
	"net/http"

	"github.com/okian/wayfarer/internal/domain/place"
	"github.com/okian/wayfarer/internal/domain/scoring"
	"github.com/okian/wayfarer/pkg/logger"
)

const maxRequestBytes = 1 << 20

// recommendRequest is the body of POST /api/recommend-places. Filters are
// optional; Trip_duration may be a number or a numeric string.
type recommendRequest struct {
	CandidatePlace []string `json:"candidate_place"`
	TravelStyle    *string  `json:"Travel_style"`
	BudgetLevel    *string  `json:"Budget_level"`
	Season         *string  `json:"Season"`
	TripDuration   any      `json:"Trip_duration"`
}

type recommendResponse struct {
	ScoredPlaces []scoring.ScoredPlace `json:"scored_places"`
	Message      string                `json:"message,omitempty"`
}

// RecommendHandler scores candidate places.
type RecommendHandler struct {
	deps   Dependencies
	logger logger.Logger
}

// NewRecommendHandler creates a new recommend handler.
func NewRecommendHandler(deps Dependencies, log logger.Logger) *RecommendHandler {
	return &RecommendHandler{deps: deps, logger: log}
}

// HandleRecommend handles POST /api/recommend-places.
func (h *RecommendHandler) HandleRecommend(w http.ResponseWriter, r *http.Request) {
	if !allowMethod(w, r, http.MethodPost) {
		return
	}
	ctx := r.Context()

	var req recommendRequest
	if err := decodeObject(w, r, &req); err != nil {
		writeError(w, http.StatusBadRequest, codeBadRequest, err)
		return
	}

	res, err := h.deps.Recommend(ctx, scoring.Request{
		CandidateIDs: req.CandidatePlace,
		TravelStyle:  req.TravelStyle,
		BudgetLevel:  req.BudgetLevel,
		Season:       req.Season,
		TripDuration: req.TripDuration,
	})
	if err != nil {
		var verr *place.ValidationError
		if errors.As(err, &verr) {
			writeJSON(w, http.StatusBadRequest, errorResponse{
				Error:   verr.Error(),
				Code:    codeInvalidFilter,
				Field:   verr.Field,
				Allowed: verr.Allowed,
			})
			return
		}
		writeInternal(ctx, w, h.logger, "recommendation failed", err)
		return
	}

	places := res.Places
	if places == nil {
		places = []scoring.ScoredPlace{}
	}
	writeJSON(w, http.StatusOK, recommendResponse{ScoredPlaces: places, Message: res.Message})
}
