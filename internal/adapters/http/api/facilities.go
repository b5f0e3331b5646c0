package api

import (
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"strings"

	"github.com/okian/wayfarer/internal/adapters/facilities"
	"github.com/okian/wayfarer/pkg/logger"
)

const defaultRadiusM = 1000

type facilitiesResponse struct {
	Facilities []facilities.Facility `json:"facilities"`
}

// FacilitiesHandler proxies the nearby facilities service.
type FacilitiesHandler struct {
	deps   Dependencies
	logger logger.Logger
}

// NewFacilitiesHandler creates a new facilities handler.
func NewFacilitiesHandler(deps Dependencies, log logger.Logger) *FacilitiesHandler {
	return &FacilitiesHandler{deps: deps, logger: log}
}

// HandleNearby handles GET /api/facilities/nearby?lat=&lng=&radius=&categories=.
func (h *FacilitiesHandler) HandleNearby(w http.ResponseWriter, r *http.Request) {
	if !allowMethod(w, r, http.MethodGet) {
		return
	}
	q, err := parseNearbyQuery(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, codeBadRequest, err)
		return
	}

	found, err := h.deps.NearbyFacilities(r.Context(), q)
	switch {
	case err == nil:
		if found == nil {
			found = []facilities.Facility{}
		}
		writeJSON(w, http.StatusOK, facilitiesResponse{Facilities: found})
	case errors.Is(err, facilities.ErrInvalidQuery):
		writeError(w, http.StatusBadRequest, codeBadRequest, err)
	case errors.Is(err, facilities.ErrUpstream):
		h.logger.Warn(r.Context(), "facilities upstream failed", logger.Error(err))
		writeError(w, http.StatusBadGateway, codeUpstream, facilities.ErrUpstream)
	default:
		writeInternal(r.Context(), w, h.logger, "facilities lookup failed", err)
	}
}

func parseNearbyQuery(r *http.Request) (facilities.Query, error) {
	v := r.URL.Query()
	lat, err := strconv.ParseFloat(v.Get("lat"), 64)
	if err != nil {
		return facilities.Query{}, fmt.Errorf("%w: lat must be a number", ErrBadRequest)
	}
	lng, err := strconv.ParseFloat(v.Get("lng"), 64)
	if err != nil {
		return facilities.Query{}, fmt.Errorf("%w: lng must be a number", ErrBadRequest)
	}
	radius := defaultRadiusM
	if s := v.Get("radius"); s != "" {
		if radius, err = strconv.Atoi(s); err != nil {
			return facilities.Query{}, fmt.Errorf("%w: radius must be an integer", ErrBadRequest)
		}
	}
	var categories []string
	for _, c := range strings.Split(v.Get("categories"), ",") {
		if c = strings.TrimSpace(c); c != "" {
			categories = append(categories, c)
		}
	}
	return facilities.Query{Lat: lat, Lng: lng, RadiusM: radius, Categories: categories}, nil
}
