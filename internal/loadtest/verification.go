package loadtest

import (
	"fmt"
	"slices"
)

// Verify checks a response against its request: every entry must be one of
// the candidates, appear once, score in [0,1], and the list must be sorted by
// descending score.
func Verify(req RecommendRequest, resp RecommendResponse) error {
	seen := make(map[string]struct{}, len(resp.ScoredPlaces))
	for i, sp := range resp.ScoredPlaces {
		if !slices.Contains(req.CandidatePlace, sp.PlaceID) {
			return fmt.Errorf("%w: %q was not a candidate", ErrInvalidResponse, sp.PlaceID)
		}
		if _, dup := seen[sp.PlaceID]; dup {
			return fmt.Errorf("%w: %q returned twice", ErrInvalidResponse, sp.PlaceID)
		}
		seen[sp.PlaceID] = struct{}{}
		if sp.Score < 0 || sp.Score > 1 {
			return fmt.Errorf("%w: %q scored %.4f", ErrInvalidResponse, sp.PlaceID, sp.Score)
		}
		if i > 0 && sp.Score > resp.ScoredPlaces[i-1].Score {
			return fmt.Errorf("%w: not sorted at position %d", ErrInvalidResponse, i)
		}
	}
	if len(resp.ScoredPlaces) == 0 && resp.Message == "" {
		return fmt.Errorf("%w: empty result without a message", ErrInvalidResponse)
	}
	return nil
}
