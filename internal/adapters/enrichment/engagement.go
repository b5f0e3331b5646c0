package enrichment

import (
	"context"
	"net/url"
)

// DefaultRating is used when the engagement service cannot be reached.
const DefaultRating = 3.0

type engagementResponse struct {
	RatingSummary *struct {
		Avg *float64 `json:"avg"`
	} `json:"ratingSummary"`
}

// EngagementClient reads user ratings from the core engagement service.
type EngagementClient struct {
	upstream
}

// NewEngagementClient creates a client for {baseURL}/api/v1/engagement.
func NewEngagementClient(baseURL string, opts ...ClientOption) *EngagementClient {
	return &EngagementClient{upstream: newUpstream("engagement", baseURL, opts)}
}

// FetchRating returns the average rating of placeID. A response without a
// rating summary yields 0.
func (c *EngagementClient) FetchRating(ctx context.Context, placeID string) (float64, error) {
	q := url.Values{
		"entityType":   {"place"},
		"entityId":     {placeID},
		"commentLimit": {"0"},
		"includeMedia": {"false"},
	}
	var out engagementResponse
	if err := c.getJSON(ctx, c.baseURL+"/api/v1/engagement?"+q.Encode(), &out); err != nil {
		return 0, err
	}
	if out.RatingSummary == nil || out.RatingSummary.Avg == nil {
		return 0, nil
	}
	return *out.RatingSummary.Avg, nil
}
