package enrichment

import (
	"context"
	"net/url"
)

// Content is the wiki summary and tags of a place.
type Content struct {
	Summary string   `json:"summary"`
	Tags    []string `json:"tags"`
}

// ContentClient reads place content from the core content service.
type ContentClient struct {
	upstream
}

// NewContentClient creates a client for {baseURL}/api/wiki/content.
func NewContentClient(baseURL string, opts ...ClientOption) *ContentClient {
	return &ContentClient{upstream: newUpstream("content", baseURL, opts)}
}

// FetchContent returns the summary and tags for placeID.
func (c *ContentClient) FetchContent(ctx context.Context, placeID string) (Content, error) {
	u := c.baseURL + "/api/wiki/content?" + url.Values{"place": {placeID}}.Encode()
	var out Content
	if err := c.getJSON(ctx, u, &out); err != nil {
		return Content{}, err
	}
	return out, nil
}
