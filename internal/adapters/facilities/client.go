package facilities

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/codeGROOVE-dev/retry"
	json "github.com/goccy/go-json"

	"github.com/okian/wayfarer/pkg/logger"
	"github.com/okian/wayfarer/pkg/metrics"
)

const (
	pageSize        = 50
	nearbyPath      = "/team4/api/facilities/nearby/"
	defaultAttempts = 3
	defaultDelay    = 200 * time.Millisecond
	defaultTimeout  = 10 * time.Second
)

// Client queries the nearby-facilities endpoint.
type Client struct {
	baseURL  string
	http     *http.Client
	attempts uint
	delay    time.Duration
	logger   logger.Logger
}

// Option configures a Client.
type Option func(*Client)

// WithHTTPClient sets the HTTP client used for requests.
func WithHTTPClient(c *http.Client) Option {
	return func(cl *Client) {
		if c != nil {
			cl.http = c
		}
	}
}

// WithRetry sets the attempt count and initial backoff delay.
func WithRetry(attempts uint, delay time.Duration) Option {
	return func(cl *Client) {
		if attempts > 0 {
			cl.attempts = attempts
		}
		if delay > 0 {
			cl.delay = delay
		}
	}
}

// WithLogger sets a custom logger.
func WithLogger(l logger.Logger) Option {
	return func(cl *Client) {
		if l != nil {
			cl.logger = l
		}
	}
}

// NewClient creates a facilities client rooted at baseURL.
func NewClient(baseURL string, opts ...Option) *Client {
	c := &Client{
		baseURL:  strings.TrimRight(baseURL, "/"),
		http:     &http.Client{Timeout: defaultTimeout},
		attempts: defaultAttempts,
		delay:    defaultDelay,
		logger:   logger.Get().Named("facilities"),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Nearby returns the facilities within q.RadiusM meters of the coordinate.
// Results the mapper cannot read are skipped and logged.
func (c *Client) Nearby(ctx context.Context, q Query) ([]Facility, error) {
	if err := q.Validate(); err != nil {
		return nil, err
	}

	params := url.Values{
		"lat":       {strconv.FormatFloat(q.Lat, 'f', -1, 64)},
		"lng":       {strconv.FormatFloat(q.Lng, 'f', -1, 64)},
		"radius":    {strconv.Itoa(q.RadiusM)},
		"page_size": {strconv.Itoa(pageSize)},
	}
	if len(q.Categories) > 0 {
		params.Set("categories", strings.Join(q.Categories, ","))
	}
	endpoint := c.baseURL + nearbyPath + "?" + params.Encode()

	var body nearbyResponse
	err := retry.Do(
		func() error { return c.fetch(ctx, endpoint, &body) },
		retry.Context(ctx),
		retry.Attempts(c.attempts),
		retry.Delay(c.delay),
		retry.DelayType(retry.CombineDelay(retry.BackOffDelay, retry.RandomDelay)),
		retry.MaxJitter(c.delay),
		retry.OnRetry(func(n uint, err error) {
			metrics.RecordUpstreamRetry("facilities")
			c.logger.Debug(ctx, "retrying nearby query", logger.Int("attempt", int(n)+1), logger.Error(err))
		}),
		retry.LastErrorOnly(true),
	)
	if err != nil {
		metrics.RecordErrorByComponent("facilities", "upstream")
		return nil, fmt.Errorf("%w: %w", ErrUpstream, err)
	}

	out := make([]Facility, 0, len(body.Results))
	for i, r := range body.Results {
		f, err := mapPlace(r.Place)
		if err != nil {
			c.logger.Warn(ctx, "skipping unmappable facility", logger.Int("index", i), logger.Error(err))
			continue
		}
		out = append(out, f)
	}
	return out, nil
}

func (c *Client) fetch(ctx context.Context, endpoint string, out *nearbyResponse) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return retry.Unrecoverable(err)
	}
	req.Header.Set("Accept", "application/json")

	resp, err := c.http.Do(req)
	if err != nil {
		return err
	}
	defer func() { _ = resp.Body.Close() }()

	switch {
	case resp.StatusCode >= http.StatusInternalServerError:
		return fmt.Errorf("status %d", resp.StatusCode)
	case resp.StatusCode != http.StatusOK:
		return retry.Unrecoverable(fmt.Errorf("status %d", resp.StatusCode))
	}
	*out = nearbyResponse{}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return retry.Unrecoverable(fmt.Errorf("decode: %w", err))
	}
	return nil
}
