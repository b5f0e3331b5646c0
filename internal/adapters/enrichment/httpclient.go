// Package enrichment builds catalog records for places from the content and
// engagement services and an AI metadata generator.
package enrichment

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/codeGROOVE-dev/retry"
	json "github.com/goccy/go-json"

	"github.com/okian/wayfarer/pkg/logger"
	"github.com/okian/wayfarer/pkg/metrics"
)

const (
	defaultAttempts = 3
	defaultDelay    = 200 * time.Millisecond
	defaultMaxDelay = 2 * time.Second
	defaultTimeout  = 5 * time.Second
)

// upstream is an HTTP JSON client with retries shared by the service clients.
type upstream struct {
	name     string
	baseURL  string
	http     *http.Client
	attempts uint
	delay    time.Duration
	logger   logger.Logger
}

// ClientOption configures the content and engagement clients.
type ClientOption func(*upstream)

// WithHTTPClient sets the HTTP client used for requests.
func WithHTTPClient(c *http.Client) ClientOption {
	return func(u *upstream) {
		if c != nil {
			u.http = c
		}
	}
}

// WithRetry sets the number of attempts and the initial backoff delay.
func WithRetry(attempts uint, delay time.Duration) ClientOption {
	return func(u *upstream) {
		if attempts > 0 {
			u.attempts = attempts
		}
		if delay > 0 {
			u.delay = delay
		}
	}
}

// WithClientLogger sets a custom logger.
func WithClientLogger(l logger.Logger) ClientOption {
	return func(u *upstream) {
		if l != nil {
			u.logger = l
		}
	}
}

func newUpstream(name, baseURL string, opts []ClientOption) upstream {
	u := upstream{
		name:     name,
		baseURL:  baseURL,
		http:     &http.Client{Timeout: defaultTimeout},
		attempts: defaultAttempts,
		delay:    defaultDelay,
		logger:   logger.Get().Named(name),
	}
	for _, opt := range opts {
		opt(&u)
	}
	return u
}

// getJSON GETs url and decodes a 200 response into out. Transport errors and
// 5xx responses are retried with jittered exponential backoff; any other
// status fails immediately.
func (u upstream) getJSON(ctx context.Context, url string, out any) error {
	err := retry.Do(
		func() error {
			req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
			if err != nil {
				return retry.Unrecoverable(err)
			}
			req.Header.Set("Accept", "application/json")

			resp, err := u.http.Do(req)
			if err != nil {
				return err
			}
			defer func() { _ = resp.Body.Close() }()

			if resp.StatusCode >= http.StatusInternalServerError {
				return &statusError{status: resp.StatusCode, url: url}
			}
			if resp.StatusCode != http.StatusOK {
				return retry.Unrecoverable(&statusError{status: resp.StatusCode, url: url})
			}
			if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
				return retry.Unrecoverable(fmt.Errorf("decode %s: %w", url, err))
			}
			return nil
		},
		retry.Context(ctx),
		retry.Attempts(u.attempts),
		retry.Delay(u.delay),
		retry.MaxDelay(defaultMaxDelay),
		retry.DelayType(retry.CombineDelay(retry.BackOffDelay, retry.RandomDelay)),
		retry.MaxJitter(u.delay),
		retry.OnRetry(func(n uint, err error) {
			metrics.RecordUpstreamRetry(u.name)
			u.logger.Debug(ctx, "retrying upstream request",
				logger.Int("attempt", int(n)+1),
				logger.Error(err),
			)
		}),
		retry.LastErrorOnly(true),
	)
	if err != nil {
		return fmt.Errorf("%w: %s: %w", ErrUpstream, u.name, err)
	}
	return nil
}
