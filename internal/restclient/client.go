// Package restclient provides an authenticated JSON HTTP client shared by
// the HubSpot and PostHog integrations. It attaches a bearer token to every
// request and recovers from HTTP 429 responses by honoring the server's
// Retry-After signal, up to a bounded number of attempts.
package restclient

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"golang.org/x/oauth2"
	"golang.org/x/time/rate"

	"github.com/mlighty/bi-agent-dashboard/internal/log"
)

// DefaultMaxRetries bounds 429 reissues when the caller does not say otherwise.
const DefaultMaxRetries = 5

// RetryPolicy controls how 429 responses are handled.
type RetryPolicy struct {
	// MaxRetries is the number of times a throttled request is reissued
	// before giving up with ErrRateLimited.
	MaxRetries int
	// DefaultRetryAfter is used when the response carries no Retry-After
	// header. Service-specific: 10s for HubSpot, 60s for PostHog.
	DefaultRetryAfter time.Duration
}

// Client issues authenticated JSON requests against a single API base URL.
type Client struct {
	baseURL string
	http    *http.Client
	retry   RetryPolicy
	limiter *rate.Limiter

	// sleep is swapped out in tests to avoid real backoff waits.
	sleep func(ctx context.Context, d time.Duration) error
}

// Option configures a Client.
type Option func(*Client)

// WithRetryPolicy overrides the default retry policy.
func WithRetryPolicy(p RetryPolicy) Option {
	return func(c *Client) {
		if p.MaxRetries > 0 {
			c.retry.MaxRetries = p.MaxRetries
		}
		if p.DefaultRetryAfter > 0 {
			c.retry.DefaultRetryAfter = p.DefaultRetryAfter
		}
	}
}

// WithRateLimit adds client-side pacing of requestsPerMinute ahead of every
// call, independent of server-directed 429 backoff. Zero or negative leaves
// pacing off.
func WithRateLimit(requestsPerMinute int) Option {
	return func(c *Client) {
		if requestsPerMinute <= 0 {
			return
		}
		c.limiter = rate.NewLimiter(rate.Every(time.Minute/time.Duration(requestsPerMinute)), requestsPerMinute)
	}
}

// New creates a client for the given API base URL. The token is attached as
// a bearer Authorization header on every request.
func New(baseURL, token string, opts ...Option) *Client {
	httpClient := http.DefaultClient
	if token != "" {
		ts := oauth2.StaticTokenSource(&oauth2.Token{AccessToken: token})
		httpClient = oauth2.NewClient(context.Background(), ts)
	}

	c := &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		http:    httpClient,
		retry: RetryPolicy{
			MaxRetries:        DefaultMaxRetries,
			DefaultRetryAfter: 10 * time.Second,
		},
		sleep: sleepContext,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Call makes an authenticated request and decodes the JSON response.
// path may be relative to the base URL or a full URL (used by next-page
// cursors that come back as absolute links). A 2xx response with an empty
// body yields an empty map.
func (c *Client) Call(ctx context.Context, method, path string, query url.Values, body interface{}) (map[string]interface{}, error) {
	fullURL := path
	if !strings.HasPrefix(path, "http://") && !strings.HasPrefix(path, "https://") {
		fullURL = c.baseURL + path
	}
	if len(query) > 0 {
		fullURL += "?" + query.Encode()
	}

	var payload []byte
	if body != nil {
		var err error
		payload, err = json.Marshal(body)
		if err != nil {
			return nil, fmt.Errorf("encode request body: %w", err)
		}
	}

	for attempt := 0; ; attempt++ {
		if c.limiter != nil {
			if err := c.limiter.Wait(ctx); err != nil {
				return nil, fmt.Errorf("rate limit wait: %w", err)
			}
		}

		var reqBody io.Reader
		if payload != nil {
			reqBody = bytes.NewReader(payload)
		}
		req, err := http.NewRequestWithContext(ctx, method, fullURL, reqBody)
		if err != nil {
			return nil, fmt.Errorf("build request: %w", err)
		}
		req.Header.Set("Content-Type", "application/json")

		resp, err := c.http.Do(req)
		if err != nil {
			return nil, fmt.Errorf("%s %s: %w", method, path, err)
		}

		if resp.StatusCode == http.StatusTooManyRequests {
			retryAfter := c.retryAfter(resp)
			_, _ = io.Copy(io.Discard, resp.Body)
			_ = resp.Body.Close()

			if attempt >= c.retry.MaxRetries {
				return nil, fmt.Errorf("%s %s: gave up after %d attempts: %w", method, path, attempt+1, ErrRateLimited)
			}
			log.Printf("Rate limited. Waiting %s...\n", retryAfter)
			if err := c.sleep(ctx, retryAfter); err != nil {
				return nil, err
			}
			continue
		}

		data, err := io.ReadAll(resp.Body)
		_ = resp.Body.Close()
		if err != nil {
			return nil, fmt.Errorf("read response: %w", err)
		}

		if resp.StatusCode < 200 || resp.StatusCode > 299 {
			return nil, &HTTPError{Status: resp.StatusCode, Body: string(data)}
		}

		// Write endpoints may return no content on success.
		if len(bytes.TrimSpace(data)) == 0 {
			return map[string]interface{}{}, nil
		}

		var result map[string]interface{}
		if err := json.Unmarshal(data, &result); err != nil {
			return nil, fmt.Errorf("decode response: %w", err)
		}
		return result, nil
	}
}

// Get makes an authenticated GET request.
func (c *Client) Get(ctx context.Context, path string, query url.Values) (map[string]interface{}, error) {
	return c.Call(ctx, http.MethodGet, path, query, nil)
}

// Post makes an authenticated POST request with a JSON body.
func (c *Client) Post(ctx context.Context, path string, body interface{}) (map[string]interface{}, error) {
	return c.Call(ctx, http.MethodPost, path, nil, body)
}

// Patch makes an authenticated PATCH request with a JSON body.
func (c *Client) Patch(ctx context.Context, path string, body interface{}) (map[string]interface{}, error) {
	return c.Call(ctx, http.MethodPatch, path, nil, body)
}

// retryAfter reads the server-supplied backoff, falling back to the policy
// default when the header is absent or malformed.
func (c *Client) retryAfter(resp *http.Response) time.Duration {
	header := resp.Header.Get("Retry-After")
	if header == "" {
		return c.retry.DefaultRetryAfter
	}
	seconds, err := strconv.Atoi(header)
	if err != nil || seconds < 0 {
		return c.retry.DefaultRetryAfter
	}
	return time.Duration(seconds) * time.Second
}

func sleepContext(ctx context.Context, d time.Duration) error {
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}
