package http

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/motorefacciones/import-service/internal/http/ratelimit"
)

const userAgent = "MotoRefacciones-ImportService/1.0"

// ErrTooLarge is returned when a response body exceeds the caller's size limit
var ErrTooLarge = errors.New("response body exceeds size limit")

// Client is an HTTP client with rate limiting and retry logic
type Client struct {
	httpClient  *http.Client
	rateLimiter *ratelimit.RateLimiter
	config      ratelimit.Config
}

// NewClient creates a new HTTP client with rate limiting
func NewClient(config ratelimit.Config) *Client {
	return &Client{
		httpClient: &http.Client{
			Timeout: 5 * time.Minute,
		},
		rateLimiter: ratelimit.NewRateLimiter(config),
		config:      config,
	}
}

// NewClientDefault creates a new HTTP client with default rate limiting
func NewClientDefault() *Client {
	return NewClient(ratelimit.DefaultConfig())
}

// Get performs a GET request with rate limiting and retry logic
func (c *Client) Get(ctx context.Context, url string) (*http.Response, error) {
	return c.Do(ctx, http.MethodGet, url)
}

// Do performs a bodiless HTTP request with rate limiting and retry logic.
// The caller owns the returned response body.
func (c *Client) Do(ctx context.Context, method, url string) (*http.Response, error) {
	var lastStatus int
	var lastErr error

	for attempt := 0; attempt <= c.config.MaxRetries; attempt++ {
		if err := c.rateLimiter.Throttle(ctx); err != nil {
			return nil, fmt.Errorf("rate limiter error: %w", err)
		}

		req, err := http.NewRequestWithContext(ctx, method, url, nil)
		if err != nil {
			// A malformed URL will not get better on retry
			return nil, &ratelimit.FetchRetryError{URL: url, Attempts: attempt + 1, LastError: err}
		}

		req.Header.Set("User-Agent", userAgent)
		req.Header.Set("Accept", "*/*")

		resp, err := c.httpClient.Do(req)
		if err != nil {
			lastErr = err
			if ctx.Err() != nil {
				break
			}
			if attempt < c.config.MaxRetries {
				if err := c.backoff(ctx, url, attempt, ratelimit.CalculateBackoff(attempt, c.config)); err != nil {
					return nil, err
				}
				continue
			}
			break
		}

		if resp.StatusCode >= 200 && resp.StatusCode < 300 {
			return resp, nil
		}

		lastStatus = resp.StatusCode
		lastErr = fmt.Errorf("unexpected status %s", resp.Status)
		retryAfter := resp.Header.Get("Retry-After")
		_, _ = io.Copy(io.Discard, resp.Body)
		resp.Body.Close()

		if !ratelimit.IsRetryableStatus(resp.StatusCode) {
			return nil, &ratelimit.FetchRetryError{
				URL:        url,
				Attempts:   attempt + 1,
				LastStatus: lastStatus,
				LastError:  lastErr,
			}
		}

		if attempt < c.config.MaxRetries {
			delay := ratelimit.CalculateBackoff(attempt, c.config)
			if resp.StatusCode == http.StatusTooManyRequests {
				delay = ratelimit.CalculateRateLimitBackoff(attempt, c.config, retryAfter)
			}
			if err := c.backoff(ctx, url, attempt, delay); err != nil {
				return nil, err
			}
		}
	}

	return nil, &ratelimit.FetchRetryError{
		URL:        url,
		Attempts:   c.config.MaxRetries + 1,
		LastStatus: lastStatus,
		LastError:  lastErr,
	}
}

func (c *Client) backoff(ctx context.Context, url string, attempt int, delay time.Duration) error {
	log.Debug().
		Str("url", url).
		Int("attempt", attempt+1).
		Dur("delay", delay).
		Msg("Retrying fetch")

	if err := ratelimit.Sleep(ctx, delay); err != nil {
		return fmt.Errorf("fetch %s cancelled: %w", url, err)
	}
	return nil
}

// GetBytes performs a GET request and returns the response body.
// A positive maxBytes caps the body size; larger bodies fail with ErrTooLarge.
func (c *Client) GetBytes(ctx context.Context, url string, maxBytes int64) ([]byte, error) {
	resp, err := c.Get(ctx, url)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	var reader io.Reader = resp.Body
	if maxBytes > 0 {
		reader = io.LimitReader(resp.Body, maxBytes+1)
	}

	body, err := io.ReadAll(reader)
	if err != nil {
		return nil, fmt.Errorf("failed to read response body: %w", err)
	}
	if maxBytes > 0 && int64(len(body)) > maxBytes {
		return nil, fmt.Errorf("%s: %w (%d bytes)", url, ErrTooLarge, maxBytes)
	}

	return body, nil
}

// GetConfig returns the current rate limit configuration
func (c *Client) GetConfig() ratelimit.Config {
	return c.config
}

// SetConfig updates the rate limit configuration
func (c *Client) SetConfig(config ratelimit.Config) {
	c.config = config
	c.rateLimiter.SetConfig(config)
}

// ComputeSha256 computes the SHA256 hash of the given data
func ComputeSha256(data []byte) string {
	hash := sha256.Sum256(data)
	return hex.EncodeToString(hash[:])
}
