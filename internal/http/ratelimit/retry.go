package ratelimit

import (
	"context"
	"math"
	"math/rand/v2"
	"net/http"
	"strconv"
	"time"
)

// FetchRetryError represents an error when all retry attempts are exhausted
// or the server answered with a non-retryable status
type FetchRetryError struct {
	URL        string
	Attempts   int
	LastStatus int
	LastError  error
}

func (e *FetchRetryError) Error() string {
	msg := "failed to fetch " + e.URL + " after " + strconv.Itoa(e.Attempts) + " attempts"
	if e.LastStatus != 0 {
		msg += " (HTTP " + strconv.Itoa(e.LastStatus) + ")"
	}
	if e.LastError != nil {
		msg += ": " + e.LastError.Error()
	}
	return msg
}

func (e *FetchRetryError) Unwrap() error {
	return e.LastError
}

// IsRetryableStatus checks if an HTTP status code is retryable.
// Retryable: 429 and 5xx.
func IsRetryableStatus(status int) bool {
	return status == http.StatusTooManyRequests || (status >= 500 && status < 600)
}

// CalculateBackoff calculates exponential backoff delay for a given attempt.
// initialBackoff * 2^attempt, capped at MaxBackoffMs, plus 0-25% jitter.
func CalculateBackoff(attempt int, config Config) time.Duration {
	exponentialDelay := float64(config.InitialBackoffMs) * math.Pow(2.0, float64(attempt))
	cappedDelay := math.Min(exponentialDelay, float64(config.MaxBackoffMs))
	jitter := rand.Float64() * 0.25 * cappedDelay

	return time.Duration((cappedDelay + jitter) * float64(time.Millisecond))
}

// CalculateRateLimitBackoff calculates backoff for HTTP 429 responses.
// A Retry-After header in seconds wins; otherwise the multiplier is 3x instead of 2x.
func CalculateRateLimitBackoff(attempt int, config Config, retryAfterHeader string) time.Duration {
	if seconds, err := strconv.Atoi(retryAfterHeader); err == nil && seconds > 0 {
		jitter := time.Duration(rand.Float64() * float64(time.Second))
		return time.Duration(seconds)*time.Second + jitter
	}

	exponentialDelay := float64(config.InitialBackoffMs) * math.Pow(3.0, float64(attempt))
	cappedDelay := math.Min(exponentialDelay, float64(config.MaxBackoffMs))
	jitter := rand.Float64() * 0.25 * cappedDelay

	return time.Duration((cappedDelay + jitter) * float64(time.Millisecond))
}

// Sleep blocks for d or until ctx is done
func Sleep(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return ctx.Err()
	}

	timer := time.NewTimer(d)
	defer timer.Stop()

	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}
