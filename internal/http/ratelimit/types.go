package ratelimit

import (
	"context"
	"sync"

	"golang.org/x/time/rate"
)

// Config holds outbound fetch rate limiting and retry configuration
type Config struct {
	RequestsPerSecond int `json:"requestsPerSecond" mapstructure:"requests_per_second"`
	MaxRetries        int `json:"maxRetries" mapstructure:"max_retries"`
	InitialBackoffMs  int `json:"initialBackoffMs" mapstructure:"initial_backoff_ms"`
	MaxBackoffMs      int `json:"maxBackoffMs" mapstructure:"max_backoff_ms"`
}

// DefaultConfig returns the default rate limit configuration
func DefaultConfig() Config {
	return Config{
		RequestsPerSecond: 2,
		MaxRetries:        3,
		InitialBackoffMs:  500,
		MaxBackoffMs:      30000,
	}
}

// RateLimiter spaces outbound requests using a token bucket
type RateLimiter struct {
	mu      sync.RWMutex
	config  Config
	limiter *rate.Limiter
}

// NewRateLimiter creates a new rate limiter with the given config
func NewRateLimiter(config Config) *RateLimiter {
	return &RateLimiter{
		config:  config,
		limiter: rate.NewLimiter(limitFor(config), 1),
	}
}

// NewRateLimiterDefault creates a rate limiter with default config
func NewRateLimiterDefault() *RateLimiter {
	return NewRateLimiter(DefaultConfig())
}

// GetConfig returns the current configuration
func (r *RateLimiter) GetConfig() Config {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.config
}

// SetConfig updates the configuration
func (r *RateLimiter) SetConfig(config Config) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.config = config
	r.limiter.SetLimit(limitFor(config))
}

// Throttle waits until the next request may be sent or ctx is done.
// Call this before making a request.
func (r *RateLimiter) Throttle(ctx context.Context) error {
	return r.limiter.Wait(ctx)
}

// A non-positive rate disables throttling
func limitFor(config Config) rate.Limit {
	if config.RequestsPerSecond <= 0 {
		return rate.Inf
	}
	return rate.Limit(config.RequestsPerSecond)
}
