// Package ratelimit throttles clients with a per-key window that restarts on the first request
// after it expires.
package ratelimit

import (
	"context"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/kailas-cloud/travelscout/internal/metrics"
)

// Defaults match the ranking endpoint's budget: 5 requests per 60 seconds.
const (
	DefaultLimit  = 5
	DefaultWindow = 60 * time.Second
)

// Decision is the outcome of Check.
type Decision struct {
	Allowed    bool
	RetryAfter time.Duration // whole seconds, set when not allowed
}

type window struct {
	count int
	start time.Time
}

// Config tunes the limiter.
type Config struct {
	Limit  int
	Window time.Duration
	Now    func() time.Time // nil means time.Now
}

// Service is a per-key fixed-size window limiter. All state lives in memory.
type Service struct {
	limit  int
	window time.Duration
	now    func() time.Time
	logger *zap.Logger

	mu      sync.Mutex
	windows map[string]*window
}

// New creates a limiter.
func New(cfg Config, logger *zap.Logger) *Service {
	if cfg.Limit <= 0 {
		cfg.Limit = DefaultLimit
	}
	if cfg.Window <= 0 {
		cfg.Window = DefaultWindow
	}
	if cfg.Now == nil {
		cfg.Now = time.Now
	}
	return &Service{
		limit:   cfg.Limit,
		window:  cfg.Window,
		now:     cfg.Now,
		logger:  logger,
		windows: make(map[string]*window),
	}
}

// Check records a request for key and reports whether it may proceed.
func (s *Service) Check(key string) Decision {
	now := s.now()

	s.mu.Lock()
	defer s.mu.Unlock()

	w, ok := s.windows[key]
	if !ok {
		s.windows[key] = &window{count: 1, start: now}
		metrics.RateLimitTrackedKeys.Set(float64(len(s.windows)))
		return Decision{Allowed: true}
	}

	elapsed := now.Sub(w.start)
	if elapsed > s.window {
		w.count = 1
		w.start = now
		return Decision{Allowed: true}
	}

	if w.count >= s.limit {
		metrics.RateLimitRejectionsTotal.Inc()
		return Decision{RetryAfter: retryAfter(s.window - elapsed)}
	}

	w.count++
	return Decision{Allowed: true}
}

// retryAfter rounds the remaining window up to whole seconds, never below one.
func retryAfter(remaining time.Duration) time.Duration {
	d := remaining.Truncate(time.Second)
	if d < remaining {
		d += time.Second
	}
	if d < time.Second {
		d = time.Second
	}
	return d
}

// Sweep evicts keys whose window has expired and returns how many were removed.
func (s *Service) Sweep() int {
	now := s.now()

	s.mu.Lock()
	defer s.mu.Unlock()

	removed := 0
	for key, w := range s.windows {
		if now.Sub(w.start) > s.window {
			delete(s.windows, key)
			removed++
		}
	}
	metrics.RateLimitTrackedKeys.Set(float64(len(s.windows)))
	return removed
}

// Len returns the number of tracked keys.
func (s *Service) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.windows)
}

// Run sweeps every interval until ctx is done.
func (s *Service) Run(ctx context.Context, interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if n := s.Sweep(); n > 0 {
				s.logger.Debug("Rate limiter swept stale keys", zap.Int("removed", n), zap.Int("remaining", s.Len()))
			}
		}
	}
}
