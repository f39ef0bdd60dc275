// Package ratelimit provides a per-client fixed-window request limiter.
package ratelimit

import (
	"sync"
	"time"
)

// Config holds rate limiter configuration
type Config struct {
	RequestsPerMinute int
	CleanupInterval   time.Duration
}

// DefaultConfig returns sensible defaults
func DefaultConfig() Config {
	return Config{
		RequestsPerMinute: 60,
		CleanupInterval:   5 * time.Minute,
	}
}

// Limiter tracks request counts per client over a one-minute window.
type Limiter struct {
	mu       sync.Mutex
	visitors map[string]*visitor
	stop     chan struct{}
	stopOnce sync.Once

	limit           int
	cleanupInterval time.Duration
}

type visitor struct {
	windowStart time.Time
	count       int
}

// NewLimiter creates a limiter and starts its background cleanup
func NewLimiter(config Config) *Limiter {
	if config.RequestsPerMinute <= 0 {
		config.RequestsPerMinute = DefaultConfig().RequestsPerMinute
	}
	if config.CleanupInterval <= 0 {
		config.CleanupInterval = DefaultConfig().CleanupInterval
	}

	l := &Limiter{
		visitors:        make(map[string]*visitor),
		stop:            make(chan struct{}),
		limit:           config.RequestsPerMinute,
		cleanupInterval: config.CleanupInterval,
	}
	go l.cleanupLoop()
	return l
}

// Allow reports whether a request from clientIP fits within the current window
func (l *Limiter) Allow(clientIP string) bool {
	l.mu.Lock()
	defer l.mu.Unlock()

	now := time.Now()
	v, ok := l.visitors[clientIP]
	if !ok || now.Sub(v.windowStart) > time.Minute {
		l.visitors[clientIP] = &visitor{windowStart: now, count: 1}
		return true
	}

	v.count++
	return v.count <= l.limit
}

func (l *Limiter) cleanupLoop() {
	ticker := time.NewTicker(l.cleanupInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			l.evictStale()
		case <-l.stop:
			return
		}
	}
}

// evictStale drops visitors whose window closed more than 10 minutes ago
func (l *Limiter) evictStale() {
	l.mu.Lock()
	defer l.mu.Unlock()

	cutoff := time.Now().Add(-10 * time.Minute)
	for ip, v := range l.visitors {
		if v.windowStart.Before(cutoff) {
			delete(l.visitors, ip)
		}
	}
}

// ActiveClients returns the number of currently tracked clients
func (l *Limiter) ActiveClients() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return len(l.visitors)
}

// Stop terminates the cleanup goroutine. Safe to call more than once.
func (l *Limiter) Stop() {
	l.stopOnce.Do(func() {
		close(l.stop)
	})
}
