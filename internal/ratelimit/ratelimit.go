// Package ratelimit throttles repeated attempts per key, such as logins per client IP.
package ratelimit

import (
	"context"
	"sync"
	"time"
)

// Limiter decides whether another attempt for key is allowed.
type Limiter interface {
	// Allow records an attempt for key and reports whether it is within the limit.
	Allow(ctx context.Context, key string) (bool, error)
	Close() error
}

type entry struct {
	count    int
	windowAt time.Time
}

// MemoryLimiter is a fixed-window limiter kept in process memory.
type MemoryLimiter struct {
	mu      sync.Mutex
	entries map[string]*entry
	rate    int
	window  time.Duration
	now     func() time.Time
	done    chan struct{}
	once    sync.Once
}

// NewMemoryLimiter allows rate attempts per key in every window.
func NewMemoryLimiter(rate int, window time.Duration) *MemoryLimiter {
	m := &MemoryLimiter{
		entries: make(map[string]*entry),
		rate:    rate,
		window:  window,
		now:     time.Now,
		done:    make(chan struct{}),
	}
	go m.cleanup()
	return m
}

func (m *MemoryLimiter) Allow(ctx context.Context, key string) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	now := m.now()
	e, ok := m.entries[key]
	if !ok || now.After(e.windowAt) {
		m.entries[key] = &entry{count: 1, windowAt: now.Add(m.window)}
		return 1 <= m.rate, nil
	}
	if e.count >= m.rate {
		return false, nil
	}
	e.count++
	return true, nil
}

// Close stops the cleanup goroutine. It is safe to call more than once.
func (m *MemoryLimiter) Close() error {
	m.once.Do(func() { close(m.done) })
	return nil
}

func (m *MemoryLimiter) cleanup() {
	ticker := time.NewTicker(m.window)
	defer ticker.Stop()

	for {
		select {
		case <-m.done:
			return
		case <-ticker.C:
			m.removeExpired()
		}
	}
}

func (m *MemoryLimiter) removeExpired() {
	m.mu.Lock()
	defer m.mu.Unlock()

	now := m.now()
	for key, e := range m.entries {
		if now.After(e.windowAt) {
			delete(m.entries, key)
		}
	}
}

var _ Limiter = (*MemoryLimiter)(nil)
