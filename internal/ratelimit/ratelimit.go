package ratelimit

import (
	"sync"
	"time"
)

// Limiter is a fixed-window per-IP counter. It is process-local and
// therefore approximate under multi-instance deployment; the decision
// engine, not this limiter, is the security boundary.
type Limiter struct {
	mu      sync.Mutex
	windows map[string]*window
	max     int
	size    time.Duration
	now     func() time.Time
}

type window struct {
	count   int
	resetAt time.Time
}

func New(max int, size time.Duration) *Limiter {
	return &Limiter{
		windows: make(map[string]*window),
		max:     max,
		size:    size,
		now:     time.Now,
	}
}

// Allow consumes one slot for the IP. When the window is exhausted it
// reports false plus the time remaining until the window resets.
func (l *Limiter) Allow(ip string) (bool, time.Duration) {
	l.mu.Lock()
	defer l.mu.Unlock()

	now := l.now()
	w, ok := l.windows[ip]
	if !ok || !now.Before(w.resetAt) {
		l.windows[ip] = &window{count: 1, resetAt: now.Add(l.size)}
		l.pruneLocked(now)
		return true, 0
	}

	if w.count >= l.max {
		return false, w.resetAt.Sub(now)
	}

	w.count++
	return true, 0
}

// pruneLocked drops expired windows so the map does not grow with every
// IP ever seen. Called on the insert path; cost is amortized.
func (l *Limiter) pruneLocked(now time.Time) {
	if len(l.windows) < 10000 {
		return
	}
	for ip, w := range l.windows {
		if !now.Before(w.resetAt) {
			delete(l.windows, ip)
		}
	}
}
