package http

import (
	"sync"
	"time"
)

// connLimiter caps WebSocket accepts per rolling minute. A zero limit
// disables the limiter.
type connLimiter struct {
	mu          sync.Mutex
	limit       int
	count       int
	windowStart time.Time
}

func newConnLimiter(perMinute int) *connLimiter {
	return &connLimiter{limit: perMinute, windowStart: time.Now()}
}

func (l *connLimiter) allow() bool {
	if l == nil || l.limit <= 0 {
		return true
	}

	l.mu.Lock()
	defer l.mu.Unlock()

	now := time.Now()
	if now.Sub(l.windowStart) >= time.Minute {
		l.windowStart = now
		l.count = 0
	}
	if l.count >= l.limit {
		return false
	}
	l.count++
	return true
}
