package tutor

import (
	"sync"
	"time"

	"golang.org/x/time/rate"
)

// idleAfter is how long an unused session limiter is kept.
const idleAfter = 30 * time.Minute

type sessionLimiter struct {
	lim      *rate.Limiter
	lastSeen time.Time
}

// limiter hands out one token bucket per session.
type limiter struct {
	mu        sync.Mutex
	limit     rate.Limit
	burst     int
	sessions  map[string]*sessionLimiter
	now       func() time.Time
	lastSweep time.Time
}

func newLimiter(perMinute, burst int) *limiter {
	if perMinute <= 0 {
		return nil
	}
	if burst <= 0 {
		burst = 1
	}
	return &limiter{
		limit:    rate.Every(time.Minute / time.Duration(perMinute)),
		burst:    burst,
		sessions: map[string]*sessionLimiter{},
		now:      time.Now,
	}
}

// allow reports whether sessionID may make a call now. A nil limiter
// allows everything.
func (l *limiter) allow(sessionID string) bool {
	if l == nil {
		return true
	}
	l.mu.Lock()
	defer l.mu.Unlock()

	now := l.now()
	if now.Sub(l.lastSweep) > idleAfter {
		for id, s := range l.sessions {
			if now.Sub(s.lastSeen) > idleAfter {
				delete(l.sessions, id)
			}
		}
		l.lastSweep = now
	}

	s, ok := l.sessions[sessionID]
	if !ok {
		s = &sessionLimiter{lim: rate.NewLimiter(l.limit, l.burst)}
		l.sessions[sessionID] = s
	}
	s.lastSeen = now
	return s.lim.AllowN(now, 1)
}

func (l *limiter) size() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return len(l.sessions)
}
