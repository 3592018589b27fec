package gateway

import (
	"sync"
	"time"
)

// sendLimiter throttles chat.send per connection with a sliding one-minute
// window, mirroring the backend's own rate limit so most over-limit turns
// are rejected before a network round trip.
type sendLimiter struct {
	perMinute int

	mu    sync.Mutex
	sends map[string][]time.Time // connID → recent send times
	now   func() time.Time
}

const sendRateWindow = time.Minute

func newSendLimiter(perMinute int) *sendLimiter {
	return &sendLimiter{
		perMinute: perMinute,
		sends:     make(map[string][]time.Time),
		now:       time.Now,
	}
}

// allow records an attempt and reports whether it is within the limit. The
// second return is the suggested retry delay when rejected.
func (l *sendLimiter) allow(connID string) (bool, time.Duration) {
	if l.perMinute <= 0 {
		return true, 0
	}

	l.mu.Lock()
	defer l.mu.Unlock()

	now := l.now()
	cutoff := now.Add(-sendRateWindow)
	recent := l.sends[connID][:0]
	for _, t := range l.sends[connID] {
		if t.After(cutoff) {
			recent = append(recent, t)
		}
	}

	if len(recent) >= l.perMinute {
		l.sends[connID] = recent
		return false, recent[0].Add(sendRateWindow).Sub(now)
	}

	l.sends[connID] = append(recent, now)
	return true, 0
}

// forget drops a connection's window when it disconnects.
func (l *sendLimiter) forget(connID string) {
	l.mu.Lock()
	defer l.mu.Unlock()
	delete(l.sends, connID)
}
