package app

import (
	"sync"
	"time"
)

// NotifyLimiter suppresses a repeat of the same notification key within a
// window; a websocket push and the next poll often report the same change.
type NotifyLimiter struct {
	mu     sync.Mutex
	window time.Duration
	seen   map[string]time.Time
}

func NewNotifyLimiter(window time.Duration) *NotifyLimiter {
	return &NotifyLimiter{window: window, seen: make(map[string]time.Time)}
}

// Allow records key and reports whether it was not seen within the window.
func (l *NotifyLimiter) Allow(key string, now time.Time) bool {
	l.mu.Lock()
	defer l.mu.Unlock()
	if t, ok := l.seen[key]; ok && now.Sub(t) < l.window {
		return false
	}
	l.seen[key] = now
	if len(l.seen) > 1024 {
		for k, t := range l.seen {
			if now.Sub(t) >= l.window {
				delete(l.seen, k)
			}
		}
	}
	return true
}
