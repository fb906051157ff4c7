package rate

import (
	"context"
	"sync"
	"time"
)

// MemoryLimiter replica el fixed-window del RedisLimiter pero en memoria,
// para despliegues de una sola réplica o desarrollo sin Redis.
type MemoryLimiter struct {
	Max    int64
	Window time.Duration

	mu      sync.Mutex
	windows map[string]*memWindow
	lastGC  time.Time
}

type memWindow struct {
	start time.Time
	hits  int64
}

func NewMemoryLimiter(max int, window time.Duration) *MemoryLimiter {
	return &MemoryLimiter{
		Max:     int64(max),
		Window:  window,
		windows: make(map[string]*memWindow),
		lastGC:  time.Now(),
	}
}

func (l *MemoryLimiter) Allow(_ context.Context, key string) (Result, error) {
	now := time.Now().UTC()
	winStart := now.Truncate(l.Window)

	l.mu.Lock()
	defer l.mu.Unlock()

	// GC perezoso de ventanas viejas, como máximo una vez por ventana.
	if now.Sub(l.lastGC) > l.Window {
		for k, w := range l.windows {
			if now.Sub(w.start) > l.Window {
				delete(l.windows, k)
			}
		}
		l.lastGC = now
	}

	w, ok := l.windows[key]
	if !ok || !w.start.Equal(winStart) {
		w = &memWindow{start: winStart}
		l.windows[key] = w
	}
	w.hits++

	remaining := l.Max - w.hits
	if remaining < 0 {
		remaining = 0
	}
	windowTTL := winStart.Add(l.Window).Sub(now)

	res := Result{
		Allowed:     w.hits <= l.Max,
		Remaining:   remaining,
		CurrentHits: w.hits,
		WindowTTL:   windowTTL,
	}
	if !res.Allowed {
		res.RetryAfter = windowTTL
	}
	return res, nil
}
