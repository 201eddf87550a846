package ratelimit

import (
	"sync"
	"time"
)

const sweepInterval = 5 * time.Minute

// Limiter decides whether the caller identified by key may proceed.
type Limiter interface {
	Allow(key string, limit int, window time.Duration) Decision
	Close()
}

// Decision is the outcome of a single Allow call.
type Decision struct {
	Allowed   bool
	Count     int
	WindowEnd time.Time
}

// Remaining reports how many requests are left in the current window.
func (d Decision) Remaining(limit int) int {
	if r := limit - d.Count; r > 0 {
		return r
	}
	return 0
}

type window struct {
	count int
	end   time.Time
}

// MemoryLimiter keeps counters in process memory. Expired windows are swept
// periodically until Close is called.
type MemoryLimiter struct {
	mu      sync.Mutex
	entries map[string]window
	now     func() time.Time
	stopCh  chan struct{}
	once    sync.Once
}

var _ Limiter = (*MemoryLimiter)(nil)

// NewMemoryLimiter starts a limiter with a background sweeper.
func NewMemoryLimiter() *MemoryLimiter {
	l := &MemoryLimiter{
		entries: make(map[string]window),
		now:     time.Now,
		stopCh:  make(chan struct{}),
	}
	go l.sweepLoop()
	return l
}

// Allow counts one request against key. A non-positive limit disables
// limiting; a non-positive window defaults to one minute.
func (l *MemoryLimiter) Allow(key string, limit int, win time.Duration) Decision {
	if limit <= 0 {
		return Decision{Allowed: true}
	}
	if win <= 0 {
		win = time.Minute
	}
	now := l.now()

	l.mu.Lock()
	defer l.mu.Unlock()

	state, ok := l.entries[key]
	if !ok || now.After(state.end) {
		state = window{count: 1, end: now.Add(win)}
		l.entries[key] = state
		return Decision{Allowed: true, Count: state.count, WindowEnd: state.end}
	}
	if state.count >= limit {
		return Decision{Allowed: false, Count: state.count, WindowEnd: state.end}
	}
	state.count++
	l.entries[key] = state
	return Decision{Allowed: true, Count: state.count, WindowEnd: state.end}
}

func (l *MemoryLimiter) sweepLoop() {
	ticker := time.NewTicker(sweepInterval)
	defer ticker.Stop()
	for {
		select {
		case <-ticker.C:
			l.sweep(l.now())
		case <-l.stopCh:
			return
		}
	}
}

func (l *MemoryLimiter) sweep(now time.Time) {
	l.mu.Lock()
	defer l.mu.Unlock()
	for key, state := range l.entries {
		if now.After(state.end) {
			delete(l.entries, key)
		}
	}
}

// Close stops the sweeper. It is safe to call more than once.
func (l *MemoryLimiter) Close() {
	l.once.Do(func() { close(l.stopCh) })
}
