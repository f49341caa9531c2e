package ratelimit

import (
	"context"
	"sync"
	"time"

	"github.com/charmbracelet/log"
)

// Limiter enforces a fixed window per client key with a tight budget for
// upload calls and a looser one for everything else. Each key owns its own
// lock so unrelated clients never serialize on each other.
type Limiter struct {
	windows sync.Map // string -> *window

	window      time.Duration
	uploadCap   int
	standardCap int

	now func() time.Time
}

type window struct {
	mu    sync.Mutex
	start time.Time
	count int
}

func NewLimiter(windowLength time.Duration, uploadCap, standardCap int) *Limiter {
	return &Limiter{
		window:      windowLength,
		uploadCap:   uploadCap,
		standardCap: standardCap,
		now:         time.Now,
	}
}

// Admit counts the request against the key's current window and reports
// whether it fits the budget. A denied request still consumes a slot: the
// counter moves first, the comparison happens after.
func (l *Limiter) Admit(clientKey string, isUploadPath bool) bool {
	limit := l.standardCap
	if isUploadPath {
		limit = l.uploadCap
	}

	entry, _ := l.windows.LoadOrStore(clientKey, &window{start: l.now()})
	win := entry.(*window)

	win.mu.Lock()
	defer win.mu.Unlock()

	now := l.now()
	if now.Sub(win.start) >= l.window {
		win.start = now
		win.count = 0
	}

	win.count++
	if win.count > limit {
		log.Warn("Rate limit exceeded", "client", clientKey, "upload_path", isUploadPath)
		return false
	}

	return true
}

// RunSweeper drops windows that have been idle for at least two full window
// lengths, so long-lived deployments do not hold one record per client key
// forever. Blocks until ctx is cancelled.
func (l *Limiter) RunSweeper(ctx context.Context, interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			l.sweep()
		}
	}
}

func (l *Limiter) sweep() {
	cutoff := l.now().Add(-2 * l.window)
	removed := 0

	l.windows.Range(func(key, value any) bool {
		win := value.(*window)
		win.mu.Lock()
		stale := win.start.Before(cutoff)
		win.mu.Unlock()

		if stale {
			l.windows.Delete(key)
			removed++
		}
		return true
	})

	if removed > 0 {
		log.Debug("Swept stale rate limit windows", "removed", removed)
	}
}
