package logger

import (
	"sync"
	"sync/atomic"
	"time"

	"golang.org/x/time/rate"
)

// ThrottledLogger limits how often a named category of messages is
// emitted. Per-frame failure paths use it so a broken stream is reported
// once per interval instead of thousands of times a second; suppressed
// messages are counted and surfaced on the next emitted line.
type ThrottledLogger struct {
	base Logger

	mu       sync.RWMutex
	limiters map[string]*categoryLimiter
}

type categoryLimiter struct {
	limiter    *rate.Limiter
	suppressed atomic.Int64
}

// NewThrottledLogger creates a throttled logger over base.
func NewThrottledLogger(base Logger) *ThrottledLogger {
	return &ThrottledLogger{
		base:     base,
		limiters: make(map[string]*categoryLimiter),
	}
}

// WithCategory registers a category allowing one message per interval
// with the given burst.
func (t *ThrottledLogger) WithCategory(name string, interval time.Duration, burst int) *ThrottledLogger {
	t.mu.Lock()
	defer t.mu.Unlock()

	t.limiters[name] = &categoryLimiter{
		limiter: rate.NewLimiter(rate.Every(interval), burst),
	}
	return t
}

// allow reports whether a message in the category may be logged and
// returns the number of messages suppressed since the last allowed one.
func (t *ThrottledLogger) allow(category string) (bool, int64) {
	t.mu.RLock()
	cl, ok := t.limiters[category]
	t.mu.RUnlock()

	if !ok {
		// Unregistered categories are never throttled.
		return true, 0
	}

	if cl.limiter.Allow() {
		return true, cl.suppressed.Swap(0)
	}
	cl.suppressed.Add(1)
	return false, 0
}

// ErrorThrottled logs an error in the given category, subject to the
// category's rate limit.
func (t *ThrottledLogger) ErrorThrottled(category string, err error, msg string, fields map[string]interface{}) {
	ok, suppressed := t.allow(category)
	if !ok {
		return
	}

	entry := t.base.WithError(err)
	if fields != nil {
		entry = entry.WithFields(fields)
	}
	if suppressed > 0 {
		entry = entry.WithField("suppressed", suppressed)
	}
	entry.Error(msg)
}

// WarnThrottled logs a warning in the given category, subject to the
// category's rate limit.
func (t *ThrottledLogger) WarnThrottled(category string, msg string, fields map[string]interface{}) {
	ok, suppressed := t.allow(category)
	if !ok {
		return
	}

	entry := t.base.WithFields(fields)
	if suppressed > 0 {
		entry = entry.WithField("suppressed", suppressed)
	}
	entry.Warn(msg)
}

// Suppressed returns the number of currently suppressed messages for a
// category. Intended for tests and status reporting.
func (t *ThrottledLogger) Suppressed(category string) int64 {
	t.mu.RLock()
	defer t.mu.RUnlock()

	if cl, ok := t.limiters[category]; ok {
		return cl.suppressed.Load()
	}
	return 0
}
