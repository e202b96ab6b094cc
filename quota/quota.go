package quota

import (
	"sync"
	"time"

	"go.uber.org/zap"
)

// WindowKind identifies one counting window.
type WindowKind string

const (
	WindowHourly WindowKind = "hourly"
	WindowDaily  WindowKind = "daily"
)

// span returns the duration of the window kind.
func (k WindowKind) span() time.Duration {
	if k == WindowDaily {
		return 24 * time.Hour
	}
	return time.Hour
}

// Limits configures the maximum invocations per window kind. Zero disables
// a window entirely.
type Limits struct {
	Hourly int `json:"hourly" yaml:"hourly"`
	Daily  int `json:"daily" yaml:"daily"`
}

// WindowState is a read-only snapshot of one window.
type WindowState struct {
	Kind    WindowKind    `json:"kind"`
	Count   int           `json:"count"`
	Limit   int           `json:"limit"`
	ResetIn time.Duration `json:"reset_in"`
}

// window is one counting window. Count is monotonically non-decreasing
// within a window and only returns to zero on rollover.
type window struct {
	kind  WindowKind
	start time.Time
	count int
	limit int
}

// Quota tracks invocation counts in fixed hourly/daily windows. Safe for
// concurrent use; all state is process-local by design (each process
// enforces its own quota).
type Quota struct {
	mu      sync.Mutex
	windows []*window
	now     func() time.Time
	logger  *zap.Logger
}

// New creates a quota from the given limits. now is injectable for tests;
// nil means time.Now.
func New(limits Limits, now func() time.Time, logger *zap.Logger) *Quota {
	if now == nil {
		now = time.Now
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	q := &Quota{now: now, logger: logger.With(zap.String("component", "invocation_quota"))}
	t := now()
	if limits.Hourly > 0 {
		q.windows = append(q.windows, &window{kind: WindowHourly, start: t, limit: limits.Hourly})
	}
	if limits.Daily > 0 {
		q.windows = append(q.windows, &window{kind: WindowDaily, start: t, limit: limits.Daily})
	}
	return q
}

// rollover resets any window whose boundary has passed. Caller holds mu.
func (q *Quota) rollover(t time.Time) {
	for _, w := range q.windows {
		if t.Sub(w.start) >= w.kind.span() {
			q.logger.Debug("quota window rolled over",
				zap.String("window", string(w.kind)),
				zap.Int("previous_count", w.count),
			)
			w.start = t
			w.count = 0
		}
	}
}

// MayInvoke reports whether all configured windows are open. The tightest
// constraint wins: one exhausted window denies the call.
func (q *Quota) MayInvoke() bool {
	q.mu.Lock()
	defer q.mu.Unlock()

	q.rollover(q.now())
	for _, w := range q.windows {
		if w.count >= w.limit {
			return false
		}
	}
	return true
}

// RecordInvocation increments every configured window simultaneously. Call
// exactly once per model call that reaches the provider, never for cache
// hits.
func (q *Quota) RecordInvocation() {
	q.mu.Lock()
	defer q.mu.Unlock()

	q.rollover(q.now())
	for _, w := range q.windows {
		w.count++
		if w.count == w.limit {
			q.logger.Info("quota window exhausted",
				zap.String("window", string(w.kind)),
				zap.Int("limit", w.limit),
				zap.Duration("reset_in", w.start.Add(w.kind.span()).Sub(q.now())),
			)
		}
	}
}

// TimeUntilReset returns the time remaining until the given window's
// boundary, for "try again in…" messages. Zero when the kind is not
// configured.
func (q *Quota) TimeUntilReset(kind WindowKind) time.Duration {
	q.mu.Lock()
	defer q.mu.Unlock()

	t := q.now()
	q.rollover(t)
	for _, w := range q.windows {
		if w.kind == kind {
			return w.start.Add(w.kind.span()).Sub(t)
		}
	}
	return 0
}

// RetryAfter returns the longest wait among exhausted windows, the moment
// the quota actually reopens. Zero when no window is exhausted.
func (q *Quota) RetryAfter() time.Duration {
	q.mu.Lock()
	defer q.mu.Unlock()

	t := q.now()
	q.rollover(t)
	var retry time.Duration
	for _, w := range q.windows {
		if w.count >= w.limit {
			if d := w.start.Add(w.kind.span()).Sub(t); d > retry {
				retry = d
			}
		}
	}
	return retry
}

// Snapshot returns the state of every configured window, for UI surfaces
// like "N calls remaining this hour".
func (q *Quota) Snapshot() []WindowState {
	q.mu.Lock()
	defer q.mu.Unlock()

	t := q.now()
	q.rollover(t)
	states := make([]WindowState, 0, len(q.windows))
	for _, w := range q.windows {
		states = append(states, WindowState{
			Kind:    w.kind,
			Count:   w.count,
			Limit:   w.limit,
			ResetIn: w.start.Add(w.kind.span()).Sub(t),
		})
	}
	return states
}
