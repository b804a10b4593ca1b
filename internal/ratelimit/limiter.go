// Package ratelimit implements per-component recovery-attempt admission
// control: a burst counter bounded by a sliding window, a retry gap between
// admitted attempts, and a hard lifetime cap.
//
// Each component gets its own counter, created lazily on first reference
// and held in a map guarded by a single mutex. The three admission rules
// (window burst, retry gap, lifetime cap), each with its own denial reason
// and one-shot warn-then-debug log de-duplication, have no equivalent in a
// generic token-bucket limiter, so they are implemented directly rather
// than delegated to one (see DESIGN.md).
package ratelimit

import (
	"log/slog"
	"sync"

	"github.com/sequenceiq/ambari-agent/pkg/metrics"
)

// Counter is one component's admission state. Its fields are exported
// read-only via snapshot accessors so Reporter and tests can observe them
// without taking the limiter's lock themselves.
type Counter struct {
	count          int
	lastAttempt    int64
	lastReset      int64
	lifetimeCount  int64
	warnedAttempt  bool
	warnedReset    bool
	warnedLifetime bool
}

// Count returns attempts admitted in the current window.
func (c Counter) Count() int { return c.count }

// LastAttempt returns the clock second of the last admitted attempt, or 0.
func (c Counter) LastAttempt() int64 { return c.lastAttempt }

// LastReset returns the clock second the current window began.
func (c Counter) LastReset() int64 { return c.lastReset }

// LifetimeCount returns total admitted attempts since process start.
func (c Counter) LifetimeCount() int64 { return c.lifetimeCount }

// Params bundles the four tunables that govern admission for one
// configuration epoch. Validated before use by the caller — see
// internal/config.
type Params struct {
	MaxCount         int
	WindowSec        int64
	RetryGapSec      int64
	MaxLifetimeCount int64
}

// Limiter enforces Params against a table of per-component Counters.
// Safe for concurrent use; callers typically hold it behind the same lock
// as the rest of a Controller's state, but Limiter's own mutex makes it
// safe standalone too.
type Limiter struct {
	mu       sync.Mutex
	counters map[string]*Counter
	log      *slog.Logger
	metrics  *metrics.RecoveryMetrics
}

// New returns a Limiter with no components yet admitted. log may be nil, in
// which case slog.Default() is used. m may be nil to disable
// instrumentation; every metrics call below is then a no-op.
func New(log *slog.Logger, m *metrics.RecoveryMetrics) *Limiter {
	if log == nil {
		log = slog.Default()
	}
	return &Limiter{
		counters: make(map[string]*Counter),
		log:      log,
		metrics:  m,
	}
}

func (l *Limiter) counterLocked(name string) *Counter {
	c, ok := l.counters[name]
	if !ok {
		c = &Counter{}
		l.counters[name] = c
	}
	return c
}

// Snapshot returns a copy of the named component's counter, auto-creating
// it (zeroed) if this is the first reference.
func (l *Limiter) Snapshot(name string) Counter {
	l.mu.Lock()
	defer l.mu.Unlock()
	return *l.counterLocked(name)
}

// All returns a copy of every counter currently tracked, keyed by
// component name. Used by Reporter to build the rollup.
func (l *Limiter) All() map[string]Counter {
	l.mu.Lock()
	defer l.mu.Unlock()
	out := make(map[string]Counter, len(l.counters))
	for name, c := range l.counters {
		out[name] = *c
	}
	return out
}

// branch identifies which of the three admission rules applies, without
// mutating anything. Shared by MayExecute and Execute so the two can never
// diverge in which rule they evaluate.
type branch int

const (
	branchDenyLifetime branch = iota
	branchRetryGap
	branchWindow
)

func selectBranch(c *Counter, p Params) branch {
	if c.lifetimeCount >= int64(p.MaxLifetimeCount) {
		return branchDenyLifetime
	}
	if c.count < p.MaxCount {
		return branchRetryGap
	}
	return branchWindow
}

// MayExecute reports whether an immediate Execute(name) would succeed. It
// mutates nothing — not even the warn-dedup flags — and auto-creates the
// counter on first reference like Execute does.
//
// When the window branch is taken and the window has elapsed, MayExecute
// returns true WITHOUT resetting the counter — only Execute resets it. A
// caller that polls MayExecute repeatedly before ever calling Execute will
// therefore keep seeing true across multiple windows.
func (l *Limiter) MayExecute(name string, p Params, now int64) bool {
	l.mu.Lock()
	defer l.mu.Unlock()
	c := l.counterLocked(name)
	switch selectBranch(c, p) {
	case branchDenyLifetime:
		return false
	case branchRetryGap:
		return c.lifetimeCount == 0 || now-c.lastAttempt > p.RetryGapSec
	case branchWindow:
		return now-c.lastReset > p.WindowSec
	default:
		return false
	}
}

// Execute attempts to admit one attempt for name, mutating its counter on
// success and emitting at most one warning per transition into a deny
// state. It auto-creates the counter on first reference.
func (l *Limiter) Execute(name string, p Params, now int64) bool {
	l.mu.Lock()
	defer l.mu.Unlock()
	c := l.counterLocked(name)

	switch selectBranch(c, p) {
	case branchDenyLifetime:
		l.warnLifetimeLocked(c, name)
		l.bumpDenied(name, metrics.DenyReasonLifetime)
		if l.metrics != nil {
			l.metrics.LifetimeCapHitsTotal.WithLabelValues(name).Inc()
		}
		return false

	case branchRetryGap:
		// The retry gap only separates admitted attempts; a counter that has
		// never admitted one is not gated by it.
		sinceLast := now - c.lastAttempt
		if c.lifetimeCount > 0 && sinceLast <= p.RetryGapSec {
			l.warnRetryGapLocked(c, name, p, sinceLast)
			l.bumpDenied(name, metrics.DenyReasonRetryGap)
			return false
		}
		c.count++
		c.lifetimeCount++
		if p.RetryGapSec > 0 {
			c.lastAttempt = now
		}
		if c.count == 1 {
			c.lastReset = now
		}
		c.warnedAttempt = false
		l.bumpAdmitted(name)
		return true

	case branchWindow:
		sinceReset := now - c.lastReset
		if sinceReset <= p.WindowSec {
			l.warnWindowLocked(c, name, p)
			l.bumpDenied(name, metrics.DenyReasonWindow)
			return false
		}
		c.count = 1
		c.lifetimeCount++
		c.lastReset = now
		if p.RetryGapSec > 0 {
			c.lastAttempt = now
		}
		c.warnedReset = false
		l.bumpAdmitted(name)
		return true

	default:
		return false
	}
}

func (l *Limiter) bumpAdmitted(name string) {
	if l.metrics != nil {
		l.metrics.AttemptsAdmittedTotal.WithLabelValues(name).Inc()
	}
}

func (l *Limiter) bumpDenied(name string, reason metrics.DenyReason) {
	if l.metrics != nil {
		l.metrics.AttemptsDeniedTotal.WithLabelValues(name, string(reason)).Inc()
	}
}

func (l *Limiter) warnRetryGapLocked(c *Counter, name string, p Params, sinceLast int64) {
	if !c.warnedAttempt {
		c.warnedAttempt = true
		l.log.Warn("retry gap has not elapsed for component, skipping recovery attempts until it does",
			"component", name, "retry_gap_sec", p.RetryGapSec, "seconds_since_last_attempt", sinceLast)
		return
	}
	l.log.Debug("retry gap has not elapsed for component",
		"component", name, "retry_gap_sec", p.RetryGapSec, "seconds_since_last_attempt", sinceLast)
}

func (l *Limiter) warnWindowLocked(c *Counter, name string, p Params) {
	if !c.warnedReset {
		c.warnedReset = true
		l.log.Warn("component reached the attempt limit for the current window, skipping until it resets",
			"component", name, "count", c.count, "window_in_min", p.WindowSec/60)
		return
	}
	l.log.Debug("component reached the attempt limit for the current window",
		"component", name, "count", c.count, "window_in_min", p.WindowSec/60)
}

func (l *Limiter) warnLifetimeLocked(c *Counter, name string) {
	if !c.warnedLifetime {
		c.warnedLifetime = true
		l.log.Warn("component reached its lifetime recovery attempt limit",
			"component", name, "lifetime_count", c.lifetimeCount)
		return
	}
	l.log.Debug("component reached its lifetime recovery attempt limit",
		"component", name, "lifetime_count", c.lifetimeCount)
}
