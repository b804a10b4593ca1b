// Package cmdcache stores the execution-command templates the server hands
// the agent for each component.
//
// Storage is a hashicorp/golang-lru/v2 cache. golang-lru/v2 itself only
// bounds the table by entry count, not by age, so a TTL is layered on top
// via an insertedAt timestamp per entry, evaluated lazily on Get rather
// than by a background sweep.
package cmdcache

import (
	"log/slog"
	"sync"

	lru "github.com/hashicorp/golang-lru/v2"

	"github.com/sequenceiq/ambari-agent/internal/agentmsg"
	"github.com/sequenceiq/ambari-agent/pkg/clock"
	"github.com/sequenceiq/ambari-agent/pkg/metrics"
)

// RefreshDelaySeconds bounds how long a cached command stays usable before
// it is treated as absent and must be re-fetched from the server.
const RefreshDelaySeconds = 600

// maxComponents bounds the underlying LRU table. A real cluster host runs a
// few dozen components at most; this is generous headroom, not a tunable.
const maxComponents = 4096

type entry struct {
	template   agentmsg.Template
	insertedAt int64
}

// Cache is a TTL-bounded, per-component store of command templates.
// Its own mutex makes it safe to share across goroutines directly, though
// the Controller normally holds it behind the same status lock as the
// status table and the rate limiter counters.
type Cache struct {
	mu      sync.Mutex
	lru     *lru.Cache[string, *entry]
	clock   clock.Clock
	log     *slog.Logger
	metrics *metrics.RecoveryMetrics
}

// New returns an empty Cache. clock and log may be nil, defaulting to
// clock.System{} and slog.Default(). m may be nil to skip instrumentation.
func New(c clock.Clock, log *slog.Logger, m *metrics.RecoveryMetrics) *Cache {
	if c == nil {
		c = clock.System{}
	}
	if log == nil {
		log = slog.Default()
	}
	backing, err := lru.New[string, *entry](maxComponents)
	if err != nil {
		// lru.New only errors on size <= 0; maxComponents is a compile-time
		// positive constant, so this is unreachable.
		panic(err)
	}
	return &Cache{lru: backing, clock: c, log: log, metrics: m}
}

// Put stores template for name, overwriting any prior entry. The template
// is deep-copied on the way in so later mutation of the caller's buffer
// cannot corrupt the cache.
func (c *Cache) Put(name string, template agentmsg.Template) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.lru.Add(name, &entry{
		template:   agentmsg.DeepCopy(template),
		insertedAt: c.clock.NowSeconds(),
	})
}

// Get returns a deep copy of name's cached template, lazily purging it
// first if its age exceeds RefreshDelaySeconds. The caller receives a copy
// so it may mutate freely.
func (c *Cache) Get(name string) (agentmsg.Template, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()

	e, ok := c.lru.Get(name)
	if !ok {
		c.bumpMiss()
		return nil, false
	}
	if age := c.clock.NowSeconds() - e.insertedAt; age > RefreshDelaySeconds {
		c.lru.Remove(name)
		c.log.Debug("purged stale cached command", "component", name, "age_sec", age)
		c.bumpMiss()
		return nil, false
	}
	c.bumpHit()
	return agentmsg.DeepCopy(e.template), true
}

func (c *Cache) bumpHit() {
	if c.metrics != nil {
		c.metrics.CacheHitsTotal.Inc()
	}
}

func (c *Cache) bumpMiss() {
	if c.metrics != nil {
		c.metrics.CacheMissesTotal.Inc()
	}
}

// Remove deletes name's cached command, if any.
func (c *Cache) Remove(name string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.lru.Remove(name)
}
