// Package controller implements the recovery orchestrator: it owns the
// status table, the command cache and the rate limiter's counters behind
// one status lock, owns activeCommandCount behind a second lock, and turns
// ticks into an ordered sequence of recovery commands via RecoveryPolicy.
//
// The two locks are scoped independently because activeCommandCount is
// updated from command dispatch/completion callbacks that never need the
// status table, cache or counters, while every other mutation needs all
// three of those together to keep a status change and its cache purge
// atomic with respect to a concurrent command build.
package controller

import (
	"log/slog"
	"sync"
	"sync/atomic"
	"time"

	"github.com/sequenceiq/ambari-agent/internal/agentmsg"
	"github.com/sequenceiq/ambari-agent/internal/cmdcache"
	"github.com/sequenceiq/ambari-agent/internal/config"
	"github.com/sequenceiq/ambari-agent/internal/policy"
	"github.com/sequenceiq/ambari-agent/internal/ratelimit"
	"github.com/sequenceiq/ambari-agent/internal/status"
	"github.com/sequenceiq/ambari-agent/pkg/clock"
	"github.com/sequenceiq/ambari-agent/pkg/metrics"
)

// Controller is the single owner of the status table, command cache and
// rate limiter counters for a host's components.
type Controller struct {
	statusMu sync.Mutex
	status   *status.Store
	cache    *cmdcache.Cache
	limiter  *ratelimit.Limiter

	cfg     config.RecoveryConfig
	enabled bool
	paused  bool

	activeMu           sync.Mutex
	activeCommandCount int

	taskIDSeq atomic.Int64

	clock   clock.Clock
	log     *slog.Logger
	metrics *metrics.RecoveryMetrics
}

// New builds a Controller with recovery disabled until Configure succeeds.
// Any of c, log, m may be nil; c defaults to clock.System{}, log to
// slog.Default(), m disables instrumentation.
func New(c clock.Clock, log *slog.Logger, m *metrics.RecoveryMetrics) *Controller {
	if c == nil {
		c = clock.System{}
	}
	if log == nil {
		log = slog.Default()
	}
	ctrl := &Controller{
		status:  status.New(),
		cache:   cmdcache.New(c, log, m),
		limiter: ratelimit.New(log, m),
		clock:   c,
		log:     log,
		metrics: m,
	}
	ctrl.taskIDSeq.Store(c.NowSeconds())
	return ctrl
}

// Configure validates cfg and, on success, atomically swaps in the new
// tuning parameters. On failure recovery is disabled and the offending
// field is logged. Action counters are never reset by a (re)configuration,
// so the lifetime cap persists across reconfigurations.
func (c *Controller) Configure(cfg config.RecoveryConfig) {
	if err := cfg.Validate(); err != nil {
		c.statusMu.Lock()
		c.enabled = false
		c.statusMu.Unlock()
		c.log.Warn("recovery configuration rejected, disabling recovery", "error", err)
		return
	}

	c.statusMu.Lock()
	c.cfg = cfg
	c.enabled = cfg.Mode != agentmsg.ModeDisabled
	c.statusMu.Unlock()
}

func (c *Controller) limiterParamsLocked() ratelimit.Params {
	return ratelimit.Params{
		MaxCount:         c.cfg.MaxCount,
		WindowSec:        int64(c.cfg.WindowInMin) * 60,
		RetryGapSec:      int64(c.cfg.RetryGap) * 60,
		MaxLifetimeCount: int64(c.cfg.MaxLifetimeCount),
	}
}

// IngestStatusCommands applies a batch of STATUS_COMMAND messages. A no-op
// while recovery is disabled.
func (c *Controller) IngestStatusCommands(batch []agentmsg.StatusCommand) {
	c.statusMu.Lock()
	defer c.statusMu.Unlock()
	if !c.enabled {
		return
	}
	for _, msg := range batch {
		c.ingestOneStatusLocked(msg)
	}
}

func (c *Controller) ingestOneStatusLocked(msg agentmsg.StatusCommand) {
	name := msg.ComponentName
	c.status.SetDesired(name, msg.DesiredState)
	c.status.SetStale(name, msg.HasStaleConfigs)
	c.purgeIfConvergedLocked(name)

	if msg.PayloadLevel != agentmsg.PayloadExecutionCommand {
		return
	}
	if msg.ExecutionCommandDetails == nil {
		c.log.Warn("status command at EXECUTION_COMMAND payload level missing executionCommandDetails",
			"component", name)
		return
	}
	c.cache.Remove(name)
	c.cache.Put(name, msg.ExecutionCommandDetails)
}

// IngestExecutionCommands applies a batch of EXECUTION_COMMAND messages for
// desired-state tracking only. A no-op while recovery is disabled.
func (c *Controller) IngestExecutionCommands(batch []agentmsg.ExecutionCommand) {
	c.statusMu.Lock()
	defer c.statusMu.Unlock()
	if !c.enabled {
		return
	}
	for _, msg := range batch {
		switch msg.RoleCommand {
		case agentmsg.RoleCommandInstall:
			c.status.SetDesired(msg.Role, agentmsg.StateInstalled)
			c.purgeIfConvergedLocked(msg.Role)
		case agentmsg.RoleCommandStart:
			c.status.SetDesired(msg.Role, agentmsg.StateStarted)
			c.purgeIfConvergedLocked(msg.Role)
		}
	}
}

// UpdateCurrent records an observed lifecycle state for name.
func (c *Controller) UpdateCurrent(name string, state agentmsg.LifecycleState) {
	c.statusMu.Lock()
	defer c.statusMu.Unlock()
	c.status.SetCurrent(name, state)
	c.purgeIfConvergedLocked(name)
}

// UpdateStale records whether name's deployed configuration is stale.
func (c *Controller) UpdateStale(name string, stale bool) {
	c.statusMu.Lock()
	defer c.statusMu.Unlock()
	c.status.SetStale(name, stale)
	c.purgeIfConvergedLocked(name)
}

// purgeIfConvergedLocked drops name's cached command once its current state
// matches its desired state and its configuration is no longer stale, since
// a converged component has nothing left to execute. Must be called with
// statusMu held.
func (c *Controller) purgeIfConvergedLocked(name string) {
	snap, ok := c.status.Get(name)
	if ok && snap.Converged() {
		c.cache.Remove(name)
	}
}

// SetPaused toggles whether CollectCommands constructs commands. Paused
// components still consume no rate-limit attempts.
func (c *Controller) SetPaused(paused bool) {
	c.statusMu.Lock()
	defer c.statusMu.Unlock()
	c.paused = paused
}

// StartExecution increments the advisory active-command counter.
func (c *Controller) StartExecution() {
	c.activeMu.Lock()
	defer c.activeMu.Unlock()
	c.activeCommandCount++
}

// StopExecution decrements the advisory active-command counter.
func (c *Controller) StopExecution() {
	c.activeMu.Lock()
	defer c.activeMu.Unlock()
	if c.activeCommandCount > 0 {
		c.activeCommandCount--
	}
}

// HasActive reports whether any command is currently in flight.
func (c *Controller) HasActive() bool {
	c.activeMu.Lock()
	defer c.activeMu.Unlock()
	return c.activeCommandCount > 0
}

// CollectCommands builds the ordered sequence of recovery commands for this
// tick. Iteration order is the status table's insertion order, kept stable
// so repeated ticks over an unchanged component set produce a reproducible
// command order.
func (c *Controller) CollectCommands() []agentmsg.RecoveryCommand {
	c.statusMu.Lock()
	defer c.statusMu.Unlock()

	if !c.enabled {
		return nil
	}

	if c.metrics != nil {
		start := time.Now()
		defer func() {
			c.metrics.CollectDuration.Observe(time.Since(start).Seconds())
		}()
	}

	var out []agentmsg.RecoveryCommand
	params := c.limiterParamsLocked()
	now := c.clock.NowSeconds()

	for _, name := range c.status.Names() {
		snap, ok := c.status.Get(name)
		if !ok {
			continue
		}

		kind := policy.Decide(policy.Input{
			Mode:    c.cfg.Mode,
			Current: snap.Current,
			Desired: snap.Desired,
			Stale:   snap.StaleConfig,
		})
		if kind == policy.KindNone {
			continue
		}
		if !c.limiter.MayExecute(name, params, now) {
			continue
		}

		tmpl, ok := c.cache.Get(name)
		if !ok {
			c.log.Info("recovery command cannot be computed, details not received", "component", name)
			continue
		}
		if c.paused {
			c.log.Info("recovery is paused", "component", name)
			continue
		}

		cmd := c.buildCommandLocked(name, kind, tmpl)
		if !c.limiter.Execute(name, params, now) {
			// Execute re-checks admission with the same params and time
			// and is authoritative: if it denies, the built command is
			// discarded rather than returned.
			continue
		}
		c.bumpCollected(kind)
		out = append(out, cmd)
	}
	return out
}

func (c *Controller) bumpCollected(kind policy.Kind) {
	if c.metrics != nil {
		c.metrics.CommandsCollectedTotal.WithLabelValues(string(kind)).Inc()
	}
}

// buildCommandLocked turns an already-fetched template into a recovery
// command for kind, stamping in the role command, command type and a fresh
// task id.
func (c *Controller) buildCommandLocked(name string, kind policy.Kind, tmpl agentmsg.Template) agentmsg.RecoveryCommand {
	body := agentmsg.DeepCopy(tmpl)

	switch kind {
	case policy.KindInstall:
		body["roleCommand"] = string(agentmsg.RoleCommandInstall)
	case policy.KindStart:
		body["roleCommand"] = string(agentmsg.RoleCommandStart)
	case policy.KindRestart:
		body["roleCommand"] = string(agentmsg.RoleCommandCustom)
		agentmsg.SetNested(body, "RESTART", "hostLevelParams", "custom_command")
	}
	body["commandType"] = string(agentmsg.CommandTypeAutoExecution)
	body["taskId"] = c.nextTaskID()

	return agentmsg.RecoveryCommand{Component: name, Body: body}
}

// nextTaskID atomically increments and returns the task id sequence, seeded
// at construction from the process-start epoch second.
func (c *Controller) nextTaskID() int64 {
	return c.taskIDSeq.Add(1)
}

// ActionCounters exposes a copy of every tracked component's counter, used
// by Reporter to build its rollup.
func (c *Controller) ActionCounters() map[string]ratelimit.Counter {
	return c.limiter.All()
}

// Enabled reports whether recovery is currently enabled (mode != DISABLED).
func (c *Controller) Enabled() bool {
	c.statusMu.Lock()
	defer c.statusMu.Unlock()
	return c.enabled
}

// MaxLifetimeCount returns the currently configured lifetime cap, used by
// Reporter to compute limitReached per component.
func (c *Controller) MaxLifetimeCount() int64 {
	c.statusMu.Lock()
	defer c.statusMu.Unlock()
	return int64(c.cfg.MaxLifetimeCount)
}
