package controller

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sequenceiq/ambari-agent/internal/agentmsg"
	"github.com/sequenceiq/ambari-agent/internal/config"
	"github.com/sequenceiq/ambari-agent/pkg/clock"
)

func fullConfig() config.RecoveryConfig {
	return config.RecoveryConfig{
		Mode:             agentmsg.ModeFull,
		MaxCount:         2,
		WindowInMin:      60,
		RetryGap:         5,
		MaxLifetimeCount: 3,
	}
}

func statusMsg(component string, desired agentmsg.LifecycleState, stale bool, tmpl agentmsg.Template) agentmsg.StatusCommand {
	return agentmsg.StatusCommand{
		CommandType:             agentmsg.CommandTypeStatus,
		ComponentName:           component,
		DesiredState:            desired,
		HasStaleConfigs:         stale,
		PayloadLevel:            agentmsg.PayloadExecutionCommand,
		ExecutionCommandDetails: tmpl,
	}
}

func TestInstallFromScratch(t *testing.T) {
	fc := clock.NewFake(0)
	c := New(fc, nil, nil)
	c.Configure(fullConfig())
	const t0 = int64(0) // taskIDSeq is seeded from the clock's epoch at construction

	fc.Set(0)
	c.IngestStatusCommands([]agentmsg.StatusCommand{
		statusMsg("A", agentmsg.StateInstalled, false, agentmsg.Template{"x": 1}),
	})
	fc.Set(1)
	c.UpdateCurrent("A", agentmsg.StateInit)

	fc.Set(2)
	cmds := c.CollectCommands()
	require.Len(t, cmds, 1)
	assert.Equal(t, "A", cmds[0].Component)
	assert.Equal(t, string(agentmsg.RoleCommandInstall), cmds[0].Body["roleCommand"])
	assert.Equal(t, string(agentmsg.CommandTypeAutoExecution), cmds[0].Body["commandType"])
	assert.Equal(t, t0+1, cmds[0].Body["taskId"])
	assert.Equal(t, 1, cmds[0].Body["x"])
}

func TestConvergenceClearsCache(t *testing.T) {
	fc := clock.NewFake(0)
	c := New(fc, nil, nil)
	c.Configure(fullConfig())

	c.IngestStatusCommands([]agentmsg.StatusCommand{
		statusMsg("A", agentmsg.StateInstalled, false, agentmsg.Template{"x": 1}),
	})
	c.UpdateCurrent("A", agentmsg.StateInit)
	fc.Set(2)
	require.Len(t, c.CollectCommands(), 1)

	fc.Set(3)
	c.UpdateCurrent("A", agentmsg.StateInstalled)
	_, ok := c.cache.Get("A")
	assert.False(t, ok, "converging must purge the cached command")

	fc.Set(4)
	assert.Empty(t, c.CollectCommands())
}

func TestRetryGapDenyThenAdmit(t *testing.T) {
	fc := clock.NewFake(0)
	c := New(fc, nil, nil)
	c.Configure(fullConfig())

	c.IngestStatusCommands([]agentmsg.StatusCommand{
		statusMsg("A", agentmsg.StateStarted, false, agentmsg.Template{}),
	})
	c.UpdateCurrent("A", agentmsg.StateInstalled)

	fc.Set(0)
	cmds := c.CollectCommands()
	require.Len(t, cmds, 1)
	assert.Equal(t, string(agentmsg.RoleCommandStart), cmds[0].Body["roleCommand"])

	fc.Set(60)
	assert.Empty(t, c.CollectCommands(), "retry gap (300s) has not elapsed")

	fc.Set(301)
	cmds = c.CollectCommands()
	require.Len(t, cmds, 1)
}

func TestRestartOnStaleConfig(t *testing.T) {
	fc := clock.NewFake(0)
	c := New(fc, nil, nil)
	c.Configure(fullConfig())

	c.IngestStatusCommands([]agentmsg.StatusCommand{
		statusMsg("B", agentmsg.StateStarted, true, agentmsg.Template{}),
	})
	c.UpdateCurrent("B", agentmsg.StateStarted)

	cmds := c.CollectCommands()
	require.Len(t, cmds, 1)
	assert.Equal(t, string(agentmsg.RoleCommandCustom), cmds[0].Body["roleCommand"])
	hostLevelParams, ok := cmds[0].Body["hostLevelParams"].(map[string]any)
	require.True(t, ok)
	assert.Equal(t, "RESTART", hostLevelParams["custom_command"])
}

func TestCollectCommands_DisabledReturnsEmpty(t *testing.T) {
	c := New(clock.NewFake(0), nil, nil)
	// Never configured: enabled remains false.
	c.IngestStatusCommands([]agentmsg.StatusCommand{
		statusMsg("A", agentmsg.StateStarted, false, agentmsg.Template{}),
	})
	assert.Empty(t, c.CollectCommands())
}

func TestCollectCommands_MissingTemplateSkipsComponent(t *testing.T) {
	c := New(clock.NewFake(0), nil, nil)
	c.Configure(fullConfig())

	// desiredState set without execution-command payload -> no cached template.
	c.IngestStatusCommands([]agentmsg.StatusCommand{
		{
			CommandType:   agentmsg.CommandTypeStatus,
			ComponentName: "A",
			DesiredState:  agentmsg.StateStarted,
			PayloadLevel:  agentmsg.PayloadDefault,
		},
	})
	c.UpdateCurrent("A", agentmsg.StateInstalled)

	assert.Empty(t, c.CollectCommands())
}

func TestCollectCommands_PausedSuppressesWithoutConsumingAttempt(t *testing.T) {
	fc := clock.NewFake(0)
	c := New(fc, nil, nil)
	c.Configure(fullConfig())
	c.IngestStatusCommands([]agentmsg.StatusCommand{
		statusMsg("A", agentmsg.StateStarted, false, agentmsg.Template{}),
	})
	c.UpdateCurrent("A", agentmsg.StateInstalled)

	c.SetPaused(true)
	assert.Empty(t, c.CollectCommands())

	c.SetPaused(false)
	cmds := c.CollectCommands()
	require.Len(t, cmds, 1, "pausing must not have consumed a rate-limit attempt")
}

func TestIngestStatusCommand_MissingDetailsAtExecutionLevelLogsAndSkipsCache(t *testing.T) {
	c := New(clock.NewFake(0), nil, nil)
	c.Configure(fullConfig())
	c.IngestStatusCommands([]agentmsg.StatusCommand{
		{
			CommandType:   agentmsg.CommandTypeStatus,
			ComponentName: "A",
			DesiredState:  agentmsg.StateStarted,
			PayloadLevel:  agentmsg.PayloadExecutionCommand,
			// ExecutionCommandDetails intentionally omitted.
		},
	})
	_, ok := c.cache.Get("A")
	assert.False(t, ok)
	snap, ok := c.status.Get("A")
	require.True(t, ok, "desired/stale updates from the same message must still apply")
	assert.Equal(t, agentmsg.StateStarted, snap.Desired)
}

func TestIngestExecutionCommands_UpdatesDesiredState(t *testing.T) {
	c := New(clock.NewFake(0), nil, nil)
	c.Configure(fullConfig())

	c.IngestExecutionCommands([]agentmsg.ExecutionCommand{
		{CommandType: agentmsg.CommandTypeExecution, Role: "A", RoleCommand: agentmsg.RoleCommandInstall},
	})
	snap, ok := c.status.Get("A")
	require.True(t, ok)
	assert.Equal(t, agentmsg.StateInstalled, snap.Desired)

	c.IngestExecutionCommands([]agentmsg.ExecutionCommand{
		{CommandType: agentmsg.CommandTypeExecution, Role: "A", RoleCommand: agentmsg.RoleCommandStart},
	})
	snap, _ = c.status.Get("A")
	assert.Equal(t, agentmsg.StateStarted, snap.Desired)
}

func TestActiveCommandCount(t *testing.T) {
	c := New(clock.NewFake(0), nil, nil)
	assert.False(t, c.HasActive())
	c.StartExecution()
	assert.True(t, c.HasActive())
	c.StartExecution()
	c.StopExecution()
	assert.True(t, c.HasActive())
	c.StopExecution()
	assert.False(t, c.HasActive())
	c.StopExecution() // must not go negative
	assert.False(t, c.HasActive())
}

func TestConfigure_InvalidDisablesRecovery(t *testing.T) {
	c := New(clock.NewFake(0), nil, nil)
	c.Configure(fullConfig())
	require.True(t, c.Enabled())

	bad := fullConfig()
	bad.MaxCount = 0
	c.Configure(bad)
	assert.False(t, c.Enabled())
}

func TestConfigure_DoesNotResetLifetimeCounters(t *testing.T) {
	fc := clock.NewFake(0)
	c := New(fc, nil, nil)
	c.Configure(fullConfig())
	c.IngestStatusCommands([]agentmsg.StatusCommand{
		statusMsg("A", agentmsg.StateStarted, false, agentmsg.Template{}),
	})
	c.UpdateCurrent("A", agentmsg.StateInstalled)
	require.Len(t, c.CollectCommands(), 1)

	c.Configure(fullConfig())
	counters := c.ActionCounters()
	assert.EqualValues(t, 1, counters["A"].LifetimeCount(), "reconfiguration must not reset lifetime counts")
}

func TestTaskIDsStrictlyIncreasing(t *testing.T) {
	c := New(clock.NewFake(0), nil, nil)
	a := c.nextTaskID()
	b := c.nextTaskID()
	d := c.nextTaskID()
	assert.Less(t, a, b)
	assert.Less(t, b, d)
}
