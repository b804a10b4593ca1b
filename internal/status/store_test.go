package status

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sequenceiq/ambari-agent/internal/agentmsg"
)

func TestAutoCreateOnFirstSetter(t *testing.T) {
	s := New()
	s.SetDesired("A", agentmsg.StateStarted)
	snap, ok := s.Get("A")
	require.True(t, ok)
	assert.Equal(t, agentmsg.StateStarted, snap.Desired)
	assert.Equal(t, agentmsg.StateUnknown, snap.Current)
}

func TestGetMissingReturnsFalse(t *testing.T) {
	s := New()
	_, ok := s.Get("nope")
	assert.False(t, ok)
}

func TestInsertionOrderPreserved(t *testing.T) {
	s := New()
	s.SetCurrent("C", agentmsg.StateInit)
	s.SetCurrent("A", agentmsg.StateInit)
	s.SetCurrent("B", agentmsg.StateInit)
	// Re-touching an existing component must not move it.
	s.SetDesired("C", agentmsg.StateStarted)
	assert.Equal(t, []string{"C", "A", "B"}, s.Names())
	assert.Equal(t, 3, s.Len())
}

func TestConverged(t *testing.T) {
	cases := []struct {
		name string
		snap Snapshot
		want bool
	}{
		{"matches, not stale", Snapshot{Current: agentmsg.StateStarted, Desired: agentmsg.StateStarted}, true},
		{"matches but stale", Snapshot{Current: agentmsg.StateStarted, Desired: agentmsg.StateStarted, StaleConfig: true}, false},
		{"mismatch", Snapshot{Current: agentmsg.StateInit, Desired: agentmsg.StateStarted}, false},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.want, tc.snap.Converged())
		})
	}
}
