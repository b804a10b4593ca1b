// Package policy implements the recovery decision table as a pure function
// over a tagged state tuple: no dynamic dispatch, just a small switch over
// concrete enum values.
package policy

import "github.com/sequenceiq/ambari-agent/internal/agentmsg"

// Kind is the recovery action the policy selected, or KindNone.
type Kind string

const (
	KindNone    Kind = ""
	KindInstall Kind = "INSTALL"
	KindStart   Kind = "START"
	KindRestart Kind = "RESTART"
)

// Input is the tagged tuple Decide evaluates.
type Input struct {
	Mode    agentmsg.RecoveryMode
	Current agentmsg.LifecycleState
	Desired agentmsg.LifecycleState
	Stale   bool
}

// allowed reports whether (desired, current) fall within the mode's
// permitted ranges. STARTED is only a permissible current state under
// FULL mode, needed to trigger RESTART on stale config.
func allowed(mode agentmsg.RecoveryMode, desired, current agentmsg.LifecycleState) bool {
	switch mode {
	case agentmsg.ModeAutoStart:
		return desired == agentmsg.StateStarted && current == agentmsg.StateInstalled
	case agentmsg.ModeFull:
		desiredOK := desired == agentmsg.StateStarted || desired == agentmsg.StateInstalled
		currentOK := current == agentmsg.StateInit || current == agentmsg.StateInstalled || current == agentmsg.StateStarted
		return desiredOK && currentOK
	default:
		return false
	}
}

// Decide maps (current, desired, stale, mode) to at most one command kind.
func Decide(in Input) Kind {
	if !allowed(in.Mode, in.Desired, in.Current) {
		return KindNone
	}

	switch in.Mode {
	case agentmsg.ModeAutoStart:
		if in.Desired == agentmsg.StateStarted && in.Current == agentmsg.StateInstalled {
			return KindStart
		}
		return KindNone

	case agentmsg.ModeFull:
		switch {
		case in.Desired == agentmsg.StateStarted && in.Current == agentmsg.StateInstalled:
			return KindStart
		case in.Desired == agentmsg.StateStarted && in.Current == agentmsg.StateInit:
			return KindInstall
		case in.Desired == agentmsg.StateInstalled && in.Current == agentmsg.StateInit:
			return KindInstall
		case in.Desired == in.Current && in.Current == agentmsg.StateInstalled && in.Stale:
			return KindInstall
		case in.Desired == in.Current && in.Current == agentmsg.StateStarted && in.Stale:
			return KindRestart
		default:
			return KindNone
		}

	default:
		return KindNone
	}
}
