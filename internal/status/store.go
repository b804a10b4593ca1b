// Package status tracks the current/desired/stale-config tuple for every
// component the recovery manager has heard about. It is owned exclusively
// by the Controller's status lock — this package itself is not safe for
// unsynchronized concurrent use; callers must serialize access with a
// single coarse lock of their own.
package status

import "github.com/sequenceiq/ambari-agent/internal/agentmsg"

// Snapshot is a stable, independent copy of one component's status.
type Snapshot struct {
	Current     agentmsg.LifecycleState
	Desired     agentmsg.LifecycleState
	StaleConfig bool
}

// Converged reports whether the component has reached its desired state
// with fresh configuration, the point at which any cached command for it
// should be dropped.
func (s Snapshot) Converged() bool {
	return s.Current == s.Desired && !s.StaleConfig
}

type record struct {
	current     agentmsg.LifecycleState
	desired     agentmsg.LifecycleState
	staleConfig bool
}

// Store holds one record per component ever referenced, in first-reference
// order. Order is significant: command collection iterates components in
// insertion order so repeated ticks produce a reproducible command order.
//
// Store is not internally synchronized; the Controller that owns it
// provides the single status lock serializing access to it.
type Store struct {
	order   []string
	records map[string]*record
}

// New returns an empty Store.
func New() *Store {
	return &Store{records: make(map[string]*record)}
}

func (s *Store) recordFor(name string) *record {
	r, ok := s.records[name]
	if !ok {
		r = &record{}
		s.records[name] = r
		s.order = append(s.order, name)
	}
	return r
}

// SetCurrent writes the observed lifecycle state, auto-creating the record.
func (s *Store) SetCurrent(name string, state agentmsg.LifecycleState) {
	s.recordFor(name).current = state
}

// SetDesired writes the server-declared lifecycle state, auto-creating the
// record.
func (s *Store) SetDesired(name string, state agentmsg.LifecycleState) {
	s.recordFor(name).desired = state
}

// SetStale writes the stale-config flag, auto-creating the record.
func (s *Store) SetStale(name string, stale bool) {
	s.recordFor(name).staleConfig = stale
}

// Get returns a stable snapshot of name's status and whether a record
// exists for it at all.
func (s *Store) Get(name string) (Snapshot, bool) {
	r, ok := s.records[name]
	if !ok {
		return Snapshot{}, false
	}
	return Snapshot{Current: r.current, Desired: r.desired, StaleConfig: r.staleConfig}, true
}

// Names returns every known component name in first-reference (insertion)
// order.
func (s *Store) Names() []string {
	out := make([]string, len(s.order))
	copy(out, s.order)
	return out
}

// Len reports how many components have a record.
func (s *Store) Len() int {
	return len(s.order)
}
