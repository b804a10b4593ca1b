// Package report rolls up per-component recovery attempt counts into a
// single health summary.
package report

import (
	"sort"

	"github.com/sequenceiq/ambari-agent/internal/controller"
)

// Summary is the overall health rollup.
type Summary string

const (
	SummaryDisabled             Summary = "DISABLED"
	SummaryRecoverable          Summary = "RECOVERABLE"
	SummaryPartiallyRecoverable Summary = "PARTIALLY_RECOVERABLE"
	SummaryUnrecoverable        Summary = "UNRECOVERABLE"
)

// ComponentReport is one component's entry in a Report.
type ComponentReport struct {
	Name         string `json:"name"`
	NumAttempts  int64  `json:"numAttempts"`
	LimitReached bool   `json:"limitReached"`
}

// Report is the result of a Reporter.Snapshot call.
type Report struct {
	Summary          Summary           `json:"summary"`
	ComponentReports []ComponentReport `json:"componentReports"`
}

// Reporter snapshots a Controller's action counters into a Report.
type Reporter struct {
	ctrl *controller.Controller
}

// New returns a Reporter over ctrl.
func New(ctrl *controller.Controller) *Reporter {
	return &Reporter{ctrl: ctrl}
}

// Snapshot builds the current Report. Component order is sorted by name
// for deterministic output.
func (r *Reporter) Snapshot() Report {
	if !r.ctrl.Enabled() {
		return Report{Summary: SummaryDisabled}
	}

	maxLifetime := r.ctrl.MaxLifetimeCount()
	counters := r.ctrl.ActionCounters()

	names := make([]string, 0, len(counters))
	for name := range counters {
		names = append(names, name)
	}
	sort.Strings(names)

	reports := make([]ComponentReport, 0, len(names))
	limitReachedCount := 0
	for _, name := range names {
		counter := counters[name]
		limitReached := counter.LifetimeCount() >= maxLifetime
		if limitReached {
			limitReachedCount++
		}
		reports = append(reports, ComponentReport{
			Name:         name,
			NumAttempts:  counter.LifetimeCount(),
			LimitReached: limitReached,
		})
	}

	n := len(reports)
	var summary Summary
	switch {
	case n == 0:
		summary = SummaryRecoverable
	case limitReachedCount == 0:
		summary = SummaryRecoverable
	case limitReachedCount == n:
		summary = SummaryUnrecoverable
	default:
		summary = SummaryPartiallyRecoverable
	}

	return Report{Summary: summary, ComponentReports: reports}
}
