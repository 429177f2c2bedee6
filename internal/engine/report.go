package engine

import (
	"time"

	"github.com/tonimelisma/bkmsync/internal/core"
)

// Report summarizes one sync run. It carries raw counts and a duration;
// sync.go renders it, as text or JSON, rather than formatting it here, matching the teacher's separation between
// SyncReport (internal/sync) and its CLI-side rendering in format.go.
type Report struct {
	FirstSync bool
	DryRun    bool
	Duration  time.Duration

	ServerCreates  int
	ServerUpdates  int
	ServerMoves    int
	ServerRemoves  int
	ServerReorders int

	LocalCreates  int
	LocalUpdates  int
	LocalMoves    int
	LocalRemoves  int
	LocalReorders int

	PairingsRecorded int
}

// Empty reports whether the run found nothing to do on either side.
func (r *Report) Empty() bool {
	return r.ServerTotal()+r.LocalTotal() == 0
}

// ServerTotal is the number of actions sent to (or, in dry-run, planned
// for) the server.
func (r *Report) ServerTotal() int {
	return r.ServerCreates + r.ServerUpdates + r.ServerMoves + r.ServerRemoves + r.ServerReorders
}

// LocalTotal is the number of actions applied to (or planned for) the
// local tree.
func (r *Report) LocalTotal() int {
	return r.LocalCreates + r.LocalUpdates + r.LocalMoves + r.LocalRemoves + r.LocalReorders
}

func countPlan(plan *core.Diff) (creates, updates, moves, removes, reorders int) {
	if plan == nil {
		return 0, 0, 0, 0, 0
	}

	for _, a := range plan.GetActions() {
		switch a.Type {
		case core.ActionCreate:
			creates++
		case core.ActionUpdate:
			updates++
		case core.ActionMove:
			moves++
		case core.ActionRemove:
			removes++
		case core.ActionReorder:
			reorders++
		}
	}

	return creates, updates, moves, removes, reorders
}

func newReport(firstSync, dryRun bool, serverPlan, localPlan *core.Diff, pairings int) *Report {
	r := &Report{FirstSync: firstSync, DryRun: dryRun, PairingsRecorded: pairings}

	r.ServerCreates, r.ServerUpdates, r.ServerMoves, r.ServerRemoves, r.ServerReorders = countPlan(serverPlan)
	r.LocalCreates, r.LocalUpdates, r.LocalMoves, r.LocalRemoves, r.LocalReorders = countPlan(localPlan)

	return r
}
