package core

import "context"

// Reconcile runs the ordinary (non-first-sync) reconciliation pipeline from
// spec §4.3: scan each side against its last-known-synced baseline and
// resolve the two diffs with ReconcileNormal. The core keeps no separate
// snapshot of either side's prior state across runs — the *only* persistent
// cross-sync state is the mapping table (spec §3) — so each side's baseline
// is reconstructed on the fly from the *other* side's current tree,
// translated through mapping via filterMapped. A node the mapping doesn't
// yet know about behaves exactly as if it were new since the last sync,
// which is what it is.
//
// ReconcileMerge (reconcile_merge.go) calls this too, once its own phase 1
// has populated mapping for a sync that started out empty; from here the two
// paths are identical.
func Reconcile(ctx context.Context, localTree, serverTree *Item, mapping Mapping) (serverPlan, localPlan *Diff, err error) {
	localBaseline := filterMapped(serverTree, mapping, false)
	serverBaseline := filterMapped(localTree, mapping, true)

	localDiff, diffErr := Scan(ctx, ScanInput{Old: localBaseline, New: localTree, PreserveOrder: true})
	if diffErr != nil {
		return nil, nil, diffErr
	}

	serverDiff, diffErr := Scan(ctx, ScanInput{Old: serverBaseline, New: serverTree, PreserveOrder: true})
	if diffErr != nil {
		return nil, nil, diffErr
	}

	localIdx := BuildIndex(localTree)
	serverIdx := BuildIndex(serverTree)

	return ReconcileNormal(localDiff, serverDiff, mapping, localIdx, serverIdx)
}
