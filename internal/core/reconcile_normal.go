package core

import "fmt"

// itemKey identifies an action's subject in local id space, regardless of
// which side the action itself came from.
type itemKey struct {
	kind Kind
	id   string
}

// ReconcileNormal implements the normal-sync reconciler from spec §4.3. It
// takes the two diffs produced by independently scanning each side against
// the last-known-synced baseline, and produces the two plans to execute:
// serverPlan (actions to send to the server) and localPlan (actions to apply
// to the local tree). Every action is left in the id space it is destined
// for — callers get plans ready to hand to the respective TreeProvider.
//
// Conflicts — both sides touching the same mapped item — are resolved with a
// single rule: the local action wins outright and the server's conflicting
// action is dropped, regardless of the specific pair of action types
// involved. This collapses what the source material expresses as a large
// type-pair matrix into one rule, because this system's precedence policy
// doesn't vary by action-type pair the way a content-hash-aware file syncer's
// does.
//
// localIdx and serverIdx index the CURRENT trees on each side (post-scan,
// pre-apply) and are used only for hierarchy-reversal detection.
func ReconcileNormal(localDiff, serverDiff *Diff, mapping Mapping, localIdx, serverIdx *Index) (serverPlan, localPlan *Diff, err error) {
	localConflict := conflictIndex(localDiff, mapping, true)

	// REORDER never travels between plans in normal mode (spec §4.3's action
	// table — reordering is resolved separately, not as a committed action),
	// and neither does REMOVE (invariant 5, no-spurious-REMOVE: normal mode is
	// additive only, so a deletion on one side never deletes the other side's
	// copy of a still-mapped item).
	serverPlan = localDiff.Map(mapping, true, func(a Action) bool {
		return a.Type != ActionReorder && a.Type != ActionRemove
	})

	localPlan = serverDiff.Map(mapping, false, func(a Action) bool {
		if a.Type == ActionReorder || a.Type == ActionRemove {
			return false
		}

		if k, ok := subjectKey(a, mapping, false); ok {
			if _, conflicted := localConflict[k]; conflicted {
				return false // local wins: the server-originated action is dropped.
			}
		}

		return true
	})

	if err := compensateReversals(serverPlan, serverIdx); err != nil {
		return nil, nil, err
	}

	if err := dropReversals(localPlan, localIdx); err != nil {
		return nil, nil, err
	}

	return serverPlan, localPlan, nil
}

// subjectKey returns the local-space identity an action concerns, and
// whether that identity is known to be shared (mapped) between both sides.
// fromLocal indicates which space the action's own ids are already in.
func subjectKey(a Action, mapping Mapping, fromLocal bool) (itemKey, bool) {
	id := a.id()
	if id == "" {
		return itemKey{}, false
	}

	k := a.kind()

	if fromLocal {
		return itemKey{kind: k, id: id}, true
	}

	localID, ok := mapping.Translate(k, id, false)
	if !ok {
		return itemKey{}, false
	}

	return itemKey{kind: k, id: localID}, true
}

// conflictIndex returns the set of (shared) item identities touched by diff,
// keyed in local id space.
func conflictIndex(diff *Diff, mapping Mapping, fromLocal bool) map[itemKey]bool {
	out := make(map[itemKey]bool)

	for _, a := range diff.actions {
		if a.Type == ActionReorder || a.Type == ActionRemove {
			continue // REMOVE never executes in normal mode, so it confers no precedence.
		}

		if k, ok := subjectKey(a, mapping, fromLocal); ok {
			out[k] = true
		}
	}

	return out
}

// compensateReversals walks plan's MOVE actions in order and, for each one,
// checks whether moving Payload under its new parent would make the new
// parent a descendant of the moved item in idx (the current tree the plan is
// about to be applied to) — a hierarchy reversal. When found, it compensates
// by swapping the two: the new parent is relocated to the moved item's old
// position before the move is applied, which breaks the cycle. idx is
// updated in place as compensating moves are synthesized so a chain of
// reversals is handled correctly.
func compensateReversals(plan *Diff, idx *Index) error {
	if idx == nil {
		return nil
	}

	var compensated []Action

	for _, a := range plan.actions {
		if a.Type != ActionMove || a.Payload == nil {
			compensated = append(compensated, a)
			continue
		}

		movedID := a.Payload.ID
		newParentID := a.Payload.ParentID

		if !IsDescendant(idx, movedID, newParentID) {
			compensated = append(compensated, a)

			if dest := idx.Get(KindFolder, newParentID); dest != nil {
				MoveChild(idx, a.Payload.Kind, movedID, dest)
			}

			continue
		}

		movedNode := idx.Get(a.Payload.Kind, movedID)
		if movedNode == nil {
			return fmt.Errorf("%w: unknown moved item %s", ErrHierarchyReversalUnresolvable, movedID)
		}

		oldParent := idx.Get(KindFolder, movedNode.ParentID)
		if oldParent == nil {
			return fmt.Errorf("%w: cannot compensate move of %s", ErrHierarchyReversalUnresolvable, movedID)
		}

		newParent := idx.Get(KindFolder, newParentID)
		if newParent == nil {
			return fmt.Errorf("%w: unknown destination folder %s", ErrHierarchyReversalUnresolvable, newParentID)
		}

		swapOut := newParent.Clone(false)
		MoveChild(idx, KindFolder, newParentID, oldParent)
		compensated = append(compensated, Action{
			Type:    ActionMove,
			Payload: &Item{Kind: KindFolder, ID: newParentID, ParentID: oldParent.ID, Title: swapOut.Title},
			OldItem: &Item{Kind: KindFolder, ID: newParentID, ParentID: movedID},
		})

		MoveChild(idx, a.Payload.Kind, movedID, newParent)
		compensated = append(compensated, a)
	}

	plan.actions = compensated

	return nil
}

// dropReversals walks plan's MOVE actions in order and removes any whose
// execution would create a hierarchy reversal against idx (the current tree
// the plan is about to be applied to) — moving an item under a destination
// that is currently one of its own descendants. Unlike compensateReversals,
// this does not synthesize a counter-move: it is used for the local plan in
// normal-mode reconciliation, where the conflict policy is local-wins, so
// the server's reversing move is simply discarded rather than compensated
// for. idx is updated in place for the moves that are kept, so a chain of
// would-be reversals is evaluated against the tree as it would actually end
// up after the surviving moves.
func dropReversals(plan *Diff, idx *Index) error {
	if idx == nil {
		return nil
	}

	var kept []Action

	for _, a := range plan.actions {
		if a.Type != ActionMove || a.Payload == nil {
			kept = append(kept, a)
			continue
		}

		movedID := a.Payload.ID
		newParentID := a.Payload.ParentID

		if IsDescendant(idx, movedID, newParentID) {
			continue // local wins: drop the reversing move instead of compensating.
		}

		kept = append(kept, a)

		if dest := idx.Get(KindFolder, newParentID); dest != nil {
			MoveChild(idx, a.Payload.Kind, movedID, dest)
		}
	}

	plan.actions = kept

	return nil
}
