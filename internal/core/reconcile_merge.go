package core

import "context"

// ReconcileMerge implements the first-sync merge reconciler from spec §4.4.
// It runs when the mapping snapshot is empty (mapping.Empty()) — there is no
// prior correspondence between the two trees at all, so matching can't rely
// on shared ids.
//
// Phase 1 runs a bidirectional candidate search over BOTH trees in full —
// not scoped to siblings under an already-matched parent, since the two
// sides may be organized under entirely different folder structures before
// their first sync (spec: "persist all accepted pairings into the mapping
// store before reconciling"). A folder pairing (by title) and a bookmark
// pairing (by URL) many folders apart are both found this way; Scan's own
// structural recursion only ever compares children of a parent pair that
// already matched, which would miss exactly that case.
//
// Phase 2 is exactly what Reconcile (reconcile.go) does for an ordinary,
// already-mapped sync: rebuild each side's last-known-synced baseline out of
// the mapping (here, the pairings phase 1 just recorded) via filterMapped,
// and hand the two resulting diffs to ReconcileNormal. A mapped item that
// phase 1 paired now compares correctly (translated into a common id space,
// and relocated if the pairing crosses differently-placed parents), a
// CREATE/CREATE residual inside a newly paired folder (SPEC_FULL.md §4.9)
// falls naturally out of the same matched-by-id/only-one-side classification
// Scan already does, and genuinely one-sided items become CREATE.
func ReconcileMerge(ctx context.Context, localTree, serverTree *Item, store MappingStore) (serverPlan, localPlan *Diff, err error) {
	if pairErr := pairAll(localTree, serverTree, store); pairErr != nil {
		return nil, nil, pairErr
	}

	mapping := store.Snapshot().Mapping()

	return Reconcile(ctx, localTree, serverTree, mapping)
}

// pairAll walks both trees in full (pre-order, root excluded) and greedily
// pairs each local item with the first unconsumed server item of the same
// kind that CanMergeWith accepts, recording every accepted pair into store.
// Root is excluded deliberately: it is paired by convention (both sides
// share RootID), never by content, and an empty-titled root folder would
// otherwise spuriously satisfy the folder CanMergeWith rule.
//
// The search is global rather than scoped to siblings under an
// already-matched parent pair, because nothing yet establishes which
// folders correspond before pairing runs — that correspondence is exactly
// what this pass is discovering.
func pairAll(localTree, serverTree *Item, store MappingStore) error {
	var localItems, serverItems []*Item
	collectExceptRoot(localTree, &localItems)
	collectExceptRoot(serverTree, &serverItems)

	return greedyPair(localItems, serverItems, store)
}

// greedyPair matches each item of localItems with the first unconsumed item
// of serverItems that CanMergeWith accepts, recording every accepted pair.
// Shared by pairAll (whole-tree first-sync pairing) and PairSubtrees (pairing
// inside a subtree a caller already knows corresponds, e.g. right after a
// bulk import).
func greedyPair(localItems, serverItems []*Item, store MappingStore) error {
	consumed := make([]bool, len(serverItems))

	for _, lc := range localItems {
		for j, sc := range serverItems {
			if consumed[j] {
				continue
			}

			if !lc.CanMergeWith(sc) {
				continue
			}

			if err := store.AddMapping(lc.Kind, lc.ID, sc.ID); err != nil {
				return err
			}

			consumed[j] = true

			break
		}
	}

	return nil
}

// PairSubtrees records a's and b's roots as mapped to each other directly
// (the caller already knows they're the same logical subtree — typically
// because b was just created by a bulk import of a) and then greedily pairs
// their descendants by CanMergeWith, the same way pairAll does for a whole
// first sync. Used by internal/engine to recover per-item ids for everything
// a BulkImportFolder call created, since that call itself only returns the
// new root's id.
func PairSubtrees(a, b *Item, store MappingStore) error {
	if a == nil || b == nil {
		return nil
	}

	if err := store.AddMapping(a.Kind, a.ID, b.ID); err != nil {
		return err
	}

	var aItems, bItems []*Item
	for _, c := range a.Children {
		collectExceptRoot(c, &aItems)
	}

	for _, c := range b.Children {
		collectExceptRoot(c, &bItems)
	}

	return greedyPair(aItems, bItems, store)
}

func collectExceptRoot(it *Item, out *[]*Item) {
	if it == nil {
		return
	}

	if it.ID != RootID {
		*out = append(*out, it)
	}

	for _, child := range it.Children {
		collectExceptRoot(child, out)
	}
}

// filterMapped walks tree and rebuilds it translated through mapping in the
// given direction, keeping only nodes that have a counterpart (dropping
// unmapped nodes together with their entire subtree, including any
// descendants that are themselves mapped). The result is suitable
// as a Scan baseline against the other side's current tree, expressed in
// that side's id space.
func filterMapped(tree *Item, mapping Mapping, toServer bool) *Item {
	if tree == nil {
		return nil
	}

	id, ok := mapping.Translate(tree.Kind, tree.ID, toServer)
	if !ok && tree.ID != RootID {
		return nil
	}

	if tree.ID == RootID {
		id = RootID
	}

	out := &Item{Kind: tree.Kind, ID: id, Title: tree.Title, URL: tree.URL, Loaded: true}

	for _, child := range tree.Children {
		mappedChild := filterMapped(child, mapping, toServer)
		if mappedChild == nil {
			continue
		}

		mappedChild.ParentID = id
		out.Children = append(out.Children, mappedChild)
	}

	return out
}
