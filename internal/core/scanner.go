package core

import "context"

// MergeFunc decides whether an item only present on the "new" side and one
// only present on the "old" side should be treated as the same logical node.
// A nil MergeFunc is equivalent to one that always returns false (the normal-
// sync scan mode, spec §4.1). No reconciler in this package sets one: the
// first-sync merge reconciler pairs items itself through pairAll/greedyPair,
// which call Item.CanMergeWith directly (reconcile_merge.go).
type MergeFunc func(old, new *Item) bool

// FolderLoader populates folder.Children in place for a folder that was
// returned with Loaded=false (the sparse-loading adapter contract,
// SPEC_FULL.md §6). Scan calls it exactly once per sparse folder it needs to
// recurse into — the one suspension point per external I/O call required by
// spec §5.
type FolderLoader func(ctx context.Context, folder *Item) error

// ScanInput bundles the Scanner contract from spec §4.1.
type ScanInput struct {
	Old, New *Item

	// Merge implements the mergeFn parameter; nil disables merge matching.
	Merge MergeFunc

	// PreserveOrder, when true, makes the scan emit REORDER actions for
	// folders whose children end up in a different order than New's.
	PreserveOrder bool

	// CheckHashes, when true, skips recursion into a folder pair whose
	// ContentHash matches on both sides — safe because identical content
	// hashes imply nothing inside moved in, out, or changed.
	CheckHashes bool

	// LoadOld and LoadNew load a sparse folder's children for the
	// respective side. Either may be nil if that side is never sparse.
	LoadOld, LoadNew FolderLoader
}

// nodeRef records where an item was last seen during the scan: which folder
// (by id) it was a child of, on one particular side.
type nodeRef struct {
	item     *Item
	parentID string
}

// folderSplit is the per-folder local partition computed during the first
// (indexing) pass: children matched by id at this exact folder (handled
// immediately), versus children only present on one side locally, whose fate
// (MOVE / REMOVE / CREATE / merge-pair) can only be decided once the whole
// tree has been indexed.
type folderSplit struct {
	oldFolder, newFolder *Item
	onlyOld, onlyNew     []*Item
}

// scanner carries the mutable state of one Scan call.
type scanner struct {
	ctx  context.Context
	in   ScanInput
	diff *Diff

	// oldSeen/newSeen record every non-hash-skipped item visited on each
	// side, keyed by (kind,id), so the resolution pass can answer "does this
	// id exist anywhere on the other side" in O(1).
	oldSeen map[nodeKey]nodeRef
	newSeen map[nodeKey]nodeRef

	splits []folderSplit

	// handled prevents a MOVE pair from being emitted twice (once when
	// resolving the source folder's onlyOld set, once from the
	// destination's onlyNew set).
	handled map[nodeKey]bool
}

type nodeKey struct {
	kind Kind
	id   string
}

func key(it *Item) nodeKey { return nodeKey{kind: it.Kind, id: it.ID} }

// Scan computes the actions that transform in.Old into in.New, per spec
// §4.1. The two root folders are paired by convention regardless of their
// ids.
func Scan(ctx context.Context, in ScanInput) (*Diff, error) {
	s := &scanner{
		ctx:     ctx,
		in:      in,
		diff:    NewDiff(),
		oldSeen: make(map[nodeKey]nodeRef),
		newSeen: make(map[nodeKey]nodeRef),
		handled: make(map[nodeKey]bool),
	}

	if err := s.index(in.Old, in.New); err != nil {
		return nil, err
	}

	// Resolving a split can append further splits (a MOVE or merge-pair
	// match recurses into the matched folder's children). Index rather than
	// range so newly appended splits are picked up.
	for i := 0; i < len(s.splits); i++ {
		if err := s.resolve(s.splits[i]); err != nil {
			return nil, err
		}
	}

	for _, split := range s.splits {
		s.emitReorder(split)
	}

	return s.diff, nil
}

// index performs the first pass: walk matched-by-id folder pairs depth
// first, loading sparse folders as needed, recording every visited item in
// oldSeen/newSeen, and collecting each folder's local onlyOld/onlyNew split
// for the resolve pass. Hash-matched folder pairs are skipped entirely and
// never indexed — safe, because identical content hashes mean nothing inside
// could have moved elsewhere.
func (s *scanner) index(oldFolder, newFolder *Item) error {
	if err := s.load(oldFolder, true); err != nil {
		return err
	}

	if err := s.load(newFolder, false); err != nil {
		return err
	}

	if s.in.CheckHashes && oldFolder != nil && newFolder != nil &&
		oldFolder.ContentHash != "" && oldFolder.ContentHash == newFolder.ContentHash {
		return nil
	}

	oldChildren := childSet(oldFolder)
	newChildren := childSet(newFolder)

	split := folderSplit{oldFolder: oldFolder, newFolder: newFolder}

	for k, oc := range oldChildren {
		s.oldSeen[k] = nodeRef{item: oc, parentID: idOf(oldFolder)}

		if nc, ok := newChildren[k]; ok {
			s.newSeen[k] = nodeRef{item: nc, parentID: idOf(newFolder)}

			if oc.Kind == KindFolder {
				if err := s.index(oc, nc); err != nil {
					return err
				}
			} else if oc.Title != nc.Title || oc.URL != nc.URL {
				s.diff.Commit(Action{Type: ActionUpdate, Payload: nc.Clone(false), OldItem: oc.Clone(false)})
			}
		} else {
			split.onlyOld = append(split.onlyOld, oc)
		}
	}

	for k, nc := range newChildren {
		if _, ok := oldChildren[k]; ok {
			continue
		}

		s.newSeen[k] = nodeRef{item: nc, parentID: idOf(newFolder)}
		split.onlyNew = append(split.onlyNew, nc)
	}

	s.splits = append(s.splits, split)

	return nil
}

func idOf(folder *Item) string {
	if folder == nil {
		return ""
	}

	return folder.ID
}

func childSet(folder *Item) map[nodeKey]*Item {
	out := make(map[nodeKey]*Item, len(folder.GetChildren()))
	for _, c := range folder.GetChildren() {
		out[key(c)] = c
	}

	return out
}

// GetChildren returns it.Children, or nil for a nil receiver.
func (it *Item) GetChildren() []*Item {
	if it == nil {
		return nil
	}

	return it.Children
}

func (s *scanner) load(folder *Item, old bool) error {
	if folder == nil || folder.Kind != KindFolder || folder.Loaded {
		return nil
	}

	loader := s.in.LoadNew
	if old {
		loader = s.in.LoadOld
	}

	if loader == nil {
		return nil
	}

	if err := loader(s.ctx, folder); err != nil {
		return NewAdapterError("loadFolderChildren", err)
	}

	folder.Loaded = true

	return nil
}

// resolve decides the fate of one folder's locally-unmatched children, now
// that the whole tree has been indexed (so "does this id exist elsewhere" is
// answerable). It implements the MOVE / merge-pair / CREATE / REMOVE
// classification described in spec §4.1.
func (s *scanner) resolve(split folderSplit) error {
	consumedNew := make(map[int]bool)

	for _, oc := range split.onlyOld {
		k := key(oc)
		if s.handled[k] {
			continue
		}

		if ref, ok := s.newSeen[k]; ok && ref.parentID != idOf(split.oldFolder) {
			// Moved elsewhere. Emit once, from the source side.
			s.handled[k] = true
			s.diff.Commit(Action{
				Type:    ActionMove,
				Payload: ref.item.Clone(false),
				OldItem: oc.Clone(false),
			})

			if oc.Kind == KindFolder {
				if err := s.index(oc, ref.item); err != nil {
					return err
				}
			}

			continue
		}

		// Not found anywhere on the new side: either genuinely removed, or
		// the first-sync merge counterpart of some onlyNew sibling.
		if s.in.Merge != nil {
			matched := false

			for i, nc := range split.onlyNew {
				if consumedNew[i] || s.handled[key(nc)] {
					continue
				}

				if _, onOld := s.oldSeen[key(nc)]; onOld {
					continue // nc exists elsewhere on the old side; it's someone's MOVE target.
				}

				if s.in.Merge(oc, nc) {
					consumedNew[i] = true
					s.handled[key(nc)] = true
					s.commitMergePair(oc, nc)
					matched = true

					break
				}
			}

			if matched {
				continue
			}
		}

		s.emitRemoveSubtree(oc)
	}

	for i, nc := range split.onlyNew {
		if consumedNew[i] || s.handled[key(nc)] {
			continue
		}

		if _, onOld := s.oldSeen[key(nc)]; onOld {
			continue // already emitted as the destination of a MOVE above.
		}

		s.emitCreateSubtree(nc)
	}

	return nil
}

// commitMergePair records a MOVE (if the pairing also implies a parent
// change, which never happens for same-folder merge pairs but is checked for
// symmetry with the spec's description) and/or UPDATE for a pair joined by
// mergeFn, then recurses into their children for folders.
func (s *scanner) commitMergePair(oc, nc *Item) {
	if oc.ParentID != nc.ParentID {
		s.diff.Commit(Action{Type: ActionMove, Payload: nc.Clone(false), OldItem: oc.Clone(false)})
	}

	if oc.Title != nc.Title || oc.URL != nc.URL {
		s.diff.Commit(Action{Type: ActionUpdate, Payload: nc.Clone(false), OldItem: oc.Clone(false)})
	}

	if oc.Kind == KindFolder {
		_ = s.index(oc, nc)
	}
}

// emitCreateSubtree commits CREATE for it and, recursively, every
// descendant — parents strictly before children, matching spec's guarantee.
func (s *scanner) emitCreateSubtree(it *Item) {
	s.diff.Commit(Action{Type: ActionCreate, Payload: it.Clone(false)})

	for _, child := range it.Children {
		s.emitCreateSubtree(child)
	}
}

// emitRemoveSubtree commits REMOVE for every descendant of it before
// committing REMOVE for it itself — children strictly before parent,
// matching spec's guarantee.
func (s *scanner) emitRemoveSubtree(it *Item) {
	for _, child := range it.Children {
		s.emitRemoveSubtree(child)
	}

	s.diff.Commit(Action{Type: ActionRemove, Payload: it.Clone(false)})
}

// emitReorder commits a REORDER for split's new folder if PreserveOrder is
// set and the order the survivors/insertions would naturally end up in
// differs from newFolder's authoritative order.
func (s *scanner) emitReorder(split folderSplit) {
	if !s.in.PreserveOrder || split.newFolder == nil {
		return
	}

	desired := orderOf(split.newFolder)
	naive := s.naiveOrder(split)

	if orderEqual(desired, naive) {
		return
	}

	s.diff.Commit(Action{
		Type:    ActionReorder,
		Payload: &Item{Kind: KindFolder, ID: split.newFolder.ID, ParentID: split.newFolder.ParentID},
		Order:   desired,
	})
}

// naiveOrder predicts the child order that would result from applying every
// already-committed CREATE/MOVE/REMOVE action to this folder without any
// REORDER: survivors keep their old relative order, then newly
// created/moved-in children are appended in New's order.
func (s *scanner) naiveOrder(split folderSplit) []OrderEntry {
	newSet := make(map[nodeKey]bool)
	for _, c := range split.newFolder.GetChildren() {
		newSet[key(c)] = true
	}

	var result []OrderEntry

	for _, c := range split.oldFolder.GetChildren() {
		if newSet[key(c)] {
			result = append(result, OrderEntry{Kind: c.Kind, ID: c.ID})
		}
	}

	survivors := make(map[nodeKey]bool, len(result))
	for _, e := range result {
		survivors[nodeKey{kind: e.Kind, id: e.ID}] = true
	}

	for _, c := range split.newFolder.GetChildren() {
		if !survivors[key(c)] {
			result = append(result, OrderEntry{Kind: c.Kind, ID: c.ID})
		}
	}

	return result
}

func orderOf(folder *Item) []OrderEntry {
	out := make([]OrderEntry, len(folder.Children))
	for i, c := range folder.Children {
		out[i] = OrderEntry{Kind: c.Kind, ID: c.ID}
	}

	return out
}

func orderEqual(a, b []OrderEntry) bool {
	if len(a) != len(b) {
		return false
	}

	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}

	return true
}
