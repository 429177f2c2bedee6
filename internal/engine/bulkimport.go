package engine

import (
	"context"
	"log/slog"

	"github.com/tonimelisma/bkmsync/internal/core"
)

// findNewSubtrees walks node looking for folders that are entirely new since
// the last sync: unmapped themselves, with a mapped parent. It does not
// recurse past a match, since everything beneath an unmapped folder is new
// by definition — each match is the topmost root of one whole new subtree.
// toTarget selects the id-space direction to check, matching applySide's
// toServer flag.
func findNewSubtrees(node *core.Item, mapping core.Mapping, toTarget bool, out *[]*core.Item) {
	for _, c := range node.Children {
		if c.Kind != core.KindFolder {
			continue
		}

		if _, ok := mapping.Translate(core.KindFolder, c.ID, toTarget); !ok {
			*out = append(*out, c)

			continue
		}

		findNewSubtrees(c, mapping, toTarget, out)
	}
}

// markSubtree records every (kind, id) pair in the subtree rooted at node,
// itself included, into skip.
func markSubtree(node *core.Item, skip map[itemRef]bool) {
	skip[itemRef{node.Kind, node.ID}] = true

	for _, c := range node.Children {
		markSubtree(c, skip)
	}
}

// resolveSparse walks a tree fetched from a provider and recursively loads
// any folder that came back with Loaded=false, so callers always end up with
// a fully materialized tree before handing it to core.Scan/core.PairSubtrees.
func resolveSparse(ctx context.Context, provider core.TreeProvider, item *core.Item) error {
	if item == nil || item.Kind != core.KindFolder {
		return nil
	}

	if !item.Loaded {
		if err := provider.LoadFolderChildren(ctx, item); err != nil {
			return err
		}
	}

	for _, c := range item.Children {
		if err := resolveSparse(ctx, provider, c); err != nil {
			return err
		}
	}

	return nil
}

// bulkImportNewSubtrees looks for folders in originTree that are entirely
// new since the last sync and, when provider advertises SupportsBulkImport,
// creates each one with a single BulkImportFolder call instead of one
// CreateFolder/CreateBookmark per item. core.PairSubtrees then recovers the
// id of every descendant by fetching the freshly created subtree back and
// matching it against originTree's copy by content (title/URL), the same
// content-based matching the first-sync merge reconciler uses.
//
// It leaves plan untouched: the now-redundant CREATE actions for each
// imported subtree stay in it (so core.Reorder, which must already have run
// by the time this is called, saw them as touching their parent folder). It
// returns a refreshed mapping reflecting every pairing PairSubtrees
// recorded, and the set of (kind, id) pairs applySide must treat as already
// materialized.
func bulkImportNewSubtrees(
	ctx context.Context, provider core.TreeProvider, originTree *core.Item,
	resolveParent func(string) string, toTarget bool, mapping core.Mapping,
	store core.MappingStore, logger *slog.Logger,
) (core.Mapping, map[itemRef]bool, error) {
	skip := make(map[itemRef]bool)

	if !provider.SupportsBulkImport() {
		return mapping, skip, nil
	}

	var candidates []*core.Item
	findNewSubtrees(originTree, mapping, toTarget, &candidates)

	imported := false

	for _, cand := range candidates {
		if cand.Count() <= 1 {
			continue // a lone new folder gains nothing from batching.
		}

		parentID := resolveParent(cand.ParentID)

		newRootID, err := provider.BulkImportFolder(ctx, parentID, cand)
		if err != nil {
			logger.Warn("engine: bulk import failed, falling back to per-item create",
				slog.String("folder", cand.Title), slog.String("error", err.Error()))

			continue
		}

		fetched := &core.Item{Kind: core.KindFolder, ID: newRootID, Loaded: false}
		if err := resolveSparse(ctx, provider, fetched); err != nil {
			return mapping, skip, err
		}

		// PairSubtrees takes (local, server) in that order regardless of
		// which side this call is targeting.
		localSubtree, serverSubtree := cand, fetched
		if !toTarget {
			localSubtree, serverSubtree = fetched, cand
		}

		if err := core.PairSubtrees(localSubtree, serverSubtree, store); err != nil {
			return mapping, skip, err
		}

		markSubtree(cand, skip)

		imported = true
	}

	if !imported {
		return mapping, skip, nil
	}

	return store.Snapshot().Mapping(), skip, nil
}
