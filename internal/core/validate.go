package core

import "fmt"

// Validate walks the tree rooted at root (whose id must be RootID and
// parent must be empty) and confirms the invariants from spec §3: acyclic,
// parent-pointer agreement, and unique ids within each kind. It returns
// ErrInconsistentTree, wrapped with detail, on the first violation found.
func Validate(root *Item) error {
	if root == nil {
		return fmt.Errorf("%w: nil root", ErrInconsistentTree)
	}

	if root.Kind != KindFolder {
		return fmt.Errorf("%w: root is not a folder", ErrInconsistentTree)
	}

	seenFolders := map[string]bool{root.ID: true}
	seenBookmarks := map[string]bool{}

	return validateChildren(root, seenFolders, seenBookmarks)
}

func validateChildren(folder *Item, seenFolders, seenBookmarks map[string]bool) error {
	for _, child := range folder.Children {
		if child == nil {
			return fmt.Errorf("%w: nil child under folder %s", ErrInconsistentTree, folder.ID)
		}

		if child.ParentID != folder.ID {
			return fmt.Errorf("%w: item %s has parentId %s but lives under folder %s",
				ErrInconsistentTree, child.ID, child.ParentID, folder.ID)
		}

		switch child.Kind {
		case KindFolder:
			if seenFolders[child.ID] {
				return fmt.Errorf("%w: duplicate folder id %s (cycle or duplicate)", ErrInconsistentTree, child.ID)
			}

			seenFolders[child.ID] = true

			if err := validateChildren(child, seenFolders, seenBookmarks); err != nil {
				return err
			}
		case KindBookmark:
			if seenBookmarks[child.ID] {
				return fmt.Errorf("%w: duplicate bookmark id %s", ErrInconsistentTree, child.ID)
			}

			seenBookmarks[child.ID] = true
		}
	}

	return nil
}

// IsDescendant reports whether candidate is a (possibly indirect) descendant
// of ancestor within the tree represented by idx. Used by the
// hierarchy-reversal detector (reconcile_normal.go), which must answer this
// question without recursing into owned references — it walks parent
// pointers through the index instead, which is safe even for trees that (by
// construction, mid-reconciliation) might not be fully consistent yet.
func IsDescendant(idx *Index, ancestorID, candidateID string) bool {
	if idx == nil || ancestorID == "" || candidateID == "" {
		return false
	}

	id := candidateID
	// Bound the walk by the number of folders known to the index so a stray
	// cycle in malformed input can't loop forever.
	for range idx.folders {
		if id == ancestorID {
			return true
		}

		node := idx.Get(KindFolder, id)
		if node == nil || node.ID == RootID {
			return false
		}

		id = node.ParentID
	}

	return id == ancestorID
}
