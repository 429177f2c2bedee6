package core

// Index is a process-local, non-owning lookup table from (kind, id) to the
// node within a specific tree. It exists purely as an optimization over
// Item.FindItem for callers (mostly adapters) that perform repeated lookups
// against a tree that isn't being mutated concurrently; the tree itself
// remains the single owner of its nodes.
type Index struct {
	folders   map[string]*Item
	bookmarks map[string]*Item
}

// BuildIndex walks the subtree rooted at root (which must be the tree's
// folder) and returns a fresh Index. Called createIndex in the design notes;
// named BuildIndex here to follow normal Go exported-constructor naming.
func BuildIndex(root *Item) *Index {
	idx := &Index{
		folders:   make(map[string]*Item),
		bookmarks: make(map[string]*Item),
	}
	idx.add(root)

	return idx
}

func (idx *Index) add(it *Item) {
	if it == nil {
		return
	}

	switch it.Kind {
	case KindFolder:
		idx.folders[it.ID] = it
		for _, child := range it.Children {
			idx.add(child)
		}
	case KindBookmark:
		idx.bookmarks[it.ID] = it
	}
}

// Get returns the node of the given kind and id, or nil.
func (idx *Index) Get(kind Kind, id string) *Item {
	if idx == nil {
		return nil
	}

	if kind == KindFolder {
		return idx.folders[id]
	}

	return idx.bookmarks[id]
}

// remove drops a node's own index entry. It does not descend into removed
// folders; callers that remove a folder subtree should rebuild the index or
// call removeSubtree.
func (idx *Index) remove(it *Item) {
	if idx == nil || it == nil {
		return
	}

	if it.Kind == KindFolder {
		delete(idx.folders, it.ID)
	} else {
		delete(idx.bookmarks, it.ID)
	}
}

// removeSubtree removes a folder and every descendant from the index.
func (idx *Index) removeSubtree(it *Item) {
	if idx == nil || it == nil {
		return
	}

	idx.remove(it)

	if it.Kind == KindFolder {
		for _, child := range it.Children {
			idx.removeSubtree(child)
		}
	}
}

// insertSubtree adds a folder (or bookmark) and, for folders, every
// descendant to the index. Used after a CREATE or MOVE brings a new subtree
// under a node the index already tracks.
func (idx *Index) insertSubtree(it *Item) {
	if idx == nil {
		return
	}

	idx.add(it)
}

// --- mutation helpers used by the reconcilers (reconcile_normal.go), by
// test fakes, and by adapters constructing trees incrementally. These keep Children and
// the Index consistent with each other, per the "kept consistent by every
// mutation on the tree" invariant in the design notes. ---

// AddChild appends a child to folder's ordered children and updates idx (if
// non-nil) to include the new subtree.
func AddChild(folder, child *Item, idx *Index) {
	folder.Children = append(folder.Children, child)
	child.ParentID = folder.ID
	idx.insertSubtree(child)
}

// RemoveChild removes the child with the given kind/id from folder's
// children (preserving the order of the rest) and drops its subtree from
// idx. Returns the removed node, or nil if not found.
func RemoveChild(folder *Item, kind Kind, id string, idx *Index) *Item {
	for i, c := range folder.Children {
		if c.Kind == kind && c.ID == id {
			folder.Children = append(folder.Children[:i], folder.Children[i+1:]...)
			idx.removeSubtree(c)

			return c
		}
	}

	return nil
}

// MoveChild detaches the child with the given kind/id from its current
// parent (found via idx) and appends it to newParent's children, updating
// ParentID and the index in place.
func MoveChild(idx *Index, kind Kind, id string, newParent *Item) *Item {
	node := idx.Get(kind, id)
	if node == nil {
		return nil
	}

	oldParent := idx.Get(KindFolder, node.ParentID)
	if oldParent != nil {
		for i, c := range oldParent.Children {
			if c == node {
				oldParent.Children = append(oldParent.Children[:i], oldParent.Children[i+1:]...)

				break
			}
		}
	}

	node.ParentID = newParent.ID
	newParent.Children = append(newParent.Children, node)

	return node
}
