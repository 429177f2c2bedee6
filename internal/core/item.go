// Package core implements the three-way bookmark-tree merge engine: diffing
// a local and a server tree against a mapping table from the last successful
// sync, and producing the two plans that reconcile them. The package knows
// nothing about HTTP, files, or SQL — it operates purely on in-memory trees
// and is exercised through the TreeProvider and MappingStore interfaces
// defined here.
package core

// Kind distinguishes the two item variants a tree can hold. There is no need
// for dynamic dispatch beyond this binary choice, so Item is a single tagged
// struct rather than an interface with two implementations.
type Kind uint8

const (
	// KindFolder is a container with an ordered sequence of children.
	KindFolder Kind = iota
	// KindBookmark is a leaf carrying a URL.
	KindBookmark
)

// String renders the kind for logging and error messages.
func (k Kind) String() string {
	switch k {
	case KindFolder:
		return "folder"
	case KindBookmark:
		return "bookmark"
	default:
		return "unknown"
	}
}

// RootID is the sentinel id of the implicit root folder. The root has no
// parent and is paired by convention between the two trees being compared.
const RootID = "-1"

// Item is a node in a bookmark tree: a Folder or a Bookmark. Ids are opaque
// strings, unique within the side (local or server) that owns the tree;
// comparisons are always string based, never numeric.
type Item struct {
	Kind     Kind
	ID       string
	ParentID string
	Title    string

	// URL is set only for bookmarks.
	URL string

	// Children holds the ordered child sequence of a folder. Nil for
	// bookmarks. Order is significant — it is what the reorder reconciler
	// (reorder.go) exists to keep synchronized.
	Children []*Item

	// ContentHash and Loaded support the sparse-loading adapter contract
	// (SPEC_FULL.md §6): a server folder may be returned with Loaded=false
	// and a ContentHash standing in for its (not yet fetched) children. The
	// scanner calls TreeProvider.LoadFolderChildren before recursing into
	// such a folder, unless checkHashes lets it skip the subtree entirely.
	ContentHash string
	Loaded      bool
}

// NewFolder constructs an empty, loaded folder.
func NewFolder(id, parentID, title string) *Item {
	return &Item{Kind: KindFolder, ID: id, ParentID: parentID, Title: title, Loaded: true}
}

// NewBookmark constructs a bookmark.
func NewBookmark(id, parentID, title, url string) *Item {
	return &Item{Kind: KindBookmark, ID: id, ParentID: parentID, Title: title, URL: url}
}

// IsFolder reports whether the item is a folder.
func (it *Item) IsFolder() bool {
	return it != nil && it.Kind == KindFolder
}

// CanMergeWith reports whether it and other should be considered the same
// logical node when they are not already related by id. Bookmarks merge on
// URL equality; folders merge on title equality. This predicate is called by
// greedyPair (reconcile_merge.go) to pair up items created independently on
// each side: for a first sync (pairAll) and for a bulk-imported subtree
// (PairSubtrees).
func (it *Item) CanMergeWith(other *Item) bool {
	if it == nil || other == nil {
		return false
	}

	if it.Kind != other.Kind {
		return false
	}

	if it.Kind == KindBookmark {
		return it.URL == other.URL
	}

	return it.Title == other.Title
}

// Clone returns a deep copy of the item and, for folders, all of its
// descendants. When withHash is true, the ContentHash/Loaded annotation is
// preserved; otherwise the clone is always treated as fully loaded, which is
// what callers want once a sparse folder's children have actually been
// populated (the hash no longer describes anything useful).
func (it *Item) Clone(withHash bool) *Item {
	if it == nil {
		return nil
	}

	clone := &Item{
		Kind:     it.Kind,
		ID:       it.ID,
		ParentID: it.ParentID,
		Title:    it.Title,
		URL:      it.URL,
	}

	if it.Kind == KindFolder {
		clone.Loaded = true
		if withHash {
			clone.ContentHash = it.ContentHash
			clone.Loaded = it.Loaded
		}

		if len(it.Children) > 0 {
			clone.Children = make([]*Item, len(it.Children))
			for i, child := range it.Children {
				clone.Children[i] = child.Clone(withHash)
			}
		}
	}

	return clone
}

// FindItem searches the subtree rooted at it (which must be a folder) for a
// node of the given kind and id, returning nil if none is found. It is a
// plain recursive walk; callers performing many lookups against a stable
// tree should build an Index instead (index.go).
func (it *Item) FindItem(kind Kind, id string) *Item {
	if it == nil || it.Kind != KindFolder {
		return nil
	}

	for _, child := range it.Children {
		if child.Kind == kind && child.ID == id {
			return child
		}

		if child.Kind == KindFolder {
			if found := child.FindItem(kind, id); found != nil {
				return found
			}
		}
	}

	return nil
}

// FindFolder is FindItem specialized to KindFolder, additionally matching
// the receiver itself.
func (it *Item) FindFolder(id string) *Item {
	if it == nil || it.Kind != KindFolder {
		return nil
	}

	if it.ID == id {
		return it
	}

	return it.FindItem(KindFolder, id)
}

// Count returns the number of items in the subtree rooted at it, including
// it itself (if non-nil). A nil item, or the conceptual absence of one,
// counts as zero.
func (it *Item) Count() int {
	if it == nil {
		return 0
	}

	n := 1
	for _, child := range it.Children {
		n += child.Count()
	}

	return n
}

// childIDs projects a folder's ordered children down to their ids; both the
// scanner and the reorder reconciler need this projection.
func childIDs(folder *Item) []string {
	if folder == nil {
		return nil
	}

	ids := make([]string, len(folder.Children))
	for i, c := range folder.Children {
		ids[i] = c.ID
	}

	return ids
}
