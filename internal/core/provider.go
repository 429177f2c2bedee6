package core

import "context"

// TreeProvider is the external-collaborator contract from spec §6,
// implemented once per side (internal/localtree.Provider,
// internal/remotetree.Provider). The core only ever sees this interface —
// it knows nothing about JSON files, HTTP, or SQL.
//
// Ids passed to and returned from a TreeProvider are opaque strings from
// core's point of view; a provider is free to encode extra structure into
// them (spec §6 notes that a server-side composite id like
// "upstreamId;parentId" is an accepted case), as long as equality and
// string comparison are all core ever needs to do with them.
type TreeProvider interface {
	// GetTree returns the full tree rooted at RootID. A server-side
	// implementation may return a sparse tree: a folder may come back with
	// Loaded=false and only a ContentHash populated for its children:
	// LoadFolderChildren must be called before Scan recurses into it.
	GetTree(ctx context.Context) (*Item, error)

	// LoadFolderChildren populates folder.Children in place for a sparse
	// folder returned by GetTree. Satisfies the FolderLoader signature
	// used by ScanInput.LoadOld/LoadNew.
	LoadFolderChildren(ctx context.Context, folder *Item) error

	// CreateFolder creates a folder named title under parentID and returns
	// its assigned id.
	CreateFolder(ctx context.Context, parentID, title string) (string, error)

	// UpdateFolder renames the folder with the given id and/or relocates it
	// under parentID. A MOVE action and a rename-only UPDATE action both
	// apply through this one method; the provider does whichever of the two
	// actually changed.
	UpdateFolder(ctx context.Context, id, parentID, title string) error

	// RemoveFolder deletes the folder with the given id and everything
	// beneath it.
	RemoveFolder(ctx context.Context, id string) error

	// OrderFolder sets the authoritative child order of the folder with
	// the given id.
	OrderFolder(ctx context.Context, id string, order []OrderEntry) error

	// CreateBookmark creates a bookmark under parentID and returns its
	// assigned id.
	CreateBookmark(ctx context.Context, parentID, title, url string) (string, error)

	// UpdateBookmark changes the title, URL, and/or parent folder of the
	// bookmark with the given id. A MOVE action and a rename/retarget-only
	// UPDATE action both apply through this one method. It returns the
	// bookmark's id after the change: a provider whose id encodes the
	// parent (spec §6's composite-id example) must return the new
	// composite id when parentID actually changed, so the caller can keep
	// the mapping table pointing at a live id instead of one that stopped
	// resolving the moment the move took effect.
	UpdateBookmark(ctx context.Context, id, parentID, title, url string) (string, error)

	// RemoveBookmark deletes the bookmark with the given id.
	RemoveBookmark(ctx context.Context, id string) error

	// SupportsBulkImport reports whether BulkImportFolder is advertised.
	// The plan executor (internal/engine) checks this before attempting a
	// bulk import; a provider that doesn't support it simply isn't called.
	SupportsBulkImport() bool

	// BulkImportFolder creates an entire subtree under parentID in one
	// call, returning the assigned id of folder's root. Only called when
	// SupportsBulkImport reports true. Implementations must reject subtrees
	// larger than their own provider-defined item count limit (spec §6)
	// rather than silently truncating.
	BulkImportFolder(ctx context.Context, parentID string, folder *Item) (string, error)
}
