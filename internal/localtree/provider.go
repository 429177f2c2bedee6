package localtree

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"sync"

	"github.com/google/uuid"
	"golang.org/x/text/unicode/norm"

	"github.com/tonimelisma/bkmsync/internal/core"
)

// Provider implements core.TreeProvider over a single JSON bookmark file.
// All mutation methods read the current file, apply the change in memory
// through core's Index helpers, and rewrite the whole file — there is no
// partial update, matching the all-or-nothing shape the format allows.
//
// Every exported method that reads or writes the file takes the same lock,
// so Provider is safe for the one
// caller per sync run it's built for; it is not meant to be shared across
// concurrent runs against the same path.
type Provider struct {
	path   string
	logger *slog.Logger

	watcherFactory func() (FsWatcher, error)

	mu sync.Mutex
}

// New returns a Provider backed by the bookmark file at path. The file need
// not exist yet: GetTree reports an empty tree until the first mutation
// creates it.
func New(path string, logger *slog.Logger) *Provider {
	return &Provider{path: path, logger: logger, watcherFactory: newFsWatcher}
}

// GetTree implements core.TreeProvider. The local side never returns a
// sparse tree, so every folder comes back with Loaded=true already.
func (p *Provider) GetTree(_ context.Context) (*core.Item, error) {
	p.mu.Lock()
	defer p.mu.Unlock()

	return p.readLocked()
}

// LoadFolderChildren implements core.TreeProvider. It is a no-op: GetTree
// already returns every folder fully populated, since the whole tree lives
// in one file that's read in a single pass.
func (p *Provider) LoadFolderChildren(_ context.Context, _ *core.Item) error {
	return nil
}

// CreateFolder implements core.TreeProvider.
func (p *Provider) CreateFolder(_ context.Context, parentID, title string) (string, error) {
	p.mu.Lock()
	defer p.mu.Unlock()

	tree, idx, err := p.loadIndexed()
	if err != nil {
		return "", err
	}

	parent := idx.Get(core.KindFolder, parentID)
	if parent == nil {
		return "", fmt.Errorf("localtree: create folder under %s: %w", parentID, ErrNotFound)
	}

	id := uuid.New().String()
	child := core.NewFolder(id, parentID, norm.NFC.String(title))
	core.AddChild(parent, child, idx)

	if err := p.writeLocked(tree); err != nil {
		return "", err
	}

	return id, nil
}

// UpdateFolder implements core.TreeProvider. Besides renaming, a parentID
// that differs from the folder's current parent relocates it there — this is
// how the engine applies a MOVE action, since the wire format has no
// separate move verb.
func (p *Provider) UpdateFolder(_ context.Context, id, parentID, title string) error {
	p.mu.Lock()
	defer p.mu.Unlock()

	tree, idx, err := p.loadIndexed()
	if err != nil {
		return err
	}

	folder := idx.Get(core.KindFolder, id)
	if folder == nil {
		return fmt.Errorf("localtree: update folder %s: %w", id, ErrNotFound)
	}

	folder.Title = norm.NFC.String(title)

	if parentID != "" && parentID != folder.ParentID {
		newParent := idx.Get(core.KindFolder, parentID)
		if newParent == nil {
			return fmt.Errorf("localtree: update folder %s: new parent %s: %w", id, parentID, ErrNotFound)
		}

		core.MoveChild(idx, core.KindFolder, id, newParent)
	}

	return p.writeLocked(tree)
}

// RemoveFolder implements core.TreeProvider.
func (p *Provider) RemoveFolder(_ context.Context, id string) error {
	p.mu.Lock()
	defer p.mu.Unlock()

	tree, idx, err := p.loadIndexed()
	if err != nil {
		return err
	}

	folder := idx.Get(core.KindFolder, id)
	if folder == nil {
		return fmt.Errorf("localtree: remove folder %s: %w", id, ErrNotFound)
	}

	parent := idx.Get(core.KindFolder, folder.ParentID)
	if parent == nil {
		return fmt.Errorf("localtree: remove folder %s: parent %s: %w", id, folder.ParentID, ErrNotFound)
	}

	core.RemoveChild(parent, core.KindFolder, id, idx)

	return p.writeLocked(tree)
}

// OrderFolder implements core.TreeProvider: it rearranges the named folder's
// existing children to match order, dropping nothing and inventing nothing —
// order is expected to be a permutation of the folder's current children.
func (p *Provider) OrderFolder(_ context.Context, id string, order []core.OrderEntry) error {
	p.mu.Lock()
	defer p.mu.Unlock()

	tree, idx, err := p.loadIndexed()
	if err != nil {
		return err
	}

	folder := idx.Get(core.KindFolder, id)
	if folder == nil {
		return fmt.Errorf("localtree: order folder %s: %w", id, ErrNotFound)
	}

	reordered := make([]*core.Item, 0, len(order))

	for _, entry := range order {
		for _, c := range folder.Children {
			if c.Kind == entry.Kind && c.ID == entry.ID {
				reordered = append(reordered, c)

				break
			}
		}
	}

	folder.Children = reordered

	return p.writeLocked(tree)
}

// CreateBookmark implements core.TreeProvider.
func (p *Provider) CreateBookmark(_ context.Context, parentID, title, url string) (string, error) {
	p.mu.Lock()
	defer p.mu.Unlock()

	tree, idx, err := p.loadIndexed()
	if err != nil {
		return "", err
	}

	parent := idx.Get(core.KindFolder, parentID)
	if parent == nil {
		return "", fmt.Errorf("localtree: create bookmark under %s: %w", parentID, ErrNotFound)
	}

	id := uuid.New().String()
	child := core.NewBookmark(id, parentID, norm.NFC.String(title), url)
	core.AddChild(parent, child, idx)

	if err := p.writeLocked(tree); err != nil {
		return "", err
	}

	return id, nil
}

// UpdateBookmark implements core.TreeProvider. A parentID that differs from
// the bookmark's current parent relocates it there (see UpdateFolder). The
// local provider's ids are plain UUIDs, not parent-derived, so the returned
// id is always the same one passed in.
func (p *Provider) UpdateBookmark(_ context.Context, id, parentID, title, url string) (string, error) {
	p.mu.Lock()
	defer p.mu.Unlock()

	tree, idx, err := p.loadIndexed()
	if err != nil {
		return "", err
	}

	bookmark := idx.Get(core.KindBookmark, id)
	if bookmark == nil {
		return "", fmt.Errorf("localtree: update bookmark %s: %w", id, ErrNotFound)
	}

	bookmark.Title = norm.NFC.String(title)
	bookmark.URL = url

	if parentID != "" && parentID != bookmark.ParentID {
		newParent := idx.Get(core.KindFolder, parentID)
		if newParent == nil {
			return "", fmt.Errorf("localtree: update bookmark %s: new parent %s: %w", id, parentID, ErrNotFound)
		}

		core.MoveChild(idx, core.KindBookmark, id, newParent)
	}

	if err := p.writeLocked(tree); err != nil {
		return "", err
	}

	return id, nil
}

// RemoveBookmark implements core.TreeProvider.
func (p *Provider) RemoveBookmark(_ context.Context, id string) error {
	p.mu.Lock()
	defer p.mu.Unlock()

	tree, idx, err := p.loadIndexed()
	if err != nil {
		return err
	}

	bookmark := idx.Get(core.KindBookmark, id)
	if bookmark == nil {
		return fmt.Errorf("localtree: remove bookmark %s: %w", id, ErrNotFound)
	}

	parent := idx.Get(core.KindFolder, bookmark.ParentID)
	if parent == nil {
		return fmt.Errorf("localtree: remove bookmark %s: parent %s: %w", id, bookmark.ParentID, ErrNotFound)
	}

	core.RemoveChild(parent, core.KindBookmark, id, idx)

	return p.writeLocked(tree)
}

// SupportsBulkImport implements core.TreeProvider. The local file is
// rewritten wholesale on every mutation regardless of how many items change,
// so batching a subtree import into one call buys nothing here the way it
// would against a network API with per-call overhead; the engine is left to
// drive CreateFolder/CreateBookmark one at a time instead.
func (p *Provider) SupportsBulkImport() bool {
	return false
}

// BulkImportFolder implements core.TreeProvider. It is never called while
// SupportsBulkImport reports false, but is implemented correctly in terms of
// the ordinary create methods so the interface has no unreachable method.
func (p *Provider) BulkImportFolder(ctx context.Context, parentID string, folder *core.Item) (string, error) {
	id, err := p.CreateFolder(ctx, parentID, folder.Title)
	if err != nil {
		return "", err
	}

	for _, c := range folder.Children {
		if c.Kind == core.KindFolder {
			if _, err := p.BulkImportFolder(ctx, id, c); err != nil {
				return "", err
			}

			continue
		}

		if _, err := p.CreateBookmark(ctx, id, c.Title, c.URL); err != nil {
			return "", err
		}
	}

	return id, nil
}

func (p *Provider) readLocked() (*core.Item, error) {
	data, err := os.ReadFile(p.path)
	if errors.Is(err, os.ErrNotExist) {
		return emptyRoot(), nil
	}

	if err != nil {
		return nil, &FileError{Op: "reading", Path: p.path, Err: err}
	}

	return decodeRoot(data)
}

func (p *Provider) loadIndexed() (*core.Item, *core.Index, error) {
	tree, err := p.readLocked()
	if err != nil {
		return nil, nil, err
	}

	return tree, core.BuildIndex(tree), nil
}

// writeLocked persists tree by writing to a temp file in the same directory
// and renaming over the target, so a reader (or the fsnotify watch this
// package installs on the directory) never observes a half-written file.
func (p *Provider) writeLocked(tree *core.Item) error {
	data, err := encodeRoot(tree)
	if err != nil {
		return err
	}

	dir := filepath.Dir(p.path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return &FileError{Op: "creating directory for", Path: dir, Err: err}
	}

	tmp, err := os.CreateTemp(dir, ".bkmsync-local-*.tmp")
	if err != nil {
		return &FileError{Op: "creating temp file for", Path: p.path, Err: err}
	}

	tmpName := tmp.Name()

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		os.Remove(tmpName)

		return &FileError{Op: "writing", Path: tmpName, Err: err}
	}

	if err := tmp.Close(); err != nil {
		os.Remove(tmpName)

		return &FileError{Op: "closing", Path: tmpName, Err: err}
	}

	if err := os.Rename(tmpName, p.path); err != nil {
		os.Remove(tmpName)

		return &FileError{Op: "replacing", Path: p.path, Err: err}
	}

	if p.logger != nil {
		p.logger.Debug("localtree: bookmark file written", slog.String("path", p.path), slog.Int("bytes", len(data)))
	}

	return nil
}
