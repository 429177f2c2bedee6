package engine

import (
	"context"
	"fmt"

	"github.com/tonimelisma/bkmsync/internal/core"
)

// fakeProvider is an in-memory core.TreeProvider, used so the engine's full
// Run pipeline can be exercised end to end without a real file or HTTP
// adapter, the way the teacher's engine_integration_test.go stubs its own
// collaborators.
type fakeProvider struct {
	prefix      string
	tree        *core.Item
	next        int
	bulkSupport bool
}

func newFakeProvider(prefix string) *fakeProvider {
	return &fakeProvider{prefix: prefix, tree: core.NewFolder(core.RootID, "", "")}
}

func (p *fakeProvider) newID() string {
	p.next++

	return fmt.Sprintf("%s%d", p.prefix, p.next)
}

func (p *fakeProvider) GetTree(_ context.Context) (*core.Item, error) {
	return p.tree.Clone(true), nil
}

func (p *fakeProvider) LoadFolderChildren(_ context.Context, folder *core.Item) error {
	idx := core.BuildIndex(p.tree)

	live := idx.Get(core.KindFolder, folder.ID)
	if live == nil {
		return fmt.Errorf("fakeProvider: no such folder %s", folder.ID)
	}

	folder.Children = make([]*core.Item, len(live.Children))
	for i, c := range live.Children {
		folder.Children[i] = c.Clone(true)
	}

	folder.Loaded = true

	return nil
}

func (p *fakeProvider) CreateFolder(_ context.Context, parentID, title string) (string, error) {
	idx := core.BuildIndex(p.tree)

	parent := idx.Get(core.KindFolder, parentID)
	if parent == nil {
		return "", fmt.Errorf("fakeProvider: no such folder %s", parentID)
	}

	id := p.newID()
	core.AddChild(parent, core.NewFolder(id, parentID, title), idx)

	return id, nil
}

func (p *fakeProvider) UpdateFolder(_ context.Context, id, parentID, title string) error {
	idx := core.BuildIndex(p.tree)

	f := idx.Get(core.KindFolder, id)
	if f == nil {
		return fmt.Errorf("fakeProvider: no such folder %s", id)
	}

	f.Title = title

	if parentID != "" && parentID != f.ParentID {
		newParent := idx.Get(core.KindFolder, parentID)
		if newParent == nil {
			return fmt.Errorf("fakeProvider: no such folder %s", parentID)
		}

		core.MoveChild(idx, core.KindFolder, id, newParent)
	}

	return nil
}

func (p *fakeProvider) RemoveFolder(_ context.Context, id string) error {
	idx := core.BuildIndex(p.tree)

	f := idx.Get(core.KindFolder, id)
	if f == nil {
		return fmt.Errorf("fakeProvider: no such folder %s", id)
	}

	parent := idx.Get(core.KindFolder, f.ParentID)
	core.RemoveChild(parent, core.KindFolder, id, idx)

	return nil
}

func (p *fakeProvider) OrderFolder(_ context.Context, id string, order []core.OrderEntry) error {
	idx := core.BuildIndex(p.tree)

	f := idx.Get(core.KindFolder, id)
	if f == nil {
		return fmt.Errorf("fakeProvider: no such folder %s", id)
	}

	reordered := make([]*core.Item, 0, len(order))

	for _, e := range order {
		for _, c := range f.Children {
			if c.Kind == e.Kind && c.ID == e.ID {
				reordered = append(reordered, c)

				break
			}
		}
	}

	f.Children = reordered

	return nil
}

func (p *fakeProvider) CreateBookmark(_ context.Context, parentID, title, url string) (string, error) {
	idx := core.BuildIndex(p.tree)

	parent := idx.Get(core.KindFolder, parentID)
	if parent == nil {
		return "", fmt.Errorf("fakeProvider: no such folder %s", parentID)
	}

	id := p.newID()
	core.AddChild(parent, core.NewBookmark(id, parentID, title, url), idx)

	return id, nil
}

func (p *fakeProvider) UpdateBookmark(_ context.Context, id, parentID, title, url string) (string, error) {
	idx := core.BuildIndex(p.tree)

	b := idx.Get(core.KindBookmark, id)
	if b == nil {
		return "", fmt.Errorf("fakeProvider: no such bookmark %s", id)
	}

	b.Title = title
	b.URL = url

	if parentID != "" && parentID != b.ParentID {
		newParent := idx.Get(core.KindFolder, parentID)
		if newParent == nil {
			return "", fmt.Errorf("fakeProvider: no such folder %s", parentID)
		}

		core.MoveChild(idx, core.KindBookmark, id, newParent)
	}

	return id, nil
}

func (p *fakeProvider) RemoveBookmark(_ context.Context, id string) error {
	idx := core.BuildIndex(p.tree)

	b := idx.Get(core.KindBookmark, id)
	if b == nil {
		return fmt.Errorf("fakeProvider: no such bookmark %s", id)
	}

	parent := idx.Get(core.KindFolder, b.ParentID)
	core.RemoveChild(parent, core.KindBookmark, id, idx)

	return nil
}

func (p *fakeProvider) SupportsBulkImport() bool {
	return p.bulkSupport
}

func (p *fakeProvider) BulkImportFolder(_ context.Context, parentID string, folder *core.Item) (string, error) {
	idx := core.BuildIndex(p.tree)

	parent := idx.Get(core.KindFolder, parentID)
	if parent == nil {
		return "", fmt.Errorf("fakeProvider: no such folder %s", parentID)
	}

	clone := p.cloneWithNewIDs(folder, parentID)
	core.AddChild(parent, clone, idx)

	return clone.ID, nil
}

// cloneWithNewIDs rebuilds folder under newParentID with freshly assigned
// ids throughout, mirroring what a real bulk-import endpoint would persist.
func (p *fakeProvider) cloneWithNewIDs(folder *core.Item, newParentID string) *core.Item {
	id := p.newID()

	var clone *core.Item
	if folder.Kind == core.KindBookmark {
		clone = core.NewBookmark(id, newParentID, folder.Title, folder.URL)

		return clone
	}

	clone = core.NewFolder(id, newParentID, folder.Title)
	for _, c := range folder.Children {
		clone.Children = append(clone.Children, p.cloneWithNewIDs(c, id))
	}

	return clone
}
