package localtree

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tonimelisma/bkmsync/internal/core"
)

func newTestProvider(t *testing.T) *Provider {
	t.Helper()

	path := filepath.Join(t.TempDir(), "bookmarks.json")

	return New(path, nil)
}

func TestGetTreeOnMissingFileReturnsEmptyRoot(t *testing.T) {
	p := newTestProvider(t)

	tree, err := p.GetTree(context.Background())
	require.NoError(t, err)
	assert.Equal(t, core.RootID, tree.ID)
	assert.Empty(t, tree.Children)
}

func TestCreateFolderThenBookmarkRoundtripsThroughFile(t *testing.T) {
	p := newTestProvider(t)
	ctx := context.Background()

	folderID, err := p.CreateFolder(ctx, core.RootID, "Dev")
	require.NoError(t, err)

	bookmarkID, err := p.CreateBookmark(ctx, folderID, "Go", "https://go.dev")
	require.NoError(t, err)

	tree, err := p.GetTree(ctx)
	require.NoError(t, err)

	require.Len(t, tree.Children, 1)
	folder := tree.Children[0]
	assert.Equal(t, folderID, folder.ID)
	assert.Equal(t, "Dev", folder.Title)
	assert.True(t, folder.Loaded)

	require.Len(t, folder.Children, 1)
	bookmark := folder.Children[0]
	assert.Equal(t, bookmarkID, bookmark.ID)
	assert.Equal(t, "Go", bookmark.Title)
	assert.Equal(t, "https://go.dev", bookmark.URL)
	assert.Equal(t, folderID, bookmark.ParentID)
}

func TestUpdateFolderRenamesInPlace(t *testing.T) {
	p := newTestProvider(t)
	ctx := context.Background()

	folderID, err := p.CreateFolder(ctx, core.RootID, "Old Name")
	require.NoError(t, err)

	require.NoError(t, p.UpdateFolder(ctx, folderID, "", "New Name"))

	tree, err := p.GetTree(ctx)
	require.NoError(t, err)
	require.Len(t, tree.Children, 1)
	assert.Equal(t, "New Name", tree.Children[0].Title)
}

func TestUpdateFolderWithNewParentRelocatesIt(t *testing.T) {
	p := newTestProvider(t)
	ctx := context.Background()

	destID, err := p.CreateFolder(ctx, core.RootID, "Dest")
	require.NoError(t, err)

	folderID, err := p.CreateFolder(ctx, core.RootID, "Movable")
	require.NoError(t, err)

	require.NoError(t, p.UpdateFolder(ctx, folderID, destID, "Movable"))

	tree, err := p.GetTree(ctx)
	require.NoError(t, err)

	dest := tree.FindFolder(destID)
	require.NotNil(t, dest)
	require.Len(t, dest.Children, 1)
	assert.Equal(t, folderID, dest.Children[0].ID)
}

func TestUpdateBookmarkWithNewParentRelocatesIt(t *testing.T) {
	p := newTestProvider(t)
	ctx := context.Background()

	destID, err := p.CreateFolder(ctx, core.RootID, "Dest")
	require.NoError(t, err)

	bookmarkID, err := p.CreateBookmark(ctx, core.RootID, "Go", "https://go.dev")
	require.NoError(t, err)

	newID, err := p.UpdateBookmark(ctx, bookmarkID, destID, "Go", "https://go.dev")
	require.NoError(t, err)
	assert.Equal(t, bookmarkID, newID, "local bookmark ids are plain UUIDs, not parent-derived")

	tree, err := p.GetTree(ctx)
	require.NoError(t, err)

	dest := tree.FindFolder(destID)
	require.NotNil(t, dest)
	require.Len(t, dest.Children, 1)
	assert.Equal(t, bookmarkID, dest.Children[0].ID)
}

func TestRemoveFolderDropsItAndDescendants(t *testing.T) {
	p := newTestProvider(t)
	ctx := context.Background()

	folderID, err := p.CreateFolder(ctx, core.RootID, "Dev")
	require.NoError(t, err)

	_, err = p.CreateBookmark(ctx, folderID, "Go", "https://go.dev")
	require.NoError(t, err)

	require.NoError(t, p.RemoveFolder(ctx, folderID))

	tree, err := p.GetTree(ctx)
	require.NoError(t, err)
	assert.Empty(t, tree.Children)
}

func TestRemoveBookmarkUnknownIDReturnsErrNotFound(t *testing.T) {
	p := newTestProvider(t)

	err := p.RemoveBookmark(context.Background(), "does-not-exist")
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestOrderFolderRearrangesExistingChildrenOnly(t *testing.T) {
	p := newTestProvider(t)
	ctx := context.Background()

	a, err := p.CreateBookmark(ctx, core.RootID, "A", "https://a.example")
	require.NoError(t, err)
	b, err := p.CreateBookmark(ctx, core.RootID, "B", "https://b.example")
	require.NoError(t, err)
	c, err := p.CreateBookmark(ctx, core.RootID, "C", "https://c.example")
	require.NoError(t, err)

	err = p.OrderFolder(ctx, core.RootID, []core.OrderEntry{
		{Kind: core.KindBookmark, ID: c},
		{Kind: core.KindBookmark, ID: a},
		{Kind: core.KindBookmark, ID: b},
	})
	require.NoError(t, err)

	tree, err := p.GetTree(ctx)
	require.NoError(t, err)
	require.Len(t, tree.Children, 3)
	assert.Equal(t, []string{c, a, b}, []string{tree.Children[0].ID, tree.Children[1].ID, tree.Children[2].ID})
}

func TestCreateFolderTitleIsNFCNormalized(t *testing.T) {
	p := newTestProvider(t)
	ctx := context.Background()

	// "e" + combining acute accent (NFD), rather than the precomposed "é" (NFC).
	decomposed := "Café"

	folderID, err := p.CreateFolder(ctx, core.RootID, decomposed)
	require.NoError(t, err)

	tree, err := p.GetTree(ctx)
	require.NoError(t, err)
	require.Len(t, tree.Children, 1)
	assert.Equal(t, folderID, tree.Children[0].ID)
	assert.Equal(t, "Café", tree.Children[0].Title)
}

func TestWriteLockedLeavesNoTempFileBehind(t *testing.T) {
	p := newTestProvider(t)
	ctx := context.Background()

	_, err := p.CreateFolder(ctx, core.RootID, "Dev")
	require.NoError(t, err)

	entries, err := os.ReadDir(filepath.Dir(p.path))
	require.NoError(t, err)

	require.Len(t, entries, 1, "only the final bookmarks.json should remain, no .tmp leftovers")
	assert.Equal(t, filepath.Base(p.path), entries[0].Name())
}

func TestBulkImportFolderCreatesWholeSubtree(t *testing.T) {
	p := newTestProvider(t)
	ctx := context.Background()

	subtree := core.NewFolder("ignored-source-id", "", "Imported")
	subtree.Children = []*core.Item{
		core.NewBookmark("ignored", "", "Example", "https://example.com"),
	}

	newID, err := p.BulkImportFolder(ctx, core.RootID, subtree)
	require.NoError(t, err)

	tree, err := p.GetTree(ctx)
	require.NoError(t, err)
	require.Len(t, tree.Children, 1)
	assert.Equal(t, newID, tree.Children[0].ID)
	assert.Equal(t, "Imported", tree.Children[0].Title)
	require.Len(t, tree.Children[0].Children, 1)
	assert.Equal(t, "Example", tree.Children[0].Children[0].Title)

	assert.False(t, p.SupportsBulkImport(), "local provider rewrites the whole file regardless, so bulk import advertises no advantage")
}
