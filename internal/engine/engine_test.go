package engine

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tonimelisma/bkmsync/internal/core"
)

func newTestEngine(t *testing.T, local, server *fakeProvider, store core.MappingStore, dryRun bool) *Engine {
	t.Helper()

	cfg := Config{
		LocalProvider:  local,
		ServerProvider: server,
		Store:          store,
		LockPath:       filepath.Join(t.TempDir(), "sync.lock"),
		DryRun:         dryRun,
	}

	return New(cfg)
}

// TestRunFirstSyncMergesMatchingContent exercises the merge reconciler path:
// both sides start with independently created but logically identical
// content, and a first sync should pair it up via the merge reconciler's
// content pairing (core.ReconcileMerge) rather than
// duplicating it, ending with no actions left to apply on either side.
func TestRunFirstSyncMergesMatchingContent(t *testing.T) {
	local := newFakeProvider("l")
	server := newFakeProvider("s")

	localRoot := local.tree
	devID, err := local.CreateFolder(context.Background(), localRoot.ID, "Dev")
	require.NoError(t, err)
	_, err = local.CreateBookmark(context.Background(), devID, "Go", "https://go.dev")
	require.NoError(t, err)

	serverRoot := server.tree
	devID2, err := server.CreateFolder(context.Background(), serverRoot.ID, "Dev")
	require.NoError(t, err)
	_, err = server.CreateBookmark(context.Background(), devID2, "Go", "https://go.dev")
	require.NoError(t, err)

	store := core.NewMemoryStore()
	eng := newTestEngine(t, local, server, store, false)

	report, err := eng.Run(context.Background())
	require.NoError(t, err)

	assert.True(t, report.FirstSync)
	assert.False(t, report.DryRun)
	assert.Equal(t, 0, report.ServerTotal())
	assert.Equal(t, 0, report.LocalTotal())
	assert.Greater(t, report.PairingsRecorded, 0)

	snap := store.Snapshot().Mapping()
	_, ok := snap.LocalToServer.Folder[devID]
	assert.True(t, ok, "first sync should have paired the two Dev folders")
}

// TestRunFirstSyncCreatesOneSidedContent exercises the merge reconciler
// creating content that exists on only one side.
func TestRunFirstSyncCreatesOneSidedContent(t *testing.T) {
	local := newFakeProvider("l")
	server := newFakeProvider("s")

	devID, err := local.CreateFolder(context.Background(), local.tree.ID, "Dev")
	require.NoError(t, err)
	_, err = local.CreateBookmark(context.Background(), devID, "Go", "https://go.dev")
	require.NoError(t, err)

	store := core.NewMemoryStore()
	eng := newTestEngine(t, local, server, store, false)

	report, err := eng.Run(context.Background())
	require.NoError(t, err)

	assert.True(t, report.FirstSync)
	assert.Equal(t, 0, report.LocalTotal())
	assert.Equal(t, 2, report.ServerCreates, "the server should gain both the new folder and its bookmark")

	tree, err := server.GetTree(context.Background())
	require.NoError(t, err)
	require.Len(t, tree.Children, 1)
	assert.Equal(t, "Dev", tree.Children[0].Title)
	require.Len(t, tree.Children[0].Children, 1)
	assert.Equal(t, "https://go.dev", tree.Children[0].Children[0].URL)
}

// TestRunNormalSyncPropagatesRename exercises the normal reconciler path: a
// prior sync already paired the two trees, and a rename made locally since
// should be pushed to the server.
func TestRunNormalSyncPropagatesRename(t *testing.T) {
	local := newFakeProvider("l")
	server := newFakeProvider("s")
	store := core.NewMemoryStore()

	devID, err := local.CreateFolder(context.Background(), local.tree.ID, "Dev")
	require.NoError(t, err)
	serverDevID, err := server.CreateFolder(context.Background(), server.tree.ID, "Dev")
	require.NoError(t, err)
	require.NoError(t, store.AddMapping(core.KindFolder, devID, serverDevID))

	eng := newTestEngine(t, local, server, store, false)
	_, err = eng.Run(context.Background())
	require.NoError(t, err)

	require.NoError(t, local.UpdateFolder(context.Background(), devID, "", "Development"))

	report, err := eng.Run(context.Background())
	require.NoError(t, err)

	assert.False(t, report.FirstSync)
	assert.Equal(t, 1, report.ServerUpdates)

	tree, err := server.GetTree(context.Background())
	require.NoError(t, err)
	require.Len(t, tree.Children, 1)
	assert.Equal(t, "Development", tree.Children[0].Title)
}

// TestRunDryRunAppliesNothing asserts a dry run reports what it would do
// without mutating either provider.
func TestRunDryRunAppliesNothing(t *testing.T) {
	local := newFakeProvider("l")
	server := newFakeProvider("s")
	store := core.NewMemoryStore()

	_, err := local.CreateFolder(context.Background(), local.tree.ID, "Dev")
	require.NoError(t, err)

	eng := newTestEngine(t, local, server, store, true)
	report, err := eng.Run(context.Background())
	require.NoError(t, err)

	assert.True(t, report.DryRun)
	assert.Equal(t, 1, report.ServerCreates)

	tree, err := server.GetTree(context.Background())
	require.NoError(t, err)
	assert.Empty(t, tree.Children, "dry run must not mutate the server provider")
}

// TestRunBulkImportsLargeNewSubtree exercises the bulk-import pre-pass: a
// folder with several bookmarks, entirely new since the last sync, should be
// created through one BulkImportFolder call rather than one CreateFolder and
// one CreateBookmark per item, and every descendant should still end up
// paired in the mapping store.
func TestRunBulkImportsLargeNewSubtree(t *testing.T) {
	local := newFakeProvider("l")
	server := newFakeProvider("s")
	server.bulkSupport = true
	store := core.NewMemoryStore()

	ctx := context.Background()
	devID, err := local.CreateFolder(ctx, local.tree.ID, "Dev")
	require.NoError(t, err)
	_, err = local.CreateBookmark(ctx, devID, "Go", "https://go.dev")
	require.NoError(t, err)
	_, err = local.CreateBookmark(ctx, devID, "Rust", "https://rust-lang.org")
	require.NoError(t, err)

	eng := newTestEngine(t, local, server, store, false)
	report, err := eng.Run(ctx)
	require.NoError(t, err)

	assert.True(t, report.FirstSync)
	assert.Equal(t, 3, report.PairingsRecorded, "folder plus its two bookmarks should all be paired")

	tree, err := server.GetTree(ctx)
	require.NoError(t, err)
	require.Len(t, tree.Children, 1)
	assert.Equal(t, "Dev", tree.Children[0].Title)
	assert.Len(t, tree.Children[0].Children, 2)

	snap := store.Snapshot().Mapping()
	_, ok := snap.LocalToServer.Folder[devID]
	assert.True(t, ok)
}

// TestRunLocksAgainstConcurrentRun asserts a second Run against the same
// lock path fails while the first is still in flight.
func TestRunLocksAgainstConcurrentRun(t *testing.T) {
	local := newFakeProvider("l")
	server := newFakeProvider("s")
	store := core.NewMemoryStore()

	lockPath := filepath.Join(t.TempDir(), "sync.lock")
	release, err := acquireLock(lockPath)
	require.NoError(t, err)
	defer release()

	eng := New(Config{LocalProvider: local, ServerProvider: server, Store: store, LockPath: lockPath})
	_, err = eng.Run(context.Background())
	assert.Error(t, err)
}
