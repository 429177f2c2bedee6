package remotetree

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tonimelisma/bkmsync/internal/core"
)

func newTestProvider(t *testing.T, mux *http.ServeMux) (*Provider, *httptest.Server) {
	t.Helper()

	srv := httptest.NewServer(mux)
	t.Cleanup(srv.Close)

	client := newTestClient(t, srv)

	return New(client, nil), srv
}

func TestGetTreeDecodesSparseFolder(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("/tree", func(w http.ResponseWriter, r *http.Request) {
		json.NewEncoder(w).Encode(wireNode{
			Type: wireTypeFolder, ID: core.RootID, Loaded: true,
			Children: []*wireNode{
				{Type: wireTypeFolder, ID: "f1", Title: "Dev", ContentHash: "h1", Loaded: false},
			},
		})
	})

	p, _ := newTestProvider(t, mux)

	tree, err := p.GetTree(context.Background())
	require.NoError(t, err)
	require.Len(t, tree.Children, 1)

	folder := tree.Children[0]
	assert.False(t, folder.Loaded)
	assert.Equal(t, "h1", folder.ContentHash)
	assert.Empty(t, folder.Children)
}

func TestLoadFolderChildrenPopulatesSparseFolder(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("/folders/f1/children", func(w http.ResponseWriter, r *http.Request) {
		json.NewEncoder(w).Encode([]*wireNode{
			{Type: wireTypeBookmark, ID: "up1;f1", Title: "Go", URL: "https://go.dev", Loaded: true},
		})
	})

	p, _ := newTestProvider(t, mux)

	folder := &core.Item{Kind: core.KindFolder, ID: "f1", Loaded: false, ContentHash: "h1"}
	require.NoError(t, p.LoadFolderChildren(context.Background(), folder))

	assert.True(t, folder.Loaded)
	require.Len(t, folder.Children, 1)
	assert.Equal(t, "up1;f1", folder.Children[0].ID)
	assert.Equal(t, "f1", folder.Children[0].ParentID)
}

func TestCreateBookmarkReturnsCompositeIDUsableForUpdateAndRemove(t *testing.T) {
	var updatedPath, removedPath string

	mux := http.NewServeMux()
	mux.HandleFunc("/folders/f1/bookmarks", func(w http.ResponseWriter, r *http.Request) {
		var req createBookmarkRequest
		require.NoError(t, json.NewDecoder(r.Body).Decode(&req))
		assert.Equal(t, "f1", req.ParentID)
		json.NewEncoder(w).Encode(idResponse{ID: "up1"})
	})
	mux.HandleFunc("/folders/f1/bookmarks/up1", func(w http.ResponseWriter, r *http.Request) {
		switch r.Method {
		case http.MethodPatch:
			updatedPath = r.URL.Path
		case http.MethodDelete:
			removedPath = r.URL.Path
		}
	})

	p, _ := newTestProvider(t, mux)
	ctx := context.Background()

	id, err := p.CreateBookmark(ctx, "f1", "Go", "https://go.dev")
	require.NoError(t, err)
	assert.Equal(t, "up1;f1", id)

	newID, err := p.UpdateBookmark(ctx, id, "f1", "Go Lang", "https://go.dev")
	require.NoError(t, err)
	assert.Equal(t, id, newID)
	assert.Equal(t, "/folders/f1/bookmarks/up1", updatedPath)

	require.NoError(t, p.RemoveBookmark(ctx, id))
	assert.Equal(t, "/folders/f1/bookmarks/up1", removedPath)
}

func TestUpdateBookmarkWithNewParentReturnsNewCompositeID(t *testing.T) {
	var decoded updateBookmarkRequest

	mux := http.NewServeMux()
	mux.HandleFunc("/folders/f1/bookmarks/up1", func(w http.ResponseWriter, r *http.Request) {
		require.NoError(t, json.NewDecoder(r.Body).Decode(&decoded))
	})

	p, _ := newTestProvider(t, mux)

	newID, err := p.UpdateBookmark(context.Background(), "up1;f1", "f2", "Go", "https://go.dev")
	require.NoError(t, err)
	assert.Equal(t, "up1;f2", newID, "a move must surface the id under the new parent, or the mapping store would keep pointing at a dead id")
	assert.Equal(t, "f2", decoded.ParentID)
}

func TestUpdateFolderWithNewParentSendsRelocation(t *testing.T) {
	var decoded updateFolderRequest

	mux := http.NewServeMux()
	mux.HandleFunc("/folders/f1", func(w http.ResponseWriter, r *http.Request) {
		require.NoError(t, json.NewDecoder(r.Body).Decode(&decoded))
	})

	p, _ := newTestProvider(t, mux)

	require.NoError(t, p.UpdateFolder(context.Background(), "f1", "f2", "Renamed"))
	assert.Equal(t, "f2", decoded.ParentID)
	assert.Equal(t, "Renamed", decoded.Title)
}

func TestUpdateBookmarkWithNonCompositeIDFails(t *testing.T) {
	p, _ := newTestProvider(t, http.NewServeMux())

	_, err := p.UpdateBookmark(context.Background(), "not-composite", "f1", "Title", "https://example.com")
	require.Error(t, err)
}

func TestOrderFolderSendsKindAndIDPairs(t *testing.T) {
	var decoded orderFolderRequest

	mux := http.NewServeMux()
	mux.HandleFunc("/folders/f1/order", func(w http.ResponseWriter, r *http.Request) {
		require.NoError(t, json.NewDecoder(r.Body).Decode(&decoded))
	})

	p, _ := newTestProvider(t, mux)

	err := p.OrderFolder(context.Background(), "f1", []core.OrderEntry{
		{Kind: core.KindFolder, ID: "f2"},
		{Kind: core.KindBookmark, ID: "up1;f1"},
	})
	require.NoError(t, err)

	require.Len(t, decoded.Order, 2)
	assert.Equal(t, wireTypeFolder, decoded.Order[0].Kind)
	assert.Equal(t, wireTypeBookmark, decoded.Order[1].Kind)
}

func TestSupportsBulkImportCachesOptionsProbe(t *testing.T) {
	var probes int

	mux := http.NewServeMux()
	mux.HandleFunc("/bulk-import", func(w http.ResponseWriter, r *http.Request) {
		probes++
		w.WriteHeader(http.StatusNoContent)
	})

	p, _ := newTestProvider(t, mux)

	assert.True(t, p.SupportsBulkImport())
	assert.True(t, p.SupportsBulkImport())
	assert.Equal(t, 1, probes, "the OPTIONS probe result should be cached after the first call")
}

func TestSupportsBulkImportFalseWhenServerDoesNotAdvertiseIt(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("/bulk-import", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNotFound)
	})

	p, _ := newTestProvider(t, mux)

	assert.False(t, p.SupportsBulkImport())
}

func TestBulkImportFolderRejectsOversizedSubtree(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("/bulk-import", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNoContent)
	})

	p, _ := newTestProvider(t, mux)

	huge := core.NewFolder("src", "", "Huge")
	for i := 0; i < bulkImportItemLimit+1; i++ {
		huge.Children = append(huge.Children, core.NewBookmark("b", "src", "x", "https://example.com"))
	}

	_, err := p.BulkImportFolder(context.Background(), core.RootID, huge)
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrBulkImportTooLarge)
}

func TestBulkImportFolderUnsupportedReturnsSentinel(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("/bulk-import", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNotFound)
	})

	p, _ := newTestProvider(t, mux)

	small := core.NewFolder("src", "", "Small")
	_, err := p.BulkImportFolder(context.Background(), core.RootID, small)
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrBulkImportUnsupported)
}
