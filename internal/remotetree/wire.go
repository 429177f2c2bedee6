package remotetree

import (
	"fmt"
	"strings"

	"github.com/tonimelisma/bkmsync/internal/core"
)

// wireNode is the JSON shape of a tree node returned by GET /tree. A folder
// may come back sparse: Loaded false, ContentHash set, Children omitted —
// the server's way of avoiding a full recursive fetch on every sync poll
// when nothing under that folder changed since the content hash was last
// seen. LoadFolderChildren (GET /folders/{id}/children) fetches the real
// children of exactly such a folder.
type wireNode struct {
	Type        string      `json:"type"`
	ID          string      `json:"id"`
	Title       string      `json:"title"`
	URL         string      `json:"url,omitempty"`
	ContentHash string      `json:"contentHash,omitempty"`
	Loaded      bool        `json:"loaded"`
	Children    []*wireNode `json:"children,omitempty"`
}

const (
	wireTypeFolder   = "folder"
	wireTypeBookmark = "bookmark"
)

func fromWire(parentID string, w *wireNode) *core.Item {
	if w == nil {
		return nil
	}

	if w.Type == wireTypeBookmark {
		return core.NewBookmark(w.ID, parentID, w.Title, w.URL)
	}

	folder := &core.Item{
		Kind:        core.KindFolder,
		ID:          w.ID,
		ParentID:    parentID,
		Title:       w.Title,
		ContentHash: w.ContentHash,
		Loaded:      w.Loaded,
	}

	for _, c := range w.Children {
		folder.Children = append(folder.Children, fromWire(w.ID, c))
	}

	return folder
}

func toWireChildren(children []*core.Item) []*wireNode {
	if len(children) == 0 {
		return nil
	}

	out := make([]*wireNode, len(children))
	for i, c := range children {
		out[i] = toWireItem(c)
	}

	return out
}

func toWireItem(it *core.Item) *wireNode {
	if it.Kind == core.KindBookmark {
		return &wireNode{Type: wireTypeBookmark, ID: it.ID, Title: it.Title, URL: it.URL, Loaded: true}
	}

	return &wireNode{
		Type:     wireTypeFolder,
		ID:       it.ID,
		Title:    it.Title,
		Loaded:   true,
		Children: toWireChildren(it.Children),
	}
}

// idResponse is the shape returned by every create endpoint.
type idResponse struct {
	ID string `json:"id"`
}

type createFolderRequest struct {
	ParentID string `json:"parentId"`
	Title    string `json:"title"`
}

type updateFolderRequest struct {
	ParentID string `json:"parentId,omitempty"`
	Title    string `json:"title"`
}

type orderEntryWire struct {
	Kind string `json:"kind"`
	ID   string `json:"id"`
}

type orderFolderRequest struct {
	Order []orderEntryWire `json:"order"`
}

type createBookmarkRequest struct {
	ParentID string `json:"parentId"`
	Title    string `json:"title"`
	URL      string `json:"url"`
}

type updateBookmarkRequest struct {
	ParentID string `json:"parentId,omitempty"`
	Title    string `json:"title"`
	URL      string `json:"url"`
}

func kindToWire(k core.Kind) string {
	if k == core.KindFolder {
		return wireTypeFolder
	}

	return wireTypeBookmark
}

// compositeSeparator is the delimiter spec §3's example composite bookmark
// id ("upstreamId;parentId") uses. This file is the only place in the
// module that ever looks inside one: everywhere else, including
// internal/core, a bookmark id is just an opaque string (spec's Open
// Question 3 decision).
const compositeSeparator = ";"

// makeBookmarkID builds the server's composite bookmark id from the
// upstream store's own id and the parent folder id it currently lives
// under. Composing the parent into the id lets the backing store (modeled
// here, not actually built) key bookmarks by (parent, upstream-id) without
// a separate lookup table — an accepted adapter convention per spec §3/§6.
func makeBookmarkID(upstreamID, parentID string) string {
	return upstreamID + compositeSeparator + parentID
}

// splitBookmarkID reverses makeBookmarkID. It never needs to be called on a
// folder id, which has no such structure.
func splitBookmarkID(id string) (upstreamID, parentID string, err error) {
	i := strings.Index(id, compositeSeparator)
	if i < 0 {
		return "", "", fmt.Errorf("remotetree: bookmark id %q is not composite", id)
	}

	return id[:i], id[i+1:], nil
}
