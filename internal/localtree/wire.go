// Package localtree implements core.TreeProvider over a single JSON document
// on disk: the local half of a sync pair. There is no local server to talk
// to and no sparse loading — the whole tree is always present in one file,
// read and rewritten as a unit on every mutation.
package localtree

import (
	"encoding/json"
	"fmt"

	"golang.org/x/text/unicode/norm"

	"github.com/tonimelisma/bkmsync/internal/core"
)

// wireNode is the on-disk shape of a bookmark tree node. core.Item carries
// fields (ContentHash, Loaded) that only mean something for a sparse server
// tree, so the wire format gets its own struct rather than reusing core.Item
// with json tags — core stays ignorant of how either side serializes itself.
type wireNode struct {
	Type     string      `json:"type"`
	ID       string      `json:"id"`
	Title    string      `json:"title"`
	URL      string      `json:"url,omitempty"`
	Children []*wireNode `json:"children,omitempty"`
}

const (
	wireTypeFolder   = "folder"
	wireTypeBookmark = "bookmark"
)

// decodeRoot parses a JSON document into a core.Item tree rooted at
// core.RootID. Titles are normalized to NFC on the way in, matching the
// normalization core.Item.CanMergeWith assumes of both sides.
func decodeRoot(data []byte) (*core.Item, error) {
	var w wireNode

	if err := json.Unmarshal(data, &w); err != nil {
		return nil, fmt.Errorf("localtree: decoding bookmark file: %w", err)
	}

	return fromWire("", &w), nil
}

// encodeRoot serializes tree (the RootID folder) back to its wire form.
func encodeRoot(tree *core.Item) ([]byte, error) {
	data, err := json.MarshalIndent(toWire(tree), "", "  ")
	if err != nil {
		return nil, fmt.Errorf("localtree: encoding bookmark file: %w", err)
	}

	return data, nil
}

func fromWire(parentID string, w *wireNode) *core.Item {
	if w == nil {
		return nil
	}

	title := norm.NFC.String(w.Title)

	if w.Type == wireTypeBookmark {
		return core.NewBookmark(w.ID, parentID, title, w.URL)
	}

	folder := core.NewFolder(w.ID, parentID, title)
	for _, c := range w.Children {
		folder.Children = append(folder.Children, fromWire(w.ID, c))
	}

	return folder
}

func toWire(it *core.Item) *wireNode {
	if it == nil {
		return nil
	}

	if it.Kind == core.KindBookmark {
		return &wireNode{Type: wireTypeBookmark, ID: it.ID, Title: it.Title, URL: it.URL}
	}

	w := &wireNode{Type: wireTypeFolder, ID: it.ID, Title: it.Title}
	for _, c := range it.Children {
		w.Children = append(w.Children, toWire(c))
	}

	return w
}

// emptyRoot returns the tree a brand-new, never-yet-written bookmark file
// implies: an empty root folder.
func emptyRoot() *core.Item {
	return core.NewFolder(core.RootID, "", "")
}
