package remotetree

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"

	"github.com/tonimelisma/bkmsync/internal/core"
)

// Provider implements core.TreeProvider over the HTTP/JSON API reached
// through a *Client. It is the only place in the module that knows the
// server represents a bookmark id as "<upstreamId>;<parentId>" (spec §3's
// example composite id) — everywhere else, including internal/core, that
// string is opaque.
type Provider struct {
	client *Client
	logger *slog.Logger

	bulkImportChecked bool
	bulkImportSupport bool
}

// New returns a Provider issuing requests through client.
func New(client *Client, logger *slog.Logger) *Provider {
	if logger == nil {
		logger = slog.Default()
	}

	return &Provider{client: client, logger: logger}
}

// GetTree implements core.TreeProvider.
func (p *Provider) GetTree(ctx context.Context) (*core.Item, error) {
	var root wireNode

	if err := p.client.doJSON(ctx, http.MethodGet, "/tree", nil, &root); err != nil {
		return nil, fmt.Errorf("remotetree: get tree: %w", err)
	}

	return fromWire("", &root), nil
}

// LoadFolderChildren implements core.TreeProvider by fetching a sparse
// folder's real children and replacing folder.Children in place.
func (p *Provider) LoadFolderChildren(ctx context.Context, folder *core.Item) error {
	var children []*wireNode

	if err := p.client.doJSON(ctx, http.MethodGet, "/folders/"+folder.ID+"/children", nil, &children); err != nil {
		return fmt.Errorf("remotetree: load children of %s: %w", folder.ID, err)
	}

	folder.Children = folder.Children[:0]
	for _, c := range children {
		folder.Children = append(folder.Children, fromWire(folder.ID, c))
	}

	folder.Loaded = true

	return nil
}

// CreateFolder implements core.TreeProvider.
func (p *Provider) CreateFolder(ctx context.Context, parentID, title string) (string, error) {
	var resp idResponse

	req := createFolderRequest{ParentID: parentID, Title: title}
	if err := p.client.doJSON(ctx, http.MethodPost, "/folders", req, &resp); err != nil {
		return "", fmt.Errorf("remotetree: create folder under %s: %w", parentID, err)
	}

	return resp.ID, nil
}

// UpdateFolder implements core.TreeProvider. A non-empty parentID that
// differs from the folder's current one is sent alongside the title, so
// this one PATCH also carries a MOVE action's relocation.
func (p *Provider) UpdateFolder(ctx context.Context, id, parentID, title string) error {
	req := updateFolderRequest{ParentID: parentID, Title: title}
	if err := p.client.doJSON(ctx, http.MethodPatch, "/folders/"+id, req, nil); err != nil {
		return fmt.Errorf("remotetree: update folder %s: %w", id, err)
	}

	return nil
}

// RemoveFolder implements core.TreeProvider.
func (p *Provider) RemoveFolder(ctx context.Context, id string) error {
	if err := p.client.doJSON(ctx, http.MethodDelete, "/folders/"+id, nil, nil); err != nil {
		return fmt.Errorf("remotetree: remove folder %s: %w", id, err)
	}

	return nil
}

// OrderFolder implements core.TreeProvider.
func (p *Provider) OrderFolder(ctx context.Context, id string, order []core.OrderEntry) error {
	wireOrder := make([]orderEntryWire, len(order))
	for i, e := range order {
		wireOrder[i] = orderEntryWire{Kind: kindToWire(e.Kind), ID: e.ID}
	}

	req := orderFolderRequest{Order: wireOrder}
	if err := p.client.doJSON(ctx, http.MethodPut, "/folders/"+id+"/order", req, nil); err != nil {
		return fmt.Errorf("remotetree: order folder %s: %w", id, err)
	}

	return nil
}

// CreateBookmark implements core.TreeProvider. The assigned id returned to
// the caller is the composite "<upstreamId>;<parentId>" form, so a later
// UpdateBookmark/RemoveBookmark on the same bookmark can recover the parent
// without a second round trip.
func (p *Provider) CreateBookmark(ctx context.Context, parentID, title, url string) (string, error) {
	var resp idResponse

	req := createBookmarkRequest{ParentID: parentID, Title: title, URL: url}
	if err := p.client.doJSON(ctx, http.MethodPost, "/folders/"+parentID+"/bookmarks", req, &resp); err != nil {
		return "", fmt.Errorf("remotetree: create bookmark under %s: %w", parentID, err)
	}

	return makeBookmarkID(resp.ID, parentID), nil
}

// UpdateBookmark implements core.TreeProvider. Since this provider's
// bookmark id embeds its parent folder, a move to newParentID changes the id
// the caller must use from now on: the PATCH addresses the resource under
// its current (old) parent, then a new composite id reflecting newParentID
// is returned.
func (p *Provider) UpdateBookmark(ctx context.Context, id, newParentID, title, url string) (string, error) {
	upstreamID, currentParentID, err := splitBookmarkID(id)
	if err != nil {
		return "", fmt.Errorf("remotetree: update bookmark: %w", err)
	}

	req := updateBookmarkRequest{ParentID: newParentID, Title: title, URL: url}
	path := "/folders/" + currentParentID + "/bookmarks/" + upstreamID

	if err := p.client.doJSON(ctx, http.MethodPatch, path, req, nil); err != nil {
		return "", fmt.Errorf("remotetree: update bookmark %s: %w", id, err)
	}

	if newParentID == "" || newParentID == currentParentID {
		return id, nil
	}

	return makeBookmarkID(upstreamID, newParentID), nil
}

// RemoveBookmark implements core.TreeProvider.
func (p *Provider) RemoveBookmark(ctx context.Context, id string) error {
	upstreamID, parentID, err := splitBookmarkID(id)
	if err != nil {
		return fmt.Errorf("remotetree: remove bookmark: %w", err)
	}

	path := "/folders/" + parentID + "/bookmarks/" + upstreamID

	if err := p.client.doJSON(ctx, http.MethodDelete, path, nil, nil); err != nil {
		return fmt.Errorf("remotetree: remove bookmark %s: %w", id, err)
	}

	return nil
}

// bulkImportItemLimit bounds a single BulkImportFolder call, per spec §6's
// "must fail if more than a provider-defined item count is attempted".
const bulkImportItemLimit = 500

// SupportsBulkImport implements core.TreeProvider by probing the server
// once with an OPTIONS request and caching the result for the lifetime of
// the Provider, per spec: "advertised only if the server's OPTIONS probe
// reports support."
func (p *Provider) SupportsBulkImport() bool {
	if p.bulkImportChecked {
		return p.bulkImportSupport
	}

	p.bulkImportChecked = true

	err := p.client.doJSON(context.Background(), http.MethodOptions, "/bulk-import", nil, nil)
	p.bulkImportSupport = err == nil

	if err != nil {
		p.logger.Debug("remotetree: server does not advertise bulk import", slog.String("error", err.Error()))
	}

	return p.bulkImportSupport
}

// BulkImportFolder implements core.TreeProvider.
func (p *Provider) BulkImportFolder(ctx context.Context, parentID string, folder *core.Item) (string, error) {
	if !p.SupportsBulkImport() {
		return "", ErrBulkImportUnsupported
	}

	if folder.Count() > bulkImportItemLimit {
		return "", fmt.Errorf("%w: %d items exceeds limit of %d", ErrBulkImportTooLarge, folder.Count(), bulkImportItemLimit)
	}

	var resp idResponse

	req := toWireItem(folder)
	path := "/folders/" + parentID + "/bulk-import"

	if err := p.client.doJSON(ctx, http.MethodPost, path, req, &resp); err != nil {
		return "", fmt.Errorf("remotetree: bulk import under %s: %w", parentID, err)
	}

	return resp.ID, nil
}
