package engine

import (
	"context"
	"log/slog"

	"github.com/tonimelisma/bkmsync/internal/core"
)

// itemRef identifies an action's subject by (kind, id) in whatever id space
// the action's Payload currently carries.
type itemRef struct {
	kind core.Kind
	id   string
}

// applySide applies plan (already translated into target's id space) to
// target through provider, in log order, recording every newly discovered
// id pairing into store as soon as the provider call that created it
// succeeds — per spec §5's suspension-point rule, a mapping is only ever
// durable once the operation it describes has actually happened.
//
// toServer says which direction target's ids run in: true when target is
// the server (plan came from scanning local against the baseline) and
// false when target is local.
//
// alreadyMaterialized names CREATE actions whose item was already brought
// into existence by a prior BulkImportFolder call (bulkimport.go) and whose
// mapping entry core.PairSubtrees already recorded: applyCreate skips the
// provider call and the mapping write for these, since both already
// happened. Pass nil when no bulk import preceded this call.
func applySide(
	ctx context.Context, provider core.TreeProvider, plan *core.Diff,
	mapping core.Mapping, toServer bool, store core.MappingStore, logger *slog.Logger,
	alreadyMaterialized map[itemRef]bool,
) error {
	overrides := make(map[string]string) // folder id (origin space) -> newly assigned target id

	resolveParent := func(parentID string) string {
		if v, ok := overrides[parentID]; ok {
			return v
		}

		if v, ok := mapping.Translate(core.KindFolder, parentID, toServer); ok {
			return v
		}

		return parentID
	}

	for _, a := range plan.GetActions() {
		if err := applyAction(ctx, provider, a, resolveParent, overrides, toServer, mapping, store, logger, alreadyMaterialized); err != nil {
			return err
		}
	}

	return nil
}

func applyAction(
	ctx context.Context, provider core.TreeProvider, a core.Action,
	resolveParent func(string) string, overrides map[string]string,
	toServer bool, mapping core.Mapping, store core.MappingStore, logger *slog.Logger,
	alreadyMaterialized map[itemRef]bool,
) error {
	if a.Payload != nil && alreadyMaterialized[itemRef{a.Payload.Kind, a.Payload.ID}] {
		return nil
	}

	switch a.Type {
	case core.ActionCreate:
		return applyCreate(ctx, provider, a, resolveParent, overrides, toServer, store)

	case core.ActionUpdate:
		return applyUpdate(ctx, provider, a, resolveParent, toServer, mapping, store)

	case core.ActionMove:
		return applyMove(ctx, provider, a, resolveParent, toServer, mapping, store)

	case core.ActionRemove:
		return applyRemove(ctx, provider, a, toServer, mapping, store)

	case core.ActionReorder:
		return provider.OrderFolder(ctx, a.Payload.ID, a.Order)

	default:
		logger.Warn("engine: skipping action of unknown type", slog.Any("type", a.Type))

		return nil
	}
}

func applyCreate(
	ctx context.Context, provider core.TreeProvider, a core.Action,
	resolveParent func(string) string, overrides map[string]string,
	toServer bool, store core.MappingStore,
) error {
	parentID := resolveParent(a.Payload.ParentID)

	var newID string
	var err error

	if a.Payload.Kind == core.KindFolder {
		newID, err = provider.CreateFolder(ctx, parentID, a.Payload.Title)
	} else {
		newID, err = provider.CreateBookmark(ctx, parentID, a.Payload.Title, a.Payload.URL)
	}

	if err != nil {
		return core.NewAdapterError("create", err)
	}

	if a.Payload.Kind == core.KindFolder {
		overrides[a.Payload.ID] = newID
	}

	localID, serverID := a.Payload.ID, newID
	if toServer {
		// a.Payload.ID is the local-origin id (unmapped), newID is what the
		// server just assigned.
		localID, serverID = a.Payload.ID, newID
	} else {
		// a.Payload.ID is the server-origin id (unmapped), newID is the id
		// the local provider just assigned.
		localID, serverID = newID, a.Payload.ID
	}

	return store.AddMapping(a.Payload.Kind, localID, serverID)
}

// applyUpdate handles a rename/retarget-only UPDATE action. The payload's
// ParentID is the item's current parent; it is resolved through
// resolveParent exactly as for a MOVE, so the provider receives the item's
// existing parent.
func applyUpdate(
	ctx context.Context, provider core.TreeProvider, a core.Action,
	resolveParent func(string) string, toServer bool, mapping core.Mapping, store core.MappingStore,
) error {
	return applyUpdateOrMove(ctx, provider, a, resolveParent, toServer, mapping, store, "update")
}

// applyMove handles a MOVE action by resolving the new parent through
// resolveParent (so a parent created earlier in this same plan is found via
// the overrides table) and relocating through the same UpdateFolder/
// UpdateBookmark path applyUpdate uses — a MOVE is an UPDATE whose parent
// changed, per the TreeProvider contract.
func applyMove(
	ctx context.Context, provider core.TreeProvider, a core.Action,
	resolveParent func(string) string, toServer bool, mapping core.Mapping, store core.MappingStore,
) error {
	return applyUpdateOrMove(ctx, provider, a, resolveParent, toServer, mapping, store, "move")
}

func applyUpdateOrMove(
	ctx context.Context, provider core.TreeProvider, a core.Action,
	resolveParent func(string) string, toServer bool, mapping core.Mapping, store core.MappingStore,
	op string,
) error {
	parentID := resolveParent(a.Payload.ParentID)

	if a.Payload.Kind == core.KindFolder {
		if err := provider.UpdateFolder(ctx, a.Payload.ID, parentID, a.Payload.Title); err != nil {
			return core.NewAdapterError(op, err)
		}

		return nil
	}

	newID, err := provider.UpdateBookmark(ctx, a.Payload.ID, parentID, a.Payload.Title, a.Payload.URL)
	if err != nil {
		return core.NewAdapterError(op, err)
	}

	if newID == a.Payload.ID {
		return nil
	}

	// The provider's id changed under us (a composite id that encodes its
	// parent). a.Payload.ID is already target-side, so its origin-side
	// counterpart is what AddMapping must be keyed by; the opposite
	// direction of toServer recovers it.
	originID, ok := mapping.Translate(a.Payload.Kind, a.Payload.ID, !toServer)
	if !ok {
		originID = a.Payload.ID
	}

	localID, serverID := originID, newID
	if toServer {
		localID, serverID = originID, newID
	} else {
		localID, serverID = newID, originID
	}

	return store.AddMapping(a.Payload.Kind, localID, serverID)
}

func applyRemove(
	ctx context.Context, provider core.TreeProvider, a core.Action,
	toServer bool, mapping core.Mapping, store core.MappingStore,
) error {
	var err error

	if a.Payload.Kind == core.KindFolder {
		err = provider.RemoveFolder(ctx, a.Payload.ID)
	} else {
		err = provider.RemoveBookmark(ctx, a.Payload.ID)
	}

	if err != nil {
		return core.NewAdapterError("remove", err)
	}

	originID, ok := mapping.Translate(a.Payload.Kind, a.Payload.ID, !toServer)
	if !ok {
		originID = a.Payload.ID
	}

	return store.RemoveMapping(a.Payload.Kind, originID)
}
