package engine

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/tonimelisma/bkmsync/internal/core"
)

// Config holds everything one Run needs: the two tree providers, the
// mapping store they share, and where to keep the single-instance lock
// file. Grounded on the teacher's EngineConfig — a struct rather than
// positional parameters once the field count passes a handful.
type Config struct {
	LocalProvider  core.TreeProvider
	ServerProvider core.TreeProvider
	Store          core.MappingStore
	LockPath       string
	DryRun         bool
	Logger         *slog.Logger
}

// Engine orchestrates one complete sync cycle: lock → load → reconcile →
// apply → report, mirroring the teacher's RunOnce pipeline shape.
type Engine struct {
	cfg Config
}

// New returns an Engine for cfg. A nil Logger falls back to slog.Default.
func New(cfg Config) *Engine {
	if cfg.Logger == nil {
		cfg.Logger = slog.Default()
	}

	return &Engine{cfg: cfg}
}

// Run executes a single sync cycle and returns a Report describing what
// happened (or, in dry-run mode, what would have happened). Steps, per
// SPEC_FULL.md §4.7:
//  1. Acquire the local lock file.
//  2. Load the mapping snapshot.
//  3. Load both trees, resolving sparse server folders.
//  4. Choose the normal-sync or merge reconciler.
//  5. Reconcile, then run the reorder reconciler on both plans.
//  6. Apply both plans (skipped in dry-run).
//  7. Return a Report.
func (e *Engine) Run(ctx context.Context) (*Report, error) {
	start := time.Now()
	log := e.cfg.Logger

	log.Info("sync run starting", slog.Bool("dry_run", e.cfg.DryRun))

	release, err := acquireLock(e.cfg.LockPath)
	if err != nil {
		return nil, err
	}
	defer release()

	snapshot := e.cfg.Store.Snapshot()
	mapping := snapshot.Mapping()
	firstSync := mapping.Empty()

	localTree, serverTree, err := e.loadTrees(ctx)
	if err != nil {
		return nil, err
	}

	var serverPlan, localPlan *core.Diff

	if firstSync {
		serverPlan, localPlan, err = core.ReconcileMerge(ctx, localTree, serverTree, e.cfg.Store)
	} else {
		serverPlan, localPlan, err = core.Reconcile(ctx, localTree, serverTree, mapping)
	}

	if err != nil {
		return nil, fmt.Errorf("engine: reconcile: %w", err)
	}

	// A merge reconcile queues new pairings through the store as a side
	// effect; re-read the snapshot so the reorder pass and apply step see
	// them too.
	mapping = e.cfg.Store.Snapshot().Mapping()

	serverRemoved := removedFolders(serverPlan)
	localRemoved := removedFolders(localPlan)

	serverPlan = core.Reorder(serverPlan, localTree, mapping, true, serverRemoved)
	localPlan = core.Reorder(localPlan, serverTree, mapping, false, localRemoved)

	pairingsBefore := pairingCount(snapshot.Mapping())

	if e.cfg.DryRun {
		report := newReport(firstSync, true, serverPlan, localPlan, pairingCount(mapping)-pairingsBefore)
		report.Duration = time.Since(start)

		log.Info("dry run complete", slog.Duration("duration", report.Duration))

		return report, nil
	}

	serverSkip := map[itemRef]bool{}
	localSkip := map[itemRef]bool{}

	resolveToServer := func(parentID string) string {
		return resolveParentStatic(parentID, mapping, true)
	}
	resolveToLocal := func(parentID string) string {
		return resolveParentStatic(parentID, mapping, false)
	}

	mapping, serverSkip, err = bulkImportNewSubtrees(ctx, e.cfg.ServerProvider, localTree, resolveToServer, true, mapping, e.cfg.Store, log)
	if err != nil {
		return nil, fmt.Errorf("engine: bulk import to server: %w", err)
	}

	mapping, localSkip, err = bulkImportNewSubtrees(ctx, e.cfg.LocalProvider, serverTree, resolveToLocal, false, mapping, e.cfg.Store, log)
	if err != nil {
		return nil, fmt.Errorf("engine: bulk import to local: %w", err)
	}

	if applyErr := applySide(ctx, e.cfg.ServerProvider, serverPlan, mapping, true, e.cfg.Store, log, serverSkip); applyErr != nil {
		return nil, fmt.Errorf("engine: applying server plan: %w", applyErr)
	}

	if applyErr := applySide(ctx, e.cfg.LocalProvider, localPlan, mapping, false, e.cfg.Store, log, localSkip); applyErr != nil {
		return nil, fmt.Errorf("engine: applying local plan: %w", applyErr)
	}

	finalMapping := e.cfg.Store.Snapshot().Mapping()
	report := newReport(firstSync, false, serverPlan, localPlan, pairingCount(finalMapping)-pairingsBefore)
	report.Duration = time.Since(start)

	log.Info("sync run complete",
		slog.Duration("duration", report.Duration),
		slog.Int("server_actions", report.ServerTotal()),
		slog.Int("local_actions", report.LocalTotal()),
	)

	return report, nil
}

// loadTrees fetches both sides concurrently and resolves any sparse
// folders each came back with, per spec §6's sparse-loading contract.
func (e *Engine) loadTrees(ctx context.Context) (localTree, serverTree *core.Item, err error) {
	g, gctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		tree, loadErr := e.cfg.LocalProvider.GetTree(gctx)
		if loadErr != nil {
			return fmt.Errorf("engine: loading local tree: %w", loadErr)
		}

		if loadErr := resolveSparse(gctx, e.cfg.LocalProvider, tree); loadErr != nil {
			return fmt.Errorf("engine: resolving sparse local folders: %w", loadErr)
		}

		localTree = tree

		return nil
	})

	g.Go(func() error {
		tree, loadErr := e.cfg.ServerProvider.GetTree(gctx)
		if loadErr != nil {
			return fmt.Errorf("engine: loading server tree: %w", loadErr)
		}

		if loadErr := resolveSparse(gctx, e.cfg.ServerProvider, tree); loadErr != nil {
			return fmt.Errorf("engine: resolving sparse server folders: %w", loadErr)
		}

		serverTree = tree

		return nil
	})

	if waitErr := g.Wait(); waitErr != nil {
		return nil, nil, waitErr
	}

	return localTree, serverTree, nil
}

// removedFolders collects the folder ids a plan itself removes, so
// core.Reorder knows to suppress a REORDER on a folder that won't exist by
// the time it would run (SPEC_FULL.md §4.8).
func removedFolders(plan *core.Diff) map[string]bool {
	out := make(map[string]bool)

	for _, a := range plan.GetActionsOfType(core.ActionRemove) {
		if a.Payload != nil && a.Payload.Kind == core.KindFolder {
			out[a.Payload.ID] = true
		}
	}

	return out
}

// resolveParentStatic mirrors applySide's resolveParent closure, minus the
// overrides table: it is used only by the bulk-import pre-pass, which runs
// before any CREATE has actually executed this run, so no id assigned
// during this run could yet be the parent of a bulk-import candidate.
func resolveParentStatic(parentID string, mapping core.Mapping, toTarget bool) string {
	if v, ok := mapping.Translate(core.KindFolder, parentID, toTarget); ok {
		return v
	}

	return parentID
}

func pairingCount(m core.Mapping) int {
	return len(m.LocalToServer.Folder) + len(m.LocalToServer.Bookmark)
}
