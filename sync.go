package main

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"os"
	"time"

	"github.com/spf13/cobra"
	"golang.org/x/oauth2"

	"github.com/tonimelisma/bkmsync/internal/config"
	"github.com/tonimelisma/bkmsync/internal/engine"
	"github.com/tonimelisma/bkmsync/internal/localtree"
	"github.com/tonimelisma/bkmsync/internal/mapping"
	"github.com/tonimelisma/bkmsync/internal/remotetree"
)

// httpClientTimeout bounds a single request; a full sync run issues many
// requests and is itself bounded by context, so this only guards against a
// single hung connection.
const httpClientTimeout = 30 * time.Second

func newSyncCmd() *cobra.Command {
	var flagDryRun, flagWatch bool

	cmd := &cobra.Command{
		Use:   "sync",
		Short: "Run one sync cycle between the local bookmark file and the server",
		Long: `Reconcile the local bookmark file and the server tree and apply the
resulting changes to both sides. Use --dry-run to preview what would happen
without making changes, or --watch to run continuously on file changes, the
poll interval, and server push notifications.`,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cc := mustCLIContext(cmd.Context())

			if flagWatch {
				return runWatch(cmd.Context(), cc, flagDryRun)
			}

			return runSyncOnce(cmd.Context(), cc, flagDryRun)
		},
	}

	cmd.Flags().BoolVar(&flagDryRun, "dry-run", false, "preview sync actions without executing")
	cmd.Flags().BoolVar(&flagWatch, "watch", false, "run continuously, syncing on every trigger")

	return cmd
}

// buildEngine wires a profile's providers and mapping store into an
// engine.Engine, the construction step every invocation path (one-shot,
// watch) shares.
func buildEngine(ctx context.Context, cc *CLIContext, dryRun bool) (*engine.Engine, func() error, error) {
	rp := cc.Profile
	logger := cc.Logger

	local := localtree.New(rp.LocalPath, logger)

	tok, err := config.LoadToken(rp.TokenFile)
	if err != nil {
		return nil, nil, fmt.Errorf("loading token for profile %q: %w", rp.Name, err)
	}

	httpClient := &http.Client{Timeout: httpClientTimeout}
	tokenSource := remotetree.NewTokenSource(oauth2.StaticTokenSource(tok), logger)
	client := remotetree.NewClient(rp.ServerURL, httpClient, tokenSource, logger)
	server := remotetree.New(client, logger)

	store, err := mapping.Open(ctx, rp.DBPath, logger)
	if err != nil {
		return nil, nil, fmt.Errorf("opening mapping store at %s: %w", rp.DBPath, err)
	}

	lockPath := config.ProfileLockPath(rp.Name)

	eng := engine.New(engine.Config{
		LocalProvider:  local,
		ServerProvider: server,
		Store:          store,
		LockPath:       lockPath,
		DryRun:         dryRun,
		Logger:         logger,
	})

	return eng, store.Close, nil
}

func runSyncOnce(ctx context.Context, cc *CLIContext, dryRun bool) error {
	eng, closeStore, err := buildEngine(ctx, cc, dryRun)
	if err != nil {
		return err
	}
	defer closeStore()

	cc.Statusf("Syncing profile %q...\n", cc.Profile.Name)

	report, err := eng.Run(ctx)
	if err != nil {
		return fmt.Errorf("sync failed: %w", err)
	}

	if cc.JSON {
		return printSyncJSON(report)
	}

	printSyncText(cc, report)

	return nil
}

func printSyncText(cc *CLIContext, report *engine.Report) {
	if report.DryRun {
		if report.Empty() {
			cc.Statusf("Dry run complete (%s) — already in sync.\n", formatDuration(report.Duration))

			return
		}

		cc.Statusf("Dry run — no changes made (%s)\n", formatDuration(report.Duration))
		printReportCounts(report)

		return
	}

	if report.Empty() {
		cc.Statusf("Already in sync.\n")

		return
	}

	cc.Statusf("Sync complete (%s)\n", formatDuration(report.Duration))
	printReportCounts(report)
}

func printReportCounts(report *engine.Report) {
	if report.FirstSync {
		statusf(false, "  First sync — paired %s existing items\n", formatCount(report.PairingsRecorded))
	}

	statusf(false, "  Server: %s created, %s updated, %s moved, %s removed, %s reordered\n",
		formatCount(report.ServerCreates), formatCount(report.ServerUpdates),
		formatCount(report.ServerMoves), formatCount(report.ServerRemoves), formatCount(report.ServerReorders))

	statusf(false, "  Local:  %s created, %s updated, %s moved, %s removed, %s reordered\n",
		formatCount(report.LocalCreates), formatCount(report.LocalUpdates),
		formatCount(report.LocalMoves), formatCount(report.LocalRemoves), formatCount(report.LocalReorders))
}

// syncJSONOutput is the JSON output schema for the sync command.
type syncJSONOutput struct {
	FirstSync        bool   `json:"first_sync"`
	DryRun           bool   `json:"dry_run"`
	DurationMs       int64  `json:"duration_ms"`
	PairingsRecorded int    `json:"pairings_recorded"`
	Server           counts `json:"server"`
	Local            counts `json:"local"`
}

type counts struct {
	Creates  int `json:"creates"`
	Updates  int `json:"updates"`
	Moves    int `json:"moves"`
	Removes  int `json:"removes"`
	Reorders int `json:"reorders"`
}

func printSyncJSON(report *engine.Report) error {
	out := syncJSONOutput{
		FirstSync:        report.FirstSync,
		DryRun:           report.DryRun,
		DurationMs:       report.Duration.Milliseconds(),
		PairingsRecorded: report.PairingsRecorded,
		Server: counts{
			Creates: report.ServerCreates, Updates: report.ServerUpdates,
			Moves: report.ServerMoves, Removes: report.ServerRemoves, Reorders: report.ServerReorders,
		},
		Local: counts{
			Creates: report.LocalCreates, Updates: report.LocalUpdates,
			Moves: report.LocalMoves, Removes: report.LocalRemoves, Reorders: report.LocalReorders,
		},
	}

	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")

	return enc.Encode(out)
}
