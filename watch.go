package main

import (
	"context"
	"log/slog"
	"strings"
	"time"

	"github.com/tonimelisma/bkmsync/internal/engine"
	"github.com/tonimelisma/bkmsync/internal/localtree"
	"github.com/tonimelisma/bkmsync/internal/remotetree"
)

// defaultPollInterval is used if a profile's configured poll interval fails
// to parse; validation should have already caught this, so this is a last
// line of defense, not a normal code path.
const defaultPollInterval = 5 * time.Minute

// runWatch runs sync cycles continuously, triggered by local file changes,
// an optional server push notification channel, and a poll interval
// fallback. Triggers that arrive while a cycle is running are coalesced
// into a single pending run via a buffered channel.
func runWatch(parent context.Context, cc *CLIContext, dryRun bool) error {
	ctx := shutdownContext(parent, cc.Logger)

	eng, closeStore, err := buildEngine(ctx, cc, dryRun)
	if err != nil {
		return err
	}
	defer closeStore()

	trigger := make(chan struct{}, 1)
	requestSync := func() {
		select {
		case trigger <- struct{}{}:
		default:
		}
	}

	local := localtree.New(cc.Profile.LocalPath, cc.Logger)
	go watchLocal(ctx, cc, local, requestSync)
	watchRemote(ctx, cc, requestSync)

	pollInterval, err := time.ParseDuration(cc.Profile.Sync.PollInterval)
	if err != nil {
		cc.Logger.Warn("invalid poll_interval, using default", slog.String("configured", cc.Profile.Sync.PollInterval))
		pollInterval = defaultPollInterval
	}

	ticker := time.NewTicker(pollInterval)
	defer ticker.Stop()

	cc.Statusf("Watching profile %q (poll every %s)...\n", cc.Profile.Name, formatDuration(pollInterval))

	requestSync()

	for {
		select {
		case <-ctx.Done():
			cc.Statusf("Shutting down.\n")

			return nil
		case <-ticker.C:
			requestSync()
		case <-trigger:
			runWatchCycle(ctx, cc, eng)
		}
	}
}

// runWatchCycle runs one sync cycle and prints its outcome, swallowing
// errors so a single failed cycle does not tear down the watch loop — the
// next trigger tries again.
func runWatchCycle(ctx context.Context, cc *CLIContext, eng *engine.Engine) {
	report, err := eng.Run(ctx)
	if err != nil {
		cc.Logger.Error("sync cycle failed", slog.String("error", err.Error()))

		return
	}

	if report.Empty() {
		return
	}

	printSyncText(cc, report)
}

// watchLocal blocks watching the local bookmark file for changes, calling
// onChange whenever the file is rewritten. Returns when ctx is canceled;
// any other error is logged.
func watchLocal(ctx context.Context, cc *CLIContext, local *localtree.Provider, onChange func()) {
	if err := local.Watch(ctx, onChange); err != nil && ctx.Err() == nil {
		cc.Logger.Warn("local file watch ended", slog.String("error", err.Error()))
	}
}

// watchRemote starts a goroutine listening for server-pushed change
// notifications, reconnecting with exponential backoff on disconnect, if
// the profile has the websocket notification channel enabled. Failures are
// logged and leave the poll ticker as the remaining trigger source.
func watchRemote(ctx context.Context, cc *CLIContext, onChange func()) {
	if !cc.Profile.Sync.Websocket {
		return
	}

	notifyURL := notificationURL(cc.Profile.ServerURL)
	notifier := remotetree.NewNotifier(notifyURL, cc.Logger)

	go func() {
		backoff := time.Second

		for ctx.Err() == nil {
			err := notifier.Listen(ctx, onChange)
			if ctx.Err() != nil {
				return
			}

			if err != nil {
				cc.Logger.Debug("notification channel error, reconnecting", slog.String("error", err.Error()))
			}

			select {
			case <-time.After(backoff):
			case <-ctx.Done():
				return
			}

			if backoff < 30*time.Second {
				backoff *= 2
			}
		}
	}()
}

// notificationURL derives the websocket notification endpoint from the
// configured HTTP(S) server URL.
func notificationURL(serverURL string) string {
	switch {
	case strings.HasPrefix(serverURL, "https://"):
		return "wss://" + strings.TrimPrefix(serverURL, "https://") + "/notify"
	case strings.HasPrefix(serverURL, "http://"):
		return "ws://" + strings.TrimPrefix(serverURL, "http://") + "/notify"
	default:
		return serverURL + "/notify"
	}
}
