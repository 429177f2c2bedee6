package remotetree

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/coder/websocket"
)

// folderChangedPayload is the one message the notification channel ever
// sends. The server may optionally push this over a websocket connection
// instead of making the engine wait for its next poll interval (spec §6).
const folderChangedPayload = "folders-changed"

// Notifier listens for server-pushed change notifications over a
// coder/websocket connection. It is entirely optional: a deployment with no
// notification endpoint configured never constructs one, and the engine
// falls back to its poll interval and the local fsnotify watch alone.
type Notifier struct {
	url    string
	logger *slog.Logger
}

// NewNotifier returns a Notifier that will dial url when Listen is called.
func NewNotifier(url string, logger *slog.Logger) *Notifier {
	if logger == nil {
		logger = slog.Default()
	}

	return &Notifier{url: url, logger: logger}
}

// Listen blocks, dialing the notification endpoint and calling onChange for
// every folders-changed message received, until ctx is canceled or the
// connection is lost. Reconnection on an unexpected close is the caller's
// responsibility (the CLI's sync --watch loop retries Listen with backoff) —
// Listen itself makes exactly one connection attempt per call.
func (n *Notifier) Listen(ctx context.Context, onChange func()) error {
	conn, _, err := websocket.Dial(ctx, n.url, nil)
	if err != nil {
		return fmt.Errorf("remotetree: dialing notification channel: %w", err)
	}
	defer conn.CloseNow()

	n.logger.Info("remotetree: notification channel connected", slog.String("url", n.url))

	for {
		_, data, err := conn.Read(ctx)
		if err != nil {
			if ctx.Err() != nil {
				conn.Close(websocket.StatusNormalClosure, "shutting down")

				return nil
			}

			return fmt.Errorf("remotetree: notification channel closed: %w", err)
		}

		if string(data) != folderChangedPayload {
			n.logger.Debug("remotetree: ignoring unrecognized notification payload", slog.String("payload", string(data)))

			continue
		}

		onChange()
	}
}
