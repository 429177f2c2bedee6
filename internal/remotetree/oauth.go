package remotetree

import (
	"fmt"
	"log/slog"

	"golang.org/x/oauth2"
)

// tokenBridge adapts oauth2.TokenSource to the Client's own TokenSource
// interface, logging every token acquisition so refresh activity is
// visible in the same way the teacher's graph.tokenBridge does.
type tokenBridge struct {
	src    oauth2.TokenSource
	logger *slog.Logger
}

// NewTokenSource wraps an oauth2.TokenSource (already bound to whatever
// context and refresh config the caller needs) as a remotetree.TokenSource.
func NewTokenSource(src oauth2.TokenSource, logger *slog.Logger) TokenSource {
	if logger == nil {
		logger = slog.Default()
	}

	return &tokenBridge{src: src, logger: logger}
}

func (b *tokenBridge) Token() (string, error) {
	t, err := b.src.Token()
	if err != nil {
		b.logger.Warn("remotetree: token acquisition failed", slog.String("error", err.Error()))

		return "", fmt.Errorf("remotetree: obtaining token: %w", err)
	}

	b.logger.Debug("remotetree: token acquired", slog.Time("expiry", t.Expiry), slog.Bool("valid", t.Valid()))

	return t.AccessToken, nil
}
