package remotetree

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"math"
	"math/rand/v2"
	"net/http"
	"strconv"
	"time"
)

// Backoff tuning matches the teacher's graph.Client exactly: base 1s,
// factor 2x, max 60s, ±25% jitter, 5 retries.
const (
	maxRetries     = 5
	baseBackoff    = 1 * time.Second
	maxBackoff     = 60 * time.Second
	backoffFactor  = 2.0
	jitterFraction = 0.25
	userAgent      = "bkmsync/0.1"
)

// TokenSource provides OAuth2 bearer tokens. A golang.org/x/oauth2.TokenSource
// satisfies it through tokenBridge (NewTokenSource in oauth.go).
type TokenSource interface {
	Token() (string, error)
}

// Client is a thin HTTP/JSON client for the server-side bookmark API: request
// construction, bearer auth, retry with exponential backoff, and error
// classification. Nothing about the bookmark-tree shape lives here — that's
// provider.go's job; Client only knows how to get bytes there and back.
type Client struct {
	baseURL    string
	httpClient *http.Client
	token      TokenSource
	logger     *slog.Logger

	sleepFunc func(ctx context.Context, d time.Duration) error
}

// NewClient creates a Client against baseURL (e.g. "https://bkm.example.com/api").
func NewClient(baseURL string, httpClient *http.Client, token TokenSource, logger *slog.Logger) *Client {
	if logger == nil {
		logger = slog.Default()
	}

	if httpClient == nil {
		httpClient = http.DefaultClient
	}

	return &Client{
		baseURL:    baseURL,
		httpClient: httpClient,
		token:      token,
		logger:     logger,
		sleepFunc:  timeSleep,
	}
}

// doJSON performs an authenticated request with a JSON body (nil for none)
// and decodes a JSON response into out (nil to discard the body). It
// retries transient failures exactly like the teacher's Client.Do.
func (c *Client) doJSON(ctx context.Context, method, path string, in, out any) error {
	var body []byte

	if in != nil {
		encoded, err := json.Marshal(in)
		if err != nil {
			return fmt.Errorf("remotetree: encoding request body: %w", err)
		}

		body = encoded
	}

	resp, err := c.doRetry(ctx, method, path, body)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if out == nil {
		io.Copy(io.Discard, resp.Body) //nolint:errcheck // draining, not reading

		return nil
	}

	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("remotetree: decoding response from %s %s: %w", method, path, err)
	}

	return nil
}

func (c *Client) doRetry(ctx context.Context, method, path string, body []byte) (*http.Response, error) {
	url := c.baseURL + path

	var attempt int

	for {
		resp, err := c.doOnce(ctx, method, url, body)
		if err != nil {
			if ctx.Err() != nil {
				return nil, fmt.Errorf("remotetree: request canceled: %w", ctx.Err())
			}

			if attempt < maxRetries {
				backoff := c.calcBackoff(attempt)
				c.logger.Warn("retrying after network error",
					slog.String("method", method), slog.String("path", path),
					slog.Int("attempt", attempt+1), slog.Duration("backoff", backoff),
					slog.String("error", err.Error()))

				if sleepErr := c.sleepFunc(ctx, backoff); sleepErr != nil {
					return nil, fmt.Errorf("remotetree: request canceled: %w", sleepErr)
				}

				attempt++

				continue
			}

			return nil, fmt.Errorf("remotetree: %s %s failed after %d retries: %w", method, path, maxRetries, err)
		}

		if resp.StatusCode >= http.StatusOK && resp.StatusCode < http.StatusMultipleChoices {
			return resp, nil
		}

		errBody, readErr := io.ReadAll(resp.Body)
		resp.Body.Close()

		if readErr != nil {
			errBody = []byte("(failed to read response body)")
		}

		reqID := resp.Header.Get("request-id")

		if isRetryable(resp.StatusCode) && attempt < maxRetries {
			backoff := c.retryBackoff(resp, attempt)
			c.logger.Warn("retrying after HTTP error",
				slog.String("method", method), slog.String("path", path),
				slog.Int("status", resp.StatusCode), slog.Int("attempt", attempt+1),
				slog.Duration("backoff", backoff))

			if sleepErr := c.sleepFunc(ctx, backoff); sleepErr != nil {
				return nil, fmt.Errorf("remotetree: request canceled: %w", sleepErr)
			}

			attempt++

			continue
		}

		return nil, c.terminalError(method, path, resp.StatusCode, reqID, errBody, attempt)
	}
}

func (c *Client) doOnce(ctx context.Context, method, url string, body []byte) (*http.Response, error) {
	var reader io.Reader
	if body != nil {
		reader = bytes.NewReader(body)
	}

	req, err := http.NewRequestWithContext(ctx, method, url, reader)
	if err != nil {
		return nil, fmt.Errorf("remotetree: creating request: %w", err)
	}

	tok, err := c.token.Token()
	if err != nil {
		return nil, fmt.Errorf("remotetree: obtaining token: %w", err)
	}

	req.Header.Set("Authorization", "Bearer "+tok)
	req.Header.Set("User-Agent", userAgent)

	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, err
	}

	c.logger.Debug("remotetree: response received",
		slog.String("method", method), slog.String("url", url), slog.Int("status", resp.StatusCode))

	return resp, nil
}

func (c *Client) terminalError(method, path string, statusCode int, reqID string, body []byte, attempt int) *RemoteError {
	remoteErr := &RemoteError{
		StatusCode: statusCode,
		RequestID:  reqID,
		Message:    string(body),
		Err:        classifyStatus(statusCode),
	}

	if attempt > 0 {
		c.logger.Error("remotetree: request failed after retries",
			slog.String("method", method), slog.String("path", path),
			slog.Int("status", statusCode), slog.Int("attempts", attempt+1))
	} else {
		c.logger.Warn("remotetree: request failed",
			slog.String("method", method), slog.String("path", path), slog.Int("status", statusCode))
	}

	return remoteErr
}

// retryBackoff honors a 429 response's Retry-After header over the
// calculated exponential backoff.
func (c *Client) retryBackoff(resp *http.Response, attempt int) time.Duration {
	if resp.StatusCode == http.StatusTooManyRequests {
		if ra := resp.Header.Get("Retry-After"); ra != "" {
			if seconds, err := strconv.Atoi(ra); err == nil && seconds > 0 {
				return time.Duration(seconds) * time.Second
			}
		}
	}

	return c.calcBackoff(attempt)
}

func (c *Client) calcBackoff(attempt int) time.Duration {
	backoff := float64(baseBackoff) * math.Pow(backoffFactor, float64(attempt))
	if backoff > float64(maxBackoff) {
		backoff = float64(maxBackoff)
	}

	jitter := backoff * jitterFraction * (rand.Float64()*2 - 1) //nolint:gosec // jitter, not a security boundary
	backoff += jitter

	return time.Duration(backoff)
}

func timeSleep(ctx context.Context, d time.Duration) error {
	timer := time.NewTimer(d)
	defer timer.Stop()

	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}
