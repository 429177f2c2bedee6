package config

import (
	"encoding/json"
	"fmt"
	"os"
	"sync"
	"time"

	"golang.org/x/oauth2"
)

// cachedToken is the on-disk representation of an OAuth token, stored at a
// profile's TokenFile path (default: {configDir}/tokens/{profile}.json).
type cachedToken struct {
	AccessToken  string    `json:"access_token"`
	TokenType    string    `json:"token_type,omitempty"`
	RefreshToken string    `json:"refresh_token,omitempty"`
	Expiry       time.Time `json:"expiry,omitempty"`
}

// LoadToken reads a cached OAuth token from path.
func LoadToken(path string) (*oauth2.Token, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading token file %s: %w", path, err)
	}

	var ct cachedToken
	if err := json.Unmarshal(data, &ct); err != nil {
		return nil, fmt.Errorf("parsing token file %s: %w", path, err)
	}

	return &oauth2.Token{
		AccessToken:  ct.AccessToken,
		TokenType:    ct.TokenType,
		RefreshToken: ct.RefreshToken,
		Expiry:       ct.Expiry,
	}, nil
}

// SaveToken writes tok to path atomically, creating parent directories as
// needed. The file is created with owner-only permissions since it holds a
// bearer credential.
func SaveToken(path string, tok *oauth2.Token) error {
	ct := cachedToken{
		AccessToken:  tok.AccessToken,
		TokenType:    tok.TokenType,
		RefreshToken: tok.RefreshToken,
		Expiry:       tok.Expiry,
	}

	data, err := json.MarshalIndent(ct, "", "  ")
	if err != nil {
		return fmt.Errorf("encoding token: %w", err)
	}

	if err := atomicWriteFile(path, data); err != nil {
		return err
	}

	return os.Chmod(path, 0o600)
}

// persistingTokenSource wraps an oauth2.TokenSource and writes every newly
// minted token back to its cache file, so a refreshed access token survives
// process restarts without forcing a fresh interactive login.
type persistingTokenSource struct {
	mu   sync.Mutex
	path string
	src  oauth2.TokenSource
	last string
}

// NewPersistingTokenSource loads the cached token at path and returns an
// oauth2.TokenSource that transparently refreshes it via base and persists
// each refreshed token back to path.
func NewPersistingTokenSource(path string, base func(*oauth2.Token) oauth2.TokenSource) (oauth2.TokenSource, error) {
	initial, err := LoadToken(path)
	if err != nil {
		return nil, err
	}

	return &persistingTokenSource{
		path: path,
		src:  oauth2.ReuseTokenSource(initial, base(initial)),
		last: initial.AccessToken,
	}, nil
}

func (p *persistingTokenSource) Token() (*oauth2.Token, error) {
	p.mu.Lock()
	defer p.mu.Unlock()

	tok, err := p.src.Token()
	if err != nil {
		return nil, fmt.Errorf("refreshing token: %w", err)
	}

	if tok.AccessToken != p.last {
		if err := SaveToken(p.path, tok); err != nil {
			return nil, fmt.Errorf("persisting refreshed token: %w", err)
		}

		p.last = tok.AccessToken
	}

	return tok, nil
}
