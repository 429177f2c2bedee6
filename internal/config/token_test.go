package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/oauth2"
)

func TestSaveAndLoadToken_RoundTrips(t *testing.T) {
	path := filepath.Join(t.TempDir(), "token.json")
	tok := &oauth2.Token{
		AccessToken:  "access-123",
		TokenType:    "Bearer",
		RefreshToken: "refresh-456",
		Expiry:       time.Date(2027, 1, 1, 0, 0, 0, 0, time.UTC),
	}

	require.NoError(t, SaveToken(path, tok))

	loaded, err := LoadToken(path)
	require.NoError(t, err)
	assert.Equal(t, tok.AccessToken, loaded.AccessToken)
	assert.Equal(t, tok.TokenType, loaded.TokenType)
	assert.Equal(t, tok.RefreshToken, loaded.RefreshToken)
	assert.True(t, tok.Expiry.Equal(loaded.Expiry))
}

func TestSaveToken_SetsOwnerOnlyPermissions(t *testing.T) {
	path := filepath.Join(t.TempDir(), "token.json")

	require.NoError(t, SaveToken(path, &oauth2.Token{AccessToken: "secret"}))

	info, err := os.Stat(path)
	require.NoError(t, err)
	assert.Equal(t, "-rw-------", info.Mode().String())
}

func TestLoadToken_MissingFile(t *testing.T) {
	_, err := LoadToken(filepath.Join(t.TempDir(), "missing.json"))
	require.Error(t, err)
}

func TestPersistingTokenSource_PersistsOnRefresh(t *testing.T) {
	path := filepath.Join(t.TempDir(), "token.json")
	require.NoError(t, SaveToken(path, &oauth2.Token{
		AccessToken: "stale",
		Expiry:      time.Now().Add(-time.Hour),
	}))

	refreshed := &oauth2.Token{AccessToken: "fresh", Expiry: time.Now().Add(time.Hour)}

	src, err := NewPersistingTokenSource(path, func(_ *oauth2.Token) oauth2.TokenSource {
		return oauth2.StaticTokenSource(refreshed)
	})
	require.NoError(t, err)

	tok, err := src.Token()
	require.NoError(t, err)
	assert.Equal(t, "fresh", tok.AccessToken)

	onDisk, err := LoadToken(path)
	require.NoError(t, err)
	assert.Equal(t, "fresh", onDisk.AccessToken)
}

func TestPersistingTokenSource_NoWriteWhenUnchanged(t *testing.T) {
	path := filepath.Join(t.TempDir(), "token.json")
	current := &oauth2.Token{AccessToken: "current", Expiry: time.Now().Add(time.Hour)}
	require.NoError(t, SaveToken(path, current))

	before, err := os.Stat(path)
	require.NoError(t, err)

	src, err := NewPersistingTokenSource(path, func(tok *oauth2.Token) oauth2.TokenSource {
		return oauth2.StaticTokenSource(tok)
	})
	require.NoError(t, err)

	_, err = src.Token()
	require.NoError(t, err)

	after, err := os.Stat(path)
	require.NoError(t, err)
	assert.Equal(t, before.ModTime(), after.ModTime())
}
