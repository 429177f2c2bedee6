package config

import (
	"testing"

	"github.com/BurntSushi/toml"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func decodeMeta(t *testing.T, data string) *toml.MetaData {
	t.Helper()

	var cfg Config

	md, err := toml.Decode(data, &cfg)
	require.NoError(t, err)

	return &md
}

func TestCheckUnknownKeys_NoUnknownKeys(t *testing.T) {
	md := decodeMeta(t, `
[sync]
poll_interval = "5m"

[profile.work]
local_path = "/home/user/bookmarks.html"
server_url = "https://bkm.example.com"
`)

	err := checkUnknownKeys(md)
	assert.NoError(t, err)
}

func TestCheckUnknownKeys_GlobalTypo(t *testing.T) {
	md := decodeMeta(t, `poll_interva = "5m"`)

	err := checkUnknownKeys(md)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "poll_interva")
	assert.Contains(t, err.Error(), "did you mean")
}

func TestCheckUnknownKeys_ProfileTypo(t *testing.T) {
	md := decodeMeta(t, `
[profile.work]
local_paht = "/home/user/bookmarks.html"
server_url = "https://bkm.example.com"
`)

	err := checkUnknownKeys(md)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "local_paht")
	assert.Contains(t, err.Error(), "work")
	assert.Contains(t, err.Error(), "did you mean")
}

func TestCheckUnknownKeys_NoSuggestionWhenFarAway(t *testing.T) {
	md := decodeMeta(t, `zzzzzzzzzzzzzzzzzz = "value"`)

	err := checkUnknownKeys(md)
	require.Error(t, err)
	assert.NotContains(t, err.Error(), "did you mean")
}

func TestLevenshtein_Identical(t *testing.T) {
	assert.Equal(t, 0, levenshtein("poll_interval", "poll_interval"))
}

func TestLevenshtein_OneEdit(t *testing.T) {
	assert.Equal(t, 1, levenshtein("poll_interval", "poll_intervl"))
}

func TestLevenshtein_EmptyStrings(t *testing.T) {
	assert.Equal(t, 3, levenshtein("", "abc"))
	assert.Equal(t, 3, levenshtein("abc", ""))
}

func TestClosestMatch_WithinThreshold(t *testing.T) {
	match := closestMatch("local_pth", knownProfileKeysList)
	assert.Equal(t, "local_path", match)
}

func TestClosestMatch_TooFar(t *testing.T) {
	match := closestMatch("completely_unrelated_key_name", knownProfileKeysList)
	assert.Empty(t, match)
}
