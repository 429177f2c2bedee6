package main

import (
	"bytes"
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tonimelisma/bkmsync/internal/config"
)

func contextWithCLIContext(cc *CLIContext) context.Context {
	return context.WithValue(context.Background(), cliContextKey{}, cc)
}

func TestRunConfigShow_TextRendersProfile(t *testing.T) {
	rp := &config.ResolvedProfile{
		Name:      "work",
		LocalPath: "/home/user/bookmarks.html",
		ServerURL: "https://bkm.example.com/api",
	}
	cc := &CLIContext{Profile: rp}

	cmd := newConfigShowCmd()
	cmd.SetContext(contextWithCLIContext(cc))

	oldStdout := os.Stdout
	r, w, err := os.Pipe()
	require.NoError(t, err)

	os.Stdout = w
	t.Cleanup(func() { os.Stdout = oldStdout })

	require.NoError(t, runConfigShow(cmd, nil))
	w.Close()

	var out bytes.Buffer
	_, err = out.ReadFrom(r)
	require.NoError(t, err)

	assert.Contains(t, out.String(), "work")
	assert.Contains(t, out.String(), "bkm.example.com")
}

func TestRunConfigShow_JSONEncodesProfile(t *testing.T) {
	rp := &config.ResolvedProfile{Name: "work", LocalPath: "/x.html"}
	cc := &CLIContext{Profile: rp, JSON: true}

	cmd := newConfigShowCmd()
	cmd.SetContext(contextWithCLIContext(cc))

	oldStdout := os.Stdout
	r, w, err := os.Pipe()
	require.NoError(t, err)

	os.Stdout = w
	t.Cleanup(func() { os.Stdout = oldStdout })

	require.NoError(t, runConfigShow(cmd, nil))
	w.Close()

	var out bytes.Buffer
	_, err = out.ReadFrom(r)
	require.NoError(t, err)

	assert.Contains(t, out.String(), `"work"`)
}

func TestConfigSetUnset_RoundTrip(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.toml")

	require.NoError(t, config.CreateConfigWithProfile(path, "work", "/home/user/bookmarks.html", "https://bkm.example.com/api"))

	cc := &CLIContext{ConfigPath: path}

	setCmd := newConfigSetCmd()
	setCmd.SetContext(contextWithCLIContext(cc))
	require.NoError(t, setCmd.RunE(setCmd, []string{"work", "db_path", "/custom/path.db"}))

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Contains(t, string(data), `db_path = "/custom/path.db"`)

	unsetCmd := newConfigUnsetCmd()
	unsetCmd.SetContext(contextWithCLIContext(cc))
	require.NoError(t, unsetCmd.RunE(unsetCmd, []string{"work", "db_path"}))

	data, err = os.ReadFile(path)
	require.NoError(t, err)
	assert.NotContains(t, string(data), "db_path")
}

func TestConfigSet_CreatesProfileIfMissing(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.toml")

	require.NoError(t, config.CreateConfigWithProfile(path, "work", "/a.html", "https://work.example.com"))

	cc := &CLIContext{ConfigPath: path}

	setCmd := newConfigSetCmd()
	setCmd.SetContext(contextWithCLIContext(cc))
	require.NoError(t, setCmd.RunE(setCmd, []string{"personal", "local_path", "/b.html"}))

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Contains(t, string(data), "[profile.personal]")
	assert.Contains(t, string(data), `local_path = "/b.html"`)
}

func TestConfigDeleteProfile_RemovesSection(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.toml")

	require.NoError(t, config.CreateConfigWithProfile(path, "work", "/a.html", "https://work.example.com"))
	require.NoError(t, config.AppendProfileSection(path, "personal", "/b.html", "https://personal.example.com"))

	cc := &CLIContext{ConfigPath: path}

	delCmd := newConfigDeleteProfileCmd()
	delCmd.SetContext(contextWithCLIContext(cc))
	require.NoError(t, delCmd.RunE(delCmd, []string{"personal"}))

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.NotContains(t, string(data), "[profile.personal]")
	assert.Contains(t, string(data), "[profile.work]")
}

func TestConfigInit_CreatesFileWithProfile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.toml")

	oldPath := flagConfigPath
	flagConfigPath = path
	t.Cleanup(func() { flagConfigPath = oldPath })

	initCmd := newConfigInitCmd()
	require.NoError(t, initCmd.RunE(initCmd, []string{"work", "/home/user/bookmarks.html", "https://bkm.example.com/api"}))

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Contains(t, string(data), "[profile.work]")
}
