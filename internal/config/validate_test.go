package config

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func validConfig() *Config {
	cfg := DefaultConfig()
	cfg.Profiles["default"] = Profile{
		LocalPath: "/home/user/bookmarks.html",
		ServerURL: "https://bkm.example.com",
	}

	return cfg
}

func TestValidate_ValidDefaults(t *testing.T) {
	err := Validate(validConfig())
	assert.NoError(t, err)
}

func TestValidate_ProfileMissingLocalPath(t *testing.T) {
	cfg := validConfig()
	p := cfg.Profiles["default"]
	p.LocalPath = ""
	cfg.Profiles["default"] = p

	err := Validate(cfg)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "local_path")
}

func TestValidate_ProfileMissingServerURL(t *testing.T) {
	cfg := validConfig()
	p := cfg.Profiles["default"]
	p.ServerURL = ""
	cfg.Profiles["default"] = p

	err := Validate(cfg)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "server_url")
}

func TestValidate_ProfileInvalidServerURL(t *testing.T) {
	cfg := validConfig()
	p := cfg.Profiles["default"]
	p.ServerURL = "not-a-url"
	cfg.Profiles["default"] = p

	err := Validate(cfg)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "server_url")
}

func TestValidate_PollIntervalBelowMinimum(t *testing.T) {
	cfg := validConfig()
	cfg.Sync.PollInterval = "1s"

	err := Validate(cfg)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "poll_interval")
}

func TestValidate_PollIntervalInvalidDuration(t *testing.T) {
	cfg := validConfig()
	cfg.Sync.PollInterval = "not-a-duration"

	err := Validate(cfg)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "poll_interval")
}

func TestValidate_LogLevelInvalid(t *testing.T) {
	cfg := validConfig()
	cfg.Logging.LogLevel = "verbose"

	err := Validate(cfg)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "log_level")
}

func TestValidate_LogFormatInvalid(t *testing.T) {
	cfg := validConfig()
	cfg.Logging.LogFormat = "xml"

	err := Validate(cfg)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "log_format")
}

func TestValidate_ConnectTimeoutBelowMinimum(t *testing.T) {
	cfg := validConfig()
	cfg.Network.ConnectTimeout = "0s"

	err := Validate(cfg)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "connect_timeout")
}

func TestValidate_ProfileSectionOverrideValidated(t *testing.T) {
	cfg := validConfig()
	p := cfg.Profiles["default"]
	p.Sync = &SyncConfig{PollInterval: "1s", ShutdownTimeout: "30s"}
	cfg.Profiles["default"] = p

	err := Validate(cfg)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "poll_interval")
}

func TestValidate_CollectsMultipleErrors(t *testing.T) {
	cfg := validConfig()
	cfg.Logging.LogLevel = "bogus"
	cfg.Network.ConnectTimeout = "bogus"

	err := Validate(cfg)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "log_level")
	assert.Contains(t, err.Error(), "connect_timeout")
}

func TestValidateResolved_RelativeLocalPath(t *testing.T) {
	rp := &ResolvedProfile{LocalPath: "relative/path.html", ServerURL: "https://bkm.example.com"}

	err := ValidateResolved(rp)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "local_path")
}

func TestValidateResolved_ValidAbsolutePath(t *testing.T) {
	rp := &ResolvedProfile{LocalPath: "/home/user/bookmarks.html", ServerURL: "https://bkm.example.com"}

	err := ValidateResolved(rp)
	assert.NoError(t, err)
}

func TestValidateResolved_InvalidServerURL(t *testing.T) {
	rp := &ResolvedProfile{LocalPath: "/home/user/bookmarks.html", ServerURL: "not-a-url"}

	err := ValidateResolved(rp)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "server_url")
}
