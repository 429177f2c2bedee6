// Package config implements TOML configuration loading, validation, and
// platform-specific path resolution for bkmsync.
package config

// Config is the top-level configuration structure: a set of named profiles,
// each pairing one local bookmark file with one server, plus global section
// defaults every profile inherits unless it overrides them.
type Config struct {
	Profiles map[string]Profile `toml:"profile"`
	Sync     SyncConfig         `toml:"sync"`
	Logging  LoggingConfig      `toml:"logging"`
	Network  NetworkConfig      `toml:"network"`
}

// SyncConfig controls how and how often Engine.Run is invoked.
type SyncConfig struct {
	PollInterval    string `toml:"poll_interval"`
	Websocket       bool   `toml:"websocket"`
	DryRun          bool   `toml:"dry_run"`
	ShutdownTimeout string `toml:"shutdown_timeout"`
}

// LoggingConfig controls log output behavior.
type LoggingConfig struct {
	LogLevel  string `toml:"log_level"`
	LogFile   string `toml:"log_file"`
	LogFormat string `toml:"log_format"`
}

// NetworkConfig controls the remotetree HTTP client.
type NetworkConfig struct {
	ConnectTimeout string `toml:"connect_timeout"`
	DataTimeout    string `toml:"data_timeout"`
	UserAgent      string `toml:"user_agent"`
}
