package config

// Default values for configuration options, the "layer 0" of the
// defaults -> file -> env -> CLI override chain.
const (
	defaultPollInterval    = "5m"
	defaultShutdownTimeout = "30s"
	defaultLogLevel        = "info"
	defaultLogFormat       = "auto"
	defaultConnectTimeout  = "10s"
	defaultDataTimeout     = "60s"
)

// DefaultConfig returns a Config populated with all default values. Used
// both as the starting point for TOML decoding (so unset fields retain
// defaults) and as the fallback when no config file exists.
func DefaultConfig() *Config {
	return &Config{
		Profiles: make(map[string]Profile),
		Sync:     defaultSyncConfig(),
		Logging:  defaultLoggingConfig(),
		Network:  defaultNetworkConfig(),
	}
}

func defaultSyncConfig() SyncConfig {
	return SyncConfig{
		PollInterval:    defaultPollInterval,
		Websocket:       true,
		ShutdownTimeout: defaultShutdownTimeout,
	}
}

func defaultLoggingConfig() LoggingConfig {
	return LoggingConfig{
		LogLevel:  defaultLogLevel,
		LogFormat: defaultLogFormat,
	}
}

func defaultNetworkConfig() NetworkConfig {
	return NetworkConfig{
		ConnectTimeout: defaultConnectTimeout,
		DataTimeout:    defaultDataTimeout,
	}
}
