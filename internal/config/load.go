package config

import (
	"errors"
	"fmt"
	"log/slog"
	"os"

	"github.com/BurntSushi/toml"
)

// Load reads and parses a TOML config file and returns the resulting
// Config. Unknown keys are treated as fatal errors with "did you mean?"
// suggestions.
func Load(path string, logger *slog.Logger) (*Config, error) {
	logger.Debug("loading config file", "path", path)

	cfg := DefaultConfig()

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading config file %s: %w", path, err)
	}

	md, err := toml.Decode(string(data), cfg)
	if err != nil {
		return nil, fmt.Errorf("parsing config file %s: %w", path, err)
	}

	if err := checkUnknownKeys(&md); err != nil {
		return nil, err
	}

	if err := Validate(cfg); err != nil {
		return nil, fmt.Errorf("config validation failed: %w", err)
	}

	logger.Debug("config file parsed successfully", "path", path, "profile_count", len(cfg.Profiles))

	return cfg, nil
}

// LoadOrDefault reads a TOML config file if it exists, otherwise returns a
// Config populated with all default values. This supports the zero-config
// first-run experience.
func LoadOrDefault(path string, logger *slog.Logger) (*Config, error) {
	if _, err := os.Stat(path); errors.Is(err, os.ErrNotExist) {
		logger.Debug("config file not found, using defaults", "path", path)

		return DefaultConfig(), nil
	}

	return Load(path, logger)
}

// CLIOverrides holds values resolved from command-line flags, taking
// precedence over both the config file and environment variables.
type CLIOverrides struct {
	ConfigPath string
	Profile    string
	DryRun     *bool
}

// ResolveProfileConfig loads the config file and applies the three-layer
// override chain: defaults -> config file -> environment variables -> CLI
// flags. It returns the fully resolved profile and the raw parsed config
// (needed by callers that build a remotetree.Client token source against
// other profiles sharing state).
func ResolveProfileConfig(env EnvOverrides, cli CLIOverrides, logger *slog.Logger) (*ResolvedProfile, *Config, error) {
	cfgPath := ResolveConfigPath(env, cli, logger)

	cfg, err := LoadOrDefault(cfgPath, logger)
	if err != nil {
		return nil, nil, fmt.Errorf("loading config: %w", err)
	}

	profileName := env.Profile
	if cli.Profile != "" {
		profileName = cli.Profile
	}

	resolved, err := ResolveProfile(cfg, profileName)
	if err != nil {
		return nil, nil, err
	}

	if cli.DryRun != nil {
		resolved.Sync.DryRun = *cli.DryRun
		logger.Debug("CLI override applied", "dry_run", resolved.Sync.DryRun)
	}

	if err := ValidateResolved(resolved); err != nil {
		return nil, nil, fmt.Errorf("config validation: %w", err)
	}

	return resolved, cfg, nil
}

// ResolveConfigPath determines the config file path using the three-layer
// priority: CLI flag > environment variable > platform default.
func ResolveConfigPath(env EnvOverrides, cli CLIOverrides, logger *slog.Logger) string {
	cfgPath := DefaultConfigPath()
	source := "default"

	if env.ConfigPath != "" {
		cfgPath = env.ConfigPath
		source = "env"
	}

	if cli.ConfigPath != "" {
		cfgPath = cli.ConfigPath
		source = "cli"
	}

	logger.Debug("config path resolved", "path", cfgPath, "source", source)

	return cfgPath
}
