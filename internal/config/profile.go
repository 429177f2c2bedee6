package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

// defaultProfileName is selected when --profile is omitted and the config
// defines exactly one profile, or one literally named "default".
const defaultProfileName = "default"

// Profile pairs one local bookmark file with one server endpoint within a
// TOML config file. Per-profile section overrides (e.g. [profile.work.sync])
// completely replace the corresponding global section — individual fields
// are not merged.
type Profile struct {
	LocalPath string `toml:"local_path"`
	ServerURL string `toml:"server_url"`
	TokenFile string `toml:"token_file"`
	DBPath    string `toml:"db_path,omitempty"`

	Sync    *SyncConfig    `toml:"sync,omitempty"`
	Logging *LoggingConfig `toml:"logging,omitempty"`
	Network *NetworkConfig `toml:"network,omitempty"`
}

// ResolvedProfile is a profile plus its effective section values after
// merging global defaults with profile-specific overrides — the final
// product consumed by the CLI and Engine.
type ResolvedProfile struct {
	Name      string
	LocalPath string
	ServerURL string
	TokenFile string
	DBPath    string

	Sync    SyncConfig
	Logging LoggingConfig
	Network NetworkConfig
}

// ResolveProfile merges global defaults with profile-specific overrides. If
// profileName is empty, the default profile is selected. Section-level
// override semantics are "replace, not merge": if a profile defines
// [profile.work.sync], that entire SyncConfig replaces the global one.
func ResolveProfile(cfg *Config, profileName string) (*ResolvedProfile, error) {
	name, err := resolveProfileName(cfg, profileName)
	if err != nil {
		return nil, err
	}

	profile := cfg.Profiles[name]

	resolved := &ResolvedProfile{
		Name:      name,
		LocalPath: expandTilde(profile.LocalPath),
		ServerURL: profile.ServerURL,
		TokenFile: expandTilde(profile.TokenFile),
		DBPath:    expandTilde(profile.DBPath),
	}

	if resolved.DBPath == "" {
		resolved.DBPath = ProfileDBPath(name)
	}

	if resolved.TokenFile == "" {
		resolved.TokenFile = ProfileTokenPath(name)
	}

	resolved.Sync = resolveSection(profile.Sync, cfg.Sync)
	resolved.Logging = resolveSection(profile.Logging, cfg.Logging)
	resolved.Network = resolveSection(profile.Network, cfg.Network)

	return resolved, nil
}

// resolveSection returns the profile override if present, otherwise the
// global value.
func resolveSection[T any](profileOverride *T, global T) T {
	if profileOverride != nil {
		return *profileOverride
	}

	return global
}

func resolveProfileName(cfg *Config, profileName string) (string, error) {
	if len(cfg.Profiles) == 0 {
		return "", fmt.Errorf("no profiles defined in config")
	}

	if profileName != "" {
		return lookupExplicitProfile(cfg, profileName)
	}

	return lookupDefaultProfile(cfg)
}

func lookupExplicitProfile(cfg *Config, name string) (string, error) {
	if _, ok := cfg.Profiles[name]; !ok {
		return "", fmt.Errorf("profile %q not found in config", name)
	}

	return name, nil
}

func lookupDefaultProfile(cfg *Config) (string, error) {
	if _, ok := cfg.Profiles[defaultProfileName]; ok {
		return defaultProfileName, nil
	}

	if len(cfg.Profiles) == 1 {
		for name := range cfg.Profiles {
			return name, nil
		}
	}

	return "", fmt.Errorf(
		"multiple profiles defined but none named %q; use --profile to select one",
		defaultProfileName)
}

// expandTilde replaces a leading "~/" with the user's home directory.
func expandTilde(path string) string {
	if !strings.HasPrefix(path, "~/") {
		return path
	}

	home, err := os.UserHomeDir()
	if err != nil {
		return path
	}

	return filepath.Join(home, path[2:])
}

// ProfileDBPath returns the default mapping-store database path for a
// profile: {dataDir}/state/{profile}.db.
func ProfileDBPath(profileName string) string {
	dataDir := DefaultDataDir()
	if dataDir == "" {
		return ""
	}

	return filepath.Join(dataDir, "state", profileName+".db")
}

// ProfileTokenPath returns the default OAuth token cache path for a
// profile: {configDir}/tokens/{profile}.json.
func ProfileTokenPath(profileName string) string {
	configDir := DefaultConfigDir()
	if configDir == "" {
		return ""
	}

	return filepath.Join(configDir, "tokens", profileName+".json")
}

// ProfileLockPath returns the single-instance lock file path for a profile's
// sync run: {dataDir}/state/{profile}.lock.
func ProfileLockPath(profileName string) string {
	dataDir := DefaultDataDir()
	if dataDir == "" {
		return ""
	}

	return filepath.Join(dataDir, "state", profileName+".lock")
}
