package config

import (
	"errors"
	"fmt"
	"net/url"
	"path/filepath"
	"time"
)

// Validation bounds.
const (
	minPollInterval    = 10 * time.Second
	minShutdownTimeout = 1 * time.Second
	minConnectTimeout  = 1 * time.Second
	minDataTimeout     = 5 * time.Second
)

// Validate checks all configuration values and returns every error found,
// rather than stopping at the first, so users see a complete report and can
// fix all issues in one pass.
func Validate(cfg *Config) error {
	var errs []error

	errs = append(errs, validateProfiles(cfg.Profiles)...)
	errs = append(errs, validateSync(&cfg.Sync)...)
	errs = append(errs, validateLogging(&cfg.Logging)...)
	errs = append(errs, validateNetwork(&cfg.Network)...)

	return errors.Join(errs...)
}

// ValidateResolved checks cross-field constraints on a fully resolved
// profile, after the defaults -> file -> env -> CLI override chain has been
// applied.
func ValidateResolved(rp *ResolvedProfile) error {
	var errs []error

	if rp.LocalPath != "" && !filepath.IsAbs(rp.LocalPath) {
		errs = append(errs, fmt.Errorf("local_path: must be absolute after expansion, got %q", rp.LocalPath))
	}

	if rp.ServerURL != "" {
		if u, err := url.Parse(rp.ServerURL); err != nil || u.Scheme == "" || u.Host == "" {
			errs = append(errs, fmt.Errorf("server_url: must be an absolute URL, got %q", rp.ServerURL))
		}
	}

	return errors.Join(errs...)
}

func validateProfiles(profiles map[string]Profile) []error {
	var errs []error

	for name := range profiles {
		p := profiles[name]

		if p.LocalPath == "" {
			errs = append(errs, fmt.Errorf("profile.%s.local_path: must not be empty", name))
		}

		if p.ServerURL == "" {
			errs = append(errs, fmt.Errorf("profile.%s.server_url: must not be empty", name))
		} else if u, err := url.Parse(p.ServerURL); err != nil || u.Scheme == "" || u.Host == "" {
			errs = append(errs, fmt.Errorf("profile.%s.server_url: must be an absolute URL, got %q", name, p.ServerURL))
		}

		if p.Sync != nil {
			errs = append(errs, validateSync(p.Sync)...)
		}

		if p.Logging != nil {
			errs = append(errs, validateLogging(p.Logging)...)
		}

		if p.Network != nil {
			errs = append(errs, validateNetwork(p.Network)...)
		}
	}

	return errs
}

func validateSync(s *SyncConfig) []error {
	var errs []error

	errs = append(errs, validateDurationMin("poll_interval", s.PollInterval, minPollInterval)...)
	errs = append(errs, validateDurationMin("shutdown_timeout", s.ShutdownTimeout, minShutdownTimeout)...)

	return errs
}

func validateDuration(field, value string, minimum time.Duration) error {
	d, err := time.ParseDuration(value)
	if err != nil {
		return fmt.Errorf("%s: invalid duration %q: %w", field, value, err)
	}

	if d < minimum {
		return fmt.Errorf("%s: must be >= %s, got %s", field, minimum, d)
	}

	return nil
}

func validateDurationMin(field, value string, minimum time.Duration) []error {
	if err := validateDuration(field, value, minimum); err != nil {
		return []error{err}
	}

	return nil
}

func validateLogging(l *LoggingConfig) []error {
	var errs []error

	errs = append(errs, validateLogLevel(l.LogLevel)...)
	errs = append(errs, validateLogFormat(l.LogFormat)...)

	return errs
}

var validLogLevels = map[string]bool{
	"debug": true,
	"info":  true,
	"warn":  true,
	"error": true,
}

func validateLogLevel(level string) []error {
	if !validLogLevels[level] {
		return []error{fmt.Errorf("log_level: must be one of debug, info, warn, error; got %q", level)}
	}

	return nil
}

var validLogFormats = map[string]bool{
	"auto": true,
	"text": true,
	"json": true,
}

func validateLogFormat(format string) []error {
	if !validLogFormats[format] {
		return []error{fmt.Errorf("log_format: must be one of auto, text, json; got %q", format)}
	}

	return nil
}

func validateNetwork(n *NetworkConfig) []error {
	var errs []error

	errs = append(errs, validateDurationMin("connect_timeout", n.ConnectTimeout, minConnectTimeout)...)
	errs = append(errs, validateDurationMin("data_timeout", n.DataTimeout, minDataTimeout)...)

	return errs
}
