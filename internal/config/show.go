package config

import (
	"fmt"
	"io"
)

// RenderEffective writes the resolved configuration as a human-readable
// annotated summary to w. This powers the "config show" command, giving
// users visibility into the effective values after the full
// defaults -> file -> env -> CLI override chain has been applied.
func RenderEffective(rp *ResolvedProfile, w io.Writer) error {
	ew := &errWriter{w: w}

	ew.printf("# Effective configuration for profile %q\n\n", rp.Name)

	renderProfileSection(ew, rp)
	renderSyncSection(ew, &rp.Sync)
	renderLoggingSection(ew, &rp.Logging)
	renderNetworkSection(ew, &rp.Network)

	return ew.err
}

// errWriter wraps an io.Writer and captures the first write error.
// Subsequent writes after an error are no-ops, so callers can chain
// printf calls without checking each one individually.
type errWriter struct {
	w   io.Writer
	err error
}

func (ew *errWriter) printf(format string, args ...any) {
	if ew.err != nil {
		return
	}

	_, ew.err = fmt.Fprintf(ew.w, format, args...)
}

func renderProfileSection(ew *errWriter, rp *ResolvedProfile) {
	ew.printf("[profile]\n")
	ew.printf("  name       = %q\n", rp.Name)
	ew.printf("  local_path = %q\n", rp.LocalPath)
	ew.printf("  server_url = %q\n", rp.ServerURL)
	ew.printf("  token_file = %q\n", rp.TokenFile)
	ew.printf("  db_path    = %q\n", rp.DBPath)
	ew.printf("\n")
}

func renderSyncSection(ew *errWriter, s *SyncConfig) {
	ew.printf("[sync]\n")
	ew.printf("  poll_interval    = %q\n", s.PollInterval)
	ew.printf("  websocket        = %t\n", s.Websocket)
	ew.printf("  dry_run          = %t\n", s.DryRun)
	ew.printf("  shutdown_timeout = %q\n", s.ShutdownTimeout)
	ew.printf("\n")
}

func renderLoggingSection(ew *errWriter, l *LoggingConfig) {
	ew.printf("[logging]\n")
	ew.printf("  log_level  = %q\n", l.LogLevel)

	if l.LogFile != "" {
		ew.printf("  log_file   = %q\n", l.LogFile)
	}

	ew.printf("  log_format = %q\n", l.LogFormat)
	ew.printf("\n")
}

func renderNetworkSection(ew *errWriter, n *NetworkConfig) {
	ew.printf("[network]\n")
	ew.printf("  connect_timeout = %q\n", n.ConnectTimeout)
	ew.printf("  data_timeout    = %q\n", n.DataTimeout)

	if n.UserAgent != "" {
		ew.printf("  user_agent      = %q\n", n.UserAgent)
	}
}
