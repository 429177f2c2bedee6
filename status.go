package main

import (
	"encoding/json"
	"fmt"
	"os"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/tonimelisma/bkmsync/internal/config"
	"github.com/tonimelisma/bkmsync/internal/engine"
)

// Token and lock state constants for status reporting.
const (
	tokenStateMissing = "missing"
	tokenStateValid   = "valid"

	lockStateFree    = "free"
	lockStateHeld    = "held"
	lockStateStale   = "stale"
	lockStateUnknown = "unknown"
)

func newStatusCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "status",
		Short: "Show token and lock status for the active profile",
		Long: `Display whether the profile's OAuth token is present and the sync
lock is currently held by a running sync.`,
		RunE: runStatus,
	}
}

// statusReport is the JSON/text output schema for the status command.
type statusReport struct {
	Profile      string `json:"profile"`
	LocalPath    string `json:"local_path"`
	ServerURL    string `json:"server_url"`
	TokenState   string `json:"token_state"`
	LockState    string `json:"lock_state"`
	LockPID      int    `json:"lock_pid,omitempty"`
	LastSyncTime string `json:"last_sync_time,omitempty"`
}

func runStatus(cmd *cobra.Command, _ []string) error {
	cc := mustCLIContext(cmd.Context())
	rp := cc.Profile

	report := statusReport{
		Profile:    rp.Name,
		LocalPath:  rp.LocalPath,
		ServerURL:  rp.ServerURL,
		TokenState: tokenState(rp.TokenFile),
	}

	report.LockState, report.LockPID = lockState(config.ProfileLockPath(rp.Name))
	report.LastSyncTime = lastSyncTime(rp.DBPath)

	if cc.JSON {
		return printStatusJSON(report)
	}

	printStatusText(report)

	return nil
}

// tokenState reports whether a usable OAuth token is cached for the profile.
// A token file that fails to load or parse is reported the same as a
// missing one: either way, the next sync will need to re-authenticate.
func tokenState(tokenFile string) string {
	if _, err := config.LoadToken(tokenFile); err != nil {
		return tokenStateMissing
	}

	return tokenStateValid
}

// lockState reports whether the profile's sync lock is currently held, and
// by which PID, by reading the lock file left behind by the last run.
// Because the lock file only disappears when a run exits cleanly, a PID that
// is no longer alive indicates a stale lock from a crashed run.
func lockState(lockPath string) (state string, pid int) {
	pid, err := engine.ReadLockPID(lockPath)
	if err != nil {
		return lockStateFree, 0
	}

	if processAlive(pid) {
		return lockStateHeld, pid
	}

	return lockStateStale, pid
}

// lastSyncTime approximates when the profile last synced from the mapping
// database's modification time — every AddMapping/RemoveMapping call
// touches it, as does the schema migration when the store is first opened.
// Only a database file that does not exist yet yields "".
func lastSyncTime(dbPath string) string {
	info, err := os.Stat(dbPath)
	if err != nil {
		return ""
	}

	return formatTime(info.ModTime())
}

// processAlive reports whether pid refers to a running process, using
// signal 0 which performs permission and existence checks without actually
// sending a signal.
func processAlive(pid int) bool {
	proc, err := os.FindProcess(pid)
	if err != nil {
		return false
	}

	return proc.Signal(syscall.Signal(0)) == nil
}

func printStatusJSON(report statusReport) error {
	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")

	if err := enc.Encode(report); err != nil {
		return fmt.Errorf("encoding JSON output: %w", err)
	}

	return nil
}

func printStatusText(report statusReport) {
	fmt.Printf("Profile:     %s\n", report.Profile)
	fmt.Printf("Local path:  %s\n", report.LocalPath)
	fmt.Printf("Server URL:  %s\n", report.ServerURL)
	fmt.Printf("Token:       %s\n", report.TokenState)

	if report.LastSyncTime != "" {
		fmt.Printf("Last sync:   %s\n", report.LastSyncTime)
	}

	switch report.LockState {
	case lockStateHeld:
		fmt.Printf("Lock:        held by pid %d\n", report.LockPID)
	case lockStateStale:
		fmt.Printf("Lock:        stale (pid %d no longer running)\n", report.LockPID)
	default:
		fmt.Printf("Lock:        %s\n", report.LockState)
	}
}
