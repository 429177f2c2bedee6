package main

import (
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	"github.com/dustin/go-humanize"
	"github.com/mattn/go-isatty"
)

// statusf prints a status message to stderr unless quiet mode is set.
func statusf(quiet bool, format string, args ...any) {
	if !quiet {
		fmt.Fprintf(os.Stderr, format, args...)
	}
}

// Statusf is the method form of statusf, avoiding threading `quiet bool`
// through call chains.
func (cc *CLIContext) Statusf(format string, args ...any) {
	statusf(cc.Quiet, format, args...)
}

// formatDuration returns a human-readable duration rounded to a sensible
// precision (e.g. "1.2s", "340ms").
func formatDuration(d time.Duration) string {
	switch {
	case d >= time.Second:
		return d.Round(10 * time.Millisecond).String()
	default:
		return d.Round(time.Millisecond).String()
	}
}

// formatCount formats an item count with thousands separators.
func formatCount(n int) string {
	return humanize.Comma(int64(n))
}

// formatTime returns a relative timestamp ("3 days ago") when connected to
// an interactive terminal, or an absolute RFC3339 timestamp otherwise — a
// piped or redirected output (cron, logs) wants a timestamp that doesn't go
// stale the moment it's read back.
func formatTime(t time.Time) string {
	if isatty.IsTerminal(os.Stderr.Fd()) {
		return humanize.Time(t)
	}

	return t.Format(time.RFC3339)
}

// printTable writes aligned columns to the given writer.
func printTable(w io.Writer, headers []string, rows [][]string) {
	widths := make([]int, len(headers))
	for i, h := range headers {
		widths[i] = len(h)
	}

	for _, row := range rows {
		for i, cell := range row {
			if len(cell) > widths[i] {
				widths[i] = len(cell)
			}
		}
	}

	printRow(w, headers, widths)

	for _, row := range rows {
		printRow(w, row, widths)
	}
}

func printRow(w io.Writer, cells []string, widths []int) {
	parts := make([]string, len(cells))
	for i, cell := range cells {
		parts[i] = fmt.Sprintf("%-*s", widths[i], cell)
	}

	fmt.Fprintln(w, strings.Join(parts, "  "))
}
