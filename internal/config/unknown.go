package config

import (
	"errors"
	"fmt"
	"sort"
	"strings"

	"github.com/BurntSushi/toml"
)

// maxLevenshteinDistance is the maximum edit distance for "did you mean?"
// suggestions when unknown config keys are detected.
const maxLevenshteinDistance = 3

// knownGlobalKeys are the valid flat top-level keys in the config file.
var knownGlobalKeys = map[string]bool{
	"poll_interval": true, "websocket": true, "dry_run": true, "shutdown_timeout": true,
	"log_level": true, "log_file": true, "log_format": true,
	"connect_timeout": true, "data_timeout": true, "user_agent": true,
}

var knownGlobalKeysList = sortedKeys(knownGlobalKeys)

// knownProfileKeys are the valid keys inside a [profile.NAME] section.
var knownProfileKeys = map[string]bool{
	"local_path": true, "server_url": true, "token_file": true, "db_path": true,
}

var knownProfileKeysList = sortedKeys(knownProfileKeys)

func sortedKeys(m map[string]bool) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}

	sort.Strings(keys)

	return keys
}

// checkUnknownKeys inspects TOML metadata for undecoded keys and returns an
// error with "did you mean?" suggestions for each unknown key.
func checkUnknownKeys(md *toml.MetaData) error {
	undecoded := md.Undecoded()
	if len(undecoded) == 0 {
		return nil
	}

	var errs []error

	for _, key := range undecoded {
		if err := buildUnknownKeyError(key.String()); err != nil {
			errs = append(errs, err)
		}
	}

	return errors.Join(errs...)
}

// buildUnknownKeyError classifies a dotted TOML key path as either a
// top-level global key or a key within a [profile.NAME] section, and
// returns a descriptive error with a suggestion when a known key is within
// maxLevenshteinDistance edits of it.
func buildUnknownKeyError(keyStr string) error {
	parts := strings.Split(keyStr, ".")

	if parts[0] == "profile" && len(parts) >= 3 {
		field := parts[len(parts)-1]
		if knownProfileKeys[field] {
			return nil
		}

		suggestion := closestMatch(field, knownProfileKeysList)
		if suggestion != "" {
			return fmt.Errorf("unknown key %q in profile %q — did you mean %q?", field, parts[1], suggestion)
		}

		return fmt.Errorf("unknown key %q in profile %q", field, parts[1])
	}

	field := parts[0]
	if knownGlobalKeys[field] {
		return nil
	}

	suggestion := closestMatch(field, knownGlobalKeysList)
	if suggestion != "" {
		return fmt.Errorf("unknown config key %q — did you mean %q?", field, suggestion)
	}

	return fmt.Errorf("unknown config key %q", field)
}

// closestMatch finds the closest known key by Levenshtein distance. Returns
// empty string if no match is within maxLevenshteinDistance.
func closestMatch(unknown string, known []string) string {
	best := ""
	bestDist := maxLevenshteinDistance + 1

	for _, k := range known {
		d := levenshtein(unknown, k)
		if d < bestDist {
			bestDist = d
			best = k
		}
	}

	if bestDist <= maxLevenshteinDistance {
		return best
	}

	return ""
}

// levenshtein computes the edit distance between two strings.
func levenshtein(a, b string) int {
	if a == "" {
		return len(b)
	}

	if b == "" {
		return len(a)
	}

	prev := make([]int, len(b)+1)
	curr := make([]int, len(b)+1)

	for j := range prev {
		prev[j] = j
	}

	for i := range len(a) {
		curr[0] = i + 1

		for j := range len(b) {
			cost := 1
			if a[i] == b[j] {
				cost = 0
			}

			curr[j+1] = minOf(curr[j]+1, prev[j+1]+1, prev[j]+cost)
		}

		prev, curr = curr, prev
	}

	return prev[len(b)]
}

func minOf(a, b, c int) int {
	m := a
	if b < m {
		m = b
	}

	if c < m {
		m = c
	}

	return m
}
