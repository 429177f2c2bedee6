package config

import (
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
)

// configFilePermissions is the standard permission mode for config files.
const configFilePermissions = 0o644

// configDirPermissions is the standard permission mode for config
// directories.
const configDirPermissions = 0o755

// configTemplate is the default config file content written on first setup.
// Global settings are present as commented-out defaults so users can
// discover every option without reading docs. Written once and never
// regenerated — user modifications are preserved by subsequent line-based
// edits.
const configTemplate = `# bkmsync configuration
# Docs: https://github.com/tonimelisma/bkmsync

# ── Global settings ──
# Uncomment and modify to override defaults.

# [logging]
# Log file verbosity: debug, info, warn, error
# log_level = "info"

# [sync]
# Check interval for sync --watch
# poll_interval = "5m"

# ── Profiles ──
# Each section pairs one local bookmark file with one server.
`

// profileSection generates the TOML text for a new profile section.
func profileSection(name, localPath, serverURL string) string {
	return fmt.Sprintf("\n[profile.%s]\nlocal_path = %q\nserver_url = %q\n", name, localPath, serverURL)
}

// CreateConfigWithProfile creates a new config file from the default
// template and appends a profile section. The write is atomic and parent
// directories are created as needed.
func CreateConfigWithProfile(path, name, localPath, serverURL string) error {
	slog.Info("creating config file with profile", "path", path, "profile", name)

	content := configTemplate + profileSection(name, localPath, serverURL)

	return atomicWriteFile(path, []byte(content))
}

// AppendProfileSection appends a new profile section at the end of an
// existing config file.
func AppendProfileSection(path, name, localPath, serverURL string) error {
	slog.Info("appending profile section to config", "path", path, "profile", name)

	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("reading config file: %w", err)
	}

	content := string(data)
	if content != "" && !strings.HasSuffix(content, "\n") {
		content += "\n"
	}

	content += profileSection(name, localPath, serverURL)

	return atomicWriteFile(path, []byte(content))
}

// SetProfileKey finds a profile section by name and sets a key-value pair.
// If the key already exists within the section, its line is replaced. If
// not found, the key is inserted on the line after the section header.
//
// Value formatting: booleans ("true"/"false") are written without quotes;
// all other values are written as quoted strings.
func SetProfileKey(path, name, key, value string) error {
	slog.Info("setting profile key in config", "path", path, "profile", name, "key", key)

	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("reading config file: %w", err)
	}

	lines := strings.Split(string(data), "\n")

	headerLine, sectionStart := findSectionHeader(lines, name)
	if sectionStart < 0 {
		return fmt.Errorf("profile section %q not found in config", name)
	}

	newLine := fmt.Sprintf("%s = %s", key, formatTOMLValue(value))
	lines = setKeyInSection(lines, headerLine, sectionStart, key, newLine)

	return atomicWriteFile(path, []byte(strings.Join(lines, "\n")))
}

// DeleteProfileKey removes a single key from a profile section. Idempotent.
func DeleteProfileKey(path, name, key string) error {
	slog.Info("deleting profile key from config", "path", path, "profile", name, "key", key)

	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("reading config file: %w", err)
	}

	lines := strings.Split(string(data), "\n")

	headerLine, sectionStart := findSectionHeader(lines, name)
	if sectionStart < 0 {
		return fmt.Errorf("profile section %q not found in config", name)
	}

	lines = deleteKeyInSection(lines, headerLine, sectionStart, key)

	return atomicWriteFile(path, []byte(strings.Join(lines, "\n")))
}

// DeleteProfileSection removes a profile section (header + all keys) from
// the config file, along with any blank lines immediately preceding it.
func DeleteProfileSection(path, name string) error {
	slog.Info("deleting profile section from config", "path", path, "profile", name)

	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("reading config file: %w", err)
	}

	lines := strings.Split(string(data), "\n")

	headerLine, sectionStart := findSectionHeader(lines, name)
	if sectionStart < 0 {
		return fmt.Errorf("profile section %q not found in config", name)
	}

	sectionEnd := findSectionEnd(lines, sectionStart)

	blankStart := headerLine
	for blankStart > 0 && strings.TrimSpace(lines[blankStart-1]) == "" {
		blankStart--
	}

	lines = append(lines[:blankStart], lines[sectionEnd:]...)

	return atomicWriteFile(path, []byte(strings.Join(lines, "\n")))
}

// findSectionHeader locates the line index of a "[profile.NAME]" header.
// Returns the header line index and the section content start (header + 1),
// or -1, -1 if not found.
func findSectionHeader(lines []string, name string) (int, int) {
	header := "[profile." + name + "]"

	for i, line := range lines {
		if strings.TrimSpace(line) == header {
			return i, i + 1
		}
	}

	return -1, -1
}

// findSectionEnd returns the index of the first line after the section's
// own content, excluding trailing blank lines and comments that belong to
// the next section's preamble.
func findSectionEnd(lines []string, sectionStart int) int {
	nextHeader := len(lines)

	for i := sectionStart; i < len(lines); i++ {
		if strings.HasPrefix(strings.TrimSpace(lines[i]), "[") {
			nextHeader = i

			break
		}
	}

	end := nextHeader
	for end > sectionStart {
		trimmed := strings.TrimSpace(lines[end-1])
		if trimmed == "" || strings.HasPrefix(trimmed, "#") {
			end--

			continue
		}

		break
	}

	return end
}

func deleteKeyInSection(lines []string, headerLine, sectionStart int, key string) []string {
	sectionEnd := findSectionEnd(lines, sectionStart)
	keyPrefix, keyPrefixEq := key+" ", key+"="

	for i := headerLine + 1; i < sectionEnd; i++ {
		trimmed := strings.TrimSpace(lines[i])
		if strings.HasPrefix(trimmed, keyPrefix) || strings.HasPrefix(trimmed, keyPrefixEq) {
			return append(lines[:i], lines[i+1:]...)
		}
	}

	return lines
}

func setKeyInSection(lines []string, headerLine, sectionStart int, key, newLine string) []string {
	sectionEnd := findSectionEnd(lines, sectionStart)
	keyPrefix, keyPrefixEq := key+" ", key+"="

	for i := headerLine + 1; i < sectionEnd; i++ {
		trimmed := strings.TrimSpace(lines[i])
		if strings.HasPrefix(trimmed, keyPrefix) || strings.HasPrefix(trimmed, keyPrefixEq) {
			lines[i] = newLine

			return lines
		}
	}

	inserted := make([]string, 0, len(lines)+1)
	inserted = append(inserted, lines[:headerLine+1]...)
	inserted = append(inserted, newLine)
	inserted = append(inserted, lines[headerLine+1:]...)

	return inserted
}

// formatTOMLValue formats a value for TOML output. Booleans are written
// bare (true/false); all other values are quoted strings.
func formatTOMLValue(value string) string {
	if value == "true" || value == "false" {
		return value
	}

	return fmt.Sprintf("%q", value)
}

// atomicWriteFile writes data to a temporary file in the same directory as
// path, then renames it to the target path, so a crash mid-write cannot
// corrupt the config file. Parent directories are created as needed.
func atomicWriteFile(path string, data []byte) error {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, configDirPermissions); err != nil {
		return fmt.Errorf("creating config directory: %w", err)
	}

	f, err := os.CreateTemp(dir, ".config-*.tmp")
	if err != nil {
		return fmt.Errorf("creating temp file: %w", err)
	}

	tempPath := f.Name()

	succeeded := false
	defer func() {
		if !succeeded {
			os.Remove(tempPath)
		}
	}()

	if _, err := f.Write(data); err != nil {
		f.Close()

		return fmt.Errorf("writing temp file: %w", err)
	}

	if err := f.Sync(); err != nil {
		f.Close()

		return fmt.Errorf("syncing temp file: %w", err)
	}

	if err := f.Close(); err != nil {
		return fmt.Errorf("closing temp file: %w", err)
	}

	if err := os.Chmod(tempPath, configFilePermissions); err != nil {
		return fmt.Errorf("setting file permissions: %w", err)
	}

	if err := os.Rename(tempPath, path); err != nil {
		return fmt.Errorf("renaming temp file: %w", err)
	}

	succeeded = true

	return nil
}
