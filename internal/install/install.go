// Package install registers the tracker as a PostToolUse hook in the host's
// project settings file.
package install

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
)

// DefaultCommand is the hook command written into settings.
const DefaultCommand = "trackhook hook"

const (
	hookEvent   = "PostToolUse"
	allMatcher  = "*"
	commandType = "command"
)

// SettingsDir is where the host reads project settings from. It does not
// follow the tracker's state_dir.
const SettingsDir = ".claude"

// SettingsPath returns the host's project settings file for workDir.
func SettingsPath(workDir string) string {
	return filepath.Join(workDir, SettingsDir, "settings.json")
}

// IsInstalled reports whether command is already registered in the settings
// file at path.
func IsInstalled(path, command string) bool {
	settings, err := readSettings(path)
	if err != nil {
		return false
	}
	return hasCommand(settings, command)
}

// Install adds a PostToolUse entry running command to the settings file at
// path, creating the file if needed. Unknown keys are preserved. It reports
// whether the file changed; registering the same command twice is a no-op.
func Install(path, command string) (bool, error) {
	if command == "" {
		command = DefaultCommand
	}
	settings, err := readSettings(path)
	if err != nil {
		return false, err
	}
	if hasCommand(settings, command) {
		return false, nil
	}

	hooks, _ := settings["hooks"].(map[string]any)
	if hooks == nil {
		hooks = map[string]any{}
	}
	entries, _ := hooks[hookEvent].([]any)
	entries = append(entries, map[string]any{
		"matcher": allMatcher,
		"hooks": []any{
			map[string]any{"type": commandType, "command": command},
		},
	})
	hooks[hookEvent] = entries
	settings["hooks"] = hooks

	data, err := json.MarshalIndent(settings, "", "  ")
	if err != nil {
		return false, fmt.Errorf("encode settings: %w", err)
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return false, err
	}
	if err := os.WriteFile(path, append(data, '\n'), 0o644); err != nil {
		return false, fmt.Errorf("writing settings file: %w", err)
	}
	return true, nil
}

func readSettings(path string) (map[string]any, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return map[string]any{}, nil
		}
		return nil, err
	}
	settings := map[string]any{}
	if len(data) == 0 {
		return settings, nil
	}
	if err := json.Unmarshal(data, &settings); err != nil {
		return nil, fmt.Errorf("malformed settings at %s: %w", path, err)
	}
	return settings, nil
}

func hasCommand(settings map[string]any, command string) bool {
	hooks, _ := settings["hooks"].(map[string]any)
	entries, _ := hooks[hookEvent].([]any)
	for _, e := range entries {
		entry, _ := e.(map[string]any)
		inner, _ := entry["hooks"].([]any)
		for _, h := range inner {
			hook, _ := h.(map[string]any)
			if c, _ := hook["command"].(string); c == command {
				return true
			}
		}
	}
	return false
}
