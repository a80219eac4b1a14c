package install

import (
	"encoding/json"
	"os"
	"path/filepath"
	"testing"
)

func TestInstallCreatesSettings(t *testing.T) {
	path := SettingsPath(t.TempDir())

	changed, err := Install(path, "")
	if err != nil {
		t.Fatalf("Install: %v", err)
	}
	if !changed {
		t.Error("first install should change the file")
	}
	if !IsInstalled(path, DefaultCommand) {
		t.Error("command not registered")
	}
}

func TestInstallIsIdempotent(t *testing.T) {
	path := SettingsPath(t.TempDir())
	if _, err := Install(path, "trackhook hook"); err != nil {
		t.Fatal(err)
	}
	first, _ := os.ReadFile(path)

	changed, err := Install(path, "trackhook hook")
	if err != nil {
		t.Fatalf("second Install: %v", err)
	}
	if changed {
		t.Error("second install should be a no-op")
	}
	second, _ := os.ReadFile(path)
	if string(first) != string(second) {
		t.Error("settings changed on second install")
	}
}

func TestInstallPreservesExistingKeys(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "settings.json")
	existing := `{
  "permissions": {"allow": ["Bash(go test:*)"]},
  "hooks": {"PostToolUse": [{"matcher": "Edit", "hooks": [{"type": "command", "command": "gofmt-hook"}]}]}
}`
	if err := os.WriteFile(path, []byte(existing), 0o644); err != nil {
		t.Fatal(err)
	}

	if _, err := Install(path, DefaultCommand); err != nil {
		t.Fatalf("Install: %v", err)
	}

	data, _ := os.ReadFile(path)
	var settings map[string]any
	if err := json.Unmarshal(data, &settings); err != nil {
		t.Fatalf("settings no longer JSON: %v", err)
	}
	if _, ok := settings["permissions"]; !ok {
		t.Error("permissions key dropped")
	}
	entries := settings["hooks"].(map[string]any)["PostToolUse"].([]any)
	if len(entries) != 2 {
		t.Errorf("PostToolUse entries = %d, want 2", len(entries))
	}
	if !IsInstalled(path, "gofmt-hook") || !IsInstalled(path, DefaultCommand) {
		t.Error("expected both hooks registered")
	}
}

func TestInstallRejectsMalformedSettings(t *testing.T) {
	path := filepath.Join(t.TempDir(), "settings.json")
	if err := os.WriteFile(path, []byte("{nope"), 0o644); err != nil {
		t.Fatal(err)
	}
	if _, err := Install(path, DefaultCommand); err == nil {
		t.Fatal("expected error for malformed settings")
	}
	data, _ := os.ReadFile(path)
	if string(data) != "{nope" {
		t.Error("malformed settings must be left alone")
	}
}
