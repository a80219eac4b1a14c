package cmd

import (
	"bytes"
	"encoding/json"
	"os"
	"path/filepath"
	"regexp"
	"strings"
	"testing"

	"github.com/spf13/cobra"

	"github.com/fakeyudi/trackhook/internal/install"
)

// resetFlags restores every flag variable, since cobra keeps values between
// executions of the same command tree.
func resetFlags() {
	dirFlag = ""
	debugFlag = false
	progressFormat = "markdown"
	progressStdout = false
	plainOutput = false
	setupCommand = install.DefaultCommand
}

// executeCommand runs a cobra command with the given args and captures combined output.
func executeCommand(root *cobra.Command, args ...string) (output string, err error) {
	resetFlags()
	buf := new(bytes.Buffer)
	root.SetOut(buf)
	root.SetErr(buf)
	root.SetIn(strings.NewReader(""))
	root.SetArgs(args)
	_, err = root.ExecuteC()
	return buf.String(), err
}

// executeHook feeds input to the hook command and returns stdout and stderr
// separately.
func executeHook(t *testing.T, dir, input string) (stdout, stderr string) {
	t.Helper()
	resetFlags()
	var out, errOut bytes.Buffer
	rootCmd.SetOut(&out)
	rootCmd.SetErr(&errOut)
	rootCmd.SetIn(strings.NewReader(input))
	rootCmd.SetArgs([]string{"hook", "--dir", dir})
	if _, err := rootCmd.ExecuteC(); err != nil {
		t.Fatalf("hook returned error: %v", err)
	}
	return out.String(), errOut.String()
}

// project returns a fresh project directory isolated from any user config.
func project(t *testing.T) string {
	t.Helper()
	t.Setenv("XDG_CONFIG_HOME", t.TempDir())
	t.Setenv("CLAUDE_SESSION_ID", "cmd-test")
	return t.TempDir()
}

func editEvent(path string) string {
	data, _ := json.Marshal(map[string]any{"tool_name": "Edit", "tool_input": map[string]any{"file_path": path}})
	return string(data)
}

func TestHookAcksEachEvent(t *testing.T) {
	dir := project(t)

	stdout, _ := executeHook(t, dir, editEvent(filepath.Join(dir, "main.go")))
	if stdout != "{}\n" {
		t.Errorf("stdout = %q, want {}", stdout)
	}

	data, err := os.ReadFile(filepath.Join(dir, ".claude", "activity.jsonl"))
	if err != nil {
		t.Fatalf("activity log missing: %v", err)
	}
	if !strings.Contains(string(data), `"session_id":"cmd-test"`) {
		t.Errorf("record lacks session id: %s", data)
	}
}

func TestHookMalformedInput(t *testing.T) {
	dir := project(t)
	stdout, _ := executeHook(t, dir, "{not json")

	var ack map[string]string
	if err := json.Unmarshal([]byte(stdout), &ack); err != nil {
		t.Fatalf("stdout is not one JSON object: %q", stdout)
	}
	if !strings.HasPrefix(ack["systemMessage"], "Activity tracker: ") {
		t.Errorf("ack = %v", ack)
	}
}

func TestHookSurvivesBrokenConfig(t *testing.T) {
	dir := project(t)
	if err := os.MkdirAll(filepath.Join(dir, ".claude"), 0o755); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(filepath.Join(dir, ".claude", "trackhook.yaml"), []byte("update_interval: [oops"), 0o644); err != nil {
		t.Fatal(err)
	}

	stdout, stderr := executeHook(t, dir, editEvent("/elsewhere/a.go"))
	if stdout != "{}\n" {
		t.Errorf("stdout = %q, want {}", stdout)
	}
	if !strings.Contains(stderr, "config ignored") {
		t.Errorf("expected a warning on stderr, got %q", stderr)
	}

	// Other commands report the broken file.
	if _, err := executeCommand(rootCmd, "status", "--dir", dir); err == nil {
		t.Error("status should fail on a malformed project config")
	}
}

func TestHookFifthActionReportsProgress(t *testing.T) {
	dir := project(t)
	var last string
	for i := 0; i < 5; i++ {
		last, _ = executeHook(t, dir, editEvent(filepath.Join(dir, "f.go")))
	}
	if !strings.Contains(last, "Progress updated (5 actions)") {
		t.Errorf("fifth ack = %q", last)
	}
	if _, err := os.Stat(filepath.Join(dir, ".claude", "LIVE-PROGRESS.md")); err != nil {
		t.Errorf("progress document not written: %v", err)
	}
}

func TestStatusWithoutState(t *testing.T) {
	dir := project(t)
	out, err := executeCommand(rootCmd, "status", "--dir", dir)
	if err != nil {
		t.Fatalf("status: %v", err)
	}
	if !strings.Contains(out, "no session state") {
		t.Errorf("output = %q", out)
	}
}

func TestStatusCounts(t *testing.T) {
	dir := project(t)
	for i := 0; i < 3; i++ {
		executeHook(t, dir, editEvent(filepath.Join(dir, "x.go")))
	}
	if _, err := executeCommand(rootCmd, "milestone", "--dir", dir, "auth", "done"); err != nil {
		t.Fatalf("milestone: %v", err)
	}

	out, err := executeCommand(rootCmd, "status", "--dir", dir)
	if err != nil {
		t.Fatalf("status: %v", err)
	}
	for _, pattern := range []string{`Actions:\s+3`, `Records today:\s+3`, `Milestones:\s+1`, `Next snapshot:\s+in 2 actions`} {
		if !regexp.MustCompile(pattern).MatchString(out) {
			t.Errorf("output does not match %q:\n%s", pattern, out)
		}
	}
}

func TestMilestoneAppearsInProgress(t *testing.T) {
	dir := project(t)
	if _, err := executeCommand(rootCmd, "milestone", "--dir", dir, "parser rewritten"); err != nil {
		t.Fatalf("milestone: %v", err)
	}

	out, err := executeCommand(rootCmd, "progress", "--dir", dir, "--stdout")
	if err != nil {
		t.Fatalf("progress: %v", err)
	}
	if !strings.Contains(out, "## Milestones") || !strings.Contains(out, "parser rewritten") {
		t.Errorf("milestone missing from snapshot:\n%s", out)
	}
}

func TestMilestoneRejectsBlank(t *testing.T) {
	dir := project(t)
	if _, err := executeCommand(rootCmd, "milestone", "--dir", dir, "   "); err == nil {
		t.Error("expected error for blank milestone")
	}
}

func TestProgressWritesJSON(t *testing.T) {
	dir := project(t)
	executeHook(t, dir, editEvent(filepath.Join(dir, "a.go")))

	out, err := executeCommand(rootCmd, "progress", "--dir", dir, "--format", "json")
	if err != nil {
		t.Fatalf("progress: %v", err)
	}
	path := filepath.Join(dir, ".claude", "LIVE-PROGRESS.json")
	if !strings.Contains(out, path) {
		t.Errorf("output = %q, want path %s", out, path)
	}
	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("json snapshot missing: %v", err)
	}
	var snap map[string]any
	if err := json.Unmarshal(data, &snap); err != nil {
		t.Fatalf("invalid JSON snapshot: %v", err)
	}
	if snap["files"].([]any)[0] != "a.go" {
		t.Errorf("files = %v", snap["files"])
	}
}

func TestRelativeDirYieldsRelativeFiles(t *testing.T) {
	dir, err := filepath.EvalSymlinks(project(t))
	if err != nil {
		t.Fatal(err)
	}
	t.Chdir(filepath.Dir(dir))
	rel := filepath.Base(dir)

	executeHook(t, rel, editEvent(filepath.Join(dir, "a.go")))

	out, err := executeCommand(rootCmd, "progress", "-C", rel, "--stdout")
	if err != nil {
		t.Fatalf("progress: %v", err)
	}
	if !strings.Contains(out, "- a.go") {
		t.Errorf("file list should be relative to the project:\n%s", out)
	}
	if strings.Contains(out, filepath.Join(dir, "a.go")) {
		t.Errorf("absolute path leaked into snapshot:\n%s", out)
	}
}

func TestProgressUnknownFormat(t *testing.T) {
	dir := project(t)
	if _, err := executeCommand(rootCmd, "progress", "--dir", dir, "--format", "yaml"); err == nil {
		t.Error("expected error for unknown format")
	}
}

func TestViewMissingFile(t *testing.T) {
	dir := project(t)
	_, err := executeCommand(rootCmd, "view", "--dir", dir, "--plain")
	if err == nil || !strings.Contains(err.Error(), "file not found") {
		t.Errorf("err = %v, want file not found", err)
	}
}

func TestViewRejectsPlainMarkdown(t *testing.T) {
	dir := project(t)
	path := filepath.Join(dir, "notes.md")
	if err := os.WriteFile(path, []byte("# Just notes\n"), 0o644); err != nil {
		t.Fatal(err)
	}
	_, err := executeCommand(rootCmd, "view", "--dir", dir, "--plain", path)
	if err == nil || !strings.Contains(err.Error(), "not a valid progress snapshot") {
		t.Errorf("err = %v", err)
	}
}

func TestViewSectionOrder(t *testing.T) {
	dir := project(t)
	executeHook(t, dir, editEvent(filepath.Join(dir, "a.go")))
	if _, err := executeCommand(rootCmd, "progress", "--dir", dir); err != nil {
		t.Fatalf("progress: %v", err)
	}

	out, err := executeCommand(rootCmd, "view", "--dir", dir, "--plain")
	if err != nil {
		t.Fatalf("view: %v", err)
	}
	headers := []string{"## Summary", "## Activity", "## Completed Tasks", "## Milestones", "## Files Touched"}
	prev := -1
	for _, h := range headers {
		pos := strings.Index(out, h)
		if pos <= prev {
			t.Fatalf("section %q out of order in:\n%s", h, out)
		}
		prev = pos
	}
	if !strings.Contains(out, "- a.go") {
		t.Errorf("file list missing a.go:\n%s", out)
	}
}

func TestSetupIsIdempotent(t *testing.T) {
	dir := project(t)
	out, err := executeCommand(rootCmd, "setup", "--dir", dir)
	if err != nil {
		t.Fatalf("setup: %v", err)
	}
	if !strings.Contains(out, "Hook registered") {
		t.Errorf("output = %q", out)
	}

	out, err = executeCommand(rootCmd, "setup", "--dir", dir)
	if err != nil {
		t.Fatalf("second setup: %v", err)
	}
	if !strings.Contains(out, "already registered") {
		t.Errorf("output = %q", out)
	}
	if !install.IsInstalled(filepath.Join(dir, ".claude", "settings.json"), install.DefaultCommand) {
		t.Error("hook not present in settings.json")
	}
}

func TestSetupIgnoresStateDir(t *testing.T) {
	dir := project(t)
	global := filepath.Join(os.Getenv("XDG_CONFIG_HOME"), "trackhook")
	if err := os.MkdirAll(global, 0o755); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(filepath.Join(global, "config.yaml"), []byte("state_dir: state\n"), 0o644); err != nil {
		t.Fatal(err)
	}

	if _, err := executeCommand(rootCmd, "setup", "--dir", dir); err != nil {
		t.Fatalf("setup: %v", err)
	}
	if !install.IsInstalled(filepath.Join(dir, ".claude", "settings.json"), install.DefaultCommand) {
		t.Error("hook must be registered where the host reads settings")
	}
	if _, err := os.Stat(filepath.Join(dir, "state", "settings.json")); !os.IsNotExist(err) {
		t.Errorf("settings written under state_dir: %v", err)
	}
}

func TestHookRejectsProjectRootStateDir(t *testing.T) {
	dir := project(t)
	global := filepath.Join(os.Getenv("XDG_CONFIG_HOME"), "trackhook")
	if err := os.MkdirAll(global, 0o755); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(filepath.Join(global, "config.yaml"), []byte("state_dir: .\n"), 0o644); err != nil {
		t.Fatal(err)
	}

	_, stderr := executeHook(t, dir, editEvent(filepath.Join(dir, "main.go")))
	if !strings.Contains(stderr, "config ignored") {
		t.Errorf("expected a warning on stderr, got %q", stderr)
	}
	data, err := os.ReadFile(filepath.Join(dir, ".claude", "activity.jsonl"))
	if err != nil {
		t.Fatalf("event dropped: %v", err)
	}
	if !strings.Contains(string(data), "main.go") {
		t.Errorf("log = %s", data)
	}
}

func TestResetKeepsLog(t *testing.T) {
	dir := project(t)
	executeHook(t, dir, editEvent(filepath.Join(dir, "a.go")))

	if _, err := executeCommand(rootCmd, "reset", "--dir", dir); err != nil {
		t.Fatalf("reset: %v", err)
	}
	out, _ := executeCommand(rootCmd, "status", "--dir", dir)
	if !strings.Contains(out, "no session state") {
		t.Errorf("state survived reset: %q", out)
	}
	if _, err := os.Stat(filepath.Join(dir, ".claude", "activity.jsonl")); err != nil {
		t.Errorf("activity log must survive reset: %v", err)
	}
}
