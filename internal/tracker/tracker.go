// Package tracker runs one host event through the activity pipeline:
// normalize, append, reconcile session state, materialize the snapshot on
// schedule, and produce the acknowledgement handed back to the host.
package tracker

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"path/filepath"
	"strings"
	"time"

	"github.com/fakeyudi/trackhook/internal/activity"
	"github.com/fakeyudi/trackhook/internal/checklist"
	"github.com/fakeyudi/trackhook/internal/config"
	"github.com/fakeyudi/trackhook/internal/event"
	"github.com/fakeyudi/trackhook/internal/session"
	"github.com/fakeyudi/trackhook/internal/snapshot"
)

// SessionEnv names the environment variable carrying the host session id.
const SessionEnv = "CLAUDE_SESSION_ID"

// Ack is the single JSON object written back to the host. An empty
// SystemMessage encodes as {}.
type Ack struct {
	SystemMessage string `json:"systemMessage,omitempty"`
}

// JSON encodes the ack. It cannot fail for this shape.
func (a Ack) JSON() []byte {
	data, _ := json.Marshal(a)
	return data
}

// Tracker holds everything one invocation needs. It keeps no state between
// calls to Handle beyond what is on disk.
type Tracker struct {
	WorkDir   string
	Config    config.Config
	SessionID string
	Logger    *slog.Logger
	Now       func() time.Time
}

// New returns a Tracker for workDir with cfg.
func New(workDir string, cfg config.Config, sessionID string, logger *slog.Logger) *Tracker {
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	return &Tracker{
		WorkDir:   workDir,
		Config:    cfg,
		SessionID: sessionID,
		Logger:    logger,
		Now:       time.Now,
	}
}

// Handle processes one raw event. It never panics and never returns an
// error: every failure is folded into the returned Ack.
func (t *Tracker) Handle(input []byte) (ack Ack) {
	defer func() {
		if r := recover(); r != nil {
			t.Logger.Error("hook panicked", "panic", r)
			ack = Ack{SystemMessage: fmt.Sprintf("Activity tracker: %v", r)}
		}
	}()

	raw, err := event.Parse(input)
	if err != nil {
		t.Logger.Warn("unreadable hook input", "err", err)
		return Ack{SystemMessage: "Activity tracker: " + err.Error()}
	}
	if t.isOwnFile(raw.FilePath()) {
		t.Logger.Debug("skipping own state file", "file", raw.FilePath())
		return Ack{}
	}
	return t.process(raw)
}

// isOwnFile reports whether path lies inside the tracker's state directory.
// A state directory that holds the project itself never claims a file.
func (t *Tracker) isOwnFile(path string) bool {
	if path == "" {
		return false
	}
	stateDir := t.Config.StatePath(t.WorkDir)
	if within(stateDir, t.WorkDir) {
		return false
	}
	abs := path
	if !filepath.IsAbs(abs) {
		abs = filepath.Join(t.WorkDir, abs)
	}
	if within(stateDir, abs) {
		return true
	}
	if filepath.IsAbs(t.Config.StateDir) {
		return false
	}
	// Events may carry paths from another checkout of the same project.
	name := filepath.Base(filepath.Clean(t.Config.StateDir))
	if name == "." || name == ".." {
		return false
	}
	return strings.Contains(path, name+"/") || strings.Contains(path, name+`\`)
}

// within reports whether path is dir or lies below it.
func within(dir, path string) bool {
	rel, err := filepath.Rel(dir, path)
	if err != nil {
		return false
	}
	return rel != ".." && !strings.HasPrefix(rel, ".."+string(filepath.Separator))
}

func (t *Tracker) process(raw event.Raw) Ack {
	now := t.Now()
	stateDir := t.Config.StatePath(t.WorkDir)
	store := session.NewStore(stateDir)
	log := activity.NewLog(stateDir)

	unlock, err := store.Lock()
	if err != nil {
		t.Logger.Warn("continuing without state lock", "err", err)
	}
	defer unlock()

	st := store.Load()

	var warnings []string
	rec := event.Normalize(raw, event.Options{
		SessionID:     t.SessionID,
		CommandMaxLen: t.Config.CommandMaxLen,
		Now:           now,
	})
	if err := log.Append(rec); err != nil {
		t.Logger.Error("activity log append failed", "err", err)
		warnings = append(warnings, err.Error())
	}

	completed := raw.CompletesTask()
	if completed {
		subject := raw.Subject()
		st.RecordTaskCompletion(raw.TaskID(), subject, now)
		t.reconcileChecklist(subject)
	}

	var progress string
	if st.IncrementIfMeaningful(rec.Tool) && snapshot.ShouldMaterialize(st.ActionCount, t.Config.UpdateInterval) {
		if err := t.materialize(log, st, now); err != nil {
			t.Logger.Warn("snapshot not written", "err", err)
		} else {
			progress = fmt.Sprintf("📊 Progress updated (%d actions) → %s",
				st.ActionCount, filepath.ToSlash(filepath.Join(t.Config.StateDir, t.Config.ProgressFile)))
		}
	}

	if err := store.Save(st); err != nil {
		t.Logger.Error("session state not saved", "err", err)
		warnings = append(warnings, err.Error())
	}

	switch {
	case len(warnings) > 0:
		return Ack{SystemMessage: "Activity tracker: " + strings.Join(warnings, "; ")}
	case progress != "":
		return Ack{SystemMessage: progress}
	case completed:
		return Ack{SystemMessage: fmt.Sprintf("✅ Task #%s logged as completed", event.DisplayTaskID(raw.TaskID()))}
	default:
		return Ack{}
	}
}

func (t *Tracker) reconcileChecklist(subject string) {
	path := t.Config.ChecklistPath(t.WorkDir)
	res, err := checklist.Reconcile(path, subject, t.Config.ChecklistMinWordLen)
	if err != nil {
		t.Logger.Debug("checklist reconcile failed", "path", path, "err", err)
		return
	}
	for _, line := range res.Checked {
		t.Logger.Debug("checklist item ticked", "line", line)
	}
}

// SnapshotOptions derives the materializer options from the config.
func (t *Tracker) SnapshotOptions(now time.Time) snapshot.Options {
	return snapshot.Options{
		Now:            now,
		WorkDir:        t.WorkDir,
		IgnorePatterns: t.Config.IgnorePatterns,
		UpdateInterval: t.Config.UpdateInterval,
		MaxRecentTasks: t.Config.MaxRecentTasks,
		MaxMilestones:  t.Config.MaxMilestones,
		MaxFiles:       t.Config.MaxFiles,
	}
}

func (t *Tracker) materialize(log *activity.Log, st *session.State, now time.Time) error {
	_, err := snapshot.Materialize(log, st, t.SnapshotOptions(now), &snapshot.MarkdownRenderer{}, t.Config.ProgressPath(t.WorkDir))
	return err
}
