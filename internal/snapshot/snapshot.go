// Package snapshot derives the live progress document from the activity log
// and session state. A snapshot is disposable: it is rebuilt from scratch on
// every materialization and never patched.
package snapshot

import (
	"iter"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"github.com/fakeyudi/trackhook/internal/activity"
	"github.com/fakeyudi/trackhook/internal/event"
	"github.com/fakeyudi/trackhook/internal/session"
)

// Snapshot is the renderable view of today's progress.
type Snapshot struct {
	UpdatedAt      time.Time           `json:"updated_at"`
	ActionCount    int                 `json:"action_count"`
	SessionStart   string              `json:"session_start"`
	UpdateInterval int                 `json:"update_interval"`
	Counts         Counts              `json:"counts"`
	Tasks          []Task              `json:"tasks"`
	Milestones     []session.Milestone `json:"milestones"`
	Files          []string            `json:"files"` // every distinct file, sorted
	MaxFiles       int                 `json:"max_files"`
}

// Counts are today's record totals per tool category.
type Counts struct {
	Edits    int `json:"edits"`
	Writes   int `json:"writes"`
	Reads    int `json:"reads"`
	Commands int `json:"commands"`
	Tasks    int `json:"tasks"`
	Other    int `json:"other"`
}

// Total sums every category.
func (c Counts) Total() int {
	return c.Edits + c.Writes + c.Reads + c.Commands + c.Tasks + c.Other
}

func (c *Counts) add(k event.Kind) {
	switch k {
	case event.KindEdit:
		c.Edits++
	case event.KindWrite:
		c.Writes++
	case event.KindRead:
		c.Reads++
	case event.KindCommand:
		c.Commands++
	case event.KindTask:
		c.Tasks++
	default:
		c.Other++
	}
}

// Task is one completion shown in the snapshot.
type Task struct {
	ID      string `json:"id"`
	Time    string `json:"time"`
	Subject string `json:"subject,omitempty"`
}

// Options control what Build keeps.
type Options struct {
	Now            time.Time
	WorkDir        string
	IgnorePatterns []string
	UpdateInterval int
	MaxRecentTasks int
	MaxMilestones  int
	MaxFiles       int
}

// Defaults for the Options limits.
const (
	DefaultUpdateInterval = 5
	DefaultMaxRecentTasks = 10
	DefaultMaxMilestones  = 5
	DefaultMaxFiles       = 15
)

func (o Options) withDefaults() Options {
	if o.Now.IsZero() {
		o.Now = time.Now()
	}
	if o.UpdateInterval <= 0 {
		o.UpdateInterval = DefaultUpdateInterval
	}
	if o.MaxRecentTasks <= 0 {
		o.MaxRecentTasks = DefaultMaxRecentTasks
	}
	if o.MaxMilestones <= 0 {
		o.MaxMilestones = DefaultMaxMilestones
	}
	if o.MaxFiles <= 0 {
		o.MaxFiles = DefaultMaxFiles
	}
	return o
}

// ShouldMaterialize reports whether a snapshot is due after the action
// counter reached count. It fires on every interval-th meaningful action.
func ShouldMaterialize(count, interval int) bool {
	return interval > 0 && count > 0 && count%interval == 0
}

// Build aggregates the records falling on opts.Now's local calendar day.
// Records from other days are ignored even if records yields them.
func Build(records iter.Seq[activity.Record], st *session.State, opts Options) *Snapshot {
	opts = opts.withDefaults()
	if st == nil {
		st = session.New(opts.Now)
	}
	today := activity.Today(opts.Now)

	snap := &Snapshot{
		UpdatedAt:      opts.Now,
		ActionCount:    st.ActionCount,
		SessionStart:   st.SessionStart,
		UpdateInterval: opts.UpdateInterval,
		MaxFiles:       opts.MaxFiles,
		Tasks:          []Task{},
		Files:          []string{},
	}
	if snap.SessionStart == "" {
		snap.SessionStart = opts.Now.Format(activity.TimeOfDay)
	}

	files := make(map[string]struct{})
	var tasks []Task
	for rec := range records {
		if !today(rec) {
			continue
		}
		snap.Counts.add(event.Classify(rec.Tool))

		if rec.File != "" {
			rel := relativeTo(opts.WorkDir, rec.File)
			if !isIgnored(rec.File, rel, opts.IgnorePatterns) {
				files[rel] = struct{}{}
			}
		}
		if rec.TaskCompleted {
			tasks = append(tasks, Task{
				ID:      rec.TaskID,
				Time:    rec.TimeLocal,
				Subject: st.SubjectFor(rec.TaskID),
			})
		}
	}

	if len(tasks) > opts.MaxRecentTasks {
		tasks = tasks[len(tasks)-opts.MaxRecentTasks:]
	}
	snap.Tasks = append(snap.Tasks, tasks...)

	milestones := st.Milestones
	if len(milestones) > opts.MaxMilestones {
		milestones = milestones[len(milestones)-opts.MaxMilestones:]
	}
	snap.Milestones = append([]session.Milestone{}, milestones...)

	for f := range files {
		snap.Files = append(snap.Files, f)
	}
	sort.Strings(snap.Files)
	return snap
}

// relativeTo expresses path relative to workDir when path lies inside it.
// Anything else is returned unchanged.
func relativeTo(workDir, path string) string {
	if workDir == "" {
		return path
	}
	if filepath.IsAbs(path) && !filepath.IsAbs(workDir) {
		if abs, err := filepath.Abs(workDir); err == nil {
			workDir = abs
		}
	}
	rel, err := filepath.Rel(workDir, path)
	if err != nil || rel == ".." || strings.HasPrefix(rel, ".."+string(filepath.Separator)) {
		return path
	}
	return rel
}

// isIgnored reports whether path matches any of the given glob patterns,
// tried against the base name, the relative path and the full path.
func isIgnored(path, rel string, patterns []string) bool {
	base := filepath.Base(path)
	for _, pattern := range patterns {
		if matched, _ := filepath.Match(pattern, base); matched {
			return true
		}
		if matched, _ := filepath.Match(pattern, rel); matched {
			return true
		}
		if matched, _ := filepath.Match(pattern, path); matched {
			return true
		}
	}
	return false
}
