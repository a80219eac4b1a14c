package snapshot

import (
	"encoding/base64"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/fakeyudi/trackhook/internal/activity"
	"github.com/fakeyudi/trackhook/internal/event"
)

const (
	versionSentinel = "<!-- trackhook-snapshot-version: 1 -->"
	dataPrefix      = "<!-- trackhook-data: "
	dataSuffix      = " -->"
)

// Renderer serializes a Snapshot to bytes.
type Renderer interface {
	Render(snap *Snapshot) ([]byte, error)
}

// JSONRenderer renders a Snapshot as indented JSON.
type JSONRenderer struct{}

func (r *JSONRenderer) Render(snap *Snapshot) ([]byte, error) {
	return json.MarshalIndent(snap, "", "  ")
}

// MarkdownRenderer renders the live progress document, with an embedded
// base64 JSON copy of the snapshot so the viewer can read it back.
type MarkdownRenderer struct{}

func (r *MarkdownRenderer) Render(snap *Snapshot) ([]byte, error) {
	jsonBytes, err := json.Marshal(snap)
	if err != nil {
		return nil, fmt.Errorf("marshal snapshot: %w", err)
	}
	encoded := base64.StdEncoding.EncodeToString(jsonBytes)

	var sb strings.Builder

	sb.WriteString(versionSentinel + "\n")
	fmt.Fprintf(&sb, "%s%s%s\n\n", dataPrefix, encoded, dataSuffix)

	sb.WriteString("# Live Session Progress\n\n")
	fmt.Fprintf(&sb, "*Auto-updated: %s | Actions: %d*\n\n",
		snap.UpdatedAt.Format(activity.TimeOfDay), snap.ActionCount)

	// ## Activity
	fmt.Fprintf(&sb, "## Activity (since %s)\n", snap.SessionStart)
	sb.WriteString("| Type | Count |\n")
	sb.WriteString("|------|-------|\n")
	c := snap.Counts
	fmt.Fprintf(&sb, "| Edits | %d |\n", c.Edits)
	fmt.Fprintf(&sb, "| Writes | %d |\n", c.Writes)
	fmt.Fprintf(&sb, "| Commands | %d |\n", c.Commands)
	fmt.Fprintf(&sb, "| Tasks | %d |\n", c.Tasks)
	fmt.Fprintf(&sb, "| Reads | %d |\n", c.Reads)
	fmt.Fprintf(&sb, "| Other | %d |\n", c.Other)

	// ## Completed Tasks
	if len(snap.Tasks) > 0 {
		sb.WriteString("\n## Completed Tasks\n")
		for _, t := range snap.Tasks {
			fmt.Fprintf(&sb, "- %s\n", TaskLine(t))
		}
	}

	// ## Milestones
	if len(snap.Milestones) > 0 {
		sb.WriteString("\n## Milestones\n")
		for _, m := range snap.Milestones {
			fmt.Fprintf(&sb, "- [%s] %s\n", m.Time, m.Description)
		}
	}

	// ## Files Touched
	sb.WriteString("\n## Files Touched\n")
	sb.WriteString(FileList(snap.Files, snap.MaxFiles))
	sb.WriteString("\n")

	sb.WriteString("\n---\n")
	fmt.Fprintf(&sb, "*Updates every %d meaningful actions. Full summary on session end.*\n", snap.UpdateInterval)

	return []byte(sb.String()), nil
}

// TaskLine formats one completed task for display.
func TaskLine(t Task) string {
	id := event.DisplayTaskID(t.ID)
	line := fmt.Sprintf("Task #%s at %s", id, t.Time)
	if t.Subject != "" && t.Subject != "Task #"+id {
		line += ": " + t.Subject
	}
	return line
}

// FileList renders files as a Markdown list holding at most max entries,
// followed by a "... and N more" line when truncated.
func FileList(files []string, max int) string {
	if len(files) == 0 {
		return "- (none yet)"
	}
	if max <= 0 {
		max = DefaultMaxFiles
	}
	shown := files
	if len(shown) > max {
		shown = shown[:max]
	}
	lines := make([]string, 0, len(shown)+1)
	for _, f := range shown {
		lines = append(lines, "- "+f)
	}
	if extra := len(files) - len(shown); extra > 0 {
		lines = append(lines, fmt.Sprintf("- ... and %d more", extra))
	}
	return strings.Join(lines, "\n")
}
