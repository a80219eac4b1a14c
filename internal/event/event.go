// Package event turns raw host tool events into activity log records.
package event

import (
	"encoding/json"
	"fmt"
	"math"
	"strconv"
	"time"

	"github.com/google/uuid"

	"github.com/fakeyudi/trackhook/internal/activity"
)

// Tool names reported by the host.
const (
	ToolEdit         = "Edit"
	ToolMultiEdit    = "MultiEdit"
	ToolWrite        = "Write"
	ToolNotebookEdit = "NotebookEdit"
	ToolRead         = "Read"
	ToolBash         = "Bash"
	ToolTaskUpdate   = "TaskUpdate"
	ToolTaskCreate   = "TaskCreate"

	// UnknownTool stands in for a missing tool name.
	UnknownTool = "unknown"

	// StatusCompleted is the task status that marks a completion.
	StatusCompleted = "completed"

	// TruncationMarker is appended to commands cut at the length limit.
	TruncationMarker = "..."

	// DefaultCommandMaxLen is the command length, in characters, kept verbatim.
	DefaultCommandMaxLen = 100
)

// Raw is one tool invocation as delivered by the host on stdin. Input is
// kept as an open map since every tool has its own shape.
type Raw struct {
	ToolName   string         `json:"tool_name"`
	ToolInput  map[string]any `json:"tool_input"`
	ToolOutput any            `json:"tool_output,omitempty"`
}

// Parse decodes a raw event. A tool_input that is not a JSON object is
// dropped rather than failing the whole event.
func Parse(data []byte) (Raw, error) {
	var loose struct {
		ToolName   any             `json:"tool_name"`
		ToolInput  json.RawMessage `json:"tool_input"`
		ToolOutput any             `json:"tool_output"`
	}
	if err := json.Unmarshal(data, &loose); err != nil {
		return Raw{}, fmt.Errorf("parse hook input: %w", err)
	}
	raw := Raw{ToolOutput: loose.ToolOutput}
	if s, ok := loose.ToolName.(string); ok {
		raw.ToolName = s
	}
	if len(loose.ToolInput) > 0 {
		var input map[string]any
		if json.Unmarshal(loose.ToolInput, &input) == nil {
			raw.ToolInput = input
		}
	}
	return raw, nil
}

// Tool returns the tool name, or UnknownTool when the host sent none.
func (r Raw) Tool() string {
	if r.ToolName == "" {
		return UnknownTool
	}
	return r.ToolName
}

// FilePath returns the file_path input field, if it is a string.
func (r Raw) FilePath() string {
	return stringField(r.ToolInput, "file_path")
}

// TaskID returns the taskId input field rendered as a string.
func (r Raw) TaskID() string {
	return stringField(r.ToolInput, "taskId")
}

// TaskStatus returns the status input field.
func (r Raw) TaskStatus() string {
	return stringField(r.ToolInput, "status")
}

// Subject returns the human-readable subject of a task update, falling back
// to "Task #<id>".
func (r Raw) Subject() string {
	if s := stringField(r.ToolInput, "subject"); s != "" {
		return s
	}
	return "Task #" + DisplayTaskID(r.TaskID())
}

// DisplayTaskID returns id, or UnknownTool when the event carried no task id.
func DisplayTaskID(id string) string {
	if id == "" {
		return UnknownTool
	}
	return id
}

// CompletesTask reports whether the event moves a task to completed.
func (r Raw) CompletesTask() bool {
	return r.ToolName == ToolTaskUpdate && r.TaskStatus() == StatusCompleted
}

// Options tune Normalize.
type Options struct {
	SessionID     string
	CommandMaxLen int
	Now           time.Time
}

// Normalize builds the log record for r. Missing or oddly typed fields leave
// the matching optional record fields empty.
func Normalize(r Raw, opts Options) activity.Record {
	now := opts.Now
	if now.IsZero() {
		now = time.Now()
	}
	sessionID := opts.SessionID
	if sessionID == "" {
		sessionID = UnknownTool
	}

	rec := activity.Record{
		ID:        uuid.NewString(),
		Timestamp: now.UTC(),
		TimeLocal: now.Format(activity.TimeOfDay),
		Tool:      r.Tool(),
		SessionID: sessionID,
	}

	if r.ToolInput != nil {
		if _, ok := r.ToolInput["file_path"]; ok {
			rec.File = r.FilePath()
		} else if _, ok := r.ToolInput["command"]; ok {
			cmd := Truncate(stringField(r.ToolInput, "command"), opts.CommandMaxLen)
			rec.Command = &cmd
		}

		if r.ToolName == ToolTaskUpdate {
			rec.TaskID = r.TaskID()
			rec.TaskStatus = r.TaskStatus()
			rec.TaskCompleted = rec.TaskStatus == StatusCompleted
		}
	}
	return rec
}

// Truncate keeps the first max characters of s and appends TruncationMarker
// when s is longer. A non-positive max selects DefaultCommandMaxLen.
func Truncate(s string, max int) string {
	if max <= 0 {
		max = DefaultCommandMaxLen
	}
	runes := []rune(s)
	if len(runes) <= max {
		return s
	}
	return string(runes[:max]) + TruncationMarker
}

// stringField renders m[key] as a string. Whole numbers print without a
// decimal point so numeric task ids match their string form.
func stringField(m map[string]any, key string) string {
	switch v := m[key].(type) {
	case string:
		return v
	case float64:
		if v == math.Trunc(v) && math.Abs(v) < 1e15 {
			return strconv.FormatInt(int64(v), 10)
		}
		return strconv.FormatFloat(v, 'f', -1, 64)
	case bool:
		return strconv.FormatBool(v)
	default:
		return ""
	}
}
