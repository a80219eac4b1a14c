package activity

import "time"

// Record is one line of the activity log. Records are written once and never
// rewritten.
type Record struct {
	ID            string    `json:"id,omitempty"`
	Timestamp     time.Time `json:"timestamp"`
	TimeLocal     string    `json:"time_local"`
	Tool          string    `json:"tool"`
	SessionID     string    `json:"session_id"`
	File          string    `json:"file,omitempty"`
	Command       *string   `json:"command,omitempty"` // nil when the event had no command key
	TaskID        string    `json:"task_id,omitempty"`
	TaskStatus    string    `json:"task_status,omitempty"`
	TaskCompleted bool      `json:"task_completed,omitempty"`
}

// TimeOfDay is the layout used for the display-only local clock fields.
const TimeOfDay = "15:04:05"

// Today returns a predicate matching records whose timestamp falls on the
// same local calendar day as now. The timestamp is converted into now's
// location before comparing, so UTC records written just after local
// midnight land on the right day.
func Today(now time.Time) func(Record) bool {
	y, m, d := now.Date()
	loc := now.Location()
	return func(r Record) bool {
		if r.Timestamp.IsZero() {
			return false
		}
		ry, rm, rd := r.Timestamp.In(loc).Date()
		return ry == y && rm == m && rd == d
	}
}

// All matches every record.
func All(Record) bool { return true }
