package session

import (
	"time"

	"github.com/fakeyudi/trackhook/internal/activity"
	"github.com/fakeyudi/trackhook/internal/event"
)

// State is the small mutable document reconciled against the activity log on
// every hook invocation.
type State struct {
	ActionCount    int             `json:"action_count"`
	CompletedTasks []CompletedTask `json:"completed_tasks"`
	SessionStart   string          `json:"session_start"`
	Milestones     []Milestone     `json:"milestones"`
}

// CompletedTask records a task that reached the completed status.
type CompletedTask struct {
	ID      string `json:"id"`
	Subject string `json:"subject"`
	Time    string `json:"time"`
}

// Milestone is a user-supplied marker shown in the progress snapshot.
type Milestone struct {
	Time        string `json:"time"`
	Description string `json:"description"`
}

// New returns a fresh state whose session starts at now.
func New(now time.Time) *State {
	return &State{
		CompletedTasks: []CompletedTask{},
		SessionStart:   now.Format(activity.TimeOfDay),
		Milestones:     []Milestone{},
	}
}

// RecordTaskCompletion appends a completed task.
func (s *State) RecordTaskCompletion(id, subject string, at time.Time) {
	s.CompletedTasks = append(s.CompletedTasks, CompletedTask{
		ID:      id,
		Subject: subject,
		Time:    at.Format(activity.TimeOfDay),
	})
}

// IncrementIfMeaningful bumps ActionCount when tool is a meaningful tool and
// reports whether it did.
func (s *State) IncrementIfMeaningful(tool string) bool {
	if !event.IsMeaningful(tool) {
		return false
	}
	s.ActionCount++
	return true
}

// AddMilestone appends a milestone stamped with at's time of day.
func (s *State) AddMilestone(description string, at time.Time) {
	s.Milestones = append(s.Milestones, Milestone{
		Time:        at.Format(activity.TimeOfDay),
		Description: description,
	})
}

// SubjectFor returns the subject recorded for task id, if any. The most
// recent completion wins when a task was completed more than once.
func (s *State) SubjectFor(id string) string {
	for i := len(s.CompletedTasks) - 1; i >= 0; i-- {
		if s.CompletedTasks[i].ID == id {
			return s.CompletedTasks[i].Subject
		}
	}
	return ""
}
