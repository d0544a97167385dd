package models

import "time"

// Priority is the user-assigned urgency hint on a task.
type Priority string

const (
	PriorityNormal Priority = "normal"
	PriorityHigh   Priority = "high"
	PriorityUrgent Priority = "urgent"
)

var ValidPriorities = map[Priority]bool{
	PriorityNormal: true,
	PriorityHigh:   true,
	PriorityUrgent: true,
}

func (p Priority) IsValid() bool {
	return ValidPriorities[p]
}

// Category is an Eisenhower matrix quadrant. A task stores a category only
// when the user set one explicitly; otherwise the effective category is
// derived from priority and due date at read time.
type Category string

const (
	CategoryUrgentImportant    Category = "urgent-important"
	CategoryImportantNotUrgent Category = "important-not-urgent"
	CategoryUrgentNotImportant Category = "urgent-not-important"
	CategoryNeither            Category = "neither"
)

var ValidCategories = map[Category]bool{
	CategoryUrgentImportant:    true,
	CategoryImportantNotUrgent: true,
	CategoryUrgentNotImportant: true,
	CategoryNeither:            true,
}

func (c Category) IsValid() bool {
	return ValidCategories[c]
}

// Tracker names an external task-tracking system.
type Tracker string

const (
	TrackerGoogleTasks Tracker = "google_tasks"
	TrackerTeamBoard   Tracker = "team_board"
)

func (t Tracker) IsValid() bool {
	return t == TrackerGoogleTasks || t == TrackerTeamBoard
}

// DateLayout is the wire format for due dates.
const DateLayout = "2006-01-02"

// Task is the core entity owned by the task store.
type Task struct {
	ID             string
	Action         string
	Priority       Priority
	DueDate        *time.Time
	TimeEstimate   string
	Completed      bool
	CompletedAt    *int64
	Category       *Category // explicit assignment only, nil means derived
	SourceThreadID string
	GoogleTaskID   string
	TeamBoardID    string
	CreatedAt      int64
	UpdatedAt      int64
}

// ExternalRef returns the stored external id for a tracker, empty when the
// task has not been pushed there.
func (t *Task) ExternalRef(tracker Tracker) string {
	switch tracker {
	case TrackerGoogleTasks:
		return t.GoogleTaskID
	case TrackerTeamBoard:
		return t.TeamBoardID
	}
	return ""
}
