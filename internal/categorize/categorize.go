// Package categorize derives Eisenhower matrix quadrants for tasks that have
// no explicitly assigned category.
package categorize

import (
	"time"

	"github.com/opsdeck/tasksync/internal/models"
)

// UrgencyWindow is how far out a due date still counts as urgent.
const UrgencyWindow = 48 * time.Hour

// Classify maps a task's priority and due date onto an Eisenhower quadrant.
// It is a pure function of its inputs: urgency comes from an urgent priority
// or a due date inside the window relative to now, importance from a high or
// urgent priority.
func Classify(priority models.Priority, dueDate *time.Time, now time.Time) models.Category {
	urgent := priority == models.PriorityUrgent ||
		(dueDate != nil && dueDate.Before(now.Add(UrgencyWindow)))
	important := priority == models.PriorityUrgent || priority == models.PriorityHigh

	switch {
	case urgent && important:
		return models.CategoryUrgentImportant
	case important:
		return models.CategoryImportantNotUrgent
	case urgent:
		return models.CategoryUrgentNotImportant
	default:
		return models.CategoryNeither
	}
}

// Effective returns a task's category for display and filtering: the
// explicit assignment when present, otherwise the derived quadrant.
func Effective(t *models.Task, now time.Time) models.Category {
	if t.Category != nil {
		return *t.Category
	}
	return Classify(t.Priority, t.DueDate, now)
}
