// Package extract converts externally analyzed task suggestions into local
// task records.
package extract

import (
	"fmt"
	"log/slog"
	"strings"

	"github.com/opsdeck/tasksync/internal/models"
	"github.com/opsdeck/tasksync/internal/tasks"
)

// Adapter turns batches of suggestions from the email analysis collaborator
// into stored tasks. It deliberately never deduplicates against earlier
// extractions from the same thread; every call creates fresh records.
type Adapter struct {
	svc    *tasks.Service
	logger *slog.Logger
}

func NewAdapter(svc *tasks.Service, logger *slog.Logger) *Adapter {
	return &Adapter{svc: svc, logger: logger}
}

// BulkAdd creates one task per suggestion, all linked to threadID when set.
// The whole batch is validated up front so an invalid suggestion fails the
// call before anything is inserted.
func (a *Adapter) BulkAdd(threadID string, suggestions []models.Suggestion) ([]*models.Task, error) {
	if len(suggestions) == 0 {
		return nil, &tasks.ValidationError{Field: "tasks", Reason: "must not be empty"}
	}
	for i, sg := range suggestions {
		if strings.TrimSpace(sg.Action) == "" {
			return nil, &tasks.ValidationError{
				Field:  "tasks",
				Reason: fmt.Sprintf("suggestion %d has empty action", i),
			}
		}
		if sg.Priority != nil && *sg.Priority != "" && !models.Priority(*sg.Priority).IsValid() {
			return nil, &tasks.ValidationError{
				Field:  "tasks",
				Reason: fmt.Sprintf("suggestion %d has unknown priority %q", i, *sg.Priority),
			}
		}
		if sg.DueDate != nil && *sg.DueDate != "" {
			if _, err := tasks.ParseDueDate(*sg.DueDate); err != nil {
				return nil, &tasks.ValidationError{
					Field:  "tasks",
					Reason: fmt.Sprintf("suggestion %d has unparseable due_date %q", i, *sg.DueDate),
				}
			}
		}
	}

	created := make([]*models.Task, 0, len(suggestions))
	for _, sg := range suggestions {
		req := &models.CreateRequest{
			Action:       sg.Action,
			Priority:     sg.Priority,
			DueDate:      sg.DueDate,
			TimeEstimate: sg.TimeEstimate,
		}
		t, err := a.svc.CreateExtracted(req, threadID)
		if err != nil {
			return nil, fmt.Errorf("create extracted task: %w", err)
		}
		created = append(created, t)
	}

	a.logger.Info("tasks extracted", "thread", threadID, "count", len(created))
	return created, nil
}
