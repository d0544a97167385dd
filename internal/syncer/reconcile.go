package syncer

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/opsdeck/tasksync/internal/models"
	"github.com/opsdeck/tasksync/internal/tasks"
	"github.com/opsdeck/tasksync/internal/tracker"
)

// Reconciler pulls completion status from the team board and merges it into
// the local store. The remote value wins on any difference.
type Reconciler struct {
	svc     *tasks.Service
	lister  tracker.StatusLister
	timeout time.Duration
	logger  *slog.Logger
}

func NewReconciler(svc *tasks.Service, lister tracker.StatusLister, timeout time.Duration, logger *slog.Logger) *Reconciler {
	return &Reconciler{
		svc:     svc,
		lister:  lister,
		timeout: timeout,
		logger:  logger,
	}
}

// Reconcile fetches the board's statuses and flips local completion state
// where the remote differs. The remote fetch happens before any local write,
// so an unreachable board leaves every task untouched. Running it twice with
// no remote change in between updates nothing the second time.
func (r *Reconciler) Reconcile(ctx context.Context) (int, error) {
	if r.lister == nil {
		return 0, &tracker.Error{
			Tracker: models.TrackerTeamBoard,
			Kind:    tracker.KindUnavailable,
			Err:     fmt.Errorf("tracker not configured"),
		}
	}

	fetchCtx, cancel := context.WithTimeout(ctx, r.timeout)
	defer cancel()

	statuses, err := r.lister.ListStatuses(fetchCtx)
	if err != nil {
		return 0, err
	}

	remote := make(map[string]bool, len(statuses))
	for _, s := range statuses {
		remote[s.ExternalID] = s.Completed
	}

	linked, err := r.svc.TasksWithRef(models.TrackerTeamBoard)
	if err != nil {
		return 0, err
	}

	updated := 0
	for _, t := range linked {
		completed, ok := remote[t.TeamBoardID]
		if !ok || completed == t.Completed {
			continue
		}
		if _, err := r.svc.SetCompleted(t.ID, completed); err != nil {
			return updated, fmt.Errorf("merge task %s: %w", t.ID, err)
		}
		r.logger.Info("task reconciled from board", "task", t.ID, "completed", completed)
		updated++
	}

	return updated, nil
}
