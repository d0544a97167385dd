// Package syncer pushes tasks to external trackers and merges remote status
// back into the local store.
package syncer

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/opsdeck/tasksync/internal/models"
	"github.com/opsdeck/tasksync/internal/tasks"
	"github.com/opsdeck/tasksync/internal/tracker"
)

// Gateway pushes tasks to external trackers, recording the returned external
// reference so repeat pushes are no-ops.
type Gateway struct {
	svc      *tasks.Service
	registry *tracker.Registry
	timeout  time.Duration
	logger   *slog.Logger

	mu    sync.Mutex
	locks map[string]*sync.Mutex
}

func NewGateway(svc *tasks.Service, registry *tracker.Registry, timeout time.Duration, logger *slog.Logger) *Gateway {
	return &Gateway{
		svc:      svc,
		registry: registry,
		timeout:  timeout,
		logger:   logger,
		locks:    make(map[string]*sync.Mutex),
	}
}

// Push creates the task in the given tracker and records the external id.
// When the task already carries a reference for that tracker the stored id
// is returned without contacting the external system. A completed task is
// never pushed.
//
// The check-create-record sequence runs under a per-task lock so two
// concurrent pushes cannot both create an external entity.
func (g *Gateway) Push(ctx context.Context, taskID string, trackerName models.Tracker) (string, error) {
	if !trackerName.IsValid() {
		return "", &tasks.ValidationError{Field: "tracker", Reason: fmt.Sprintf("unknown tracker %q", trackerName)}
	}

	lock := g.taskLock(taskID)
	lock.Lock()
	defer lock.Unlock()

	t, err := g.svc.Get(taskID)
	if err != nil {
		return "", err
	}

	if ref := t.ExternalRef(trackerName); ref != "" {
		g.logger.Debug("push is a no-op, ref exists", "task", taskID, "tracker", trackerName)
		return ref, nil
	}

	if t.Completed {
		return "", &tasks.PreconditionError{Reason: "completed tasks cannot be pushed"}
	}

	client := g.registry.Get(trackerName)
	if client == nil {
		return "", &tracker.Error{
			Tracker: trackerName,
			Kind:    tracker.KindUnavailable,
			Err:     fmt.Errorf("tracker not configured"),
		}
	}

	pushCtx, cancel := context.WithTimeout(ctx, g.timeout)
	defer cancel()

	externalID, err := client.Create(pushCtx, t)
	if err != nil {
		return "", err
	}

	if err := g.svc.RecordExternalRef(taskID, trackerName, externalID); err != nil {
		// The external entity exists but local state was left unchanged;
		// surface that rather than pretending the push succeeded.
		return "", err
	}

	g.logger.Info("task pushed", "task", taskID, "tracker", trackerName, "external_id", externalID)
	return externalID, nil
}

func (g *Gateway) taskLock(taskID string) *sync.Mutex {
	g.mu.Lock()
	defer g.mu.Unlock()
	lock, ok := g.locks[taskID]
	if !ok {
		lock = &sync.Mutex{}
		g.locks[taskID] = lock
	}
	return lock
}
