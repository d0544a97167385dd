package tasks

import (
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/opsdeck/tasksync/internal/categorize"
	"github.com/opsdeck/tasksync/internal/models"
	"github.com/opsdeck/tasksync/internal/store"
)

// Service is the single writer of persisted task state. All other components
// mutate tasks through it rather than holding their own copies.
type Service struct {
	store  *store.TaskStore
	logger *slog.Logger
}

func NewService(taskStore *store.TaskStore, logger *slog.Logger) *Service {
	return &Service{store: taskStore, logger: logger}
}

// Create validates and persists a new task. Action text is required;
// priority defaults to normal.
func (s *Service) Create(req *models.CreateRequest) (*models.Task, error) {
	action := strings.TrimSpace(req.Action)
	if action == "" {
		return nil, &ValidationError{Field: "action", Reason: "must not be empty"}
	}

	priority := models.PriorityNormal
	if req.Priority != nil && *req.Priority != "" {
		p := models.Priority(*req.Priority)
		if !p.IsValid() {
			return nil, &ValidationError{Field: "priority", Reason: fmt.Sprintf("unknown value %q", *req.Priority)}
		}
		priority = p
	}

	dueDate, err := parseDueDate(req.DueDate)
	if err != nil {
		return nil, err
	}

	var category *models.Category
	if req.Category != nil && *req.Category != "" {
		c := models.Category(*req.Category)
		if !c.IsValid() {
			return nil, &ValidationError{Field: "category", Reason: fmt.Sprintf("unknown value %q", *req.Category)}
		}
		category = &c
	}

	now := time.Now().Unix()
	t := &models.Task{
		ID:        uuid.New().String(),
		Action:    action,
		Priority:  priority,
		DueDate:   dueDate,
		Category:  category,
		CreatedAt: now,
		UpdatedAt: now,
	}
	if req.TimeEstimate != nil {
		t.TimeEstimate = *req.TimeEstimate
	}

	if err := s.store.Insert(t); err != nil {
		return nil, err
	}
	s.logger.Info("task created", "id", t.ID, "priority", t.Priority)
	return t, nil
}

// CreateExtracted persists a task derived from an analyzed email thread,
// keeping the back-reference to the originating thread.
func (s *Service) CreateExtracted(req *models.CreateRequest, threadID string) (*models.Task, error) {
	t, err := s.Create(req)
	if err != nil {
		return nil, err
	}
	if threadID == "" {
		return t, nil
	}
	// Thread linkage is not part of the partial-update surface, so write it
	// through a dedicated statement to keep Create reusable.
	if err := s.store.SetSourceThread(t.ID, threadID); err != nil {
		return nil, err
	}
	t.SourceThreadID = threadID
	return t, nil
}

// Get fetches a single task.
func (s *Service) Get(id string) (*models.Task, error) {
	t, err := s.store.GetByID(id)
	if errors.Is(err, store.ErrNotFound) {
		return nil, ErrNotFound
	}
	return t, err
}

// List returns tasks matching the filter. The category filter applies to the
// effective category, explicit or derived at read time.
func (s *Service) List(filter *models.ListFilter) ([]*models.Task, error) {
	var completed *bool
	var category *models.Category
	if filter != nil {
		completed = filter.Completed
		category = filter.Category
	}

	all, err := s.store.List(completed)
	if err != nil {
		return nil, err
	}
	if category == nil {
		return all, nil
	}

	now := time.Now()
	var out []*models.Task
	for _, t := range all {
		if categorize.Effective(t, now) == *category {
			out = append(out, t)
		}
	}
	return out, nil
}

// Update applies a partial update. Unspecified fields are untouched; setting
// completed recomputes completed_at inside the store.
func (s *Service) Update(id string, req *models.UpdateRequest) (*models.Task, error) {
	u := &store.TaskUpdate{
		TimeEstimate: req.TimeEstimate,
		Completed:    req.Completed,
	}

	if req.Action != nil {
		action := strings.TrimSpace(*req.Action)
		if action == "" {
			return nil, &ValidationError{Field: "action", Reason: "must not be empty"}
		}
		u.Action = &action
	}
	if req.Priority != nil {
		p := models.Priority(*req.Priority)
		if !p.IsValid() {
			return nil, &ValidationError{Field: "priority", Reason: fmt.Sprintf("unknown value %q", *req.Priority)}
		}
		u.Priority = &p
	}
	if req.DueDate != nil {
		u.HasDueDate = true
		if *req.DueDate != "" {
			d, err := parseDueDate(req.DueDate)
			if err != nil {
				return nil, err
			}
			u.DueDate = d
		}
	}
	if req.Category != nil {
		u.HasCategory = true
		if *req.Category != "" {
			c := models.Category(*req.Category)
			if !c.IsValid() {
				return nil, &ValidationError{Field: "category", Reason: fmt.Sprintf("unknown value %q", *req.Category)}
			}
			u.Category = &c
		}
	}

	t, err := s.store.Update(id, u)
	if errors.Is(err, store.ErrNotFound) {
		return nil, ErrNotFound
	}
	return t, err
}

// Toggle flips a task's completion state, recomputing completed_at.
func (s *Service) Toggle(id string) (*models.Task, error) {
	t, err := s.Get(id)
	if err != nil {
		return nil, err
	}
	updated, err := s.store.SetCompleted(id, !t.Completed)
	if errors.Is(err, store.ErrNotFound) {
		return nil, ErrNotFound
	}
	if err == nil {
		s.logger.Info("task toggled", "id", id, "completed", updated.Completed)
	}
	return updated, err
}

// SetCompleted writes an authoritative completion state, used by
// reconciliation merges where the remote value wins.
func (s *Service) SetCompleted(id string, completed bool) (*models.Task, error) {
	t, err := s.store.SetCompleted(id, completed)
	if errors.Is(err, store.ErrNotFound) {
		return nil, ErrNotFound
	}
	return t, err
}

// RecordExternalRef stores a tracker's external id for a task. The write is
// compare-and-set: a ref that appeared concurrently surfaces as a
// PreconditionError without being overwritten.
func (s *Service) RecordExternalRef(id string, tracker models.Tracker, externalID string) error {
	err := s.store.SetExternalRef(id, tracker, externalID)
	switch {
	case errors.Is(err, store.ErrNotFound):
		return ErrNotFound
	case errors.Is(err, store.ErrRefExists):
		return &PreconditionError{Reason: fmt.Sprintf("task already has a %s reference", tracker)}
	}
	return err
}

// Delete removes a task locally. Pushed external entities are never
// retracted.
func (s *Service) Delete(id string) error {
	err := s.store.Delete(id)
	if errors.Is(err, store.ErrNotFound) {
		return ErrNotFound
	}
	if err == nil {
		s.logger.Info("task deleted", "id", id)
	}
	return err
}

// TasksWithRef returns tasks already pushed to the given tracker.
func (s *Service) TasksWithRef(tracker models.Tracker) ([]*models.Task, error) {
	return s.store.ListWithRef(tracker)
}

// ToResponse serializes a task, computing the effective category at the
// given instant.
func ToResponse(t *models.Task, now time.Time) *models.TaskResponse {
	resp := &models.TaskResponse{
		ID:               t.ID,
		Action:           t.Action,
		Priority:         t.Priority,
		TimeEstimate:     t.TimeEstimate,
		Completed:        t.Completed,
		CompletedAt:      t.CompletedAt,
		Category:         categorize.Effective(t, now),
		CategoryExplicit: t.Category != nil,
		SourceThreadID:   t.SourceThreadID,
		GoogleTaskID:     t.GoogleTaskID,
		TeamBoardID:      t.TeamBoardID,
		CreatedAt:        t.CreatedAt,
		UpdatedAt:        t.UpdatedAt,
	}
	if t.DueDate != nil {
		d := t.DueDate.Format(models.DateLayout)
		resp.DueDate = &d
	}
	return resp
}

// ToResponses serializes a task list with one shared now.
func ToResponses(ts []*models.Task, now time.Time) []*models.TaskResponse {
	out := make([]*models.TaskResponse, 0, len(ts))
	for _, t := range ts {
		out = append(out, ToResponse(t, now))
	}
	return out
}

// ParseDueDate accepts a plain date or a full RFC 3339 timestamp, keeping
// the date part.
func ParseDueDate(raw string) (*time.Time, error) {
	if d, err := time.Parse(models.DateLayout, raw); err == nil {
		return &d, nil
	}
	if ts, err := time.Parse(time.RFC3339, raw); err == nil {
		d := time.Date(ts.Year(), ts.Month(), ts.Day(), 0, 0, 0, 0, time.UTC)
		return &d, nil
	}
	return nil, &ValidationError{Field: "due_date", Reason: fmt.Sprintf("cannot parse %q, want YYYY-MM-DD", raw)}
}

func parseDueDate(raw *string) (*time.Time, error) {
	if raw == nil || *raw == "" {
		return nil, nil
	}
	return ParseDueDate(*raw)
}
