package store

import (
	"errors"
	"path/filepath"
	"testing"
	"time"

	"github.com/google/uuid"

	"github.com/opsdeck/tasksync/internal/models"
)

func setupTestDB(t *testing.T) *DB {
	t.Helper()
	dbPath := filepath.Join(t.TempDir(), "test.db")
	db, err := Open(dbPath)
	if err != nil {
		t.Fatalf("failed to open test db: %v", err)
	}
	t.Cleanup(func() { db.Close() })
	return db
}

func newTask(action string) *models.Task {
	now := time.Now().Unix()
	return &models.Task{
		ID:        uuid.New().String(),
		Action:    action,
		Priority:  models.PriorityNormal,
		CreatedAt: now,
		UpdatedAt: now,
	}
}

func TestTaskStoreCRUD(t *testing.T) {
	db := setupTestDB(t)
	s := NewTaskStore(db)

	t.Run("Insert and GetByID round-trip", func(t *testing.T) {
		task := newTask("review quarterly invoices")
		due := time.Date(2025, 7, 1, 0, 0, 0, 0, time.UTC)
		task.DueDate = &due
		task.TimeEstimate = "2h"
		task.Priority = models.PriorityHigh

		if err := s.Insert(task); err != nil {
			t.Fatalf("insert failed: %v", err)
		}

		got, err := s.GetByID(task.ID)
		if err != nil {
			t.Fatalf("get failed: %v", err)
		}
		if got.Action != task.Action {
			t.Fatalf("action mismatch: %s != %s", got.Action, task.Action)
		}
		if got.Priority != models.PriorityHigh {
			t.Fatalf("priority mismatch: %s", got.Priority)
		}
		if got.DueDate == nil || !got.DueDate.Equal(due) {
			t.Fatalf("due date mismatch: %v", got.DueDate)
		}
		if got.TimeEstimate != "2h" {
			t.Fatalf("time estimate mismatch: %s", got.TimeEstimate)
		}
		if got.Completed {
			t.Fatal("new task should not be completed")
		}
		if got.CompletedAt != nil {
			t.Fatal("new task should have no completed_at")
		}
		if got.Category != nil {
			t.Fatal("new task should have no explicit category")
		}
	})

	t.Run("GetByID unknown id", func(t *testing.T) {
		_, err := s.GetByID("nope")
		if !errors.Is(err, ErrNotFound) {
			t.Fatalf("expected ErrNotFound, got %v", err)
		}
	})

	t.Run("Delete removes task", func(t *testing.T) {
		task := newTask("delete me")
		if err := s.Insert(task); err != nil {
			t.Fatalf("insert failed: %v", err)
		}
		if err := s.Delete(task.ID); err != nil {
			t.Fatalf("delete failed: %v", err)
		}
		if _, err := s.GetByID(task.ID); !errors.Is(err, ErrNotFound) {
			t.Fatalf("expected ErrNotFound after delete, got %v", err)
		}
		if err := s.Delete(task.ID); !errors.Is(err, ErrNotFound) {
			t.Fatalf("second delete should be ErrNotFound, got %v", err)
		}
	})
}

func TestTaskStoreCompletion(t *testing.T) {
	db := setupTestDB(t)
	s := NewTaskStore(db)

	task := newTask("file expense report")
	if err := s.Insert(task); err != nil {
		t.Fatalf("insert failed: %v", err)
	}

	t.Run("SetCompleted true sets completed_at", func(t *testing.T) {
		got, err := s.SetCompleted(task.ID, true)
		if err != nil {
			t.Fatalf("set completed failed: %v", err)
		}
		if !got.Completed || got.CompletedAt == nil {
			t.Fatalf("expected completed with timestamp, got %+v", got)
		}
	})

	t.Run("SetCompleted false clears completed_at", func(t *testing.T) {
		got, err := s.SetCompleted(task.ID, false)
		if err != nil {
			t.Fatalf("set completed failed: %v", err)
		}
		if got.Completed || got.CompletedAt != nil {
			t.Fatalf("expected not completed with nil timestamp, got %+v", got)
		}
	})

	t.Run("invariant holds across update sequence", func(t *testing.T) {
		for _, completed := range []bool{true, false, true, true, false} {
			c := completed
			got, err := s.Update(task.ID, &TaskUpdate{Completed: &c})
			if err != nil {
				t.Fatalf("update failed: %v", err)
			}
			if got.Completed != (got.CompletedAt != nil) {
				t.Fatalf("invariant broken: completed=%v completed_at=%v", got.Completed, got.CompletedAt)
			}
		}
	})
}

func TestTaskStorePartialUpdate(t *testing.T) {
	db := setupTestDB(t)
	s := NewTaskStore(db)

	task := newTask("call supplier")
	due := time.Date(2025, 8, 15, 0, 0, 0, 0, time.UTC)
	task.DueDate = &due
	task.TimeEstimate = "30m"
	if err := s.Insert(task); err != nil {
		t.Fatalf("insert failed: %v", err)
	}

	t.Run("unspecified fields untouched", func(t *testing.T) {
		p := models.PriorityUrgent
		got, err := s.Update(task.ID, &TaskUpdate{Priority: &p})
		if err != nil {
			t.Fatalf("update failed: %v", err)
		}
		if got.Priority != models.PriorityUrgent {
			t.Fatalf("priority not updated: %s", got.Priority)
		}
		if got.Action != "call supplier" {
			t.Fatalf("action should be untouched: %s", got.Action)
		}
		if got.DueDate == nil || !got.DueDate.Equal(due) {
			t.Fatalf("due date should be untouched: %v", got.DueDate)
		}
		if got.TimeEstimate != "30m" {
			t.Fatalf("time estimate should be untouched: %s", got.TimeEstimate)
		}
	})

	t.Run("clear due date", func(t *testing.T) {
		got, err := s.Update(task.ID, &TaskUpdate{HasDueDate: true})
		if err != nil {
			t.Fatalf("update failed: %v", err)
		}
		if got.DueDate != nil {
			t.Fatalf("due date should be cleared: %v", got.DueDate)
		}
	})

	t.Run("set and clear explicit category", func(t *testing.T) {
		c := models.CategoryImportantNotUrgent
		got, err := s.Update(task.ID, &TaskUpdate{HasCategory: true, Category: &c})
		if err != nil {
			t.Fatalf("update failed: %v", err)
		}
		if got.Category == nil || *got.Category != c {
			t.Fatalf("category not set: %v", got.Category)
		}

		got, err = s.Update(task.ID, &TaskUpdate{HasCategory: true})
		if err != nil {
			t.Fatalf("update failed: %v", err)
		}
		if got.Category != nil {
			t.Fatalf("category should be cleared: %v", got.Category)
		}
	})

	t.Run("unknown id", func(t *testing.T) {
		_, err := s.Update("nope", &TaskUpdate{})
		if !errors.Is(err, ErrNotFound) {
			t.Fatalf("expected ErrNotFound, got %v", err)
		}
	})
}

func TestTaskStoreExternalRefs(t *testing.T) {
	db := setupTestDB(t)
	s := NewTaskStore(db)

	task := newTask("prep staffing plan")
	if err := s.Insert(task); err != nil {
		t.Fatalf("insert failed: %v", err)
	}

	t.Run("compare-and-set writes once", func(t *testing.T) {
		if err := s.SetExternalRef(task.ID, models.TrackerGoogleTasks, "g-123"); err != nil {
			t.Fatalf("first ref write failed: %v", err)
		}
		err := s.SetExternalRef(task.ID, models.TrackerGoogleTasks, "g-456")
		if !errors.Is(err, ErrRefExists) {
			t.Fatalf("expected ErrRefExists, got %v", err)
		}

		got, err := s.GetByID(task.ID)
		if err != nil {
			t.Fatalf("get failed: %v", err)
		}
		if got.GoogleTaskID != "g-123" {
			t.Fatalf("ref overwritten: %s", got.GoogleTaskID)
		}
	})

	t.Run("trackers are independent columns", func(t *testing.T) {
		if err := s.SetExternalRef(task.ID, models.TrackerTeamBoard, "tb-9"); err != nil {
			t.Fatalf("team board ref write failed: %v", err)
		}
		got, _ := s.GetByID(task.ID)
		if got.TeamBoardID != "tb-9" || got.GoogleTaskID != "g-123" {
			t.Fatalf("refs wrong: google=%s board=%s", got.GoogleTaskID, got.TeamBoardID)
		}
	})

	t.Run("unknown id", func(t *testing.T) {
		err := s.SetExternalRef("nope", models.TrackerGoogleTasks, "g-1")
		if !errors.Is(err, ErrNotFound) {
			t.Fatalf("expected ErrNotFound, got %v", err)
		}
	})

	t.Run("ListWithRef filters", func(t *testing.T) {
		unlinked := newTask("no refs")
		if err := s.Insert(unlinked); err != nil {
			t.Fatalf("insert failed: %v", err)
		}

		linked, err := s.ListWithRef(models.TrackerTeamBoard)
		if err != nil {
			t.Fatalf("list failed: %v", err)
		}
		if len(linked) != 1 || linked[0].ID != task.ID {
			t.Fatalf("expected only the linked task, got %d", len(linked))
		}
	})
}

func TestTaskStoreList(t *testing.T) {
	db := setupTestDB(t)
	s := NewTaskStore(db)

	open := newTask("open task")
	done := newTask("done task")
	if err := s.Insert(open); err != nil {
		t.Fatalf("insert failed: %v", err)
	}
	if err := s.Insert(done); err != nil {
		t.Fatalf("insert failed: %v", err)
	}
	if _, err := s.SetCompleted(done.ID, true); err != nil {
		t.Fatalf("set completed failed: %v", err)
	}

	all, err := s.List(nil)
	if err != nil {
		t.Fatalf("list failed: %v", err)
	}
	if len(all) != 2 {
		t.Fatalf("expected 2 tasks, got %d", len(all))
	}

	completed := true
	onlyDone, err := s.List(&completed)
	if err != nil {
		t.Fatalf("list failed: %v", err)
	}
	if len(onlyDone) != 1 || onlyDone[0].ID != done.ID {
		t.Fatalf("completed filter wrong: %d results", len(onlyDone))
	}
}
