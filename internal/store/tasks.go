package store

import (
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/opsdeck/tasksync/internal/models"
)

// ErrNotFound is returned when no task row matches the given id.
var ErrNotFound = errors.New("task not found")

// ErrRefExists is returned by SetExternalRef when the tracker column is
// already populated, which means another push won the compare-and-set.
var ErrRefExists = errors.New("external ref already set")

// taskColumns is the canonical column list for all SELECT queries.
// Order must match scanOne/scanMany.
const taskColumns = `id, action, priority, due_date, time_estimate,
	completed, completed_at, category, source_thread_id,
	google_task_id, team_board_id, created_at, updated_at`

// TaskStore handles Task CRUD operations on SQLite.
type TaskStore struct {
	db *DB
}

func NewTaskStore(db *DB) *TaskStore {
	return &TaskStore{db: db}
}

// TaskUpdate carries a partial update. Nil pointer fields are left untouched;
// the Has* flags distinguish "clear this nullable field" from "leave it".
type TaskUpdate struct {
	Action       *string
	Priority     *models.Priority
	HasDueDate   bool
	DueDate      *time.Time
	TimeEstimate *string
	HasCategory  bool
	Category     *models.Category
	Completed    *bool
}

// Insert stores a new task. The caller must set ID and CreatedAt.
func (s *TaskStore) Insert(t *models.Task) error {
	_, err := s.db.Exec(`
		INSERT INTO tasks (
			id, action, priority, due_date, time_estimate,
			completed, completed_at, category, source_thread_id,
			google_task_id, team_board_id, created_at, updated_at
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`,
		t.ID, t.Action, string(t.Priority), dueDateString(t.DueDate), nullIfEmpty(t.TimeEstimate),
		t.Completed, t.CompletedAt, categoryString(t.Category), nullIfEmpty(t.SourceThreadID),
		nullIfEmpty(t.GoogleTaskID), nullIfEmpty(t.TeamBoardID), t.CreatedAt, t.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("insert task: %w", err)
	}
	return nil
}

// GetByID fetches a single task by ID.
func (s *TaskStore) GetByID(id string) (*models.Task, error) {
	t, err := scanOne(s.db.QueryRow(
		fmt.Sprintf(`SELECT %s FROM tasks WHERE id = ?`, taskColumns), id))
	if err == sql.ErrNoRows {
		return nil, ErrNotFound
	}
	return t, err
}

// List returns tasks ordered by creation time, newest first, optionally
// filtered by completion state. Category filtering happens a layer up since
// the effective category is derived, not stored.
func (s *TaskStore) List(completed *bool) ([]*models.Task, error) {
	query := fmt.Sprintf(`SELECT %s FROM tasks`, taskColumns)
	var args []any
	if completed != nil {
		query += ` WHERE completed = ?`
		args = append(args, *completed)
	}
	query += ` ORDER BY created_at DESC, id`

	rows, err := s.db.Query(query, args...)
	if err != nil {
		return nil, fmt.Errorf("list tasks: %w", err)
	}
	defer rows.Close()
	return scanMany(rows)
}

// ListWithRef returns all tasks that carry an external reference for the
// given tracker.
func (s *TaskStore) ListWithRef(tracker models.Tracker) ([]*models.Task, error) {
	col, err := refColumn(tracker)
	if err != nil {
		return nil, err
	}
	rows, err := s.db.Query(
		fmt.Sprintf(`SELECT %s FROM tasks WHERE %s IS NOT NULL ORDER BY created_at DESC, id`, taskColumns, col))
	if err != nil {
		return nil, fmt.Errorf("list tasks with %s ref: %w", tracker, err)
	}
	defer rows.Close()
	return scanMany(rows)
}

// Update applies a partial update. Setting Completed recomputes completed_at
// as a store-level side effect: now on true, cleared on false.
func (s *TaskStore) Update(id string, u *TaskUpdate) (*models.Task, error) {
	sets := []string{"updated_at = ?"}
	args := []any{time.Now().Unix()}

	if u.Action != nil {
		sets = append(sets, "action = ?")
		args = append(args, *u.Action)
	}
	if u.Priority != nil {
		sets = append(sets, "priority = ?")
		args = append(args, string(*u.Priority))
	}
	if u.HasDueDate {
		sets = append(sets, "due_date = ?")
		args = append(args, dueDateString(u.DueDate))
	}
	if u.TimeEstimate != nil {
		sets = append(sets, "time_estimate = ?")
		args = append(args, nullIfEmpty(*u.TimeEstimate))
	}
	if u.HasCategory {
		sets = append(sets, "category = ?")
		args = append(args, categoryString(u.Category))
	}
	if u.Completed != nil {
		sets = append(sets, "completed = ?", "completed_at = ?")
		if *u.Completed {
			args = append(args, true, time.Now().Unix())
		} else {
			args = append(args, false, nil)
		}
	}

	args = append(args, id)
	query := fmt.Sprintf("UPDATE tasks SET %s WHERE id = ?", strings.Join(sets, ", "))
	res, err := s.db.Exec(query, args...)
	if err != nil {
		return nil, fmt.Errorf("update task: %w", err)
	}
	n, _ := res.RowsAffected()
	if n == 0 {
		return nil, ErrNotFound
	}

	return s.GetByID(id)
}

// SetCompleted flips the completion flag and recomputes completed_at in one
// statement. Used by toggle and by reconciliation merges.
func (s *TaskStore) SetCompleted(id string, completed bool) (*models.Task, error) {
	var completedAt any
	if completed {
		completedAt = time.Now().Unix()
	}
	res, err := s.db.Exec(`
		UPDATE tasks SET completed = ?, completed_at = ?, updated_at = ?
		WHERE id = ?
	`, completed, completedAt, time.Now().Unix(), id)
	if err != nil {
		return nil, fmt.Errorf("set completed: %w", err)
	}
	n, _ := res.RowsAffected()
	if n == 0 {
		return nil, ErrNotFound
	}
	return s.GetByID(id)
}

// SetExternalRef records a tracker's external id with a compare-and-set
// write: the column must still be NULL. A lost race returns ErrRefExists so
// the caller can re-read instead of overwriting someone else's ref.
func (s *TaskStore) SetExternalRef(id string, tracker models.Tracker, externalID string) error {
	col, err := refColumn(tracker)
	if err != nil {
		return err
	}
	res, err := s.db.Exec(
		fmt.Sprintf(`UPDATE tasks SET %s = ?, updated_at = ? WHERE id = ? AND %s IS NULL`, col, col),
		externalID, time.Now().Unix(), id)
	if err != nil {
		return fmt.Errorf("set %s ref: %w", tracker, err)
	}
	n, _ := res.RowsAffected()
	if n == 0 {
		// Distinguish a missing row from a lost CAS race.
		if _, err := s.GetByID(id); err != nil {
			return err
		}
		return ErrRefExists
	}
	return nil
}

// SetSourceThread records the originating email thread for an extracted
// task.
func (s *TaskStore) SetSourceThread(id, threadID string) error {
	res, err := s.db.Exec(`
		UPDATE tasks SET source_thread_id = ?, updated_at = ?
		WHERE id = ?
	`, threadID, time.Now().Unix(), id)
	if err != nil {
		return fmt.Errorf("set source thread: %w", err)
	}
	n, _ := res.RowsAffected()
	if n == 0 {
		return ErrNotFound
	}
	return nil
}

// Delete removes a task by ID. External tracker entities are deliberately
// left in place.
func (s *TaskStore) Delete(id string) error {
	res, err := s.db.Exec("DELETE FROM tasks WHERE id = ?", id)
	if err != nil {
		return fmt.Errorf("delete task: %w", err)
	}
	n, _ := res.RowsAffected()
	if n == 0 {
		return ErrNotFound
	}
	return nil
}

func refColumn(tracker models.Tracker) (string, error) {
	switch tracker {
	case models.TrackerGoogleTasks:
		return "google_task_id", nil
	case models.TrackerTeamBoard:
		return "team_board_id", nil
	}
	return "", fmt.Errorf("unknown tracker: %s", tracker)
}

func scanOne(row *sql.Row) (*models.Task, error) {
	var t models.Task
	var priority string
	var dueDate, timeEstimate, category, sourceThread, googleID, teamBoardID sql.NullString
	var completedAt sql.NullInt64

	err := row.Scan(
		&t.ID, &t.Action, &priority, &dueDate, &timeEstimate,
		&t.Completed, &completedAt, &category, &sourceThread,
		&googleID, &teamBoardID, &t.CreatedAt, &t.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	return assemble(&t, priority, dueDate, timeEstimate, category, sourceThread, googleID, teamBoardID, completedAt)
}

func scanMany(rows *sql.Rows) ([]*models.Task, error) {
	var out []*models.Task
	for rows.Next() {
		var t models.Task
		var priority string
		var dueDate, timeEstimate, category, sourceThread, googleID, teamBoardID sql.NullString
		var completedAt sql.NullInt64

		err := rows.Scan(
			&t.ID, &t.Action, &priority, &dueDate, &timeEstimate,
			&t.Completed, &completedAt, &category, &sourceThread,
			&googleID, &teamBoardID, &t.CreatedAt, &t.UpdatedAt,
		)
		if err != nil {
			return nil, fmt.Errorf("scan task: %w", err)
		}
		task, err := assemble(&t, priority, dueDate, timeEstimate, category, sourceThread, googleID, teamBoardID, completedAt)
		if err != nil {
			return nil, err
		}
		out = append(out, task)
	}
	return out, rows.Err()
}

func assemble(t *models.Task, priority string, dueDate, timeEstimate, category, sourceThread, googleID, teamBoardID sql.NullString, completedAt sql.NullInt64) (*models.Task, error) {
	t.Priority = models.Priority(priority)
	if dueDate.Valid {
		d, err := time.Parse(models.DateLayout, dueDate.String)
		if err != nil {
			return nil, fmt.Errorf("parse stored due_date %q: %w", dueDate.String, err)
		}
		t.DueDate = &d
	}
	if timeEstimate.Valid {
		t.TimeEstimate = timeEstimate.String
	}
	if category.Valid {
		c := models.Category(category.String)
		t.Category = &c
	}
	if sourceThread.Valid {
		t.SourceThreadID = sourceThread.String
	}
	if googleID.Valid {
		t.GoogleTaskID = googleID.String
	}
	if teamBoardID.Valid {
		t.TeamBoardID = teamBoardID.String
	}
	if completedAt.Valid {
		v := completedAt.Int64
		t.CompletedAt = &v
	}
	return t, nil
}

func dueDateString(d *time.Time) any {
	if d == nil {
		return nil
	}
	return d.Format(models.DateLayout)
}

func categoryString(c *models.Category) any {
	if c == nil {
		return nil
	}
	return string(*c)
}

func nullIfEmpty(s string) any {
	if s == "" {
		return nil
	}
	return s
}
