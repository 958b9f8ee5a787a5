package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"taskManager/models"
)

// querier is satisfied by both *sql.DB and *sql.Tx.
type querier interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
}

const taskColumns = `id, title, description, status, priority, due_date, user_id, created_at`

// TaskRepository is the entry point for Task storage. It exposes no unscoped
// operations: callers must pick an owner first via ForOwner.
type TaskRepository struct {
	db *sql.DB
}

// NewTaskRepository creates a new TaskRepository.
func NewTaskRepository(db *sql.DB) *TaskRepository {
	return &TaskRepository{db: db}
}

// ForOwner returns the tasks of userID. Every statement issued through the
// returned value carries `user_id = ?`.
func (r *TaskRepository) ForOwner(userID int64) OwnedTasksI {
	return OwnedTasks{db: r.db, userID: userID}
}

// OwnedTasks is the ownership guard over the tasks table.
type OwnedTasks struct {
	db     *sql.DB
	userID int64
}

// List returns the owner's tasks, newest first. Never nil.
func (o OwnedTasks) List(ctx context.Context) ([]models.Task, error) {
	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	rows, err := o.db.QueryContext(ctx, `SELECT `+taskColumns+` FROM tasks WHERE user_id = ? ORDER BY created_at DESC, id DESC`, o.userID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := []models.Task{}
	for rows.Next() {
		t, err := scanTask(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, *t)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return out, nil
}

// Create inserts a task owned by the guard's user and reads it back in the same
// transaction. Status defaults to 'pending' and priority to 'medium'.
func (o OwnedTasks) Create(ctx context.Context, t models.NewTask) (*models.Task, error) {
	if t.Status == "" {
		t.Status = models.TaskStatusPending
	}
	if t.Priority == "" {
		t.Priority = models.TaskPriorityMedium
	}
	ctx, cancel := context.WithTimeout(ctx, 3*time.Second)
	defer cancel()

	var created *models.Task
	err := o.inTx(ctx, func(q querier) error {
		res, err := q.ExecContext(ctx, `INSERT INTO tasks (title, description, status, priority, due_date, user_id) VALUES (?,?,?,?,?,?)`,
			t.Title, t.Description, string(t.Status), string(t.Priority), dateArg(t.DueDate), o.userID)
		if err != nil {
			return err
		}
		id, err := res.LastInsertId()
		if err != nil {
			return err
		}
		created, err = o.get(ctx, q, id)
		if err != nil {
			return err
		}
		if created == nil {
			return fmt.Errorf("created task not found: id=%d", id)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return created, nil
}

// Get fetches one task. Returns nil, nil when it does not exist or is not owned.
func (o OwnedTasks) Get(ctx context.Context, id int64) (*models.Task, error) {
	ctx, cancel := context.WithTimeout(ctx, 3*time.Second)
	defer cancel()
	return o.get(ctx, o.db, id)
}

// Update applies the non-nil fields of p and returns the updated task, or nil, nil
// when no owned task matched.
func (o OwnedTasks) Update(ctx context.Context, id int64, p models.TaskPatch) (*models.Task, error) {
	if p.Empty() {
		return nil, errors.New("empty task patch")
	}
	var sets []string
	var args []any
	if p.Title != nil {
		sets = append(sets, "title = ?")
		args = append(args, *p.Title)
	}
	if p.Description != nil {
		sets = append(sets, "description = ?")
		args = append(args, *p.Description)
	}
	if p.Status != nil {
		sets = append(sets, "status = ?")
		args = append(args, string(*p.Status))
	}
	if p.Priority != nil {
		sets = append(sets, "priority = ?")
		args = append(args, string(*p.Priority))
	}
	if p.ClearDueDate {
		sets = append(sets, "due_date = NULL")
	} else if p.DueDate != nil {
		sets = append(sets, "due_date = ?")
		args = append(args, dateArg(p.DueDate))
	}
	args = append(args, id, o.userID)

	ctx, cancel := context.WithTimeout(ctx, 3*time.Second)
	defer cancel()

	var updated *models.Task
	err := o.inTx(ctx, func(q querier) error {
		res, err := q.ExecContext(ctx, `UPDATE tasks SET `+strings.Join(sets, ", ")+` WHERE id = ? AND user_id = ?`, args...)
		if err != nil {
			return err
		}
		n, err := res.RowsAffected()
		if err != nil {
			return err
		}
		if n == 0 {
			return nil
		}
		updated, err = o.get(ctx, q, id)
		return err
	})
	if err != nil {
		return nil, err
	}
	return updated, nil
}

// Delete removes an owned task. It reports false when nothing matched.
func (o OwnedTasks) Delete(ctx context.Context, id int64) (bool, error) {
	ctx, cancel := context.WithTimeout(ctx, 3*time.Second)
	defer cancel()
	res, err := o.db.ExecContext(ctx, `DELETE FROM tasks WHERE id = ? AND user_id = ?`, id, o.userID)
	if err != nil {
		return false, err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return false, err
	}
	return n > 0, nil
}

func (o OwnedTasks) get(ctx context.Context, q querier, id int64) (*models.Task, error) {
	row := q.QueryRowContext(ctx, `SELECT `+taskColumns+` FROM tasks WHERE id = ? AND user_id = ?`, id, o.userID)
	t, err := scanTask(row)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, err
	}
	return t, nil
}

func (o OwnedTasks) inTx(ctx context.Context, fn func(q querier) error) error {
	tx, err := o.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	if err := fn(tx); err != nil {
		_ = tx.Rollback()
		return err
	}
	return tx.Commit()
}

// scanTask is a helper to scan a row (or the current rows cursor) into a Task.
func scanTask(s interface{ Scan(dest ...any) error }) (*models.Task, error) {
	var t models.Task
	var status, priority string
	var due sql.NullTime
	if err := s.Scan(&t.ID, &t.Title, &t.Description, &status, &priority, &due, &t.UserID, &t.CreatedAt); err != nil {
		return nil, err
	}
	t.Status = models.TaskStatus(status)
	t.Priority = models.TaskPriority(priority)
	if due.Valid {
		d := models.NewDate(due.Time)
		t.DueDate = &d
	}
	return &t, nil
}

func dateArg(d *models.Date) any {
	if d == nil {
		return nil
	}
	return d.String()
}
