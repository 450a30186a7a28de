// Package sqlite реализует репозитории поверх встроенной SQLite (modernc.org/sqlite).
package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"modernc.org/sqlite"
	sqlite3 "modernc.org/sqlite/lib"

	"github.com/BuzzLyutic/project-tracker-api/internal/model"
	"github.com/BuzzLyutic/project-tracker-api/internal/repo"
)

const taskColumns = `id, project_id, title, status, assignee_user_id, due_date, version, created_at`

type scanner interface {
	Scan(dest ...any) error
}

type TaskRepo struct {
	db *sql.DB
}

func NewTaskRepo(db *sql.DB) *TaskRepo {
	return &TaskRepo{db: db}
}

func NewStore(db *sql.DB) repo.Store {
	return repo.Store{
		Tasks:    NewTaskRepo(db),
		Projects: NewProjectRepo(db),
		Users:    NewUserRepo(db),
	}
}

func (r *TaskRepo) Create(ctx context.Context, t model.NewTask) (model.Task, error) {
	status := t.Status
	if status == "" {
		status = model.StatusTodo
	}

	res, err := r.db.ExecContext(ctx, `
		INSERT INTO tasks (project_id, title, status, assignee_user_id, due_date, created_at)
		VALUES (?, ?, ?, ?, ?, ?)
	`, t.ProjectID, t.Title, string(status), t.AssigneeUserID, t.DueDate, time.Now().UTC())
	if err != nil {
		return model.Task{}, mapError(err)
	}

	id, err := res.LastInsertId()
	if err != nil {
		return model.Task{}, err
	}
	return r.Get(ctx, id)
}

func (r *TaskRepo) Get(ctx context.Context, id int64) (model.Task, error) {
	task, err := scanTask(r.db.QueryRowContext(ctx, `SELECT `+taskColumns+` FROM tasks WHERE id = ?`, id))
	if errors.Is(err, sql.ErrNoRows) {
		return task, repo.ErrorNotFound
	}
	return task, err
}

func (r *TaskRepo) ListByProject(ctx context.Context, projectID int64, filter model.TaskFilter) ([]model.Task, error) {
	var status *string
	if filter.Status != nil {
		s := string(*filter.Status)
		status = &s
	}

	rows, err := r.db.QueryContext(ctx, `
		SELECT t.id, t.project_id, t.title, t.status, t.assignee_user_id, t.due_date,
		       t.version, t.created_at, u.name
		FROM tasks t
		LEFT JOIN users u ON u.id = t.assignee_user_id
		WHERE t.project_id = ?1
		  AND (?2 IS NULL OR t.status = ?2)
		  AND (?3 IS NULL OR t.assignee_user_id = ?3)
		ORDER BY t.created_at DESC, t.id DESC
	`, projectID, status, filter.AssigneeID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	tasks := make([]model.Task, 0)
	for rows.Next() {
		var (
			t      model.Task
			status string
		)
		if err := rows.Scan(&t.ID, &t.ProjectID, &t.Title, &status, &t.AssigneeUserID, &t.DueDate,
			&t.Version, &t.CreatedAt, &t.AssigneeName); err != nil {
			return nil, err
		}
		t.Status = model.TaskStatus(status)
		tasks = append(tasks, t)
	}
	return tasks, rows.Err()
}

// Update выполняет read-check-write в одной транзакции. Пул ограничен одним
// соединением, поэтому транзакции не пересекаются; условие по версии в
// UPDATE остается последним барьером.
func (r *TaskRepo) Update(ctx context.Context, id int64, mutate repo.MutateFunc) (model.Task, error) {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return model.Task{}, err
	}
	defer tx.Rollback()

	current, err := scanTask(tx.QueryRowContext(ctx, `SELECT `+taskColumns+` FROM tasks WHERE id = ?`, id))
	if errors.Is(err, sql.ErrNoRows) {
		return model.Task{}, repo.ErrorNotFound
	}
	if err != nil {
		return model.Task{}, err
	}

	next, err := mutate(current)
	if err != nil {
		return model.Task{}, err
	}

	res, err := tx.ExecContext(ctx, `
		UPDATE tasks
		SET title = ?, status = ?, assignee_user_id = ?, version = version + 1
		WHERE id = ? AND version = ?
	`, next.Title, string(next.Status), next.AssigneeUserID, id, current.Version)
	if err != nil {
		return model.Task{}, mapError(err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return model.Task{}, err
	}
	if affected == 0 {
		return model.Task{}, repo.ErrorConflict
	}

	updated, err := scanTask(tx.QueryRowContext(ctx, `SELECT `+taskColumns+` FROM tasks WHERE id = ?`, id))
	if err != nil {
		return model.Task{}, err
	}

	if err := tx.Commit(); err != nil {
		return model.Task{}, err
	}
	return updated, nil
}

func (r *TaskRepo) Delete(ctx context.Context, id int64) error {
	res, err := r.db.ExecContext(ctx, "DELETE FROM tasks WHERE id = ?", id)
	if err != nil {
		return err
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if affected == 0 {
		return repo.ErrorNotFound
	}
	return nil
}

// CreateOnce резервирует ключ и создает задачу в одной транзакции.
// Пул из одного соединения выполняет такие транзакции строго по очереди.
func (r *TaskRepo) CreateOnce(ctx context.Context, key repo.IdempotencyKey, t model.NewTask) (model.Task, bool, error) {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return model.Task{}, false, err
	}
	defer tx.Rollback()

	now := time.Now().UTC()
	res, err := tx.ExecContext(ctx, `
		INSERT INTO idempotency_keys (key, project_id, user_id, created_at) VALUES (?, ?, ?, ?)
		ON CONFLICT (key, project_id, user_id) DO NOTHING
	`, key.Key, t.ProjectID, key.UserID, now)
	if err != nil {
		return model.Task{}, false, mapError(err)
	}
	reserved, err := res.RowsAffected()
	if err != nil {
		return model.Task{}, false, err
	}

	if reserved == 0 {
		var resourceID sql.NullInt64
		err := tx.QueryRowContext(ctx, `
			SELECT resource_id FROM idempotency_keys
			WHERE key = ? AND project_id = ? AND user_id = ?
		`, key.Key, t.ProjectID, key.UserID).Scan(&resourceID)
		if errors.Is(err, sql.ErrNoRows) || (err == nil && !resourceID.Valid) {
			return model.Task{}, false, repo.ErrorConflict
		}
		if err != nil {
			return model.Task{}, false, err
		}

		task, err := scanTask(tx.QueryRowContext(ctx, `SELECT `+taskColumns+` FROM tasks WHERE id = ?`, resourceID.Int64))
		if errors.Is(err, sql.ErrNoRows) {
			return model.Task{}, false, repo.ErrorConflict
		}
		return task, false, err
	}

	status := t.Status
	if status == "" {
		status = model.StatusTodo
	}
	res, err = tx.ExecContext(ctx, `
		INSERT INTO tasks (project_id, title, status, assignee_user_id, due_date, created_at)
		VALUES (?, ?, ?, ?, ?, ?)
	`, t.ProjectID, t.Title, string(status), t.AssigneeUserID, t.DueDate, now)
	if err != nil {
		return model.Task{}, false, mapError(err)
	}
	id, err := res.LastInsertId()
	if err != nil {
		return model.Task{}, false, err
	}

	if _, err := tx.ExecContext(ctx, `
		UPDATE idempotency_keys SET resource_id = ?
		WHERE key = ? AND project_id = ? AND user_id = ?
	`, id, key.Key, t.ProjectID, key.UserID); err != nil {
		return model.Task{}, false, err
	}

	task, err := scanTask(tx.QueryRowContext(ctx, `SELECT `+taskColumns+` FROM tasks WHERE id = ?`, id))
	if err != nil {
		return model.Task{}, false, err
	}

	if err := tx.Commit(); err != nil {
		return model.Task{}, false, err
	}
	return task, true, nil
}

func (r *TaskRepo) PruneIdempotencyKeys(ctx context.Context, cutoff time.Time) (int64, error) {
	res, err := r.db.ExecContext(ctx, `DELETE FROM idempotency_keys WHERE created_at < ?`, cutoff.UTC())
	if err != nil {
		return 0, err
	}
	return res.RowsAffected()
}

func (r *TaskRepo) Stats(ctx context.Context, projectID int64) (model.ProjectStats, error) {
	stats := model.ProjectStats{
		ProjectID: projectID,
		ByStatus: map[model.TaskStatus]int{
			model.StatusTodo:       0,
			model.StatusInProgress: 0,
			model.StatusDone:       0,
		},
	}

	rows, err := r.db.QueryContext(ctx, `
		SELECT status, COUNT(*) FROM tasks WHERE project_id = ? GROUP BY status
	`, projectID)
	if err != nil {
		return stats, err
	}
	defer rows.Close()

	for rows.Next() {
		var (
			status string
			count  int
		)
		if err := rows.Scan(&status, &count); err != nil {
			return stats, err
		}
		stats.ByStatus[model.TaskStatus(status)] = count
		stats.Total += count
	}
	return stats, rows.Err()
}

func scanTask(row scanner) (model.Task, error) {
	var (
		t      model.Task
		status string
	)
	err := row.Scan(&t.ID, &t.ProjectID, &t.Title, &status, &t.AssigneeUserID, &t.DueDate, &t.Version, &t.CreatedAt)
	t.Status = model.TaskStatus(status)
	return t, err
}

func mapError(err error) error {
	if err == nil {
		return nil
	}

	var sqliteErr *sqlite.Error
	if errors.As(err, &sqliteErr) {
		switch sqliteErr.Code() {
		case sqlite3.SQLITE_CONSTRAINT_UNIQUE, sqlite3.SQLITE_CONSTRAINT_PRIMARYKEY:
			return repo.ErrorConflict
		case sqlite3.SQLITE_CONSTRAINT_FOREIGNKEY:
			return repo.ErrorReferenceNotFound
		}
	}
	return err
}
