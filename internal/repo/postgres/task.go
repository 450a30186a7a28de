// Package postgres реализует репозитории поверх PostgreSQL (pgx).
package postgres

import (
	"context"
	"errors"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/BuzzLyutic/project-tracker-api/internal/model"
	"github.com/BuzzLyutic/project-tracker-api/internal/repo"
)

const taskColumns = `id, project_id, title, status, assignee_user_id, due_date, version, created_at`

type TaskRepo struct { // Репозиторий для работы непосредственно с БД
	pool *pgxpool.Pool
}

func NewTaskRepo(pool *pgxpool.Pool) *TaskRepo {
	return &TaskRepo{
		pool: pool,
	}
}

// NewStore собирает все репозитории поверх одного пула.
func NewStore(pool *pgxpool.Pool) repo.Store {
	return repo.Store{
		Tasks:    NewTaskRepo(pool),
		Projects: NewProjectRepo(pool),
		Users:    NewUserRepo(pool),
	}
}

func (r *TaskRepo) Create(ctx context.Context, t model.NewTask) (model.Task, error) {
	status := t.Status
	if status == "" {
		status = model.StatusTodo
	}

	task, err := scanTask(r.pool.QueryRow(ctx, `
		INSERT INTO tasks (project_id, title, status, assignee_user_id, due_date)
		VALUES ($1, $2, $3, $4, $5)
		RETURNING `+taskColumns,
		t.ProjectID, t.Title, string(status), t.AssigneeUserID, t.DueDate,
	))
	return task, mapError(err)
}

func (r *TaskRepo) Get(ctx context.Context, id int64) (model.Task, error) {
	task, err := scanTask(r.pool.QueryRow(ctx, `SELECT `+taskColumns+` FROM tasks WHERE id = $1`, id))
	if errors.Is(err, pgx.ErrNoRows) {
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

	rows, err := r.pool.Query(ctx, `
		SELECT t.id, t.project_id, t.title, t.status, t.assignee_user_id, t.due_date,
		       t.version, t.created_at, u.name
		FROM tasks t
		LEFT JOIN users u ON u.id = t.assignee_user_id
		WHERE t.project_id = $1
		  AND ($2::text IS NULL OR t.status = $2)
		  AND ($3::bigint IS NULL OR t.assignee_user_id = $3)
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

// Update выполняет read-check-write в одной транзакции: строка блокируется
// через FOR UPDATE, запись дополнительно условна по версии.
func (r *TaskRepo) Update(ctx context.Context, id int64, mutate repo.MutateFunc) (model.Task, error) {
	tx, err := r.pool.BeginTx(ctx, pgx.TxOptions{})
	if err != nil {
		return model.Task{}, err
	}
	defer tx.Rollback(ctx) // после Commit это no-op

	current, err := scanTask(tx.QueryRow(ctx, `SELECT `+taskColumns+` FROM tasks WHERE id = $1 FOR UPDATE`, id))
	if errors.Is(err, pgx.ErrNoRows) {
		return model.Task{}, repo.ErrorNotFound
	}
	if err != nil {
		return model.Task{}, err
	}

	next, err := mutate(current)
	if err != nil {
		return model.Task{}, err
	}

	cmd, err := tx.Exec(ctx, `
		UPDATE tasks
		SET title = $3, status = $4, assignee_user_id = $5, version = version + 1
		WHERE id = $1 AND version = $2
	`, id, current.Version, next.Title, string(next.Status), next.AssigneeUserID)
	if err != nil {
		return model.Task{}, mapError(err)
	}
	if cmd.RowsAffected() == 0 {
		return model.Task{}, repo.ErrorConflict
	}

	updated, err := scanTask(tx.QueryRow(ctx, `SELECT `+taskColumns+` FROM tasks WHERE id = $1`, id))
	if err != nil {
		return model.Task{}, err
	}

	if err := tx.Commit(ctx); err != nil {
		return model.Task{}, err
	}
	return updated, nil
}

func (r *TaskRepo) Delete(ctx context.Context, id int64) error {
	cmd, err := r.pool.Exec(ctx, "DELETE FROM tasks WHERE id = $1", id)
	if err != nil {
		return err
	}
	if cmd.RowsAffected() == 0 {
		return repo.ErrorNotFound
	}
	return nil
}

// CreateOnce сначала резервирует ключ. При параллельной вставке того же
// ключа ON CONFLICT ждет завершения чужой транзакции, поэтому проигравший
// видит уже закоммиченный resource_id.
func (r *TaskRepo) CreateOnce(ctx context.Context, key repo.IdempotencyKey, t model.NewTask) (model.Task, bool, error) {
	tx, err := r.pool.BeginTx(ctx, pgx.TxOptions{})
	if err != nil {
		return model.Task{}, false, err
	}
	defer tx.Rollback(ctx)

	cmd, err := tx.Exec(ctx, `
		INSERT INTO idempotency_keys (key, project_id, user_id) VALUES ($1, $2, $3)
		ON CONFLICT (key, project_id, user_id) DO NOTHING
	`, key.Key, t.ProjectID, key.UserID)
	if err != nil {
		return model.Task{}, false, mapError(err)
	}

	if cmd.RowsAffected() == 0 {
		var resourceID *int64
		err := tx.QueryRow(ctx, `
			SELECT resource_id FROM idempotency_keys
			WHERE key = $1 AND project_id = $2 AND user_id = $3
		`, key.Key, t.ProjectID, key.UserID).Scan(&resourceID)
		if errors.Is(err, pgx.ErrNoRows) || (err == nil && resourceID == nil) {
			// ключ удален или еще не привязан к задаче
			return model.Task{}, false, repo.ErrorConflict
		}
		if err != nil {
			return model.Task{}, false, err
		}

		task, err := scanTask(tx.QueryRow(ctx, `SELECT `+taskColumns+` FROM tasks WHERE id = $1`, *resourceID))
		if errors.Is(err, pgx.ErrNoRows) {
			return model.Task{}, false, repo.ErrorConflict
		}
		return task, false, err
	}

	status := t.Status
	if status == "" {
		status = model.StatusTodo
	}
	task, err := scanTask(tx.QueryRow(ctx, `
		INSERT INTO tasks (project_id, title, status, assignee_user_id, due_date)
		VALUES ($1, $2, $3, $4, $5)
		RETURNING `+taskColumns,
		t.ProjectID, t.Title, string(status), t.AssigneeUserID, t.DueDate,
	))
	if err != nil {
		return model.Task{}, false, mapError(err)
	}

	if _, err := tx.Exec(ctx, `
		UPDATE idempotency_keys SET resource_id = $4
		WHERE key = $1 AND project_id = $2 AND user_id = $3
	`, key.Key, t.ProjectID, key.UserID, task.ID); err != nil {
		return model.Task{}, false, err
	}

	if err := tx.Commit(ctx); err != nil {
		return model.Task{}, false, err
	}
	return task, true, nil
}

func (r *TaskRepo) PruneIdempotencyKeys(ctx context.Context, cutoff time.Time) (int64, error) {
	tag, err := r.pool.Exec(ctx, `DELETE FROM idempotency_keys WHERE created_at < $1`, cutoff)
	if err != nil {
		return 0, err
	}
	return tag.RowsAffected(), nil
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

	rows, err := r.pool.Query(ctx, `
		SELECT status, COUNT(*) FROM tasks WHERE project_id = $1 GROUP BY status
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

func scanTask(row pgx.Row) (model.Task, error) {
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

	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		switch pgErr.Code {
		case "23505": // unique_violation
			return repo.ErrorConflict
		case "23503": // foreign_key_violation
			return repo.ErrorReferenceNotFound
		}
	}
	return err
}
