package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"github.com/BuzzLyutic/project-tracker-api/internal/model"
	"github.com/BuzzLyutic/project-tracker-api/internal/repo"
)

type ProjectRepo struct {
	db *sql.DB
}

func NewProjectRepo(db *sql.DB) *ProjectRepo {
	return &ProjectRepo{db: db}
}

func (r *ProjectRepo) Create(ctx context.Context, p model.Project) (model.Project, error) {
	res, err := r.db.ExecContext(ctx, `
		INSERT INTO projects (name, description, created_at) VALUES (?, ?, ?)
	`, p.Name, p.Description, time.Now().UTC())
	if err != nil {
		return p, mapError(err)
	}
	id, err := res.LastInsertId()
	if err != nil {
		return p, err
	}
	return r.Get(ctx, id)
}

func (r *ProjectRepo) Get(ctx context.Context, id int64) (model.Project, error) {
	var p model.Project
	err := r.db.QueryRowContext(ctx, `
		SELECT id, name, description, created_at FROM projects WHERE id = ?
	`, id).Scan(&p.ID, &p.Name, &p.Description, &p.CreatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return p, repo.ErrorNotFound
	}
	return p, err
}

// LIKE в SQLite регистронезависим только для ASCII.
func (r *ProjectRepo) List(ctx context.Context, nameQuery string) ([]model.Project, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT id, name, description, created_at
		FROM projects
		WHERE (?1 = '' OR name LIKE '%' || ?1 || '%')
		ORDER BY created_at DESC, id DESC
	`, nameQuery)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	projects := make([]model.Project, 0)
	for rows.Next() {
		var p model.Project
		if err := rows.Scan(&p.ID, &p.Name, &p.Description, &p.CreatedAt); err != nil {
			return nil, err
		}
		projects = append(projects, p)
	}
	return projects, rows.Err()
}
