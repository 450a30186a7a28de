package postgres

import (
	"context"
	"errors"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/BuzzLyutic/project-tracker-api/internal/model"
	"github.com/BuzzLyutic/project-tracker-api/internal/repo"
)

type ProjectRepo struct {
	pool *pgxpool.Pool
}

func NewProjectRepo(pool *pgxpool.Pool) *ProjectRepo {
	return &ProjectRepo{pool: pool}
}

func (r *ProjectRepo) Create(ctx context.Context, p model.Project) (model.Project, error) {
	err := r.pool.QueryRow(ctx, `
		INSERT INTO projects (name, description)
		VALUES ($1, $2)
		RETURNING id, name, description, created_at
	`, p.Name, p.Description).Scan(&p.ID, &p.Name, &p.Description, &p.CreatedAt)
	return p, mapError(err)
}

func (r *ProjectRepo) Get(ctx context.Context, id int64) (model.Project, error) {
	var p model.Project
	err := r.pool.QueryRow(ctx, `
		SELECT id, name, description, created_at FROM projects WHERE id = $1
	`, id).Scan(&p.ID, &p.Name, &p.Description, &p.CreatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return p, repo.ErrorNotFound
	}
	return p, err
}

// List возвращает проекты, новые первыми. Пустой nameQuery - без фильтра.
func (r *ProjectRepo) List(ctx context.Context, nameQuery string) ([]model.Project, error) {
	rows, err := r.pool.Query(ctx, `
		SELECT id, name, description, created_at
		FROM projects
		WHERE ($1::text = '' OR name ILIKE '%' || $1::text || '%')
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
