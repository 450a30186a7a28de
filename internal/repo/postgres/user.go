package postgres

import (
	"context"
	"errors"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/BuzzLyutic/project-tracker-api/internal/model"
	"github.com/BuzzLyutic/project-tracker-api/internal/repo"
)

type UserRepo struct {
	pool *pgxpool.Pool
}

func NewUserRepo(pool *pgxpool.Pool) *UserRepo {
	return &UserRepo{pool: pool}
}

// Create inserts a user; an existing email yields repo.ErrorConflict.
func (r *UserRepo) Create(ctx context.Context, u model.User) (model.User, error) {
	err := r.pool.QueryRow(ctx, `
		INSERT INTO users (name, email, password_hash, role)
		VALUES ($1, $2, $3, $4)
		RETURNING id
	`, u.Name, u.Email, u.PasswordHash, string(u.Role)).Scan(&u.ID)
	return u, mapError(err)
}

func (r *UserRepo) Get(ctx context.Context, id int64) (model.User, error) {
	return r.getOne(ctx, `SELECT id, name, email, role, password_hash FROM users WHERE id = $1`, id)
}

func (r *UserRepo) GetByEmail(ctx context.Context, email string) (model.User, error) {
	return r.getOne(ctx, `SELECT id, name, email, role, password_hash FROM users WHERE email = $1`, email)
}

func (r *UserRepo) List(ctx context.Context) ([]model.User, error) {
	rows, err := r.pool.Query(ctx, `SELECT id, name, role FROM users ORDER BY name, id`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	users := make([]model.User, 0)
	for rows.Next() {
		var (
			u    model.User
			role string
		)
		if err := rows.Scan(&u.ID, &u.Name, &role); err != nil {
			return nil, err
		}
		u.Role = model.Role(role)
		users = append(users, u)
	}
	return users, rows.Err()
}

func (r *UserRepo) getOne(ctx context.Context, query string, arg any) (model.User, error) {
	var (
		u    model.User
		role string
	)
	err := r.pool.QueryRow(ctx, query, arg).Scan(&u.ID, &u.Name, &u.Email, &role, &u.PasswordHash)
	if errors.Is(err, pgx.ErrNoRows) {
		return u, repo.ErrorNotFound
	}
	u.Role = model.Role(role)
	return u, err
}
