package sqlite

import (
	"context"
	"database/sql"
	"errors"

	"github.com/BuzzLyutic/project-tracker-api/internal/model"
	"github.com/BuzzLyutic/project-tracker-api/internal/repo"
)

type UserRepo struct {
	db *sql.DB
}

func NewUserRepo(db *sql.DB) *UserRepo {
	return &UserRepo{db: db}
}

func (r *UserRepo) Create(ctx context.Context, u model.User) (model.User, error) {
	res, err := r.db.ExecContext(ctx, `
		INSERT INTO users (name, email, password_hash, role) VALUES (?, ?, ?, ?)
	`, u.Name, u.Email, u.PasswordHash, string(u.Role))
	if err != nil {
		return u, mapError(err)
	}
	u.ID, err = res.LastInsertId()
	return u, err
}

func (r *UserRepo) Get(ctx context.Context, id int64) (model.User, error) {
	return r.getOne(ctx, `SELECT id, name, email, role, password_hash FROM users WHERE id = ?`, id)
}

func (r *UserRepo) GetByEmail(ctx context.Context, email string) (model.User, error) {
	return r.getOne(ctx, `SELECT id, name, email, role, password_hash FROM users WHERE email = ?`, email)
}

func (r *UserRepo) List(ctx context.Context) ([]model.User, error) {
	rows, err := r.db.QueryContext(ctx, `SELECT id, name, role FROM users ORDER BY name, id`)
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
	err := r.db.QueryRowContext(ctx, query, arg).Scan(&u.ID, &u.Name, &u.Email, &role, &u.PasswordHash)
	if errors.Is(err, sql.ErrNoRows) {
		return u, repo.ErrorNotFound
	}
	u.Role = model.Role(role)
	return u, err
}
