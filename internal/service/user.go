package service

import (
	"context"

	"github.com/BuzzLyutic/project-tracker-api/internal/model"
	"github.com/BuzzLyutic/project-tracker-api/internal/repo"
)

type UserService struct {
	repo repo.UserRepository
}

func NewUserService(repo repo.UserRepository) *UserService {
	return &UserService{repo: repo}
}

// List returns id, name and role of every user, ordered by name.
func (s *UserService) List(ctx context.Context) ([]model.User, error) {
	return s.repo.List(ctx)
}
