package service

import (
	"context"
	"strings"

	"github.com/BuzzLyutic/project-tracker-api/internal/apperr"
	"github.com/BuzzLyutic/project-tracker-api/internal/model"
	"github.com/BuzzLyutic/project-tracker-api/internal/repo"
)

type ProjectService struct {
	repo repo.ProjectRepository
}

func NewProjectService(repo repo.ProjectRepository) *ProjectService {
	return &ProjectService{repo: repo}
}

func (s *ProjectService) List(ctx context.Context, nameQuery string) ([]model.Project, error) {
	return s.repo.List(ctx, strings.TrimSpace(nameQuery))
}

func (s *ProjectService) Create(ctx context.Context, name string, description *string) (model.Project, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return model.Project{}, apperr.New(apperr.InvalidInput, "Project name is required.")
	}
	if description != nil && strings.TrimSpace(*description) == "" {
		description = nil
	}
	return s.repo.Create(ctx, model.Project{Name: name, Description: description})
}
