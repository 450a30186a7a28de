// Package seed наполняет пустую базу демонстрационными данными.
// Повторный запуск ничего не дублирует.
package seed

import (
	"context"
	"errors"
	"fmt"

	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"

	"github.com/BuzzLyutic/project-tracker-api/internal/model"
	"github.com/BuzzLyutic/project-tracker-api/internal/repo"
	"github.com/BuzzLyutic/project-tracker-api/internal/service"
)

const (
	DefaultPassword = "1234"
	ProjectName     = "Task Tracker Rollout"
)

type Options struct {
	Password string
	Cost     int // bcrypt cost, 0 means bcrypt.DefaultCost
}

type Result struct {
	Users        []model.User
	Project      model.Project
	TasksCreated int
}

var users = []model.User{
	{Name: "Admin", Email: "admin@tracker.local", Role: model.RoleAdmin},
	{Name: "Alice", Email: "alice@tracker.local", Role: model.RoleMember},
	{Name: "Bob", Email: "bob@tracker.local", Role: model.RoleMember},
}

type seedTask struct {
	title    string
	status   model.TaskStatus
	assignee int // индекс в users
}

var tasks = []seedTask{
	{"Set up the repository", model.StatusInProgress, 1},
	{"Migrate user database", model.StatusTodo, 2},
	{"Deploy frontend v1", model.StatusTodo, 1},
	{"Write API documentation", model.StatusDone, 0},
}

func Run(ctx context.Context, store repo.Store, opts Options, logger *zap.Logger) (Result, error) {
	if opts.Password == "" {
		opts.Password = DefaultPassword
	}
	if opts.Cost == 0 {
		opts.Cost = bcrypt.DefaultCost
	}

	hash, err := service.HashPassword(opts.Password, opts.Cost)
	if err != nil {
		return Result{}, err
	}

	var res Result
	for _, u := range users {
		u.PasswordHash = hash
		created, err := ensureUser(ctx, store.Users, u)
		if err != nil {
			return Result{}, fmt.Errorf("seed user %s: %w", u.Email, err)
		}
		res.Users = append(res.Users, created)
	}
	logger.Info("Users seeded", zap.Int("count", len(res.Users)))

	res.Project, err = ensureProject(ctx, store.Projects)
	if err != nil {
		return Result{}, fmt.Errorf("seed project: %w", err)
	}

	existing, err := store.Tasks.ListByProject(ctx, res.Project.ID, model.TaskFilter{})
	if err != nil {
		return Result{}, err
	}
	if len(existing) > 0 {
		logger.Info("Tasks already seeded", zap.Int64("project_id", res.Project.ID))
		return res, nil
	}

	for _, st := range tasks {
		assignee := res.Users[st.assignee].ID
		if _, err := store.Tasks.Create(ctx, model.NewTask{
			ProjectID:      res.Project.ID,
			Title:          st.title,
			Status:         st.status,
			AssigneeUserID: &assignee,
		}); err != nil {
			return Result{}, fmt.Errorf("seed task %q: %w", st.title, err)
		}
		res.TasksCreated++
	}
	logger.Info("Tasks seeded", zap.Int("count", res.TasksCreated))

	return res, nil
}

// ensureUser создает пользователя или возвращает существующего с тем же email.
func ensureUser(ctx context.Context, users repo.UserRepository, u model.User) (model.User, error) {
	created, err := users.Create(ctx, u)
	if errors.Is(err, repo.ErrorConflict) {
		return users.GetByEmail(ctx, u.Email)
	}
	return created, err
}

func ensureProject(ctx context.Context, projects repo.ProjectRepository) (model.Project, error) {
	found, err := projects.List(ctx, ProjectName)
	if err != nil {
		return model.Project{}, err
	}
	for _, p := range found {
		if p.Name == ProjectName {
			return p, nil
		}
	}

	desc := "Demo project created by the seeder."
	return projects.Create(ctx, model.Project{Name: ProjectName, Description: &desc})
}
