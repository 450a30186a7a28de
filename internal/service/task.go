package service

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/BuzzLyutic/project-tracker-api/internal/apperr"
	"github.com/BuzzLyutic/project-tracker-api/internal/model"
	"github.com/BuzzLyutic/project-tracker-api/internal/repo"
)

const (
	msgVersionRequired  = "Task version is required for updates."
	msgTitleRequired    = "Task title is required."
	msgTaskNotFound     = "Task not found."
	msgProjectNotFound  = "Project not found."
	msgAssigneeNotFound = "Project or assignee user not found."
	msgUnknownAssignee  = "Assignee user not found."
	msgCannotDeleteTask = "You do not have permission to delete this task."
	msgKeyInUse         = "A request with this Idempotency-Key is still in progress. Please retry."
)

type TaskService struct {
	tasks    repo.TaskRepository
	projects repo.ProjectRepository
	users    repo.UserRepository
}

func NewTaskService(store repo.Store) *TaskService {
	return &TaskService{
		tasks:    store.Tasks,
		projects: store.Projects,
		users:    store.Users,
	}
}

// CreateTaskInput - данные для создания задачи в проекте.
type CreateTaskInput struct {
	Title          string
	AssigneeUserID *int64
	DueDate        *time.Time
}

// Create creates a todo task in projectID. Members always become the
// assignee of their own tasks; admins may pick any user or none.
// A repeated idempKey from the same requester in the same project returns
// the task created first.
func (s *TaskService) Create(ctx context.Context, requester model.Requester, projectID int64, in CreateTaskInput, idempKey string) (model.Task, error) {
	if strings.TrimSpace(in.Title) == "" {
		return model.Task{}, apperr.New(apperr.InvalidInput, msgTitleRequired)
	}

	assignee := in.AssigneeUserID
	if !requester.IsAdmin() {
		assignee = &requester.ID
	}

	if _, err := s.projects.Get(ctx, projectID); err != nil {
		return model.Task{}, mapRepoErr(err, msgAssigneeNotFound)
	}
	if assignee != nil {
		if _, err := s.users.Get(ctx, *assignee); err != nil {
			return model.Task{}, mapRepoErr(err, msgAssigneeNotFound)
		}
	}

	newTask := model.NewTask{
		ProjectID:      projectID,
		Title:          in.Title,
		Status:         model.StatusTodo,
		AssigneeUserID: assignee,
		DueDate:        in.DueDate,
	}

	if idempKey == "" {
		task, err := s.tasks.Create(ctx, newTask)
		return task, mapRepoErr(err, msgAssigneeNotFound)
	}

	// Ключ и задача пишутся одной транзакцией, поэтому повтор с тем же ключом
	// никогда не создает вторую задачу.
	task, _, err := s.tasks.CreateOnce(ctx, repo.IdempotencyKey{Key: idempKey, UserID: requester.ID}, newTask)
	if errors.Is(err, repo.ErrorConflict) {
		return model.Task{}, apperr.New(apperr.Conflict, msgKeyInUse)
	}
	return task, mapRepoErr(err, msgAssigneeNotFound)
}

func (s *TaskService) Get(ctx context.Context, id int64) (model.Task, error) {
	task, err := s.tasks.Get(ctx, id)
	return task, mapRepoErr(err, msgTaskNotFound)
}

func (s *TaskService) ListByProject(ctx context.Context, projectID int64, filter model.TaskFilter) ([]model.Task, error) {
	return s.tasks.ListByProject(ctx, projectID, filter)
}

// Update applies patch to the task as one atomic unit. Failures carry an
// apperr kind: InvalidInput, NotFound, Forbidden, Conflict or
// InvalidTransition. On Conflict the caller must re-fetch and retry.
func (s *TaskService) Update(ctx context.Context, id int64, requester model.Requester, patch model.TaskPatch) (model.Task, error) {
	if patch.Version == nil {
		return model.Task{}, apperr.New(apperr.InvalidInput, msgVersionRequired)
	}
	if patch.Title != nil && strings.TrimSpace(*patch.Title) == "" {
		return model.Task{}, apperr.New(apperr.InvalidInput, msgTitleRequired)
	}

	task, err := s.tasks.Update(ctx, id, func(current model.Task) (model.Task, error) {
		return applyPatch(current, requester, patch)
	})
	// Несуществующий исполнитель обнаруживается внешним ключом при записи,
	// то есть уже после блокировки строки и проверки версии.
	if errors.Is(err, repo.ErrorReferenceNotFound) {
		return model.Task{}, apperr.New(apperr.NotFound, msgUnknownAssignee)
	}
	if err != nil {
		return model.Task{}, mapRepoErr(err, msgTaskNotFound)
	}
	return task, nil
}

// Delete removes a task. Only admins and the current assignee may do it.
func (s *TaskService) Delete(ctx context.Context, id int64, requester model.Requester) error {
	task, err := s.tasks.Get(ctx, id)
	if err != nil {
		return mapRepoErr(err, msgTaskNotFound)
	}

	if !requester.IsAdmin() && !task.AssignedTo(requester.ID) {
		return apperr.New(apperr.Forbidden, msgCannotDeleteTask)
	}

	return mapRepoErr(s.tasks.Delete(ctx, id), msgTaskNotFound)
}

func (s *TaskService) Stats(ctx context.Context, projectID int64) (model.ProjectStats, error) {
	if _, err := s.projects.Get(ctx, projectID); err != nil {
		return model.ProjectStats{}, mapRepoErr(err, msgProjectNotFound)
	}
	return s.tasks.Stats(ctx, projectID)
}

// mapRepoErr переводит ошибки хранилища в apperr. Ошибки, уже имеющие вид
// apperr, и неизвестные ошибки возвращаются как есть.
func mapRepoErr(err error, notFoundMsg string) error {
	switch {
	case err == nil:
		return nil
	case errors.Is(err, repo.ErrorNotFound):
		return apperr.New(apperr.NotFound, notFoundMsg)
	case errors.Is(err, repo.ErrorConflict):
		return apperr.New(apperr.Conflict, msgStaleVersion)
	default:
		return err
	}
}
