package service

import (
	"context"
	"time"

	"github.com/stretchr/testify/mock"

	"github.com/BuzzLyutic/project-tracker-api/internal/model"
	"github.com/BuzzLyutic/project-tracker-api/internal/repo"
)

// MockTaskRepository - мок репозитория
type MockTaskRepository struct {
	mock.Mock
}

func (m *MockTaskRepository) Create(ctx context.Context, t model.NewTask) (model.Task, error) {
	args := m.Called(ctx, t)
	return args.Get(0).(model.Task), args.Error(1)
}

func (m *MockTaskRepository) Get(ctx context.Context, id int64) (model.Task, error) {
	args := m.Called(ctx, id)
	return args.Get(0).(model.Task), args.Error(1)
}

func (m *MockTaskRepository) ListByProject(ctx context.Context, projectID int64, filter model.TaskFilter) ([]model.Task, error) {
	args := m.Called(ctx, projectID, filter)
	return args.Get(0).([]model.Task), args.Error(1)
}

// Update отдает mutate строку, заданную в ожидании, и имитирует запись с version+1.
func (m *MockTaskRepository) Update(ctx context.Context, id int64, mutate repo.MutateFunc) (model.Task, error) {
	args := m.Called(ctx, id)
	if err := args.Error(1); err != nil {
		return model.Task{}, err
	}
	next, err := mutate(args.Get(0).(model.Task))
	if err != nil {
		return model.Task{}, err
	}
	next.Version++
	return next, nil
}

func (m *MockTaskRepository) Delete(ctx context.Context, id int64) error {
	args := m.Called(ctx, id)
	return args.Error(0)
}

func (m *MockTaskRepository) CreateOnce(ctx context.Context, key repo.IdempotencyKey, t model.NewTask) (model.Task, bool, error) {
	args := m.Called(ctx, key, t)
	return args.Get(0).(model.Task), args.Bool(1), args.Error(2)
}

func (m *MockTaskRepository) PruneIdempotencyKeys(ctx context.Context, cutoff time.Time) (int64, error) {
	args := m.Called(ctx, cutoff)
	return args.Get(0).(int64), args.Error(1)
}

func (m *MockTaskRepository) Stats(ctx context.Context, projectID int64) (model.ProjectStats, error) {
	args := m.Called(ctx, projectID)
	return args.Get(0).(model.ProjectStats), args.Error(1)
}

type MockProjectRepository struct {
	mock.Mock
}

func (m *MockProjectRepository) Create(ctx context.Context, p model.Project) (model.Project, error) {
	args := m.Called(ctx, p)
	return args.Get(0).(model.Project), args.Error(1)
}

func (m *MockProjectRepository) Get(ctx context.Context, id int64) (model.Project, error) {
	args := m.Called(ctx, id)
	return args.Get(0).(model.Project), args.Error(1)
}

func (m *MockProjectRepository) List(ctx context.Context, nameQuery string) ([]model.Project, error) {
	args := m.Called(ctx, nameQuery)
	return args.Get(0).([]model.Project), args.Error(1)
}

type MockUserRepository struct {
	mock.Mock
}

func (m *MockUserRepository) Create(ctx context.Context, u model.User) (model.User, error) {
	args := m.Called(ctx, u)
	return args.Get(0).(model.User), args.Error(1)
}

func (m *MockUserRepository) Get(ctx context.Context, id int64) (model.User, error) {
	args := m.Called(ctx, id)
	return args.Get(0).(model.User), args.Error(1)
}

func (m *MockUserRepository) GetByEmail(ctx context.Context, email string) (model.User, error) {
	args := m.Called(ctx, email)
	return args.Get(0).(model.User), args.Error(1)
}

func (m *MockUserRepository) List(ctx context.Context) ([]model.User, error) {
	args := m.Called(ctx)
	return args.Get(0).([]model.User), args.Error(1)
}

type mocks struct {
	tasks    *MockTaskRepository
	projects *MockProjectRepository
	users    *MockUserRepository
}

func newMocks() mocks {
	return mocks{
		tasks:    new(MockTaskRepository),
		projects: new(MockProjectRepository),
		users:    new(MockUserRepository),
	}
}

func (m mocks) store() repo.Store {
	return repo.Store{Tasks: m.tasks, Projects: m.projects, Users: m.users}
}

func (m mocks) assert(t mock.TestingT) {
	m.tasks.AssertExpectations(t)
	m.projects.AssertExpectations(t)
	m.users.AssertExpectations(t)
}

func ptr[T any](v T) *T { return &v }
