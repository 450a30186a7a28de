package repo

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/BuzzLyutic/project-tracker-api/internal/model"
)

var (
	ErrorNotFound = errors.New("not found")
	ErrorConflict = errors.New("conflict")
	// ErrorReferenceNotFound - запись ссылается на отсутствующую строку
	// (нарушение внешнего ключа). Совпадает с ErrorNotFound по errors.Is.
	ErrorReferenceNotFound = fmt.Errorf("referenced row %w", ErrorNotFound)
)

// IdempotencyKey - ключ идемпотентности. Один и тот же Key от другого
// пользователя или в другом проекте считается другим запросом.
type IdempotencyKey struct {
	Key    string
	UserID int64
}

// MutateFunc receives the locked current row and returns the row to write.
// Returning an error aborts the transaction without any write; the error is
// passed to the caller unchanged.
type MutateFunc func(current model.Task) (model.Task, error)

// TaskRepository определяет интерфейс для работы с задачами
type TaskRepository interface {
	Create(ctx context.Context, t model.NewTask) (model.Task, error)
	Get(ctx context.Context, id int64) (model.Task, error)
	ListByProject(ctx context.Context, projectID int64, filter model.TaskFilter) ([]model.Task, error)
	// Update locks the row, applies mutate and writes the result with
	// version+1, conditioned on the version read under the lock.
	// ErrorNotFound if the row is absent, ErrorConflict if the conditional
	// write matched nothing.
	Update(ctx context.Context, id int64, mutate MutateFunc) (model.Task, error)
	Delete(ctx context.Context, id int64) error
	// CreateOnce reserves key and creates t in one transaction, key first.
	// If key is already taken in t.ProjectID it returns the task created by
	// the first request and created=false.
	CreateOnce(ctx context.Context, key IdempotencyKey, t model.NewTask) (task model.Task, created bool, err error)
	// PruneIdempotencyKeys deletes keys saved before cutoff and returns how many were removed.
	PruneIdempotencyKeys(ctx context.Context, cutoff time.Time) (int64, error)
	Stats(ctx context.Context, projectID int64) (model.ProjectStats, error)
}

type ProjectRepository interface {
	Create(ctx context.Context, p model.Project) (model.Project, error)
	Get(ctx context.Context, id int64) (model.Project, error)
	List(ctx context.Context, nameQuery string) ([]model.Project, error)
}

type UserRepository interface {
	Create(ctx context.Context, u model.User) (model.User, error)
	Get(ctx context.Context, id int64) (model.User, error)
	GetByEmail(ctx context.Context, email string) (model.User, error)
	List(ctx context.Context) ([]model.User, error)
}

// Store объединяет репозитории одного хранилища.
type Store struct {
	Tasks    TaskRepository
	Projects ProjectRepository
	Users    UserRepository
}
