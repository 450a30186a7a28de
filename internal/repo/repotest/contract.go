// Package repotest проверяет одинаковое поведение всех реализаций хранилища.
package repotest

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/BuzzLyutic/project-tracker-api/internal/model"
	"github.com/BuzzLyutic/project-tracker-api/internal/repo"
	"github.com/BuzzLyutic/project-tracker-api/internal/testutil"
)

// Run executes the storage contract against a single store instance.
func Run(t *testing.T, store repo.Store) {
	f := testutil.SeedFixture(t, store)
	ctx := context.Background()

	t.Run("create and get task", func(t *testing.T) {
		created := testutil.SeedTask(t, store, f.Project.ID, "Write docs", &f.Alice.ID)

		assert.NotZero(t, created.ID)
		assert.Equal(t, model.StatusTodo, created.Status)
		assert.Equal(t, 1, created.Version)
		require.NotNil(t, created.AssigneeUserID)
		assert.Equal(t, f.Alice.ID, *created.AssigneeUserID)

		got, err := store.Tasks.Get(ctx, created.ID)
		require.NoError(t, err)
		assert.Equal(t, created.Title, got.Title)
		assert.Equal(t, created.Version, got.Version)
	})

	t.Run("get missing task", func(t *testing.T) {
		_, err := store.Tasks.Get(ctx, 999999)
		assert.ErrorIs(t, err, repo.ErrorNotFound)
	})

	t.Run("create task in missing project", func(t *testing.T) {
		_, err := store.Tasks.Create(ctx, model.NewTask{ProjectID: 999999, Title: "Orphan"})
		assert.ErrorIs(t, err, repo.ErrorNotFound)
	})

	t.Run("list by project with filters", func(t *testing.T) {
		project, err := store.Projects.Create(ctx, model.Project{Name: "Listing"})
		require.NoError(t, err)

		first := testutil.SeedTask(t, store, project.ID, "first", &f.Alice.ID)
		testutil.SeedTask(t, store, project.ID, "second", &f.Bob.ID)
		testutil.SeedTask(t, store, project.ID, "unassigned", nil)
		testutil.SeedTask(t, store, f.Project.ID, "other project", &f.Alice.ID)

		_, err = store.Tasks.Update(ctx, first.ID, func(cur model.Task) (model.Task, error) {
			cur.Status = model.StatusInProgress
			return cur, nil
		})
		require.NoError(t, err)

		all, err := store.Tasks.ListByProject(ctx, project.ID, model.TaskFilter{})
		require.NoError(t, err)
		require.Len(t, all, 3)
		assert.Equal(t, "unassigned", all[0].Title, "newest first")
		assert.Nil(t, all[0].AssigneeName)

		inProgress := model.StatusInProgress
		byStatus, err := store.Tasks.ListByProject(ctx, project.ID, model.TaskFilter{Status: &inProgress})
		require.NoError(t, err)
		require.Len(t, byStatus, 1)
		assert.Equal(t, first.ID, byStatus[0].ID)

		byAssignee, err := store.Tasks.ListByProject(ctx, project.ID, model.TaskFilter{AssigneeID: &f.Bob.ID})
		require.NoError(t, err)
		require.Len(t, byAssignee, 1)
		require.NotNil(t, byAssignee[0].AssigneeName)
		assert.Equal(t, "Bob", *byAssignee[0].AssigneeName)
	})

	t.Run("update bumps version", func(t *testing.T) {
		task := testutil.SeedTask(t, store, f.Project.ID, "Update me", &f.Alice.ID)

		updated, err := store.Tasks.Update(ctx, task.ID, func(cur model.Task) (model.Task, error) {
			cur.Title = "Updated"
			cur.Status = model.StatusInProgress
			cur.AssigneeUserID = &f.Bob.ID
			return cur, nil
		})
		require.NoError(t, err)

		assert.Equal(t, "Updated", updated.Title)
		assert.Equal(t, model.StatusInProgress, updated.Status)
		assert.Equal(t, task.Version+1, updated.Version)
		require.NotNil(t, updated.AssigneeUserID)
		assert.Equal(t, f.Bob.ID, *updated.AssigneeUserID)
		assert.Equal(t, task.ProjectID, updated.ProjectID)
	})

	t.Run("update can clear assignee", func(t *testing.T) {
		task := testutil.SeedTask(t, store, f.Project.ID, "Unassign me", &f.Alice.ID)

		updated, err := store.Tasks.Update(ctx, task.ID, func(cur model.Task) (model.Task, error) {
			cur.AssigneeUserID = nil
			return cur, nil
		})
		require.NoError(t, err)
		assert.Nil(t, updated.AssigneeUserID)
	})

	t.Run("mutate error rolls back", func(t *testing.T) {
		task := testutil.SeedTask(t, store, f.Project.ID, "Untouched", &f.Alice.ID)
		errPolicy := errors.New("policy says no")

		_, err := store.Tasks.Update(ctx, task.ID, func(cur model.Task) (model.Task, error) {
			return model.Task{}, errPolicy
		})
		assert.ErrorIs(t, err, errPolicy)

		got, err := store.Tasks.Get(ctx, task.ID)
		require.NoError(t, err)
		assert.Equal(t, task.Version, got.Version)
		assert.Equal(t, "Untouched", got.Title)
	})

	t.Run("update missing task", func(t *testing.T) {
		called := false
		_, err := store.Tasks.Update(ctx, 999999, func(cur model.Task) (model.Task, error) {
			called = true
			return cur, nil
		})
		assert.ErrorIs(t, err, repo.ErrorNotFound)
		assert.False(t, called, "mutate must not run for a missing row")
	})

	t.Run("update assignee to missing user", func(t *testing.T) {
		task := testutil.SeedTask(t, store, f.Project.ID, "FK", nil)
		ghost := int64(999999)

		_, err := store.Tasks.Update(ctx, task.ID, func(cur model.Task) (model.Task, error) {
			cur.AssigneeUserID = &ghost
			return cur, nil
		})
		assert.ErrorIs(t, err, repo.ErrorReferenceNotFound)
		assert.ErrorIs(t, err, repo.ErrorNotFound)
	})

	t.Run("concurrent updates with the same version", func(t *testing.T) {
		task := testutil.SeedTask(t, store, f.Project.ID, "Contended", &f.Alice.ID)

		const goroutines = 10
		var wg sync.WaitGroup
		errs := make([]error, goroutines)

		for i := 0; i < goroutines; i++ {
			wg.Add(1)
			go func(idx int) {
				defer wg.Done()
				_, errs[idx] = store.Tasks.Update(ctx, task.ID, func(cur model.Task) (model.Task, error) {
					if cur.Version != task.Version {
						return model.Task{}, repo.ErrorConflict
					}
					cur.Title = fmt.Sprintf("Updated %d", idx)
					return cur, nil
				})
			}(i)
		}
		wg.Wait()

		successCount, conflictCount := 0, 0
		for i, err := range errs {
			switch {
			case err == nil:
				successCount++
			case errors.Is(err, repo.ErrorConflict):
				conflictCount++
			default:
				t.Errorf("unexpected error at %d: %v", i, err)
			}
		}

		assert.Equal(t, 1, successCount, "exactly one update should succeed")
		assert.Equal(t, goroutines-1, conflictCount, "others should conflict")

		final, err := store.Tasks.Get(ctx, task.ID)
		require.NoError(t, err)
		assert.Equal(t, task.Version+1, final.Version)
	})

	t.Run("delete", func(t *testing.T) {
		task := testutil.SeedTask(t, store, f.Project.ID, "Delete me", nil)

		require.NoError(t, store.Tasks.Delete(ctx, task.ID))
		_, err := store.Tasks.Get(ctx, task.ID)
		assert.ErrorIs(t, err, repo.ErrorNotFound)

		assert.ErrorIs(t, store.Tasks.Delete(ctx, task.ID), repo.ErrorNotFound)
	})

	t.Run("create once", func(t *testing.T) {
		key := repo.IdempotencyKey{Key: "key-1", UserID: f.Admin.ID}
		newTask := model.NewTask{ProjectID: f.Project.ID, Title: "Once", Status: model.StatusTodo}

		first, created, err := store.Tasks.CreateOnce(ctx, key, newTask)
		require.NoError(t, err)
		assert.True(t, created)
		assert.Equal(t, "Once", first.Title)

		again, created, err := store.Tasks.CreateOnce(ctx, key, model.NewTask{ProjectID: f.Project.ID, Title: "Twice"})
		require.NoError(t, err)
		assert.False(t, created)
		assert.Equal(t, first.ID, again.ID)
		assert.Equal(t, "Once", again.Title)

		otherUser, created, err := store.Tasks.CreateOnce(ctx, repo.IdempotencyKey{Key: "key-1", UserID: f.Alice.ID}, newTask)
		require.NoError(t, err)
		assert.True(t, created, "keys are scoped by user")
		assert.NotEqual(t, first.ID, otherUser.ID)

		project, err := store.Projects.Create(ctx, model.Project{Name: "Other keys"})
		require.NoError(t, err)
		otherProject, created, err := store.Tasks.CreateOnce(ctx, key, model.NewTask{ProjectID: project.ID, Title: "Once"})
		require.NoError(t, err)
		assert.True(t, created, "keys are scoped by project")
		assert.Equal(t, project.ID, otherProject.ProjectID)
	})

	t.Run("create once in missing project", func(t *testing.T) {
		key := repo.IdempotencyKey{Key: "orphan", UserID: f.Admin.ID}
		_, _, err := store.Tasks.CreateOnce(ctx, key, model.NewTask{ProjectID: 999999, Title: "Orphan"})
		assert.ErrorIs(t, err, repo.ErrorNotFound)

		_, _, err = store.Tasks.CreateOnce(ctx, repo.IdempotencyKey{Key: "ghost", UserID: 999999},
			model.NewTask{ProjectID: f.Project.ID, Title: "Ghost"})
		assert.ErrorIs(t, err, repo.ErrorNotFound)
	})

	t.Run("concurrent create once with the same key", func(t *testing.T) {
		project, err := store.Projects.Create(ctx, model.Project{Name: "Contended create"})
		require.NoError(t, err)
		key := repo.IdempotencyKey{Key: "race", UserID: f.Admin.ID}

		const goroutines = 8
		var wg sync.WaitGroup
		tasks := make([]model.Task, goroutines)
		created := make([]bool, goroutines)
		errs := make([]error, goroutines)

		for i := 0; i < goroutines; i++ {
			wg.Add(1)
			go func(idx int) {
				defer wg.Done()
				tasks[idx], created[idx], errs[idx] = store.Tasks.CreateOnce(ctx, key,
					model.NewTask{ProjectID: project.ID, Title: fmt.Sprintf("race %d", idx)})
			}(i)
		}
		wg.Wait()

		createdCount := 0
		for i, err := range errs {
			require.NoError(t, err, "goroutine %d", i)
			if created[i] {
				createdCount++
			}
			assert.Equal(t, tasks[0].ID, tasks[i].ID)
		}
		assert.Equal(t, 1, createdCount, "exactly one request creates the task")

		all, err := store.Tasks.ListByProject(ctx, project.ID, model.TaskFilter{})
		require.NoError(t, err)
		assert.Len(t, all, 1)
	})

	t.Run("prune idempotency keys", func(t *testing.T) {
		project, err := store.Projects.Create(ctx, model.Project{Name: "Prune"})
		require.NoError(t, err)
		key := repo.IdempotencyKey{Key: "prune", UserID: f.Bob.ID}
		newTask := model.NewTask{ProjectID: project.ID, Title: "Prune"}

		_, _, err = store.Tasks.CreateOnce(ctx, key, newTask)
		require.NoError(t, err)

		removed, err := store.Tasks.PruneIdempotencyKeys(ctx, time.Now().Add(-time.Hour))
		require.NoError(t, err)
		assert.Zero(t, removed, "fresh keys survive")

		removed, err = store.Tasks.PruneIdempotencyKeys(ctx, time.Now().Add(time.Minute))
		require.NoError(t, err)
		assert.GreaterOrEqual(t, removed, int64(1))

		_, created, err := store.Tasks.CreateOnce(ctx, key, newTask)
		require.NoError(t, err)
		assert.True(t, created, "pruned key is free again")
	})

	t.Run("deleting the task frees its key", func(t *testing.T) {
		key := repo.IdempotencyKey{Key: "cascade", UserID: f.Admin.ID}
		newTask := model.NewTask{ProjectID: f.Project.ID, Title: "Cascade"}

		task, _, err := store.Tasks.CreateOnce(ctx, key, newTask)
		require.NoError(t, err)
		require.NoError(t, store.Tasks.Delete(ctx, task.ID))

		again, created, err := store.Tasks.CreateOnce(ctx, key, newTask)
		require.NoError(t, err)
		assert.True(t, created)
		assert.NotEqual(t, task.ID, again.ID)
	})

	t.Run("stats", func(t *testing.T) {
		project, err := store.Projects.Create(ctx, model.Project{Name: "Stats"})
		require.NoError(t, err)

		testutil.SeedTask(t, store, project.ID, "a", nil)
		testutil.SeedTask(t, store, project.ID, "b", nil)
		_, err = store.Tasks.Create(ctx, model.NewTask{ProjectID: project.ID, Title: "c", Status: model.StatusDone})
		require.NoError(t, err)

		stats, err := store.Tasks.Stats(ctx, project.ID)
		require.NoError(t, err)
		assert.Equal(t, 3, stats.Total)
		assert.Equal(t, 2, stats.ByStatus[model.StatusTodo])
		assert.Equal(t, 0, stats.ByStatus[model.StatusInProgress])
		assert.Equal(t, 1, stats.ByStatus[model.StatusDone])
	})

	t.Run("projects", func(t *testing.T) {
		desc := "infra work"
		created, err := store.Projects.Create(ctx, model.Project{Name: "Platform Migration", Description: &desc})
		require.NoError(t, err)
		assert.NotZero(t, created.ID)
		assert.False(t, created.CreatedAt.IsZero())

		got, err := store.Projects.Get(ctx, created.ID)
		require.NoError(t, err)
		require.NotNil(t, got.Description)
		assert.Equal(t, desc, *got.Description)

		found, err := store.Projects.List(ctx, "migration")
		require.NoError(t, err)
		require.Len(t, found, 1)
		assert.Equal(t, created.ID, found[0].ID)

		all, err := store.Projects.List(ctx, "")
		require.NoError(t, err)
		assert.GreaterOrEqual(t, len(all), 2)

		_, err = store.Projects.Get(ctx, 999999)
		assert.ErrorIs(t, err, repo.ErrorNotFound)
	})

	t.Run("users", func(t *testing.T) {
		_, err := store.Users.Create(ctx, model.User{Name: "Dup", Email: f.Alice.Email, PasswordHash: "x", Role: model.RoleMember})
		assert.ErrorIs(t, err, repo.ErrorConflict)

		byEmail, err := store.Users.GetByEmail(ctx, f.Admin.Email)
		require.NoError(t, err)
		assert.Equal(t, f.Admin.ID, byEmail.ID)
		assert.Equal(t, model.RoleAdmin, byEmail.Role)
		assert.NotEmpty(t, byEmail.PasswordHash)

		_, err = store.Users.GetByEmail(ctx, "nobody@test.local")
		assert.ErrorIs(t, err, repo.ErrorNotFound)

		users, err := store.Users.List(ctx)
		require.NoError(t, err)
		require.Len(t, users, 3)
		assert.Equal(t, []string{"Admin", "Alice", "Bob"}, []string{users[0].Name, users[1].Name, users[2].Name})
		assert.Empty(t, users[0].PasswordHash)
	})
}
