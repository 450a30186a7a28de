package seed

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"

	"github.com/BuzzLyutic/project-tracker-api/internal/model"
	"github.com/BuzzLyutic/project-tracker-api/internal/service"
	"github.com/BuzzLyutic/project-tracker-api/internal/testutil"
)

func TestRun(t *testing.T) {
	store := testutil.SQLiteStore(t)
	ctx := context.Background()
	opts := Options{Cost: bcrypt.MinCost}

	first, err := Run(ctx, store, opts, zap.NewNop())
	require.NoError(t, err)
	require.Len(t, first.Users, 3)
	assert.Equal(t, model.RoleAdmin, first.Users[0].Role)
	assert.Equal(t, 4, first.TasksCreated)

	stats, err := store.Tasks.Stats(ctx, first.Project.ID)
	require.NoError(t, err)
	assert.Equal(t, 4, stats.Total)
	assert.Equal(t, 2, stats.ByStatus[model.StatusTodo])
	assert.Equal(t, 1, stats.ByStatus[model.StatusInProgress])
	assert.Equal(t, 1, stats.ByStatus[model.StatusDone])

	t.Run("second run is a no-op", func(t *testing.T) {
		second, err := Run(ctx, store, opts, zap.NewNop())
		require.NoError(t, err)
		assert.Zero(t, second.TasksCreated)
		assert.Equal(t, first.Project.ID, second.Project.ID)
		for i := range first.Users {
			assert.Equal(t, first.Users[i].ID, second.Users[i].ID)
		}

		all, err := store.Users.List(ctx)
		require.NoError(t, err)
		assert.Len(t, all, 3)
	})

	t.Run("seeded users can log in", func(t *testing.T) {
		auth := service.NewAuthService(store.Users, "secret", time.Hour)
		_, user, err := auth.Login(ctx, "alice@tracker.local", DefaultPassword)
		require.NoError(t, err)
		assert.Equal(t, first.Users[1].ID, user.ID)
	})
}
