// Package testutil содержит общие помощники для тестов с настоящей БД.
package testutil

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/modules/postgres"
	"github.com/testcontainers/testcontainers-go/wait"

	"github.com/BuzzLyutic/project-tracker-api/internal/db"
	"github.com/BuzzLyutic/project-tracker-api/internal/model"
	"github.com/BuzzLyutic/project-tracker-api/internal/repo"
	pgrepo "github.com/BuzzLyutic/project-tracker-api/internal/repo/postgres"
	sqliterepo "github.com/BuzzLyutic/project-tracker-api/internal/repo/sqlite"
)

// SQLiteStore открывает чистую SQLite базу во временной директории.
func SQLiteStore(t *testing.T) repo.Store {
	t.Helper()

	conn, err := db.OpenSQLite(context.Background(), filepath.Join(t.TempDir(), "test.db"))
	if err != nil {
		t.Fatalf("Failed to open sqlite: %v", err)
	}
	t.Cleanup(func() { conn.Close() })

	return sqliterepo.NewStore(conn)
}

// SetupTestDB создает тестовую БД PostgreSQL с помощью testcontainers.
// Пропускается в режиме -short.
func SetupTestDB(t *testing.T) (*pgxpool.Pool, func()) {
	t.Helper()
	if testing.Short() {
		t.Skip("postgres container tests are skipped in short mode")
	}
	ctx := context.Background()

	pgContainer, err := postgres.Run(ctx,
		"postgres:15-alpine",
		postgres.WithDatabase("testdb"),
		postgres.WithUsername("testuser"),
		postgres.WithPassword("testpass"),
		testcontainers.WithWaitStrategy(
			wait.ForLog("database system is ready to accept connections").
				WithOccurrence(2).
				WithStartupTimeout(30*time.Second),
		),
	)
	if err != nil {
		t.Fatalf("Failed to start postgres container: %v", err)
	}

	connStr, err := pgContainer.ConnectionString(ctx, "sslmode=disable")
	if err != nil {
		t.Fatalf("Failed to get connection string: %v", err)
	}

	pool, err := db.ConnectPostgres(ctx, connStr)
	if err != nil {
		t.Fatalf("Failed to connect to database: %v", err)
	}
	if err := db.MigratePostgres(ctx, pool); err != nil {
		t.Fatalf("Failed to migrate database: %v", err)
	}

	cleanup := func() {
		pool.Close()
		if err := pgContainer.Terminate(ctx); err != nil {
			t.Errorf("Failed to terminate container: %v", err)
		}
	}

	return pool, cleanup
}

// PostgresStore is SetupTestDB wrapped into a repo.Store.
func PostgresStore(t *testing.T) repo.Store {
	t.Helper()
	pool, cleanup := SetupTestDB(t)
	t.Cleanup(cleanup)
	return pgrepo.NewStore(pool)
}

// Fixture - минимальный набор данных: админ, два участника и проект.
type Fixture struct {
	Admin   model.User
	Alice   model.User
	Bob     model.User
	Project model.Project
}

func SeedFixture(t *testing.T, store repo.Store) Fixture {
	t.Helper()
	ctx := context.Background()

	var f Fixture
	var err error
	if f.Admin, err = store.Users.Create(ctx, model.User{Name: "Admin", Email: "admin@test.local", PasswordHash: "x", Role: model.RoleAdmin}); err != nil {
		t.Fatalf("Failed to seed admin: %v", err)
	}
	if f.Alice, err = store.Users.Create(ctx, model.User{Name: "Alice", Email: "alice@test.local", PasswordHash: "x", Role: model.RoleMember}); err != nil {
		t.Fatalf("Failed to seed alice: %v", err)
	}
	if f.Bob, err = store.Users.Create(ctx, model.User{Name: "Bob", Email: "bob@test.local", PasswordHash: "x", Role: model.RoleMember}); err != nil {
		t.Fatalf("Failed to seed bob: %v", err)
	}
	if f.Project, err = store.Projects.Create(ctx, model.Project{Name: "Tracker"}); err != nil {
		t.Fatalf("Failed to seed project: %v", err)
	}
	return f
}

// SeedTask создает задачу в проекте фикстуры.
func SeedTask(t *testing.T, store repo.Store, projectID int64, title string, assignee *int64) model.Task {
	t.Helper()
	task, err := store.Tasks.Create(context.Background(), model.NewTask{
		ProjectID:      projectID,
		Title:          title,
		AssigneeUserID: assignee,
	})
	if err != nil {
		t.Fatalf("Failed to seed task: %v", err)
	}
	return task
}
