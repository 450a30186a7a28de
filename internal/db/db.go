// Package db открывает соединения с хранилищем и применяет схему.
package db

import (
	"context"
	"database/sql"
	"embed"
	"fmt"
	"io/fs"
	"path"

	"github.com/jackc/pgx/v5/pgxpool"
	_ "modernc.org/sqlite"
)

//go:embed migrations
var migrationsFS embed.FS

// ConnectPostgres creates a pool and checks that the database answers.
func ConnectPostgres(ctx context.Context, url string) (*pgxpool.Pool, error) {
	pool, err := pgxpool.New(ctx, url)
	if err != nil {
		return nil, fmt.Errorf("connect postgres: %w", err)
	}
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("ping postgres: %w", err)
	}
	return pool, nil
}

func MigratePostgres(ctx context.Context, pool *pgxpool.Pool) error {
	scripts, err := readScripts("postgres")
	if err != nil {
		return err
	}
	for _, sc := range scripts {
		// без аргументов pgx использует simple protocol, несколько операторов допустимы
		if _, err := pool.Exec(ctx, sc.sql); err != nil {
			return fmt.Errorf("apply %s: %w", sc.name, err)
		}
	}
	return nil
}

// OpenSQLite opens the database file at path and applies the schema.
// The pool is limited to one connection: SQLite has a single writer and
// this keeps every transaction strictly serialized.
func OpenSQLite(ctx context.Context, path string) (*sql.DB, error) {
	if path == "" {
		return nil, fmt.Errorf("sqlite path is required")
	}

	dsn := "file:" + path + "?_pragma=foreign_keys(1)&_pragma=busy_timeout(5000)"
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, err
	}
	db.SetMaxOpenConns(1)

	if err := migrateSQLite(ctx, db); err != nil {
		_ = db.Close()
		return nil, err
	}
	return db, nil
}

func migrateSQLite(ctx context.Context, db *sql.DB) error {
	scripts, err := readScripts("sqlite")
	if err != nil {
		return err
	}
	for _, sc := range scripts {
		if _, err := db.ExecContext(ctx, sc.sql); err != nil {
			return fmt.Errorf("apply %s: %w", sc.name, err)
		}
	}
	return nil
}

type script struct {
	name string
	sql  string
}

// readScripts returns the dialect's migrations ordered by file name.
func readScripts(dialect string) ([]script, error) {
	dir := path.Join("migrations", dialect)
	entries, err := fs.ReadDir(migrationsFS, dir)
	if err != nil {
		return nil, fmt.Errorf("read migrations: %w", err)
	}

	out := make([]script, 0, len(entries))
	for _, e := range entries {
		data, err := migrationsFS.ReadFile(path.Join(dir, e.Name()))
		if err != nil {
			return nil, fmt.Errorf("read %s: %w", e.Name(), err)
		}
		out = append(out, script{name: e.Name(), sql: string(data)})
	}
	return out, nil
}
