// Package dbmigrate applies embedded goose migrations over a pgx pool.
package dbmigrate

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"sync"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/jackc/pgx/v5/stdlib"
	"github.com/pressly/goose/v3"
)

// ErrNoMigrations is returned when the source directory holds no migrations.
var ErrNoMigrations = errors.New("dbmigrate: no migrations found")

const tableName = "mfacore_schema_migrations"

// goose keeps its base FS, dialect and logger in package globals.
var gooseMu sync.Mutex

// Source names the embedded migration files.
type Source struct {
	FS  fs.FS
	Dir string
}

// Up applies every pending migration and returns the resulting version.
func Up(ctx context.Context, pool *pgxpool.Pool, src Source) (int64, error) {
	return run(ctx, pool, src, func(db *sql.DB) (int64, error) {
		if err := goose.UpContext(ctx, db, src.Dir); err != nil {
			return 0, err
		}
		return goose.GetDBVersionContext(ctx, db)
	})
}

// Down rolls back the most recent migration.
func Down(ctx context.Context, pool *pgxpool.Pool, src Source) (int64, error) {
	return run(ctx, pool, src, func(db *sql.DB) (int64, error) {
		if err := goose.DownContext(ctx, db, src.Dir); err != nil {
			return 0, err
		}
		return goose.GetDBVersionContext(ctx, db)
	})
}

// Status logs the applied state of every migration.
func Status(ctx context.Context, pool *pgxpool.Pool, src Source) error {
	_, err := run(ctx, pool, src, func(db *sql.DB) (int64, error) {
		return 0, goose.StatusContext(ctx, db, src.Dir)
	})
	return err
}

func run(ctx context.Context, pool *pgxpool.Pool, src Source, fn func(*sql.DB) (int64, error)) (int64, error) {
	matches, err := fs.Glob(src.FS, src.Dir+"/*.sql")
	if err != nil {
		return 0, fmt.Errorf("dbmigrate: %w", err)
	}
	if len(matches) == 0 {
		return 0, ErrNoMigrations
	}

	gooseMu.Lock()
	defer gooseMu.Unlock()

	db := stdlib.OpenDBFromPool(pool)
	defer func() {
		if err := db.Close(); err != nil {
			slog.ErrorContext(ctx, "failed to close migration connection", "error", err)
		}
	}()

	goose.SetBaseFS(src.FS)
	goose.SetLogger(slogAdapter{})
	goose.SetTableName(tableName)
	if err := goose.SetDialect("postgres"); err != nil {
		return 0, fmt.Errorf("dbmigrate: %w", err)
	}

	version, err := fn(db)
	if err != nil {
		return 0, fmt.Errorf("dbmigrate: %w", err)
	}
	return version, nil
}
