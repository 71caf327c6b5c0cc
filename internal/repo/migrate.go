package repo

import (
	"context"
	"database/sql"
	"fmt"
	"io/fs"

	"github.com/birlikkoshan/todo-api/migrations"

	"github.com/pressly/goose/v3"
)

// Migrate applies the embedded migrations under dir (e.g. "postgres", "sqlite") to db.
func Migrate(ctx context.Context, db *sql.DB, dialect goose.Dialect, dir string) error {
	fsys, err := fs.Sub(migrations.FS, dir)
	if err != nil {
		return fmt.Errorf("migrations dir %q: %w", dir, err)
	}
	provider, err := goose.NewProvider(dialect, db, fsys)
	if err != nil {
		return fmt.Errorf("goose provider: %w", err)
	}
	if _, err := provider.Up(ctx); err != nil {
		return fmt.Errorf("goose up: %w", err)
	}
	return nil
}
