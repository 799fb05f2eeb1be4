package store

import (
	"context"
	"database/sql"
	"fmt"
	"io/fs"
	"log/slog"

	"github.com/pressly/goose/v3"

	"github.com/johndosdos/roomrelay/sql/schema"
)

// Migrate applies the embedded migrations found in dir for the given dialect.
func Migrate(ctx context.Context, db *sql.DB, dialect goose.Dialect, dir string) error {
	fsys, err := fs.Sub(schema.FS, dir)
	if err != nil {
		return fmt.Errorf("internal/store: could not open migrations [%s]: %w", dir, err)
	}

	provider, err := goose.NewProvider(dialect, db, fsys)
	if err != nil {
		return fmt.Errorf("internal/store: could not create migration provider: %w", err)
	}

	results, err := provider.Up(ctx)
	if err != nil {
		return fmt.Errorf("internal/store: migration failed: %w", err)
	}

	for _, r := range results {
		slog.InfoContext(ctx, "applied migration",
			"version", r.Source.Version,
			"duration", r.Duration)
	}

	return nil
}
