package testutil

import (
	"context"
	"database/sql"
	"log"
	"os"
	"path/filepath"
	"runtime"
	"testing"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/jackc/pgx/v5/stdlib"
	"github.com/joho/godotenv"
	"github.com/pressly/goose/v3"

	"github.com/johndosdos/roomrelay/sql/schema"
)

func ProjectRoot() string {
	_, file, _, _ := runtime.Caller(0)
	root := filepath.Join(filepath.Dir(file), "../../")
	return root
}

// DbInit connects to TEST_DB_URL and resets it to an empty, fully migrated
// schema. Tests are skipped when no database is configured.
func DbInit(t testing.TB) (*pgxpool.Pool, *sql.DB) {
	t.Helper()

	if err := godotenv.Load(filepath.Join(ProjectRoot(), ".env")); err != nil {
		log.Printf("failed to load .env file: %+v", err)
	}

	testURL := os.Getenv("TEST_DB_URL")
	if testURL == "" {
		t.Skip("TEST_DB_URL environment variable is not set")
	}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	dbPool, err := pgxpool.New(ctx, testURL)
	if err != nil {
		t.Fatalf("could not connect to the postgresql database: %v", err)
	}

	goose.SetBaseFS(schema.FS)
	if err := goose.SetDialect("postgres"); err != nil {
		t.Fatalf("goose.SetDialect() error = %+v", err)
	}

	dbForGoose := stdlib.OpenDBFromPool(dbPool)
	DbGooseReset(t, dbForGoose)
	DbGooseUp(t, dbForGoose)

	t.Cleanup(func() {
		DbGooseReset(t, dbForGoose)
		if err := dbForGoose.Close(); err != nil {
			t.Errorf("db.Close() error = %+v", err)
		}
		dbPool.Close()
	})

	return dbPool, dbForGoose
}

func DbGooseUp(t testing.TB, dbForGoose *sql.DB) {
	t.Helper()
	if err := goose.Up(dbForGoose, schema.PostgresDir); err != nil {
		t.Fatalf("goose.Up() error = %+v", err)
	}
}

func DbGooseReset(t testing.TB, dbForGoose *sql.DB) {
	t.Helper()
	if err := goose.Reset(dbForGoose, schema.PostgresDir); err != nil {
		t.Fatalf("goose.Reset() error = %+v", err)
	}
}
