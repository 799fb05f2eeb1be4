// Package schema embeds the goose migrations for every supported database.
package schema

import "embed"

// FS holds one directory of migrations per dialect.
//
//go:embed postgres/*.sql sqlite/*.sql
var FS embed.FS

const (
	PostgresDir = "postgres"
	SQLiteDir   = "sqlite"
)
