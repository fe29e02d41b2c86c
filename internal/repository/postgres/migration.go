package postgres

import (
	"database/sql"
	"fmt"
	"os"
)

// schemaPaths are tried in order so the server finds the schema whether it
// runs from the repo root, cmd/api or a package directory.
var schemaPaths = []string{
	"script/migration/schema.sql",
	"../script/migration/schema.sql",
	"../../script/migration/schema.sql",
	"../../../script/migration/schema.sql",
}

// RunMigrations executes script/migration/schema.sql.
func RunMigrations(db *sql.DB) error {
	schemaPath := schemaPaths[0]
	for _, path := range schemaPaths {
		if _, err := os.Stat(path); err == nil {
			schemaPath = path
			break
		}
	}

	content, err := os.ReadFile(schemaPath)
	if err != nil {
		wd, _ := os.Getwd()
		return fmt.Errorf("failed to read migration file %q (wd %s): %w", schemaPath, wd, err)
	}

	if _, err := db.Exec(string(content)); err != nil {
		return fmt.Errorf("failed to execute schema.sql: %w", err)
	}
	return nil
}
