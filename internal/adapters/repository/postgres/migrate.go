package postgres

import (
	"context"
	"database/sql"
	"embed"
	"fmt"
	"io/fs"
	"sort"
	"strings"
)

//go:embed migrations/*.sql
var migrationFiles embed.FS

// MigrationNames lists the embedded migrations matching suffix
// ("up.sql" or "down.sql") in lexical order.
func MigrationNames(suffix string) ([]string, error) {
	entries, err := fs.ReadDir(migrationFiles, "migrations")
	if err != nil {
		return nil, fmt.Errorf("failed to read migrations directory: %w", err)
	}

	var names []string
	for _, entry := range entries {
		if entry.IsDir() || !strings.HasSuffix(entry.Name(), suffix) {
			continue
		}
		names = append(names, entry.Name())
	}
	sort.Strings(names)
	return names, nil
}

// ApplyMigration executes the embedded migration named name, with or without
// the .sql extension, e.g. "000003_create_votes.down".
func ApplyMigration(ctx context.Context, db *sql.DB, name string) error {
	file, err := resolveMigration(name)
	if err != nil {
		return err
	}
	return execMigration(ctx, db, file)
}

// resolveMigration requires an exact file name match. A bare
// "000003_create_votes" matches neither direction and is rejected.
func resolveMigration(name string) (string, error) {
	names, err := MigrationNames(".sql")
	if err != nil {
		return "", err
	}

	want := strings.TrimSuffix(name, ".sql") + ".sql"
	var matches []string
	for _, n := range names {
		if n == want {
			matches = append(matches, n)
		}
	}

	switch len(matches) {
	case 0:
		return "", fmt.Errorf("migration file not found: %s (use <name>.up or <name>.down)", name)
	case 1:
		return matches[0], nil
	default:
		return "", fmt.Errorf("migration name %s is ambiguous: %s", name, strings.Join(matches, ", "))
	}
}

// MigrateUp applies every up migration in order. Migrations are idempotent.
func MigrateUp(ctx context.Context, db *sql.DB) error {
	names, err := MigrationNames("up.sql")
	if err != nil {
		return err
	}
	for _, n := range names {
		if err := execMigration(ctx, db, n); err != nil {
			return err
		}
	}
	return nil
}

func execMigration(ctx context.Context, db *sql.DB, name string) error {
	content, err := migrationFiles.ReadFile("migrations/" + name)
	if err != nil {
		return fmt.Errorf("failed to read migration file %s: %w", name, err)
	}
	if _, err := db.ExecContext(ctx, string(content)); err != nil {
		return fmt.Errorf("failed to execute migration %s: %w", name, err)
	}
	return nil
}
