package database

import (
	"context"
	"embed"
	"fmt"
	"io/fs"
	"path"
	"slices"
	"strings"

	"climate-api/pkg/logging"
)

//go:embed migrations/*.sql
var migrationFS embed.FS

// Direction selects which half of the migrations to apply
type Direction string

const (
	Up   Direction = "up"
	Down Direction = "down"
)

// Migrate applies the embedded schema migrations. Up runs files in name
// order, Down in reverse.
func (p *DB) Migrate(ctx context.Context, direction Direction) error {
	if direction != Up && direction != Down {
		return fmt.Errorf("unknown migration direction %q", direction)
	}

	files, err := fs.Glob(migrationFS, "migrations/*."+string(direction)+".sql")
	if err != nil {
		return fmt.Errorf("failed to list migrations: %w", err)
	}
	slices.Sort(files)
	if direction == Down {
		slices.Reverse(files)
	}

	for _, file := range files {
		content, err := migrationFS.ReadFile(file)
		if err != nil {
			return fmt.Errorf("failed to read migration %s: %w", file, err)
		}

		for i, stmt := range splitStatements(string(content)) {
			queryType := fmt.Sprintf("migrate_%s_%d", strings.TrimSuffix(path.Base(file), ".sql"), i)
			if _, err := p.ExecContext(ctx, queryType, stmt); err != nil {
				return fmt.Errorf("migration %s failed: %w", file, err)
			}
		}

		p.logger.Info(ctx, "[DB_MIGRATE] Migration applied", logging.Fields{
			"file":      path.Base(file),
			"direction": string(direction),
		})
	}

	return nil
}

// splitStatements splits a migration file on statement terminators. The
// schema files contain no semicolons inside literals.
func splitStatements(content string) []string {
	var out []string
	for _, stmt := range strings.Split(content, ";") {
		if s := strings.TrimSpace(stmt); s != "" {
			out = append(out, s)
		}
	}
	return out
}
