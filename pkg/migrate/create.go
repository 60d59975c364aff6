package migrate

import (
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"strings"
	"time"
)

const versionLayout = "20060102150405"

var slugInvalidRe = regexp.MustCompile(`[^a-z0-9]+`)

// CreateSQLMigration writes an empty goose migration named
// <dir>/<YYYYMMDDHHMMSS>_<slug>.sql and returns its path.
func CreateSQLMigration(dir string, name string) (string, error) {
	if dir == "" {
		return "", fmt.Errorf("dir is required")
	}
	slug := migrationSlug(name)
	if slug == "" {
		return "", fmt.Errorf("migration name %q has no usable characters", name)
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return "", fmt.Errorf("mkdir %q: %w", dir, err)
	}

	target := filepath.Join(dir, fmt.Sprintf("%s_%s.sql", time.Now().UTC().Format(versionLayout), slug))
	file, err := os.OpenFile(target, os.O_WRONLY|os.O_CREATE|os.O_EXCL, 0o644)
	if err != nil {
		return "", fmt.Errorf("create migration: %w", err)
	}
	defer file.Close()

	if _, err := file.WriteString(migrationTemplate(slug)); err != nil {
		return "", fmt.Errorf("write migration %q: %w", target, err)
	}
	return target, nil
}

// migrationSlug lowercases name and collapses every run of other characters to "_".
func migrationSlug(name string) string {
	slug := slugInvalidRe.ReplaceAllString(strings.ToLower(name), "_")
	return strings.Trim(slug, "_")
}

// Migrations run on postgres in production and sqlite3 in tests.
func migrationTemplate(slug string) string {
	return "-- +goose Up\n" +
		"-- +goose StatementBegin\n" +
		"-- " + slug + " (postgres + sqlite3)\n" +
		"-- +goose StatementEnd\n\n" +
		"-- +goose Down\n" +
		"-- +goose StatementBegin\n" +
		"-- undo " + slug + "\n" +
		"-- +goose StatementEnd\n"
}
