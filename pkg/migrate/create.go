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

var nameSanitizeRe = regexp.MustCompile(`[^a-z0-9]+`)

const migrationTemplate = `-- +goose Up
-- +goose StatementBegin
-- %[1]s
-- money and weight columns: numeric(p,s), never float
-- +goose StatementEnd

-- +goose Down
-- +goose StatementBegin
-- revert %[1]s
-- +goose StatementEnd
`

// CreateSQLMigration writes <dir>/<version>_<name>.sql. The version is the
// current UTC time, bumped past the newest existing file so goose order
// follows creation order even with clock skew between developers.
func CreateSQLMigration(dir string, name string) (string, error) {
	return createSQLMigrationAt(dir, name, time.Now())
}

func createSQLMigrationAt(dir string, name string, now time.Time) (string, error) {
	if dir == "" {
		return "", fmt.Errorf("dir is required")
	}
	slug := migrationSlug(name)
	if slug == "" {
		return "", fmt.Errorf("name %q results in empty sanitized filename", name)
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return "", fmt.Errorf("mkdir %q: %w", dir, err)
	}

	files, err := migrationFiles(dir)
	if err != nil {
		return "", err
	}
	for _, existing := range files {
		if strings.HasSuffix(existing, "_"+slug+".sql") {
			return "", fmt.Errorf("migration %q already exists as %s", slug, existing)
		}
	}
	path := filepath.Join(dir, fmt.Sprintf("%s_%s.sql", nextVersion(files, now.UTC()), slug))

	f, err := os.OpenFile(path, os.O_WRONLY|os.O_CREATE|os.O_EXCL, 0o644)
	if err != nil {
		return "", fmt.Errorf("create migration %q: %w", path, err)
	}
	defer f.Close()
	if _, err := fmt.Fprintf(f, migrationTemplate, slug); err != nil {
		return "", fmt.Errorf("write migration %q: %w", path, err)
	}
	return path, nil
}

func migrationSlug(name string) string {
	slug := nameSanitizeRe.ReplaceAllString(strings.ToLower(name), "_")
	return strings.Trim(slug, "_")
}

// nextVersion returns now, or one second after the newest version in files.
func nextVersion(files []string, now time.Time) string {
	latest := time.Time{}
	for _, name := range files {
		m := sqlFileRe.FindStringSubmatch(name)
		if m == nil {
			continue
		}
		t, err := time.Parse(versionLayout, m[1])
		if err == nil && t.After(latest) {
			latest = t
		}
	}
	if !now.After(latest) {
		now = latest.Add(time.Second)
	}
	return now.Format(versionLayout)
}
