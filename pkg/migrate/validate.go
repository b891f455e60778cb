package migrate

import (
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"sort"
	"strings"

	"go.uber.org/multierr"
)

const (
	gooseUp             = "-- +goose Up"
	gooseDown           = "-- +goose Down"
	gooseStatementBegin = "-- +goose StatementBegin"
	gooseStatementEnd   = "-- +goose StatementEnd"
)

var (
	sqlFileRe = regexp.MustCompile(`^(\d{14})_[a-z0-9_]+\.sql$`)

	// Prices, totals and weights are stored as numeric; binary floats drift
	// when quotes are recomputed.
	floatColumnRe = regexp.MustCompile(`(?i)\b(real|float[48]?|double\s+precision)\b`)
)

// ValidateDir checks every goose file in dir and reports all problems at once.
func ValidateDir(dir string) error {
	if dir == "" {
		return fmt.Errorf("dir is required")
	}
	files, err := migrationFiles(dir)
	if err != nil {
		return err
	}

	var errs error
	versions := map[string]string{}
	for _, name := range files {
		m := sqlFileRe.FindStringSubmatch(name)
		if m == nil {
			errs = multierr.Append(errs, fmt.Errorf("invalid migration filename %q (expected YYYYMMDDHHMMSS_name.sql)", name))
			continue
		}
		if prev, ok := versions[m[1]]; ok {
			errs = multierr.Append(errs, fmt.Errorf("duplicate migration version %s in %q and %q", m[1], prev, name))
		}
		versions[m[1]] = name

		body, err := os.ReadFile(filepath.Join(dir, name))
		if err != nil {
			errs = multierr.Append(errs, fmt.Errorf("read %q: %w", name, err))
			continue
		}
		errs = multierr.Append(errs, checkMigration(name, string(body)))
	}
	return errs
}

func migrationFiles(dir string) ([]string, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, fmt.Errorf("read dir %q: %w", dir, err)
	}
	var files []string
	for _, e := range entries {
		if !e.IsDir() && strings.HasSuffix(e.Name(), ".sql") {
			files = append(files, e.Name())
		}
	}
	sort.Strings(files)
	return files, nil
}

func checkMigration(name, body string) error {
	up := strings.Index(body, gooseUp)
	down := strings.Index(body, gooseDown)
	switch {
	case up < 0:
		return fmt.Errorf("migration %q missing %q", name, gooseUp)
	case down < 0:
		return fmt.Errorf("migration %q missing %q", name, gooseDown)
	case down < up:
		return fmt.Errorf("migration %q has Down before Up", name)
	}

	var errs error
	if strings.Count(body, gooseStatementBegin) != strings.Count(body, gooseStatementEnd) {
		errs = multierr.Append(errs, fmt.Errorf("migration %q has unbalanced StatementBegin/StatementEnd", name))
	}
	for i, line := range strings.Split(body[up:down], "\n") {
		if strings.HasPrefix(strings.TrimSpace(line), "--") {
			continue
		}
		if col := floatColumnRe.FindString(line); col != "" {
			errs = multierr.Append(errs, fmt.Errorf("migration %q uses %s in Up section line %d; use numeric", name, col, i+1))
		}
	}
	return errs
}
