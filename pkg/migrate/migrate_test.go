package migrate

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"go.uber.org/multierr"
)

func TestMigrationsDirIsValid(t *testing.T) {
	if err := ValidateDir("migrations"); err != nil {
		t.Fatalf("validate migrations: %v", err)
	}
}

func TestQuoteSchemaMigrations(t *testing.T) {
	tests := []struct {
		glob   string
		checks []string
	}{
		{
			glob: "*_create_products.sql",
			checks: []string{
				"CREATE TABLE IF NOT EXISTS products",
				"CHECK (min_order_qty >= 1)",
				"CREATE TABLE IF NOT EXISTS product_pricing_tiers",
				"FOREIGN KEY (product_id) REFERENCES products(id) ON DELETE CASCADE",
				"CREATE UNIQUE INDEX IF NOT EXISTS idx_products_sku",
				"DROP TABLE IF EXISTS product_pricing_tiers",
			},
		},
		{
			glob: "*_create_quotes.sql",
			checks: []string{
				"CREATE TABLE IF NOT EXISTS quotes",
				"CHECK (quantity BETWEEN 1 AND 10000)",
				"CONSTRAINT chk_quotes_discount_le_subtotal CHECK (discount_amount <= subtotal)",
				"CREATE UNIQUE INDEX IF NOT EXISTS idx_quotes_reference",
				"DROP TABLE IF EXISTS quotes",
			},
		},
		{
			glob: "*_create_outbox_events.sql",
			checks: []string{
				"CREATE TABLE IF NOT EXISTS outbox_events",
				"WHERE published_at IS NULL",
				"DROP TABLE IF EXISTS outbox_events",
			},
		},
	}

	for _, tt := range tests {
		matches, err := filepath.Glob(filepath.Join("migrations", tt.glob))
		if err != nil {
			t.Fatalf("glob migrations: %v", err)
		}
		if len(matches) != 1 {
			t.Fatalf("expected one migration for %s, got %v", tt.glob, matches)
		}
		data, err := os.ReadFile(matches[0])
		if err != nil {
			t.Fatalf("read migration file: %v", err)
		}
		content := string(data)
		for _, sub := range tt.checks {
			if !strings.Contains(content, sub) {
				t.Errorf("%s: missing expected statement %q", matches[0], sub)
			}
		}
	}
}

func TestCreateSQLMigration(t *testing.T) {
	dir := t.TempDir()
	now := time.Date(2026, 4, 2, 10, 30, 0, 0, time.UTC)

	path, err := createSQLMigrationAt(dir, "Add Quote Notes!", now)
	if err != nil {
		t.Fatalf("create migration: %v", err)
	}
	if filepath.Base(path) != "20260402103000_add_quote_notes.sql" {
		t.Fatalf("unexpected file name %s", filepath.Base(path))
	}
	if err := ValidateDir(dir); err != nil {
		t.Fatalf("generated migration should validate: %v", err)
	}
	if _, err := createSQLMigrationAt(dir, "add quote notes", now); err == nil {
		t.Fatalf("expected duplicate file to fail")
	}
	if _, err := createSQLMigrationAt(dir, "!!!", now); err == nil {
		t.Fatalf("expected empty sanitized name to fail")
	}
}

func TestValidateDirRejectsBadFiles(t *testing.T) {
	dir := t.TempDir()
	if err := os.WriteFile(filepath.Join(dir, "001_bad.sql"), []byte("-- +goose Up\n-- +goose Down\n"), 0o644); err != nil {
		t.Fatalf("write: %v", err)
	}
	if err := ValidateDir(dir); err == nil {
		t.Fatalf("expected bad filename to fail")
	}

	dir = t.TempDir()
	body := "-- +goose Down\nDROP TABLE x;\n-- +goose Up\nCREATE TABLE x (id int);\n"
	if err := os.WriteFile(filepath.Join(dir, "20260101000000_swap.sql"), []byte(body), 0o644); err != nil {
		t.Fatalf("write: %v", err)
	}
	if err := ValidateDir(dir); err == nil {
		t.Fatalf("expected Down-before-Up to fail")
	}
}

func TestValidateDirRejectsFloatMoneyColumns(t *testing.T) {
	dir := t.TempDir()
	body := "-- +goose Up\n-- totals used to be real\nALTER TABLE quotes ADD COLUMN fuel_surcharge double precision;\n-- +goose Down\nALTER TABLE quotes DROP COLUMN fuel_surcharge;\n"
	if err := os.WriteFile(filepath.Join(dir, "20260401000000_add_fuel_surcharge.sql"), []byte(body), 0o644); err != nil {
		t.Fatalf("write: %v", err)
	}
	if err := os.WriteFile(filepath.Join(dir, "bad.sql"), []byte(body), 0o644); err != nil {
		t.Fatalf("write: %v", err)
	}
	err := ValidateDir(dir)
	if err == nil {
		t.Fatal("expected float column to fail")
	}
	if errs := multierr.Errors(err); len(errs) != 2 {
		t.Fatalf("expected both problems reported, got %v", errs)
	}
	if !strings.Contains(err.Error(), "double precision") || strings.Contains(err.Error(), "line 2") {
		t.Fatalf("unexpected error %v", err)
	}
}

func TestCreateSQLMigrationVersionsAfterNewest(t *testing.T) {
	dir := t.TempDir()
	if _, err := createSQLMigrationAt(dir, "create quotes", time.Date(2026, 5, 1, 0, 0, 0, 0, time.UTC)); err != nil {
		t.Fatalf("create: %v", err)
	}
	path, err := createSQLMigrationAt(dir, "add quote notes", time.Date(2026, 4, 30, 0, 0, 0, 0, time.UTC))
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	if filepath.Base(path) != "20260501000001_add_quote_notes.sql" {
		t.Fatalf("expected version bumped past newest, got %s", filepath.Base(path))
	}
}

func TestParseVersion(t *testing.T) {
	if v, err := ParseVersion("20260301090000"); err != nil || v != 20260301090000 {
		t.Fatalf("unexpected parse result %d (%v)", v, err)
	}
	for _, bad := range []string{"", "2026", "2026030109000x"} {
		if _, err := ParseVersion(bad); err == nil {
			t.Fatalf("expected %q to fail", bad)
		}
	}
}
