package migrate

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"
)

func TestShippedMigrationsValidate(t *testing.T) {
	versions, err := ValidateDir("migrations")
	if err != nil {
		t.Fatalf("validate: %v", err)
	}
	if len(versions) != 6 {
		t.Fatalf("expected 6 migrations, got %d", len(versions))
	}
}

func TestEmbeddedMigrationsMatchDisk(t *testing.T) {
	embedded, err := ValidateFS(Migrations())
	if err != nil {
		t.Fatalf("validate embedded: %v", err)
	}
	onDisk, err := ValidateDir("migrations")
	if err != nil {
		t.Fatalf("validate dir: %v", err)
	}
	if strings.Join(embedded, ",") != strings.Join(onDisk, ",") {
		t.Fatalf("embedded %v differs from disk %v", embedded, onDisk)
	}
}

func TestParseVersion(t *testing.T) {
	if v, err := ParseVersion("20250101000005"); err != nil || v != 20250101000005 {
		t.Fatalf("unexpected %d, %v", v, err)
	}
	for _, raw := range []string{"", "2025", "2025010100000x", "-0250101000005"} {
		if _, err := ParseVersion(raw); err == nil {
			t.Fatalf("%q: expected error", raw)
		}
	}
}

func TestNewRunnerRequiresDB(t *testing.T) {
	if _, err := NewRunner(nil, nil); err == nil {
		t.Fatal("expected error without a database")
	}
}

func TestMigrationsDeclareLedgerConstraints(t *testing.T) {
	cases := []struct {
		glob   string
		checks []string
	}{
		{"*_create_users.sql", []string{
			"CREATE TABLE IF NOT EXISTS users",
			"CONSTRAINT ux_users_contact UNIQUE (contact)",
			"DROP TABLE IF EXISTS users",
		}},
		{"*_create_categories.sql", []string{
			"CONSTRAINT ux_categories_name UNIQUE (name)",
			"name varchar(100) NOT NULL",
		}},
		{"*_create_products.sql", []string{
			"CONSTRAINT ux_products_name_category UNIQUE (name, category_idx)",
			"REFERENCES categories(idx)",
		}},
		{"*_create_listings.sql", []string{
			"unit_price numeric(20,0) NOT NULL",
			"REFERENCES products(idx)",
		}},
		{"*_create_orders.sql", []string{
			"total numeric(20,0) NOT NULL",
			"CHECK (status IN ('pending', 'shipped', 'received', 'cancelled'))",
			"CHECK (quantity > 0 AND quantity <= 4294967295)",
		}},
		{"*_create_outbox_events.sql", []string{
			"CREATE TABLE IF NOT EXISTS outbox_events",
			"WHERE published_at IS NULL",
		}},
	}

	for _, tc := range cases {
		t.Run(tc.glob, func(t *testing.T) {
			matches, err := filepath.Glob(filepath.Join("migrations", tc.glob))
			if err != nil {
				t.Fatalf("glob migrations: %v", err)
			}
			if len(matches) != 1 {
				t.Fatalf("expected one migration for %s, got %d", tc.glob, len(matches))
			}
			data, err := os.ReadFile(matches[0])
			if err != nil {
				t.Fatalf("read migration file: %v", err)
			}
			for _, sub := range tc.checks {
				if !strings.Contains(string(data), sub) {
					t.Errorf("missing expected statement %q", sub)
				}
			}
		})
	}
}

func TestValidateDirRejectsBadFiles(t *testing.T) {
	cases := map[string]string{
		"bad_name.sql":                  "-- +goose Up\n-- +goose Down\n",
		"20250101000000_no_down.sql":    "-- +goose Up\nSELECT 1;\n",
		"20250101000000_unbalanced.sql": "-- +goose Up\n-- +goose StatementBegin\nSELECT 1;\n-- +goose Down\n",
		"20250101000000_down_first.sql": "-- +goose Down\n-- +goose Up\n",
	}
	for name, body := range cases {
		t.Run(name, func(t *testing.T) {
			dir := t.TempDir()
			if err := os.WriteFile(filepath.Join(dir, name), []byte(body), 0o644); err != nil {
				t.Fatalf("write: %v", err)
			}
			if _, err := ValidateDir(dir); err == nil {
				t.Fatalf("expected validation error")
			}
		})
	}
}

func TestCreateSQLMigration(t *testing.T) {
	dir := t.TempDir()
	now := time.Date(2025, 3, 4, 5, 6, 7, 0, time.UTC)

	path, err := createSQLMigration(dir, "Add Order Ratings!", now)
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	if filepath.Base(path) != "20250304050607_add_order_ratings.sql" {
		t.Fatalf("unexpected filename %s", filepath.Base(path))
	}
	if _, err := ValidateDir(dir); err != nil {
		t.Fatalf("generated migration should validate: %v", err)
	}
	if _, err := createSQLMigration(dir, "add order ratings", now); err == nil {
		t.Fatalf("expected duplicate file error")
	}
	if _, err := createSQLMigration(dir, "!!!", now); err == nil {
		t.Fatalf("expected sanitized-empty error")
	}
}
