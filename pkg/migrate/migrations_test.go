package migrate_test

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/davivienda-ecommerce/storefront-backend/pkg/migrate"
)

func readMigration(t *testing.T, suffix string) string {
	t.Helper()
	matches, err := filepath.Glob(filepath.Join("migrations", "*_"+suffix+".sql"))
	if err != nil {
		t.Fatalf("glob migrations: %v", err)
	}
	if len(matches) != 1 {
		t.Fatalf("expected one %s migration, found %d", suffix, len(matches))
	}
	data, err := os.ReadFile(matches[0])
	if err != nil {
		t.Fatalf("read migration file: %v", err)
	}
	return string(data)
}

func TestMigrationsDirIsValid(t *testing.T) {
	if err := migrate.ValidateDir("migrations"); err != nil {
		t.Fatalf("validate dir: %v", err)
	}
}

func TestUniquenessConstraintsArePresent(t *testing.T) {
	tests := []struct {
		migration string
		checks    []string
	}{
		{
			migration: "create_identity_tables",
			checks: []string{
				"CREATE UNIQUE INDEX IF NOT EXISTS uq_document_types_code ON document_types (code)",
				"CREATE UNIQUE INDEX IF NOT EXISTS uq_users_document ON users (document_type_id, document_number)",
				"CREATE INDEX IF NOT EXISTS idx_user_roles_user_created ON user_roles (user_id, created_at, id)",
			},
		},
		{
			migration: "create_catalog_tables",
			checks: []string{
				"CREATE UNIQUE INDEX IF NOT EXISTS uq_stock_product ON stock (product_id)",
				"available_quantity INTEGER NOT NULL DEFAULT 0 CHECK (available_quantity >= 0)",
			},
		},
		{
			migration: "create_cart_tables",
			checks: []string{
				"CREATE UNIQUE INDEX IF NOT EXISTS uq_carts_identity_id ON carts (identity_id)",
				"CREATE UNIQUE INDEX IF NOT EXISTS uq_cart_items_cart_product ON cart_items (cart_id, product_id)",
				"quantity INTEGER NOT NULL CHECK (quantity >= 1)",
			},
		},
		{
			migration: "create_payment_tables",
			checks: []string{
				"CREATE UNIQUE INDEX IF NOT EXISTS uq_payment_references_token ON payment_references (token)",
				"CREATE UNIQUE INDEX IF NOT EXISTS uq_payment_debits_payment ON payment_debits (payment_id)",
				"CREATE UNIQUE INDEX IF NOT EXISTS uq_payment_credits_payment ON payment_credits (payment_id)",
				"('debito'), ('credito')",
				"('Pendiente')",
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.migration, func(t *testing.T) {
			content := readMigration(t, tt.migration)
			for _, sub := range tt.checks {
				if !strings.Contains(content, sub) {
					t.Errorf("missing expected statement %q", sub)
				}
			}
		})
	}
}

func TestCreateSQLMigrationSanitizesName(t *testing.T) {
	dir := t.TempDir()
	path, err := migrate.CreateSQLMigration(dir, "Add Payment Index!")
	if err != nil {
		t.Fatalf("create migration: %v", err)
	}
	if !strings.HasSuffix(path, "_add_payment_index.sql") {
		t.Fatalf("unexpected path %s", path)
	}
	if err := migrate.ValidateDir(dir); err != nil {
		t.Fatalf("generated migration should validate: %v", err)
	}
}

func TestCreateSQLMigrationKeepsVersionsOrdered(t *testing.T) {
	dir := t.TempDir()
	first, err := migrate.CreateSQLMigration(dir, "add_cart_index")
	if err != nil {
		t.Fatalf("create first: %v", err)
	}
	second, err := migrate.CreateSQLMigration(dir, "add_payment_index")
	if err != nil {
		t.Fatalf("create second: %v", err)
	}

	migrations, err := migrate.ScanDir(dir)
	if err != nil {
		t.Fatalf("scan dir: %v", err)
	}
	if len(migrations) != 2 {
		t.Fatalf("expected 2 migrations, got %d", len(migrations))
	}
	if migrations[0].Path != first || migrations[1].Path != second {
		t.Fatalf("unexpected order: %+v", migrations)
	}
	if migrations[0].Version >= migrations[1].Version {
		t.Fatalf("versions not increasing: %s then %s", migrations[0].Version, migrations[1].Version)
	}
	if migrations[1].Name != "add_payment_index" {
		t.Fatalf("unexpected name %q", migrations[1].Name)
	}
}

func TestValidateDirRejectsBadFiles(t *testing.T) {
	tests := []struct {
		name  string
		files map[string]string
	}{
		{
			name:  "bad filename",
			files: map[string]string{"001_create_carts.sql": "-- +goose Up\n-- +goose Down\n"},
		},
		{
			name: "duplicate version",
			files: map[string]string{
				"20260105090000_create_carts.sql": "-- +goose Up\n-- +goose Down\n",
				"20260105090000_create_items.sql": "-- +goose Up\n-- +goose Down\n",
			},
		},
		{
			name:  "missing down",
			files: map[string]string{"20260105090000_create_carts.sql": "-- +goose Up\nSELECT 1;\n"},
		},
		{
			name:  "down before up",
			files: map[string]string{"20260105090000_create_carts.sql": "-- +goose Down\n-- +goose Up\n"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			dir := t.TempDir()
			for name, content := range tt.files {
				if err := os.WriteFile(filepath.Join(dir, name), []byte(content), 0o644); err != nil {
					t.Fatalf("write %s: %v", name, err)
				}
			}
			if err := migrate.ValidateDir(dir); err == nil {
				t.Fatal("expected validation error")
			}
		})
	}
}
