package migrate

import (
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func TestEmbeddedMigrationsValidate(t *testing.T) {
	if err := ValidateEmbedded(); err != nil {
		t.Fatalf("validate migrations: %v", err)
	}

	names, err := fs.Glob(embedded, "migrations/*.sql")
	if err != nil {
		t.Fatalf("glob embedded: %v", err)
	}
	onDisk, err := filepath.Glob(filepath.Join("migrations", "*.sql"))
	if err != nil {
		t.Fatalf("glob disk: %v", err)
	}
	if len(names) == 0 || len(names) != len(onDisk) {
		t.Fatalf("embedded %d migrations, %d on disk", len(names), len(onDisk))
	}
}

func TestMigrationsCreateSyncedTables(t *testing.T) {
	var all strings.Builder
	entries, err := fs.Glob(embedded, "migrations/*.sql")
	if err != nil {
		t.Fatalf("glob embedded: %v", err)
	}
	for _, name := range entries {
		data, err := fs.ReadFile(embedded, name)
		if err != nil {
			t.Fatalf("read %s: %v", name, err)
		}
		all.Write(data)
	}
	content := all.String()

	checks := []string{
		"CREATE TABLE IF NOT EXISTS stores",
		"CREATE TABLE IF NOT EXISTS products",
		"CREATE TABLE IF NOT EXISTS orders",
		"CREATE TABLE IF NOT EXISTS order_items",
		"CREATE TABLE IF NOT EXISTS store_reviews",
		"CREATE TABLE IF NOT EXISTS addresses",
		"UNIQUE (store_id, customer_id)",
		"CREATE UNIQUE INDEX IF NOT EXISTS addresses_owner_single_default",
		"WHERE is_default",
	}
	for _, sub := range checks {
		if !strings.Contains(content, sub) {
			t.Errorf("missing expected statement %q", sub)
		}
	}
}

func TestCreateSQLMigration(t *testing.T) {
	dir := t.TempDir()

	path, err := CreateSQLMigration(dir, "Add Store Tags!")
	if err != nil {
		t.Fatalf("create migration: %v", err)
	}
	if !strings.HasSuffix(path, "_add_store_tags.sql") {
		t.Fatalf("unexpected path %s", path)
	}
	if _, err := os.Stat(path); err != nil {
		t.Fatalf("stat created migration: %v", err)
	}
	if err := ValidateDir(dir); err != nil {
		t.Fatalf("created migration does not validate: %v", err)
	}
}

func TestCreateSQLMigrationTableSkeleton(t *testing.T) {
	dir := t.TempDir()

	path, err := CreateSQLMigration(dir, "create delivery_slots table")
	if err != nil {
		t.Fatalf("create migration: %v", err)
	}
	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("read: %v", err)
	}
	if !strings.Contains(string(data), "CREATE TABLE IF NOT EXISTS delivery_slots") {
		t.Fatalf("expected table skeleton, got:\n%s", data)
	}
	if !strings.Contains(string(data), "DROP TABLE IF EXISTS delivery_slots") {
		t.Fatalf("expected drop in down section, got:\n%s", data)
	}
	if err := ValidateDir(dir); err != nil {
		t.Fatalf("skeleton does not validate: %v", err)
	}
}

func TestValidateRejectsNonIdempotentCreate(t *testing.T) {
	dir := t.TempDir()
	body := "-- +goose Up\nCREATE TABLE stores (id uuid);\n-- +goose Down\nDROP TABLE stores;\n"
	if err := os.WriteFile(filepath.Join(dir, "20260401000000_create_stores_table.sql"), []byte(body), 0o644); err != nil {
		t.Fatalf("write: %v", err)
	}
	if err := ValidateDir(dir); err == nil {
		t.Fatal("expected IF NOT EXISTS error")
	}
}

func TestValidateRejectsDownBeforeUp(t *testing.T) {
	dir := t.TempDir()
	body := "-- +goose Down\nDROP TABLE x;\n-- +goose Up\nSELECT 1;\n"
	if err := os.WriteFile(filepath.Join(dir, "20260401000000_swap.sql"), []byte(body), 0o644); err != nil {
		t.Fatalf("write: %v", err)
	}
	if err := ValidateDir(dir); err == nil {
		t.Fatal("expected ordering error")
	}
}

func TestValidateDirRejectsBadNames(t *testing.T) {
	dir := t.TempDir()
	if err := os.WriteFile(filepath.Join(dir, "stores.sql"), []byte("-- +goose Up\n-- +goose Down\n"), 0o644); err != nil {
		t.Fatalf("write: %v", err)
	}
	if err := ValidateDir(dir); err == nil {
		t.Fatal("expected invalid filename error")
	}
}

func TestSourceResolvesEmbeddedAndDisk(t *testing.T) {
	embeddedFS, err := Source(EmbeddedDir)
	if err != nil {
		t.Fatalf("embedded source: %v", err)
	}
	names, err := fs.Glob(embeddedFS, "*.sql")
	if err != nil || len(names) == 0 {
		t.Fatalf("expected sql files at embedded root, got %v (%v)", names, err)
	}

	diskFS, err := Source("./migrations")
	if err != nil {
		t.Fatalf("disk source: %v", err)
	}
	if _, err := fs.Stat(diskFS, names[0]); err != nil {
		t.Fatalf("expected %s on disk: %v", names[0], err)
	}

	if _, err := Source(""); err == nil {
		t.Fatal("expected empty dir to fail")
	}
	if _, err := NewRunner(nil, EmbeddedDir, nil); err == nil {
		t.Fatal("expected nil db to fail")
	}
}
