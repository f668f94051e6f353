package dbmigrate

import (
	"context"
	"database/sql"
	"path/filepath"
	"testing"
)

func openTestSQLite(t *testing.T) *sql.DB {
	t.Helper()

	db, err := sql.Open("sqlite", SQLiteDSN(filepath.Join(t.TempDir(), "migrate.db")))
	if err != nil {
		t.Fatalf("failed to open sqlite: %v", err)
	}
	t.Cleanup(func() { db.Close() })
	return db
}

func tableExists(t *testing.T, db *sql.DB, name string) bool {
	t.Helper()

	var n int
	err := db.QueryRow(`SELECT COUNT(*) FROM sqlite_master WHERE type = 'table' AND name = ?`, name).Scan(&n)
	if err != nil {
		t.Fatalf("failed to inspect schema: %v", err)
	}
	return n > 0
}

func TestUpCreatesSchemaOnSQLite(t *testing.T) {
	ctx := context.Background()
	db := openTestSQLite(t)

	if err := Up(ctx, db, DialectSQLite, nil); err != nil {
		t.Fatalf("migrate up failed: %v", err)
	}

	for _, table := range []string{"users", "recipes", "recipe_ingredients", "meal_plans", "meal_slots", "grocery_items", "budget_entries"} {
		if !tableExists(t, db, table) {
			t.Errorf("expected table %s to exist", table)
		}
	}

	// Up is idempotent.
	if err := Up(ctx, db, DialectSQLite, nil); err != nil {
		t.Fatalf("second migrate up failed: %v", err)
	}
}

func TestDownDropsSchemaOnSQLite(t *testing.T) {
	ctx := context.Background()
	db := openTestSQLite(t)

	if err := Up(ctx, db, DialectSQLite, nil); err != nil {
		t.Fatalf("migrate up failed: %v", err)
	}
	if err := Exec(ctx, db, "down", DialectSQLite, nil); err != nil {
		t.Fatalf("migrate down failed: %v", err)
	}

	if tableExists(t, db, "meal_slots") {
		t.Fatal("expected meal_slots to be dropped")
	}
}

func TestExecRejectsUnknownDialect(t *testing.T) {
	db := openTestSQLite(t)

	if err := Exec(context.Background(), db, "up", "mysql", nil); err == nil {
		t.Fatal("expected error for unsupported dialect")
	}
}
