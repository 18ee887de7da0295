package database

import (
	"context"
	"embed"
	"testing"
	"time"
)

// testMigrationsDir is the directory containing test migration files.
const testMigrationsDir = "testdata"

//go:embed testdata/*.sql
var testMigrationsFS embed.FS

// useTestMigrations points the package at the test fixture migrations
// for the duration of one test.
func useTestMigrations(t *testing.T) {
	t.Helper()

	origFS := MigrationsFS
	origDir := MigrationsDir
	t.Cleanup(func() {
		MigrationsFS = origFS
		MigrationsDir = origDir
	})

	MigrationsFS = testMigrationsFS
	MigrationsDir = testMigrationsDir
}

func TestMigrate(t *testing.T) {
	useTestMigrations(t)

	db := openTestDB(t)

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := db.Migrate(ctx); err != nil {
		t.Fatalf("Migrate() error = %v", err)
	}

	// Verify tables were created
	for _, table := range []string{"test_apps", "test_metrics"} {
		var name string
		err := db.QueryRowContext(ctx,
			"SELECT name FROM sqlite_master WHERE type='table' AND name=?", table,
		).Scan(&name)
		if err != nil {
			t.Fatalf("table %s not created: %v", table, err)
		}
	}

	// Verify the uniqueness constraint holds (insert-or-fetch relies on it)
	if _, err := db.ExecContext(ctx,
		"INSERT INTO test_apps (username, app_name) VALUES ('alice', 'dev1')"); err != nil {
		t.Fatalf("first insert: %v", err)
	}
	if _, err := db.ExecContext(ctx,
		"INSERT INTO test_apps (username, app_name) VALUES ('alice', 'dev1')"); err == nil {
		t.Error("duplicate (username, app_name) insert should violate UNIQUE constraint")
	}
}

func TestMigrate_Idempotent(t *testing.T) {
	useTestMigrations(t)

	db := openTestDB(t)
	ctx := context.Background()

	if err := db.Migrate(ctx); err != nil {
		t.Fatalf("first Migrate() error = %v", err)
	}
	if err := db.Migrate(ctx); err != nil {
		t.Fatalf("second Migrate() error = %v", err)
	}

	// Exactly one recorded application per migration
	var count int
	if err := db.QueryRowContext(ctx,
		"SELECT COUNT(*) FROM schema_migrations").Scan(&count); err != nil {
		t.Fatalf("counting migrations: %v", err)
	}
	if count != 1 {
		t.Errorf("schema_migrations rows = %d, want 1", count)
	}
}

func TestMigrateDown(t *testing.T) {
	useTestMigrations(t)

	db := openTestDB(t)
	ctx := context.Background()

	if err := db.Migrate(ctx); err != nil {
		t.Fatalf("Migrate() error = %v", err)
	}
	if err := db.MigrateDown(ctx); err != nil {
		t.Fatalf("MigrateDown() error = %v", err)
	}

	var name string
	err := db.QueryRowContext(ctx,
		"SELECT name FROM sqlite_master WHERE type='table' AND name='test_apps'",
	).Scan(&name)
	if err == nil {
		t.Error("test_apps should be dropped after MigrateDown()")
	}
}

func TestParseMigrationFilename(t *testing.T) {
	tests := []struct {
		name        string
		wantVersion string
		wantUp      bool
		wantOK      bool
	}{
		{"20250301_000000_identity_tables.up.sql", "20250301_000000", true, true},
		{"20250301_000000_identity_tables.down.sql", "20250301_000000", false, true},
		{"README.md", "", false, false},
		{"notes.sql", "", false, false},
		{"20250301_000000_identity_tables.sql", "", false, false},
	}

	for _, tt := range tests {
		version, isUp, ok := parseMigrationFilename(tt.name)
		if ok != tt.wantOK {
			t.Errorf("parseMigrationFilename(%q) ok = %v, want %v", tt.name, ok, tt.wantOK)
			continue
		}
		if !ok {
			continue
		}
		if version != tt.wantVersion {
			t.Errorf("parseMigrationFilename(%q) version = %q, want %q", tt.name, version, tt.wantVersion)
		}
		if isUp != tt.wantUp {
			t.Errorf("parseMigrationFilename(%q) isUp = %v, want %v", tt.name, isUp, tt.wantUp)
		}
	}
}
