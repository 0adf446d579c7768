package migration

import (
	"database/sql"
	"path/filepath"
	"strings"
	"testing"
	"testing/fstest"

	_ "modernc.org/sqlite"
)

func setupTestMigrations(t *testing.T, files map[string]string) fstest.MapFS {
	t.Helper()
	fsys := fstest.MapFS{}
	for name, content := range files {
		fsys[name] = &fstest.MapFile{Data: []byte(content)}
	}
	return fsys
}

func setupSQLiteTestDB(t *testing.T) *sql.DB {
	t.Helper()
	db, err := sql.Open("sqlite", filepath.Join(t.TempDir(), "migrate.db"))
	if err != nil {
		t.Fatalf("failed to open sqlite database: %v", err)
	}
	t.Cleanup(func() { db.Close() })
	return db
}

func TestNewRunnerRejectsUnknownDriver(t *testing.T) {
	db := setupSQLiteTestDB(t)
	if _, err := NewRunner(db, fstest.MapFS{}, Driver("mysql")); err == nil {
		t.Fatal("expected error for unsupported driver")
	}
	if _, err := NewRunner(nil, fstest.MapFS{}, DriverSQLite); err == nil {
		t.Fatal("expected error for nil db")
	}
}

func TestReadMigrationFiles(t *testing.T) {
	db := setupSQLiteTestDB(t)
	fsys := setupTestMigrations(t, map[string]string{
		"002_answers.sql": "SELECT 2;",
		"001_entries.sql": "SELECT 1;",
		"README.md":       "ignored",
	})

	runner, err := NewRunner(db, fsys, DriverSQLite)
	if err != nil {
		t.Fatalf("NewRunner: %v", err)
	}

	migrations, err := runner.ReadMigrationFiles()
	if err != nil {
		t.Fatalf("ReadMigrationFiles: %v", err)
	}
	if len(migrations) != 2 {
		t.Fatalf("expected 2 migrations, got %d", len(migrations))
	}
	if migrations[0].Version != 1 || migrations[0].Name != "entries" {
		t.Errorf("first migration = %+v", migrations[0])
	}
	if migrations[1].Version != 2 || migrations[1].Name != "answers" {
		t.Errorf("second migration = %+v", migrations[1])
	}
}

func TestReadMigrationFilesInvalidNames(t *testing.T) {
	tests := []struct {
		name  string
		files map[string]string
		want  string
	}{
		{name: "no underscore", files: map[string]string{"001.sql": ""}, want: "invalid migration filename"},
		{name: "non numeric", files: map[string]string{"abc_init.sql": ""}, want: "invalid version number"},
		{name: "zero version", files: map[string]string{"000_init.sql": ""}, want: "at least 1"},
		{name: "duplicate", files: map[string]string{"001_a.sql": "", "1_b.sql": ""}, want: "duplicate migration version"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			runner, err := NewRunner(setupSQLiteTestDB(t), setupTestMigrations(t, tt.files), DriverSQLite)
			if err != nil {
				t.Fatalf("NewRunner: %v", err)
			}
			_, err = runner.ReadMigrationFiles()
			if err == nil || !strings.Contains(err.Error(), tt.want) {
				t.Errorf("ReadMigrationFiles() error = %v, want containing %q", err, tt.want)
			}
		})
	}
}

func TestApplyMigrations(t *testing.T) {
	db := setupSQLiteTestDB(t)
	fsys := setupTestMigrations(t, map[string]string{
		"001_entries.sql": "CREATE TABLE test_entries (id TEXT PRIMARY KEY, day TEXT NOT NULL);",
		"002_answers.sql": "CREATE TABLE test_answers (id TEXT PRIMARY KEY, entry_id TEXT NOT NULL REFERENCES test_entries(id));",
	})

	runner, err := NewRunner(db, fsys, DriverSQLite)
	if err != nil {
		t.Fatalf("NewRunner: %v", err)
	}

	var logs []string
	count, err := runner.ApplyMigrations(func(msg string) { logs = append(logs, msg) })
	if err != nil {
		t.Fatalf("ApplyMigrations: %v", err)
	}
	if count != 2 {
		t.Errorf("expected 2 migrations applied, got %d", count)
	}
	if len(logs) == 0 {
		t.Error("expected progress messages")
	}

	version, err := runner.GetCurrentVersion()
	if err != nil {
		t.Fatalf("GetCurrentVersion: %v", err)
	}
	if version != 2 {
		t.Errorf("expected version 2, got %d", version)
	}

	count, err = runner.ApplyMigrations(nil)
	if err != nil {
		t.Fatalf("second ApplyMigrations: %v", err)
	}
	if count != 0 {
		t.Errorf("expected no migrations on second run, got %d", count)
	}

	if err := runner.ValidateVersion(); err != nil {
		t.Errorf("ValidateVersion: %v", err)
	}
}

func TestApplyMigrationsRollsBackOnError(t *testing.T) {
	db := setupSQLiteTestDB(t)
	fsys := setupTestMigrations(t, map[string]string{
		"001_bad.sql": "CREATE TABLE test_entries (id TEXT PRIMARY KEY); THIS IS INVALID SQL;",
	})

	runner, err := NewRunner(db, fsys, DriverSQLite)
	if err != nil {
		t.Fatalf("NewRunner: %v", err)
	}
	if _, err := runner.ApplyMigrations(nil); err == nil {
		t.Fatal("expected ApplyMigrations to fail")
	}

	version, err := runner.GetCurrentVersion()
	if err != nil {
		t.Fatalf("GetCurrentVersion: %v", err)
	}
	if version != 0 {
		t.Errorf("expected version 0 after rollback, got %d", version)
	}
}

func TestValidateVersionNewerDatabase(t *testing.T) {
	db := setupSQLiteTestDB(t)
	runner, err := NewRunner(db, setupTestMigrations(t, map[string]string{
		"001_entries.sql": "SELECT 1;",
	}), DriverSQLite)
	if err != nil {
		t.Fatalf("NewRunner: %v", err)
	}

	if err := runner.EnsureSchemaVersionTable(); err != nil {
		t.Fatalf("EnsureSchemaVersionTable: %v", err)
	}
	if err := runner.setVersion(db, 5); err != nil {
		t.Fatalf("setVersion: %v", err)
	}
	if err := runner.ValidateVersion(); err == nil {
		t.Fatal("expected error when database is newer than the binary")
	}
	if _, err := runner.ApplyMigrations(nil); err == nil {
		t.Fatal("expected ApplyMigrations to refuse a newer database")
	}
}
