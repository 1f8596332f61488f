package migrate

import (
	"database/sql"
	"path/filepath"
	"testing"
	"testing/fstest"

	_ "modernc.org/sqlite"
)

var testMigrations = fstest.MapFS{
	"001_create_things.up.sql":   {Data: []byte("CREATE TABLE things (id INTEGER PRIMARY KEY);")},
	"001_create_things.down.sql": {Data: []byte("DROP TABLE things;")},
	"002_add_name.up.sql":        {Data: []byte("ALTER TABLE things ADD COLUMN name TEXT;")},
	"002_add_name.down.sql":      {Data: []byte("ALTER TABLE things DROP COLUMN name;")},
	"README.md":                  {Data: []byte("ignored")},
}

func openDB(t *testing.T) *sql.DB {
	t.Helper()
	db, err := sql.Open("sqlite", filepath.Join(t.TempDir(), "test.db"))
	if err != nil {
		t.Fatalf("sql.Open() error = %v", err)
	}
	t.Cleanup(func() { db.Close() })
	return db
}

func TestGetMigrations(t *testing.T) {
	migrations, err := NewFSProvider(testMigrations, "").GetMigrations()
	if err != nil {
		t.Fatalf("GetMigrations() error = %v", err)
	}
	if len(migrations) != 2 {
		t.Fatalf("len(migrations) = %d, expected 2", len(migrations))
	}
	if migrations[0].Version != 1 || migrations[0].Name != "create things" || migrations[0].Down == "" {
		t.Errorf("migrations[0] = %+v", migrations[0])
	}
	if migrations[1].Version != 2 {
		t.Errorf("migrations[1].Version = %d", migrations[1].Version)
	}
}

func TestMigrateUpAndDown(t *testing.T) {
	db := openDB(t)
	m := NewMigrator(db, NewFSProvider(testMigrations, ""), nil)

	if err := m.MigrateUp(); err != nil {
		t.Fatalf("MigrateUp() error = %v", err)
	}
	if v, err := m.CurrentVersion(); err != nil || v != 2 {
		t.Errorf("CurrentVersion() = %d, %v; expected 2", v, err)
	}
	if _, err := db.Exec("INSERT INTO things (name) VALUES ('a')"); err != nil {
		t.Errorf("insert after migrate: %v", err)
	}

	// running again is a no-op
	if err := m.MigrateUp(); err != nil {
		t.Fatalf("second MigrateUp() error = %v", err)
	}
	if pending, err := m.PendingMigrations(); err != nil || len(pending) != 0 {
		t.Errorf("PendingMigrations() = %v, %v", pending, err)
	}

	if err := m.MigrateTo(1); err != nil {
		t.Fatalf("MigrateTo(1) error = %v", err)
	}
	if v, _ := m.CurrentVersion(); v != 1 {
		t.Errorf("CurrentVersion() after rollback = %d, expected 1", v)
	}
	if pending, _ := m.PendingMigrations(); len(pending) != 1 || pending[0].Version != 2 {
		t.Errorf("PendingMigrations() after rollback = %+v", pending)
	}

	if err := m.MigrateDown(0); err != nil {
		t.Fatalf("MigrateDown(0) error = %v", err)
	}
	if _, err := db.Exec("SELECT 1 FROM things"); err == nil {
		t.Error("things table still exists after full rollback")
	}
}

func TestMigrateDownRejectsHigherTarget(t *testing.T) {
	db := openDB(t)
	m := NewMigrator(db, NewFSProvider(testMigrations, ""), nil)
	if err := m.MigrateTo(1); err != nil {
		t.Fatalf("MigrateTo(1) error = %v", err)
	}
	if err := m.MigrateDown(1); err == nil {
		t.Error("MigrateDown() to the current version should fail")
	}
}

func TestMissingDownSQL(t *testing.T) {
	fsys := fstest.MapFS{
		"001_only_up.up.sql": {Data: []byte("CREATE TABLE t (id INTEGER);")},
	}
	db := openDB(t)
	m := NewMigrator(db, NewFSProvider(fsys, ""), nil)
	if err := m.MigrateUp(); err != nil {
		t.Fatalf("MigrateUp() error = %v", err)
	}
	if err := m.MigrateDown(0); err == nil {
		t.Error("MigrateDown() without down SQL should fail")
	}
}
