package shared

import (
	"database/sql"
	"errors"
	"os"
	"path/filepath"
	"testing"
)

func newMemoryJournal(t *testing.T) *sql.DB {
	t.Helper()
	db, err := NewDatabase(MemoryDatabase)
	if err != nil {
		t.Fatalf("failed to create database: %v", err)
	}
	ConfigureDatabase(db, DatabaseConfig{Path: MemoryDatabase})
	t.Cleanup(func() { db.Close() })
	return db
}

func TestMigrationRunner(t *testing.T) {
	t.Run("loadMigrations", func(t *testing.T) {
		migrations, err := loadMigrations()
		if err != nil {
			t.Fatalf("failed to load migrations: %v", err)
		}

		if len(migrations) == 0 {
			t.Fatal("expected at least one migration")
		}

		for i := 1; i < len(migrations); i++ {
			if migrations[i].Version <= migrations[i-1].Version {
				t.Errorf("migrations not sorted: version %d comes after %d", migrations[i].Version, migrations[i-1].Version)
			}
		}

		if got := migrations[0].String(); got != "0000_create_events" {
			t.Errorf("first migration = %s, want 0000_create_events", got)
		}
		for _, m := range migrations {
			if m.Up == "" || m.Down == "" {
				t.Errorf("migration %s missing a script", m)
			}
		}
	})

	t.Run("RunMigrations And Rollback", func(t *testing.T) {
		db := newMemoryJournal(t)

		if _, ok, err := SchemaVersion(db); err != nil || ok {
			t.Fatalf("fresh journal should have no schema version, got ok=%v err=%v", ok, err)
		}

		applied, err := RunMigrations(db)
		if err != nil {
			t.Fatalf("failed to run migrations: %v", err)
		}
		migrations, _ := loadMigrations()
		if applied != len(migrations) {
			t.Errorf("applied = %d, want %d", applied, len(migrations))
		}

		if _, err := db.Exec("SELECT 1 FROM events LIMIT 1"); err != nil {
			t.Errorf("events table should exist after migrations: %v", err)
		}

		version, ok, err := SchemaVersion(db)
		if err != nil || !ok || version != migrations[len(migrations)-1].Version {
			t.Errorf("SchemaVersion() = %d, %v, %v", version, ok, err)
		}

		m, err := RollbackMigration(db)
		if err != nil {
			t.Fatalf("failed to rollback migration: %v", err)
		}
		if m.Version != version {
			t.Errorf("rolled back %s, want version %d", m, version)
		}
		if _, err := db.Exec("SELECT 1 FROM events LIMIT 1"); err == nil {
			t.Error("events table should be gone after rolling back its migration")
		}

		if _, err := RollbackMigration(db); !errors.Is(err, ErrJournalSchema) {
			t.Errorf("expected ErrJournalSchema with nothing to roll back, got %v", err)
		}
	})

	t.Run("Idempotent Migrations", func(t *testing.T) {
		db := newMemoryJournal(t)

		if _, err := RunMigrations(db); err != nil {
			t.Fatalf("failed to run migrations first time: %v", err)
		}

		applied, err := RunMigrations(db)
		if err != nil {
			t.Fatalf("failed to run migrations second time: %v", err)
		}
		if applied != 0 {
			t.Errorf("second run applied %d migrations, want 0", applied)
		}
	})
}

func TestNewDatabase(t *testing.T) {
	t.Run("empty path", func(t *testing.T) {
		if _, err := NewDatabase("  "); !errors.Is(err, ErrInvalidConfig) {
			t.Errorf("expected ErrInvalidConfig, got %v", err)
		}
	})

	t.Run("creates parent directories", func(t *testing.T) {
		path := filepath.Join(t.TempDir(), "nested", "journal.db")
		db, err := NewDatabase(path)
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		defer db.Close()

		if _, err := RunMigrations(db); err != nil {
			t.Fatalf("failed to migrate file journal: %v", err)
		}
		if _, err := os.Stat(path); err != nil {
			t.Errorf("expected journal file at %s: %v", path, err)
		}
	})
}

func TestConfigureDatabase(t *testing.T) {
	tc := []struct {
		name     string
		cfg      DatabaseConfig
		wantOpen int
	}{
		{name: "configured pool", cfg: DatabaseConfig{Path: "journal.db", MaxOpenConns: 4, MaxIdleConns: 2}, wantOpen: 4},
		{name: "zero means one", cfg: DatabaseConfig{Path: "journal.db"}, wantOpen: 1},
		{name: "memory journal stays on one connection", cfg: DatabaseConfig{Path: MemoryDatabase, MaxOpenConns: 8}, wantOpen: 1},
	}

	for _, tt := range tc {
		t.Run(tt.name, func(t *testing.T) {
			db, err := NewDatabase(MemoryDatabase)
			if err != nil {
				t.Fatalf("failed to create database: %v", err)
			}
			defer db.Close()

			ConfigureDatabase(db, tt.cfg)
			if got := db.Stats().MaxOpenConnections; got != tt.wantOpen {
				t.Errorf("MaxOpenConnections = %d, want %d", got, tt.wantOpen)
			}
		})
	}
}

func TestRemoveComments(t *testing.T) {
	tc := []struct {
		name string
		in   string
		want string
	}{
		{name: "no comments", in: "SELECT 1", want: "SELECT 1"},
		{name: "full line comment", in: "-- header\nSELECT 1", want: "SELECT 1"},
		{name: "trailing comment", in: "SELECT 1 -- one", want: "SELECT 1"},
		{name: "only comments", in: "-- a\n-- b", want: ""},
	}

	for _, tt := range tc {
		t.Run(tt.name, func(t *testing.T) {
			if got := removeComments(tt.in); got != tt.want {
				t.Errorf("removeComments() = %q, want %q", got, tt.want)
			}
		})
	}
}
