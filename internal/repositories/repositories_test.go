package repositories

import (
	"database/sql"
	"errors"
	"testing"

	"github.com/desertthunder/mixdeck/internal/events"
	"github.com/desertthunder/mixdeck/internal/models"
	"github.com/desertthunder/mixdeck/internal/shared"
)

// setupTestDB creates an in-memory SQLite database with migrations applied
func setupTestDB(t *testing.T) *sql.DB {
	t.Helper()

	db, err := shared.NewDatabase(":memory:")
	if err != nil {
		t.Fatalf("failed to create test database: %v", err)
	}
	shared.ConfigureDatabase(db, shared.DatabaseConfig{Path: shared.MemoryDatabase})

	if _, err := shared.RunMigrations(db); err != nil {
		db.Close()
		t.Fatalf("failed to run migrations: %v", err)
	}

	return db
}

func TestNextSequence(t *testing.T) {
	db := setupTestDB(t)
	defer db.Close()

	for want := 1; want <= 3; want++ {
		got, err := NextSequence(db, "events")
		if err != nil {
			t.Fatalf("NextSequence: %v", err)
		}
		if got != want {
			t.Errorf("expected sequence %d, got %d", want, got)
		}
	}

	if _, err := NextSequence(db, "missing"); err == nil {
		t.Error("expected error for unknown sequence table")
	}
}

func TestEventRepository(t *testing.T) {
	t.Run("Create", func(t *testing.T) {
		db := setupTestDB(t)
		defer db.Close()

		repo := NewEventRepository(db)
		event := models.NewEventRecord("sfx_played", "sfx_click")
		event.Channel = "sfx"

		if err := repo.Create(event); err != nil {
			t.Fatalf("failed to create event: %v", err)
		}

		if event.ID() == "" || event.Sequence() != 1 {
			t.Errorf("expected id and sequence 1, got %q and %d", event.ID(), event.Sequence())
		}
	})

	t.Run("Create ValidationError", func(t *testing.T) {
		db := setupTestDB(t)
		defer db.Close()

		repo := NewEventRepository(db)
		if err := repo.Create(models.NewEventRecord("", "x")); !errors.Is(err, shared.ErrInvalidInput) {
			t.Fatalf("expected validation error, got %v", err)
		}
	})

	t.Run("Get", func(t *testing.T) {
		db := setupTestDB(t)
		defer db.Close()

		repo := NewEventRepository(db)
		event := models.NewEventRecord("stem_scheduled", "stem_drums")
		event.ClipID = "stem_drums"
		event.EngineTime = 4.0
		event.Volume = 0.9
		event.RunID = "run-1"

		if err := repo.Create(event); err != nil {
			t.Fatalf("failed to create event: %v", err)
		}

		got, err := repo.Get(event.ID())
		if err != nil {
			t.Fatalf("failed to get event: %v", err)
		}

		if got.Kind != "stem_scheduled" || got.EngineTime != 4.0 || got.Volume != 0.9 || got.RunID != "run-1" {
			t.Errorf("unexpected event %+v", got)
		}
	})

	t.Run("Get NotFound", func(t *testing.T) {
		db := setupTestDB(t)
		defer db.Close()

		repo := NewEventRepository(db)
		if _, err := repo.Get("nonexistent-id"); !errors.Is(err, shared.ErrRecordNotFound) {
			t.Fatalf("expected ErrRecordNotFound, got %v", err)
		}
	})

	t.Run("Update", func(t *testing.T) {
		db := setupTestDB(t)
		defer db.Close()

		repo := NewEventRepository(db)
		event := models.NewEventRecord("audio_error", "missing")
		if err := repo.Create(event); err != nil {
			t.Fatalf("failed to create event: %v", err)
		}

		event.Detail = "annotated"
		if err := repo.Update(event); err != nil {
			t.Fatalf("failed to update event: %v", err)
		}

		got, _ := repo.Get(event.ID())
		if got.Detail != "annotated" {
			t.Errorf("expected updated detail, got %q", got.Detail)
		}

		ghost := models.NewEventRecord("audio_error", "ghost")
		ghost.SetID("ghost")
		if err := repo.Update(ghost); !errors.Is(err, shared.ErrRecordNotFound) {
			t.Errorf("expected ErrRecordNotFound, got %v", err)
		}
	})

	t.Run("Delete", func(t *testing.T) {
		db := setupTestDB(t)
		defer db.Close()

		repo := NewEventRepository(db)
		event := models.NewEventRecord("sfx_played", "sfx_click")
		if err := repo.Create(event); err != nil {
			t.Fatalf("failed to create event: %v", err)
		}

		if err := repo.Delete(event.ID()); err != nil {
			t.Fatalf("failed to delete event: %v", err)
		}

		if _, err := repo.Get(event.ID()); err == nil {
			t.Error("expected error when getting deleted event")
		}

		if err := repo.Delete(event.ID()); err == nil {
			t.Error("expected error when deleting twice")
		}
	})

	t.Run("List", func(t *testing.T) {
		db := setupTestDB(t)
		defer db.Close()

		repo := NewEventRepository(db)
		for _, seed := range []struct{ kind, subject, run string }{
			{"sfx_played", "a", "r1"},
			{"sfx_played", "b", "r1"},
			{"bgm_started", "c", "r1"},
			{"sfx_played", "d", "r2"},
		} {
			e := models.NewEventRecord(seed.kind, seed.subject)
			e.RunID = seed.run
			if err := repo.Create(e); err != nil {
				t.Fatalf("failed to create event: %v", err)
			}
		}

		tc := []struct {
			name     string
			criteria map[string]any
			want     int
		}{
			{name: "all", criteria: map[string]any{}, want: 4},
			{name: "by kind", criteria: map[string]any{"kind": "sfx_played"}, want: 3},
			{name: "by run", criteria: map[string]any{"run_id": "r1"}, want: 3},
			{name: "kind and run", criteria: map[string]any{"kind": "sfx_played", "run_id": "r2"}, want: 1},
			{name: "limit", criteria: map[string]any{"limit": 2}, want: 2},
		}

		for _, tt := range tc {
			t.Run(tt.name, func(t *testing.T) {
				got, err := repo.List(tt.criteria)
				if err != nil {
					t.Fatalf("failed to list events: %v", err)
				}
				if len(got) != tt.want {
					t.Errorf("expected %d events, got %d", tt.want, len(got))
				}
				for i := 1; i < len(got); i++ {
					if got[i].Sequence() <= got[i-1].Sequence() {
						t.Error("events not ordered by sequence")
					}
				}
			})
		}

		counts, err := repo.CountByKind("r1")
		if err != nil {
			t.Fatalf("CountByKind: %v", err)
		}
		if counts["sfx_played"] != 2 || counts["bgm_started"] != 1 {
			t.Errorf("unexpected counts %v", counts)
		}
	})
}

func TestJournalSink(t *testing.T) {
	t.Run("Persists Events", func(t *testing.T) {
		db := setupTestDB(t)
		defer db.Close()

		repo := NewEventRepository(db)
		sink := NewJournalSink(repo, "run-42", nil)

		sink.Emit(events.Event{Kind: events.BackgroundMusicStarted, Subject: "bgm_main", ClipID: "bgm_main", Time: 1.5, Volume: 0.8})
		sink.Emit(events.Event{Kind: events.SessionStopped, Subject: "bgm_main"})

		if sink.Written() != 2 || sink.Failed() != 0 {
			t.Fatalf("expected 2 written, got %d written %d failed", sink.Written(), sink.Failed())
		}

		got, err := repo.List(map[string]any{"run_id": "run-42"})
		if err != nil {
			t.Fatalf("failed to list: %v", err)
		}
		if len(got) != 2 || got[0].Kind != "bgm_started" || got[0].Channel != "bgm" || got[0].EngineTime != 1.5 {
			t.Errorf("unexpected journal %+v", got)
		}
	})

	t.Run("Swallows Failures", func(t *testing.T) {
		db := setupTestDB(t)
		repo := NewEventRepository(db)
		sink := NewJournalSink(repo, "run", nil)
		db.Close()

		sink.Emit(events.Event{Kind: events.SoundEffectPlayed})
		if sink.Failed() != 1 || sink.Written() != 0 {
			t.Errorf("expected a counted failure, got %d failed %d written", sink.Failed(), sink.Written())
		}
	})
}
