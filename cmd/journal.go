package main

import (
	"context"
	"database/sql"
	"maps"
	"slices"

	"github.com/desertthunder/mixdeck/internal/formatter"
	"github.com/desertthunder/mixdeck/internal/repositories"
	"github.com/desertthunder/mixdeck/internal/shared"
	"github.com/urfave/cli/v3"
)

// openJournal opens the configured journal and applies pending migrations.
func (r *Runner) openJournal(config *shared.Config) (*sql.DB, error) {
	db, err := r.connectJournal(config)
	if err != nil {
		return nil, err
	}

	applied, err := shared.RunMigrations(db)
	if err != nil {
		db.Close()
		return nil, err
	}
	if applied > 0 {
		r.logger.Info("journal schema migrated", "path", config.Database.Path, "applied", applied)
	}
	return db, nil
}

// connectJournal opens the configured journal without touching its schema.
func (r *Runner) connectJournal(config *shared.Config) (*sql.DB, error) {
	db, err := shared.NewDatabase(config.Database.Path)
	if err != nil {
		return nil, err
	}
	shared.ConfigureDatabase(db, config.Database)
	return db, nil
}

// JournalList prints journaled events in sequence order.
func (r *Runner) JournalList(ctx context.Context, cmd *cli.Command) error {
	config, err := r.configFor(cmd)
	if err != nil {
		return err
	}

	db, err := r.openJournal(config)
	if err != nil {
		return err
	}
	defer db.Close()

	criteria := map[string]any{
		"run_id":  cmd.String("run"),
		"kind":    cmd.String("kind"),
		"subject": cmd.String("subject"),
		"limit":   int(cmd.Int("limit")),
	}

	records, err := repositories.NewEventRepository(db).List(criteria)
	if err != nil {
		return err
	}
	if len(records) == 0 {
		return r.writePlain("No events\n")
	}
	return r.write(formatter.EventsText(records))
}

// JournalStats prints event counts per kind.
func (r *Runner) JournalStats(ctx context.Context, cmd *cli.Command) error {
	config, err := r.configFor(cmd)
	if err != nil {
		return err
	}

	db, err := r.openJournal(config)
	if err != nil {
		return err
	}
	defer db.Close()

	counts, err := repositories.NewEventRepository(db).CountByKind(cmd.String("run"))
	if err != nil {
		return err
	}

	total := 0
	for _, kind := range slices.Sorted(maps.Keys(counts)) {
		r.writePlain("%-20s %d\n", kind, counts[kind])
		total += counts[kind]
	}
	return r.writePlain("%-20s %d\n", "total", total)
}
