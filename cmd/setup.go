package main

import (
	"context"
	"fmt"
	"os"

	"github.com/desertthunder/mixdeck/internal/shared"
	"github.com/urfave/cli/v3"
)

// SetupConfig writes the embedded example configuration.
func (r *Runner) SetupConfig(ctx context.Context, cmd *cli.Command) error {
	path := cmd.String("config")

	if cmd.Bool("force") {
		if err := os.Remove(path); err != nil && !os.IsNotExist(err) {
			return fmt.Errorf("failed to remove existing config: %w", err)
		}
	}

	if err := shared.CreateConfigFile(path); err != nil {
		return fmt.Errorf("%w: %v (use --force to overwrite)", shared.ErrInvalidArgument, err)
	}

	r.logger.Info("config file created", "path", path)
	r.writePlain("✓ Config written to %s\n", path)
	return nil
}

// SetupDatabase initializes the event journal database and runs migrations, or with --rollback reverts the newest one.
func (r *Runner) SetupDatabase(ctx context.Context, cmd *cli.Command) error {
	configPath := cmd.String("config")

	var config *shared.Config
	if _, err := os.Stat(configPath); err == nil {
		if config, err = shared.LoadConfig(configPath); err != nil {
			r.logger.Warn("failed to load config, using defaults", "error", err)
			config = shared.DefaultConfig()
		}
	} else {
		r.logger.Info("config file not found, creating from template", "path", configPath)
		if err := shared.CreateConfigFile(configPath); err != nil {
			r.logger.Warn("failed to create config file, using defaults", "error", err)
			config = shared.DefaultConfig()
		} else {
			r.logger.Info("config file created", "path", configPath)
			if config, err = shared.LoadConfig(configPath); err != nil {
				r.logger.Warn("failed to load created config, using defaults", "error", err)
				config = shared.DefaultConfig()
			}
		}
	}

	if cmd.Bool("rollback") {
		return r.rollbackJournal(config)
	}

	r.logger.Info("initializing database", "path", config.Database.Path)

	db, err := r.openJournal(config)
	if err != nil {
		return err
	}
	defer db.Close()

	version, _, err := shared.SchemaVersion(db)
	if err != nil {
		return err
	}

	r.logger.Infof("setup complete for database: %v", config.Database.Path)
	r.writePlain("✓ Journal ready at %s (schema %04d)\n", config.Database.Path, version)
	return nil
}

// rollbackJournal reverts the newest journal migration without applying pending ones first.
func (r *Runner) rollbackJournal(config *shared.Config) error {
	db, err := r.connectJournal(config)
	if err != nil {
		return err
	}
	defer db.Close()

	m, err := shared.RollbackMigration(db)
	if err != nil {
		return err
	}

	r.logger.Warn("journal migration rolled back", "path", config.Database.Path, "migration", m)
	r.writePlain("✓ Rolled back %s\n", m)
	return nil
}
