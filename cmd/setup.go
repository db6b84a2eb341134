package main

import (
	"context"
	"fmt"
	"os"

	"github.com/urfave/cli/v3"

	"github.com/sudipghimire533/ytui-music-sub000/internal/shared"
)

// Setup writes config.toml when it does not exist yet, then initializes the database and runs migrations.
func (r *Runner) Setup(ctx context.Context, cmd *cli.Command) error {
	if _, err := os.Stat(r.configPath); err != nil {
		r.logger.Info("config file not found, creating from template", "path", r.configPath)
		if err := shared.CreateConfigFile(r.configPath); err != nil {
			return fmt.Errorf("failed to create config file: %w", err)
		}

		config, err := shared.LoadConfig(r.configPath)
		if err != nil {
			return fmt.Errorf("failed to load created config: %w", err)
		}
		r.config = config
		r.logger.Info("config file created", "path", r.configPath)
	}

	r.logger.Info("initializing database", "path", r.config.Database.Path)
	if err := r.database(); err != nil {
		return fmt.Errorf("failed to initialize database: %w", err)
	}

	versions, err := shared.AppliedVersions(r.db)
	if err != nil {
		return fmt.Errorf("failed to read migrations: %w", err)
	}

	r.logger.Infof("setup complete for database: %v", r.config.Database.Path)
	r.writePlain("✓ Configuration: %s\n", r.configPath)
	r.writePlain("✓ Database: %s (%d migrations applied)\n", r.config.Database.Path, len(versions))
	r.writePlainln("Next: run 'ytui' to start the player, or 'ytui search <query>'")
	return nil
}
