package main

import (
	"context"
	"fmt"
	"os"

	"github.com/desertthunder/musicone/internal/shared"
	"github.com/urfave/cli/v3"
)

// Setup writes config.toml (or the --config path) from the embedded template.
func (r *Runner) Setup(ctx context.Context, cmd *cli.Command) error {
	configPath := cmd.String("config")
	if configPath == "" {
		configPath = "config.toml"
	}

	if cmd.Bool("force") {
		if err := os.Remove(configPath); err != nil && !os.IsNotExist(err) {
			return fmt.Errorf("failed to remove existing config: %w", err)
		}
	}

	if err := shared.CreateConfigFile(configPath); err != nil {
		return err
	}
	r.logger.Info("config file created", "path", configPath)

	config, err := shared.LoadConfig(configPath)
	if err != nil {
		return fmt.Errorf("failed to load created config: %w", err)
	}

	r.writePlain("✓ Created %s\n", configPath)
	r.writePlain("Backend: %s\n", config.Backend.URL)
	r.writePlain("Override it with MUSICONE_API_URL or edit [backend].url\n")
	return nil
}
