package main

import (
	"flag"
	"fmt"
	"os"
	"path/filepath"
	"strconv"

	"github.com/gtech-mulearn/mulearn/internal/app/migrations"
	"github.com/gtech-mulearn/mulearn/internal/bootstrap"
	"github.com/gtech-mulearn/mulearn/internal/config"
	"github.com/gtech-mulearn/mulearn/internal/pkg/logger"
	"github.com/gtech-mulearn/mulearn/internal/server"
	"github.com/rs/zerolog"
)

// @title μLearn API
// @version 1.0
// @description Backend for the μLearn peer learning community: karma, leaderboards, learning circles and integrations.

// @license.name MIT
// @license.url https://opensource.org/licenses/MIT

// @host localhost:8000
// @BasePath /api/v1
// @schemes http https

// @securityDefinitions.apikey BearerAuth
// @in header
// @name Authorization
// @description Access token, optionally prefixed with "Bearer "

const usage = `usage: api [-config path] [command]

commands:
  serve (default)     run the HTTP server
  migrate up          apply all pending migrations
  migrate down N      roll back N migrations
  migrate status      print the applied schema version
`

func main() {
	configPath := flag.String("config", filepath.Join("configs", "config.yaml"), "path to the YAML config file")
	flag.Usage = func() { fmt.Fprint(os.Stderr, usage) }
	flag.Parse()

	cfg, lgr, err := bootstrap.LoadConfigAndSetupLogger(*configPath)
	if err != nil {
		logger.Error().Err(err).Msg("Failed to initialize configuration")
		os.Exit(1)
	}

	args := flag.Args()
	if len(args) == 0 || args[0] == "serve" {
		serve(cfg, lgr)
		return
	}

	if args[0] != "migrate" || len(args) < 2 {
		flag.Usage()
		os.Exit(2)
	}
	if err := migrate(cfg, lgr, args[1:]); err != nil {
		lgr.Error().Err(err).Msg("Migration command failed")
		os.Exit(1)
	}
}

func serve(cfg *config.Config, lgr zerolog.Logger) {
	srv, err := server.NewServer(cfg, lgr)
	if err != nil {
		lgr.Error().Err(err).Msg("Failed to initialize server")
		os.Exit(1)
	}

	if err := srv.Run(); err != nil {
		lgr.Error().Err(err).Msg("Server execution failed or shutdown encountered errors")
		os.Exit(1)
	}

	lgr.Info().Msg("Application finished gracefully.")
}

func migrate(cfg *config.Config, lgr zerolog.Logger, args []string) error {
	switch args[0] {
	case "up":
		return bootstrap.RunMigrations(cfg, lgr, func(m *migrations.Migrator) error { return m.Up() })

	case "down":
		if len(args) < 2 {
			return fmt.Errorf("migrate down needs a step count")
		}
		steps, err := strconv.Atoi(args[1])
		if err != nil {
			return fmt.Errorf("invalid step count %q: %w", args[1], err)
		}
		return bootstrap.RunMigrations(cfg, lgr, func(m *migrations.Migrator) error { return m.Down(steps) })

	case "status":
		return bootstrap.RunMigrations(cfg, lgr, func(m *migrations.Migrator) error {
			status, err := m.Status()
			if err != nil {
				return err
			}
			if status.Empty {
				lgr.Info().Msg("No migrations applied")
				return nil
			}
			lgr.Info().Uint("version", status.Version).Bool("dirty", status.Dirty).Msg("Migration status")
			return nil
		})

	default:
		return fmt.Errorf("unknown migrate command %q", args[0])
	}
}
