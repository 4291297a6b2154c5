package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"time"

	"story-server/internal/config"
	"story-server/internal/database"
	"story-server/internal/logger"
	"story-server/pkg/migration"

	"github.com/rs/zerolog"
	"go.uber.org/zap"
)

const usage = `Usage: migrate [flags] <command>

Commands:
  up              apply all pending migrations
  down            roll back all migrations
  steps -n N      apply (N > 0) or roll back (N < 0) N migrations
  force -version  set the schema version without running migrations
  version         print the current schema version
`

func main() {
	steps := flag.Int("n", 0, "number of steps for the 'steps' command")
	version := flag.Uint("version", 0, "target version for the 'force' command")
	flag.Usage = func() {
		fmt.Fprint(flag.CommandLine.Output(), usage)
		flag.PrintDefaults()
	}
	flag.Parse()
	if flag.NArg() != 1 {
		flag.Usage()
		os.Exit(2)
	}

	cfg, err := config.LoadConfig()
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to load config: %v\n", err)
		os.Exit(1)
	}
	log := logger.NewZerolog(cfg.LogLevel, zerolog.ConsoleWriter{Out: os.Stdout, TimeFormat: time.RFC3339})

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Minute)
	defer cancel()

	pool, err := database.NewPool(ctx, cfg.Database(), zap.NewNop())
	if err != nil {
		log.Fatal().Err(err).Msg("failed to connect to database")
	}
	defer pool.Close()

	m := migration.NewMigrator(migration.Config{
		MigrationsFS:   database.MigrationsFS,
		MigrationsPath: database.MigrationsPath,
	}, pool, log)

	switch cmd := flag.Arg(0); cmd {
	case "up":
		err = m.Up(ctx)
	case "down":
		err = m.Down(ctx)
	case "steps":
		if *steps == 0 {
			log.Fatal().Msg("-n must be non-zero for 'steps'")
		}
		err = m.Steps(ctx, *steps)
	case "force":
		err = m.ForceVersion(ctx, *version)
	case "version":
		var v uint
		var dirty bool
		v, dirty, err = m.Version(ctx)
		if err == nil {
			log.Info().Uint("version", v).Bool("dirty", dirty).Msg("current schema version")
		}
	default:
		log.Error().Str("command", cmd).Msg("unknown command")
		flag.Usage()
		os.Exit(2)
	}
	if err != nil {
		log.Fatal().Err(err).Str("command", flag.Arg(0)).Msg("migration command failed")
	}
}
