// Command migrate applies, inspects and rolls back the murmur schema.
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"log/slog"
	"os"
	"strconv"
	"strings"
	"time"

	"murmur/internal/config"
	"murmur/internal/database"
	"murmur/internal/observability"
)

const usage = "usage: migrate <up|auto|status|down> [version]"

func main() {
	if err := run(); err != nil {
		observability.Logger.Error("migrate failed", slog.String("error", err.Error()))
		os.Exit(1)
	}
}

func run() error {
	timeout := flag.Duration("timeout", 2*time.Minute, "Abort if the operation runs longer than this")
	flag.Parse()
	if flag.NArg() < 1 {
		return errors.New(usage)
	}

	cfg, err := config.LoadConfig()
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}
	log := observability.InitLogger(cfg.Env, cfg.LogLevel)

	db, err := database.ConnectWithOptions(cfg, database.ConnectOptions{ApplySchema: false})
	if err != nil {
		return fmt.Errorf("connect database: %w", err)
	}
	if sqlDB, err := db.DB(); err == nil {
		defer func() { _ = sqlDB.Close() }()
	}

	ctx, cancel := context.WithTimeout(context.Background(), *timeout)
	defer cancel()

	switch strings.ToLower(strings.TrimSpace(flag.Arg(0))) {
	case "up":
		ran, err := database.NewMigrator(db, database.GetMigrations()).Up(ctx)
		if err != nil {
			return fmt.Errorf("sql migrations: %w", err)
		}
		for _, m := range ran {
			log.Info("applied migration", slog.String("migration", m.String()))
		}
		log.Info("sql migrations up to date", slog.Int("applied", len(ran)))

	case "auto":
		cfg.DBSchemaMode = database.SchemaModeAuto
		if err := database.ApplySchema(ctx, db, cfg); err != nil {
			return fmt.Errorf("auto migrate: %w", err)
		}
		log.Info("auto migrations applied")

	case "status":
		status, err := database.GetSchemaStatus(ctx, db, cfg)
		if err != nil {
			return fmt.Errorf("schema status: %w", err)
		}
		log.Info("schema status",
			slog.String("mode", status.Mode),
			slog.String("env", status.Env),
			slog.String("dialect", status.Dialect),
			slog.Bool("run_sql", status.SQL),
			slog.Bool("run_auto", status.Auto),
			slog.Int("applied", len(status.Applied)),
			slog.Int("pending", len(status.Pending)),
		)
		for _, m := range status.Pending {
			log.Info("pending migration", slog.String("migration", m.String()))
		}
		for _, table := range status.MissingTables {
			log.Warn("missing table", slog.String("table", table))
		}

	case "down":
		if flag.NArg() < 2 {
			return fmt.Errorf("usage: migrate down <version>")
		}
		version, err := strconv.Atoi(flag.Arg(1))
		if err != nil {
			return fmt.Errorf("invalid version %q: %w", flag.Arg(1), err)
		}
		if err := database.NewMigrator(db, database.GetMigrations()).Down(ctx, version); err != nil {
			return fmt.Errorf("rollback %d: %w", version, err)
		}
		log.Info("rolled back migration", slog.Int("version", version))

	default:
		return errors.New(usage)
	}

	return nil
}
