// Command seed fills the database with generated users, posts, threads,
// follows and likes.
package main

import (
	"context"
	"flag"
	"log/slog"
	"os"

	"murmur/internal/config"
	"murmur/internal/database"
	"murmur/internal/observability"
	"murmur/internal/seed"
)

func main() {
	preset := flag.String("preset", "demo", "Preset name (small, demo, large or one defined in -file)")
	file := flag.String("file", "", "YAML file with custom presets")
	clean := flag.Bool("clean", true, "Remove existing rows before seeding")
	dryRun := flag.Bool("dry-run", false, "Generate without writing")
	randSeed := flag.Int64("seed", 0, "Random seed for reproducible data (0 = time based)")
	flag.Parse()

	cfg, err := config.LoadConfig()
	if err != nil {
		observability.Logger.Error("failed to load configuration", slog.String("error", err.Error()))
		os.Exit(1)
	}
	log := observability.InitLogger(cfg.Env, cfg.LogLevel)
	if cfg.IsProduction() {
		log.Error("refusing to seed a production database")
		os.Exit(1)
	}

	var p seed.Preset
	if *file != "" {
		p, err = seed.LoadPreset(*file, *preset)
	} else {
		p, err = seed.BuiltinPreset(*preset)
	}
	if err != nil {
		log.Error("invalid preset", slog.String("error", err.Error()))
		os.Exit(1)
	}

	ctx := context.Background()
	opts := seed.Options{DryRun: *dryRun, RandSeed: *randSeed}

	var s *seed.Seeder
	if *dryRun {
		s = seed.NewSeeder(nil, opts)
	} else {
		db, err := database.Connect(cfg)
		if err != nil {
			log.Error("failed to connect to database", slog.String("error", err.Error()))
			os.Exit(1)
		}
		s = seed.NewSeeder(db, opts)
		if *clean {
			if err := s.ClearAll(ctx); err != nil {
				log.Error("cleanup failed", slog.String("error", err.Error()))
				os.Exit(1)
			}
		}
	}

	res, err := s.Run(ctx, p)
	if err != nil {
		log.Error("seeding failed", slog.String("error", err.Error()))
		os.Exit(1)
	}

	log.Info("seeding complete",
		slog.String("preset", *preset),
		slog.Bool("dry_run", *dryRun),
		slog.Int("users", res.Users),
		slog.Int("follows", res.Follows),
		slog.Int("posts", res.Posts),
		slog.Int("comments", res.Comments),
		slog.Int("post_likes", res.PostLikes),
		slog.Int("comment_likes", res.CommentLikes),
	)
}
