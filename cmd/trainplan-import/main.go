package main

import (
	"context"
	"flag"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"

	"github.com/claude/trainplan/internal/catalog"
	"github.com/claude/trainplan/internal/config"
	"github.com/claude/trainplan/internal/storage"
)

func main() {
	configPath := flag.String("config", "config.yaml", "path to config file")
	catalogPath := flag.String("path", "", "path to exercise catalog YAML file (required)")
	dryRun := flag.Bool("dry-run", false, "validate the catalog without writing to the database")
	watch := flag.Bool("watch", false, "keep running and re-import the catalog whenever it changes")
	stateDir := flag.String("state-dir", "", "directory for the import state database (default ~/.trainplan-import)")
	flag.Parse()

	log := slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelInfo}))

	if *catalogPath == "" {
		fmt.Fprintf(os.Stderr, "Usage: trainplan-import -config config.yaml -path exercises.yaml [-dry-run] [-watch]\n")
		flag.PrintDefaults()
		os.Exit(1)
	}

	info, err := os.Stat(*catalogPath)
	if err != nil || info.IsDir() {
		log.Error("catalog path does not exist or is a directory", "path", *catalogPath)
		os.Exit(1)
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if *dryRun {
		stats, err := catalog.NewImporter(nil, nil, log, true).Import(ctx, *catalogPath)
		if err != nil {
			log.Error("catalog invalid", "error", err)
			os.Exit(1)
		}
		printStats(log, stats)
		return
	}

	// Load config
	cfg, err := config.Load(*configPath)
	if err != nil {
		log.Error("failed to load config", "error", err)
		os.Exit(1)
	}

	dsn := cfg.Database.DSN()

	// Run migrations
	if err := storage.RunMigrations(dsn, "migrations"); err != nil {
		log.Error("migration failed", "error", err)
		os.Exit(1)
	}
	log.Info("migrations applied")

	// Connect database
	db, err := storage.New(ctx, dsn)
	if err != nil {
		log.Error("failed to connect database", "error", err)
		os.Exit(1)
	}
	defer db.Close()
	log.Info("database connected")

	// Open state database
	dir := *stateDir
	if dir == "" {
		homeDir, err := os.UserHomeDir()
		if err != nil {
			log.Error("failed to get home directory", "error", err)
			os.Exit(1)
		}
		dir = filepath.Join(homeDir, ".trainplan-import")
	}
	state, err := catalog.OpenStateDB(dir)
	if err != nil {
		log.Error("failed to open state database", "error", err)
		os.Exit(1)
	}
	defer state.Close()

	imp := catalog.NewImporter(db, state, log, false)

	if *watch {
		log.Info("watching catalog", "path", *catalogPath)
		if err := imp.Watch(ctx, *catalogPath); err != nil {
			log.Error("watch failed", "error", err)
			os.Exit(1)
		}
		log.Info("watch stopped")
		return
	}

	stats, err := imp.Import(ctx, *catalogPath)
	if err != nil {
		log.Error("import failed", "error", err)
		if stats != nil {
			printStats(log, stats)
		}
		os.Exit(1)
	}

	printStats(log, stats)
	log.Info("import complete")
}

func printStats(log *slog.Logger, stats *catalog.Stats) {
	log.Info("import stats",
		"path", stats.Path,
		"hash", stats.Hash,
		"exercises_read", stats.Read,
		"exercises_stored", stats.Stored,
		"unchanged", stats.Unchanged,
	)
}
