package main

import (
	"context"
	"flag"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"cloud.google.com/go/civil"

	"tracker/internal/config"
	"tracker/internal/console"
	"tracker/internal/export"
	"tracker/internal/models"
	"tracker/internal/seed"
	"tracker/internal/session"
	"tracker/internal/storage/sqlite"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		slog.Error("invalid configuration", slog.String("error", err.Error()))
		os.Exit(1)
	}

	dbFlag := flag.String("db", cfg.DBPath, "Path to sqlite database file, or :memory:")
	exportFlag := flag.String("export", cfg.ExportPath, "File that exports are appended to")
	seedFlag := flag.String("seed", cfg.SeedFile, "YAML file with the users to seed")
	strictFlag := flag.Bool("strict", cfg.Strict, "Reject duplicate members and transitions out of settled tasks")
	todayFlag := flag.String("today", cfg.Today, "Pin the current date (YYYY-MM-DD)")
	flag.Parse()

	cfg.DBPath, cfg.ExportPath, cfg.SeedFile, cfg.Strict, cfg.Today = *dbFlag, *exportFlag, *seedFlag, *strictFlag, *todayFlag
	if err := cfg.Validate(); err != nil {
		slog.Error("invalid configuration", slog.String("error", err.Error()))
		os.Exit(1)
	}

	logger, closeLog, err := newLogger(cfg)
	if err != nil {
		slog.Error("unable to open log file", slog.String("error", err.Error()))
		os.Exit(1)
	}
	defer closeLog()

	store, err := sqlite.Open(cfg.DBPath, logger.With("component", "store"))
	if err != nil {
		logger.Error("unable to open database", slog.String("error", err.Error()))
		os.Exit(1)
	}
	defer store.Close()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	users := seed.Default()
	if cfg.SeedFile != "" {
		if users, err = seed.Load(cfg.SeedFile); err != nil {
			logger.Error("unable to load seed file", slog.String("error", err.Error()))
			os.Exit(1)
		}
	}
	if err := seedIfEmpty(ctx, store, users); err != nil {
		logger.Error("unable to seed users", slog.String("error", err.Error()))
		os.Exit(1)
	}

	opts := session.Options{
		Strict: cfg.Strict,
		Sink:   export.NewFileSink(cfg.ExportPath),
		Logger: logger,
	}
	if day, ok := cfg.FixedToday(); ok {
		opts.Today = func() civil.Date { return day }
	}
	sess := session.New(store, opts)

	logger.Info("tracker session started", slog.String("db", cfg.DBPath), slog.Bool("strict", cfg.Strict))
	if err := console.New(sess, os.Stdin, os.Stdout, logger).Run(ctx); err != nil {
		logger.Error("console stopped unexpectedly", slog.String("error", err.Error()))
		os.Exit(1)
	}
	logger.Info("tracker session ended")
}

// seedIfEmpty stores the seed users unless a file database already holds users.
func seedIfEmpty(ctx context.Context, store *sqlite.Store, users []models.User) error {
	existing, err := store.ListUsers(ctx)
	if err != nil {
		return err
	}
	if len(existing) > 0 {
		return nil
	}
	_, err = seed.Apply(ctx, store, users)
	return err
}

func newLogger(cfg *config.Config) (*slog.Logger, func(), error) {
	level, err := cfg.Level()
	if err != nil {
		return nil, nil, err
	}
	var w io.Writer = os.Stderr
	closeFn := func() {}
	if cfg.LogFile != "" {
		f, err := os.OpenFile(cfg.LogFile, os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0o644)
		if err != nil {
			return nil, nil, err
		}
		w = f
		closeFn = func() { _ = f.Close() }
	}
	return slog.New(slog.NewTextHandler(w, &slog.HandlerOptions{Level: level})), closeFn, nil
}
