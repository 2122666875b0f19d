package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/udisondev/spawnpool/internal/config"
	"github.com/udisondev/spawnpool/internal/db"
	"github.com/udisondev/spawnpool/internal/world"
)

const (
	ConfigPath    = "config/spawnd.yaml"
	statsInterval = 30 * time.Second
)

func main() {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		sig := <-sigCh
		slog.Info("shutting down", "signal", sig)
		cancel()
	}()

	if err := run(ctx); err != nil {
		slog.Error("fatal", "err", err)
		os.Exit(1)
	}
}

func run(ctx context.Context) error {
	// Load config FIRST to determine log level
	cfgPath := ConfigPath
	if p := os.Getenv("SPAWND_CONFIG"); p != "" {
		cfgPath = p
	}
	cfg, err := config.LoadSpawnd(cfgPath)
	if err != nil {
		return fmt.Errorf("loading config: %w", err)
	}

	slog.SetDefault(slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{
		Level: parseLogLevel(cfg.LogLevel),
	})))

	slog.Info("spawnd starting",
		"log_level", cfg.LogLevel,
		"tick_interval", cfg.TickInterval,
		"pools", len(cfg.Pools),
		"spawners", len(cfg.Spawners))

	var sets pointSetLoader
	if cfg.Database != nil {
		database, err := db.New(ctx, cfg.Database.DSN())
		if err != nil {
			return fmt.Errorf("connecting to database: %w", err)
		}
		defer database.Close()
		slog.Info("database connected")

		if err := db.RunMigrations(ctx, cfg.Database.DSN()); err != nil {
			return fmt.Errorf("running migrations: %w", err)
		}
		slog.Info("database migrations applied")

		sets = database.PointSets()
	}

	w, err := world.NewWithShift(world.Bounds{
		MinX: cfg.World.MinX,
		MinY: cfg.World.MinY,
		MaxX: cfg.World.MaxX,
		MaxY: cfg.World.MaxY,
	}, cfg.World.Shift)
	if err != nil {
		return fmt.Errorf("creating world: %w", err)
	}

	h, err := newHost(ctx, cfg, w, sets)
	if err != nil {
		return err
	}
	defer h.shutdown()

	g, gctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		slog.Info("starting tick manager", "interval", h.ticks.Interval())
		if err := h.ticks.Start(gctx); err != nil && !errors.Is(err, context.Canceled) {
			return fmt.Errorf("tick manager: %w", err)
		}
		return nil
	})

	g.Go(func() error {
		ticker := time.NewTicker(statsInterval)
		defer ticker.Stop()
		for {
			select {
			case <-gctx.Done():
				return nil
			case <-ticker.C:
				h.ticks.Post(h.logStats)
			}
		}
	})

	if err := g.Wait(); err != nil {
		return fmt.Errorf("server error: %w", err)
	}

	slog.Info("spawnd stopped")
	return nil
}

// parseLogLevel converts string log level to slog.Level.
// Defaults to Info if invalid or empty.
func parseLogLevel(level string) slog.Level {
	switch level {
	case "debug":
		return slog.LevelDebug
	case "info":
		return slog.LevelInfo
	case "warn":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}
