package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"riff.app/backend/internal/api"
	"riff.app/backend/internal/auth"
	"riff.app/backend/internal/config"
	"riff.app/backend/internal/core"
	"riff.app/backend/internal/observability"
	"riff.app/backend/internal/store"
)

func main() {
	if err := run(); err != nil {
		slog.Error("server exited with error", "error", err)
		os.Exit(1)
	}
}

func run() error {
	seedFlavorsFile := flag.String("seed-flavors", "", "Upsert flavor presets from a YAML file and exit")
	flag.Parse()

	cfg, err := config.LoadConfig()
	if err != nil {
		return err
	}
	slog.SetDefault(slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{Level: cfg.SlogLevel()})))

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	dbStore, err := store.Open(ctx, cfg.DatabaseURL, cfg.DBMaxConns)
	if err != nil {
		return fmt.Errorf("failed to initialize database: %w", err)
	}
	defer dbStore.Close()

	if cfg.RunMigrations {
		if err := dbStore.Migrate(ctx); err != nil {
			return err
		}
	}

	flavorService := core.NewFlavorService(dbStore)

	if *seedFlavorsFile != "" {
		return seedFlavors(ctx, flavorService, *seedFlavorsFile)
	}

	var directory auth.Directory
	if cfg.SupabaseJWTSecret != "" {
		slog.Info("verifying access tokens locally")
		directory = auth.NewJWTDirectory(cfg.SupabaseJWTSecret)
	} else {
		directory = auth.NewSupabaseDirectory(cfg.SupabaseURL, cfg.SupabaseKey, cfg.AuthTimeout)
	}

	chatDeps := core.ChatDeps{
		Messages: dbStore,
		Prompts:  flavorService,
		NewModel: core.NewChatModel,
		Metrics:  observability.NewDefaultTurnMetrics(),
	}
	apiHandler := api.NewAPIHandler(
		core.NewModelService(dbStore),
		flavorService,
		core.NewNodeService(dbStore, dbStore),
		chatDeps,
	)
	router := api.NewRouter(apiHandler, directory, cfg.CORSOrigins)

	serverAddr := ":" + cfg.HTTPPort
	srv := &http.Server{
		Addr:         serverAddr,
		Handler:      router,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 120 * time.Second, // model calls are not bounded otherwise
		IdleTimeout:  120 * time.Second,
	}

	serveErr := make(chan error, 1)
	go func() {
		slog.Info("starting server", "addr", serverAddr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			serveErr <- err
		}
		close(serveErr)
	}()

	select {
	case err := <-serveErr:
		return fmt.Errorf("could not listen on %s: %w", serverAddr, err)
	case <-ctx.Done():
	}
	slog.Info("shutting down server")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("server forced to shutdown: %w", err)
	}

	slog.Info("server exited gracefully")
	return nil
}

func seedFlavors(ctx context.Context, flavors *core.FlavorService, path string) error {
	f, err := os.Open(path)
	if err != nil {
		return fmt.Errorf("open flavor presets: %w", err)
	}
	defer f.Close()

	presets, err := core.LoadPresets(f)
	if err != nil {
		return err
	}
	n, err := flavors.Seed(ctx, presets)
	if err != nil {
		return err
	}
	slog.Info("flavor presets seeded", "count", n, "file", path)
	return nil
}
