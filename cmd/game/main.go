// Command game serves minesweeper games over websockets.
package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"time"

	"github.com/lmittmann/tint"
	"golang.org/x/sync/errgroup"

	"github.com/vancomm/minesweeper-engine/internal/config"
	"github.com/vancomm/minesweeper-engine/internal/database"
	"github.com/vancomm/minesweeper-engine/internal/mines"
	"github.com/vancomm/minesweeper-engine/internal/placement"
	"github.com/vancomm/minesweeper-engine/internal/repository"
	"github.com/vancomm/minesweeper-engine/internal/server"
)

func newPlacer(logger *slog.Logger, cfg *config.Placement) (placement.Placer, error) {
	if !cfg.Remote() {
		logger.Info("placing mines in-process")
		return placement.NewRandom(nil), nil
	}
	logger.Info("placing mines remotely", slog.String("url", cfg.URL))
	return placement.NewClient(
		logger.With(slog.String("component", "placement")),
		cfg.URL,
		&http.Client{Timeout: cfg.Timeout},
	)
}

func run(ctx context.Context, logger *slog.Logger) error {
	ws, err := config.NewWebSocket()
	if err != nil {
		return fmt.Errorf("failed to read ws config: %w", err)
	}

	placementCfg, err := config.NewPlacement()
	if err != nil {
		return fmt.Errorf("failed to read placement config: %w", err)
	}
	placer, err := newPlacer(logger, placementCfg)
	if err != nil {
		return err
	}

	opts := []server.Option{
		server.WithPlacementTimeout(placementCfg.Timeout),
		server.WithCorsOrigins(config.CorsOrigins()),
	}
	if config.DatabaseConfigured() {
		db, migrator, err := database.ConnectAndMigrate(ctx)
		if err != nil {
			return fmt.Errorf("failed to connect and migrate db: %w", err)
		}
		defer db.Close()
		defer migrator.Close()
		if version, dirty, err := migrator.Version(); err == nil {
			logger.Info("records enabled",
				slog.Uint64("version", uint64(version)), slog.Bool("dirty", dirty))
		}
		opts = append(opts, server.WithStore(repository.New(db)))
	} else if dir := config.RecordsDir(); dir != "" {
		store, err := repository.OpenLocal(dir)
		if err != nil {
			return err
		}
		defer store.Close()
		logger.Info("records enabled", slog.String("dir", dir))
		opts = append(opts, server.WithStore(store))
	} else {
		logger.Warn("no database configured, games will not be recorded")
	}

	app := server.New(logger, placer, ws, opts...)
	basePath := config.BasePath()
	addr := config.Addr()
	srv := &http.Server{
		Addr:        addr,
		Handler:     app.Handler(basePath),
		ReadTimeout: time.Second * 15,
		IdleTimeout: time.Second * 60,
	}

	g, ctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		err := srv.ListenAndServe()
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("failed to listen and serve: %w", err)
		}
		return nil
	})
	g.Go(func() error {
		<-ctx.Done()
		sCtx, cancel := context.WithTimeout(context.Background(), time.Second*15)
		defer cancel()
		return srv.Shutdown(sCtx)
	})

	logger.Info("game online", slog.String("addr", addr), slog.String("base path", basePath))
	return g.Wait()
}

func main() {
	var handler slog.Handler = slog.NewJSONHandler(os.Stderr, nil)
	if config.Development() {
		handler = tint.NewHandler(os.Stderr, &tint.Options{
			Level: slog.LevelDebug,
		})
	}
	logger := slog.New(handler)
	mines.Log = logger.With(slog.String("component", "mines"))

	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt)
	defer cancel()

	if err := run(ctx, logger); err != nil {
		logger.Error("game stopped", slog.Any("error", err))
		os.Exit(1)
	}
}
