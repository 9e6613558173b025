// Package server exposes games over websockets: one controller per
// connection, text commands in, JSON snapshots out.
package server

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
	"time"

	"github.com/google/uuid"

	"github.com/vancomm/minesweeper-engine/internal/config"
	"github.com/vancomm/minesweeper-engine/internal/game"
	"github.com/vancomm/minesweeper-engine/internal/middleware"
	"github.com/vancomm/minesweeper-engine/internal/placement"
	"github.com/vancomm/minesweeper-engine/internal/repository"
)

// Store keeps the results of finished games.
type Store interface {
	CreateGameRecord(context.Context, repository.CreateGameRecordParams) (*repository.GameRecord, error)
	FetchGameRecord(context.Context, uuid.UUID) (*repository.GameRecord, error)
	GetHighscores(context.Context, repository.HighscoreFilter) ([]repository.Highscore, error)
}

type App struct {
	logger *slog.Logger
	placer placement.Placer
	ws     *config.WebSocket
	store  Store

	placementTimeout time.Duration
	ticker           game.TickerFunc
	corsOrigins      []string
}

type Option func(*App)

// WithStore enables game records and the highscores endpoint.
func WithStore(s Store) Option {
	return func(a *App) {
		a.store = s
	}
}

func WithPlacementTimeout(d time.Duration) Option {
	return func(a *App) {
		a.placementTimeout = d
	}
}

func WithCorsOrigins(origins []string) Option {
	return func(a *App) {
		a.corsOrigins = origins
	}
}

func WithTicker(f game.TickerFunc) Option {
	return func(a *App) {
		a.ticker = f
	}
}

func New(logger *slog.Logger, placer placement.Placer, ws *config.WebSocket, opts ...Option) *App {
	app := &App{
		logger:           logger,
		placer:           placer,
		ws:               ws,
		placementTimeout: game.DefaultPlacementTimeout,
	}
	for _, opt := range opts {
		opt(app)
	}
	return app
}

func (app *App) ServeMux() *http.ServeMux {
	mux := http.NewServeMux()
	mux.HandleFunc("GET /play", app.handlePlay)
	mux.HandleFunc("GET /highscores", app.handleFetchHighscores)
	mux.HandleFunc("GET /healthz", app.handleHealthz)
	return mux
}

func (app *App) Handler(basePath string) http.Handler {
	return middleware.Wrap(
		app.ServeMux(),
		middleware.StripPrefix(basePath),
		middleware.Cors(app.corsOrigins...),
		middleware.Logging(app.logger),
	)
}

func (app *App) newController(logger *slog.Logger) *game.Controller {
	opts := []game.Option{game.WithPlacementTimeout(app.placementTimeout)}
	if app.ticker != nil {
		opts = append(opts, game.WithTicker(app.ticker))
	}
	return game.NewController(logger, app.placer, opts...)
}

func (app *App) handleHealthz(w http.ResponseWriter, r *http.Request) {
	app.replyWith(w, map[string]any{
		"status":  "ok",
		"records": app.store != nil,
	})
}

func (app *App) badRequest(w http.ResponseWriter, reason string) {
	w.WriteHeader(http.StatusBadRequest)
	w.Write([]byte("your request is invalid: " + reason))
}

func (app *App) notFound(w http.ResponseWriter) {
	w.WriteHeader(http.StatusNotFound)
	w.Write([]byte("not found :("))
}

func (app *App) internalError(w http.ResponseWriter, msg string, args ...any) {
	w.WriteHeader(http.StatusInternalServerError)
	w.Write([]byte("internal error"))
	app.logger.Error(msg, args...)
}

func (app *App) replyWith(w http.ResponseWriter, v any) {
	payload, err := json.Marshal(v)
	if err != nil {
		app.internalError(w, "failed to marshal json", slog.Any("error", err))
		return
	}
	w.Header().Set("Content-Type", "application/json")
	if _, err = w.Write(payload); err != nil {
		app.logger.Error(
			"failed to send data",
			slog.Any("data", v),
			slog.Any("error", err),
		)
	}
}
