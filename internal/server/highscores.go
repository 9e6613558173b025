package server

import (
	"log/slog"
	"net/http"

	"github.com/vancomm/minesweeper-engine/internal/repository"
)

func (app *App) handleFetchHighscores(w http.ResponseWriter, r *http.Request) {
	if app.store == nil {
		app.notFound(w)
		return
	}

	query := r.URL.Query()
	cfg, err := decodeConfig(query)
	if err != nil {
		app.badRequest(w, err.Error())
		return
	}
	var hq highscoresQuery
	if err := decoder.Decode(&hq, query); err != nil {
		app.badRequest(w, err.Error())
		return
	}

	filter := repository.HighscoreFilter{Config: cfg, Limit: hq.Limit}
	highscores, err := app.store.GetHighscores(r.Context(), filter)
	if err != nil {
		app.internalError(w, "failed to fetch highscores",
			slog.Any("error", err), slog.Any("filter", filter))
		return
	}
	if highscores == nil {
		highscores = []repository.Highscore{}
	}

	app.replyWith(w, highscores)
}
