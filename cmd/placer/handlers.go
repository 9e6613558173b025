package main

import (
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"github.com/gorilla/schema"
	"github.com/sirupsen/logrus"

	"github.com/vancomm/minesweeper-engine/internal/placement"
)

type application struct {
	log     *logrus.Logger
	decoder *schema.Decoder
	placer  placement.Placer
}

func newApplication(log *logrus.Logger, placer placement.Placer) *application {
	decoder := schema.NewDecoder()
	decoder.IgnoreUnknownKeys(true)
	return &application{log: log, decoder: decoder, placer: placer}
}

func (app *application) ServeMux() *http.ServeMux {
	mux := http.NewServeMux()
	mux.HandleFunc("GET /place", app.handlePlace)
	mux.HandleFunc("GET /healthz", app.handleHealthz)
	return mux
}

func (app *application) handlePlace(w http.ResponseWriter, r *http.Request) {
	start := time.Now()

	var req placement.Request
	if err := app.decoder.Decode(&req, r.URL.Query()); err != nil {
		app.log.WithFields(logrus.Fields{
			"query": r.URL.RawQuery,
			"error": err,
		}).Debug("malformed placement request")
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	res, err := app.placer.Place(r.Context(), req)
	if errors.Is(err, placement.ErrBadRequest) {
		app.log.WithFields(logrus.Fields{
			"request": req,
			"error":   err,
		}).Debug("rejected placement request")
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}
	if err != nil {
		app.log.WithFields(logrus.Fields{
			"request": req,
			"error":   err,
		}).Error("placement failed")
		http.Error(w, "internal error", http.StatusInternalServerError)
		return
	}

	payload, err := json.Marshal(res)
	if err != nil {
		app.log.WithError(err).Error("failed to marshal layout")
		http.Error(w, "internal error", http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	if _, err := w.Write(payload); err != nil {
		app.log.WithError(err).Warn("failed to send layout")
		return
	}

	app.log.WithFields(logrus.Fields{
		"key":      req.Key(),
		"duration": time.Since(start),
	}).Info("placed mines")
}

func (app *application) handleHealthz(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	w.Write([]byte(`{"status":"ok"}`))
}
