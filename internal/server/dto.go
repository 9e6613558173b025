package server

import (
	"net/url"

	"github.com/gorilla/schema"

	"github.com/vancomm/minesweeper-engine/internal/mines"
)

var decoder = newDecoder()

func newDecoder() *schema.Decoder {
	dec := schema.NewDecoder()
	dec.IgnoreUnknownKeys(true)
	return dec
}

func hasConfig(query url.Values) bool {
	return query.Has("width") || query.Has("height") || query.Has("mine_count")
}

// decodeConfig reads width, height and mine_count. It returns nil when
// none of them is present.
func decodeConfig(query url.Values) (*mines.Config, error) {
	if !hasConfig(query) {
		return nil, nil
	}
	var cfg mines.Config
	if err := decoder.Decode(&cfg, query); err != nil {
		return nil, err
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

type highscoresQuery struct {
	Limit int `schema:"limit"`
}
