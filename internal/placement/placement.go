// Package placement describes how a board gets its mines: a request
// carrying the board size and the first click, answered with a layout
// that never mines the first clicked square.
package placement

import (
	"context"
	"errors"
	"fmt"

	"github.com/vancomm/minesweeper-engine/internal/mines"
)

var (
	ErrBadRequest = errors.New("invalid placement request")
	ErrBadLayout  = errors.New("invalid mine layout")
)

type Request struct {
	Width     int `schema:"width,required"      json:"width"`
	Height    int `schema:"height,required"     json:"height"`
	MineCount int `schema:"mine_count,required" json:"mine_count"`
	Row       int `schema:"row,required"        json:"row"`
	Col       int `schema:"col,required"        json:"col"`

	// GameID scopes a request to one game. It stays on the caller's side
	// of the wire.
	GameID string `schema:"-" json:"-"`
}

func NewRequest(cfg mines.Config, row, col int) Request {
	return Request{
		Width:     cfg.Width,
		Height:    cfg.Height,
		MineCount: cfg.MineCount,
		Row:       row,
		Col:       col,
	}
}

func (r Request) Config() mines.Config {
	return mines.Config{Width: r.Width, Height: r.Height, MineCount: r.MineCount}
}

func (r Request) Validate() error {
	cfg := r.Config()
	if err := cfg.Validate(); err != nil {
		return fmt.Errorf("%w: %w", ErrBadRequest, err)
	}
	if !cfg.InBounds(r.Row, r.Col) {
		return fmt.Errorf(
			"%w: first click is not on the board (row = %d, col = %d)",
			ErrBadRequest, r.Row, r.Col,
		)
	}
	return nil
}

// Key identifies requests that may share one answer: retries for the
// same game. Requests of different games never share a key.
func (r Request) Key() string {
	key := fmt.Sprintf("%s@%d:%d", r.Config().Seed(), r.Row, r.Col)
	if r.GameID != "" {
		key += "/" + r.GameID
	}
	return key
}

type Response struct {
	Board      [][]bool `json:"board"`
	MineCount  int      `json:"mine_count"`
	FirstClick [2]int   `json:"first_click"`
}

// Layout checks the response against the request it answers and turns
// it into a grid for [mines.Board.SetMines].
func (p *Response) Layout(req Request) (mines.Grid[bool], error) {
	grid, err := mines.GridFromRows(p.Board)
	if err != nil {
		return mines.Grid[bool]{}, fmt.Errorf("%w: %w", ErrBadLayout, err)
	}
	if !grid.SameShape(req.Width, req.Height) {
		return mines.Grid[bool]{}, fmt.Errorf(
			"%w: have %dx%d, want %dx%d",
			ErrBadLayout, grid.Width, grid.Height, req.Width, req.Height,
		)
	}
	if grid.At(req.Row, req.Col) {
		return mines.Grid[bool]{}, fmt.Errorf(
			"%w: mine at first click %d:%d", ErrBadLayout, req.Row, req.Col,
		)
	}
	n := 0
	for _, mined := range grid.Cells {
		if mined {
			n++
		}
	}
	if n != req.MineCount || p.MineCount != req.MineCount {
		return mines.Grid[bool]{}, fmt.Errorf(
			"%w: have %d mines (reported %d), want %d",
			ErrBadLayout, n, p.MineCount, req.MineCount,
		)
	}
	return grid, nil
}

type Placer interface {
	Place(ctx context.Context, req Request) (*Response, error)
}

type PlacerFunc func(ctx context.Context, req Request) (*Response, error)

func (f PlacerFunc) Place(ctx context.Context, req Request) (*Response, error) {
	return f(ctx, req)
}
