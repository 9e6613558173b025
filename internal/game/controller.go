// Package game sequences a minesweeper game: the empty board, the first
// click that asks for a mine layout, play until a mine or the last safe
// square, and the clock that runs in between.
package game

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/vancomm/minesweeper-engine/internal/mines"
	"github.com/vancomm/minesweeper-engine/internal/placement"
)

const DefaultPlacementTimeout = 10 * time.Second

type Controller struct {
	mu        sync.Mutex
	logger    *slog.Logger
	board     *mines.Board
	placer    placement.Placer
	clock     *Clock
	observers map[int]Observer
	nextObs   int

	gameID  uuid.UUID
	pending *placement.Request

	ctx     context.Context
	cancel  context.CancelFunc
	timeout time.Duration
	ticker  TickerFunc
	wg      sync.WaitGroup
}

type Option func(*Controller)

func WithPlacementTimeout(d time.Duration) Option {
	return func(c *Controller) {
		if d > 0 {
			c.timeout = d
		}
	}
}

func WithTicker(f TickerFunc) Option {
	return func(c *Controller) {
		c.ticker = f
	}
}

func NewController(logger *slog.Logger, placer placement.Placer, opts ...Option) *Controller {
	c := &Controller{
		logger:    logger,
		board:     mines.NewBoard(),
		placer:    placer,
		observers: make(map[int]Observer),
		timeout:   DefaultPlacementTimeout,
	}
	for _, opt := range opts {
		opt(c)
	}
	c.ctx, c.cancel = context.WithCancel(context.Background())
	c.clock = NewClock(c.ticker, c.tick)
	return c
}

// Subscribe registers o for every event until the returned func is called.
func (c *Controller) Subscribe(o Observer) (unsubscribe func()) {
	c.mu.Lock()
	defer c.mu.Unlock()
	id := c.nextObs
	c.nextObs++
	c.observers[id] = o
	return func() {
		c.mu.Lock()
		defer c.mu.Unlock()
		delete(c.observers, id)
	}
}

func (c *Controller) emit(kind EventKind, err error) {
	c.emitElapsed(kind, c.clock.Elapsed(), err)
}

// emitElapsed notifies observers with the game as it is now. c.mu must be
// held.
func (c *Controller) emitElapsed(kind EventKind, elapsed int, err error) {
	e := Event{
		Kind:    kind,
		GameID:  c.gameID.String(),
		Config:  c.board.Config(),
		State:   c.board.State(),
		Elapsed: elapsed,
		View:    c.view(elapsed),
		Err:     err,
	}
	for _, o := range c.observers {
		o.Notify(e)
	}
}

// StartNewGame discards the current game and waits for the first click on
// an empty board of the given size. An invalid config leaves everything
// as it was.
func (c *Controller) StartNewGame(cfg mines.Config) error {
	if err := cfg.Validate(); err != nil {
		return err
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	c.start(cfg)
	return nil
}

// ResetGame starts over with the current board size.
func (c *Controller) ResetGame() {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.board.State() == mines.Empty {
		return
	}
	c.start(c.board.Config())
}

func (c *Controller) start(cfg mines.Config) {
	c.clock.Reset()
	c.board.Reset(cfg)
	c.gameID = uuid.New()
	c.pending = nil
	c.logger.Debug(
		"new game",
		slog.String("game_id", c.gameID.String()),
		slog.String("config", cfg.Seed()),
	)
	c.emit(EventNewGame, nil)
}

func (c *Controller) OnCellClick(row, col int) {
	c.mu.Lock()
	defer c.mu.Unlock()

	cfg := c.board.Config()
	if !cfg.InBounds(row, col) || c.board.Flagged(row, col) {
		return
	}

	switch c.board.State() {
	case mines.AwaitingFirstClick:
		if c.pending != nil {
			c.logger.Debug(
				"placement in flight, click ignored",
				slog.Int("row", row), slog.Int("col", col),
			)
			return
		}
		req := placement.NewRequest(cfg, row, col)
		req.GameID = c.gameID.String()
		c.pending = &req
		c.emit(EventPlacementPending, nil)
		c.wg.Add(1)
		go c.place(c.gameID, req)
	case mines.InPlay:
		if c.board.Revealed(row, col) {
			return
		}
		c.board.Reveal(row, col)
		c.afterReveal()
	}
}

func (c *Controller) OnCellFlag(row, col int) {
	c.mu.Lock()
	defer c.mu.Unlock()

	switch c.board.State() {
	case mines.AwaitingFirstClick, mines.InPlay:
	default:
		return
	}
	if !c.board.Config().InBounds(row, col) || c.board.Revealed(row, col) {
		return
	}
	c.board.ToggleFlag(row, col)
	c.emit(EventBoardChanged, nil)
}

func (c *Controller) OnCellChord(row, col int) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.board.State() != mines.InPlay {
		return
	}
	if c.board.Chord(row, col) > 0 {
		c.afterReveal()
	}
}

func (c *Controller) afterReveal() {
	c.logger.Debug("board", slog.String("display", "\n"+c.board.String()))
	switch {
	case c.board.State() == mines.Lost:
		c.clock.Stop()
		c.board.RevealMines()
		c.emit(EventBoardChanged, nil)
		c.emit(EventLost, nil)
	case c.board.Win():
		c.clock.Stop()
		c.emit(EventBoardChanged, nil)
		c.emit(EventWon, nil)
	default:
		c.emit(EventBoardChanged, nil)
	}
}

func (c *Controller) place(gameID uuid.UUID, req placement.Request) {
	defer c.wg.Done()
	ctx, cancel := context.WithTimeout(c.ctx, c.timeout)
	defer cancel()
	res, err := c.placer.Place(ctx, req)
	c.applyPlacement(gameID, req, res, err)
}

func (c *Controller) applyPlacement(
	gameID uuid.UUID, req placement.Request, res *placement.Response, err error,
) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if gameID != c.gameID {
		c.logger.Debug(
			"dropping stale placement",
			slog.String("game_id", gameID.String()),
			slog.String("current_game_id", c.gameID.String()),
		)
		return
	}
	c.pending = nil

	var layout mines.Grid[bool]
	if err == nil && res == nil {
		err = placement.ErrBadLayout
	}
	if err == nil {
		layout, err = res.Layout(req)
	}
	if err == nil {
		err = c.board.SetMines(layout)
	}
	if err != nil {
		c.logger.Warn(
			"mine placement failed",
			slog.String("game_id", gameID.String()),
			slog.String("key", req.Key()),
			slog.Any("error", err),
		)
		c.emit(EventPlacementFailed, err)
		return
	}

	c.board.Reveal(req.Row, req.Col)
	c.clock.Start()
	c.afterReveal()
}

func (c *Controller) tick(epoch uint64, elapsed int) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if !c.clock.Current(epoch) {
		return
	}
	c.emitElapsed(EventTick, elapsed, nil)
}

type View struct {
	GameID  string         `json:"game_id"`
	Board   mines.Snapshot `json:"board"`
	Elapsed int            `json:"elapsed"`
	Time    string         `json:"time"`
	Pending bool           `json:"placement_pending"`
}

func (c *Controller) Snapshot() View {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.view(c.clock.Elapsed())
}

func (c *Controller) view(elapsed int) View {
	return View{
		GameID:  c.gameID.String(),
		Board:   c.board.Snapshot(),
		Elapsed: elapsed,
		Time:    FormatElapsed(elapsed),
		Pending: c.pending != nil,
	}
}

func (c *Controller) State() mines.State {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.board.State()
}

func (c *Controller) GameID() string {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.gameID.String()
}

func (c *Controller) Config() mines.Config {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.board.Config()
}

func (c *Controller) Elapsed() int {
	return c.clock.Elapsed()
}

// Close stops the clock and waits for placement requests in flight.
func (c *Controller) Close() {
	c.cancel()
	c.wg.Wait()
	c.clock.Stop()
}
