package game

import (
	"context"
	"errors"
	"log/slog"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/vancomm/minesweeper-engine/internal/mines"
	"github.com/vancomm/minesweeper-engine/internal/placement"
)

type fakeTicker struct {
	ch      chan time.Time
	stopped atomic.Bool
}

func (t *fakeTicker) C() <-chan time.Time { return t.ch }
func (t *fakeTicker) Stop()               { t.stopped.Store(true) }

func (t *fakeTicker) tick() {
	select {
	case t.ch <- time.Now():
	default:
	}
}

type tickers struct {
	mu   sync.Mutex
	list []*fakeTicker
}

func (ts *tickers) New(time.Duration) Ticker {
	ts.mu.Lock()
	defer ts.mu.Unlock()
	t := &fakeTicker{ch: make(chan time.Time, 1)}
	ts.list = append(ts.list, t)
	return t
}

func (ts *tickers) count() int {
	ts.mu.Lock()
	defer ts.mu.Unlock()
	return len(ts.list)
}

func (ts *tickers) last() *fakeTicker {
	ts.mu.Lock()
	defer ts.mu.Unlock()
	return ts.list[len(ts.list)-1]
}

type recorder struct {
	mu     sync.Mutex
	events []Event
}

func (r *recorder) Notify(e Event) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.events = append(r.events, e)
}

func (r *recorder) kinds() []EventKind {
	r.mu.Lock()
	defer r.mu.Unlock()
	kinds := make([]EventKind, len(r.events))
	for i, e := range r.events {
		kinds[i] = e.Kind
	}
	return kinds
}

func (r *recorder) has(kind EventKind) bool {
	for _, k := range r.kinds() {
		if k == kind {
			return true
		}
	}
	return false
}

// lastOf returns the most recent event of the given kind.
func (r *recorder) lastOf(kind EventKind) (Event, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for i := len(r.events) - 1; i >= 0; i-- {
		if r.events[i].Kind == kind {
			return r.events[i], true
		}
	}
	return Event{}, false
}

// fixedPlacer answers every request with the same layout, '*' marking
// mines.
func fixedPlacer(calls *atomic.Int32, rows ...string) placement.PlacerFunc {
	board := make([][]bool, len(rows))
	n := 0
	for r, row := range rows {
		board[r] = make([]bool, len(row))
		for c, ch := range row {
			board[r][c] = ch == '*'
			if ch == '*' {
				n++
			}
		}
	}
	return func(ctx context.Context, req placement.Request) (*placement.Response, error) {
		if calls != nil {
			calls.Add(1)
		}
		return &placement.Response{
			Board:      board,
			MineCount:  n,
			FirstClick: [2]int{req.Row, req.Col},
		}, nil
	}
}

// gatedPlacer blocks every request until release is closed.
func gatedPlacer(calls *atomic.Int32, release <-chan struct{}, next placement.Placer) placement.PlacerFunc {
	return func(ctx context.Context, req placement.Request) (*placement.Response, error) {
		calls.Add(1)
		select {
		case <-release:
		case <-ctx.Done():
			return nil, ctx.Err()
		}
		return next.Place(ctx, req)
	}
}

func newTestController(t *testing.T, p placement.Placer) (*Controller, *tickers, *recorder) {
	t.Helper()
	ts := &tickers{}
	rec := &recorder{}
	c := NewController(slog.Default(), p, WithTicker(ts.New))
	c.Subscribe(rec)
	t.Cleanup(c.Close)
	return c, ts, rec
}

func TestStartNewGameRejectsInvalidConfig(t *testing.T) {
	c, _, rec := newTestController(t, fixedPlacer(nil, "..", ".."))

	err := c.StartNewGame(mines.Config{Width: 2, Height: 2, MineCount: 4})
	assert.ErrorIs(t, err, mines.ErrInvalidConfig)
	assert.Equal(t, mines.Empty, c.State())
	assert.Empty(t, rec.kinds())

	require.NoError(t, c.StartNewGame(mines.Config{Width: 2, Height: 2, MineCount: 1}))
	id := c.GameID()

	err = c.StartNewGame(mines.Config{Width: -1, Height: 2, MineCount: 0})
	assert.ErrorIs(t, err, mines.ErrInvalidConfig)
	assert.Equal(t, mines.AwaitingFirstClick, c.State())
	assert.Equal(t, id, c.GameID())
	assert.Equal(t, mines.Config{Width: 2, Height: 2, MineCount: 1}, c.Config())
}

func TestFirstClickPlacesAndReveals(t *testing.T) {
	var calls atomic.Int32
	c, ts, rec := newTestController(t, fixedPlacer(&calls,
		"..*..",
		"..*..",
		"..*..",
	))
	require.NoError(t, c.StartNewGame(mines.Config{Width: 5, Height: 3, MineCount: 3}))

	c.OnCellClick(0, 0)
	c.wg.Wait()

	assert.Equal(t, int32(1), calls.Load())
	assert.Equal(t, mines.InPlay, c.State())
	v := c.Snapshot()
	assert.False(t, v.Pending)
	assert.Equal(t, 6, v.Board.Revealed)
	assert.Equal(t, mines.Digit(0), v.Board.Display[0][0])
	assert.Equal(t, mines.Digit(2), v.Board.Display[0][1])
	assert.Equal(t, mines.GlyphEmpty, v.Board.Display[0][2])
	assert.Equal(t, mines.GlyphEmpty, v.Board.Display[2][4])
	assert.Equal(t, 1, ts.count())
	assert.Equal(t, []EventKind{
		EventNewGame, EventPlacementPending, EventBoardChanged,
	}, rec.kinds())
}

func TestFirstClickCanWin(t *testing.T) {
	c, ts, rec := newTestController(t, fixedPlacer(nil,
		"*...*",
		".....",
		".....",
		".....",
		"*...*",
	))
	require.NoError(t, c.StartNewGame(mines.Config{Width: 5, Height: 5, MineCount: 4}))

	c.OnCellClick(2, 2)
	c.wg.Wait()

	assert.Equal(t, mines.Won, c.State())
	assert.True(t, rec.has(EventWon))
	v := c.Snapshot()
	assert.Equal(t, 21, v.Board.Revealed)
	assert.Equal(t, mines.GlyphMine, v.Board.Display[0][0])
	require.Eventually(t, ts.last().stopped.Load, time.Second, time.Millisecond)

	c.OnCellClick(0, 0)
	c.OnCellFlag(0, 1)
	assert.Equal(t, v, c.Snapshot())
}

func TestDuplicateFirstClickIsIgnored(t *testing.T) {
	var calls atomic.Int32
	release := make(chan struct{})
	c, _, _ := newTestController(t, gatedPlacer(&calls, release, fixedPlacer(nil,
		"*..",
		"...",
		"..*",
	)))
	require.NoError(t, c.StartNewGame(mines.Config{Width: 3, Height: 3, MineCount: 2}))

	c.OnCellClick(1, 1)
	require.Eventually(t, func() bool { return calls.Load() == 1 }, time.Second, time.Millisecond)
	c.OnCellClick(1, 1)
	c.OnCellClick(0, 2)
	assert.True(t, c.Snapshot().Pending)

	close(release)
	c.wg.Wait()

	assert.Equal(t, int32(1), calls.Load())
	assert.Equal(t, mines.InPlay, c.State())
	assert.Equal(t, 1, c.Snapshot().Board.Revealed)
}

func TestPlacementFailureKeepsWaiting(t *testing.T) {
	var calls atomic.Int32
	good := fixedPlacer(nil, "*.", "..")
	fail := true
	p := placement.PlacerFunc(func(ctx context.Context, req placement.Request) (*placement.Response, error) {
		calls.Add(1)
		if fail {
			return nil, errors.New("connection refused")
		}
		return good.Place(ctx, req)
	})
	c, ts, rec := newTestController(t, p)
	require.NoError(t, c.StartNewGame(mines.Config{Width: 2, Height: 2, MineCount: 1}))

	c.OnCellClick(1, 1)
	c.wg.Wait()

	assert.Equal(t, mines.AwaitingFirstClick, c.State())
	assert.True(t, rec.has(EventPlacementFailed))
	assert.Zero(t, c.Snapshot().Board.Revealed)
	assert.Zero(t, ts.count())

	fail = false
	c.OnCellClick(1, 1)
	c.wg.Wait()
	assert.Equal(t, int32(2), calls.Load())
	assert.Equal(t, mines.InPlay, c.State())
}

func TestBadLayoutIsRejected(t *testing.T) {
	tests := []struct {
		name string
		rows []string
	}{
		{"mine at first click", []string{"*.", ".."}},
		{"wrong shape", []string{"*..", "..."}},
		{"wrong count", []string{"..", ".."}},
	}
	for _, test := range tests {
		t.Run(test.name, func(t *testing.T) {
			c, _, rec := newTestController(t, fixedPlacer(nil, test.rows...))
			require.NoError(t, c.StartNewGame(mines.Config{Width: 2, Height: 2, MineCount: 1}))

			c.OnCellClick(0, 0)
			c.wg.Wait()

			assert.Equal(t, mines.AwaitingFirstClick, c.State())
			require.True(t, rec.has(EventPlacementFailed))
			assert.False(t, c.Snapshot().Pending)
		})
	}
}

func TestStalePlacementIsDropped(t *testing.T) {
	var calls atomic.Int32
	release := make(chan struct{})
	c, _, _ := newTestController(t, gatedPlacer(&calls, release, fixedPlacer(nil,
		"*..",
		"...",
		"..*",
	)))
	require.NoError(t, c.StartNewGame(mines.Config{Width: 3, Height: 3, MineCount: 2}))

	c.OnCellClick(1, 1)
	require.Eventually(t, func() bool { return calls.Load() == 1 }, time.Second, time.Millisecond)

	c.ResetGame()
	close(release)
	c.wg.Wait()

	assert.Equal(t, mines.AwaitingFirstClick, c.State())
	v := c.Snapshot()
	assert.False(t, v.Pending)
	assert.Zero(t, v.Board.Revealed)

	c.OnCellClick(1, 1)
	c.wg.Wait()
	assert.Equal(t, int32(2), calls.Load())
	assert.Equal(t, mines.InPlay, c.State())
}

func TestClickOnMineLoses(t *testing.T) {
	c, ts, rec := newTestController(t, fixedPlacer(nil,
		"*..",
		"...",
		"..*",
	))
	require.NoError(t, c.StartNewGame(mines.Config{Width: 3, Height: 3, MineCount: 2}))
	c.OnCellClick(1, 1)
	c.wg.Wait()
	require.Equal(t, mines.InPlay, c.State())

	c.OnCellClick(2, 2)
	assert.Equal(t, mines.Lost, c.State())
	assert.Equal(t, EventLost, rec.kinds()[len(rec.kinds())-1])
	require.Eventually(t, ts.last().stopped.Load, time.Second, time.Millisecond)

	v := c.Snapshot()
	assert.Equal(t, mines.GlyphMine, v.Board.Display[0][0])
	assert.Equal(t, mines.GlyphMine, v.Board.Display[2][2])

	c.OnCellClick(0, 1)
	c.OnCellChord(1, 1)
	assert.Equal(t, v, c.Snapshot())
}

func TestEventsKeepTheirGame(t *testing.T) {
	var gameIDs []string
	layout := fixedPlacer(nil,
		"*..",
		"...",
		"..*",
	)
	p := placement.PlacerFunc(func(ctx context.Context, req placement.Request) (*placement.Response, error) {
		gameIDs = append(gameIDs, req.GameID)
		return layout.Place(ctx, req)
	})
	c, ts, rec := newTestController(t, p)
	require.NoError(t, c.StartNewGame(mines.Config{Width: 3, Height: 3, MineCount: 2}))
	played := c.GameID()
	c.OnCellClick(1, 1)
	c.wg.Wait()
	assert.Equal(t, []string{played}, gameIDs)

	ts.last().tick()
	require.Eventually(t, func() bool { return rec.has(EventTick) }, time.Second, time.Millisecond)
	tick, _ := rec.lastOf(EventTick)
	assert.Equal(t, 1, tick.View.Elapsed)
	assert.Equal(t, mines.InPlay, tick.View.Board.State)

	c.OnCellClick(0, 0)
	c.ResetGame()
	require.NotEqual(t, played, c.GameID())

	lost, ok := rec.lastOf(EventLost)
	require.True(t, ok)
	assert.Equal(t, played, lost.GameID)
	assert.Equal(t, played, lost.View.GameID)
	assert.Equal(t, mines.Lost, lost.View.Board.State)
	assert.Equal(t, mines.GlyphMine, lost.View.Board.Display[2][2])
	assert.Equal(t, 1, lost.View.Elapsed)

	fresh, _ := rec.lastOf(EventNewGame)
	assert.Equal(t, c.GameID(), fresh.View.GameID)
	assert.Equal(t, mines.AwaitingFirstClick, fresh.View.Board.State)
}

func TestClickOnFlagIsIgnored(t *testing.T) {
	c, _, _ := newTestController(t, fixedPlacer(nil,
		"*..",
		"...",
		"...",
	))
	require.NoError(t, c.StartNewGame(mines.Config{Width: 3, Height: 3, MineCount: 1}))

	c.OnCellFlag(2, 2)
	c.OnCellClick(2, 2)
	c.wg.Wait()
	assert.Equal(t, mines.AwaitingFirstClick, c.State())
	assert.False(t, c.Snapshot().Pending)

	c.OnCellClick(1, 1)
	c.wg.Wait()
	require.Equal(t, mines.InPlay, c.State())

	c.OnCellFlag(0, 0)
	before := c.Snapshot()
	c.OnCellClick(0, 0)
	assert.Equal(t, before, c.Snapshot())

	c.OnCellFlag(0, 0)
	c.OnCellClick(0, 0)
	assert.Equal(t, mines.Lost, c.State())
}

func TestFlagOnRevealedIsIgnored(t *testing.T) {
	c, _, _ := newTestController(t, fixedPlacer(nil, "*.", ".."))
	require.NoError(t, c.StartNewGame(mines.Config{Width: 2, Height: 2, MineCount: 1}))
	c.OnCellClick(1, 1)
	c.wg.Wait()

	c.OnCellFlag(1, 1)
	assert.Equal(t, mines.Digit(1), c.Snapshot().Board.Display[1][1])
	assert.Zero(t, c.Snapshot().Board.Flags)
}

func TestChordWins(t *testing.T) {
	c, _, rec := newTestController(t, fixedPlacer(nil,
		"*.",
		"..",
	))
	require.NoError(t, c.StartNewGame(mines.Config{Width: 2, Height: 2, MineCount: 1}))
	c.OnCellClick(1, 1)
	c.wg.Wait()

	c.OnCellFlag(0, 0)
	c.OnCellChord(1, 1)
	assert.Equal(t, mines.Won, c.State())
	assert.True(t, rec.has(EventWon))
}

func TestClockLifecycle(t *testing.T) {
	c, ts, rec := newTestController(t, fixedPlacer(nil,
		"..*.",
		"..*.",
		"..*.",
		"..*.",
	))
	require.NoError(t, c.StartNewGame(mines.Config{Width: 4, Height: 4, MineCount: 4}))
	assert.Zero(t, ts.count(), "no clock before the first click")

	c.OnCellClick(0, 0)
	c.wg.Wait()
	require.Equal(t, 1, ts.count())

	first := ts.last()
	first.tick()
	require.Eventually(t, func() bool { return c.Elapsed() == 1 }, time.Second, time.Millisecond)
	first.tick()
	require.Eventually(t, func() bool { return c.Elapsed() == 2 }, time.Second, time.Millisecond)
	assert.True(t, rec.has(EventTick))
	assert.Equal(t, "00:02", c.Snapshot().Time)

	c.ResetGame()
	assert.Zero(t, c.Elapsed())
	require.Eventually(t, first.stopped.Load, time.Second, time.Millisecond)

	first.tick()
	time.Sleep(10 * time.Millisecond)
	assert.Zero(t, c.Elapsed(), "stale ticker must not count")

	c.OnCellClick(0, 0)
	c.wg.Wait()
	require.Equal(t, 2, ts.count())
	second := ts.last()
	assert.False(t, second.stopped.Load())
	second.tick()
	require.Eventually(t, func() bool { return c.Elapsed() == 1 }, time.Second, time.Millisecond)

	c.OnCellClick(0, 2)
	assert.Equal(t, mines.Lost, c.State())
	require.Eventually(t, second.stopped.Load, time.Second, time.Millisecond)
	second.tick()
	time.Sleep(10 * time.Millisecond)
	assert.Equal(t, 1, c.Elapsed())
}

func TestUnsubscribe(t *testing.T) {
	c := NewController(slog.Default(), fixedPlacer(nil, "*.", ".."))
	defer c.Close()
	rec := &recorder{}
	unsubscribe := c.Subscribe(rec)

	require.NoError(t, c.StartNewGame(mines.Config{Width: 2, Height: 2, MineCount: 1}))
	unsubscribe()
	c.ResetGame()
	assert.Equal(t, []EventKind{EventNewGame}, rec.kinds())
}
