package mines

import (
	"log/slog"
)

var Log *slog.Logger = slog.Default()

// Board holds the mine layout, what the player has opened and what the
// player sees. The three grids always share the shape of the current
// config; an Empty board has none of them and ignores every operation.
type Board struct {
	cfg      Config
	state    State
	armed    bool /* mines installed */
	mines    Grid[bool]
	revealed Grid[bool]
	display  Grid[Glyph]

	nrevealed, nflags int
}

func NewBoard() *Board {
	return &Board{state: Empty}
}

// Reset reallocates the board for cfg and waits for a mine layout. cfg
// must be valid, see [Config.Validate].
func (b *Board) Reset(cfg Config) {
	w, h, _ := cfg.Unpack()
	b.cfg = cfg
	b.state = AwaitingFirstClick
	b.armed = false
	b.mines = NewGrid(w, h, false)
	b.revealed = NewGrid(w, h, false)
	b.display = NewGrid(w, h, GlyphEmpty)
	b.nrevealed, b.nflags = 0, 0
}

func (b *Board) ready() bool {
	return b.state != Empty && b.mines.Cells != nil
}

// SetMines installs a layout produced by the placement service. It does
// not change the state: the first [Board.Reveal] starts the game.
func (b *Board) SetMines(layout Grid[bool]) error {
	if !b.ready() || b.state != AwaitingFirstClick || b.armed {
		Log.Warn("rejected mine layout", "state", b.state, "armed", b.armed)
		return ErrNotAwaiting
	}
	if !layout.SameShape(b.cfg.Width, b.cfg.Height) {
		Log.Warn(
			"rejected mine layout",
			slog.Group("want", "width", b.cfg.Width, "height", b.cfg.Height),
			slog.Group("have", "width", layout.Width, "height", layout.Height),
		)
		return ErrShapeMismatch
	}
	copy(b.mines.Cells, layout.Cells)
	b.armed = true
	return nil
}

func (b *Board) ToggleFlag(row, col int) {
	if !b.ready() || b.state.Terminal() || !b.cfg.InBounds(row, col) {
		return
	}
	if b.revealed.At(row, col) {
		return
	}
	switch b.display.At(row, col) {
	case GlyphFlag:
		b.display.Set(row, col, GlyphEmpty)
		b.nflags--
	case GlyphEmpty:
		b.display.Set(row, col, GlyphFlag)
		b.nflags++
	}
}

func (b *Board) AdjacentMines(row, col int) int {
	if !b.ready() || !b.cfg.InBounds(row, col) {
		return 0
	}
	v := 0
	b.mines.neighbors(row, col, func(r, c int) {
		if b.mines.At(r, c) {
			v++
		}
	})
	return v
}

// Reveal opens a square and returns the number of squares it opened. A
// square with no mines around it opens its neighbours as well, until the
// whole zero region and its numbered border are open. Opening a mine
// loses the game.
func (b *Board) Reveal(row, col int) int {
	if !b.ready() || !b.cfg.InBounds(row, col) {
		return 0
	}
	switch b.state {
	case AwaitingFirstClick:
		if !b.armed {
			return 0
		}
		b.state = InPlay
	case InPlay:
	default:
		return 0
	}
	if b.revealed.At(row, col) {
		return 0
	}
	return b.open(row, col)
}

func (b *Board) markRevealed(i int) {
	b.revealed.Cells[i] = true
	b.nrevealed++
	if b.display.Cells[i] == GlyphFlag {
		b.nflags--
	}
}

// open expects (row, col) to be covered.
func (b *Board) open(row, col int) int {
	i := b.revealed.index(row, col)
	if b.mines.Cells[i] {
		/*
		 * The player has landed on a mine. Expose the mine that
		 * killed them; the rest is shown by RevealMines.
		 */
		b.markRevealed(i)
		b.display.Cells[i] = GlyphMine
		b.state = Lost
		return 1
	}

	/*
	 * Every queued square is marked revealed before it is queued, so
	 * no square is processed twice.
	 */
	todo := newCelltodo(len(b.revealed.Cells))
	b.markRevealed(i)
	todo.add(i)

	n := 0
	for i, ok := todo.pop(); ok; i, ok = todo.pop() {
		r, c := i/b.cfg.Width, i%b.cfg.Width
		v := b.AdjacentMines(r, c)
		b.display.Cells[i] = Digit(v)
		n++
		if v != 0 {
			continue
		}
		b.revealed.neighbors(r, c, func(rr, cc int) {
			j := b.revealed.index(rr, cc)
			if !b.revealed.Cells[j] {
				b.markRevealed(j)
				todo.add(j)
			}
		})
	}
	return n
}

// Chord opens every covered, unflagged neighbour of an open square whose
// count is already matched by flags around it.
func (b *Board) Chord(row, col int) int {
	if !b.ready() || b.state != InPlay || !b.cfg.InBounds(row, col) {
		return 0
	}
	g := b.display.At(row, col)
	if !b.revealed.At(row, col) || !g.IsDigit() {
		return 0
	}
	m := 0
	js := make([][2]int, 0, 8)
	b.display.neighbors(row, col, func(r, c int) {
		if b.display.At(r, c) == GlyphFlag {
			m++
		} else if !b.revealed.At(r, c) {
			js = append(js, [2]int{r, c})
		}
	})
	if m != int(g) {
		return 0
	}
	n := 0
	for _, j := range js {
		if b.revealed.At(j[0], j[1]) {
			continue
		}
		n += b.open(j[0], j[1])
		if b.state == Lost {
			break
		}
	}
	return n
}

// CheckWin reports whether every square without a mine is open.
func (b *Board) CheckWin() bool {
	if !b.ready() {
		return false
	}
	for i := range b.revealed.Cells {
		if !b.revealed.Cells[i] && !b.mines.Cells[i] {
			return false
		}
	}
	return true
}

// Win ends a game in play if [Board.CheckWin] holds.
func (b *Board) Win() bool {
	if b.state != InPlay || !b.CheckWin() {
		return false
	}
	b.state = Won
	b.RevealMines()
	return true
}

// RevealMines shows every mine without marking it revealed.
func (b *Board) RevealMines() {
	if !b.ready() {
		return
	}
	for i, mined := range b.mines.Cells {
		if !mined {
			continue
		}
		if b.display.Cells[i] == GlyphFlag {
			b.nflags--
		}
		b.display.Cells[i] = GlyphMine
	}
}

func (b *Board) State() State {
	return b.state
}

func (b *Board) Config() Config {
	return b.cfg
}

// Armed reports whether a mine layout has been installed.
func (b *Board) Armed() bool {
	return b.armed
}

func (b *Board) Revealed(row, col int) bool {
	return b.ready() && b.cfg.InBounds(row, col) && b.revealed.At(row, col)
}

func (b *Board) Flagged(row, col int) bool {
	return b.Glyph(row, col) == GlyphFlag
}

func (b *Board) Glyph(row, col int) Glyph {
	if !b.ready() || !b.cfg.InBounds(row, col) {
		return GlyphEmpty
	}
	return b.display.At(row, col)
}

func (b *Board) RevealedCount() int {
	return b.nrevealed
}

func (b *Board) FlagCount() int {
	return b.nflags
}

type Snapshot struct {
	Width     int       `json:"width"`
	Height    int       `json:"height"`
	MineCount int       `json:"mine_count"`
	State     State     `json:"state"`
	Display   [][]Glyph `json:"display"`
	Revealed  int       `json:"revealed"`
	Flags     int       `json:"flags"`
}

func (b *Board) Snapshot() Snapshot {
	s := Snapshot{
		Width:     b.cfg.Width,
		Height:    b.cfg.Height,
		MineCount: b.cfg.MineCount,
		State:     b.state,
		Revealed:  b.nrevealed,
		Flags:     b.nflags,
	}
	if b.ready() {
		s.Display = b.display.Rows()
	}
	return s
}

func (b *Board) String() string {
	if !b.ready() {
		return ""
	}
	return b.display.ToString()
}
