package mines

import (
	"fmt"
	"strconv"
	"strings"
)

type Glyph int8

const (
	GlyphEmpty Glyph = -2
	GlyphFlag  Glyph = -1
	GlyphMine  Glyph = 64
	/*
	 * Each item in the display grid is one of the following values:
	 *
	 * 	- 0 to 8 mean the square is open and has a surrounding mine
	 * 	  count.
	 *
	 * 	- -1 means the square is flagged by the player.
	 *
	 * 	- -2 means the square is covered.
	 *
	 * 	- 64 means the square shows a mine, either the one that was
	 * 	  hit or one exposed at the end of the game.
	 */
)

// Digit returns the glyph of an open square with n mines around it.
func Digit(n int) Glyph {
	if n < 0 || n > 8 {
		panic(fmt.Sprintf("mines: digit out of range: %d", n))
	}
	return Glyph(n)
}

func (g Glyph) IsDigit() bool {
	return 0 <= g && g <= 8
}

func (g Glyph) String() string {
	switch {
	case g == GlyphEmpty:
		return " "
	case g == GlyphFlag:
		return "F"
	case g == GlyphMine:
		return "*"
	case g.IsDigit():
		return strconv.Itoa(int(g))
	default:
		return "!"
	}
}

// Grid is a row-major height x width array.
type Grid[T any] struct {
	Width, Height int
	Cells         []T
}

func NewGrid[T any](width, height int, fill T) Grid[T] {
	cells := make([]T, width*height)
	for i := range cells {
		cells[i] = fill
	}
	return Grid[T]{Width: width, Height: height, Cells: cells}
}

// GridFromRows builds a grid out of rows of equal length.
func GridFromRows[T any](rows [][]T) (Grid[T], error) {
	if len(rows) == 0 {
		return Grid[T]{}, fmt.Errorf("%w: no rows", ErrShapeMismatch)
	}
	width := len(rows[0])
	cells := make([]T, 0, width*len(rows))
	for r, row := range rows {
		if len(row) != width {
			return Grid[T]{}, fmt.Errorf(
				"%w: row %d has %d cells, want %d",
				ErrShapeMismatch, r, len(row), width,
			)
		}
		cells = append(cells, row...)
	}
	return Grid[T]{Width: width, Height: len(rows), Cells: cells}, nil
}

func (g Grid[T]) InBounds(row, col int) bool {
	return 0 <= row && row < g.Height && 0 <= col && col < g.Width
}

func (g Grid[T]) index(row, col int) int {
	return row*g.Width + col
}

func (g Grid[T]) At(row, col int) T {
	return g.Cells[g.index(row, col)]
}

func (g Grid[T]) Set(row, col int, v T) {
	g.Cells[g.index(row, col)] = v
}

func (g Grid[T]) SameShape(width, height int) bool {
	return g.Width == width && g.Height == height && len(g.Cells) == width*height
}

// Rows copies the grid into a slice of rows.
func (g Grid[T]) Rows() [][]T {
	rows := make([][]T, g.Height)
	for r := range g.Height {
		rows[r] = make([]T, g.Width)
		copy(rows[r], g.Cells[r*g.Width:(r+1)*g.Width])
	}
	return rows
}

// neighbors calls fn for every in-bounds cell of the Moore neighbourhood
// of (row, col), the cell itself excluded.
func (g Grid[T]) neighbors(row, col int, fn func(r, c int)) {
	for dr := -1; dr <= 1; dr++ {
		for dc := -1; dc <= 1; dc++ {
			if dr == 0 && dc == 0 {
				continue
			}
			if r, c := row+dr, col+dc; g.InBounds(r, c) {
				fn(r, c)
			}
		}
	}
}

func (g Grid[T]) ToString() string {
	var b strings.Builder
	for r := range g.Height {
		for c := range g.Width {
			fmt.Fprint(&b, g.At(r, c), " ")
		}
		fmt.Fprint(&b, "\n")
	}
	return b.String()
}
