package mines

import (
	"errors"
	"fmt"
)

var ErrInvalidConfig = errors.New("invalid board config")

type Config struct {
	Width     int `json:"width"      schema:"width,required"`
	Height    int `json:"height"     schema:"height,required"`
	MineCount int `json:"mine_count" schema:"mine_count,required"`
}

func (c Config) Unpack() (w int, h int, mc int) {
	return c.Width, c.Height, c.MineCount
}

func (c Config) Cells() int {
	return c.Width * c.Height
}

// Validate reports whether the board can be allocated. A config is valid
// when both dimensions are positive and at least one cell stays free of
// mines for the first click.
func (c Config) Validate() error {
	if c.Width < 1 || c.Height < 1 {
		return fmt.Errorf(
			"%w: dimensions must be positive (width = %d, height = %d)",
			ErrInvalidConfig, c.Width, c.Height,
		)
	}
	if c.MineCount < 0 {
		return fmt.Errorf(
			"%w: mine count must be non-negative (mine_count = %d)",
			ErrInvalidConfig, c.MineCount,
		)
	}
	if c.MineCount >= c.Cells() {
		return fmt.Errorf(
			"%w: mine count must be less than cell count (mine_count = %d, cells = %d)",
			ErrInvalidConfig, c.MineCount, c.Cells(),
		)
	}
	return nil
}

func (c Config) InBounds(row, col int) bool {
	return 0 <= row && row < c.Height && 0 <= col && col < c.Width
}

func (c Config) Seed() string {
	return fmt.Sprintf("%d:%d:%d", c.Width, c.Height, c.MineCount)
}
