package mines

import "errors"

var (
	ErrNotAwaiting   = errors.New("board is not awaiting mine placement")
	ErrShapeMismatch = errors.New("mine layout does not match board size")
)
