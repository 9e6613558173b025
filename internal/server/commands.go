package server

import (
	"fmt"
	"iter"
	"strconv"
	"strings"

	"github.com/vancomm/minesweeper-engine/internal/game"
	"github.com/vancomm/minesweeper-engine/internal/mines"
)

type commandKind string

const (
	cmdNoop    commandKind = "g"
	cmdNewGame commandKind = "n"
	cmdOpen    commandKind = "o"
	cmdFlag    commandKind = "f"
	cmdChord   commandKind = "c"
	cmdReset   commandKind = "x"
)

var commandNargs = map[commandKind]int{
	cmdNoop:    0,
	cmdNewGame: 3,
	cmdOpen:    2,
	cmdFlag:    2,
	cmdChord:   2,
	cmdReset:   0,
}

type command struct {
	kind     commandKind
	row, col int
	cfg      mines.Config
}

func iterBySep(s string, sep string) iter.Seq2[int, string] {
	return func(yield func(int, string) bool) {
		i := 0
		found := true
		var piece string
		for found {
			piece, s, found = strings.Cut(s, sep)
			if !yield(i, piece) {
				return
			}
			i += 1
		}
	}
}

func parseInts(args []string) ([]int, error) {
	ints := make([]int, len(args))
	for i, arg := range args {
		v, err := strconv.Atoi(arg)
		if err != nil {
			return nil, fmt.Errorf("argument %d must be an int, got %q", i+1, arg)
		}
		ints[i] = v
	}
	return ints, nil
}

// parseCommand reads one line of the protocol:
//
//	n W H M   new game
//	o R C     open
//	f R C     toggle flag
//	c R C     chord
//	x         reset
//	g         noop
func parseCommand(line string) (command, error) {
	parts := strings.Fields(line)
	if len(parts) == 0 {
		return command{kind: cmdNoop}, nil
	}

	kind := commandKind(parts[0])
	nargs, ok := commandNargs[kind]
	if !ok {
		return command{}, fmt.Errorf("unknown command %q", parts[0])
	}
	if nargs != len(parts)-1 {
		return command{}, fmt.Errorf(
			"command %q takes %d arguments, got %d", kind, nargs, len(parts)-1,
		)
	}

	args, err := parseInts(parts[1:])
	if err != nil {
		return command{}, err
	}

	cmd := command{kind: kind}
	switch kind {
	case cmdNewGame:
		cmd.cfg = mines.Config{Width: args[0], Height: args[1], MineCount: args[2]}
	case cmdOpen, cmdFlag, cmdChord:
		cmd.row, cmd.col = args[0], args[1]
	}
	return cmd, nil
}

func (cmd command) execute(c *game.Controller) error {
	switch cmd.kind {
	case cmdNoop:
	case cmdNewGame:
		return c.StartNewGame(cmd.cfg)
	case cmdReset:
		c.ResetGame()
	case cmdOpen, cmdFlag, cmdChord:
		if !c.Config().InBounds(cmd.row, cmd.col) {
			return fmt.Errorf("invalid square coordinates %d:%d", cmd.row, cmd.col)
		}
		switch cmd.kind {
		case cmdOpen:
			c.OnCellClick(cmd.row, cmd.col)
		case cmdFlag:
			c.OnCellFlag(cmd.row, cmd.col)
		case cmdChord:
			c.OnCellChord(cmd.row, cmd.col)
		}
	}
	return nil
}
