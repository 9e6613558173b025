package repository

import (
	"errors"
	"testing"

	"github.com/google/uuid"
	"github.com/jackc/pgerrcode"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/stretchr/testify/assert"

	"github.com/vancomm/minesweeper-engine/internal/mines"
)

func TestHighscoreWhereClause(t *testing.T) {
	where, args := HighscoreFilter{}.WhereClause()
	assert.Empty(t, where)
	assert.Empty(t, args)

	cfg := mines.Config{Width: 9, Height: 9, MineCount: 10}
	where, args = HighscoreFilter{Config: &cfg}.WhereClause()
	assert.Equal(t, "width = @width AND height = @height AND mine_count = @mineCount", where)
	assert.Equal(t, pgx.NamedArgs{"width": 9, "height": 9, "mineCount": 10}, args)
}

func TestHighscoreLimit(t *testing.T) {
	assert.Equal(t, DefaultHighscoreLimit, HighscoreFilter{}.limit())
	assert.Equal(t, DefaultHighscoreLimit, HighscoreFilter{Limit: -5}.limit())
	assert.Equal(t, 3, HighscoreFilter{Limit: 3}.limit())
}

func TestCreateGameRecordArgs(t *testing.T) {
	id := uuid.New()
	args := CreateGameRecordParams{
		GameId: id, Width: 5, Height: 4, MineCount: 3, Won: true, ElapsedSeconds: 42,
	}.Args()
	assert.Equal(t, id, args["game_id"])
	assert.Equal(t, 42, args["elapsed_seconds"])
	assert.Len(t, args, 6)
}

func TestMapError(t *testing.T) {
	assert.NoError(t, mapError(nil))
	assert.ErrorIs(t, mapError(pgx.ErrNoRows), ErrNotFound)

	dup := &pgconn.PgError{
		Code:   pgerrcode.UniqueViolation,
		Detail: "Key (game_id) already exists.",
	}
	err := mapError(dup)
	assert.ErrorIs(t, err, ErrDuplicateRecord)
	assert.ErrorContains(t, err, "already exists")

	check := &pgconn.PgError{Code: pgerrcode.CheckViolation}
	assert.Same(t, check, mapError(check))

	other := errors.New("connection reset")
	assert.Same(t, other, mapError(other))
}
