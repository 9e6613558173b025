package repository

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgerrcode"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgtype"
)

var (
	ErrDuplicateRecord = errors.New("game already recorded")
	ErrNotFound        = errors.New("game record not found")
)

// GameRecord is the outcome of one finished game. Boards are never
// stored; a record cannot be turned back into a game.
type GameRecord struct {
	GameRecordId   int64
	GameId         uuid.UUID
	Width          int
	Height         int
	MineCount      int
	Won            bool
	ElapsedSeconds int
	CreatedAt      pgtype.Timestamptz
}

type CreateGameRecordParams struct {
	GameId         uuid.UUID
	Width          int
	Height         int
	MineCount      int
	Won            bool
	ElapsedSeconds int
}

func (p CreateGameRecordParams) Args() pgx.NamedArgs {
	return pgx.NamedArgs{
		"game_id":         p.GameId,
		"width":           p.Width,
		"height":          p.Height,
		"mine_count":      p.MineCount,
		"won":             p.Won,
		"elapsed_seconds": p.ElapsedSeconds,
	}
}

func mapError(err error) error {
	var pgErr *pgconn.PgError
	switch {
	case err == nil:
		return nil
	case errors.Is(err, pgx.ErrNoRows):
		return ErrNotFound
	case errors.As(err, &pgErr) && pgErr.Code == pgerrcode.UniqueViolation:
		return fmt.Errorf("%w: %s", ErrDuplicateRecord, pgErr.Detail)
	default:
		return err
	}
}

func (q *Queries) CreateGameRecord(
	ctx context.Context, params CreateGameRecordParams,
) (*GameRecord, error) {
	rows, _ := q.db.Query(
		ctx,
		`INSERT INTO game_record (
			game_id, width, height, mine_count, won, elapsed_seconds
		)
		VALUES (
			@game_id, @width, @height, @mine_count, @won, @elapsed_seconds
		)
		RETURNING *;`,
		params.Args(),
	)
	record, err := pgx.CollectExactlyOneRow(
		rows, pgx.RowToAddrOfStructByName[GameRecord],
	)
	return record, mapError(err)
}

func (q *Queries) FetchGameRecord(ctx context.Context, gameId uuid.UUID) (*GameRecord, error) {
	rows, _ := q.db.Query(
		ctx,
		"SELECT * FROM game_record WHERE game_id = $1",
		gameId,
	)
	record, err := pgx.CollectExactlyOneRow(rows, pgx.RowToAddrOfStructByName[GameRecord])
	return record, mapError(err)
}
