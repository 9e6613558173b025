// custom query
package repository

import (
	"context"
	"strings"
	"time"

	"github.com/jackc/pgx/v5"

	"github.com/vancomm/minesweeper-engine/internal/mines"
)

const DefaultHighscoreLimit = 10

type Highscore struct {
	GameId         string    `json:"game_id"`
	Width          int       `json:"width"`
	Height         int       `json:"height"`
	MineCount      int       `json:"mine_count"`
	ElapsedSeconds int       `json:"elapsed_seconds"`
	CreatedAt      time.Time `json:"created_at"`
}

type HighscoreFilter struct {
	Config *mines.Config
	Limit  int
}

func (f HighscoreFilter) WhereClause() (string, pgx.NamedArgs) {
	clauses := make([]string, 0)
	args := pgx.NamedArgs{}
	if f.Config != nil {
		clauses = append(
			clauses,
			"width = @width",
			"height = @height",
			"mine_count = @mineCount",
		)
		args["width"] = f.Config.Width
		args["height"] = f.Config.Height
		args["mineCount"] = f.Config.MineCount
	}
	return strings.Join(clauses, " AND "), args
}

func (f HighscoreFilter) limit() int {
	if f.Limit <= 0 {
		return DefaultHighscoreLimit
	}
	return f.Limit
}

func (q *Queries) GetHighscores(
	ctx context.Context, filter HighscoreFilter,
) ([]Highscore, error) {
	query := `
	SELECT
		game_id::text,
		width,
		height,
		mine_count,
		elapsed_seconds,
		created_at
	FROM game_record
	WHERE won = true
	`

	whereClause, args := filter.WhereClause()
	if whereClause != "" {
		query += " AND " + whereClause
	}
	args["limit"] = filter.limit()

	query += " ORDER BY elapsed_seconds, created_at LIMIT @limit;"

	rows, err := q.db.Query(ctx, query, args)
	if err != nil {
		return nil, err
	}
	return pgx.CollectRows(rows, pgx.RowToStructByName[Highscore])
}
