package repository

import (
	"cmp"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"slices"
	"time"

	"github.com/dgraph-io/badger/v3"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgtype"
)

var recordPrefix = []byte("game_record/")

// LocalStore keeps game records in an embedded badger database for
// servers running without Postgres. It answers the same queries as
// [Queries].
type LocalStore struct {
	db  *badger.DB
	seq *badger.Sequence
}

// OpenLocal opens the store in dir. An empty dir keeps everything in
// memory.
func OpenLocal(dir string) (*LocalStore, error) {
	opts := badger.DefaultOptions(dir).WithLogger(nil)
	if dir == "" {
		opts = opts.WithInMemory(true)
	}
	db, err := badger.Open(opts)
	if err != nil {
		return nil, fmt.Errorf("unable to open records store: %w", err)
	}
	seq, err := db.GetSequence([]byte("game_record_id"), 64)
	if err != nil {
		db.Close()
		return nil, fmt.Errorf("unable to allocate record ids: %w", err)
	}
	return &LocalStore{db: db, seq: seq}, nil
}

func (s *LocalStore) Close() error {
	return errors.Join(s.seq.Release(), s.db.Close())
}

func recordKey(gameId uuid.UUID) []byte {
	return append(append([]byte{}, recordPrefix...), gameId.String()...)
}

func (s *LocalStore) CreateGameRecord(
	ctx context.Context, params CreateGameRecordParams,
) (*GameRecord, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	id, err := s.seq.Next()
	if err != nil {
		return nil, err
	}
	record := &GameRecord{
		GameRecordId:   int64(id) + 1,
		GameId:         params.GameId,
		Width:          params.Width,
		Height:         params.Height,
		MineCount:      params.MineCount,
		Won:            params.Won,
		ElapsedSeconds: params.ElapsedSeconds,
		CreatedAt:      pgtype.Timestamptz{Time: time.Now().UTC(), Valid: true},
	}
	value, err := json.Marshal(record)
	if err != nil {
		return nil, err
	}

	key := recordKey(params.GameId)
	err = s.db.Update(func(txn *badger.Txn) error {
		_, err := txn.Get(key)
		switch {
		case err == nil:
			return fmt.Errorf("%w: game_id %s", ErrDuplicateRecord, params.GameId)
		case !errors.Is(err, badger.ErrKeyNotFound):
			return err
		}
		return txn.Set(key, value)
	})
	if err != nil {
		return nil, err
	}
	return record, nil
}

func (s *LocalStore) FetchGameRecord(
	ctx context.Context, gameId uuid.UUID,
) (*GameRecord, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	var record GameRecord
	err := s.db.View(func(txn *badger.Txn) error {
		item, err := txn.Get(recordKey(gameId))
		if errors.Is(err, badger.ErrKeyNotFound) {
			return ErrNotFound
		}
		if err != nil {
			return err
		}
		return item.Value(func(val []byte) error {
			return json.Unmarshal(val, &record)
		})
	})
	if err != nil {
		return nil, err
	}
	return &record, nil
}

func (s *LocalStore) GetHighscores(
	ctx context.Context, filter HighscoreFilter,
) ([]Highscore, error) {
	records := make([]GameRecord, 0)
	err := s.db.View(func(txn *badger.Txn) error {
		it := txn.NewIterator(badger.DefaultIteratorOptions)
		defer it.Close()
		for it.Seek(recordPrefix); it.ValidForPrefix(recordPrefix); it.Next() {
			if err := ctx.Err(); err != nil {
				return err
			}
			var record GameRecord
			err := it.Item().Value(func(val []byte) error {
				return json.Unmarshal(val, &record)
			})
			if err != nil {
				return err
			}
			if filter.matches(record) {
				records = append(records, record)
			}
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	slices.SortFunc(records, func(a, b GameRecord) int {
		return cmp.Or(
			cmp.Compare(a.ElapsedSeconds, b.ElapsedSeconds),
			a.CreatedAt.Time.Compare(b.CreatedAt.Time),
		)
	})
	if len(records) > filter.limit() {
		records = records[:filter.limit()]
	}

	highscores := make([]Highscore, len(records))
	for i, r := range records {
		highscores[i] = Highscore{
			GameId:         r.GameId.String(),
			Width:          r.Width,
			Height:         r.Height,
			MineCount:      r.MineCount,
			ElapsedSeconds: r.ElapsedSeconds,
			CreatedAt:      r.CreatedAt.Time,
		}
	}
	return highscores, nil
}

func (f HighscoreFilter) matches(r GameRecord) bool {
	if !r.Won {
		return false
	}
	if f.Config == nil {
		return true
	}
	return r.Width == f.Config.Width &&
		r.Height == f.Config.Height &&
		r.MineCount == f.Config.MineCount
}
