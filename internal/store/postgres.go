package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/jmoiron/sqlx"
	_ "github.com/lib/pq"

	"github.com/openbell/tapescan/internal/models"
)

// Schema is the DDL for the durable series table.
const Schema = `
CREATE TABLE IF NOT EXISTS tick_series (
    trade_date   TEXT    NOT NULL,
    code         TEXT    NOT NULL,
    seq          INT     NOT NULL,
    tick_time    INT     NOT NULL,
    price        DOUBLE PRECISION NOT NULL,
    change       DOUBLE PRECISION NOT NULL,
    volume       BIGINT  NOT NULL,
    traded_value DOUBLE PRECISION NOT NULL,
    side         INT     NOT NULL,
    PRIMARY KEY (trade_date, code, seq)
);`

// PostgresStore keeps one row per print. Seq preserves arrival order, which
// the classifier's index-distance logic depends on.
type PostgresStore struct {
	db *sqlx.DB
}

// NewPostgresStore wraps an existing connection.
func NewPostgresStore(db *sqlx.DB) *PostgresStore {
	return &PostgresStore{db: db}
}

// OpenPostgresStore connects with the given DSN and ensures the schema.
func OpenPostgresStore(dsn string) (*PostgresStore, error) {
	db, err := sqlx.Connect("postgres", dsn)
	if err != nil {
		return nil, fmt.Errorf("connect postgres: %w", err)
	}
	if _, err := db.Exec(Schema); err != nil {
		return nil, fmt.Errorf("ensure schema: %w", err)
	}
	return NewPostgresStore(db), nil
}

type tickRow struct {
	Seq         int     `db:"seq"`
	TickTime    int     `db:"tick_time"`
	Price       float64 `db:"price"`
	Change      float64 `db:"change"`
	Volume      int64   `db:"volume"`
	TradedValue float64 `db:"traded_value"`
	Side        int     `db:"side"`
}

func (s *PostgresStore) Get(ctx context.Context, date, code string) (models.TickSeries, error) {
	var rows []tickRow
	err := s.db.SelectContext(ctx, &rows,
		`SELECT seq, tick_time, price, change, volume, traded_value, side
		 FROM tick_series WHERE trade_date = $1 AND code = $2 ORDER BY seq`,
		date, code)
	if err != nil {
		return nil, fmt.Errorf("select series: %w", err)
	}
	if len(rows) == 0 {
		return nil, ErrNotFound
	}
	series := make(models.TickSeries, 0, len(rows))
	for _, r := range rows {
		series = append(series, models.TickRecord{
			Time:        models.TimeOfDay(r.TickTime),
			Price:       r.Price,
			Change:      r.Change,
			Volume:      r.Volume,
			TradedValue: r.TradedValue,
			Side:        models.TradeSide(r.Side),
		})
	}
	return series, nil
}

func (s *PostgresStore) Put(ctx context.Context, date, code string, series models.TickSeries) error {
	tx, err := s.db.BeginTxx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin put series: %w", err)
	}
	defer tx.Rollback()

	if _, err := tx.ExecContext(ctx,
		`DELETE FROM tick_series WHERE trade_date = $1 AND code = $2`, date, code); err != nil {
		return fmt.Errorf("clear series: %w", err)
	}
	for i, r := range series {
		if _, err := tx.ExecContext(ctx,
			`INSERT INTO tick_series (trade_date, code, seq, tick_time, price, change, volume, traded_value, side)
			 VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)`,
			date, code, i, int(r.Time), r.Price, r.Change, r.Volume, r.TradedValue, int(r.Side)); err != nil {
			return fmt.Errorf("insert print %d: %w", i, err)
		}
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit series: %w", err)
	}
	return nil
}

func (s *PostgresStore) Has(ctx context.Context, date, code string) (bool, error) {
	var exists bool
	err := s.db.GetContext(ctx, &exists,
		`SELECT EXISTS (SELECT 1 FROM tick_series WHERE trade_date = $1 AND code = $2)`,
		date, code)
	if err != nil && !errors.Is(err, sql.ErrNoRows) {
		return false, fmt.Errorf("check series: %w", err)
	}
	return exists, nil
}
