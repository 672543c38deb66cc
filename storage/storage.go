package storage

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"exercises-server/exchange"
)

const createTableSQL = `
CREATE TABLE IF NOT EXISTS exchange_rates (
	rate_date      DATE NOT NULL,
	base_currency  CHAR(3) NOT NULL,
	quote_currency CHAR(3) NOT NULL,
	rate           DOUBLE PRECISION NOT NULL,
	fetched_at     TIMESTAMPTZ NOT NULL DEFAULT now(),
	PRIMARY KEY (rate_date, base_currency, quote_currency)
);
CREATE INDEX IF NOT EXISTS idx_exchange_rates_pair ON exchange_rates(base_currency, quote_currency, rate_date DESC);
`

// Store persists daily exchange-rate snapshots.
type Store struct {
	pool *pgxpool.Pool
}

// NewStore connects to Postgres and ensures the exchange_rates table exists.
// If databaseURL is empty, NewStore returns (nil, nil) and no persistence occurs.
func NewStore(ctx context.Context, databaseURL string) (*Store, error) {
	if databaseURL == "" {
		return nil, nil
	}
	pool, err := pgxpool.New(ctx, databaseURL)
	if err != nil {
		return nil, err
	}
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, err
	}
	if _, err := pool.Exec(ctx, createTableSQL); err != nil {
		pool.Close()
		return nil, err
	}
	slog.Info("connected to Postgres", "tag", "storage")
	return &Store{pool: pool}, nil
}

// Close closes the connection pool.
func (s *Store) Close() {
	if s != nil && s.pool != nil {
		s.pool.Close()
	}
}

// LoadRate returns the stored rate of from→to on day.
func (s *Store) LoadRate(ctx context.Context, day time.Time, from, to string) (float64, bool, error) {
	if s == nil || s.pool == nil {
		return 0, false, nil
	}
	var rate float64
	err := s.pool.QueryRow(ctx, `
		SELECT rate FROM exchange_rates
		WHERE rate_date = $1 AND base_currency = $2 AND quote_currency = $3`,
		dateOnly(day), from, to).Scan(&rate)
	if errors.Is(err, pgx.ErrNoRows) {
		return 0, false, nil
	}
	if err != nil {
		return 0, false, err
	}
	return rate, true, nil
}

// SaveRate records the rate of from→to on day. Existing rows are overwritten.
func (s *Store) SaveRate(ctx context.Context, day time.Time, from, to string, rate float64) error {
	if s == nil || s.pool == nil {
		return nil
	}
	_, err := s.pool.Exec(ctx, `
		INSERT INTO exchange_rates (rate_date, base_currency, quote_currency, rate)
		VALUES ($1, $2, $3, $4)
		ON CONFLICT (rate_date, base_currency, quote_currency)
		DO UPDATE SET rate = EXCLUDED.rate, fetched_at = now()`,
		dateOnly(day), from, to, rate)
	return err
}

// RateRecord is a single stored snapshot.
type RateRecord struct {
	Date string  `json:"date"` // YYYY-MM-DD
	From string  `json:"from"`
	To   string  `json:"to"`
	Rate float64 `json:"rate"`
}

// ListRates returns the most recent snapshots for a pair, newest first.
func (s *Store) ListRates(ctx context.Context, from, to string, limit int) ([]RateRecord, error) {
	if s == nil || s.pool == nil {
		return []RateRecord{}, nil
	}
	limit = clampLimit(limit)
	rows, err := s.pool.Query(ctx, `
		SELECT rate_date, base_currency, quote_currency, rate
		FROM exchange_rates
		WHERE base_currency = $1 AND quote_currency = $2
		ORDER BY rate_date DESC
		LIMIT $3`,
		from, to, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	out := []RateRecord{}
	for rows.Next() {
		var r RateRecord
		var day time.Time
		if err := rows.Scan(&day, &r.From, &r.To, &r.Rate); err != nil {
			return nil, err
		}
		r.Date = day.Format(exchange.DateLayout)
		out = append(out, r)
	}
	return out, rows.Err()
}

// dateOnly truncates t to its calendar day in UTC.
func dateOnly(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

func clampLimit(limit int) int {
	if limit <= 0 {
		return 30
	}
	if limit > 365 {
		return 365
	}
	return limit
}
