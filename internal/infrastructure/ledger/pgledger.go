package ledger

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	_ "github.com/jackc/pgx/v5/stdlib"

	"github.com/quotagate/quotagate/internal/domain/usage"
	"github.com/quotagate/quotagate/internal/shared/config"
	"github.com/quotagate/quotagate/internal/shared/logger"
)

const (
	pgSelectCount = `SELECT count FROM usage_counters WHERE user_id = $1 AND endpoint = $2`

	pgIncrement = `INSERT INTO usage_counters (user_id, endpoint, count, last_updated)
VALUES ($1, $2, 1, $3)
ON CONFLICT (user_id, endpoint)
DO UPDATE SET count = usage_counters.count + 1, last_updated = EXCLUDED.last_updated
RETURNING count`

	pgIncrementBelow = `INSERT INTO usage_counters (user_id, endpoint, count, last_updated)
VALUES ($1, $2, 1, $3)
ON CONFLICT (user_id, endpoint)
DO UPDATE SET count = usage_counters.count + 1, last_updated = EXCLUDED.last_updated
WHERE usage_counters.count < $4
RETURNING count`

	pgList = `SELECT user_id, endpoint, count, last_updated FROM usage_counters
WHERE user_id = $1 ORDER BY endpoint`

	pgDeleteAll = `DELETE FROM usage_counters WHERE user_id = $1`
)

// OpenPostgres opens a pgx-backed database/sql pool and pings it.
func OpenPostgres(ctx context.Context, cfg *config.PostgresConfig) (*sql.DB, error) {
	db, err := sql.Open("pgx", cfg.DSN)
	if err != nil {
		return nil, fmt.Errorf("failed to open postgres: %w", err)
	}
	if cfg.MaxOpenConns > 0 {
		db.SetMaxOpenConns(cfg.MaxOpenConns)
	}
	if cfg.MaxIdleConns > 0 {
		db.SetMaxIdleConns(cfg.MaxIdleConns)
	}
	if cfg.ConnMaxLifetime > 0 {
		db.SetConnMaxLifetime(time.Duration(cfg.ConnMaxLifetime) * time.Second)
	}
	if err := db.PingContext(ctx); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("failed to ping postgres: %w", err)
	}
	return db, nil
}

var _ usage.Ledger = (*PostgresLedger)(nil)

// PostgresLedger keeps counters in a usage_counters table keyed by
// (user_id, endpoint). Every increment is a single upsert statement.
type PostgresLedger struct {
	db     *sql.DB
	logger logger.Interface
}

func NewPostgresLedger(db *sql.DB, logger logger.Interface) *PostgresLedger {
	return &PostgresLedger{
		db:     db,
		logger: logger,
	}
}

func (l *PostgresLedger) GetCount(ctx context.Context, userID, endpoint string) (int64, error) {
	var count int64
	err := l.db.QueryRowContext(ctx, pgSelectCount, userID, endpoint).Scan(&count)
	if errors.Is(err, sql.ErrNoRows) {
		return 0, nil
	}
	if err != nil {
		l.logger.Errorw("failed to get usage count", "error", err, "user_id", userID, "endpoint", endpoint)
		return 0, fmt.Errorf("failed to get usage count: %w", err)
	}
	return count, nil
}

func (l *PostgresLedger) Increment(ctx context.Context, userID, endpoint string, at time.Time) (int64, error) {
	var count int64
	if err := l.db.QueryRowContext(ctx, pgIncrement, userID, endpoint, at.UTC()).Scan(&count); err != nil {
		l.logger.Errorw("failed to increment usage", "error", err, "user_id", userID, "endpoint", endpoint)
		return 0, fmt.Errorf("failed to increment usage: %w", err)
	}
	return count, nil
}

func (l *PostgresLedger) IncrementBelow(ctx context.Context, userID, endpoint string, limit int64, at time.Time) (int64, bool, error) {
	if limit <= 0 {
		count, err := l.GetCount(ctx, userID, endpoint)
		return count, false, err
	}

	var count int64
	err := l.db.QueryRowContext(ctx, pgIncrementBelow, userID, endpoint, at.UTC(), limit).Scan(&count)
	switch {
	case err == nil:
		return count, true, nil
	case errors.Is(err, sql.ErrNoRows):
		// conflict row failed the WHERE clause, nothing was written
		count, err = l.GetCount(ctx, userID, endpoint)
		return count, false, err
	default:
		l.logger.Errorw("failed to increment usage", "error", err, "user_id", userID, "endpoint", endpoint)
		return 0, false, fmt.Errorf("failed to increment usage: %w", err)
	}
}

func (l *PostgresLedger) List(ctx context.Context, userID string) ([]usage.Counter, error) {
	rows, err := l.db.QueryContext(ctx, pgList, userID)
	if err != nil {
		l.logger.Errorw("failed to list usage counters", "error", err, "user_id", userID)
		return nil, fmt.Errorf("failed to list usage counters: %w", err)
	}
	defer rows.Close()

	var counters []usage.Counter
	for rows.Next() {
		var c usage.Counter
		if err := rows.Scan(&c.UserID, &c.Endpoint, &c.Count, &c.LastUpdated); err != nil {
			return nil, fmt.Errorf("failed to scan usage counter: %w", err)
		}
		c.LastUpdated = c.LastUpdated.UTC()
		counters = append(counters, c)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate usage counters: %w", err)
	}
	return counters, nil
}

func (l *PostgresLedger) DeleteAll(ctx context.Context, userID string) error {
	if _, err := l.db.ExecContext(ctx, pgDeleteAll, userID); err != nil {
		l.logger.Errorw("failed to delete usage counters", "error", err, "user_id", userID)
		return fmt.Errorf("failed to delete usage counters: %w", err)
	}
	return nil
}
