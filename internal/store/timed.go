package store

import (
	"context"
	"database/sql"
	"log/slog"
	"time"
)

// DefaultSlowQuery is the duration above which a statement is logged at Warn.
const DefaultSlowQuery = 50 * time.Millisecond

// timedQuerier logs statement durations: Warn past the threshold, Debug
// otherwise.
type timedQuerier struct {
	q         querier
	logger    *slog.Logger
	threshold time.Duration
}

var _ querier = (*timedQuerier)(nil)

func (t *timedQuerier) logQuery(ctx context.Context, op string, start time.Time) {
	d := time.Since(start)
	durationMs := float64(d.Microseconds()) / 1000.0
	if d >= t.threshold {
		t.logger.WarnContext(ctx, "slow_query", "op", op, "duration_ms", durationMs)
		return
	}
	t.logger.DebugContext(ctx, "query", "op", op, "duration_ms", durationMs)
}

func (t *timedQuerier) ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error) {
	start := time.Now()
	res, err := t.q.ExecContext(ctx, query, args...)
	t.logQuery(ctx, "ExecContext", start)
	return res, err
}

func (t *timedQuerier) QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error) {
	start := time.Now()
	rows, err := t.q.QueryContext(ctx, query, args...)
	t.logQuery(ctx, "QueryContext", start)
	return rows, err
}

func (t *timedQuerier) QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row {
	start := time.Now()
	row := t.q.QueryRowContext(ctx, query, args...)
	t.logQuery(ctx, "QueryRowContext", start)
	return row
}

// timed wraps q with the store's slow query logging.
func (s *Store) timed(q querier) querier {
	return &timedQuerier{q: q, logger: s.logger, threshold: s.slowQuery}
}

// reader returns the querier for single-statement reads and writes.
func (s *Store) reader() querier {
	return s.timed(s.db)
}
