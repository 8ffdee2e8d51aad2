package store

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
	"strings"
	"time"

	_ "github.com/mattn/go-sqlite3"
	_ "modernc.org/sqlite"

	"github.com/roach88/cartkeeper/internal/model"
	"github.com/roach88/cartkeeper/internal/notify"
)

// Driver names registered by the SQLite packages this store links.
const (
	// DriverCGO is github.com/mattn/go-sqlite3.
	DriverCGO = "sqlite3"

	// DriverPureGo is modernc.org/sqlite.
	DriverPureGo = "sqlite"
)

// MemoryDSN opens a private in-memory database.
const MemoryDSN = ":memory:"

// DefaultStoreName names the store created when none exists.
const DefaultStoreName = "My Store"

// Clock supplies timestamps.
type Clock interface {
	Now() time.Time
}

type systemClock struct{}

func (systemClock) Now() time.Time { return time.Now() }

// Config selects the SQLite driver and data source.
type Config struct {
	// Driver is DriverCGO (default) or DriverPureGo.
	Driver string

	// DSN is a file path or MemoryDSN.
	DSN string
}

func (c Config) driver() string {
	if c.Driver == "" {
		return DriverCGO
	}
	return c.Driver
}

func (c Config) memory() bool {
	return c.DSN == MemoryDSN || strings.Contains(c.DSN, "mode=memory")
}

// Option configures a Store.
type Option func(*Store)

// WithBus publishes changes on bus instead of a private one.
func WithBus(bus *notify.Bus) Option {
	return func(s *Store) { s.bus = bus }
}

// WithClock overrides the timestamp source.
func WithClock(c Clock) Option {
	return func(s *Store) { s.clock = c }
}

// WithIDGenerator overrides entity ID generation.
func WithIDGenerator(g model.IDGenerator) Option {
	return func(s *Store) { s.ids = g }
}

// WithSlowQueryThreshold sets the duration above which statements are
// logged at Warn.
func WithSlowQueryThreshold(d time.Duration) Option {
	return func(s *Store) { s.slowQuery = d }
}

// WithLogger sets the logger.
func WithLogger(l *slog.Logger) Option {
	return func(s *Store) { s.logger = l }
}

// Store provides typed access to the shopping data.
// All writes go through one connection: a single logical writer.
type Store struct {
	db        *sql.DB
	bus       *notify.Bus
	clock     Clock
	ids       model.IDGenerator
	logger    *slog.Logger
	slowQuery time.Duration
}

// querier is satisfied by *sql.DB and *sql.Tx.
type querier interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
}

// Open creates or opens a database, applies pragmas and migrations, and
// makes sure at least one store exists.
//
// A migration failure is fatal: Open returns a schema error and the database
// keeps its previous schema version.
func Open(ctx context.Context, cfg Config, opts ...Option) (*Store, error) {
	if cfg.DSN == "" {
		return nil, fmt.Errorf("open database: empty data source")
	}

	s := &Store{
		clock:     systemClock{},
		ids:       model.UUIDv7Generator{},
		logger:    slog.Default(),
		slowQuery: DefaultSlowQuery,
	}
	for _, opt := range opts {
		opt(s)
	}
	if s.bus == nil {
		s.bus = notify.NewBus(s.logger)
	}

	db, err := sql.Open(cfg.driver(), cfg.DSN)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	// SQLite only supports one writer at a time. One connection also keeps a
	// :memory: database alive for the life of the pool.
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)
	db.SetConnMaxLifetime(0)
	db.SetConnMaxIdleTime(0)

	if err := db.PingContext(ctx); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}

	if err := applyPragmas(ctx, db, cfg.memory()); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to apply pragmas: %w", err)
	}

	res, err := Migrate(ctx, db, Migrations)
	if err != nil {
		db.Close()
		return nil, err
	}
	if len(res.Applied) > 0 {
		s.logger.Info("schema migrated", "from", res.FromVersion, "to", res.ToVersion, "driver", cfg.driver())
	}

	s.db = db
	if _, _, err := s.EnsureDefaultStore(ctx); err != nil {
		db.Close()
		return nil, err
	}
	return s, nil
}

// Close closes the database connection.
func (s *Store) Close() error {
	if s.db == nil {
		return nil
	}
	return s.db.Close()
}

// DB returns the underlying sql.DB for direct queries.
// Use with caution - prefer using Store methods when available.
func (s *Store) DB() *sql.DB {
	return s.db
}

// Bus returns the change bus this store publishes on.
func (s *Store) Bus() *notify.Bus {
	return s.bus
}

// applyPragmas sets required SQLite configuration.
func applyPragmas(ctx context.Context, db *sql.DB, memory bool) error {
	pragmas := []string{
		"PRAGMA synchronous = NORMAL",
		"PRAGMA busy_timeout = 5000",
		"PRAGMA foreign_keys = ON",
	}
	if !memory {
		pragmas = append([]string{"PRAGMA journal_mode = WAL"}, pragmas...)
	}

	for _, pragma := range pragmas {
		if _, err := db.ExecContext(ctx, pragma); err != nil {
			return fmt.Errorf("failed to execute %q: %w", pragma, err)
		}
	}
	return nil
}

// verifyPragma checks that a pragma is set to the expected value.
// Used for testing.
func (s *Store) verifyPragma(name, expected string) error {
	var value string
	if err := s.db.QueryRow("PRAGMA " + name).Scan(&value); err != nil {
		return fmt.Errorf("failed to query %s: %w", name, err)
	}
	if value != expected {
		return fmt.Errorf("%s = %q, expected %q", name, value, expected)
	}
	return nil
}

func (s *Store) now() time.Time {
	return s.clock.Now().UTC()
}

// withTx runs fn in a transaction. fn's error rolls everything back.
func (s *Store) withTx(ctx context.Context, fn func(q querier) error) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin tx: %w", err)
	}
	defer tx.Rollback() // No-op if committed

	if err := fn(s.timed(tx)); err != nil {
		return err
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit: %w", err)
	}
	return nil
}

// publish notifies subscribers after a committed mutation. Listener
// failures are logged by the bus and do not fail the mutation.
func (s *Store) publish() {
	_ = s.bus.Publish()
}

// Publish notifies subscribers without a mutation, e.g. after a batch of
// writes whose readers want one final refresh.
func (s *Store) Publish() error {
	return s.bus.Publish()
}
