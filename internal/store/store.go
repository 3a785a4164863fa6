// Package store is the durable lookup cache: historical closing prices and
// trailing dividend totals kept in a local SQLite file. Caching here is an
// optimization only. When the database cannot be used, every operation is
// a no-op.
package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"slices"
	"strings"

	// Register the SQLite drivers: "sqlite3" (cgo) and "sqlite" (pure Go)
	_ "github.com/mattn/go-sqlite3"
	"github.com/rs/zerolog"
	_ "modernc.org/sqlite"

	"github.com/dhocker/iex-localc/internal/metrics"
)

const (
	// DriverCGO is the mattn/go-sqlite3 driver name.
	DriverCGO = "sqlite3"
	// DriverPureGo is the modernc.org/sqlite driver name.
	DriverPureGo = "sqlite"

	tableSymbolDate   = "SymbolDate"
	tableTTMDividends = "TTMDividends"
)

var schema = []string{
	`CREATE TABLE IF NOT EXISTS SymbolDate (Symbol TEXT NOT NULL, Date TEXT NOT NULL, Open REAL, High REAL, Low REAL, Close REAL, Volume INTEGER, Adj_Close REAL, PRIMARY KEY(Symbol, Date))`,
	`CREATE TABLE IF NOT EXISTS TTMDividends (Symbol TEXT NOT NULL, CalcDate TEXT NOT NULL, Amount REAL NOT NULL, PRIMARY KEY(Symbol, CalcDate))`,
}

// Config holds the cache database location and driver.
type Config struct {
	Path   string
	Driver string
}

// Store is the durable lookup cache.
type Store struct {
	path    string
	driver  string
	enabled bool
	metrics *metrics.Metrics
	log     zerolog.Logger
}

// Open resolves whether durable caching is available and prepares the
// schema. It never fails: problems are logged and leave the store disabled.
func Open(cfg Config, m *metrics.Metrics, log zerolog.Logger) *Store {
	if cfg.Driver == "" {
		cfg.Driver = DriverCGO
	}
	s := &Store{
		path:    cfg.Path,
		driver:  cfg.Driver,
		metrics: m,
		log:     log.With().Str("component", "store").Logger(),
	}

	if err := s.init(); err != nil {
		s.log.Error().Err(err).Str("path", cfg.Path).Str("driver", cfg.Driver).Msg("durable cache disabled")
		return s
	}
	s.enabled = true
	s.log.Info().Str("path", cfg.Path).Str("driver", cfg.Driver).Msg("durable cache ready")
	return s
}

// Disabled returns a store on which every operation is a no-op.
func Disabled() *Store {
	return &Store{log: zerolog.Nop()}
}

// Enabled reports whether the durable cache is in use.
func (s *Store) Enabled() bool { return s.enabled }

func (s *Store) init() error {
	if s.path == "" {
		return errors.New("no cache database path configured")
	}
	if !slices.Contains(sql.Drivers(), s.driver) {
		return fmt.Errorf("sql driver %q is not available", s.driver)
	}
	if dir := filepath.Dir(s.path); dir != "" {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("failed to create cache directory: %w", err)
		}
	}

	db, err := s.open()
	if err != nil {
		return err
	}
	defer db.Close()

	if err := db.Ping(); err != nil {
		return fmt.Errorf("failed to open cache database: %w", err)
	}
	for _, stmt := range schema {
		if _, err := db.Exec(stmt); err != nil {
			return fmt.Errorf("failed to create schema: %w", err)
		}
	}
	return nil
}

// dsn adds a busy timeout so concurrent writers wait instead of failing.
// The two drivers spell the option differently.
func (s *Store) dsn() string {
	if s.driver == DriverPureGo {
		return s.path + "?_pragma=busy_timeout(5000)"
	}
	return s.path + "?_busy_timeout=5000"
}

// open returns a fresh connection. Each operation uses its own and closes it.
func (s *Store) open() (*sql.DB, error) {
	db, err := sql.Open(s.driver, s.dsn())
	if err != nil {
		return nil, err
	}
	db.SetMaxOpenConns(1)
	return db, nil
}

func normalize(symbol string) string {
	return strings.ToUpper(strings.TrimSpace(symbol))
}

func (s *Store) lookup(ctx context.Context, table, query string, args ...any) (float64, bool) {
	if !s.enabled {
		return 0, false
	}
	db, err := s.open()
	if err != nil {
		s.log.Error().Err(err).Msg("open failed")
		return 0, false
	}
	defer db.Close()

	var v float64
	err = db.QueryRowContext(ctx, query, args...).Scan(&v)
	if err != nil {
		if !errors.Is(err, sql.ErrNoRows) {
			s.log.Error().Err(err).Str("table", table).Msg("lookup failed")
		}
		s.metrics.DurableLookup(table, false)
		return 0, false
	}
	s.metrics.DurableLookup(table, true)
	return v, true
}

func (s *Store) insert(ctx context.Context, table, stmt string, args ...any) {
	if !s.enabled {
		return
	}
	db, err := s.open()
	if err != nil {
		s.log.Error().Err(err).Msg("open failed")
		return
	}
	defer db.Close()

	if _, err := db.ExecContext(ctx, stmt, args...); err != nil {
		s.log.Error().Err(err).Str("table", table).Msg("insert failed")
	}
}

// LookupClose returns the cached closing price of symbol on date (YYYY-MM-DD).
func (s *Store) LookupClose(ctx context.Context, symbol, date string) (float64, bool) {
	return s.lookup(ctx, tableSymbolDate,
		`SELECT Close FROM SymbolDate WHERE Symbol = ? AND Date = ?`,
		normalize(symbol), date)
}

// InsertClose records the closing price of symbol on date. The other price
// columns are stored as zero. Existing rows are left untouched.
func (s *Store) InsertClose(ctx context.Context, symbol, date string, price float64) {
	s.insert(ctx, tableSymbolDate,
		`INSERT OR IGNORE INTO SymbolDate (Symbol, Date, Open, High, Low, Close, Volume, Adj_Close) VALUES (?, ?, 0, 0, 0, ?, 0, 0)`,
		normalize(symbol), date, price)
}

// LookupTTMDividend returns the trailing dividend total computed for symbol on calcDate.
func (s *Store) LookupTTMDividend(ctx context.Context, symbol, calcDate string) (float64, bool) {
	return s.lookup(ctx, tableTTMDividends,
		`SELECT Amount FROM TTMDividends WHERE Symbol = ? AND CalcDate = ?`,
		normalize(symbol), calcDate)
}

// InsertTTMDividend records the trailing dividend total for symbol on calcDate.
func (s *Store) InsertTTMDividend(ctx context.Context, symbol, calcDate string, amount float64) {
	s.insert(ctx, tableTTMDividends,
		`INSERT OR IGNORE INTO TTMDividends (Symbol, CalcDate, Amount) VALUES (?, ?, ?)`,
		normalize(symbol), calcDate, amount)
}
