package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"sync/atomic"
	"time"
)

// SQL is a database/sql backed storage backend.
// Requires a table with schema (see CreateTable):
//
//	CREATE TABLE jspm_storage (
//	    namespace TEXT NOT NULL,
//	    key TEXT NOT NULL,
//	    value BLOB NOT NULL,
//	    updated_at INTEGER NOT NULL,
//	    PRIMARY KEY (namespace, key)
//	);
type SQL struct {
	db        *sql.DB
	tableName string
	dialect   SQLDialect
	retention time.Duration
	interval  time.Duration
	logger    *slog.Logger
	now       func() time.Time
	closed    atomic.Bool
	done      chan struct{}
}

// SQLDialect represents the SQL dialect for query generation.
type SQLDialect int

const (
	// DialectSQLite targets a local SQLite file through mattn/go-sqlite3.
	DialectSQLite SQLDialect = iota
	// DialectLibSQL targets a remote libSQL (Turso) database.
	DialectLibSQL
)

// DriverName returns the database/sql driver registered for the dialect.
func (d SQLDialect) DriverName() string {
	switch d {
	case DialectLibSQL:
		return "libsql"
	default:
		return "sqlite3"
	}
}

// ParseDialect maps a configuration string to a dialect.
func ParseDialect(s string) (SQLDialect, error) {
	switch s {
	case "", "sqlite", "sqlite3":
		return DialectSQLite, nil
	case "libsql", "turso":
		return DialectLibSQL, nil
	default:
		return 0, fmt.Errorf("unknown sql dialect %q", s)
	}
}

// SQLOption configures SQL behavior.
type SQLOption func(*SQL)

// WithSQLTableName sets the table name.
// Default: "jspm_storage".
func WithSQLTableName(name string) SQLOption {
	return func(s *SQL) {
		s.tableName = name
	}
}

// WithSQLDialect sets the SQL dialect.
// Default: DialectSQLite.
func WithSQLDialect(dialect SQLDialect) SQLOption {
	return func(s *SQL) {
		s.dialect = dialect
	}
}

// WithSQLRetention removes items not written for longer than d.
// Zero (the default) keeps items forever.
func WithSQLRetention(d time.Duration) SQLOption {
	return func(s *SQL) {
		s.retention = d
	}
}

// WithSQLLogger sets the logger used by the retention loop.
func WithSQLLogger(l *slog.Logger) SQLOption {
	return func(s *SQL) {
		s.logger = l
	}
}

// OpenSQL opens a database for the dialect and returns a backend that owns it.
func OpenSQL(ctx context.Context, dialect SQLDialect, dsn string, opts ...SQLOption) (*SQL, error) {
	db, err := sql.Open(dialect.DriverName(), dsn)
	if err != nil {
		return nil, fmt.Errorf("open %s: %w", dialect.DriverName(), err)
	}
	if dialect == DialectSQLite {
		// SQLite allows one writer; a single connection avoids SQLITE_BUSY.
		db.SetMaxOpenConns(1)
	}
	if err := db.PingContext(ctx); err != nil {
		db.Close()
		return nil, fmt.Errorf("ping %s: %w", dialect.DriverName(), err)
	}

	s := NewSQL(db, append([]SQLOption{WithSQLDialect(dialect)}, opts...)...)
	if err := s.CreateTable(ctx); err != nil {
		s.Close()
		db.Close()
		return nil, err
	}
	return s, nil
}

// NewSQL creates a backend on an existing database handle.
// The handle is not closed by Close.
func NewSQL(db *sql.DB, opts ...SQLOption) *SQL {
	s := &SQL{
		db:        db,
		tableName: "jspm_storage",
		dialect:   DialectSQLite,
		interval:  5 * time.Minute,
		logger:    slog.Default(),
		now:       time.Now,
		done:      make(chan struct{}),
	}
	for _, opt := range opts {
		opt(s)
	}

	if s.retention > 0 {
		go s.cleanupLoop()
	}
	return s
}

// Get retrieves an item.
func (s *SQL) Get(ctx context.Context, namespace, key string) ([]byte, error) {
	if s.closed.Load() {
		return nil, ErrClosed
	}

	query := fmt.Sprintf(`SELECT value FROM %s WHERE namespace = ? AND key = ?`, s.tableName)

	var value []byte
	err := s.db.QueryRowContext(ctx, query, namespace, key).Scan(&value)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, err
	}
	if value == nil {
		value = []byte{}
	}
	return value, nil
}

// Put stores an item.
func (s *SQL) Put(ctx context.Context, namespace, key string, value []byte) error {
	if s.closed.Load() {
		return ErrClosed
	}

	query := fmt.Sprintf(`
		INSERT INTO %s (namespace, key, value, updated_at)
		VALUES (?, ?, ?, ?)
		ON CONFLICT (namespace, key) DO UPDATE SET
			value = excluded.value,
			updated_at = excluded.updated_at
	`, s.tableName)

	if value == nil {
		value = []byte{}
	}
	_, err := s.db.ExecContext(ctx, query, namespace, key, value, s.now().Unix())
	return err
}

// Delete removes an item.
func (s *SQL) Delete(ctx context.Context, namespace, key string) error {
	if s.closed.Load() {
		return ErrClosed
	}

	query := fmt.Sprintf(`DELETE FROM %s WHERE namespace = ? AND key = ?`, s.tableName)
	_, err := s.db.ExecContext(ctx, query, namespace, key)
	return err
}

// Close stops the retention loop.
// Note: This does not close a database handle passed to NewSQL,
// as it may be shared with other components.
func (s *SQL) Close() error {
	if s.closed.Swap(true) {
		return nil
	}
	close(s.done)
	return nil
}

// CreateTable creates the storage table if it doesn't exist.
func (s *SQL) CreateTable(ctx context.Context) error {
	query := fmt.Sprintf(`
		CREATE TABLE IF NOT EXISTS %s (
			namespace TEXT NOT NULL,
			key TEXT NOT NULL,
			value BLOB NOT NULL,
			updated_at INTEGER NOT NULL,
			PRIMARY KEY (namespace, key)
		)
	`, s.tableName)
	if _, err := s.db.ExecContext(ctx, query); err != nil {
		return fmt.Errorf("create table %s: %w", s.tableName, err)
	}

	index := fmt.Sprintf(`CREATE INDEX IF NOT EXISTS idx_%s_updated ON %s(updated_at)`, s.tableName, s.tableName)
	if _, err := s.db.ExecContext(ctx, index); err != nil {
		return fmt.Errorf("create index on %s: %w", s.tableName, err)
	}
	return nil
}

// Purge removes items last written before cutoff and returns how many.
func (s *SQL) Purge(ctx context.Context, cutoff time.Time) (int64, error) {
	query := fmt.Sprintf(`DELETE FROM %s WHERE updated_at < ?`, s.tableName)
	res, err := s.db.ExecContext(ctx, query, cutoff.Unix())
	if err != nil {
		return 0, err
	}
	return res.RowsAffected()
}

// cleanupLoop periodically purges items past the retention period.
func (s *SQL) cleanupLoop() {
	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
			n, err := s.Purge(ctx, s.now().Add(-s.retention))
			cancel()
			if err != nil {
				s.logger.Warn("storage purge failed", "table", s.tableName, "error", err)
			} else if n > 0 {
				s.logger.Debug("storage purged", "table", s.tableName, "rows", n)
			}
		case <-s.done:
			return
		}
	}
}
