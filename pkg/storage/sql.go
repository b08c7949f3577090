package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
)

// SQLDialect selects placeholder and upsert syntax.
type SQLDialect int

const (
	// DialectPostgreSQL uses $1, $2 placeholders and ON CONFLICT.
	DialectPostgreSQL SQLDialect = iota
	// DialectMySQL uses ? placeholders and ON DUPLICATE KEY UPDATE.
	DialectMySQL
	// DialectSQLite uses ? placeholders and ON CONFLICT.
	DialectSQLite
)

// SQL is a database/sql-backed store. It works with any compatible
// driver; the dialect controls query generation. The table is created
// by Init:
//
//	CREATE TABLE jotai_values (
//	    id   VARCHAR(255) PRIMARY KEY,
//	    data BYTEA NOT NULL
//	);
type SQL struct {
	db        *sql.DB
	tableName string
	dialect   SQLDialect
}

// SQLOption configures the SQL store.
type SQLOption func(*sqlConfig)

type sqlConfig struct {
	tableName string
	dialect   SQLDialect
}

// WithSQLTableName sets the table name. Default: "jotai_values".
func WithSQLTableName(name string) SQLOption {
	return func(c *sqlConfig) {
		c.tableName = name
	}
}

// WithSQLDialect sets the SQL dialect. Default: DialectPostgreSQL.
func WithSQLDialect(dialect SQLDialect) SQLOption {
	return func(c *sqlConfig) {
		c.dialect = dialect
	}
}

// NewSQL creates a SQL-backed store over db. The caller keeps ownership
// of db; Close does not close it. Call Init once to create the table.
func NewSQL(db *sql.DB, opts ...SQLOption) *SQL {
	cfg := &sqlConfig{
		tableName: "jotai_values",
		dialect:   DialectPostgreSQL,
	}
	for _, opt := range opts {
		opt(cfg)
	}
	return &SQL{
		db:        db,
		tableName: cfg.tableName,
		dialect:   cfg.dialect,
	}
}

// Init creates the backing table if it does not exist.
func (s *SQL) Init(ctx context.Context) error {
	var blob string
	switch s.dialect {
	case DialectPostgreSQL:
		blob = "BYTEA"
	default:
		blob = "BLOB"
	}
	query := fmt.Sprintf(
		"CREATE TABLE IF NOT EXISTS %s (id VARCHAR(255) PRIMARY KEY, data %s NOT NULL)",
		s.tableName, blob,
	)
	if _, err := s.db.ExecContext(ctx, query); err != nil {
		return fmt.Errorf("storage: creating table %s: %w", s.tableName, err)
	}
	return nil
}

// placeholder returns the placeholder syntax for the dialect.
func (s *SQL) placeholder(n int) string {
	if s.dialect == DialectPostgreSQL {
		return fmt.Sprintf("$%d", n)
	}
	return "?"
}

// Load retrieves the value for key.
func (s *SQL) Load(ctx context.Context, key string) ([]byte, error) {
	query := fmt.Sprintf("SELECT data FROM %s WHERE id = %s", s.tableName, s.placeholder(1))
	var data []byte
	err := s.db.QueryRowContext(ctx, query, key).Scan(&data)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("storage: loading %s: %w", key, err)
	}
	return data, nil
}

// Save persists data under key, overwriting any previous value.
func (s *SQL) Save(ctx context.Context, key string, data []byte) error {
	var query string
	switch s.dialect {
	case DialectMySQL:
		query = fmt.Sprintf(
			"INSERT INTO %s (id, data) VALUES (?, ?) ON DUPLICATE KEY UPDATE data = VALUES(data)",
			s.tableName,
		)
	case DialectSQLite:
		query = fmt.Sprintf(
			"INSERT INTO %s (id, data) VALUES (?, ?) ON CONFLICT(id) DO UPDATE SET data = excluded.data",
			s.tableName,
		)
	default: // PostgreSQL
		query = fmt.Sprintf(
			"INSERT INTO %s (id, data) VALUES ($1, $2) ON CONFLICT (id) DO UPDATE SET data = EXCLUDED.data",
			s.tableName,
		)
	}
	if _, err := s.db.ExecContext(ctx, query, key, data); err != nil {
		return fmt.Errorf("storage: saving %s: %w", key, err)
	}
	return nil
}

// Delete removes key.
func (s *SQL) Delete(ctx context.Context, key string) error {
	query := fmt.Sprintf("DELETE FROM %s WHERE id = %s", s.tableName, s.placeholder(1))
	if _, err := s.db.ExecContext(ctx, query, key); err != nil {
		return fmt.Errorf("storage: deleting %s: %w", key, err)
	}
	return nil
}

// Keys lists all stored keys.
func (s *SQL) Keys(ctx context.Context) ([]string, error) {
	query := fmt.Sprintf("SELECT id FROM %s", s.tableName)
	rows, err := s.db.QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("storage: listing keys: %w", err)
	}
	defer rows.Close()

	var keys []string
	for rows.Next() {
		var k string
		if err := rows.Scan(&k); err != nil {
			return nil, fmt.Errorf("storage: listing keys: %w", err)
		}
		keys = append(keys, k)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("storage: listing keys: %w", err)
	}
	return keys, nil
}

// Close is a no-op; the caller owns the *sql.DB.
func (s *SQL) Close() error { return nil }

var _ Storage = (*SQL)(nil)
