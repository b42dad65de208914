// Package sqlsource reads report records from SQL queries.
package sqlsource

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	_ "github.com/lib/pq"

	"github.com/locvowork/sheetexport/pkg/reportlayout"
)

// Config describes a PostgreSQL connection pool.
type Config struct {
	Host            string
	Port            int
	User            string
	Password        string
	DBName          string
	SSLMode         string
	MaxOpenConns    int
	MaxIdleConns    int
	ConnMaxLifetime time.Duration
}

// DSN returns the lib/pq connection string of c.
func (c Config) DSN() string {
	parts := []string{
		fmt.Sprintf("host=%s", c.Host),
		fmt.Sprintf("port=%d", c.Port),
	}
	if c.User != "" {
		parts = append(parts, fmt.Sprintf("user=%s", c.User))
	}
	if c.Password != "" {
		parts = append(parts, fmt.Sprintf("password=%s", c.Password))
	}
	if c.DBName != "" {
		parts = append(parts, fmt.Sprintf("dbname=%s", c.DBName))
	}
	if c.SSLMode != "" {
		parts = append(parts, fmt.Sprintf("sslmode=%s", c.SSLMode))
	}
	return strings.Join(parts, " ")
}

// Open opens and pings a PostgreSQL pool.
func Open(ctx context.Context, cfg Config) (*sql.DB, error) {
	db, err := sql.Open("postgres", cfg.DSN())
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}
	db.SetMaxOpenConns(cfg.MaxOpenConns)
	db.SetMaxIdleConns(cfg.MaxIdleConns)
	db.SetConnMaxLifetime(cfg.ConnMaxLifetime)

	if err := db.PingContext(ctx); err != nil {
		db.Close()
		return nil, fmt.Errorf("ping database: %w", err)
	}
	return db, nil
}

// Source yields one record per result row, keyed by column name. JSON
// columns are decoded so that map-valued fields can be expanded.
type Source struct {
	rows    *sql.Rows
	columns []string
	json    []bool
	size    *int64
	closed  bool
}

// Query runs query on db and returns its rows as a source.
func Query(ctx context.Context, db *sql.DB, query string, args ...interface{}) (*Source, error) {
	rows, err := db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("query: %w", err)
	}
	src, err := New(rows)
	if err != nil {
		rows.Close()
		return nil, err
	}
	return src, nil
}

// New wraps open rows. The source closes them once exhausted.
func New(rows *sql.Rows) (*Source, error) {
	types, err := rows.ColumnTypes()
	if err != nil {
		return nil, fmt.Errorf("column types: %w", err)
	}
	s := &Source{
		rows:    rows,
		columns: make([]string, len(types)),
		json:    make([]bool, len(types)),
	}
	for i, t := range types {
		s.columns[i] = t.Name()
		switch strings.ToUpper(t.DatabaseTypeName()) {
		case "JSON", "JSONB":
			s.json[i] = true
		}
	}
	return s, nil
}

// WithEstimatedSize sets the expected row count, typically from a count query.
func (s *Source) WithEstimatedSize(n int64) *Source {
	s.size = &n
	return s
}

// Columns returns the result column names.
func (s *Source) Columns() []string {
	return append([]string(nil), s.columns...)
}

func (s *Source) Next(ctx context.Context) (reportlayout.Record, bool, error) {
	if s.closed {
		return nil, false, nil
	}
	if err := ctx.Err(); err != nil {
		return nil, false, err
	}
	if !s.rows.Next() {
		err := s.rows.Err()
		s.Close()
		return nil, false, err
	}

	values := make([]interface{}, len(s.columns))
	ptrs := make([]interface{}, len(s.columns))
	for i := range values {
		ptrs[i] = &values[i]
	}
	if err := s.rows.Scan(ptrs...); err != nil {
		return nil, false, fmt.Errorf("scan: %w", err)
	}

	rec := make(reportlayout.Record, len(s.columns))
	for i, name := range s.columns {
		v := values[i]
		if s.json[i] && v != nil {
			decoded, err := decodeJSON(v)
			if err != nil {
				return nil, false, fmt.Errorf("column %q: %w", name, err)
			}
			v = decoded
		}
		rec[name] = v
	}
	return rec, true, nil
}

func (s *Source) EstimatedSize() *int64 { return s.size }

// Close closes the underlying rows.
func (s *Source) Close() error {
	if s.closed {
		return nil
	}
	s.closed = true
	return s.rows.Close()
}

func decodeJSON(v interface{}) (interface{}, error) {
	var data []byte
	switch v := v.(type) {
	case []byte:
		data = v
	case string:
		data = []byte(v)
	default:
		return v, nil
	}
	dec := json.NewDecoder(strings.NewReader(string(data)))
	dec.UseNumber()
	var out interface{}
	if err := dec.Decode(&out); err != nil {
		return nil, fmt.Errorf("decode json: %w", err)
	}
	return out, nil
}

// Count runs a count query, for sources that should report their size.
func Count(ctx context.Context, db *sql.DB, query string, args ...interface{}) (int64, error) {
	var n int64
	if err := db.QueryRowContext(ctx, fmt.Sprintf("SELECT COUNT(*) FROM (%s) AS q", query), args...).Scan(&n); err != nil {
		return 0, fmt.Errorf("count: %w", err)
	}
	return n, nil
}
