// Package query provides SQL access to exported measurement series.
// It uses DuckDB to read the Parquet files produced by the export layer.
package query

import (
	"context"
	"database/sql"
	"fmt"
	"path/filepath"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	_ "github.com/marcboeker/go-duckdb"

	"github.com/tejas7777/data-sampler/internal/config"
	"github.com/tejas7777/data-sampler/internal/logging"
	"github.com/tejas7777/data-sampler/internal/measurement"
	"github.com/tejas7777/data-sampler/internal/parquet"
)

// Service provides query capabilities over exported data.
type Service struct {
	mu sync.RWMutex

	config *config.Config
	db     *sql.DB
	dir    string

	queriesExecuted atomic.Int64
	rowsReturned    atomic.Int64
	errors          atomic.Int64
}

// Stats holds query statistics.
type Stats struct {
	QueriesExecuted int64
	RowsReturned    int64
	Errors          int64
}

// SeriesQuery defines parameters for querying a measurement series.
type SeriesQuery struct {
	// Type restricts the result to one channel; zero means all channels.
	Type measurement.Type

	// Start and End bound the timestamps (inclusive). Zero values are open.
	Start time.Time
	End   time.Time

	// Limit caps the number of rows; zero applies the configured maximum.
	Limit int
}

// New creates a new query service over the given export directory.
func New(cfg *config.Config, dir string) (*Service, error) {
	if cfg == nil {
		cfg = config.DefaultConfig()
	}
	if dir == "" {
		dir = cfg.Export.Dir
	}

	// Open in-memory DuckDB database
	db, err := sql.Open("duckdb", "")
	if err != nil {
		return nil, fmt.Errorf("open duckdb: %w", err)
	}

	if cfg.Query.MemoryLimit != "" {
		_, err = db.Exec(fmt.Sprintf("SET memory_limit='%s'", cfg.Query.MemoryLimit))
		if err != nil {
			db.Close()
			return nil, fmt.Errorf("set memory limit: %w", err)
		}
	}

	logging.Component("query").Debug("query service ready", "dir", dir)

	return &Service{
		config: cfg,
		db:     db,
		dir:    dir,
	}, nil
}

// Close closes the query service.
func (s *Service) Close() error {
	if s.db != nil {
		return s.db.Close()
	}
	return nil
}

// QuerySeries queries measurements from the exported Parquet files.
// Results are ordered by timestamp, then by type in canonical order
// (SPO2, HR, TEMP), matching the resampler's output ordering.
func (s *Service) QuerySeries(ctx context.Context, q SeriesQuery) ([]measurement.Measurement, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	pattern := filepath.Join(s.dir, "*.parquet")

	query := `
		SELECT timestamp_ms, type, value
		FROM read_parquet($1)
		WHERE 1=1
	`
	args := []interface{}{pattern}

	if q.Type != 0 {
		args = append(args, q.Type.String())
		query += fmt.Sprintf(" AND type = $%d", len(args))
	}
	if !q.Start.IsZero() {
		args = append(args, q.Start.UnixMilli())
		query += fmt.Sprintf(" AND timestamp_ms >= $%d", len(args))
	}
	if !q.End.IsZero() {
		args = append(args, q.End.UnixMilli())
		query += fmt.Sprintf(" AND timestamp_ms <= $%d", len(args))
	}

	query += " ORDER BY timestamp_ms, " + typeOrderExpr

	limit := q.Limit
	if limit <= 0 {
		limit = s.config.Query.MaxRows
	}
	if limit > 0 {
		query += fmt.Sprintf(" LIMIT %d", limit)
	}

	if s.config.Query.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, s.config.Query.Timeout)
		defer cancel()
	}

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		// An export directory with no Parquet files is an empty series,
		// not an error.
		if isMissingFiles(err) {
			return nil, nil
		}
		s.errors.Add(1)
		return nil, fmt.Errorf("query series: %w", err)
	}
	defer rows.Close()

	results, err := s.scanMeasurements(rows)
	if err != nil {
		s.errors.Add(1)
		return nil, err
	}

	s.queriesExecuted.Add(1)
	s.rowsReturned.Add(int64(len(results)))

	return results, nil
}

// typeOrderExpr sorts the stored type names canonically rather than
// lexically, so query results line up with the resampler's ordering.
var typeOrderExpr = func() string {
	expr := "CASE type"
	for i, t := range measurement.Types {
		expr += fmt.Sprintf(" WHEN '%s' THEN %d", t, i)
	}
	return expr + " ELSE 99 END"
}()

// isMissingFiles matches DuckDB's error for a read_parquet glob with no
// matching files.
func isMissingFiles(err error) bool {
	return err != nil && strings.Contains(err.Error(), "No files found")
}

// scanMeasurements scans rows into a measurement slice.
func (s *Service) scanMeasurements(rows *sql.Rows) ([]measurement.Measurement, error) {
	var results []measurement.Measurement

	for rows.Next() {
		var row parquet.MeasurementRow

		if err := rows.Scan(&row.TimestampMs, &row.Type, &row.Value); err != nil {
			return nil, fmt.Errorf("scan row: %w", err)
		}

		m, err := parquet.RowToMeasurement(&row)
		if err != nil {
			return nil, err
		}

		results = append(results, m)
	}

	return results, rows.Err()
}

// ExecuteSQL executes a raw SQL query using DuckDB.
// This is useful for ad-hoc queries and debugging. The export directory's
// Parquet files are reachable via read_parquet('<dir>/*.parquet').
func (s *Service) ExecuteSQL(ctx context.Context, query string) ([]map[string]interface{}, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	rows, err := s.db.QueryContext(ctx, query)
	if err != nil {
		s.errors.Add(1)
		return nil, err
	}
	defer rows.Close()

	columns, err := rows.Columns()
	if err != nil {
		return nil, err
	}

	var results []map[string]interface{}

	for rows.Next() {
		values := make([]interface{}, len(columns))
		valuePtrs := make([]interface{}, len(columns))
		for i := range values {
			valuePtrs[i] = &values[i]
		}

		if err := rows.Scan(valuePtrs...); err != nil {
			return nil, err
		}

		row := make(map[string]interface{})
		for i, col := range columns {
			row[col] = values[i]
		}
		results = append(results, row)
	}

	s.queriesExecuted.Add(1)
	s.rowsReturned.Add(int64(len(results)))

	return results, rows.Err()
}

// Dir returns the export directory the service reads from.
func (s *Service) Dir() string {
	return s.dir
}

// Stats returns a snapshot of query statistics.
func (s *Service) Stats() Stats {
	return Stats{
		QueriesExecuted: s.queriesExecuted.Load(),
		RowsReturned:    s.rowsReturned.Load(),
		Errors:          s.errors.Load(),
	}
}
