// Package db runs a query against a SQL database and returns raw
// records for the normalizer. It is a connector; the analysis stages
// never import it.
package db

import (
	"context"

	"github.com/jmoiron/sqlx"

	"studio/internal"
	"studio/internal/errors"
)

// QueryReader reads query results into raw records
type QueryReader struct {
	db       *sqlx.DB
	rowLimit int
	log      *internal.Logger
}

// NewQueryReader creates a query reader bounded by rowLimit. A zero or
// negative limit means unbounded.
func NewQueryReader(db *sqlx.DB, rowLimit int) *QueryReader {
	return &QueryReader{
		db:       db,
		rowLimit: rowLimit,
		log:      internal.DefaultLogger.Named("db"),
	}
}

// ReadRecords runs the query and converts each result row into a raw
// record. Byte slices become strings so text columns survive drivers
// that scan them as []byte.
func (r *QueryReader) ReadRecords(ctx context.Context, query string, args ...any) ([]map[string]any, error) {
	r.log.Trace("query: %s args=%v", query, args)
	rows, err := r.db.QueryxContext(ctx, query, args...)
	if err != nil {
		return nil, errors.WithCode(errors.CodeDatabaseError, err)
	}
	defer rows.Close()

	var records []map[string]any
	for rows.Next() {
		if r.rowLimit > 0 && len(records) >= r.rowLimit {
			r.log.Warn("query truncated at %d rows", r.rowLimit)
			break
		}
		record := map[string]any{}
		if err := rows.MapScan(record); err != nil {
			return nil, errors.WithCode(errors.CodeDatabaseError, err)
		}
		for key, val := range record {
			if b, ok := val.([]byte); ok {
				record[key] = string(b)
			}
		}
		records = append(records, record)
	}
	if err := rows.Err(); err != nil {
		return nil, errors.WithCode(errors.CodeDatabaseError, err)
	}

	r.log.Debug("query returned %d records", len(records))
	return records, nil
}
