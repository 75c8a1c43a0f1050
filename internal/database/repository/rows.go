package repository

import (
	"context"
	"database/sql"
	"time"
)

// scanner handles both Row and Rows.
type scanner interface {
	Scan(dest ...interface{}) error
}

// Timestamp returns the current UTC time in the form stored in created_at
// style columns.
func Timestamp() string {
	return time.Now().UTC().Truncate(time.Second).Format(time.RFC3339)
}

func stamp(s string) string {
	if s == "" {
		return Timestamp()
	}
	return s
}

// idSet returns every id in table, soft-deleted rows included.
func idSet(ctx context.Context, db *sql.DB, table string) (map[string]struct{}, error) {
	rows, err := db.QueryContext(ctx, "SELECT id FROM "+table)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	out := make(map[string]struct{})
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return nil, err
		}
		out[id] = struct{}{}
	}
	return out, rows.Err()
}

func collect[T any](rows *sql.Rows, scan func(scanner) (T, error)) ([]T, error) {
	defer rows.Close()
	var out []T
	for rows.Next() {
		v, err := scan(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, v)
	}
	return out, rows.Err()
}

// one scans a single row, mapping sql.ErrNoRows to nil.
func one[T any](row *sql.Row, scan func(scanner) (T, error)) (*T, error) {
	v, err := scan(row)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, nil
		}
		return nil, err
	}
	return &v, nil
}
