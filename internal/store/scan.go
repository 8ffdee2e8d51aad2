package store

import (
	"database/sql"
	"fmt"
	"time"

	"github.com/roach88/cartkeeper/internal/model"
)

// timeLayout is fixed width so that text comparison orders like time.
const timeLayout = "2006-01-02T15:04:05.000000000Z07:00"

type scanner interface {
	Scan(dest ...any) error
}

func formatTime(t time.Time) string {
	return t.UTC().Format(timeLayout)
}

func parseTime(s string) (time.Time, error) {
	t, err := time.Parse(timeLayout, s)
	if err != nil {
		return time.Time{}, fmt.Errorf("parse time %q: %w", s, err)
	}
	return t, nil
}

func parseNullTime(ns sql.NullString) (*time.Time, error) {
	if !ns.Valid {
		return nil, nil
	}
	t, err := parseTime(ns.String)
	if err != nil {
		return nil, err
	}
	return &t, nil
}

func timeArg(t *time.Time) any {
	if t == nil {
		return nil
	}
	return formatTime(*t)
}

func stringArg(p *string) any {
	if p == nil {
		return nil
	}
	return *p
}

func intArg(p *int) any {
	if p == nil {
		return nil
	}
	return *p
}

func stringPtr(ns sql.NullString) *string {
	if !ns.Valid {
		return nil
	}
	v := ns.String
	return &v
}

func intPtr(ni sql.NullInt64) *int {
	if !ni.Valid {
		return nil
	}
	v := int(ni.Int64)
	return &v
}

// timestamps collects the created_at/updated_at/deleted_at columns that end
// every entity SELECT.
type timestamps struct {
	created string
	updated string
	deleted sql.NullString
}

func (ts *timestamps) dest() []any {
	return []any{&ts.created, &ts.updated, &ts.deleted}
}

func (ts *timestamps) into(out *model.Timestamps) error {
	var err error
	if out.CreatedAt, err = parseTime(ts.created); err != nil {
		return err
	}
	if out.UpdatedAt, err = parseTime(ts.updated); err != nil {
		return err
	}
	out.DeletedAt, err = parseNullTime(ts.deleted)
	return err
}

// scanAll reads every row with scan. Returns an empty slice, never nil.
func scanAll[T any](rows *sql.Rows, scan func(scanner) (T, error)) ([]T, error) {
	defer rows.Close()

	out := []T{}
	for rows.Next() {
		v, err := scan(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, v)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate rows: %w", err)
	}
	return out, nil
}
