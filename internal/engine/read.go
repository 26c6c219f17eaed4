package engine

import (
	"context"
	"database/sql"
	"fmt"

	"db-recorder/internal/checker"
	"db-recorder/internal/query"
	"db-recorder/internal/schema"
)

// TableType resolves a table stem to its registered record type.
func (r *Recorder) TableType(stem string) (*schema.RecordType, bool) {
	return r.registry.Lookup(stem)
}

// readConn returns a connection only while the recorder runs.
func (r *Recorder) readConn(ctx context.Context) (*sql.Conn, error) {
	if !r.Running() {
		return nil, ErrNotRunning
	}
	return r.cfg.Conn(ctx)
}

// RelativeTables lists the existing partitions of rt that can hold rows
// written within [start, end] (unix milliseconds).
func (r *Recorder) RelativeTables(ctx context.Context, rt *schema.RecordType, start, end int64) ([]string, error) {
	conn, err := r.readConn(ctx)
	if err != nil {
		return nil, err
	}
	defer conn.Close()

	tables, err := checker.ListTables(ctx, conn, r.cfg.Dialect)
	if err != nil {
		return nil, err
	}
	existing := make(map[string]bool, len(tables))
	for _, t := range tables {
		existing[t] = true
	}
	var out []string
	for _, name := range r.namer.RelativeNames(rt, start, end) {
		if existing[name] {
			out = append(out, name)
		}
	}
	return out, nil
}

// QueryCount runs a query whose first column is a count.
func (r *Recorder) QueryCount(ctx context.Context, qb *query.Builder) (int64, error) {
	q, args, err := qb.BuildFor(r.cfg.Dialect)
	if err != nil {
		return 0, err
	}
	conn, err := r.readConn(ctx)
	if err != nil {
		return 0, err
	}
	defer conn.Close()

	r.logger.Debug("query count", "sql", q)
	var n int64
	if err := conn.QueryRowContext(ctx, q, args...).Scan(&n); err != nil {
		return 0, fmt.Errorf("query count: %w", err)
	}
	return n, nil
}

// Query runs qb and maps every result row onto rt. Result columns rt does
// not declare are ignored, as are NULL values.
func (r *Recorder) Query(ctx context.Context, rt *schema.RecordType, qb *query.Builder) ([]*schema.Row, error) {
	q, args, err := qb.BuildFor(r.cfg.Dialect)
	if err != nil {
		return nil, err
	}
	conn, err := r.readConn(ctx)
	if err != nil {
		return nil, err
	}
	defer conn.Close()

	r.logger.Debug("query", "type", rt.Name(), "sql", q)
	rows, err := conn.QueryContext(ctx, q, args...)
	if err != nil {
		return nil, fmt.Errorf("query %s: %w", rt.Name(), err)
	}
	defer rows.Close()

	cols, err := rows.Columns()
	if err != nil {
		return nil, err
	}
	var out []*schema.Row
	for rows.Next() {
		vals := make([]any, len(cols))
		ptrs := make([]any, len(cols))
		for i := range vals {
			ptrs[i] = &vals[i]
		}
		if err := rows.Scan(ptrs...); err != nil {
			return nil, fmt.Errorf("scan %s: %w", rt.Name(), err)
		}
		row := schema.NewRow(rt)
		for i, col := range cols {
			f, ok := rt.Lookup(col)
			if !ok || vals[i] == nil {
				continue
			}
			row.Set(col, convert(f, vals[i]))
		}
		out = append(out, row)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return out, nil
}

// QueryByName is Query for a table stem. Unknown stems yield no rows.
func (r *Recorder) QueryByName(ctx context.Context, stem string, qb *query.Builder) ([]*schema.Row, error) {
	rt, ok := r.TableType(stem)
	if !ok {
		return nil, nil
	}
	return r.Query(ctx, rt, qb)
}

// convert turns driver byte slices into strings for non-binary fields.
func convert(f schema.FieldSpec, v any) any {
	b, ok := v.([]byte)
	if !ok {
		return v
	}
	switch f.Type {
	case schema.Tinyblob, schema.Blob, schema.Mediumblob, schema.Longblob, schema.Binary, schema.Varbinary:
		return append([]byte(nil), b...)
	}
	return string(b)
}
