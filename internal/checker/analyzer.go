package checker

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"

	"db-recorder/internal/dialect"
	"db-recorder/internal/schema"
)

// Conn is the subset of *sql.DB, *sql.Conn and *sql.Tx the checker needs.
type Conn interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
}

// ListTables returns every table name in the current schema.
func ListTables(ctx context.Context, conn Conn, d dialect.Dialect) ([]string, error) {
	rows, err := conn.QueryContext(ctx, d.TablesQuery())
	if err != nil {
		return nil, fmt.Errorf("failed to query tables: %w", err)
	}
	defer rows.Close()

	var tables []string
	for rows.Next() {
		var name string
		if err := rows.Scan(&name); err != nil {
			return nil, fmt.Errorf("failed to scan table name: %w", err)
		}
		tables = append(tables, name)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating tables: %w", err)
	}
	return tables, nil
}

// TableExists matches the name exactly.
func TableExists(ctx context.Context, conn Conn, d dialect.Dialect, table string) (bool, error) {
	var name string
	err := conn.QueryRowContext(ctx, d.TableExistsQuery(), table).Scan(&name)
	switch {
	case errors.Is(err, sql.ErrNoRows):
		return false, nil
	case err != nil:
		return false, fmt.Errorf("failed to check table %s: %w", table, err)
	}
	return true, nil
}

// ReadTable reads the live structure of one table. Results are never cached;
// every call observes the current metadata.
func ReadTable(ctx context.Context, conn Conn, d dialect.Dialect, table string) (*schema.TableInfo, error) {
	rows, err := conn.QueryContext(ctx, d.ColumnsQuery(), table)
	if err != nil {
		return nil, fmt.Errorf("failed to query columns of %s: %w", table, err)
	}
	defer rows.Close()

	info := schema.NewTableInfo(table)
	for rows.Next() {
		var cName, dType, cLen, isNull, cKey sql.NullString
		if err := rows.Scan(&cName, &dType, &cLen, &isNull, &cKey); err != nil {
			return nil, fmt.Errorf("failed to scan column (table: %s): %w", table, err)
		}
		if !cName.Valid {
			continue
		}

		// Unknown store types stay Invalid; they never compare equal to a
		// declared kind, so the diff treats them as drift or drops them.
		kind, size, _ := schema.ParseColumnType(d.NormalizeType(dType.String))
		if n := parseLength(cLen); n > 0 {
			size = n
		}

		info.Columns[cName.String] = schema.ColumnInfo{
			Name:     cName.String,
			Type:     kind,
			Size:     size,
			Nullable: !isNull.Valid || isNull.String == "YES",
		}
		if strings.Contains(cKey.String, "PRI") {
			info.PrimaryKeys[cName.String] = struct{}{}
		}
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating columns: %w", err)
	}
	return info, nil
}

// parseLength handles drivers that report lengths as integers, decimals or text.
func parseLength(v sql.NullString) int {
	if !v.Valid || v.String == "" {
		return 0
	}
	var length int
	if _, err := fmt.Sscanf(v.String, "%d", &length); err == nil {
		return length
	}
	var fLength float64
	if _, err := fmt.Sscanf(v.String, "%f", &fLength); err == nil {
		return int(fLength)
	}
	return 0
}
