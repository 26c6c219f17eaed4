package dialect

import (
	"fmt"
	"strings"

	"db-recorder/internal/schema"
)

// SqliteDialect targets modernc.org/sqlite. SQLite keeps the declared type
// name verbatim, so kinds round-trip unchanged.
type SqliteDialect struct{}

func (d *SqliteDialect) Name() string { return "sqlite" }

func (d *SqliteDialect) TablesQuery() string {
	return `SELECT name FROM sqlite_master WHERE type = 'table' AND name NOT LIKE 'sqlite_%'`
}

func (d *SqliteDialect) TableExistsQuery() string {
	return `SELECT name FROM sqlite_master WHERE type = 'table' AND name = ?`
}

func (d *SqliteDialect) ColumnsQuery() string {
	return `SELECT name, type, NULL, CASE WHEN "notnull" = 0 THEN 'YES' ELSE 'NO' END, CASE WHEN pk > 0 THEN 'PRI' ELSE '' END FROM pragma_table_info(?) ORDER BY cid`
}

func (d *SqliteDialect) NormalizeType(sqlType string) string {
	return DefaultNormalizeType(sqlType)
}

func (d *SqliteDialect) StoredType(t schema.SQLType) schema.SQLType {
	return t
}

func (d *SqliteDialect) ColumnType(c schema.ColumnInfo) string {
	return withSize(strings.ToUpper(c.Type.String()), DefaultSize(c))
}

func (d *SqliteDialect) CreateTableQuery(table string, cols []schema.ColumnInfo, opts TableOptions) string {
	var sb strings.Builder
	fmt.Fprintf(&sb, "CREATE TABLE IF NOT EXISTS %s (\n%s INTEGER PRIMARY KEY AUTOINCREMENT", d.QuoteIdent(table), d.QuoteIdent(PrimaryKey))
	for _, c := range cols {
		fmt.Fprintf(&sb, ",\n%s %s", d.QuoteIdent(c.Name), d.ColumnType(c))
	}
	sb.WriteString(")")
	return sb.String()
}

func (d *SqliteDialect) AddColumnQuery(table string, c schema.ColumnInfo) string {
	return fmt.Sprintf("ALTER TABLE %s ADD COLUMN %s %s", d.QuoteIdent(table), d.QuoteIdent(c.Name), d.ColumnType(c))
}

func (d *SqliteDialect) DropColumnQuery(table, column string) string {
	return fmt.Sprintf("ALTER TABLE %s DROP COLUMN %s", d.QuoteIdent(table), d.QuoteIdent(column))
}

// ModifyColumnQuery is unsupported: SQLite cannot change a column's type in place.
func (d *SqliteDialect) ModifyColumnQuery(table string, c schema.ColumnInfo) (string, error) {
	return "", fmt.Errorf("modify column %s.%s: %w", table, c.Name, ErrUnsupported)
}

func (d *SqliteDialect) InsertQuery(table string, cols []string) string {
	vals := GeneratePlaceholders(len(cols), d.Placeholder)
	return fmt.Sprintf("INSERT INTO %s (%s) VALUES (%s)", d.QuoteIdent(table), QuoteList(d, cols), vals)
}

func (d *SqliteDialect) Placeholder(index int) string {
	return "?"
}

func (d *SqliteDialect) QuoteIdent(name string) string {
	return `"` + strings.ReplaceAll(name, `"`, `""`) + `"`
}

func (d *SqliteDialect) GetLimitRowQuery(query string, offset, limit int) string {
	return fmt.Sprintf("%s LIMIT %d OFFSET %d", query, limit, offset)
}
