package dialect

import (
	"fmt"
	"strings"

	"github.com/lib/pq"

	"db-recorder/internal/schema"
)

type PostgresDialect struct{}

func (d *PostgresDialect) Name() string { return "postgres" }

func (d *PostgresDialect) TablesQuery() string {
	return `SELECT table_name FROM information_schema.tables WHERE table_schema = current_schema() AND table_type = 'BASE TABLE'`
}

func (d *PostgresDialect) TableExistsQuery() string {
	return `SELECT table_name FROM information_schema.tables WHERE table_schema = current_schema() AND table_name = $1`
}

func (d *PostgresDialect) ColumnsQuery() string {
	// udt_name is the short spelling (int4, varchar, ...), easier to map than data_type.
	return `SELECT
    c.column_name,
    c.udt_name,
    COALESCE(c.character_maximum_length, c.numeric_precision),
    c.is_nullable,
    CASE WHEN EXISTS (
        SELECT 1 FROM information_schema.table_constraints tc
        JOIN information_schema.key_column_usage kcu
          ON tc.constraint_name = kcu.constraint_name AND tc.table_schema = kcu.table_schema
        WHERE tc.constraint_type = 'PRIMARY KEY'
          AND kcu.table_schema = c.table_schema AND kcu.table_name = c.table_name AND kcu.column_name = c.column_name
    ) THEN 'PRI' ELSE '' END
FROM information_schema.columns c
WHERE c.table_schema = current_schema() AND c.table_name = $1
ORDER BY c.ordinal_position`
}

func (d *PostgresDialect) NormalizeType(sqlType string) string {
	t := DefaultNormalizeType(sqlType)
	switch t {
	case "int2":
		return "smallint"
	case "int4", "serial", "serial4":
		return "integer"
	case "int8", "bigserial", "serial8":
		return "bigint"
	case "bool":
		return "bit"
	case "float4":
		return "real"
	case "float8":
		return "double"
	case "bpchar":
		return "char"
	case "timestamptz":
		return "timestamp"
	case "timetz":
		return "time"
	case "bytea":
		return "blob"
	case "json", "jsonb", "uuid", "citext":
		return "text"
	default:
		return t
	}
}

func (d *PostgresDialect) StoredType(t schema.SQLType) schema.SQLType {
	switch t {
	case schema.Tinyint:
		return schema.Smallint
	case schema.Mediumint, schema.Int:
		return schema.Integer
	case schema.Float:
		return schema.Real
	case schema.Decimal:
		return schema.Numeric
	case schema.Year:
		return schema.Smallint
	case schema.Datetime:
		return schema.Timestamp
	case schema.Tinyblob, schema.Mediumblob, schema.Longblob, schema.Binary, schema.Varbinary:
		return schema.Blob
	case schema.Tinytext, schema.Mediumtext, schema.Longtext, schema.Enum, schema.Set:
		return schema.Text
	}
	return t
}

func (d *PostgresDialect) ColumnType(c schema.ColumnInfo) string {
	switch d.StoredType(c.Type) {
	case schema.Smallint:
		return "SMALLINT"
	case schema.Integer:
		return "INTEGER"
	case schema.Bigint:
		return "BIGINT"
	case schema.Bit:
		return "BOOLEAN"
	case schema.Real:
		return "REAL"
	case schema.Double:
		return "DOUBLE PRECISION"
	case schema.Numeric:
		return withSize("NUMERIC", c.Size)
	case schema.Char:
		return withSize("CHAR", DefaultSize(c))
	case schema.Varchar:
		return withSize("VARCHAR", DefaultSize(c))
	case schema.Date:
		return "DATE"
	case schema.Time:
		return "TIME"
	case schema.Timestamp:
		return "TIMESTAMP"
	case schema.Blob:
		return "BYTEA"
	default:
		return "TEXT"
	}
}

func (d *PostgresDialect) CreateTableQuery(table string, cols []schema.ColumnInfo, opts TableOptions) string {
	var sb strings.Builder
	fmt.Fprintf(&sb, "CREATE TABLE IF NOT EXISTS %s (\n%s SERIAL PRIMARY KEY", d.QuoteIdent(table), d.QuoteIdent(PrimaryKey))
	for _, c := range cols {
		fmt.Fprintf(&sb, ",\n%s %s NULL", d.QuoteIdent(c.Name), d.ColumnType(c))
	}
	sb.WriteString(")")
	return sb.String()
}

func (d *PostgresDialect) AddColumnQuery(table string, c schema.ColumnInfo) string {
	return fmt.Sprintf("ALTER TABLE %s ADD COLUMN %s %s NULL", d.QuoteIdent(table), d.QuoteIdent(c.Name), d.ColumnType(c))
}

func (d *PostgresDialect) DropColumnQuery(table, column string) string {
	return fmt.Sprintf("ALTER TABLE %s DROP COLUMN %s", d.QuoteIdent(table), d.QuoteIdent(column))
}

func (d *PostgresDialect) ModifyColumnQuery(table string, c schema.ColumnInfo) (string, error) {
	typ := d.ColumnType(c)
	col := d.QuoteIdent(c.Name)
	return fmt.Sprintf("ALTER TABLE %s ALTER COLUMN %s TYPE %s USING %s::%s", d.QuoteIdent(table), col, typ, col, typ), nil
}

func (d *PostgresDialect) InsertQuery(table string, cols []string) string {
	// Generate placeholders ($1, $2, ...)
	vals := GeneratePlaceholders(len(cols), d.Placeholder)
	return fmt.Sprintf("INSERT INTO %s (%s) VALUES (%s)", d.QuoteIdent(table), QuoteList(d, cols), vals)
}

func (d *PostgresDialect) Placeholder(index int) string {
	return fmt.Sprintf("$%d", index+1)
}

func (d *PostgresDialect) QuoteIdent(name string) string {
	return pq.QuoteIdentifier(name)
}

func (d *PostgresDialect) GetLimitRowQuery(query string, offset, limit int) string {
	return fmt.Sprintf("%s LIMIT %d OFFSET %d", query, limit, offset)
}
