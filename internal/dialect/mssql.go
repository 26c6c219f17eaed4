package dialect

import (
	"fmt"
	"strings"

	"db-recorder/internal/schema"
)

type MSSQLDialect struct{}

// Helper: MSSQL Driver (go-mssqldb) prefers @p1, @p2 named parameters over ?

func (d *MSSQLDialect) Name() string { return "sqlserver" }

func (d *MSSQLDialect) TablesQuery() string {
	return `SELECT TABLE_NAME FROM INFORMATION_SCHEMA.TABLES WHERE TABLE_SCHEMA = SCHEMA_NAME() AND TABLE_TYPE = 'BASE TABLE'`
}

func (d *MSSQLDialect) TableExistsQuery() string {
	return `SELECT TABLE_NAME FROM INFORMATION_SCHEMA.TABLES WHERE TABLE_SCHEMA = SCHEMA_NAME() AND TABLE_NAME = @p1`
}

func (d *MSSQLDialect) ColumnsQuery() string {
	// (max) types report a length of -1; fold that into the type name so
	// NormalizeType can tell nvarchar(max) from nvarchar(n).
	return `
		SELECT
			c.COLUMN_NAME,
			CASE WHEN c.CHARACTER_MAXIMUM_LENGTH = -1 THEN c.DATA_TYPE + '(max)' ELSE c.DATA_TYPE END,
			COALESCE(c.CHARACTER_MAXIMUM_LENGTH, c.NUMERIC_PRECISION),
			c.IS_NULLABLE,
			CASE WHEN pk.COLUMN_NAME IS NOT NULL THEN 'PRI' ELSE '' END
		FROM INFORMATION_SCHEMA.COLUMNS c
		LEFT JOIN (
			SELECT kcu.TABLE_NAME, kcu.COLUMN_NAME
			FROM INFORMATION_SCHEMA.TABLE_CONSTRAINTS tc
			JOIN INFORMATION_SCHEMA.KEY_COLUMN_USAGE kcu
				ON tc.CONSTRAINT_NAME = kcu.CONSTRAINT_NAME
			WHERE tc.CONSTRAINT_TYPE = 'PRIMARY KEY' AND tc.TABLE_SCHEMA = SCHEMA_NAME()
		) pk ON c.TABLE_NAME = pk.TABLE_NAME AND c.COLUMN_NAME = pk.COLUMN_NAME
		WHERE c.TABLE_SCHEMA = SCHEMA_NAME() AND c.TABLE_NAME = @p1
		ORDER BY c.ORDINAL_POSITION
	`
}

func (d *MSSQLDialect) NormalizeType(sqlType string) string {
	t := DefaultNormalizeType(sqlType)
	switch t {
	case "nvarchar(max)", "varchar(max)", "ntext", "text", "xml":
		return "text"
	case "varbinary(max)", "image":
		return "blob"
	case "nvarchar", "varchar":
		return "varchar"
	case "nchar", "char":
		return "char"
	case "float":
		return "double"
	case "numeric", "money", "smallmoney":
		return "decimal"
	case "datetime", "datetime2", "smalldatetime", "datetimeoffset":
		return "datetime"
	case "uniqueidentifier":
		return "char"
	default:
		return t
	}
}

func (d *MSSQLDialect) StoredType(t schema.SQLType) schema.SQLType {
	switch t {
	case schema.Mediumint, schema.Integer:
		return schema.Int
	case schema.Float:
		return schema.Double
	case schema.Numeric:
		return schema.Decimal
	case schema.Year:
		return schema.Smallint
	case schema.Timestamp:
		return schema.Datetime
	case schema.Tinyblob, schema.Mediumblob, schema.Longblob:
		return schema.Blob
	case schema.Tinytext, schema.Mediumtext, schema.Longtext, schema.Enum, schema.Set:
		return schema.Text
	}
	return t
}

func (d *MSSQLDialect) ColumnType(c schema.ColumnInfo) string {
	switch d.StoredType(c.Type) {
	case schema.Tinyint:
		return "TINYINT"
	case schema.Smallint:
		return "SMALLINT"
	case schema.Int:
		return "INT"
	case schema.Bigint:
		return "BIGINT"
	case schema.Bit:
		return "BIT"
	case schema.Real:
		return "REAL"
	case schema.Double:
		return "FLOAT"
	case schema.Decimal:
		return withSize("DECIMAL", c.Size)
	case schema.Char:
		return withSize("NCHAR", DefaultSize(c))
	case schema.Varchar:
		return withSize("NVARCHAR", DefaultSize(c))
	case schema.Date:
		return "DATE"
	case schema.Time:
		return "TIME"
	case schema.Datetime:
		return "DATETIME2"
	case schema.Binary:
		return withSize("BINARY", DefaultSize(c))
	case schema.Varbinary:
		return withSize("VARBINARY", DefaultSize(c))
	case schema.Blob:
		return "VARBINARY(MAX)"
	default:
		return "NVARCHAR(MAX)"
	}
}

func (d *MSSQLDialect) CreateTableQuery(table string, cols []schema.ColumnInfo, opts TableOptions) string {
	var sb strings.Builder
	fmt.Fprintf(&sb, "IF OBJECT_ID(%s, N'U') IS NULL CREATE TABLE %s (\n%s INT IDENTITY(1,1) PRIMARY KEY",
		"N"+quoteString(table), d.QuoteIdent(table), d.QuoteIdent(PrimaryKey))
	for _, c := range cols {
		fmt.Fprintf(&sb, ",\n%s %s NULL", d.QuoteIdent(c.Name), d.ColumnType(c))
	}
	sb.WriteString(")")
	return sb.String()
}

func (d *MSSQLDialect) AddColumnQuery(table string, c schema.ColumnInfo) string {
	return fmt.Sprintf("ALTER TABLE %s ADD %s %s NULL", d.QuoteIdent(table), d.QuoteIdent(c.Name), d.ColumnType(c))
}

func (d *MSSQLDialect) DropColumnQuery(table, column string) string {
	return fmt.Sprintf("ALTER TABLE %s DROP COLUMN %s", d.QuoteIdent(table), d.QuoteIdent(column))
}

func (d *MSSQLDialect) ModifyColumnQuery(table string, c schema.ColumnInfo) (string, error) {
	return fmt.Sprintf("ALTER TABLE %s ALTER COLUMN %s %s NULL", d.QuoteIdent(table), d.QuoteIdent(c.Name), d.ColumnType(c)), nil
}

func (d *MSSQLDialect) InsertQuery(table string, cols []string) string {
	vals := GeneratePlaceholders(len(cols), d.Placeholder)
	return fmt.Sprintf("INSERT INTO %s (%s) VALUES (%s)", d.QuoteIdent(table), QuoteList(d, cols), vals)
}

func (d *MSSQLDialect) Placeholder(index int) string {
	return fmt.Sprintf("@p%d", index+1)
}

func (d *MSSQLDialect) QuoteIdent(name string) string {
	return "[" + strings.ReplaceAll(name, "]", "]]") + "]"
}

func (d *MSSQLDialect) GetLimitRowQuery(query string, offset, limit int) string {
	trimmed := strings.TrimSpace(query)
	if offset == 0 && strings.HasPrefix(strings.ToUpper(trimmed), "SELECT") {
		// Simple T-SQL TOP injection. Only the first SELECT is rewritten.
		return "SELECT TOP " + fmt.Sprint(limit) + trimmed[len("SELECT"):]
	}
	// OFFSET/FETCH requires an ORDER BY in the query.
	return fmt.Sprintf("%s OFFSET %d ROWS FETCH NEXT %d ROWS ONLY", query, offset, limit)
}
