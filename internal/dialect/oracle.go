package dialect

import (
	"fmt"
	"strings"

	"db-recorder/internal/schema"
)

type OracleDialect struct{}

func (d *OracleDialect) Name() string { return "oracle" }

func (d *OracleDialect) TablesQuery() string {
	// USER_TABLES lists tables owned by the current user.
	return `SELECT TABLE_NAME FROM USER_TABLES`
}

func (d *OracleDialect) TableExistsQuery() string {
	return `SELECT TABLE_NAME FROM USER_TABLES WHERE TABLE_NAME = :1`
}

func (d *OracleDialect) ColumnsQuery() string {
	// NUMBER carries no kind of its own; the precision written by ColumnType
	// maps it back to the integer kind that produced it.
	return `
SELECT
    t.COLUMN_NAME,
    CASE
        WHEN t.DATA_TYPE = 'NUMBER' AND COALESCE(t.DATA_SCALE, 0) > 0 THEN 'DECIMAL'
        WHEN t.DATA_TYPE = 'NUMBER' AND t.DATA_PRECISION = 1 THEN 'BIT'
        WHEN t.DATA_TYPE = 'NUMBER' AND t.DATA_PRECISION = 3 THEN 'TINYINT'
        WHEN t.DATA_TYPE = 'NUMBER' AND t.DATA_PRECISION = 5 THEN 'SMALLINT'
        WHEN t.DATA_TYPE = 'NUMBER' AND t.DATA_PRECISION = 19 THEN 'BIGINT'
        WHEN t.DATA_TYPE = 'NUMBER' THEN 'INTEGER'
        ELSE t.DATA_TYPE
    END,
    CASE WHEN t.DATA_TYPE = 'NUMBER' THEN t.DATA_PRECISION ELSE t.CHAR_LENGTH END,
    CASE WHEN t.NULLABLE = 'Y' THEN 'YES' ELSE 'NO' END,
    CASE WHEN p.CONSTRAINT_NAME IS NOT NULL THEN 'PRI' ELSE '' END
FROM USER_TAB_COLUMNS t
LEFT JOIN (
    SELECT cc.TABLE_NAME, cc.COLUMN_NAME, cc.CONSTRAINT_NAME
    FROM USER_CONS_COLUMNS cc
    JOIN USER_CONSTRAINTS uc ON cc.CONSTRAINT_NAME = uc.CONSTRAINT_NAME
    WHERE uc.CONSTRAINT_TYPE = 'P'
) p ON t.TABLE_NAME = p.TABLE_NAME AND t.COLUMN_NAME = p.COLUMN_NAME
WHERE t.TABLE_NAME = :1
ORDER BY t.COLUMN_ID`
}

func (d *OracleDialect) NormalizeType(sqlType string) string {
	t := DefaultNormalizeType(sqlType)
	switch {
	case strings.HasPrefix(t, "timestamp"):
		return "timestamp"
	case t == "varchar2", t == "nvarchar2":
		return "varchar"
	case t == "nchar":
		return "char"
	case t == "clob", t == "nclob", t == "long":
		return "text"
	case t == "raw", t == "long raw":
		return "varbinary"
	case t == "binary_float":
		return "float"
	case t == "binary_double":
		return "double"
	case t == "number":
		return "decimal"
	}
	return t
}

func (d *OracleDialect) StoredType(t schema.SQLType) schema.SQLType {
	switch t {
	case schema.Mediumint, schema.Int, schema.Year:
		return schema.Integer
	case schema.Real:
		return schema.Float
	case schema.Numeric:
		return schema.Decimal
	case schema.Datetime:
		return schema.Timestamp
	case schema.Time, schema.Enum, schema.Set:
		return schema.Varchar
	case schema.Tinyblob, schema.Mediumblob, schema.Longblob, schema.Binary:
		return schema.Blob
	case schema.Tinytext, schema.Mediumtext, schema.Longtext:
		return schema.Text
	}
	return t
}

func (d *OracleDialect) ColumnType(c schema.ColumnInfo) string {
	switch d.StoredType(c.Type) {
	case schema.Bit:
		return "NUMBER(1)"
	case schema.Tinyint:
		return "NUMBER(3)"
	case schema.Smallint:
		return "NUMBER(5)"
	case schema.Integer:
		return "NUMBER(10)"
	case schema.Bigint:
		return "NUMBER(19)"
	case schema.Float:
		return "BINARY_FLOAT"
	case schema.Double:
		return "BINARY_DOUBLE"
	case schema.Decimal:
		if c.Size > 0 {
			return fmt.Sprintf("NUMBER(%d,2)", c.Size)
		}
		return "NUMBER(38,2)"
	case schema.Char:
		return withSize("CHAR", DefaultSize(c))
	case schema.Varchar:
		size := DefaultSize(c)
		if size == 0 {
			size = 255
		}
		return withSize("VARCHAR2", size)
	case schema.Date:
		return "DATE"
	case schema.Timestamp:
		return "TIMESTAMP"
	case schema.Varbinary:
		return withSize("RAW", DefaultSize(c))
	case schema.Blob:
		return "BLOB"
	default:
		return "CLOB"
	}
}

func (d *OracleDialect) CreateTableQuery(table string, cols []schema.ColumnInfo, opts TableOptions) string {
	var sb strings.Builder
	fmt.Fprintf(&sb, "CREATE TABLE %s (%s NUMBER(10) GENERATED BY DEFAULT AS IDENTITY PRIMARY KEY", d.QuoteIdent(table), d.QuoteIdent(PrimaryKey))
	for _, c := range cols {
		fmt.Fprintf(&sb, ", %s %s NULL", d.QuoteIdent(c.Name), d.ColumnType(c))
	}
	sb.WriteString(")")
	// ORA-00955: name is already used by an existing object.
	return "BEGIN EXECUTE IMMEDIATE " + quoteString(sb.String()) +
		"; EXCEPTION WHEN OTHERS THEN IF SQLCODE != -955 THEN RAISE; END IF; END;"
}

func (d *OracleDialect) AddColumnQuery(table string, c schema.ColumnInfo) string {
	return fmt.Sprintf("ALTER TABLE %s ADD (%s %s NULL)", d.QuoteIdent(table), d.QuoteIdent(c.Name), d.ColumnType(c))
}

func (d *OracleDialect) DropColumnQuery(table, column string) string {
	return fmt.Sprintf("ALTER TABLE %s DROP COLUMN %s", d.QuoteIdent(table), d.QuoteIdent(column))
}

func (d *OracleDialect) ModifyColumnQuery(table string, c schema.ColumnInfo) (string, error) {
	return fmt.Sprintf("ALTER TABLE %s MODIFY (%s %s)", d.QuoteIdent(table), d.QuoteIdent(c.Name), d.ColumnType(c)), nil
}

func (d *OracleDialect) InsertQuery(table string, cols []string) string {
	vals := GeneratePlaceholders(len(cols), d.Placeholder)
	return fmt.Sprintf("INSERT INTO %s (%s) VALUES (%s)", d.QuoteIdent(table), QuoteList(d, cols), vals)
}

func (d *OracleDialect) Placeholder(index int) string {
	return fmt.Sprintf(":%d", index+1)
}

func (d *OracleDialect) QuoteIdent(name string) string {
	return `"` + strings.ReplaceAll(name, `"`, `""`) + `"`
}

func (d *OracleDialect) GetLimitRowQuery(query string, offset, limit int) string {
	// Oracle 12c+ syntax
	return fmt.Sprintf("%s OFFSET %d ROWS FETCH NEXT %d ROWS ONLY", query, offset, limit)
}
