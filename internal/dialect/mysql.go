package dialect

import (
	"fmt"
	"strings"

	"db-recorder/internal/schema"
)

type MysqlDialect struct{}

func (d *MysqlDialect) Name() string { return "mysql" }

func (d *MysqlDialect) TablesQuery() string {
	return `SELECT TABLE_NAME FROM information_schema.TABLES WHERE TABLE_SCHEMA = DATABASE() AND TABLE_TYPE = 'BASE TABLE'`
}

func (d *MysqlDialect) TableExistsQuery() string {
	// Exact match; SHOW TABLES LIKE would treat '_' in names as a wildcard.
	return `SELECT TABLE_NAME FROM information_schema.TABLES WHERE TABLE_SCHEMA = DATABASE() AND TABLE_NAME = ?`
}

func (d *MysqlDialect) ColumnsQuery() string {
	return `SELECT COLUMN_NAME, DATA_TYPE, COALESCE(CHARACTER_MAXIMUM_LENGTH, NUMERIC_PRECISION), IS_NULLABLE, COLUMN_KEY FROM information_schema.COLUMNS WHERE TABLE_SCHEMA = DATABASE() AND TABLE_NAME = ? ORDER BY ORDINAL_POSITION`
}

func (d *MysqlDialect) NormalizeType(sqlType string) string {
	return DefaultNormalizeType(sqlType)
}

func (d *MysqlDialect) StoredType(t schema.SQLType) schema.SQLType {
	return t
}

func (d *MysqlDialect) ColumnType(c schema.ColumnInfo) string {
	return withSize(strings.ToUpper(c.Type.String()), DefaultSize(c))
}

func (d *MysqlDialect) columnDef(c schema.ColumnInfo) string {
	return fmt.Sprintf("%s %s null comment %s", d.QuoteIdent(c.Name), d.ColumnType(c), quoteString(c.Comment))
}

func (d *MysqlDialect) CreateTableQuery(table string, cols []schema.ColumnInfo, opts TableOptions) string {
	var sb strings.Builder
	fmt.Fprintf(&sb, "create table if not exists %s (\n", d.QuoteIdent(table))
	fmt.Fprintf(&sb, "%s int primary key not null auto_increment", d.QuoteIdent(PrimaryKey))
	for _, c := range cols {
		sb.WriteString(",\n")
		sb.WriteString(d.columnDef(c))
	}
	sb.WriteString(")")
	if opts.Engine != "" {
		fmt.Fprintf(&sb, " engine=%s", opts.Engine)
	}
	sb.WriteString(" auto_increment=1")
	if opts.Charset != "" {
		fmt.Fprintf(&sb, " default charset=%s", opts.Charset)
	}
	if opts.Comment != "" {
		fmt.Fprintf(&sb, " comment %s", quoteString(opts.Comment))
	}
	return sb.String()
}

func (d *MysqlDialect) AddColumnQuery(table string, c schema.ColumnInfo) string {
	return fmt.Sprintf("alter table %s add column %s", d.QuoteIdent(table), d.columnDef(c))
}

func (d *MysqlDialect) DropColumnQuery(table, column string) string {
	return fmt.Sprintf("alter table %s drop column %s", d.QuoteIdent(table), d.QuoteIdent(column))
}

func (d *MysqlDialect) ModifyColumnQuery(table string, c schema.ColumnInfo) (string, error) {
	return fmt.Sprintf("alter table %s modify column %s", d.QuoteIdent(table), d.columnDef(c)), nil
}

func (d *MysqlDialect) InsertQuery(table string, cols []string) string {
	vals := GeneratePlaceholders(len(cols), d.Placeholder)
	return fmt.Sprintf("insert into %s (%s) values (%s)", d.QuoteIdent(table), QuoteList(d, cols), vals)
}

func (d *MysqlDialect) Placeholder(index int) string {
	return "?"
}

func (d *MysqlDialect) QuoteIdent(name string) string {
	return "`" + strings.ReplaceAll(name, "`", "``") + "`"
}

func (d *MysqlDialect) GetLimitRowQuery(query string, offset, limit int) string {
	return fmt.Sprintf("%s LIMIT %d, %d", query, offset, limit)
}
