package dialect

import (
	"errors"

	"db-recorder/internal/schema"
)

// ErrUnsupported is returned for statements a store cannot express.
var ErrUnsupported = errors.New("statement not supported by dialect")

// PrimaryKey is the engine-managed surrogate key added to every table the
// recorder creates.
const PrimaryKey = "pk_id"

// TableOptions carries store-specific CREATE TABLE settings.
type TableOptions struct {
	Engine  string
	Charset string
	Comment string
}

// Dialect abstracts database-specific operations.
type Dialect interface {
	Name() string

	// Metadata Queries (Schema Introspection)
	// TablesQuery takes no argument and yields table names.
	TablesQuery() string
	// TableExistsQuery takes the table name and yields at most one row.
	TableExistsQuery() string
	// ColumnsQuery takes the table name and yields
	// name, type, length, nullable (YES/NO), key (PRI or empty).
	ColumnsQuery() string

	// Type mapping
	// NormalizeType maps a driver spelling to a canonical keyword, which
	// may carry a "(size)" suffix.
	NormalizeType(sqlType string) string
	// StoredType is the kind the store keeps a declared kind as.
	StoredType(t schema.SQLType) schema.SQLType
	ColumnType(c schema.ColumnInfo) string

	// Query Generation
	CreateTableQuery(table string, cols []schema.ColumnInfo, opts TableOptions) string
	AddColumnQuery(table string, c schema.ColumnInfo) string
	DropColumnQuery(table, column string) string
	ModifyColumnQuery(table string, c schema.ColumnInfo) (string, error)
	InsertQuery(table string, cols []string) string
	Placeholder(index int) string // Returns ?, $1, @p1, etc.
	QuoteIdent(name string) string

	// Helpers
	GetLimitRowQuery(query string, offset, limit int) string
}
