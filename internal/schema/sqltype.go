package schema

import (
	"fmt"
	"strconv"
	"strings"
)

// SQLType is a portable SQL scalar kind. Members are compared directly;
// the keyword is only used for rendering and parsing.
type SQLType int

const (
	Invalid SQLType = iota
	Tinyint
	Smallint
	Mediumint
	Int
	Integer
	Bigint
	Bit
	Real
	Double
	Float
	Decimal
	Numeric
	Char
	Varchar
	Date
	Time
	Year
	Timestamp
	Datetime
	Tinyblob
	Blob
	Mediumblob
	Longblob
	Tinytext
	Text
	Mediumtext
	Longtext
	Enum
	Set
	Binary
	Varbinary
)

var keywords = [...]string{
	Invalid:    "invalid",
	Tinyint:    "tinyint",
	Smallint:   "smallint",
	Mediumint:  "mediumint",
	Int:        "int",
	Integer:    "integer",
	Bigint:     "bigint",
	Bit:        "bit",
	Real:       "real",
	Double:     "double",
	Float:      "float",
	Decimal:    "decimal",
	Numeric:    "numeric",
	Char:       "char",
	Varchar:    "varchar",
	Date:       "date",
	Time:       "time",
	Year:       "year",
	Timestamp:  "timestamp",
	Datetime:   "datetime",
	Tinyblob:   "tinyblob",
	Blob:       "blob",
	Mediumblob: "mediumblob",
	Longblob:   "longblob",
	Tinytext:   "tinytext",
	Text:       "text",
	Mediumtext: "mediumtext",
	Longtext:   "longtext",
	Enum:       "enum",
	Set:        "set",
	Binary:     "binary",
	Varbinary:  "varbinary",
}

var byKeyword = func() map[string]SQLType {
	m := make(map[string]SQLType, len(keywords))
	for t, kw := range keywords {
		if SQLType(t) != Invalid {
			m[kw] = SQLType(t)
		}
	}
	return m
}()

// String returns the canonical dialect keyword.
func (t SQLType) String() string {
	if t < 0 || int(t) >= len(keywords) {
		return "sqltype(" + strconv.Itoa(int(t)) + ")"
	}
	return keywords[t]
}

// Valid reports whether t is a member of the enumeration.
func (t SQLType) Valid() bool {
	return t > Invalid && int(t) < len(keywords)
}

// IsIntegerFamily reports whether t belongs to the int stem (int, integer).
func (t SQLType) IsIntegerFamily() bool {
	return t.Valid() && strings.HasPrefix(t.String(), Int.String())
}

// AllTypes returns every valid SQLType in declaration order.
func AllTypes() []SQLType {
	out := make([]SQLType, 0, len(keywords)-1)
	for t := Tinyint; int(t) < len(keywords); t++ {
		out = append(out, t)
	}
	return out
}

// ParseSQLType resolves a keyword case-insensitively.
func ParseSQLType(s string) (SQLType, error) {
	if t, ok := byKeyword[strings.ToLower(strings.TrimSpace(s))]; ok {
		return t, nil
	}
	return Invalid, fmt.Errorf("unknown sql type %q", s)
}

// ParseColumnType splits a column type such as "VARCHAR(255)" or
// "decimal(10,2) unsigned" into its kind and leading size.
func ParseColumnType(s string) (SQLType, int, error) {
	s = strings.ToLower(strings.TrimSpace(s))
	size := 0
	name := s
	if i := strings.IndexByte(s, '('); i >= 0 {
		name = s[:i]
		rest := s[i+1:]
		if j := strings.IndexAny(rest, ",)"); j >= 0 {
			if n, err := strconv.Atoi(strings.TrimSpace(rest[:j])); err == nil {
				size = n
			}
		}
	} else if i := strings.IndexByte(s, ' '); i >= 0 {
		name = s[:i]
	}
	t, err := ParseSQLType(name)
	if err != nil {
		return Invalid, 0, err
	}
	return t, size, nil
}
