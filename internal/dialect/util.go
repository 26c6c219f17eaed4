package dialect

import (
	"strconv"
	"strings"

	"db-recorder/internal/schema"
)

// GeneratePlaceholders is a helper function to create a slice of placeholder strings.
// It takes the number of placeholders needed and a function that returns the placeholder for a given index.
// It returns a comma-separated string of the generated placeholders.
func GeneratePlaceholders(count int, placeholderFunc func(int) string) string {
	placeholders := make([]string, count)
	for i := 0; i < count; i++ {
		placeholders[i] = placeholderFunc(i)
	}
	return strings.Join(placeholders, ", ")
}

// QuoteList quotes every identifier and joins them with commas.
func QuoteList(d Dialect, names []string) string {
	quoted := make([]string, len(names))
	for i, n := range names {
		quoted[i] = d.QuoteIdent(n)
	}
	return strings.Join(quoted, ", ")
}

// DefaultNormalizeType is a default implementation for type normalization (lowercase).
func DefaultNormalizeType(sqlType string) string {
	return strings.ToLower(strings.TrimSpace(sqlType))
}

// DefaultSize is the rendered size of a column: varchar and char without a
// declared size fall back to 255.
func DefaultSize(c schema.ColumnInfo) int {
	if c.Size > 0 {
		return c.Size
	}
	switch c.Type {
	case schema.Varchar, schema.Char, schema.Varbinary, schema.Binary:
		return 255
	}
	return 0
}

// withSize appends "(n)" when n is positive.
func withSize(kw string, n int) string {
	if n <= 0 {
		return kw
	}
	return kw + "(" + strconv.Itoa(n) + ")"
}

// quoteString renders a SQL string literal with single quotes doubled.
func quoteString(s string) string {
	return "'" + strings.ReplaceAll(s, "'", "''") + "'"
}

// Rebind converts "?" placeholders to the dialect's style. Question marks
// inside single-quoted literals are left alone.
func Rebind(d Dialect, query string) string {
	if d.Placeholder(0) == "?" {
		return query
	}
	var sb strings.Builder
	inQuote := false
	n := 0
	for _, r := range query {
		switch {
		case r == '\'':
			inQuote = !inQuote
			sb.WriteRune(r)
		case r == '?' && !inQuote:
			sb.WriteString(d.Placeholder(n))
			n++
		default:
			sb.WriteRune(r)
		}
	}
	return sb.String()
}
