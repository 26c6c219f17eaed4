// Package query assembles read-side SELECT statements over recorder tables.
// Selections, table names and columns are SQL fragments written as given;
// condition values are always bound parameters.
package query

import (
	"errors"
	"fmt"
	"strings"

	"db-recorder/internal/dialect"
)

var (
	ErrNoSelection = errors.New("no selection item")
	ErrNoTable     = errors.New("no table item")
	ErrSelf        = errors.New("builder can not add itself")
	ErrUnbalanced  = errors.New("unbalanced condition groups")
	ErrDangling    = errors.New("dangling connective")
)

type source struct {
	name  string
	sub   *Builder
	alias string
}

type Builder struct {
	selections []string
	sources    []source
	where      *Cond
	groupBy    []string
	orderBy    []string
	limited    bool
	offset     int
	size       int
	unions     []*Builder
	err        error
}

func New() *Builder { return &Builder{} }

func (b *Builder) Select(items ...string) *Builder {
	b.selections = append(b.selections, items...)
	return b
}

func (b *Builder) Tables(names ...string) *Builder {
	for _, n := range names {
		b.sources = append(b.sources, source{name: n})
	}
	return b
}

// Subquery selects from the result of sub under alias. An empty alias is
// replaced with a generated one.
func (b *Builder) Subquery(sub *Builder, alias string) *Builder {
	if sub == b {
		b.err = errors.Join(b.err, ErrSelf)
		return b
	}
	if alias == "" {
		alias = fmt.Sprintf("sub_%d", len(b.sources))
	}
	b.sources = append(b.sources, source{sub: sub, alias: alias})
	return b
}

func (b *Builder) Where(c *Cond) *Builder {
	b.where = c
	return b
}

func (b *Builder) GroupBy(cols ...string) *Builder {
	b.groupBy = append(b.groupBy, cols...)
	return b
}

func (b *Builder) OrderBy(col string, desc bool) *Builder {
	if desc {
		b.orderBy = append(b.orderBy, col+" desc")
	} else {
		b.orderBy = append(b.orderBy, col+" asc")
	}
	return b
}

func (b *Builder) Limit(offset, size int) *Builder {
	b.limited, b.offset, b.size = true, offset, size
	return b
}

func (b *Builder) UnionAll(o *Builder) *Builder {
	if o == b {
		b.err = errors.Join(b.err, ErrSelf)
		return b
	}
	b.unions = append(b.unions, o)
	return b
}

// Build renders the statement with "?" placeholders and a trailing
// LIMIT/OFFSET clause.
func (b *Builder) Build() (string, []any, error) {
	return b.build(func(q string, offset, size int) string {
		return fmt.Sprintf("%s limit %d offset %d", q, size, offset)
	})
}

// BuildFor renders the statement in d's placeholder and paging syntax.
func (b *Builder) BuildFor(d dialect.Dialect) (string, []any, error) {
	q, args, err := b.build(d.GetLimitRowQuery)
	if err != nil {
		return "", nil, err
	}
	return dialect.Rebind(d, q), args, nil
}

func (b *Builder) build(limit func(string, int, int) string) (string, []any, error) {
	if b.err != nil {
		return "", nil, b.err
	}
	if len(b.selections) == 0 {
		return "", nil, ErrNoSelection
	}
	if len(b.sources) == 0 {
		return "", nil, ErrNoTable
	}

	var args []any
	from := make([]string, len(b.sources))
	for i, s := range b.sources {
		if s.sub == nil {
			from[i] = s.name
			continue
		}
		q, subArgs, err := s.sub.build(limit)
		if err != nil {
			return "", nil, fmt.Errorf("subquery %s: %w", s.alias, err)
		}
		from[i] = "(" + q + ") as " + s.alias
		args = append(args, subArgs...)
	}

	var sb strings.Builder
	fmt.Fprintf(&sb, "select %s from %s", strings.Join(b.selections, ", "), strings.Join(from, ", "))
	if b.where != nil {
		cond, condArgs, err := b.where.Build()
		if err != nil {
			return "", nil, err
		}
		if cond != "" {
			sb.WriteString(" where " + cond)
			args = append(args, condArgs...)
		}
	}
	if len(b.groupBy) > 0 {
		sb.WriteString(" group by " + strings.Join(b.groupBy, ", "))
	}
	if len(b.orderBy) > 0 {
		sb.WriteString(" order by " + strings.Join(b.orderBy, ", "))
	}
	q := sb.String()
	if b.limited {
		q = limit(q, b.offset, b.size)
	}
	if len(b.unions) == 0 {
		return q, args, nil
	}

	q = b.unionMember(q, 0)
	for i, u := range b.unions {
		uq, uArgs, err := u.build(limit)
		if err != nil {
			return "", nil, fmt.Errorf("union: %w", err)
		}
		if len(u.unions) == 0 {
			uq = u.unionMember(uq, i+1)
		}
		q += " union all " + uq
		args = append(args, uArgs...)
	}
	return q, args, nil
}

// unionMember wraps a member whose ORDER BY or paging would otherwise bind
// to the whole union. A derived table works on every store, parenthesized
// compound members do not.
func (b *Builder) unionMember(q string, i int) string {
	if !b.limited && len(b.orderBy) == 0 {
		return q
	}
	return fmt.Sprintf("select * from (%s) u_%d", q, i)
}
