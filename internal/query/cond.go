package query

import "strings"

// token is the kind of the last element written to a Cond.
type token int

const (
	tokNone token = iota
	tokOpen
	tokOperand
	tokConnective
)

// Cond builds a WHERE expression left to right. Comparisons and
// connectives must alternate; groups must be closed before Build.
type Cond struct {
	sb    strings.Builder
	args  []any
	depth int
	last  token
	err   error
}

func Where() *Cond { return &Cond{} }

func (c *Cond) fail(err error) {
	if c.err == nil {
		c.err = err
	}
}

// expectOperand reports an operand that follows another operand with no
// connective in between.
func (c *Cond) expectOperand() {
	if c.last == tokOperand {
		c.fail(ErrDangling)
	}
}

// Group opens a parenthesized sub-expression.
func (c *Cond) Group() *Cond {
	c.expectOperand()
	c.sb.WriteString("(")
	c.depth++
	c.last = tokOpen
	return c
}

// End closes the innermost group.
func (c *Cond) End() *Cond {
	switch {
	case c.depth == 0:
		c.fail(ErrUnbalanced)
	case c.last != tokOperand:
		c.fail(ErrDangling)
	}
	c.sb.WriteString(")")
	c.depth--
	c.last = tokOperand
	return c
}

func (c *Cond) And() *Cond { return c.connect(" and ") }

func (c *Cond) Or() *Cond { return c.connect(" or ") }

func (c *Cond) connect(op string) *Cond {
	if c.last != tokOperand {
		c.fail(ErrDangling)
	}
	c.sb.WriteString(op)
	c.last = tokConnective
	return c
}

func (c *Cond) compare(col, op string, v any) *Cond {
	c.expectOperand()
	c.sb.WriteString(col + " " + op + " ?")
	c.args = append(c.args, v)
	c.last = tokOperand
	return c
}

func (c *Cond) Eq(col string, v any) *Cond { return c.compare(col, "=", v) }

func (c *Cond) NotEq(col string, v any) *Cond { return c.compare(col, "!=", v) }

// Lt compares with < or, when inclusive, <=.
func (c *Cond) Lt(col string, v any, inclusive bool) *Cond {
	if inclusive {
		return c.compare(col, "<=", v)
	}
	return c.compare(col, "<", v)
}

// Gt compares with > or, when inclusive, >=.
func (c *Cond) Gt(col string, v any, inclusive bool) *Cond {
	if inclusive {
		return c.compare(col, ">=", v)
	}
	return c.compare(col, ">", v)
}

// Like matches v with an optional wildcard on either side.
func (c *Cond) Like(col, v string, left, right bool) *Cond {
	if left {
		v = "%" + v
	}
	if right {
		v += "%"
	}
	return c.compare(col, "like", v)
}

func (c *Cond) Build() (string, []any, error) {
	if c.err != nil {
		return "", nil, c.err
	}
	if c.depth != 0 {
		return "", nil, ErrUnbalanced
	}
	if c.last == tokConnective {
		return "", nil, ErrDangling
	}
	return c.sb.String(), c.args, nil
}
