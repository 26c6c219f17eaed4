package schema

import (
	"fmt"
	"sort"
	"strings"
	"time"
)

// RollPolicy decides how a record type maps to physical tables over time.
type RollPolicy int

const (
	Never RollPolicy = iota
	Daily
	Monthly
	Yearly
)

var rollNames = [...]string{Never: "never", Daily: "day", Monthly: "month", Yearly: "year"}

func (p RollPolicy) String() string {
	if p.Valid() {
		return rollNames[p]
	}
	return fmt.Sprintf("roll(%d)", int(p))
}

func (p RollPolicy) Valid() bool { return p >= Never && p <= Yearly }

// Layout returns the time layout of the table-name suffix.
func (p RollPolicy) Layout() string {
	switch p {
	case Daily:
		return "20060102"
	case Monthly:
		return "200601"
	case Yearly:
		return "2006"
	}
	return ""
}

// ParseRollPolicy accepts "day", "daily", "DAY_ROLL" and similar spellings.
func ParseRollPolicy(s string) (RollPolicy, error) {
	switch strings.TrimSuffix(strings.ToLower(strings.TrimSpace(s)), "_roll") {
	case "", "never", "none", "static":
		return Never, nil
	case "day", "daily":
		return Daily, nil
	case "month", "monthly":
		return Monthly, nil
	case "year", "yearly":
		return Yearly, nil
	}
	return Never, fmt.Errorf("unknown roll policy %q", s)
}

// PhysicalName is the table holding rows of rt written at t. The suffix is
// formatted in t's location.
func PhysicalName(rt *RecordType, t time.Time) string {
	if layout := rt.Roll().Layout(); layout != "" {
		return rt.Stem() + t.Format(layout)
	}
	return rt.Stem()
}

// Namer computes table names in a fixed location.
type Namer struct {
	Location *time.Location
}

func (n Namer) loc() *time.Location {
	if n.Location == nil {
		return time.Local
	}
	return n.Location
}

// PhysicalName is the table for a unix-millisecond timestamp.
func (n Namer) PhysicalName(rt *RecordType, millis int64) string {
	return PhysicalName(rt, time.UnixMilli(millis).In(n.loc()))
}

// RelativeNames lists every table that can hold rows written within
// [start, end], in unix milliseconds. The cursor starts at the bucket that
// contains start, so that bucket's table is always included.
func (n Namer) RelativeNames(rt *RecordType, start, end int64) []string {
	if rt.Roll() == Never {
		return []string{rt.Stem()}
	}
	if start > end {
		return nil
	}
	t := time.UnixMilli(start).In(n.loc())
	last := time.UnixMilli(end).In(n.loc())

	var cursor time.Time
	var step func(time.Time) time.Time
	switch rt.Roll() {
	case Daily:
		cursor = time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, t.Location())
		step = func(c time.Time) time.Time { return c.AddDate(0, 0, 1) }
	case Monthly:
		cursor = time.Date(t.Year(), t.Month(), 1, 0, 0, 0, 0, t.Location())
		step = func(c time.Time) time.Time { return c.AddDate(0, 1, 0) }
	case Yearly:
		cursor = time.Date(t.Year(), time.January, 1, 0, 0, 0, 0, t.Location())
		step = func(c time.Time) time.Time { return c.AddDate(1, 0, 0) }
	default:
		return nil
	}

	seen := make(map[string]struct{})
	var names []string
	for !cursor.After(last) {
		name := PhysicalName(rt, cursor)
		if _, ok := seen[name]; !ok {
			seen[name] = struct{}{}
			names = append(names, name)
		}
		cursor = step(cursor)
	}
	sort.Strings(names)
	return names
}

// BelongsTo reports whether a physical table name is a partition of rt:
// the stem followed by a suffix of the policy's length made of digits, or
// the bare stem for Never.
func BelongsTo(rt *RecordType, table string) bool {
	rest, ok := strings.CutPrefix(strings.ToLower(table), rt.Stem())
	if !ok {
		return false
	}
	layout := rt.Roll().Layout()
	if len(rest) != len(layout) {
		return false
	}
	for _, c := range rest {
		if c < '0' || c > '9' {
			return false
		}
	}
	return true
}
