package schema_test

import (
	"errors"
	"reflect"
	"testing"

	"db-recorder/internal/schema"
)

var timeBased = schema.NewRecordType("TimeBasedLog", schema.Never).
	Abstract().
	Bigint("createTime", "record time").
	MustBuild()

func TestBuild_ExtendPrependsBaseFields(t *testing.T) {
	rt := schema.NewRecordType("UserLog", schema.Daily).
		Varchar("name", 255, "user name").
		Extend(timeBased).
		Int("age", "user age").
		MustBuild()

	want := []string{"createTime", "name", "age"}
	if got := rt.FieldNames(); !reflect.DeepEqual(got, want) {
		t.Errorf("expected %v, got %v", want, got)
	}
	if rt.IsAbstract() {
		t.Error("derived type must not inherit abstract")
	}
	if !timeBased.IsAbstract() {
		t.Error("base type should be abstract")
	}
}

func TestBuild_Rejects(t *testing.T) {
	cases := map[string]*schema.Builder{
		"bad type name": schema.NewRecordType("user-log", schema.Daily).Int("a", ""),
		"no fields":     schema.NewRecordType("Empty", schema.Daily),
		"bad field":     schema.NewRecordType("UserLog", schema.Daily).Int("first name", ""),
		"duplicate":     schema.NewRecordType("UserLog", schema.Daily).Int("a", "").Int("a", ""),
		"no sql type":   schema.NewRecordType("UserLog", schema.Daily).Field("a", schema.Invalid, 0, ""),
		"bad roll":      schema.NewRecordType("UserLog", schema.RollPolicy(9)).Int("a", ""),
		"nil base":      schema.NewRecordType("UserLog", schema.Daily).Extend(nil).Int("a", ""),
	}
	for name, b := range cases {
		if _, err := b.Build(); !errors.Is(err, schema.ErrInvalidRecordType) {
			t.Errorf("%s: expected ErrInvalidRecordType, got %v", name, err)
		}
	}
}

func TestBuild_IsImmutable(t *testing.T) {
	b := schema.NewRecordType("UserLog", schema.Daily).Int("age", "")
	rt := b.MustBuild()
	b.Int("late", "")

	if rt.NumField() != 1 {
		t.Errorf("built type changed after further declarations: %v", rt.FieldNames())
	}
	cols := rt.Columns()
	cols[0].Name = "mutated"
	if rt.Columns()[0].Name != "age" {
		t.Error("Columns must return a copy")
	}
}

func TestRow_ValuesFollowDeclarationOrder(t *testing.T) {
	rt := userLogType("UserLog", schema.Daily)
	row := schema.NewRow(rt).Set("address", "Main St").Set("name", "hank").Set("age", 30)

	want := []any{"hank", 30, "Main St"}
	if got := row.Values(); !reflect.DeepEqual(got, want) {
		t.Errorf("expected %v, got %v", want, got)
	}
	if got := row.String(); got != "UserLog{name=hank, age=30, address=Main St}" {
		t.Errorf("unexpected String(): %s", got)
	}
}

func TestParseColumnType(t *testing.T) {
	cases := []struct {
		in   string
		typ  schema.SQLType
		size int
	}{
		{"VARCHAR(255)", schema.Varchar, 255},
		{"int", schema.Int, 0},
		{"decimal(10,2)", schema.Decimal, 10},
		{"int unsigned", schema.Int, 0},
		{"LONGTEXT", schema.Longtext, 0},
	}
	for _, c := range cases {
		typ, size, err := schema.ParseColumnType(c.in)
		if err != nil {
			t.Errorf("%q: %v", c.in, err)
			continue
		}
		if typ != c.typ || size != c.size {
			t.Errorf("%q: expected %s(%d), got %s(%d)", c.in, c.typ, c.size, typ, size)
		}
	}
	if _, _, err := schema.ParseColumnType("geometry"); err == nil {
		t.Error("expected error for unknown type")
	}
}

func TestAnalyzeMeaning(t *testing.T) {
	cases := []struct{ col, comment, want string }{
		{"name", "user name", "name"},
		{"msg", "chat message", "message"},
		{"createTime", "record time", "date"},
		{"usr_addr", "", "user address"},
		{"lvl", "", "level"},
	}
	for _, c := range cases {
		if got := schema.AnalyzeMeaning(c.col, c.comment); got != c.want {
			t.Errorf("AnalyzeMeaning(%q, %q): expected %q, got %q", c.col, c.comment, c.want, got)
		}
	}
}
