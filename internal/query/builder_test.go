package query

import (
	"errors"
	"reflect"
	"strings"
	"testing"

	"db-recorder/internal/dialect"
)

func TestBuildSimple(t *testing.T) {
	q, args, err := New().
		Select("name", "age").
		Tables("userlog20170727").
		Where(Where().Eq("name", "hank").And().Gt("age", 18, true)).
		OrderBy("age", true).
		Limit(0, 10).
		Build()
	if err != nil {
		t.Fatal(err)
	}
	want := "select name, age from userlog20170727 where name = ? and age >= ? order by age desc limit 10 offset 0"
	if q != want {
		t.Errorf("expected %q, got %q", want, q)
	}
	if !reflect.DeepEqual(args, []any{"hank", 18}) {
		t.Errorf("unexpected args: %v", args)
	}
}

func TestBuildGroupsAndLike(t *testing.T) {
	cond := Where().
		Group().Eq("a", 1).Or().NotEq("b", 2).End().
		And().Like("name", "ha", false, true)
	q, args, err := New().Select("count(*)").Tables("t").Where(cond).GroupBy("a").Build()
	if err != nil {
		t.Fatal(err)
	}
	if q != "select count(*) from t where (a = ? or b != ?) and name like ? group by a" {
		t.Errorf("got %q", q)
	}
	if !reflect.DeepEqual(args, []any{1, 2, "ha%"}) {
		t.Errorf("unexpected args: %v", args)
	}
}

func TestBuildSubqueryAndUnion(t *testing.T) {
	day1 := New().Select("*").Tables("userlog20170727").Where(Where().Lt("age", 30, false))
	day2 := New().Select("*").Tables("userlog20170728").Where(Where().Eq("age", 40))
	day1.UnionAll(day2)

	q, args, err := New().Select("count(*)").Subquery(day1, "u").Build()
	if err != nil {
		t.Fatal(err)
	}
	want := "select count(*) from (select * from userlog20170727 where age < ? union all select * from userlog20170728 where age = ?) as u"
	if q != want {
		t.Errorf("expected %q, got %q", want, q)
	}
	if !reflect.DeepEqual(args, []any{30, 40}) {
		t.Errorf("unexpected args: %v", args)
	}
}

func TestBuildForDialect(t *testing.T) {
	b := New().Select("*").Tables("t").Where(Where().Eq("a", 1).And().Eq("b", 2)).Limit(5, 10)
	q, _, err := b.BuildFor(&dialect.PostgresDialect{})
	if err != nil {
		t.Fatal(err)
	}
	if q != "select * from t where a = $1 and b = $2 LIMIT 10 OFFSET 5" {
		t.Errorf("got %q", q)
	}
}

func TestBuildErrors(t *testing.T) {
	self := New().Select("*").Tables("t")
	self.UnionAll(self)

	cases := []struct {
		name string
		b    *Builder
		want error
	}{
		{"no selection", New().Tables("t"), ErrNoSelection},
		{"no table", New().Select("*"), ErrNoTable},
		{"self union", self, ErrSelf},
		{"unbalanced", New().Select("*").Tables("t").Where(Where().Group().Eq("a", 1)), ErrUnbalanced},
		{"dangling", New().Select("*").Tables("t").Where(Where().Eq("a", 1).And()), ErrDangling},
		{"double connective", New().Select("*").Tables("t").Where(Where().Eq("a", 1).And().Or().Eq("b", 1)), ErrDangling},
		{"missing connective", New().Select("*").Tables("t").Where(Where().Eq("a", 1).Eq("b", 2)), ErrDangling},
		{"leading connective", New().Select("*").Tables("t").Where(Where().And().Eq("a", 1)), ErrDangling},
		{"connective opens group", New().Select("*").Tables("t").Where(Where().Group().Or().Eq("a", 1).End()), ErrDangling},
		{"group after operand", New().Select("*").Tables("t").Where(Where().Eq("a", 1).Group().Eq("b", 2).End()), ErrDangling},
		{"empty group", New().Select("*").Tables("t").Where(Where().Group().End()), ErrDangling},
		{"end without group", New().Select("*").Tables("t").Where(Where().Eq("a", 1).End()), ErrUnbalanced},
	}
	for _, c := range cases {
		if _, _, err := c.b.Build(); !errors.Is(err, c.want) {
			t.Errorf("%s: expected %v, got %v", c.name, c.want, err)
		}
	}
}

func TestBuildUnionWrapsPagedMembers(t *testing.T) {
	day1 := New().Select("*").Tables("userlog20170727").OrderBy("pk_id", true).Limit(0, 5)
	day2 := New().Select("*").Tables("userlog20170728").Where(Where().Eq("age", 40))
	day3 := New().Select("*").Tables("userlog20170729").Limit(10, 5)
	day1.UnionAll(day2).UnionAll(day3)

	q, args, err := day1.Build()
	if err != nil {
		t.Fatal(err)
	}
	want := "select * from (select * from userlog20170727 order by pk_id desc limit 5 offset 0) u_0" +
		" union all select * from userlog20170728 where age = ?" +
		" union all select * from (select * from userlog20170729 limit 5 offset 10) u_2"
	if q != want {
		t.Errorf("got  %q\nwant %q", q, want)
	}
	if !reflect.DeepEqual(args, []any{40}) {
		t.Errorf("unexpected args: %v", args)
	}

	mysql, _, err := day1.BuildFor(&dialect.MysqlDialect{})
	if err != nil {
		t.Fatal(err)
	}
	if !strings.HasPrefix(mysql, "select * from (select * from userlog20170727 order by pk_id desc LIMIT 0, 5) u_0 union all") {
		t.Errorf("unexpected mysql union: %q", mysql)
	}
}
