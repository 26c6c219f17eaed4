package schema_test

import (
	"reflect"
	"testing"
	"time"

	"db-recorder/internal/schema"
)

func userLogType(name string, roll schema.RollPolicy) *schema.RecordType {
	return schema.NewRecordType(name, roll).
		Varchar("name", 255, "user name").
		Int("age", "user age").
		Varchar("address", 255, "user address").
		MustBuild()
}

func TestPhysicalName(t *testing.T) {
	n := schema.Namer{Location: time.UTC}
	const ts = 1501138771000 // 2017-07-27 06:59:31 UTC

	cases := []struct {
		rt   *schema.RecordType
		want string
	}{
		{userLogType("UserLog", schema.Daily), "userlog20170727"},
		{userLogType("UserLog2", schema.Monthly), "userlog2201707"},
		{userLogType("UserLog3", schema.Yearly), "userlog32017"},
		{userLogType("UserLog4", schema.Never), "userlog4"},
	}
	for _, c := range cases {
		if got := n.PhysicalName(c.rt, ts); got != c.want {
			t.Errorf("%s: expected %s, got %s", c.rt.Name(), c.want, got)
		}
	}
}

func TestPhysicalName_UsesLocation(t *testing.T) {
	shanghai := time.FixedZone("CST", 8*3600)
	rt := userLogType("UserLog", schema.Daily)
	// 2017-07-27 20:00 UTC is already the 28th at UTC+8.
	ts := time.Date(2017, 7, 27, 20, 0, 0, 0, time.UTC).UnixMilli()

	if got := (schema.Namer{Location: time.UTC}).PhysicalName(rt, ts); got != "userlog20170727" {
		t.Errorf("UTC: got %s", got)
	}
	if got := (schema.Namer{Location: shanghai}).PhysicalName(rt, ts); got != "userlog20170728" {
		t.Errorf("UTC+8: got %s", got)
	}
}

func TestRelativeNames(t *testing.T) {
	n := schema.Namer{Location: time.UTC}
	at := func(y int, m time.Month, d, h int) int64 {
		return time.Date(y, m, d, h, 0, 0, 0, time.UTC).UnixMilli()
	}

	cases := []struct {
		name       string
		roll       schema.RollPolicy
		start, end int64
		want       []string
	}{
		{
			name:  "daily mid-month start keeps the start day",
			roll:  schema.Daily,
			start: at(2017, 7, 27, 10),
			end:   at(2017, 7, 29, 1),
			want:  []string{"rlog20170727", "rlog20170728", "rlog20170729"},
		},
		{
			name:  "daily across month boundary",
			roll:  schema.Daily,
			start: at(2017, 7, 31, 23),
			end:   at(2017, 8, 1, 0),
			want:  []string{"rlog20170731", "rlog20170801"},
		},
		{
			name:  "monthly",
			roll:  schema.Monthly,
			start: at(2017, 11, 15, 0),
			end:   at(2018, 2, 1, 0),
			want:  []string{"rlog201711", "rlog201712", "rlog201801", "rlog201802"},
		},
		{
			name:  "yearly range shorter than a year still crosses into the next",
			roll:  schema.Yearly,
			start: at(2017, 6, 1, 0),
			end:   at(2018, 2, 1, 0),
			want:  []string{"rlog2017", "rlog2018"},
		},
		{
			name:  "never",
			roll:  schema.Never,
			start: at(2017, 1, 1, 0),
			end:   at(2019, 1, 1, 0),
			want:  []string{"rlog"},
		},
		{
			name:  "inverted range",
			roll:  schema.Daily,
			start: at(2017, 7, 27, 10),
			end:   at(2017, 7, 27, 9),
			want:  nil,
		},
	}
	for _, c := range cases {
		rt := userLogType("RLog", c.roll)
		got := n.RelativeNames(rt, c.start, c.end)
		if !reflect.DeepEqual(got, c.want) {
			t.Errorf("%s: expected %v, got %v", c.name, c.want, got)
		}
	}
}

func TestBelongsTo(t *testing.T) {
	daily := userLogType("UserLog", schema.Daily)
	never := userLogType("UserLog4", schema.Never)

	cases := []struct {
		rt    *schema.RecordType
		table string
		want  bool
	}{
		{daily, "userlog20170727", true},
		{daily, "userlog2201707", false},
		{daily, "userlog4", false},
		{daily, "userlog2017072x", false},
		{never, "userlog4", true},
		{never, "userlog41", false},
	}
	for _, c := range cases {
		if got := schema.BelongsTo(c.rt, c.table); got != c.want {
			t.Errorf("BelongsTo(%s, %s): expected %t, got %t", c.rt.Name(), c.table, c.want, got)
		}
	}
}

func TestParseRollPolicy(t *testing.T) {
	cases := map[string]schema.RollPolicy{
		"DAY_ROLL":   schema.Daily,
		"month":      schema.Monthly,
		"Yearly":     schema.Yearly,
		"NEVER_ROLL": schema.Never,
		"":           schema.Never,
	}
	for in, want := range cases {
		got, err := schema.ParseRollPolicy(in)
		if err != nil {
			t.Errorf("%q: unexpected error %v", in, err)
			continue
		}
		if got != want {
			t.Errorf("%q: expected %s, got %s", in, want, got)
		}
	}
	if _, err := schema.ParseRollPolicy("hourly"); err == nil {
		t.Error("expected error for unknown policy")
	}
}
