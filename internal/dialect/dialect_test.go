package dialect

import (
	"errors"
	"strings"
	"testing"

	"db-recorder/internal/schema"
)

func userLogColumns() []schema.ColumnInfo {
	return []schema.ColumnInfo{
		{Name: "name", Type: schema.Varchar, Size: 255, Nullable: true, Comment: "user name"},
		{Name: "age", Type: schema.Int, Nullable: true, Comment: "user age"},
		{Name: "address", Type: schema.Varchar, Size: 255, Nullable: true, Comment: "user's address"},
	}
}

func TestGetDialect(t *testing.T) {
	cases := map[string]string{
		"mysql":     "mysql",
		"postgres":  "postgres",
		"sqlserver": "sqlserver",
		"mssql":     "sqlserver",
		"oracle":    "oracle",
		"sqlite":    "sqlite",
	}
	for driver, want := range cases {
		d, err := GetDialect(driver)
		if err != nil {
			t.Errorf("%s: %v", driver, err)
			continue
		}
		if d.Name() != want {
			t.Errorf("%s: expected %s, got %s", driver, want, d.Name())
		}
	}
	if _, err := GetDialect("db2"); err == nil {
		t.Error("expected error for unknown driver")
	}
}

func TestMysqlCreateTableQuery(t *testing.T) {
	d := &MysqlDialect{}
	got := d.CreateTableQuery("userlog20170727", userLogColumns(), TableOptions{Engine: "myisam", Charset: "utf8", Comment: "UserLog"})
	want := "create table if not exists `userlog20170727` (\n" +
		"`pk_id` int primary key not null auto_increment,\n" +
		"`name` VARCHAR(255) null comment 'user name',\n" +
		"`age` INT null comment 'user age',\n" +
		"`address` VARCHAR(255) null comment 'user''s address')" +
		" engine=myisam auto_increment=1 default charset=utf8 comment 'UserLog'"
	if got != want {
		t.Errorf("unexpected create statement:\n%s\nwant:\n%s", got, want)
	}
}

func TestMysqlAlterQueries(t *testing.T) {
	d := &MysqlDialect{}
	c := schema.ColumnInfo{Name: "name", Type: schema.Varchar, Size: 512, Comment: "n"}

	if got := d.AddColumnQuery("t", c); got != "alter table `t` add column `name` VARCHAR(512) null comment 'n'" {
		t.Errorf("add: %s", got)
	}
	if got := d.DropColumnQuery("t", "age"); got != "alter table `t` drop column `age`" {
		t.Errorf("drop: %s", got)
	}
	got, err := d.ModifyColumnQuery("t", c)
	if err != nil || got != "alter table `t` modify column `name` VARCHAR(512) null comment 'n'" {
		t.Errorf("modify: %s, %v", got, err)
	}
}

func TestColumnTypeDefaultsVarcharSize(t *testing.T) {
	c := schema.ColumnInfo{Name: "x", Type: schema.Varchar}
	for _, d := range []Dialect{&MysqlDialect{}, &SqliteDialect{}} {
		if got := d.ColumnType(c); got != "VARCHAR(255)" {
			t.Errorf("%s: got %s", d.Name(), got)
		}
	}
	if got := (&MysqlDialect{}).ColumnType(schema.ColumnInfo{Type: schema.Bigint}); got != "BIGINT" {
		t.Errorf("bigint: got %s", got)
	}
}

func TestInsertQuery(t *testing.T) {
	cols := []string{"name", "age"}
	cases := []struct {
		d    Dialect
		want string
	}{
		{&MysqlDialect{}, "insert into `t` (`name`, `age`) values (?, ?)"},
		{&PostgresDialect{}, `INSERT INTO "t" ("name", "age") VALUES ($1, $2)`},
		{&MSSQLDialect{}, "INSERT INTO [t] ([name], [age]) VALUES (@p1, @p2)"},
		{&OracleDialect{}, `INSERT INTO "t" ("name", "age") VALUES (:1, :2)`},
		{&SqliteDialect{}, `INSERT INTO "t" ("name", "age") VALUES (?, ?)`},
	}
	for _, c := range cases {
		if got := c.d.InsertQuery("t", cols); got != c.want {
			t.Errorf("%s: expected %s, got %s", c.d.Name(), c.want, got)
		}
	}
}

func TestCreateIsIdempotentEverywhere(t *testing.T) {
	cols := userLogColumns()
	cases := []struct {
		d      Dialect
		marker string
	}{
		{&MysqlDialect{}, "if not exists"},
		{&PostgresDialect{}, "IF NOT EXISTS"},
		{&SqliteDialect{}, "IF NOT EXISTS"},
		{&MSSQLDialect{}, "IF OBJECT_ID(N'userlog', N'U') IS NULL"},
		{&OracleDialect{}, "SQLCODE != -955"},
	}
	for _, c := range cases {
		q := c.d.CreateTableQuery("userlog", cols, TableOptions{})
		if !strings.Contains(q, c.marker) {
			t.Errorf("%s: %q missing from %s", c.d.Name(), c.marker, q)
		}
		if !strings.Contains(q, c.d.QuoteIdent(PrimaryKey)) {
			t.Errorf("%s: primary key missing from %s", c.d.Name(), q)
		}
	}
}

func TestOracleCreateEscapesInnerStatement(t *testing.T) {
	q := (&OracleDialect{}).CreateTableQuery("userlog", userLogColumns()[:1], TableOptions{})
	want := `BEGIN EXECUTE IMMEDIATE 'CREATE TABLE "userlog" ("pk_id" NUMBER(10) GENERATED BY DEFAULT AS IDENTITY PRIMARY KEY, "name" VARCHAR2(255) NULL)'; EXCEPTION WHEN OTHERS THEN IF SQLCODE != -955 THEN RAISE; END IF; END;`
	if q != want {
		t.Errorf("got %s", q)
	}
}

func TestSqliteModifyUnsupported(t *testing.T) {
	_, err := (&SqliteDialect{}).ModifyColumnQuery("t", schema.ColumnInfo{Name: "a", Type: schema.Text})
	if !errors.Is(err, ErrUnsupported) {
		t.Errorf("expected ErrUnsupported, got %v", err)
	}
}

func TestNormalizeType(t *testing.T) {
	cases := []struct {
		d        Dialect
		in, want string
	}{
		{&MysqlDialect{}, "VARCHAR", "varchar"},
		{&PostgresDialect{}, "int4", "integer"},
		{&PostgresDialect{}, "bpchar", "char"},
		{&PostgresDialect{}, "timestamptz", "timestamp"},
		{&MSSQLDialect{}, "nvarchar", "varchar"},
		{&MSSQLDialect{}, "nvarchar(max)", "text"},
		{&MSSQLDialect{}, "datetime2", "datetime"},
		{&OracleDialect{}, "VARCHAR2", "varchar"},
		{&OracleDialect{}, "TIMESTAMP(6)", "timestamp"},
		{&OracleDialect{}, "CLOB", "text"},
		{&SqliteDialect{}, "VARCHAR(255)", "varchar(255)"},
	}
	for _, c := range cases {
		if got := c.d.NormalizeType(c.in); got != c.want {
			t.Errorf("%s(%s): expected %s, got %s", c.d.Name(), c.in, c.want, got)
		}
	}
}

// Every kind a dialect renders must read back as the kind StoredType folds it to.
func TestStoredTypeRoundTrip(t *testing.T) {
	for _, d := range []Dialect{&PostgresDialect{}, &MSSQLDialect{}} {
		for _, kind := range schema.AllTypes() {
			stored := d.StoredType(kind)
			if d.StoredType(stored) != stored {
				t.Errorf("%s: StoredType not idempotent for %s", d.Name(), kind)
			}
		}
	}
	pg := &PostgresDialect{}
	if got := pg.StoredType(schema.Longtext); got != schema.Text {
		t.Errorf("postgres longtext: got %s", got)
	}
	if got := pg.NormalizeType("int4"); got != schema.Integer.String() {
		t.Errorf("postgres int4: got %s", got)
	}
}

func TestGetLimitRowQuery(t *testing.T) {
	const q = "SELECT * FROM t"
	cases := []struct {
		d    Dialect
		want string
	}{
		{&MysqlDialect{}, "SELECT * FROM t LIMIT 10, 5"},
		{&PostgresDialect{}, "SELECT * FROM t LIMIT 5 OFFSET 10"},
		{&SqliteDialect{}, "SELECT * FROM t LIMIT 5 OFFSET 10"},
		{&OracleDialect{}, "SELECT * FROM t OFFSET 10 ROWS FETCH NEXT 5 ROWS ONLY"},
	}
	for _, c := range cases {
		if got := c.d.GetLimitRowQuery(q, 10, 5); got != c.want {
			t.Errorf("%s: got %s", c.d.Name(), got)
		}
	}
	if got := (&MSSQLDialect{}).GetLimitRowQuery(q, 0, 5); got != "SELECT TOP 5 * FROM t" {
		t.Errorf("mssql top: got %s", got)
	}
}

func TestRebind(t *testing.T) {
	q := "SELECT * FROM t WHERE a = ? AND b = '?' AND c = ?"
	if got := Rebind(&PostgresDialect{}, q); got != "SELECT * FROM t WHERE a = $1 AND b = '?' AND c = $2" {
		t.Errorf("postgres: %s", got)
	}
	if got := Rebind(&MSSQLDialect{}, q); got != "SELECT * FROM t WHERE a = @p1 AND b = '?' AND c = @p2" {
		t.Errorf("mssql: %s", got)
	}
	if got := Rebind(&MysqlDialect{}, q); got != q {
		t.Errorf("mysql: %s", got)
	}
}
