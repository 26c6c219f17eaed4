package registry

import (
	"errors"
	"io"
	"log/slog"
	"testing"

	"db-recorder/internal/schema"
)

func discard() *slog.Logger { return slog.New(slog.NewTextHandler(io.Discard, nil)) }

func logType(name, pkg string) *schema.RecordType {
	return schema.NewRecordType(name, schema.Daily).
		Package(pkg).
		Varchar("name", 255, "user name").
		MustBuild()
}

func TestCatalogTypesMatchesNestedPackages(t *testing.T) {
	c := &Catalog{}
	c.Declare(logType("UserLog", "app/logs"))
	c.Declare(logType("AuditLog", "app/logs/audit"))
	c.Declare(logType("Other", "app/logsx"))

	got := c.Types("app/logs")
	if len(got) != 2 || got[0].Name() != "UserLog" || got[1].Name() != "AuditLog" {
		t.Errorf("unexpected types: %v", got)
	}
	if n := len(c.Types("app")); n != 3 {
		t.Errorf("expected 3 types under app, got %d", n)
	}
	if pkgs := c.Packages(); len(pkgs) != 3 || pkgs[0] != "app/logs" {
		t.Errorf("unexpected packages: %v", pkgs)
	}
}

func TestRegisterDuplicateKeepsFirst(t *testing.T) {
	r := New(&Catalog{}, discard())
	first := logType("UserLog", "a")
	if err := r.Register(first); err != nil {
		t.Fatal(err)
	}
	err := r.Register(logType("USERLOG", "b"))
	if !errors.Is(err, ErrDuplicateTable) {
		t.Fatalf("expected ErrDuplicateTable, got %v", err)
	}
	got, ok := r.Lookup("userlog")
	if !ok || got != first {
		t.Errorf("first registration should be kept")
	}
	if r.Len() != 1 {
		t.Errorf("expected 1 type, got %d", r.Len())
	}
}

func TestRegisterPackageContinuesPastDuplicates(t *testing.T) {
	c := &Catalog{}
	c.Declare(logType("UserLog", "app"))
	c.Declare(logType("userlog", "app"))
	c.Declare(logType("LoginLog", "app"))

	r := New(c, discard())
	err := r.RegisterPackage("app")
	if !errors.Is(err, ErrDuplicateTable) {
		t.Fatalf("expected ErrDuplicateTable, got %v", err)
	}
	if r.Len() != 2 {
		t.Errorf("expected 2 types registered, got %d", r.Len())
	}
	if _, ok := r.Lookup("loginlog"); !ok {
		t.Error("loginlog should be registered after the duplicate")
	}
}

func TestRegisterPackageEmpty(t *testing.T) {
	r := New(&Catalog{}, discard())
	if err := r.RegisterPackage("nothing/here"); err != nil {
		t.Errorf("empty package should not fail: %v", err)
	}
	if r.Len() != 0 {
		t.Errorf("expected empty registry")
	}
}

func TestTypesSortedAndClear(t *testing.T) {
	r := New(&Catalog{}, discard())
	for _, n := range []string{"Zeta", "Alpha", "Mid"} {
		if err := r.Register(logType(n, "p")); err != nil {
			t.Fatal(err)
		}
	}
	types := r.Types()
	if types[0].Stem() != "alpha" || types[1].Stem() != "mid" || types[2].Stem() != "zeta" {
		t.Errorf("types not sorted: %v", types)
	}
	r.Clear()
	if r.Len() != 0 {
		t.Errorf("expected empty after Clear, got %d", r.Len())
	}
}
