package checker

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"db-recorder/internal/dialect"
	"db-recorder/internal/registry"
	"db-recorder/internal/schema"
)

// Report tallies the DDL applied by one reconciliation.
type Report struct {
	Tables   int
	Added    int
	Dropped  int
	Modified int
	Failed   int
}

func (r *Report) merge(o Report) {
	r.Tables += o.Tables
	r.Added += o.Added
	r.Dropped += o.Dropped
	r.Modified += o.Modified
	r.Failed += o.Failed
}

// Discrepancy is one difference between a declared type and a live table,
// reported by Verify without altering anything.
type Discrepancy struct {
	Table   string `yaml:"table"`
	Column  string `yaml:"column,omitempty"`
	Problem string `yaml:"problem"`
}

func (d Discrepancy) String() string {
	if d.Column == "" {
		return fmt.Sprintf("%s: %s", d.Table, d.Problem)
	}
	return fmt.Sprintf("%s.%s: %s", d.Table, d.Column, d.Problem)
}

// Checker converges live tables to their declared record types.
type Checker struct {
	Dialect dialect.Dialect
	Logger  *slog.Logger
}

func New(d dialect.Dialect, logger *slog.Logger) *Checker {
	if logger == nil {
		logger = slog.Default()
	}
	return &Checker{Dialect: d, Logger: logger}
}

// Diff plans the changes for one live table.
func (c *Checker) Diff(rt *schema.RecordType, live *schema.TableInfo) (*schema.MigrationPlan, error) {
	return schema.Diff(rt, live, c.Dialect.StoredType)
}

// partitions lists the existing tables that belong to rt.
func (c *Checker) partitions(ctx context.Context, conn Conn, rt *schema.RecordType) ([]string, error) {
	tables, err := ListTables(ctx, conn, c.Dialect)
	if err != nil {
		return nil, err
	}
	var out []string
	for _, t := range tables {
		if schema.BelongsTo(rt, t) {
			out = append(out, t)
		}
	}
	return out, nil
}

// Plan computes a migration plan for every existing partition of rt.
// Abstract types own no tables and yield none.
func (c *Checker) Plan(ctx context.Context, conn Conn, rt *schema.RecordType) ([]*schema.MigrationPlan, error) {
	if rt.IsAbstract() {
		return nil, nil
	}
	tables, err := c.partitions(ctx, conn, rt)
	if err != nil {
		return nil, err
	}
	var plans []*schema.MigrationPlan
	for _, t := range tables {
		live, err := ReadTable(ctx, conn, c.Dialect, t)
		if err != nil {
			return plans, err
		}
		plan, err := c.Diff(rt, live)
		if err != nil {
			return plans, err
		}
		plans = append(plans, plan)
	}
	return plans, nil
}

// Reconcile plans and applies the changes for every partition of rt.
// Adds run first, then drops, then modifies, each as its own statement.
// A failed statement is logged and counted; irreconcilable drift aborts.
func (c *Checker) Reconcile(ctx context.Context, conn Conn, rt *schema.RecordType) (Report, error) {
	var rep Report
	plans, err := c.Plan(ctx, conn, rt)
	if err != nil {
		var drift *schema.DriftError
		if errors.As(err, &drift) {
			c.Logger.Error("irreconcilable column drift",
				"table", drift.Table, "column", drift.Desired.Name,
				"declared", drift.Desired.Type.String(), "found", drift.Observed.Type.String())
		}
		return rep, fmt.Errorf("reconcile %s: %w", rt.Name(), err)
	}
	for _, plan := range plans {
		rep.merge(c.Apply(ctx, conn, plan))
	}
	return rep, nil
}

// Apply executes one plan best-effort.
func (c *Checker) Apply(ctx context.Context, conn Conn, plan *schema.MigrationPlan) Report {
	rep := Report{Tables: 1}
	d := c.Dialect

	exec := func(op, column string, col schema.ColumnInfo, query string) bool {
		if _, err := conn.ExecContext(ctx, query); err != nil {
			c.Logger.Error(op+" column failed",
				"table", plan.Table, "column", column,
				"type", col.Type.String(), "size", col.Size, "error", err)
			rep.Failed++
			return false
		}
		c.Logger.Info(op+" column", "table", plan.Table, "column", column, "type", col.Type.String(), "size", col.Size)
		return true
	}

	for _, col := range plan.Add {
		if exec("add", col.Name, col, d.AddColumnQuery(plan.Table, col)) {
			rep.Added++
		}
	}
	for _, name := range plan.Drop {
		if exec("drop", name, schema.ColumnInfo{Name: name}, d.DropColumnQuery(plan.Table, name)) {
			rep.Dropped++
		}
	}
	for _, col := range plan.Modify {
		query, err := d.ModifyColumnQuery(plan.Table, col)
		if err != nil {
			c.Logger.Error("modify column failed",
				"table", plan.Table, "column", col.Name,
				"type", col.Type.String(), "size", col.Size, "error", err)
			rep.Failed++
			continue
		}
		if exec("modify", col.Name, col, query) {
			rep.Modified++
		}
	}
	return rep
}

// ReconcileAll reconciles every registered type and stops at the first
// configuration error.
func (c *Checker) ReconcileAll(ctx context.Context, conn Conn, reg *registry.Registry) (Report, error) {
	var total Report
	for _, rt := range reg.Types() {
		rep, err := c.Reconcile(ctx, conn, rt)
		total.merge(rep)
		if err != nil {
			return total, err
		}
	}
	c.Logger.Info("schema check finished",
		"tables", total.Tables, "added", total.Added, "dropped", total.Dropped,
		"modified", total.Modified, "failed", total.Failed)
	return total, nil
}

// Verify compares every partition of rt with its declaration strictly: a
// column must exist with the same kind and at least the declared size, and
// no undeclared non-key column may remain.
func (c *Checker) Verify(ctx context.Context, conn Conn, rt *schema.RecordType) ([]Discrepancy, error) {
	if rt.IsAbstract() {
		return nil, nil
	}
	tables, err := c.partitions(ctx, conn, rt)
	if err != nil {
		return nil, err
	}
	if len(tables) == 0 && rt.Roll() == schema.Never {
		return []Discrepancy{{Table: rt.Stem(), Problem: "missing table"}}, nil
	}

	var out []Discrepancy
	for _, t := range tables {
		live, err := ReadTable(ctx, conn, c.Dialect, t)
		if err != nil {
			return out, err
		}
		declared := make(map[string]bool, rt.NumField())
		for _, desired := range rt.Columns() {
			declared[desired.Name] = true
			desired.Type = c.Dialect.StoredType(desired.Type)
			observed, ok := live.Columns[desired.Name]
			switch {
			case !ok:
				out = append(out, Discrepancy{Table: t, Column: desired.Name, Problem: "missing column"})
			case !schema.IsSame(desired, observed):
				out = append(out, Discrepancy{Table: t, Column: desired.Name,
					Problem: fmt.Sprintf("type mismatch: declared %s(%d), found %s(%d)",
						desired.Type, desired.Size, observed.Type, observed.Size)})
			}
		}
		for _, name := range live.ColumnNames() {
			if !declared[name] && !live.IsPrimaryKey(name) {
				out = append(out, Discrepancy{Table: t, Column: name, Problem: "extra column"})
			}
		}
	}
	return out, nil
}
