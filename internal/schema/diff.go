package schema

import (
	"errors"
	"fmt"
)

// ErrIrreconcilable marks schema drift that cannot be converged without
// manual intervention.
var ErrIrreconcilable = errors.New("irreconcilable column drift")

// DriftError describes one column whose live type cannot be modified into
// the declared one.
type DriftError struct {
	Table    string
	Desired  ColumnInfo
	Observed ColumnInfo
}

func (e *DriftError) Error() string {
	return fmt.Sprintf("unable to change column, table: %s, new: %s, old: %s", e.Table, e.Desired, e.Observed)
}

func (e *DriftError) Unwrap() error { return ErrIrreconcilable }

// Diff computes the plan that converges live to the declared shape of rt.
// fold maps a declared kind to the kind the store keeps it as; nil keeps
// kinds unchanged. Folded kinds decide whether a column already matches;
// the change matrix is always consulted with the declared kind, so a store
// that folds kinds reaches the same modify or drift decision as one that
// does not.
func Diff(rt *RecordType, live *TableInfo, fold func(SQLType) SQLType) (*MigrationPlan, error) {
	plan := &MigrationPlan{Table: live.Name}
	declared := make(map[string]bool, rt.NumField())

	for _, col := range rt.columns {
		declared[col.Name] = true
		desired := col
		if fold != nil {
			desired.Type = fold(col.Type)
		}
		observed, ok := live.Columns[desired.Name]
		if !ok {
			plan.Add = append(plan.Add, desired)
			continue
		}
		if IsSame(desired, observed) {
			continue
		}
		if !AbleChange(col, observed) {
			return nil, &DriftError{Table: live.Name, Desired: col, Observed: observed}
		}
		plan.Modify = append(plan.Modify, desired)
	}

	for _, name := range live.ColumnNames() {
		if declared[name] || live.IsPrimaryKey(name) {
			continue
		}
		plan.Drop = append(plan.Drop, name)
	}
	return plan, nil
}
