package schema

import (
	"fmt"
	"sort"
)

// ColumnInfo is one column, either desired (derived from a FieldSpec) or
// observed (read from database metadata).
type ColumnInfo struct {
	Name     string
	Type     SQLType
	Size     int
	Nullable bool
	Comment  string
}

func (c ColumnInfo) String() string {
	return fmt.Sprintf("%s %s(%d) nullable=%t", c.Name, c.Type, c.Size, c.Nullable)
}

// MarshalYAML renders the type by keyword.
func (c ColumnInfo) MarshalYAML() (interface{}, error) {
	return struct {
		Name    string `yaml:"name"`
		Type    string `yaml:"type"`
		Size    int    `yaml:"size,omitempty"`
		Comment string `yaml:"comment,omitempty"`
	}{c.Name, c.Type.String(), c.Size, c.Comment}, nil
}

// TableInfo is a snapshot of one physical table's live structure.
type TableInfo struct {
	Name        string
	Columns     map[string]ColumnInfo
	PrimaryKeys map[string]struct{}
}

func NewTableInfo(name string) *TableInfo {
	return &TableInfo{
		Name:        name,
		Columns:     make(map[string]ColumnInfo),
		PrimaryKeys: make(map[string]struct{}),
	}
}

func (t *TableInfo) IsPrimaryKey(col string) bool {
	_, ok := t.PrimaryKeys[col]
	return ok
}

// ColumnNames returns the live column names sorted.
func (t *TableInfo) ColumnNames() []string {
	names := make([]string, 0, len(t.Columns))
	for n := range t.Columns {
		names = append(names, n)
	}
	sort.Strings(names)
	return names
}

// MigrationPlan is the set of column changes that converge one table to its
// declared shape. It is computed fresh on every check.
type MigrationPlan struct {
	Table  string       `yaml:"table"`
	Add    []ColumnInfo `yaml:"add,omitempty"`
	Drop   []string     `yaml:"drop,omitempty"`
	Modify []ColumnInfo `yaml:"modify,omitempty"`
}

func (p *MigrationPlan) Empty() bool {
	return len(p.Add) == 0 && len(p.Drop) == 0 && len(p.Modify) == 0
}
