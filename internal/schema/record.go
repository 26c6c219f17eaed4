package schema

import (
	"errors"
	"fmt"
	"regexp"
	"strings"
)

// ErrInvalidRecordType is returned by Build for a malformed declaration.
var ErrInvalidRecordType = errors.New("invalid record type")

var identRe = regexp.MustCompile(`^[A-Za-z_][A-Za-z0-9_]*$`)

// FieldSpec declares one persisted field. Name is used verbatim as the
// column name.
type FieldSpec struct {
	Name     string
	Type     SQLType
	Size     int
	Comment  string
	Nullable bool
}

// Column returns the desired column for the field.
func (f FieldSpec) Column() ColumnInfo {
	return ColumnInfo{
		Name:     f.Name,
		Type:     f.Type,
		Size:     f.Size,
		Nullable: f.Nullable,
		Comment:  f.Comment,
	}
}

// RecordType is an immutable, declared record shape.
type RecordType struct {
	name     string
	pkg      string
	roll     RollPolicy
	abstract bool
	fields   []FieldSpec
	columns  []ColumnInfo
	names    []string
}

func (rt *RecordType) Name() string          { return rt.name }
func (rt *RecordType) Package() string       { return rt.pkg }
func (rt *RecordType) Roll() RollPolicy      { return rt.roll }
func (rt *RecordType) IsAbstract() bool      { return rt.abstract }
func (rt *RecordType) Stem() string          { return strings.ToLower(rt.name) }
func (rt *RecordType) NumField() int         { return len(rt.fields) }
func (rt *RecordType) Field(i int) FieldSpec { return rt.fields[i] }

// Fields returns the persisted fields in declaration order.
func (rt *RecordType) Fields() []FieldSpec {
	return append([]FieldSpec(nil), rt.fields...)
}

// Columns returns the desired columns in declaration order.
func (rt *RecordType) Columns() []ColumnInfo {
	return append([]ColumnInfo(nil), rt.columns...)
}

// FieldNames returns the column names in declaration order.
func (rt *RecordType) FieldNames() []string {
	return append([]string(nil), rt.names...)
}

// Lookup finds a declared field by name.
func (rt *RecordType) Lookup(name string) (FieldSpec, bool) {
	for _, f := range rt.fields {
		if f.Name == name {
			return f, true
		}
	}
	return FieldSpec{}, false
}

func (rt *RecordType) String() string {
	if rt.pkg == "" {
		return rt.name
	}
	return rt.pkg + "." + rt.name
}

// Builder assembles a RecordType.
type Builder struct {
	rt   RecordType
	errs []error
}

// NewRecordType starts a declaration for a record named name.
func NewRecordType(name string, roll RollPolicy) *Builder {
	return &Builder{rt: RecordType{name: name, roll: roll}}
}

func (b *Builder) Package(pkg string) *Builder {
	b.rt.pkg = strings.Trim(pkg, "/")
	return b
}

// Abstract marks a base shape that is never materialized as a table.
func (b *Builder) Abstract() *Builder {
	b.rt.abstract = true
	return b
}

// Extend prepends the fields of base, ahead of any field declared so far.
func (b *Builder) Extend(base *RecordType) *Builder {
	if base == nil {
		b.errs = append(b.errs, errors.New("extend: nil base"))
		return b
	}
	b.rt.fields = append(base.Fields(), b.rt.fields...)
	return b
}

// Field declares a nullable column.
func (b *Builder) Field(name string, t SQLType, size int, comment string) *Builder {
	b.rt.fields = append(b.rt.fields, FieldSpec{Name: name, Type: t, Size: size, Comment: comment, Nullable: true})
	return b
}

// Spec declares a column from a complete FieldSpec.
func (b *Builder) Spec(f FieldSpec) *Builder {
	b.rt.fields = append(b.rt.fields, f)
	return b
}

func (b *Builder) Int(name, comment string) *Builder {
	return b.Field(name, Int, 0, comment)
}

func (b *Builder) Bigint(name, comment string) *Builder {
	return b.Field(name, Bigint, 0, comment)
}

func (b *Builder) Varchar(name string, size int, comment string) *Builder {
	return b.Field(name, Varchar, size, comment)
}

func (b *Builder) Text(name, comment string) *Builder {
	return b.Field(name, Text, 0, comment)
}

// Build validates the declaration and freezes it.
func (b *Builder) Build() (*RecordType, error) {
	errs := append([]error(nil), b.errs...)
	if !identRe.MatchString(b.rt.name) {
		errs = append(errs, fmt.Errorf("type name %q is not an identifier", b.rt.name))
	}
	if !b.rt.roll.Valid() {
		errs = append(errs, fmt.Errorf("type %s: unknown roll policy %d", b.rt.name, b.rt.roll))
	}
	if len(b.rt.fields) == 0 && !b.rt.abstract {
		errs = append(errs, fmt.Errorf("type %s declares no fields", b.rt.name))
	}
	seen := make(map[string]bool, len(b.rt.fields))
	for _, f := range b.rt.fields {
		switch {
		case !identRe.MatchString(f.Name):
			errs = append(errs, fmt.Errorf("type %s: field %q is not an identifier", b.rt.name, f.Name))
		case seen[f.Name]:
			errs = append(errs, fmt.Errorf("type %s: field %q declared twice", b.rt.name, f.Name))
		case !f.Type.Valid():
			errs = append(errs, fmt.Errorf("type %s: field %s has no sql type", b.rt.name, f.Name))
		case f.Size < 0:
			errs = append(errs, fmt.Errorf("type %s: field %s has negative size", b.rt.name, f.Name))
		}
		seen[f.Name] = true
	}
	if len(errs) > 0 {
		return nil, fmt.Errorf("%w: %w", ErrInvalidRecordType, errors.Join(errs...))
	}

	rt := b.rt
	rt.fields = append([]FieldSpec(nil), b.rt.fields...)
	rt.columns = make([]ColumnInfo, len(rt.fields))
	rt.names = make([]string, len(rt.fields))
	for i, f := range rt.fields {
		rt.columns[i] = f.Column()
		rt.names[i] = f.Name
	}
	return &rt, nil
}

// MustBuild is Build for package-level declarations.
func (b *Builder) MustBuild() *RecordType {
	rt, err := b.Build()
	if err != nil {
		panic(err)
	}
	return rt
}

// Record is a value that can be persisted as one row of its RecordType.
type Record interface {
	RecordType() *RecordType
	// Values returns one value per declared field, in declaration order.
	Values() []any
}

// Row is a generic, map-backed Record.
type Row struct {
	Type   *RecordType
	Fields map[string]any
}

func NewRow(rt *RecordType) *Row {
	return &Row{Type: rt, Fields: make(map[string]any, rt.NumField())}
}

func (r *Row) RecordType() *RecordType { return r.Type }

func (r *Row) Set(name string, v any) *Row {
	r.Fields[name] = v
	return r
}

func (r *Row) Get(name string) any { return r.Fields[name] }

func (r *Row) Values() []any {
	vals := make([]any, r.Type.NumField())
	for i, f := range r.Type.fields {
		vals[i] = r.Fields[f.Name]
	}
	return vals
}

func (r *Row) String() string {
	var sb strings.Builder
	sb.WriteString(r.Type.Name())
	sb.WriteByte('{')
	for i, f := range r.Type.fields {
		if i > 0 {
			sb.WriteString(", ")
		}
		fmt.Fprintf(&sb, "%s=%v", f.Name, r.Fields[f.Name])
	}
	sb.WriteByte('}')
	return sb.String()
}
