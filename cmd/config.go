package cmd

import (
	"errors"
	"fmt"
	"time"

	"github.com/spf13/viper"

	"db-recorder/internal/engine"
	"db-recorder/internal/registry"
	"db-recorder/internal/schema"
)

// FieldDecl declares one persisted column.
type FieldDecl struct {
	Name    string `mapstructure:"name"`
	Type    string `mapstructure:"type"`
	Size    int    `mapstructure:"size"`
	Comment string `mapstructure:"comment"`
}

// RecordDecl declares one record type in the config file.
type RecordDecl struct {
	Name     string      `mapstructure:"name"`
	Package  string      `mapstructure:"package"`
	Roll     string      `mapstructure:"roll"`
	Abstract bool        `mapstructure:"abstract"`
	Extends  string      `mapstructure:"extends"`
	Fields   []FieldDecl `mapstructure:"fields"`
}

func setRecorderDefaults() {
	viper.SetDefault("recorder.queue_capacity", engine.DefaultQueueCapacity)
	viper.SetDefault("recorder.min_workers", engine.DefaultMinWorkers)
	viper.SetDefault("recorder.max_workers", engine.DefaultMaxWorkers)
	viper.SetDefault("recorder.engine", engine.DefaultEngine)
	viper.SetDefault("recorder.charset", engine.DefaultCharset)
	viper.SetDefault("recorder.timezone", "Local")
}

// LoadCatalog builds every record type declared under "records".
func LoadCatalog() (*registry.Catalog, error) {
	var decls []RecordDecl
	if err := viper.UnmarshalKey("records", &decls); err != nil {
		return nil, fmt.Errorf("failed to parse records config: %w", err)
	}
	return BuildCatalog(decls)
}

// BuildCatalog resolves extends chains and builds the declared types in
// declaration order.
func BuildCatalog(decls []RecordDecl) (*registry.Catalog, error) {
	byName := make(map[string]*RecordDecl, len(decls))
	for i := range decls {
		byName[decls[i].Name] = &decls[i]
	}

	built := make(map[string]*schema.RecordType, len(decls))
	visiting := make(map[string]bool)
	var build func(d *RecordDecl) (*schema.RecordType, error)
	build = func(d *RecordDecl) (*schema.RecordType, error) {
		if rt, ok := built[d.Name]; ok {
			return rt, nil
		}
		if visiting[d.Name] {
			return nil, fmt.Errorf("record %s: extends cycle", d.Name)
		}
		visiting[d.Name] = true
		defer delete(visiting, d.Name)

		roll, err := schema.ParseRollPolicy(d.Roll)
		if err != nil {
			return nil, fmt.Errorf("record %s: %w", d.Name, err)
		}
		b := schema.NewRecordType(d.Name, roll).Package(d.Package)
		if d.Abstract {
			b.Abstract()
		}
		if d.Extends != "" {
			baseDecl, ok := byName[d.Extends]
			if !ok {
				return nil, fmt.Errorf("record %s: unknown base %s", d.Name, d.Extends)
			}
			base, err := build(baseDecl)
			if err != nil {
				return nil, err
			}
			b.Extend(base)
		}
		for _, f := range d.Fields {
			kind, err := schema.ParseSQLType(f.Type)
			if err != nil {
				return nil, fmt.Errorf("record %s field %s: %w", d.Name, f.Name, err)
			}
			b.Field(f.Name, kind, f.Size, f.Comment)
		}
		rt, err := b.Build()
		if err != nil {
			return nil, err
		}
		built[d.Name] = rt
		return rt, nil
	}

	cat := &registry.Catalog{}
	var errs []error
	for i := range decls {
		rt, err := build(&decls[i])
		if err != nil {
			errs = append(errs, err)
			continue
		}
		cat.Declare(rt)
	}
	if err := errors.Join(errs...); err != nil {
		return nil, err
	}
	return cat, nil
}

// RecorderConfig assembles the pipeline configuration from viper.
func RecorderConfig(cat *registry.Catalog) (engine.Config, error) {
	loc, err := time.LoadLocation(viper.GetString("recorder.timezone"))
	if err != nil {
		return engine.Config{}, fmt.Errorf("invalid recorder.timezone: %w", err)
	}
	pkgs := viper.GetStringSlice("recorder.scan_packages")
	if len(pkgs) == 0 {
		pkgs = cat.Packages()
	}
	return engine.Config{
		QueueCapacity: viper.GetInt("recorder.queue_capacity"),
		MinWorkers:    viper.GetInt("recorder.min_workers"),
		MaxWorkers:    viper.GetInt("recorder.max_workers"),
		Engine:        viper.GetString("recorder.engine"),
		Charset:       viper.GetString("recorder.charset"),
		ScanPackages:  pkgs,
		Catalog:       cat,
		Conn:          engine.DBConn(DB),
		Dialect:       Dialect,
		Location:      loc,
		Logger:        Logger,
	}, nil
}

// loadRegistry registers every declared type for commands that work
// without a running recorder.
func loadRegistry() (*registry.Registry, error) {
	cat, err := LoadCatalog()
	if err != nil {
		return nil, err
	}
	reg := registry.New(cat, Logger)
	var errs []error
	for _, pkg := range cat.Packages() {
		if err := reg.RegisterPackage(pkg); err != nil {
			errs = append(errs, err)
		}
	}
	return reg, errors.Join(errs...)
}
