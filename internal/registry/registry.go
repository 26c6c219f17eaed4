package registry

import (
	"errors"
	"fmt"
	"log/slog"
	"sort"
	"sync"

	"db-recorder/internal/schema"
)

var ErrDuplicateTable = errors.New("duplicate table stem")

// Registry maps lowercase table stems to record types. It is safe for
// concurrent use; writers register at startup, workers look up afterwards.
type Registry struct {
	Catalog *Catalog
	Logger  *slog.Logger

	mu    sync.RWMutex
	types map[string]*schema.RecordType
}

func New(catalog *Catalog, logger *slog.Logger) *Registry {
	if catalog == nil {
		catalog = DefaultCatalog
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Registry{Catalog: catalog, Logger: logger, types: make(map[string]*schema.RecordType)}
}

// Register adds rt under its stem. The first registration of a stem wins.
func (r *Registry) Register(rt *schema.RecordType) error {
	stem := rt.Stem()
	r.mu.Lock()
	defer r.mu.Unlock()
	if prev, ok := r.types[stem]; ok {
		return fmt.Errorf("%w: %s (%s already registered as %s)", ErrDuplicateTable, stem, rt.Name(), prev.Name())
	}
	r.types[stem] = rt
	return nil
}

// RegisterPackage registers every type the catalog holds for pkg. All types
// are attempted; duplicates are logged and returned joined.
func (r *Registry) RegisterPackage(pkg string) error {
	types := r.Catalog.Types(pkg)
	if len(types) == 0 {
		r.Logger.Warn("no record types declared", "package", pkg)
		return nil
	}
	var errs []error
	for _, rt := range types {
		if err := r.Register(rt); err != nil {
			r.Logger.Error("register record type failed", "package", pkg, "type", rt.Name(), "error", err)
			errs = append(errs, err)
			continue
		}
		r.Logger.Debug("registered record type", "package", pkg, "type", rt.Name(), "roll", rt.Roll().String())
	}
	return errors.Join(errs...)
}

func (r *Registry) Lookup(stem string) (*schema.RecordType, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	rt, ok := r.types[stem]
	return rt, ok
}

// Types returns every registered type sorted by stem.
func (r *Registry) Types() []*schema.RecordType {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]*schema.RecordType, 0, len(r.types))
	for _, rt := range r.types {
		out = append(out, rt)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Stem() < out[j].Stem() })
	return out
}

func (r *Registry) Len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.types)
}

func (r *Registry) Clear() {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.types = make(map[string]*schema.RecordType)
}
