package registry

import (
	"sort"
	"strings"
	"sync"

	"db-recorder/internal/schema"
)

// Catalog is the explicit list of record types a process knows about,
// grouped by the package each type declares.
type Catalog struct {
	mu    sync.RWMutex
	types []*schema.RecordType
}

// DefaultCatalog holds types declared with the package-level Declare.
var DefaultCatalog = &Catalog{}

// Declare adds rt to DefaultCatalog.
func Declare(rt *schema.RecordType) { DefaultCatalog.Declare(rt) }

func (c *Catalog) Declare(rt *schema.RecordType) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.types = append(c.types, rt)
}

// Types returns the types declared in pkg or any package nested under it,
// in declaration order.
func (c *Catalog) Types(pkg string) []*schema.RecordType {
	c.mu.RLock()
	defer c.mu.RUnlock()
	var out []*schema.RecordType
	for _, rt := range c.types {
		p := rt.Package()
		if p == pkg || strings.HasPrefix(p, pkg+"/") {
			out = append(out, rt)
		}
	}
	return out
}

// Packages lists the distinct packages that have declarations.
func (c *Catalog) Packages() []string {
	c.mu.RLock()
	defer c.mu.RUnlock()
	seen := make(map[string]struct{})
	for _, rt := range c.types {
		seen[rt.Package()] = struct{}{}
	}
	out := make([]string, 0, len(seen))
	for p := range seen {
		out = append(out, p)
	}
	sort.Strings(out)
	return out
}
