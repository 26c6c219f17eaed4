package engine

import (
	"fmt"
	"math/rand"
	"strings"
	"sync"
	"time"

	"github.com/brianvoe/gofakeit/v6"

	"db-recorder/internal/schema"
)

// Generator fills rows with plausible fake values, guided by what each
// field's name and comment suggest it holds.
type Generator struct {
	mu    sync.Mutex
	faker *gofakeit.Faker
	rand  *rand.Rand
	// Now anchors generated dates; nil means time.Now.
	Now func() time.Time

	meanings sync.Map // field key -> meaning
}

// NewGenerator returns a generator; a zero seed picks a random one.
func NewGenerator(seed int64) *Generator {
	if seed == 0 {
		seed = time.Now().UnixNano()
	}
	return &Generator{
		faker: gofakeit.New(seed),
		rand:  rand.New(rand.NewSource(seed)),
	}
}

// Row generates one row of rt.
func (g *Generator) Row(rt *schema.RecordType) *schema.Row {
	g.mu.Lock()
	defer g.mu.Unlock()
	row := schema.NewRow(rt)
	for _, f := range rt.Fields() {
		row.Set(f.Name, g.value(rt, f))
	}
	return row
}

func (g *Generator) meaning(rt *schema.RecordType, f schema.FieldSpec) string {
	key := rt.Name() + "." + f.Name
	if m, ok := g.meanings.Load(key); ok {
		return m.(string)
	}
	m := schema.AnalyzeMeaning(f.Name, f.Comment)
	g.meanings.Store(key, m)
	return m
}

func (g *Generator) now() time.Time {
	if g.Now != nil {
		return g.Now()
	}
	return time.Now()
}

func truncate(s string, limit int) string {
	if limit <= 0 {
		return s
	}
	runes := []rune(s)
	if len(runes) > limit {
		return string(runes[:limit])
	}
	return s
}

func has(meaning, name string, keys ...string) bool {
	for _, k := range keys {
		if strings.Contains(meaning, k) || strings.Contains(name, k) {
			return true
		}
	}
	return false
}

func (g *Generator) value(rt *schema.RecordType, f schema.FieldSpec) any {
	name := strings.ToLower(f.Name)
	meaning := g.meaning(rt, f)
	size := f.Size
	fk := g.faker

	switch f.Type {
	case schema.Char, schema.Varchar, schema.Tinytext, schema.Text, schema.Mediumtext, schema.Longtext, schema.Enum, schema.Set:
		isID := strings.HasSuffix(name, "id")
		switch {
		case has(meaning, name, "year"):
			return fmt.Sprintf("%d", 2000+g.rand.Intn(26))
		case !isID && has(meaning, name, "phone"):
			return truncate(fk.Phone(), size)
		case !isID && has(meaning, name, "email"):
			return truncate(fk.Email(), size)
		case meaning == "ip" || name == "ip" || strings.HasSuffix(name, "_ip"):
			return truncate(fk.IPv4Address(), size)
		case !isID && has(meaning, name, "name"):
			if size > 0 && size < 3 {
				return truncate(fk.LastName(), size)
			}
			return truncate(fk.Name(), size)
		case !isID && has(meaning, name, "address"):
			return truncate(fk.Street(), size)
		case has(meaning, name, "zipcode", "zip", "postal"):
			return truncate(fk.Zip(), size)
		case has(meaning, name, "yesno"):
			if fk.Bool() {
				return "Y"
			}
			return "N"
		case !isID && has(meaning, name, "country"):
			return truncate(fk.Country(), size)
		case !isID && has(meaning, name, "city"):
			return truncate(fk.City(), size)
		case !isID && has(meaning, name, "description", "message", "text"):
			return truncate(fk.Sentence(10), size)
		case size > 0 && size < 20:
			return truncate(fk.Word(), size)
		}
		return truncate(fk.Sentence(5), size)

	case schema.Date:
		return fk.DateRange(g.now().AddDate(-1, 0, 0), g.now()).Format("2006-01-02")
	case schema.Time:
		return fk.DateRange(g.now().AddDate(-1, 0, 0), g.now()).Format("15:04:05")
	case schema.Datetime, schema.Timestamp:
		return fk.DateRange(g.now().AddDate(-1, 0, 0), g.now()).Format("2006-01-02 15:04:05")
	case schema.Year:
		return 2000 + g.rand.Intn(26)

	case schema.Bit:
		if fk.Bool() {
			return 1
		}
		return 0
	case schema.Tinyint:
		return fk.Number(0, 127)
	case schema.Smallint:
		return fk.Number(1, 30000)
	case schema.Mediumint, schema.Int, schema.Integer, schema.Bigint:
		switch {
		case has(meaning, name, "yesno", "active", "enabled"):
			return g.rand.Intn(2)
		case has(meaning, name, "age"):
			return fk.Number(1, 99)
		case has(meaning, name, "level"):
			return fk.Number(1, 100)
		case has(meaning, name, "year"):
			return 2000 + g.rand.Intn(26)
		}
		maxVal := 50000
		// Respect column precision if small.
		if size > 0 && size < 5 {
			limit := 1
			for i := 0; i < size; i++ {
				limit *= 10
			}
			maxVal = limit - 1
		}
		return fk.Number(1, maxVal)
	case schema.Real, schema.Double, schema.Float, schema.Decimal, schema.Numeric:
		return fk.Price(0.99, 99.99)

	case schema.Tinyblob, schema.Blob, schema.Mediumblob, schema.Longblob, schema.Binary, schema.Varbinary:
		b := []byte(fk.LetterN(16))
		if size > 0 && len(b) > size {
			b = b[:size]
		}
		return b
	}
	return nil
}
