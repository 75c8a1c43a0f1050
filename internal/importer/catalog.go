package importer

import (
	"sort"
	"strings"
)

// EntityKey identifies one distinct case-folded entity name in a Catalog.
type EntityKey int

// Catalog assigns each case-folded name a stable key and remembers every
// spelling seen for it.
type Catalog struct {
	index     map[string]EntityKey
	folded    []string
	spellings [][]string
}

func NewCatalog() *Catalog {
	return &Catalog{index: make(map[string]EntityKey)}
}

func fold(s string) string { return strings.ToLower(s) }

// Add returns the key for name, assigning a new one on first sight.
// The empty name is not catalogued.
func (c *Catalog) Add(name string) (EntityKey, bool) {
	if name == "" {
		return 0, false
	}
	f := fold(name)
	k, ok := c.index[f]
	if !ok {
		k = EntityKey(len(c.folded))
		c.index[f] = k
		c.folded = append(c.folded, f)
		c.spellings = append(c.spellings, nil)
	}
	for _, s := range c.spellings[k] {
		if s == name {
			return k, true
		}
	}
	c.spellings[k] = append(c.spellings[k], name)
	return k, true
}

// Key looks up name without adding it.
func (c *Catalog) Key(name string) (EntityKey, bool) {
	k, ok := c.index[fold(name)]
	return k, ok
}

// Name returns the display spelling of k: the lexicographically smallest
// spelling seen.
func (c *Catalog) Name(k EntityKey) string {
	sp := c.spellings[k]
	best := sp[0]
	for _, s := range sp[1:] {
		if s < best {
			best = s
		}
	}
	return best
}

// Spellings returns every spelling recorded for k in first-seen order.
func (c *Catalog) Spellings(k EntityKey) []string {
	return c.spellings[k]
}

func (c *Catalog) Len() int { return len(c.folded) }

// Keys returns all keys ordered by folded name.
func (c *Catalog) Keys() []EntityKey {
	keys := make([]EntityKey, len(c.folded))
	for i := range keys {
		keys[i] = EntityKey(i)
	}
	sort.SliceStable(keys, func(i, j int) bool { return c.folded[keys[i]] < c.folded[keys[j]] })
	return keys
}

// Catalogs holds one Catalog per entity kind of an import.
type Catalogs struct {
	Vendors        *Catalog
	Categories     *Catalog
	PaymentMethods *Catalog
	Aircraft       *Catalog
}

// BuildCatalogs catalogues every entity name referenced by the expenses.
func BuildCatalogs(expenses []ParsedExpense) Catalogs {
	c := Catalogs{
		Vendors:        NewCatalog(),
		Categories:     NewCatalog(),
		PaymentMethods: NewCatalog(),
		Aircraft:       NewCatalog(),
	}
	for _, e := range expenses {
		c.Vendors.Add(e.VendorName)
		c.PaymentMethods.Add(e.PaymentMethod)
		c.Aircraft.Add(e.TailNumber)
		for _, item := range e.LineItems {
			c.Categories.Add(item.Category)
		}
	}
	return c
}

// AllExpenses flattens trips and standalone expenses in import order.
func AllExpenses(trips []ParsedTrip, standalone []ParsedExpense) []ParsedExpense {
	var out []ParsedExpense
	for _, t := range trips {
		out = append(out, t.Expenses...)
	}
	return append(out, standalone...)
}
