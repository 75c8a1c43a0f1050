package importer

import (
	"fmt"
	"os"
	"sort"

	"gopkg.in/yaml.v3"
)

// MappingAction is the user's decision for one distinct source name.
type MappingAction string

const (
	ActionCreate MappingAction = "create"
	ActionMap    MappingAction = "map"
	ActionSkip   MappingAction = "skip"
)

// EntityMapping resolves a vendor, category or payment method name.
type EntityMapping struct {
	Action         MappingAction `yaml:"action" json:"action"`
	TargetID       string        `yaml:"targetId,omitempty" json:"targetId,omitempty"`
	NewName        string        `yaml:"newName,omitempty" json:"newName,omitempty"`
	IsFuelCategory bool          `yaml:"isFuelCategory,omitempty" json:"isFuelCategory,omitempty"`
}

// AircraftMapping resolves a tail number. Aircraft cannot be skipped.
type AircraftMapping struct {
	Action     MappingAction `yaml:"action" json:"action"`
	TargetID   string        `yaml:"targetId,omitempty" json:"targetId,omitempty"`
	TailNumber string        `yaml:"tailNumber" json:"tailNumber"`
	Name       string        `yaml:"name,omitempty" json:"name,omitempty"`
}

// Mappings holds the decisions for an import, keyed by source name.
type Mappings struct {
	Categories     map[string]EntityMapping   `yaml:"categories" json:"categoryMappings"`
	Vendors        map[string]EntityMapping   `yaml:"vendors" json:"vendorMappings"`
	PaymentMethods map[string]EntityMapping   `yaml:"paymentMethods" json:"paymentMethodMappings"`
	Aircraft       map[string]AircraftMapping `yaml:"aircraft" json:"aircraftMappings"`
}

func defaultEntity(e EntityEntry) EntityMapping {
	if e.Exists {
		return EntityMapping{Action: ActionMap, TargetID: e.ExistingID}
	}
	return EntityMapping{Action: ActionCreate, NewName: e.Name}
}

// DefaultMappings maps every entry that exists and creates the rest.
func DefaultMappings(p *Preview) Mappings {
	m := Mappings{
		Categories:     make(map[string]EntityMapping, len(p.Categories)),
		Vendors:        make(map[string]EntityMapping, len(p.Vendors)),
		PaymentMethods: make(map[string]EntityMapping, len(p.PaymentMethods)),
		Aircraft:       make(map[string]AircraftMapping, len(p.Aircraft)),
	}
	for _, e := range p.Categories {
		em := defaultEntity(e)
		em.IsFuelCategory = e.IsFuel
		m.Categories[e.Name] = em
	}
	for _, e := range p.Vendors {
		m.Vendors[e.Name] = defaultEntity(e)
	}
	for _, e := range p.PaymentMethods {
		m.PaymentMethods[e.Name] = defaultEntity(e)
	}
	for _, e := range p.Aircraft {
		am := AircraftMapping{Action: ActionCreate, TailNumber: e.Name}
		if e.Exists {
			am.Action = ActionMap
			am.TargetID = e.ExistingID
		}
		m.Aircraft[e.Name] = am
	}
	return m
}

// IndexMappings attaches each mapping to its catalog key. Mappings naming
// nothing in the catalog are dropped; when several names fold to one key the
// smallest name wins.
func IndexMappings[M any](c *Catalog, m map[string]M) map[EntityKey]M {
	names := make([]string, 0, len(m))
	for name := range m {
		names = append(names, name)
	}
	sort.Sort(sort.Reverse(sort.StringSlice(names)))

	out := make(map[EntityKey]M, len(m))
	for _, name := range names {
		if k, ok := c.Key(name); ok {
			out[k] = m[name]
		}
	}
	return out
}

// LoadMappings reads a YAML mapping file.
func LoadMappings(path string) (Mappings, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return Mappings{}, err
	}
	var m Mappings
	if err := yaml.Unmarshal(data, &m); err != nil {
		return Mappings{}, fmt.Errorf("parse mappings %s: %w", path, err)
	}
	return m, nil
}

// SaveMappings writes m as YAML.
func SaveMappings(path string, m Mappings) error {
	data, err := yaml.Marshal(m)
	if err != nil {
		return err
	}
	return os.WriteFile(path, data, 0o644)
}
