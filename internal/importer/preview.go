package importer

import (
	"strings"

	"github.com/agnivade/levenshtein"
)

// ExistingEntity is a named row already in the ledger.
type ExistingEntity struct {
	ID   string
	Name string
}

type ExistingCategory struct {
	ID     string
	Name   string
	IsFuel bool
}

type ExistingAircraft struct {
	ID         string
	TailNumber string
}

type ExistingTrip struct {
	ID        string
	Name      string
	StartDate string
}

// Existing is a snapshot of the ledger entities an import is reconciled
// against.
type Existing struct {
	Categories     []ExistingCategory
	Vendors        []ExistingEntity
	PaymentMethods []ExistingEntity
	Aircraft       []ExistingAircraft
	Trips          []ExistingTrip
}

// EntityEntry is one distinct name the user decides about. For aircraft Name
// is the tail number. Suggestion is the closest existing name for entries that
// do not exist, and is advisory only.
type EntityEntry struct {
	Name       string `json:"name"`
	Exists     bool   `json:"exists"`
	ExistingID string `json:"existingId,omitempty"`
	IsFuel     bool   `json:"isFuel,omitempty"`
	Suggestion string `json:"suggestion,omitempty"`
}

// DuplicateTrip is a parsed trip whose name matches an existing trip.
// StartDate is the existing trip's start date.
type DuplicateTrip struct {
	ImportTripName   string `json:"importTripName"`
	ExistingTripID   string `json:"existingTripId"`
	ExistingTripName string `json:"existingTripName"`
	StartDate        string `json:"startDate"`
}

// Preview is the reconciled view of a parsed import.
type Preview struct {
	Source         Source          `json:"source"`
	Aircraft       []EntityEntry   `json:"aircraft"`
	Categories     []EntityEntry   `json:"categories"`
	Vendors        []EntityEntry   `json:"vendors"`
	PaymentMethods []EntityEntry   `json:"paymentMethods"`
	Trips          []ParsedTrip    `json:"trips"`
	Standalone     []ParsedExpense `json:"standalone"`
	Duplicates     []DuplicateTrip `json:"duplicates"`
	TotalExpenses  int             `json:"totalExpenses"`
	TotalLineItems int             `json:"totalLineItems"`
	ReceiptCount   int             `json:"receiptCount"`
	Warnings       []string        `json:"warnings"`
	Errors         []string        `json:"errors"`
	RawData        []Row           `json:"rawData"`
}

var fuelMarkers = []string{"fuel", "avgas", "jet-a", "jet fuel"}

// IsLikelyFuelCategory guesses whether a category tracks fuel quantity.
func IsLikelyFuelCategory(name string) bool {
	n := strings.ToLower(strings.TrimSpace(name))
	for _, m := range fuelMarkers {
		if strings.Contains(n, m) {
			return true
		}
	}
	return false
}

// DetectDuplicateTrips matches parsed trips to existing trips by
// case-insensitive name equality.
func DetectDuplicateTrips(trips []ParsedTrip, existing []ExistingTrip) []DuplicateTrip {
	byName := make(map[string]ExistingTrip, len(existing))
	for _, t := range existing {
		f := fold(t.Name)
		if _, ok := byName[f]; !ok {
			byName[f] = t
		}
	}
	var out []DuplicateTrip
	for _, t := range trips {
		match, ok := byName[fold(t.Name)]
		if !ok {
			continue
		}
		out = append(out, DuplicateTrip{
			ImportTripName:   t.Name,
			ExistingTripID:   match.ID,
			ExistingTripName: match.Name,
			StartDate:        match.StartDate,
		})
	}
	return out
}

type namedID struct {
	id   string
	name string
}

// entries turns a catalog into preview entries against the snapshot rows.
func entries(c *Catalog, existing []namedID) []EntityEntry {
	byName := make(map[string]string, len(existing))
	for _, e := range existing {
		f := fold(e.name)
		if _, ok := byName[f]; !ok {
			byName[f] = e.id
		}
	}
	out := make([]EntityEntry, 0, c.Len())
	for _, k := range c.Keys() {
		name := c.Name(k)
		entry := EntityEntry{Name: name}
		if id, ok := byName[fold(name)]; ok {
			entry.Exists = true
			entry.ExistingID = id
		} else {
			entry.Suggestion = suggest(name, existing)
		}
		out = append(out, entry)
	}
	return out
}

// suggest returns the existing name closest to name by edit distance, or ""
// when none is close enough.
func suggest(name string, existing []namedID) string {
	best, bestScore := "", 0.4
	for _, e := range existing {
		a, b := strings.ToUpper(name), strings.ToUpper(e.name)
		maxLen := len(a)
		if len(b) > maxLen {
			maxLen = len(b)
		}
		if maxLen == 0 {
			continue
		}
		score := float64(levenshtein.ComputeDistance(a, b)) / float64(maxLen)
		if score < bestScore {
			best, bestScore = e.name, score
		}
	}
	return best
}

func buildPreview(source Source, trips []ParsedTrip, standalone []ParsedExpense, existing Existing) *Preview {
	all := AllExpenses(trips, standalone)
	cats := BuildCatalogs(all)

	categories := make([]namedID, 0, len(existing.Categories))
	for _, c := range existing.Categories {
		categories = append(categories, namedID{c.ID, c.Name})
	}
	vendors := make([]namedID, 0, len(existing.Vendors))
	for _, v := range existing.Vendors {
		vendors = append(vendors, namedID{v.ID, v.Name})
	}
	payments := make([]namedID, 0, len(existing.PaymentMethods))
	for _, p := range existing.PaymentMethods {
		payments = append(payments, namedID{p.ID, p.Name})
	}
	aircraft := make([]namedID, 0, len(existing.Aircraft))
	for _, a := range existing.Aircraft {
		aircraft = append(aircraft, namedID{a.ID, a.TailNumber})
	}

	catEntries := entries(cats.Categories, categories)
	for i := range catEntries {
		catEntries[i].IsFuel = IsLikelyFuelCategory(catEntries[i].Name)
	}

	return &Preview{
		Source:         source,
		Aircraft:       entries(cats.Aircraft, aircraft),
		Categories:     catEntries,
		Vendors:        entries(cats.Vendors, vendors),
		PaymentMethods: entries(cats.PaymentMethods, payments),
		Trips:          trips,
		Standalone:     standalone,
		Duplicates:     DetectDuplicateTrips(trips, existing.Trips),
		TotalExpenses:  len(all),
		TotalLineItems: countLineItems(all),
		Warnings:       []string{},
		Errors:         []string{},
	}
}
