package importer

import (
	"github.com/shopspring/decimal"
)

// DefaultCategory labels an expense that has no line items.
const DefaultCategory = "Other"

// ParsedLineItem is one categorised amount of a source expense.
type ParsedLineItem struct {
	SourceItemID string              `json:"sourceItemId"`
	Category     string              `json:"category"`
	CategoryID   string              `json:"categoryId"`
	Amount       decimal.Decimal     `json:"amount"`
	Gallons      decimal.NullDecimal `json:"gallons"`
	Description  string              `json:"description"`
	ICAO         string              `json:"icao"`
}

// ParsedExpense groups the line items of one source purchase.
// Date is a YYYY-MM-DD string and compares lexicographically.
type ParsedExpense struct {
	SourceExpenseID string           `json:"sourceExpenseId"`
	Date            string           `json:"date"`
	VendorName      string           `json:"vendorName"`
	VendorID        string           `json:"vendorId"`
	TripNumber      string           `json:"tripNumber"`
	TripFlightID    string           `json:"tripFlightId"`
	TailNumber      string           `json:"tailNumber"`
	PaymentMethod   string           `json:"paymentMethod"`
	Notes           string           `json:"notes"`
	LineItems       []ParsedLineItem `json:"lineItems"`
}

// Total is the sum of the line item amounts.
func (e ParsedExpense) Total() decimal.Decimal {
	total := decimal.Zero
	for _, item := range e.LineItems {
		total = total.Add(item.Amount)
	}
	return total
}

// PrimaryLineItem returns the line item with the largest amount. The first
// one wins on ties.
func (e ParsedExpense) PrimaryLineItem() (ParsedLineItem, bool) {
	if len(e.LineItems) == 0 {
		return ParsedLineItem{}, false
	}
	best := e.LineItems[0]
	for _, item := range e.LineItems[1:] {
		if item.Amount.GreaterThan(best.Amount) {
			best = item
		}
	}
	return best, true
}

// PrimaryCategory is the category of the primary line item, or
// DefaultCategory when there are none.
func (e ParsedExpense) PrimaryCategory() string {
	item, ok := e.PrimaryLineItem()
	if !ok {
		return DefaultCategory
	}
	return item.Category
}

// ParsedTrip collects the expenses sharing a trip number.
type ParsedTrip struct {
	TripNumber string          `json:"tripNumber"`
	Name       string          `json:"name"`
	FlightIDs  []string        `json:"flightIds"`
	TailNumber string          `json:"tailNumber"`
	StartDate  string          `json:"startDate"`
	EndDate    string          `json:"endDate"`
	Expenses   []ParsedExpense `json:"expenses"`
}

// groupTrips partitions expenses by trip number in first-appearance order.
// Expenses without a trip number are returned as standalone.
func groupTrips(expenses []ParsedExpense, tripName func(string) string) ([]ParsedTrip, []ParsedExpense) {
	var (
		trips      []ParsedTrip
		standalone []ParsedExpense
		index      = make(map[string]int)
	)
	for _, e := range expenses {
		if e.TripNumber == "" {
			standalone = append(standalone, e)
			continue
		}
		i, ok := index[e.TripNumber]
		if !ok {
			i = len(trips)
			index[e.TripNumber] = i
			trips = append(trips, ParsedTrip{TripNumber: e.TripNumber, Name: tripName(e.TripNumber)})
		}
		trips[i].Expenses = append(trips[i].Expenses, e)
	}

	for i := range trips {
		t := &trips[i]
		seenFlight := make(map[string]bool)
		for j, e := range t.Expenses {
			if t.TailNumber == "" {
				t.TailNumber = e.TailNumber
			}
			if e.TripFlightID != "" && !seenFlight[e.TripFlightID] {
				seenFlight[e.TripFlightID] = true
				t.FlightIDs = append(t.FlightIDs, e.TripFlightID)
			}
			if j == 0 || e.Date < t.StartDate {
				t.StartDate = e.Date
			}
			if j == 0 || e.Date > t.EndDate {
				t.EndDate = e.Date
			}
		}
	}
	return trips, standalone
}

func countLineItems(expenses []ParsedExpense) int {
	n := 0
	for _, e := range expenses {
		n += len(e.LineItems)
	}
	return n
}
