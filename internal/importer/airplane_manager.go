package importer

import (
	"fmt"
	"regexp"
	"strings"
)

// Airplane Manager export columns read by the importer.
const (
	amExpenseID     = "ExpenseID"
	amExpenseItemID = "ExpenseItemID"
	amDate          = "DateOccurred"
	amFlightID      = "FlightID"
	amTripNumber    = "TripNumber"
	amTailNumber    = "TailNumber"
	amVendorID      = "VendorID"
	amVendorName    = "VendorName"
	amCategoryID    = "CategoryID"
	amCategory      = "Category"
	amPaymentMethod = "PaymentMethod"
	amICAO          = "ICAO"
	amGallons       = "Gallons"
	amAmount        = "Amount"
	amNotes         = "Notes"
)

var digitsOnly = regexp.MustCompile(`^\d+$`)

// looksLikeID reports whether a category value is a bare numeric id.
func looksLikeID(v string) bool {
	return digitsOnly.MatchString(strings.TrimSpace(v))
}

// ParseAirplaneManager validates an Airplane Manager expense CSV.
func ParseAirplaneManager(data []byte) ParseResult {
	var res ParseResult
	readRows(data, trimHeader, &res)

	for _, row := range res.Rows {
		if row.Get(amDate) == "" {
			res.fail(row.Line, amDate, "", "Missing date")
		}
		if row.Get(amAmount) == "" {
			res.fail(row.Line, amAmount, "", "Missing amount")
		}
		if c := row.Get(amCategory); c != "" && looksLikeID(c) {
			res.warn(row.Line, amCategory, c, fmt.Sprintf("Category appears to be an ID (%s) instead of a name", c))
		}
		if row.Get(amTripNumber) == "" && row.Get(amTailNumber) == "" {
			res.warn(row.Line, amTripNumber, "", "No trip or aircraft information - will be imported as standalone expense")
		}
	}
	return res
}

func amCategoryName(v string) string {
	switch {
	case looksLikeID(v):
		return "Unknown"
	case v == "":
		return DefaultCategory
	default:
		return v
	}
}

// assembleAirplaneManager groups rows into expenses by ExpenseID, falling
// back to date and vendor when the id is absent. The first row of a group
// carries the expense fields.
func assembleAirplaneManager(rows []Row) []ParsedExpense {
	var (
		expenses []ParsedExpense
		index    = make(map[string]int)
	)
	for _, row := range rows {
		key := row.Get(amExpenseID)
		if key == "" {
			key = fmt.Sprintf("standalone-%s-%s", row.Get(amDate), row.Get(amVendorName))
		}
		i, ok := index[key]
		if !ok {
			vendor := row.Get(amVendorName)
			if vendor == "" {
				vendor = "Unknown Vendor"
			}
			i = len(expenses)
			index[key] = i
			expenses = append(expenses, ParsedExpense{
				SourceExpenseID: key,
				Date:            row.Get(amDate),
				VendorName:      vendor,
				VendorID:        row.Get(amVendorID),
				TripNumber:      row.Get(amTripNumber),
				TripFlightID:    row.Get(amFlightID),
				TailNumber:      row.Get(amTailNumber),
				PaymentMethod:   row.Get(amPaymentMethod),
				Notes:           row.Get(amNotes),
			})
		}
		expenses[i].LineItems = append(expenses[i].LineItems, ParsedLineItem{
			SourceItemID: row.Get(amExpenseItemID),
			Category:     amCategoryName(row.Get(amCategory)),
			CategoryID:   row.Get(amCategoryID),
			Amount:       amountOrZero(row.Get(amAmount)),
			Gallons:      optionalQuantity(row.Get(amGallons)),
			Description:  row.Get(amNotes),
			ICAO:         row.Get(amICAO),
		})
	}
	return expenses
}

// TransformAirplaneManager builds the import preview for validated rows.
func TransformAirplaneManager(rows []Row, existing Existing) *Preview {
	expenses := assembleAirplaneManager(rows)
	trips, standalone := groupTrips(expenses, func(n string) string { return "Trip " + n })

	p := buildPreview(SourceAirplaneManager, trips, standalone, existing)
	if len(standalone) > 0 {
		p.Warnings = append(p.Warnings, fmt.Sprintf(
			"%d expenses have no trip information and will be imported without a trip association", len(standalone)))
	}
	p.RawData = rows
	return p
}
