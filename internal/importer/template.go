package importer

import (
	"fmt"
	"regexp"
)

// TemplateColumns is the header of the Hangar Ledger CSV template.
var TemplateColumns = []string{
	"date", "trip_name", "aircraft_tail_number", "vendor_name", "category_name",
	"amount", "gallons", "payment_method", "notes",
}

var isoDate = regexp.MustCompile(`^\d{4}-\d{2}-\d{2}$`)

// ParseTemplate validates a CSV written against the Hangar Ledger template.
// Headers are matched case-insensitively with spaces read as underscores.
func ParseTemplate(data []byte) ParseResult {
	var res ParseResult
	readRows(data, snakeHeader, &res)

	for _, row := range res.Rows {
		switch date := row.Get("date"); {
		case date == "":
			res.fail(row.Line, "date", "", "Missing date")
		case !isoDate.MatchString(date):
			res.fail(row.Line, "date", date, "Invalid date format (expected YYYY-MM-DD)")
		}

		switch amount := row.Get("amount"); {
		case amount == "":
			res.fail(row.Line, "amount", "", "Missing amount")
		case !isNumeric(amount):
			res.fail(row.Line, "amount", amount, "Invalid amount (must be a number)")
		}

		if row.Get("vendor_name") == "" {
			res.warn(row.Line, "vendor_name", "", "Missing vendor name")
		}
		if row.Get("category_name") == "" {
			res.warn(row.Line, "category_name", "", "Missing category name - will use 'Other'")
		}
		if g := row.Get("gallons"); g != "" && !isNumeric(g) {
			res.fail(row.Line, "gallons", g, "Invalid gallons value (must be a number)")
		}
	}
	return res
}

func orDefault(v, def string) string {
	if v == "" {
		return def
	}
	return v
}

// TransformTemplate builds the import preview for validated template rows.
// Every row is one expense with one line item; the trip name doubles as the
// trip number.
func TransformTemplate(rows []Row, existing Existing) *Preview {
	expenses := make([]ParsedExpense, 0, len(rows))
	for i, row := range rows {
		expenses = append(expenses, ParsedExpense{
			SourceExpenseID: fmt.Sprintf("expense-%d", i),
			Date:            row.Get("date"),
			VendorName:      orDefault(row.Get("vendor_name"), "Unknown Vendor"),
			TripNumber:      row.Get("trip_name"),
			TailNumber:      row.Get("aircraft_tail_number"),
			PaymentMethod:   row.Get("payment_method"),
			Notes:           row.Get("notes"),
			LineItems: []ParsedLineItem{{
				SourceItemID: fmt.Sprintf("line-%d", i),
				Category:     orDefault(row.Get("category_name"), DefaultCategory),
				Amount:       amountOrZero(row.Get("amount")),
				Gallons:      optionalQuantity(row.Get("gallons")),
				Description:  row.Get("notes"),
			}},
		})
	}
	trips, standalone := groupTrips(expenses, func(n string) string { return n })

	p := buildPreview(SourceCSVTemplate, trips, standalone, existing)
	if len(standalone) > 0 {
		p.Warnings = append(p.Warnings, fmt.Sprintf(
			"%d expenses have no trip name and will be imported without a trip association", len(standalone)))
	}
	p.RawData = rows
	return p
}
