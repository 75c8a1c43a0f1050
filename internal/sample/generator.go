// Package sample generates Airplane Manager style exports for demos and
// load tests.
package sample

import (
	"bytes"
	"encoding/csv"
	"fmt"
	"math/rand"
	"time"
)

// Header matches the Airplane Manager expense export.
var Header = []string{
	"ExpenseID", "ExpenseItemID", "DateOccurred", "FlightID", "TripNumber", "TailNumber",
	"VendorID", "VendorName", "CategoryID", "Category", "PaymentMethod", "ICAO",
	"Gallons", "Amount", "Notes",
}

// Options shapes a generated export.
type Options struct {
	Seed            int64
	Trips           int
	ExpensesPerTrip int
	Standalone      int
	Start           time.Time
}

// Stats describes what Generate wrote.
type Stats struct {
	Trips     int
	Expenses  int
	LineItems int
}

var (
	tails    = []string{"N491JL", "N12345", "N77AV"}
	airports = []string{"KAUS", "KLAS", "KTEB", "KPBI", "KASE"}
	vendors  = []string{"Signature Flight Support", "Atlantic Aviation", "Million Air", "Jet Aviation"}
	methods  = []string{"Amex", "Company Card", "Cash"}
	extras   = []string{"Landing Fees", "Handling", "Catering", "Hangar"}
)

// Generate writes a CSV with Trips trips of ExpensesPerTrip expenses each,
// plus Standalone expenses without trip or aircraft. Every expense has a
// fuel line and sometimes a second fee line. The same Options always
// produce the same bytes.
func Generate(opts Options) ([]byte, Stats, error) {
	rng := rand.New(rand.NewSource(opts.Seed))
	start := opts.Start
	if start.IsZero() {
		start = time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	}

	var (
		buf   bytes.Buffer
		stats Stats
		n     int
	)
	w := csv.NewWriter(&buf)
	if err := w.Write(Header); err != nil {
		return nil, stats, err
	}

	expense := func(date time.Time, flight, trip, tail string) error {
		n++
		stats.Expenses++
		id := fmt.Sprintf("%d", 100000+n)
		vendorIdx := rng.Intn(len(vendors))
		vendor := vendors[vendorIdx]
		method := methods[rng.Intn(len(methods))]
		icao := airports[rng.Intn(len(airports))]
		day := date.Format("2006-01-02")
		gallons := 50 + rng.Intn(400)
		fuel := fmt.Sprintf("%.2f", float64(gallons)*(5+rng.Float64()*2))

		rows := [][]string{{
			id, id + "-1", day, flight, trip, tail, fmt.Sprint(vendorIdx + 1), vendor,
			"1", "Fuel", method, icao, fmt.Sprint(gallons), fuel, "",
		}}
		if rng.Intn(2) == 0 {
			fee := extras[rng.Intn(len(extras))]
			rows = append(rows, []string{
				id, id + "-2", day, flight, trip, tail, fmt.Sprint(vendorIdx + 1), vendor,
				"2", fee, method, icao, "", fmt.Sprintf("%d.00", 25+rng.Intn(300)), fee + " at " + icao,
			})
		}
		stats.LineItems += len(rows)
		return w.WriteAll(rows)
	}

	for t := 0; t < opts.Trips; t++ {
		stats.Trips++
		trip := fmt.Sprintf("%d", 322000+t)
		tail := tails[t%len(tails)]
		for e := 0; e < opts.ExpensesPerTrip; e++ {
			date := start.AddDate(0, 0, t*7+e)
			if err := expense(date, fmt.Sprintf("F%d-%d", t, e), trip, tail); err != nil {
				return nil, stats, err
			}
		}
	}
	for s := 0; s < opts.Standalone; s++ {
		if err := expense(start.AddDate(0, 0, s), "", "", ""); err != nil {
			return nil, stats, err
		}
	}
	w.Flush()
	return buf.Bytes(), stats, w.Error()
}
