package service

import (
	"context"
	"database/sql"
	"encoding/csv"
	"fmt"
	"io"
	"sort"

	"github.com/shopspring/decimal"
	"github.com/xuri/excelize/v2"

	"github.com/jask/hangarledger/internal/database/repository"
	"github.com/jask/hangarledger/internal/importer"
)

// ExportColumns is the header of an expense export. It is a superset of
// importer.TemplateColumns, so an export can be imported again as a template.
var ExportColumns = []string{
	"date", "trip_name", "trip_start_date", "trip_end_date", "aircraft_tail_number",
	"vendor_name", "category_name", "amount", "gallons", "payment_method", "notes",
}

var templateExample = []string{
	"2024-01-15", "Trip to KLAS", "N12345", "Atlantic Aviation", "Fuel",
	"1250.00", "200.5", "Credit Card", "Fuel stop on way to Vegas",
}

const exportSheet = "Expenses"

// ExportService flattens the ledger into one row per line item.
type ExportService struct {
	Expenses  *repository.ExpenseRepo
	Trips     *repository.TripRepo
	LineItems *repository.LineItemRepo
}

func NewExportService(db *sql.DB) *ExportService {
	return &ExportService{
		Expenses:  repository.NewExpenseRepo(db),
		Trips:     repository.NewTripRepo(db),
		LineItems: repository.NewLineItemRepo(db),
	}
}

// ExportRow is one line of an expense export.
type ExportRow struct {
	Date          string
	TripName      string
	TripStartDate string
	TripEndDate   string
	TailNumber    string
	VendorName    string
	CategoryName  string
	Amount        decimal.Decimal
	Gallons       decimal.NullDecimal
	PaymentMethod string
	Notes         string
}

func (r ExportRow) record() []string {
	gallons := ""
	if r.Gallons.Valid {
		gallons = r.Gallons.Decimal.String()
	}
	return []string{
		r.Date, r.TripName, r.TripStartDate, r.TripEndDate, r.TailNumber,
		r.VendorName, r.CategoryName, r.Amount.String(), gallons, r.PaymentMethod, r.Notes,
	}
}

// Rows returns the export rows, newest expense first. An expense without
// line items still yields one row with a zero amount.
func (s *ExportService) Rows(ctx context.Context) ([]ExportRow, error) {
	expenses, err := s.Expenses.List(ctx)
	if err != nil {
		return nil, fmt.Errorf("list expenses: %w", err)
	}
	trips, err := s.Trips.List(ctx)
	if err != nil {
		return nil, fmt.Errorf("list trips: %w", err)
	}
	items, err := s.LineItems.List(ctx)
	if err != nil {
		return nil, fmt.Errorf("list line items: %w", err)
	}

	tripByID := make(map[string]repository.Trip, len(trips))
	for _, t := range trips {
		tripByID[t.ID] = t
	}
	itemsByExpense := make(map[string][]repository.LineItem)
	for _, li := range items {
		itemsByExpense[li.ExpenseID] = append(itemsByExpense[li.ExpenseID], li)
	}

	sort.SliceStable(expenses, func(i, j int) bool { return expenses[i].Date > expenses[j].Date })

	var rows []ExportRow
	for _, e := range expenses {
		base := ExportRow{
			Date:          e.Date,
			VendorName:    e.Vendor,
			PaymentMethod: deref(e.PaymentMethod),
			Notes:         deref(e.Notes),
		}
		if e.TripID != nil {
			if t, ok := tripByID[*e.TripID]; ok {
				base.TripName = t.Name
				base.TripStartDate = t.StartDate
				base.TripEndDate = deref(t.EndDate)
				base.TailNumber = t.Aircraft
			}
		}

		lis := itemsByExpense[e.ID]
		if len(lis) == 0 {
			rows = append(rows, base)
			continue
		}
		sort.SliceStable(lis, func(i, j int) bool { return sortOrder(lis[i]) < sortOrder(lis[j]) })
		for _, li := range lis {
			row := base
			row.CategoryName = li.Category
			row.Amount = li.Amount
			row.Gallons = li.QuantityGallons
			if li.Description != nil {
				row.Notes = *li.Description
			}
			rows = append(rows, row)
		}
	}
	return rows, nil
}

func sortOrder(li repository.LineItem) int {
	if li.SortOrder == nil {
		return 0
	}
	return *li.SortOrder
}

// ExpensesCSV writes the export as CSV.
func (s *ExportService) ExpensesCSV(ctx context.Context, w io.Writer) error {
	rows, err := s.Rows(ctx)
	if err != nil {
		return err
	}
	cw := csv.NewWriter(w)
	if err := cw.Write(ExportColumns); err != nil {
		return err
	}
	for _, r := range rows {
		if err := cw.Write(r.record()); err != nil {
			return err
		}
	}
	cw.Flush()
	return cw.Error()
}

// ExpensesXLSX writes the export as a workbook with a single Expenses sheet.
// Amount and gallons are numeric cells.
func (s *ExportService) ExpensesXLSX(ctx context.Context, w io.Writer) error {
	rows, err := s.Rows(ctx)
	if err != nil {
		return err
	}
	f := excelize.NewFile()
	defer f.Close()
	if err := f.SetSheetName("Sheet1", exportSheet); err != nil {
		return err
	}

	header := make([]any, len(ExportColumns))
	for i, c := range ExportColumns {
		header[i] = c
	}
	if err := f.SetSheetRow(exportSheet, "A1", &header); err != nil {
		return err
	}
	for i, r := range rows {
		values := make([]any, 0, len(ExportColumns))
		for _, v := range r.record() {
			values = append(values, v)
		}
		values[7] = r.Amount.InexactFloat64()
		if r.Gallons.Valid {
			values[8] = r.Gallons.Decimal.InexactFloat64()
		}
		cell, err := excelize.CoordinatesToCellName(1, i+2)
		if err != nil {
			return err
		}
		if err := f.SetSheetRow(exportSheet, cell, &values); err != nil {
			return err
		}
	}
	return f.Write(w)
}

// TemplateCSV writes an empty import template with one example row.
func TemplateCSV(w io.Writer) error {
	cw := csv.NewWriter(w)
	if err := cw.Write(importer.TemplateColumns); err != nil {
		return err
	}
	if err := cw.Write(templateExample); err != nil {
		return err
	}
	cw.Flush()
	return cw.Error()
}
