package service

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"

	"github.com/jask/hangarledger/internal/database/repository"
	"github.com/jask/hangarledger/internal/importer"
	"github.com/jask/hangarledger/internal/sample"
)

var tripRows = []string{
	"E1,I1,2024-06-01,F1,101,N1,V1,Signature,10,Fuel,Amex,KAUS,100,500,",
	"E1,I2,2024-06-01,F1,101,N1,V1,Signature,11,Landing Fees,Amex,KAUS,,50,",
}

func TestExecuteAirplaneManagerTrip(t *testing.T) {
	t.Parallel()

	ctx := testContext(t)
	l := newLedger(t, true)
	svc := NewImportService(l.db, l.blobs, nil)

	p := preview(t, ctx, svc, importer.SourceAirplaneManager, amCSV(tripRows...))
	require.Len(t, p.Categories, 2)
	for _, c := range p.Categories {
		require.True(t, c.Exists, "seeded category %s", c.Name)
	}

	req := NewImportRequest(p, importer.DefaultMappings(p))
	req.Filename = "expenses.csv"
	res, err := svc.Execute(ctx, req)
	require.NoError(t, err)
	require.True(t, res.Success)
	require.Empty(t, res.Errors)
	require.Equal(t, Created{Vendors: 1, PaymentMethods: 1, Aircraft: 1, Trips: 1, Expenses: 1, LineItems: 2}, res.Created)

	expenses, err := repository.NewExpenseRepo(l.db).List(ctx)
	require.NoError(t, err)
	require.Len(t, expenses, 1)
	e := expenses[0]
	require.True(t, e.Amount.Equal(decimal.NewFromInt(550)))
	require.Equal(t, "Fuel", e.Category)
	require.Equal(t, "Signature", e.Vendor)
	require.NotNil(t, e.TripID)
	require.NotNil(t, e.VendorID)
	require.NotNil(t, e.CategoryID)

	trip, err := repository.NewTripRepo(l.db).Get(ctx, *e.TripID)
	require.NoError(t, err)
	require.Equal(t, "Trip 101", trip.Name)
	require.Equal(t, "N1", trip.Aircraft)
	require.Equal(t, "2024-06-01", trip.StartDate)

	items, err := repository.NewLineItemRepo(l.db).ListByExpense(ctx, e.ID)
	require.NoError(t, err)
	require.Len(t, items, 2)
	require.Equal(t, "Fuel", items[0].Category)
	require.True(t, items[0].QuantityGallons.Valid)
	require.Equal(t, 0, *items[0].SortOrder)
	require.Equal(t, 1, *items[1].SortOrder)

	session, err := repository.NewImportSessionRepo(l.db).Get(ctx, res.SessionID)
	require.NoError(t, err)
	require.Equal(t, repository.SessionCompleted, session.Status)
	require.Equal(t, 2, session.TotalRecords)
	require.Equal(t, 3, session.ProcessedRecords)
	require.Equal(t, 0, session.FailedRecords)
	require.Equal(t, "expenses.csv", *session.OriginalFilename)
	require.Contains(t, *session.Metadata, "vendorMappings")

	logs, err := repository.NewImportSessionRepo(l.db).Logs(ctx, res.SessionID)
	require.NoError(t, err)
	require.Len(t, logs, 1)
	require.Equal(t, repository.LogSuccess, logs[0].Status)
	require.Equal(t, e.ID, *logs[0].EntityID)
}

func TestRepeatedCreateMappingsReuseEntities(t *testing.T) {
	t.Parallel()

	ctx := testContext(t)
	l := newLedger(t, false)
	svc := NewImportService(l.db, l.blobs, nil)

	p := preview(t, ctx, svc, importer.SourceAirplaneManager, amCSV(
		"E1,I1,2024-06-01,F1,101,n1,V1,Signature,10,Fuel,Amex,KAUS,100,500,",
		"E2,I2,2024-06-02,F1,101,n1,V1,SIGNATURE,10,fuel,amex,KAUS,,50,",
	))
	m := importer.DefaultMappings(p)
	for _, v := range m.Vendors {
		require.Equal(t, importer.ActionCreate, v.Action)
	}

	first, err := svc.Execute(ctx, NewImportRequest(p, m))
	require.NoError(t, err)
	require.True(t, first.Success, "errors: %v", first.Errors)
	require.Equal(t, 1, first.Created.Vendors)
	require.Equal(t, 1, first.Created.Categories)
	require.Equal(t, 1, first.Created.PaymentMethods)
	require.Equal(t, 1, first.Created.Aircraft)

	second, err := svc.Execute(ctx, NewImportRequest(p, m))
	require.NoError(t, err)
	require.True(t, second.Success, "errors: %v", second.Errors)
	require.Zero(t, second.Created.Vendors)
	require.Zero(t, second.Created.Categories)
	require.Zero(t, second.Created.PaymentMethods)
	require.Zero(t, second.Created.Aircraft)
	require.Equal(t, 2, second.Created.Expenses)

	require.Equal(t, 1, l.count(t, "vendors"))
	require.Equal(t, 1, l.count(t, "expense_categories"))
	require.Equal(t, 1, l.count(t, "payment_methods"))
	require.Equal(t, 1, l.count(t, "aircraft"))

	aircraft, err := repository.NewAircraftRepo(l.db).List(ctx)
	require.NoError(t, err)
	require.Equal(t, "N1", aircraft[0].TailNumber)
}

func TestMapWithoutTargetLooksUpByName(t *testing.T) {
	t.Parallel()

	ctx := testContext(t)
	l := newLedger(t, true)
	require.NoError(t, repository.NewVendorRepo(l.db).Insert(ctx, repository.Vendor{ID: "v-sig", Name: "signature", IsActive: true}))
	svc := NewImportService(l.db, l.blobs, nil)

	p := preview(t, ctx, svc, importer.SourceAirplaneManager, amCSV(
		"E1,I1,2024-06-01,,,,V1,Signature,10,Fuel,,,,500,",
		"E2,I2,2024-06-02,,,,V2,Atlantic,10,Fuel,,,,80,",
	))
	m := importer.DefaultMappings(p)
	m.Vendors["Signature"] = importer.EntityMapping{Action: importer.ActionMap}
	m.Vendors["Atlantic"] = importer.EntityMapping{Action: importer.ActionMap}

	res, err := svc.Execute(ctx, NewImportRequest(p, m))
	require.NoError(t, err)
	require.True(t, res.Success, "errors: %v", res.Errors)
	require.Zero(t, res.Created.Vendors)
	require.Equal(t, 2, res.Created.Expenses)
	require.Equal(t, 1, l.count(t, "vendors"))

	expenses, err := repository.NewExpenseRepo(l.db).List(ctx)
	require.NoError(t, err)
	byVendor := make(map[string]repository.Expense, len(expenses))
	for _, e := range expenses {
		byVendor[e.Vendor] = e
	}
	require.NotNil(t, byVendor["Signature"].VendorID)
	require.Equal(t, "v-sig", *byVendor["Signature"].VendorID)
	require.Nil(t, byVendor["Atlantic"].VendorID)
}

func TestReimportReusesEntitiesAndSkipsDuplicateTrips(t *testing.T) {
	t.Parallel()

	ctx := testContext(t)
	l := newLedger(t, false)
	svc := NewImportService(l.db, l.blobs, nil)
	data := amCSV(tripRows...)

	first := preview(t, ctx, svc, importer.SourceAirplaneManager, data)
	_, err := svc.Execute(ctx, NewImportRequest(first, importer.DefaultMappings(first)))
	require.NoError(t, err)

	second := preview(t, ctx, svc, importer.SourceAirplaneManager, data)
	require.Len(t, second.Duplicates, 1)
	require.Equal(t, "Trip 101", second.Duplicates[0].ImportTripName)
	for _, v := range second.Vendors {
		require.True(t, v.Exists)
	}

	req := NewImportRequest(second, importer.DefaultMappings(second))
	req.SkipDuplicateTripNames = []string{second.Duplicates[0].ImportTripName}
	res, err := svc.Execute(ctx, req)
	require.NoError(t, err)
	require.True(t, res.Success)
	require.Equal(t, 1, res.Skipped)
	require.Equal(t, Created{}, res.Created)

	require.Equal(t, 1, l.count(t, "vendors"))
	require.Equal(t, 2, l.count(t, "expense_categories"))
	require.Equal(t, 1, l.count(t, "aircraft"))
	require.Equal(t, 1, l.count(t, "trips"))
	require.Equal(t, 1, l.count(t, "expenses"))

	logs, err := repository.NewImportSessionRepo(l.db).Logs(ctx, res.SessionID)
	require.NoError(t, err)
	require.Len(t, logs, 1)
	require.Equal(t, repository.LogSkipped, logs[0].Status)
	require.Equal(t, 0, logs[0].RowNumber)
}

func TestSkipDuplicateTripNamesIsCaseSensitive(t *testing.T) {
	t.Parallel()

	ctx := testContext(t)
	l := newLedger(t, false)
	svc := NewImportService(l.db, l.blobs, nil)

	p := preview(t, ctx, svc, importer.SourceAirplaneManager, amCSV(tripRows...))
	req := NewImportRequest(p, importer.DefaultMappings(p))
	req.SkipDuplicateTripNames = []string{"trip 101"}
	res, err := svc.Execute(ctx, req)
	require.NoError(t, err)
	require.Equal(t, 0, res.Skipped)
	require.Equal(t, 1, res.Created.Trips)
}

func TestReceiptsAttachByFilename(t *testing.T) {
	t.Parallel()

	ctx := testContext(t)
	l := newLedger(t, true)
	svc := NewImportService(l.db, l.blobs, nil)

	p := preview(t, ctx, svc, importer.SourceAirplaneManager, amCSV(tripRows...))
	req := NewImportRequest(p, importer.DefaultMappings(p))
	pdf := []byte("%PDF-1.4 receipt")
	req.Receipts = []importer.ReceiptFile{
		{Filename: "receipts/2024-06-01 N1 101 KAUS UploadID-1187369.pdf", Data: pdf, ContentType: "application/pdf"},
		{Filename: "2024-06-02 N1 101 KAUS other.pdf", Data: pdf},
		{Filename: "scan.pdf", Data: pdf},
	}
	res, err := svc.Execute(ctx, req)
	require.NoError(t, err)
	require.True(t, res.Success)
	require.Empty(t, res.Errors)
	require.Equal(t, 1, res.Created.Receipts)

	receipts, err := repository.NewReceiptRepo(l.db).List(ctx)
	require.NoError(t, err)
	require.Len(t, receipts, 1)
	r := receipts[0]
	require.Equal(t, "2024-06-01 N1 101 KAUS UploadID-1187369.pdf", *r.OriginalFilename)
	require.True(t, strings.HasPrefix(r.StoragePath, "receipts/"+r.ExpenseID+"/"))
	require.True(t, strings.HasSuffix(r.StoragePath, "-2024-06-01_N1_101_KAUS_UploadID-1187369.pdf"))

	got, err := l.blobs.Download(ctx, r.StoragePath)
	require.NoError(t, err)
	require.Equal(t, pdf, got)

	session, err := repository.NewImportSessionRepo(l.db).Get(ctx, res.SessionID)
	require.NoError(t, err)
	require.Equal(t, 4, session.ProcessedRecords)
}

func TestReceiptFailureDoesNotFailImport(t *testing.T) {
	t.Parallel()

	ctx := testContext(t)
	l := newLedger(t, true)
	svc := NewImportService(l.db, failingBlobs{l.blobs}, nil)

	p := preview(t, ctx, svc, importer.SourceAirplaneManager, amCSV(tripRows...))
	req := NewImportRequest(p, importer.DefaultMappings(p))
	req.Receipts = []importer.ReceiptFile{{Filename: "2024-06-01 N1 101 KAUS a.pdf", Data: []byte("x")}}
	res, err := svc.Execute(ctx, req)
	require.NoError(t, err)
	require.True(t, res.Success)
	require.Equal(t, 0, res.Failed)
	require.Len(t, res.Errors, 1)
	require.Contains(t, res.Errors[0], "Receipt 2024-06-01 N1 101 KAUS a.pdf: bucket unavailable")
	require.Equal(t, 0, l.count(t, "receipts"))
}

// flakyExpenses rejects expenses from one vendor.
type flakyExpenses struct {
	ExpenseStore
	vendor string
}

func (f flakyExpenses) Insert(ctx context.Context, e repository.Expense) error {
	if e.Vendor == f.vendor {
		return errors.New("disk full")
	}
	return f.ExpenseStore.Insert(ctx, e)
}

func TestFailedExpenseIsRecordedAndRunContinues(t *testing.T) {
	t.Parallel()

	ctx := testContext(t)
	l := newLedger(t, true)
	svc := NewImportService(l.db, l.blobs, nil)
	svc.Expenses = flakyExpenses{ExpenseStore: svc.Expenses, vendor: "Atlantic"}

	p := preview(t, ctx, svc, importer.SourceAirplaneManager, amCSV(
		"E1,I1,2024-06-01,F1,101,N1,V1,Signature,10,Fuel,Amex,KAUS,100,500,",
		"E2,I2,2024-06-02,F1,101,N1,V2,Atlantic,10,Fuel,Amex,KLAS,80,400,",
	))
	res, err := svc.Execute(ctx, NewImportRequest(p, importer.DefaultMappings(p)))
	require.NoError(t, err)
	require.False(t, res.Success)
	require.Equal(t, 1, res.Failed)
	require.Equal(t, 1, res.Created.Expenses)
	require.Equal(t, []string{"Expense 2024-06-02 Atlantic: disk full"}, res.Errors)

	session, err := repository.NewImportSessionRepo(l.db).Get(ctx, res.SessionID)
	require.NoError(t, err)
	require.Equal(t, repository.SessionCompleted, session.Status)
	require.Equal(t, 1, session.FailedRecords)

	logs, err := repository.NewImportSessionRepo(l.db).Logs(ctx, res.SessionID)
	require.NoError(t, err)
	statuses := map[string]int{}
	for _, lg := range logs {
		statuses[lg.Status]++
	}
	require.Equal(t, map[string]int{repository.LogSuccess: 1, repository.LogError: 1}, statuses)
}

func TestSkippedAndUnknownMappings(t *testing.T) {
	t.Parallel()

	ctx := testContext(t)
	l := newLedger(t, false)
	svc := NewImportService(l.db, l.blobs, nil)

	p := preview(t, ctx, svc, importer.SourceAirplaneManager, amCSV(tripRows...))
	m := importer.DefaultMappings(p)
	m.Vendors["Signature"] = importer.EntityMapping{Action: importer.ActionSkip}
	m.Categories["Landing Fees"] = importer.EntityMapping{Action: "merge"}

	res, err := svc.Execute(ctx, NewImportRequest(p, m))
	require.NoError(t, err)
	require.False(t, res.Success)
	require.Equal(t, 1, res.Failed)
	require.Len(t, res.Errors, 1)
	require.True(t, strings.HasPrefix(res.Errors[0], "Category Landing Fees: "))
	require.Equal(t, 0, res.Created.Vendors)
	require.Equal(t, 1, res.Created.Categories)
	require.Equal(t, 2, res.Created.LineItems)

	expenses, err := repository.NewExpenseRepo(l.db).List(ctx)
	require.NoError(t, err)
	require.Len(t, expenses, 1)
	require.Nil(t, expenses[0].VendorID)
	require.Equal(t, "Signature", expenses[0].Vendor)

	items, err := repository.NewLineItemRepo(l.db).ListByExpense(ctx, expenses[0].ID)
	require.NoError(t, err)
	require.NotNil(t, items[0].CategoryID)
	require.Nil(t, items[1].CategoryID)
}

func TestTemplateTripWithoutAircraftImportsLooseExpenses(t *testing.T) {
	t.Parallel()

	ctx := testContext(t)
	l := newLedger(t, true)
	svc := NewImportService(l.db, l.blobs, nil)

	data := []byte(strings.Join([]string{
		strings.Join(importer.TemplateColumns, ","),
		"2024-01-15,Trip to KLAS,,Atlantic Aviation,Fuel,1250.00,200.5,Credit Card,Fuel stop",
		"2024-01-16,,,Atlantic Aviation,Catering,80,,Credit Card,",
	}, "\n"))
	p := preview(t, ctx, svc, importer.SourceCSVTemplate, data)
	require.Len(t, p.Trips, 1)
	require.Len(t, p.Standalone, 1)

	res, err := svc.Execute(ctx, NewImportRequest(p, importer.DefaultMappings(p)))
	require.NoError(t, err)
	require.True(t, res.Success)
	require.Equal(t, 0, res.Created.Trips)
	require.Equal(t, 2, res.Created.Expenses)

	expenses, err := repository.NewExpenseRepo(l.db).List(ctx)
	require.NoError(t, err)
	for _, e := range expenses {
		require.Nil(t, e.TripID)
	}
}

func TestExecuteStopsOnCancelledContext(t *testing.T) {
	t.Parallel()

	l := newLedger(t, false)
	svc := NewImportService(l.db, l.blobs, nil)
	p := preview(t, testContext(t), svc, importer.SourceAirplaneManager, amCSV(tripRows...))

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err := svc.Execute(ctx, NewImportRequest(p, importer.DefaultMappings(p)))
	require.ErrorIs(t, err, context.Canceled)
	require.Equal(t, 0, l.count(t, "expenses"))
}

func TestExecuteGeneratedExport(t *testing.T) {
	t.Parallel()

	ctx := testContext(t)
	l := newLedger(t, true)
	svc := NewImportService(l.db, l.blobs, nil)

	data, stats, err := sample.Generate(sample.Options{Seed: 42, Trips: 5, ExpensesPerTrip: 6, Standalone: 3})
	require.NoError(t, err)
	p := preview(t, ctx, svc, importer.SourceAirplaneManager, data)

	res, err := svc.Execute(ctx, NewImportRequest(p, importer.DefaultMappings(p)))
	require.NoError(t, err)
	require.True(t, res.Success, "errors: %v", res.Errors)
	require.Equal(t, stats.Trips, res.Created.Trips)
	require.Equal(t, stats.Expenses, res.Created.Expenses)
	require.Equal(t, stats.LineItems, res.Created.LineItems)
	require.Equal(t, stats.Expenses, l.count(t, "expenses"))

	var untripped int
	require.NoError(t, l.db.QueryRow("SELECT COUNT(*) FROM expenses WHERE trip_id IS NULL").Scan(&untripped))
	require.Equal(t, 3, untripped)
}
