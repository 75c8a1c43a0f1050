package service

import (
	"archive/zip"
	"bytes"
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/jask/hangarledger/internal/database/repository"
	"github.com/jask/hangarledger/internal/importer"
)

func backupZip(t *testing.T, entries map[string]any) []byte {
	t.Helper()
	var buf bytes.Buffer
	zw := zip.NewWriter(&buf)
	for name, v := range entries {
		w, err := zw.Create(name)
		require.NoError(t, err)
		var body []byte
		if raw, ok := v.([]byte); ok {
			body = raw
		} else {
			body, err = json.Marshal(v)
			require.NoError(t, err)
		}
		_, err = w.Write(body)
		require.NoError(t, err)
	}
	require.NoError(t, zw.Close())
	return buf.Bytes()
}

// populated imports one trip with a receipt into a seeded ledger.
func populated(t *testing.T) ledger {
	t.Helper()
	ctx := testContext(t)
	l := newLedger(t, true)
	svc := NewImportService(l.db, l.blobs, nil)
	p := preview(t, ctx, svc, importer.SourceAirplaneManager, amCSV(tripRows...))
	req := NewImportRequest(p, importer.DefaultMappings(p))
	req.Receipts = []importer.ReceiptFile{{Filename: "2024-06-01 N1 101 KAUS UploadID-7.pdf", Data: []byte("%PDF-1.4 fuel")}}
	res, err := svc.Execute(ctx, req)
	require.NoError(t, err)
	require.True(t, res.Success)
	require.Equal(t, 1, res.Created.Receipts)
	return l
}

func TestBackupRoundTrip(t *testing.T) {
	t.Parallel()

	ctx := testContext(t)
	src := populated(t)
	archive, err := NewBackupService(src.db, src.blobs, nil).Generate(ctx)
	require.NoError(t, err)

	manifest, data, entries, err := ReadBackup(archive)
	require.NoError(t, err)
	require.Equal(t, BackupVersion, manifest.Version)
	require.Equal(t, AppVersion, manifest.AppVersion)
	require.Equal(t, Counts{Aircraft: 1, Vendors: 1, Categories: 8, PaymentMethods: 1, Trips: 1, Expenses: 1, LineItems: 2, Receipts: 1}, manifest.Counts)
	require.Len(t, data.Expenses[0].Receipts, 1)
	receipt := data.Expenses[0].Receipts[0]
	require.Equal(t, receipt.ID+".pdf", receipt.Filename)
	require.Equal(t, "2024-06-01 N1 101 KAUS UploadID-7.pdf", receipt.OriginalFilename)
	require.Contains(t, entries, "receipts/"+receipt.Filename)

	dst := newLedger(t, false)
	restore := NewBackupService(dst.db, dst.blobs, nil)
	res, err := restore.Restore(ctx, archive)
	require.NoError(t, err)
	require.True(t, res.Success, "errors: %v", res.Errors)
	require.Equal(t, manifest.Counts, res.Created)
	require.Equal(t, Counts{}, res.Skipped)

	expenses, err := repository.NewExpenseRepo(dst.db).List(ctx)
	require.NoError(t, err)
	require.Len(t, expenses, 1)
	require.Equal(t, data.Expenses[0].ID, expenses[0].ID)
	require.True(t, expenses[0].Amount.Equal(data.Expenses[0].Amount))
	require.Equal(t, data.Expenses[0].CreatedAt, expenses[0].CreatedAt)

	receipts, err := repository.NewReceiptRepo(dst.db).List(ctx)
	require.NoError(t, err)
	require.Len(t, receipts, 1)
	require.Equal(t, receipt.ID, receipts[0].ID)
	require.NotEqual(t, receipt.StoragePath, receipts[0].StoragePath)
	body, err := dst.blobs.Download(ctx, receipts[0].StoragePath)
	require.NoError(t, err)
	require.Equal(t, []byte("%PDF-1.4 fuel"), body)

	again, err := restore.Restore(ctx, archive)
	require.NoError(t, err)
	require.True(t, again.Success)
	require.Equal(t, Counts{}, again.Created)
	require.Equal(t, manifest.Counts, again.Skipped)
	require.Equal(t, 1, dst.count(t, "receipts"))
}

func TestBackupLeavesOutMissingBlobs(t *testing.T) {
	t.Parallel()

	ctx := testContext(t)
	src := populated(t)
	receipts, err := repository.NewReceiptRepo(src.db).List(ctx)
	require.NoError(t, err)
	require.NoError(t, src.blobs.Delete(ctx, receipts[0].StoragePath))

	archive, err := NewBackupService(src.db, src.blobs, nil).Generate(ctx)
	require.NoError(t, err)
	_, data, entries, err := ReadBackup(archive)
	require.NoError(t, err)
	require.Len(t, data.Expenses[0].Receipts, 1)
	require.NotContains(t, entries, "receipts/"+data.Expenses[0].Receipts[0].Filename)

	dst := newLedger(t, false)
	res, err := NewBackupService(dst.db, dst.blobs, nil).Restore(ctx, archive)
	require.NoError(t, err)
	require.False(t, res.Success)
	require.Equal(t, []string{"Receipt file not found: " + data.Expenses[0].Receipts[0].Filename}, res.Errors)
	require.Equal(t, 1, res.Created.Expenses)
	require.Equal(t, 0, res.Created.Receipts)
}

func TestRestoreReportsReceiptUploadFailure(t *testing.T) {
	t.Parallel()

	ctx := testContext(t)
	src := populated(t)
	archive, err := NewBackupService(src.db, src.blobs, nil).Generate(ctx)
	require.NoError(t, err)

	dst := newLedger(t, false)
	res, err := NewBackupService(dst.db, failingBlobs{dst.blobs}, nil).Restore(ctx, archive)
	require.NoError(t, err)
	require.False(t, res.Success)
	require.Equal(t, []string{"Receipt 2024-06-01 N1 101 KAUS UploadID-7.pdf: upload: bucket unavailable"}, res.Errors)
	require.Equal(t, 1, res.Created.Expenses)
	require.Equal(t, 0, dst.count(t, "receipts"))
}

func TestRestoreDropsOrphansAndRecomputesTripTail(t *testing.T) {
	t.Parallel()

	ctx := testContext(t)
	aircraftID := "ac-1"
	archive := backupZip(t, map[string]any{
		"manifest.json":      BackupManifest{Version: 1, AppVersion: AppVersion},
		"data/aircraft.json": []BackupAircraft{{ID: aircraftID, TailNumber: "N9", IsActive: true}},
		"data/trips.json":    []BackupTrip{{ID: "trip-1", AircraftID: &aircraftID, Name: "Ferry", StartDate: "2024-02-01"}},
		"data/line-items.json": []BackupLineItem{
			{ID: "li-1", ExpenseID: "gone", Category: "Fuel"},
		},
		"data/expenses.json": []BackupExpense{{
			ID: "exp-orphan", TripID: nil, Date: "2024-02-01", Vendor: "Nowhere", Category: "Other",
			Receipts: []BackupReceipt{},
		}},
	})

	l := newLedger(t, false)
	res, err := NewBackupService(l.db, l.blobs, nil).Restore(ctx, archive)
	require.NoError(t, err)
	require.True(t, res.Success, "errors: %v", res.Errors)
	require.Equal(t, Counts{Aircraft: 1, Trips: 1, Expenses: 1}, res.Created)
	require.Equal(t, 0, l.count(t, "expense_line_items"))

	trip, err := repository.NewTripRepo(l.db).Get(ctx, "trip-1")
	require.NoError(t, err)
	require.Equal(t, "N9", trip.Aircraft)
}

func TestRestoreRejectsBadArchives(t *testing.T) {
	t.Parallel()

	ctx := testContext(t)
	l := newLedger(t, false)
	svc := NewBackupService(l.db, l.blobs, nil)

	_, err := svc.Restore(ctx, backupZip(t, map[string]any{
		"data/aircraft.json": []BackupAircraft{{ID: "a", TailNumber: "N1"}},
	}))
	require.ErrorIs(t, err, ErrInvalidBackup)

	_, err = svc.Restore(ctx, backupZip(t, map[string]any{
		"manifest.json":      BackupManifest{Version: BackupVersion + 1},
		"data/aircraft.json": []BackupAircraft{{ID: "a", TailNumber: "N1"}},
	}))
	require.ErrorIs(t, err, ErrUnsupportedBackup)

	_, err = svc.Restore(ctx, []byte("not a zip"))
	require.ErrorIs(t, err, ErrInvalidBackup)

	require.Equal(t, 0, l.count(t, "aircraft"))
}

func TestRestoreAcceptsNumericAmounts(t *testing.T) {
	t.Parallel()

	ctx := testContext(t)
	archive := backupZip(t, map[string]any{
		"manifest.json":        BackupManifest{Version: 1},
		"data/expenses.json":   []byte(`[{"id":"e1","date":"2024-03-01","vendor":"FBO","amount":125.5,"category":"Fuel","receipts":[]}]`),
		"data/line-items.json": []byte(`[{"id":"l1","expenseId":"e1","category":"Fuel","amount":125.5,"quantityGallons":20,"sortOrder":0}]`),
	})

	l := newLedger(t, false)
	res, err := NewBackupService(l.db, l.blobs, nil).Restore(ctx, archive)
	require.NoError(t, err)
	require.True(t, res.Success, "errors: %v", res.Errors)

	items, err := repository.NewLineItemRepo(l.db).ListByExpense(ctx, "e1")
	require.NoError(t, err)
	require.Len(t, items, 1)
	require.Equal(t, "125.5", items[0].Amount.String())
	require.Equal(t, "20", items[0].QuantityGallons.Decimal.String())
}
