package service

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/jask/hangarledger/internal/database/repository"
	"github.com/jask/hangarledger/internal/storage"
)

func TestMaintenanceReset(t *testing.T) {
	t.Parallel()

	ctx := testContext(t)
	l := populated(t)
	receipts, err := repository.NewReceiptRepo(l.db).List(ctx)
	require.NoError(t, err)
	require.Len(t, receipts, 1)

	svc := &MaintenanceService{DB: l.db, Blobs: l.blobs}
	require.NoError(t, svc.Reset(ctx))

	for _, table := range []string{
		"import_logs", "import_sessions", "receipts", "expense_line_items", "expenses",
		"trips", "payment_methods", "expense_categories", "vendors", "aircraft",
	} {
		require.Equal(t, 0, l.count(t, table), table)
	}
	_, err = l.blobs.Download(ctx, receipts[0].StoragePath)
	require.ErrorIs(t, err, storage.ErrNotFound)
}

func TestMaintenanceResetRequiresDB(t *testing.T) {
	t.Parallel()

	require.Error(t, (&MaintenanceService{}).Reset(testContext(t)))
}
