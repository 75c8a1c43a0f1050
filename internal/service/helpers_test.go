package service

import (
	"context"
	"database/sql"
	"errors"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/jask/hangarledger/internal/database"
	"github.com/jask/hangarledger/internal/importer"
	"github.com/jask/hangarledger/internal/storage"
)

const amHeader = "ExpenseID,ExpenseItemID,DateOccurred,FlightID,TripNumber,TailNumber,VendorID,VendorName,CategoryID,Category,PaymentMethod,ICAO,Gallons,Amount,Notes"

func amCSV(rows ...string) []byte {
	return []byte(strings.Join(append([]string{amHeader}, rows...), "\n"))
}

type ledger struct {
	db    *sql.DB
	blobs *storage.FSStore
}

func newLedger(t *testing.T, seed bool) ledger {
	t.Helper()
	dir := t.TempDir()
	dbPath := filepath.Join(dir, "ledger.db")
	require.NoError(t, database.RunMigrations(dbPath, ""))

	db, err := database.Open(dbPath)
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })
	if seed {
		require.NoError(t, database.SeedDefaults(context.Background(), db))
	}

	blobs, err := storage.NewFSStore(filepath.Join(dir, "blobs"))
	require.NoError(t, err)
	return ledger{db: db, blobs: blobs}
}

func testContext(t *testing.T) context.Context {
	t.Helper()
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	t.Cleanup(cancel)
	return ctx
}

func (l ledger) count(t *testing.T, table string) int {
	t.Helper()
	var n int
	require.NoError(t, l.db.QueryRow("SELECT COUNT(*) FROM "+table).Scan(&n))
	return n
}

// preview runs parse and transform against the current ledger contents.
func preview(t *testing.T, ctx context.Context, svc *ImportService, source importer.Source, data []byte) *importer.Preview {
	t.Helper()
	parsed, err := importer.Parse(source, data)
	require.NoError(t, err)
	require.False(t, parsed.Blocking(), "parse errors: %v", parsed.Errors)
	existing, err := svc.Snapshot(ctx)
	require.NoError(t, err)
	p, err := importer.Transform(source, parsed.Rows, existing)
	require.NoError(t, err)
	return p
}

// failingBlobs rejects every upload.
type failingBlobs struct{ storage.Store }

func (failingBlobs) Upload(context.Context, string, []byte, string) error {
	return errors.New("bucket unavailable")
}
