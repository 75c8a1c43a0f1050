package service

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/charmbracelet/log"

	"github.com/jask/hangarledger/internal/database"
	"github.com/jask/hangarledger/internal/database/repository"
	"github.com/jask/hangarledger/internal/storage"
)

// MaintenanceService houses destructive/ops actions surfaced through the CLI.
type MaintenanceService struct {
	DB     *sql.DB
	Blobs  storage.Store
	Logger *log.Logger
}

// Reset wipes all ledger data and receipt blobs. It keeps the schema intact
// so the app can continue running; seed categories are not restored.
func (s *MaintenanceService) Reset(ctx context.Context) error {
	if s.DB == nil {
		return fmt.Errorf("maintenance: db not configured")
	}
	logger := orDiscard(s.Logger)

	if s.Blobs != nil {
		receipts, err := repository.NewReceiptRepo(s.DB).List(ctx)
		if err != nil {
			return fmt.Errorf("list receipts: %w", err)
		}
		for _, r := range receipts {
			if err := s.Blobs.Delete(ctx, r.StoragePath); err != nil {
				logger.Warn("receipt blob not removed", "path", r.StoragePath, "err", err)
			}
		}
	}

	if err := database.WithTx(ctx, s.DB, func(tx *sql.Tx) error {
		tables := []string{
			"import_logs",
			"import_sessions",
			"receipts",
			"expense_line_items",
			"expenses",
			"trips",
			"payment_methods",
			"expense_categories",
			"vendors",
			"aircraft",
		}
		for _, t := range tables {
			if _, err := tx.ExecContext(ctx, "DELETE FROM "+t); err != nil {
				return fmt.Errorf("reset table %s: %w", t, err)
			}
		}
		return nil
	}); err != nil {
		return err
	}
	_, _ = s.DB.ExecContext(ctx, "VACUUM")
	logger.Info("ledger reset")
	return nil
}
