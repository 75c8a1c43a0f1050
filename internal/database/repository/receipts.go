package repository

import (
	"context"
	"database/sql"
)

// ReceiptRepo handles receipt metadata. The files themselves live in the
// blob store under StoragePath.
type ReceiptRepo struct {
	db *sql.DB
}

func NewReceiptRepo(db *sql.DB) *ReceiptRepo {
	return &ReceiptRepo{db: db}
}

const receiptColumns = `id, expense_id, storage_path, original_filename, uploaded_at`

func scanReceipt(row scanner) (Receipt, error) {
	var rc Receipt
	err := row.Scan(&rc.ID, &rc.ExpenseID, &rc.StoragePath, &rc.OriginalFilename, &rc.UploadedAt)
	return rc, err
}

func (r *ReceiptRepo) Insert(ctx context.Context, rc Receipt) error {
	_, err := r.db.ExecContext(ctx, `
	INSERT INTO receipts(id, expense_id, storage_path, original_filename, uploaded_at)
	VALUES (?, ?, ?, ?, ?)
	`, rc.ID, rc.ExpenseID, rc.StoragePath, rc.OriginalFilename, stamp(rc.UploadedAt))
	return err
}

func (r *ReceiptRepo) List(ctx context.Context) ([]Receipt, error) {
	rows, err := r.db.QueryContext(ctx, `SELECT `+receiptColumns+` FROM receipts ORDER BY uploaded_at, id`)
	if err != nil {
		return nil, err
	}
	return collect(rows, scanReceipt)
}

func (r *ReceiptRepo) ListByExpense(ctx context.Context, expenseID string) ([]Receipt, error) {
	rows, err := r.db.QueryContext(ctx, `SELECT `+receiptColumns+` FROM receipts WHERE expense_id = ? ORDER BY uploaded_at, id`, expenseID)
	if err != nil {
		return nil, err
	}
	return collect(rows, scanReceipt)
}

func (r *ReceiptRepo) IDs(ctx context.Context) (map[string]struct{}, error) {
	return idSet(ctx, r.db, "receipts")
}
