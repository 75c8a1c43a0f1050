package repository

import (
	"context"
	"database/sql"
)

// ExpenseRepo handles expenses.
type ExpenseRepo struct {
	db *sql.DB
}

func NewExpenseRepo(db *sql.DB) *ExpenseRepo {
	return &ExpenseRepo{db: db}
}

const expenseColumns = `id, trip_id, vendor_id, payment_method_id, category_id, date, vendor, amount, category, payment_method, notes, created_at`

func scanExpense(row scanner) (Expense, error) {
	var e Expense
	err := row.Scan(&e.ID, &e.TripID, &e.VendorID, &e.PaymentMethodID, &e.CategoryID, &e.Date,
		&e.Vendor, &e.Amount, &e.Category, &e.PaymentMethod, &e.Notes, &e.CreatedAt)
	return e, err
}

func (r *ExpenseRepo) Insert(ctx context.Context, e Expense) error {
	_, err := r.db.ExecContext(ctx, `
	INSERT INTO expenses(
	 id, trip_id, vendor_id, payment_method_id, category_id, date, vendor, amount,
	 category, payment_method, notes, created_at)
	VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`,
		e.ID, e.TripID, e.VendorID, e.PaymentMethodID, e.CategoryID, e.Date, e.Vendor, e.Amount,
		e.Category, e.PaymentMethod, e.Notes, stamp(e.CreatedAt))
	return err
}

// List returns non-deleted expenses in creation order.
func (r *ExpenseRepo) List(ctx context.Context) ([]Expense, error) {
	rows, err := r.db.QueryContext(ctx, `SELECT `+expenseColumns+` FROM expenses WHERE deleted_at IS NULL ORDER BY created_at, id`)
	if err != nil {
		return nil, err
	}
	return collect(rows, scanExpense)
}

func (r *ExpenseRepo) Get(ctx context.Context, id string) (*Expense, error) {
	row := r.db.QueryRowContext(ctx, `SELECT `+expenseColumns+` FROM expenses WHERE id = ?`, id)
	return one(row, scanExpense)
}

func (r *ExpenseRepo) IDs(ctx context.Context) (map[string]struct{}, error) {
	return idSet(ctx, r.db, "expenses")
}
