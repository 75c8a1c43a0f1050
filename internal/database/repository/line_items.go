package repository

import (
	"context"
	"database/sql"
)

// LineItemRepo handles expense line items.
type LineItemRepo struct {
	db *sql.DB
}

func NewLineItemRepo(db *sql.DB) *LineItemRepo {
	return &LineItemRepo{db: db}
}

const lineItemColumns = `id, expense_id, category_id, description, category, amount, quantity_gallons, sort_order, created_at`

func scanLineItem(row scanner) (LineItem, error) {
	var li LineItem
	err := row.Scan(&li.ID, &li.ExpenseID, &li.CategoryID, &li.Description, &li.Category,
		&li.Amount, &li.QuantityGallons, &li.SortOrder, &li.CreatedAt)
	return li, err
}

func (r *LineItemRepo) Insert(ctx context.Context, li LineItem) error {
	_, err := r.db.ExecContext(ctx, `
	INSERT INTO expense_line_items(
	 id, expense_id, category_id, description, category, amount, quantity_gallons, sort_order, created_at)
	VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)
	`,
		li.ID, li.ExpenseID, li.CategoryID, li.Description, li.Category, li.Amount,
		li.QuantityGallons, li.SortOrder, stamp(li.CreatedAt))
	return err
}

// List returns every line item ordered by expense and sort order.
func (r *LineItemRepo) List(ctx context.Context) ([]LineItem, error) {
	rows, err := r.db.QueryContext(ctx, `SELECT `+lineItemColumns+` FROM expense_line_items ORDER BY created_at, expense_id, sort_order, id`)
	if err != nil {
		return nil, err
	}
	return collect(rows, scanLineItem)
}

func (r *LineItemRepo) ListByExpense(ctx context.Context, expenseID string) ([]LineItem, error) {
	rows, err := r.db.QueryContext(ctx, `SELECT `+lineItemColumns+` FROM expense_line_items WHERE expense_id = ? ORDER BY sort_order, id`, expenseID)
	if err != nil {
		return nil, err
	}
	return collect(rows, scanLineItem)
}

func (r *LineItemRepo) IDs(ctx context.Context) (map[string]struct{}, error) {
	return idSet(ctx, r.db, "expense_line_items")
}
