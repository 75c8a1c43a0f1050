package repository

import (
	"context"
	"database/sql"
)

// PaymentMethodRepo handles payment methods.
type PaymentMethodRepo struct {
	db *sql.DB
}

func NewPaymentMethodRepo(db *sql.DB) *PaymentMethodRepo {
	return &PaymentMethodRepo{db: db}
}

const paymentMethodColumns = `id, name, notes, is_active, created_at`

func scanPaymentMethod(row scanner) (PaymentMethod, error) {
	var p PaymentMethod
	err := row.Scan(&p.ID, &p.Name, &p.Notes, &p.IsActive, &p.CreatedAt)
	return p, err
}

func (r *PaymentMethodRepo) Insert(ctx context.Context, p PaymentMethod) error {
	_, err := r.db.ExecContext(ctx, `
	INSERT INTO payment_methods(id, name, notes, is_active, created_at)
	VALUES (?, ?, ?, ?, ?)
	`, p.ID, p.Name, p.Notes, p.IsActive, stamp(p.CreatedAt))
	return err
}

func (r *PaymentMethodRepo) List(ctx context.Context) ([]PaymentMethod, error) {
	rows, err := r.db.QueryContext(ctx, `SELECT `+paymentMethodColumns+` FROM payment_methods WHERE deleted_at IS NULL ORDER BY created_at, id`)
	if err != nil {
		return nil, err
	}
	return collect(rows, scanPaymentMethod)
}

func (r *PaymentMethodRepo) FindByName(ctx context.Context, name string) (*PaymentMethod, error) {
	row := r.db.QueryRowContext(ctx, `SELECT `+paymentMethodColumns+` FROM payment_methods
	WHERE lower(name) = lower(?) AND deleted_at IS NULL ORDER BY created_at LIMIT 1`, name)
	return one(row, scanPaymentMethod)
}

func (r *PaymentMethodRepo) IDs(ctx context.Context) (map[string]struct{}, error) {
	return idSet(ctx, r.db, "payment_methods")
}
