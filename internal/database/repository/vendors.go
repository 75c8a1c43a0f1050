package repository

import (
	"context"
	"database/sql"
)

// VendorRepo handles vendors.
type VendorRepo struct {
	db *sql.DB
}

func NewVendorRepo(db *sql.DB) *VendorRepo {
	return &VendorRepo{db: db}
}

const vendorColumns = `id, name, notes, is_active, created_at`

func scanVendor(row scanner) (Vendor, error) {
	var v Vendor
	err := row.Scan(&v.ID, &v.Name, &v.Notes, &v.IsActive, &v.CreatedAt)
	return v, err
}

func (r *VendorRepo) Insert(ctx context.Context, v Vendor) error {
	_, err := r.db.ExecContext(ctx, `
	INSERT INTO vendors(id, name, notes, is_active, created_at)
	VALUES (?, ?, ?, ?, ?)
	`, v.ID, v.Name, v.Notes, v.IsActive, stamp(v.CreatedAt))
	return err
}

func (r *VendorRepo) List(ctx context.Context) ([]Vendor, error) {
	rows, err := r.db.QueryContext(ctx, `SELECT `+vendorColumns+` FROM vendors WHERE deleted_at IS NULL ORDER BY created_at, id`)
	if err != nil {
		return nil, err
	}
	return collect(rows, scanVendor)
}

// FindByName matches case-insensitively among non-deleted vendors.
func (r *VendorRepo) FindByName(ctx context.Context, name string) (*Vendor, error) {
	row := r.db.QueryRowContext(ctx, `SELECT `+vendorColumns+` FROM vendors
	WHERE lower(name) = lower(?) AND deleted_at IS NULL ORDER BY created_at LIMIT 1`, name)
	return one(row, scanVendor)
}

func (r *VendorRepo) IDs(ctx context.Context) (map[string]struct{}, error) {
	return idSet(ctx, r.db, "vendors")
}
