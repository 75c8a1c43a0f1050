package repository

import (
	"context"
	"database/sql"
)

// CategoryRepo handles expense categories.
type CategoryRepo struct {
	db *sql.DB
}

func NewCategoryRepo(db *sql.DB) *CategoryRepo {
	return &CategoryRepo{db: db}
}

const categoryColumns = `id, name, is_system, is_active, is_fuel_category, is_default, notes, created_at`

func scanCategory(row scanner) (Category, error) {
	var c Category
	err := row.Scan(&c.ID, &c.Name, &c.IsSystem, &c.IsActive, &c.IsFuelCategory, &c.IsDefault, &c.Notes, &c.CreatedAt)
	return c, err
}

func (r *CategoryRepo) Insert(ctx context.Context, c Category) error {
	_, err := r.db.ExecContext(ctx, `
	INSERT INTO expense_categories(id, name, is_system, is_active, is_fuel_category, is_default, notes, created_at)
	VALUES (?, ?, ?, ?, ?, ?, ?, ?)
	`, c.ID, c.Name, c.IsSystem, c.IsActive, c.IsFuelCategory, c.IsDefault, c.Notes, stamp(c.CreatedAt))
	return err
}

func (r *CategoryRepo) List(ctx context.Context) ([]Category, error) {
	rows, err := r.db.QueryContext(ctx, `SELECT `+categoryColumns+` FROM expense_categories WHERE deleted_at IS NULL ORDER BY created_at, id`)
	if err != nil {
		return nil, err
	}
	return collect(rows, scanCategory)
}

func (r *CategoryRepo) FindByName(ctx context.Context, name string) (*Category, error) {
	row := r.db.QueryRowContext(ctx, `SELECT `+categoryColumns+` FROM expense_categories
	WHERE lower(name) = lower(?) AND deleted_at IS NULL ORDER BY created_at LIMIT 1`, name)
	return one(row, scanCategory)
}

func (r *CategoryRepo) IDs(ctx context.Context) (map[string]struct{}, error) {
	return idSet(ctx, r.db, "expense_categories")
}
