package repository

import (
	"context"
	"database/sql"
)

// AircraftRepo handles aircraft.
type AircraftRepo struct {
	db *sql.DB
}

func NewAircraftRepo(db *sql.DB) *AircraftRepo {
	return &AircraftRepo{db: db}
}

const aircraftColumns = `id, tail_number, name, notes, is_active, created_at`

func scanAircraft(row scanner) (Aircraft, error) {
	var a Aircraft
	err := row.Scan(&a.ID, &a.TailNumber, &a.Name, &a.Notes, &a.IsActive, &a.CreatedAt)
	return a, err
}

// Insert stores a with its own id.
func (r *AircraftRepo) Insert(ctx context.Context, a Aircraft) error {
	_, err := r.db.ExecContext(ctx, `
	INSERT INTO aircraft(id, tail_number, name, notes, is_active, created_at)
	VALUES (?, ?, ?, ?, ?, ?)
	`, a.ID, a.TailNumber, a.Name, a.Notes, a.IsActive, stamp(a.CreatedAt))
	return err
}

// List returns non-deleted aircraft in creation order.
func (r *AircraftRepo) List(ctx context.Context) ([]Aircraft, error) {
	rows, err := r.db.QueryContext(ctx, `SELECT `+aircraftColumns+` FROM aircraft WHERE deleted_at IS NULL ORDER BY created_at, id`)
	if err != nil {
		return nil, err
	}
	return collect(rows, scanAircraft)
}

// FindByTailNumber matches case-insensitively among non-deleted aircraft.
func (r *AircraftRepo) FindByTailNumber(ctx context.Context, tail string) (*Aircraft, error) {
	row := r.db.QueryRowContext(ctx, `SELECT `+aircraftColumns+` FROM aircraft
	WHERE lower(tail_number) = lower(?) AND deleted_at IS NULL ORDER BY created_at LIMIT 1`, tail)
	return one(row, scanAircraft)
}

// IDs returns every aircraft id, soft-deleted included.
func (r *AircraftRepo) IDs(ctx context.Context) (map[string]struct{}, error) {
	return idSet(ctx, r.db, "aircraft")
}
