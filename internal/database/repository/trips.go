package repository

import (
	"context"
	"database/sql"
)

// TripRepo handles trips.
type TripRepo struct {
	db *sql.DB
}

func NewTripRepo(db *sql.DB) *TripRepo {
	return &TripRepo{db: db}
}

const tripColumns = `id, aircraft_id, trip_number, name, start_date, end_date, aircraft, notes, created_at`

func scanTrip(row scanner) (Trip, error) {
	var t Trip
	err := row.Scan(&t.ID, &t.AircraftID, &t.TripNumber, &t.Name, &t.StartDate, &t.EndDate, &t.Aircraft, &t.Notes, &t.CreatedAt)
	return t, err
}

func (r *TripRepo) Insert(ctx context.Context, t Trip) error {
	_, err := r.db.ExecContext(ctx, `
	INSERT INTO trips(id, aircraft_id, trip_number, name, start_date, end_date, aircraft, notes, created_at)
	VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)
	`, t.ID, t.AircraftID, t.TripNumber, t.Name, t.StartDate, t.EndDate, t.Aircraft, t.Notes, stamp(t.CreatedAt))
	return err
}

func (r *TripRepo) List(ctx context.Context) ([]Trip, error) {
	rows, err := r.db.QueryContext(ctx, `SELECT `+tripColumns+` FROM trips WHERE deleted_at IS NULL ORDER BY created_at, id`)
	if err != nil {
		return nil, err
	}
	return collect(rows, scanTrip)
}

func (r *TripRepo) Get(ctx context.Context, id string) (*Trip, error) {
	row := r.db.QueryRowContext(ctx, `SELECT `+tripColumns+` FROM trips WHERE id = ?`, id)
	return one(row, scanTrip)
}

func (r *TripRepo) IDs(ctx context.Context) (map[string]struct{}, error) {
	return idSet(ctx, r.db, "trips")
}
