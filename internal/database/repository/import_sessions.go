package repository

import (
	"context"
	"database/sql"
)

// ImportSessionRepo records import executions and their per-record logs.
type ImportSessionRepo struct {
	db *sql.DB
}

func NewImportSessionRepo(db *sql.DB) *ImportSessionRepo {
	return &ImportSessionRepo{db: db}
}

const importSessionColumns = `id, source_type, status, original_filename, total_records, processed_records,
 failed_records, error_message, metadata, created_at, updated_at, completed_at`

func scanImportSession(row scanner) (ImportSession, error) {
	var s ImportSession
	err := row.Scan(&s.ID, &s.SourceType, &s.Status, &s.OriginalFilename, &s.TotalRecords, &s.ProcessedRecords,
		&s.FailedRecords, &s.ErrorMessage, &s.Metadata, &s.CreatedAt, &s.UpdatedAt, &s.CompletedAt)
	return s, err
}

func (r *ImportSessionRepo) Create(ctx context.Context, s ImportSession) error {
	now := Timestamp()
	_, err := r.db.ExecContext(ctx, `
	INSERT INTO import_sessions(id, source_type, status, original_filename, total_records, metadata, created_at, updated_at)
	VALUES (?, ?, ?, ?, ?, ?, ?, ?)
	`, s.ID, s.SourceType, s.Status, s.OriginalFilename, s.TotalRecords, s.Metadata, now, now)
	return err
}

// Complete marks a session completed with its final counters.
func (r *ImportSessionRepo) Complete(ctx context.Context, id string, processed, failed int) error {
	now := Timestamp()
	_, err := r.db.ExecContext(ctx, `
	UPDATE import_sessions SET status = ?, processed_records = ?, failed_records = ?, updated_at = ?, completed_at = ?
	WHERE id = ?
	`, SessionCompleted, processed, failed, now, now, id)
	return err
}

// Fail marks a session failed with the fatal error message.
func (r *ImportSessionRepo) Fail(ctx context.Context, id, message string) error {
	_, err := r.db.ExecContext(ctx, `
	UPDATE import_sessions SET status = ?, error_message = ?, updated_at = ? WHERE id = ?
	`, SessionFailed, message, Timestamp(), id)
	return err
}

func (r *ImportSessionRepo) Get(ctx context.Context, id string) (*ImportSession, error) {
	row := r.db.QueryRowContext(ctx, `SELECT `+importSessionColumns+` FROM import_sessions WHERE id = ?`, id)
	return one(row, scanImportSession)
}

func (r *ImportSessionRepo) AddLog(ctx context.Context, l ImportLog) error {
	_, err := r.db.ExecContext(ctx, `
	INSERT INTO import_logs(id, import_session_id, row_number, status, entity_type, entity_id, error_message, created_at)
	VALUES (?, ?, ?, ?, ?, ?, ?, ?)
	`, l.ID, l.ImportSessionID, l.RowNumber, l.Status, l.EntityType, l.EntityID, l.ErrorMessage, stamp(l.CreatedAt))
	return err
}

func (r *ImportSessionRepo) Logs(ctx context.Context, sessionID string) ([]ImportLog, error) {
	rows, err := r.db.QueryContext(ctx, `
	SELECT id, import_session_id, row_number, status, entity_type, entity_id, error_message, created_at
	FROM import_logs WHERE import_session_id = ? ORDER BY created_at, rowid
	`, sessionID)
	if err != nil {
		return nil, err
	}
	return collect(rows, func(row scanner) (ImportLog, error) {
		var l ImportLog
		err := row.Scan(&l.ID, &l.ImportSessionID, &l.RowNumber, &l.Status, &l.EntityType, &l.EntityID, &l.ErrorMessage, &l.CreatedAt)
		return l, err
	})
}
