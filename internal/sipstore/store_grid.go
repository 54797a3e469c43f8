package sipstore

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"sipforge/internal/grid"
)

// ReplaceGrid discards any existing grid for the SIP and inserts the given
// rows, assigning each record its stable row identity. Used after a folder
// scan or spreadsheet import.
func (s *Store) ReplaceGrid(ctx context.Context, sipID string, records []*grid.Record) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin tx: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	if _, err := tx.ExecContext(ctx, `DELETE FROM grid_rows WHERE sip_id = ?`, sipID); err != nil {
		return fmt.Errorf("clear grid: %w", err)
	}

	for ordinal, rec := range records {
		res, err := tx.ExecContext(
			ctx,
			`INSERT INTO grid_rows (
                sip_id, ordinal, import_path, source_path, path_in_package,
                row_type, dossier_ref, name, opening_date, closing_date,
                description, comments
            ) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
			sipID,
			ordinal,
			rec.ImportPath,
			rec.SourcePath,
			rec.PathInPackage,
			string(rec.Type),
			rec.DossierRef,
			rec.Name,
			rec.Opening,
			rec.Closing,
			rec.Description,
			rec.Comments,
		)
		if err != nil {
			return fmt.Errorf("insert grid row %d: %w", ordinal, err)
		}
		id, err := res.LastInsertId()
		if err != nil {
			return fmt.Errorf("last insert id: %w", err)
		}
		rec.ID = id
	}

	if _, err := tx.ExecContext(
		ctx,
		`INSERT INTO grid_meta (sip_id, saved) VALUES (?, 0)
         ON CONFLICT(sip_id) DO UPDATE SET saved = 0`,
		sipID,
	); err != nil {
		return fmt.Errorf("reset grid meta: %w", err)
	}

	return tx.Commit()
}

// SaveGrid persists edits as a full per-row field overwrite keyed by row id,
// in a single transaction, and flags the grid as saved.
func (s *Store) SaveGrid(ctx context.Context, sipID string, records []*grid.Record) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin tx: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	for _, rec := range records {
		res, err := tx.ExecContext(
			ctx,
			`UPDATE grid_rows
             SET import_path = ?, source_path = ?, path_in_package = ?,
                 row_type = ?, dossier_ref = ?, name = ?, opening_date = ?,
                 closing_date = ?, description = ?, comments = ?
             WHERE id = ? AND sip_id = ?`,
			rec.ImportPath,
			rec.SourcePath,
			rec.PathInPackage,
			string(rec.Type),
			rec.DossierRef,
			rec.Name,
			rec.Opening,
			rec.Closing,
			rec.Description,
			rec.Comments,
			rec.ID,
			sipID,
		)
		if err != nil {
			return fmt.Errorf("update grid row %d: %w", rec.ID, err)
		}
		affected, err := res.RowsAffected()
		if err != nil {
			return fmt.Errorf("rows affected: %w", err)
		}
		if affected == 0 {
			return fmt.Errorf("grid row %d does not belong to sip %s", rec.ID, sipID)
		}
	}

	if _, err := tx.ExecContext(
		ctx,
		`INSERT INTO grid_meta (sip_id, saved) VALUES (?, 1)
         ON CONFLICT(sip_id) DO UPDATE SET saved = 1`,
		sipID,
	); err != nil {
		return fmt.Errorf("mark grid saved: %w", err)
	}

	return tx.Commit()
}

// LoadGrid returns the stored grid rows in their original order.
func (s *Store) LoadGrid(ctx context.Context, sipID string) ([]*grid.Record, error) {
	rows, err := s.db.QueryContext(
		ctx,
		`SELECT id, import_path, source_path, path_in_package, row_type,
                dossier_ref, name, opening_date, closing_date, description, comments
         FROM grid_rows WHERE sip_id = ? ORDER BY ordinal`,
		sipID,
	)
	if err != nil {
		return nil, fmt.Errorf("load grid: %w", err)
	}
	defer rows.Close()

	var out []*grid.Record
	for rows.Next() {
		var (
			rec     grid.Record
			rowType string
		)
		if err := rows.Scan(
			&rec.ID,
			&rec.ImportPath,
			&rec.SourcePath,
			&rec.PathInPackage,
			&rowType,
			&rec.DossierRef,
			&rec.Name,
			&rec.Opening,
			&rec.Closing,
			&rec.Description,
			&rec.Comments,
		); err != nil {
			return nil, fmt.Errorf("scan grid row: %w", err)
		}
		rec.Type = grid.RecordType(rowType)
		out = append(out, &rec)
	}
	return out, rows.Err()
}

// SetImportedFrom records the spreadsheet a grid was imported from.
func (s *Store) SetImportedFrom(ctx context.Context, sipID, source string) error {
	_, err := s.db.ExecContext(
		ctx,
		`INSERT INTO grid_meta (sip_id, saved, imported_from) VALUES (?, 0, ?)
         ON CONFLICT(sip_id) DO UPDATE SET imported_from = excluded.imported_from`,
		sipID, source,
	)
	if err != nil {
		return fmt.Errorf("set imported from: %w", err)
	}
	return nil
}

// ImportedFrom returns the recorded import source, or "" when the grid was
// built from a folder scan.
func (s *Store) ImportedFrom(ctx context.Context, sipID string) (string, error) {
	var source string
	err := s.db.QueryRowContext(ctx, `SELECT imported_from FROM grid_meta WHERE sip_id = ?`, sipID).Scan(&source)
	if errors.Is(err, sql.ErrNoRows) {
		return "", nil
	}
	if err != nil {
		return "", fmt.Errorf("grid meta: %w", err)
	}
	return source, nil
}

// GridSaved reports whether the SIP's grid has been explicitly saved since
// its last rebuild.
func (s *Store) GridSaved(ctx context.Context, sipID string) (bool, error) {
	var saved int64
	err := s.db.QueryRowContext(ctx, `SELECT saved FROM grid_meta WHERE sip_id = ?`, sipID).Scan(&saved)
	if errors.Is(err, sql.ErrNoRows) {
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("grid meta: %w", err)
	}
	return saved != 0, nil
}
