package sipstore

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	_ "modernc.org/sqlite"

	"sipforge/internal/config"
)

// ErrDossierExists is returned when a label collides with a registered dossier.
var ErrDossierExists = errors.New("dossier label already registered")

// Store manages workspace persistence backed by SQLite.
type Store struct {
	db   *sql.DB
	path string
}

// Open initializes or connects to the workspace database.
func Open(cfg *config.Config) (*Store, error) {
	if err := cfg.EnsureDirectories(); err != nil {
		return nil, fmt.Errorf("ensure directories: %w", err)
	}
	return OpenPath(cfg.DatabasePath())
}

// OpenPath opens the database at an explicit location.
func OpenPath(dbPath string) (*Store, error) {
	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("open sqlite db: %w", err)
	}

	pragmas := []string{
		"PRAGMA journal_mode=WAL",
		"PRAGMA foreign_keys = ON",
		"PRAGMA busy_timeout = 5000",
	}
	for _, pragma := range pragmas {
		if _, execErr := db.Exec(pragma); execErr != nil {
			_ = db.Close()
			return nil, fmt.Errorf("apply pragma %q: %w", pragma, execErr)
		}
	}

	store := &Store{db: db, path: dbPath}
	if err := store.initSchema(context.Background()); err != nil {
		_ = db.Close()
		return nil, err
	}

	return store, nil
}

// Close closes the underlying database connection.
func (s *Store) Close() error {
	if s == nil || s.db == nil {
		return nil
	}
	return s.db.Close()
}

// Path returns the database file location.
func (s *Store) Path() string {
	return s.path
}

// AddDossier registers a source folder under its label.
func (s *Store) AddDossier(ctx context.Context, label, path string) (*Dossier, error) {
	res, err := s.db.ExecContext(
		ctx,
		`INSERT INTO dossiers (label, path) VALUES (?, ?)
         ON CONFLICT(label) DO NOTHING`,
		label,
		path,
	)
	if err != nil {
		return nil, fmt.Errorf("insert dossier: %w", err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return nil, fmt.Errorf("rows affected: %w", err)
	}
	if affected == 0 {
		return nil, fmt.Errorf("%w: %s", ErrDossierExists, label)
	}
	id, err := res.LastInsertId()
	if err != nil {
		return nil, fmt.Errorf("last insert id: %w", err)
	}
	return &Dossier{ID: id, Label: label, Path: path}, nil
}

// GetDossier fetches a dossier by label; nil when absent.
func (s *Store) GetDossier(ctx context.Context, label string) (*Dossier, error) {
	row := s.db.QueryRowContext(ctx, `SELECT id, label, path, disabled FROM dossiers WHERE label = ?`, label)
	d, err := scanDossier(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get dossier: %w", err)
	}
	return d, nil
}

// ListDossiers returns registered dossiers, skipping disabled ones unless asked.
func (s *Store) ListDossiers(ctx context.Context, includeDisabled bool) ([]*Dossier, error) {
	query := `SELECT id, label, path, disabled FROM dossiers`
	if !includeDisabled {
		query += ` WHERE disabled = 0`
	}
	query += ` ORDER BY label`

	rows, err := s.db.QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("list dossiers: %w", err)
	}
	defer rows.Close()

	var out []*Dossier
	for rows.Next() {
		d, err := scanDossier(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, d)
	}
	return out, rows.Err()
}

// RemoveDossier deletes a dossier, or disables it when a SIP references it.
func (s *Store) RemoveDossier(ctx context.Context, label string) (removed bool, err error) {
	d, err := s.GetDossier(ctx, label)
	if err != nil {
		return false, err
	}
	if d == nil {
		return false, nil
	}

	var refs int
	if err := s.db.QueryRowContext(ctx, `SELECT COUNT(1) FROM sip_dossiers WHERE dossier_id = ?`, d.ID).Scan(&refs); err != nil {
		return false, fmt.Errorf("count dossier references: %w", err)
	}
	if refs > 0 {
		if _, err := s.db.ExecContext(ctx, `UPDATE dossiers SET disabled = 1 WHERE id = ?`, d.ID); err != nil {
			return false, fmt.Errorf("disable dossier: %w", err)
		}
		return false, nil
	}
	if _, err := s.db.ExecContext(ctx, `DELETE FROM dossiers WHERE id = ?`, d.ID); err != nil {
		return false, fmt.Errorf("delete dossier: %w", err)
	}
	return true, nil
}

// CreateSIP starts a new submission package over the given dossiers. An empty
// name is replaced with a sequential default.
func (s *Store) CreateSIP(ctx context.Context, name string, dossierIDs []int64) (*SIP, error) {
	if len(dossierIDs) == 0 {
		return nil, errors.New("a SIP needs at least one dossier")
	}

	if name == "" {
		var count int
		if err := s.db.QueryRowContext(ctx, `SELECT COUNT(1) FROM sips`).Scan(&count); err != nil {
			return nil, fmt.Errorf("count sips: %w", err)
		}
		name = fmt.Sprintf("SIP %d", count+1)
	}

	now := time.Now().UTC().Format(time.RFC3339Nano)
	id := uuid.NewString()

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("begin tx: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	_, err = tx.ExecContext(
		ctx,
		`INSERT INTO sips (id, name, status, created_at, updated_at) VALUES (?, ?, ?, ?, ?)`,
		id, name, StatusInProgress, now, now,
	)
	if err != nil {
		return nil, fmt.Errorf("insert sip: %w", err)
	}
	for _, dossierID := range dossierIDs {
		if _, err := tx.ExecContext(ctx, `INSERT INTO sip_dossiers (sip_id, dossier_id) VALUES (?, ?)`, id, dossierID); err != nil {
			return nil, fmt.Errorf("link dossier %d: %w", dossierID, err)
		}
	}
	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("commit sip: %w", err)
	}

	return s.GetSIP(ctx, id)
}

// GetSIP fetches a SIP by identifier; nil when absent.
func (s *Store) GetSIP(ctx context.Context, id string) (*SIP, error) {
	row := s.db.QueryRowContext(ctx, `SELECT `+sipColumns+` FROM sips WHERE id = ?`, id)
	sip, err := scanSIP(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get sip: %w", err)
	}
	return sip, nil
}

// FindSIPByName returns the first SIP with the given display name.
func (s *Store) FindSIPByName(ctx context.Context, name string) (*SIP, error) {
	row := s.db.QueryRowContext(ctx, `SELECT `+sipColumns+` FROM sips WHERE name = ? ORDER BY created_at LIMIT 1`, name)
	sip, err := scanSIP(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("find sip: %w", err)
	}
	return sip, nil
}

// ListSIPs returns SIPs filtered by status set (or all when none is given).
func (s *Store) ListSIPs(ctx context.Context, statuses ...Status) ([]*SIP, error) {
	baseQuery := `SELECT ` + sipColumns + ` FROM sips`
	orderClause := ` ORDER BY created_at`

	var (
		rows *sql.Rows
		err  error
	)
	if len(statuses) == 0 {
		rows, err = s.db.QueryContext(ctx, baseQuery+orderClause)
	} else {
		placeholders := makePlaceholders(len(statuses))
		args := make([]any, len(statuses))
		for i, status := range statuses {
			args[i] = status
		}
		rows, err = s.db.QueryContext(ctx, baseQuery+` WHERE status IN (`+placeholders+`)`+orderClause, args...)
	}
	if err != nil {
		return nil, fmt.Errorf("list sips: %w", err)
	}
	defer rows.Close()

	var out []*SIP
	for rows.Next() {
		sip, err := scanSIP(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, sip)
	}
	return out, rows.Err()
}

// SetStatus persists a lifecycle transition.
func (s *Store) SetStatus(ctx context.Context, id string, status Status) error {
	if !KnownStatus(status) {
		return fmt.Errorf("unknown status %q", status)
	}
	_, err := s.db.ExecContext(
		ctx,
		`UPDATE sips SET status = ?, updated_at = ? WHERE id = ?`,
		status,
		time.Now().UTC().Format(time.RFC3339Nano),
		id,
	)
	if err != nil {
		return fmt.Errorf("set status: %w", err)
	}
	return nil
}

// SetError records a failure message on a SIP.
func (s *Store) SetError(ctx context.Context, id, message string) error {
	_, err := s.db.ExecContext(
		ctx,
		`UPDATE sips SET error_message = ?, updated_at = ? WHERE id = ?`,
		message,
		time.Now().UTC().Format(time.RFC3339Nano),
		id,
	)
	if err != nil {
		return fmt.Errorf("set error: %w", err)
	}
	return nil
}

// SetSeries attaches an archival series with its date bounds.
func (s *Store) SetSeries(ctx context.Context, id, seriesID, seriesName, start, end string) error {
	_, err := s.db.ExecContext(
		ctx,
		`UPDATE sips SET series_id = ?, series_name = ?, series_start = ?, series_end = ?, updated_at = ? WHERE id = ?`,
		seriesID, seriesName, start, end,
		time.Now().UTC().Format(time.RFC3339Nano),
		id,
	)
	if err != nil {
		return fmt.Errorf("set series: %w", err)
	}
	return nil
}

// SIPDossiers returns the dossiers a SIP was created over.
func (s *Store) SIPDossiers(ctx context.Context, id string) ([]*Dossier, error) {
	rows, err := s.db.QueryContext(
		ctx,
		`SELECT d.id, d.label, d.path, d.disabled
         FROM dossiers d JOIN sip_dossiers sd ON sd.dossier_id = d.id
         WHERE sd.sip_id = ? ORDER BY d.label`,
		id,
	)
	if err != nil {
		return nil, fmt.Errorf("sip dossiers: %w", err)
	}
	defer rows.Close()

	var out []*Dossier
	for rows.Next() {
		d, err := scanDossier(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, d)
	}
	return out, rows.Err()
}

// RemoveSIP deletes a SIP along with its grid.
func (s *Store) RemoveSIP(ctx context.Context, id string) (bool, error) {
	res, err := s.db.ExecContext(ctx, `DELETE FROM sips WHERE id = ?`, id)
	if err != nil {
		return false, fmt.Errorf("delete sip: %w", err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("rows affected: %w", err)
	}
	return affected > 0, nil
}

// ResetStuckUploading returns SIPs left in uploading back to sip_created.
// An interrupted process is the only way to get stuck in that state.
func (s *Store) ResetStuckUploading(ctx context.Context) (int64, error) {
	res, err := s.db.ExecContext(
		ctx,
		`UPDATE sips SET status = ?, updated_at = ? WHERE status = ?`,
		StatusCreated,
		time.Now().UTC().Format(time.RFC3339Nano),
		StatusUploading,
	)
	if err != nil {
		return 0, fmt.Errorf("reset stuck uploading: %w", err)
	}
	return res.RowsAffected()
}

// Stats returns a count of SIPs grouped by status.
func (s *Store) Stats(ctx context.Context) (map[Status]int, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT status, COUNT(1) FROM sips GROUP BY status`)
	if err != nil {
		return nil, fmt.Errorf("sip stats: %w", err)
	}
	defer rows.Close()

	stats := make(map[Status]int)
	for rows.Next() {
		var status Status
		var count int
		if err := rows.Scan(&status, &count); err != nil {
			return nil, err
		}
		stats[status] = count
	}
	return stats, rows.Err()
}

const sipColumns = "id, name, status, series_id, series_name, series_start, series_end, error_message, created_at, updated_at"

func scanSIP(scanner interface{ Scan(dest ...any) error }) (*SIP, error) {
	var (
		sip        SIP
		statusStr  string
		createdRaw string
		updatedRaw string
	)
	if err := scanner.Scan(
		&sip.ID,
		&sip.Name,
		&statusStr,
		&sip.SeriesID,
		&sip.SeriesName,
		&sip.SeriesStart,
		&sip.SeriesEnd,
		&sip.ErrorMessage,
		&createdRaw,
		&updatedRaw,
	); err != nil {
		return nil, err
	}
	sip.Status = Status(statusStr)
	if created, err := time.Parse(time.RFC3339Nano, createdRaw); err == nil {
		sip.CreatedAt = created
	}
	if updated, err := time.Parse(time.RFC3339Nano, updatedRaw); err == nil {
		sip.UpdatedAt = updated
	}
	return &sip, nil
}

func scanDossier(scanner interface{ Scan(dest ...any) error }) (*Dossier, error) {
	var (
		d        Dossier
		disabled int64
	)
	if err := scanner.Scan(&d.ID, &d.Label, &d.Path, &disabled); err != nil {
		return nil, err
	}
	d.Disabled = disabled != 0
	return &d, nil
}

func makePlaceholders(count int) string {
	if count <= 0 {
		return ""
	}
	placeholders := make([]byte, 0, count*2)
	for i := 0; i < count; i++ {
		if i > 0 {
			placeholders = append(placeholders, ',')
		}
		placeholders = append(placeholders, '?')
	}
	return string(placeholders)
}
