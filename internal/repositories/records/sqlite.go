package records

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/dmitrijs2005/inspectsync/internal/dbx"
	"github.com/dmitrijs2005/inspectsync/internal/models"
)

const selectColumns = `id, container_number, team_id, team_name, editor, images, image_hashes, created_at, status, uploaded_count`

// SQLiteRepository implements Repository over a DBTX.
type SQLiteRepository struct {
	db dbx.DBTX
}

func NewSQLiteRepository(db dbx.DBTX) *SQLiteRepository {
	return &SQLiteRepository{db: db}
}

// Save upserts the whole row. Records violating their invariants are refused.
func (r *SQLiteRepository) Save(ctx context.Context, rec models.RepairRecord) error {
	if err := rec.Validate(); err != nil {
		return fmt.Errorf("failed to save record %s: %w", rec.ID, err)
	}

	images, err := marshalList(rec.Images)
	if err != nil {
		return fmt.Errorf("failed to encode images of %s: %w", rec.ID, err)
	}
	hashes, err := marshalList(rec.ImageHashes)
	if err != nil {
		return fmt.Errorf("failed to encode hashes of %s: %w", rec.ID, err)
	}

	query := `INSERT INTO records (` + selectColumns + `)
			VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
			ON CONFLICT(id) DO UPDATE SET
				container_number = excluded.container_number,
				team_id = excluded.team_id,
				team_name = excluded.team_name,
				editor = excluded.editor,
				images = excluded.images,
				image_hashes = excluded.image_hashes,
				created_at = excluded.created_at,
				status = excluded.status,
				uploaded_count = excluded.uploaded_count`

	_, err = r.db.ExecContext(ctx, query,
		rec.ID, rec.ContainerNumber, rec.TeamID, rec.TeamName, rec.Editor,
		images, hashes, rec.Timestamp.UnixNano(), string(rec.Status), rec.UploadedCount)
	if err != nil {
		return fmt.Errorf("failed to save record %s: %w", rec.ID, err)
	}
	return nil
}

// Update rewrites the mutable state of an existing row. A record deleted in
// the meantime stays deleted.
func (r *SQLiteRepository) Update(ctx context.Context, rec models.RepairRecord) error {
	if err := rec.Validate(); err != nil {
		return fmt.Errorf("failed to update record %s: %w", rec.ID, err)
	}

	images, err := marshalList(rec.Images)
	if err != nil {
		return fmt.Errorf("failed to encode images of %s: %w", rec.ID, err)
	}
	hashes, err := marshalList(rec.ImageHashes)
	if err != nil {
		return fmt.Errorf("failed to encode hashes of %s: %w", rec.ID, err)
	}

	query := `UPDATE records SET
				container_number = ?,
				team_id = ?,
				team_name = ?,
				editor = ?,
				images = ?,
				image_hashes = ?,
				created_at = ?,
				status = ?,
				uploaded_count = ?
			WHERE id = ?`

	res, err := r.db.ExecContext(ctx, query,
		rec.ContainerNumber, rec.TeamID, rec.TeamName, rec.Editor,
		images, hashes, rec.Timestamp.UnixNano(), string(rec.Status), rec.UploadedCount, rec.ID)
	if err != nil {
		return fmt.Errorf("failed to update record %s: %w", rec.ID, err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to update record %s: %w", rec.ID, err)
	}
	if n == 0 {
		return fmt.Errorf("%s: %w", rec.ID, ErrNotFound)
	}
	return nil
}

func (r *SQLiteRepository) GetAll(ctx context.Context) ([]models.RepairRecord, error) {
	query := `SELECT ` + selectColumns + ` FROM records ORDER BY created_at, id`
	return r.list(ctx, query)
}

func (r *SQLiteRepository) GetNeedingRetry(ctx context.Context) ([]models.RepairRecord, error) {
	query := `SELECT ` + selectColumns + ` FROM records
			WHERE status IN ('pending', 'error')
			ORDER BY created_at, id`
	return r.list(ctx, query)
}

func (r *SQLiteRepository) GetByID(ctx context.Context, id string) (*models.RepairRecord, error) {
	query := `SELECT ` + selectColumns + ` FROM records WHERE id = ?`
	rec, err := scanRecord(r.db.QueryRowContext(ctx, query, id))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("%s: %w", id, ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to load record %s: %w", id, err)
	}
	return &rec, nil
}

func (r *SQLiteRepository) Delete(ctx context.Context, id string) error {
	if _, err := r.db.ExecContext(ctx, `DELETE FROM records WHERE id = ?`, id); err != nil {
		return fmt.Errorf("failed to delete record %s: %w", id, err)
	}
	return nil
}

func (r *SQLiteRepository) Clear(ctx context.Context) error {
	if _, err := r.db.ExecContext(ctx, `DELETE FROM records`); err != nil {
		return fmt.Errorf("failed to clear records: %w", err)
	}
	return nil
}

func (r *SQLiteRepository) list(ctx context.Context, query string) ([]models.RepairRecord, error) {
	rows, err := r.db.QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("failed to select records: %w", err)
	}
	defer rows.Close()

	var result []models.RepairRecord
	for rows.Next() {
		rec, err := scanRecord(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan record: %w", err)
		}
		result = append(result, rec)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate records: %w", err)
	}
	return result, nil
}

type scanner interface {
	Scan(dest ...any) error
}

func scanRecord(s scanner) (models.RepairRecord, error) {
	var (
		rec     models.RepairRecord
		images  string
		hashes  string
		created int64
		status  string
	)
	err := s.Scan(&rec.ID, &rec.ContainerNumber, &rec.TeamID, &rec.TeamName, &rec.Editor,
		&images, &hashes, &created, &status, &rec.UploadedCount)
	if err != nil {
		return models.RepairRecord{}, err
	}

	if err := json.Unmarshal([]byte(images), &rec.Images); err != nil {
		return models.RepairRecord{}, fmt.Errorf("decode images: %w", err)
	}
	if err := json.Unmarshal([]byte(hashes), &rec.ImageHashes); err != nil {
		return models.RepairRecord{}, fmt.Errorf("decode hashes: %w", err)
	}
	rec.Timestamp = time.Unix(0, created).UTC()
	rec.Status = models.Status(status)
	return rec, nil
}

func marshalList(xs []string) (string, error) {
	if xs == nil {
		xs = []string{}
	}
	b, err := json.Marshal(xs)
	if err != nil {
		return "", err
	}
	return string(b), nil
}
