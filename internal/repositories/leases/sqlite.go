package leases

import (
	"context"
	"fmt"
	"time"

	"github.com/dmitrijs2005/inspectsync/internal/dbx"
)

// SQLiteRepository implements Repository over a DBTX.
type SQLiteRepository struct {
	db dbx.DBTX
}

func NewSQLiteRepository(db dbx.DBTX) *SQLiteRepository {
	return &SQLiteRepository{db: db}
}

// Acquire is a single conditional upsert, so two processes racing for the
// same name cannot both win.
func (r *SQLiteRepository) Acquire(ctx context.Context, name, token string, now, expiresAt time.Time) (bool, error) {
	res, err := r.db.ExecContext(ctx, `
		INSERT INTO leases (name, token, expires_at) VALUES (?, ?, ?)
		ON CONFLICT(name) DO UPDATE SET
			token = excluded.token,
			expires_at = excluded.expires_at
		WHERE leases.token = excluded.token OR leases.expires_at <= ?`,
		name, token, expiresAt.UnixNano(), now.UnixNano())
	if err != nil {
		return false, fmt.Errorf("failed to acquire lease %q: %w", name, err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("failed to acquire lease %q: %w", name, err)
	}
	return n > 0, nil
}

func (r *SQLiteRepository) Release(ctx context.Context, name, token string) error {
	_, err := r.db.ExecContext(ctx, `DELETE FROM leases WHERE name = ? AND token = ?`, name, token)
	if err != nil {
		return fmt.Errorf("failed to release lease %q: %w", name, err)
	}
	return nil
}
