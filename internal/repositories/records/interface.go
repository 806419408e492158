package records

import (
	"context"
	"errors"

	"github.com/dmitrijs2005/inspectsync/internal/models"
)

// ErrNotFound is returned for an ID with no stored record.
var ErrNotFound = errors.New("record not found")

// Repository describes durable storage of capture records keyed by ID.
type Repository interface {
	// Save inserts the record or replaces the stored one with the same ID.
	Save(ctx context.Context, r models.RepairRecord) error

	// Update replaces the stored record with the same ID and returns
	// ErrNotFound when there is none. It never inserts.
	Update(ctx context.Context, r models.RepairRecord) error

	// GetAll returns every record. Ordering is not part of the contract.
	GetAll(ctx context.Context) ([]models.RepairRecord, error)

	// GetByID returns ErrNotFound when no record has the given ID.
	GetByID(ctx context.Context, id string) (*models.RepairRecord, error)

	// GetNeedingRetry returns records in pending or error state, oldest first.
	GetNeedingRetry(ctx context.Context) ([]models.RepairRecord, error)

	// Delete removes the record; deleting an absent ID is not an error.
	Delete(ctx context.Context, id string) error

	// Clear removes every record.
	Clear(ctx context.Context) error
}
