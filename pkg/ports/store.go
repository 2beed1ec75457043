package ports

import (
	"context"

	"github.com/aretw0/kiln/pkg/domain"
)

// RunStore persists the journal of executor runs.
type RunStore interface {
	// Save persists the record under its run ID, replacing any previous entry.
	Save(ctx context.Context, record *domain.RunRecord) error

	// Load retrieves a record.
	// Returns domain.ErrRunNotFound if the run does not exist.
	Load(ctx context.Context, runID string) (*domain.RunRecord, error)

	// Delete removes a record. Deleting an unknown run is not an error.
	Delete(ctx context.Context, runID string) error

	// List returns run IDs ordered by start time, oldest first.
	List(ctx context.Context) ([]string, error)
}
