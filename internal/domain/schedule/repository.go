package schedule

import "context"

// VisitRepository is the server-side storage of visits
type VisitRepository interface {
	// FindAll returns visits in id order; StatusUnknown matches every status
	FindAll(ctx context.Context, status Status) ([]Visit, error)
	// FindByID returns shared.ErrNotFound for an unknown id
	FindByID(ctx context.Context, id string) (*Visit, error)
	// Create stores a new pending visit
	Create(ctx context.Context, req CreateVisitRequest) (*Visit, error)
	// Update applies the non-nil fields of patch
	Update(ctx context.Context, id string, patch VisitPatch) (*Visit, error)
	// SetStatus moves the visit to status
	SetStatus(ctx context.Context, id string, status Status) (*Visit, error)
	// Delete removes the visit with id
	Delete(ctx context.Context, id string) error
	// Count returns the number of stored visits
	Count(ctx context.Context) (int64, error)
}
