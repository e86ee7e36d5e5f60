package catalog

import "context"

// GlassRepository is the server-side storage of the catalog
type GlassRepository interface {
	// FindAll returns every glass in id order
	FindAll(ctx context.Context) ([]Glass, error)
	// FindByID returns shared.ErrNotFound for an unknown id
	FindByID(ctx context.Context, id string) (*Glass, error)
	// Create stores g and assigns its ID
	Create(ctx context.Context, g *Glass) error
	// UpdatePrices applies u to the glass with id and returns the result
	UpdatePrices(ctx context.Context, id string, u PriceUpdate) (*Glass, error)
	// Count returns the number of stored glasses
	Count(ctx context.Context) (int64, error)
}
