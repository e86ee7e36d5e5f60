package catalog

import (
	"strings"

	"github.com/javierleyes/vidro-android/internal/domain/shared"
	"github.com/javierleyes/vidro-android/internal/domain/shared/valueobject"
)

// Glass is a priced catalog record.
// ID is assigned by the server and unique within the catalog.
type Glass struct {
	ID               string            `json:"id"`
	Name             string            `json:"name"`
	PriceTransparent valueobject.Price `json:"priceTransparent"`
	PriceColor       valueobject.Price `json:"priceColor"`
}

// PriceUpdate carries the fields of a partial price edit.
// An absent Color leaves the color price out of the request.
type PriceUpdate struct {
	Transparent valueobject.Price
	Color       valueobject.Price
}

// NewPriceUpdate validates and builds a price edit
func NewPriceUpdate(transparent valueobject.Price, color ...valueobject.Price) (PriceUpdate, error) {
	if !transparent.IsSet() {
		return PriceUpdate{}, shared.NewDomainError("INVALID_INPUT", "Transparent price is required")
	}
	if len(color) > 1 {
		return PriceUpdate{}, shared.NewDomainError("INVALID_INPUT", "At most one color price may be given")
	}
	u := PriceUpdate{Transparent: transparent}
	if len(color) == 1 {
		u.Color = color[0]
	}
	return u, nil
}

// Apply returns a copy of g with the edited prices.
// The color price is only replaced when the update carries one.
func (u PriceUpdate) Apply(g Glass) Glass {
	g.PriceTransparent = u.Transparent
	if u.Color.IsSet() {
		g.PriceColor = u.Color
	}
	return g
}

// Validate checks the glass invariants that the client can verify locally
func (g Glass) Validate() error {
	if strings.TrimSpace(g.ID) == "" {
		return shared.NewDomainError("INVALID_INPUT", "Glass id cannot be empty")
	}
	return nil
}
