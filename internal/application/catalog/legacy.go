package catalog

import (
	"encoding/json"
	"fmt"

	"github.com/javierleyes/vidro-android/internal/application/state"
	"github.com/javierleyes/vidro-android/internal/domain/catalog"
	"github.com/javierleyes/vidro-android/internal/domain/shared/valueobject"
	"github.com/javierleyes/vidro-android/internal/infrastructure/remote"
)

// Field name variants seen across server versions. The single legacy
// "price" string maps onto the transparent price.
var (
	nameKeys             = []string{"name", "Name"}
	transparentPriceKeys = []string{"priceTransparent", "PriceTransparent", "price_transparent", "price"}
	colorPriceKeys       = []string{"priceColor", "PriceColor", "price_color"}
)

// decodeGlasses turns a list payload into canonical glasses.
// Later records with a repeated id replace earlier ones in place.
func decodeGlasses(resp *remote.Response) ([]catalog.Glass, error) {
	var records []state.Record
	if err := resp.Decode(&records); err != nil {
		return nil, err
	}

	glasses := make([]catalog.Glass, 0, len(records))
	index := make(map[string]int, len(records))
	for i, rec := range records {
		g, err := normalizeGlass(rec)
		if err != nil {
			return nil, remote.NewBodyError(resp, fmt.Errorf("glass %d: %w", i, err))
		}
		if at, dup := index[g.ID]; dup {
			glasses[at] = g
			continue
		}
		index[g.ID] = len(glasses)
		glasses = append(glasses, g)
	}
	return glasses, nil
}

func normalizeGlass(rec state.Record) (catalog.Glass, error) {
	id, err := rec.ID()
	if err != nil {
		return catalog.Glass{}, err
	}
	name, err := rec.String(nameKeys...)
	if err != nil {
		return catalog.Glass{}, err
	}
	transparent, err := priceField(rec, transparentPriceKeys)
	if err != nil {
		return catalog.Glass{}, err
	}
	color, err := priceField(rec, colorPriceKeys)
	if err != nil {
		return catalog.Glass{}, err
	}

	g := catalog.Glass{
		ID:               id,
		Name:             name,
		PriceTransparent: transparent,
		PriceColor:       color,
	}
	return g, g.Validate()
}

// priceField decodes a number, a "$150.00" string, or null. A missing field is absent.
func priceField(rec state.Record, keys []string) (valueobject.Price, error) {
	raw, ok := rec.First(keys...)
	if !ok {
		return valueobject.NoPrice(), nil
	}
	var p valueobject.Price
	if err := json.Unmarshal(raw, &p); err != nil {
		return valueobject.NoPrice(), fmt.Errorf("field %s: %w", keys[0], err)
	}
	return p, nil
}
