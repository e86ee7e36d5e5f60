package persistence

import (
	"context"
	"errors"
	"strconv"

	"github.com/javierleyes/vidro-android/internal/domain/catalog"
	"github.com/javierleyes/vidro-android/internal/domain/shared"
	"gorm.io/gorm"
)

// GormGlassRepository implements catalog.GlassRepository using GORM
type GormGlassRepository struct {
	db *gorm.DB
}

// NewGormGlassRepository creates a new GormGlassRepository
func NewGormGlassRepository(db *gorm.DB) *GormGlassRepository {
	return &GormGlassRepository{db: db}
}

// FindAll returns every glass ordered by id
func (r *GormGlassRepository) FindAll(ctx context.Context) ([]catalog.Glass, error) {
	var models []GlassModel
	if err := r.db.WithContext(ctx).Order("id").Find(&models).Error; err != nil {
		return nil, err
	}
	glasses := make([]catalog.Glass, 0, len(models))
	for i := range models {
		glasses = append(glasses, models[i].ToDomain())
	}
	return glasses, nil
}

// FindByID finds a glass by its ID
func (r *GormGlassRepository) FindByID(ctx context.Context, id string) (*catalog.Glass, error) {
	model, err := r.find(ctx, id)
	if err != nil {
		return nil, err
	}
	g := model.ToDomain()
	return &g, nil
}

// Create inserts g and sets its ID
func (r *GormGlassRepository) Create(ctx context.Context, g *catalog.Glass) error {
	model := GlassModel{
		Name:             g.Name,
		PriceTransparent: priceToColumn(g.PriceTransparent),
		PriceColor:       priceToColumn(g.PriceColor),
	}
	if err := r.db.WithContext(ctx).Create(&model).Error; err != nil {
		return err
	}
	g.ID = strconv.FormatUint(uint64(model.ID), 10)
	return nil
}

// UpdatePrices writes the transparent price and, when given, the color price
func (r *GormGlassRepository) UpdatePrices(ctx context.Context, id string, u catalog.PriceUpdate) (*catalog.Glass, error) {
	model, err := r.find(ctx, id)
	if err != nil {
		return nil, err
	}

	updates := map[string]any{"price_transparent": priceToColumn(u.Transparent)}
	if u.Color.IsSet() {
		updates["price_color"] = priceToColumn(u.Color)
	}
	if err := r.db.WithContext(ctx).Model(model).Updates(updates).Error; err != nil {
		return nil, err
	}

	g := u.Apply(model.ToDomain())
	return &g, nil
}

// Count returns the number of glasses
func (r *GormGlassRepository) Count(ctx context.Context) (int64, error) {
	var n int64
	err := r.db.WithContext(ctx).Model(&GlassModel{}).Count(&n).Error
	return n, err
}

func (r *GormGlassRepository) find(ctx context.Context, id string) (*GlassModel, error) {
	key, err := parseKey(id)
	if err != nil {
		return nil, err
	}
	var model GlassModel
	if err := r.db.WithContext(ctx).First(&model, "id = ?", key).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, shared.ErrNotFound
		}
		return nil, err
	}
	return &model, nil
}

// parseKey maps a wire id onto a primary key; ids that are not keys do not exist
func parseKey(id string) (uint, error) {
	key, err := strconv.ParseUint(id, 10, 64)
	if err != nil || key == 0 {
		return 0, shared.ErrNotFound
	}
	return uint(key), nil
}

// Ensure GormGlassRepository implements catalog.GlassRepository
var _ catalog.GlassRepository = (*GormGlassRepository)(nil)
