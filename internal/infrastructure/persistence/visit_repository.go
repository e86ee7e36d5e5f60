package persistence

import (
	"context"
	"errors"

	"github.com/javierleyes/vidro-android/internal/domain/schedule"
	"github.com/javierleyes/vidro-android/internal/domain/shared"
	"gorm.io/gorm"
)

// GormVisitRepository implements schedule.VisitRepository using GORM
type GormVisitRepository struct {
	db *gorm.DB
}

// NewGormVisitRepository creates a new GormVisitRepository
func NewGormVisitRepository(db *gorm.DB) *GormVisitRepository {
	return &GormVisitRepository{db: db}
}

// FindAll returns the visits with status, or every visit for StatusUnknown
func (r *GormVisitRepository) FindAll(ctx context.Context, status schedule.Status) ([]schedule.Visit, error) {
	query := r.db.WithContext(ctx).Model(&VisitModel{}).Order("id")
	if status != schedule.StatusUnknown {
		query = query.Where("status = ?", int(status))
	}

	var models []VisitModel
	if err := query.Find(&models).Error; err != nil {
		return nil, err
	}
	visits := make([]schedule.Visit, 0, len(models))
	for i := range models {
		visits = append(visits, models[i].ToDomain())
	}
	return visits, nil
}

// FindByID finds a visit by its ID
func (r *GormVisitRepository) FindByID(ctx context.Context, id string) (*schedule.Visit, error) {
	model, err := r.find(ctx, id)
	if err != nil {
		return nil, err
	}
	v := model.ToDomain()
	return &v, nil
}

// Create inserts a pending visit built from req
func (r *GormVisitRepository) Create(ctx context.Context, req schedule.CreateVisitRequest) (*schedule.Visit, error) {
	req = req.Normalize()
	model := VisitModel{
		Date:    req.Date.UTC(),
		Name:    req.Name,
		Address: req.Address,
		Phone:   req.Phone,
		Status:  int(schedule.StatusPending),
	}
	if err := r.db.WithContext(ctx).Create(&model).Error; err != nil {
		return nil, err
	}
	v := model.ToDomain()
	return &v, nil
}

// Update writes the fields set in patch
func (r *GormVisitRepository) Update(ctx context.Context, id string, patch schedule.VisitPatch) (*schedule.Visit, error) {
	model, err := r.find(ctx, id)
	if err != nil {
		return nil, err
	}

	updates := make(map[string]any, 4)
	if patch.Date != nil {
		updates["date"] = patch.Date.UTC()
	}
	if patch.Name != nil {
		updates["name"] = *patch.Name
	}
	if patch.Address != nil {
		updates["address"] = *patch.Address
	}
	if patch.Phone != nil {
		updates["phone"] = *patch.Phone
	}
	if len(updates) > 0 {
		if err := r.db.WithContext(ctx).Model(model).Updates(updates).Error; err != nil {
			return nil, err
		}
	}

	v := patch.Apply(model.ToDomain())
	return &v, nil
}

// SetStatus changes the status of the visit with id
func (r *GormVisitRepository) SetStatus(ctx context.Context, id string, status schedule.Status) (*schedule.Visit, error) {
	model, err := r.find(ctx, id)
	if err != nil {
		return nil, err
	}
	if err := r.db.WithContext(ctx).Model(model).Update("status", int(status)).Error; err != nil {
		return nil, err
	}
	v := model.ToDomain()
	v.Status = status
	return &v, nil
}

// Delete removes the visit with id
func (r *GormVisitRepository) Delete(ctx context.Context, id string) error {
	key, err := parseKey(id)
	if err != nil {
		return err
	}
	result := r.db.WithContext(ctx).Delete(&VisitModel{}, "id = ?", key)
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return shared.ErrNotFound
	}
	return nil
}

// Count returns the number of visits
func (r *GormVisitRepository) Count(ctx context.Context) (int64, error) {
	var n int64
	err := r.db.WithContext(ctx).Model(&VisitModel{}).Count(&n).Error
	return n, err
}

func (r *GormVisitRepository) find(ctx context.Context, id string) (*VisitModel, error) {
	key, err := parseKey(id)
	if err != nil {
		return nil, err
	}
	var model VisitModel
	if err := r.db.WithContext(ctx).First(&model, "id = ?", key).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, shared.ErrNotFound
		}
		return nil, err
	}
	return &model, nil
}

// Ensure GormVisitRepository implements schedule.VisitRepository
var _ schedule.VisitRepository = (*GormVisitRepository)(nil)
