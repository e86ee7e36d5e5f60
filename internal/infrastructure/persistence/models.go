package persistence

import (
	"strconv"
	"time"

	"github.com/javierleyes/vidro-android/internal/domain/catalog"
	"github.com/javierleyes/vidro-android/internal/domain/schedule"
	"github.com/javierleyes/vidro-android/internal/domain/shared/valueobject"
	"github.com/shopspring/decimal"
)

// GlassModel is the database row of a glass
type GlassModel struct {
	ID               uint                `gorm:"primaryKey"`
	Name             string              `gorm:"size:120;not null"`
	PriceTransparent decimal.NullDecimal `gorm:"type:decimal(12,2)"`
	PriceColor       decimal.NullDecimal `gorm:"type:decimal(12,2)"`
	CreatedAt        time.Time
	UpdatedAt        time.Time
}

// TableName returns the table name for GORM
func (GlassModel) TableName() string {
	return "glasses"
}

// ToDomain converts the row into a catalog glass
func (m *GlassModel) ToDomain() catalog.Glass {
	return catalog.Glass{
		ID:               strconv.FormatUint(uint64(m.ID), 10),
		Name:             m.Name,
		PriceTransparent: priceFromColumn(m.PriceTransparent),
		PriceColor:       priceFromColumn(m.PriceColor),
	}
}

// VisitModel is the database row of a visit
type VisitModel struct {
	ID        uint      `gorm:"primaryKey"`
	Date      time.Time `gorm:"index;not null"`
	Name      string    `gorm:"size:120;not null"`
	Address   string    `gorm:"size:255;not null"`
	Phone     string    `gorm:"size:32;not null"`
	Status    int       `gorm:"index;not null;default:1"`
	CreatedAt time.Time
	UpdatedAt time.Time
}

// TableName returns the table name for GORM
func (VisitModel) TableName() string {
	return "visits"
}

// ToDomain converts the row into a schedule visit
func (m *VisitModel) ToDomain() schedule.Visit {
	return schedule.Visit{
		ID:      strconv.FormatUint(uint64(m.ID), 10),
		Date:    m.Date.UTC(),
		Name:    m.Name,
		Address: m.Address,
		Phone:   m.Phone,
		Status:  schedule.Status(m.Status),
	}
}

func priceFromColumn(col decimal.NullDecimal) valueobject.Price {
	if !col.Valid {
		return valueobject.NoPrice()
	}
	p, err := valueobject.NewPrice(col.Decimal)
	if err != nil {
		return valueobject.NoPrice()
	}
	return p
}

func priceToColumn(p valueobject.Price) decimal.NullDecimal {
	amount, ok := p.Amount()
	return decimal.NullDecimal{Decimal: amount, Valid: ok}
}
