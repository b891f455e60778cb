package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// Product is a catalog item that can be quoted.
type Product struct {
	ID            uuid.UUID            `gorm:"column:id;type:uuid;primaryKey"`
	SKU           string               `gorm:"column:sku;not null;uniqueIndex"`
	Name          string               `gorm:"column:name;not null"`
	Description   *string              `gorm:"column:description"`
	BaseUnitPrice decimal.Decimal      `gorm:"column:base_unit_price;type:numeric(12,3);not null"`
	MinOrderQty   int                  `gorm:"column:min_order_qty;not null;default:1"`
	WeightKg      decimal.Decimal      `gorm:"column:weight_kg;type:numeric(12,3);not null;default:0"`
	VolumeCbm     decimal.Decimal      `gorm:"column:volume_cbm;type:numeric(12,4);not null;default:0"`
	Tags          []string             `gorm:"column:tags;type:jsonb;serializer:json"`
	Currency      string               `gorm:"column:currency;type:char(3);not null;default:'OMR'"`
	LeadTimeDays  *int                 `gorm:"column:lead_time_days"`
	IsActive      bool                 `gorm:"column:is_active;not null;default:true"`
	PricingTiers  []ProductPricingTier `gorm:"foreignKey:ProductID;constraint:OnDelete:CASCADE"`
	CreatedAt     time.Time            `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt     time.Time            `gorm:"column:updated_at;autoUpdateTime"`
}

func (p *Product) BeforeCreate(*gorm.DB) error {
	if p.ID == uuid.Nil {
		p.ID = uuid.New()
	}
	return nil
}
