package product

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// ProductDTO is the public view of a quotable product.
type ProductDTO struct {
	ID            uuid.UUID `json:"id"`
	SKU           string    `json:"sku"`
	Name          string    `json:"name"`
	Description   *string   `json:"description,omitempty"`
	BaseUnitPrice float64   `json:"baseUnitPrice"`
	MinOrderQty   int       `json:"minOrderQty"`
	PricingTiers  []TierDTO `json:"pricingTiers"`
	WeightKg      float64   `json:"weightKg"`
	VolumeCbm     float64   `json:"volumeCbm"`
	Tags          []string  `json:"tags"`
	Currency      string    `json:"currency"`
	LeadTimeDays  *int      `json:"leadTimeDays,omitempty"`
	UpdatedAt     time.Time `json:"updatedAt"`
}

type TierDTO struct {
	MinQty    int     `json:"minQty"`
	UnitPrice float64 `json:"unitPrice"`
}

// ProductListResult is one page of the catalog.
type ProductListResult struct {
	Products   []ProductDTO `json:"products"`
	NextCursor string       `json:"nextCursor,omitempty"`
}

// CreateProductInput holds the validated payload to create a product.
type CreateProductInput struct {
	SKU           string          `json:"sku" validate:"required,min=2,max=64"`
	Name          string          `json:"name" validate:"required,min=2,max=200"`
	Description   *string         `json:"description" validate:"omitempty,max=2000"`
	BaseUnitPrice decimal.Decimal `json:"baseUnitPrice"`
	MinOrderQty   int             `json:"minOrderQty" validate:"min=1,max=10000"`
	WeightKg      decimal.Decimal `json:"weightKg"`
	VolumeCbm     decimal.Decimal `json:"volumeCbm"`
	Tags          []string        `json:"tags" validate:"max=20,dive,min=1,max=40"`
	Currency      string          `json:"currency" validate:"omitempty,len=3,alpha"`
	LeadTimeDays  *int            `json:"leadTimeDays" validate:"omitempty,min=0,max=365"`
	PricingTiers  []TierInput     `json:"pricingTiers" validate:"max=20,dive"`
}

// TierInput is one row of a tier table.
type TierInput struct {
	MinQty    int             `json:"minQty" validate:"min=1"`
	UnitPrice decimal.Decimal `json:"unitPrice"`
}
