package pricing

import "github.com/shopspring/decimal"

// Tier switches the unit price once the ordered quantity reaches MinQty.
type Tier struct {
	MinQty    int
	UnitPrice decimal.Decimal
}

// Product carries the pricing-relevant attributes of a catalog product.
type Product struct {
	ID            string
	BaseUnitPrice decimal.Decimal
	MinOrderQty   int
	PricingTiers  []Tier
	WeightKg      decimal.Decimal
	VolumeCbm     decimal.Decimal
	Tags          []string
	Currency      string
	LeadTimeDays  *int
}

// Request is the caller-supplied part of a quote.
type Request struct {
	ProductID       string `json:"productId" validate:"required,uuid"`
	Quantity        int    `json:"quantity" validate:"min=1,max=10000"`
	DeliveryCity    string `json:"deliveryCity" validate:"required,min=2,max=100,city"`
	DeliveryCountry string `json:"deliveryCountry" validate:"required,min=2,max=100"`
}

// ShippingBreakdown records how the shipping fee was assembled.
// Subtotal is the fee before the city multiplier is applied.
type ShippingBreakdown struct {
	BaseFee        decimal.Decimal
	WeightFee      decimal.Decimal
	VolumeFee      decimal.Decimal
	WeightKg       decimal.Decimal
	VolumeCbm      decimal.Decimal
	City           string
	CityMultiplier decimal.Decimal
	Subtotal       decimal.Decimal
}

type Result struct {
	ProductID      string
	Quantity       int
	UnitPrice      decimal.Decimal
	Subtotal       decimal.Decimal
	ShippingFee    decimal.Decimal
	Discount       *string
	DiscountAmount decimal.Decimal
	Total          decimal.Decimal
	ETA            int
	Currency       string
	Breakdown      ShippingBreakdown
}
