package pricing

import (
	"fmt"

	pkgerrors "github.com/omanfreight/quote-service/pkg/errors"
	"github.com/shopspring/decimal"
)

type Options struct {
	BaseShippingFee       decimal.Decimal
	WeightRatePerKg       decimal.Decimal
	VolumeRatePerCbm      decimal.Decimal
	CityMultipliers       map[string]decimal.Decimal
	DefaultCityMultiplier decimal.Decimal
	DefaultLeadTimeDays   int
	DiscountRules         []DiscountRule
}

// DefaultOptions returns the production tariff.
func DefaultOptions() Options {
	return Options{
		BaseShippingFee:  decimal.NewFromInt(50),
		WeightRatePerKg:  decimal.NewFromInt(2),
		VolumeRatePerCbm: decimal.NewFromInt(100),
		CityMultipliers: map[string]decimal.Decimal{
			"muscat":  decimal.RequireFromString("1.0"),
			"salalah": decimal.RequireFromString("1.5"),
			"sohar":   decimal.RequireFromString("1.2"),
			"nizwa":   decimal.RequireFromString("1.3"),
		},
		DefaultCityMultiplier: decimal.RequireFromString("1.4"),
		DefaultLeadTimeDays:   14,
		DiscountRules: []DiscountRule{
			QuantityRule{Thresholds: []QuantityThreshold{
				{MinQty: 100, Label: "Bulk Order (100+ units)", Percent: decimal.NewFromInt(5)},
				{MinQty: 50, Label: "Bulk Order (50+ units)", Percent: decimal.NewFromInt(3)},
			}},
			TagRule{Tag: "new", Label: "New Product Launch", Percent: decimal.NewFromInt(2)},
		},
	}
}

// Engine prices a quote. It holds no mutable state and is safe for
// concurrent use.
type Engine struct {
	opts Options
}

func NewEngine(opts Options) *Engine {
	if opts.CityMultipliers == nil {
		opts.CityMultipliers = map[string]decimal.Decimal{}
	}
	if opts.DefaultCityMultiplier.IsZero() {
		opts.DefaultCityMultiplier = decimal.NewFromInt(1)
	}
	if opts.DefaultLeadTimeDays <= 0 {
		opts.DefaultLeadTimeDays = 14
	}
	return &Engine{opts: opts}
}

func (e *Engine) Quote(product Product, req Request) (Result, error) {
	req = req.Normalize()
	if err := ValidateRequest(req); err != nil {
		return Result{}, err
	}

	minQty := product.MinOrderQty
	if minQty < 1 {
		minQty = 1
	}
	if req.Quantity < minQty {
		return Result{}, pkgerrors.New(pkgerrors.CodeBusinessRule, fmt.Sprintf("minimum order quantity is %d", minQty)).
			WithDetails(map[string]any{"minOrderQty": minQty, "quantity": req.Quantity})
	}

	unitPrice := ResolveUnitPrice(product.BaseUnitPrice, product.PricingTiers, req.Quantity)
	subtotal := unitPrice.Mul(decimal.NewFromInt(int64(req.Quantity)))
	shipping, breakdown := e.ShippingFee(product, req.DeliveryCity)

	result := Result{
		ProductID:      product.ID,
		Quantity:       req.Quantity,
		UnitPrice:      unitPrice,
		Subtotal:       subtotal,
		ShippingFee:    shipping,
		DiscountAmount: decimal.Zero,
		ETA:            e.opts.DefaultLeadTimeDays,
		Currency:       product.Currency,
		Breakdown:      breakdown,
	}
	if product.LeadTimeDays != nil {
		result.ETA = *product.LeadTimeDays
	}
	if result.ProductID == "" {
		result.ProductID = req.ProductID
	}

	if discount := bestDiscount(e.opts.DiscountRules, product, req.Quantity, subtotal); discount != nil {
		label := discount.Label
		result.Discount = &label
		result.DiscountAmount = discount.Amount
	}

	result.Total = subtotal.Add(shipping).Sub(result.DiscountAmount).Round(2)
	return result, nil
}
