package product

import (
	"strings"

	"github.com/omanfreight/quote-service/internal/pricing"
	"github.com/omanfreight/quote-service/pkg/db/models"
)

const defaultCurrency = "OMR"

// ToPricingProduct converts a stored product into the engine's input.
func ToPricingProduct(p models.Product) pricing.Product {
	tiers := make([]pricing.Tier, 0, len(p.PricingTiers))
	for _, t := range p.PricingTiers {
		tiers = append(tiers, pricing.Tier{MinQty: t.MinQty, UnitPrice: t.UnitPrice})
	}
	currency := strings.ToUpper(strings.TrimSpace(p.Currency))
	if currency == "" {
		currency = defaultCurrency
	}
	tags := p.Tags
	if tags == nil {
		tags = []string{}
	}
	return pricing.Product{
		ID:            p.ID.String(),
		BaseUnitPrice: p.BaseUnitPrice,
		MinOrderQty:   p.MinOrderQty,
		PricingTiers:  tiers,
		WeightKg:      p.WeightKg,
		VolumeCbm:     p.VolumeCbm,
		Tags:          tags,
		Currency:      currency,
		LeadTimeDays:  p.LeadTimeDays,
	}
}

// ToDTO renders the pricing-relevant fields of a product.
func ToDTO(p models.Product) ProductDTO {
	priced := ToPricingProduct(p)
	tiers := make([]TierDTO, 0, len(priced.PricingTiers))
	for _, t := range priced.PricingTiers {
		tiers = append(tiers, TierDTO{MinQty: t.MinQty, UnitPrice: t.UnitPrice.InexactFloat64()})
	}
	return ProductDTO{
		ID:            p.ID,
		SKU:           p.SKU,
		Name:          p.Name,
		Description:   p.Description,
		BaseUnitPrice: p.BaseUnitPrice.InexactFloat64(),
		MinOrderQty:   p.MinOrderQty,
		PricingTiers:  tiers,
		WeightKg:      p.WeightKg.InexactFloat64(),
		VolumeCbm:     p.VolumeCbm.InexactFloat64(),
		Tags:          priced.Tags,
		Currency:      priced.Currency,
		LeadTimeDays:  p.LeadTimeDays,
		UpdatedAt:     p.UpdatedAt,
	}
}
