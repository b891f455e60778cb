package pricing

import "github.com/shopspring/decimal"

// ResolveUnitPrice returns the unit price of the tier with the greatest
// MinQty not exceeding qty, or base when no tier qualifies. Among tiers
// sharing a MinQty the first one in input order wins.
func ResolveUnitPrice(base decimal.Decimal, tiers []Tier, qty int) decimal.Decimal {
	selected := selectTier(tiers, qty)
	if selected == nil {
		return base
	}
	return selected.UnitPrice
}

func selectTier(tiers []Tier, qty int) *Tier {
	var selected *Tier
	for i := range tiers {
		tier := tiers[i]
		if tier.MinQty > qty {
			continue
		}
		if selected == nil || tier.MinQty > selected.MinQty {
			selected = &tier
		}
	}
	return selected
}
