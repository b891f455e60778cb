package pricing

import (
	"strings"

	"github.com/shopspring/decimal"
)

// DiscountRule proposes at most one discount for a priced line.
type DiscountRule interface {
	Name() string
	Evaluate(product Product, quantity int, subtotal decimal.Decimal) (Discount, bool)
}

type Discount struct {
	Label  string
	Amount decimal.Decimal
}

// QuantityThreshold is one step of a QuantityRule.
type QuantityThreshold struct {
	MinQty  int
	Label   string
	Percent decimal.Decimal
}

// QuantityRule applies the highest threshold reached by the quantity.
type QuantityRule struct {
	Thresholds []QuantityThreshold
}

func (QuantityRule) Name() string { return "quantity" }

func (r QuantityRule) Evaluate(_ Product, quantity int, subtotal decimal.Decimal) (Discount, bool) {
	var best *QuantityThreshold
	for i := range r.Thresholds {
		th := r.Thresholds[i]
		if quantity < th.MinQty {
			continue
		}
		if best == nil || th.MinQty > best.MinQty {
			best = &th
		}
	}
	if best == nil {
		return Discount{}, false
	}
	return Discount{Label: best.Label, Amount: percentOf(subtotal, best.Percent)}, true
}

// TagRule applies when the product carries Tag (case-insensitive).
type TagRule struct {
	Tag     string
	Label   string
	Percent decimal.Decimal
}

func (TagRule) Name() string { return "tag" }

func (r TagRule) Evaluate(product Product, _ int, subtotal decimal.Decimal) (Discount, bool) {
	for _, tag := range product.Tags {
		if strings.EqualFold(strings.TrimSpace(tag), r.Tag) {
			return Discount{Label: r.Label, Amount: percentOf(subtotal, r.Percent)}, true
		}
	}
	return Discount{}, false
}

// bestDiscount keeps the single largest candidate; earlier rules win ties.
// The amount stays exact, only the total is rounded, and it never exceeds
// the subtotal.
func bestDiscount(rules []DiscountRule, product Product, quantity int, subtotal decimal.Decimal) *Discount {
	var best *Discount
	for _, rule := range rules {
		candidate, ok := rule.Evaluate(product, quantity, subtotal)
		if !ok {
			continue
		}
		if best == nil || candidate.Amount.GreaterThan(best.Amount) {
			c := candidate
			best = &c
		}
	}
	if best == nil {
		return nil
	}
	if best.Amount.GreaterThan(subtotal) {
		best.Amount = subtotal
	}
	return best
}

func percentOf(amount, percent decimal.Decimal) decimal.Decimal {
	return amount.Mul(percent).Div(decimal.NewFromInt(100))
}
