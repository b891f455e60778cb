package pricing

import (
	"strings"

	"github.com/shopspring/decimal"
)

// CityMultiplier looks up the destination factor. Matching is exact after
// trimming and lower-casing; unknown cities get the default multiplier.
func (e *Engine) CityMultiplier(city string) decimal.Decimal {
	key := strings.ToLower(strings.TrimSpace(city))
	if m, ok := e.opts.CityMultipliers[key]; ok {
		return m
	}
	return e.opts.DefaultCityMultiplier
}

// ShippingFee computes (base + weight*rate + volume*rate) * cityMultiplier,
// rounded to two decimal places.
func (e *Engine) ShippingFee(product Product, city string) (decimal.Decimal, ShippingBreakdown) {
	weight := nonNegative(product.WeightKg)
	volume := nonNegative(product.VolumeCbm)

	weightFee := weight.Mul(e.opts.WeightRatePerKg)
	volumeFee := volume.Mul(e.opts.VolumeRatePerCbm)
	before := e.opts.BaseShippingFee.Add(weightFee).Add(volumeFee)
	multiplier := e.CityMultiplier(city)

	breakdown := ShippingBreakdown{
		BaseFee:        e.opts.BaseShippingFee,
		WeightFee:      weightFee,
		VolumeFee:      volumeFee,
		WeightKg:       weight,
		VolumeCbm:      volume,
		City:           strings.TrimSpace(city),
		CityMultiplier: multiplier,
		Subtotal:       before,
	}
	return before.Mul(multiplier).Round(2), breakdown
}

func nonNegative(d decimal.Decimal) decimal.Decimal {
	if d.IsNegative() {
		return decimal.Zero
	}
	return d
}
