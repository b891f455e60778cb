package quotes

import (
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/omanfreight/quote-service/internal/pricing"
	"github.com/omanfreight/quote-service/pkg/db/models"
	"github.com/omanfreight/quote-service/pkg/enums"
)

// SubmitRequest is the body of a quote submission: the pricing inputs plus
// contact details for the follow-up.
type SubmitRequest struct {
	ProductID       string  `json:"productId" validate:"required,uuid"`
	Quantity        int     `json:"quantity" validate:"min=1,max=10000"`
	DeliveryCity    string  `json:"deliveryCity" validate:"required,min=2,max=100,city"`
	DeliveryCountry string  `json:"deliveryCountry" validate:"required,min=2,max=100"`
	CustomerName    string  `json:"customerName" validate:"required,min=2,max=120"`
	CustomerEmail   string  `json:"customerEmail" validate:"required,email,max=254"`
	CustomerPhone   *string `json:"customerPhone" validate:"omitempty,max=32"`
	Company         *string `json:"company" validate:"omitempty,max=120"`
	Notes           *string `json:"notes" validate:"omitempty,max=1000"`
}

// PricingRequest extracts the engine input.
func (r SubmitRequest) PricingRequest() pricing.Request {
	return pricing.Request{
		ProductID:       r.ProductID,
		Quantity:        r.Quantity,
		DeliveryCity:    r.DeliveryCity,
		DeliveryCountry: r.DeliveryCountry,
	}
}

// SubmitInput carries the request plus transport metadata.
type SubmitInput struct {
	Request  SubmitRequest
	ClientIP string
}

// BreakdownDTO explains how the shipping fee was assembled.
type BreakdownDTO struct {
	BaseFee        float64 `json:"baseFee"`
	WeightFee      float64 `json:"weightFee"`
	VolumeFee      float64 `json:"volumeFee"`
	WeightKg       float64 `json:"weightKg"`
	VolumeCbm      float64 `json:"volumeCbm"`
	City           string  `json:"city"`
	CityMultiplier float64 `json:"cityMultiplier"`
	Subtotal       float64 `json:"subtotal"`
}

// QuoteResultDTO is the wire form of a priced quote.
type QuoteResultDTO struct {
	ProductID      string       `json:"productId"`
	Quantity       int          `json:"quantity"`
	UnitPrice      float64      `json:"unitPrice"`
	Subtotal       float64      `json:"subtotal"`
	ShippingFee    float64      `json:"shippingFee"`
	Discount       *string      `json:"discount"`
	DiscountAmount float64      `json:"discountAmount"`
	Total          float64      `json:"total"`
	ETA            int          `json:"eta"`
	Currency       string       `json:"currency"`
	Breakdown      BreakdownDTO `json:"breakdown"`
}

func FromResult(r pricing.Result) QuoteResultDTO {
	b := r.Breakdown
	return QuoteResultDTO{
		ProductID:      r.ProductID,
		Quantity:       r.Quantity,
		UnitPrice:      r.UnitPrice.InexactFloat64(),
		Subtotal:       r.Subtotal.InexactFloat64(),
		ShippingFee:    r.ShippingFee.InexactFloat64(),
		Discount:       r.Discount,
		DiscountAmount: r.DiscountAmount.InexactFloat64(),
		Total:          r.Total.InexactFloat64(),
		ETA:            r.ETA,
		Currency:       r.Currency,
		Breakdown: BreakdownDTO{
			BaseFee:        b.BaseFee.InexactFloat64(),
			WeightFee:      b.WeightFee.InexactFloat64(),
			VolumeFee:      b.VolumeFee.InexactFloat64(),
			WeightKg:       b.WeightKg.InexactFloat64(),
			VolumeCbm:      b.VolumeCbm.InexactFloat64(),
			City:           b.City,
			CityMultiplier: b.CityMultiplier.InexactFloat64(),
			Subtotal:       b.Subtotal.InexactFloat64(),
		},
	}
}

// QuoteDTO is a stored quote. Contact details stay server-side because
// references are sequential and therefore guessable.
type QuoteDTO struct {
	ID              uuid.UUID `json:"id"`
	Reference       string    `json:"reference"`
	Status          string    `json:"status"`
	DeliveryCountry string    `json:"deliveryCountry"`
	QuoteResultDTO
	ExpiresAt time.Time `json:"expiresAt"`
	CreatedAt time.Time `json:"createdAt"`
}

// ToDTO renders a stored quote as seen at now.
func ToDTO(q models.Quote, now time.Time) QuoteDTO {
	status := q.Status
	if (status == enums.QuoteStatusPending || status == enums.QuoteStatusSent) && !q.ExpiresAt.After(now) {
		status = enums.QuoteStatusExpired
	}
	return QuoteDTO{
		ID:              q.ID,
		Reference:       q.Reference,
		Status:          status.String(),
		DeliveryCountry: q.DeliveryCountry,
		QuoteResultDTO:  FromResult(resultFromModel(q)),
		ExpiresAt:       q.ExpiresAt.UTC(),
		CreatedAt:       q.CreatedAt.UTC(),
	}
}

func resultFromModel(q models.Quote) pricing.Result {
	b := q.Breakdown
	return pricing.Result{
		ProductID:      q.ProductID.String(),
		Quantity:       q.Quantity,
		UnitPrice:      q.UnitPrice,
		Subtotal:       q.Subtotal,
		ShippingFee:    q.ShippingFee,
		Discount:       q.DiscountLabel,
		DiscountAmount: q.DiscountAmount,
		Total:          q.Total,
		ETA:            q.ETADays,
		Currency:       strings.TrimSpace(q.Currency),
		Breakdown: pricing.ShippingBreakdown{
			BaseFee:        b.BaseFee,
			WeightFee:      b.WeightFee,
			VolumeFee:      b.VolumeFee,
			WeightKg:       b.WeightKg,
			VolumeCbm:      b.VolumeCbm,
			City:           b.City,
			CityMultiplier: b.CityMultiplier,
			Subtotal:       b.Subtotal,
		},
	}
}
