package payloads

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// QuoteSubmittedEvent carries everything the notification consumer needs to
// render the quote e-mail without reading the database.
type QuoteSubmittedEvent struct {
	QuoteID         uuid.UUID       `json:"quote_id"`
	Reference       string          `json:"reference"`
	ProductID       uuid.UUID       `json:"product_id"`
	Quantity        int             `json:"quantity"`
	CustomerName    string          `json:"customer_name"`
	CustomerEmail   string          `json:"customer_email"`
	CustomerPhone   *string         `json:"customer_phone,omitempty"`
	Company         *string         `json:"company,omitempty"`
	DeliveryCity    string          `json:"delivery_city"`
	DeliveryCountry string          `json:"delivery_country"`
	UnitPrice       decimal.Decimal `json:"unit_price"`
	Subtotal        decimal.Decimal `json:"subtotal"`
	ShippingFee     decimal.Decimal `json:"shipping_fee"`
	Discount        *string         `json:"discount,omitempty"`
	DiscountAmount  decimal.Decimal `json:"discount_amount"`
	Total           decimal.Decimal `json:"total"`
	Currency        string          `json:"currency"`
	ETADays         int             `json:"eta_days"`
	ExpiresAt       time.Time       `json:"expires_at"`
}

// ProductPricingChangedEvent is emitted when a product's tier table is replaced.
type ProductPricingChangedEvent struct {
	ProductID     uuid.UUID       `json:"product_id"`
	BaseUnitPrice decimal.Decimal `json:"base_unit_price"`
	TierCount     int             `json:"tier_count"`
}
