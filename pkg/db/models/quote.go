package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/omanfreight/quote-service/pkg/enums"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// Quote is a submitted, priced offer kept for follow-up.
type Quote struct {
	ID              uuid.UUID         `gorm:"column:id;type:uuid;primaryKey"`
	Reference       string            `gorm:"column:reference;not null;uniqueIndex"`
	ProductID       uuid.UUID         `gorm:"column:product_id;type:uuid;not null;index"`
	Quantity        int               `gorm:"column:quantity;not null"`
	DeliveryCity    string            `gorm:"column:delivery_city;not null"`
	DeliveryCountry string            `gorm:"column:delivery_country;not null"`
	CustomerName    string            `gorm:"column:customer_name;not null"`
	CustomerEmail   string            `gorm:"column:customer_email;not null"`
	CustomerPhone   *string           `gorm:"column:customer_phone"`
	Company         *string           `gorm:"column:company"`
	Notes           *string           `gorm:"column:notes"`
	UnitPrice       decimal.Decimal   `gorm:"column:unit_price;type:numeric(12,3);not null"`
	Subtotal        decimal.Decimal   `gorm:"column:subtotal;type:numeric(14,3);not null"`
	ShippingFee     decimal.Decimal   `gorm:"column:shipping_fee;type:numeric(14,2);not null"`
	DiscountLabel   *string           `gorm:"column:discount_label"`
	DiscountAmount  decimal.Decimal   `gorm:"column:discount_amount;type:numeric(18,6);not null;default:0"`
	Total           decimal.Decimal   `gorm:"column:total;type:numeric(14,2);not null"`
	Currency        string            `gorm:"column:currency;type:char(3);not null"`
	ETADays         int               `gorm:"column:eta_days;not null"`
	Breakdown       QuoteBreakdown    `gorm:"column:breakdown;type:jsonb;serializer:json"`
	Status          enums.QuoteStatus `gorm:"column:status;not null;default:'pending'"`
	ClientIP        *string           `gorm:"column:client_ip"`
	ExpiresAt       time.Time         `gorm:"column:expires_at;not null"`
	CreatedAt       time.Time         `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt       time.Time         `gorm:"column:updated_at;autoUpdateTime"`
}

// QuoteBreakdown is the stored shipping fee breakdown.
type QuoteBreakdown struct {
	BaseFee        decimal.Decimal `json:"baseFee"`
	WeightFee      decimal.Decimal `json:"weightFee"`
	VolumeFee      decimal.Decimal `json:"volumeFee"`
	WeightKg       decimal.Decimal `json:"weightKg"`
	VolumeCbm      decimal.Decimal `json:"volumeCbm"`
	City           string          `json:"city"`
	CityMultiplier decimal.Decimal `json:"cityMultiplier"`
	Subtotal       decimal.Decimal `json:"subtotal"`
}

func (q *Quote) BeforeCreate(*gorm.DB) error {
	if q.ID == uuid.Nil {
		q.ID = uuid.New()
	}
	return nil
}
