package product

import (
	"fmt"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/omanfreight/quote-service/pkg/db/models"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
)

func openTestDB(t *testing.T) *gorm.DB {
	t.Helper()
	dsn := fmt.Sprintf("file:%s?mode=memory&cache=shared", uuid.NewString())
	conn, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{
		SkipDefaultTransaction: true,
		NowFunc:                func() time.Time { return time.Now().UTC() },
	})
	require.NoError(t, err)
	require.NoError(t, conn.AutoMigrate(models.All()...))
	return conn
}

func mustCreateTestProduct(t *testing.T, conn *gorm.DB, mutate func(*models.Product)) *models.Product {
	t.Helper()
	lead := 10
	p := &models.Product{
		SKU:           "SKU-" + uuid.NewString()[:8],
		Name:          "Steel Pallet Rack",
		BaseUnitPrice: decimal.RequireFromString("10.000"),
		MinOrderQty:   5,
		WeightKg:      decimal.RequireFromString("2.5"),
		VolumeCbm:     decimal.RequireFromString("0.01"),
		Tags:          []string{"warehouse"},
		Currency:      "OMR",
		LeadTimeDays:  &lead,
		IsActive:      true,
		PricingTiers: []models.ProductPricingTier{
			{MinQty: 100, UnitPrice: decimal.RequireFromString("7.000"), Position: 1},
			{MinQty: 50, UnitPrice: decimal.RequireFromString("8.000"), Position: 0},
		},
	}
	if mutate != nil {
		mutate(p)
	}
	require.NoError(t, conn.Create(p).Error)
	return p
}
