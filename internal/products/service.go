package product

import (
	"context"
	"strings"

	"github.com/google/uuid"
	"github.com/omanfreight/quote-service/internal/pricing"
	"github.com/omanfreight/quote-service/pkg/db"
	"github.com/omanfreight/quote-service/pkg/db/models"
	"github.com/omanfreight/quote-service/pkg/enums"
	pkgerrors "github.com/omanfreight/quote-service/pkg/errors"
	"github.com/omanfreight/quote-service/pkg/outbox"
	"github.com/omanfreight/quote-service/pkg/outbox/payloads"
	"github.com/omanfreight/quote-service/pkg/pagination"
	"github.com/omanfreight/quote-service/pkg/validation"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// Service exposes the catalog operations used by quoting and admin tooling.
type Service interface {
	PricingProduct(ctx context.Context, productID string) (pricing.Product, error)
	GetProduct(ctx context.Context, productID string) (*ProductDTO, error)
	ListProducts(ctx context.Context, params pagination.Params) (*ProductListResult, error)
	CreateProduct(ctx context.Context, input CreateProductInput) (*ProductDTO, error)
	ReplaceTiers(ctx context.Context, productID string, tiers []TierInput) (*ProductDTO, error)
}

type txRunner interface {
	WithTx(ctx context.Context, fn func(tx *gorm.DB) error) error
}

type outboxEmitter interface {
	Emit(ctx context.Context, tx *gorm.DB, event outbox.DomainEvent) error
}

type service struct {
	repo   *Repository
	tx     txRunner
	outbox outboxEmitter
}

// NewService wires the catalog service. tx and emitter may be nil for read-only use.
func NewService(repo *Repository, tx txRunner, emitter outboxEmitter) (Service, error) {
	if repo == nil {
		return nil, pkgerrors.New(pkgerrors.CodeInternal, "product repository required")
	}
	return &service{repo: repo, tx: tx, outbox: emitter}, nil
}

var _ txRunner = (*db.Client)(nil)

func (s *service) load(ctx context.Context, productID string) (*models.Product, error) {
	id, err := uuid.Parse(strings.TrimSpace(productID))
	if err != nil {
		return nil, pkgerrors.New(pkgerrors.CodeNotFound, "product not found")
	}
	return s.repo.GetByID(ctx, id)
}

func (s *service) PricingProduct(ctx context.Context, productID string) (pricing.Product, error) {
	p, err := s.load(ctx, productID)
	if err != nil {
		return pricing.Product{}, err
	}
	return ToPricingProduct(*p), nil
}

func (s *service) GetProduct(ctx context.Context, productID string) (*ProductDTO, error) {
	p, err := s.load(ctx, productID)
	if err != nil {
		return nil, err
	}
	dto := ToDTO(*p)
	return &dto, nil
}

func (s *service) ListProducts(ctx context.Context, params pagination.Params) (*ProductListResult, error) {
	rows, next, err := s.repo.List(ctx, params)
	if err != nil {
		return nil, err
	}
	out := &ProductListResult{Products: make([]ProductDTO, 0, len(rows)), NextCursor: next}
	for _, row := range rows {
		out.Products = append(out.Products, ToDTO(row))
	}
	return out, nil
}

func (s *service) CreateProduct(ctx context.Context, input CreateProductInput) (*ProductDTO, error) {
	if err := validation.Struct(input); err != nil {
		return nil, err
	}
	if err := validateMoney(input.BaseUnitPrice, input.WeightKg, input.VolumeCbm, input.PricingTiers); err != nil {
		return nil, err
	}
	currency := strings.ToUpper(strings.TrimSpace(input.Currency))
	if currency == "" {
		currency = defaultCurrency
	}
	record := &models.Product{
		SKU:           strings.TrimSpace(input.SKU),
		Name:          strings.TrimSpace(input.Name),
		Description:   input.Description,
		BaseUnitPrice: input.BaseUnitPrice,
		MinOrderQty:   input.MinOrderQty,
		WeightKg:      input.WeightKg,
		VolumeCbm:     input.VolumeCbm,
		Tags:          normalizeTags(input.Tags),
		Currency:      currency,
		LeadTimeDays:  input.LeadTimeDays,
		IsActive:      true,
		PricingTiers:  tierRows(input.PricingTiers),
	}
	created, err := s.repo.Create(ctx, record)
	if err != nil {
		if db.IsUniqueViolation(err, "idx_products_sku") || db.IsUniqueViolation(err, "products.sku") {
			return nil, pkgerrors.New(pkgerrors.CodeConflict, "sku already exists").WithDetails(map[string]any{"sku": record.SKU})
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "create product")
	}
	dto := ToDTO(*created)
	return &dto, nil
}

// ReplaceTiers swaps the tier table and queues a pricing change event in the same transaction.
func (s *service) ReplaceTiers(ctx context.Context, productID string, tiers []TierInput) (*ProductDTO, error) {
	if s.tx == nil || s.outbox == nil {
		return nil, pkgerrors.New(pkgerrors.CodeInternal, "product service is read-only")
	}
	for _, t := range tiers {
		if err := validation.Struct(t); err != nil {
			return nil, err
		}
	}
	existing, err := s.load(ctx, productID)
	if err != nil {
		return nil, err
	}
	if err := validateMoney(existing.BaseUnitPrice, existing.WeightKg, existing.VolumeCbm, tiers); err != nil {
		return nil, err
	}

	rows := tierRows(tiers)
	err = s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		if err := s.repo.WithTx(tx).ReplaceTiers(ctx, existing.ID, rows); err != nil {
			return err
		}
		return s.outbox.Emit(ctx, tx, outbox.DomainEvent{
			EventType:     enums.EventProductPricingChanged,
			AggregateType: enums.AggregateProduct,
			AggregateID:   existing.ID,
			Data: payloads.ProductPricingChangedEvent{
				ProductID:     existing.ID,
				BaseUnitPrice: existing.BaseUnitPrice,
				TierCount:     len(rows),
			},
		})
	})
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "replace pricing tiers")
	}
	return s.GetProduct(ctx, productID)
}

func tierRows(tiers []TierInput) []models.ProductPricingTier {
	rows := make([]models.ProductPricingTier, 0, len(tiers))
	for i, t := range tiers {
		rows = append(rows, models.ProductPricingTier{
			MinQty:    t.MinQty,
			UnitPrice: t.UnitPrice,
			Position:  i,
		})
	}
	return rows
}

func normalizeTags(tags []string) []string {
	out := make([]string, 0, len(tags))
	seen := map[string]struct{}{}
	for _, tag := range tags {
		t := strings.ToLower(strings.TrimSpace(tag))
		if t == "" {
			continue
		}
		if _, ok := seen[t]; ok {
			continue
		}
		seen[t] = struct{}{}
		out = append(out, t)
	}
	return out
}

func validateMoney(base, weight, volume decimal.Decimal, tiers []TierInput) error {
	details := map[string]string{}
	if base.IsNegative() {
		details["baseUnitPrice"] = "must not be negative"
	}
	if weight.IsNegative() {
		details["weightKg"] = "must not be negative"
	}
	if volume.IsNegative() {
		details["volumeCbm"] = "must not be negative"
	}
	for _, t := range tiers {
		if t.UnitPrice.IsNegative() {
			details["pricingTiers"] = "unit prices must not be negative"
			break
		}
	}
	if len(details) == 0 {
		return nil
	}
	return pkgerrors.Fields("validation failed", details)
}
