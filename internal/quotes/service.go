package quotes

import (
	"context"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/omanfreight/quote-service/internal/pricing"
	"github.com/omanfreight/quote-service/pkg/db"
	"github.com/omanfreight/quote-service/pkg/db/models"
	"github.com/omanfreight/quote-service/pkg/enums"
	pkgerrors "github.com/omanfreight/quote-service/pkg/errors"
	"github.com/omanfreight/quote-service/pkg/logger"
	"github.com/omanfreight/quote-service/pkg/metrics"
	"github.com/omanfreight/quote-service/pkg/outbox"
	"github.com/omanfreight/quote-service/pkg/outbox/payloads"
	"github.com/omanfreight/quote-service/pkg/validation"
	"gorm.io/gorm"
)

const (
	defaultValidity       = 30 * 24 * time.Hour
	maxReferenceAttempts  = 3
	referenceUniqueIndex  = "idx_quotes_reference"
	referenceUniqueColumn = "quotes.reference"

	maxCustomerNameLen = 120
	maxCompanyLen      = 120
	maxNotesLen        = 1000
)

// Service prices and records quotes.
type Service interface {
	Calculate(ctx context.Context, req pricing.Request) (*pricing.Result, error)
	Submit(ctx context.Context, input SubmitInput) (*QuoteDTO, error)
	GetByReference(ctx context.Context, reference string) (*QuoteDTO, error)
}

type productLookup interface {
	PricingProduct(ctx context.Context, productID string) (pricing.Product, error)
}

type txRunner interface {
	WithTx(ctx context.Context, fn func(tx *gorm.DB) error) error
}

type outboxEmitter interface {
	Emit(ctx context.Context, tx *gorm.DB, event outbox.DomainEvent) error
}

var _ txRunner = (*db.Client)(nil)

type ServiceParams struct {
	Products   productLookup
	Engine     *pricing.Engine
	Repository *Repository
	TxRunner   txRunner
	Outbox     outboxEmitter
	References ReferenceGenerator
	Metrics    *metrics.QuoteMetrics
	Logger     *logger.Logger
	Validity   time.Duration
	Now        func() time.Time
}

type service struct {
	products   productLookup
	engine     *pricing.Engine
	repo       *Repository
	tx         txRunner
	outbox     outboxEmitter
	references ReferenceGenerator
	metrics    *metrics.QuoteMetrics
	logg       *logger.Logger
	validity   time.Duration
	now        func() time.Time
}

func NewService(params ServiceParams) (Service, error) {
	switch {
	case params.Products == nil:
		return nil, pkgerrors.New(pkgerrors.CodeInternal, "product lookup required")
	case params.Repository == nil:
		return nil, pkgerrors.New(pkgerrors.CodeInternal, "quote repository required")
	case params.TxRunner == nil:
		return nil, pkgerrors.New(pkgerrors.CodeInternal, "transaction runner required")
	case params.Outbox == nil:
		return nil, pkgerrors.New(pkgerrors.CodeInternal, "outbox emitter required")
	case params.References == nil:
		return nil, pkgerrors.New(pkgerrors.CodeInternal, "reference generator required")
	}
	engine := params.Engine
	if engine == nil {
		engine = pricing.NewEngine(pricing.DefaultOptions())
	}
	validity := params.Validity
	if validity <= 0 {
		validity = defaultValidity
	}
	now := params.Now
	if now == nil {
		now = time.Now
	}
	return &service{
		products:   params.Products,
		engine:     engine,
		repo:       params.Repository,
		tx:         params.TxRunner,
		outbox:     params.Outbox,
		references: params.References,
		metrics:    params.Metrics,
		logg:       params.Logger,
		validity:   validity,
		now:        now,
	}, nil
}

func (s *service) Calculate(ctx context.Context, req pricing.Request) (result *pricing.Result, err error) {
	started := time.Now()
	defer func() { s.metrics.Observe(metrics.OperationCalculate, err, time.Since(started)) }()

	return s.price(ctx, req)
}

func (s *service) price(ctx context.Context, req pricing.Request) (*pricing.Result, error) {
	req = req.Normalize()
	if err := pricing.ValidateRequest(req); err != nil {
		return nil, err
	}
	product, err := s.products.PricingProduct(ctx, req.ProductID)
	if err != nil {
		return nil, err
	}
	result, err := s.engine.Quote(product, req)
	if err != nil {
		return nil, err
	}
	return &result, nil
}

func (s *service) Submit(ctx context.Context, input SubmitInput) (dto *QuoteDTO, err error) {
	started := time.Now()
	defer func() { s.metrics.Observe(metrics.OperationSubmit, err, time.Since(started)) }()

	req := normalizeSubmit(input.Request)
	if err := validation.Struct(req); err != nil {
		return nil, err
	}
	result, err := s.price(ctx, req.PricingRequest())
	if err != nil {
		return nil, err
	}
	productID, err := uuid.Parse(result.ProductID)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "parse product id")
	}

	now := s.now().UTC()
	quote := buildQuote(req, *result, productID, input.ClientIP, now, now.Add(s.validity))

	for attempt := 1; ; attempt++ {
		reference, refErr := s.references.Next(ctx)
		if refErr != nil {
			return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, refErr, "allocate quote reference")
		}
		quote.ID = uuid.New()
		quote.Reference = reference

		err = s.tx.WithTx(ctx, func(tx *gorm.DB) error {
			if err := s.repo.WithTx(tx).Create(ctx, quote); err != nil {
				return err
			}
			return s.outbox.Emit(ctx, tx, outbox.DomainEvent{
				EventType:     enums.EventQuoteSubmitted,
				AggregateType: enums.AggregateQuote,
				AggregateID:   quote.ID,
				Data:          submittedEvent(quote),
				OccurredAt:    now,
			})
		})
		if err == nil {
			break
		}
		if isReferenceCollision(err) && attempt < maxReferenceAttempts {
			if s.logg != nil {
				s.logg.Warn(s.logg.WithQuoteReference(ctx, reference), "quote reference collision, reseeding counter")
			}
			if reseedErr := s.reseedReferences(ctx, reference); reseedErr != nil {
				return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, reseedErr, "reseed quote references")
			}
			continue
		}
		if pkgerrors.As(err) != nil {
			return nil, err
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "store quote")
	}

	if s.logg != nil {
		logCtx := s.logg.WithQuoteReference(ctx, quote.Reference)
		logCtx = s.logg.WithFields(logCtx, map[string]any{
			"product_id":     quote.ProductID.String(),
			"quantity":       quote.Quantity,
			"total":          quote.Total.StringFixed(2),
			"customer_email": quote.CustomerEmail,
		})
		s.logg.Info(logCtx, "quote submitted")
	}
	out := ToDTO(*quote, now)
	return &out, nil
}

// reseedReferences lifts the reference counter past the highest stored
// reference of the colliding period. A counter that lost its value would
// otherwise collide once per existing quote.
func (s *service) reseedReferences(ctx context.Context, collided string) error {
	latest, err := s.repo.LatestReference(ctx, referencePeriod(collided))
	if err != nil {
		return err
	}
	if latest == "" {
		return nil
	}
	return s.references.Reseed(ctx, latest)
}

func (s *service) GetByReference(ctx context.Context, reference string) (dto *QuoteDTO, err error) {
	started := time.Now()
	defer func() { s.metrics.Observe(metrics.OperationLookup, err, time.Since(started)) }()

	reference = strings.TrimSpace(reference)
	if reference == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "reference is required")
	}
	quote, err := s.repo.GetByReference(ctx, reference)
	if err != nil {
		return nil, err
	}
	out := ToDTO(*quote, s.now().UTC())
	return &out, nil
}

func normalizeSubmit(req SubmitRequest) SubmitRequest {
	pr := req.PricingRequest().Normalize()
	req.ProductID = pr.ProductID
	req.DeliveryCity = pr.DeliveryCity
	req.DeliveryCountry = pr.DeliveryCountry
	req.CustomerName = validation.SanitizeString(req.CustomerName, maxCustomerNameLen)
	req.CustomerEmail = strings.ToLower(strings.TrimSpace(req.CustomerEmail))
	req.CustomerPhone = validation.SanitizeOptional(req.CustomerPhone, 0)
	req.Company = validation.SanitizeOptional(req.Company, maxCompanyLen)
	req.Notes = validation.SanitizeOptional(req.Notes, maxNotesLen)
	return req
}

func buildQuote(req SubmitRequest, result pricing.Result, productID uuid.UUID, clientIP string, now, expiresAt time.Time) *models.Quote {
	b := result.Breakdown
	quote := &models.Quote{
		ProductID:       productID,
		Quantity:        result.Quantity,
		DeliveryCity:    req.DeliveryCity,
		DeliveryCountry: req.DeliveryCountry,
		CustomerName:    req.CustomerName,
		CustomerEmail:   req.CustomerEmail,
		CustomerPhone:   req.CustomerPhone,
		Company:         req.Company,
		Notes:           req.Notes,
		UnitPrice:       result.UnitPrice,
		Subtotal:        result.Subtotal,
		ShippingFee:     result.ShippingFee,
		DiscountLabel:   result.Discount,
		DiscountAmount:  result.DiscountAmount,
		Total:           result.Total,
		Currency:        result.Currency,
		ETADays:         result.ETA,
		Breakdown: models.QuoteBreakdown{
			BaseFee:        b.BaseFee,
			WeightFee:      b.WeightFee,
			VolumeFee:      b.VolumeFee,
			WeightKg:       b.WeightKg,
			VolumeCbm:      b.VolumeCbm,
			City:           b.City,
			CityMultiplier: b.CityMultiplier,
			Subtotal:       b.Subtotal,
		},
		Status:    enums.QuoteStatusPending,
		ExpiresAt: expiresAt,
		CreatedAt: now,
		UpdatedAt: now,
	}
	if ip := strings.TrimSpace(clientIP); ip != "" {
		quote.ClientIP = &ip
	}
	return quote
}

func submittedEvent(q *models.Quote) payloads.QuoteSubmittedEvent {
	return payloads.QuoteSubmittedEvent{
		QuoteID:         q.ID,
		Reference:       q.Reference,
		ProductID:       q.ProductID,
		Quantity:        q.Quantity,
		CustomerName:    q.CustomerName,
		CustomerEmail:   q.CustomerEmail,
		CustomerPhone:   q.CustomerPhone,
		Company:         q.Company,
		DeliveryCity:    q.DeliveryCity,
		DeliveryCountry: q.DeliveryCountry,
		UnitPrice:       q.UnitPrice,
		Subtotal:        q.Subtotal,
		ShippingFee:     q.ShippingFee,
		Discount:        q.DiscountLabel,
		DiscountAmount:  q.DiscountAmount,
		Total:           q.Total,
		Currency:        q.Currency,
		ETADays:         q.ETADays,
		ExpiresAt:       q.ExpiresAt,
	}
}

func isReferenceCollision(err error) bool {
	return db.IsUniqueViolation(err, referenceUniqueIndex) || db.IsUniqueViolation(err, referenceUniqueColumn)
}
