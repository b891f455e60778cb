package quotes

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/omanfreight/quote-service/pkg/db/models"
	"github.com/omanfreight/quote-service/pkg/enums"
	pkgerrors "github.com/omanfreight/quote-service/pkg/errors"
	"gorm.io/gorm"
)

// Repository persists submitted quotes.
type Repository struct {
	db *gorm.DB
}

func NewRepository(db *gorm.DB) *Repository {
	return &Repository{db: db}
}

func (r *Repository) WithTx(tx *gorm.DB) *Repository {
	return &Repository{db: tx}
}

func (r *Repository) Create(ctx context.Context, quote *models.Quote) error {
	return r.db.WithContext(ctx).Create(quote).Error
}

func (r *Repository) GetByReference(ctx context.Context, reference string) (*models.Quote, error) {
	var quote models.Quote
	err := r.db.WithContext(ctx).
		Where("reference = ?", strings.TrimSpace(reference)).
		First(&quote).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "quote not found")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load quote")
	}
	return &quote, nil
}

// LatestReference returns the highest stored reference starting with period,
// or "" when none exists. Longer sequences sort first so numbering past the
// zero padding still compares correctly.
func (r *Repository) LatestReference(ctx context.Context, period string) (string, error) {
	var refs []string
	err := r.db.WithContext(ctx).
		Model(&models.Quote{}).
		Where("reference LIKE ?", period+"%").
		Order("LENGTH(reference) DESC").
		Order("reference DESC").
		Limit(1).
		Pluck("reference", &refs).Error
	if err != nil {
		return "", pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load latest quote reference")
	}
	if len(refs) == 0 {
		return "", nil
	}
	return refs[0], nil
}

// ExpireBefore flips up to limit open quotes whose validity ended before
// cutoff to expired and reports how many rows changed.
func (r *Repository) ExpireBefore(ctx context.Context, tx *gorm.DB, cutoff time.Time, limit int) (int64, error) {
	if tx == nil {
		tx = r.db
	}
	if limit <= 0 {
		limit = 500
	}
	open := []enums.QuoteStatus{enums.QuoteStatusPending, enums.QuoteStatusSent}
	due := tx.Model(&models.Quote{}).
		Select("id").
		Where("status IN ? AND expires_at < ?", open, cutoff).
		Order("expires_at ASC").
		Limit(limit)

	res := tx.WithContext(ctx).
		Model(&models.Quote{}).
		Where("id IN (?)", due).
		Updates(map[string]any{
			"status":     enums.QuoteStatusExpired,
			"updated_at": time.Now().UTC(),
		})
	return res.RowsAffected, res.Error
}
