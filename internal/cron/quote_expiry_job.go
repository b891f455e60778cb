package cron

import (
	"context"
	"fmt"
	"time"

	"github.com/omanfreight/quote-service/pkg/logger"
	"gorm.io/gorm"
)

// QuoteExpiryJobParams configure the job that closes out stale quotes.
type QuoteExpiryJobParams struct {
	Logger     *logger.Logger
	DB         txRunner
	Repository quoteExpirer
	BatchSize  int
}

type quoteExpirer interface {
	ExpireBefore(ctx context.Context, tx *gorm.DB, cutoff time.Time, limit int) (int64, error)
}

func NewQuoteExpiryJob(params QuoteExpiryJobParams) (Job, error) {
	if params.Logger == nil {
		return nil, fmt.Errorf("logger required")
	}
	if params.DB == nil {
		return nil, fmt.Errorf("db runner required")
	}
	if params.Repository == nil {
		return nil, fmt.Errorf("quote repository required")
	}
	batch := params.BatchSize
	if batch <= 0 {
		batch = defaultBatchSize
	}
	return &quoteExpiryJob{
		logg:      params.Logger,
		db:        params.DB,
		repo:      params.Repository,
		batchSize: batch,
		now:       time.Now,
	}, nil
}

type quoteExpiryJob struct {
	logg      *logger.Logger
	db        txRunner
	repo      quoteExpirer
	batchSize int
	now       func() time.Time
}

func (j *quoteExpiryJob) Name() string { return "quote-expiry" }

// Run expires open quotes in batches until a short batch signals the backlog is drained.
func (j *quoteExpiryJob) Run(ctx context.Context) error {
	cutoff := j.now().UTC()
	var total int64
	for {
		var expired int64
		err := j.db.WithTx(ctx, func(tx *gorm.DB) error {
			rows, err := j.repo.ExpireBefore(ctx, tx, cutoff, j.batchSize)
			if err != nil {
				return err
			}
			expired = rows
			return nil
		})
		if err != nil {
			return fmt.Errorf("expire quotes: %w", err)
		}
		total += expired
		if expired < int64(j.batchSize) {
			break
		}
		if err := ctx.Err(); err != nil {
			return err
		}
	}
	logCtx := j.logg.WithFields(ctx, map[string]any{
		"cutoff":         cutoff,
		"quotes_expired": total,
	})
	j.logg.Info(logCtx, "quote expiry sweep complete")
	return nil
}
