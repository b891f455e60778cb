package cron

import (
	"context"
	"errors"
	"io"
	"testing"
	"time"

	"github.com/omanfreight/quote-service/pkg/logger"
	"gorm.io/gorm"
)

func TestQuoteExpiryJobDrainsBacklog(t *testing.T) {
	now := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	repo := &fakeQuoteExpirer{batches: []int64{3, 3, 0}}
	job := newQuoteExpiryJob(t, repo, 3)
	job.now = func() time.Time { return now }

	if err := job.Run(context.Background()); err != nil {
		t.Fatalf("Run: %v", err)
	}
	if repo.called != 3 {
		t.Fatalf("expected three batches, got %d", repo.called)
	}
	if !repo.lastCutoff.Equal(now) {
		t.Fatalf("expected cutoff %s, got %s", now, repo.lastCutoff)
	}
}

func TestQuoteExpiryJobStopsOnError(t *testing.T) {
	repo := &fakeQuoteExpirer{err: errors.New("db down")}
	job := newQuoteExpiryJob(t, repo, 0)

	if err := job.Run(context.Background()); err == nil {
		t.Fatal("expected error")
	}
	if repo.called != 1 {
		t.Fatalf("expected a single attempt, got %d", repo.called)
	}
}

func TestNewQuoteExpiryJobRequiresDependencies(t *testing.T) {
	if _, err := NewQuoteExpiryJob(QuoteExpiryJobParams{}); err == nil {
		t.Fatal("expected missing logger error")
	}
}

func newQuoteExpiryJob(t *testing.T, repo *fakeQuoteExpirer, batch int) *quoteExpiryJob {
	t.Helper()
	jobIface, err := NewQuoteExpiryJob(QuoteExpiryJobParams{
		Logger:     logger.New(logger.Options{ServiceName: "test", Output: io.Discard}),
		DB:         passthroughTx{},
		Repository: repo,
		BatchSize:  batch,
	})
	if err != nil {
		t.Fatalf("NewQuoteExpiryJob: %v", err)
	}
	return jobIface.(*quoteExpiryJob)
}

type fakeQuoteExpirer struct {
	batches    []int64
	lastCutoff time.Time
	called     int
	err        error
}

func (f *fakeQuoteExpirer) ExpireBefore(_ context.Context, _ *gorm.DB, cutoff time.Time, _ int) (int64, error) {
	f.called++
	f.lastCutoff = cutoff
	if f.err != nil {
		return 0, f.err
	}
	if len(f.batches) == 0 {
		return 0, nil
	}
	next := f.batches[0]
	f.batches = f.batches[1:]
	return next, nil
}
