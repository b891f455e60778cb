package quotes

import (
	"context"
	"fmt"
	"strconv"
	"strings"
	"time"
)

const (
	defaultReferencePrefix = "Q"
	// a yearly counter must outlive the year it numbers
	referenceSequenceTTL = 400 * 24 * time.Hour
)

// ReferenceGenerator hands out human-readable quote references.
type ReferenceGenerator interface {
	Next(ctx context.Context) (string, error)
	// Reseed moves the counter past latest, the highest reference already
	// stored for its year.
	Reseed(ctx context.Context, latest string) error
}

type sequenceStore interface {
	NextSequence(ctx context.Context, name string, ttl time.Duration) (int64, error)
	RaiseSequence(ctx context.Context, name string, floor int64, ttl time.Duration) (int64, error)
}

// SequenceReferences numbers quotes per calendar year, e.g. Q-2026-000042.
type SequenceReferences struct {
	store  sequenceStore
	prefix string
	now    func() time.Time
}

func NewSequenceReferences(store sequenceStore, prefix string) *SequenceReferences {
	prefix = strings.TrimSpace(prefix)
	if prefix == "" {
		prefix = defaultReferencePrefix
	}
	return &SequenceReferences{store: store, prefix: prefix, now: time.Now}
}

func (g *SequenceReferences) Next(ctx context.Context) (string, error) {
	year := g.now().UTC().Year()
	seq, err := g.store.NextSequence(ctx, sequenceName(year), referenceSequenceTTL)
	if err != nil {
		return "", fmt.Errorf("next quote sequence: %w", err)
	}
	return FormatReference(g.prefix, year, seq), nil
}

func (g *SequenceReferences) Reseed(ctx context.Context, latest string) error {
	year, seq, err := ParseReference(latest)
	if err != nil {
		return err
	}
	if _, err := g.store.RaiseSequence(ctx, sequenceName(year), seq, referenceSequenceTTL); err != nil {
		return fmt.Errorf("reseed quote sequence: %w", err)
	}
	return nil
}

func sequenceName(year int) string {
	return fmt.Sprintf("quote_reference:%d", year)
}

// FormatReference renders the canonical reference layout.
func FormatReference(prefix string, year int, seq int64) string {
	return fmt.Sprintf("%s-%d-%06d", prefix, year, seq)
}

// ParseReference splits a reference into its year and sequence number.
func ParseReference(reference string) (int, int64, error) {
	parts := strings.Split(strings.TrimSpace(reference), "-")
	if len(parts) < 3 {
		return 0, 0, fmt.Errorf("malformed quote reference %q", reference)
	}
	year, err := strconv.Atoi(parts[len(parts)-2])
	if err != nil {
		return 0, 0, fmt.Errorf("malformed quote reference %q: %w", reference, err)
	}
	seq, err := strconv.ParseInt(parts[len(parts)-1], 10, 64)
	if err != nil || seq < 0 {
		return 0, 0, fmt.Errorf("malformed quote reference %q", reference)
	}
	return year, seq, nil
}

// referencePeriod returns the "<prefix>-<year>-" part shared by every
// reference numbered from the same counter.
func referencePeriod(reference string) string {
	idx := strings.LastIndex(reference, "-")
	if idx < 0 {
		return reference
	}
	return reference[:idx+1]
}
