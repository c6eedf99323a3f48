package harvest

import (
	"context"
	"math/rand/v2"
	"time"

	"go.uber.org/zap"

	"github.com/inmodata/inmoharvest/internal/fetch"
)

// DetailURLFunc reports the detail-page URL for an item, or ok=false when
// the item carries none.
type DetailURLFunc[T any] func(item T) (url string, ok bool)

// MergeFunc merges fields extracted from the detail page into the item.
// An error means the detail page could not be parsed; the base item is
// kept unmodified in that case.
type MergeFunc[T any] func(item T, detailHTML string) (T, error)

// Enricher re-fetches each item's detail page and merges the extra fields.
// Failures are isolated per item: the base item is always emitted, a
// failure never aborts the run, and consecutive items do not depend on
// each other's outcome beyond an informational counter.
type Enricher[T any] struct {
	esc       *fetch.Escalator
	opts      fetch.Options
	timeout   time.Duration
	detailURL DetailURLFunc[T]
	merge     MergeFunc[T]

	// delayMin/delayMax bound the randomized pause before each detail
	// fetch, keeping the request rate polite.
	delayMin time.Duration
	delayMax time.Duration

	failures int
}

// NewEnricher creates an Enricher sharing the parent harvest's escalator
// and tier permissions.
func NewEnricher[T any](
	esc *fetch.Escalator,
	opts fetch.Options,
	timeout time.Duration,
	detailURL DetailURLFunc[T],
	merge MergeFunc[T],
	delayMin, delayMax time.Duration,
) *Enricher[T] {
	if delayMax < delayMin {
		delayMax = delayMin
	}
	return &Enricher[T]{
		esc:       esc,
		opts:      opts,
		timeout:   timeout,
		detailURL: detailURL,
		merge:     merge,
		delayMin:  delayMin,
		delayMax:  delayMax,
	}
}

// Enrich returns the item with detail fields merged, or the item unchanged
// when it has no detail link or the detail fetch/parse failed. It never
// returns an error.
func (e *Enricher[T]) Enrich(ctx context.Context, item T) T {
	detailURL, ok := e.detailURL(item)
	if !ok || detailURL == "" {
		return item
	}

	e.pause(ctx)

	res, err := e.esc.Fetch(ctx, fetch.Request{
		URL:     detailURL,
		Timeout: e.timeout,
		Options: e.opts,
	})
	if err != nil {
		e.failures++
		zap.L().Warn("enrich: detail fetch failed, keeping base item",
			zap.String("url", detailURL),
			zap.Error(err),
		)
		return item
	}

	merged, err := e.merge(item, res.Content)
	if err != nil {
		e.failures++
		zap.L().Warn("enrich: detail parse failed, keeping base item",
			zap.String("url", detailURL),
			zap.Error(err),
		)
		return item
	}
	return merged
}

// Failures returns how many items were emitted unenriched due to a detail
// fetch or parse failure. Informational only.
func (e *Enricher[T]) Failures() int { return e.failures }

func (e *Enricher[T]) pause(ctx context.Context) {
	d := e.delayMin
	if span := e.delayMax - e.delayMin; span > 0 {
		d += time.Duration(rand.Int64N(int64(span) + 1))
	}
	if d <= 0 {
		return
	}
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
	case <-timer.C:
	}
}
