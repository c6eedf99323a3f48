package harvest

import (
	"context"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"

	"github.com/inmodata/inmoharvest/internal/fetch"
)

// Harvester combines a pagination walk with optional detail enrichment and
// collects the finite, ordered result set for one site.
type Harvester[T any] struct {
	walker   *Walker[T]
	enricher *Enricher[T] // nil disables enrichment
	esc      *fetch.Escalator
	opts     fetch.Options
}

// NewHarvester wires a walker and an optional enricher.
func NewHarvester[T any](walker *Walker[T], enricher *Enricher[T], esc *fetch.Escalator, opts fetch.Options) *Harvester[T] {
	return &Harvester[T]{walker: walker, enricher: enricher, esc: esc, opts: opts}
}

// Run harvests one listing end to end. The only errors it returns are
// configuration errors detected before any fetch; a partially blocked or
// failed harvest yields whatever was collected, without error.
func (h *Harvester[T]) Run(ctx context.Context, startURL string, extract ExtractFunc[T]) ([]T, error) {
	if err := ValidateStartURL(startURL); err != nil {
		return nil, err
	}
	if h.opts.ForceBrowser && !h.esc.BrowserAvailable() {
		return nil, eris.Errorf("harvest: site requires the browser tier, which is disabled")
	}

	// Non-nil even when empty: the sink serializes the result as a JSON
	// array, and a nil slice would marshal as null.
	items := make([]T, 0)
	for item := range h.walker.Walk(ctx, startURL, extract) {
		if h.enricher != nil {
			item = h.enricher.Enrich(ctx, item)
		}
		items = append(items, item)
	}

	fields := []zap.Field{zap.Int("items", len(items))}
	if h.enricher != nil {
		fields = append(fields, zap.Int("enrich_failures", h.enricher.Failures()))
	}
	zap.L().Info("harvest: run complete", fields...)

	return items, nil
}
