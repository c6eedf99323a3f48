package harvest

import (
	"context"
	"iter"
	"time"

	"go.uber.org/zap"

	"github.com/inmodata/inmoharvest/internal/fetch"
)

// ExtractFunc turns one listing page's content into zero or more items in
// document order. An empty result is the end-of-listing signal, not an
// error; a non-nil error means the page could not be parsed at all.
type ExtractFunc[T any] func(pageHTML string) ([]T, error)

// Walker pages through a listing, fetching each page via the escalator and
// handing content to the extractor. Items are emitted in page order and,
// within a page, in document order; the walker never reorders or
// deduplicates items, only pages.
type Walker[T any] struct {
	esc     *fetch.Escalator
	opts    fetch.Options
	timeout time.Duration
}

// NewWalker creates a Walker bound to an escalator and tier permissions.
func NewWalker[T any](esc *fetch.Escalator, opts fetch.Options, timeout time.Duration) *Walker[T] {
	return &Walker[T]{esc: esc, opts: opts, timeout: timeout}
}

// Walk lazily produces the items of successive pages starting at page 1.
// The sequence is finite and single-use. The walk ends gracefully, never
// with an error, on the first of:
//   - a fetch failure of any classification (partial results stand),
//   - a page whose content signature was already seen (pagination loop),
//   - a page from which the extractor produces no items,
//   - an extractor parse failure.
func (w *Walker[T]) Walk(ctx context.Context, startURL string, extract ExtractFunc[T]) iter.Seq[T] {
	done := false
	return func(yield func(T) bool) {
		if done {
			return
		}
		done = true

		seen := make(map[Signature]struct{})
		for page := 1; ; page++ {
			pageURL := PageURL(startURL, page)
			log := zap.L().With(zap.Int("page", page), zap.String("url", pageURL))

			res, err := w.esc.Fetch(ctx, fetch.Request{
				URL:     pageURL,
				Timeout: w.timeout,
				Options: w.opts,
			})
			if err != nil {
				log.Info("walk: fetch failed, ending walk", zap.Error(err))
				return
			}

			sig := SignatureOf(res.Content)
			if _, ok := seen[sig]; ok {
				log.Info("walk: repeated page content, ending walk")
				return
			}
			seen[sig] = struct{}{}

			items, err := extract(res.Content)
			if err != nil {
				log.Warn("walk: page extraction failed, ending walk", zap.Error(err))
				return
			}
			if len(items) == 0 {
				log.Info("walk: no items on page, end of listing")
				return
			}

			log.Debug("walk: page extracted",
				zap.Int("items", len(items)),
				zap.String("tier", res.Tier),
				zap.Uint64("signature", uint64(sig)),
			)

			for _, item := range items {
				if !yield(item) {
					return
				}
			}
		}
	}
}
