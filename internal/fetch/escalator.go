package fetch

import (
	"context"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"
)

// Escalator tries fetch tiers in cost order, climbing to the next tier
// only when the current one reports a block and the request's options
// allow it. Any non-block failure is final for the request: spending a
// more expensive tier on a 404 or a dead network buys nothing.
//
// The escalator is stateless and reentrant; concurrent harvest runs may
// share one instance.
type Escalator struct {
	plain   Tier
	stealth Tier // nil when the tier is not configured
	browser Tier // nil when the tier is not configured
}

// NewEscalator assembles the tier chain. plain must be non-nil; stealth
// and browser may be nil, which disables them regardless of per-request
// options.
func NewEscalator(plain, stealth, browser Tier) *Escalator {
	return &Escalator{plain: plain, stealth: stealth, browser: browser}
}

// BrowserAvailable reports whether the browser tier is configured, so
// callers can reject ForceBrowser requests before any fetch happens.
func (e *Escalator) BrowserAvailable() bool { return e.browser != nil }

// Fetch resolves one Request into content, escalating on blocks.
func (e *Escalator) Fetch(ctx context.Context, req Request) (*Result, error) {
	tiers := e.tiersFor(req.Options)
	if len(tiers) == 0 {
		return nil, eris.Errorf("fetch: no tier available for %s", req.URL)
	}

	var lastErr error
	for i, tier := range tiers {
		if !tier.Enabled() {
			continue
		}
		content, err := tier.Fetch(ctx, req.URL, req.Timeout)
		if err == nil {
			return &Result{Content: content, Tier: tier.Name()}, nil
		}
		lastErr = err

		if IsBlocked(err) && i < len(tiers)-1 {
			zap.L().Info("fetch: tier blocked, escalating",
				zap.String("tier", tier.Name()),
				zap.String("url", req.URL),
			)
			continue
		}
		return nil, err
	}

	return nil, lastErr
}

// tiersFor builds the allowed tier sequence for one request.
func (e *Escalator) tiersFor(opts Options) []Tier {
	if opts.ForceBrowser {
		if e.browser == nil {
			return nil
		}
		return []Tier{e.browser}
	}

	tiers := []Tier{e.plain}
	if opts.AllowStealth && e.stealth != nil {
		tiers = append(tiers, e.stealth)
	}
	if opts.AllowBrowser && e.browser != nil {
		tiers = append(tiers, e.browser)
	}
	return tiers
}
