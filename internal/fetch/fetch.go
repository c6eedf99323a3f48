// Package fetch obtains raw page content for listing sites, escalating
// through tiers of increasing cost and stealth when a site blocks the
// cheaper ones.
package fetch

import (
	"context"
	"time"
)

// Request describes one page fetch. Constructed per call, never mutated.
type Request struct {
	URL     string
	Timeout time.Duration // zero means the policy default
	Options Options
}

// Options bounds which tiers a fetch may use. The escalator never climbs
// past a disallowed tier, whatever the failure.
type Options struct {
	// AllowStealth permits the browser-TLS-fingerprint tier on a block.
	AllowStealth bool
	// AllowBrowser permits the headless-browser tier as a last resort.
	AllowBrowser bool
	// ForceBrowser skips straight to the browser tier. Used for sites
	// whose listings only exist in JS-rendered DOM.
	ForceBrowser bool
}

// Result is a successful fetch. Failures are always a classified *Error;
// a Result is never partially populated.
type Result struct {
	Content string
	Tier    string // name of the tier that produced the content
}

// Tier is one fetch strategy. Implementations return either content or a
// classified *Error, and report their own availability through Enabled so
// a missing tier is "disabled", not a runtime failure.
type Tier interface {
	Name() string
	Enabled() bool
	Fetch(ctx context.Context, url string, timeout time.Duration) (string, error)
}
