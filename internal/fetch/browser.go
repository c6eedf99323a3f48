package fetch

import (
	"context"
	"errors"
	"time"

	"github.com/chromedp/chromedp"
)

// BrowserTier loads the page in headless Chrome and returns the rendered
// DOM. Cost tier 3: highest latency, but the only tier that executes
// JavaScript. Used on explicit demand (ForceBrowser) or as last resort
// after a block at the cheaper tiers.
type BrowserTier struct {
	policy Policy
}

// NewBrowserTier creates the headless-browser tier.
func NewBrowserTier(policy Policy) *BrowserTier {
	return &BrowserTier{policy: policy.withDefaults()}
}

func (t *BrowserTier) Name() string  { return "headless_browser" }
func (t *BrowserTier) Enabled() bool { return true }

// Fetch navigates to the URL, waits for DOMContentLoaded plus a fixed
// settle delay, and returns the rendered HTML.
func (t *BrowserTier) Fetch(ctx context.Context, rawURL string, timeout time.Duration) (string, error) {
	if timeout <= 0 {
		timeout = t.policy.Timeout
	}
	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	opts := append(chromedp.DefaultExecAllocatorOptions[:],
		chromedp.Flag("headless", true),
		chromedp.Flag("disable-gpu", true),
		chromedp.Flag("no-sandbox", true),
		chromedp.Flag("disable-blink-features", "AutomationControlled"),
		chromedp.WindowSize(1366, 900),
		chromedp.UserAgent(t.policy.userAgent()),
	)

	allocCtx, cancelAlloc := chromedp.NewExecAllocator(ctx, opts...)
	defer cancelAlloc()

	// Suppress chromedp's own logging; CDP event noise is not actionable.
	browserCtx, cancelBrowser := chromedp.NewContext(allocCtx,
		chromedp.WithLogf(func(string, ...any) {}))
	defer cancelBrowser()

	var html string
	err := chromedp.Run(browserCtx,
		chromedp.Navigate(rawURL),
		chromedp.WaitReady("body", chromedp.ByQuery),
		chromedp.Sleep(t.policy.SettleDelay),
		chromedp.OuterHTML("html", &html, chromedp.ByQuery),
	)
	if err != nil {
		if errors.Is(err, context.DeadlineExceeded) {
			return "", &Error{Kind: KindTimeout, Tier: t.Name(), Err: err}
		}
		return "", &Error{Kind: KindNetwork, Tier: t.Name(), Err: err}
	}

	if blocked, _ := DetectBlock(200, nil, []byte(html)); blocked {
		return "", &Error{Kind: KindBlocked, Tier: t.Name()}
	}

	return html, nil
}
