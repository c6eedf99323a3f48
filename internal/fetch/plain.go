package fetch

import (
	"context"
	"errors"
	"io"
	"net"
	"net/http"
	"net/url"
	"sync"
	"time"

	"golang.org/x/time/rate"

	"github.com/inmodata/inmoharvest/internal/resilience"
)

const maxBodyBytes = 2 << 20 // 2 MiB is plenty for a listing page

// PlainTier is the cheapest fetch strategy: a direct GET with a randomized
// realistic user agent, a human-like jitter delay, a per-host politeness
// rate limiter, and backoff retries on transient statuses. A 403 or a
// recognized challenge page is classified as a block, never retried.
type PlainTier struct {
	client *http.Client
	policy Policy

	mu       sync.Mutex
	limiters map[string]*rate.Limiter
}

// NewPlainTier creates the plain HTTP tier from a fetch policy.
func NewPlainTier(policy Policy) *PlainTier {
	policy = policy.withDefaults()
	return &PlainTier{
		client: &http.Client{
			// Per-request deadlines come from the context; the client
			// itself only bounds connection setup.
			Transport: &http.Transport{
				DialContext: (&net.Dialer{
					Timeout: 10 * time.Second,
				}).DialContext,
				TLSHandshakeTimeout: 10 * time.Second,
				MaxIdleConnsPerHost: 4,
				IdleConnTimeout:     90 * time.Second,
			},
		},
		policy:   policy,
		limiters: make(map[string]*rate.Limiter),
	}
}

func (t *PlainTier) Name() string  { return "plain_http" }
func (t *PlainTier) Enabled() bool { return true }

// Fetch performs the GET with jitter, rate limiting, and transient retries.
func (t *PlainTier) Fetch(ctx context.Context, rawURL string, timeout time.Duration) (string, error) {
	if timeout <= 0 {
		timeout = t.policy.Timeout
	}

	if err := t.limiterFor(rawURL).Wait(ctx); err != nil {
		return "", classifyTransport(t.Name(), err)
	}

	retryCfg := resilience.RetryConfig{
		// MaxRetries counts retries, not attempts.
		MaxAttempts:    t.policy.MaxRetries + 1,
		InitialBackoff: 800 * time.Millisecond,
		ShouldRetry: func(err error) bool {
			var fe *Error
			if errors.As(err, &fe) {
				return fe.Retriable()
			}
			return resilience.IsTransient(err)
		},
		OnRetry: resilience.RetryLogger(t.Name(), rawURL),
	}

	return resilience.Do(ctx, retryCfg, func(ctx context.Context) (string, error) {
		return t.fetchOnce(ctx, rawURL, timeout)
	})
}

func (t *PlainTier) fetchOnce(ctx context.Context, rawURL string, timeout time.Duration) (string, error) {
	if err := t.sleepJitter(ctx); err != nil {
		return "", classifyTransport(t.Name(), err)
	}

	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, rawURL, nil)
	if err != nil {
		return "", &Error{Kind: KindNetwork, Tier: t.Name(), Err: err}
	}
	req.Header.Set("User-Agent", t.policy.userAgent())
	req.Header.Set("Accept", "text/html,application/xhtml+xml,application/xml;q=0.9,*/*;q=0.8")
	req.Header.Set("Accept-Language", "es-CL,es;q=0.9,en;q=0.8")
	req.Header.Set("Referer", "https://www.google.com/")

	resp, err := t.client.Do(req)
	if err != nil {
		return "", classifyTransport(t.Name(), err)
	}
	defer func() { _ = resp.Body.Close() }()

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxBodyBytes))
	if err != nil {
		return "", classifyTransport(t.Name(), err)
	}

	if blocked, _ := DetectBlock(resp.StatusCode, resp.Header, body); blocked {
		return "", &Error{Kind: KindBlocked, Status: resp.StatusCode, Tier: t.Name()}
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return "", &Error{Kind: KindHTTP, Status: resp.StatusCode, Tier: t.Name()}
	}

	return string(body), nil
}

func (t *PlainTier) sleepJitter(ctx context.Context) error {
	d := t.policy.jitter()
	if d <= 0 {
		return nil
	}
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}

func (t *PlainTier) limiterFor(rawURL string) *rate.Limiter {
	host := ""
	if u, err := url.Parse(rawURL); err == nil {
		host = u.Host
	}
	t.mu.Lock()
	defer t.mu.Unlock()
	lim, ok := t.limiters[host]
	if !ok {
		lim = rate.NewLimiter(rate.Limit(t.policy.RatePerHost), 1)
		t.limiters[host] = lim
	}
	return lim
}
