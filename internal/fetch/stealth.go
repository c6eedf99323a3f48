package fetch

import (
	"context"
	"io"
	"time"

	fhttp "github.com/bogdanfinn/fhttp"
	tlsclient "github.com/bogdanfinn/tls-client"
	"github.com/bogdanfinn/tls-client/profiles"
	"go.uber.org/zap"

	"github.com/inmodata/inmoharvest/internal/resilience"
)

// StealthTier emulates a real browser's TLS fingerprint to get past
// bot-challenge responses that reject the plain tier. Cost tier 2: no
// rendering, just a more convincing handshake. Guarded by a circuit
// breaker so a persistently failing endpoint falls through to the
// browser tier immediately.
type StealthTier struct {
	client  tlsclient.HttpClient
	policy  Policy
	breaker *resilience.Breaker
}

// NewStealthTier builds the stealth tier. Returns an error only on client
// construction failure; callers treat a nil tier as "disabled".
func NewStealthTier(policy Policy) (*StealthTier, error) {
	policy = policy.withDefaults()

	// Redirects are followed, matching the plain tier: sites normalize
	// trailing slashes with a 301 and that must not read as a failure.
	opts := []tlsclient.HttpClientOption{
		tlsclient.WithTimeoutSeconds(int(policy.Timeout / time.Second)),
		tlsclient.WithClientProfile(profiles.Chrome_124),
		tlsclient.WithRandomTLSExtensionOrder(),
	}
	client, err := tlsclient.NewHttpClient(tlsclient.NewNoopLogger(), opts...)
	if err != nil {
		return nil, err
	}

	return &StealthTier{
		client:  client,
		policy:  policy,
		breaker: resilience.NewBreaker(3, 30*time.Second, time.Minute),
	}, nil
}

func (t *StealthTier) Name() string { return "stealth_http" }

// Enabled reports false while the circuit breaker is open.
func (t *StealthTier) Enabled() bool { return !t.breaker.Open() }

// Fetch performs a single fingerprint-spoofed GET. No transient retries at
// this tier: a failure here means the site is actively hostile, and the
// decision to spend more belongs to the escalator.
func (t *StealthTier) Fetch(ctx context.Context, rawURL string, timeout time.Duration) (string, error) {
	if timeout <= 0 {
		timeout = t.policy.Timeout
	}
	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	req, err := fhttp.NewRequestWithContext(ctx, fhttp.MethodGet, rawURL, nil)
	if err != nil {
		return "", &Error{Kind: KindNetwork, Tier: t.Name(), Err: err}
	}
	req.Header = fhttp.Header{
		"user-agent":      {t.policy.userAgent()},
		"accept":          {"text/html,application/xhtml+xml,application/xml;q=0.9,*/*;q=0.8"},
		"accept-language": {"es-CL,es;q=0.9,en;q=0.8"},
		fhttp.HeaderOrderKey: {
			"user-agent", "accept", "accept-language",
		},
	}

	resp, err := t.client.Do(req)
	if err != nil {
		t.recordFailure()
		return "", classifyTransport(t.Name(), err)
	}
	defer func() { _ = resp.Body.Close() }()

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxBodyBytes))
	if err != nil {
		t.recordFailure()
		return "", classifyTransport(t.Name(), err)
	}

	if blocked, _ := DetectBlock(resp.StatusCode, nil, body); blocked || resp.StatusCode == 403 {
		t.recordFailure()
		return "", &Error{Kind: KindBlocked, Status: resp.StatusCode, Tier: t.Name()}
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		t.recordFailure()
		return "", &Error{Kind: KindHTTP, Status: resp.StatusCode, Tier: t.Name()}
	}

	t.breaker.RecordSuccess()
	return string(body), nil
}

func (t *StealthTier) recordFailure() {
	if t.breaker.RecordFailure() {
		zap.L().Warn("stealth tier circuit opened, falling through to browser tier")
	}
}
