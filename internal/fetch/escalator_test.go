package fetch

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// stubTier scripts one tier's behavior for escalator tests.
type stubTier struct {
	name    string
	enabled bool
	content string
	err     error
	calls   int
}

func (s *stubTier) Name() string  { return s.name }
func (s *stubTier) Enabled() bool { return s.enabled }
func (s *stubTier) Fetch(_ context.Context, _ string, _ time.Duration) (string, error) {
	s.calls++
	return s.content, s.err
}

func blockedErr(tier string) *Error {
	return &Error{Kind: KindBlocked, Status: 403, Tier: tier}
}

func TestEscalator_PlainSucceeds(t *testing.T) {
	plain := &stubTier{name: "plain_http", enabled: true, content: "page"}
	stealth := &stubTier{name: "stealth_http", enabled: true, content: "never"}

	esc := NewEscalator(plain, stealth, nil)
	res, err := esc.Fetch(context.Background(), Request{
		URL:     "https://example.com",
		Options: Options{AllowStealth: true},
	})
	require.NoError(t, err)
	assert.Equal(t, "page", res.Content)
	assert.Equal(t, "plain_http", res.Tier)
	assert.Equal(t, 0, stealth.calls)
}

func TestEscalator_BlockedEscalatesToStealth(t *testing.T) {
	plain := &stubTier{name: "plain_http", enabled: true, err: blockedErr("plain_http")}
	stealth := &stubTier{name: "stealth_http", enabled: true, content: "rescued"}

	esc := NewEscalator(plain, stealth, nil)
	res, err := esc.Fetch(context.Background(), Request{
		URL:     "https://example.com",
		Options: Options{AllowStealth: true},
	})
	require.NoError(t, err)
	assert.Equal(t, "stealth_http", res.Tier)
	assert.Equal(t, "rescued", res.Content)
}

func TestEscalator_BlockedWithoutPermissionFails(t *testing.T) {
	plain := &stubTier{name: "plain_http", enabled: true, err: blockedErr("plain_http")}
	stealth := &stubTier{name: "stealth_http", enabled: true, content: "unreachable"}

	esc := NewEscalator(plain, stealth, nil)
	_, err := esc.Fetch(context.Background(), Request{URL: "https://example.com"})
	require.Error(t, err)
	assert.True(t, IsBlocked(err))
	assert.Equal(t, 0, stealth.calls, "disallowed tier must never be tried")
}

func TestEscalator_BlockedThroughAllTiers(t *testing.T) {
	plain := &stubTier{name: "plain_http", enabled: true, err: blockedErr("plain_http")}
	stealth := &stubTier{name: "stealth_http", enabled: true, err: blockedErr("stealth_http")}
	browser := &stubTier{name: "headless_browser", enabled: true, content: "rendered"}

	esc := NewEscalator(plain, stealth, browser)
	res, err := esc.Fetch(context.Background(), Request{
		URL:     "https://example.com",
		Options: Options{AllowStealth: true, AllowBrowser: true},
	})
	require.NoError(t, err)
	assert.Equal(t, "headless_browser", res.Tier)
	assert.Equal(t, "rendered", res.Content)
}

func TestEscalator_NonBlockFailureDoesNotEscalate(t *testing.T) {
	plain := &stubTier{name: "plain_http", enabled: true, err: &Error{Kind: KindHTTP, Status: 404, Tier: "plain_http"}}
	stealth := &stubTier{name: "stealth_http", enabled: true, content: "unreachable"}

	esc := NewEscalator(plain, stealth, nil)
	_, err := esc.Fetch(context.Background(), Request{
		URL:     "https://example.com",
		Options: Options{AllowStealth: true},
	})
	require.Error(t, err)
	assert.Equal(t, 0, stealth.calls, "a 404 gains nothing from a costlier tier")
}

func TestEscalator_SkipsDisabledTier(t *testing.T) {
	plain := &stubTier{name: "plain_http", enabled: true, err: blockedErr("plain_http")}
	stealth := &stubTier{name: "stealth_http", enabled: false} // circuit open
	browser := &stubTier{name: "headless_browser", enabled: true, content: "rendered"}

	esc := NewEscalator(plain, stealth, browser)
	res, err := esc.Fetch(context.Background(), Request{
		URL:     "https://example.com",
		Options: Options{AllowStealth: true, AllowBrowser: true},
	})
	require.NoError(t, err)
	assert.Equal(t, "headless_browser", res.Tier)
	assert.Equal(t, 0, stealth.calls)
}

func TestEscalator_ForceBrowserSkipsLowerTiers(t *testing.T) {
	plain := &stubTier{name: "plain_http", enabled: true, content: "unwanted"}
	browser := &stubTier{name: "headless_browser", enabled: true, content: "rendered"}

	esc := NewEscalator(plain, nil, browser)
	res, err := esc.Fetch(context.Background(), Request{
		URL:     "https://example.com",
		Options: Options{ForceBrowser: true},
	})
	require.NoError(t, err)
	assert.Equal(t, "headless_browser", res.Tier)
	assert.Equal(t, 0, plain.calls)
}

func TestEscalator_ForceBrowserWithoutBrowserTier(t *testing.T) {
	plain := &stubTier{name: "plain_http", enabled: true, content: "unwanted"}
	esc := NewEscalator(plain, nil, nil)

	assert.False(t, esc.BrowserAvailable())
	_, err := esc.Fetch(context.Background(), Request{
		URL:     "https://example.com",
		Options: Options{ForceBrowser: true},
	})
	assert.Error(t, err)
	assert.Equal(t, 0, plain.calls)
}

func TestEscalator_NilOptionalTiers(t *testing.T) {
	plain := &stubTier{name: "plain_http", enabled: true, err: blockedErr("plain_http")}
	esc := NewEscalator(plain, nil, nil)

	// Permissions granted, but no tier implementations configured: the
	// block stands.
	_, err := esc.Fetch(context.Background(), Request{
		URL:     "https://example.com",
		Options: Options{AllowStealth: true, AllowBrowser: true},
	})
	assert.True(t, IsBlocked(err))
}
