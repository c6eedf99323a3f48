package fetch

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func fastPolicy() Policy {
	return Policy{
		UserAgents:  []string{"test-agent/1.0"},
		JitterMin:   0,
		JitterMax:   time.Millisecond,
		Timeout:     5 * time.Second,
		MaxRetries:  3,
		RatePerHost: 1000,
	}
}

func TestPlainTier_Success(t *testing.T) {
	var gotUA atomic.Value
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotUA.Store(r.Header.Get("User-Agent"))
		_, _ = w.Write([]byte("<html><body>listing content</body></html>"))
	}))
	defer srv.Close()

	tier := NewPlainTier(fastPolicy())
	content, err := tier.Fetch(context.Background(), srv.URL, 0)
	require.NoError(t, err)
	assert.Contains(t, content, "listing content")
	assert.Equal(t, "test-agent/1.0", gotUA.Load())
}

func TestPlainTier_403IsBlockedNotRetried(t *testing.T) {
	var calls atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		w.WriteHeader(http.StatusForbidden)
	}))
	defer srv.Close()

	tier := NewPlainTier(fastPolicy())
	_, err := tier.Fetch(context.Background(), srv.URL, 0)
	require.Error(t, err)

	var fe *Error
	require.True(t, errors.As(err, &fe))
	assert.Equal(t, KindBlocked, fe.Kind)
	assert.Equal(t, 403, fe.Status)
	assert.Equal(t, int32(1), calls.Load(), "blocks must not be retried")
}

func TestPlainTier_RetriesTransientStatus(t *testing.T) {
	var calls atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if calls.Add(1) < 3 {
			w.WriteHeader(http.StatusServiceUnavailable)
			return
		}
		_, _ = w.Write([]byte("<html>finally</html>"))
	}))
	defer srv.Close()

	tier := NewPlainTier(fastPolicy())
	content, err := tier.Fetch(context.Background(), srv.URL, 0)
	require.NoError(t, err)
	assert.Contains(t, content, "finally")
	assert.Equal(t, int32(3), calls.Load())
}

func TestPlainTier_ExhaustedRetries(t *testing.T) {
	var calls atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		w.WriteHeader(http.StatusBadGateway)
	}))
	defer srv.Close()

	tier := NewPlainTier(fastPolicy())
	_, err := tier.Fetch(context.Background(), srv.URL, 0)
	require.Error(t, err)

	var fe *Error
	require.True(t, errors.As(err, &fe))
	assert.Equal(t, KindHTTP, fe.Kind)
	assert.Equal(t, 502, fe.Status)
	assert.Equal(t, int32(4), calls.Load(), "initial attempt plus MaxRetries retries")
}

func TestPlainTier_404NotRetried(t *testing.T) {
	var calls atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		http.NotFound(w, r)
	}))
	defer srv.Close()

	tier := NewPlainTier(fastPolicy())
	_, err := tier.Fetch(context.Background(), srv.URL, 0)
	require.Error(t, err)

	var fe *Error
	require.True(t, errors.As(err, &fe))
	assert.Equal(t, KindHTTP, fe.Kind)
	assert.Equal(t, 404, fe.Status)
	assert.Equal(t, int32(1), calls.Load())
}

func TestPlainTier_ChallengePageIsBlock(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte("<html><body>Just a moment...</body></html>"))
	}))
	defer srv.Close()

	tier := NewPlainTier(fastPolicy())
	_, err := tier.Fetch(context.Background(), srv.URL, 0)
	assert.True(t, IsBlocked(err))
}

func TestPlainTier_Timeout(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		time.Sleep(200 * time.Millisecond)
	}))
	defer srv.Close()

	policy := fastPolicy()
	policy.MaxRetries = 1
	tier := NewPlainTier(policy)
	_, err := tier.Fetch(context.Background(), srv.URL, 20*time.Millisecond)
	require.Error(t, err)

	var fe *Error
	require.True(t, errors.As(err, &fe))
	assert.Equal(t, KindTimeout, fe.Kind)
}

func TestPolicy_JitterWithinBounds(t *testing.T) {
	p := Policy{JitterMin: 2 * time.Millisecond, JitterMax: 5 * time.Millisecond}.withDefaults()
	for range 100 {
		d := p.jitter()
		assert.GreaterOrEqual(t, d, 2*time.Millisecond)
		assert.LessOrEqual(t, d, 5*time.Millisecond)
	}
}

func TestPolicy_UserAgentFromPool(t *testing.T) {
	p := Policy{UserAgents: []string{"a", "b"}}.withDefaults()
	for range 20 {
		ua := p.userAgent()
		assert.Contains(t, []string{"a", "b"}, ua)
	}
}
