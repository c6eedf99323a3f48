package fetch

import (
	"math/rand/v2"
	"time"
)

// defaultUserAgents mirror current desktop browsers. Overridable via config.
var defaultUserAgents = []string{
	"Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/125.0.0.0 Safari/537.36",
	"Mozilla/5.0 (Macintosh; Intel Mac OS X 14_4) AppleWebKit/605.1.15 (KHTML, like Gecko) Version/17.4 Safari/605.1.15",
	"Mozilla/5.0 (X11; Linux x86_64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/124.0.0.0 Safari/537.36",
}

// Policy holds the knobs shared by the fetch tiers: the user-agent pool,
// the human-like jitter bounds, the default timeout, and politeness rate.
// It is passed in at construction; there is no process-wide mutable state.
type Policy struct {
	// UserAgents is the pool a random agent is drawn from per request.
	UserAgents []string

	// JitterMin/JitterMax bound the uniform random delay inserted before
	// each plain-tier request.
	JitterMin time.Duration
	JitterMax time.Duration

	// Timeout is the per-fetch default when the request carries none.
	Timeout time.Duration

	// MaxRetries is how many times a transient failure is retried after
	// the initial attempt (plain tier).
	MaxRetries int

	// RatePerHost is the politeness limit in requests per second applied
	// per target host in the plain tier.
	RatePerHost float64

	// SettleDelay is how long the browser tier waits after
	// DOMContentLoaded before reading the rendered DOM.
	SettleDelay time.Duration
}

// DefaultPolicy returns the policy used when config supplies nothing.
func DefaultPolicy() Policy {
	return Policy{
		UserAgents:  defaultUserAgents,
		JitterMin:   400 * time.Millisecond,
		JitterMax:   time.Second,
		Timeout:     30 * time.Second,
		MaxRetries:  3,
		RatePerHost: 2,
		SettleDelay: 1200 * time.Millisecond,
	}
}

func (p Policy) withDefaults() Policy {
	d := DefaultPolicy()
	if len(p.UserAgents) == 0 {
		p.UserAgents = d.UserAgents
	}
	if p.JitterMax <= 0 {
		p.JitterMin, p.JitterMax = d.JitterMin, d.JitterMax
	}
	if p.JitterMin < 0 {
		p.JitterMin = 0
	}
	if p.JitterMin > p.JitterMax {
		p.JitterMin = p.JitterMax
	}
	if p.Timeout <= 0 {
		p.Timeout = d.Timeout
	}
	if p.MaxRetries <= 0 {
		p.MaxRetries = d.MaxRetries
	}
	if p.RatePerHost <= 0 {
		p.RatePerHost = d.RatePerHost
	}
	if p.SettleDelay <= 0 {
		p.SettleDelay = d.SettleDelay
	}
	return p
}

// userAgent draws a random agent from the pool.
func (p Policy) userAgent() string {
	return p.UserAgents[rand.IntN(len(p.UserAgents))]
}

// jitter returns a uniform random duration in [JitterMin, JitterMax].
func (p Policy) jitter() time.Duration {
	span := p.JitterMax - p.JitterMin
	if span <= 0 {
		return p.JitterMin
	}
	return p.JitterMin + time.Duration(rand.Int64N(int64(span)+1))
}
