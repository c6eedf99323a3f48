package fetch

import (
	"context"
	"errors"
	"fmt"
	"net"
)

// Kind classifies a fetch failure. The escalator inspects the kind
// explicitly to decide tier escalation; nothing pattern-matches on
// library error types.
type Kind int

const (
	// KindNetwork is a connection-level failure (DNS, reset, refused).
	KindNetwork Kind = iota + 1
	// KindTimeout is an exceeded per-fetch deadline.
	KindTimeout
	// KindHTTP is a non-2xx response that is not classified as a block.
	KindHTTP
	// KindBlocked is an active bot-defense rejection (403 or a
	// challenge page). Triggers escalation to the next allowed tier.
	KindBlocked
)

func (k Kind) String() string {
	switch k {
	case KindNetwork:
		return "network"
	case KindTimeout:
		return "timeout"
	case KindHTTP:
		return "http"
	case KindBlocked:
		return "blocked"
	default:
		return "unknown"
	}
}

// Error is a classified fetch failure produced by a tier.
type Error struct {
	Kind   Kind
	Status int    // HTTP status, when KindHTTP or KindBlocked from a status
	Tier   string // tier that produced the failure
	Err    error  // underlying cause, may be nil
}

func (e *Error) Error() string {
	if e.Status != 0 {
		return fmt.Sprintf("%s: %s (status %d)", e.Tier, e.Kind, e.Status)
	}
	if e.Err != nil {
		return fmt.Sprintf("%s: %s: %v", e.Tier, e.Kind, e.Err)
	}
	return fmt.Sprintf("%s: %s", e.Tier, e.Kind)
}

func (e *Error) Unwrap() error { return e.Err }

// Retriable reports whether the failure may succeed on a plain retry of the
// same tier. Blocks are never retriable; retrying a 403 only feeds the
// bot-defense.
func (e *Error) Retriable() bool {
	switch e.Kind {
	case KindNetwork, KindTimeout:
		return true
	case KindHTTP:
		return e.Status == 429 || e.Status >= 500
	default:
		return false
	}
}

// IsBlocked reports whether err carries a KindBlocked classification.
func IsBlocked(err error) bool {
	var fe *Error
	return errors.As(err, &fe) && fe.Kind == KindBlocked
}

// classifyTransport converts a transport-level error from an HTTP client
// into a classified Error for the given tier.
func classifyTransport(tier string, err error) *Error {
	kind := KindNetwork
	var netErr net.Error
	if errors.Is(err, context.DeadlineExceeded) || (errors.As(err, &netErr) && netErr.Timeout()) {
		kind = KindTimeout
	}
	return &Error{Kind: kind, Tier: tier, Err: err}
}
