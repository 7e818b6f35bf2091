package estimate

import (
	"errors"
	"fmt"
	"strings"

	"github.com/rshade/footprint/internal/activity"
)

// Kind classifies an estimation failure.
//
// Defaulted enum values and non-positive quantities are not failures and
// have no Kind; they are resolved before estimation.
type Kind int

// Failure kinds.
const (
	KindUnknown Kind = iota
	// KindUpstreamRejected means the external capability answered without a
	// usable numeric result or with a non-success status.
	KindUpstreamRejected
	// KindUnreachable means the call failed at the transport layer or timed out.
	KindUnreachable
	// KindConfigurationMissing means an external estimate was required but no
	// capability or mapping is configured; no call was attempted.
	KindConfigurationMissing
	// KindOverflow means the estimate for a finite quantity is not a finite
	// number of kilograms.
	KindOverflow
)

// String returns the wire name of the kind.
func (k Kind) String() string {
	switch k {
	case KindUpstreamRejected:
		return "upstream_rejected"
	case KindUnreachable:
		return "unreachable"
	case KindConfigurationMissing:
		return "configuration_missing"
	case KindOverflow:
		return "overflow"
	default:
		return "unknown"
	}
}

// MarshalText implements encoding.TextMarshaler.
func (k Kind) MarshalText() ([]byte, error) {
	return []byte(k.String()), nil
}

// UnmarshalText implements encoding.TextUnmarshaler. Unrecognized names
// decode as KindUnknown.
func (k *Kind) UnmarshalText(b []byte) error {
	switch string(b) {
	case "upstream_rejected":
		*k = KindUpstreamRejected
	case "unreachable":
		*k = KindUnreachable
	case "configuration_missing":
		*k = KindConfigurationMissing
	case "overflow":
		*k = KindOverflow
	default:
		*k = KindUnknown
	}
	return nil
}

// Sentinel values for errors.Is comparisons. Only the Kind is compared.
var (
	ErrUpstreamRejected     = &Error{Kind: KindUpstreamRejected}
	ErrUnreachable          = &Error{Kind: KindUnreachable}
	ErrConfigurationMissing = &Error{Kind: KindConfigurationMissing}
	ErrOverflow             = &Error{Kind: KindOverflow}
)

// maxPayload bounds the upstream body kept for diagnostics.
const maxPayload = 512

// Error is a per-record estimation failure.
type Error struct {
	Kind     Kind
	Category activity.Category
	Key      string
	// Status is the upstream HTTP status, when one was received.
	Status int
	// Payload is a truncated copy of the upstream response body.
	Payload string
	Err     error
}

func (e *Error) Error() string {
	var b strings.Builder
	b.WriteString(e.Kind.String())
	if e.Category != "" {
		fmt.Fprintf(&b, " (%s/%s)", e.Category, e.Key)
	}
	if e.Status != 0 {
		fmt.Fprintf(&b, ": status %d", e.Status)
	}
	if e.Err != nil {
		b.WriteString(": ")
		b.WriteString(e.Err.Error())
	}
	return b.String()
}

// Unwrap returns the underlying cause.
func (e *Error) Unwrap() error { return e.Err }

// Is matches any *Error with the same Kind.
func (e *Error) Is(target error) bool {
	t, ok := target.(*Error)
	return ok && t.Kind == e.Kind
}

// NewError builds an Error, truncating payload to a diagnostic-sized prefix.
func NewError(kind Kind, status int, payload string, cause error) *Error {
	if len(payload) > maxPayload {
		payload = payload[:maxPayload]
	}
	return &Error{Kind: kind, Status: status, Payload: payload, Err: cause}
}

// KindOf returns the Kind carried by err, or KindUnknown.
func KindOf(err error) Kind {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind
	}
	return KindUnknown
}

// Retryable reports whether a failed call may be attempted again. Only
// transport failures are retried; a rejection or missing configuration
// would fail the same way twice.
func Retryable(err error) bool {
	return KindOf(err) == KindUnreachable
}
