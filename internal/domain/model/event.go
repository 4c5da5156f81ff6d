package model

import "time"

type EventKind string

const (
	EventSessionSucceeded     EventKind = "session_succeeded"
	EventSessionCancelled     EventKind = "session_cancelled"
	EventVerificationRejected EventKind = "verification_rejected"
	// EventStatusOverride records that a verified payment outranked a
	// non-active backend-reported status in the local cache.
	EventStatusOverride EventKind = "status_override"
	// EventFallbackActivation records a forced local activation taken while
	// the backend was unreachable or past its deadline.
	EventFallbackActivation EventKind = "fallback_activation"
)

// CheckoutEvent is the audit trail of pipeline decisions. Overrides and
// fallbacks are recorded here so the backend can correct cached state
// asynchronously.
type CheckoutEvent struct {
	ID        string // UUID
	Reference string
	Kind      EventKind
	Detail    string
	CreatedAt time.Time
}
