package model

import (
	"math"
	"time"

	"github.com/oklog/ulid/v2"
)

type SessionStatus string

const (
	SessionStatusAwaitingGateway    SessionStatus = "awaiting_gateway"    // checkout opened; waiting for the terminal callback
	SessionStatusGatewaySucceeded   SessionStatus = "gateway_succeeded"   // gateway reported success; not yet verified
	SessionStatusGatewayCancelled   SessionStatus = "gateway_cancelled"   // user dismissed the checkout
	SessionStatusVerified           SessionStatus = "verified"            // backend confirmed the charge
	SessionStatusVerificationFailed SessionStatus = "verification_failed" // backend rejected or could not be reached
)

// PaymentSession represents one attempt to pay. It lives only in the session
// controller's memory; it is never persisted and a reference is never reused.
type PaymentSession struct {
	ID          string // UUID
	Reference   string // client-generated correlation id handed to the gateway
	Email       string
	AmountMinor int64 // gateway requires minor currency units
	Currency    string
	Metadata    map[string]string
	Status      SessionStatus
	CreatedAt   time.Time
	UpdatedAt   time.Time
}

// NewReference returns a fresh gateway correlation reference. ULIDs carry a
// millisecond timestamp plus entropy, so references are unique per attempt
// and sort by creation time.
func NewReference() string {
	id := ulid.MustNew(ulid.Timestamp(time.Now()), ulid.DefaultEntropy())
	return "ref_" + id.String()
}

// MinorUnits converts a major-unit amount (e.g. 499.00) to the integer minor
// units the gateway expects (49900). Rounded to absorb float representation
// noise.
func MinorUnits(major float64) int64 {
	return int64(math.Round(major * 100))
}
