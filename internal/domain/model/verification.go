package model

import "time"

// PaymentStatus is the backend's normalized view of a gateway charge.
type PaymentStatus string

const (
	PaymentStatusPending    PaymentStatus = "PENDING"
	PaymentStatusProcessing PaymentStatus = "PROCESSING"
	PaymentStatusSucceeded  PaymentStatus = "SUCCEEDED"
	PaymentStatusFailed     PaymentStatus = "FAILED"
	PaymentStatusRefunded   PaymentStatus = "REFUNDED"
	PaymentStatusCanceled   PaymentStatus = "CANCELED"
)

// Terminal reports whether the backend has finished processing the charge.
func (s PaymentStatus) Terminal() bool {
	switch s {
	case PaymentStatusSucceeded, PaymentStatusFailed, PaymentStatusRefunded, PaymentStatusCanceled:
		return true
	}
	return false
}

// VerifiedPayment is the normalized record returned by the verification
// endpoint. Verification is idempotent: once the backend settles, repeated
// calls for the same reference return the same terminal status.
type VerifiedPayment struct {
	Reference      string
	Status         PaymentStatus
	AmountMinor    int64
	Currency       string
	FailureMessage string
	PaidAt         *time.Time
	Metadata       map[string]string
}
