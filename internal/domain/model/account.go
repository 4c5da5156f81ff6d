package model

import "time"

type AccountStatus string

const (
	AccountStatusActive         AccountStatus = "ACTIVE"
	AccountStatusPendingPayment AccountStatus = "PENDING_PAYMENT"
	AccountStatusSuspended      AccountStatus = "SUSPENDED"
	AccountStatusCancelled      AccountStatus = "CANCELLED"
)

// Account is the locally cached view of the current user's subscription
// state. The backend stays authoritative; the cache is a best-effort mirror
// used for immediate UI response.
type Account struct {
	ID        string        `json:"id"`
	Email     string        `json:"email"`
	Status    AccountStatus `json:"status"`
	PlanName  string        `json:"plan_name"`
	PlanType  string        `json:"plan_type"`
	UpdatedAt time.Time     `json:"updated_at"`
}
