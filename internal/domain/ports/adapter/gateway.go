package adapter

import "context"

// CheckoutRequest is the payload handed to the hosted checkout when a session
// opens.
type CheckoutRequest struct {
	Reference   string
	Email       string
	AmountMinor int64
	Currency    string
	Metadata    map[string]string
	Channels    []string // allowed payment channels, e.g. card, bank, eft
	Label       string   // display label shown on the checkout
	CallbackURL string
}

// CheckoutResult is the single terminal outcome the gateway reports for a
// fully-opened session: success with the reference, or a close/dismissal.
type CheckoutResult struct {
	Status    string // "success" for a completed charge; anything else is a close
	Reference string
}

// Succeeded reports whether the gateway considers the charge completed.
func (r CheckoutResult) Succeeded() bool { return r.Status == "success" }

// CheckoutGateway is the hex port for the third-party hosted payment UI.
// Open starts exactly one checkout for the request and returns the URL the
// user is sent to; the terminal result arrives later through the gateway's
// callback and is dispatched by the session controller.
type CheckoutGateway interface {
	Name() string
	Open(ctx context.Context, req CheckoutRequest) (authorizationURL string, err error)
}
