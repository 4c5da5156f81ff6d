package backend

import (
	"context"
	"encoding/json"
	"net/http"
	"time"

	"checkout-activation/internal/domain"
	"checkout-activation/internal/domain/model"
	"checkout-activation/internal/infra/metrics"
)

type verifyResponse struct {
	Reference      string            `json:"reference"`
	Status         string            `json:"status"`
	Amount         int64             `json:"amount"`
	Currency       string            `json:"currency"`
	FailureMessage string            `json:"failureMessage"`
	PaidAt         *time.Time        `json:"paidAt"`
	Metadata       map[string]string `json:"metadata"`
}

// VerifyPayment asks the backend to authoritatively confirm a gateway
// reference. The call is idempotent: once the backend has settled, repeated
// calls return the same terminal status, so transient failures may be
// retried by the user.
//
// Error taxonomy: a transport failure (nothing reached the server), an
// explicit server rejection (non-2xx with a message), and a malformed 2xx
// body are surfaced as distinct VerificationError kinds.
func (c *Client) VerifyPayment(ctx context.Context, reference string) (*model.VerifiedPayment, error) {
	start := time.Now()
	req, err := c.newRequest(ctx, http.MethodGet, "/payments/verify/"+reference, nil)
	if err != nil {
		return nil, &domain.VerificationError{Kind: domain.VerificationTransport, Reference: reference, Err: err}
	}
	resp, err := c.http.Do(req)
	if err != nil {
		metrics.ObserveVerification("transport", time.Since(start).Seconds())
		return nil, &domain.VerificationError{Kind: domain.VerificationTransport, Reference: reference, Err: err}
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		var ae apiError
		_ = json.NewDecoder(resp.Body).Decode(&ae)
		metrics.ObserveVerification("rejected", time.Since(start).Seconds())
		return nil, &domain.VerificationError{
			Kind:      domain.VerificationRejected,
			Reference: reference,
			Message:   ae.Message,
		}
	}

	var out verifyResponse
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil || out.Status == "" {
		metrics.ObserveVerification("malformed", time.Since(start).Seconds())
		return nil, &domain.VerificationError{Kind: domain.VerificationMalformed, Reference: reference, Err: err}
	}

	metrics.ObserveVerification("ok", time.Since(start).Seconds())
	return &model.VerifiedPayment{
		Reference:      out.Reference,
		Status:         model.PaymentStatus(out.Status),
		AmountMinor:    out.Amount,
		Currency:       out.Currency,
		FailureMessage: out.FailureMessage,
		PaidAt:         out.PaidAt,
		Metadata:       out.Metadata,
	}, nil
}
