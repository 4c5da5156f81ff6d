package usecase

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"checkout-activation/internal/domain"
	"checkout-activation/internal/domain/model"
	"checkout-activation/internal/domain/ports/repository"
	"checkout-activation/internal/infra/logging"
)

// UIState is the page-level state the checkout surface renders.
type UIState string

const (
	// StateAwaitingPackage: no package selected; redirect to the picker.
	StateAwaitingPackage UIState = "awaiting_package_selection"
	// StateForm: payment form shown, retryable, possibly with an error.
	StateForm UIState = "form"
	// StateAwaitingGateway: checkout opened; waiting on the gateway.
	StateAwaitingGateway UIState = "awaiting_gateway"
	StateVerifying       UIState = "verifying"
	// StateSuccess triggers the delayed redirect to the dashboard.
	StateSuccess UIState = "success"
)

const supportMessage = "We could not verify your payment. Please contact support."

// Verifier confirms a gateway reference with the backend.
// Satisfied by infra/backend.Client.
type Verifier interface {
	VerifyPayment(ctx context.Context, reference string) (*model.VerifiedPayment, error)
}

// Activator runs the post-verification reconciliation.
type Activator interface {
	Activate(ctx context.Context, reference string, pkg *model.SelectedPackage) ActivationPath
}

// CheckoutView is a snapshot of the orchestrator's user-facing state.
type CheckoutView struct {
	State       UIState `json:"state"`
	ErrMessage  string  `json:"error,omitempty"`
	Notice      string  `json:"notice,omitempty"`
	RedirectURL string  `json:"redirect_url,omitempty"`
}

// CheckoutUseCase sequences the payment pipeline for one checkout surface:
// session controller, verification, reconciliation, settle delay, redirect.
type CheckoutUseCase struct {
	sessions    SessionUseCase
	verifier    Verifier
	activator   Activator
	store       repository.AccountStateStore
	events      repository.CheckoutEventRepository
	settleDelay time.Duration
	redirectURL string
	pickURL     string
	log         *zerolog.Logger

	mu        sync.Mutex
	state     UIState
	errMsg    string
	notice    string
	verifying bool
}

func NewCheckoutUseCase(sessions SessionUseCase, verifier Verifier, activator Activator, store repository.AccountStateStore, events repository.CheckoutEventRepository, settleDelay time.Duration, redirectURL, packagePickURL string, logger *zerolog.Logger) *CheckoutUseCase {
	return &CheckoutUseCase{
		sessions:    sessions,
		verifier:    verifier,
		activator:   activator,
		store:       store,
		events:      events,
		settleDelay: settleDelay,
		redirectURL: redirectURL,
		pickURL:     packagePickURL,
		log:         logger,
		state:       StateForm,
	}
}

// Pay starts one payment attempt. Preconditions: a package is selected, no
// verification is in flight, the session controller accepts the inputs
// (valid email, positive amount, gateway ready). An empty email is
// pre-filled from the cached account.
func (uc *CheckoutUseCase) Pay(ctx context.Context, email string) (*model.PaymentSession, string, error) {
	defer logging.TraceDuration(uc.log, "CheckoutUC.Pay")()

	uc.mu.Lock()
	if uc.verifying {
		uc.mu.Unlock()
		return nil, "", domain.ErrSessionInFlight
	}
	uc.errMsg = ""
	uc.notice = ""
	uc.mu.Unlock()

	if uc.sessions.Processing() {
		return nil, "", domain.ErrSessionInFlight
	}

	pkg, err := uc.store.SelectedPackage(ctx)
	if err != nil || pkg == nil {
		uc.setState(StateAwaitingPackage)
		return nil, "", domain.ErrNoPackageSelected
	}

	if email == "" {
		if acct, err := uc.store.Get(ctx); err == nil && acct != nil {
			email = acct.Email
		}
	}

	sess, payURL, err := uc.sessions.InitializePayment(ctx, CheckoutConfig{
		Email:    email,
		Amount:   pkg.Price,
		Currency: pkg.Currency,
		Metadata: map[string]string{
			"package_id":       pkg.ID,
			"plan_type":        pkg.BackendPlanType,
			"billing_interval": pkg.BillingInterval,
		},
		OnSuccess: func(ctx context.Context, reference string) error {
			return uc.onGatewaySuccess(ctx, reference, pkg)
		},
		OnClose: uc.onGatewayClose,
	})
	if err != nil {
		var ve *domain.ValidationError
		if errors.As(err, &ve) {
			uc.fail(ve.Error())
		}
		return nil, "", err
	}

	uc.setState(StateAwaitingGateway)
	return sess, payURL, nil
}

// onGatewaySuccess runs the post-gateway half of the pipeline. Once
// verification has been dispatched there is no cancel: a charge may already
// have happened and must be reconciled regardless of user navigation.
func (uc *CheckoutUseCase) onGatewaySuccess(ctx context.Context, reference string, pkg *model.SelectedPackage) error {
	uc.mu.Lock()
	uc.verifying = true
	uc.state = StateVerifying
	uc.mu.Unlock()
	defer func() {
		uc.mu.Lock()
		uc.verifying = false
		uc.mu.Unlock()
	}()

	vp, err := uc.verifier.VerifyPayment(ctx, reference)
	if err != nil {
		var ve *domain.VerificationError
		if errors.As(err, &ve) && ve.Kind == domain.VerificationRejected && ve.Message != "" {
			// Server explicitly rejected; show its reason verbatim.
			uc.fail(ve.Message)
			uc.recordRejection(ctx, reference, ve.Message)
		} else {
			// Connectivity or malformed response: deliberately conservative,
			// no activation on ambiguous verification.
			uc.fail(supportMessage)
		}
		uc.log.Error().Err(err).Str("reference", reference).Msg("verification failed")
		return err
	}

	if vp.Status != model.PaymentStatusSucceeded {
		msg := vp.FailureMessage
		if msg == "" {
			msg = "Payment was not successful."
		}
		uc.fail(msg)
		uc.recordRejection(ctx, reference, "status "+string(vp.Status)+": "+msg)
		uc.log.Warn().Str("reference", reference).Str("status", string(vp.Status)).
			Msg("verification returned non-success status")
		return &domain.VerificationError{Kind: domain.VerificationRejected, Reference: reference, Message: msg}
	}

	path := uc.activator.Activate(ctx, reference, pkg)
	uc.log.Info().Str("reference", reference).Str("path", string(path)).Msg("subscription activated")

	// Short settling pause so eventually-consistent backends catch up before
	// the dashboard loads.
	uc.settle(ctx)

	uc.mu.Lock()
	uc.state = StateSuccess
	uc.errMsg = ""
	uc.mu.Unlock()
	return nil
}

// onGatewayClose is the cancellation path: no backend call, the form stays
// retryable with a dismissible notice.
func (uc *CheckoutUseCase) onGatewayClose() {
	uc.mu.Lock()
	uc.state = StateForm
	uc.notice = "Payment cancelled."
	uc.errMsg = ""
	uc.mu.Unlock()
}

// View returns the current user-facing state, including the redirect target
// for the terminal states.
func (uc *CheckoutUseCase) View() CheckoutView {
	uc.mu.Lock()
	defer uc.mu.Unlock()
	v := CheckoutView{State: uc.state, ErrMessage: uc.errMsg, Notice: uc.notice}
	switch uc.state {
	case StateSuccess:
		v.RedirectURL = uc.redirectURL
	case StateAwaitingPackage:
		v.RedirectURL = uc.pickURL
	}
	return v
}

func (uc *CheckoutUseCase) setState(s UIState) {
	uc.mu.Lock()
	uc.state = s
	uc.mu.Unlock()
}

func (uc *CheckoutUseCase) fail(msg string) {
	uc.mu.Lock()
	uc.state = StateForm
	uc.errMsg = msg
	uc.mu.Unlock()
}

func (uc *CheckoutUseCase) recordRejection(ctx context.Context, reference, detail string) {
	if uc.events == nil {
		return
	}
	ev := &model.CheckoutEvent{
		ID:        uuid.NewString(),
		Reference: reference,
		Kind:      model.EventVerificationRejected,
		Detail:    detail,
		CreatedAt: time.Now(),
	}
	if err := uc.events.Save(ctx, ev); err != nil {
		uc.log.Warn().Err(err).Str("reference", reference).Msg("audit event not saved")
	}
}

func (uc *CheckoutUseCase) settle(ctx context.Context) {
	if uc.settleDelay <= 0 {
		return
	}
	t := time.NewTimer(uc.settleDelay)
	defer t.Stop()
	select {
	case <-ctx.Done():
	case <-t.C:
	}
}
