package usecase

import (
	"context"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"checkout-activation/internal/domain"
	"checkout-activation/internal/domain/model"
	"checkout-activation/internal/domain/ports/adapter"
	"checkout-activation/internal/domain/ports/repository"
	"checkout-activation/internal/infra/logging"
	"checkout-activation/internal/infra/metrics"
)

// Compile-time check
var _ SessionUseCase = (*sessionUC)(nil)

// GatewaySource reports gateway readiness and hands out the live handle.
// Satisfied by infra/gateway.Loader.
type GatewaySource interface {
	Ready() bool
	Gateway() (adapter.CheckoutGateway, error)
}

// CheckoutConfig carries one payment attempt's inputs and the two caller
// callbacks. The gateway integration is callback-based, so any asynchronous
// work after a successful charge must be orchestrated inside OnSuccess.
type CheckoutConfig struct {
	Email    string
	Amount   float64 // major units; converted to minor units for the gateway
	Currency string
	Metadata map[string]string

	OnSuccess func(ctx context.Context, reference string) error
	OnClose   func()
}

type SessionUseCase interface {
	// InitializePayment validates inputs, generates a fresh reference and
	// opens the gateway checkout. Returns the session and the authorization
	// URL the user is sent to.
	InitializePayment(ctx context.Context, cfg CheckoutConfig) (*model.PaymentSession, string, error)
	// HandleGatewayResult dispatches the single terminal gateway callback for
	// the live session. Reports whether the result matched a live session.
	HandleGatewayResult(ctx context.Context, res adapter.CheckoutResult) bool
	// Processing is true while the success callback is running.
	Processing() bool
	// Current returns a copy of the live session, if any.
	Current() *model.PaymentSession
}

type sessionUC struct {
	gateways GatewaySource
	events   repository.CheckoutEventRepository
	channels []string
	label    string
	log      *zerolog.Logger

	mu         sync.Mutex
	live       *liveSession
	processing bool
}

type liveSession struct {
	session   *model.PaymentSession
	onSuccess func(ctx context.Context, reference string) error
	onClose   func()
	done      bool
}

func NewSessionUseCase(gateways GatewaySource, events repository.CheckoutEventRepository, channels []string, label string, logger *zerolog.Logger) *sessionUC {
	return &sessionUC{gateways: gateways, events: events, channels: channels, label: label, log: logger}
}

func (u *sessionUC) InitializePayment(ctx context.Context, cfg CheckoutConfig) (*model.PaymentSession, string, error) {
	defer logging.TraceDuration(u.log, "SessionUC.InitializePayment")()

	if !u.gateways.Ready() {
		return nil, "", domain.ErrGatewayUnavailable
	}
	if !strings.Contains(cfg.Email, "@") {
		return nil, "", &domain.ValidationError{Field: "email", Reason: "must contain @"}
	}
	if cfg.Amount <= 0 {
		return nil, "", &domain.ValidationError{Field: "amount", Reason: "must be positive"}
	}

	gw, err := u.gateways.Gateway()
	if err != nil {
		return nil, "", err
	}

	now := time.Now()
	sess := &model.PaymentSession{
		ID:          uuid.NewString(),
		Reference:   model.NewReference(),
		Email:       cfg.Email,
		AmountMinor: model.MinorUnits(cfg.Amount),
		Currency:    cfg.Currency,
		Metadata:    cfg.Metadata,
		Status:      model.SessionStatusAwaitingGateway,
		CreatedAt:   now,
		UpdatedAt:   now,
	}

	// Only one attempt is live at a time; a new attempt overwrites any
	// previous callback slots.
	u.mu.Lock()
	u.live = &liveSession{session: sess, onSuccess: cfg.OnSuccess, onClose: cfg.OnClose}
	u.mu.Unlock()

	payURL, err := gw.Open(ctx, adapter.CheckoutRequest{
		Reference:   sess.Reference,
		Email:       sess.Email,
		AmountMinor: sess.AmountMinor,
		Currency:    sess.Currency,
		Metadata:    sess.Metadata,
		Channels:    u.channels,
		Label:       u.label,
	})
	if err != nil {
		u.mu.Lock()
		u.live = nil
		u.mu.Unlock()
		u.log.Error().Err(err).Str("reference", sess.Reference).Msg("gateway open failed")
		return nil, "", err
	}

	u.log.Info().Str("reference", sess.Reference).Int64("amount_minor", sess.AmountMinor).
		Str("currency", sess.Currency).Msg("checkout opened")
	return sess, payURL, nil
}

// HandleGatewayResult enforces the exactly-one terminal callback rule: for a
// fully-opened session either the success path or the close path runs, never
// both. Errors thrown by the success callback are swallowed here; they must
// be handled inside the callback itself.
func (u *sessionUC) HandleGatewayResult(ctx context.Context, res adapter.CheckoutResult) bool {
	u.mu.Lock()
	l := u.live
	if l == nil || l.done {
		u.mu.Unlock()
		u.log.Warn().Str("reference", res.Reference).Msg("gateway result with no live session; ignored")
		return false
	}
	if res.Reference != "" && res.Reference != l.session.Reference {
		u.mu.Unlock()
		u.log.Warn().Str("reference", res.Reference).Str("live", l.session.Reference).
			Msg("gateway result for a different session; ignored")
		return false
	}
	l.done = true

	if !res.Succeeded() {
		l.session.Status = model.SessionStatusGatewayCancelled
		l.session.UpdatedAt = time.Now()
		u.mu.Unlock()

		metrics.IncSessionOutcome("cancelled")
		u.recordEvent(ctx, model.EventSessionCancelled, l.session.Reference, "user dismissed checkout")
		if l.onClose != nil {
			l.onClose()
		}
		return true
	}

	l.session.Status = model.SessionStatusGatewaySucceeded
	l.session.UpdatedAt = time.Now()
	u.processing = true
	u.mu.Unlock()

	metrics.IncSessionOutcome("succeeded")
	u.recordEvent(ctx, model.EventSessionSucceeded, l.session.Reference, "gateway reported success")

	var cbErr error
	if l.onSuccess != nil {
		if cbErr = l.onSuccess(ctx, l.session.Reference); cbErr != nil {
			u.log.Error().Err(cbErr).Str("reference", l.session.Reference).
				Msg("success callback returned error")
		}
	}

	u.mu.Lock()
	if cbErr != nil {
		l.session.Status = model.SessionStatusVerificationFailed
	} else {
		l.session.Status = model.SessionStatusVerified
	}
	l.session.UpdatedAt = time.Now()
	u.processing = false
	u.mu.Unlock()
	return true
}

func (u *sessionUC) Processing() bool {
	u.mu.Lock()
	defer u.mu.Unlock()
	return u.processing
}

func (u *sessionUC) Current() *model.PaymentSession {
	u.mu.Lock()
	defer u.mu.Unlock()
	if u.live == nil {
		return nil
	}
	cp := *u.live.session
	return &cp
}

func (u *sessionUC) recordEvent(ctx context.Context, kind model.EventKind, reference, detail string) {
	if u.events == nil {
		return
	}
	ev := &model.CheckoutEvent{
		ID:        uuid.NewString(),
		Reference: reference,
		Kind:      kind,
		Detail:    detail,
		CreatedAt: time.Now(),
	}
	if err := u.events.Save(ctx, ev); err != nil {
		u.log.Warn().Err(err).Str("kind", string(kind)).Msg("audit event not saved")
	}
}
