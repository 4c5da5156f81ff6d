package usecase

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"checkout-activation/internal/domain/model"
	"checkout-activation/internal/domain/ports/repository"
	"checkout-activation/internal/infra/logging"
	"checkout-activation/internal/infra/metrics"
)

// PlanBackend is what the reconciler needs from the REST backend.
// Satisfied by infra/backend.Client.
type PlanBackend interface {
	ConfirmPlan(ctx context.Context, planType string, amountMinor int64, currency string) error
	CurrentUser(ctx context.Context) (*model.Account, error)
}

// ActivationPath names which branch of the reconciliation state machine
// committed the cache.
type ActivationPath string

const (
	// PathConfirmed: backend confirmed the plan and reported the account active.
	PathConfirmed ActivationPath = "confirmed"
	// PathOverridden: backend responded with a non-active status after a
	// verified charge; the cached status was forced to active.
	PathOverridden ActivationPath = "overridden"
	// PathFallback: backend unreachable or past deadline; a minimal active
	// record was synthesized locally.
	PathFallback ActivationPath = "fallback"
)

// ActivationUseCase converts a verified charge into an active cached account,
// tolerating backend slowness. By the time Activate runs the money has
// already moved, so every branch terminates with an active-looking cache.
type ActivationUseCase struct {
	backend        PlanBackend
	store          repository.AccountStateStore
	events         repository.CheckoutEventRepository
	confirmTimeout time.Duration
	log            *zerolog.Logger
}

func NewActivationUseCase(backend PlanBackend, store repository.AccountStateStore, events repository.CheckoutEventRepository, confirmTimeout time.Duration, logger *zerolog.Logger) *ActivationUseCase {
	if confirmTimeout <= 0 {
		confirmTimeout = 10 * time.Second
	}
	return &ActivationUseCase{backend: backend, store: store, events: events, confirmTimeout: confirmTimeout, log: logger}
}

// Activate runs the reconciliation state machine for a verified payment. It
// never fails: confirm and fetch errors degrade to a forced local
// activation, and the scratch markers are cleared on every path.
//
// The plan confirmation carries the only client-enforced deadline in the
// pipeline; the deadline cancels the underlying request, so a late backend
// response cannot overwrite a fallback that already committed.
func (uc *ActivationUseCase) Activate(ctx context.Context, reference string, pkg *model.SelectedPackage) ActivationPath {
	defer logging.TraceDuration(uc.log, "ActivationUC.Activate")()

	path := uc.activate(ctx, reference, pkg)

	if err := uc.store.ClearActivationScratch(ctx); err != nil {
		uc.log.Warn().Err(err).Msg("activation scratch not cleared")
	}
	metrics.IncActivation(string(path))
	return path
}

func (uc *ActivationUseCase) activate(ctx context.Context, reference string, pkg *model.SelectedPackage) ActivationPath {
	amountMinor := model.MinorUnits(pkg.Price)

	cctx, cancel := context.WithTimeout(ctx, uc.confirmTimeout)
	err := uc.backend.ConfirmPlan(cctx, pkg.BackendPlanType, amountMinor, pkg.Currency)
	cancel()
	if err != nil {
		uc.log.Warn().Err(err).Str("reference", reference).
			Msg("plan confirmation failed after verified charge; falling back")
		uc.fallback(ctx, reference, pkg)
		return PathFallback
	}

	acct, err := uc.backend.CurrentUser(ctx)
	if err != nil || acct == nil {
		uc.log.Warn().Err(err).Str("reference", reference).
			Msg("account fetch failed after verified charge; falling back")
		uc.fallback(ctx, reference, pkg)
		return PathFallback
	}

	path := PathConfirmed
	if acct.Status != model.AccountStatusActive {
		prev := overrideToActive(acct)
		uc.log.Warn().Str("reference", reference).Str("backend_status", string(prev)).
			Msg("backend status inconsistent with verified payment; overriding to active")
		uc.recordEvent(ctx, model.EventStatusOverride, reference, "backend reported "+string(prev))
		path = PathOverridden
	}
	if err := uc.store.Set(ctx, acct); err != nil {
		uc.log.Error().Err(err).Str("reference", reference).Msg("account cache write failed")
	}
	return path
}

// overrideToActive is the reconciliation rule that a verified payment
// outranks a stale or inconsistent backend-reported status: only the status
// field is forced, the rest of the record is kept verbatim for the backend
// to correct asynchronously. Returns the status that was overridden.
func overrideToActive(acct *model.Account) model.AccountStatus {
	prev := acct.Status
	acct.Status = model.AccountStatusActive
	acct.UpdatedAt = time.Now()
	return prev
}

// fallback synthesizes a minimal active record from whatever is cached and
// commits it. It must never fail: this is the guaranteed terminal success
// path for the UI even under total backend unavailability.
func (uc *ActivationUseCase) fallback(ctx context.Context, reference string, pkg *model.SelectedPackage) {
	acct, err := uc.store.Get(ctx)
	if err != nil || acct == nil {
		acct = &model.Account{}
	}
	acct.Status = model.AccountStatusActive
	acct.PlanName = pkg.Name
	acct.PlanType = pkg.BackendPlanType
	acct.UpdatedAt = time.Now()

	if err := uc.store.Set(ctx, acct); err != nil {
		uc.log.Error().Err(err).Str("reference", reference).Msg("fallback cache write failed")
	}
	uc.recordEvent(ctx, model.EventFallbackActivation, reference, "forced local activation for plan "+pkg.BackendPlanType)
}

func (uc *ActivationUseCase) recordEvent(ctx context.Context, kind model.EventKind, reference, detail string) {
	if uc.events == nil {
		return
	}
	ev := &model.CheckoutEvent{
		ID:        uuid.NewString(),
		Reference: reference,
		Kind:      kind,
		Detail:    detail,
		CreatedAt: time.Now(),
	}
	if err := uc.events.Save(ctx, ev); err != nil {
		uc.log.Warn().Err(err).Str("kind", string(kind)).Msg("audit event not saved")
	}
}
