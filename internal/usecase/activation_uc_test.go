//go:build !integration

package usecase_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"checkout-activation/internal/domain/model"
	"checkout-activation/internal/usecase"
)

func growthPkg() *model.SelectedPackage {
	return &model.SelectedPackage{
		ID:              "pkg-1",
		Name:            "Growth",
		Price:           499.00,
		Currency:        "ZAR",
		BillingInterval: "monthly",
		BackendPlanType: "GROWTH_MONTHLY",
	}
}

func TestActivationUseCase_Activate(t *testing.T) {
	ctx := context.Background()

	t.Run("should commit the backend record when it reports active", func(t *testing.T) {
		// --- Arrange ---
		backend := &MockPlanBackend{
			CurrentUserFunc: func(ctx context.Context) (*model.Account, error) {
				return &model.Account{ID: "u1", Status: model.AccountStatusActive, PlanName: "Growth", PlanType: "GROWTH_MONTHLY"}, nil
			},
		}
		store := newMemAccountStore()
		uc := usecase.NewActivationUseCase(backend, store, newMemEventRepo(), time.Second, newTestLogger())

		// --- Act ---
		path := uc.Activate(ctx, "ref_1", growthPkg())

		// --- Assert ---
		if path != usecase.PathConfirmed {
			t.Errorf("expected confirmed path, got %q", path)
		}
		acct := store.cached()
		if acct == nil || acct.Status != model.AccountStatusActive {
			t.Fatalf("expected active cached account, got %+v", acct)
		}
		if acct.PlanName != "Growth" {
			t.Errorf("expected the backend record committed verbatim, got %+v", acct)
		}
		if !store.scratchCleared {
			t.Error("expected activation scratch to be cleared")
		}
	})

	t.Run("should override a non-active backend status after a verified charge", func(t *testing.T) {
		backend := &MockPlanBackend{
			CurrentUserFunc: func(ctx context.Context) (*model.Account, error) {
				return &model.Account{ID: "u1", Status: model.AccountStatusPendingPayment, PlanName: "Growth"}, nil
			},
		}
		store := newMemAccountStore()
		events := newMemEventRepo()
		uc := usecase.NewActivationUseCase(backend, store, events, time.Second, newTestLogger())

		path := uc.Activate(ctx, "ref_1", growthPkg())

		if path != usecase.PathOverridden {
			t.Errorf("expected overridden path, got %q", path)
		}
		acct := store.cached()
		if acct == nil || acct.Status != model.AccountStatusActive {
			t.Fatalf("expected status forced to ACTIVE, got %+v", acct)
		}
		if !events.has(model.EventStatusOverride) {
			t.Error("expected a status_override audit event")
		}
	})

	t.Run("should fall back when the confirm call hangs past the deadline", func(t *testing.T) {
		// --- Arrange ---
		backend := &MockPlanBackend{
			ConfirmPlanFunc: func(ctx context.Context, planType string, amountMinor int64, currency string) error {
				// Simulate a hung backend: only the client deadline ends this.
				<-ctx.Done()
				return ctx.Err()
			},
		}
		store := newMemAccountStore()
		events := newMemEventRepo()
		uc := usecase.NewActivationUseCase(backend, store, events, 30*time.Millisecond, newTestLogger())

		// --- Act ---
		start := time.Now()
		path := uc.Activate(ctx, "ref_1", growthPkg())
		elapsed := time.Since(start)

		// --- Assert ---
		if path != usecase.PathFallback {
			t.Errorf("expected fallback path, got %q", path)
		}
		if elapsed > 2*time.Second {
			t.Errorf("expected the deadline to bound the confirm call, took %v", elapsed)
		}
		acct := store.cached()
		if acct == nil || acct.Status != model.AccountStatusActive {
			t.Fatalf("expected forced-active cache, got %+v", acct)
		}
		if acct.PlanName != "Growth" || acct.PlanType != "GROWTH_MONTHLY" {
			t.Errorf("expected plan fields from the selected package, got %+v", acct)
		}
		if !events.has(model.EventFallbackActivation) {
			t.Error("expected a fallback_activation audit event")
		}
	})

	t.Run("should end with an active cache for every degraded combination", func(t *testing.T) {
		cases := []struct {
			name    string
			backend *MockPlanBackend
			store   func() *memAccountStore
		}{
			{
				name: "confirm call fails",
				backend: &MockPlanBackend{
					ConfirmPlanFunc: func(ctx context.Context, planType string, amountMinor int64, currency string) error {
						return errors.New("boom")
					},
				},
				store: newMemAccountStore,
			},
			{
				name: "account fetch fails",
				backend: &MockPlanBackend{
					CurrentUserFunc: func(ctx context.Context) (*model.Account, error) {
						return nil, errors.New("boom")
					},
				},
				store: newMemAccountStore,
			},
			{
				name: "account fetch returns inconsistent status",
				backend: &MockPlanBackend{
					CurrentUserFunc: func(ctx context.Context) (*model.Account, error) {
						return &model.Account{Status: model.AccountStatusSuspended}, nil
					},
				},
				store: newMemAccountStore,
			},
			{
				name:    "cache read fails during fallback",
				backend: &MockPlanBackend{ConfirmPlanFunc: func(ctx context.Context, planType string, amountMinor int64, currency string) error { return errors.New("boom") }},
				store: func() *memAccountStore {
					s := newMemAccountStore()
					s.getErr = errors.New("cache gone")
					return s
				},
			},
		}

		for _, tc := range cases {
			t.Run(tc.name, func(t *testing.T) {
				store := tc.store()
				uc := usecase.NewActivationUseCase(tc.backend, store, newMemEventRepo(), time.Second, newTestLogger())

				uc.Activate(ctx, "ref_1", growthPkg())

				acct := store.cached()
				if acct == nil || acct.Status != model.AccountStatusActive {
					t.Fatalf("expected active cache, got %+v", acct)
				}
				if !store.scratchCleared {
					t.Error("expected activation scratch to be cleared")
				}
			})
		}
	})

	t.Run("should survive a failing cache write without panicking", func(t *testing.T) {
		store := newMemAccountStore()
		store.setErr = errors.New("redis down")
		backend := &MockPlanBackend{}
		uc := usecase.NewActivationUseCase(backend, store, newMemEventRepo(), time.Second, newTestLogger())

		// Must not panic or fail; the pipeline has no error channel left here.
		uc.Activate(ctx, "ref_1", growthPkg())
	})

	t.Run("should build the fallback record on top of the cached one", func(t *testing.T) {
		store := newMemAccountStore()
		_ = store.Set(ctx, &model.Account{ID: "u1", Email: "owner@biz.example", Status: model.AccountStatusPendingPayment})
		backend := &MockPlanBackend{
			ConfirmPlanFunc: func(ctx context.Context, planType string, amountMinor int64, currency string) error {
				return errors.New("unreachable")
			},
		}
		uc := usecase.NewActivationUseCase(backend, store, newMemEventRepo(), time.Second, newTestLogger())

		uc.Activate(ctx, "ref_1", growthPkg())

		acct := store.cached()
		if acct.Email != "owner@biz.example" {
			t.Errorf("expected existing cached fields preserved, got %+v", acct)
		}
		if acct.Status != model.AccountStatusActive || acct.PlanType != "GROWTH_MONTHLY" {
			t.Errorf("expected forced-active with plan attached, got %+v", acct)
		}
	})
}
