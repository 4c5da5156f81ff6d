//go:build !integration

package usecase_test

import (
	"context"
	"io"
	"sync"

	"github.com/rs/zerolog"

	"checkout-activation/internal/domain"
	"checkout-activation/internal/domain/model"
	"checkout-activation/internal/domain/ports/adapter"
)

// memAccountStore is a small in-memory AccountStateStore used by unit tests.
type memAccountStore struct {
	mu      sync.Mutex
	acct    *model.Account
	pkg     *model.SelectedPackage
	reqPick bool

	scratchCleared bool
	setCalls       int

	getErr error // used by tests to simulate cache read failures
	setErr error
}

func newMemAccountStore() *memAccountStore {
	return &memAccountStore{}
}

func (m *memAccountStore) Get(ctx context.Context) (*model.Account, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.getErr != nil {
		return nil, m.getErr
	}
	if m.acct == nil {
		return nil, domain.ErrNotFound
	}
	cp := *m.acct
	return &cp, nil
}

func (m *memAccountStore) Set(ctx context.Context, acct *model.Account) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.setCalls++
	if m.setErr != nil {
		return m.setErr
	}
	cp := *acct
	m.acct = &cp
	return nil
}

func (m *memAccountStore) SelectedPackage(ctx context.Context) (*model.SelectedPackage, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.pkg == nil {
		return nil, domain.ErrNotFound
	}
	cp := *m.pkg
	return &cp, nil
}

func (m *memAccountStore) SetSelectedPackage(ctx context.Context, pkg *model.SelectedPackage) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	cp := *pkg
	m.pkg = &cp
	return nil
}

func (m *memAccountStore) SetRequiresPackageSelection(ctx context.Context, v bool) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.reqPick = v
	return nil
}

func (m *memAccountStore) ClearActivationScratch(ctx context.Context) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.pkg = nil
	m.reqPick = false
	m.scratchCleared = true
	return nil
}

func (m *memAccountStore) cached() *model.Account {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.acct == nil {
		return nil
	}
	cp := *m.acct
	return &cp
}

// memEventRepo collects audit events in memory.
type memEventRepo struct {
	mu     sync.Mutex
	events []*model.CheckoutEvent

	saveErr error
}

func newMemEventRepo() *memEventRepo {
	return &memEventRepo{}
}

func (m *memEventRepo) Save(ctx context.Context, ev *model.CheckoutEvent) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.saveErr != nil {
		return m.saveErr
	}
	cp := *ev
	m.events = append(m.events, &cp)
	return nil
}

func (m *memEventRepo) ListRecent(ctx context.Context, limit int) ([]*model.CheckoutEvent, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]*model.CheckoutEvent, 0, len(m.events))
	for i := len(m.events) - 1; i >= 0 && len(out) < limit; i-- {
		cp := *m.events[i]
		out = append(out, &cp)
	}
	return out, nil
}

func (m *memEventRepo) kinds() []model.EventKind {
	m.mu.Lock()
	defer m.mu.Unlock()
	var ks []model.EventKind
	for _, ev := range m.events {
		ks = append(ks, ev.Kind)
	}
	return ks
}

func (m *memEventRepo) has(kind model.EventKind) bool {
	for _, k := range m.kinds() {
		if k == kind {
			return true
		}
	}
	return false
}

// MockPlanBackend lets tests script the confirm and fetch calls.
type MockPlanBackend struct {
	ConfirmPlanFunc func(ctx context.Context, planType string, amountMinor int64, currency string) error
	CurrentUserFunc func(ctx context.Context) (*model.Account, error)

	mu           sync.Mutex
	confirmCalls int
	fetchCalls   int
}

func (m *MockPlanBackend) ConfirmPlan(ctx context.Context, planType string, amountMinor int64, currency string) error {
	m.mu.Lock()
	m.confirmCalls++
	m.mu.Unlock()
	if m.ConfirmPlanFunc != nil {
		return m.ConfirmPlanFunc(ctx, planType, amountMinor, currency)
	}
	return nil
}

func (m *MockPlanBackend) CurrentUser(ctx context.Context) (*model.Account, error) {
	m.mu.Lock()
	m.fetchCalls++
	m.mu.Unlock()
	if m.CurrentUserFunc != nil {
		return m.CurrentUserFunc(ctx)
	}
	return &model.Account{Status: model.AccountStatusActive}, nil
}

// MockVerifier scripts backend verification.
type MockVerifier struct {
	VerifyFunc func(ctx context.Context, reference string) (*model.VerifiedPayment, error)

	mu    sync.Mutex
	calls int
}

func (m *MockVerifier) VerifyPayment(ctx context.Context, reference string) (*model.VerifiedPayment, error) {
	m.mu.Lock()
	m.calls++
	m.mu.Unlock()
	if m.VerifyFunc != nil {
		return m.VerifyFunc(ctx, reference)
	}
	return &model.VerifiedPayment{Reference: reference, Status: model.PaymentStatusSucceeded}, nil
}

func (m *MockVerifier) callCount() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.calls
}

// MockGateway records every opened checkout and can be scripted to fail.
type MockGateway struct {
	OpenFunc func(ctx context.Context, req adapter.CheckoutRequest) (string, error)

	mu     sync.Mutex
	opened []adapter.CheckoutRequest
}

func (g *MockGateway) Name() string { return "mock" }

func (g *MockGateway) Open(ctx context.Context, req adapter.CheckoutRequest) (string, error) {
	g.mu.Lock()
	g.opened = append(g.opened, req)
	g.mu.Unlock()
	if g.OpenFunc != nil {
		return g.OpenFunc(ctx, req)
	}
	return "https://example.test/checkout/1", nil
}

func (g *MockGateway) openCount() int {
	g.mu.Lock()
	defer g.mu.Unlock()
	return len(g.opened)
}

func (g *MockGateway) lastOpened() *adapter.CheckoutRequest {
	g.mu.Lock()
	defer g.mu.Unlock()
	if len(g.opened) == 0 {
		return nil
	}
	cp := g.opened[len(g.opened)-1]
	return &cp
}

// stubGatewaySource hands out a fixed gateway with a settable ready flag.
type stubGatewaySource struct {
	ready bool
	gw    adapter.CheckoutGateway
}

func (s *stubGatewaySource) Ready() bool { return s.ready }

func (s *stubGatewaySource) Gateway() (adapter.CheckoutGateway, error) {
	if !s.ready || s.gw == nil {
		return nil, domain.ErrGatewayUnavailable
	}
	return s.gw, nil
}

// newTestLogger creates a silent zerolog.Logger for use in tests.
// It writes to io.Discard to prevent logs from cluttering test output.
func newTestLogger() *zerolog.Logger {
	logger := zerolog.New(io.Discard)
	return &logger
}
