package gateway

import (
	"context"
	"sync"

	"github.com/rs/zerolog"

	"checkout-activation/internal/domain"
	"checkout-activation/internal/domain/ports/adapter"
	"checkout-activation/internal/infra/metrics"
)

// Bootstrap constructs and probes a concrete gateway. It is called at most
// once per loader lifetime.
type Bootstrap func(ctx context.Context) (adapter.CheckoutGateway, error)

// Loader guarantees the external gateway is bootstrapped at most once and
// reports readiness. A failed bootstrap leaves the loader permanently
// not-ready until Teardown, so callers block payment initiation instead of
// retrying into a broken provider.
type Loader struct {
	mu        sync.Mutex
	bootstrap Bootstrap
	gw        adapter.CheckoutGateway
	ready     bool
	attempted bool
	log       *zerolog.Logger
}

func NewLoader(bootstrap Bootstrap, logger *zerolog.Logger) *Loader {
	return &Loader{bootstrap: bootstrap, log: logger}
}

// EnsureLoaded bootstraps the gateway if it has not been tried yet. If the
// handle is already present it reports ready immediately.
func (l *Loader) EnsureLoaded(ctx context.Context) error {
	l.mu.Lock()
	defer l.mu.Unlock()

	if l.ready {
		return nil
	}
	if l.attempted {
		return domain.ErrGatewayUnavailable
	}
	l.attempted = true

	gw, err := l.bootstrap(ctx)
	if err != nil {
		metrics.IncGatewayBootstrapFailure()
		l.log.Error().Err(err).Msg("gateway bootstrap failed")
		return domain.ErrGatewayUnavailable
	}
	l.gw = gw
	l.ready = true
	l.log.Info().Str("gateway", gw.Name()).Msg("gateway ready")
	return nil
}

func (l *Loader) Ready() bool {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.ready
}

// Gateway returns the live handle, or ErrGatewayUnavailable when the loader
// is not ready.
func (l *Loader) Gateway() (adapter.CheckoutGateway, error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	if !l.ready || l.gw == nil {
		return nil, domain.ErrGatewayUnavailable
	}
	return l.gw, nil
}

// Teardown drops the handle so a later EnsureLoaded starts from scratch,
// avoiding a duplicate bootstrap carrying stale state across remounts.
func (l *Loader) Teardown() {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.gw = nil
	l.ready = false
	l.attempted = false
}
