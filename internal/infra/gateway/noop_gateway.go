package gateway

import (
	"context"
	"fmt"
	"sync"

	"checkout-activation/internal/domain/ports/adapter"
)

var _ adapter.CheckoutGateway = (*NoopGateway)(nil)

// NoopGateway is a simple in-memory gateway for tests and dev mode. It
// records every opened checkout and lets callers script failures.
type NoopGateway struct {
	mu      sync.Mutex
	seq     int64
	opened  []adapter.CheckoutRequest
	OpenErr error
}

func NewNoopGateway() *NoopGateway {
	return &NoopGateway{}
}

func (g *NoopGateway) Name() string { return "noop" }

func (g *NoopGateway) Open(ctx context.Context, req adapter.CheckoutRequest) (string, error) {
	g.mu.Lock()
	defer g.mu.Unlock()
	if g.OpenErr != nil {
		return "", g.OpenErr
	}
	g.seq++
	g.opened = append(g.opened, req)
	return fmt.Sprintf("https://example.test/checkout/%d", g.seq), nil
}

// Opened returns a copy of every request passed to Open.
func (g *NoopGateway) Opened() []adapter.CheckoutRequest {
	g.mu.Lock()
	defer g.mu.Unlock()
	out := make([]adapter.CheckoutRequest, len(g.opened))
	copy(out, g.opened)
	return out
}
