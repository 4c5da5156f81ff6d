package repository

import (
	"context"

	"checkout-activation/internal/domain/model"
)

// CheckoutEventRepository persists pipeline audit events. Writes are
// best-effort: callers log failures and continue, an audit miss must never
// block a confirmed charge.
type CheckoutEventRepository interface {
	Save(ctx context.Context, ev *model.CheckoutEvent) error
	ListRecent(ctx context.Context, limit int) ([]*model.CheckoutEvent, error)
}
