package postgres

import (
	"context"

	"github.com/jackc/pgx/v4/pgxpool"

	"checkout-activation/internal/domain"
	"checkout-activation/internal/domain/model"
	"checkout-activation/internal/domain/ports/repository"
)

var _ repository.CheckoutEventRepository = (*checkoutEventRepo)(nil)

type checkoutEventRepo struct{ pool *pgxpool.Pool }

func NewCheckoutEventRepo(pool *pgxpool.Pool) *checkoutEventRepo {
	return &checkoutEventRepo{pool: pool}
}

func (r *checkoutEventRepo) Save(ctx context.Context, ev *model.CheckoutEvent) error {
	const q = `
INSERT INTO checkout_events (id, reference, kind, detail, created_at)
VALUES ($1,$2,$3,$4,$5)
ON CONFLICT (id) DO NOTHING;`

	if _, err := r.pool.Exec(ctx, q, ev.ID, ev.Reference, string(ev.Kind), ev.Detail, ev.CreatedAt); err != nil {
		return domain.ErrOperationFailed
	}
	return nil
}

func (r *checkoutEventRepo) ListRecent(ctx context.Context, limit int) ([]*model.CheckoutEvent, error) {
	if limit <= 0 {
		limit = 50
	}
	const q = `
SELECT id, reference, kind, detail, created_at
FROM checkout_events ORDER BY created_at DESC LIMIT $1;`

	rows, err := r.pool.Query(ctx, q, limit)
	if err != nil {
		return nil, domain.ErrOperationFailed
	}
	defer rows.Close()

	var out []*model.CheckoutEvent
	for rows.Next() {
		ev := &model.CheckoutEvent{}
		var kind string
		if err := rows.Scan(&ev.ID, &ev.Reference, &kind, &ev.Detail, &ev.CreatedAt); err != nil {
			return nil, domain.ErrOperationFailed
		}
		ev.Kind = model.EventKind(kind)
		out = append(out, ev)
	}
	return out, rows.Err()
}
