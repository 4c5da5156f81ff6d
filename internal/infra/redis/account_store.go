package redis

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"github.com/go-redis/redis/v8"

	"checkout-activation/internal/domain"
	"checkout-activation/internal/domain/model"
	"checkout-activation/internal/domain/ports/repository"
)

var _ repository.AccountStateStore = (*AccountStore)(nil)

// AccountStore keeps the cached account record and the package-selection
// scratch state in Redis. One instance owns one key namespace; during the
// activation pipeline it has a single writer.
type AccountStore struct {
	client RedisClient
	prefix string
	ttl    time.Duration
}

func NewAccountStore(client RedisClient, prefix string, ttl time.Duration) *AccountStore {
	return &AccountStore{client: client, prefix: prefix, ttl: ttl}
}

func (s *AccountStore) key(suffix string) string { return s.prefix + ":" + suffix }

func (s *AccountStore) Get(ctx context.Context) (*model.Account, error) {
	data, err := s.client.Get(ctx, s.key("account"))
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, domain.ErrNotFound
		}
		return nil, err
	}
	var acct model.Account
	if err := json.Unmarshal([]byte(data), &acct); err != nil {
		return nil, err
	}
	return &acct, nil
}

// Set replaces the whole cached record. Partial patches are never written so
// concurrent readers elsewhere in the app cannot observe a half-updated
// account.
func (s *AccountStore) Set(ctx context.Context, acct *model.Account) error {
	data, err := json.Marshal(acct)
	if err != nil {
		return err
	}
	return s.client.Set(ctx, s.key("account"), data, s.ttl)
}

func (s *AccountStore) SelectedPackage(ctx context.Context) (*model.SelectedPackage, error) {
	data, err := s.client.Get(ctx, s.key("selected_package"))
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, domain.ErrNotFound
		}
		return nil, err
	}
	var pkg model.SelectedPackage
	if err := json.Unmarshal([]byte(data), &pkg); err != nil {
		return nil, err
	}
	return &pkg, nil
}

func (s *AccountStore) SetSelectedPackage(ctx context.Context, pkg *model.SelectedPackage) error {
	data, err := json.Marshal(pkg)
	if err != nil {
		return err
	}
	return s.client.Set(ctx, s.key("selected_package"), data, s.ttl)
}

func (s *AccountStore) SetRequiresPackageSelection(ctx context.Context, v bool) error {
	if !v {
		return s.client.Del(ctx, s.key("requires_package_selection"))
	}
	return s.client.Set(ctx, s.key("requires_package_selection"), "1", s.ttl)
}

func (s *AccountStore) ClearActivationScratch(ctx context.Context) error {
	return s.client.Del(ctx,
		s.key("selected_package"),
		s.key("requires_package_selection"),
		s.key("temp_credentials"),
	)
}
