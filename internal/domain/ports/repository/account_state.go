package repository

import (
	"context"

	"checkout-activation/internal/domain/model"
)

// AccountStateStore is the single mutable slot holding the cached account
// record plus the package-selection scratch state. The activation pipeline is
// its only writer; writes are always full-record replaces.
type AccountStateStore interface {
	Get(ctx context.Context) (*model.Account, error)
	Set(ctx context.Context, acct *model.Account) error

	SelectedPackage(ctx context.Context) (*model.SelectedPackage, error)
	SetSelectedPackage(ctx context.Context, pkg *model.SelectedPackage) error

	// SetRequiresPackageSelection flags that the next app load should enter
	// the package picker.
	SetRequiresPackageSelection(ctx context.Context, v bool) error

	// ClearActivationScratch removes the selected-package blob, the
	// requires-package-selection marker and any temporary credentials, so the
	// next login does not re-enter the package-selection flow.
	ClearActivationScratch(ctx context.Context) error
}
