package uow

import (
	"context"
	"errors"

	domainbooking "rentdeal/internal/domain/booking"
	domainoffer "rentdeal/internal/domain/offer"
)

// ErrConflict is returned by repositories when a version-guarded write loses
// to a concurrent update. Handlers re-read and re-apply the transition, so a
// stale write can never silently overwrite a newer state.
var ErrConflict = errors.New("uow: concurrent update rejected")

// UnitOfWork coordinates repositories inside a transaction boundary.
type UnitOfWork interface {
	Offers() domainoffer.Repository
	Bookings() domainbooking.Repository

	Commit(ctx context.Context) error
	Rollback(ctx context.Context) error
}

// UoWFactory starts unit of work instances.
type UoWFactory interface {
	Begin(ctx context.Context, opts TxOptions) (UnitOfWork, error)
}

// TxOptions configure transaction boundaries.
type TxOptions struct {
	ReadOnly bool
}
