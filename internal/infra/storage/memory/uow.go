package memory

import (
	"context"
	"errors"

	"rentdeal/internal/app/uow"
	domainbooking "rentdeal/internal/domain/booking"
	domainoffer "rentdeal/internal/domain/offer"
)

// ErrFactoryMisconfigured indicates missing repositories.
var ErrFactoryMisconfigured = errors.New("memory: unit of work factory misconfigured")

// Factory wires in-memory repositories into a unit-of-work boundary.
type Factory struct {
	OffersRepo   domainoffer.Repository
	BookingsRepo domainbooking.Repository
}

// Begin starts a lightweight transaction boundary. No isolation is provided
// but the abstraction matches the application ports; write safety comes from
// the repositories' version preconditions.
func (f Factory) Begin(ctx context.Context, opts uow.TxOptions) (uow.UnitOfWork, error) {
	if f.OffersRepo == nil || f.BookingsRepo == nil {
		return nil, ErrFactoryMisconfigured
	}
	return &Unit{offers: f.OffersRepo, bookings: f.BookingsRepo}, nil
}

// Unit is a lightweight uow.UnitOfWork backed by in-memory stores.
type Unit struct {
	offers   domainoffer.Repository
	bookings domainbooking.Repository
}

func (u *Unit) Offers() domainoffer.Repository { return u.offers }

func (u *Unit) Bookings() domainbooking.Repository { return u.bookings }

func (u *Unit) Commit(ctx context.Context) error { return nil }

func (u *Unit) Rollback(ctx context.Context) error { return nil }

var _ uow.UoWFactory = Factory{}
var _ uow.UnitOfWork = (*Unit)(nil)
