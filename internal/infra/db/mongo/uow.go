package mongo

import (
	"context"
	"errors"

	"rentdeal/internal/app/uow"
	domainbooking "rentdeal/internal/domain/booking"
	domainoffer "rentdeal/internal/domain/offer"
)

var ErrUnitOfWorkNotConfigured = errors.New("mongo: unit of work factory missing repositories")

// Factory hands out unit-of-work instances over the Mongo repositories.
// Isolation comes from the per-document version preconditions, not from a
// multi-document transaction.
type Factory struct {
	OffersRepo   *OfferRepository
	BookingsRepo *BookingRepository
}

func (f Factory) Begin(ctx context.Context, opts uow.TxOptions) (uow.UnitOfWork, error) {
	if f.OffersRepo == nil || f.BookingsRepo == nil {
		return nil, ErrUnitOfWorkNotConfigured
	}
	return &Unit{offers: f.OffersRepo, bookings: f.BookingsRepo}, nil
}

type Unit struct {
	offers   *OfferRepository
	bookings *BookingRepository
}

func (u *Unit) Offers() domainoffer.Repository { return u.offers }

func (u *Unit) Bookings() domainbooking.Repository { return u.bookings }

func (u *Unit) Commit(ctx context.Context) error { return nil }

func (u *Unit) Rollback(ctx context.Context) error { return nil }

var _ uow.UoWFactory = Factory{}
var _ uow.UnitOfWork = (*Unit)(nil)
