package booking

import (
	"context"

	"rentdeal/internal/app/dto"
	"rentdeal/internal/app/handlers/support"
	"rentdeal/internal/app/queries"
	"rentdeal/internal/app/uow"
	domainbooking "rentdeal/internal/domain/booking"
)

const getBookingKey = "booking.get"

type GetBookingQuery struct {
	BookingID string
}

func (q GetBookingQuery) Key() string { return getBookingKey }

type GetBookingHandler struct {
	UoWFactory uow.UoWFactory
}

func (h *GetBookingHandler) Handle(ctx context.Context, q GetBookingQuery) (dto.BookingView, error) {
	unit, execCtx, cleanup, err := support.BeginReadOnlyUnit(ctx, h.UoWFactory)
	if err != nil {
		return dto.BookingView{}, err
	}
	if cleanup != nil {
		defer cleanup()
	}
	b, err := unit.Bookings().ByID(execCtx, domainbooking.BookingID(q.BookingID))
	if err != nil {
		return dto.BookingView{}, err
	}
	return dto.NewBookingView(b), nil
}

var _ queries.Handler[GetBookingQuery, dto.BookingView] = (*GetBookingHandler)(nil)
