package booking

import (
	"context"
	"errors"
	"strings"
	"time"

	"rentdeal/internal/app/commands"
	"rentdeal/internal/app/dto"
	"rentdeal/internal/app/middleware"
	"rentdeal/internal/app/outbox"
	"rentdeal/internal/app/uow"
	domainbooking "rentdeal/internal/domain/booking"
	"rentdeal/internal/domain/shared/fault"
)

const cancelBookingKey = "booking.cancel"

// CancelBookingCommand cancels a pending booking. Either negotiation party
// may cancel; confirmed bookings are out of scope for this flow.
type CancelBookingCommand struct {
	BookingID       string
	ActorID         string
	Reason          string
	IdempotencyKeyV string
}

func (c CancelBookingCommand) Key() string { return cancelBookingKey }

func (c CancelBookingCommand) Validate() error {
	if strings.TrimSpace(c.BookingID) == "" {
		return fault.New(fault.KindValidation, "booking: booking id required")
	}
	if strings.TrimSpace(c.ActorID) == "" {
		return fault.New(fault.KindForbidden, "booking: actor identity required")
	}
	return nil
}

func (c CancelBookingCommand) IdempotencyKey() string { return c.IdempotencyKeyV }

func (c CancelBookingCommand) ResultPrototype() any { return &CancelBookingResult{} }

type CancelBookingResult struct {
	Booking dto.BookingView `json:"booking"`
}

type CancelBookingHandler struct {
	UoWFactory uow.UoWFactory
	Outbox     outbox.Outbox
	Encoder    outbox.EventEncoder
}

func (h *CancelBookingHandler) Handle(ctx context.Context, cmd CancelBookingCommand) (*CancelBookingResult, error) {
	if strings.TrimSpace(cmd.BookingID) == "" {
		return nil, fault.New(fault.KindValidation, "booking: booking id required")
	}
	if strings.TrimSpace(cmd.ActorID) == "" {
		return nil, fault.New(fault.KindForbidden, "booking: actor identity required")
	}

	unit, ok := uow.FromContext(ctx)
	managed := false
	committed := false
	if !ok {
		if h.UoWFactory == nil {
			return nil, ErrUnitOfWorkRequired
		}
		var err error
		unit, err = h.UoWFactory.Begin(ctx, uow.TxOptions{})
		if err != nil {
			return nil, err
		}
		ctx = uow.ContextWithUnitOfWork(ctx, unit)
		managed = true
	}
	if managed {
		defer func() {
			if !committed {
				_ = unit.Rollback(ctx)
			}
		}()
	}

	var saved *domainbooking.Booking
	for attempt := 0; ; attempt++ {
		b, err := unit.Bookings().ByID(ctx, domainbooking.BookingID(cmd.BookingID))
		if err != nil {
			return nil, err
		}
		if cmd.ActorID != b.GuestID && cmd.ActorID != b.HostID {
			return nil, fault.New(fault.KindForbidden, "booking: actor is not a booking party")
		}
		if err := b.Cancel(cmd.Reason, time.Now().UTC()); err != nil {
			return nil, err
		}
		err = unit.Bookings().Save(ctx, b)
		if err == nil {
			saved = b
			break
		}
		if errors.Is(err, uow.ErrConflict) && attempt == 0 {
			continue
		}
		if errors.Is(err, uow.ErrConflict) {
			return nil, fault.Wrap(fault.KindUnavailable, "booking: contended, retry", err)
		}
		return nil, err
	}

	pending := saved.PendingEvents()
	saved.ClearEvents()
	if err := outbox.RecordDomainEvents(ctx, h.Outbox, h.encoder(), pending); err != nil {
		return nil, err
	}

	if managed {
		if err := unit.Commit(ctx); err != nil {
			return nil, err
		}
		committed = true
	}
	return &CancelBookingResult{Booking: dto.NewBookingView(saved)}, nil
}

func (h *CancelBookingHandler) encoder() outbox.EventEncoder {
	if h.Encoder != nil {
		return h.Encoder
	}
	return outbox.JSONEventEncoder{}
}

var _ commands.Handler[CancelBookingCommand, *CancelBookingResult] = (*CancelBookingHandler)(nil)
var _ middleware.IdempotentCommand = (*CancelBookingCommand)(nil)
