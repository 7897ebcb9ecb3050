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
	domainoffer "rentdeal/internal/domain/offer"
	domainrange "rentdeal/internal/domain/shared/daterange"
	"rentdeal/internal/domain/shared/fault"
	"rentdeal/internal/domain/shared/money"
)

const requestBookingKey = "booking.request"

var ErrUnitOfWorkRequired = errors.New("booking: unit of work required")

// RequestBookingCommand creates a booking in (PENDING, PENDING). When OfferID
// is set the booking is priced off the accepted offer, and a consumed offer
// cannot produce a second booking.
type RequestBookingCommand struct {
	CommandID       string
	PropertyID      string
	GuestID         string
	HostID          string
	OfferID         string
	CheckIn         time.Time
	CheckOut        time.Time
	Guests          int
	TotalPrice      int64
	Currency        string
	SpecialRequests string
	IdempotencyKeyV string
}

func (c RequestBookingCommand) Key() string { return requestBookingKey }

func (c RequestBookingCommand) Validate() error {
	if c.CommandID == "" {
		return fault.New(fault.KindValidation, "booking: command id required")
	}
	if c.GuestID == "" {
		return fault.New(fault.KindForbidden, "booking: guest identity required")
	}
	if c.Guests <= 0 {
		return fault.New(fault.KindValidation, "booking: guests count must be positive")
	}
	return nil
}

func (c RequestBookingCommand) IdempotencyKey() string { return c.IdempotencyKeyV }

func (c RequestBookingCommand) ResultPrototype() any { return &RequestBookingResult{} }

type RequestBookingResult struct {
	Booking dto.BookingView `json:"booking"`
}

type RequestBookingHandler struct {
	UoWFactory uow.UoWFactory
	Outbox     outbox.Outbox
	Encoder    outbox.EventEncoder
}

func (h *RequestBookingHandler) Handle(ctx context.Context, cmd RequestBookingCommand) (*RequestBookingResult, error) {
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

	now := time.Now().UTC()
	params := domainbooking.CreateParams{
		ID:              domainbooking.BookingID(cmd.CommandID),
		PropertyID:      cmd.PropertyID,
		GuestID:         cmd.GuestID,
		HostID:          cmd.HostID,
		Guests:          cmd.Guests,
		SpecialRequests: cmd.SpecialRequests,
		CreatedAt:       now,
	}

	if offerID := strings.TrimSpace(cmd.OfferID); offerID != "" {
		o, err := unit.Offers().ByID(ctx, domainoffer.OfferID(offerID))
		if err != nil {
			return nil, err
		}
		if o.Status != domainoffer.StatusAccepted {
			return nil, fault.New(fault.KindInvalidTransition, "booking: offer is not accepted")
		}
		if cmd.GuestID != o.ProposerID {
			return nil, fault.New(fault.KindForbidden, "booking: only the offer proposer may book it")
		}
		if _, err := unit.Bookings().ByOfferID(ctx, offerID); err == nil {
			return nil, domainbooking.ErrOfferConsumed
		} else if !errors.Is(err, domainbooking.ErrBookingNotFound) {
			return nil, err
		}
		// Writing the offer back under its version precondition means two
		// requests that both passed the consumption check cannot both win:
		// the loser's stale version surfaces here.
		if err := unit.Offers().Save(ctx, o); err != nil {
			if errors.Is(err, uow.ErrConflict) {
				return nil, domainbooking.ErrOfferConsumed
			}
			return nil, err
		}
		params.OfferID = offerID
		params.PropertyID = o.PropertyID
		params.HostID = o.RecipientID
		params.Stay = o.Stay
		params.Total = o.AgreedPrice()
	} else {
		stay, err := domainrange.New(cmd.CheckIn, cmd.CheckOut)
		if err != nil {
			return nil, fault.Wrap(fault.KindValidation, "booking: invalid stay dates", err)
		}
		total, err := money.New(cmd.TotalPrice, cmd.Currency)
		if err != nil {
			return nil, fault.Wrap(fault.KindValidation, "booking: invalid total price", err)
		}
		params.Stay = stay
		params.Total = total
	}

	b, err := domainbooking.NewBooking(params)
	if err != nil {
		return nil, err
	}
	if err := unit.Bookings().Save(ctx, b); err != nil {
		return nil, err
	}

	pending := b.PendingEvents()
	b.ClearEvents()
	if err := outbox.RecordDomainEvents(ctx, h.Outbox, h.encoder(), pending); err != nil {
		return nil, err
	}

	if managed {
		if err := unit.Commit(ctx); err != nil {
			return nil, err
		}
		committed = true
	}
	return &RequestBookingResult{Booking: dto.NewBookingView(b)}, nil
}

func (h *RequestBookingHandler) encoder() outbox.EventEncoder {
	if h.Encoder != nil {
		return h.Encoder
	}
	return outbox.JSONEventEncoder{}
}

var _ commands.Handler[RequestBookingCommand, *RequestBookingResult] = (*RequestBookingHandler)(nil)
var _ middleware.IdempotentCommand = (*RequestBookingCommand)(nil)
