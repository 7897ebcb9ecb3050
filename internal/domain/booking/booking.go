package booking

import (
	"context"
	"strings"
	"time"

	"rentdeal/internal/domain/shared/daterange"
	"rentdeal/internal/domain/shared/events"
	"rentdeal/internal/domain/shared/fault"
	"rentdeal/internal/domain/shared/money"
)

var (
	ErrBookingNotFound = fault.New(fault.KindNotFound, "booking: not found")
	ErrInvalidState    = fault.New(fault.KindInvalidTransition, "booking: invalid state transition")
	ErrInvalidGuests   = fault.New(fault.KindValidation, "booking: guests count must be positive")
	ErrReasonRequired  = fault.New(fault.KindValidation, "booking: cancellation reason required")
	ErrStayNotEnded    = fault.New(fault.KindInvalidTransition, "booking: stay has not ended yet")
	ErrOfferConsumed   = fault.New(fault.KindInvalidTransition, "booking: offer already produced a booking")
)

type BookingID string

type Status string

const (
	StatusPending   Status = "PENDING"
	StatusConfirmed Status = "CONFIRMED"
	StatusCancelled Status = "CANCELLED"
	StatusCompleted Status = "COMPLETED"
)

type PaymentStatus string

const (
	PaymentPending PaymentStatus = "PENDING"
	PaymentPaid    PaymentStatus = "PAID"
	PaymentFailed  PaymentStatus = "FAILED"
)

// Booking is a reservation whose confirmation depends on a successful payment.
// Its state is the (Status, PaymentStatus) pair; only a handful of pairs are
// reachable: (PENDING,PENDING), (PENDING,FAILED), (CONFIRMED,PAID),
// (CANCELLED,*), (COMPLETED,PAID). CANCELLED and (COMPLETED,PAID) are
// terminal.
type Booking struct {
	ID              BookingID
	PropertyID      string
	GuestID         string
	HostID          string
	OfferID         string
	Stay            daterange.DateRange
	Guests          int
	Total           money.Money
	Status          Status
	PaymentStatus   PaymentStatus
	PaymentRef      string
	SpecialRequests string
	CancelReason    string
	CreatedAt       time.Time
	UpdatedAt       time.Time
	Version         int64
	events.EventRecorder
}

type Repository interface {
	ByID(ctx context.Context, id BookingID) (*Booking, error)
	// ByOfferID locates the booking an accepted offer produced, if any.
	ByOfferID(ctx context.Context, offerID string) (*Booking, error)
	Save(ctx context.Context, b *Booking) error
	ListByGuest(ctx context.Context, guestID string) ([]*Booking, error)
}

type CreateParams struct {
	ID              BookingID
	PropertyID      string
	GuestID         string
	HostID          string
	OfferID         string
	Stay            daterange.DateRange
	Guests          int
	Total           money.Money
	SpecialRequests string
	CreatedAt       time.Time
}

func NewBooking(params CreateParams) (*Booking, error) {
	if params.ID == "" || params.PropertyID == "" {
		return nil, fault.New(fault.KindValidation, "booking: id and property id required")
	}
	if params.GuestID == "" || params.HostID == "" {
		return nil, fault.New(fault.KindValidation, "booking: guest and host required")
	}
	if params.Guests <= 0 {
		return nil, ErrInvalidGuests
	}
	if !params.Total.Positive() {
		return nil, fault.New(fault.KindValidation, "booking: total must be positive")
	}
	if err := params.Stay.Validate(); err != nil {
		return nil, fault.Wrap(fault.KindValidation, "booking: invalid stay dates", err)
	}
	now := params.CreatedAt.UTC()
	b := &Booking{
		ID:              params.ID,
		PropertyID:      params.PropertyID,
		GuestID:         params.GuestID,
		HostID:          params.HostID,
		OfferID:         params.OfferID,
		Stay:            params.Stay,
		Guests:          params.Guests,
		Total:           params.Total,
		SpecialRequests: params.SpecialRequests,
		Status:          StatusPending,
		PaymentStatus:   PaymentPending,
		CreatedAt:       now,
		UpdatedAt:       now,
	}
	b.Record(BookingRequested{BookingID: b.ID, PropertyID: b.PropertyID, GuestID: b.GuestID, OfferID: b.OfferID, Total: b.Total, At: now})
	return b, nil
}

// Terminal reports whether no further transition is permitted.
func (b *Booking) Terminal() bool {
	return b.Status == StatusCancelled || b.Status == StatusCompleted
}

// Settled reports whether the payment side of this booking is finished:
// confirmed and paid. A settled booking must survive any further reconcile
// attempt untouched.
func (b *Booking) Settled() bool {
	return b.Status == StatusConfirmed && b.PaymentStatus == PaymentPaid
}

// ConfirmPayment moves the booking to (CONFIRMED, PAID). Only a pending
// booking awaiting or retrying payment can be confirmed.
func (b *Booking) ConfirmPayment(reference string, now time.Time) error {
	if reference == "" {
		return fault.New(fault.KindValidation, "booking: payment reference required")
	}
	if b.Status != StatusPending {
		return ErrInvalidState
	}
	if b.PaymentStatus != PaymentPending && b.PaymentStatus != PaymentFailed {
		return ErrInvalidState
	}
	b.Status = StatusConfirmed
	b.PaymentStatus = PaymentPaid
	b.PaymentRef = reference
	b.UpdatedAt = now.UTC()
	b.Record(BookingConfirmed{BookingID: b.ID, PaymentRef: reference, Total: b.Total, At: b.UpdatedAt})
	return nil
}

// FailPayment records a failed payment attempt without touching Status.
// Repeating the failure is a no-op transition kept valid so gateway retries
// do not error.
func (b *Booking) FailPayment(reference string, now time.Time) error {
	if b.Status != StatusPending {
		return ErrInvalidState
	}
	b.PaymentStatus = PaymentFailed
	b.PaymentRef = reference
	b.UpdatedAt = now.UTC()
	b.Record(BookingPaymentFailed{BookingID: b.ID, PaymentRef: reference, At: b.UpdatedAt})
	return nil
}

// Cancel is permitted from PENDING only, with any payment status. Confirmed
// bookings go through a separate cancellation policy flow.
func (b *Booking) Cancel(reason string, now time.Time) error {
	reason = strings.TrimSpace(reason)
	if reason == "" {
		return ErrReasonRequired
	}
	if b.Status != StatusPending {
		return ErrInvalidState
	}
	b.Status = StatusCancelled
	b.CancelReason = reason
	b.UpdatedAt = now.UTC()
	b.Record(BookingCancelled{BookingID: b.ID, Reason: reason, At: b.UpdatedAt})
	return nil
}

// Complete closes out a confirmed, paid booking once the stay has ended.
func (b *Booking) Complete(now time.Time) error {
	if b.Status != StatusConfirmed || b.PaymentStatus != PaymentPaid {
		return ErrInvalidState
	}
	if !b.Stay.Ended(now) {
		return ErrStayNotEnded
	}
	b.Status = StatusCompleted
	b.UpdatedAt = now.UTC()
	b.Record(BookingCompleted{BookingID: b.ID, At: b.UpdatedAt})
	return nil
}
