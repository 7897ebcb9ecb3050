package booking

import (
	"time"

	"rentdeal/internal/domain/shared/money"
)

type BookingRequested struct {
	BookingID  BookingID   `json:"booking_id"`
	PropertyID string      `json:"property_id"`
	GuestID    string      `json:"guest_id"`
	OfferID    string      `json:"offer_id,omitempty"`
	Total      money.Money `json:"total"`
	At         time.Time   `json:"at"`
}

func (e BookingRequested) EventName() string     { return "booking.requested" }
func (e BookingRequested) AggregateID() string   { return string(e.BookingID) }
func (e BookingRequested) OccurredAt() time.Time { return e.At }

type BookingConfirmed struct {
	BookingID  BookingID   `json:"booking_id"`
	PaymentRef string      `json:"payment_ref"`
	Total      money.Money `json:"total"`
	At         time.Time   `json:"at"`
}

func (e BookingConfirmed) EventName() string     { return "booking.confirmed" }
func (e BookingConfirmed) AggregateID() string   { return string(e.BookingID) }
func (e BookingConfirmed) OccurredAt() time.Time { return e.At }

type BookingPaymentFailed struct {
	BookingID  BookingID `json:"booking_id"`
	PaymentRef string    `json:"payment_ref"`
	At         time.Time `json:"at"`
}

func (e BookingPaymentFailed) EventName() string     { return "booking.payment_failed" }
func (e BookingPaymentFailed) AggregateID() string   { return string(e.BookingID) }
func (e BookingPaymentFailed) OccurredAt() time.Time { return e.At }

type BookingCancelled struct {
	BookingID BookingID `json:"booking_id"`
	Reason    string    `json:"reason"`
	At        time.Time `json:"at"`
}

func (e BookingCancelled) EventName() string     { return "booking.cancelled" }
func (e BookingCancelled) AggregateID() string   { return string(e.BookingID) }
func (e BookingCancelled) OccurredAt() time.Time { return e.At }

type BookingCompleted struct {
	BookingID BookingID `json:"booking_id"`
	At        time.Time `json:"at"`
}

func (e BookingCompleted) EventName() string     { return "booking.completed" }
func (e BookingCompleted) AggregateID() string   { return string(e.BookingID) }
func (e BookingCompleted) OccurredAt() time.Time { return e.At }
