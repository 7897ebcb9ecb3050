package dto

import (
	"strings"
	"time"

	domainbooking "rentdeal/internal/domain/booking"
)

type BookingView struct {
	ID              string    `json:"id"`
	PropertyID      string    `json:"property_id"`
	GuestID         string    `json:"user_id"`
	HostID          string    `json:"host_id"`
	OfferID         string    `json:"offer_id,omitempty"`
	Guests          int       `json:"guests"`
	CheckIn         time.Time `json:"check_in"`
	CheckOut        time.Time `json:"check_out"`
	TotalPrice      int64     `json:"total_price"`
	Currency        string    `json:"currency"`
	Status          string    `json:"status"`
	PaymentStatus   string    `json:"payment_status"`
	PaymentRef      string    `json:"payment_reference,omitempty"`
	SpecialRequests string    `json:"special_requests,omitempty"`
	CreatedAt       time.Time `json:"created_at"`
	UpdatedAt       time.Time `json:"updated_at"`
}

func NewBookingView(b *domainbooking.Booking) BookingView {
	return BookingView{
		ID:              string(b.ID),
		PropertyID:      b.PropertyID,
		GuestID:         b.GuestID,
		HostID:          b.HostID,
		OfferID:         b.OfferID,
		Guests:          b.Guests,
		CheckIn:         b.Stay.CheckIn,
		CheckOut:        b.Stay.CheckOut,
		TotalPrice:      b.Total.Amount,
		Currency:        b.Total.Currency,
		Status:          strings.ToLower(string(b.Status)),
		PaymentStatus:   strings.ToLower(string(b.PaymentStatus)),
		PaymentRef:      b.PaymentRef,
		SpecialRequests: b.SpecialRequests,
		CreatedAt:       b.CreatedAt,
		UpdatedAt:       b.UpdatedAt,
	}
}
