package ginserver

import (
	"net/http"
	"time"

	gin "github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"rentdeal/internal/app/commands"
	"rentdeal/internal/app/dto"
	bookingapp "rentdeal/internal/app/handlers/booking"
	"rentdeal/internal/app/queries"
	"rentdeal/internal/domain/shared/fault"
)

type BookingHandler struct {
	Commands commands.Bus
	Queries  queries.Bus
}

func (h BookingHandler) Get(c *gin.Context) {
	q := bookingapp.GetBookingQuery{BookingID: c.Param("id")}
	result, err := queries.Ask[bookingapp.GetBookingQuery, dto.BookingView](c.Request.Context(), h.Queries, q)
	if err != nil {
		respondError(c, err)
		return
	}
	respondOK(c, http.StatusOK, "booking retrieved", result)
}

type createBookingRequest struct {
	PropertyID      string    `json:"property_id"`
	HostID          string    `json:"host_id"`
	OfferID         string    `json:"offer_id"`
	CheckIn         time.Time `json:"check_in"`
	CheckOut        time.Time `json:"check_out"`
	Guests          int       `json:"guests"`
	TotalPrice      int64     `json:"total_price"`
	Currency        string    `json:"currency"`
	SpecialRequests string    `json:"special_requests"`
}

func (h BookingHandler) Create(c *gin.Context) {
	actor, ok := actorID(c)
	if !ok {
		return
	}
	var req createBookingRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondError(c, fault.Wrap(fault.KindValidation, "invalid booking payload", err))
		return
	}
	cmd := bookingapp.RequestBookingCommand{
		CommandID:       uuid.NewString(),
		PropertyID:      req.PropertyID,
		GuestID:         actor,
		HostID:          req.HostID,
		OfferID:         req.OfferID,
		CheckIn:         req.CheckIn,
		CheckOut:        req.CheckOut,
		Guests:          req.Guests,
		TotalPrice:      req.TotalPrice,
		Currency:        req.Currency,
		SpecialRequests: req.SpecialRequests,
		IdempotencyKeyV: c.GetHeader("Idempotency-Key"),
	}
	result, err := commands.Dispatch[bookingapp.RequestBookingCommand, *bookingapp.RequestBookingResult](c.Request.Context(), h.Commands, cmd)
	if err != nil {
		respondError(c, err)
		return
	}
	respondOK(c, http.StatusCreated, "booking requested", result.Booking)
}

type cancelBookingRequest struct {
	Reason string `json:"reason"`
}

// Cancel serves PUT /bookings/:id/cancel.
func (h BookingHandler) Cancel(c *gin.Context) {
	actor, ok := actorID(c)
	if !ok {
		return
	}
	var req cancelBookingRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondError(c, fault.Wrap(fault.KindValidation, "invalid cancel payload", err))
		return
	}
	cmd := bookingapp.CancelBookingCommand{
		BookingID:       c.Param("id"),
		ActorID:         actor,
		Reason:          req.Reason,
		IdempotencyKeyV: c.GetHeader("Idempotency-Key"),
	}
	result, err := commands.Dispatch[bookingapp.CancelBookingCommand, *bookingapp.CancelBookingResult](c.Request.Context(), h.Commands, cmd)
	if err != nil {
		respondError(c, err)
		return
	}
	respondOK(c, http.StatusOK, "booking cancelled", result.Booking)
}
