package ginserver

import (
	"net/http"
	"strconv"
	"time"

	gin "github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"rentdeal/internal/app/commands"
	"rentdeal/internal/app/dto"
	negotiationapp "rentdeal/internal/app/handlers/negotiation"
	"rentdeal/internal/app/queries"
	"rentdeal/internal/domain/shared/fault"
)

type OfferHandler struct {
	Commands commands.Bus
	Queries  queries.Bus
}

// HostOffers serves GET /offers/host?status=&property_id=&count_only=.
func (h OfferHandler) HostOffers(c *gin.Context) {
	host, ok := actorID(c)
	if !ok {
		return
	}
	countOnly, err := strconv.ParseBool(c.DefaultQuery("count_only", "false"))
	if err != nil {
		respondError(c, fault.New(fault.KindValidation, "count_only must be a boolean"))
		return
	}
	q := negotiationapp.ListHostOffersQuery{
		HostID:     host,
		Status:     c.Query("status"),
		PropertyID: c.Query("property_id"),
		CountOnly:  countOnly,
	}
	result, err := queries.Ask[negotiationapp.ListHostOffersQuery, dto.HostOfferCollection](c.Request.Context(), h.Queries, q)
	if err != nil {
		respondError(c, err)
		return
	}
	respondOK(c, http.StatusOK, "offers retrieved", result)
}

func (h OfferHandler) Get(c *gin.Context) {
	q := negotiationapp.GetOfferQuery{OfferID: c.Param("id")}
	result, err := queries.Ask[negotiationapp.GetOfferQuery, dto.OfferView](c.Request.Context(), h.Queries, q)
	if err != nil {
		respondError(c, err)
		return
	}
	respondOK(c, http.StatusOK, "offer retrieved", result)
}

type proposeOfferRequest struct {
	PropertyID    string    `json:"property_id"`
	RecipientID   string    `json:"recipient_id"`
	ProposedPrice int64     `json:"proposed_price"`
	Currency      string    `json:"currency"`
	Message       string    `json:"message"`
	CheckIn       time.Time `json:"check_in"`
	CheckOut      time.Time `json:"check_out"`
}

func (h OfferHandler) Propose(c *gin.Context) {
	actor, ok := actorID(c)
	if !ok {
		return
	}
	var req proposeOfferRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondError(c, fault.Wrap(fault.KindValidation, "invalid offer payload", err))
		return
	}
	cmd := negotiationapp.ProposeOfferCommand{
		CommandID:       uuid.NewString(),
		PropertyID:      req.PropertyID,
		ProposerID:      actor,
		RecipientID:     req.RecipientID,
		ProposedPrice:   req.ProposedPrice,
		Currency:        req.Currency,
		Message:         req.Message,
		CheckIn:         req.CheckIn,
		CheckOut:        req.CheckOut,
		IdempotencyKeyV: c.GetHeader("Idempotency-Key"),
	}
	result, err := commands.Dispatch[negotiationapp.ProposeOfferCommand, *negotiationapp.ProposeOfferResult](c.Request.Context(), h.Commands, cmd)
	if err != nil {
		respondError(c, err)
		return
	}
	respondOK(c, http.StatusCreated, "offer proposed", result.Offer)
}

func (h OfferHandler) Accept(c *gin.Context) {
	h.respond(c, negotiationapp.ActionAccept)
}

func (h OfferHandler) Reject(c *gin.Context) {
	h.respond(c, negotiationapp.ActionReject)
}

func (h OfferHandler) Counter(c *gin.Context) {
	h.respond(c, negotiationapp.ActionCounter)
}

type respondOfferRequest struct {
	Reason         string `json:"reason"`
	CounterOffer   int64  `json:"counter_offer"`
	CounterMessage string `json:"counter_message"`
}

func (h OfferHandler) respond(c *gin.Context, action negotiationapp.Action) {
	actor, ok := actorID(c)
	if !ok {
		return
	}
	var req respondOfferRequest
	if c.Request.ContentLength > 0 {
		if err := c.ShouldBindJSON(&req); err != nil {
			respondError(c, fault.Wrap(fault.KindValidation, "invalid action payload", err))
			return
		}
	}
	cmd := negotiationapp.RespondToOfferCommand{
		OfferID:         c.Param("id"),
		ActorID:         actor,
		Action:          action,
		CounterPrice:    req.CounterOffer,
		CounterMessage:  req.CounterMessage,
		Reason:          req.Reason,
		IdempotencyKeyV: c.GetHeader("Idempotency-Key"),
	}
	result, err := commands.Dispatch[negotiationapp.RespondToOfferCommand, *negotiationapp.RespondToOfferResult](c.Request.Context(), h.Commands, cmd)
	if err != nil {
		respondError(c, err)
		return
	}
	respondOK(c, http.StatusOK, "offer "+result.Offer.Status, result.Offer)
}
