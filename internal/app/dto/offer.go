package dto

import (
	"strings"
	"time"

	domainoffer "rentdeal/internal/domain/offer"
)

// OfferView is the wire representation of an offer. Statuses travel lowercase
// to match the web client's contract.
type OfferView struct {
	ID             string    `json:"id"`
	PropertyID     string    `json:"property_id"`
	ProposerID     string    `json:"proposer_id"`
	RecipientID    string    `json:"recipient_id"`
	ProposedPrice  int64     `json:"proposed_price"`
	CounterPrice   *int64    `json:"counter_price,omitempty"`
	AgreedPrice    *int64    `json:"agreed_price,omitempty"`
	Currency       string    `json:"currency"`
	Message        string    `json:"message,omitempty"`
	CounterMessage string    `json:"counter_message,omitempty"`
	RejectReason   string    `json:"reject_reason,omitempty"`
	Status         string    `json:"status"`
	CheckIn        time.Time `json:"check_in"`
	CheckOut       time.Time `json:"check_out"`
	CreatedAt      time.Time `json:"created_at"`
	UpdatedAt      time.Time `json:"updated_at"`
}

func NewOfferView(o *domainoffer.Offer) OfferView {
	view := OfferView{
		ID:             string(o.ID),
		PropertyID:     o.PropertyID,
		ProposerID:     o.ProposerID,
		RecipientID:    o.RecipientID,
		ProposedPrice:  o.ProposedPrice.Amount,
		Currency:       o.ProposedPrice.Currency,
		Message:        o.Message,
		CounterMessage: o.CounterMessage,
		RejectReason:   o.RejectReason,
		Status:         strings.ToLower(string(o.Status)),
		CheckIn:        o.Stay.CheckIn,
		CheckOut:       o.Stay.CheckOut,
		CreatedAt:      o.CreatedAt,
		UpdatedAt:      o.UpdatedAt,
	}
	if !o.CounterPrice.IsZero() {
		amount := o.CounterPrice.Amount
		view.CounterPrice = &amount
	}
	if !o.SettledPrice.IsZero() {
		amount := o.SettledPrice.Amount
		view.AgreedPrice = &amount
	}
	return view
}

// HostOfferCollection backs the host inbox listing.
type HostOfferCollection struct {
	Items []OfferView `json:"items"`
	Total int         `json:"total"`
}
