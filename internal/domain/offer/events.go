package offer

import (
	"time"

	"rentdeal/internal/domain/shared/money"
)

type OfferProposed struct {
	OfferID    OfferID     `json:"offer_id"`
	PropertyID string      `json:"property_id"`
	ProposerID string      `json:"proposer_id"`
	Price      money.Money `json:"price"`
	At         time.Time   `json:"at"`
}

func (e OfferProposed) EventName() string     { return "offer.proposed" }
func (e OfferProposed) AggregateID() string   { return string(e.OfferID) }
func (e OfferProposed) OccurredAt() time.Time { return e.At }

type OfferAccepted struct {
	OfferID OfferID     `json:"offer_id"`
	ActorID string      `json:"actor_id"`
	Price   money.Money `json:"price"`
	At      time.Time   `json:"at"`
}

func (e OfferAccepted) EventName() string     { return "offer.accepted" }
func (e OfferAccepted) AggregateID() string   { return string(e.OfferID) }
func (e OfferAccepted) OccurredAt() time.Time { return e.At }

type OfferRejected struct {
	OfferID OfferID   `json:"offer_id"`
	ActorID string    `json:"actor_id"`
	Reason  string    `json:"reason"`
	At      time.Time `json:"at"`
}

func (e OfferRejected) EventName() string     { return "offer.rejected" }
func (e OfferRejected) AggregateID() string   { return string(e.OfferID) }
func (e OfferRejected) OccurredAt() time.Time { return e.At }

type OfferCountered struct {
	OfferID      OfferID     `json:"offer_id"`
	ActorID      string      `json:"actor_id"`
	CounterPrice money.Money `json:"counter_price"`
	At           time.Time   `json:"at"`
}

func (e OfferCountered) EventName() string     { return "offer.countered" }
func (e OfferCountered) AggregateID() string   { return string(e.OfferID) }
func (e OfferCountered) OccurredAt() time.Time { return e.At }
