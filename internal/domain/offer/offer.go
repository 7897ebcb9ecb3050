package offer

import (
	"context"
	"strings"
	"time"
	"unicode/utf8"

	"rentdeal/internal/domain/shared/daterange"
	"rentdeal/internal/domain/shared/events"
	"rentdeal/internal/domain/shared/fault"
	"rentdeal/internal/domain/shared/money"
)

var (
	ErrOfferNotFound     = fault.New(fault.KindNotFound, "offer: not found")
	ErrInvalidTransition = fault.New(fault.KindInvalidTransition, "offer: invalid state transition")
	ErrNotParticipant    = fault.New(fault.KindForbidden, "offer: actor is not a negotiation participant")
	ErrReasonRequired    = fault.New(fault.KindValidation, "offer: rejection reason required")
	ErrMessageTooLong    = fault.New(fault.KindValidation, "offer: message exceeds limit")
	ErrInvalidPrice      = fault.New(fault.KindValidation, "offer: price must be positive")
)

// MaxMessageLen caps offer messages and rejection reasons. The UI enforces
// the same limit but client-side checks are advisory only.
const MaxMessageLen = 1000

type OfferID string

type OfferStatus string

const (
	StatusPending   OfferStatus = "PENDING"
	StatusAccepted  OfferStatus = "ACCEPTED"
	StatusRejected  OfferStatus = "REJECTED"
	StatusCountered OfferStatus = "COUNTERED"
)

// Offer is a guest's proposed price for a property stay, negotiated with the
// host until one side accepts, or the host rejects. ACCEPTED and REJECTED are
// terminal. CounterPrice is set if and only if the status is COUNTERED; once
// a side accepts, the settled amount moves to SettledPrice and the standing
// counter is cleared.
type Offer struct {
	ID             OfferID
	PropertyID     string
	ProposerID     string
	RecipientID    string
	ProposedPrice  money.Money
	CounterPrice   money.Money
	SettledPrice   money.Money
	Message        string
	CounterMessage string
	RejectReason   string
	Stay           daterange.DateRange
	Status         OfferStatus
	CreatedAt      time.Time
	UpdatedAt      time.Time
	Version        int64
	events.EventRecorder
}

type Repository interface {
	ByID(ctx context.Context, id OfferID) (*Offer, error)
	Save(ctx context.Context, o *Offer) error
	ListByRecipient(ctx context.Context, recipientID string, filter ListFilter) ([]*Offer, error)
}

// ListFilter narrows host offer listings. Zero values match everything.
type ListFilter struct {
	Status     OfferStatus
	PropertyID string
}

type CreateParams struct {
	ID            OfferID
	PropertyID    string
	ProposerID    string
	RecipientID   string
	ProposedPrice money.Money
	Message       string
	Stay          daterange.DateRange
	CreatedAt     time.Time
}

func NewOffer(params CreateParams) (*Offer, error) {
	if params.ID == "" || params.PropertyID == "" {
		return nil, fault.New(fault.KindValidation, "offer: id and property id required")
	}
	if params.ProposerID == "" || params.RecipientID == "" {
		return nil, fault.New(fault.KindValidation, "offer: proposer and recipient required")
	}
	if params.ProposerID == params.RecipientID {
		return nil, fault.New(fault.KindValidation, "offer: proposer cannot negotiate with themselves")
	}
	if !params.ProposedPrice.Positive() {
		return nil, ErrInvalidPrice
	}
	if utf8.RuneCountInString(params.Message) > MaxMessageLen {
		return nil, ErrMessageTooLong
	}
	if err := params.Stay.Validate(); err != nil {
		return nil, fault.Wrap(fault.KindValidation, "offer: invalid stay dates", err)
	}
	now := params.CreatedAt.UTC()
	o := &Offer{
		ID:            params.ID,
		PropertyID:    params.PropertyID,
		ProposerID:    params.ProposerID,
		RecipientID:   params.RecipientID,
		ProposedPrice: params.ProposedPrice,
		Message:       params.Message,
		Stay:          params.Stay,
		Status:        StatusPending,
		CreatedAt:     now,
		UpdatedAt:     now,
	}
	o.Record(OfferProposed{OfferID: o.ID, PropertyID: o.PropertyID, ProposerID: o.ProposerID, Price: o.ProposedPrice, At: now})
	return o, nil
}

// Terminal reports whether no further transition is permitted.
func (o *Offer) Terminal() bool {
	return o.Status == StatusAccepted || o.Status == StatusRejected
}

// AgreedPrice is the price the negotiation settled on: the accepted amount
// for a finalized offer, the standing counter when one exists, the original
// proposal otherwise.
func (o *Offer) AgreedPrice() money.Money {
	if !o.SettledPrice.IsZero() {
		return o.SettledPrice
	}
	if !o.CounterPrice.IsZero() {
		return o.CounterPrice
	}
	return o.ProposedPrice
}

// Accept finalizes the negotiation. A pending offer can only be accepted by
// the recipient host; a standing counter can be accepted by either side. The
// amount on the table moves to SettledPrice and the counter is cleared.
func (o *Offer) Accept(actorID string, now time.Time) error {
	switch o.Status {
	case StatusPending:
		if actorID != o.RecipientID {
			return ErrNotParticipant
		}
	case StatusCountered:
		if actorID != o.RecipientID && actorID != o.ProposerID {
			return ErrNotParticipant
		}
	default:
		return ErrInvalidTransition
	}
	settled := o.AgreedPrice()
	o.Status = StatusAccepted
	o.SettledPrice = settled
	o.CounterPrice = money.Money{}
	o.UpdatedAt = now.UTC()
	o.Record(OfferAccepted{OfferID: o.ID, ActorID: actorID, Price: settled, At: o.UpdatedAt})
	return nil
}

// Reject declines a pending offer with a mandatory reason. Rejecting a
// standing counter is not a valid move; the counter must be accepted or
// countered again.
func (o *Offer) Reject(actorID, reason string, now time.Time) error {
	reason = strings.TrimSpace(reason)
	if reason == "" {
		return ErrReasonRequired
	}
	if utf8.RuneCountInString(reason) > MaxMessageLen {
		return ErrMessageTooLong
	}
	if o.Status != StatusPending {
		return ErrInvalidTransition
	}
	if actorID != o.RecipientID {
		return ErrNotParticipant
	}
	o.Status = StatusRejected
	o.RejectReason = reason
	o.UpdatedAt = now.UTC()
	o.Record(OfferRejected{OfferID: o.ID, ActorID: actorID, Reason: reason, At: o.UpdatedAt})
	return nil
}

// Counter replaces the standing price proposal. The recipient host counters a
// pending offer; once countered, either side may re-counter.
func (o *Offer) Counter(actorID string, price money.Money, message string, now time.Time) error {
	if !price.Positive() {
		return ErrInvalidPrice
	}
	if price.Currency != o.ProposedPrice.Currency {
		return fault.New(fault.KindValidation, "offer: counter currency must match proposal")
	}
	if utf8.RuneCountInString(message) > MaxMessageLen {
		return ErrMessageTooLong
	}
	switch o.Status {
	case StatusPending:
		if actorID != o.RecipientID {
			return ErrNotParticipant
		}
	case StatusCountered:
		if actorID != o.RecipientID && actorID != o.ProposerID {
			return ErrNotParticipant
		}
	default:
		return ErrInvalidTransition
	}
	o.Status = StatusCountered
	o.CounterPrice = price
	o.CounterMessage = message
	o.UpdatedAt = now.UTC()
	o.Record(OfferCountered{OfferID: o.ID, ActorID: actorID, CounterPrice: price, At: o.UpdatedAt})
	return nil
}
