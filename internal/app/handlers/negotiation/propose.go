package negotiation

import (
	"context"
	"time"

	"rentdeal/internal/app/commands"
	"rentdeal/internal/app/dto"
	"rentdeal/internal/app/middleware"
	"rentdeal/internal/app/outbox"
	"rentdeal/internal/app/uow"
	domainoffer "rentdeal/internal/domain/offer"
	domainrange "rentdeal/internal/domain/shared/daterange"
	"rentdeal/internal/domain/shared/fault"
	"rentdeal/internal/domain/shared/money"
)

const proposeOfferKey = "offer.propose"

// ProposeOfferCommand opens a negotiation: a guest proposes a price for a
// property stay to its host.
type ProposeOfferCommand struct {
	CommandID       string
	PropertyID      string
	ProposerID      string
	RecipientID     string
	ProposedPrice   int64
	Currency        string
	Message         string
	CheckIn         time.Time
	CheckOut        time.Time
	IdempotencyKeyV string
}

func (c ProposeOfferCommand) Key() string { return proposeOfferKey }

// Validate runs the cheap shape checks before any transaction is opened.
func (c ProposeOfferCommand) Validate() error {
	if c.CommandID == "" {
		return fault.New(fault.KindValidation, "negotiation: command id required")
	}
	if c.PropertyID == "" {
		return fault.New(fault.KindValidation, "negotiation: property id required")
	}
	if c.ProposerID == "" {
		return fault.New(fault.KindForbidden, "negotiation: proposer identity required")
	}
	if c.RecipientID == "" {
		return fault.New(fault.KindValidation, "negotiation: recipient required")
	}
	if c.ProposedPrice <= 0 {
		return fault.New(fault.KindValidation, "negotiation: proposed price must be positive")
	}
	return nil
}

func (c ProposeOfferCommand) IdempotencyKey() string { return c.IdempotencyKeyV }

func (c ProposeOfferCommand) ResultPrototype() any { return &ProposeOfferResult{} }

type ProposeOfferResult struct {
	Offer dto.OfferView `json:"offer"`
}

type ProposeOfferHandler struct {
	UoWFactory uow.UoWFactory
	Outbox     outbox.Outbox
	Encoder    outbox.EventEncoder
}

func (h *ProposeOfferHandler) Handle(ctx context.Context, cmd ProposeOfferCommand) (*ProposeOfferResult, error) {
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

	stay, err := domainrange.New(cmd.CheckIn, cmd.CheckOut)
	if err != nil {
		return nil, fault.Wrap(fault.KindValidation, "negotiation: invalid stay dates", err)
	}
	price, err := money.New(cmd.ProposedPrice, cmd.Currency)
	if err != nil {
		return nil, fault.Wrap(fault.KindValidation, "negotiation: invalid price", err)
	}

	o, err := domainoffer.NewOffer(domainoffer.CreateParams{
		ID:            domainoffer.OfferID(cmd.CommandID),
		PropertyID:    cmd.PropertyID,
		ProposerID:    cmd.ProposerID,
		RecipientID:   cmd.RecipientID,
		ProposedPrice: price,
		Message:       cmd.Message,
		Stay:          stay,
		CreatedAt:     time.Now().UTC(),
	})
	if err != nil {
		return nil, err
	}

	if err := unit.Offers().Save(ctx, o); err != nil {
		return nil, err
	}

	pending := o.PendingEvents()
	o.ClearEvents()
	if err := outbox.RecordDomainEvents(ctx, h.Outbox, h.encoder(), pending); err != nil {
		return nil, err
	}

	if managed {
		if err := unit.Commit(ctx); err != nil {
			return nil, err
		}
		committed = true
	}
	return &ProposeOfferResult{Offer: dto.NewOfferView(o)}, nil
}

func (h *ProposeOfferHandler) encoder() outbox.EventEncoder {
	if h.Encoder != nil {
		return h.Encoder
	}
	return outbox.JSONEventEncoder{}
}

var _ commands.Handler[ProposeOfferCommand, *ProposeOfferResult] = (*ProposeOfferHandler)(nil)
var _ middleware.IdempotentCommand = (*ProposeOfferCommand)(nil)
