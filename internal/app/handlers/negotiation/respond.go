package negotiation

import (
	"context"
	"errors"
	"log/slog"
	"strings"
	"time"

	"rentdeal/internal/app/commands"
	"rentdeal/internal/app/dto"
	"rentdeal/internal/app/middleware"
	"rentdeal/internal/app/outbox"
	"rentdeal/internal/app/uow"
	domainoffer "rentdeal/internal/domain/offer"
	"rentdeal/internal/domain/shared/fault"
	"rentdeal/internal/domain/shared/money"
)

const respondOfferKey = "offer.respond"

// Action is the host or guest move applied to an offer.
type Action string

const (
	ActionAccept  Action = "accept"
	ActionReject  Action = "reject"
	ActionCounter Action = "counter"
)

// RespondToOfferCommand carries one negotiation move. Exactly one offer
// mutation is persisted per successful dispatch.
type RespondToOfferCommand struct {
	OfferID         string
	ActorID         string
	Action          Action
	CounterPrice    int64
	CounterMessage  string
	Reason          string
	IdempotencyKeyV string
}

func (c RespondToOfferCommand) Key() string { return respondOfferKey }

func (c RespondToOfferCommand) Validate() error {
	if strings.TrimSpace(c.OfferID) == "" {
		return fault.New(fault.KindValidation, "negotiation: offer id required")
	}
	if strings.TrimSpace(c.ActorID) == "" {
		return fault.New(fault.KindForbidden, "negotiation: actor identity required")
	}
	switch c.Action {
	case ActionAccept, ActionReject, ActionCounter:
		return nil
	default:
		return fault.Newf(fault.KindValidation, "negotiation: unknown action %q", c.Action)
	}
}

func (c RespondToOfferCommand) IdempotencyKey() string { return c.IdempotencyKeyV }

func (c RespondToOfferCommand) ResultPrototype() any { return &RespondToOfferResult{} }

type RespondToOfferResult struct {
	Offer dto.OfferView `json:"offer"`
}

type RespondToOfferHandler struct {
	UoWFactory uow.UoWFactory
	Outbox     outbox.Outbox
	Encoder    outbox.EventEncoder
	Logger     *slog.Logger
}

var ErrUnitOfWorkRequired = errors.New("negotiation: unit of work required")

func (h *RespondToOfferHandler) Handle(ctx context.Context, cmd RespondToOfferCommand) (*RespondToOfferResult, error) {
	if strings.TrimSpace(cmd.OfferID) == "" {
		return nil, fault.New(fault.KindValidation, "negotiation: offer id required")
	}
	if strings.TrimSpace(cmd.ActorID) == "" {
		return nil, fault.New(fault.KindForbidden, "negotiation: actor identity required")
	}

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

	// The store rejects stale writes via the version precondition. On a lost
	// race the offer is re-read once and the move re-applied: the loser of
	// two racing accepts then observes the terminal state and gets
	// InvalidTransition instead of silently succeeding twice.
	var saved *domainoffer.Offer
	for attempt := 0; ; attempt++ {
		o, err := unit.Offers().ByID(ctx, domainoffer.OfferID(cmd.OfferID))
		if err != nil {
			return nil, err
		}
		now := time.Now().UTC()
		if err := applyAction(o, cmd, now); err != nil {
			return nil, err
		}
		err = unit.Offers().Save(ctx, o)
		if err == nil {
			saved = o
			break
		}
		if errors.Is(err, uow.ErrConflict) && attempt == 0 {
			continue
		}
		if errors.Is(err, uow.ErrConflict) {
			return nil, fault.Wrap(fault.KindUnavailable, "negotiation: offer contended, retry", err)
		}
		return nil, err
	}

	pending := saved.PendingEvents()
	saved.ClearEvents()
	if err := outbox.RecordDomainEvents(ctx, h.Outbox, h.encoder(), pending); err != nil {
		return nil, err
	}

	if managed {
		if err := unit.Commit(ctx); err != nil {
			return nil, err
		}
		committed = true
	}

	if h.Logger != nil {
		h.Logger.Info("offer responded", "offer_id", saved.ID, "action", cmd.Action, "status", saved.Status)
	}
	return &RespondToOfferResult{Offer: dto.NewOfferView(saved)}, nil
}

func applyAction(o *domainoffer.Offer, cmd RespondToOfferCommand, now time.Time) error {
	switch cmd.Action {
	case ActionAccept:
		return o.Accept(cmd.ActorID, now)
	case ActionReject:
		return o.Reject(cmd.ActorID, cmd.Reason, now)
	case ActionCounter:
		price := money.Money{Amount: cmd.CounterPrice, Currency: o.ProposedPrice.Currency}
		return o.Counter(cmd.ActorID, price, cmd.CounterMessage, now)
	default:
		return fault.Newf(fault.KindValidation, "negotiation: unknown action %q", cmd.Action)
	}
}

func (h *RespondToOfferHandler) encoder() outbox.EventEncoder {
	if h.Encoder != nil {
		return h.Encoder
	}
	return outbox.JSONEventEncoder{}
}

var _ commands.Handler[RespondToOfferCommand, *RespondToOfferResult] = (*RespondToOfferHandler)(nil)
var _ middleware.IdempotentCommand = (*RespondToOfferCommand)(nil)
