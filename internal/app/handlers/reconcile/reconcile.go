package reconcile

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
	"rentdeal/internal/app/policies"
	"rentdeal/internal/app/uow"
	domainbooking "rentdeal/internal/domain/booking"
	"rentdeal/internal/domain/shared/fault"
)

const reconcilePaymentKey = "payment.reconcile"

var ErrUnitOfWorkRequired = errors.New("reconcile: unit of work required")

// ReconcilePaymentCommand aligns a booking with the gateway's authoritative
// verdict for one payment reference. Safe to retry: repeated calls with an
// already applied reference report AlreadyReconciled and change nothing.
type ReconcilePaymentCommand struct {
	BookingID       string
	Reference       string
	IdempotencyKeyV string
}

func (c ReconcilePaymentCommand) Key() string { return reconcilePaymentKey }

func (c ReconcilePaymentCommand) Validate() error {
	if strings.TrimSpace(c.BookingID) == "" || strings.TrimSpace(c.Reference) == "" {
		return fault.New(fault.KindValidation, "reconcile: booking id and payment reference required")
	}
	return nil
}

func (c ReconcilePaymentCommand) IdempotencyKey() string { return c.IdempotencyKeyV }

func (c ReconcilePaymentCommand) ResultPrototype() any { return &ReconcilePaymentResult{} }

type ReconcilePaymentResult struct {
	Booking           dto.BookingView `json:"booking"`
	Reference         string          `json:"reference"`
	AlreadyReconciled bool            `json:"already_reconciled"`
}

type ReconcilePaymentHandler struct {
	UoWFactory uow.UoWFactory
	Verifier   policies.PaymentVerifier
	Outbox     outbox.Outbox
	Encoder    outbox.EventEncoder
	Logger     *slog.Logger
}

func (h *ReconcilePaymentHandler) Handle(ctx context.Context, cmd ReconcilePaymentCommand) (*ReconcilePaymentResult, error) {
	bookingID := strings.TrimSpace(cmd.BookingID)
	reference := strings.TrimSpace(cmd.Reference)
	if bookingID == "" || reference == "" {
		return nil, fault.New(fault.KindValidation, "reconcile: booking id and payment reference required")
	}
	if h.Verifier == nil {
		return nil, errors.New("reconcile: payment verifier not configured")
	}

	// Gateway first: no booking mutation may happen on a failed fetch.
	verification, err := h.Verifier.Verify(ctx, reference)
	if err != nil {
		return nil, err
	}

	unit, ok := uow.FromContext(ctx)
	managed := false
	committed := false
	if !ok {
		if h.UoWFactory == nil {
			return nil, ErrUnitOfWorkRequired
		}
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

	var result *ReconcilePaymentResult
	for attempt := 0; ; attempt++ {
		b, err := unit.Bookings().ByID(ctx, domainbooking.BookingID(bookingID))
		if err != nil {
			return nil, err
		}

		if verification.Succeeded() && b.Settled() {
			result = &ReconcilePaymentResult{Booking: dto.NewBookingView(b), Reference: reference, AlreadyReconciled: true}
			break
		}

		now := time.Now().UTC()
		if verification.Succeeded() {
			// The gateway amount is authoritative; a disagreement with the
			// booking total is surfaced to an operator, never auto-resolved.
			if !verification.Amount.Equal(b.Total) {
				return nil, fault.Newf(fault.KindPaymentMismatch,
					"reconcile: gateway settled %s but booking %s expects %s",
					verification.Amount, b.ID, b.Total)
			}
			if err := b.ConfirmPayment(reference, now); err != nil {
				return nil, err
			}
		} else {
			if err := b.FailPayment(reference, now); err != nil {
				return nil, err
			}
		}

		err = unit.Bookings().Save(ctx, b)
		if err == nil {
			pending := b.PendingEvents()
			b.ClearEvents()
			if err := outbox.RecordDomainEvents(ctx, h.Outbox, h.encoder(), pending); err != nil {
				return nil, err
			}
			result = &ReconcilePaymentResult{Booking: dto.NewBookingView(b), Reference: reference}
			break
		}
		if errors.Is(err, uow.ErrConflict) && attempt == 0 {
			continue
		}
		if errors.Is(err, uow.ErrConflict) {
			return nil, fault.Wrap(fault.KindUnavailable, "reconcile: booking contended, retry", err)
		}
		return nil, err
	}

	if managed {
		if err := unit.Commit(ctx); err != nil {
			return nil, err
		}
		committed = true
	}

	if h.Logger != nil {
		h.Logger.Info("payment reconciled",
			"booking_id", bookingID,
			"reference", reference,
			"gateway_status", verification.Status,
			"already_reconciled", result.AlreadyReconciled,
		)
	}
	return result, nil
}

func (h *ReconcilePaymentHandler) encoder() outbox.EventEncoder {
	if h.Encoder != nil {
		return h.Encoder
	}
	return outbox.JSONEventEncoder{}
}

var _ commands.Handler[ReconcilePaymentCommand, *ReconcilePaymentResult] = (*ReconcilePaymentHandler)(nil)
var _ middleware.IdempotentCommand = (*ReconcilePaymentCommand)(nil)
