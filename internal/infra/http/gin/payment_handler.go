package ginserver

import (
	"net/http"

	gin "github.com/gin-gonic/gin"

	"rentdeal/internal/app/commands"
	reconcileapp "rentdeal/internal/app/handlers/reconcile"
	"rentdeal/internal/domain/shared/fault"
)

type PaymentHandler struct {
	Commands commands.Bus
}

// Verify serves GET /payments/verify?reference=&booking_id=. Reconciliation
// is keyed on the payment reference itself, so the page-load effect that
// fires this call can be repeated without double-applying a payment; no
// caller-supplied idempotency key is needed.
func (h PaymentHandler) Verify(c *gin.Context) {
	reference := c.Query("reference")
	bookingID := c.Query("booking_id")
	if reference == "" || bookingID == "" {
		respondError(c, fault.New(fault.KindValidation, "reference and booking_id are required"))
		return
	}
	cmd := reconcileapp.ReconcilePaymentCommand{
		BookingID: bookingID,
		Reference: reference,
	}
	result, err := commands.Dispatch[reconcileapp.ReconcilePaymentCommand, *reconcileapp.ReconcilePaymentResult](c.Request.Context(), h.Commands, cmd)
	if err != nil {
		respondError(c, err)
		return
	}
	message := "payment reconciled"
	if result.AlreadyReconciled {
		message = "payment already reconciled"
	}
	respondOK(c, http.StatusOK, message, result)
}
