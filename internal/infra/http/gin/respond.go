package ginserver

import (
	"net/http"

	gin "github.com/gin-gonic/gin"

	"rentdeal/internal/domain/shared/fault"
)

// Envelope is the wire shape every endpoint answers with. The web client
// treats success:false as a typed application error, keyed by Data.kind.
type Envelope struct {
	Success bool   `json:"success"`
	Message string `json:"message"`
	Data    any    `json:"data,omitempty"`
}

// ErrorData rides in the Data slot of a failed envelope so clients can
// distinguish "refresh your state" from "retry later" without parsing text.
type ErrorData struct {
	Kind string `json:"kind"`
}

func respondOK(c *gin.Context, status int, message string, data any) {
	c.JSON(status, Envelope{Success: true, Message: message, Data: data})
}

func respondError(c *gin.Context, err error) {
	kind := fault.KindOf(err)
	c.JSON(statusFor(kind), Envelope{
		Success: false,
		Message: err.Error(),
		Data:    ErrorData{Kind: string(kind)},
	})
}

func statusFor(kind fault.Kind) int {
	switch kind {
	case fault.KindNotFound, fault.KindPaymentNotFound:
		return http.StatusNotFound
	case fault.KindForbidden:
		return http.StatusForbidden
	case fault.KindInvalidTransition, fault.KindPaymentMismatch:
		return http.StatusConflict
	case fault.KindValidation:
		return http.StatusUnprocessableEntity
	case fault.KindUnavailable:
		return http.StatusServiceUnavailable
	default:
		return http.StatusInternalServerError
	}
}

// actorID resolves the caller identity passed explicitly by the session
// layer. Negotiation guards never read ambient global state.
func actorID(c *gin.Context) (string, bool) {
	id := c.GetHeader("X-Actor-ID")
	if id == "" {
		respondError(c, fault.New(fault.KindForbidden, "caller identity required"))
		return "", false
	}
	return id, true
}
