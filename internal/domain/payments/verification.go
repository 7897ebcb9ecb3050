package payments

import (
	"time"

	"rentdeal/internal/domain/shared/money"
)

// Status is the gateway's verdict on a payment reference.
type Status string

const (
	StatusSuccess Status = "SUCCESS"
	StatusFailed  Status = "FAILED"
)

// Verification is a read-only projection of the gateway's payment record.
// The gateway is authoritative; this core only reads and reconciles.
type Verification struct {
	Reference   string
	Status      Status
	Amount      money.Money
	PaidAt      time.Time
	Channel     string
	GatewayCode string
}

func (v Verification) Succeeded() bool {
	return v.Status == StatusSuccess
}
