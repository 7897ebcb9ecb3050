package policies

import (
	"context"

	"rentdeal/internal/domain/payments"
)

// PaymentVerifier asks the external gateway for the authoritative result of a
// payment reference. Implementations must map transport failures to
// fault.KindUnavailable so callers know a retry is safe.
type PaymentVerifier interface {
	Verify(ctx context.Context, reference string) (payments.Verification, error)
}
