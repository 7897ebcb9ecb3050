package paygate

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strings"
	"time"

	"rentdeal/internal/app/policies"
	"rentdeal/internal/domain/payments"
	"rentdeal/internal/domain/shared/fault"
	"rentdeal/internal/domain/shared/money"
)

// Client verifies payment references against the external gateway. The
// gateway wraps every response in a {success, message, data} envelope; a
// success:false envelope is a typed failure, never a silent no-op.
type Client struct {
	HTTP    *http.Client
	BaseURL string
	Logger  *slog.Logger
}

type envelope struct {
	Success bool            `json:"success"`
	Message string          `json:"message"`
	Data    json.RawMessage `json:"data"`
}

type verificationData struct {
	Reference   string    `json:"reference"`
	Amount      int64     `json:"amount"`
	Currency    string    `json:"currency"`
	Status      string    `json:"status"`
	PaidAt      time.Time `json:"paid_at"`
	Channel     string    `json:"payment_channel"`
	GatewayCode string    `json:"gateway_response_code"`
}

func (c *Client) Verify(ctx context.Context, reference string) (payments.Verification, error) {
	var zero payments.Verification
	if c == nil || c.HTTP == nil {
		return zero, errors.New("paygate: http client not configured")
	}
	if c.BaseURL == "" {
		return zero, errors.New("paygate: base url not configured")
	}
	reference = strings.TrimSpace(reference)
	if reference == "" {
		return zero, fault.New(fault.KindValidation, "paygate: payment reference required")
	}

	endpoint := strings.TrimRight(c.BaseURL, "/") + "/payments/verify?reference=" + url.QueryEscape(reference)
	request, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return zero, err
	}
	request.Header.Set("Accept", "application/json")

	resp, err := c.HTTP.Do(request)
	if err != nil {
		c.logError("gateway verify request failed", reference, err)
		return zero, fault.Wrap(fault.KindUnavailable, "paygate: gateway unreachable", err)
	}
	defer resp.Body.Close()

	switch {
	case resp.StatusCode == http.StatusNotFound:
		return zero, fault.Newf(fault.KindPaymentNotFound, "paygate: reference %s unknown to gateway", reference)
	case resp.StatusCode >= http.StatusInternalServerError:
		snippet, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		err := fmt.Errorf("gateway returned status %d: %s", resp.StatusCode, string(snippet))
		c.logError("gateway verify returned error", reference, err)
		return zero, fault.Wrap(fault.KindUnavailable, "paygate: gateway error", err)
	case resp.StatusCode >= http.StatusBadRequest:
		snippet, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return zero, fault.Newf(fault.KindValidation, "paygate: gateway rejected request: %d %s", resp.StatusCode, string(snippet))
	}

	var env envelope
	if err := json.NewDecoder(resp.Body).Decode(&env); err != nil {
		c.logError("gateway verify decode failed", reference, err)
		return zero, fault.Wrap(fault.KindUnavailable, "paygate: malformed gateway response", err)
	}
	if !env.Success {
		// The gateway answers 200 with success:false for references it does
		// not recognize.
		return zero, fault.Newf(fault.KindPaymentNotFound, "paygate: %s", env.Message)
	}

	var data verificationData
	if err := json.Unmarshal(env.Data, &data); err != nil {
		return zero, fault.Wrap(fault.KindUnavailable, "paygate: malformed verification payload", err)
	}
	amount, err := money.New(data.Amount, data.Currency)
	if err != nil {
		return zero, fault.Wrap(fault.KindUnavailable, "paygate: invalid amount in verification", err)
	}

	status := payments.StatusFailed
	if strings.EqualFold(data.Status, "success") {
		status = payments.StatusSuccess
	}
	return payments.Verification{
		Reference:   data.Reference,
		Status:      status,
		Amount:      amount,
		PaidAt:      data.PaidAt,
		Channel:     data.Channel,
		GatewayCode: data.GatewayCode,
	}, nil
}

func (c *Client) logError(msg, reference string, err error) {
	if c.Logger == nil {
		return
	}
	c.Logger.Error(msg, "reference", reference, "error", err)
}

var _ policies.PaymentVerifier = (*Client)(nil)
