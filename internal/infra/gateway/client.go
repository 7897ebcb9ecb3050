package gateway

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"rentdeal/internal/app/dto"
	"rentdeal/internal/domain/shared/fault"
)

// Client is the typed consumer of the negotiation/reconciliation REST
// surface. Every call is synchronous request/response; any non-2xx answer
// becomes a typed fault, never a silent no-op.
type Client struct {
	HTTP    *http.Client
	BaseURL string
	// ActorID is sent as the caller identity on every request.
	ActorID string
}

type envelope struct {
	Success bool            `json:"success"`
	Message string          `json:"message"`
	Data    json.RawMessage `json:"data"`
}

type errorData struct {
	Kind string `json:"kind"`
}

// HostOffersParams filter the host offer inbox.
type HostOffersParams struct {
	Status     string
	PropertyID string
	CountOnly  bool
}

func (c *Client) HostOffers(ctx context.Context, params HostOffersParams) (dto.HostOfferCollection, error) {
	q := url.Values{}
	if params.Status != "" {
		q.Set("status", params.Status)
	}
	if params.PropertyID != "" {
		q.Set("property_id", params.PropertyID)
	}
	if params.CountOnly {
		q.Set("count_only", strconv.FormatBool(params.CountOnly))
	}
	path := "/offers/host"
	if encoded := q.Encode(); encoded != "" {
		path += "?" + encoded
	}
	var out dto.HostOfferCollection
	err := c.call(ctx, http.MethodGet, path, nil, &out)
	return out, err
}

func (c *Client) OfferByID(ctx context.Context, offerID string) (dto.OfferView, error) {
	var out dto.OfferView
	err := c.call(ctx, http.MethodGet, "/offers/"+url.PathEscape(offerID), nil, &out)
	return out, err
}

func (c *Client) AcceptOffer(ctx context.Context, offerID string) (dto.OfferView, error) {
	var out dto.OfferView
	err := c.call(ctx, http.MethodPost, "/offers/"+url.PathEscape(offerID)+"/accept", struct{}{}, &out)
	return out, err
}

func (c *Client) RejectOffer(ctx context.Context, offerID, reason string) (dto.OfferView, error) {
	body := map[string]string{"reason": reason}
	var out dto.OfferView
	err := c.call(ctx, http.MethodPost, "/offers/"+url.PathEscape(offerID)+"/reject", body, &out)
	return out, err
}

func (c *Client) CounterOffer(ctx context.Context, offerID string, counterOffer int64, counterMessage string) (dto.OfferView, error) {
	body := map[string]any{"counter_offer": counterOffer}
	if counterMessage != "" {
		body["counter_message"] = counterMessage
	}
	var out dto.OfferView
	err := c.call(ctx, http.MethodPost, "/offers/"+url.PathEscape(offerID)+"/counter", body, &out)
	return out, err
}

func (c *Client) BookingByID(ctx context.Context, bookingID string) (dto.BookingView, error) {
	var out dto.BookingView
	err := c.call(ctx, http.MethodGet, "/bookings/"+url.PathEscape(bookingID), nil, &out)
	return out, err
}

func (c *Client) CancelBooking(ctx context.Context, bookingID, reason string) (dto.BookingView, error) {
	body := map[string]string{"reason": reason}
	var out dto.BookingView
	err := c.call(ctx, http.MethodPut, "/bookings/"+url.PathEscape(bookingID)+"/cancel", body, &out)
	return out, err
}

// VerificationResult mirrors the reconcile response payload.
type VerificationResult struct {
	Booking           dto.BookingView `json:"booking"`
	Reference         string          `json:"reference"`
	AlreadyReconciled bool            `json:"already_reconciled"`
}

func (c *Client) VerifyPayment(ctx context.Context, bookingID, reference string) (VerificationResult, error) {
	q := url.Values{}
	q.Set("reference", reference)
	q.Set("booking_id", bookingID)
	var out VerificationResult
	err := c.call(ctx, http.MethodGet, "/payments/verify?"+q.Encode(), nil, &out)
	return out, err
}

func (c *Client) call(ctx context.Context, method, path string, body any, out any) error {
	if c == nil || c.HTTP == nil {
		return fmt.Errorf("gateway: http client not configured")
	}
	var reader io.Reader
	if body != nil {
		payload, err := json.Marshal(body)
		if err != nil {
			return err
		}
		reader = bytes.NewReader(payload)
	}
	request, err := http.NewRequestWithContext(ctx, method, strings.TrimRight(c.BaseURL, "/")+path, reader)
	if err != nil {
		return err
	}
	request.Header.Set("Accept", "application/json")
	if body != nil {
		request.Header.Set("Content-Type", "application/json")
	}
	if c.ActorID != "" {
		request.Header.Set("X-Actor-ID", c.ActorID)
	}

	resp, err := c.HTTP.Do(request)
	if err != nil {
		return fault.Wrap(fault.KindUnavailable, "gateway: request failed", err)
	}
	defer resp.Body.Close()

	var env envelope
	if err := json.NewDecoder(resp.Body).Decode(&env); err != nil {
		return fault.Wrap(fault.KindUnavailable, "gateway: malformed response", err)
	}
	if !env.Success {
		kind := fault.KindUnavailable
		var ed errorData
		if len(env.Data) > 0 {
			if err := json.Unmarshal(env.Data, &ed); err == nil && ed.Kind != "" {
				kind = fault.Kind(ed.Kind)
			}
		}
		return fault.Newf(kind, "gateway: %s", env.Message)
	}
	if out == nil || len(env.Data) == 0 {
		return nil
	}
	return json.Unmarshal(env.Data, out)
}

// NewHTTPClient builds the default transport used by the gateway client.
func NewHTTPClient(timeout time.Duration) *http.Client {
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	return &http.Client{Timeout: timeout}
}
