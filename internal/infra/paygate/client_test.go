package paygate

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"rentdeal/internal/domain/payments"
	"rentdeal/internal/domain/shared/fault"
)

func newClient(serverURL string) *Client {
	return &Client{
		HTTP:    &http.Client{Timeout: time.Second},
		BaseURL: serverURL,
	}
}

func TestVerifySuccess(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/payments/verify", r.URL.Path)
		assert.Equal(t, "pay-ref-1", r.URL.Query().Get("reference"))
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{
			"success": true,
			"message": "Verification successful",
			"data": {
				"reference": "pay-ref-1",
				"amount": 120000,
				"currency": "USD",
				"status": "success",
				"paid_at": "2026-08-30T10:00:00Z",
				"payment_channel": "card",
				"gateway_response_code": "00"
			}
		}`))
	}))
	defer srv.Close()

	v, err := newClient(srv.URL).Verify(context.Background(), "pay-ref-1")
	require.NoError(t, err)
	assert.Equal(t, "pay-ref-1", v.Reference)
	assert.Equal(t, payments.StatusSuccess, v.Status)
	assert.Equal(t, int64(120_000), v.Amount.Amount)
	assert.Equal(t, "USD", v.Amount.Currency)
	assert.Equal(t, "card", v.Channel)
	assert.True(t, v.Succeeded())
}

func TestVerifyFailedPayment(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{
			"success": true,
			"message": "Verification successful",
			"data": {
				"reference": "pay-ref-2",
				"amount": 120000,
				"currency": "USD",
				"status": "failed",
				"gateway_response_code": "card_declined"
			}
		}`))
	}))
	defer srv.Close()

	v, err := newClient(srv.URL).Verify(context.Background(), "pay-ref-2")
	require.NoError(t, err)
	assert.Equal(t, payments.StatusFailed, v.Status)
	assert.False(t, v.Succeeded())
	assert.Equal(t, "card_declined", v.GatewayCode)
}

func TestVerifyErrorMapping(t *testing.T) {
	tests := []struct {
		name    string
		handler http.HandlerFunc
		kind    fault.Kind
	}{
		{
			name:    "unknown reference 404",
			handler: func(w http.ResponseWriter, r *http.Request) { w.WriteHeader(http.StatusNotFound) },
			kind:    fault.KindPaymentNotFound,
		},
		{
			name: "success false envelope",
			handler: func(w http.ResponseWriter, r *http.Request) {
				w.Write([]byte(`{"success": false, "message": "Transaction reference not found"}`))
			},
			kind: fault.KindPaymentNotFound,
		},
		{
			name:    "gateway 500",
			handler: func(w http.ResponseWriter, r *http.Request) { w.WriteHeader(http.StatusInternalServerError) },
			kind:    fault.KindUnavailable,
		},
		{
			name:    "gateway 400",
			handler: func(w http.ResponseWriter, r *http.Request) { w.WriteHeader(http.StatusBadRequest) },
			kind:    fault.KindValidation,
		},
		{
			name:    "malformed body",
			handler: func(w http.ResponseWriter, r *http.Request) { w.Write([]byte(`{"success": tru`)) },
			kind:    fault.KindUnavailable,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			srv := httptest.NewServer(tt.handler)
			defer srv.Close()

			_, err := newClient(srv.URL).Verify(context.Background(), "pay-ref-1")
			require.Error(t, err)
			assert.Equal(t, tt.kind, fault.KindOf(err))
		})
	}
}

func TestVerifyUnreachableGateway(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	srv.Close()

	_, err := newClient(srv.URL).Verify(context.Background(), "pay-ref-1")
	require.Error(t, err)
	assert.True(t, fault.Retryable(err))
}

func TestVerifyEmptyReference(t *testing.T) {
	_, err := newClient("http://localhost:0").Verify(context.Background(), "   ")
	require.Error(t, err)
	assert.Equal(t, fault.KindValidation, fault.KindOf(err))
}
