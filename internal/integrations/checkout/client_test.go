package checkout

import (
	"context"
	"encoding/hex"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"net/url"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/stripe/stripe-go/v76"
	"github.com/stripe/stripe-go/v76/webhook"

	"github.com/m04kA/SMC-DrivingSchoolService/internal/domain"
	"github.com/m04kA/SMC-DrivingSchoolService/pkg/logger"
)

const testWebhookSecret = "whsec_test_secret"

func newTestClient(t *testing.T, serverURL string) *Client {
	t.Helper()

	var backends *stripe.Backends
	if serverURL != "" {
		backend := stripe.GetBackendWithConfig(stripe.APIBackend, &stripe.BackendConfig{
			URL:               stripe.String(serverURL),
			MaxNetworkRetries: stripe.Int64(0),
			LeveledLogger:     &stripe.LeveledLogger{Level: stripe.LevelNull},
		})
		backends = &stripe.Backends{API: backend, Connect: backend, Uploads: backend}
	}

	return NewClientWithBackends(Config{
		SecretKey:     "sk_test_123",
		WebhookSecret: testWebhookSecret,
		SuccessURL:    "https://school.example/paid",
		CancelURL:     "https://school.example/cancel",
	}, backends, logger.NewNop())
}

func signedHeader(payload []byte, at time.Time) string {
	sig := webhook.ComputeSignature(at, payload, testWebhookSecret)
	return fmt.Sprintf("t=%d,v1=%s", at.Unix(), hex.EncodeToString(sig))
}

func TestClient_CreateSession(t *testing.T) {
	var form url.Values
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, "/v1/checkout/sessions", r.URL.Path)
		require.NoError(t, r.ParseForm())
		form = r.PostForm
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"id":"cs_test_1","object":"checkout.session","url":"https://checkout.stripe.com/c/pay/cs_test_1"}`))
	}))
	defer server.Close()

	c := newTestClient(t, server.URL)
	now := time.Date(2026, 3, 10, 12, 0, 0, 0, time.UTC)
	c.now = func() time.Time { return now }
	hold := now.Add(2 * time.Hour)

	session, err := c.CreateSession(context.Background(), SessionRequest{
		InvoiceID: 42,
		Currency:  "EUR",
		LineItems: []domain.LineItem{
			{Description: "Driving lesson", Quantity: 1, UnitPrice: decimal.RequireFromString("55.90")},
		},
		HoldUntil: &hold,
	})
	require.NoError(t, err)

	assert.Equal(t, "cs_test_1", session.ID)
	assert.Equal(t, "https://checkout.stripe.com/c/pay/cs_test_1", session.RedirectURL)
	assert.Equal(t, hold, session.ExpiresAt)

	assert.Equal(t, "payment", form.Get("mode"))
	assert.Equal(t, "42", form.Get("client_reference_id"))
	assert.Equal(t, "42", form.Get("metadata[invoice_id]"))
	assert.Equal(t, "eur", form.Get("line_items[0][price_data][currency]"))
	assert.Equal(t, "5590", form.Get("line_items[0][price_data][unit_amount]"))
	assert.Equal(t, fmt.Sprint(hold.Unix()), form.Get("expires_at"))
}

func TestClient_CreateSession_NoLineItems(t *testing.T) {
	c := newTestClient(t, "")

	_, err := c.CreateSession(context.Background(), SessionRequest{InvoiceID: 1, Currency: "EUR"})
	assert.True(t, errors.Is(err, ErrEmptyLineItems))
}

func TestClient_SessionExpiry(t *testing.T) {
	c := newTestClient(t, "")
	now := time.Date(2026, 3, 10, 12, 0, 0, 0, time.UTC)
	c.now = func() time.Time { return now }

	soon := now.Add(5 * time.Minute)
	assert.Equal(t, now.Add(minSessionLifetime), c.sessionExpiry(&soon))

	inHour := now.Add(time.Hour)
	assert.Equal(t, inHour, c.sessionExpiry(&inHour))

	assert.Equal(t, now.Add(maxSessionLifetime), c.sessionExpiry(nil))
}

func TestClient_ParseWebhook(t *testing.T) {
	c := newTestClient(t, "")
	now := time.Now()

	tests := []struct {
		name     string
		payload  string
		relevant bool
		status   domain.CheckoutStatus
	}{
		{
			name:     "completed and paid",
			payload:  `{"id":"evt_1","object":"event","type":"checkout.session.completed","data":{"object":{"id":"cs_1","object":"checkout.session","payment_status":"paid","metadata":{"invoice_id":"7"}}}}`,
			relevant: true,
			status:   domain.CheckoutPaid,
		},
		{
			name:     "completed but unpaid",
			payload:  `{"id":"evt_2","object":"event","type":"checkout.session.completed","data":{"object":{"id":"cs_1","object":"checkout.session","payment_status":"unpaid","metadata":{"invoice_id":"7"}}}}`,
			relevant: true,
			status:   domain.CheckoutOpen,
		},
		{
			name:     "async failed",
			payload:  `{"id":"evt_3","object":"event","type":"checkout.session.async_payment_failed","data":{"object":{"id":"cs_1","object":"checkout.session","metadata":{"invoice_id":"7"}}}}`,
			relevant: true,
			status:   domain.CheckoutFailed,
		},
		{
			name:     "expired",
			payload:  `{"id":"evt_4","object":"event","type":"checkout.session.expired","data":{"object":{"id":"cs_1","object":"checkout.session","metadata":{"invoice_id":"7"}}}}`,
			relevant: true,
			status:   domain.CheckoutOpen,
		},
		{
			name:     "unrelated event",
			payload:  `{"id":"evt_5","object":"event","type":"customer.created","data":{"object":{"id":"cus_1","object":"customer"}}}`,
			relevant: false,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			payload := []byte(tt.payload)

			result, err := c.ParseWebhook(payload, signedHeader(payload, now))
			require.NoError(t, err)
			assert.Equal(t, tt.relevant, result.Relevant)
			if tt.relevant {
				assert.Equal(t, int64(7), result.InvoiceID)
				assert.Equal(t, "cs_1", result.SessionID)
				assert.Equal(t, tt.status, result.Status)
			}
		})
	}
}

func TestClient_ParseWebhook_SessionWithoutMetadata(t *testing.T) {
	c := newTestClient(t, "")
	payload := []byte(`{"id":"evt_6","object":"event","type":"checkout.session.async_payment_succeeded","data":{"object":{"id":"cs_9","object":"checkout.session"}}}`)

	result, err := c.ParseWebhook(payload, signedHeader(payload, time.Now()))
	require.NoError(t, err)
	assert.True(t, result.Relevant)
	assert.Equal(t, int64(0), result.InvoiceID)
	assert.Equal(t, "cs_9", result.SessionID)
	assert.Equal(t, domain.CheckoutPaid, result.Status)
}

func TestClient_ParseWebhook_BadSignature(t *testing.T) {
	c := newTestClient(t, "")
	payload := []byte(`{"id":"evt_1","object":"event","type":"checkout.session.completed","data":{"object":{}}}`)

	_, err := c.ParseWebhook(payload, "t=1,v1=deadbeef")
	assert.True(t, errors.Is(err, ErrInvalidSignature))
}
