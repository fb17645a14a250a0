package stripe_webhook

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/m04kA/SMC-DrivingSchoolService/internal/domain"
	"github.com/m04kA/SMC-DrivingSchoolService/internal/integrations/checkout"
	"github.com/m04kA/SMC-DrivingSchoolService/internal/service/invoices"
	"github.com/m04kA/SMC-DrivingSchoolService/pkg/logger"
)

type fakeParser struct {
	result *checkout.WebhookResult
	err    error
}

func (f *fakeParser) ParseWebhook(_ []byte, signature string) (*checkout.WebhookResult, error) {
	if signature == "" {
		return nil, checkout.ErrInvalidSignature
	}
	return f.result, f.err
}

type reconcileCall struct {
	invoiceID int64
	sessionID string
	status    domain.CheckoutStatus
}

type fakeInvoices struct {
	calls []reconcileCall
	err   error
}

func (f *fakeInvoices) ReconcileHostedCheckout(_ context.Context, id int64, status domain.CheckoutStatus) error {
	f.calls = append(f.calls, reconcileCall{invoiceID: id, status: status})
	return f.err
}

func (f *fakeInvoices) ReconcileCheckoutSession(_ context.Context, sessionID string, status domain.CheckoutStatus) error {
	f.calls = append(f.calls, reconcileCall{sessionID: sessionID, status: status})
	return f.err
}

func send(h *Handler, signature string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodPost, "/api/v1/webhooks/stripe", strings.NewReader(`{"id":"evt_1"}`))
	if signature != "" {
		req.Header.Set(signatureHeader, signature)
	}
	rec := httptest.NewRecorder()
	h.Handle(rec, req)
	return rec
}

func TestHandle(t *testing.T) {
	tests := []struct {
		name      string
		result    *checkout.WebhookResult
		signature string
		svcErr    error
		status    int
		calls     []reconcileCall
	}{
		{
			name:   "missing signature",
			status: http.StatusBadRequest,
		},
		{
			name:      "irrelevant event",
			result:    &checkout.WebhookResult{EventID: "evt_1", EventType: "customer.created"},
			signature: "t=1,v1=ok",
			status:    http.StatusOK,
		},
		{
			name:      "paid by invoice id",
			result:    &checkout.WebhookResult{EventID: "evt_1", InvoiceID: 7, SessionID: "cs_1", Status: domain.CheckoutPaid, Relevant: true},
			signature: "t=1,v1=ok",
			status:    http.StatusOK,
			calls:     []reconcileCall{{invoiceID: 7, status: domain.CheckoutPaid}},
		},
		{
			name:      "paid by session",
			result:    &checkout.WebhookResult{EventID: "evt_1", SessionID: "cs_1", Status: domain.CheckoutPaid, Relevant: true},
			signature: "t=1,v1=ok",
			status:    http.StatusOK,
			calls:     []reconcileCall{{sessionID: "cs_1", status: domain.CheckoutPaid}},
		},
		{
			name:      "invalid state is acknowledged",
			result:    &checkout.WebhookResult{EventID: "evt_1", InvoiceID: 7, Status: domain.CheckoutFailed, Relevant: true},
			signature: "t=1,v1=ok",
			svcErr:    invoices.ErrInvalidState,
			status:    http.StatusOK,
			calls:     []reconcileCall{{invoiceID: 7, status: domain.CheckoutFailed}},
		},
		{
			name:      "internal error asks for retry",
			result:    &checkout.WebhookResult{EventID: "evt_1", InvoiceID: 7, Status: domain.CheckoutPaid, Relevant: true},
			signature: "t=1,v1=ok",
			svcErr:    errors.New("db down"),
			status:    http.StatusInternalServerError,
			calls:     []reconcileCall{{invoiceID: 7, status: domain.CheckoutPaid}},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			svc := &fakeInvoices{err: tt.svcErr}
			h := NewHandler(&fakeParser{result: tt.result}, svc, logger.NewNop())

			rec := send(h, tt.signature)

			assert.Equal(t, tt.status, rec.Code)
			assert.Equal(t, tt.calls, svc.calls)
		})
	}
}
