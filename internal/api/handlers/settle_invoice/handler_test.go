package settle_invoice

import (
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gorilla/mux"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/m04kA/SMC-DrivingSchoolService/internal/api/middleware"
	"github.com/m04kA/SMC-DrivingSchoolService/internal/service/invoices"
	"github.com/m04kA/SMC-DrivingSchoolService/internal/service/invoices/models"
	"github.com/m04kA/SMC-DrivingSchoolService/pkg/logger"
)

type fakeService struct {
	payer     *int64
	err       error
	calls     []string
	creditRef string
}

func (f *fakeService) GetByID(_ context.Context, id int64, identity *int64, isStaff bool) (*models.InvoiceResponse, error) {
	if id == 404 {
		return nil, invoices.ErrInvoiceNotFound
	}
	if !isStaff && f.payer != nil && (identity == nil || *identity != *f.payer) {
		return nil, invoices.ErrAccessDenied
	}
	return &models.InvoiceResponse{ID: id, Status: "pending"}, nil
}

func (f *fakeService) record(op string) error {
	f.calls = append(f.calls, op)
	return f.err
}

func (f *fakeService) ConfirmInstantMobile(context.Context, int64) error {
	return f.record("instant_mobile")
}

func (f *fakeService) ConfirmOnLocation(context.Context, int64) error {
	return f.record("on_location")
}

func (f *fakeService) BeginHostedCheckout(_ context.Context, id int64) (*models.CheckoutResponse, error) {
	if err := f.record("checkout"); err != nil {
		return nil, err
	}
	return &models.CheckoutResponse{InvoiceID: id, SessionID: "cs_1", RedirectURL: "https://checkout.example/cs_1"}, nil
}

func (f *fakeService) SettleWithStoredCredit(_ context.Context, _ int64, creditRef string) error {
	f.creditRef = creditRef
	return f.record("credit")
}

func (f *fakeService) MarkPayOnLocation(context.Context, int64) error {
	return f.record("pay_on_location")
}

func (f *fakeService) Decline(context.Context, int64, *int64) error {
	return f.record("decline")
}

func router(h *Handler) *mux.Router {
	r := mux.NewRouter()
	r.Use(middleware.Identify)
	r.HandleFunc("/invoices/{invoiceId}/confirm-instant-mobile", h.ConfirmInstantMobile).Methods(http.MethodPost)
	r.HandleFunc("/invoices/{invoiceId}/checkout", h.Checkout).Methods(http.MethodPost)
	r.HandleFunc("/invoices/{invoiceId}/settle-credit", h.SettleCredit).Methods(http.MethodPost)
	r.HandleFunc("/invoices/{invoiceId}/pay-on-location", h.PayOnLocation).Methods(http.MethodPost)
	r.HandleFunc("/invoices/{invoiceId}/decline", h.Decline).Methods(http.MethodPost)
	return r
}

func post(r http.Handler, path, body string, userID int64) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodPost, path, strings.NewReader(body))
	if userID > 0 {
		req.Header.Set(middleware.HeaderUserID, fmt.Sprint(userID))
	}
	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, req)
	return rec
}

func TestSettle_ErrorMapping(t *testing.T) {
	tests := []struct {
		name   string
		err    error
		status int
	}{
		{name: "hold expired", err: fmt.Errorf("wrapped: %w", invoices.ErrPaymentHoldExpired), status: http.StatusGone},
		{name: "insufficient credit", err: invoices.ErrInsufficientCredit, status: http.StatusPaymentRequired},
		{name: "invalid state", err: invoices.ErrInvalidState, status: http.StatusConflict},
		{name: "internal", err: invoices.ErrInternal, status: http.StatusInternalServerError},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			svc := &fakeService{err: tt.err}
			rec := post(router(NewHandler(svc, logger.NewNop())), "/invoices/3/settle-credit", `{"creditRef":"PKG-1"}`, 0)

			assert.Equal(t, tt.status, rec.Code)
			assert.Equal(t, "PKG-1", svc.creditRef)
		})
	}
}

func TestSettle_CustomerAccess(t *testing.T) {
	payer := int64(9)
	svc := &fakeService{payer: &payer}
	r := router(NewHandler(svc, logger.NewNop()))

	rec := post(r, "/invoices/3/pay-on-location", "", 8)
	assert.Equal(t, http.StatusForbidden, rec.Code)
	assert.Empty(t, svc.calls)

	rec = post(r, "/invoices/3/pay-on-location", "", 9)
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, []string{"pay_on_location"}, svc.calls)

	rec = post(r, "/invoices/404/checkout", "", 9)
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestSettle_Checkout(t *testing.T) {
	svc := &fakeService{}
	rec := post(router(NewHandler(svc, logger.NewNop())), "/invoices/3/checkout", "", 0)

	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `"redirectUrl":"https://checkout.example/cs_1"`)

	svc.err = invoices.ErrCheckoutUnavailable
	rec = post(router(NewHandler(svc, logger.NewNop())), "/invoices/3/checkout", "", 0)
	assert.Equal(t, http.StatusServiceUnavailable, rec.Code)
}

func TestSettle_BadInput(t *testing.T) {
	svc := &fakeService{}
	r := router(NewHandler(svc, logger.NewNop()))

	assert.Equal(t, http.StatusBadRequest, post(r, "/invoices/abc/decline", "", 0).Code)
	assert.Equal(t, http.StatusBadRequest, post(r, "/invoices/3/settle-credit", `{"creditRef":" "}`, 0).Code)
	assert.Empty(t, svc.calls)

	assert.Equal(t, http.StatusOK, post(r, "/invoices/3/confirm-instant-mobile", "", 0).Code)
	assert.Equal(t, []string{"instant_mobile"}, svc.calls)
}
