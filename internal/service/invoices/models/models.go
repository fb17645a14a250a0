package models

import (
	"time"

	"github.com/shopspring/decimal"

	"github.com/m04kA/SMC-DrivingSchoolService/internal/domain"
)

// LineItemInput позиция счёта в запросе
type LineItemInput struct {
	Description string          `json:"description"`
	Quantity    int64           `json:"quantity"`
	UnitPrice   decimal.Decimal `json:"unitPrice"`
}

// CreateInvoiceRequest запрос на создание счёта
// Amount необязателен; если передан, должен совпасть с суммой позиций
type CreateInvoiceRequest struct {
	ReservationID *int64           `json:"reservationId,omitempty"`
	PayerIdentity *int64           `json:"-"`
	PayerEmail    *string          `json:"payerEmail,omitempty"`
	Amount        *decimal.Decimal `json:"amount,omitempty"`
	Currency      string           `json:"currency"`
	LineItems     []LineItemInput  `json:"lineItems"`
}

// LineItemResponse позиция счёта в ответе
type LineItemResponse struct {
	Description string `json:"description"`
	Quantity    int64  `json:"quantity"`
	UnitPrice   string `json:"unitPrice"`
	Total       string `json:"total"`
}

// InvoiceResponse счёт в ответе
type InvoiceResponse struct {
	ID                  int64              `json:"id"`
	ReservationID       *int64             `json:"reservationId,omitempty"`
	PayerIdentity       *int64             `json:"payerIdentity,omitempty"`
	PayerEmail          *string            `json:"payerEmail,omitempty"`
	Amount              string             `json:"amount"`
	Currency            string             `json:"currency"`
	LineItems           []LineItemResponse `json:"lineItems"`
	Status              string             `json:"status"`
	SettlementMethod    string             `json:"settlementMethod"`
	PaymentHoldDeadline *time.Time         `json:"paymentHoldDeadline,omitempty"`
	CancellationReason  *string            `json:"cancellationReason,omitempty"`
	CreatedAt           time.Time          `json:"createdAt"`
	PaidAt              *time.Time         `json:"paidAt,omitempty"`
}

// InvoiceListResponse список счетов
type InvoiceListResponse struct {
	Invoices []InvoiceResponse `json:"invoices"`
	Total    int               `json:"total"`
}

// CheckoutResponse ссылка на оплату
type CheckoutResponse struct {
	InvoiceID   int64     `json:"invoiceId"`
	SessionID   string    `json:"sessionId"`
	RedirectURL string    `json:"redirectUrl"`
	ExpiresAt   time.Time `json:"expiresAt"`
}

// ToDomainLineItems конвертирует позиции запроса в domain модель
func ToDomainLineItems(items []LineItemInput) []domain.LineItem {
	result := make([]domain.LineItem, 0, len(items))
	for _, item := range items {
		result = append(result, domain.LineItem{
			Description: item.Description,
			Quantity:    item.Quantity,
			UnitPrice:   item.UnitPrice,
		})
	}
	return result
}

// FromDomainInvoice конвертирует domain модель в DTO
func FromDomainInvoice(inv *domain.Invoice) *InvoiceResponse {
	resp := &InvoiceResponse{
		ID:                  inv.ID,
		ReservationID:       inv.ReservationID,
		PayerIdentity:       inv.PayerIdentity,
		PayerEmail:          inv.PayerEmail,
		Amount:              inv.Amount.StringFixed(2),
		Currency:            inv.Currency,
		LineItems:           make([]LineItemResponse, 0, len(inv.LineItems)),
		Status:              string(inv.Status),
		SettlementMethod:    string(inv.SettlementMethod),
		PaymentHoldDeadline: inv.PaymentHoldDeadline,
		CreatedAt:           inv.CreatedAt,
		PaidAt:              inv.PaidAt,
	}
	for _, item := range inv.LineItems {
		resp.LineItems = append(resp.LineItems, LineItemResponse{
			Description: item.Description,
			Quantity:    item.Quantity,
			UnitPrice:   item.UnitPrice.StringFixed(2),
			Total:       item.Total().StringFixed(2),
		})
	}
	if inv.CancellationReason != nil {
		reason := string(*inv.CancellationReason)
		resp.CancellationReason = &reason
	}
	return resp
}

// FromDomainInvoiceList конвертирует список domain моделей в DTO
func FromDomainInvoiceList(invoices []*domain.Invoice) *InvoiceListResponse {
	resp := &InvoiceListResponse{
		Invoices: make([]InvoiceResponse, 0, len(invoices)),
		Total:    len(invoices),
	}
	for _, inv := range invoices {
		resp.Invoices = append(resp.Invoices, *FromDomainInvoice(inv))
	}
	return resp
}
