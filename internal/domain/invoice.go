package domain

import (
	"time"

	"github.com/shopspring/decimal"
)

// InvoiceStatus статус счёта
type InvoiceStatus string

const (
	InvoicePending   InvoiceStatus = "pending"
	InvoicePaid      InvoiceStatus = "paid"
	InvoiceOverdue   InvoiceStatus = "overdue"
	InvoiceCancelled InvoiceStatus = "cancelled"
	InvoiceError     InvoiceStatus = "error"
)

// SettlementMethod способ оплаты счёта
type SettlementMethod string

const (
	MethodUnset          SettlementMethod = "unset"
	MethodInstantMobile  SettlementMethod = "instant_mobile"
	MethodHostedCheckout SettlementMethod = "hosted_checkout"
	MethodStoredCredit   SettlementMethod = "stored_credit"
	MethodOnLocation     SettlementMethod = "on_location"
)

// TrustLevel уровень доверия к плательщику
type TrustLevel string

const (
	TrustUntrusted TrustLevel = "untrusted" // гость или не зачисленный ученик
	TrustTrusted   TrustLevel = "trusted"   // зачисленный ученик
)

// CheckoutStatus результат оплаты во внешнем checkout
type CheckoutStatus string

const (
	CheckoutPaid   CheckoutStatus = "paid"
	CheckoutFailed CheckoutStatus = "failed"
	CheckoutOpen   CheckoutStatus = "open"
)

// ActiveInvoiceStatuses у резервирования может быть не больше одного счёта в этих статусах
// overdue это pending доверенного плательщика: счёт всё ещё можно оплатить
var ActiveInvoiceStatuses = []InvoiceStatus{
	InvoicePending,
	InvoiceOverdue,
	InvoicePaid,
}

// LineItem позиция счёта
type LineItem struct {
	Description string          `json:"description"`
	Quantity    int64           `json:"quantity"`
	UnitPrice   decimal.Decimal `json:"unitPrice"`
}

// Total стоимость позиции
func (li LineItem) Total() decimal.Decimal {
	return li.UnitPrice.Mul(decimal.NewFromInt(li.Quantity))
}

// SumLineItems сумма по всем позициям
func SumLineItems(items []LineItem) decimal.Decimal {
	total := decimal.Zero
	for _, item := range items {
		total = total.Add(item.Total())
	}
	return total
}

// Invoice счёт, опционально привязанный к резервированию
type Invoice struct {
	ID                  int64
	ReservationID       *int64
	PayerIdentity       *int64
	PayerEmail          *string
	Amount              decimal.Decimal
	Currency            string
	LineItems           []LineItem
	Status              InvoiceStatus
	SettlementMethod    SettlementMethod
	PaymentHoldDeadline *time.Time
	CheckoutSessionID   *string
	CreditRef           *string
	CancellationReason  *CancellationReason
	CreatedAt           time.Time
	PaidAt              *time.Time
	UpdatedAt           time.Time
}

// IsActive true для pending/overdue/paid
func (i *Invoice) IsActive() bool {
	return i.Status == InvoicePending || i.Status == InvoiceOverdue || i.Status == InvoicePaid
}

// HasPaymentHold true, если счёт ждёт оплаты с жёстким дедлайном
func (i *Invoice) HasPaymentHold() bool {
	return i.Status == InvoicePending && i.PaymentHoldDeadline != nil
}

// HoldExpired true, если дедлайн удержания наступил
func (i *Invoice) HoldExpired(now time.Time) bool {
	return i.HasPaymentHold() && !now.Before(*i.PaymentHoldDeadline)
}

// CanBePaid true для статусов, из которых возможен переход в paid
func (i *Invoice) CanBePaid() bool {
	return i.Status == InvoicePending || i.Status == InvoiceOverdue
}
