package memory

import (
	"context"
	"sort"
	"time"

	"github.com/m04kA/SMC-DrivingSchoolService/internal/domain"
	"github.com/m04kA/SMC-DrivingSchoolService/internal/infra/storage/invoice"
)

// InvoiceRepository счета в памяти
type InvoiceRepository struct {
	db *DB
}

// NewInvoiceRepository создает репозиторий счетов
func NewInvoiceRepository(db *DB) *InvoiceRepository {
	return &InvoiceRepository{db: db}
}

func (r *InvoiceRepository) Create(_ context.Context, inv *domain.Invoice) (*domain.Invoice, error) {
	r.db.mu.Lock()
	defer r.db.mu.Unlock()

	// Аналог частичного уникального индекса uq_invoices_active_reservation
	if inv.ReservationID != nil && inv.IsActive() {
		for _, existing := range r.db.invoices {
			if existing.ReservationID != nil && *existing.ReservationID == *inv.ReservationID && existing.IsActive() {
				return nil, invoice.ErrActiveInvoiceExists
			}
		}
	}

	inv.ID = r.db.nextID()
	inv.CreatedAt = r.db.now()
	inv.UpdatedAt = inv.CreatedAt
	r.db.invoices[inv.ID] = cloneInvoice(inv)
	return inv, nil
}

func (r *InvoiceRepository) GetByID(_ context.Context, id int64) (*domain.Invoice, error) {
	r.db.mu.Lock()
	defer r.db.mu.Unlock()

	inv, ok := r.db.invoices[id]
	if !ok {
		return nil, invoice.ErrInvoiceNotFound
	}
	return cloneInvoice(inv), nil
}

func (r *InvoiceRepository) GetByCheckoutSession(_ context.Context, sessionID string) (*domain.Invoice, error) {
	r.db.mu.Lock()
	defer r.db.mu.Unlock()

	for _, inv := range r.db.invoices {
		if inv.CheckoutSessionID != nil && *inv.CheckoutSessionID == sessionID {
			return cloneInvoice(inv), nil
		}
	}
	return nil, invoice.ErrInvoiceNotFound
}

func (r *InvoiceRepository) GetActiveByReservation(_ context.Context, reservationID int64) (*domain.Invoice, error) {
	r.db.mu.Lock()
	defer r.db.mu.Unlock()

	for _, inv := range r.db.invoices {
		if inv.ReservationID != nil && *inv.ReservationID == reservationID && inv.IsActive() {
			return cloneInvoice(inv), nil
		}
	}
	return nil, invoice.ErrInvoiceNotFound
}

func (r *InvoiceRepository) ListByPayer(_ context.Context, payerIdentity int64) ([]*domain.Invoice, error) {
	r.db.mu.Lock()
	defer r.db.mu.Unlock()

	result := make([]*domain.Invoice, 0)
	for _, inv := range r.db.invoices {
		if inv.PayerIdentity != nil && *inv.PayerIdentity == payerIdentity {
			result = append(result, cloneInvoice(inv))
		}
	}
	sort.Slice(result, func(i, j int) bool { return result[i].ID > result[j].ID })
	return result, nil
}

func (r *InvoiceRepository) Update(_ context.Context, id int64, expected []domain.InvoiceStatus, upd invoice.Update) (bool, error) {
	r.db.mu.Lock()
	defer r.db.mu.Unlock()

	inv, ok := r.db.invoices[id]
	if !ok || !containsInvoiceStatus(expected, inv.Status) {
		return false, nil
	}

	if upd.Status != nil {
		inv.Status = *upd.Status
	}
	if upd.SettlementMethod != nil {
		inv.SettlementMethod = *upd.SettlementMethod
	}
	if upd.PaidAt != nil {
		paidAt := *upd.PaidAt
		inv.PaidAt = &paidAt
	}
	if upd.ClearHoldDeadline {
		inv.PaymentHoldDeadline = nil
	}
	if upd.CheckoutSessionID != nil {
		sessionID := *upd.CheckoutSessionID
		inv.CheckoutSessionID = &sessionID
	}
	if upd.CreditRef != nil {
		ref := *upd.CreditRef
		inv.CreditRef = &ref
	}
	if upd.CancellationReason != nil {
		reason := *upd.CancellationReason
		inv.CancellationReason = &reason
	}
	inv.UpdatedAt = r.db.now()

	return true, nil
}

func (r *InvoiceRepository) ClaimDueHold(_ context.Context, now time.Time) (*domain.Invoice, error) {
	r.db.mu.Lock()
	defer r.db.mu.Unlock()

	var due *domain.Invoice
	for _, inv := range r.db.invoices {
		if !inv.HoldExpired(now) {
			continue
		}
		if due == nil || inv.PaymentHoldDeadline.Before(*due.PaymentHoldDeadline) ||
			(inv.PaymentHoldDeadline.Equal(*due.PaymentHoldDeadline) && inv.ID < due.ID) {
			due = inv
		}
	}
	if due == nil {
		return nil, invoice.ErrInvoiceNotFound
	}
	return cloneInvoice(due), nil
}

func (r *InvoiceRepository) MarkOverdue(_ context.Context, createdBefore time.Time, limit uint64) ([]int64, error) {
	r.db.mu.Lock()
	defer r.db.mu.Unlock()

	ids := make([]int64, 0)
	for _, inv := range r.db.invoices {
		if inv.Status == domain.InvoicePending && inv.PaymentHoldDeadline == nil && inv.CreatedAt.Before(createdBefore) {
			ids = append(ids, inv.ID)
		}
	}
	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })
	if uint64(len(ids)) > limit {
		ids = ids[:limit]
	}

	for _, id := range ids {
		r.db.invoices[id].Status = domain.InvoiceOverdue
		r.db.invoices[id].UpdatedAt = r.db.now()
	}
	return ids, nil
}

func containsInvoiceStatus(statuses []domain.InvoiceStatus, status domain.InvoiceStatus) bool {
	for _, s := range statuses {
		if s == status {
			return true
		}
	}
	return false
}
