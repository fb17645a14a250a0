package domain

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
)

// EventType тип доменного события
type EventType string

const (
	EventReservationCreated   EventType = "reservation.created"
	EventReservationConfirmed EventType = "reservation.confirmed"
	EventReservationCancelled EventType = "reservation.cancelled"
	EventReservationCompleted EventType = "reservation.completed"
	EventInvoiceCreated       EventType = "invoice.created"
	EventInvoicePaid          EventType = "invoice.paid"
	EventInvoiceExpired       EventType = "invoice.expired"
	EventInvoiceDeclined      EventType = "invoice.declined"
	EventInvoiceFailed        EventType = "invoice.failed"
	EventInvoiceOverdue       EventType = "invoice.overdue"
)

// Event запись outbox. Публикуется в шину после фиксации транзакции
type Event struct {
	ID          string
	Type        EventType
	AggregateID int64
	Reason      *CancellationReason
	Payload     json.RawMessage
	OccurredAt  time.Time
	PublishedAt *time.Time
}

// NewEvent создает событие с новым идентификатором; payload сериализуется в JSON
func NewEvent(eventType EventType, aggregateID int64, reason *CancellationReason, payload interface{}, at time.Time) (*Event, error) {
	raw, err := json.Marshal(payload)
	if err != nil {
		return nil, fmt.Errorf("encode %s payload: %w", eventType, err)
	}

	return &Event{
		ID:          uuid.NewString(),
		Type:        eventType,
		AggregateID: aggregateID,
		Reason:      reason,
		Payload:     raw,
		OccurredAt:  at,
	}, nil
}

// ReservationEventPayload полезная нагрузка событий резервирования
type ReservationEventPayload struct {
	ReservationID int64              `json:"reservationId"`
	ResourceType  ResourceType       `json:"resourceType"`
	Date          string             `json:"date"`
	StartTime     string             `json:"startTime"`
	EndTime       string             `json:"endTime"`
	Status        ReservationStatus  `json:"status"`
	Identities    []int64            `json:"identities,omitempty"`
	Reason        CancellationReason `json:"reason,omitempty"`
}

// NewReservationEventPayload собирает payload по резервированию
func NewReservationEventPayload(r *Reservation) ReservationEventPayload {
	payload := ReservationEventPayload{
		ReservationID: r.ID,
		ResourceType:  r.ResourceType,
		Date:          r.ScheduledDate.Format(DateFormat),
		StartTime:     r.StartTime.String(),
		EndTime:       r.EndTime.String(),
		Status:        r.Status,
	}
	for _, p := range r.Participants {
		if p.Identity != nil {
			payload.Identities = append(payload.Identities, *p.Identity)
		}
	}
	if r.CancellationReason != nil {
		payload.Reason = *r.CancellationReason
	}
	return payload
}

// InvoiceEventPayload полезная нагрузка событий счёта
type InvoiceEventPayload struct {
	InvoiceID        int64              `json:"invoiceId"`
	ReservationID    *int64             `json:"reservationId,omitempty"`
	PayerIdentity    *int64             `json:"payerIdentity,omitempty"`
	PayerEmail       *string            `json:"payerEmail,omitempty"`
	Amount           string             `json:"amount"`
	Currency         string             `json:"currency"`
	Status           InvoiceStatus      `json:"status"`
	SettlementMethod SettlementMethod   `json:"settlementMethod"`
	Reason           CancellationReason `json:"reason,omitempty"`
}

// NewInvoiceEventPayload собирает payload по счёту
func NewInvoiceEventPayload(inv *Invoice) InvoiceEventPayload {
	payload := InvoiceEventPayload{
		InvoiceID:        inv.ID,
		ReservationID:    inv.ReservationID,
		PayerIdentity:    inv.PayerIdentity,
		PayerEmail:       inv.PayerEmail,
		Amount:           inv.Amount.StringFixed(2),
		Currency:         inv.Currency,
		Status:           inv.Status,
		SettlementMethod: inv.SettlementMethod,
	}
	if inv.CancellationReason != nil {
		payload.Reason = *inv.CancellationReason
	}
	return payload
}
