package events

import (
	"context"
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zaptest/observer"

	"github.com/m04kA/SMC-DrivingSchoolService/internal/domain"
	"github.com/m04kA/SMC-DrivingSchoolService/pkg/logger"
)

func TestSubject(t *testing.T) {
	assert.Equal(t, "driving_school.invoice.expired", Subject("driving_school", domain.EventInvoiceExpired))
	assert.Equal(t, "reservation.created", Subject("", domain.EventReservationCreated))
}

func TestNewEnvelope(t *testing.T) {
	reason := domain.ReasonPaymentTimeout
	event := &domain.Event{
		ID:          "0d6c4b7e-6a55-4b53-9b1f-2b8a5f7b0a11",
		Type:        domain.EventReservationCancelled,
		AggregateID: 15,
		Reason:      &reason,
		Payload:     json.RawMessage(`{"invoice_id":3}`),
		OccurredAt:  time.Date(2026, 3, 10, 12, 0, 0, 0, time.UTC),
	}

	data, err := json.Marshal(NewEnvelope(event))
	require.NoError(t, err)

	var decoded map[string]interface{}
	require.NoError(t, json.Unmarshal(data, &decoded))
	assert.Equal(t, "reservation.cancelled", decoded["type"])
	assert.Equal(t, "payment_timeout", decoded["reason"])
	assert.Equal(t, float64(15), decoded["aggregate_id"])
	assert.Equal(t, map[string]interface{}{"invoice_id": float64(3)}, decoded["payload"])
}

func TestLogPublisher_Publish(t *testing.T) {
	core, logs := observer.New(zap.InfoLevel)
	publisher := NewLogPublisher("ds", logger.NewWithCore(core))

	err := publisher.Publish(context.Background(), &domain.Event{
		ID:          "e1",
		Type:        domain.EventInvoicePaid,
		AggregateID: 9,
		OccurredAt:  time.Now(),
	})
	require.NoError(t, err)

	require.Equal(t, 1, logs.Len())
	assert.Contains(t, logs.All()[0].Message, "ds.invoice.paid")
	assert.NoError(t, publisher.Close())
}
