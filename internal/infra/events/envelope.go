package events

import (
	"encoding/json"
	"time"

	"github.com/m04kA/SMC-DrivingSchoolService/internal/domain"
)

// Envelope формат события в шине
type Envelope struct {
	ID          string          `json:"id"`
	Type        string          `json:"type"`
	AggregateID int64           `json:"aggregate_id"`
	Reason      *string         `json:"reason,omitempty"`
	Payload     json.RawMessage `json:"payload,omitempty"`
	OccurredAt  time.Time       `json:"occurred_at"`
}

// NewEnvelope собирает конверт из записи outbox
func NewEnvelope(event *domain.Event) Envelope {
	env := Envelope{
		ID:          event.ID,
		Type:        string(event.Type),
		AggregateID: event.AggregateID,
		Payload:     event.Payload,
		OccurredAt:  event.OccurredAt.UTC(),
	}
	if event.Reason != nil {
		reason := string(*event.Reason)
		env.Reason = &reason
	}
	return env
}

// Subject тема NATS для события: <prefix>.<type>, например driving_school.invoice.expired
func Subject(prefix string, eventType domain.EventType) string {
	if prefix == "" {
		return string(eventType)
	}
	return prefix + "." + string(eventType)
}
