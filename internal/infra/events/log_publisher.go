package events

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/m04kA/SMC-DrivingSchoolService/internal/domain"
)

// LogPublisher пишет события в лог; используется, когда NATS выключен
type LogPublisher struct {
	prefix string
	log    Logger
}

// NewLogPublisher создает публикатор в лог
func NewLogPublisher(subjectPrefix string, log Logger) *LogPublisher {
	return &LogPublisher{prefix: subjectPrefix, log: log}
}

func (p *LogPublisher) Publish(_ context.Context, event *domain.Event) error {
	data, err := json.Marshal(NewEnvelope(event))
	if err != nil {
		return fmt.Errorf("%w: %v", ErrEncode, err)
	}

	p.log.Info("Event %s: %s", Subject(p.prefix, event.Type), string(data))
	return nil
}

func (p *LogPublisher) Close() error {
	return nil
}
