package events

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/nats-io/nats.go"

	"github.com/m04kA/SMC-DrivingSchoolService/internal/domain"
)

// NATSPublisher публикатор событий в NATS
type NATSPublisher struct {
	conn   *nats.Conn
	prefix string
	log    Logger
}

// NewNATSPublisher подключается к NATS
func NewNATSPublisher(url, subjectPrefix string, log Logger) (*NATSPublisher, error) {
	conn, err := nats.Connect(url,
		nats.Name("driving-school-service"),
		nats.MaxReconnects(-1),
		nats.DisconnectErrHandler(func(_ *nats.Conn, err error) {
			if err != nil {
				log.Warn("NATS disconnected: %v", err)
			}
		}),
		nats.ReconnectHandler(func(c *nats.Conn) {
			log.Info("NATS reconnected to %s", c.ConnectedUrl())
		}),
	)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrConnect, err)
	}

	return &NATSPublisher{conn: conn, prefix: subjectPrefix, log: log}, nil
}

// Publish отправляет событие и дожидается подтверждения сервером (flush)
// ID события передаётся в заголовке Nats-Msg-Id, подписчики дедуплицируют по нему
func (p *NATSPublisher) Publish(ctx context.Context, event *domain.Event) error {
	data, err := json.Marshal(NewEnvelope(event))
	if err != nil {
		return fmt.Errorf("%w: %v", ErrEncode, err)
	}

	msg := nats.NewMsg(Subject(p.prefix, event.Type))
	msg.Header.Set(nats.MsgIdHdr, event.ID)
	msg.Data = data

	if err := p.conn.PublishMsg(msg); err != nil {
		return fmt.Errorf("%w: %s: %v", ErrPublish, event.ID, err)
	}

	if err := p.conn.FlushWithContext(ctx); err != nil {
		return fmt.Errorf("%w: flush %s: %v", ErrPublish, event.ID, err)
	}

	return nil
}

// Close закрывает соединение, предварительно отправив буфер
func (p *NATSPublisher) Close() error {
	if err := p.conn.Drain(); err != nil {
		p.conn.Close()
		return err
	}
	return nil
}
