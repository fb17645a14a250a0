package publish_events

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/m04kA/SMC-DrivingSchoolService/internal/domain"
	"github.com/m04kA/SMC-DrivingSchoolService/internal/infra/storage/memory"
	"github.com/m04kA/SMC-DrivingSchoolService/pkg/logger"
)

var now = time.Date(2026, 3, 10, 12, 0, 0, 0, time.UTC)

type fixedTime struct{}

func (fixedTime) Now() time.Time { return now }

type fakePublisher struct {
	mu       sync.Mutex
	sent     []string
	failOnID string
}

func (p *fakePublisher) Publish(_ context.Context, event *domain.Event) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	if event.ID == p.failOnID {
		return errors.New("nats: connection closed")
	}
	p.sent = append(p.sent, event.ID)
	return nil
}

type fakeMetrics struct {
	byType map[string]int
}

func (m *fakeMetrics) IncEventPublished(eventType string) {
	m.byType[eventType]++
}

type fixture struct {
	ctx       context.Context
	db        *memory.DB
	outbox    *memory.OutboxRepository
	publisher *fakePublisher
	metrics   *fakeMetrics
	uc        *UseCase
}

func newFixture(batchSize int) *fixture {
	db := memory.NewDB()
	f := &fixture{
		ctx:       context.Background(),
		db:        db,
		outbox:    memory.NewOutboxRepository(db),
		publisher: &fakePublisher{},
		metrics:   &fakeMetrics{byType: map[string]int{}},
	}
	f.uc = NewUseCase(f.outbox, f.publisher, memory.NewTxManager(db), f.metrics, batchSize, logger.NewNop()).
		WithTimeProvider(fixedTime{})
	return f
}

func (f *fixture) append(t *testing.T, id string, eventType domain.EventType, offset time.Duration) {
	t.Helper()
	require.NoError(t, f.outbox.Append(f.ctx, &domain.Event{
		ID:          id,
		Type:        eventType,
		AggregateID: 1,
		OccurredAt:  now.Add(offset),
	}))
}

func TestExecute_PublishesInOrder(t *testing.T) {
	f := newFixture(10)
	f.append(t, "e2", domain.EventInvoicePaid, -time.Minute)
	f.append(t, "e1", domain.EventReservationCreated, -2*time.Minute)
	f.append(t, "e3", domain.EventReservationConfirmed, 0)

	published, err := f.uc.Execute(f.ctx)
	require.NoError(t, err)
	assert.Equal(t, 3, published)
	assert.Equal(t, []string{"e1", "e2", "e3"}, f.publisher.sent)
	assert.Equal(t, 1, f.metrics.byType["invoice.paid"])

	for _, e := range f.db.Events() {
		require.NotNil(t, e.PublishedAt)
		assert.Equal(t, now, *e.PublishedAt)
	}

	// Повторный проход ничего не отправляет
	published, err = f.uc.Execute(f.ctx)
	require.NoError(t, err)
	assert.Equal(t, 0, published)
	assert.Len(t, f.publisher.sent, 3)
}

func TestExecute_StopsOnPublishError(t *testing.T) {
	f := newFixture(10)
	f.append(t, "e1", domain.EventReservationCreated, -3*time.Minute)
	f.append(t, "e2", domain.EventInvoiceCreated, -2*time.Minute)
	f.append(t, "e3", domain.EventInvoicePaid, -time.Minute)
	f.publisher.failOnID = "e2"

	published, err := f.uc.Execute(f.ctx)
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrInternal)
	assert.Equal(t, 1, published)

	// e1 помечено, e2 и e3 уйдут в следующий раз
	f.publisher.failOnID = ""
	published, err = f.uc.Execute(f.ctx)
	require.NoError(t, err)
	assert.Equal(t, 2, published)
	assert.Equal(t, []string{"e1", "e2", "e3"}, f.publisher.sent)
}

func TestExecute_BatchSize(t *testing.T) {
	f := newFixture(2)
	f.append(t, "e1", domain.EventReservationCreated, -3*time.Minute)
	f.append(t, "e2", domain.EventInvoiceCreated, -2*time.Minute)
	f.append(t, "e3", domain.EventInvoicePaid, -time.Minute)

	published, err := f.uc.Execute(f.ctx)
	require.NoError(t, err)
	assert.Equal(t, 2, published)

	published, err = f.uc.Execute(f.ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, published)
}
