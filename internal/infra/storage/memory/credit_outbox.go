package memory

import (
	"context"
	"sort"
	"time"

	"github.com/m04kA/SMC-DrivingSchoolService/internal/domain"
	"github.com/m04kA/SMC-DrivingSchoolService/internal/infra/storage/credit"
)

// CreditRepository пакеты предоплаты в памяти
type CreditRepository struct {
	db *DB
}

// NewCreditRepository создает репозиторий пакетов
func NewCreditRepository(db *DB) *CreditRepository {
	return &CreditRepository{db: db}
}

func (r *CreditRepository) Create(_ context.Context, c *domain.StoredCredit) (*domain.StoredCredit, error) {
	r.db.mu.Lock()
	defer r.db.mu.Unlock()

	c.ID = r.db.nextID()
	c.CreatedAt = r.db.now()
	c.UpdatedAt = c.CreatedAt
	cc := *c
	r.db.credits[c.Ref] = &cc
	return c, nil
}

func (r *CreditRepository) GetByRef(_ context.Context, ref string) (*domain.StoredCredit, error) {
	r.db.mu.Lock()
	defer r.db.mu.Unlock()

	c, ok := r.db.credits[ref]
	if !ok {
		return nil, credit.ErrCreditNotFound
	}
	cc := *c
	return &cc, nil
}

func (r *CreditRepository) Debit(_ context.Context, ref string, owner int64) (bool, error) {
	r.db.mu.Lock()
	defer r.db.mu.Unlock()

	c, ok := r.db.credits[ref]
	if !ok || c.OwnerIdentity != owner || c.RemainingUnits <= 0 {
		return false, nil
	}
	c.RemainingUnits--
	c.UpdatedAt = r.db.now()
	return true, nil
}

// OutboxRepository outbox событий в памяти
type OutboxRepository struct {
	db *DB
}

// NewOutboxRepository создает репозиторий outbox
func NewOutboxRepository(db *DB) *OutboxRepository {
	return &OutboxRepository{db: db}
}

func (r *OutboxRepository) Append(_ context.Context, event *domain.Event) error {
	r.db.mu.Lock()
	defer r.db.mu.Unlock()

	r.db.events = append(r.db.events, cloneEvent(event))
	return nil
}

func (r *OutboxRepository) ListUnpublished(_ context.Context, limit uint64) ([]*domain.Event, error) {
	r.db.mu.Lock()
	defer r.db.mu.Unlock()

	result := make([]*domain.Event, 0)
	for _, e := range r.db.events {
		if e.PublishedAt == nil {
			result = append(result, cloneEvent(e))
		}
	}
	sort.SliceStable(result, func(i, j int) bool { return result[i].OccurredAt.Before(result[j].OccurredAt) })
	if uint64(len(result)) > limit {
		result = result[:limit]
	}
	return result, nil
}

func (r *OutboxRepository) MarkPublished(_ context.Context, ids []string, at time.Time) error {
	r.db.mu.Lock()
	defer r.db.mu.Unlock()

	marked := make(map[string]bool, len(ids))
	for _, id := range ids {
		marked[id] = true
	}
	for _, e := range r.db.events {
		if marked[e.ID] {
			publishedAt := at
			e.PublishedAt = &publishedAt
		}
	}
	return nil
}
