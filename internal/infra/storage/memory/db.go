// Package memory хранилище в памяти с теми же контрактами и ошибками, что и у PostgreSQL репозиториев
// Используется в тестах сервисов и use case
package memory

import (
	"sync"
	"time"

	"github.com/m04kA/SMC-DrivingSchoolService/internal/domain"
)

// DB общее состояние всех репозиториев
type DB struct {
	mu  sync.Mutex
	now func() time.Time

	seq int64

	templates    map[int64]*domain.SlotTemplate
	blocked      map[int64]*domain.BlockedRange
	extras       map[int64]*domain.ExtraWindow
	reservations map[int64]*domain.Reservation
	participants map[int64]*domain.Participant
	invoices     map[int64]*domain.Invoice
	credits      map[string]*domain.StoredCredit
	events       []*domain.Event
}

// NewDB создает пустое хранилище
func NewDB() *DB {
	return &DB{
		now:          time.Now,
		templates:    make(map[int64]*domain.SlotTemplate),
		blocked:      make(map[int64]*domain.BlockedRange),
		extras:       make(map[int64]*domain.ExtraWindow),
		reservations: make(map[int64]*domain.Reservation),
		participants: make(map[int64]*domain.Participant),
		invoices:     make(map[int64]*domain.Invoice),
		credits:      make(map[string]*domain.StoredCredit),
	}
}

// SetClock подменяет время, которым помечаются created_at/updated_at
func (db *DB) SetClock(now func() time.Time) {
	db.mu.Lock()
	defer db.mu.Unlock()
	db.now = now
}

// Events возвращает копию всех записанных событий outbox
func (db *DB) Events() []*domain.Event {
	db.mu.Lock()
	defer db.mu.Unlock()

	result := make([]*domain.Event, 0, len(db.events))
	for _, e := range db.events {
		result = append(result, cloneEvent(e))
	}
	return result
}

func (db *DB) nextID() int64 {
	db.seq++
	return db.seq
}

// snapshot глубокая копия состояния для отката транзакции
func (db *DB) snapshot() *DB {
	db.mu.Lock()
	defer db.mu.Unlock()

	snap := NewDB()
	snap.seq = db.seq
	for id, t := range db.templates {
		c := *t
		snap.templates[id] = &c
	}
	for id, b := range db.blocked {
		c := *b
		snap.blocked[id] = &c
	}
	for id, e := range db.extras {
		c := *e
		snap.extras[id] = &c
	}
	for id, r := range db.reservations {
		snap.reservations[id] = cloneReservation(r)
	}
	for id, p := range db.participants {
		snap.participants[id] = cloneParticipant(p)
	}
	for id, inv := range db.invoices {
		snap.invoices[id] = cloneInvoice(inv)
	}
	for ref, c := range db.credits {
		cc := *c
		snap.credits[ref] = &cc
	}
	for _, e := range db.events {
		snap.events = append(snap.events, cloneEvent(e))
	}
	return snap
}

// restore возвращает состояние из снимка
func (db *DB) restore(snap *DB) {
	db.mu.Lock()
	defer db.mu.Unlock()

	db.seq = snap.seq
	db.templates = snap.templates
	db.blocked = snap.blocked
	db.extras = snap.extras
	db.reservations = snap.reservations
	db.participants = snap.participants
	db.invoices = snap.invoices
	db.credits = snap.credits
	db.events = snap.events
}

func cloneReservation(r *domain.Reservation) *domain.Reservation {
	c := *r
	c.Participants = nil
	return &c
}

func cloneParticipant(p *domain.Participant) *domain.Participant {
	c := *p
	if p.Guest != nil {
		g := *p.Guest
		c.Guest = &g
	}
	return &c
}

func cloneInvoice(inv *domain.Invoice) *domain.Invoice {
	c := *inv
	c.LineItems = append([]domain.LineItem(nil), inv.LineItems...)
	return &c
}

func cloneEvent(e *domain.Event) *domain.Event {
	c := *e
	c.Payload = append([]byte(nil), e.Payload...)
	return &c
}

func sameDay(a, b time.Time) bool {
	y1, m1, d1 := a.Date()
	y2, m2, d2 := b.Date()
	return y1 == y2 && m1 == m2 && d1 == d2
}
