package memory

import (
	"context"
	"sync"
)

type txKey struct{}

// TxManager выполняет транзакции строго по одной; при ошибке состояние откатывается
// Вложенный вызов присоединяется к внешней транзакции
type TxManager struct {
	db *DB
	mu sync.Mutex
}

// NewTxManager создает менеджер транзакций над хранилищем
func NewTxManager(db *DB) *TxManager {
	return &TxManager{db: db}
}

func (m *TxManager) Do(ctx context.Context, fn func(ctx context.Context) error) error {
	return m.run(ctx, fn)
}

func (m *TxManager) DoSerializable(ctx context.Context, fn func(ctx context.Context) error) error {
	return m.run(ctx, fn)
}

func (m *TxManager) DoReadOnly(ctx context.Context, fn func(ctx context.Context) error) error {
	return m.run(ctx, fn)
}

func (m *TxManager) run(ctx context.Context, fn func(ctx context.Context) error) error {
	if ctx.Value(txKey{}) != nil {
		return fn(ctx)
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	snap := m.db.snapshot()
	if err := fn(context.WithValue(ctx, txKey{}, true)); err != nil {
		m.db.restore(snap)
		return err
	}
	return nil
}
