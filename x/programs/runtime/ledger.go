package runtime

import (
	"context"
	"sync"
)

//go:generate mockgen -package=${GOPACKAGE} -destination=mock_ledger.go . Ledger

// Ledger records receipts of dispatched invocations. It is host bookkeeping
// and never visible to programs.
type Ledger interface {
	Put(ctx context.Context, r *Receipt) error
	Get(ctx context.Context, id string) (*Receipt, error)
	Has(ctx context.Context, id string) (bool, error)
}

type MemoryLedger struct {
	lock     sync.RWMutex
	receipts map[string]*Receipt
}

func NewMemoryLedger() *MemoryLedger {
	return &MemoryLedger{receipts: map[string]*Receipt{}}
}

func (m *MemoryLedger) Put(_ context.Context, r *Receipt) error {
	m.lock.Lock()
	defer m.lock.Unlock()

	m.receipts[r.ID] = r
	return nil
}

func (m *MemoryLedger) Get(_ context.Context, id string) (*Receipt, error) {
	m.lock.RLock()
	defer m.lock.RUnlock()

	r, ok := m.receipts[id]
	if !ok {
		return nil, ErrNotFound
	}
	return r, nil
}

func (m *MemoryLedger) Has(_ context.Context, id string) (bool, error) {
	m.lock.RLock()
	defer m.lock.RUnlock()

	_, ok := m.receipts[id]
	return ok, nil
}

func (m *MemoryLedger) Len() int {
	m.lock.RLock()
	defer m.lock.RUnlock()

	return len(m.receipts)
}
