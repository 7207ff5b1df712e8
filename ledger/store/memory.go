// Package store provides Store implementations.
package store

import (
	"context"
	"fmt"
	"sync"

	"github.com/warp/envelope-ledger/ledger"
)

// =============================================================================
// MEMORY STORE - In-memory implementation (for testing/dev)
// =============================================================================

type Memory struct {
	mu   sync.RWMutex
	data *tables
}

type tables struct {
	accounts     *rows[ledger.Account]
	payees       *rows[ledger.Payee]
	groups       *rows[ledger.EnvelopeGroup]
	envelopes    *rows[ledger.Envelope]
	periods      *rows[ledger.BudgetPeriod]
	budgets      *rows[ledger.Budget]
	transactions *rows[ledger.Transaction]
}

func newTables() *tables {
	return &tables{
		accounts:     newRows[ledger.Account](),
		payees:       newRows[ledger.Payee](),
		groups:       newRows[ledger.EnvelopeGroup](),
		envelopes:    newRows[ledger.Envelope](),
		periods:      newRows[ledger.BudgetPeriod](),
		budgets:      newRows[ledger.Budget](),
		transactions: newRows[ledger.Transaction](),
	}
}

func (t *tables) clone() *tables {
	return &tables{
		accounts:     t.accounts.clone(),
		payees:       t.payees.clone(),
		groups:       t.groups.clone(),
		envelopes:    t.envelopes.clone(),
		periods:      t.periods.clone(),
		budgets:      t.budgets.clone(),
		transactions: t.transactions.clone(),
	}
}

func NewMemory() *Memory {
	return &Memory{data: newTables()}
}

func (m *Memory) Accounts() ledger.Table[ledger.Account] {
	return &table[ledger.Account]{mu: &m.mu, rows: func() *rows[ledger.Account] { return m.data.accounts }}
}

func (m *Memory) Payees() ledger.Table[ledger.Payee] {
	return &table[ledger.Payee]{mu: &m.mu, rows: func() *rows[ledger.Payee] { return m.data.payees }}
}

func (m *Memory) EnvelopeGroups() ledger.Table[ledger.EnvelopeGroup] {
	return &table[ledger.EnvelopeGroup]{mu: &m.mu, rows: func() *rows[ledger.EnvelopeGroup] { return m.data.groups }}
}

func (m *Memory) Envelopes() ledger.Table[ledger.Envelope] {
	return &table[ledger.Envelope]{mu: &m.mu, rows: func() *rows[ledger.Envelope] { return m.data.envelopes }}
}

func (m *Memory) BudgetPeriods() ledger.Table[ledger.BudgetPeriod] {
	return &table[ledger.BudgetPeriod]{mu: &m.mu, rows: func() *rows[ledger.BudgetPeriod] { return m.data.periods }}
}

func (m *Memory) Budgets() ledger.Table[ledger.Budget] {
	return &table[ledger.Budget]{mu: &m.mu, rows: func() *rows[ledger.Budget] { return m.data.budgets }}
}

func (m *Memory) Transactions() ledger.Table[ledger.Transaction] {
	return &table[ledger.Transaction]{mu: &m.mu, rows: func() *rows[ledger.Transaction] { return m.data.transactions }}
}

// =============================================================================
// ROWS - Insertion-ordered map
// =============================================================================

type rows[T ledger.Record] struct {
	byID  map[ledger.ID]T
	order []ledger.ID
}

func newRows[T ledger.Record]() *rows[T] {
	return &rows[T]{byID: make(map[ledger.ID]T)}
}

func (r *rows[T]) clone() *rows[T] {
	c := &rows[T]{byID: make(map[ledger.ID]T, len(r.byID)), order: append([]ledger.ID{}, r.order...)}
	for k, v := range r.byID {
		c.byID[k] = v
	}
	return c
}

func (r *rows[T]) create(rec T) error {
	id := rec.RecordID()
	if id.IsZero() {
		return fmt.Errorf("create: empty id")
	}
	if _, exists := r.byID[id]; exists {
		return fmt.Errorf("create %s: duplicate id", id)
	}
	r.byID[id] = rec
	r.order = append(r.order, id)
	return nil
}

func (r *rows[T]) update(rec T) error {
	id := rec.RecordID()
	if _, exists := r.byID[id]; !exists {
		return fmt.Errorf("update %s: %w", id, ledger.ErrRecordNotFound)
	}
	r.byID[id] = rec
	return nil
}

func (r *rows[T]) read(ids []ledger.ID) []T {
	if ids == nil {
		result := make([]T, 0, len(r.order))
		for _, id := range r.order {
			result = append(result, r.byID[id])
		}
		return result
	}
	result := make([]T, 0, len(ids))
	seen := make(map[ledger.ID]bool, len(ids))
	for _, id := range ids {
		if seen[id] {
			continue
		}
		seen[id] = true
		if rec, ok := r.byID[id]; ok {
			result = append(result, rec)
		}
	}
	return result
}

// =============================================================================
// TABLE - ledger.Table over rows
// =============================================================================

type table[T ledger.Record] struct {
	// mu is nil inside WithTx, where the caller already holds the lock.
	mu   *sync.RWMutex
	rows func() *rows[T]
}

func (t *table[T]) Create(_ context.Context, rec T) error {
	if t.mu != nil {
		t.mu.Lock()
		defer t.mu.Unlock()
	}
	return t.rows().create(rec)
}

func (t *table[T]) Update(_ context.Context, rec T) error {
	if t.mu != nil {
		t.mu.Lock()
		defer t.mu.Unlock()
	}
	return t.rows().update(rec)
}

func (t *table[T]) Read(_ context.Context, ids []ledger.ID) ([]T, error) {
	if t.mu != nil {
		t.mu.RLock()
		defer t.mu.RUnlock()
	}
	return t.rows().read(ids), nil
}

// =============================================================================
// TRANSACTIONAL MEMORY STORE
// =============================================================================

var _ ledger.TxStore = (*Memory)(nil)

// WithTx executes fn within a transaction.
// For memory store, this is simulated with a snapshot + rollback on error.
func (m *Memory) WithTx(ctx context.Context, fn func(ledger.Store) error) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	snapshot := m.data.clone()
	view := &txView{parent: m}

	if err := fn(view); err != nil {
		m.data = snapshot
		return err
	}
	return nil
}

// txView reads and writes the parent's tables without locking.
type txView struct {
	parent *Memory
}

func (v *txView) Accounts() ledger.Table[ledger.Account] {
	return &table[ledger.Account]{rows: func() *rows[ledger.Account] { return v.parent.data.accounts }}
}

func (v *txView) Payees() ledger.Table[ledger.Payee] {
	return &table[ledger.Payee]{rows: func() *rows[ledger.Payee] { return v.parent.data.payees }}
}

func (v *txView) EnvelopeGroups() ledger.Table[ledger.EnvelopeGroup] {
	return &table[ledger.EnvelopeGroup]{rows: func() *rows[ledger.EnvelopeGroup] { return v.parent.data.groups }}
}

func (v *txView) Envelopes() ledger.Table[ledger.Envelope] {
	return &table[ledger.Envelope]{rows: func() *rows[ledger.Envelope] { return v.parent.data.envelopes }}
}

func (v *txView) BudgetPeriods() ledger.Table[ledger.BudgetPeriod] {
	return &table[ledger.BudgetPeriod]{rows: func() *rows[ledger.BudgetPeriod] { return v.parent.data.periods }}
}

func (v *txView) Budgets() ledger.Table[ledger.Budget] {
	return &table[ledger.Budget]{rows: func() *rows[ledger.Budget] { return v.parent.data.budgets }}
}

func (v *txView) Transactions() ledger.Table[ledger.Transaction] {
	return &table[ledger.Transaction]{rows: func() *rows[ledger.Transaction] { return v.parent.data.transactions }}
}
