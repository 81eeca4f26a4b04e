// Package store provides an in-memory ledger.AtomicStore (for testing/dev).
package store

import (
	"context"
	"sort"
	"sync"

	"github.com/warp/debt-ledger/ledger"
)

// =============================================================================
// MEMORY STORE - In-memory implementation (for testing/dev)
// =============================================================================

type Memory struct {
	mu           sync.RWMutex
	accounts     map[ledger.AccountID]ledger.Account
	debts        map[ledger.DebtID]ledger.Debt
	installments map[ledger.InstallmentID]ledger.DebtInstallment
	transactions map[ledger.TransactionID]ledger.Transaction
}

func NewMemory() *Memory {
	return &Memory{
		accounts:     make(map[ledger.AccountID]ledger.Account),
		debts:        make(map[ledger.DebtID]ledger.Debt),
		installments: make(map[ledger.InstallmentID]ledger.DebtInstallment),
		transactions: make(map[ledger.TransactionID]ledger.Transaction),
	}
}

// -----------------------------------------------------------------------------
// Accounts
// -----------------------------------------------------------------------------

func (m *Memory) GetAccount(_ context.Context, id ledger.AccountID) (*ledger.Account, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	if a, ok := m.accounts[id]; ok {
		return &a, nil
	}
	return nil, nil
}

func (m *Memory) SaveAccount(_ context.Context, a ledger.Account) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.accounts[a.ID] = a
	return nil
}

func (m *Memory) ListAccounts(_ context.Context, ownerID string) ([]ledger.Account, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	var result []ledger.Account
	for _, a := range m.accounts {
		if a.OwnerID == ownerID {
			result = append(result, a)
		}
	}
	sort.Slice(result, func(i, j int) bool { return result[i].Name < result[j].Name })
	return result, nil
}

// -----------------------------------------------------------------------------
// Debts
// -----------------------------------------------------------------------------

func (m *Memory) GetDebt(_ context.Context, id ledger.DebtID) (*ledger.Debt, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	if d, ok := m.debts[id]; ok {
		return &d, nil
	}
	return nil, nil
}

func (m *Memory) SaveDebt(_ context.Context, d ledger.Debt) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.debts[d.ID] = d
	return nil
}

func (m *Memory) DeleteDebt(_ context.Context, id ledger.DebtID) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.debts, id)
	return nil
}

func (m *Memory) ListDebts(_ context.Context, ownerID string) ([]ledger.Debt, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	var result []ledger.Debt
	for _, d := range m.debts {
		if d.OwnerID == ownerID {
			result = append(result, d)
		}
	}
	sort.Slice(result, func(i, j int) bool { return result[i].CreatedAt.Before(result[j].CreatedAt) })
	return result, nil
}

func (m *Memory) ListActiveRecurringDebts(_ context.Context) ([]ledger.Debt, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	var result []ledger.Debt
	for _, d := range m.debts {
		if d.Recurring && d.Active {
			result = append(result, d)
		}
	}
	sort.Slice(result, func(i, j int) bool { return result[i].ID < result[j].ID })
	return result, nil
}

// -----------------------------------------------------------------------------
// Installments
// -----------------------------------------------------------------------------

func (m *Memory) GetInstallment(_ context.Context, id ledger.InstallmentID) (*ledger.DebtInstallment, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	if in, ok := m.installments[id]; ok {
		cp := in
		cp.LinkedTransactionIDs = append([]ledger.TransactionID(nil), in.LinkedTransactionIDs...)
		return &cp, nil
	}
	return nil, nil
}

func (m *Memory) SaveInstallment(_ context.Context, in ledger.DebtInstallment) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	in.LinkedTransactionIDs = append([]ledger.TransactionID(nil), in.LinkedTransactionIDs...)
	m.installments[in.ID] = in
	return nil
}

func (m *Memory) ListInstallments(_ context.Context, debtID ledger.DebtID) ([]ledger.DebtInstallment, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	var result []ledger.DebtInstallment
	for _, in := range m.installments {
		if in.DebtID == debtID {
			cp := in
			cp.LinkedTransactionIDs = append([]ledger.TransactionID(nil), in.LinkedTransactionIDs...)
			result = append(result, cp)
		}
	}
	sort.Slice(result, func(i, j int) bool { return result[i].Number < result[j].Number })
	return result, nil
}

func (m *Memory) DeleteInstallmentsByDebt(_ context.Context, debtID ledger.DebtID) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	for id, in := range m.installments {
		if in.DebtID == debtID {
			delete(m.installments, id)
		}
	}
	return nil
}

// -----------------------------------------------------------------------------
// Transactions
// -----------------------------------------------------------------------------

func (m *Memory) GetTransaction(_ context.Context, id ledger.TransactionID) (*ledger.Transaction, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	if tx, ok := m.transactions[id]; ok {
		return &tx, nil
	}
	return nil, nil
}

func (m *Memory) AppendTransaction(_ context.Context, tx ledger.Transaction) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.transactions[tx.ID] = tx
	return nil
}

func (m *Memory) DeleteTransaction(_ context.Context, id ledger.TransactionID) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.transactions, id)
	return nil
}

func (m *Memory) ListTransactions(_ context.Context, ownerID string) ([]ledger.Transaction, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	var result []ledger.Transaction
	for _, tx := range m.transactions {
		if tx.OwnerID == ownerID {
			result = append(result, tx)
		}
	}
	sort.Slice(result, func(i, j int) bool {
		if result[i].Date.Equal(result[j].Date) {
			return result[i].ID < result[j].ID
		}
		return result[i].Date.Before(result[j].Date)
	})
	return result, nil
}

// =============================================================================
// TRANSACTIONAL MEMORY STORE
// =============================================================================

// TxMemory wraps Memory with atomic transaction support.
type TxMemory struct {
	*Memory
	txMu sync.Mutex
}

func NewTxMemory() *TxMemory {
	return &TxMemory{Memory: NewMemory()}
}

// WithTx executes fn within a transaction.
// For the memory store this is simulated with a snapshot + rollback on error.
// A single transaction mutex serializes units, matching the "store serializes
// contended balance updates" contract.
func (tm *TxMemory) WithTx(ctx context.Context, fn func(ledger.Store) error) error {
	tm.txMu.Lock()
	defer tm.txMu.Unlock()

	snapshot := tm.snapshot()

	if err := fn(tm.Memory); err != nil {
		tm.restore(snapshot)
		return err
	}
	return nil
}

type memorySnapshot struct {
	accounts     map[ledger.AccountID]ledger.Account
	debts        map[ledger.DebtID]ledger.Debt
	installments map[ledger.InstallmentID]ledger.DebtInstallment
	transactions map[ledger.TransactionID]ledger.Transaction
}

func (tm *TxMemory) snapshot() memorySnapshot {
	tm.mu.RLock()
	defer tm.mu.RUnlock()

	s := memorySnapshot{
		accounts:     make(map[ledger.AccountID]ledger.Account, len(tm.accounts)),
		debts:        make(map[ledger.DebtID]ledger.Debt, len(tm.debts)),
		installments: make(map[ledger.InstallmentID]ledger.DebtInstallment, len(tm.installments)),
		transactions: make(map[ledger.TransactionID]ledger.Transaction, len(tm.transactions)),
	}
	for k, v := range tm.accounts {
		s.accounts[k] = v
	}
	for k, v := range tm.debts {
		s.debts[k] = v
	}
	for k, v := range tm.installments {
		v.LinkedTransactionIDs = append([]ledger.TransactionID(nil), v.LinkedTransactionIDs...)
		s.installments[k] = v
	}
	for k, v := range tm.transactions {
		s.transactions[k] = v
	}
	return s
}

func (tm *TxMemory) restore(s memorySnapshot) {
	tm.mu.Lock()
	defer tm.mu.Unlock()
	tm.accounts = s.accounts
	tm.debts = s.debts
	tm.installments = s.installments
	tm.transactions = s.transactions
}
