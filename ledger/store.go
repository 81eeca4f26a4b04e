/*
store.go - Persistence interfaces for the four ledger collections

PURPOSE:
  Defines the interface between the payment engine and the database.
  Different implementations can use SQLite or in-memory storage.

KEY INTERFACES:
  Store:       Read/write access to Accounts, Debts, DebtInstallments,
               and Transactions
  AtomicStore: Store plus WithTx, the atomic multi-record transaction
               primitive

ATOMIC UNITS:
  Every engine use case (pay, reverse, create, delete) runs inside a single
  WithTx call: it loads all participants, validates, mutates, and commits
  together. If fn returns an error the whole unit rolls back; partial state
  is never observable.

GET SEMANTICS:
  Get* methods return (nil, nil) when the record does not exist. The engine
  converts that into a typed NotFoundError naming the record; the store does
  not decide what "missing" means for a use case.

CONCURRENCY:
  Account balance is the only record mutated by unrelated operations.
  Serialization of those read-modify-writes is the store's job (its
  transaction primitive), not application-level locking. A lost race
  surfaces as ErrConflict and the engine retries the whole unit.

IMPLEMENTATIONS:
  - store/sqlite/sqlite.go: Production SQLite
  - ledger/store/memory.go: In-memory for testing
*/
package ledger

import "context"

// Store provides access to the four ledger collections. All reads inside an
// atomic unit observe a consistent snapshot.
type Store interface {
	// Accounts
	GetAccount(ctx context.Context, id AccountID) (*Account, error)
	SaveAccount(ctx context.Context, a Account) error
	ListAccounts(ctx context.Context, ownerID string) ([]Account, error)

	// Debts
	GetDebt(ctx context.Context, id DebtID) (*Debt, error)
	SaveDebt(ctx context.Context, d Debt) error
	DeleteDebt(ctx context.Context, id DebtID) error
	ListDebts(ctx context.Context, ownerID string) ([]Debt, error)

	// ListActiveRecurringDebts returns every active recurring debt across
	// all owners. Used by the recurring-schedule sweeper.
	ListActiveRecurringDebts(ctx context.Context) ([]Debt, error)

	// Installments
	GetInstallment(ctx context.Context, id InstallmentID) (*DebtInstallment, error)
	SaveInstallment(ctx context.Context, in DebtInstallment) error
	ListInstallments(ctx context.Context, debtID DebtID) ([]DebtInstallment, error)
	DeleteInstallmentsByDebt(ctx context.Context, debtID DebtID) error

	// Transactions
	GetTransaction(ctx context.Context, id TransactionID) (*Transaction, error)
	AppendTransaction(ctx context.Context, tx Transaction) error
	DeleteTransaction(ctx context.Context, id TransactionID) error
	ListTransactions(ctx context.Context, ownerID string) ([]Transaction, error)
}

// AtomicStore wraps Store with the atomic multi-record transaction
// primitive. Every engine use case executes inside exactly one WithTx.
type AtomicStore interface {
	Store

	// WithTx executes fn within a transaction.
	// If fn returns an error, the transaction is rolled back.
	// If fn returns nil, the transaction is committed.
	// A concurrency loss is reported as ErrConflict (possibly wrapped).
	WithTx(ctx context.Context, fn func(Store) error) error
}
