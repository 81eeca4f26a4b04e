/*
Package ledger provides the core data model for the debt payment engine.

PURPOSE:
  This package contains the record types and invariants shared by the
  payment engine and its storage backends. Four collections make up the
  ledger: Accounts, Debts, DebtInstallments, and Transactions. Each record
  is scoped to an owner.

KEY CONCEPTS IN THIS FILE (types.go):
  - Account: A money-holding container with an incrementally-maintained balance
  - Debt: A borrowing obligation with running aggregates
  - DebtInstallment: One scheduled due amount within a debt's schedule
  - Transaction: An immutable ledger entry of money moving in/out of an account

DESIGN PRINCIPLES:
  1. Precision: Uses decimal.Decimal to avoid floating-point errors
  2. Incremental aggregates: balances and debt totals are mutated inside the
     same atomic unit as the transaction that causes the change, never
     recomputed by scanning history
  3. Explicit status: installment state is a stored enum, not inferred from
     nullable fields; "overdue" is derived at read time
  4. Type safety: strong typing for IDs prevents mixing record kinds

SEE ALSO:
  - store.go: Persistence interfaces (Store, AtomicStore)
  - errors.go: Error taxonomy
  - debts package: The engine operating on these records
*/
package ledger

import (
	"time"

	"github.com/shopspring/decimal"
)

// =============================================================================
// IDENTIFIERS
// =============================================================================

type AccountID string
type DebtID string
type InstallmentID string
type TransactionID string

// =============================================================================
// ACCOUNT - Money-holding container
// =============================================================================

type AccountKind string

const (
	AccountChecking   AccountKind = "checking"
	AccountSavings    AccountKind = "savings"
	AccountCreditCard AccountKind = "credit_card"
	AccountOther      AccountKind = "other"
)

// Account represents a bank account, card, or wallet.
//
// INVARIANT: Balance is the running sum of all committed transactions
// referencing this account (income adds, expense subtracts). It is mutated
// only inside the same atomic unit as the transaction causing the change.
type Account struct {
	ID      AccountID
	OwnerID string
	Name    string
	Kind    AccountKind
	Balance decimal.Decimal
	Icon    string

	CreatedAt time.Time
}

// =============================================================================
// DEBT - Borrowing obligation with running aggregates
// =============================================================================

// Debt is a borrowing or planned-expense obligation: a single simple charge,
// a fixed-installment plan, or an open-ended recurring monthly charge.
//
// INVARIANT: OutstandingBalance == TotalRepayment - TotalPaid at all times,
// maintained incrementally at every payment and reversal. TotalPaid
// accumulates only non-interest cash. For recurring debts TotalRepayment is
// the zero sentinel (unbounded) and OutstandingBalance stays zero.
type Debt struct {
	ID          DebtID
	OwnerID     string
	Description string
	CategoryID  string

	OriginalAmount    decimal.Decimal
	TotalRepayment    decimal.Decimal
	Recurring         bool
	TotalInstallments int
	InstallmentAmount decimal.Decimal
	StartDate         time.Time

	// Running aggregates. Mutated only by the payment reducer.
	TotalPaid          decimal.Decimal
	TotalInterestPaid  decimal.Decimal
	TotalFinePaid      decimal.Decimal
	OutstandingBalance decimal.Decimal
	PaidInstallments   int
	Active             bool

	CreatedAt time.Time
}

// =============================================================================
// DEBT INSTALLMENT - One scheduled obligation
// =============================================================================

type InstallmentStatus string

const (
	StatusPending InstallmentStatus = "pending"
	StatusPartial InstallmentStatus = "partial"
	StatusPaid    InstallmentStatus = "paid"

	// StatusOverdue is a read-time derivation of pending/partial plus a past
	// due date. It is never stored.
	StatusOverdue InstallmentStatus = "overdue"
)

// DebtInstallment is one scheduled due amount belonging to a debt.
//
// INVARIANTS:
//   - PaidAmount + DiscountAmount + RemainingAmount == CurrentDueAmount
//     whenever Status is "partial"
//   - RemainingAmount never goes negative: it is floored at zero at the
//     moment the status flips to "paid"
//   - When Status is "paid" the linked-transaction list is non-empty
//     (except for installments reset by a reversal, which return to "pending")
type DebtInstallment struct {
	ID      InstallmentID
	DebtID  DebtID
	OwnerID string

	// Number is the 1-based ordinal within the schedule.
	Number  int
	DueDate time.Time

	// ExpectedAmount is the amount the schedule generator assigned.
	// CurrentDueAmount starts equal and moves only through manual
	// adjustment (applied interest on an unpaid installment).
	ExpectedAmount   decimal.Decimal
	CurrentDueAmount decimal.Decimal

	PaidAmount         decimal.Decimal
	RemainingAmount    decimal.Decimal
	DiscountAmount     decimal.Decimal
	InterestPaidAmount decimal.Decimal

	Status               InstallmentStatus
	LinkedTransactionIDs []TransactionID
}

// EffectiveStatus derives the read-time status: a pending or partial
// installment whose due date has passed reads as overdue. Stored status is
// never mutated by this derivation.
func (i *DebtInstallment) EffectiveStatus(asOf time.Time) InstallmentStatus {
	if i.Status == StatusPaid {
		return StatusPaid
	}
	due := time.Date(i.DueDate.Year(), i.DueDate.Month(), i.DueDate.Day(), 0, 0, 0, 0, time.UTC)
	today := time.Date(asOf.Year(), asOf.Month(), asOf.Day(), 0, 0, 0, 0, time.UTC)
	if due.Before(today) {
		return StatusOverdue
	}
	return i.Status
}

// HasPayments reports whether any ledger transaction is linked to this
// installment. Debt deletion is blocked while this is true.
func (i *DebtInstallment) HasPayments() bool {
	return len(i.LinkedTransactionIDs) > 0
}

// =============================================================================
// TRANSACTION - Immutable ledger entry
// =============================================================================

type TransactionType string

const (
	TxIncome  TransactionType = "income"
	TxExpense TransactionType = "expense"
)

// Transaction records money moving into or out of an account. Once committed
// it is never modified; a payment reversal deletes the whole linked set as
// one unit together with the aggregate restores.
//
// INVARIANT: every transaction carrying a DebtInstallmentID corresponds to
// exactly one entry in that installment's linked-transaction list, and has
// already been reflected in its account's balance.
type Transaction struct {
	ID      TransactionID
	OwnerID string

	AccountID   AccountID
	Type        TransactionType
	Amount      decimal.Decimal // positive magnitude; sign comes from Type
	Description string
	Date        time.Time

	CategoryID      string
	PaymentMethodID string

	// Optional debt linkage and annotations.
	DebtInstallmentID InstallmentID
	InterestAmount    decimal.Decimal
	DiscountAmount    decimal.Decimal

	// Loan income marking (money received when a loan was taken out).
	LoanIncome bool
	LoanSource string

	CreatedAt time.Time
}

// SignedAmount returns the balance delta this transaction applies to its
// account: positive for income, negative for expense.
func (t Transaction) SignedAmount() decimal.Decimal {
	if t.Type == TxIncome {
		return t.Amount
	}
	return t.Amount.Neg()
}
