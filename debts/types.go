/*
Package debts implements the debt amortization and payment ledger engine.

PURPOSE:
  Turns a debt definition into a schedule of installments, processes
  payments against installments while keeping account balances, installment
  aggregates, and debt aggregates mutually consistent, and supports
  reverting a payment to restore editability.

KEY CONCEPTS:
  - Definition:   What the caller provides to create a debt
  - PaymentEvent: One payment applied to one installment
  - Engine:       The transaction-script layer; one atomic unit per use case

SEE ALSO:
  - schedule.go: Schedule generation (pure)
  - reducer.go:  Debt aggregate maintenance (shared by pay and revert)
  - engine.go:   Payment processor, reversal, lifecycle operations
*/
package debts

import (
	"time"

	"github.com/shopspring/decimal"

	"github.com/warp/debt-ledger/ledger"
)

// Definition describes a debt to be created. Exactly one of three shapes:
//
//   - Recurring:   Recurring == true; monthly charges of OriginalAmount
//     through December of the start year
//   - Fixed-count: TotalInstallments and InstallmentAmount both > 0
//   - Simple:      neither of the above; a single one-off installment
type Definition struct {
	ID          ledger.DebtID // optional; engine mints one when empty
	OwnerID     string
	Description string
	CategoryID  string

	OriginalAmount    decimal.Decimal
	Recurring         bool
	TotalInstallments int
	InstallmentAmount decimal.Decimal
	StartDate         time.Time
}

// PaymentEvent is one payment applied to one installment.
//
// Interest and discount are caller overrides: when InterestPaid is nil and
// the cash amount exceeds the remaining amount, the excess is inferred as
// interest. A discount is never inferred - the shortfall of an under-payment
// is carried forward unless the caller explicitly supplies
// DiscountReceived.
type PaymentEvent struct {
	Amount          decimal.Decimal
	AccountID       ledger.AccountID
	PaymentMethodID string
	Date            time.Time
	Description     string

	InterestPaid     *decimal.Decimal
	DiscountReceived *decimal.Decimal
}

// Patch is a partial debt update. Nil fields are left untouched.
// Historical installments are never recomputed by an update.
type Patch struct {
	Description *string
	CategoryID  *string
	Active      *bool
}

// PaymentResult is the committed state after a successful payment.
type PaymentResult struct {
	Installment ledger.DebtInstallment
	Debt        ledger.Debt
	Account     ledger.Account
	Transaction ledger.Transaction
}
