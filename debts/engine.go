/*
engine.go - Payment processor, payment reversal, and debt lifecycle

PURPOSE:
  The transaction-script layer of the engine. Each use case (create, pay,
  revert, update, delete) is one function that loads every participant,
  validates, mutates, and commits inside a single AtomicStore.WithTx call.
  Cross-collection consistency lives here, not in per-collection
  repositories calling each other.

ATOMICITY & RETRY:
  Every unit either commits fully or leaves no trace. A unit that loses the
  store's concurrency race (ErrConflict) is retried whole, bounded by
  MaxRetries; partial retries never happen.

PAYMENT SEMANTICS:
  - interest is inferred only when the cash amount exceeds the remaining
    amount and the caller supplied no explicit interest
  - a discount is never inferred; under-payment without an explicit
    discount simply carries the remainder forward
  - the debt's outstanding balance decreases by non-interest cash only;
    both the generic path and the register-and-pay path share the reducer
    in reducer.go

SEE ALSO:
  - schedule.go: Installment generation
  - reducer.go:  Aggregate maintenance
  - ledger/store.go: The atomic transaction primitive
*/
package debts

import (
	"context"
	"fmt"
	"time"

	"github.com/shopspring/decimal"

	"github.com/warp/debt-ledger/ledger"
)

// DefaultMaxRetries bounds conflict retries per atomic unit.
const DefaultMaxRetries = 3

// Engine executes debt use cases against an AtomicStore.
type Engine struct {
	Store      ledger.AtomicStore
	MaxRetries int
}

func NewEngine(store ledger.AtomicStore) *Engine {
	return &Engine{Store: store, MaxRetries: DefaultMaxRetries}
}

// withRetry runs one atomic unit, retrying the whole unit on conflict.
func (e *Engine) withRetry(ctx context.Context, fn func(ledger.Store) error) error {
	attempts := e.MaxRetries
	if attempts < 1 {
		attempts = 1
	}

	var err error
	for i := 0; i < attempts; i++ {
		err = e.Store.WithTx(ctx, fn)
		if err == nil || !ledger.IsRetryable(err) {
			return err
		}
	}
	return fmt.Errorf("atomic unit failed after %d attempts: %w", attempts, err)
}

func newID(prefix string) string {
	return fmt.Sprintf("%s-%d", prefix, time.Now().UnixNano())
}

// =============================================================================
// DEBT LIFECYCLE
// =============================================================================

// CreateDebt generates the schedule and persists the debt with its full
// installment set as one atomic unit. The debt starts active with zeroed
// aggregates and outstanding balance equal to the total repayment amount.
func (e *Engine) CreateDebt(ctx context.Context, def Definition) (*ledger.Debt, []ledger.DebtInstallment, error) {
	if def.OwnerID == "" {
		return nil, nil, &ledger.ValidationError{Field: "ownerId", Reason: "required"}
	}
	schedule, err := GenerateSchedule(def)
	if err != nil {
		return nil, nil, err
	}

	debt, installments := buildDebt(def, schedule)

	err = e.withRetry(ctx, func(s ledger.Store) error {
		if err := s.SaveDebt(ctx, debt); err != nil {
			return err
		}
		for _, in := range installments {
			if err := s.SaveInstallment(ctx, in); err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return nil, nil, err
	}
	return &debt, installments, nil
}

// CreateDebtPaid is the register-and-pay-immediately variant for the
// one-off "already paid" case: schedule generation, debt creation, and one
// payment pass commit as a single atomic unit, sharing the payment reducer
// with the generic path.
func (e *Engine) CreateDebtPaid(ctx context.Context, def Definition, event PaymentEvent) (*PaymentResult, error) {
	if def.OwnerID == "" {
		return nil, &ledger.ValidationError{Field: "ownerId", Reason: "required"}
	}
	if def.Recurring || def.TotalInstallments > 0 {
		return nil, &ledger.ValidationError{Field: "definition", Reason: "register-and-pay applies to simple one-off debts only"}
	}
	if err := validateEvent(event); err != nil {
		return nil, err
	}
	schedule, err := GenerateSchedule(def)
	if err != nil {
		return nil, err
	}

	debt, installments := buildDebt(def, schedule)
	txID := ledger.TransactionID(newID("tx"))

	var result *PaymentResult
	err = e.withRetry(ctx, func(s ledger.Store) error {
		if err := s.SaveDebt(ctx, debt); err != nil {
			return err
		}
		for _, in := range installments {
			if err := s.SaveInstallment(ctx, in); err != nil {
				return err
			}
		}
		result, err = applyPayment(ctx, s, installments[0].ID, event, txID)
		return err
	})
	if err != nil {
		return nil, err
	}
	return result, nil
}

// UpdateDebt applies a partial field merge. Historical installments are
// never recomputed by an update.
func (e *Engine) UpdateDebt(ctx context.Context, id ledger.DebtID, patch Patch) (*ledger.Debt, error) {
	var updated *ledger.Debt
	err := e.withRetry(ctx, func(s ledger.Store) error {
		debt, err := s.GetDebt(ctx, id)
		if err != nil {
			return err
		}
		if debt == nil {
			return &ledger.NotFoundError{Kind: "debt", ID: string(id)}
		}
		if patch.Description != nil {
			debt.Description = *patch.Description
		}
		if patch.CategoryID != nil {
			debt.CategoryID = *patch.CategoryID
		}
		if patch.Active != nil {
			debt.Active = *patch.Active
		}
		if err := s.SaveDebt(ctx, *debt); err != nil {
			return err
		}
		updated = debt
		return nil
	})
	if err != nil {
		return nil, err
	}
	return updated, nil
}

// DeleteDebt removes a debt and all its installments as one atomic unit.
// It is rejected while any installment has a linked transaction.
func (e *Engine) DeleteDebt(ctx context.Context, id ledger.DebtID) error {
	return e.withRetry(ctx, func(s ledger.Store) error {
		debt, err := s.GetDebt(ctx, id)
		if err != nil {
			return err
		}
		if debt == nil {
			return &ledger.NotFoundError{Kind: "debt", ID: string(id)}
		}

		installments, err := s.ListInstallments(ctx, id)
		if err != nil {
			return err
		}
		for _, in := range installments {
			if in.HasPayments() {
				return &ledger.InvariantViolationError{Reason: "linked payments exist", DebtID: id}
			}
		}

		if err := s.DeleteInstallmentsByDebt(ctx, id); err != nil {
			return err
		}
		return s.DeleteDebt(ctx, id)
	})
}

// UpdateInstallmentExpected adjusts an unpaid installment's current due
// amount (manually applied interest). The adjustment is independent of any
// payment; installments with recorded payments cannot be adjusted.
func (e *Engine) UpdateInstallmentExpected(ctx context.Context, debtID ledger.DebtID, id ledger.InstallmentID, newAmount decimal.Decimal) (*ledger.DebtInstallment, error) {
	if !newAmount.IsPositive() {
		return nil, &ledger.ValidationError{Field: "newAmount", Reason: "must be greater than zero"}
	}

	var updated *ledger.DebtInstallment
	err := e.withRetry(ctx, func(s ledger.Store) error {
		inst, err := s.GetInstallment(ctx, id)
		if err != nil {
			return err
		}
		if inst == nil || inst.DebtID != debtID {
			return &ledger.NotFoundError{Kind: "installment", ID: string(id)}
		}
		if inst.HasPayments() {
			return &ledger.InvariantViolationError{Reason: "cannot adjust an installment with recorded payments", DebtID: debtID}
		}

		inst.CurrentDueAmount = newAmount
		inst.RemainingAmount = newAmount
		if err := s.SaveInstallment(ctx, *inst); err != nil {
			return err
		}
		updated = inst
		return nil
	})
	if err != nil {
		return nil, err
	}
	return updated, nil
}

func buildDebt(def Definition, schedule *Schedule) (ledger.Debt, []ledger.DebtInstallment) {
	debtID := def.ID
	if debtID == "" {
		debtID = ledger.DebtID(newID("debt"))
	}

	debt := ledger.Debt{
		ID:                 debtID,
		OwnerID:            def.OwnerID,
		Description:        def.Description,
		CategoryID:         def.CategoryID,
		OriginalAmount:     def.OriginalAmount,
		TotalRepayment:     schedule.TotalRepayment,
		Recurring:          def.Recurring,
		TotalInstallments:  def.TotalInstallments,
		InstallmentAmount:  def.InstallmentAmount,
		StartDate:          def.StartDate,
		TotalPaid:          decimal.Zero,
		TotalInterestPaid:  decimal.Zero,
		TotalFinePaid:      decimal.Zero,
		OutstandingBalance: schedule.TotalRepayment,
		Active:             true,
		CreatedAt:          time.Now().UTC(),
	}

	installments := make([]ledger.DebtInstallment, len(schedule.Installments))
	for i, in := range schedule.Installments {
		in.DebtID = debtID
		in.ID = ledger.InstallmentID(fmt.Sprintf("inst-%s-%d", debtID, in.Number))
		installments[i] = in
	}
	return debt, installments
}

// =============================================================================
// PAYMENT PROCESSOR
// =============================================================================

// PayInstallment applies one payment event to one installment. The
// installment update, debt aggregate update, account balance update, and
// transaction insert commit as a single atomic unit; any missing
// participant aborts the unit with no partial effect.
func (e *Engine) PayInstallment(ctx context.Context, id ledger.InstallmentID, event PaymentEvent) (*PaymentResult, error) {
	if err := validateEvent(event); err != nil {
		return nil, err
	}

	txID := ledger.TransactionID(newID("tx"))

	var result *PaymentResult
	err := e.withRetry(ctx, func(s ledger.Store) error {
		var err error
		result, err = applyPayment(ctx, s, id, event, txID)
		return err
	})
	if err != nil {
		return nil, err
	}
	return result, nil
}

func validateEvent(event PaymentEvent) error {
	if !event.Amount.IsPositive() {
		return &ledger.ValidationError{Field: "amount", Reason: "must be greater than zero"}
	}
	if event.AccountID == "" {
		return &ledger.ValidationError{Field: "accountId", Reason: "required"}
	}
	if event.InterestPaid != nil {
		if event.InterestPaid.IsNegative() {
			return &ledger.ValidationError{Field: "interestPaid", Reason: "must not be negative"}
		}
		if event.InterestPaid.GreaterThan(event.Amount) {
			return &ledger.ValidationError{Field: "interestPaid", Reason: "cannot exceed the payment amount"}
		}
	}
	if event.DiscountReceived != nil && event.DiscountReceived.IsNegative() {
		return &ledger.ValidationError{Field: "discountReceived", Reason: "must not be negative"}
	}
	return nil
}

// applyPayment is the shared payment pass used by PayInstallment and
// CreateDebtPaid. It must run inside an atomic unit.
func applyPayment(ctx context.Context, s ledger.Store, id ledger.InstallmentID, event PaymentEvent, txID ledger.TransactionID) (*PaymentResult, error) {
	inst, err := s.GetInstallment(ctx, id)
	if err != nil {
		return nil, err
	}
	if inst == nil {
		return nil, &ledger.NotFoundError{Kind: "installment", ID: string(id)}
	}
	debt, err := s.GetDebt(ctx, inst.DebtID)
	if err != nil {
		return nil, err
	}
	if debt == nil {
		return nil, &ledger.NotFoundError{Kind: "debt", ID: string(inst.DebtID)}
	}
	account, err := s.GetAccount(ctx, event.AccountID)
	if err != nil {
		return nil, err
	}
	if account == nil {
		return nil, &ledger.NotFoundError{Kind: "account", ID: string(event.AccountID)}
	}

	// Effective interest: explicit override wins; otherwise the excess of
	// cash over the remaining amount. A discount is only ever explicit.
	interest := decimal.Zero
	if event.InterestPaid != nil {
		interest = *event.InterestPaid
	} else if event.Amount.GreaterThan(inst.RemainingAmount) {
		interest = event.Amount.Sub(inst.RemainingAmount)
	}
	discount := decimal.Zero
	if event.DiscountReceived != nil {
		discount = *event.DiscountReceived
	}
	principal := event.Amount.Sub(interest)

	wasPaid := inst.Status == ledger.StatusPaid

	inst.PaidAmount = inst.PaidAmount.Add(event.Amount)
	inst.DiscountAmount = inst.DiscountAmount.Add(discount)
	inst.InterestPaidAmount = inst.InterestPaidAmount.Add(interest)

	// remaining = due - paid - discount, floored at zero at the moment the
	// installment flips to paid.
	remaining := inst.CurrentDueAmount.Sub(inst.PaidAmount).Sub(inst.DiscountAmount)
	paidDelta := 0
	if remaining.IsPositive() {
		inst.RemainingAmount = remaining
		inst.Status = ledger.StatusPartial
	} else {
		inst.RemainingAmount = decimal.Zero
		inst.Status = ledger.StatusPaid
		if !wasPaid {
			paidDelta = 1
		}
	}
	inst.LinkedTransactionIDs = append(inst.LinkedTransactionIDs, txID)

	description := event.Description
	if description == "" {
		description = fmt.Sprintf("Payment: %s (installment %d)", debt.Description, inst.Number)
	}
	tx := ledger.Transaction{
		ID:                txID,
		OwnerID:           inst.OwnerID,
		AccountID:         account.ID,
		Type:              ledger.TxExpense,
		Amount:            event.Amount,
		Description:       description,
		Date:              event.Date,
		CategoryID:        debt.CategoryID,
		PaymentMethodID:   event.PaymentMethodID,
		DebtInstallmentID: inst.ID,
		InterestAmount:    interest,
		DiscountAmount:    discount,
		CreatedAt:         time.Now().UTC(),
	}

	account.Balance = account.Balance.Add(tx.SignedAmount())
	applyToDebt(debt, paymentDelta{Principal: principal, Interest: interest, PaidInstallments: paidDelta})

	if err := s.SaveInstallment(ctx, *inst); err != nil {
		return nil, err
	}
	if err := s.SaveDebt(ctx, *debt); err != nil {
		return nil, err
	}
	if err := s.SaveAccount(ctx, *account); err != nil {
		return nil, err
	}
	if err := s.AppendTransaction(ctx, tx); err != nil {
		return nil, err
	}

	return &PaymentResult{
		Installment: *inst,
		Debt:        *debt,
		Account:     *account,
		Transaction: tx,
	}, nil
}

// =============================================================================
// PAYMENT REVERSAL
// =============================================================================

// RevertInstallmentPayment undoes every payment recorded against an
// installment: each linked transaction's account effect is reversed and the
// record deleted, the installment returns to pristine pending, and the
// debt's aggregates lose exactly this installment's recorded contributions.
// One atomic unit; an installment with no linked transactions is a no-op.
func (e *Engine) RevertInstallmentPayment(ctx context.Context, id ledger.InstallmentID) (*ledger.DebtInstallment, error) {
	var reverted *ledger.DebtInstallment
	err := e.withRetry(ctx, func(s ledger.Store) error {
		inst, err := s.GetInstallment(ctx, id)
		if err != nil {
			return err
		}
		if inst == nil {
			return &ledger.NotFoundError{Kind: "installment", ID: string(id)}
		}
		if !inst.HasPayments() {
			reverted = inst
			return nil
		}
		debt, err := s.GetDebt(ctx, inst.DebtID)
		if err != nil {
			return err
		}
		if debt == nil {
			return &ledger.NotFoundError{Kind: "debt", ID: string(inst.DebtID)}
		}

		// Reverse each linked transaction's account effect, then delete it.
		for _, txID := range inst.LinkedTransactionIDs {
			tx, err := s.GetTransaction(ctx, txID)
			if err != nil {
				return err
			}
			if tx == nil {
				return &ledger.NotFoundError{Kind: "transaction", ID: string(txID)}
			}
			account, err := s.GetAccount(ctx, tx.AccountID)
			if err != nil {
				return err
			}
			if account == nil {
				return &ledger.NotFoundError{Kind: "account", ID: string(tx.AccountID)}
			}
			account.Balance = account.Balance.Sub(tx.SignedAmount())
			if err := s.SaveAccount(ctx, *account); err != nil {
				return err
			}
			if err := s.DeleteTransaction(ctx, txID); err != nil {
				return err
			}
		}

		delta := paymentDelta{
			Principal: inst.PaidAmount.Sub(inst.InterestPaidAmount),
			Interest:  inst.InterestPaidAmount,
		}
		if inst.Status == ledger.StatusPaid {
			delta.PaidInstallments = 1
		}
		applyToDebt(debt, delta.negate())
		debt.Active = true

		inst.PaidAmount = decimal.Zero
		inst.DiscountAmount = decimal.Zero
		inst.InterestPaidAmount = decimal.Zero
		inst.RemainingAmount = inst.CurrentDueAmount
		inst.Status = ledger.StatusPending
		inst.LinkedTransactionIDs = nil

		if err := s.SaveInstallment(ctx, *inst); err != nil {
			return err
		}
		if err := s.SaveDebt(ctx, *debt); err != nil {
			return err
		}
		reverted = inst
		return nil
	})
	if err != nil {
		return nil, err
	}
	return reverted, nil
}

// =============================================================================
// RECURRING SCHEDULE EXTENSION
// =============================================================================

// ExtendRecurringSchedules tops up every active recurring debt whose
// schedule does not yet reach asOf's calendar year, appending one
// installment per month of every missing year up to and including asOf's.
// Each debt is its own atomic unit (disjoint record sets). Returns the
// number of debts extended.
func (e *Engine) ExtendRecurringSchedules(ctx context.Context, asOf time.Time) (int, error) {
	debts, err := e.Store.ListActiveRecurringDebts(ctx)
	if err != nil {
		return 0, err
	}

	extended := 0
	for _, d := range debts {
		debtID := d.ID
		var didExtend bool
		err := e.withRetry(ctx, func(s ledger.Store) error {
			didExtend = false
			debt, err := s.GetDebt(ctx, debtID)
			if err != nil {
				return err
			}
			if debt == nil || !debt.Recurring || !debt.Active {
				return nil
			}
			installments, err := s.ListInstallments(ctx, debtID)
			if err != nil {
				return err
			}
			if len(installments) == 0 {
				return nil
			}

			last := installments[len(installments)-1]
			if last.DueDate.Year() >= asOf.Year() {
				return nil
			}

			// Walk every year between the schedule's end and asOf so a sweep
			// that skipped one or more year boundaries leaves no holes. Each
			// year gets January through December, keeping the schedule's
			// day-of-month and monthly stepping.
			number := last.Number
			for year := last.DueDate.Year() + 1; year <= asOf.Year(); year++ {
				due := time.Date(year, time.January, debt.StartDate.Day(), 0, 0, 0, 0, time.UTC)
				for m := 0; m < 12; m++ {
					number++
					in := ledger.DebtInstallment{
						ID:                 ledger.InstallmentID(fmt.Sprintf("inst-%s-%d", debtID, number)),
						DebtID:             debtID,
						OwnerID:            debt.OwnerID,
						Number:             number,
						DueDate:            due,
						ExpectedAmount:     debt.OriginalAmount,
						CurrentDueAmount:   debt.OriginalAmount,
						PaidAmount:         decimal.Zero,
						RemainingAmount:    debt.OriginalAmount,
						DiscountAmount:     decimal.Zero,
						InterestPaidAmount: decimal.Zero,
						Status:             ledger.StatusPending,
					}
					if err := s.SaveInstallment(ctx, in); err != nil {
						return err
					}
					due = due.AddDate(0, 1, 0)
				}
			}
			didExtend = true
			return nil
		})
		if err != nil {
			return extended, err
		}
		if didExtend {
			extended++
		}
	}
	return extended, nil
}
