/*
schedule.go - Expansion of a debt definition into its installment schedule

PURPOSE:
  Pure functions that turn a Definition into an ordered list of
  installments plus the debt's computed total repayment amount. Nothing
  here touches the store; persistence happens in the engine's atomic unit.

SHAPES:
  Recurring:    one installment per remaining month of the start year
                (start month through December), each of OriginalAmount.
                Total repayment is the zero sentinel (unbounded).
  Fixed-count:  exactly TotalInstallments monthly installments of
                InstallmentAmount. Total repayment = count x amount.
  Simple:       one installment of OriginalAmount at the start date.
                Total repayment = OriginalAmount.

DATE ARITHMETIC:
  Due dates step by time.AddDate(0, 1, 0): day-of-month is preserved and
  month-end overflow normalizes per the stdlib (Jan 31 + 1 month = Mar 2/3).
*/
package debts

import (
	"time"

	"github.com/shopspring/decimal"

	"github.com/warp/debt-ledger/ledger"
)

// Schedule is the not-yet-persisted output of GenerateSchedule.
type Schedule struct {
	Installments []ledger.DebtInstallment

	// TotalRepayment is the debt's computed repayment total. Zero for
	// recurring debts (unbounded sentinel).
	TotalRepayment decimal.Decimal
}

// GenerateSchedule expands a debt definition into its installment schedule.
//
// GUARANTEES:
//   - installment numbers are strictly increasing starting at 1
//   - due dates step by exactly one calendar month
//   - every installment starts pristine: paid zero, remaining == expected,
//     status pending, no linked transactions
func GenerateSchedule(def Definition) (*Schedule, error) {
	if !def.OriginalAmount.IsPositive() {
		return nil, &ledger.ValidationError{Field: "originalAmount", Reason: "must be greater than zero"}
	}
	fixed := def.TotalInstallments > 0 || def.InstallmentAmount.IsPositive()
	if !def.Recurring && fixed {
		if def.TotalInstallments <= 0 {
			return nil, &ledger.ValidationError{Field: "totalInstallments", Reason: "required for fixed-count debts"}
		}
		if !def.InstallmentAmount.IsPositive() {
			return nil, &ledger.ValidationError{Field: "installmentAmount", Reason: "required for fixed-count debts"}
		}
	}

	switch {
	case def.Recurring:
		return recurringSchedule(def), nil
	case fixed:
		return fixedSchedule(def), nil
	default:
		return simpleSchedule(def), nil
	}
}

// recurringSchedule covers the start month through December of the start
// year: a debt recurring from September yields 4 installments.
func recurringSchedule(def Definition) *Schedule {
	months := 12 - int(def.StartDate.Month()) + 1

	installments := make([]ledger.DebtInstallment, 0, months)
	due := def.StartDate
	for i := 0; i < months; i++ {
		installments = append(installments, newInstallment(def, i+1, due, def.OriginalAmount))
		due = due.AddDate(0, 1, 0)
	}
	return &Schedule{Installments: installments, TotalRepayment: decimal.Zero}
}

func fixedSchedule(def Definition) *Schedule {
	installments := make([]ledger.DebtInstallment, 0, def.TotalInstallments)
	due := def.StartDate
	for i := 0; i < def.TotalInstallments; i++ {
		installments = append(installments, newInstallment(def, i+1, due, def.InstallmentAmount))
		due = due.AddDate(0, 1, 0)
	}
	total := def.InstallmentAmount.Mul(decimal.NewFromInt(int64(def.TotalInstallments)))
	return &Schedule{Installments: installments, TotalRepayment: total}
}

func simpleSchedule(def Definition) *Schedule {
	return &Schedule{
		Installments:   []ledger.DebtInstallment{newInstallment(def, 1, def.StartDate, def.OriginalAmount)},
		TotalRepayment: def.OriginalAmount,
	}
}

func newInstallment(def Definition, number int, due time.Time, amount decimal.Decimal) ledger.DebtInstallment {
	return ledger.DebtInstallment{
		DebtID:             def.ID,
		OwnerID:            def.OwnerID,
		Number:             number,
		DueDate:            due,
		ExpectedAmount:     amount,
		CurrentDueAmount:   amount,
		PaidAmount:         decimal.Zero,
		RemainingAmount:    amount,
		DiscountAmount:     decimal.Zero,
		InterestPaidAmount: decimal.Zero,
		Status:             ledger.StatusPending,
	}
}
