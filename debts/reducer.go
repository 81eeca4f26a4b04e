/*
reducer.go - Debt aggregate maintenance

PURPOSE:
  The single authoritative reducer for a debt's running totals. Both the
  generic partial-payment path and the one-shot register-and-pay path feed
  through applyToDebt; the reversal path feeds the same deltas negated.
  The aggregates are only ever mutated inside the same atomic unit as the
  triggering installment/account/transaction writes - never by an
  independent recalculation pass.

NUMERIC CONTRACT:
  TotalPaid accumulates only non-interest cash (principal). Interest paid
  does not reduce outstanding principal:

    OutstandingBalance == TotalRepayment - TotalPaid

  holds at every commit point. Recurring debts carry the zero
  TotalRepayment sentinel; their outstanding stays zero and their active
  flag is managed by the schedule, not by this arithmetic.
*/
package debts

import (
	"github.com/shopspring/decimal"

	"github.com/warp/debt-ledger/ledger"
)

// paymentDelta is the contribution of one payment (or its exact inverse,
// for a reversal) to the parent debt's aggregates.
type paymentDelta struct {
	// Principal is the non-interest cash applied. Negative on reversal.
	Principal decimal.Decimal
	Interest  decimal.Decimal
	Fine      decimal.Decimal

	// PaidInstallments is +1 when the installment transitioned to paid,
	// -1 when a reversal un-paid it, 0 otherwise.
	PaidInstallments int
}

func (d paymentDelta) negate() paymentDelta {
	return paymentDelta{
		Principal:        d.Principal.Neg(),
		Interest:         d.Interest.Neg(),
		Fine:             d.Fine.Neg(),
		PaidInstallments: -d.PaidInstallments,
	}
}

// applyToDebt folds a payment delta into the debt's running totals.
func applyToDebt(debt *ledger.Debt, delta paymentDelta) {
	debt.TotalPaid = debt.TotalPaid.Add(delta.Principal)
	debt.TotalInterestPaid = debt.TotalInterestPaid.Add(delta.Interest)
	debt.TotalFinePaid = debt.TotalFinePaid.Add(delta.Fine)
	debt.PaidInstallments += delta.PaidInstallments

	if debt.TotalRepayment.IsPositive() {
		debt.OutstandingBalance = debt.TotalRepayment.Sub(debt.TotalPaid)
		debt.Active = debt.OutstandingBalance.IsPositive()
		return
	}

	// Recurring sentinel: no meaningful total, outstanding pinned at zero.
	// The debt stays active until its owner closes it.
	debt.OutstandingBalance = decimal.Zero
}
