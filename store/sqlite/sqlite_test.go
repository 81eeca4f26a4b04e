package sqlite

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"testing"
	"time"

	"github.com/shopspring/decimal"

	"github.com/warp/debt-ledger/debts"
	"github.com/warp/debt-ledger/ledger"
)

func newTestStore(t *testing.T) *Store {
	t.Helper()
	store, err := New(":memory:")
	if err != nil {
		t.Fatalf("failed to create store: %v", err)
	}
	t.Cleanup(func() { store.Close() })
	return store
}

func dec(s string) decimal.Decimal {
	d, err := decimal.NewFromString(s)
	if err != nil {
		panic(err)
	}
	return d
}

// =============================================================================
// ACCOUNTS
// =============================================================================

func TestAccountRoundTrip(t *testing.T) {
	ctx := context.Background()
	store := newTestStore(t)

	missing, err := store.GetAccount(ctx, "acct-nope")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if missing != nil {
		t.Fatal("expected nil for missing account")
	}

	account := ledger.Account{
		ID:      "acct-1",
		OwnerID: "user-1",
		Name:    "Checking",
		Kind:    ledger.AccountChecking,
		Balance: dec("1234.56"),
		Icon:    "bank",
	}
	if err := store.SaveAccount(ctx, account); err != nil {
		t.Fatalf("failed to save account: %v", err)
	}

	got, err := store.GetAccount(ctx, "acct-1")
	if err != nil {
		t.Fatalf("failed to get account: %v", err)
	}
	if got == nil {
		t.Fatal("expected account, got nil")
	}
	if !got.Balance.Equal(dec("1234.56")) {
		t.Errorf("expected balance 1234.56, got %s", got.Balance)
	}
	if got.Kind != ledger.AccountChecking {
		t.Errorf("expected checking kind, got %s", got.Kind)
	}

	// Upsert: second save updates in place.
	account.Balance = dec("1000")
	if err := store.SaveAccount(ctx, account); err != nil {
		t.Fatalf("failed to update account: %v", err)
	}
	got, err = store.GetAccount(ctx, "acct-1")
	if err != nil {
		t.Fatalf("failed to re-get account: %v", err)
	}
	if !got.Balance.Equal(dec("1000")) {
		t.Errorf("expected updated balance 1000, got %s", got.Balance)
	}

	accounts, err := store.ListAccounts(ctx, "user-1")
	if err != nil {
		t.Fatalf("failed to list accounts: %v", err)
	}
	if len(accounts) != 1 {
		t.Errorf("expected 1 account, got %d", len(accounts))
	}
}

// =============================================================================
// DEBTS
// =============================================================================

func TestDebtRoundTrip(t *testing.T) {
	ctx := context.Background()
	store := newTestStore(t)

	debt := ledger.Debt{
		ID:                 "debt-1",
		OwnerID:            "user-1",
		Description:        "Car loan",
		CategoryID:         "cat-vehicle",
		OriginalAmount:     dec("12000"),
		TotalRepayment:     dec("13200"),
		TotalInstallments:  12,
		InstallmentAmount:  dec("1100"),
		StartDate:          time.Date(2024, time.February, 5, 0, 0, 0, 0, time.UTC),
		TotalPaid:          dec("0"),
		TotalInterestPaid:  dec("0"),
		TotalFinePaid:      dec("0"),
		OutstandingBalance: dec("13200"),
		Active:             true,
	}
	if err := store.SaveDebt(ctx, debt); err != nil {
		t.Fatalf("failed to save debt: %v", err)
	}

	got, err := store.GetDebt(ctx, "debt-1")
	if err != nil {
		t.Fatalf("failed to get debt: %v", err)
	}
	if got == nil {
		t.Fatal("expected debt, got nil")
	}
	if !got.OutstandingBalance.Equal(dec("13200")) {
		t.Errorf("expected outstanding 13200, got %s", got.OutstandingBalance)
	}
	if !got.StartDate.Equal(debt.StartDate) {
		t.Errorf("expected start date %s, got %s", debt.StartDate, got.StartDate)
	}
	if got.CategoryID != "cat-vehicle" {
		t.Errorf("expected category cat-vehicle, got %q", got.CategoryID)
	}

	if err := store.DeleteDebt(ctx, "debt-1"); err != nil {
		t.Fatalf("failed to delete debt: %v", err)
	}
	got, err = store.GetDebt(ctx, "debt-1")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got != nil {
		t.Error("expected nil after delete")
	}
}

func TestListActiveRecurringDebts(t *testing.T) {
	ctx := context.Background()
	store := newTestStore(t)

	save := func(id string, recurring, active bool) {
		t.Helper()
		err := store.SaveDebt(ctx, ledger.Debt{
			ID: ledger.DebtID(id), OwnerID: "user-1", Description: id,
			OriginalAmount: dec("10"), TotalRepayment: dec("0"),
			InstallmentAmount: dec("0"),
			StartDate:         time.Date(2024, time.March, 1, 0, 0, 0, 0, time.UTC),
			TotalPaid:         dec("0"), TotalInterestPaid: dec("0"),
			TotalFinePaid: dec("0"), OutstandingBalance: dec("0"),
			Recurring: recurring, Active: active,
		})
		if err != nil {
			t.Fatalf("failed to save %s: %v", id, err)
		}
	}
	save("debt-a", true, true)
	save("debt-b", true, false)
	save("debt-c", false, true)

	got, err := store.ListActiveRecurringDebts(ctx)
	if err != nil {
		t.Fatalf("failed to list: %v", err)
	}
	if len(got) != 1 || got[0].ID != "debt-a" {
		t.Errorf("expected only debt-a, got %v", got)
	}
}

// =============================================================================
// INSTALLMENTS
// =============================================================================

func TestInstallmentRoundTrip_LinkedTransactions(t *testing.T) {
	ctx := context.Background()
	store := newTestStore(t)

	in := ledger.DebtInstallment{
		ID:                 "inst-1",
		DebtID:             "debt-1",
		OwnerID:            "user-1",
		Number:             1,
		DueDate:            time.Date(2024, time.April, 10, 0, 0, 0, 0, time.UTC),
		ExpectedAmount:     dec("100"),
		CurrentDueAmount:   dec("100"),
		PaidAmount:         dec("0"),
		RemainingAmount:    dec("100"),
		DiscountAmount:     dec("0"),
		InterestPaidAmount: dec("0"),
		Status:             ledger.StatusPending,
	}
	if err := store.SaveInstallment(ctx, in); err != nil {
		t.Fatalf("failed to save installment: %v", err)
	}

	got, err := store.GetInstallment(ctx, "inst-1")
	if err != nil {
		t.Fatalf("failed to get installment: %v", err)
	}
	if len(got.LinkedTransactionIDs) != 0 {
		t.Errorf("expected no linked transactions, got %v", got.LinkedTransactionIDs)
	}

	// Linked ids survive the JSON column round trip in order.
	got.LinkedTransactionIDs = []ledger.TransactionID{"tx-1", "tx-2"}
	got.Status = ledger.StatusPartial
	got.PaidAmount = dec("60")
	got.RemainingAmount = dec("40")
	if err := store.SaveInstallment(ctx, *got); err != nil {
		t.Fatalf("failed to update installment: %v", err)
	}

	got, err = store.GetInstallment(ctx, "inst-1")
	if err != nil {
		t.Fatalf("failed to re-get installment: %v", err)
	}
	if len(got.LinkedTransactionIDs) != 2 ||
		got.LinkedTransactionIDs[0] != "tx-1" || got.LinkedTransactionIDs[1] != "tx-2" {
		t.Errorf("expected linked [tx-1 tx-2], got %v", got.LinkedTransactionIDs)
	}
	if got.Status != ledger.StatusPartial {
		t.Errorf("expected partial, got %s", got.Status)
	}
}

func TestListInstallments_OrderedByNumber(t *testing.T) {
	ctx := context.Background()
	store := newTestStore(t)

	for _, n := range []int{3, 1, 2} {
		err := store.SaveInstallment(ctx, ledger.DebtInstallment{
			ID: ledger.InstallmentID(fmt.Sprintf("inst-%d", n)), DebtID: "debt-1",
			OwnerID: "user-1", Number: n,
			DueDate:        time.Date(2024, time.Month(n), 10, 0, 0, 0, 0, time.UTC),
			ExpectedAmount: dec("100"), CurrentDueAmount: dec("100"),
			PaidAmount: dec("0"), RemainingAmount: dec("100"),
			DiscountAmount: dec("0"), InterestPaidAmount: dec("0"),
			Status: ledger.StatusPending,
		})
		if err != nil {
			t.Fatalf("failed to save installment %d: %v", n, err)
		}
	}

	got, err := store.ListInstallments(ctx, "debt-1")
	if err != nil {
		t.Fatalf("failed to list: %v", err)
	}
	if len(got) != 3 {
		t.Fatalf("expected 3 installments, got %d", len(got))
	}
	for i, in := range got {
		if in.Number != i+1 {
			t.Errorf("position %d: expected number %d, got %d", i, i+1, in.Number)
		}
	}

	if err := store.DeleteInstallmentsByDebt(ctx, "debt-1"); err != nil {
		t.Fatalf("failed to delete: %v", err)
	}
	got, err = store.ListInstallments(ctx, "debt-1")
	if err != nil {
		t.Fatalf("failed to re-list: %v", err)
	}
	if len(got) != 0 {
		t.Errorf("expected empty after delete, got %d", len(got))
	}
}

// =============================================================================
// TRANSACTIONS
// =============================================================================

func TestTransactionRoundTrip(t *testing.T) {
	ctx := context.Background()
	store := newTestStore(t)

	tx := ledger.Transaction{
		ID:                "tx-1",
		OwnerID:           "user-1",
		AccountID:         "acct-1",
		Type:              ledger.TxExpense,
		Amount:            dec("130"),
		Description:       "Payment: Car loan (installment 1)",
		Date:              time.Date(2024, time.April, 10, 0, 0, 0, 0, time.UTC),
		DebtInstallmentID: "inst-1",
		InterestAmount:    dec("30"),
		DiscountAmount:    dec("0"),
	}
	if err := store.AppendTransaction(ctx, tx); err != nil {
		t.Fatalf("failed to append transaction: %v", err)
	}

	got, err := store.GetTransaction(ctx, "tx-1")
	if err != nil {
		t.Fatalf("failed to get transaction: %v", err)
	}
	if got == nil {
		t.Fatal("expected transaction, got nil")
	}
	if !got.InterestAmount.Equal(dec("30")) {
		t.Errorf("expected interest 30, got %s", got.InterestAmount)
	}
	if got.DebtInstallmentID != "inst-1" {
		t.Errorf("expected installment link inst-1, got %q", got.DebtInstallmentID)
	}
	if !got.SignedAmount().Equal(dec("-130")) {
		t.Errorf("expected signed amount -130, got %s", got.SignedAmount())
	}

	if err := store.DeleteTransaction(ctx, "tx-1"); err != nil {
		t.Fatalf("failed to delete transaction: %v", err)
	}
	got, err = store.GetTransaction(ctx, "tx-1")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got != nil {
		t.Error("expected nil after delete")
	}
}

// =============================================================================
// ATOMIC UNITS
// =============================================================================

func TestWithTx_RollsBackOnError(t *testing.T) {
	ctx := context.Background()
	store := newTestStore(t)

	boom := errors.New("boom")
	err := store.WithTx(ctx, func(s ledger.Store) error {
		if err := s.SaveAccount(ctx, ledger.Account{
			ID: "acct-1", OwnerID: "user-1", Name: "Checking",
			Kind: ledger.AccountChecking, Balance: dec("100"),
		}); err != nil {
			return err
		}
		return boom
	})
	if !errors.Is(err, boom) {
		t.Fatalf("expected boom, got %v", err)
	}

	got, err := store.GetAccount(ctx, "acct-1")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got != nil {
		t.Error("rolled-back write must not be visible")
	}
}

func TestWithTx_CommitsAllWrites(t *testing.T) {
	ctx := context.Background()
	store := newTestStore(t)

	err := store.WithTx(ctx, func(s ledger.Store) error {
		if err := s.SaveAccount(ctx, ledger.Account{
			ID: "acct-1", OwnerID: "user-1", Name: "Checking",
			Kind: ledger.AccountChecking, Balance: dec("100"),
		}); err != nil {
			return err
		}
		return s.AppendTransaction(ctx, ledger.Transaction{
			ID: "tx-1", OwnerID: "user-1", AccountID: "acct-1",
			Type: ledger.TxExpense, Amount: dec("25"),
			Date:           time.Date(2024, time.April, 1, 0, 0, 0, 0, time.UTC),
			InterestAmount: dec("0"), DiscountAmount: dec("0"),
		})
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	account, err := store.GetAccount(ctx, "acct-1")
	if err != nil || account == nil {
		t.Fatalf("expected committed account, got %v / %v", account, err)
	}
	tx, err := store.GetTransaction(ctx, "tx-1")
	if err != nil || tx == nil {
		t.Fatalf("expected committed transaction, got %v / %v", tx, err)
	}
}

func TestCorruptStoredAmountSurfacesAsError(t *testing.T) {
	// GIVEN: An account whose balance column was corrupted out-of-band
	// WHEN: Reading it back
	// THEN: An error naming the column, never a silent zero balance

	ctx := context.Background()
	store := newTestStore(t)

	if err := store.SaveAccount(ctx, ledger.Account{
		ID: "acct-1", OwnerID: "user-1", Name: "Checking",
		Kind: ledger.AccountChecking, Balance: dec("1000"),
	}); err != nil {
		t.Fatalf("failed to save account: %v", err)
	}
	if _, err := store.db.Exec(`UPDATE accounts SET balance = 'garbage' WHERE id = 'acct-1'`); err != nil {
		t.Fatalf("failed to corrupt row: %v", err)
	}

	account, err := store.GetAccount(ctx, "acct-1")
	if err == nil {
		t.Fatalf("expected an error, got account %+v", account)
	}
	if !strings.Contains(err.Error(), "balance") {
		t.Errorf("error should name the column, got %v", err)
	}
}

func TestMapConflict(t *testing.T) {
	busy := mapConflict(errors.New("database is locked"))
	if !errors.Is(busy, ledger.ErrConflict) {
		t.Errorf("expected lock contention to map to ErrConflict, got %v", busy)
	}
	other := errors.New("no such table: debts")
	if errors.Is(mapConflict(other), ledger.ErrConflict) {
		t.Error("unrelated errors must pass through unchanged")
	}
	if mapConflict(nil) != nil {
		t.Error("nil must stay nil")
	}
}

// =============================================================================
// ENGINE INTEGRATION
// =============================================================================

func TestEngine_PaymentFlowOnSQLite(t *testing.T) {
	// GIVEN: A 1200/12x100 debt and a funded account, both persisted
	// WHEN: Paying installment 1 with 130 and then reverting
	// THEN: The same state transitions hold as on the in-memory store

	ctx := context.Background()
	store := newTestStore(t)
	engine := debts.NewEngine(store)

	if err := store.SaveAccount(ctx, ledger.Account{
		ID: "acct-1", OwnerID: "user-1", Name: "Checking",
		Kind: ledger.AccountChecking, Balance: dec("1000"),
	}); err != nil {
		t.Fatalf("failed to seed account: %v", err)
	}

	_, installments, err := engine.CreateDebt(ctx, debts.Definition{
		OwnerID:           "user-1",
		Description:       "Laptop financing",
		OriginalAmount:    dec("1200"),
		TotalInstallments: 12,
		InstallmentAmount: dec("100"),
		StartDate:         time.Date(2024, time.January, 10, 0, 0, 0, 0, time.UTC),
	})
	if err != nil {
		t.Fatalf("failed to create debt: %v", err)
	}
	if len(installments) != 12 {
		t.Fatalf("expected 12 installments, got %d", len(installments))
	}

	result, err := engine.PayInstallment(ctx, installments[0].ID, debts.PaymentEvent{
		Amount:    dec("130"),
		AccountID: "acct-1",
		Date:      time.Date(2024, time.January, 10, 0, 0, 0, 0, time.UTC),
	})
	if err != nil {
		t.Fatalf("failed to pay: %v", err)
	}
	if result.Installment.Status != ledger.StatusPaid {
		t.Errorf("expected paid, got %s", result.Installment.Status)
	}
	if !result.Account.Balance.Equal(dec("870")) {
		t.Errorf("expected balance 870, got %s", result.Account.Balance)
	}
	if !result.Debt.OutstandingBalance.Equal(dec("1100")) {
		t.Errorf("expected outstanding 1100, got %s", result.Debt.OutstandingBalance)
	}

	reverted, err := engine.RevertInstallmentPayment(ctx, installments[0].ID)
	if err != nil {
		t.Fatalf("failed to revert: %v", err)
	}
	if reverted.Status != ledger.StatusPending {
		t.Errorf("expected pending after revert, got %s", reverted.Status)
	}
	account, err := store.GetAccount(ctx, "acct-1")
	if err != nil {
		t.Fatalf("failed to get account: %v", err)
	}
	if !account.Balance.Equal(dec("1000")) {
		t.Errorf("expected balance restored to 1000, got %s", account.Balance)
	}
	txs, err := store.ListTransactions(ctx, "user-1")
	if err != nil {
		t.Fatalf("failed to list transactions: %v", err)
	}
	if len(txs) != 0 {
		t.Errorf("expected no transactions after revert, got %d", len(txs))
	}
}
