package store

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/shopspring/decimal"

	"github.com/warp/debt-ledger/ledger"
)

func TestMemory_GetMissingReturnsNil(t *testing.T) {
	ctx := context.Background()
	m := NewMemory()

	account, err := m.GetAccount(ctx, "acct-nope")
	if err != nil || account != nil {
		t.Errorf("expected (nil, nil), got (%v, %v)", account, err)
	}
	debt, err := m.GetDebt(ctx, "debt-nope")
	if err != nil || debt != nil {
		t.Errorf("expected (nil, nil), got (%v, %v)", debt, err)
	}
	inst, err := m.GetInstallment(ctx, "inst-nope")
	if err != nil || inst != nil {
		t.Errorf("expected (nil, nil), got (%v, %v)", inst, err)
	}
	tx, err := m.GetTransaction(ctx, "tx-nope")
	if err != nil || tx != nil {
		t.Errorf("expected (nil, nil), got (%v, %v)", tx, err)
	}
}

func TestMemory_InstallmentsAreDefensivelyCopied(t *testing.T) {
	ctx := context.Background()
	m := NewMemory()

	in := ledger.DebtInstallment{
		ID: "inst-1", DebtID: "debt-1", OwnerID: "user-1", Number: 1,
		DueDate:        time.Date(2024, time.April, 10, 0, 0, 0, 0, time.UTC),
		ExpectedAmount: decimal.NewFromInt(100), CurrentDueAmount: decimal.NewFromInt(100),
		RemainingAmount:      decimal.NewFromInt(100),
		Status:               ledger.StatusPending,
		LinkedTransactionIDs: []ledger.TransactionID{"tx-1"},
	}
	if err := m.SaveInstallment(ctx, in); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	// Mutating the caller's slice must not leak into the store.
	in.LinkedTransactionIDs[0] = "tx-mutated"

	got, err := m.GetInstallment(ctx, "inst-1")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got.LinkedTransactionIDs[0] != "tx-1" {
		t.Errorf("stored slice was aliased: got %v", got.LinkedTransactionIDs)
	}

	// Mutating a read result must not leak either.
	got.LinkedTransactionIDs[0] = "tx-mutated"
	again, _ := m.GetInstallment(ctx, "inst-1")
	if again.LinkedTransactionIDs[0] != "tx-1" {
		t.Errorf("read result was aliased: got %v", again.LinkedTransactionIDs)
	}
}

func TestTxMemory_RollbackOnError(t *testing.T) {
	ctx := context.Background()
	tm := NewTxMemory()

	if err := tm.SaveAccount(ctx, ledger.Account{
		ID: "acct-1", OwnerID: "user-1", Name: "Checking",
		Kind: ledger.AccountChecking, Balance: decimal.NewFromInt(100),
	}); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	boom := errors.New("boom")
	err := tm.WithTx(ctx, func(s ledger.Store) error {
		account, err := s.GetAccount(ctx, "acct-1")
		if err != nil {
			return err
		}
		account.Balance = decimal.NewFromInt(25)
		if err := s.SaveAccount(ctx, *account); err != nil {
			return err
		}
		if err := s.AppendTransaction(ctx, ledger.Transaction{
			ID: "tx-1", OwnerID: "user-1", AccountID: "acct-1",
			Type: ledger.TxExpense, Amount: decimal.NewFromInt(75),
		}); err != nil {
			return err
		}
		return boom
	})
	if !errors.Is(err, boom) {
		t.Fatalf("expected boom, got %v", err)
	}

	account, err := tm.GetAccount(ctx, "acct-1")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !account.Balance.Equal(decimal.NewFromInt(100)) {
		t.Errorf("expected balance restored to 100, got %s", account.Balance)
	}
	tx, _ := tm.GetTransaction(ctx, "tx-1")
	if tx != nil {
		t.Error("rolled-back transaction must be absent")
	}
}

func TestTxMemory_CommitKeepsWrites(t *testing.T) {
	ctx := context.Background()
	tm := NewTxMemory()

	err := tm.WithTx(ctx, func(s ledger.Store) error {
		return s.SaveDebt(ctx, ledger.Debt{
			ID: "debt-1", OwnerID: "user-1", Description: "Car loan",
			OriginalAmount: decimal.NewFromInt(1000), TotalRepayment: decimal.NewFromInt(1000),
			OutstandingBalance: decimal.NewFromInt(1000), Active: true,
		})
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	debt, err := tm.GetDebt(ctx, "debt-1")
	if err != nil || debt == nil {
		t.Fatalf("expected committed debt, got (%v, %v)", debt, err)
	}
}
