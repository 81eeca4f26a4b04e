/*
Package sqlite provides a SQLite-backed implementation of ledger.AtomicStore.

PURPOSE:
  Implements the four ledger collections (accounts, debts, installments,
  transactions) and the atomic multi-record transaction primitive on
  SQLite. In production the same patterns apply to PostgreSQL - only minor
  SQL dialect differences.

KEY TABLES:
  accounts:           Money containers with incrementally-maintained balances
  debts:              Debt records with running aggregates
  debt_installments:  Schedule entries; linked transactions as a JSON column
  transactions:       Immutable-once-committed ledger entries

ATOMIC UNITS:
  WithTx wraps fn in a database transaction opened with an immediate write
  lock (_txlock=immediate), so every engine use case commits or rolls back
  as one unit. A lost lock race (SQLITE_BUSY after the busy timeout)
  surfaces as ledger.ErrConflict, which the engine retries whole.

MONEY:
  decimal amounts are persisted as canonical strings, never floats.

WAL MODE:
  SQLite is opened with WAL (Write-Ahead Logging):
  - Multiple readers don't block
  - Single writer at a time
  - Better crash recovery
  The pool is pinned to one connection, which both keeps ":memory:"
  databases coherent and serializes writers.

USAGE:
  store, err := sqlite.New("./data/ledger.db")
  if err != nil {
      log.Fatal(err)
  }
  defer store.Close()

  engine := debts.NewEngine(store)

MIGRATION:
  Schema is auto-migrated on New(). For production, use a proper migration
  tool (golang-migrate, goose) with versioned migrations.

SEE ALSO:
  - ledger/store.go: Interface definitions
  - ledger/store/memory.go: In-memory implementation for testing
*/
package sqlite

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	_ "github.com/mattn/go-sqlite3"
	"github.com/shopspring/decimal"

	"github.com/warp/debt-ledger/ledger"
)

// Store implements ledger.AtomicStore using SQLite.
type Store struct {
	db *sql.DB
	queries
}

// New creates a new SQLite store with the given database path.
// Use ":memory:" for an in-memory database.
func New(dbPath string) (*Store, error) {
	db, err := sql.Open("sqlite3", dbPath+"?_foreign_keys=on&_journal_mode=WAL&_busy_timeout=5000&_txlock=immediate")
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}
	// One connection: keeps :memory: databases coherent and serializes
	// writers, matching the single-writer model of the engine.
	db.SetMaxOpenConns(1)

	store := &Store{db: db, queries: queries{q: db}}
	if err := store.migrate(); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to migrate database: %w", err)
	}
	return store, nil
}

// Close closes the database connection.
func (s *Store) Close() error {
	return s.db.Close()
}

// migrate creates the database schema.
func (s *Store) migrate() error {
	schema := `
	-- Accounts (balance mutated only inside atomic units)
	CREATE TABLE IF NOT EXISTS accounts (
		id TEXT PRIMARY KEY,
		owner_id TEXT NOT NULL,
		name TEXT NOT NULL,
		kind TEXT NOT NULL,
		balance TEXT NOT NULL,
		icon TEXT,
		created_at TEXT NOT NULL
	);

	CREATE INDEX IF NOT EXISTS idx_accounts_owner
		ON accounts(owner_id);

	-- Debts with running aggregates
	CREATE TABLE IF NOT EXISTS debts (
		id TEXT PRIMARY KEY,
		owner_id TEXT NOT NULL,
		description TEXT NOT NULL,
		category_id TEXT,
		original_amount TEXT NOT NULL,
		total_repayment TEXT NOT NULL,
		recurring BOOLEAN NOT NULL DEFAULT FALSE,
		total_installments INTEGER NOT NULL DEFAULT 0,
		installment_amount TEXT NOT NULL,
		start_date TEXT NOT NULL,
		total_paid TEXT NOT NULL,
		total_interest_paid TEXT NOT NULL,
		total_fine_paid TEXT NOT NULL,
		outstanding_balance TEXT NOT NULL,
		paid_installments INTEGER NOT NULL DEFAULT 0,
		active BOOLEAN NOT NULL DEFAULT TRUE,
		created_at TEXT NOT NULL
	);

	CREATE INDEX IF NOT EXISTS idx_debts_owner
		ON debts(owner_id);
	CREATE INDEX IF NOT EXISTS idx_debts_recurring_active
		ON debts(recurring, active);

	-- Installments; linked transaction ids as an ordered JSON array
	CREATE TABLE IF NOT EXISTS debt_installments (
		id TEXT PRIMARY KEY,
		debt_id TEXT NOT NULL,
		owner_id TEXT NOT NULL,
		number INTEGER NOT NULL,
		due_date TEXT NOT NULL,
		expected_amount TEXT NOT NULL,
		current_due_amount TEXT NOT NULL,
		paid_amount TEXT NOT NULL,
		remaining_amount TEXT NOT NULL,
		discount_amount TEXT NOT NULL,
		interest_paid_amount TEXT NOT NULL,
		status TEXT NOT NULL,
		linked_transactions_json TEXT NOT NULL DEFAULT '[]'
	);

	CREATE INDEX IF NOT EXISTS idx_installments_debt
		ON debt_installments(debt_id, number);

	-- Transactions (immutable once committed; deleted only by reversal)
	CREATE TABLE IF NOT EXISTS transactions (
		id TEXT PRIMARY KEY,
		owner_id TEXT NOT NULL,
		account_id TEXT NOT NULL,
		tx_type TEXT NOT NULL,
		amount TEXT NOT NULL,
		description TEXT,
		date TEXT NOT NULL,
		category_id TEXT,
		payment_method_id TEXT,
		debt_installment_id TEXT,
		interest_amount TEXT NOT NULL,
		discount_amount TEXT NOT NULL,
		loan_income BOOLEAN NOT NULL DEFAULT FALSE,
		loan_source TEXT,
		created_at TEXT NOT NULL
	);

	CREATE INDEX IF NOT EXISTS idx_transactions_owner_date
		ON transactions(owner_id, date);
	CREATE INDEX IF NOT EXISTS idx_transactions_account
		ON transactions(account_id);
	CREATE INDEX IF NOT EXISTS idx_transactions_installment
		ON transactions(debt_installment_id) WHERE debt_installment_id IS NOT NULL;
	`

	_, err := s.db.Exec(schema)
	return err
}

// =============================================================================
// ATOMIC TRANSACTIONS (ledger.AtomicStore)
// =============================================================================

// WithTx executes fn within a database transaction.
func (s *Store) WithTx(ctx context.Context, fn func(ledger.Store) error) error {
	sqlTx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return mapConflict(fmt.Errorf("failed to begin transaction: %w", err))
	}
	defer sqlTx.Rollback()

	if err := fn(&queries{q: sqlTx}); err != nil {
		return err
	}
	if err := sqlTx.Commit(); err != nil {
		return mapConflict(fmt.Errorf("failed to commit transaction: %w", err))
	}
	return nil
}

// dbtx is satisfied by both *sql.DB and *sql.Tx.
type dbtx interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
}

// queries implements ledger.Store over either the pool or one transaction.
type queries struct {
	q dbtx
}

// =============================================================================
// ACCOUNTS
// =============================================================================

func (s *queries) GetAccount(ctx context.Context, id ledger.AccountID) (*ledger.Account, error) {
	row := s.q.QueryRowContext(ctx, `
		SELECT id, owner_id, name, kind, balance, icon, created_at
		FROM accounts WHERE id = ?`, id)

	a, err := scanAccount(row)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, mapConflict(fmt.Errorf("failed to get account: %w", err))
	}
	return a, nil
}

func (s *queries) SaveAccount(ctx context.Context, a ledger.Account) error {
	createdAt := a.CreatedAt
	if createdAt.IsZero() {
		createdAt = time.Now().UTC()
	}
	_, err := s.q.ExecContext(ctx, `
		INSERT INTO accounts (id, owner_id, name, kind, balance, icon, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET
			owner_id = excluded.owner_id,
			name = excluded.name,
			kind = excluded.kind,
			balance = excluded.balance,
			icon = excluded.icon`,
		a.ID, a.OwnerID, a.Name, a.Kind, a.Balance.String(),
		nullString(a.Icon), createdAt.Format(time.RFC3339))
	if err != nil {
		return mapConflict(fmt.Errorf("failed to save account: %w", err))
	}
	return nil
}

func (s *queries) ListAccounts(ctx context.Context, ownerID string) ([]ledger.Account, error) {
	rows, err := s.q.QueryContext(ctx, `
		SELECT id, owner_id, name, kind, balance, icon, created_at
		FROM accounts WHERE owner_id = ? ORDER BY name ASC`, ownerID)
	if err != nil {
		return nil, mapConflict(fmt.Errorf("failed to list accounts: %w", err))
	}
	defer rows.Close()

	var accounts []ledger.Account
	for rows.Next() {
		a, err := scanAccount(rows)
		if err != nil {
			return nil, err
		}
		accounts = append(accounts, *a)
	}
	return accounts, rows.Err()
}

type scanner interface {
	Scan(dest ...any) error
}

func scanAccount(row scanner) (*ledger.Account, error) {
	var (
		a         ledger.Account
		balance   string
		icon      sql.NullString
		createdAt string
	)
	if err := row.Scan(&a.ID, &a.OwnerID, &a.Name, &a.Kind, &balance, &icon, &createdAt); err != nil {
		return nil, err
	}
	var df decFields
	a.Balance = df.parse("balance", balance)
	if df.err != nil {
		return nil, df.err
	}
	a.Icon = icon.String
	a.CreatedAt, _ = time.Parse(time.RFC3339, createdAt)
	return &a, nil
}

// =============================================================================
// DEBTS
// =============================================================================

const debtColumns = `id, owner_id, description, category_id, original_amount, total_repayment,
	recurring, total_installments, installment_amount, start_date,
	total_paid, total_interest_paid, total_fine_paid, outstanding_balance,
	paid_installments, active, created_at`

func (s *queries) GetDebt(ctx context.Context, id ledger.DebtID) (*ledger.Debt, error) {
	row := s.q.QueryRowContext(ctx,
		`SELECT `+debtColumns+` FROM debts WHERE id = ?`, id)

	d, err := scanDebt(row)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, mapConflict(fmt.Errorf("failed to get debt: %w", err))
	}
	return d, nil
}

func (s *queries) SaveDebt(ctx context.Context, d ledger.Debt) error {
	createdAt := d.CreatedAt
	if createdAt.IsZero() {
		createdAt = time.Now().UTC()
	}
	_, err := s.q.ExecContext(ctx, `
		INSERT INTO debts (`+debtColumns+`)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET
			owner_id = excluded.owner_id,
			description = excluded.description,
			category_id = excluded.category_id,
			original_amount = excluded.original_amount,
			total_repayment = excluded.total_repayment,
			recurring = excluded.recurring,
			total_installments = excluded.total_installments,
			installment_amount = excluded.installment_amount,
			start_date = excluded.start_date,
			total_paid = excluded.total_paid,
			total_interest_paid = excluded.total_interest_paid,
			total_fine_paid = excluded.total_fine_paid,
			outstanding_balance = excluded.outstanding_balance,
			paid_installments = excluded.paid_installments,
			active = excluded.active`,
		d.ID, d.OwnerID, d.Description, nullString(d.CategoryID),
		d.OriginalAmount.String(), d.TotalRepayment.String(),
		d.Recurring, d.TotalInstallments, d.InstallmentAmount.String(),
		d.StartDate.Format(time.RFC3339),
		d.TotalPaid.String(), d.TotalInterestPaid.String(), d.TotalFinePaid.String(),
		d.OutstandingBalance.String(), d.PaidInstallments, d.Active,
		createdAt.Format(time.RFC3339))
	if err != nil {
		return mapConflict(fmt.Errorf("failed to save debt: %w", err))
	}
	return nil
}

func (s *queries) DeleteDebt(ctx context.Context, id ledger.DebtID) error {
	if _, err := s.q.ExecContext(ctx, `DELETE FROM debts WHERE id = ?`, id); err != nil {
		return mapConflict(fmt.Errorf("failed to delete debt: %w", err))
	}
	return nil
}

func (s *queries) ListDebts(ctx context.Context, ownerID string) ([]ledger.Debt, error) {
	return s.queryDebts(ctx,
		`SELECT `+debtColumns+` FROM debts WHERE owner_id = ? ORDER BY created_at ASC`, ownerID)
}

func (s *queries) ListActiveRecurringDebts(ctx context.Context) ([]ledger.Debt, error) {
	return s.queryDebts(ctx,
		`SELECT `+debtColumns+` FROM debts WHERE recurring AND active ORDER BY id ASC`)
}

func (s *queries) queryDebts(ctx context.Context, query string, args ...any) ([]ledger.Debt, error) {
	rows, err := s.q.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, mapConflict(fmt.Errorf("failed to query debts: %w", err))
	}
	defer rows.Close()

	var debts []ledger.Debt
	for rows.Next() {
		d, err := scanDebt(rows)
		if err != nil {
			return nil, err
		}
		debts = append(debts, *d)
	}
	return debts, rows.Err()
}

func scanDebt(row scanner) (*ledger.Debt, error) {
	var (
		d                               ledger.Debt
		categoryID                      sql.NullString
		original, repayment, instAmount string
		paid, interestPaid, fine, out   string
		startDate, createdAt            string
	)
	err := row.Scan(
		&d.ID, &d.OwnerID, &d.Description, &categoryID, &original, &repayment,
		&d.Recurring, &d.TotalInstallments, &instAmount, &startDate,
		&paid, &interestPaid, &fine, &out,
		&d.PaidInstallments, &d.Active, &createdAt,
	)
	if err != nil {
		return nil, err
	}
	d.CategoryID = categoryID.String
	var df decFields
	d.OriginalAmount = df.parse("original_amount", original)
	d.TotalRepayment = df.parse("total_repayment", repayment)
	d.InstallmentAmount = df.parse("installment_amount", instAmount)
	d.TotalPaid = df.parse("total_paid", paid)
	d.TotalInterestPaid = df.parse("total_interest_paid", interestPaid)
	d.TotalFinePaid = df.parse("total_fine_paid", fine)
	d.OutstandingBalance = df.parse("outstanding_balance", out)
	if df.err != nil {
		return nil, df.err
	}
	d.StartDate, _ = time.Parse(time.RFC3339, startDate)
	d.CreatedAt, _ = time.Parse(time.RFC3339, createdAt)
	return &d, nil
}

// =============================================================================
// INSTALLMENTS
// =============================================================================

const installmentColumns = `id, debt_id, owner_id, number, due_date, expected_amount,
	current_due_amount, paid_amount, remaining_amount, discount_amount,
	interest_paid_amount, status, linked_transactions_json`

func (s *queries) GetInstallment(ctx context.Context, id ledger.InstallmentID) (*ledger.DebtInstallment, error) {
	row := s.q.QueryRowContext(ctx,
		`SELECT `+installmentColumns+` FROM debt_installments WHERE id = ?`, id)

	in, err := scanInstallment(row)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, mapConflict(fmt.Errorf("failed to get installment: %w", err))
	}
	return in, nil
}

func (s *queries) SaveInstallment(ctx context.Context, in ledger.DebtInstallment) error {
	linked := []byte("[]")
	if in.LinkedTransactionIDs != nil {
		linked, _ = json.Marshal(in.LinkedTransactionIDs)
	}
	_, err := s.q.ExecContext(ctx, `
		INSERT INTO debt_installments (`+installmentColumns+`)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET
			debt_id = excluded.debt_id,
			owner_id = excluded.owner_id,
			number = excluded.number,
			due_date = excluded.due_date,
			expected_amount = excluded.expected_amount,
			current_due_amount = excluded.current_due_amount,
			paid_amount = excluded.paid_amount,
			remaining_amount = excluded.remaining_amount,
			discount_amount = excluded.discount_amount,
			interest_paid_amount = excluded.interest_paid_amount,
			status = excluded.status,
			linked_transactions_json = excluded.linked_transactions_json`,
		in.ID, in.DebtID, in.OwnerID, in.Number,
		in.DueDate.Format(time.RFC3339),
		in.ExpectedAmount.String(), in.CurrentDueAmount.String(),
		in.PaidAmount.String(), in.RemainingAmount.String(),
		in.DiscountAmount.String(), in.InterestPaidAmount.String(),
		in.Status, string(linked))
	if err != nil {
		return mapConflict(fmt.Errorf("failed to save installment: %w", err))
	}
	return nil
}

func (s *queries) ListInstallments(ctx context.Context, debtID ledger.DebtID) ([]ledger.DebtInstallment, error) {
	rows, err := s.q.QueryContext(ctx,
		`SELECT `+installmentColumns+` FROM debt_installments WHERE debt_id = ? ORDER BY number ASC`, debtID)
	if err != nil {
		return nil, mapConflict(fmt.Errorf("failed to list installments: %w", err))
	}
	defer rows.Close()

	var installments []ledger.DebtInstallment
	for rows.Next() {
		in, err := scanInstallment(rows)
		if err != nil {
			return nil, err
		}
		installments = append(installments, *in)
	}
	return installments, rows.Err()
}

func (s *queries) DeleteInstallmentsByDebt(ctx context.Context, debtID ledger.DebtID) error {
	if _, err := s.q.ExecContext(ctx, `DELETE FROM debt_installments WHERE debt_id = ?`, debtID); err != nil {
		return mapConflict(fmt.Errorf("failed to delete installments: %w", err))
	}
	return nil
}

func scanInstallment(row scanner) (*ledger.DebtInstallment, error) {
	var (
		in                            ledger.DebtInstallment
		dueDate                       string
		expected, currentDue, paid    string
		remaining, discount, interest string
		linkedJSON                    string
	)
	err := row.Scan(
		&in.ID, &in.DebtID, &in.OwnerID, &in.Number, &dueDate,
		&expected, &currentDue, &paid, &remaining, &discount, &interest,
		&in.Status, &linkedJSON,
	)
	if err != nil {
		return nil, err
	}
	in.DueDate, _ = time.Parse(time.RFC3339, dueDate)
	var df decFields
	in.ExpectedAmount = df.parse("expected_amount", expected)
	in.CurrentDueAmount = df.parse("current_due_amount", currentDue)
	in.PaidAmount = df.parse("paid_amount", paid)
	in.RemainingAmount = df.parse("remaining_amount", remaining)
	in.DiscountAmount = df.parse("discount_amount", discount)
	in.InterestPaidAmount = df.parse("interest_paid_amount", interest)
	if df.err != nil {
		return nil, df.err
	}
	if linkedJSON != "" && linkedJSON != "[]" {
		if err := json.Unmarshal([]byte(linkedJSON), &in.LinkedTransactionIDs); err != nil {
			return nil, fmt.Errorf("failed to decode linked transactions: %w", err)
		}
	}
	return &in, nil
}

// =============================================================================
// TRANSACTIONS
// =============================================================================

const transactionColumns = `id, owner_id, account_id, tx_type, amount, description, date,
	category_id, payment_method_id, debt_installment_id,
	interest_amount, discount_amount, loan_income, loan_source, created_at`

func (s *queries) GetTransaction(ctx context.Context, id ledger.TransactionID) (*ledger.Transaction, error) {
	row := s.q.QueryRowContext(ctx,
		`SELECT `+transactionColumns+` FROM transactions WHERE id = ?`, id)

	tx, err := scanTransaction(row)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, mapConflict(fmt.Errorf("failed to get transaction: %w", err))
	}
	return tx, nil
}

func (s *queries) AppendTransaction(ctx context.Context, tx ledger.Transaction) error {
	createdAt := tx.CreatedAt
	if createdAt.IsZero() {
		createdAt = time.Now().UTC()
	}
	_, err := s.q.ExecContext(ctx, `
		INSERT INTO transactions (`+transactionColumns+`)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		tx.ID, tx.OwnerID, tx.AccountID, tx.Type, tx.Amount.String(),
		nullString(tx.Description), tx.Date.Format(time.RFC3339),
		nullString(tx.CategoryID), nullString(tx.PaymentMethodID),
		nullString(string(tx.DebtInstallmentID)),
		tx.InterestAmount.String(), tx.DiscountAmount.String(),
		tx.LoanIncome, nullString(tx.LoanSource),
		createdAt.Format(time.RFC3339))
	if err != nil {
		return mapConflict(fmt.Errorf("failed to append transaction: %w", err))
	}
	return nil
}

func (s *queries) DeleteTransaction(ctx context.Context, id ledger.TransactionID) error {
	if _, err := s.q.ExecContext(ctx, `DELETE FROM transactions WHERE id = ?`, id); err != nil {
		return mapConflict(fmt.Errorf("failed to delete transaction: %w", err))
	}
	return nil
}

func (s *queries) ListTransactions(ctx context.Context, ownerID string) ([]ledger.Transaction, error) {
	rows, err := s.q.QueryContext(ctx,
		`SELECT `+transactionColumns+` FROM transactions WHERE owner_id = ? ORDER BY date ASC, created_at ASC`, ownerID)
	if err != nil {
		return nil, mapConflict(fmt.Errorf("failed to list transactions: %w", err))
	}
	defer rows.Close()

	var transactions []ledger.Transaction
	for rows.Next() {
		tx, err := scanTransaction(rows)
		if err != nil {
			return nil, err
		}
		transactions = append(transactions, *tx)
	}
	return transactions, rows.Err()
}

func scanTransaction(row scanner) (*ledger.Transaction, error) {
	var (
		tx                             ledger.Transaction
		amount, interest, discount     string
		description, categoryID        sql.NullString
		paymentMethodID, installmentID sql.NullString
		loanSource                     sql.NullString
		date, createdAt                string
	)
	err := row.Scan(
		&tx.ID, &tx.OwnerID, &tx.AccountID, &tx.Type, &amount,
		&description, &date, &categoryID, &paymentMethodID, &installmentID,
		&interest, &discount, &tx.LoanIncome, &loanSource, &createdAt,
	)
	if err != nil {
		return nil, err
	}
	var df decFields
	tx.Amount = df.parse("amount", amount)
	tx.InterestAmount = df.parse("interest_amount", interest)
	tx.DiscountAmount = df.parse("discount_amount", discount)
	if df.err != nil {
		return nil, df.err
	}
	tx.Description = description.String
	tx.CategoryID = categoryID.String
	tx.PaymentMethodID = paymentMethodID.String
	tx.DebtInstallmentID = ledger.InstallmentID(installmentID.String)
	tx.LoanSource = loanSource.String
	tx.Date, _ = time.Parse(time.RFC3339, date)
	tx.CreatedAt, _ = time.Parse(time.RFC3339, createdAt)
	return &tx, nil
}

// =============================================================================
// HELPERS
// =============================================================================

func nullString(s string) sql.NullString {
	if s == "" {
		return sql.NullString{}
	}
	return sql.NullString{String: s, Valid: true}
}

// decFields parses the decimal columns of one row, keeping the first
// failure. A malformed stored amount must surface as an error, never read
// back as zero money.
type decFields struct {
	err error
}

func (f *decFields) parse(column, s string) decimal.Decimal {
	d, err := decimal.NewFromString(s)
	if err != nil && f.err == nil {
		f.err = fmt.Errorf("corrupt decimal in column %s: %w", column, err)
	}
	return d
}

// mapConflict converts SQLite lock contention into the engine's retryable
// conflict error. Other errors pass through unchanged.
func mapConflict(err error) error {
	if err == nil {
		return nil
	}
	msg := err.Error()
	if strings.Contains(msg, "database is locked") || strings.Contains(msg, "SQLITE_BUSY") {
		return fmt.Errorf("%w: %s", ledger.ErrConflict, msg)
	}
	return err
}
