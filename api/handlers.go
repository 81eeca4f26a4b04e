/*
handlers.go - HTTP handlers for the debt ledger commands and queries

PURPOSE:
  The inbound command surface (create/update/delete debt, pay installment,
  revert payment, adjust expected value) and the outbound reads consumed by
  dashboards. Handlers decode, delegate to the engine, and translate typed
  errors; all ledger logic lives in the debts package.

ERROR HANDLING:
  Typed engine errors map to HTTP status:
  - 400: ledger.ErrValidation
  - 404: ledger.ErrNotFound
  - 409: ledger.ErrInvariant
  - 503: ledger.ErrConflict (atomic unit retries exhausted)
  - 500: everything else

AUTH NOTE:
  Ownership comes from the owner_id query/body field; authentication is the
  out-of-scope caller's concern.

SEE ALSO:
  - dto.go: Request/response data structures
  - server.go: Router setup and middleware
*/
package api

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/shopspring/decimal"

	"github.com/warp/debt-ledger/debts"
	"github.com/warp/debt-ledger/ledger"
)

// =============================================================================
// HANDLER CONTEXT
// =============================================================================

// Handler holds all dependencies for HTTP handlers.
type Handler struct {
	Store  ledger.AtomicStore
	Engine *debts.Engine

	// Now is injectable for deterministic overdue derivation in tests.
	Now func() time.Time
}

// NewHandler creates a new handler over the given store.
func NewHandler(store ledger.AtomicStore) *Handler {
	return &Handler{
		Store:  store,
		Engine: debts.NewEngine(store),
		Now:    time.Now,
	}
}

// =============================================================================
// ACCOUNT HANDLERS
// =============================================================================

// ListAccounts returns the accounts of one owner.
// GET /api/accounts?owner_id=...
func (h *Handler) ListAccounts(w http.ResponseWriter, r *http.Request) {
	ownerID := r.URL.Query().Get("owner_id")
	accounts, err := h.Store.ListAccounts(r.Context(), ownerID)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to list accounts", err)
		return
	}

	dtos := make([]AccountDTO, len(accounts))
	for i, a := range accounts {
		dtos[i] = toAccountDTO(a)
	}
	writeJSON(w, http.StatusOK, dtos)
}

// CreateAccount creates a money container the ledger can pay from.
// POST /api/accounts
func (h *Handler) CreateAccount(w http.ResponseWriter, r *http.Request) {
	var req CreateAccountRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body", err)
		return
	}
	if req.OwnerID == "" || req.Name == "" {
		writeError(w, http.StatusBadRequest, "owner_id and name are required", nil)
		return
	}

	balance := decimal.Zero
	if req.Balance != "" {
		var err error
		balance, err = decimal.NewFromString(req.Balance)
		if err != nil {
			writeError(w, http.StatusBadRequest, "Invalid balance", err)
			return
		}
	}
	kind := ledger.AccountKind(req.Kind)
	if kind == "" {
		kind = ledger.AccountOther
	}

	account := ledger.Account{
		ID:        ledger.AccountID(req.ID),
		OwnerID:   req.OwnerID,
		Name:      req.Name,
		Kind:      kind,
		Balance:   balance,
		Icon:      req.Icon,
		CreatedAt: time.Now().UTC(),
	}
	if account.ID == "" {
		account.ID = ledger.AccountID(fmt.Sprintf("acct-%d", time.Now().UnixNano()))
	}

	if err := h.Store.SaveAccount(r.Context(), account); err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to create account", err)
		return
	}
	writeJSON(w, http.StatusCreated, toAccountDTO(account))
}

// =============================================================================
// DEBT HANDLERS
// =============================================================================

// ListDebts returns the debts of one owner.
// GET /api/debts?owner_id=...
func (h *Handler) ListDebts(w http.ResponseWriter, r *http.Request) {
	ownerID := r.URL.Query().Get("owner_id")
	list, err := h.Store.ListDebts(r.Context(), ownerID)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to list debts", err)
		return
	}

	dtos := make([]DebtDTO, len(list))
	for i, d := range list {
		dtos[i] = toDebtDTO(d)
	}
	writeJSON(w, http.StatusOK, dtos)
}

// GetDebt returns a single debt.
// GET /api/debts/{id}
func (h *Handler) GetDebt(w http.ResponseWriter, r *http.Request) {
	id := ledger.DebtID(chi.URLParam(r, "id"))
	debt, err := h.Store.GetDebt(r.Context(), id)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to get debt", err)
		return
	}
	if debt == nil {
		writeError(w, http.StatusNotFound, "Debt not found", nil)
		return
	}
	writeJSON(w, http.StatusOK, toDebtDTO(*debt))
}

// CreateDebt creates a debt and its full installment schedule. With pay_now
// set it runs the register-and-pay-immediately variant instead.
// POST /api/debts
func (h *Handler) CreateDebt(w http.ResponseWriter, r *http.Request) {
	var req CreateDebtRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body", err)
		return
	}

	def, err := toDefinition(req)
	if err != nil {
		writeError(w, http.StatusBadRequest, "Invalid debt definition", err)
		return
	}

	if req.PayNow != nil {
		event, err := toPaymentEvent(*req.PayNow)
		if err != nil {
			writeError(w, http.StatusBadRequest, "Invalid payment", err)
			return
		}
		result, err := h.Engine.CreateDebtPaid(r.Context(), def, event)
		if err != nil {
			writeEngineError(w, err)
			return
		}
		writeJSON(w, http.StatusCreated, h.toPaymentResultDTO(*result))
		return
	}

	debt, installments, err := h.Engine.CreateDebt(r.Context(), def)
	if err != nil {
		writeEngineError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, CreateDebtResponse{
		Debt:         toDebtDTO(*debt),
		Installments: h.toInstallmentDTOs(installments),
	})
}

// UpdateDebt applies a partial field merge.
// PUT /api/debts/{id}
func (h *Handler) UpdateDebt(w http.ResponseWriter, r *http.Request) {
	id := ledger.DebtID(chi.URLParam(r, "id"))

	var req UpdateDebtRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body", err)
		return
	}

	debt, err := h.Engine.UpdateDebt(r.Context(), id, debts.Patch{
		Description: req.Description,
		CategoryID:  req.CategoryID,
		Active:      req.Active,
	})
	if err != nil {
		writeEngineError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, toDebtDTO(*debt))
}

// DeleteDebt removes a debt and all its installments. Rejected while any
// installment has linked payments.
// DELETE /api/debts/{id}
func (h *Handler) DeleteDebt(w http.ResponseWriter, r *http.Request) {
	id := ledger.DebtID(chi.URLParam(r, "id"))
	if err := h.Engine.DeleteDebt(r.Context(), id); err != nil {
		writeEngineError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// =============================================================================
// INSTALLMENT HANDLERS
// =============================================================================

// ListInstallments returns a debt's schedule with read-time status.
// GET /api/debts/{id}/installments
func (h *Handler) ListInstallments(w http.ResponseWriter, r *http.Request) {
	id := ledger.DebtID(chi.URLParam(r, "id"))
	installments, err := h.Store.ListInstallments(r.Context(), id)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to list installments", err)
		return
	}
	writeJSON(w, http.StatusOK, h.toInstallmentDTOs(installments))
}

// PayInstallment applies one payment event to one installment.
// POST /api/installments/{id}/payments
func (h *Handler) PayInstallment(w http.ResponseWriter, r *http.Request) {
	id := ledger.InstallmentID(chi.URLParam(r, "id"))

	var req PaymentRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body", err)
		return
	}
	event, err := toPaymentEvent(req)
	if err != nil {
		writeError(w, http.StatusBadRequest, "Invalid payment", err)
		return
	}

	result, err := h.Engine.PayInstallment(r.Context(), id, event)
	if err != nil {
		writeEngineError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, h.toPaymentResultDTO(*result))
}

// RevertInstallment undoes all payments on an installment, restoring
// editability.
// POST /api/installments/{id}/revert
func (h *Handler) RevertInstallment(w http.ResponseWriter, r *http.Request) {
	id := ledger.InstallmentID(chi.URLParam(r, "id"))

	inst, err := h.Engine.RevertInstallmentPayment(r.Context(), id)
	if err != nil {
		writeEngineError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, h.toInstallmentDTO(*inst))
}

// UpdateInstallmentExpected adjusts an unpaid installment's current due
// amount (manually applied interest).
// PUT /api/debts/{debtID}/installments/{id}/expected
func (h *Handler) UpdateInstallmentExpected(w http.ResponseWriter, r *http.Request) {
	debtID := ledger.DebtID(chi.URLParam(r, "debtID"))
	id := ledger.InstallmentID(chi.URLParam(r, "id"))

	var req UpdateInstallmentExpectedRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body", err)
		return
	}
	amount, err := decimal.NewFromString(req.NewAmount)
	if err != nil {
		writeError(w, http.StatusBadRequest, "Invalid new_amount", err)
		return
	}

	inst, err := h.Engine.UpdateInstallmentExpected(r.Context(), debtID, id, amount)
	if err != nil {
		writeEngineError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, h.toInstallmentDTO(*inst))
}

// =============================================================================
// TRANSACTION HANDLERS
// =============================================================================

// ListTransactions returns the committed ledger entries of one owner.
// GET /api/transactions?owner_id=...
func (h *Handler) ListTransactions(w http.ResponseWriter, r *http.Request) {
	ownerID := r.URL.Query().Get("owner_id")
	transactions, err := h.Store.ListTransactions(r.Context(), ownerID)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to list transactions", err)
		return
	}

	dtos := make([]TransactionDTO, len(transactions))
	for i, tx := range transactions {
		dtos[i] = toTransactionDTO(tx)
	}
	writeJSON(w, http.StatusOK, dtos)
}

// =============================================================================
// CONVERTERS
// =============================================================================

func toDefinition(req CreateDebtRequest) (debts.Definition, error) {
	original, err := decimal.NewFromString(req.OriginalAmount)
	if err != nil {
		return debts.Definition{}, fmt.Errorf("invalid original_amount: %w", err)
	}
	installmentAmount := decimal.Zero
	if req.InstallmentAmount != "" {
		installmentAmount, err = decimal.NewFromString(req.InstallmentAmount)
		if err != nil {
			return debts.Definition{}, fmt.Errorf("invalid installment_amount: %w", err)
		}
	}
	startDate, err := time.Parse("2006-01-02", req.StartDate)
	if err != nil {
		return debts.Definition{}, fmt.Errorf("invalid start_date (use YYYY-MM-DD): %w", err)
	}

	return debts.Definition{
		ID:                ledger.DebtID(req.ID),
		OwnerID:           req.OwnerID,
		Description:       req.Description,
		CategoryID:        req.CategoryID,
		OriginalAmount:    original,
		Recurring:         req.Recurring,
		TotalInstallments: req.TotalInstallments,
		InstallmentAmount: installmentAmount,
		StartDate:         startDate,
	}, nil
}

func toPaymentEvent(req PaymentRequest) (debts.PaymentEvent, error) {
	amount, err := decimal.NewFromString(req.Amount)
	if err != nil {
		return debts.PaymentEvent{}, fmt.Errorf("invalid amount: %w", err)
	}
	date, err := time.Parse("2006-01-02", req.Date)
	if err != nil {
		return debts.PaymentEvent{}, fmt.Errorf("invalid date (use YYYY-MM-DD): %w", err)
	}

	event := debts.PaymentEvent{
		Amount:          amount,
		AccountID:       ledger.AccountID(req.AccountID),
		PaymentMethodID: req.PaymentMethodID,
		Date:            date,
		Description:     req.Description,
	}
	if req.InterestPaid != nil {
		interest, err := decimal.NewFromString(*req.InterestPaid)
		if err != nil {
			return debts.PaymentEvent{}, fmt.Errorf("invalid interest_paid: %w", err)
		}
		event.InterestPaid = &interest
	}
	if req.DiscountReceived != nil {
		discount, err := decimal.NewFromString(*req.DiscountReceived)
		if err != nil {
			return debts.PaymentEvent{}, fmt.Errorf("invalid discount_received: %w", err)
		}
		event.DiscountReceived = &discount
	}
	return event, nil
}

func toAccountDTO(a ledger.Account) AccountDTO {
	return AccountDTO{
		ID:      string(a.ID),
		OwnerID: a.OwnerID,
		Name:    a.Name,
		Kind:    string(a.Kind),
		Balance: a.Balance.String(),
		Icon:    a.Icon,
	}
}

func toDebtDTO(d ledger.Debt) DebtDTO {
	return DebtDTO{
		ID:                 string(d.ID),
		OwnerID:            d.OwnerID,
		Description:        d.Description,
		CategoryID:         d.CategoryID,
		OriginalAmount:     d.OriginalAmount.String(),
		TotalRepayment:     d.TotalRepayment.String(),
		Recurring:          d.Recurring,
		TotalInstallments:  d.TotalInstallments,
		InstallmentAmount:  d.InstallmentAmount.String(),
		StartDate:          d.StartDate.Format("2006-01-02"),
		TotalPaid:          d.TotalPaid.String(),
		TotalInterestPaid:  d.TotalInterestPaid.String(),
		TotalFinePaid:      d.TotalFinePaid.String(),
		OutstandingBalance: d.OutstandingBalance.String(),
		PaidInstallments:   d.PaidInstallments,
		Active:             d.Active,
	}
}

func (h *Handler) toInstallmentDTO(in ledger.DebtInstallment) InstallmentDTO {
	linked := make([]string, len(in.LinkedTransactionIDs))
	for i, id := range in.LinkedTransactionIDs {
		linked[i] = string(id)
	}
	return InstallmentDTO{
		ID:                 string(in.ID),
		DebtID:             string(in.DebtID),
		Number:             in.Number,
		DueDate:            in.DueDate.Format("2006-01-02"),
		ExpectedAmount:     in.ExpectedAmount.String(),
		CurrentDueAmount:   in.CurrentDueAmount.String(),
		PaidAmount:         in.PaidAmount.String(),
		RemainingAmount:    in.RemainingAmount.String(),
		DiscountAmount:     in.DiscountAmount.String(),
		InterestPaidAmount: in.InterestPaidAmount.String(),
		Status:             string(in.EffectiveStatus(h.Now())),
		LinkedTransactions: linked,
	}
}

func (h *Handler) toInstallmentDTOs(installments []ledger.DebtInstallment) []InstallmentDTO {
	dtos := make([]InstallmentDTO, len(installments))
	for i, in := range installments {
		dtos[i] = h.toInstallmentDTO(in)
	}
	return dtos
}

func toTransactionDTO(tx ledger.Transaction) TransactionDTO {
	dto := TransactionDTO{
		ID:                string(tx.ID),
		AccountID:         string(tx.AccountID),
		Type:              string(tx.Type),
		Amount:            tx.Amount.String(),
		Description:       tx.Description,
		Date:              tx.Date.Format("2006-01-02"),
		CategoryID:        tx.CategoryID,
		PaymentMethodID:   tx.PaymentMethodID,
		DebtInstallmentID: string(tx.DebtInstallmentID),
	}
	if !tx.InterestAmount.IsZero() {
		dto.InterestAmount = tx.InterestAmount.String()
	}
	if !tx.DiscountAmount.IsZero() {
		dto.DiscountAmount = tx.DiscountAmount.String()
	}
	return dto
}

func (h *Handler) toPaymentResultDTO(result debts.PaymentResult) PaymentResultDTO {
	return PaymentResultDTO{
		Installment: h.toInstallmentDTO(result.Installment),
		Debt:        toDebtDTO(result.Debt),
		Account:     toAccountDTO(result.Account),
		Transaction: toTransactionDTO(result.Transaction),
	}
}

// =============================================================================
// RESPONSE HELPERS
// =============================================================================

func writeJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(data)
}

func writeError(w http.ResponseWriter, status int, message string, err error) {
	resp := ErrorResponse{Error: message}
	if err != nil {
		resp.Details = err.Error()
	}
	writeJSON(w, status, resp)
}

// writeEngineError maps typed engine errors to HTTP status codes.
func writeEngineError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, ledger.ErrValidation):
		writeError(w, http.StatusBadRequest, "Invalid input", err)
	case ledger.IsNotFound(err):
		writeError(w, http.StatusNotFound, "Record not found", err)
	case errors.Is(err, ledger.ErrInvariant):
		writeError(w, http.StatusConflict, "Operation rejected", err)
	case ledger.IsRetryable(err):
		writeError(w, http.StatusServiceUnavailable, "Temporarily unavailable, retry the operation", err)
	default:
		writeError(w, http.StatusInternalServerError, "Operation failed", err)
	}
}
