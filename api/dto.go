/*
dto.go - Request/response data structures for the HTTP API

All money travels as decimal strings ("123.45"); dates as YYYY-MM-DD.
The DTOs are a thin translation layer: no ledger logic lives here.
*/
package api

// =============================================================================
// REQUESTS
// =============================================================================

type CreateAccountRequest struct {
	ID      string `json:"id,omitempty"`
	OwnerID string `json:"owner_id"`
	Name    string `json:"name"`
	Kind    string `json:"kind"`
	Balance string `json:"balance,omitempty"`
	Icon    string `json:"icon,omitempty"`
}

type CreateDebtRequest struct {
	ID          string `json:"id,omitempty"`
	OwnerID     string `json:"owner_id"`
	Description string `json:"description"`
	CategoryID  string `json:"category_id,omitempty"`

	OriginalAmount    string `json:"original_amount"`
	Recurring         bool   `json:"recurring,omitempty"`
	TotalInstallments int    `json:"total_installments,omitempty"`
	InstallmentAmount string `json:"installment_amount,omitempty"`
	StartDate         string `json:"start_date"`

	// PayNow triggers the register-and-pay-immediately variant for simple
	// one-off debts.
	PayNow *PaymentRequest `json:"pay_now,omitempty"`
}

type UpdateDebtRequest struct {
	Description *string `json:"description,omitempty"`
	CategoryID  *string `json:"category_id,omitempty"`
	Active      *bool   `json:"active,omitempty"`
}

type PaymentRequest struct {
	Amount          string `json:"amount"`
	AccountID       string `json:"account_id"`
	PaymentMethodID string `json:"payment_method_id,omitempty"`
	Date            string `json:"date"`
	Description     string `json:"description,omitempty"`

	InterestPaid     *string `json:"interest_paid,omitempty"`
	DiscountReceived *string `json:"discount_received,omitempty"`
}

type UpdateInstallmentExpectedRequest struct {
	NewAmount string `json:"new_amount"`
}

// =============================================================================
// RESPONSES
// =============================================================================

type AccountDTO struct {
	ID      string `json:"id"`
	OwnerID string `json:"owner_id"`
	Name    string `json:"name"`
	Kind    string `json:"kind"`
	Balance string `json:"balance"`
	Icon    string `json:"icon,omitempty"`
}

type DebtDTO struct {
	ID          string `json:"id"`
	OwnerID     string `json:"owner_id"`
	Description string `json:"description"`
	CategoryID  string `json:"category_id,omitempty"`

	OriginalAmount    string `json:"original_amount"`
	TotalRepayment    string `json:"total_repayment"`
	Recurring         bool   `json:"recurring"`
	TotalInstallments int    `json:"total_installments,omitempty"`
	InstallmentAmount string `json:"installment_amount,omitempty"`
	StartDate         string `json:"start_date"`

	TotalPaid          string `json:"total_paid"`
	TotalInterestPaid  string `json:"total_interest_paid"`
	TotalFinePaid      string `json:"total_fine_paid"`
	OutstandingBalance string `json:"outstanding_balance"`
	PaidInstallments   int    `json:"paid_installments"`
	Active             bool   `json:"active"`
}

type InstallmentDTO struct {
	ID     string `json:"id"`
	DebtID string `json:"debt_id"`
	Number int    `json:"number"`

	DueDate          string `json:"due_date"`
	ExpectedAmount   string `json:"expected_amount"`
	CurrentDueAmount string `json:"current_due_amount"`

	PaidAmount         string `json:"paid_amount"`
	RemainingAmount    string `json:"remaining_amount"`
	DiscountAmount     string `json:"discount_amount"`
	InterestPaidAmount string `json:"interest_paid_amount"`

	// Status is the read-time effective status (pending/partial/paid/overdue).
	Status             string   `json:"status"`
	LinkedTransactions []string `json:"linked_transactions"`
}

type TransactionDTO struct {
	ID          string `json:"id"`
	AccountID   string `json:"account_id"`
	Type        string `json:"type"`
	Amount      string `json:"amount"`
	Description string `json:"description,omitempty"`
	Date        string `json:"date"`

	CategoryID        string `json:"category_id,omitempty"`
	PaymentMethodID   string `json:"payment_method_id,omitempty"`
	DebtInstallmentID string `json:"debt_installment_id,omitempty"`
	InterestAmount    string `json:"interest_amount,omitempty"`
	DiscountAmount    string `json:"discount_amount,omitempty"`
}

type PaymentResultDTO struct {
	Installment InstallmentDTO `json:"installment"`
	Debt        DebtDTO        `json:"debt"`
	Account     AccountDTO     `json:"account"`
	Transaction TransactionDTO `json:"transaction"`
}

type CreateDebtResponse struct {
	Debt         DebtDTO          `json:"debt"`
	Installments []InstallmentDTO `json:"installments"`
}

type ErrorResponse struct {
	Error   string `json:"error"`
	Details string `json:"details,omitempty"`
}
