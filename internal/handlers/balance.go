package handlers

//go:generate mockgen -source=balance.go -destination=balance_mock.go -package=handlers

import (
	"context"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/sbilibin2017/gw-bank-core/internal/models"
	"github.com/shopspring/decimal"
)

// BalanceReader returns an account with both balances.
type BalanceReader interface {
	Account(ctx context.Context, accountID uuid.UUID) (*models.AccountDB, error)
}

// TransactionLister returns an account's transaction history.
type TransactionLister interface {
	List(ctx context.Context, accountID uuid.UUID, limit, offset int) ([]models.TransactionDB, error)
}

// BalanceResponse represents the caller's balances
// swagger:model BalanceResponse
type BalanceResponse struct {
	AccountID     uuid.UUID `json:"account_id"`
	AccountNumber string    `json:"account_number"`
	Status        string    `json:"status"`
	// Fiat balance in the account currency
	// example: 1250.50
	CashBalance decimal.Decimal `json:"cash_balance" swaggertype:"string"`
	// example: USD
	Currency string `json:"currency"`
	// example: 0.05
	BitcoinBalance decimal.Decimal `json:"bitcoin_balance" swaggertype:"string"`
}

// TransactionResponse is one entry of the history
// swagger:model TransactionResponse
type TransactionResponse struct {
	ID            uuid.UUID       `json:"id"`
	Type          string          `json:"type"`
	Amount        decimal.Decimal `json:"amount" swaggertype:"string"`
	BalanceBefore decimal.Decimal `json:"balance_before" swaggertype:"string"`
	BalanceAfter  decimal.Decimal `json:"balance_after" swaggertype:"string"`
	Currency      string          `json:"currency"`
	Status        string          `json:"status"`
	Description   string          `json:"description,omitempty"`
	Reference     string          `json:"reference"`
	Metadata      models.Metadata `json:"metadata,omitempty"`
	CreatedAt     time.Time       `json:"created_at"`
}

// TransactionsResponse is a page of history
// swagger:model TransactionsResponse
type TransactionsResponse struct {
	Transactions []TransactionResponse `json:"transactions"`
	Limit        int                   `json:"limit"`
	Offset       int                   `json:"offset"`
}

func newTransactionResponse(t *models.TransactionDB) TransactionResponse {
	return TransactionResponse{
		ID:            t.ID,
		Type:          string(t.Type),
		Amount:        t.Amount,
		BalanceBefore: t.BalanceBefore,
		BalanceAfter:  t.BalanceAfter,
		Currency:      t.Currency,
		Status:        string(t.Status),
		Description:   t.Description,
		Reference:     t.Reference,
		Metadata:      t.Metadata,
		CreatedAt:     t.CreatedAt,
	}
}

// NewGetBalanceHandler returns an HTTP handler for fetching the caller's balances.
// @Summary Get balance
// @Description Returns the cash and bitcoin balances of the authenticated account
// @Tags ledger
// @Produce json
// @Success 200 {object} handlers.BalanceResponse
// @Failure 401 {object} handlers.ErrorResponse
// @Failure 404 {object} handlers.ErrorResponse
// @Failure 500 {object} handlers.ErrorResponse
// @Router /balance [get]
// @Security BearerAuth
func NewGetBalanceHandler(reader BalanceReader) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		accountID, ok := caller(w, r)
		if !ok {
			return
		}

		acct, err := reader.Account(r.Context(), accountID)
		if err != nil {
			writeError(w, r, err)
			return
		}

		writeJSON(w, http.StatusOK, BalanceResponse{
			AccountID:      acct.ID,
			AccountNumber:  acct.AccountNumber,
			Status:         string(acct.Status),
			CashBalance:    acct.CashBalance,
			Currency:       acct.Currency,
			BitcoinBalance: acct.BitcoinBalance,
		})
	}
}

// NewListTransactionsHandler returns an HTTP handler for the caller's history.
// @Summary List transactions
// @Description Returns the authenticated account's transactions, newest first
// @Tags ledger
// @Produce json
// @Param limit query int false "Page size (max 200)"
// @Param offset query int false "Offset"
// @Success 200 {object} handlers.TransactionsResponse
// @Failure 401 {object} handlers.ErrorResponse
// @Failure 500 {object} handlers.ErrorResponse
// @Router /transactions [get]
// @Security BearerAuth
func NewListTransactionsHandler(lister TransactionLister) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		accountID, ok := caller(w, r)
		if !ok {
			return
		}
		limit, offset := pagination(r)

		txns, err := lister.List(r.Context(), accountID, limit, offset)
		if err != nil {
			writeError(w, r, err)
			return
		}

		resp := TransactionsResponse{Transactions: make([]TransactionResponse, 0, len(txns)), Limit: limit, Offset: offset}
		for i := range txns {
			resp.Transactions = append(resp.Transactions, newTransactionResponse(&txns[i]))
		}
		writeJSON(w, http.StatusOK, resp)
	}
}

// RegisterBalanceHandlers registers the ledger read routes.
func RegisterBalanceHandlers(r chi.Router, balance, transactions http.HandlerFunc) {
	r.Get("/balance", balance)
	r.Get("/transactions", transactions)
}
