package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// AccountStatus is the eligibility status supplied by the identity service.
type AccountStatus string

// Account statuses
const (
	AccountActive    AccountStatus = "active"
	AccountDormant   AccountStatus = "dormant"
	AccountSuspended AccountStatus = "suspended"
	AccountBlocked   AccountStatus = "blocked"
)

// IneligibleStatuses lists the statuses that block every debit.
var IneligibleStatuses = []AccountStatus{AccountDormant, AccountSuspended, AccountBlocked}

// CanDebit reports whether money may leave an account with this status.
func (s AccountStatus) CanDebit() bool {
	for _, st := range IneligibleStatuses {
		if s == st {
			return false
		}
	}
	return true
}

// AccountDB represents an accounts row in the database
type AccountDB struct {
	ID                 uuid.UUID       `json:"id" db:"id"`                                     // Primary key
	AccountNumber      string          `json:"account_number" db:"account_number"`             // Public account number
	HolderName         string          `json:"holder_name" db:"holder_name"`                   // Account holder display name
	Currency           string          `json:"currency" db:"currency"`                         // Currency of the cash balance
	CashBalance        decimal.Decimal `json:"cash_balance" db:"cash_balance"`                 // Fiat balance, never negative
	BitcoinBalance     decimal.Decimal `json:"bitcoin_balance" db:"bitcoin_balance"`           // Bitcoin balance, never negative
	Status             AccountStatus   `json:"status" db:"status"`                             // Eligibility status
	DailyTransferLimit decimal.Decimal `json:"daily_transfer_limit" db:"daily_transfer_limit"` // Zero means no limit configured
	ImfCodeHash        *string         `json:"-" db:"imf_code_hash"`                           // bcrypt hash of the IMF code
	CotCodeHash        *string         `json:"-" db:"cot_code_hash"`                           // bcrypt hash of the COT code
	CreatedAt          time.Time       `json:"created_at" db:"created_at"`
	UpdatedAt          time.Time       `json:"updated_at" db:"updated_at"`
}

// Balance returns the balance of the given kind.
func (a *AccountDB) Balance(kind BalanceKind) decimal.Decimal {
	if kind == BalanceBitcoin {
		return a.BitcoinBalance
	}
	return a.CashBalance
}

// CurrencyFor returns the currency recorded for movements of the given balance.
func (a *AccountDB) CurrencyFor(kind BalanceKind) string {
	if kind == BalanceBitcoin {
		return CurrencyBTC
	}
	return a.Currency
}
