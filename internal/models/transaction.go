package models

import (
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// TransactionType is the monetary type of a balance mutation.
type TransactionType string

// Transaction types
const (
	TransactionDeposit     TransactionType = "deposit"
	TransactionWithdrawal  TransactionType = "withdrawal"
	TransactionTransferOut TransactionType = "transfer-out"
	TransactionTransferIn  TransactionType = "transfer-in"
	TransactionCredit      TransactionType = "credit"
	TransactionDebit       TransactionType = "debit"
)

// ParseTransactionType validates a transaction type received at the boundary.
func ParseTransactionType(s string) (TransactionType, error) {
	switch t := TransactionType(s); t {
	case TransactionDeposit, TransactionWithdrawal, TransactionTransferOut,
		TransactionTransferIn, TransactionCredit, TransactionDebit:
		return t, nil
	default:
		return "", fmt.Errorf("invalid transaction type %q", s)
	}
}

// Increases reports whether the type adds to the balance.
func (t TransactionType) Increases() bool {
	switch t {
	case TransactionDeposit, TransactionTransferIn, TransactionCredit:
		return true
	default:
		return false
	}
}

// TransactionStatus tracks settlement of a recorded movement.
type TransactionStatus string

// Transaction statuses
const (
	TransactionPending   TransactionStatus = "pending"
	TransactionCompleted TransactionStatus = "completed"
	TransactionFailed    TransactionStatus = "failed"
)

// TransactionDB represents an immutable transactions row. Only Status and
// UpdatedAt change after insert.
type TransactionDB struct {
	ID            uuid.UUID         `json:"id" db:"id"`
	AccountID     uuid.UUID         `json:"account_id" db:"account_id"`
	Type          TransactionType   `json:"type" db:"type"`
	Amount        decimal.Decimal   `json:"amount" db:"amount"`
	BalanceBefore decimal.Decimal   `json:"balance_before" db:"balance_before"`
	BalanceAfter  decimal.Decimal   `json:"balance_after" db:"balance_after"`
	Currency      string            `json:"currency" db:"currency"`
	Status        TransactionStatus `json:"status" db:"status"`
	Description   string            `json:"description" db:"description"`
	Reference     string            `json:"reference" db:"reference"`
	Metadata      Metadata          `json:"metadata" db:"metadata"`
	CreatedAt     time.Time         `json:"created_at" db:"created_at"`
	UpdatedAt     time.Time         `json:"updated_at" db:"updated_at"`
}

// CheckSnapshot verifies BalanceAfter = BalanceBefore ± Amount for the type.
func (t *TransactionDB) CheckSnapshot() error {
	want := t.BalanceBefore.Sub(t.Amount)
	if t.Type.Increases() {
		want = t.BalanceBefore.Add(t.Amount)
	}
	if !want.Equal(t.BalanceAfter) {
		return fmt.Errorf("%w: %s %s from %s gives %s, recorded %s", ErrSnapshotMismatch,
			t.Type, t.Amount, t.BalanceBefore, want, t.BalanceAfter)
	}
	return nil
}
