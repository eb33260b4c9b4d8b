package models

import (
	"errors"
	"fmt"

	"github.com/shopspring/decimal"
)

// Error variables
var (
	ErrInsufficientFunds     = errors.New("insufficient funds")
	ErrAccountNotEligible    = errors.New("account is not eligible for debits")
	ErrAccountNotFound       = errors.New("account not found")
	ErrLimitExceeded         = errors.New("daily transfer limit exceeded")
	ErrInvalidCode           = errors.New("invalid verification code")
	ErrCodeNotConfigured     = errors.New("verification code is not configured for this account, contact support")
	ErrCodeExpired           = errors.New("verification code expired, request a new one")
	ErrDuplicateReference    = errors.New("duplicate reference")
	ErrTransferNotFound      = errors.New("transfer not found")
	ErrTransferNotPending    = errors.New("transfer is not pending")
	ErrTransferNotProcessing = errors.New("transfer is not processing")
	ErrTransactionNotFound   = errors.New("transaction not found")
	ErrStepOutOfOrder        = errors.New("verification step submitted out of order")
	ErrTooManyAttempts       = errors.New("too many invalid verification attempts, try again later")
	ErrInvalidAmount         = errors.New("amount must be greater than zero")
	ErrInvalidTransferType   = errors.New("invalid transfer type")
	ErrInvalidBalanceKind    = errors.New("invalid balance kind")
	ErrInvalidDirection      = errors.New("invalid adjustment direction")
	ErrInvalidRecipient      = errors.New("invalid recipient details")
	ErrSameAccount           = errors.New("cannot transfer to the same account")
	ErrSnapshotMismatch      = errors.New("balance snapshot does not match amount")
	ErrAccountExists         = errors.New("account number already exists")
)

// InsufficientFundsError carries the balance that was available when a debit was refused.
type InsufficientFundsError struct {
	Kind      BalanceKind
	Available decimal.Decimal
	Required  decimal.Decimal
}

func (e *InsufficientFundsError) Error() string {
	return fmt.Sprintf("insufficient funds: %s balance %s, required %s", e.Kind, e.Available.String(), e.Required.String())
}

// Is makes errors.Is(err, ErrInsufficientFunds) hold.
func (e *InsufficientFundsError) Is(target error) bool {
	return target == ErrInsufficientFunds
}

// AccountNotEligibleError carries the status that blocked the mutation.
type AccountNotEligibleError struct {
	Status AccountStatus
}

func (e *AccountNotEligibleError) Error() string {
	switch e.Status {
	case AccountDormant:
		return "account is dormant, contact support to reactivate it"
	case AccountSuspended:
		return "account is suspended, contact support"
	case AccountBlocked:
		return "account is blocked, contact support"
	default:
		return fmt.Sprintf("account is not eligible: %s", e.Status)
	}
}

// Is makes errors.Is(err, ErrAccountNotEligible) hold.
func (e *AccountNotEligibleError) Is(target error) bool {
	return target == ErrAccountNotEligible
}

// LimitExceededError indicates the daily transfer limit would be exceeded.
type LimitExceededError struct {
	Limit     decimal.Decimal
	UsedToday decimal.Decimal
	Requested decimal.Decimal
}

func (e *LimitExceededError) Error() string {
	return fmt.Sprintf("daily transfer limit exceeded: limit %s, used today %s, requested %s",
		e.Limit.String(), e.UsedToday.String(), e.Requested.String())
}

// Is makes errors.Is(err, ErrLimitExceeded) hold.
func (e *LimitExceededError) Is(target error) bool {
	return target == ErrLimitExceeded
}
