package models

import (
	"fmt"

	"github.com/shopspring/decimal"
)

// BalanceKind names one of the two independent balances held by an account.
type BalanceKind string

// Supported balance kinds
const (
	BalanceCash    BalanceKind = "cash"
	BalanceBitcoin BalanceKind = "bitcoin"
)

// CurrencyBTC is the currency code recorded for bitcoin balance movements.
const CurrencyBTC = "BTC"

// ParseBalanceKind validates a balance kind received at the boundary.
func ParseBalanceKind(s string) (BalanceKind, error) {
	switch k := BalanceKind(s); k {
	case BalanceCash, BalanceBitcoin:
		return k, nil
	case "":
		return BalanceCash, nil
	default:
		return "", fmt.Errorf("%w: %q", ErrInvalidBalanceKind, s)
	}
}

// Column returns the accounts column holding this balance.
func (k BalanceKind) Column() string {
	if k == BalanceBitcoin {
		return "bitcoin_balance"
	}
	return "cash_balance"
}

// Places is the number of decimal places stored for this balance.
func (k BalanceKind) Places() int32 {
	if k == BalanceBitcoin {
		return 8
	}
	return 2
}

// BalanceChange is the result of one ledger mutation: the balance immediately
// before and after the update, read from the same statement.
type BalanceChange struct {
	Kind   BalanceKind     `json:"kind"`
	Before decimal.Decimal `json:"balance_before"`
	After  decimal.Decimal `json:"balance_after"`
}
