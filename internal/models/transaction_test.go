package models

import (
	"errors"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
)

func TestTransaction_CheckSnapshot(t *testing.T) {
	d := decimal.RequireFromString

	tests := []struct {
		name      string
		txn       TransactionDB
		expectErr bool
	}{
		{"debit", TransactionDB{Type: TransactionTransferOut, Amount: d("500.00"), BalanceBefore: d("500.00"), BalanceAfter: d("0")}, false},
		{"credit", TransactionDB{Type: TransactionCredit, Amount: d("50"), BalanceBefore: d("0"), BalanceAfter: d("50.00")}, false},
		{"wrong direction", TransactionDB{Type: TransactionDebit, Amount: d("50"), BalanceBefore: d("0"), BalanceAfter: d("50")}, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.txn.CheckSnapshot()
			if tt.expectErr {
				assert.ErrorIs(t, err, ErrSnapshotMismatch)
			} else {
				assert.NoError(t, err)
			}
		})
	}
}

func TestRichErrors_MatchSentinels(t *testing.T) {
	assert.True(t, errors.Is(&InsufficientFundsError{}, ErrInsufficientFunds))
	assert.True(t, errors.Is(&AccountNotEligibleError{Status: AccountBlocked}, ErrAccountNotEligible))
	assert.True(t, errors.Is(&LimitExceededError{}, ErrLimitExceeded))
	assert.Contains(t, (&AccountNotEligibleError{Status: AccountDormant}).Error(), "dormant")
}

func TestParseTransferType(t *testing.T) {
	tt, err := ParseTransferType(" International ")
	assert.NoError(t, err)
	assert.Equal(t, TransferInternational, tt)

	_, err = ParseTransferType("wire")
	assert.ErrorIs(t, err, ErrInvalidTransferType)
}

func TestMetadata_ScanValue(t *testing.T) {
	var m TransferMetadata
	assert.NoError(t, m.Scan([]byte(`{"verification":{"stage":"imf_verified"}}`)))
	assert.Equal(t, StageImfDone, m.Verification.Stage)

	var bag Metadata
	assert.NoError(t, bag.Scan(nil))
	assert.Nil(t, bag)
	assert.Error(t, bag.Scan(42))
}
