package repositories

import (
	"context"
	"database/sql"
	"regexp"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/google/uuid"
	"github.com/sbilibin2017/gw-bank-core/internal/models"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var accountRowColumns = []string{"id", "account_number", "holder_name", "currency", "cash_balance",
	"bitcoin_balance", "status", "daily_transfer_limit", "imf_code_hash", "cot_code_hash", "created_at", "updated_at"}

func accountRow(id uuid.UUID, cash string, status models.AccountStatus) *sqlmock.Rows {
	now := time.Now()
	return sqlmock.NewRows(accountRowColumns).
		AddRow(id.String(), "ACC-001", "Jane Doe", "USD", cash, "0", string(status), "0", nil, nil, now, now)
}

func TestAccountRepository_Debit_Success(t *testing.T) {
	db, mock := newMockDB(t)
	id := uuid.New()

	mock.ExpectQuery(regexp.QuoteMeta("UPDATE accounts")).
		WithArgs(id, sqlmock.AnyArg()).
		WillReturnRows(sqlmock.NewRows([]string{"balance_before", "balance_after"}).AddRow("1000.00", "900.00"))

	change, err := NewAccountRepository(db, nil).Debit(context.Background(), id, models.BalanceCash, decimal.NewFromInt(100))

	require.NoError(t, err)
	assert.Equal(t, models.BalanceCash, change.Kind)
	assert.True(t, change.Before.Equal(decimal.NewFromInt(1000)))
	assert.True(t, change.After.Equal(decimal.NewFromInt(900)))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestAccountRepository_Debit_ClassifiesFailure(t *testing.T) {
	tests := []struct {
		name    string
		status  models.AccountStatus
		cash    string
		wantErr error
	}{
		{name: "insufficient", status: models.AccountActive, cash: "50.00", wantErr: models.ErrInsufficientFunds},
		{name: "dormant", status: models.AccountDormant, cash: "5000.00", wantErr: models.ErrAccountNotEligible},
		{name: "blocked", status: models.AccountBlocked, cash: "5000.00", wantErr: models.ErrAccountNotEligible},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			db, mock := newMockDB(t)
			id := uuid.New()

			mock.ExpectQuery(regexp.QuoteMeta("UPDATE accounts")).
				WillReturnRows(sqlmock.NewRows([]string{"balance_before", "balance_after"}))
			mock.ExpectQuery(regexp.QuoteMeta("FROM accounts WHERE id = $1")).
				WithArgs(id).
				WillReturnRows(accountRow(id, tt.cash, tt.status))

			_, err := NewAccountRepository(db, nil).Debit(context.Background(), id, models.BalanceCash, decimal.NewFromInt(100))
			assert.ErrorIs(t, err, tt.wantErr)
			assert.NoError(t, mock.ExpectationsWereMet())
		})
	}
}

func TestAccountRepository_Debit_InsufficientCarriesBalance(t *testing.T) {
	db, mock := newMockDB(t)
	id := uuid.New()

	mock.ExpectQuery(regexp.QuoteMeta("UPDATE accounts")).
		WillReturnRows(sqlmock.NewRows([]string{"balance_before", "balance_after"}))
	mock.ExpectQuery(regexp.QuoteMeta("FROM accounts WHERE id = $1")).
		WillReturnRows(accountRow(id, "50.00", models.AccountActive))

	_, err := NewAccountRepository(db, nil).Debit(context.Background(), id, models.BalanceCash, decimal.NewFromInt(100))

	var insufficient *models.InsufficientFundsError
	require.ErrorAs(t, err, &insufficient)
	assert.True(t, insufficient.Available.Equal(decimal.NewFromInt(50)))
	assert.True(t, insufficient.Required.Equal(decimal.NewFromInt(100)))
}

func TestAccountRepository_Debit_NotFound(t *testing.T) {
	db, mock := newMockDB(t)

	mock.ExpectQuery(regexp.QuoteMeta("UPDATE accounts")).
		WillReturnRows(sqlmock.NewRows([]string{"balance_before", "balance_after"}))
	mock.ExpectQuery(regexp.QuoteMeta("FROM accounts WHERE id = $1")).
		WillReturnError(sql.ErrNoRows)

	_, err := NewAccountRepository(db, nil).Debit(context.Background(), uuid.New(), models.BalanceCash, decimal.NewFromInt(1))
	assert.ErrorIs(t, err, models.ErrAccountNotFound)
}

func TestAccountRepository_Credit_NotFound(t *testing.T) {
	db, mock := newMockDB(t)

	mock.ExpectQuery(regexp.QuoteMeta("UPDATE accounts")).
		WillReturnRows(sqlmock.NewRows([]string{"balance_before", "balance_after"}))

	_, err := NewAccountRepository(db, nil).Credit(context.Background(), uuid.New(), models.BalanceBitcoin, decimal.NewFromInt(1))
	assert.ErrorIs(t, err, models.ErrAccountNotFound)
}

func TestAccountRepository_UsesBoundTransaction(t *testing.T) {
	db, mock := newMockDB(t)
	id := uuid.New()

	mock.ExpectBegin()
	mock.ExpectQuery(regexp.QuoteMeta("FOR UPDATE")).
		WithArgs(id).
		WillReturnRows(accountRow(id, "10.00", models.AccountActive))
	mock.ExpectCommit()

	repo := NewAccountRepository(db, TxFromContext)
	err := NewTransactor(db).WithinTx(context.Background(), func(ctx context.Context) error {
		a, err := repo.GetByIDForUpdate(ctx, id)
		if err != nil {
			return err
		}
		assert.Equal(t, id, a.ID)
		return nil
	})

	assert.NoError(t, err)
	assert.NoError(t, mock.ExpectationsWereMet())
}
