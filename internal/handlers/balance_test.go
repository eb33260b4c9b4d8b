package handlers

import (
	"encoding/json"
	"errors"
	"net/http"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/golang/mock/gomock"
	"github.com/google/uuid"
	"github.com/sbilibin2017/gw-bank-core/internal/models"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGetBalanceHandler(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	accountID := uuid.New()

	tests := []struct {
		name           string
		authenticated  bool
		mockSetup      func(m *MockBalanceReader)
		expectedStatus int
		check          func(t *testing.T, body []byte)
	}{
		{
			name:          "success",
			authenticated: true,
			mockSetup: func(m *MockBalanceReader) {
				m.EXPECT().Account(gomock.Any(), accountID).Return(&models.AccountDB{
					ID:             accountID,
					AccountNumber:  "ACC-1",
					Currency:       "USD",
					CashBalance:    decimal.RequireFromString("1250.50"),
					BitcoinBalance: decimal.RequireFromString("0.05"),
					Status:         models.AccountActive,
				}, nil)
			},
			expectedStatus: http.StatusOK,
			check: func(t *testing.T, body []byte) {
				var resp BalanceResponse
				require.NoError(t, json.Unmarshal(body, &resp))
				assert.Equal(t, accountID, resp.AccountID)
				assert.True(t, resp.CashBalance.Equal(decimal.RequireFromString("1250.5")))
				assert.True(t, resp.BitcoinBalance.Equal(decimal.RequireFromString("0.05")))
				assert.Equal(t, "active", resp.Status)
			},
		},
		{
			name:           "unauthenticated",
			mockSetup:      func(m *MockBalanceReader) {},
			expectedStatus: http.StatusUnauthorized,
		},
		{
			name:          "unknown account",
			authenticated: true,
			mockSetup: func(m *MockBalanceReader) {
				m.EXPECT().Account(gomock.Any(), accountID).Return(nil, models.ErrAccountNotFound)
			},
			expectedStatus: http.StatusNotFound,
		},
		{
			name:          "storage failure",
			authenticated: true,
			mockSetup: func(m *MockBalanceReader) {
				m.EXPECT().Account(gomock.Any(), accountID).Return(nil, errors.New("db down"))
			},
			expectedStatus: http.StatusInternalServerError,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			reader := NewMockBalanceReader(ctrl)
			tt.mockSetup(reader)

			register := func(r chi.Router) {
				RegisterBalanceHandlers(r, NewGetBalanceHandler(reader), NewListTransactionsHandler(NewMockTransactionLister(ctrl)))
			}
			claims := userClaims(accountID)
			if !tt.authenticated {
				claims = nil
			}
			rr := serve(t, register, http.MethodGet, "/balance", nil, claims)

			assert.Equal(t, tt.expectedStatus, rr.Code)
			if tt.check != nil {
				tt.check(t, rr.Body.Bytes())
			}
		})
	}
}

func TestListTransactionsHandler(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	accountID := uuid.New()
	lister := NewMockTransactionLister(ctrl)
	lister.EXPECT().List(gomock.Any(), accountID, 10, 5).Return([]models.TransactionDB{
		{
			ID: uuid.New(), AccountID: accountID, Type: models.TransactionTransferOut,
			Amount: decimal.NewFromInt(100), BalanceBefore: decimal.NewFromInt(300), BalanceAfter: decimal.NewFromInt(200),
			Currency: "USD", Status: models.TransactionPending, Reference: "TRF-1",
		},
	}, nil)

	register := func(r chi.Router) {
		RegisterBalanceHandlers(r, NewGetBalanceHandler(NewMockBalanceReader(ctrl)), NewListTransactionsHandler(lister))
	}
	rr := serve(t, register, http.MethodGet, "/transactions?limit=10&offset=5", nil, userClaims(accountID))
	require.Equal(t, http.StatusOK, rr.Code)

	var resp TransactionsResponse
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &resp))
	require.Len(t, resp.Transactions, 1)
	assert.Equal(t, "transfer-out", resp.Transactions[0].Type)
	assert.Equal(t, "TRF-1", resp.Transactions[0].Reference)
	assert.True(t, resp.Transactions[0].BalanceAfter.Equal(decimal.NewFromInt(200)))
	assert.Equal(t, 10, resp.Limit)
	assert.Equal(t, 5, resp.Offset)
}
