package services

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"github.com/sbilibin2017/gw-bank-core/internal/logger"
	"github.com/sbilibin2017/gw-bank-core/internal/metrics"
	"github.com/sbilibin2017/gw-bank-core/internal/models"
	"github.com/shopspring/decimal"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
)

var ledgerTracer = otel.Tracer("services/ledger")

// Transactor runs fn inside one storage transaction.
type Transactor interface {
	WithinTx(ctx context.Context, fn func(ctx context.Context) error) error
}

// AccountStore reads accounts and applies atomic balance mutations.
type AccountStore interface {
	GetByID(ctx context.Context, id uuid.UUID) (*models.AccountDB, error)
	GetByIDForUpdate(ctx context.Context, id uuid.UUID) (*models.AccountDB, error)
	GetByAccountNumber(ctx context.Context, number string) (*models.AccountDB, error)
	Credit(ctx context.Context, id uuid.UUID, kind models.BalanceKind, amount decimal.Decimal) (models.BalanceChange, error)
	Debit(ctx context.Context, id uuid.UUID, kind models.BalanceKind, amount decimal.Decimal) (models.BalanceChange, error)
	Clear(ctx context.Context, id uuid.UUID) (cash, bitcoin decimal.Decimal, err error)
}

// LedgerService is the only path that changes a balance.
type LedgerService struct {
	accounts AccountStore
	metrics  *metrics.Metrics
}

// NewLedgerService creates a new LedgerService.
func NewLedgerService(accounts AccountStore, m *metrics.Metrics) *LedgerService {
	return &LedgerService{accounts: accounts, metrics: m}
}

// validateAmount rejects non-positive amounts and amounts finer than the
// balance can store.
func validateAmount(kind models.BalanceKind, amount decimal.Decimal) error {
	if !amount.IsPositive() {
		return models.ErrInvalidAmount
	}
	if places := kind.Places(); !amount.Equal(amount.Round(places)) {
		return fmt.Errorf("%w: %s balance takes at most %d decimal places", models.ErrInvalidAmount, kind, places)
	}
	return nil
}

// Credit adds amount to an account balance. Credits are accepted whatever
// the account status.
func (s *LedgerService) Credit(ctx context.Context, accountID uuid.UUID, kind models.BalanceKind, amount decimal.Decimal) (models.BalanceChange, error) {
	ctx, span := ledgerTracer.Start(ctx, "LedgerService.Credit")
	defer span.End()
	span.SetAttributes(attribute.String("account.id", accountID.String()), attribute.String("balance.kind", string(kind)))

	if _, err := models.ParseBalanceKind(string(kind)); err != nil {
		return models.BalanceChange{}, err
	}
	if err := validateAmount(kind, amount); err != nil {
		return models.BalanceChange{}, err
	}

	change, err := s.accounts.Credit(ctx, accountID, kind, amount)
	if err != nil {
		s.metrics.IncLedger("credit", string(kind), metrics.OutcomeFailure)
		logger.Log.Errorw("credit failed", "account_id", accountID, "kind", kind, "amount", amount, "error", err)
		return models.BalanceChange{}, err
	}
	s.metrics.IncLedger("credit", string(kind), metrics.OutcomeSuccess)
	return change, nil
}

// Debit subtracts amount from an account balance. It fails with
// ErrAccountNotEligible for dormant, suspended or blocked accounts and with
// ErrInsufficientFunds when the balance does not cover amount. It is never
// retried.
func (s *LedgerService) Debit(ctx context.Context, accountID uuid.UUID, kind models.BalanceKind, amount decimal.Decimal) (models.BalanceChange, error) {
	ctx, span := ledgerTracer.Start(ctx, "LedgerService.Debit")
	defer span.End()
	span.SetAttributes(attribute.String("account.id", accountID.String()), attribute.String("balance.kind", string(kind)))

	if _, err := models.ParseBalanceKind(string(kind)); err != nil {
		return models.BalanceChange{}, err
	}
	if err := validateAmount(kind, amount); err != nil {
		return models.BalanceChange{}, err
	}

	change, err := s.accounts.Debit(ctx, accountID, kind, amount)
	if err != nil {
		s.metrics.IncLedger("debit", string(kind), metrics.OutcomeFailure)
		logger.Log.Warnw("debit refused", "account_id", accountID, "kind", kind, "amount", amount, "error", err)
		return models.BalanceChange{}, err
	}
	s.metrics.IncLedger("debit", string(kind), metrics.OutcomeSuccess)
	return change, nil
}

// Account returns the account with both balances.
func (s *LedgerService) Account(ctx context.Context, accountID uuid.UUID) (*models.AccountDB, error) {
	ctx, span := ledgerTracer.Start(ctx, "LedgerService.Account")
	defer span.End()

	a, err := s.accounts.GetByID(ctx, accountID)
	if err != nil {
		logger.Log.Errorw("failed to get account", "account_id", accountID, "error", err)
		return nil, err
	}
	return a, nil
}
