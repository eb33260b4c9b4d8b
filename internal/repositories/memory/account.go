package memory

import (
	"context"

	"github.com/google/uuid"
	"github.com/sbilibin2017/gw-bank-core/internal/models"
	"github.com/shopspring/decimal"
)

// AccountRepository is the in-memory account store.
type AccountRepository struct {
	s *Store
}

// NewAccountRepository creates a new AccountRepository.
func NewAccountRepository(s *Store) *AccountRepository {
	return &AccountRepository{s: s}
}

// Create inserts an account.
func (r *AccountRepository) Create(ctx context.Context, a *models.AccountDB) error {
	defer r.s.lock(ctx)()
	for _, existing := range r.s.accounts {
		if existing.AccountNumber == a.AccountNumber {
			return models.ErrAccountExists
		}
	}
	if a.ID == uuid.Nil {
		a.ID = uuid.New()
	}
	if a.Status == "" {
		a.Status = models.AccountActive
	}
	now := r.s.now()
	a.CreatedAt, a.UpdatedAt = now, now
	r.s.accounts[a.ID] = *a
	return nil
}

// GetByID returns a copy of the account.
func (r *AccountRepository) GetByID(ctx context.Context, id uuid.UUID) (*models.AccountDB, error) {
	defer r.s.lock(ctx)()
	a, ok := r.s.accounts[id]
	if !ok {
		return nil, models.ErrAccountNotFound
	}
	return &a, nil
}

// GetByIDForUpdate behaves like GetByID; the store lock already serialises
// transactions.
func (r *AccountRepository) GetByIDForUpdate(ctx context.Context, id uuid.UUID) (*models.AccountDB, error) {
	return r.GetByID(ctx, id)
}

// GetByAccountNumber resolves a public account number.
func (r *AccountRepository) GetByAccountNumber(ctx context.Context, number string) (*models.AccountDB, error) {
	defer r.s.lock(ctx)()
	for _, a := range r.s.accounts {
		if a.AccountNumber == number {
			return &a, nil
		}
	}
	return nil, models.ErrAccountNotFound
}

// Credit adds amount to one balance.
func (r *AccountRepository) Credit(ctx context.Context, id uuid.UUID, kind models.BalanceKind, amount decimal.Decimal) (models.BalanceChange, error) {
	defer r.s.lock(ctx)()
	a, ok := r.s.accounts[id]
	if !ok {
		return models.BalanceChange{}, models.ErrAccountNotFound
	}
	before := a.Balance(kind)
	after := before.Add(amount)
	r.set(&a, kind, after)
	return models.BalanceChange{Kind: kind, Before: before, After: after}, nil
}

// Debit subtracts amount when the account is eligible and the balance covers it.
func (r *AccountRepository) Debit(ctx context.Context, id uuid.UUID, kind models.BalanceKind, amount decimal.Decimal) (models.BalanceChange, error) {
	defer r.s.lock(ctx)()
	a, ok := r.s.accounts[id]
	if !ok {
		return models.BalanceChange{}, models.ErrAccountNotFound
	}
	if !a.Status.CanDebit() {
		return models.BalanceChange{}, &models.AccountNotEligibleError{Status: a.Status}
	}
	before := a.Balance(kind)
	if before.LessThan(amount) {
		return models.BalanceChange{}, &models.InsufficientFundsError{Kind: kind, Available: before, Required: amount}
	}
	after := before.Sub(amount)
	r.set(&a, kind, after)
	return models.BalanceChange{Kind: kind, Before: before, After: after}, nil
}

// Clear zeroes both balances and returns the values they held.
func (r *AccountRepository) Clear(ctx context.Context, id uuid.UUID) (cash, bitcoin decimal.Decimal, err error) {
	defer r.s.lock(ctx)()
	a, ok := r.s.accounts[id]
	if !ok {
		return decimal.Zero, decimal.Zero, models.ErrAccountNotFound
	}
	cash, bitcoin = a.CashBalance, a.BitcoinBalance
	a.CashBalance, a.BitcoinBalance = decimal.Zero, decimal.Zero
	a.UpdatedAt = r.s.now()
	r.s.accounts[id] = a
	return cash, bitcoin, nil
}

func (r *AccountRepository) set(a *models.AccountDB, kind models.BalanceKind, v decimal.Decimal) {
	if kind == models.BalanceBitcoin {
		a.BitcoinBalance = v
	} else {
		a.CashBalance = v
	}
	a.UpdatedAt = r.s.now()
	r.s.accounts[a.ID] = *a
}
