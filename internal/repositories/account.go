package repositories

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jmoiron/sqlx"
	"github.com/sbilibin2017/gw-bank-core/internal/models"
	"github.com/shopspring/decimal"
)

const accountColumns = `id, account_number, holder_name, currency, cash_balance, bitcoin_balance,
	status, daily_transfer_limit, imf_code_hash, cot_code_hash, created_at, updated_at`

// AccountRepository reads accounts and applies atomic balance mutations.
type AccountRepository struct {
	db       *sqlx.DB
	txGetter TxGetter
}

// NewAccountRepository creates a new AccountRepository.
func NewAccountRepository(db *sqlx.DB, txGetter TxGetter) *AccountRepository {
	return &AccountRepository{db: db, txGetter: txGetter}
}

// Create inserts an account. Used by seeding and tests; account lifecycle
// belongs to the identity service.
func (r *AccountRepository) Create(ctx context.Context, a *models.AccountDB) error {
	if a.ID == uuid.Nil {
		a.ID = uuid.New()
	}
	if a.Status == "" {
		a.Status = models.AccountActive
	}
	query := `
		INSERT INTO accounts (id, account_number, holder_name, currency, cash_balance, bitcoin_balance,
			status, daily_transfer_limit, imf_code_hash, cot_code_hash)
		VALUES (:id, :account_number, :holder_name, :currency, :cash_balance, :bitcoin_balance,
			:status, :daily_transfer_limit, :imf_code_hash, :cot_code_hash)
	`
	res, err := sqlx.NamedExecContext(ctx, executor(ctx, r.db, r.txGetter), query, a)
	logQuery(query, []any{a.ID, a.AccountNumber}, res, err)
	if isUniqueViolation(err) {
		return models.ErrAccountExists
	}
	return err
}

// isUniqueViolation reports whether err is a Postgres unique_violation.
func isUniqueViolation(err error) bool {
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) && pgErr.Code == "23505"
}

// GetByID returns an account without locking it.
func (r *AccountRepository) GetByID(ctx context.Context, id uuid.UUID) (*models.AccountDB, error) {
	return r.get(ctx, `SELECT `+accountColumns+` FROM accounts WHERE id = $1`, id)
}

// GetByIDForUpdate returns an account and holds its row lock until the
// surrounding transaction ends.
func (r *AccountRepository) GetByIDForUpdate(ctx context.Context, id uuid.UUID) (*models.AccountDB, error) {
	return r.get(ctx, `SELECT `+accountColumns+` FROM accounts WHERE id = $1 FOR UPDATE`, id)
}

// GetByAccountNumber resolves a public account number.
func (r *AccountRepository) GetByAccountNumber(ctx context.Context, number string) (*models.AccountDB, error) {
	return r.get(ctx, `SELECT `+accountColumns+` FROM accounts WHERE account_number = $1`, number)
}

func (r *AccountRepository) get(ctx context.Context, query string, arg any) (*models.AccountDB, error) {
	var a models.AccountDB
	err := sqlx.GetContext(ctx, executor(ctx, r.db, r.txGetter), &a, query, arg)
	logQuery(query, []any{arg}, a.ID, err)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, models.ErrAccountNotFound
	}
	if err != nil {
		return nil, err
	}
	return &a, nil
}

// Credit adds amount to one balance in a single statement and returns the
// balances around the update. Credits are accepted regardless of status.
func (r *AccountRepository) Credit(ctx context.Context, id uuid.UUID, kind models.BalanceKind, amount decimal.Decimal) (models.BalanceChange, error) {
	query := fmt.Sprintf(`
		UPDATE accounts
		SET %[1]s = %[1]s + $2, updated_at = NOW()
		WHERE id = $1
		RETURNING %[1]s - $2 AS balance_before, %[1]s AS balance_after
	`, kind.Column())

	change, err := r.mutate(ctx, query, id, kind, amount)
	if errors.Is(err, sql.ErrNoRows) {
		return models.BalanceChange{}, models.ErrAccountNotFound
	}
	return change, err
}

// Debit subtracts amount from one balance only if the account is eligible
// and the balance covers it. The check and the write are one statement, so
// concurrent debits can never overdraw.
func (r *AccountRepository) Debit(ctx context.Context, id uuid.UUID, kind models.BalanceKind, amount decimal.Decimal) (models.BalanceChange, error) {
	query := fmt.Sprintf(`
		UPDATE accounts
		SET %[1]s = %[1]s - $2, updated_at = NOW()
		WHERE id = $1
			AND %[1]s >= $2
			AND status NOT IN ('dormant', 'suspended', 'blocked')
		RETURNING %[1]s + $2 AS balance_before, %[1]s AS balance_after
	`, kind.Column())

	change, err := r.mutate(ctx, query, id, kind, amount)
	if errors.Is(err, sql.ErrNoRows) {
		return models.BalanceChange{}, r.debitFailure(ctx, id, kind, amount)
	}
	return change, err
}

func (r *AccountRepository) mutate(ctx context.Context, query string, id uuid.UUID, kind models.BalanceKind, amount decimal.Decimal) (models.BalanceChange, error) {
	var row struct {
		Before decimal.Decimal `db:"balance_before"`
		After  decimal.Decimal `db:"balance_after"`
	}
	err := sqlx.GetContext(ctx, executor(ctx, r.db, r.txGetter), &row, query, id, amount)
	logQuery(query, []any{id, amount}, row, err)
	if err != nil {
		return models.BalanceChange{}, err
	}
	return models.BalanceChange{Kind: kind, Before: row.Before, After: row.After}, nil
}

// debitFailure explains why a conditional debit matched no row.
func (r *AccountRepository) debitFailure(ctx context.Context, id uuid.UUID, kind models.BalanceKind, amount decimal.Decimal) error {
	a, err := r.GetByID(ctx, id)
	if err != nil {
		return err
	}
	if !a.Status.CanDebit() {
		return &models.AccountNotEligibleError{Status: a.Status}
	}
	return &models.InsufficientFundsError{Kind: kind, Available: a.Balance(kind), Required: amount}
}

// Clear zeroes both balances and returns the values they held.
func (r *AccountRepository) Clear(ctx context.Context, id uuid.UUID) (cash, bitcoin decimal.Decimal, err error) {
	query := `
		UPDATE accounts a
		SET cash_balance = 0, bitcoin_balance = 0, updated_at = NOW()
		FROM (SELECT id, cash_balance, bitcoin_balance FROM accounts WHERE id = $1 FOR UPDATE) prev
		WHERE a.id = prev.id
		RETURNING prev.cash_balance AS cash_balance, prev.bitcoin_balance AS bitcoin_balance
	`
	var row struct {
		Cash    decimal.Decimal `db:"cash_balance"`
		Bitcoin decimal.Decimal `db:"bitcoin_balance"`
	}
	err = sqlx.GetContext(ctx, executor(ctx, r.db, r.txGetter), &row, query, id)
	logQuery(query, []any{id}, row, err)
	if errors.Is(err, sql.ErrNoRows) {
		return decimal.Zero, decimal.Zero, models.ErrAccountNotFound
	}
	if err != nil {
		return decimal.Zero, decimal.Zero, err
	}
	return row.Cash, row.Bitcoin, nil
}
