package repositories

import (
	"context"
	"database/sql"
	"errors"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	"github.com/sbilibin2017/gw-bank-core/internal/models"
)

const transactionColumns = `id, account_id, type, amount, balance_before, balance_after, currency,
	status, description, reference, metadata, created_at, updated_at`

// TransactionRepository persists the transaction log. Rows are immutable
// except for their status.
type TransactionRepository struct {
	db       *sqlx.DB
	txGetter TxGetter
}

// NewTransactionRepository creates a new TransactionRepository.
func NewTransactionRepository(db *sqlx.DB, txGetter TxGetter) *TransactionRepository {
	return &TransactionRepository{db: db, txGetter: txGetter}
}

// Create inserts t and fills ID and timestamps. A reference that already
// exists yields ErrDuplicateReference without aborting the surrounding
// transaction.
func (r *TransactionRepository) Create(ctx context.Context, t *models.TransactionDB) error {
	if t.ID == uuid.Nil {
		t.ID = uuid.New()
	}
	query := `
		INSERT INTO transactions (id, account_id, type, amount, balance_before, balance_after,
			currency, status, description, reference, metadata, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, COALESCE($12, NOW()))
		ON CONFLICT (reference) DO NOTHING
		RETURNING created_at, updated_at
	`
	// a preset CreatedAt backdates the row
	createdAt := sql.NullTime{Time: t.CreatedAt, Valid: !t.CreatedAt.IsZero()}
	args := []any{t.ID, t.AccountID, t.Type, t.Amount, t.BalanceBefore, t.BalanceAfter,
		t.Currency, t.Status, t.Description, t.Reference, t.Metadata, createdAt}

	var ts struct {
		CreatedAt sql.NullTime `db:"created_at"`
		UpdatedAt sql.NullTime `db:"updated_at"`
	}
	err := sqlx.GetContext(ctx, executor(ctx, r.db, r.txGetter), &ts, query, args...)
	logQuery(query, args, t.Reference, err)
	if errors.Is(err, sql.ErrNoRows) {
		return models.ErrDuplicateReference
	}
	if err != nil {
		return err
	}
	t.CreatedAt, t.UpdatedAt = ts.CreatedAt.Time, ts.UpdatedAt.Time
	return nil
}

// ExistsByReference reports whether a transaction carries ref.
func (r *TransactionRepository) ExistsByReference(ctx context.Context, ref string) (bool, error) {
	query := `SELECT EXISTS (SELECT 1 FROM transactions WHERE reference = $1)`
	var exists bool
	err := sqlx.GetContext(ctx, executor(ctx, r.db, r.txGetter), &exists, query, ref)
	logQuery(query, []any{ref}, exists, err)
	return exists, err
}

// GetByReference returns the transaction carrying ref.
func (r *TransactionRepository) GetByReference(ctx context.Context, ref string) (*models.TransactionDB, error) {
	query := `SELECT ` + transactionColumns + ` FROM transactions WHERE reference = $1`
	var t models.TransactionDB
	err := sqlx.GetContext(ctx, executor(ctx, r.db, r.txGetter), &t, query, ref)
	logQuery(query, []any{ref}, t.ID, err)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, models.ErrTransactionNotFound
	}
	if err != nil {
		return nil, err
	}
	return &t, nil
}

// UpdateStatus moves the transaction carrying ref from one status to another.
// It returns ErrTransactionNotFound when no row is in the from status.
func (r *TransactionRepository) UpdateStatus(ctx context.Context, ref string, from, to models.TransactionStatus) error {
	query := `
		UPDATE transactions
		SET status = $3, updated_at = NOW()
		WHERE reference = $1 AND status = $2
	`
	res, err := executor(ctx, r.db, r.txGetter).ExecContext(ctx, query, ref, from, to)
	if err != nil {
		logQuery(query, []any{ref, from, to}, nil, err)
		return err
	}
	n, err := res.RowsAffected()
	logQuery(query, []any{ref, from, to}, n, err)
	if err != nil {
		return err
	}
	if n == 0 {
		return models.ErrTransactionNotFound
	}
	return nil
}

// ListByAccount returns an account's transactions, newest first.
func (r *TransactionRepository) ListByAccount(ctx context.Context, accountID uuid.UUID, limit, offset int) ([]models.TransactionDB, error) {
	query := `
		SELECT ` + transactionColumns + `
		FROM transactions
		WHERE account_id = $1
		ORDER BY created_at DESC, id
		LIMIT $2 OFFSET $3
	`
	var out []models.TransactionDB
	err := sqlx.SelectContext(ctx, executor(ctx, r.db, r.txGetter), &out, query, accountID, limit, offset)
	logQuery(query, []any{accountID, limit, offset}, len(out), err)
	return out, err
}

// DeleteByAccount removes every transaction of an account and returns how
// many rows were deleted.
func (r *TransactionRepository) DeleteByAccount(ctx context.Context, accountID uuid.UUID) (int64, error) {
	query := `DELETE FROM transactions WHERE account_id = $1`
	res, err := executor(ctx, r.db, r.txGetter).ExecContext(ctx, query, accountID)
	if err != nil {
		logQuery(query, []any{accountID}, nil, err)
		return 0, err
	}
	n, err := res.RowsAffected()
	logQuery(query, []any{accountID}, n, err)
	return n, err
}
