package repositories

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	"github.com/sbilibin2017/gw-bank-core/internal/models"
	"github.com/shopspring/decimal"
)

const transferColumns = `id, sender_id, recipient_id, recipient_details, type, amount, fee, total_amount,
	currency, status, reference, requires_imf_code, requires_cot_code, codes_verified, description,
	metadata, created_at, updated_at`

// TransferRepository persists transfers.
type TransferRepository struct {
	db       *sqlx.DB
	txGetter TxGetter
}

// NewTransferRepository creates a new TransferRepository.
func NewTransferRepository(db *sqlx.DB, txGetter TxGetter) *TransferRepository {
	return &TransferRepository{db: db, txGetter: txGetter}
}

// Create inserts t and fills ID and timestamps. A reference that already
// exists yields ErrDuplicateReference.
func (r *TransferRepository) Create(ctx context.Context, t *models.TransferDB) error {
	if t.ID == uuid.Nil {
		t.ID = uuid.New()
	}
	query := `
		INSERT INTO transfers (id, sender_id, recipient_id, recipient_details, type, amount, fee,
			total_amount, currency, status, reference, requires_imf_code, requires_cot_code,
			codes_verified, description, metadata)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16)
		ON CONFLICT (reference) DO NOTHING
		RETURNING created_at, updated_at
	`
	args := []any{t.ID, t.SenderID, t.RecipientID, t.RecipientDetails, t.Type, t.Amount, t.Fee,
		t.TotalAmount, t.Currency, t.Status, t.Reference, t.RequiresImfCode, t.RequiresCotCode,
		t.CodesVerified, t.Description, t.Metadata}

	var ts struct {
		CreatedAt time.Time `db:"created_at"`
		UpdatedAt time.Time `db:"updated_at"`
	}
	err := sqlx.GetContext(ctx, executor(ctx, r.db, r.txGetter), &ts, query, args...)
	logQuery(query, args, t.Reference, err)
	if errors.Is(err, sql.ErrNoRows) {
		return models.ErrDuplicateReference
	}
	if err != nil {
		return err
	}
	t.CreatedAt, t.UpdatedAt = ts.CreatedAt, ts.UpdatedAt
	return nil
}

// GetByID returns a transfer without locking it.
func (r *TransferRepository) GetByID(ctx context.Context, id uuid.UUID) (*models.TransferDB, error) {
	return r.get(ctx, `SELECT `+transferColumns+` FROM transfers WHERE id = $1`, id)
}

// GetByIDForUpdate returns a transfer and holds its row lock until the
// surrounding transaction ends. Verification steps serialise on this lock.
func (r *TransferRepository) GetByIDForUpdate(ctx context.Context, id uuid.UUID) (*models.TransferDB, error) {
	return r.get(ctx, `SELECT `+transferColumns+` FROM transfers WHERE id = $1 FOR UPDATE`, id)
}

func (r *TransferRepository) get(ctx context.Context, query string, id uuid.UUID) (*models.TransferDB, error) {
	var t models.TransferDB
	err := sqlx.GetContext(ctx, executor(ctx, r.db, r.txGetter), &t, query, id)
	logQuery(query, []any{id}, t.Reference, err)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, models.ErrTransferNotFound
	}
	if err != nil {
		return nil, err
	}
	return &t, nil
}

// ExistsByReference reports whether a transfer carries ref.
func (r *TransferRepository) ExistsByReference(ctx context.Context, ref string) (bool, error) {
	query := `SELECT EXISTS (SELECT 1 FROM transfers WHERE reference = $1)`
	var exists bool
	err := sqlx.GetContext(ctx, executor(ctx, r.db, r.txGetter), &exists, query, ref)
	logQuery(query, []any{ref}, exists, err)
	return exists, err
}

// Update writes the mutable part of a transfer: status, recipient link,
// verification flags and metadata.
func (r *TransferRepository) Update(ctx context.Context, t *models.TransferDB) error {
	query := `
		UPDATE transfers
		SET status = $2, recipient_id = $3, codes_verified = $4, metadata = $5, updated_at = NOW()
		WHERE id = $1
		RETURNING updated_at
	`
	args := []any{t.ID, t.Status, t.RecipientID, t.CodesVerified, t.Metadata}
	var updatedAt time.Time
	err := sqlx.GetContext(ctx, executor(ctx, r.db, r.txGetter), &updatedAt, query, args...)
	logQuery(query, args, updatedAt, err)
	if errors.Is(err, sql.ErrNoRows) {
		return models.ErrTransferNotFound
	}
	if err != nil {
		return err
	}
	t.UpdatedAt = updatedAt
	return nil
}

// ListBySender returns a sender's transfers, newest first.
func (r *TransferRepository) ListBySender(ctx context.Context, senderID uuid.UUID, limit, offset int) ([]models.TransferDB, error) {
	query := `
		SELECT ` + transferColumns + `
		FROM transfers
		WHERE sender_id = $1
		ORDER BY created_at DESC, id
		LIMIT $2 OFFSET $3
	`
	var out []models.TransferDB
	err := sqlx.SelectContext(ctx, executor(ctx, r.db, r.txGetter), &out, query, senderID, limit, offset)
	logQuery(query, []any{senderID, limit, offset}, len(out), err)
	return out, err
}

// ListOpenBySender locks and returns a sender's PENDING and PROCESSING
// transfers, oldest first.
func (r *TransferRepository) ListOpenBySender(ctx context.Context, senderID uuid.UUID) ([]models.TransferDB, error) {
	query := `
		SELECT ` + transferColumns + `
		FROM transfers
		WHERE sender_id = $1 AND status IN ($2, $3)
		ORDER BY created_at, id
		FOR UPDATE
	`
	args := []any{senderID, models.TransferPending, models.TransferProcessing}
	var out []models.TransferDB
	err := sqlx.SelectContext(ctx, executor(ctx, r.db, r.txGetter), &out, query, args...)
	logQuery(query, args, len(out), err)
	return out, err
}

// ListStale returns ids of transfers in status created before cutoff, oldest
// first. It takes no locks: callers re-lock each row and re-check its status.
func (r *TransferRepository) ListStale(ctx context.Context, status models.TransferStatus, cutoff time.Time, limit int) ([]uuid.UUID, error) {
	query := `
		SELECT id
		FROM transfers
		WHERE status = $1 AND created_at < $2
		ORDER BY created_at
		LIMIT $3
	`
	var ids []uuid.UUID
	err := sqlx.SelectContext(ctx, executor(ctx, r.db, r.txGetter), &ids, query, status, cutoff, limit)
	logQuery(query, []any{status, cutoff, limit}, len(ids), err)
	return ids, err
}

// SumOutgoingSince totals the amounts of a sender's transfers of the given
// types created at or after since, excluding those that never moved money
// or were reversed.
func (r *TransferRepository) SumOutgoingSince(ctx context.Context, senderID uuid.UUID, types []models.TransferType, since time.Time) (decimal.Decimal, error) {
	if len(types) == 0 {
		return decimal.Zero, nil
	}
	query, args, err := sqlx.In(`
		SELECT COALESCE(SUM(amount), 0)
		FROM transfers
		WHERE sender_id = ?
			AND type IN (?)
			AND status NOT IN (?)
			AND created_at >= ?
	`, senderID, types, []models.TransferStatus{models.TransferFailed, models.TransferRejected, models.TransferExpired}, since)
	if err != nil {
		return decimal.Zero, err
	}
	exec := executor(ctx, r.db, r.txGetter)
	query = exec.Rebind(query)

	var total decimal.Decimal
	err = sqlx.GetContext(ctx, exec, &total, query, args...)
	logQuery(query, args, total, err)
	return total, err
}
