package repositories

import (
	"context"
	"database/sql"
	"errors"

	"github.com/jmoiron/sqlx"
	"github.com/sbilibin2017/gw-bank-core/internal/models"
)

// PaymentMethodRepository reads per-transfer-type fee policies.
type PaymentMethodRepository struct {
	db *sqlx.DB
}

// NewPaymentMethodRepository creates a new PaymentMethodRepository.
func NewPaymentMethodRepository(db *sqlx.DB) *PaymentMethodRepository {
	return &PaymentMethodRepository{db: db}
}

// GetByTransferType returns the fee policy for t, or nil when none is configured.
func (r *PaymentMethodRepository) GetByTransferType(ctx context.Context, t models.TransferType) (*models.PaymentMethodDB, error) {
	query := `
		SELECT transfer_type, fee_type, fee_value
		FROM payment_methods
		WHERE transfer_type = $1
	`
	var pm models.PaymentMethodDB
	err := r.db.GetContext(ctx, &pm, query, t)
	logQuery(query, []any{t}, pm, err)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &pm, nil
}

// Save inserts or replaces the fee policy for a transfer type.
func (r *PaymentMethodRepository) Save(ctx context.Context, pm *models.PaymentMethodDB) error {
	query := `
		INSERT INTO payment_methods (transfer_type, fee_type, fee_value)
		VALUES ($1, $2, $3)
		ON CONFLICT (transfer_type)
		DO UPDATE SET fee_type = EXCLUDED.fee_type, fee_value = EXCLUDED.fee_value
	`
	args := []any{pm.TransferType, pm.FeeType, pm.FeeValue}
	_, err := r.db.ExecContext(ctx, query, args...)
	logQuery(query, args, nil, err)
	return err
}
