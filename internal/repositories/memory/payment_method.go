package memory

import (
	"context"

	"github.com/sbilibin2017/gw-bank-core/internal/models"
)

// PaymentMethodRepository is the in-memory fee policy table.
type PaymentMethodRepository struct {
	s *Store
}

// NewPaymentMethodRepository creates a new PaymentMethodRepository.
func NewPaymentMethodRepository(s *Store) *PaymentMethodRepository {
	return &PaymentMethodRepository{s: s}
}

// GetByTransferType returns the fee policy for t, or nil when none is configured.
func (r *PaymentMethodRepository) GetByTransferType(ctx context.Context, t models.TransferType) (*models.PaymentMethodDB, error) {
	defer r.s.lock(ctx)()
	pm, ok := r.s.paymentMethods[t]
	if !ok {
		return nil, nil
	}
	return &pm, nil
}

// Save inserts or replaces a fee policy.
func (r *PaymentMethodRepository) Save(ctx context.Context, pm *models.PaymentMethodDB) error {
	defer r.s.lock(ctx)()
	r.s.paymentMethods[pm.TransferType] = *pm
	return nil
}
