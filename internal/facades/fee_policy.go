package facades

//go:generate mockgen -source=fee_policy.go -destination=fee_policy_mock.go -package=facades

import (
	"context"

	"github.com/sbilibin2017/gw-bank-core/internal/logger"
	"github.com/sbilibin2017/gw-bank-core/internal/models"
	"github.com/shopspring/decimal"
)

// PaymentMethodReader loads the fee policy configured for a transfer type.
type PaymentMethodReader interface {
	GetByTransferType(ctx context.Context, t models.TransferType) (*models.PaymentMethodDB, error)
}

// FeePolicy turns payment method rows into concrete fees.
type FeePolicy struct {
	repo PaymentMethodReader
}

// NewFeePolicy creates a new FeePolicy.
func NewFeePolicy(repo PaymentMethodReader) *FeePolicy {
	return &FeePolicy{repo: repo}
}

var hundred = decimal.NewFromInt(100)

// Fee returns the fee charged for moving amount with a transfer of type t.
// A type without a payment method costs nothing. Fees are rounded to the
// places of the balance they are quoted in.
func (f *FeePolicy) Fee(ctx context.Context, t models.TransferType, amount decimal.Decimal) (decimal.Decimal, error) {
	pm, err := f.repo.GetByTransferType(ctx, t)
	if err != nil {
		logger.Log.Errorw("failed to load payment method", "transfer_type", t, "error", err)
		return decimal.Zero, err
	}
	if pm == nil {
		return decimal.Zero, nil
	}

	places := models.PolicyFor(t).Kind.Places()
	switch pm.FeeType {
	case models.FeePercentage:
		return amount.Mul(pm.FeeValue).Div(hundred).Round(places), nil
	default:
		return pm.FeeValue.Round(places), nil
	}
}
