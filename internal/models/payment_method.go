package models

import "github.com/shopspring/decimal"

// FeeType selects how a payment method charges.
type FeeType string

// Fee types
const (
	FeeFixed      FeeType = "fixed"
	FeePercentage FeeType = "percentage"
)

// PaymentMethodDB holds the fee policy for one transfer type.
type PaymentMethodDB struct {
	TransferType TransferType    `json:"transfer_type" db:"transfer_type"`
	FeeType      FeeType         `json:"fee_type" db:"fee_type"`
	FeeValue     decimal.Decimal `json:"fee_value" db:"fee_value"` // Absolute amount or percent (2.5 = 2.5%)
}
