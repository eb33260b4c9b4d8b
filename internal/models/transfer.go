package models

import (
	"database/sql/driver"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// TransferType is the closed set of outbound transfer kinds.
type TransferType string

// Transfer types
const (
	TransferInternal      TransferType = "internal"
	TransferLocal         TransferType = "local"
	TransferInternational TransferType = "international"
	TransferCrypto        TransferType = "crypto"
)

// ParseTransferType validates a transfer type received at the boundary.
func ParseTransferType(s string) (TransferType, error) {
	switch t := TransferType(strings.ToLower(strings.TrimSpace(s))); t {
	case TransferInternal, TransferLocal, TransferInternational, TransferCrypto:
		return t, nil
	default:
		return "", fmt.Errorf("%w: %q", ErrInvalidTransferType, s)
	}
}

// TransferPolicy describes how a transfer type moves money and which proofs it needs.
type TransferPolicy struct {
	Kind            BalanceKind
	RequiresImfCode bool
	RequiresCotCode bool
	RequiresOTP     bool
	CountsToLimit   bool // draws from the account's daily transfer limit
	Synchronous     bool // completes inside Initiate
}

// PolicyFor returns the policy for a transfer type.
func PolicyFor(t TransferType) TransferPolicy {
	switch t {
	case TransferInternal:
		return TransferPolicy{Kind: BalanceCash, Synchronous: true}
	case TransferLocal:
		return TransferPolicy{Kind: BalanceCash, RequiresOTP: true, CountsToLimit: true}
	case TransferInternational:
		return TransferPolicy{Kind: BalanceCash, RequiresImfCode: true, RequiresCotCode: true, RequiresOTP: true, CountsToLimit: true}
	case TransferCrypto:
		return TransferPolicy{Kind: BalanceBitcoin, RequiresCotCode: true, RequiresOTP: true}
	default:
		return TransferPolicy{Kind: BalanceCash, RequiresOTP: true}
	}
}

// LimitedTransferTypes are the types drawing from the daily transfer limit.
var LimitedTransferTypes = []TransferType{TransferLocal, TransferInternational}

// TransferStatus is the lifecycle status of a transfer.
type TransferStatus string

// Transfer statuses
const (
	TransferPending    TransferStatus = "PENDING"
	TransferProcessing TransferStatus = "PROCESSING"
	TransferCompleted  TransferStatus = "COMPLETED"
	TransferFailed     TransferStatus = "FAILED"
	TransferRejected   TransferStatus = "REJECTED"
	TransferExpired    TransferStatus = "EXPIRED"
)

// Open reports whether the transfer still holds a reservation that can be reversed.
func (s TransferStatus) Open() bool {
	return s == TransferPending || s == TransferProcessing
}

// RecipientDetails describes the counterparty of a transfer.
type RecipientDetails struct {
	AccountNumber string `json:"account_number,omitempty"`
	AccountName   string `json:"account_name,omitempty"`
	BankName      string `json:"bank_name,omitempty"`
	Country       string `json:"country,omitempty"`
	RoutingNumber string `json:"routing_number,omitempty"`
	SwiftCode     string `json:"swift_code,omitempty"`
	WalletAddress string `json:"wallet_address,omitempty"`
}

// Validate checks the fields each transfer type needs.
func (d RecipientDetails) Validate(t TransferType) error {
	missing := func(field string) error {
		return fmt.Errorf("%w: %s is required for %s transfers", ErrInvalidRecipient, field, t)
	}
	switch t {
	case TransferInternal, TransferLocal:
		if d.AccountNumber == "" {
			return missing("account_number")
		}
	case TransferInternational:
		if d.AccountNumber == "" {
			return missing("account_number")
		}
		if d.SwiftCode == "" {
			return missing("swift_code")
		}
		if d.Country == "" {
			return missing("country")
		}
	case TransferCrypto:
		if d.WalletAddress == "" {
			return missing("wallet_address")
		}
	}
	return nil
}

// Value implements driver.Valuer.
func (d RecipientDetails) Value() (driver.Value, error) {
	return json.Marshal(d)
}

// Scan implements sql.Scanner.
func (d *RecipientDetails) Scan(src any) error {
	return scanJSON(src, d)
}

// Resolution records how an open transfer was closed.
type Resolution struct {
	By                string    `json:"by"`
	Reason            string    `json:"reason,omitempty"`
	At                time.Time `json:"at"`
	ReversalReference string    `json:"reversal_reference,omitempty"`
}

// TransferMetadata is the jsonb bag of a transfer. It holds the verification
// sub-state, so its content is owned by the workflow.
type TransferMetadata struct {
	Verification Verification `json:"verification"`
	Resolution   *Resolution  `json:"resolution,omitempty"`
	Extra        Metadata     `json:"extra,omitempty"`
}

// Value implements driver.Valuer.
func (m TransferMetadata) Value() (driver.Value, error) {
	return json.Marshal(m)
}

// Scan implements sql.Scanner.
func (m *TransferMetadata) Scan(src any) error {
	return scanJSON(src, m)
}

// TransferDB represents a transfers row.
type TransferDB struct {
	ID               uuid.UUID        `json:"id" db:"id"`
	SenderID         uuid.UUID        `json:"sender_id" db:"sender_id"`
	RecipientID      *uuid.UUID       `json:"recipient_id,omitempty" db:"recipient_id"`
	RecipientDetails RecipientDetails `json:"recipient_details" db:"recipient_details"`
	Type             TransferType     `json:"type" db:"type"`
	Amount           decimal.Decimal  `json:"amount" db:"amount"`
	Fee              decimal.Decimal  `json:"fee" db:"fee"`
	TotalAmount      decimal.Decimal  `json:"total_amount" db:"total_amount"` // amount + fee, fixed at creation
	Currency         string           `json:"currency" db:"currency"`
	Status           TransferStatus   `json:"status" db:"status"`
	Reference        string           `json:"reference" db:"reference"`
	RequiresImfCode  bool             `json:"requires_imf_code" db:"requires_imf_code"`
	RequiresCotCode  bool             `json:"requires_cot_code" db:"requires_cot_code"`
	CodesVerified    bool             `json:"codes_verified" db:"codes_verified"`
	Description      string           `json:"description" db:"description"`
	Metadata         TransferMetadata `json:"metadata" db:"metadata"`
	CreatedAt        time.Time        `json:"created_at" db:"created_at"`
	UpdatedAt        time.Time        `json:"updated_at" db:"updated_at"`
}

// Policy returns the policy the transfer was created under.
func (t *TransferDB) Policy() TransferPolicy {
	return PolicyFor(t.Type)
}

// Kind returns the balance the transfer draws from.
func (t *TransferDB) Kind() BalanceKind {
	return t.Policy().Kind
}
