package models

import (
	"time"

	"github.com/google/uuid"
)

// Audit actions
const (
	AuditAdminAdjust      = "admin.adjust"
	AuditAdminClear       = "admin.clear_account"
	AuditTransferReject   = "transfer.reject"
	AuditTransferComplete = "transfer.complete"
	AuditTransferExpire   = "transfer.expire"
	AuditTransferFail     = "transfer.fail"
	AuditVerifyStep       = "transfer.verify"
	AuditOTPIssued        = "transfer.otp_issued"
)

// Audit resources
const (
	ResourceAccount  = "account"
	ResourceTransfer = "transfer"
)

// ActorSystem identifies background processes in the audit log.
const ActorSystem = "system"

// AuditEntryDB represents an insert-only audit_log row.
type AuditEntryDB struct {
	ID         uuid.UUID `json:"id" db:"id"`
	Actor      string    `json:"actor" db:"actor"`
	Action     string    `json:"action" db:"action"`
	Resource   string    `json:"resource" db:"resource"`
	ResourceID string    `json:"resource_id" db:"resource_id"`
	Details    Metadata  `json:"details" db:"details"`
	CreatedAt  time.Time `json:"created_at" db:"created_at"`
}
