package services

//go:generate mockgen -source=notify.go -destination=notify_mock.go -package=services

import (
	"context"

	"github.com/sbilibin2017/gw-bank-core/internal/logger"
	"github.com/sbilibin2017/gw-bank-core/internal/models"
)

// Notifier delivers events to the notification service. Implementations
// must not block the caller on delivery failures.
type Notifier interface {
	Publish(ctx context.Context, event models.Event)
}

// AuditStore appends to the insert-only audit log.
type AuditStore interface {
	Append(ctx context.Context, e *models.AuditEntryDB) error
}

type nopNotifier struct{}

func (nopNotifier) Publish(context.Context, models.Event) {}

func notifierOrNop(n Notifier) Notifier {
	if n == nil {
		return nopNotifier{}
	}
	return n
}

// appendAuditBestEffort records an entry outside any money-moving
// transaction. A failure is logged and dropped.
func appendAuditBestEffort(ctx context.Context, audit AuditStore, e *models.AuditEntryDB) {
	if err := audit.Append(ctx, e); err != nil {
		logger.Log.Errorw("failed to append audit entry", "action", e.Action, "resource_id", e.ResourceID, "error", err)
	}
}
