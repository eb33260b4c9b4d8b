package services

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/sbilibin2017/gw-bank-core/internal/logger"
	"github.com/sbilibin2017/gw-bank-core/internal/models"
	"github.com/sbilibin2017/gw-bank-core/internal/reference"
	"github.com/sbilibin2017/gw-bank-core/internal/resilience"
	"github.com/shopspring/decimal"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
)

var recorderTracer = otel.Tracer("services/recorder")

// TransactionStore persists the transaction log.
type TransactionStore interface {
	Create(ctx context.Context, t *models.TransactionDB) error
	ExistsByReference(ctx context.Context, ref string) (bool, error)
	GetByReference(ctx context.Context, ref string) (*models.TransactionDB, error)
	UpdateStatus(ctx context.Context, ref string, from, to models.TransactionStatus) error
	ListByAccount(ctx context.Context, accountID uuid.UUID, limit, offset int) ([]models.TransactionDB, error)
	DeleteByAccount(ctx context.Context, accountID uuid.UUID) (int64, error)
}

// RecordParams describes one balance mutation to append to the log.
type RecordParams struct {
	AccountID   uuid.UUID
	Type        models.TransactionType
	Amount      decimal.Decimal
	Change      models.BalanceChange // snapshots returned by the ledger
	Currency    string
	Status      models.TransactionStatus
	Description string
	Metadata    models.Metadata
	Reference   string    // generated with Prefix when empty
	Prefix      string    // defaults to TXN
	CreatedAt   time.Time // zero means now
}

// RecorderService appends entries to the transaction log.
type RecorderService struct {
	txns        TransactionStore
	retry       resilience.Config
	maxAttempts int
}

// NewRecorderService creates a new RecorderService.
func NewRecorderService(txns TransactionStore) *RecorderService {
	return &RecorderService{txns: txns, retry: resilience.DefaultConfig, maxAttempts: reference.DefaultMaxAttempts}
}

// Record validates p and inserts it. A generated reference that turns out to
// be taken is regenerated; a caller-supplied one is not.
func (s *RecorderService) Record(ctx context.Context, p RecordParams) (*models.TransactionDB, error) {
	ctx, span := recorderTracer.Start(ctx, "RecorderService.Record")
	defer span.End()
	span.SetAttributes(attribute.String("transaction.type", string(p.Type)))

	if _, err := models.ParseTransactionType(string(p.Type)); err != nil {
		return nil, err
	}
	switch p.Status {
	case models.TransactionPending, models.TransactionCompleted, models.TransactionFailed:
	default:
		return nil, fmt.Errorf("invalid transaction status %q", p.Status)
	}
	if !p.Amount.IsPositive() {
		return nil, models.ErrInvalidAmount
	}

	t := &models.TransactionDB{
		AccountID:     p.AccountID,
		Type:          p.Type,
		Amount:        p.Amount,
		BalanceBefore: p.Change.Before,
		BalanceAfter:  p.Change.After,
		Currency:      p.Currency,
		Status:        p.Status,
		Description:   p.Description,
		Metadata:      p.Metadata.Clone(),
		CreatedAt:     p.CreatedAt,
	}
	if err := t.CheckSnapshot(); err != nil {
		logger.Log.Errorw("refusing inconsistent snapshot", "account_id", p.AccountID, "error", err)
		return nil, err
	}

	if p.Reference != "" {
		t.Reference = p.Reference
		if err := s.txns.Create(ctx, t); err != nil {
			logger.Log.Errorw("failed to record transaction", "reference", t.Reference, "error", err)
			return nil, err
		}
		return t, nil
	}

	prefix := p.Prefix
	if prefix == "" {
		prefix = reference.PrefixTransaction
	}
	for attempt := 0; attempt < s.maxAttempts; attempt++ {
		ref, err := reference.Unique(ctx, prefix, s.txns.ExistsByReference, s.retry, s.maxAttempts)
		if err != nil {
			logger.Log.Errorw("failed to generate transaction reference", "error", err)
			return nil, err
		}
		t.Reference = ref
		err = s.txns.Create(ctx, t)
		if errors.Is(err, models.ErrDuplicateReference) {
			logger.Log.Warnw("transaction reference taken at insert, regenerating", "reference", ref)
			continue
		}
		if err != nil {
			logger.Log.Errorw("failed to record transaction", "reference", ref, "error", err)
			return nil, err
		}
		return t, nil
	}
	return nil, reference.ErrExhausted
}

// Settle moves the transaction carrying ref from one status to another.
// Snapshots are never edited.
func (s *RecorderService) Settle(ctx context.Context, ref string, from, to models.TransactionStatus) error {
	ctx, span := recorderTracer.Start(ctx, "RecorderService.Settle")
	defer span.End()

	if err := s.txns.UpdateStatus(ctx, ref, from, to); err != nil {
		logger.Log.Errorw("failed to settle transaction", "reference", ref, "from", from, "to", to, "error", err)
		return err
	}
	return nil
}

// List returns an account's transactions, newest first.
func (s *RecorderService) List(ctx context.Context, accountID uuid.UUID, limit, offset int) ([]models.TransactionDB, error) {
	ctx, span := recorderTracer.Start(ctx, "RecorderService.List")
	defer span.End()

	txns, err := s.txns.ListByAccount(ctx, accountID, limit, offset)
	if err != nil {
		logger.Log.Errorw("failed to list transactions", "account_id", accountID, "error", err)
		return nil, err
	}
	return txns, nil
}
