package services

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/sbilibin2017/gw-bank-core/internal/logger"
	"github.com/sbilibin2017/gw-bank-core/internal/metrics"
	"github.com/sbilibin2017/gw-bank-core/internal/models"
	"github.com/sbilibin2017/gw-bank-core/internal/reference"
	"github.com/shopspring/decimal"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
)

var adminTracer = otel.Tracer("services/admin")

// Adjustment directions
const (
	DirectionCredit = "credit"
	DirectionDebit  = "debit"
)

// AdjustRequest is an admin's direct balance correction.
type AdjustRequest struct {
	Actor       string
	AccountID   uuid.UUID
	Direction   string
	Kind        models.BalanceKind
	Amount      decimal.Decimal
	Type        models.TransactionType // optional, defaults to the direction
	Description string
	BackdateTo  *time.Time
	Metadata    models.Metadata
}

// ClearResult reports what ClearAccount removed.
type ClearResult struct {
	AccountID           uuid.UUID       `json:"account_id"`
	CashCleared         decimal.Decimal `json:"cash_cleared"`
	BitcoinCleared      decimal.Decimal `json:"bitcoin_cleared"`
	TransactionsDeleted int64           `json:"transactions_deleted"`
	TransfersClosed     []string        `json:"transfers_closed,omitempty"` // references of open transfers marked FAILED
}

// OpenTransferStore finds and closes the transfers an account still has open.
type OpenTransferStore interface {
	ListOpenBySender(ctx context.Context, senderID uuid.UUID) ([]models.TransferDB, error)
	Update(ctx context.Context, t *models.TransferDB) error
}

// AdminService applies privileged overrides. It goes through the ledger and
// recorder like every other path, so balances never go negative and every
// change leaves a transaction and an audit entry.
type AdminService struct {
	tx        Transactor
	accounts  AccountStore
	transfers OpenTransferStore
	txns      TransactionStore
	audit     AuditStore
	ledger    *LedgerService
	recorder  *RecorderService
	notifier  Notifier
	metrics   *metrics.Metrics
}

// NewAdminService creates a new AdminService.
func NewAdminService(
	tx Transactor,
	accounts AccountStore,
	transfers OpenTransferStore,
	txns TransactionStore,
	audit AuditStore,
	notifier Notifier,
	m *metrics.Metrics,
) *AdminService {
	return &AdminService{
		tx:        tx,
		accounts:  accounts,
		transfers: transfers,
		txns:      txns,
		audit:     audit,
		ledger:    NewLedgerService(accounts, m),
		recorder:  NewRecorderService(txns),
		notifier:  notifierOrNop(notifier),
		metrics:   m,
	}
}

func (r *AdjustRequest) normalize() error {
	if _, err := models.ParseBalanceKind(string(r.Kind)); err != nil {
		return err
	}
	if r.Kind == "" {
		r.Kind = models.BalanceCash
	}
	if err := validateAmount(r.Kind, r.Amount); err != nil {
		return err
	}
	switch r.Direction {
	case DirectionCredit, DirectionDebit:
	default:
		return fmt.Errorf("%w: %q", models.ErrInvalidDirection, r.Direction)
	}
	if r.Type == "" {
		r.Type = models.TransactionType(r.Direction)
	}
	switch r.Type {
	case models.TransactionDeposit, models.TransactionWithdrawal, models.TransactionCredit, models.TransactionDebit:
	default:
		return fmt.Errorf("%w: type %q is not allowed for adjustments", models.ErrInvalidDirection, r.Type)
	}
	if r.Type.Increases() != (r.Direction == DirectionCredit) {
		return fmt.Errorf("%w: type %q does not match direction %q", models.ErrInvalidDirection, r.Type, r.Direction)
	}
	return nil
}

// Adjust credits or debits an account outside any transfer and records a
// completed transaction, optionally backdated.
func (s *AdminService) Adjust(ctx context.Context, req AdjustRequest) (*models.TransactionDB, error) {
	ctx, span := adminTracer.Start(ctx, "AdminService.Adjust")
	defer span.End()
	span.SetAttributes(attribute.String("account.id", req.AccountID.String()), attribute.String("admin.actor", req.Actor))

	if err := req.normalize(); err != nil {
		return nil, err
	}

	var (
		txn    *models.TransactionDB
		change models.BalanceChange
	)
	err := s.tx.WithinTx(ctx, func(ctx context.Context) error {
		acct, err := s.accounts.GetByIDForUpdate(ctx, req.AccountID)
		if err != nil {
			return err
		}

		if req.Direction == DirectionCredit {
			change, err = s.ledger.Credit(ctx, acct.ID, req.Kind, req.Amount)
		} else {
			change, err = s.ledger.Debit(ctx, acct.ID, req.Kind, req.Amount)
		}
		if err != nil {
			return err
		}

		meta := req.Metadata.Clone()
		meta["admin_actor"] = req.Actor
		meta["backdated"] = req.BackdateTo != nil
		params := RecordParams{
			AccountID:   acct.ID,
			Type:        req.Type,
			Amount:      req.Amount,
			Change:      change,
			Currency:    acct.CurrencyFor(req.Kind),
			Status:      models.TransactionCompleted,
			Description: req.Description,
			Metadata:    meta,
			Prefix:      reference.PrefixAdmin,
		}
		if req.BackdateTo != nil {
			params.CreatedAt = *req.BackdateTo
		}
		txn, err = s.recorder.Record(ctx, params)
		if err != nil {
			return err
		}

		details := models.Metadata{
			"direction":      req.Direction,
			"kind":           string(req.Kind),
			"amount":         req.Amount.String(),
			"reference":      txn.Reference,
			"balance_before": change.Before.String(),
			"balance_after":  change.After.String(),
		}
		if req.BackdateTo != nil {
			details["backdated_to"] = req.BackdateTo.Format(time.RFC3339)
		}
		return s.audit.Append(ctx, &models.AuditEntryDB{
			Actor:      req.Actor,
			Action:     models.AuditAdminAdjust,
			Resource:   models.ResourceAccount,
			ResourceID: acct.ID.String(),
			Details:    details,
		})
	})
	if err != nil {
		logger.Log.Warnw("admin adjustment failed", "account_id", req.AccountID, "actor", req.Actor, "error", err)
		return nil, err
	}

	s.metrics.IncAdmin(models.AuditAdminAdjust)
	event := models.EventBalanceCredited
	if req.Direction == DirectionDebit {
		event = models.EventBalanceDebited
	}
	s.notifier.Publish(ctx, models.NewEvent(event, req.AccountID, txn.Reference, models.Metadata{
		"kind":           string(req.Kind),
		"amount":         req.Amount.String(),
		"balance_before": change.Before.String(),
		"balance_after":  change.After.String(),
	}))
	logger.Log.Infow("admin adjustment applied", "account_id", req.AccountID, "actor", req.Actor, "reference", txn.Reference)
	return txn, nil
}

// ClearAccount zeroes both balances and deletes the account's transactions.
// Open transfers lose their reservation with the balances, so they are
// closed as FAILED without a reversal. The audit entries are written in the
// same transaction, so nothing is cleared unless it is recorded.
func (s *AdminService) ClearAccount(ctx context.Context, actor string, accountID uuid.UUID, reason string) (*ClearResult, error) {
	ctx, span := adminTracer.Start(ctx, "AdminService.ClearAccount")
	defer span.End()
	span.SetAttributes(attribute.String("account.id", accountID.String()), attribute.String("admin.actor", actor))

	var closed []models.TransferDB
	res := &ClearResult{AccountID: accountID}
	err := s.tx.WithinTx(ctx, func(ctx context.Context) error {
		if _, err := s.accounts.GetByIDForUpdate(ctx, accountID); err != nil {
			return err
		}

		var err error
		closed, err = s.failOpenTransfers(ctx, actor, accountID)
		if err != nil {
			return err
		}
		res.TransfersClosed = make([]string, 0, len(closed))
		for _, t := range closed {
			res.TransfersClosed = append(res.TransfersClosed, t.Reference)
		}

		res.CashCleared, res.BitcoinCleared, err = s.accounts.Clear(ctx, accountID)
		if err != nil {
			return err
		}
		res.TransactionsDeleted, err = s.txns.DeleteByAccount(ctx, accountID)
		if err != nil {
			return err
		}

		return s.audit.Append(ctx, &models.AuditEntryDB{
			Actor:      actor,
			Action:     models.AuditAdminClear,
			Resource:   models.ResourceAccount,
			ResourceID: accountID.String(),
			Details: models.Metadata{
				"reason":               reason,
				"cash_cleared":         res.CashCleared.String(),
				"bitcoin_cleared":      res.BitcoinCleared.String(),
				"transactions_deleted": res.TransactionsDeleted,
				"transfers_closed":     res.TransfersClosed,
			},
		})
	})
	if err != nil {
		logger.Log.Errorw("clear account failed", "account_id", accountID, "actor", actor, "error", err)
		return nil, err
	}

	s.metrics.IncAdmin(models.AuditAdminClear)
	for i := range closed {
		s.metrics.IncTransferStatus(string(closed[i].Status))
		s.notifier.Publish(ctx, models.NewEvent(models.EventTransferStatusChanged, closed[i].SenderID, closed[i].Reference, models.Metadata{
			"transfer_id": closed[i].ID.String(),
			"status":      string(closed[i].Status),
		}))
	}
	logger.Log.Infow("account cleared", "account_id", accountID, "actor", actor,
		"transactions_deleted", res.TransactionsDeleted, "transfers_closed", len(closed))
	return res, nil
}

// failOpenTransfers marks every PENDING or PROCESSING transfer of the sender
// FAILED. Their transfer-out rows are about to be deleted, so no reversal is
// recorded.
func (s *AdminService) failOpenTransfers(ctx context.Context, actor string, senderID uuid.UUID) ([]models.TransferDB, error) {
	open, err := s.transfers.ListOpenBySender(ctx, senderID)
	if err != nil {
		return nil, err
	}
	const reason = "account cleared"
	for i := range open {
		t := &open[i]
		t.Status = models.TransferFailed
		t.Metadata.Verification.OTP = nil
		t.Metadata.Resolution = &models.Resolution{By: actor, Reason: reason, At: time.Now().UTC()}
		if err := s.transfers.Update(ctx, t); err != nil {
			return nil, err
		}
		if err := s.audit.Append(ctx, &models.AuditEntryDB{
			Actor:      actor,
			Action:     models.AuditTransferFail,
			Resource:   models.ResourceTransfer,
			ResourceID: t.ID.String(),
			Details: models.Metadata{
				"reference": t.Reference,
				"reason":    reason,
				"amount":    t.Amount.String(),
			},
		}); err != nil {
			return nil, err
		}
	}
	return open, nil
}
