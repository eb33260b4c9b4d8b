package services

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/sbilibin2017/gw-bank-core/internal/logger"
	"github.com/sbilibin2017/gw-bank-core/internal/metrics"
	"github.com/sbilibin2017/gw-bank-core/internal/models"
	"github.com/sbilibin2017/gw-bank-core/internal/reference"
	"github.com/sbilibin2017/gw-bank-core/internal/resilience"
	"github.com/shopspring/decimal"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
)

var transferTracer = otel.Tracer("services/transfer")

// TransferStore persists transfers.
type TransferStore interface {
	Create(ctx context.Context, t *models.TransferDB) error
	GetByID(ctx context.Context, id uuid.UUID) (*models.TransferDB, error)
	GetByIDForUpdate(ctx context.Context, id uuid.UUID) (*models.TransferDB, error)
	ExistsByReference(ctx context.Context, ref string) (bool, error)
	Update(ctx context.Context, t *models.TransferDB) error
	ListBySender(ctx context.Context, senderID uuid.UUID, limit, offset int) ([]models.TransferDB, error)
	ListOpenBySender(ctx context.Context, senderID uuid.UUID) ([]models.TransferDB, error)
	ListStale(ctx context.Context, status models.TransferStatus, cutoff time.Time, limit int) ([]uuid.UUID, error)
	SumOutgoingSince(ctx context.Context, senderID uuid.UUID, types []models.TransferType, since time.Time) (decimal.Decimal, error)
}

// FeeCalculator resolves the fee charged for a transfer.
type FeeCalculator interface {
	Fee(ctx context.Context, t models.TransferType, amount decimal.Decimal) (decimal.Decimal, error)
}

// InitiateRequest is a sender's request to move money out of an account.
type InitiateRequest struct {
	SenderID    uuid.UUID
	Type        models.TransferType
	Amount      decimal.Decimal
	Recipient   models.RecipientDetails
	Description string
}

// TransferConfig tunes the transfer workflow.
type TransferConfig struct {
	MaxInitiateAttempts int              // whole-transaction retries on a reference clash
	Now                 func() time.Time // clock, defaults to time.Now
}

// TransferService owns the transfer lifecycle: initiation, completion and
// reversal of the reserved amount.
type TransferService struct {
	tx        Transactor
	accounts  AccountStore
	transfers TransferStore
	txns      TransactionStore
	fees      FeeCalculator
	audit     AuditStore
	ledger    *LedgerService
	recorder  *RecorderService
	notifier  Notifier
	metrics   *metrics.Metrics
	cfg       TransferConfig
}

// NewTransferService creates a new TransferService.
func NewTransferService(
	tx Transactor,
	accounts AccountStore,
	transfers TransferStore,
	txns TransactionStore,
	fees FeeCalculator,
	audit AuditStore,
	notifier Notifier,
	m *metrics.Metrics,
	cfg TransferConfig,
) *TransferService {
	if cfg.MaxInitiateAttempts <= 0 {
		cfg.MaxInitiateAttempts = 3
	}
	if cfg.Now == nil {
		cfg.Now = time.Now
	}
	return &TransferService{
		tx:        tx,
		accounts:  accounts,
		transfers: transfers,
		txns:      txns,
		fees:      fees,
		audit:     audit,
		ledger:    NewLedgerService(accounts, m),
		recorder:  NewRecorderService(txns),
		notifier:  notifierOrNop(notifier),
		metrics:   m,
		cfg:       cfg,
	}
}

func (r InitiateRequest) validate() error {
	if _, err := models.ParseTransferType(string(r.Type)); err != nil {
		return err
	}
	if err := validateAmount(models.PolicyFor(r.Type).Kind, r.Amount); err != nil {
		return err
	}
	return r.Recipient.Validate(r.Type)
}

// Initiate reserves the amount on the sender and creates the transfer.
// Internal transfers complete immediately; every other type waits in
// PENDING for its verification steps.
func (s *TransferService) Initiate(ctx context.Context, req InitiateRequest) (*models.TransferDB, error) {
	ctx, span := transferTracer.Start(ctx, "TransferService.Initiate")
	defer span.End()
	span.SetAttributes(attribute.String("sender.id", req.SenderID.String()), attribute.String("transfer.type", string(req.Type)))

	start := time.Now()
	defer func() { s.metrics.ObserveOperation("transfer.initiate", time.Since(start)) }()

	if t, err := models.ParseTransferType(string(req.Type)); err == nil {
		req.Type = t
	}
	if err := req.validate(); err != nil {
		s.metrics.IncTransfer(string(req.Type), metrics.OutcomeFailure)
		return nil, err
	}

	var (
		out *initiated
		err error
	)
	for attempt := 0; attempt < s.cfg.MaxInitiateAttempts; attempt++ {
		out, err = s.initiateOnce(ctx, req)
		if !errors.Is(err, models.ErrDuplicateReference) {
			break
		}
		logger.Log.Warnw("reference clash during initiate, retrying", "sender_id", req.SenderID, "attempt", attempt+1)
	}
	if err != nil {
		s.metrics.IncTransfer(string(req.Type), metrics.OutcomeFailure)
		logger.Log.Warnw("transfer initiation failed", "sender_id", req.SenderID, "type", req.Type, "amount", req.Amount, "error", err)
		if errors.Is(err, models.ErrDuplicateReference) {
			return nil, fmt.Errorf("initiate transfer: %w", reference.ErrExhausted)
		}
		return nil, err
	}

	s.metrics.IncTransfer(string(req.Type), metrics.OutcomeSuccess)
	s.metrics.IncTransferStatus(string(out.transfer.Status))
	s.publishInitiated(ctx, out)

	logger.Log.Infow("transfer initiated",
		"transfer_id", out.transfer.ID,
		"reference", out.transfer.Reference,
		"type", out.transfer.Type,
		"status", out.transfer.Status,
	)
	return out.transfer, nil
}

type initiated struct {
	transfer  *models.TransferDB
	debit     models.BalanceChange
	credit    *models.BalanceChange // internal transfers only
	creditRef string
}

func (s *TransferService) initiateOnce(ctx context.Context, req InitiateRequest) (*initiated, error) {
	policy := models.PolicyFor(req.Type)
	now := s.cfg.Now()
	out := &initiated{}

	err := s.tx.WithinTx(ctx, func(ctx context.Context) error {
		recipient, err := s.resolveRecipient(ctx, req)
		if err != nil {
			return err
		}

		// lock in id order so opposing internal transfers cannot deadlock
		sender, err := s.lockAccounts(ctx, req.SenderID, recipient)
		if err != nil {
			return err
		}
		if !sender.Status.CanDebit() {
			return &models.AccountNotEligibleError{Status: sender.Status}
		}

		if policy.CountsToLimit && sender.DailyTransferLimit.IsPositive() {
			if err := s.checkDailyLimit(ctx, sender, req.Amount, now); err != nil {
				return err
			}
		}

		fee, err := s.fees.Fee(ctx, req.Type, req.Amount)
		if err != nil {
			return fmt.Errorf("resolve fee: %w", err)
		}

		ref, err := reference.Unique(ctx, reference.PrefixTransfer, s.referenceTaken, resilience.DefaultConfig, reference.DefaultMaxAttempts)
		if err != nil {
			return err
		}

		// only the amount is reserved; the fee is informational
		debit, err := s.ledger.Debit(ctx, sender.ID, policy.Kind, req.Amount)
		if err != nil {
			return err
		}
		out.debit = debit

		txnStatus := models.TransactionPending
		status := models.TransferPending
		if policy.Synchronous {
			txnStatus = models.TransactionCompleted
			status = models.TransferCompleted
		}

		currency := sender.CurrencyFor(policy.Kind)
		if _, err := s.recorder.Record(ctx, RecordParams{
			AccountID:   sender.ID,
			Type:        models.TransactionTransferOut,
			Amount:      req.Amount,
			Change:      debit,
			Currency:    currency,
			Status:      txnStatus,
			Description: req.Description,
			Reference:   ref,
			Metadata: models.Metadata{
				"transfer_type": string(req.Type),
				"fee":           fee.String(),
			},
		}); err != nil {
			return err
		}

		t := &models.TransferDB{
			SenderID:         sender.ID,
			RecipientDetails: req.Recipient,
			Type:             req.Type,
			Amount:           req.Amount,
			Fee:              fee,
			TotalAmount:      req.Amount.Add(fee),
			Currency:         currency,
			Status:           status,
			Reference:        ref,
			RequiresImfCode:  policy.RequiresImfCode,
			RequiresCotCode:  policy.RequiresCotCode,
			Description:      req.Description,
			Metadata:         models.TransferMetadata{Verification: models.NewVerification()},
		}
		if recipient != nil {
			t.RecipientID = &recipient.ID
		}

		if policy.Synchronous {
			credit, err := s.ledger.Credit(ctx, recipient.ID, policy.Kind, req.Amount)
			if err != nil {
				return err
			}
			in, err := s.recorder.Record(ctx, RecordParams{
				AccountID:   recipient.ID,
				Type:        models.TransactionTransferIn,
				Amount:      req.Amount,
				Change:      credit,
				Currency:    recipient.CurrencyFor(policy.Kind),
				Status:      models.TransactionCompleted,
				Description: req.Description,
				Metadata: models.Metadata{
					"transfer_type":      string(req.Type),
					"transfer_reference": ref,
				},
			})
			if err != nil {
				return err
			}
			out.credit = &credit
			out.creditRef = in.Reference
			t.Metadata.Resolution = &models.Resolution{By: sender.ID.String(), At: now}
		}

		if err := s.transfers.Create(ctx, t); err != nil {
			return err
		}
		out.transfer = t
		return nil
	})
	if err != nil {
		return nil, err
	}
	return out, nil
}

// resolveRecipient finds the internal account a transfer pays into. It is
// required for internal transfers and optional for local and international
// ones; crypto transfers always leave the bank.
func (s *TransferService) resolveRecipient(ctx context.Context, req InitiateRequest) (*models.AccountDB, error) {
	if req.Type == models.TransferCrypto || req.Recipient.AccountNumber == "" {
		return nil, nil
	}
	recipient, err := s.accounts.GetByAccountNumber(ctx, req.Recipient.AccountNumber)
	if errors.Is(err, models.ErrAccountNotFound) && req.Type != models.TransferInternal {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	if recipient.ID == req.SenderID {
		return nil, models.ErrSameAccount
	}
	return recipient, nil
}

// lockAccounts locks the sender and, for internal transfers, the recipient
// in a stable order and returns the locked sender.
func (s *TransferService) lockAccounts(ctx context.Context, senderID uuid.UUID, recipient *models.AccountDB) (*models.AccountDB, error) {
	if recipient == nil {
		return s.accounts.GetByIDForUpdate(ctx, senderID)
	}
	first, second := senderID, recipient.ID
	if bytes.Compare(first[:], second[:]) > 0 {
		first, second = second, first
	}
	a, err := s.accounts.GetByIDForUpdate(ctx, first)
	if err != nil {
		return nil, err
	}
	b, err := s.accounts.GetByIDForUpdate(ctx, second)
	if err != nil {
		return nil, err
	}
	if a.ID == senderID {
		return a, nil
	}
	return b, nil
}

// checkDailyLimit runs with the sender row locked, so concurrent initiations
// cannot both pass against the same remaining allowance.
func (s *TransferService) checkDailyLimit(ctx context.Context, sender *models.AccountDB, amount decimal.Decimal, now time.Time) error {
	y, m, d := now.UTC().Date()
	startOfDay := time.Date(y, m, d, 0, 0, 0, 0, time.UTC)

	used, err := s.transfers.SumOutgoingSince(ctx, sender.ID, models.LimitedTransferTypes, startOfDay)
	if err != nil {
		return fmt.Errorf("sum today's transfers: %w", err)
	}
	if used.Add(amount).GreaterThan(sender.DailyTransferLimit) {
		return &models.LimitExceededError{Limit: sender.DailyTransferLimit, UsedToday: used, Requested: amount}
	}
	return nil
}

// referenceTaken checks both tables, since a transfer shares its reference
// with its transfer-out transaction.
func (s *TransferService) referenceTaken(ctx context.Context, ref string) (bool, error) {
	taken, err := s.transfers.ExistsByReference(ctx, ref)
	if err != nil || taken {
		return taken, err
	}
	return s.txns.ExistsByReference(ctx, ref)
}

func (s *TransferService) publishInitiated(ctx context.Context, out *initiated) {
	t := out.transfer
	s.notifier.Publish(ctx, models.NewEvent(models.EventBalanceDebited, t.SenderID, t.Reference, models.Metadata{
		"kind":           string(out.debit.Kind),
		"amount":         t.Amount.String(),
		"balance_before": out.debit.Before.String(),
		"balance_after":  out.debit.After.String(),
	}))
	s.notifier.Publish(ctx, models.NewEvent(models.EventTransferInitiated, t.SenderID, t.Reference, models.Metadata{
		"transfer_id": t.ID.String(),
		"type":        string(t.Type),
		"amount":      t.Amount.String(),
		"fee":         t.Fee.String(),
		"status":      string(t.Status),
		"next_step":   string(t.NextStep()),
	}))
	if out.credit != nil && t.RecipientID != nil {
		s.notifier.Publish(ctx, models.NewEvent(models.EventBalanceCredited, *t.RecipientID, out.creditRef, models.Metadata{
			"kind":           string(out.credit.Kind),
			"amount":         t.Amount.String(),
			"balance_before": out.credit.Before.String(),
			"balance_after":  out.credit.After.String(),
		}))
	}
}

func (s *TransferService) publishStatus(ctx context.Context, t *models.TransferDB) {
	s.metrics.IncTransferStatus(string(t.Status))
	s.notifier.Publish(ctx, models.NewEvent(models.EventTransferStatusChanged, t.SenderID, t.Reference, models.Metadata{
		"transfer_id": t.ID.String(),
		"status":      string(t.Status),
	}))
}

// Complete settles a verified transfer: credits the internal recipient if
// there is one and marks the transfer and its transaction completed.
func (s *TransferService) Complete(ctx context.Context, actor string, transferID uuid.UUID) (*models.TransferDB, error) {
	ctx, span := transferTracer.Start(ctx, "TransferService.Complete")
	defer span.End()
	span.SetAttributes(attribute.String("transfer.id", transferID.String()))

	var (
		t      *models.TransferDB
		credit *models.BalanceChange
	)
	err := s.tx.WithinTx(ctx, func(ctx context.Context) error {
		var err error
		t, err = s.transfers.GetByIDForUpdate(ctx, transferID)
		if err != nil {
			return err
		}
		if t.Status != models.TransferProcessing || !t.AllRequiredVerified() {
			return models.ErrTransferNotProcessing
		}

		if t.RecipientID != nil {
			recipient, err := s.accounts.GetByID(ctx, *t.RecipientID)
			if err != nil {
				return err
			}
			change, err := s.ledger.Credit(ctx, recipient.ID, t.Kind(), t.Amount)
			if err != nil {
				return err
			}
			if _, err := s.recorder.Record(ctx, RecordParams{
				AccountID:   recipient.ID,
				Type:        models.TransactionTransferIn,
				Amount:      t.Amount,
				Change:      change,
				Currency:    recipient.CurrencyFor(t.Kind()),
				Status:      models.TransactionCompleted,
				Description: t.Description,
				Metadata: models.Metadata{
					"transfer_type":      string(t.Type),
					"transfer_reference": t.Reference,
				},
			}); err != nil {
				return err
			}
			credit = &change
		}

		if err := s.recorder.Settle(ctx, t.Reference, models.TransactionPending, models.TransactionCompleted); err != nil {
			return err
		}

		t.Status = models.TransferCompleted
		t.Metadata.Resolution = &models.Resolution{By: actor, At: s.cfg.Now()}
		if err := s.transfers.Update(ctx, t); err != nil {
			return err
		}
		return s.audit.Append(ctx, &models.AuditEntryDB{
			Actor:      actor,
			Action:     models.AuditTransferComplete,
			Resource:   models.ResourceTransfer,
			ResourceID: t.ID.String(),
			Details:    models.Metadata{"reference": t.Reference, "amount": t.Amount.String()},
		})
	})
	if err != nil {
		logger.Log.Warnw("transfer completion failed", "transfer_id", transferID, "error", err)
		return nil, err
	}

	s.publishStatus(ctx, t)
	if credit != nil {
		s.notifier.Publish(ctx, models.NewEvent(models.EventBalanceCredited, *t.RecipientID, t.Reference, models.Metadata{
			"kind":           string(credit.Kind),
			"amount":         t.Amount.String(),
			"balance_before": credit.Before.String(),
			"balance_after":  credit.After.String(),
		}))
	}
	logger.Log.Infow("transfer completed", "transfer_id", t.ID, "reference", t.Reference, "actor", actor)
	return t, nil
}

// Reject closes an open transfer on an admin's decision and returns the
// reserved amount to the sender.
func (s *TransferService) Reject(ctx context.Context, actor string, transferID uuid.UUID, reason string) (*models.TransferDB, error) {
	ctx, span := transferTracer.Start(ctx, "TransferService.Reject")
	defer span.End()
	span.SetAttributes(attribute.String("transfer.id", transferID.String()))

	return s.reverse(ctx, reversal{
		actor:   actor,
		id:      transferID,
		reason:  reason,
		target:  models.TransferRejected,
		action:  models.AuditTransferReject,
		allowed: models.TransferStatus.Open,
	})
}

// Expire closes a transfer left PENDING past its deadline and returns the
// reserved amount to the sender.
func (s *TransferService) Expire(ctx context.Context, transferID uuid.UUID) (*models.TransferDB, error) {
	ctx, span := transferTracer.Start(ctx, "TransferService.Expire")
	defer span.End()
	span.SetAttributes(attribute.String("transfer.id", transferID.String()))

	return s.reverse(ctx, reversal{
		actor:   models.ActorSystem,
		id:      transferID,
		reason:  "verification not completed in time",
		target:  models.TransferExpired,
		action:  models.AuditTransferExpire,
		allowed: func(st models.TransferStatus) bool { return st == models.TransferPending },
	})
}

type reversal struct {
	actor   string
	id      uuid.UUID
	reason  string
	target  models.TransferStatus
	action  string
	allowed func(models.TransferStatus) bool
}

func (s *TransferService) reverse(ctx context.Context, r reversal) (*models.TransferDB, error) {
	var (
		t      *models.TransferDB
		change models.BalanceChange
		revRef string
	)
	err := s.tx.WithinTx(ctx, func(ctx context.Context) error {
		var err error
		t, err = s.transfers.GetByIDForUpdate(ctx, r.id)
		if err != nil {
			return err
		}
		if !r.allowed(t.Status) {
			return models.ErrTransferNotPending
		}

		sender, err := s.accounts.GetByID(ctx, t.SenderID)
		if err != nil {
			return err
		}
		change, err = s.ledger.Credit(ctx, t.SenderID, t.Kind(), t.Amount)
		if err != nil {
			return err
		}
		rev, err := s.recorder.Record(ctx, RecordParams{
			AccountID:   t.SenderID,
			Type:        models.TransactionCredit,
			Amount:      t.Amount,
			Change:      change,
			Currency:    sender.CurrencyFor(t.Kind()),
			Status:      models.TransactionCompleted,
			Description: fmt.Sprintf("Reversal of %s", t.Reference),
			Prefix:      reference.PrefixReversal,
			Metadata: models.Metadata{
				"reversal_of": t.Reference,
				"reason":      r.reason,
			},
		})
		if err != nil {
			return err
		}
		revRef = rev.Reference

		if err := s.recorder.Settle(ctx, t.Reference, models.TransactionPending, models.TransactionFailed); err != nil {
			return err
		}

		t.Status = r.target
		t.Metadata.Verification.OTP = nil
		t.Metadata.Resolution = &models.Resolution{By: r.actor, Reason: r.reason, At: s.cfg.Now(), ReversalReference: revRef}
		if err := s.transfers.Update(ctx, t); err != nil {
			return err
		}
		return s.audit.Append(ctx, &models.AuditEntryDB{
			Actor:      r.actor,
			Action:     r.action,
			Resource:   models.ResourceTransfer,
			ResourceID: t.ID.String(),
			Details: models.Metadata{
				"reference":          t.Reference,
				"reason":             r.reason,
				"reversal_reference": revRef,
				"amount":             t.Amount.String(),
			},
		})
	})
	if err != nil {
		logger.Log.Warnw("transfer reversal failed", "transfer_id", r.id, "target", r.target, "error", err)
		return nil, err
	}

	s.publishStatus(ctx, t)
	s.notifier.Publish(ctx, models.NewEvent(models.EventBalanceCredited, t.SenderID, revRef, models.Metadata{
		"kind":           string(change.Kind),
		"amount":         t.Amount.String(),
		"balance_before": change.Before.String(),
		"balance_after":  change.After.String(),
		"reversal_of":    t.Reference,
	}))
	logger.Log.Infow("transfer reversed", "transfer_id", t.ID, "status", t.Status, "reversal_reference", revRef, "actor", r.actor)
	return t, nil
}

// Get returns a transfer owned by senderID. Transfers of other senders are
// reported as not found.
func (s *TransferService) Get(ctx context.Context, senderID, transferID uuid.UUID) (*models.TransferDB, error) {
	ctx, span := transferTracer.Start(ctx, "TransferService.Get")
	defer span.End()

	t, err := s.transfers.GetByID(ctx, transferID)
	if err != nil {
		return nil, err
	}
	if t.SenderID != senderID {
		return nil, models.ErrTransferNotFound
	}
	return t, nil
}

// ListBySender returns a sender's transfers, newest first.
func (s *TransferService) ListBySender(ctx context.Context, senderID uuid.UUID, limit, offset int) ([]models.TransferDB, error) {
	ctx, span := transferTracer.Start(ctx, "TransferService.ListBySender")
	defer span.End()

	out, err := s.transfers.ListBySender(ctx, senderID, limit, offset)
	if err != nil {
		logger.Log.Errorw("failed to list transfers", "sender_id", senderID, "error", err)
		return nil, err
	}
	return out, nil
}
