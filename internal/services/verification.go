package services

import (
	"context"
	"crypto/rand"
	"errors"
	"fmt"
	"math/big"
	"time"

	"github.com/google/uuid"
	"github.com/sbilibin2017/gw-bank-core/internal/logger"
	"github.com/sbilibin2017/gw-bank-core/internal/metrics"
	"github.com/sbilibin2017/gw-bank-core/internal/models"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"golang.org/x/crypto/bcrypt"
)

var verificationTracer = otel.Tracer("services/verification")

// AttemptStore counts failed verification submissions per transfer.
type AttemptStore interface {
	Count(ctx context.Context, transferID uuid.UUID) (int64, error)
	Increment(ctx context.Context, transferID uuid.UUID) (int64, error)
	Reset(ctx context.Context, transferID uuid.UUID) error
}

// VerificationConfig tunes the verification state machine.
type VerificationConfig struct {
	OTPTTL       time.Duration
	MaxAttempts  int64 // invalid submissions allowed per window; 0 disables the guard
	BcryptCost   int
	Now          func() time.Time
	OTPGenerator func() (string, error)
}

// OTPIssue describes a freshly issued one-time code. The code itself only
// travels to the notification service.
type OTPIssue struct {
	TransferID uuid.UUID `json:"transfer_id"`
	Issued     bool      `json:"issued"` // false when OTP was already verified
	ExpiresAt  time.Time `json:"expires_at,omitempty"`
}

// VerificationService walks a pending transfer through its ordered
// out-of-band checks: IMF code, COT code and one-time password.
type VerificationService struct {
	tx        Transactor
	accounts  AccountStore
	transfers TransferStore
	attempts  AttemptStore
	audit     AuditStore
	notifier  Notifier
	metrics   *metrics.Metrics
	cfg       VerificationConfig
}

// NewVerificationService creates a new VerificationService.
func NewVerificationService(
	tx Transactor,
	accounts AccountStore,
	transfers TransferStore,
	attempts AttemptStore,
	audit AuditStore,
	notifier Notifier,
	m *metrics.Metrics,
	cfg VerificationConfig,
) *VerificationService {
	if cfg.OTPTTL <= 0 {
		cfg.OTPTTL = 10 * time.Minute
	}
	if cfg.BcryptCost == 0 {
		cfg.BcryptCost = bcrypt.DefaultCost
	}
	if cfg.Now == nil {
		cfg.Now = time.Now
	}
	if cfg.OTPGenerator == nil {
		cfg.OTPGenerator = GenerateOTP
	}
	return &VerificationService{
		tx:        tx,
		accounts:  accounts,
		transfers: transfers,
		attempts:  attempts,
		audit:     audit,
		notifier:  notifierOrNop(notifier),
		metrics:   m,
		cfg:       cfg,
	}
}

// GenerateOTP returns a uniformly random 6-digit code.
func GenerateOTP() (string, error) {
	n, err := rand.Int(rand.Reader, big.NewInt(1_000_000))
	if err != nil {
		return "", err
	}
	return fmt.Sprintf("%06d", n.Int64()), nil
}

// VerifyIMF checks the IMF code of an international transfer.
func (s *VerificationService) VerifyIMF(ctx context.Context, senderID, transferID uuid.UUID, code string) (*models.TransferDB, error) {
	ctx, span := verificationTracer.Start(ctx, "VerificationService.VerifyIMF")
	defer span.End()
	span.SetAttributes(attribute.String("transfer.id", transferID.String()))

	return s.verify(ctx, senderID, transferID, models.StepIMF, code)
}

// VerifyCOT checks the COT code of an international or crypto transfer.
func (s *VerificationService) VerifyCOT(ctx context.Context, senderID, transferID uuid.UUID, code string) (*models.TransferDB, error) {
	ctx, span := verificationTracer.Start(ctx, "VerificationService.VerifyCOT")
	defer span.End()
	span.SetAttributes(attribute.String("transfer.id", transferID.String()))

	return s.verify(ctx, senderID, transferID, models.StepCOT, code)
}

// VerifyOTP checks the one-time password. Passing it moves the transfer to
// PROCESSING.
func (s *VerificationService) VerifyOTP(ctx context.Context, senderID, transferID uuid.UUID, code string) (*models.TransferDB, error) {
	ctx, span := verificationTracer.Start(ctx, "VerificationService.VerifyOTP")
	defer span.End()
	span.SetAttributes(attribute.String("transfer.id", transferID.String()))

	return s.verify(ctx, senderID, transferID, models.StepOTP, code)
}

func (s *VerificationService) verify(ctx context.Context, senderID, transferID uuid.UUID, step models.VerificationStep, code string) (*models.TransferDB, error) {
	if err := s.checkAttempts(ctx, transferID); err != nil {
		s.record(ctx, senderID, transferID, step, metrics.OutcomeFailure, err)
		return nil, err
	}

	var (
		t    *models.TransferDB
		noop bool
	)
	err := s.tx.WithinTx(ctx, func(ctx context.Context) error {
		var err error
		t, err = s.lockOwned(ctx, senderID, transferID)
		if err != nil {
			return err
		}

		done, err := t.CheckStep(step)
		if err != nil {
			return err
		}
		if done && !t.Replayed(step) {
			noop = true
			return nil
		}

		hash, err := s.expectedHash(ctx, t, step)
		if err != nil {
			return err
		}
		if bcrypt.CompareHashAndPassword([]byte(hash), []byte(code)) != nil {
			return models.ErrInvalidCode
		}
		if done {
			noop = true
			return nil
		}

		t.Pass(step, s.cfg.Now())
		return s.transfers.Update(ctx, t)
	})

	switch {
	case errors.Is(err, models.ErrInvalidCode):
		s.countFailure(ctx, transferID)
	case err == nil && !noop:
		s.resetAttempts(ctx, transferID)
	}

	outcome := metrics.OutcomeSuccess
	if err != nil {
		outcome = metrics.OutcomeFailure
	} else if noop {
		outcome = metrics.OutcomeNoop
	}
	s.record(ctx, senderID, transferID, step, outcome, err)

	if err != nil {
		logger.Log.Warnw("verification step failed", "transfer_id", transferID, "step", step, "error", err)
		return nil, err
	}

	if step == models.StepOTP && !noop {
		s.metrics.IncTransferStatus(string(t.Status))
		s.notifier.Publish(ctx, models.NewEvent(models.EventTransferStatusChanged, t.SenderID, t.Reference, models.Metadata{
			"transfer_id": t.ID.String(),
			"status":      string(t.Status),
		}))
	}
	logger.Log.Infow("verification step accepted", "transfer_id", transferID, "step", step, "noop", noop, "next_step", t.NextStep())
	return t, nil
}

// expectedHash returns the bcrypt hash the submitted code is compared with.
// A passed OTP step is compared with the code that passed it.
func (s *VerificationService) expectedHash(ctx context.Context, t *models.TransferDB, step models.VerificationStep) (string, error) {
	if step == models.StepOTP {
		if t.Replayed(step) {
			if t.Metadata.Verification.UsedOTPHash == "" {
				return "", models.ErrCodeExpired
			}
			return t.Metadata.Verification.UsedOTPHash, nil
		}
		otp := t.Metadata.Verification.OTP
		if otp == nil || otp.Expired(s.cfg.Now()) {
			return "", models.ErrCodeExpired
		}
		return otp.Hash, nil
	}

	acct, err := s.accounts.GetByID(ctx, t.SenderID)
	if err != nil {
		return "", err
	}
	hash := acct.ImfCodeHash
	if step == models.StepCOT {
		hash = acct.CotCodeHash
	}
	if hash == nil || *hash == "" {
		return "", models.ErrCodeNotConfigured
	}
	return *hash, nil
}

// RequestOTP issues a new one-time code for a transfer whose other required
// steps are done. A new code replaces any previous one.
func (s *VerificationService) RequestOTP(ctx context.Context, senderID, transferID uuid.UUID) (*OTPIssue, error) {
	ctx, span := verificationTracer.Start(ctx, "VerificationService.RequestOTP")
	defer span.End()
	span.SetAttributes(attribute.String("transfer.id", transferID.String()))

	var (
		t    *models.TransferDB
		code string
		out  = &OTPIssue{TransferID: transferID}
	)
	err := s.tx.WithinTx(ctx, func(ctx context.Context) error {
		var err error
		t, err = s.lockOwned(ctx, senderID, transferID)
		if err != nil {
			return err
		}

		done, err := t.CheckStep(models.StepOTP)
		if err != nil {
			return err
		}
		if done {
			return nil
		}

		code, err = s.cfg.OTPGenerator()
		if err != nil {
			return fmt.Errorf("generate otp: %w", err)
		}
		hash, err := bcrypt.GenerateFromPassword([]byte(code), s.cfg.BcryptCost)
		if err != nil {
			return fmt.Errorf("hash otp: %w", err)
		}

		now := s.cfg.Now()
		t.Metadata.Verification.OTP = &models.PendingOTP{
			Hash:      string(hash),
			IssuedAt:  now,
			ExpiresAt: now.Add(s.cfg.OTPTTL),
		}
		out.Issued = true
		out.ExpiresAt = now.Add(s.cfg.OTPTTL)
		return s.transfers.Update(ctx, t)
	})
	if err != nil {
		logger.Log.Warnw("otp request failed", "transfer_id", transferID, "error", err)
		return nil, err
	}
	if !out.Issued {
		return out, nil
	}

	appendAuditBestEffort(ctx, s.audit, &models.AuditEntryDB{
		Actor:      senderID.String(),
		Action:     models.AuditOTPIssued,
		Resource:   models.ResourceTransfer,
		ResourceID: transferID.String(),
		Details:    models.Metadata{"expires_at": out.ExpiresAt.Format(time.RFC3339)},
	})
	s.notifier.Publish(ctx, models.NewEvent(models.EventOTPIssued, t.SenderID, t.Reference, models.Metadata{
		"transfer_id": transferID.String(),
		"code":        code,
		"expires_at":  out.ExpiresAt.Format(time.RFC3339),
	}))
	logger.Log.Infow("otp issued", "transfer_id", transferID, "expires_at", out.ExpiresAt)
	return out, nil
}

// lockOwned locks a transfer for the rest of the transaction. Transfers of
// other senders are reported as not found.
func (s *VerificationService) lockOwned(ctx context.Context, senderID, transferID uuid.UUID) (*models.TransferDB, error) {
	t, err := s.transfers.GetByIDForUpdate(ctx, transferID)
	if err != nil {
		return nil, err
	}
	if t.SenderID != senderID {
		return nil, models.ErrTransferNotFound
	}
	return t, nil
}

func (s *VerificationService) checkAttempts(ctx context.Context, transferID uuid.UUID) error {
	if s.attempts == nil || s.cfg.MaxAttempts <= 0 {
		return nil
	}
	n, err := s.attempts.Count(ctx, transferID)
	if err != nil {
		logger.Log.Warnw("attempt counter unavailable, allowing submission", "transfer_id", transferID, "error", err)
		return nil
	}
	if n >= s.cfg.MaxAttempts {
		return models.ErrTooManyAttempts
	}
	return nil
}

func (s *VerificationService) countFailure(ctx context.Context, transferID uuid.UUID) {
	if s.attempts == nil {
		return
	}
	if _, err := s.attempts.Increment(ctx, transferID); err != nil {
		logger.Log.Warnw("failed to count invalid attempt", "transfer_id", transferID, "error", err)
	}
}

func (s *VerificationService) resetAttempts(ctx context.Context, transferID uuid.UUID) {
	if s.attempts == nil {
		return
	}
	if err := s.attempts.Reset(ctx, transferID); err != nil {
		logger.Log.Warnw("failed to reset attempt counter", "transfer_id", transferID, "error", err)
	}
}

// record audits and counts one submission. It runs after the transaction so
// failed submissions are kept even though their changes were rolled back.
func (s *VerificationService) record(ctx context.Context, senderID, transferID uuid.UUID, step models.VerificationStep, outcome string, err error) {
	s.metrics.IncVerification(string(step), outcome)

	details := models.Metadata{"step": string(step), "outcome": outcome}
	if err != nil {
		details["error"] = err.Error()
	}
	appendAuditBestEffort(ctx, s.audit, &models.AuditEntryDB{
		Actor:      senderID.String(),
		Action:     models.AuditVerifyStep,
		Resource:   models.ResourceTransfer,
		ResourceID: transferID.String(),
		Details:    details,
	})
}
