package models

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func newTransfer(t TransferType) *TransferDB {
	p := PolicyFor(t)
	return &TransferDB{
		Type:            t,
		Status:          TransferPending,
		RequiresImfCode: p.RequiresImfCode,
		RequiresCotCode: p.RequiresCotCode,
		Metadata:        TransferMetadata{Verification: NewVerification()},
	}
}

func TestNextStep(t *testing.T) {
	tests := []struct {
		name     string
		stage    VerificationStage
		imf, cot bool
		expected VerificationStep
	}{
		{"all required from pending", StagePending, true, true, StepIMF},
		{"cot after imf", StageImfDone, true, true, StepCOT},
		{"otp after cot", StageCotDone, true, true, StepOTP},
		{"done", StageOtpDone, true, true, StepNone},
		{"imf skipped", StagePending, false, true, StepCOT},
		{"only otp", StagePending, false, false, StepOTP},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, NextStep(tt.stage, tt.imf, tt.cot))
		})
	}
}

func TestTransfer_CheckStep_Ordering(t *testing.T) {
	tr := newTransfer(TransferInternational)

	_, err := tr.CheckStep(StepOTP)
	assert.ErrorIs(t, err, ErrStepOutOfOrder)
	_, err = tr.CheckStep(StepCOT)
	assert.ErrorIs(t, err, ErrStepOutOfOrder)

	done, err := tr.CheckStep(StepIMF)
	assert.NoError(t, err)
	assert.False(t, done)
	tr.Pass(StepIMF, time.Now())

	done, err = tr.CheckStep(StepIMF)
	assert.NoError(t, err)
	assert.True(t, done, "a passed step cannot change state")

	_, err = tr.CheckStep(StepOTP)
	assert.ErrorIs(t, err, ErrStepOutOfOrder)
	tr.Pass(StepCOT, time.Now())
	assert.False(t, tr.AllRequiredVerified())

	assert.True(t, tr.Replayed(StepIMF))
	assert.False(t, tr.Replayed(StepOTP))
	tr.Metadata.Verification.OTP = &PendingOTP{Hash: "otp-hash"}
	tr.Pass(StepOTP, time.Now())
	assert.Nil(t, tr.Metadata.Verification.OTP)
	assert.Equal(t, "otp-hash", tr.Metadata.Verification.UsedOTPHash)
	assert.True(t, tr.Replayed(StepOTP))
	assert.True(t, tr.CodesVerified)
	assert.Equal(t, TransferProcessing, tr.Status)
	assert.True(t, tr.AllRequiredVerified())
}

func TestTransfer_CheckStep_NotRequired(t *testing.T) {
	tr := newTransfer(TransferLocal)

	done, err := tr.CheckStep(StepIMF)
	assert.NoError(t, err)
	assert.True(t, done)

	done, err = tr.CheckStep(StepOTP)
	assert.NoError(t, err)
	assert.False(t, done)
}

func TestTransfer_CheckStep_NotPending(t *testing.T) {
	tr := newTransfer(TransferInternational)
	tr.Status = TransferRejected

	_, err := tr.CheckStep(StepIMF)
	assert.ErrorIs(t, err, ErrTransferNotPending)
}

func TestPendingOTP_Expired(t *testing.T) {
	now := time.Now()
	otp := &PendingOTP{IssuedAt: now, ExpiresAt: now.Add(10 * time.Minute)}

	assert.False(t, otp.Expired(now.Add(9*time.Minute)))
	assert.True(t, otp.Expired(now.Add(10*time.Minute)))
}
