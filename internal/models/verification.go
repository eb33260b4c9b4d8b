package models

import "time"

// VerificationStep is one out-of-band proof.
type VerificationStep string

// Verification steps, in the order they must be passed.
const (
	StepNone VerificationStep = ""
	StepIMF  VerificationStep = "imf"
	StepCOT  VerificationStep = "cot"
	StepOTP  VerificationStep = "otp"
)

// VerificationStage is the furthest step a transfer has passed.
type VerificationStage string

// Verification stages
const (
	StagePending VerificationStage = "pending"
	StageImfDone VerificationStage = "imf_verified"
	StageCotDone VerificationStage = "cot_verified"
	StageOtpDone VerificationStage = "otp_verified"
)

func (s VerificationStage) rank() int {
	switch s {
	case StageImfDone:
		return 1
	case StageCotDone:
		return 2
	case StageOtpDone:
		return 3
	default:
		return 0
	}
}

// stageAfter is the stage reached by passing step.
func stageAfter(step VerificationStep) VerificationStage {
	switch step {
	case StepIMF:
		return StageImfDone
	case StepCOT:
		return StageCotDone
	case StepOTP:
		return StageOtpDone
	default:
		return StagePending
	}
}

// Passed reports whether step is already behind the stage.
func (s VerificationStage) Passed(step VerificationStep) bool {
	return s.rank() >= stageAfter(step).rank()
}

// NextStep returns the only step accepted from stage, or StepNone when all
// required steps are done.
func NextStep(stage VerificationStage, requiresImf, requiresCot bool) VerificationStep {
	switch {
	case requiresImf && !stage.Passed(StepIMF):
		return StepIMF
	case requiresCot && !stage.Passed(StepCOT):
		return StepCOT
	case !stage.Passed(StepOTP):
		return StepOTP
	default:
		return StepNone
	}
}

// PendingOTP is the single live one-time code of a transfer.
type PendingOTP struct {
	Hash      string    `json:"hash"`
	IssuedAt  time.Time `json:"issued_at"`
	ExpiresAt time.Time `json:"expires_at"`
}

// Expired reports whether the code is no longer usable at now.
func (o *PendingOTP) Expired(now time.Time) bool {
	return !now.Before(o.ExpiresAt)
}

// Verification is the verification sub-state stored in transfer metadata.
type Verification struct {
	Stage         VerificationStage `json:"stage"`
	ImfVerifiedAt *time.Time        `json:"imf_verified_at,omitempty"`
	CotVerifiedAt *time.Time        `json:"cot_verified_at,omitempty"`
	OtpVerifiedAt *time.Time        `json:"otp_verified_at,omitempty"`
	OTP           *PendingOTP       `json:"otp,omitempty"`
	UsedOTPHash   string            `json:"used_otp_hash,omitempty"`
}

// NewVerification returns the initial sub-state.
func NewVerification() Verification {
	return Verification{Stage: StagePending}
}

// Requires reports whether the transfer needs step before money can move.
func (t *TransferDB) Requires(step VerificationStep) bool {
	switch step {
	case StepIMF:
		return t.RequiresImfCode
	case StepCOT:
		return t.RequiresCotCode
	case StepOTP:
		return t.Policy().RequiresOTP
	default:
		return false
	}
}

// NextStep returns the step the transfer expects next.
func (t *TransferDB) NextStep() VerificationStep {
	return NextStep(t.Metadata.Verification.Stage, t.RequiresImfCode, t.RequiresCotCode)
}

// CheckStep decides whether step may be verified now. done is true when the
// submission cannot change state: the step is not required or has already
// been passed. A passed step's code is still checked; see Replayed.
func (t *TransferDB) CheckStep(step VerificationStep) (done bool, err error) {
	if !t.Requires(step) || t.Metadata.Verification.Stage.Passed(step) {
		return true, nil
	}
	if t.Status != TransferPending {
		return false, ErrTransferNotPending
	}
	if t.NextStep() != step {
		return false, ErrStepOutOfOrder
	}
	return false, nil
}

// Replayed reports whether step is required and already passed.
func (t *TransferDB) Replayed(step VerificationStep) bool {
	return t.Requires(step) && t.Metadata.Verification.Stage.Passed(step)
}

// Pass records step as verified at now. The caller must have accepted it with
// CheckStep.
func (t *TransferDB) Pass(step VerificationStep, now time.Time) {
	v := &t.Metadata.Verification
	v.Stage = stageAfter(step)
	at := now
	switch step {
	case StepIMF:
		v.ImfVerifiedAt = &at
	case StepCOT:
		v.CotVerifiedAt = &at
	case StepOTP:
		v.OtpVerifiedAt = &at
		if v.OTP != nil {
			v.UsedOTPHash = v.OTP.Hash
		}
		v.OTP = nil
		t.CodesVerified = true
		t.Status = TransferProcessing
	}
}

// AllRequiredVerified reports whether every required step has a verified flag.
func (t *TransferDB) AllRequiredVerified() bool {
	v := t.Metadata.Verification
	if t.RequiresImfCode && v.ImfVerifiedAt == nil {
		return false
	}
	if t.RequiresCotCode && v.CotVerifiedAt == nil {
		return false
	}
	if t.Policy().RequiresOTP && v.OtpVerifiedAt == nil {
		return false
	}
	return t.CodesVerified || !t.Policy().RequiresOTP
}
