package handlers

//go:generate mockgen -source=verification.go -destination=verification_mock.go -package=handlers

import (
	"context"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/sbilibin2017/gw-bank-core/internal/models"
	"github.com/sbilibin2017/gw-bank-core/internal/services"
)

// TransferVerifier accepts the verification steps of a pending transfer.
type TransferVerifier interface {
	VerifyIMF(ctx context.Context, senderID, transferID uuid.UUID, code string) (*models.TransferDB, error)
	VerifyCOT(ctx context.Context, senderID, transferID uuid.UUID, code string) (*models.TransferDB, error)
	VerifyOTP(ctx context.Context, senderID, transferID uuid.UUID, code string) (*models.TransferDB, error)
	RequestOTP(ctx context.Context, senderID, transferID uuid.UUID) (*services.OTPIssue, error)
}

// VerifyCodeRequest carries a submitted code
// swagger:model VerifyCodeRequest
type VerifyCodeRequest struct {
	// example: IMF-4821
	Code string `json:"code"`
}

type verifyFunc func(ctx context.Context, senderID, transferID uuid.UUID, code string) (*models.TransferDB, error)

func newVerifyHandler(verify verifyFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		senderID, ok := caller(w, r)
		if !ok {
			return
		}
		transferID, ok := pathUUID(w, "transfer id", chi.URLParam(r, "id"))
		if !ok {
			return
		}

		var req VerifyCodeRequest
		if err := decodeJSON(r, &req); err != nil {
			writeError(w, r, err)
			return
		}
		if req.Code == "" {
			writeJSON(w, http.StatusBadRequest, ErrorResponse{Error: "code is required", Code: "INVALID_REQUEST"})
			return
		}

		t, err := verify(r.Context(), senderID, transferID, req.Code)
		if err != nil {
			writeError(w, r, err)
			return
		}
		writeJSON(w, http.StatusOK, newTransferResponse(t))
	}
}

// NewVerifyIMFHandler returns an HTTP handler for the IMF step.
// @Summary Verify IMF code
// @Description First step of international transfers. Re-submitting a passed step is a no-op.
// @Tags verification
// @Accept json
// @Produce json
// @Param id path string true "Transfer ID"
// @Param request body handlers.VerifyCodeRequest true "Code"
// @Success 200 {object} handlers.TransferResponse
// @Failure 400 {object} handlers.ErrorResponse
// @Failure 404 {object} handlers.ErrorResponse
// @Failure 409 {object} handlers.ErrorResponse
// @Failure 422 {object} handlers.ErrorResponse
// @Failure 429 {object} handlers.ErrorResponse
// @Router /transfers/{id}/imf [post]
// @Security BearerAuth
func NewVerifyIMFHandler(v TransferVerifier) http.HandlerFunc {
	return newVerifyHandler(v.VerifyIMF)
}

// NewVerifyCOTHandler returns an HTTP handler for the COT step.
// @Summary Verify COT code
// @Tags verification
// @Accept json
// @Produce json
// @Param id path string true "Transfer ID"
// @Param request body handlers.VerifyCodeRequest true "Code"
// @Success 200 {object} handlers.TransferResponse
// @Failure 400 {object} handlers.ErrorResponse
// @Failure 404 {object} handlers.ErrorResponse
// @Failure 409 {object} handlers.ErrorResponse
// @Failure 422 {object} handlers.ErrorResponse
// @Failure 429 {object} handlers.ErrorResponse
// @Router /transfers/{id}/cot [post]
// @Security BearerAuth
func NewVerifyCOTHandler(v TransferVerifier) http.HandlerFunc {
	return newVerifyHandler(v.VerifyCOT)
}

// NewVerifyOTPHandler returns an HTTP handler for the one-time password.
// @Summary Verify one-time password
// @Description Last step; a correct code moves the transfer to PROCESSING.
// @Tags verification
// @Accept json
// @Produce json
// @Param id path string true "Transfer ID"
// @Param request body handlers.VerifyCodeRequest true "Code"
// @Success 200 {object} handlers.TransferResponse
// @Failure 400 {object} handlers.ErrorResponse
// @Failure 404 {object} handlers.ErrorResponse
// @Failure 409 {object} handlers.ErrorResponse
// @Failure 422 {object} handlers.ErrorResponse
// @Failure 429 {object} handlers.ErrorResponse
// @Router /transfers/{id}/otp/verify [post]
// @Security BearerAuth
func NewVerifyOTPHandler(v TransferVerifier) http.HandlerFunc {
	return newVerifyHandler(v.VerifyOTP)
}

// NewRequestOTPHandler returns an HTTP handler that issues a one-time password.
// @Summary Request one-time password
// @Description Issues a new code, delivered by the notification service. It replaces any earlier code.
// @Tags verification
// @Produce json
// @Param id path string true "Transfer ID"
// @Success 200 {object} services.OTPIssue
// @Failure 400 {object} handlers.ErrorResponse
// @Failure 404 {object} handlers.ErrorResponse
// @Failure 409 {object} handlers.ErrorResponse
// @Failure 422 {object} handlers.ErrorResponse
// @Router /transfers/{id}/otp [post]
// @Security BearerAuth
func NewRequestOTPHandler(v TransferVerifier) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		senderID, ok := caller(w, r)
		if !ok {
			return
		}
		transferID, ok := pathUUID(w, "transfer id", chi.URLParam(r, "id"))
		if !ok {
			return
		}

		issue, err := v.RequestOTP(r.Context(), senderID, transferID)
		if err != nil {
			writeError(w, r, err)
			return
		}
		writeJSON(w, http.StatusOK, issue)
	}
}

// RegisterVerificationHandlers registers the verification routes.
func RegisterVerificationHandlers(r chi.Router, imf, cot, requestOTP, verifyOTP http.HandlerFunc) {
	r.Post("/transfers/{id}/imf", imf)
	r.Post("/transfers/{id}/cot", cot)
	r.Post("/transfers/{id}/otp", requestOTP)
	r.Post("/transfers/{id}/otp/verify", verifyOTP)
}
