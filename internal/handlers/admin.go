package handlers

//go:generate mockgen -source=admin.go -destination=admin_mock.go -package=handlers

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/sbilibin2017/gw-bank-core/internal/models"
	"github.com/sbilibin2017/gw-bank-core/internal/services"
	"github.com/shopspring/decimal"
)

// AccountAdministrator applies privileged balance overrides.
type AccountAdministrator interface {
	Adjust(ctx context.Context, req services.AdjustRequest) (*models.TransactionDB, error)
	ClearAccount(ctx context.Context, actor string, accountID uuid.UUID, reason string) (*services.ClearResult, error)
}

// TransferResolver closes transfers on an admin's decision.
type TransferResolver interface {
	Reject(ctx context.Context, actor string, transferID uuid.UUID, reason string) (*models.TransferDB, error)
	Complete(ctx context.Context, actor string, transferID uuid.UUID) (*models.TransferDB, error)
}

// AdjustRequest is the body of an admin adjustment
// swagger:model AdjustRequest
type AdjustRequest struct {
	// credit or debit
	// example: credit
	Direction string `json:"direction"`
	// cash (default) or bitcoin
	Kind string `json:"kind"`
	// example: 50.00
	Amount decimal.Decimal `json:"amount" swaggertype:"string"`
	// Transaction type; defaults to the direction
	// example: deposit
	Type        string `json:"type"`
	Description string `json:"description"`
	// Record the transaction at this time instead of now
	BackdateTo *time.Time      `json:"backdate_to,omitempty"`
	Metadata   models.Metadata `json:"metadata,omitempty"`
}

// ReasonRequest carries the justification of an admin action
// swagger:model ReasonRequest
type ReasonRequest struct {
	// example: suspected fraud
	Reason string `json:"reason"`
}

// NewAdjustHandler returns an HTTP handler for admin balance adjustments.
// @Summary Adjust balance
// @Description Credits or debits an account outside any transfer and records a completed transaction.
// @Tags admin
// @Accept json
// @Produce json
// @Param id path string true "Account ID"
// @Param request body handlers.AdjustRequest true "Adjustment"
// @Success 200 {object} handlers.TransactionResponse
// @Failure 400 {object} handlers.ErrorResponse
// @Failure 403 {object} handlers.ErrorResponse
// @Failure 404 {object} handlers.ErrorResponse
// @Failure 422 {object} handlers.ErrorResponse
// @Router /admin/accounts/{id}/adjust [post]
// @Security BearerAuth
func NewAdjustHandler(admin AccountAdministrator) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		accountID, ok := pathUUID(w, "account id", chi.URLParam(r, "id"))
		if !ok {
			return
		}

		var req AdjustRequest
		if err := decodeJSON(r, &req); err != nil {
			writeError(w, r, err)
			return
		}
		kind, err := models.ParseBalanceKind(req.Kind)
		if err != nil {
			writeError(w, r, err)
			return
		}

		txn, err := admin.Adjust(r.Context(), services.AdjustRequest{
			Actor:       actor(r),
			AccountID:   accountID,
			Direction:   req.Direction,
			Kind:        kind,
			Amount:      req.Amount,
			Type:        models.TransactionType(req.Type),
			Description: req.Description,
			BackdateTo:  req.BackdateTo,
			Metadata:    req.Metadata,
		})
		if err != nil {
			writeError(w, r, err)
			return
		}
		writeJSON(w, http.StatusOK, newTransactionResponse(txn))
	}
}

// NewClearAccountHandler returns an HTTP handler that zeroes an account.
// @Summary Clear account
// @Description Zeroes both balances and deletes the account's transactions. The action is audited.
// @Tags admin
// @Accept json
// @Produce json
// @Param id path string true "Account ID"
// @Param request body handlers.ReasonRequest false "Reason"
// @Success 200 {object} services.ClearResult
// @Failure 400 {object} handlers.ErrorResponse
// @Failure 404 {object} handlers.ErrorResponse
// @Router /admin/accounts/{id}/clear [post]
// @Security BearerAuth
func NewClearAccountHandler(admin AccountAdministrator) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		accountID, ok := pathUUID(w, "account id", chi.URLParam(r, "id"))
		if !ok {
			return
		}
		reason, ok := optionalReason(w, r)
		if !ok {
			return
		}

		res, err := admin.ClearAccount(r.Context(), actor(r), accountID, reason)
		if err != nil {
			writeError(w, r, err)
			return
		}
		writeJSON(w, http.StatusOK, res)
	}
}

// NewRejectTransferHandler returns an HTTP handler that rejects an open transfer.
// @Summary Reject transfer
// @Description Closes a PENDING or PROCESSING transfer and returns the reserved amount to the sender.
// @Tags admin
// @Accept json
// @Produce json
// @Param id path string true "Transfer ID"
// @Param request body handlers.ReasonRequest false "Reason"
// @Success 200 {object} handlers.TransferResponse
// @Failure 400 {object} handlers.ErrorResponse
// @Failure 404 {object} handlers.ErrorResponse
// @Failure 409 {object} handlers.ErrorResponse
// @Router /admin/transfers/{id}/reject [post]
// @Security BearerAuth
func NewRejectTransferHandler(resolver TransferResolver) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		transferID, ok := pathUUID(w, "transfer id", chi.URLParam(r, "id"))
		if !ok {
			return
		}
		reason, ok := optionalReason(w, r)
		if !ok {
			return
		}

		t, err := resolver.Reject(r.Context(), actor(r), transferID, reason)
		if err != nil {
			writeError(w, r, err)
			return
		}
		writeJSON(w, http.StatusOK, newTransferResponse(t))
	}
}

// NewCompleteTransferHandler returns an HTTP handler that settles a verified transfer.
// @Summary Complete transfer
// @Description Settles a PROCESSING transfer whose verification steps are all passed.
// @Tags admin
// @Produce json
// @Param id path string true "Transfer ID"
// @Success 200 {object} handlers.TransferResponse
// @Failure 400 {object} handlers.ErrorResponse
// @Failure 404 {object} handlers.ErrorResponse
// @Failure 409 {object} handlers.ErrorResponse
// @Router /admin/transfers/{id}/complete [post]
// @Security BearerAuth
func NewCompleteTransferHandler(resolver TransferResolver) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		transferID, ok := pathUUID(w, "transfer id", chi.URLParam(r, "id"))
		if !ok {
			return
		}

		t, err := resolver.Complete(r.Context(), actor(r), transferID)
		if err != nil {
			writeError(w, r, err)
			return
		}
		writeJSON(w, http.StatusOK, newTransferResponse(t))
	}
}

// optionalReason reads a ReasonRequest; an empty body is allowed.
func optionalReason(w http.ResponseWriter, r *http.Request) (string, bool) {
	var req ReasonRequest
	err := json.NewDecoder(r.Body).Decode(&req)
	if errors.Is(err, io.EOF) {
		return "", true
	}
	if err != nil {
		writeError(w, r, errInvalidBody)
		return "", false
	}
	return req.Reason, true
}

// RegisterAdminHandlers registers the admin routes. The caller applies the
// admin role check.
func RegisterAdminHandlers(r chi.Router, adjust, clearAccount, reject, complete http.HandlerFunc) {
	r.Post("/admin/accounts/{id}/adjust", adjust)
	r.Post("/admin/accounts/{id}/clear", clearAccount)
	r.Post("/admin/transfers/{id}/reject", reject)
	r.Post("/admin/transfers/{id}/complete", complete)
}
