package handlers

//go:generate mockgen -source=transfers.go -destination=transfers_mock.go -package=handlers

import (
	"context"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/sbilibin2017/gw-bank-core/internal/models"
	"github.com/sbilibin2017/gw-bank-core/internal/services"
	"github.com/shopspring/decimal"
)

// TransferInitiator starts transfers and reads them back for their sender.
type TransferInitiator interface {
	Initiate(ctx context.Context, req services.InitiateRequest) (*models.TransferDB, error)
	Get(ctx context.Context, senderID, transferID uuid.UUID) (*models.TransferDB, error)
}

// TransferLister pages through a sender's transfers, newest first.
type TransferLister interface {
	ListBySender(ctx context.Context, senderID uuid.UUID, limit, offset int) ([]models.TransferDB, error)
}

// CreateTransferRequest is the body of POST /transfers
// swagger:model CreateTransferRequest
type CreateTransferRequest struct {
	// internal, local, international or crypto
	// example: international
	Type string `json:"type"`
	// example: 1000.00
	Amount      decimal.Decimal         `json:"amount" swaggertype:"string"`
	Recipient   models.RecipientDetails `json:"recipient"`
	Description string                  `json:"description"`
}

// TransfersResponse is a page of transfers
// swagger:model TransfersResponse
type TransfersResponse struct {
	Transfers []TransferResponse `json:"transfers"`
	Limit     int                `json:"limit"`
	Offset    int                `json:"offset"`
}

// TransferResponse describes a transfer and the step it waits for
// swagger:model TransferResponse
type TransferResponse struct {
	ID              uuid.UUID               `json:"id"`
	Type            string                  `json:"type"`
	Status          string                  `json:"status"`
	Reference       string                  `json:"reference"`
	Amount          decimal.Decimal         `json:"amount" swaggertype:"string"`
	Fee             decimal.Decimal         `json:"fee" swaggertype:"string"`
	TotalAmount     decimal.Decimal         `json:"total_amount" swaggertype:"string"`
	Currency        string                  `json:"currency"`
	Recipient       models.RecipientDetails `json:"recipient"`
	RecipientID     *uuid.UUID              `json:"recipient_id,omitempty"`
	RequiresImfCode bool                    `json:"requires_imf_code"`
	RequiresCotCode bool                    `json:"requires_cot_code"`
	CodesVerified   bool                    `json:"codes_verified"`
	// Stage reached by the verification steps
	// example: imf_verified
	VerificationStage string `json:"verification_stage"`
	// Step the transfer waits for; empty once verified
	// example: cot
	NextStep    string             `json:"next_step,omitempty"`
	Description string             `json:"description,omitempty"`
	Resolution  *models.Resolution `json:"resolution,omitempty"`
	CreatedAt   time.Time          `json:"created_at"`
	UpdatedAt   time.Time          `json:"updated_at"`
}

func newTransferResponse(t *models.TransferDB) TransferResponse {
	resp := TransferResponse{
		ID:                t.ID,
		Type:              string(t.Type),
		Status:            string(t.Status),
		Reference:         t.Reference,
		Amount:            t.Amount,
		Fee:               t.Fee,
		TotalAmount:       t.TotalAmount,
		Currency:          t.Currency,
		Recipient:         t.RecipientDetails,
		RecipientID:       t.RecipientID,
		RequiresImfCode:   t.RequiresImfCode,
		RequiresCotCode:   t.RequiresCotCode,
		CodesVerified:     t.CodesVerified,
		VerificationStage: string(t.Metadata.Verification.Stage),
		Description:       t.Description,
		Resolution:        t.Metadata.Resolution,
		CreatedAt:         t.CreatedAt,
		UpdatedAt:         t.UpdatedAt,
	}
	if t.Status == models.TransferPending {
		resp.NextStep = string(t.NextStep())
	}
	return resp
}

// NewCreateTransferHandler returns an HTTP handler that initiates a transfer.
// @Summary Initiate transfer
// @Description Reserves the amount on the caller's balance and creates a transfer. Internal transfers complete immediately; other types wait for their verification steps.
// @Tags transfers
// @Accept json
// @Produce json
// @Param request body handlers.CreateTransferRequest true "Transfer"
// @Success 201 {object} handlers.TransferResponse
// @Failure 400 {object} handlers.ErrorResponse
// @Failure 401 {object} handlers.ErrorResponse
// @Failure 403 {object} handlers.ErrorResponse
// @Failure 404 {object} handlers.ErrorResponse
// @Failure 422 {object} handlers.ErrorResponse
// @Failure 500 {object} handlers.ErrorResponse
// @Router /transfers [post]
// @Security BearerAuth
func NewCreateTransferHandler(initiator TransferInitiator) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		senderID, ok := caller(w, r)
		if !ok {
			return
		}

		var req CreateTransferRequest
		if err := decodeJSON(r, &req); err != nil {
			writeError(w, r, err)
			return
		}
		transferType, err := models.ParseTransferType(req.Type)
		if err != nil {
			writeError(w, r, err)
			return
		}

		t, err := initiator.Initiate(r.Context(), services.InitiateRequest{
			SenderID:    senderID,
			Type:        transferType,
			Amount:      req.Amount,
			Recipient:   req.Recipient,
			Description: req.Description,
		})
		if err != nil {
			writeError(w, r, err)
			return
		}
		writeJSON(w, http.StatusCreated, newTransferResponse(t))
	}
}

// NewGetTransferHandler returns an HTTP handler that reads one of the caller's transfers.
// @Summary Get transfer
// @Tags transfers
// @Produce json
// @Param id path string true "Transfer ID"
// @Success 200 {object} handlers.TransferResponse
// @Failure 400 {object} handlers.ErrorResponse
// @Failure 401 {object} handlers.ErrorResponse
// @Failure 404 {object} handlers.ErrorResponse
// @Router /transfers/{id} [get]
// @Security BearerAuth
func NewGetTransferHandler(reader TransferInitiator) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		senderID, ok := caller(w, r)
		if !ok {
			return
		}
		transferID, ok := pathUUID(w, "transfer id", chi.URLParam(r, "id"))
		if !ok {
			return
		}

		t, err := reader.Get(r.Context(), senderID, transferID)
		if err != nil {
			writeError(w, r, err)
			return
		}
		writeJSON(w, http.StatusOK, newTransferResponse(t))
	}
}

// NewListTransfersHandler returns an HTTP handler listing the caller's transfers.
// @Summary List transfers
// @Tags transfers
// @Produce json
// @Param limit query int false "Page size (max 200)"
// @Param offset query int false "Offset"
// @Success 200 {object} handlers.TransfersResponse
// @Failure 401 {object} handlers.ErrorResponse
// @Failure 500 {object} handlers.ErrorResponse
// @Router /transfers [get]
// @Security BearerAuth
func NewListTransfersHandler(lister TransferLister) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		senderID, ok := caller(w, r)
		if !ok {
			return
		}
		limit, offset := pagination(r)

		transfers, err := lister.ListBySender(r.Context(), senderID, limit, offset)
		if err != nil {
			writeError(w, r, err)
			return
		}

		resp := TransfersResponse{Transfers: make([]TransferResponse, 0, len(transfers)), Limit: limit, Offset: offset}
		for i := range transfers {
			resp.Transfers = append(resp.Transfers, newTransferResponse(&transfers[i]))
		}
		writeJSON(w, http.StatusOK, resp)
	}
}

// RegisterTransferHandlers registers the transfer routes.
func RegisterTransferHandlers(r chi.Router, create, list, get http.HandlerFunc) {
	r.Post("/transfers", create)
	r.Get("/transfers", list)
	r.Get("/transfers/{id}", get)
}
