package handlers

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"

	"github.com/google/uuid"
	"github.com/sbilibin2017/gw-bank-core/internal/logger"
	"github.com/sbilibin2017/gw-bank-core/internal/middlewares"
	"github.com/sbilibin2017/gw-bank-core/internal/models"
)

// ErrorResponse is the body of every failed request.
// swagger:model ErrorResponse
type ErrorResponse struct {
	// Actionable reason
	// example: insufficient funds: cash balance 10, required 25
	Error string `json:"error"`
	// Machine-readable error code
	// example: INSUFFICIENT_FUNDS
	Code string `json:"code"`
}

type errorMapping struct {
	target error
	status int
	code   string
}

// ordered: the first matching sentinel wins
var errorMappings = []errorMapping{
	{models.ErrInsufficientFunds, http.StatusUnprocessableEntity, "INSUFFICIENT_FUNDS"},
	{models.ErrLimitExceeded, http.StatusUnprocessableEntity, "LIMIT_EXCEEDED"},
	{models.ErrInvalidCode, http.StatusUnprocessableEntity, "INVALID_CODE"},
	{models.ErrCodeExpired, http.StatusUnprocessableEntity, "CODE_EXPIRED"},
	{models.ErrCodeNotConfigured, http.StatusUnprocessableEntity, "CODE_NOT_CONFIGURED"},
	{models.ErrStepOutOfOrder, http.StatusUnprocessableEntity, "STEP_OUT_OF_ORDER"},
	{models.ErrAccountNotEligible, http.StatusForbidden, "ACCOUNT_NOT_ELIGIBLE"},
	{models.ErrAccountNotFound, http.StatusNotFound, "ACCOUNT_NOT_FOUND"},
	{models.ErrTransferNotFound, http.StatusNotFound, "TRANSFER_NOT_FOUND"},
	{models.ErrTransactionNotFound, http.StatusNotFound, "TRANSACTION_NOT_FOUND"},
	{models.ErrTransferNotPending, http.StatusConflict, "TRANSFER_NOT_PENDING"},
	{models.ErrTransferNotProcessing, http.StatusConflict, "TRANSFER_NOT_PROCESSING"},
	{models.ErrTooManyAttempts, http.StatusTooManyRequests, "TOO_MANY_ATTEMPTS"},
	{models.ErrInvalidAmount, http.StatusBadRequest, "INVALID_AMOUNT"},
	{models.ErrInvalidTransferType, http.StatusBadRequest, "INVALID_TRANSFER_TYPE"},
	{models.ErrInvalidBalanceKind, http.StatusBadRequest, "INVALID_BALANCE_KIND"},
	{models.ErrInvalidDirection, http.StatusBadRequest, "INVALID_DIRECTION"},
	{models.ErrInvalidRecipient, http.StatusBadRequest, "INVALID_RECIPIENT"},
	{models.ErrSameAccount, http.StatusBadRequest, "SAME_ACCOUNT"},
}

var errInvalidBody = errors.New("invalid request body")

// writeError maps err onto a status and code. Unknown errors are logged
// and reported without detail.
func writeError(w http.ResponseWriter, r *http.Request, err error) {
	if errors.Is(err, errInvalidBody) {
		writeJSON(w, http.StatusBadRequest, ErrorResponse{Error: err.Error(), Code: "INVALID_REQUEST"})
		return
	}
	for _, m := range errorMappings {
		if errors.Is(err, m.target) {
			writeJSON(w, m.status, ErrorResponse{Error: err.Error(), Code: m.code})
			return
		}
	}
	logger.Log.Errorw("request failed",
		"request_id", middlewares.RequestIDFromContext(r.Context()),
		"method", r.Method,
		"path", r.URL.Path,
		"error", err,
	)
	writeJSON(w, http.StatusInternalServerError, ErrorResponse{Error: "internal server error", Code: "INTERNAL"})
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func decodeJSON(r *http.Request, dst any) error {
	if err := json.NewDecoder(r.Body).Decode(dst); err != nil {
		return errInvalidBody
	}
	return nil
}

// caller returns the authenticated account id, or writes 401.
func caller(w http.ResponseWriter, r *http.Request) (uuid.UUID, bool) {
	id, ok := middlewares.AccountIDFromContext(r.Context())
	if !ok {
		writeJSON(w, http.StatusUnauthorized, ErrorResponse{Error: "unauthorized", Code: "UNAUTHORIZED"})
		return uuid.Nil, false
	}
	return id, true
}

// actor names the admin in audit entries.
func actor(r *http.Request) string {
	if claims := middlewares.ClaimsFromContext(r.Context()); claims != nil {
		return claims.AccountID.String()
	}
	return "unknown"
}

func pathUUID(w http.ResponseWriter, name, raw string) (uuid.UUID, bool) {
	parsed, err := uuid.Parse(raw)
	if err != nil {
		writeJSON(w, http.StatusBadRequest, ErrorResponse{Error: "invalid " + name, Code: "INVALID_REQUEST"})
		return uuid.Nil, false
	}
	return parsed, true
}

const (
	defaultPageSize = 50
	maxPageSize     = 200
)

func pagination(r *http.Request) (limit, offset int) {
	limit = defaultPageSize
	if v, err := strconv.Atoi(r.URL.Query().Get("limit")); err == nil && v > 0 {
		limit = v
	}
	if limit > maxPageSize {
		limit = maxPageSize
	}
	if v, err := strconv.Atoi(r.URL.Query().Get("offset")); err == nil && v > 0 {
		offset = v
	}
	return limit, offset
}
